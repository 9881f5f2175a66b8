// Package doctorcmd diagnoses the local setup: config, catalog, registry,
// and clock health.
package doctorcmd

import (
	"fmt"
	"time"

	"defsync/cmd/defsync/cmdutil"
	"defsync/cmd/defsync/ui"
	"defsync/internal/adapter/sqlite"
	"defsync/internal/catalog"
	"defsync/internal/signal/ntp"

	"github.com/spf13/cobra"
)

func Cmd() *cobra.Command {
	var (
		flags     cmdutil.RegistryFlags
		skipClock bool
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose catalog, registry, and clock health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			type issue struct {
				component string
				problem   string
				fix       string
			}
			issues := make([]issue, 0, 4)

			catalogOK := false
			catalogPath, err := flags.ResolveCatalog()
			if err != nil {
				issues = append(issues, issue{
					component: "catalog",
					problem:   err.Error(),
					fix:       "defsync context add <name> --catalog <path>",
				})
			} else if cat, err := catalog.Load(catalogPath); err != nil {
				issues = append(issues, issue{
					component: "catalog",
					problem:   err.Error(),
					fix:       "defsync catalog validate --catalog " + catalogPath,
				})
			} else {
				catalogOK = true
				fmt.Println(ui.SuccessMsg("catalog: %d definitions at %s", cat.Len(), catalogPath))
			}

			registryOK := false
			dbPath, err := flags.ResolveDatabase()
			if err == nil {
				var store *sqlite.Store
				store, err = sqlite.Open(dbPath)
				if err == nil {
					_, err = store.ListDefinitions(cmd.Context())
					_ = store.Close()
				}
			}
			if err != nil {
				issues = append(issues, issue{
					component: "registry",
					problem:   err.Error(),
					fix:       "check --db path and file permissions",
				})
			} else {
				registryOK = true
				fmt.Println(ui.SuccessMsg("registry: reachable at %s", dbPath))
			}

			// Upgrade deadlines are wall-clock dates; a skewed clock flips
			// support states early or late.
			clockOK := true
			if !skipClock {
				report, err := ntp.New().Check()
				switch {
				case err != nil:
					clockOK = false
					issues = append(issues, issue{
						component: "clock",
						problem:   err.Error(),
						fix:       "check network access to " + ntp.DefaultPool + " or pass --skip-clock",
					})
				case !report.Healthy():
					clockOK = false
					issues = append(issues, issue{
						component: "clock",
						problem: fmt.Sprintf("offset %s exceeds %s threshold",
							report.Offset.Round(time.Millisecond), report.Threshold),
						fix: "sync the system clock (chrony/ntpd)",
					})
				default:
					fmt.Println(ui.SuccessMsg("clock: offset %s within %s",
						report.Offset.Round(time.Millisecond), report.Threshold))
				}
			}

			if catalogOK && registryOK && clockOK {
				fmt.Println(ui.SuccessMsg("no issues detected"))
				return nil
			}

			fmt.Println(ui.WarnMsg("detected issues:"))
			for i, issue := range issues {
				fmt.Printf("  %d) %s: %s\n", i+1, issue.component, issue.problem)
				fmt.Println(ui.Muted("     fix: " + issue.fix))
			}
			return fmt.Errorf("%d issue(s) detected", len(issues))
		},
	}

	flags.Bind(cmd)
	cmd.Flags().BoolVar(&skipClock, "skip-clock", false, "Skip the NTP clock skew check")
	return cmd
}
