package catalogcmd

import (
	"fmt"

	"defsync/cmd/defsync/cmdutil"
	"defsync/cmd/defsync/ui"
	"defsync/internal/adapter/docker"
	"defsync/internal/catalog"

	"github.com/spf13/cobra"
)

func verifyCmd() *cobra.Command {
	var flags cmdutil.RegistryFlags

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check catalog images against the local Docker engine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := flags.ResolveCatalog()
			if err != nil {
				return err
			}

			cat, err := catalog.Load(path)
			if err != nil {
				return err
			}

			sources, err := cat.SourceDefinitions(cmd.Context())
			if err != nil {
				return err
			}
			destinations, err := cat.DestinationDefinitions(cmd.Context())
			if err != nil {
				return err
			}
			entries := append(sources, destinations...)

			verifier, err := docker.NewVerifier()
			if err != nil {
				return err
			}
			defer func() { _ = verifier.Close() }()

			statuses, err := verifier.VerifyEntries(cmd.Context(), entries)
			if err != nil {
				return err
			}

			missing := 0
			var rows [][]string
			for _, s := range statuses {
				present := ui.Success("present")
				if !s.Present {
					present = ui.ErrorStyle.Render("missing")
					missing++
				}
				rows = append(rows, []string{s.Reference(), present})
			}
			fmt.Println(ui.Table([]string{"IMAGE", "STATUS"}, rows))

			if missing > 0 {
				return fmt.Errorf("%d of %d catalog images missing locally", missing, len(statuses))
			}
			fmt.Println(ui.SuccessMsg("All %d catalog images present.", len(statuses)))
			return nil
		},
	}

	flags.Bind(cmd)
	return cmd
}
