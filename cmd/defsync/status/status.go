// Package statuscmd lists persisted definitions and their support states.
package statuscmd

import (
	"fmt"

	"defsync"
	"defsync/cmd/defsync/cmdutil"
	"defsync/cmd/defsync/ui"
	"defsync/internal/adapter/sqlite"

	"github.com/spf13/cobra"
)

func Cmd() *cobra.Command {
	var flags cmdutil.RegistryFlags

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show registry definitions and support states",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dbPath, err := flags.ResolveDatabase()
			if err != nil {
				return err
			}

			store, err := sqlite.Open(dbPath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			defs, err := store.ListDefinitions(cmd.Context())
			if err != nil {
				return err
			}

			if len(defs) == 0 {
				fmt.Println(ui.InfoMsg("Registry is empty. Run %s to populate it.", ui.Bold("defsync apply")))
				return nil
			}

			var rows [][]string
			for _, d := range defs {
				rows = append(rows, []string{
					d.Metadata.Name,
					string(d.Metadata.Type),
					d.Metadata.DockerRepository,
					d.DefaultVersion.DockerImageTag,
					d.DefaultVersion.ProtocolVersion,
					renderSupportState(d.SupportState),
				})
			}

			fmt.Println(ui.Table(
				[]string{"NAME", "TYPE", "REPOSITORY", "VERSION", "PROTOCOL", "SUPPORT"},
				rows,
			))
			return nil
		},
	}

	flags.Bind(cmd)
	return cmd
}

func renderSupportState(s defsync.SupportState) string {
	switch s {
	case defsync.SupportStateSupported:
		return ui.Success(string(s))
	case defsync.SupportStateDeprecated:
		return ui.Warn(string(s))
	case defsync.SupportStateUnsupported:
		return ui.ErrorStyle.Render(string(s))
	default:
		return string(s)
	}
}
