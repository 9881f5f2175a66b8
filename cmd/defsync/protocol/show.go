package protocolcmd

import (
	"fmt"

	"defsync/cmd/defsync/cmdutil"
	"defsync/cmd/defsync/ui"
	"defsync/internal/adapter/sqlite"

	"github.com/spf13/cobra"
)

func showCmd() *cobra.Command {
	var flags cmdutil.RegistryFlags

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the configured protocol version range",
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

			rng, err := store.CurrentRange(cmd.Context())
			if err != nil {
				return err
			}
			if rng == nil {
				fmt.Println(ui.InfoMsg("No protocol range configured: all protocol versions accepted."))
				return nil
			}

			fmt.Print(ui.KeyValues("",
				ui.KV("min", rng.Min.String()),
				ui.KV("max", rng.Max.String()),
			))
			return nil
		},
	}

	flags.Bind(cmd)
	return cmd
}
