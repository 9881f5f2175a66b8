package protocolcmd

import (
	"fmt"

	"defsync/cmd/defsync/cmdutil"
	"defsync/cmd/defsync/ui"
	"defsync/internal/adapter/sqlite"

	"github.com/spf13/cobra"
)

func setCmd() *cobra.Command {
	var flags cmdutil.RegistryFlags

	cmd := &cobra.Command{
		Use:   "set <min> <max>",
		Short: "Set the supported protocol version range",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, err := flags.ResolveDatabase()
			if err != nil {
				return err
			}

			store, err := sqlite.Open(dbPath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.SetProtocolRange(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}

			fmt.Println(ui.SuccessMsg("Protocol range set to %s.", ui.Bold(args[0]+".."+args[1])))
			return nil
		},
	}

	flags.Bind(cmd)
	return cmd
}
