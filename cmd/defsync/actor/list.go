package actorcmd

import (
	"fmt"

	"defsync/cmd/defsync/cmdutil"
	"defsync/cmd/defsync/ui"
	"defsync/internal/adapter/sqlite"

	"github.com/spf13/cobra"
)

func listCmd() *cobra.Command {
	var flags cmdutil.RegistryFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered actors",
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

			actors, err := store.ListActors(cmd.Context())
			if err != nil {
				return err
			}

			if len(actors) == 0 {
				fmt.Println(ui.InfoMsg("No actors registered."))
				return nil
			}

			var rows [][]string
			for _, a := range actors {
				rows = append(rows, []string{a.ID.String(), a.Name, a.DefinitionID.String()})
			}
			fmt.Println(ui.Table([]string{"ID", "NAME", "DEFINITION"}, rows))
			return nil
		},
	}

	flags.Bind(cmd)
	return cmd
}
