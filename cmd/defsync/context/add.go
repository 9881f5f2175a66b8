package contextcmd

import (
	"fmt"

	"defsync/cmd/defsync/ui"
	"defsync/config"

	"github.com/spf13/cobra"
)

func addCmd() *cobra.Command {
	var database, catalog string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add or update a context",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			name := args[0]

			if database == "" && catalog == "" {
				return fmt.Errorf("at least one of --db or --catalog is required")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			cfg.Set(name, config.Context{
				Database: database,
				Catalog:  catalog,
			})

			if err := cfg.Save(); err != nil {
				return err
			}

			fmt.Println(ui.SuccessMsg("Context %s saved.", ui.Bold(name)))
			return nil
		},
	}

	cmd.Flags().StringVar(&database, "db", "", "Registry database path")
	cmd.Flags().StringVar(&catalog, "catalog", "", "Catalog file path")
	return cmd
}
