package contextcmd

import (
	"fmt"
	"sort"

	"defsync/cmd/defsync/ui"
	"defsync/config"

	"github.com/spf13/cobra"
)

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available contexts",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			if len(cfg.Contexts) == 0 {
				fmt.Println(ui.InfoMsg("No contexts configured."))
				return nil
			}

			names := make([]string, 0, len(cfg.Contexts))
			for name := range cfg.Contexts {
				names = append(names, name)
			}
			sort.Strings(names)

			var rows [][]string
			for _, name := range names {
				c := cfg.Contexts[name]

				current := ""
				if name == cfg.CurrentContext {
					current = "*"
				}

				rows = append(rows, []string{current, name, c.Database, c.Catalog})
			}

			fmt.Println(ui.Table([]string{"", "NAME", "DATABASE", "CATALOG"}, rows))
			return nil
		},
	}
}
