package catalogcmd

import (
	"fmt"

	"defsync/cmd/defsync/cmdutil"
	"defsync/cmd/defsync/ui"
	"defsync/internal/catalog"

	"github.com/spf13/cobra"
)

func validateCmd() *cobra.Command {
	var flags cmdutil.RegistryFlags

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Parse and validate the catalog file",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			path, err := flags.ResolveCatalog()
			if err != nil {
				return err
			}

			cat, err := catalog.Load(path)
			if err != nil {
				return err
			}

			fmt.Println(ui.SuccessMsg("Catalog is valid: %d definitions.", cat.Len()))
			return nil
		},
	}

	flags.Bind(cmd)
	return cmd
}
