// Package catalogcmd inspects catalog files without touching the registry.
package catalogcmd

import "github.com/spf13/cobra"

// Cmd returns the parent "defsync catalog" command.
func Cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Validate and inspect catalog files",
	}

	cmd.AddCommand(validateCmd())
	cmd.AddCommand(verifyCmd())
	return cmd
}
