// Package actorcmd manages actors, the live instances that mark definitions
// as in use.
package actorcmd

import "github.com/spf13/cobra"

// Cmd returns the parent "defsync actor" command.
func Cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "actor",
		Short: "Manage actors referencing definitions",
	}

	cmd.AddCommand(addCmd())
	cmd.AddCommand(listCmd())
	return cmd
}
