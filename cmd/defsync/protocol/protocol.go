// Package protocolcmd manages the platform protocol version range.
package protocolcmd

import "github.com/spf13/cobra"

// Cmd returns the parent "defsync protocol" command.
func Cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "protocol",
		Short: "Manage the supported protocol version range",
	}

	cmd.AddCommand(showCmd())
	cmd.AddCommand(setCmd())
	return cmd
}
