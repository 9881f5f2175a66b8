package main

import (
	"fmt"
	"os"

	actorcmd "defsync/cmd/defsync/actor"
	applycmd "defsync/cmd/defsync/apply"
	catalogcmd "defsync/cmd/defsync/catalog"
	contextcmd "defsync/cmd/defsync/context"
	doctorcmd "defsync/cmd/defsync/doctor"
	protocolcmd "defsync/cmd/defsync/protocol"
	statuscmd "defsync/cmd/defsync/status"
	"defsync/cmd/defsync/ui"
	"defsync/internal/logging"

	"github.com/spf13/cobra"
)

func main() {
	var (
		debug bool
		plain bool
	)
	if err := logging.Configure(logging.LevelWarn); err != nil {
		_, _ = os.Stderr.WriteString("configure logger: " + err.Error() + "\n")
		os.Exit(1)
	}

	root := &cobra.Command{
		Use:           "defsync",
		Short:         "Connector definition registry reconciler",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			level := logging.LevelWarn
			if debug {
				level = logging.LevelDebug
			}
			if err := logging.Configure(level); err != nil {
				return err
			}

			ui.ConfigureInteraction(plain)
			return nil
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().BoolVar(&plain, "plain", false, "Disable colored output")

	root.AddCommand(applycmd.Cmd())
	root.AddCommand(statuscmd.Cmd())
	root.AddCommand(catalogcmd.Cmd())
	root.AddCommand(protocolcmd.Cmd())
	root.AddCommand(actorcmd.Cmd())
	root.AddCommand(contextcmd.Cmd())
	root.AddCommand(doctorcmd.Cmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
