package actorcmd

import (
	"fmt"

	"defsync"
	"defsync/cmd/defsync/cmdutil"
	"defsync/cmd/defsync/ui"
	"defsync/internal/adapter/sqlite"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func addCmd() *cobra.Command {
	var (
		flags cmdutil.RegistryFlags
		name  string
	)

	cmd := &cobra.Command{
		Use:   "add <definition-id>",
		Short: "Register an actor for a definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			definitionID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid definition id %q: %w", args[0], err)
			}

			dbPath, err := flags.ResolveDatabase()
			if err != nil {
				return err
			}

			store, err := sqlite.Open(dbPath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			actor := defsync.Actor{
				ID:           uuid.New(),
				DefinitionID: definitionID,
				Name:         name,
			}
			if err := store.AddActor(cmd.Context(), actor); err != nil {
				return err
			}

			fmt.Println(ui.SuccessMsg("Actor %s registered.", ui.Bold(actor.ID.String())))
			return nil
		},
	}

	flags.Bind(cmd)
	cmd.Flags().StringVar(&name, "name", "", "Actor display name")
	return cmd
}
