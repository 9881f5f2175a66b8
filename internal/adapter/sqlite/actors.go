package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"defsync"

	"github.com/google/uuid"
)

// AddActor registers a live actor referencing a definition. The definition
// must already exist in the registry.
func (s *Store) AddActor(ctx context.Context, actor defsync.Actor) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin actor insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var one int
	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM definitions WHERE id = ?`, actor.DefinitionID.String()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("add actor %q: definition %s not found", actor.Name, actor.DefinitionID)
	}
	if err != nil {
		return fmt.Errorf("add actor %q: %w", actor.Name, err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO actors (id, definition_id, name, created_at) VALUES (?, ?, ?, ?)`,
		actor.ID.String(), actor.DefinitionID.String(), actor.Name, now()); err != nil {
		return fmt.Errorf("add actor %q: %w", actor.Name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit actor insert: %w", err)
	}
	return nil
}

// ListActors returns all registered actors ordered by name.
func (s *Store) ListActors(ctx context.Context) ([]defsync.Actor, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, definition_id, name FROM actors ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list actors: %w", err)
	}
	defer rows.Close()

	var out []defsync.Actor
	for rows.Next() {
		var rawID, rawDef, name string
		if err := rows.Scan(&rawID, &rawDef, &name); err != nil {
			return nil, fmt.Errorf("scan actor: %w", err)
		}
		id, err := uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("parse actor id %q: %w", rawID, err)
		}
		defID, err := uuid.Parse(rawDef)
		if err != nil {
			return nil, fmt.Errorf("parse actor definition id %q: %w", rawDef, err)
		}
		out = append(out, defsync.Actor{ID: id, DefinitionID: defID, Name: name})
	}
	return out, rows.Err()
}
