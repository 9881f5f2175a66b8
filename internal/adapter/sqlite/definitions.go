package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"defsync"
	"defsync/internal/reconcile"
	"defsync/internal/support"

	"github.com/google/uuid"
)

var (
	_ reconcile.DefinitionStore = (*Store)(nil)
	_ support.Registry          = (*Store)(nil)
)

const deadlineFormat = time.RFC3339

// IDsInUse returns the definition ids referenced by at least one actor.
func (s *Store) IDsInUse(ctx context.Context) (map[uuid.UUID]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT definition_id FROM actors`)
	if err != nil {
		return nil, fmt.Errorf("list definition ids in use: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]struct{})
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan definition id: %w", err)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse definition id %q: %w", raw, err)
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

// DefaultVersions returns the persisted default version of every definition.
func (s *Store) DefaultVersions(ctx context.Context) (map[uuid.UUID]defsync.VersionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT definition_id, docker_image_tag, protocol_version FROM default_versions`)
	if err != nil {
		return nil, fmt.Errorf("list default versions: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]defsync.VersionRecord)
	for rows.Next() {
		var raw, tag, protocol string
		if err := rows.Scan(&raw, &tag, &protocol); err != nil {
			return nil, fmt.Errorf("scan default version: %w", err)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse definition id %q: %w", raw, err)
		}
		out[id] = defsync.VersionRecord{
			DefinitionID:    id,
			DockerImageTag:  tag,
			ProtocolVersion: protocol,
		}
	}
	return out, rows.Err()
}

// WriteDefinition persists metadata, default version, and breaking changes
// in one transaction. The definition's support state and creation time
// survive updates.
func (s *Store) WriteDefinition(ctx context.Context, meta defsync.DefinitionMetadata, version defsync.VersionRecord, changes []defsync.BreakingChange) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin definition write: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ts := now()
	if _, err := tx.ExecContext(ctx, `
INSERT INTO definitions (id, type, name, docker_repository, documentation_url, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	type = excluded.type,
	name = excluded.name,
	docker_repository = excluded.docker_repository,
	documentation_url = excluded.documentation_url,
	updated_at = excluded.updated_at`,
		meta.ID.String(), string(meta.Type), meta.Name, meta.DockerRepository, meta.DocumentationURL, ts, ts); err != nil {
		return fmt.Errorf("upsert definition %s: %w", meta.DockerRepository, err)
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO default_versions (definition_id, docker_image_tag, protocol_version, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(definition_id) DO UPDATE SET
	docker_image_tag = excluded.docker_image_tag,
	protocol_version = excluded.protocol_version,
	updated_at = excluded.updated_at`,
		version.DefinitionID.String(), version.DockerImageTag, version.ProtocolVersion, ts); err != nil {
		return fmt.Errorf("upsert default version %s: %w", meta.DockerRepository, err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM breaking_changes WHERE definition_id = ?`, meta.ID.String()); err != nil {
		return fmt.Errorf("clear breaking changes %s: %w", meta.DockerRepository, err)
	}
	for _, bc := range changes {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO breaking_changes (definition_id, target_version, message, upgrade_deadline, migration_doc_url)
VALUES (?, ?, ?, ?, ?)`,
			meta.ID.String(), bc.TargetVersion, bc.Message, bc.UpgradeDeadline.UTC().Format(deadlineFormat), bc.MigrationDocURL); err != nil {
			return fmt.Errorf("insert breaking change %s %s: %w", meta.DockerRepository, bc.TargetVersion, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit definition write %s: %w", meta.DockerRepository, err)
	}
	return nil
}

// UpdateMetadata refreshes the non-versioned definition record. The default
// version row is never touched. Updating a definition that was never written
// is an error.
func (s *Store) UpdateMetadata(ctx context.Context, meta defsync.DefinitionMetadata) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE definitions
SET type = ?, name = ?, docker_repository = ?, documentation_url = ?, updated_at = ?
WHERE id = ?`,
		string(meta.Type), meta.Name, meta.DockerRepository, meta.DocumentationURL, now(), meta.ID.String())
	if err != nil {
		return fmt.Errorf("update definition metadata %s: %w", meta.DockerRepository, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update definition metadata %s: %w", meta.DockerRepository, err)
	}
	if n == 0 {
		return fmt.Errorf("update definition metadata %s: definition %s not found", meta.DockerRepository, meta.ID)
	}
	return nil
}

// ListDefinitions returns every definition with its default version and
// support state, ordered by docker repository.
func (s *Store) ListDefinitions(ctx context.Context) ([]defsync.DefinitionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT d.id, d.type, d.name, d.docker_repository, d.documentation_url, d.support_state, d.updated_at,
	COALESCE(v.docker_image_tag, ''), COALESCE(v.protocol_version, '')
FROM definitions d
LEFT JOIN default_versions v ON v.definition_id = d.id
ORDER BY d.docker_repository`)
	if err != nil {
		return nil, fmt.Errorf("list definitions: %w", err)
	}
	defer rows.Close()

	out := make([]defsync.DefinitionRecord, 0)
	for rows.Next() {
		var (
			rawID, typ, name, repo, docURL, state, updatedAt string
			tag, protocol                                    string
		)
		if err := rows.Scan(&rawID, &typ, &name, &repo, &docURL, &state, &updatedAt, &tag, &protocol); err != nil {
			return nil, fmt.Errorf("scan definition: %w", err)
		}
		id, err := uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("parse definition id %q: %w", rawID, err)
		}
		rec := defsync.DefinitionRecord{
			Metadata: defsync.DefinitionMetadata{
				ID:               id,
				Type:             defsync.DefinitionType(typ),
				Name:             name,
				DockerRepository: repo,
				DocumentationURL: docURL,
			},
			DefaultVersion: defsync.VersionRecord{
				DefinitionID:    id,
				DockerImageTag:  tag,
				ProtocolVersion: protocol,
			},
			SupportState: defsync.SupportState(state),
		}
		if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
			rec.UpdatedAt = t
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// BreakingChanges returns the declared breaking changes for one definition,
// ordered by target version string.
func (s *Store) BreakingChanges(ctx context.Context, definitionID uuid.UUID) ([]defsync.BreakingChange, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT target_version, message, upgrade_deadline, migration_doc_url
FROM breaking_changes WHERE definition_id = ? ORDER BY target_version`,
		definitionID.String())
	if err != nil {
		return nil, fmt.Errorf("list breaking changes: %w", err)
	}
	defer rows.Close()

	var out []defsync.BreakingChange
	for rows.Next() {
		var bc defsync.BreakingChange
		var deadline string
		if err := rows.Scan(&bc.TargetVersion, &bc.Message, &deadline, &bc.MigrationDocURL); err != nil {
			return nil, fmt.Errorf("scan breaking change: %w", err)
		}
		t, err := time.Parse(deadlineFormat, deadline)
		if err != nil {
			return nil, fmt.Errorf("parse upgrade deadline %q: %w", deadline, err)
		}
		bc.UpgradeDeadline = t
		out = append(out, bc)
	}
	return out, rows.Err()
}

// SetSupportState updates one definition's support state.
func (s *Store) SetSupportState(ctx context.Context, definitionID uuid.UUID, state defsync.SupportState) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE definitions SET support_state = ?, updated_at = ? WHERE id = ?`,
		string(state), now(), definitionID.String())
	if err != nil {
		return fmt.Errorf("set support state %s: %w", definitionID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set support state %s: %w", definitionID, err)
	}
	if n == 0 {
		return fmt.Errorf("set support state %s: %w", definitionID, sql.ErrNoRows)
	}
	return nil
}
