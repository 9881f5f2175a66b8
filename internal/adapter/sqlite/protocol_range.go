package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"defsync"
	"defsync/internal/reconcile"

	"github.com/Masterminds/semver/v3"
)

var _ reconcile.RangeProvider = (*Store)(nil)

const (
	settingProtocolMin = "protocol_min_version"
	settingProtocolMax = "protocol_max_version"
)

// CurrentRange returns the configured protocol version range, or nil when no
// range has been set. A nil range means the compatibility gate is open.
func (s *Store) CurrentRange(ctx context.Context) (*defsync.ProtocolVersionRange, error) {
	minRaw, ok, err := s.setting(ctx, settingProtocolMin)
	if err != nil || !ok {
		return nil, err
	}
	maxRaw, ok, err := s.setting(ctx, settingProtocolMax)
	if err != nil || !ok {
		return nil, err
	}

	minV, err := semver.StrictNewVersion(minRaw)
	if err != nil {
		return nil, fmt.Errorf("parse stored protocol min %q: %w", minRaw, err)
	}
	maxV, err := semver.StrictNewVersion(maxRaw)
	if err != nil {
		return nil, fmt.Errorf("parse stored protocol max %q: %w", maxRaw, err)
	}
	return &defsync.ProtocolVersionRange{Min: minV, Max: maxV}, nil
}

// SetProtocolRange stores the supported protocol version range. Both bounds
// must be strict semantic versions with min <= max.
func (s *Store) SetProtocolRange(ctx context.Context, minRaw, maxRaw string) error {
	minV, err := semver.StrictNewVersion(minRaw)
	if err != nil {
		return fmt.Errorf("protocol min %q: %w", minRaw, err)
	}
	maxV, err := semver.StrictNewVersion(maxRaw)
	if err != nil {
		return fmt.Errorf("protocol max %q: %w", maxRaw, err)
	}
	if maxV.LessThan(minV) {
		return fmt.Errorf("protocol range %s..%s: max is below min", minRaw, maxRaw)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin protocol range update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for key, value := range map[string]string{
		settingProtocolMin: minRaw,
		settingProtocolMax: maxRaw,
	} {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO settings (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value); err != nil {
			return fmt.Errorf("store %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit protocol range update: %w", err)
	}
	return nil
}

func (s *Store) setting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read setting %s: %w", key, err)
	}
	return value, true, nil
}
