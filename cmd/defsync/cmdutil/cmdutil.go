// Package cmdutil resolves CLI flags against the context configuration.
package cmdutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"defsync/config"

	"github.com/spf13/cobra"
)

// RegistryFlags are the shared flags for commands that touch the registry.
type RegistryFlags struct {
	Database string
	Catalog  string
	Context  string
}

func (f *RegistryFlags) Bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Database, "db", "", "Registry database path")
	cmd.Flags().StringVar(&f.Catalog, "catalog", "", "Catalog file path")
	cmd.Flags().StringVar(&f.Context, "context", "", "Context name to use")
}

// DefaultDatabasePath returns the registry location when no flag or context
// names one: $XDG_DATA_HOME/defsync/registry.db, falling back to
// ~/.local/share/defsync/registry.db.
func DefaultDatabasePath() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".local", "share", "defsync", "registry.db")
		}
		dir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dir, "defsync", "registry.db")
}

// ResolveDatabase returns the database path to use: the --db flag if set,
// then the selected context, then the default location.
func (f *RegistryFlags) ResolveDatabase() (string, error) {
	if p := strings.TrimSpace(f.Database); p != "" {
		return p, nil
	}

	ctx, err := f.selectedContext()
	if err != nil {
		return "", err
	}
	if ctx != nil && strings.TrimSpace(ctx.Database) != "" {
		return strings.TrimSpace(ctx.Database), nil
	}
	return DefaultDatabasePath(), nil
}

// ResolveCatalog returns the catalog path to use: the --catalog flag if set,
// then the selected context. There is no default; a missing catalog is an
// error for commands that need one.
func (f *RegistryFlags) ResolveCatalog() (string, error) {
	if p := strings.TrimSpace(f.Catalog); p != "" {
		return p, nil
	}

	ctx, err := f.selectedContext()
	if err != nil {
		return "", err
	}
	if ctx != nil && strings.TrimSpace(ctx.Catalog) != "" {
		return strings.TrimSpace(ctx.Catalog), nil
	}
	return "", fmt.Errorf("no catalog configured: pass --catalog or set one on the current context")
}

// selectedContext loads the named context (--context flag), or the current
// one when no name is given. Returns nil when no context applies.
func (f *RegistryFlags) selectedContext() (*config.Context, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(f.Context); name != "" {
		ctx, ok := cfg.Contexts[name]
		if !ok {
			return nil, fmt.Errorf("context %q not found", name)
		}
		return &ctx, nil
	}

	if _, ctx, ok := cfg.Current(); ok {
		return &ctx, nil
	}
	return nil, nil
}
