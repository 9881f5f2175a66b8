package fake

import (
	"context"
	"slices"
	"sync"

	"defsync"
	"defsync/internal/adapter/fake/fault"
	"defsync/internal/reconcile"
)

var _ reconcile.CatalogSource = (*Catalog)(nil)

const (
	FaultCatalogSources      = "catalog.source_definitions"
	FaultCatalogDestinations = "catalog.destination_definitions"
)

// Catalog is an in-memory catalog source.
type Catalog struct {
	CallRecorder
	mu           sync.Mutex
	sources      []defsync.CatalogEntry
	destinations []defsync.CatalogEntry
	faults       *fault.Injector
}

func NewCatalog() *Catalog {
	return &Catalog{faults: fault.NewInjector()}
}

func (c *Catalog) FailOnce(point string, err error) { c.faults.FailOnce(point, err) }

// SetSources replaces the declared source definitions.
func (c *Catalog) SetSources(entries ...defsync.CatalogEntry) {
	c.mu.Lock()
	c.sources = slices.Clone(entries)
	c.mu.Unlock()
}

// SetDestinations replaces the declared destination definitions.
func (c *Catalog) SetDestinations(entries ...defsync.CatalogEntry) {
	c.mu.Lock()
	c.destinations = slices.Clone(entries)
	c.mu.Unlock()
}

func (c *Catalog) SourceDefinitions(ctx context.Context) ([]defsync.CatalogEntry, error) {
	c.record("SourceDefinitions")
	if err := c.faults.Eval(FaultCatalogSources); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.sources), nil
}

func (c *Catalog) DestinationDefinitions(ctx context.Context) ([]defsync.CatalogEntry, error) {
	c.record("DestinationDefinitions")
	if err := c.faults.Eval(FaultCatalogDestinations); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.destinations), nil
}
