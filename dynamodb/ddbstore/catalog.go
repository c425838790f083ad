package ddbstore

import (
	"errors"
	"fmt"

	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/exp/slices"
)

// Catalog holds named emulated tables sharing one set of Options, so that
// several callers in a process can address the same table by name.
type Catalog struct {
	opts   Options
	tables *xsync.MapOf[string, *DB]
}

func NewCatalog(opts Options) *Catalog {
	return &Catalog{
		opts:   opts,
		tables: xsync.NewMapOf[string, *DB](),
	}
}

// Open returns the table with the given name, creating it on first use.
func (c *Catalog) Open(name string) (*DB, error) {
	var openErr error
	db, _ := c.tables.Compute(name, func(old *DB, loaded bool) (*DB, bool) {
		if loaded {
			return old, false
		}
		db, err := New(name, c.opts)
		if err != nil {
			openErr = err
			return nil, true
		}
		return db, false
	})
	if openErr != nil {
		return nil, fmt.Errorf("open table %q: %w", name, openErr)
	}
	return db, nil
}

// Drop closes and forgets the named table. Dropping an unknown name is a no-op.
func (c *Catalog) Drop(name string) error {
	db, ok := c.tables.LoadAndDelete(name)
	if !ok {
		return nil
	}
	return db.Close()
}

// Names returns the open table names in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, c.tables.Size())
	c.tables.Range(func(name string, _ *DB) bool {
		names = append(names, name)
		return true
	})
	slices.Sort(names)
	return names
}

// Close drops every table.
func (c *Catalog) Close() error {
	var errs []error
	for _, name := range c.Names() {
		if err := c.Drop(name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
