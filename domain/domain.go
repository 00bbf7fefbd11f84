// Package domain implements the process-wide table registry and the
// per-process Universe that instantiates a set of domains into live
// tables (spec §4.9).
package domain

import (
	"sync"

	"github.com/kasuganosora/tablestore/errs"
	"github.com/kasuganosora/tablestore/table"
)

// Producer builds a fresh, empty table.Handle for one table. Generated
// code supplies one per table; InitHook then wires trackers once every
// table in the universe exists.
type Producer func() (table.Handle, error)

// InitHook runs once, after every table in the universe has been
// produced, so it can safely look up and register trackers against
// sibling tables.
type InitHook func(u *Universe, h table.Handle) error

// TableDescriptor is what a domain remembers about one of its tables.
type TableDescriptor struct {
	Name      string
	Kind      table.Kind
	Producer  Producer
	InitHooks []InitHook
}

// Domain is a named collection of table descriptors. Registering a
// table is idempotent for an identical descriptor and rejected outright
// once the domain has been locked by a Universe instantiation.
type Domain struct {
	mu     sync.Mutex
	name   string
	tables map[string]TableDescriptor
	locked bool
}

func (d *Domain) Name() string { return d.name }

// RegisterTable adds desc to the domain. Re-registering the same name
// with the same kind is a no-op; re-registering with a different kind is
// an error, and registering after the domain has been locked is always
// an error.
func (d *Domain) RegisterTable(desc TableDescriptor) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.locked {
		return errs.ErrLockedDomain(d.name)
	}
	if existing, ok := d.tables[desc.Name]; ok {
		if existing.Kind != desc.Kind {
			return errs.ErrDuplicateTable(d.name, desc.Name)
		}
		return nil
	}
	d.tables[desc.Name] = desc
	return nil
}

func (d *Domain) lock() []TableDescriptor {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.locked = true
	descs := make([]TableDescriptor, 0, len(d.tables))
	for _, desc := range d.tables {
		descs = append(descs, desc)
	}
	return descs
}

type registry struct {
	mu      sync.RWMutex
	domains map[string]*Domain
}

var global = &registry{domains: make(map[string]*Domain)}

// PropertyNames interns universe-wide property names, shared across every
// domain and universe in this process (spec §4.9).
var PropertyNames = NewIntern()

// RegisterDomain returns the named domain, creating it on first call.
// Calling it again with the same name returns the same *Domain, which is
// how generated code achieves idempotent package-init registration.
func RegisterDomain(name string) *Domain {
	global.mu.Lock()
	defer global.mu.Unlock()
	if d, ok := global.domains[name]; ok {
		return d
	}
	d := &Domain{name: name, tables: make(map[string]TableDescriptor)}
	global.domains[name] = d
	return d
}

func lookupDomain(name string) (*Domain, error) {
	global.mu.RLock()
	defer global.mu.RUnlock()
	d, ok := global.domains[name]
	if !ok {
		return nil, errs.ErrUnknownDomain(name)
	}
	return d, nil
}
