package domain

import (
	"context"
	"fmt"
	"sync"

	"github.com/kasuganosora/tablestore/errs"
	"github.com/kasuganosora/tablestore/event"
	"github.com/kasuganosora/tablestore/internal/workerpool"
	"github.com/kasuganosora/tablestore/table"
	"github.com/kasuganosora/tablestore/tlog"
)

// Universe is one instantiation of a set of domains: every table those
// domains declared, built and ready to be locked (spec §4.9). A process
// may hold several independent universes over the same domains, each
// with its own storage; locking a domain on first instantiation only
// prevents further *schema* registration, not further universes.
type Universe struct {
	mu     sync.RWMutex
	tables map[string]table.Handle

	fallbackMu sync.RWMutex
	fallbacks  map[fallbackKey]table.Tracker

	logger *tlog.Logger
}

type fallbackKey struct {
	domain string
	event  int
}

func tableKey(domain, name string) string { return domain + "." + name }

// New instantiates every table of the named domains. Domains are locked
// against further registration as soon as their table list is snapshot,
// before any producer runs, so a producer cannot observe a partially
// registered domain.
func New(ctx context.Context, domainNames ...string) (*Universe, error) {
	u := &Universe{
		tables:    make(map[string]table.Handle),
		fallbacks: make(map[fallbackKey]table.Tracker),
		logger:    tlog.Default(),
	}

	type job struct {
		domain string
		desc   TableDescriptor
	}
	var jobs []job
	for _, name := range domainNames {
		d, err := lookupDomain(name)
		if err != nil {
			return nil, err
		}
		for _, desc := range d.lock() {
			jobs = append(jobs, job{domain: name, desc: desc})
		}
	}

	handles := make([]table.Handle, len(jobs))
	tasks := make([]workerpool.Task, len(jobs))
	for i, j := range jobs {
		i, j := i, j
		tasks[i] = func(context.Context) error {
			h, err := j.desc.Producer()
			if err != nil {
				return fmt.Errorf("tablestore: producing table %q in domain %q: %w", j.desc.Name, j.domain, err)
			}
			handles[i] = h
			return nil
		}
	}
	results, err := workerpool.Run(ctx, 4, tasks)
	if err != nil {
		return nil, fmt.Errorf("tablestore: running instantiation batch: %w", err)
	}
	for _, r := range results {
		if r.Error != nil {
			return nil, r.Error
		}
	}

	u.mu.Lock()
	for i, j := range jobs {
		u.tables[tableKey(j.domain, j.desc.Name)] = handles[i]
	}
	u.mu.Unlock()

	for _, j := range jobs {
		for _, hook := range j.desc.InitHooks {
			if err := hook(u, u.tables[tableKey(j.domain, j.desc.Name)]); err != nil {
				return nil, fmt.Errorf("tablestore: init hook for %q in domain %q: %w", j.desc.Name, j.domain, err)
			}
		}
	}

	return u, nil
}

// Table resolves a (domain, name) pair to its handle, satisfying
// table.UniverseHandle so trackers can re-lock sibling tables during
// flush.
func (u *Universe) Table(domain, name string) (table.Handle, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	h, ok := u.tables[tableKey(domain, name)]
	if !ok {
		return nil, errs.ErrTableNotFound(domain, name)
	}
	return h, nil
}

// RegisterFallback installs tr as the universe-wide handler for event e
// on tables in domain, used to resolve a tracker's Delegate interest.
func (u *Universe) RegisterFallback(domain string, e event.Event, tr table.Tracker) {
	u.fallbackMu.Lock()
	defer u.fallbackMu.Unlock()
	u.fallbacks[fallbackKey{domain: domain, event: e.ID()}] = tr
}

// Fallback resolves the universe-wide handler for event e in domain, if
// one was registered.
func (u *Universe) Fallback(domain string, e event.Event) (table.Tracker, bool) {
	u.fallbackMu.RLock()
	defer u.fallbackMu.RUnlock()
	tr, ok := u.fallbacks[fallbackKey{domain: domain, event: e.ID()}]
	return tr, ok
}

// Flush publishes every consistent table's pending edits under the given
// event. Tables are visited in map iteration order, so the order between
// tables is not defined and can differ from one call to the next.
// Domain-level flush is not itself atomic across tables: each table's
// Flush runs its own trackers independently, matching the source
// design's table-scoped (not universe-scoped) flush boundary.
func (u *Universe) Flush(ctx context.Context, e event.Event) error {
	u.mu.RLock()
	handles := make([]table.Handle, 0, len(u.tables))
	for _, h := range u.tables {
		handles = append(handles, h)
	}
	u.mu.RUnlock()

	for _, h := range handles {
		if err := h.Flush(ctx, u, e); err != nil {
			return err
		}
	}
	return nil
}

var _ table.UniverseHandle = (*Universe)(nil)
