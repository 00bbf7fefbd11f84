package table

import (
	"context"

	"github.com/kasuganosora/tablestore/errs"
	"github.com/kasuganosora/tablestore/event"
	"github.com/kasuganosora/tablestore/rowid"
)

// RegisterTracker subscribes tr to this table's flushes. Trackers are
// notified in registration order (spec §4.8).
func (t *Table[R]) RegisterTracker(tr Tracker) {
	t.trackerMu.Lock()
	defer t.trackerMu.Unlock()
	t.trackers = append(t.trackers, trackerBinding{tracker: tr})
}

type flushCycleKey struct{}
type flushKey struct {
	domain, table string
	event         int
}

func visitedSet(ctx context.Context) map[flushKey]bool {
	if v, ok := ctx.Value(flushCycleKey{}).(map[flushKey]bool); ok {
		return v
	}
	return nil
}

// Flush is the consistent-table flush protocol (spec §4.7), for callers
// that are not already holding the table's write lock (e.g. a periodic
// sweep over every table in a universe). It locks, snapshots, unlocks,
// then dispatches exactly like WriteGuard.Flush.
//
// On any other table kind Flush is a no-op: only consistent tables carry
// a pending edit log to publish.
func (t *Table[R]) Flush(ctx context.Context, u UniverseHandle, e event.Event) error {
	if t.kind != KindConsistent {
		return nil
	}
	t.mu.Lock()
	return t.flushLocked(ctx, u, e)
}

// flushLocked runs the flush protocol assuming the caller already holds
// t.mu for writing; it unlocks t.mu itself partway through, before
// dispatching to trackers, so trackers are free to re-lock this table or
// any other (spec §4.7 step 2).
func (t *Table[R]) flushLocked(ctx context.Context, u UniverseHandle, e event.Event) error {
	already := visitedSet(ctx)
	key := flushKey{t.domain, t.name, e.ID()}
	if already[key] {
		t.mu.Unlock()
		return errs.ErrRecursiveFlush(t.domain, t.name, e.ID())
	}
	next := make(map[flushKey]bool, len(already)+1)
	for k := range already {
		next[k] = true
	}
	next[key] = true
	ctx = context.WithValue(ctx, flushCycleKey{}, next)

	if len(t.pendingAdd) == 0 && len(t.pendingDelete) == 0 && !t.cleared {
		t.mu.Unlock()
		return nil
	}
	add := t.pendingAdd
	del := t.pendingDelete
	cleared := t.cleared
	t.pendingAdd = nil
	t.pendingDelete = nil
	t.cleared = false
	t.dirty = false
	t.mu.Unlock()

	addSel := event.SelectionOf(toRowIDs[R](add))
	delSel := event.SelectionOf(toRowIDs[R](del))

	t.trackerMu.RLock()
	bindings := append([]trackerBinding(nil), t.trackers...)
	t.trackerMu.RUnlock()

	t.flushing.Store(true)
	defer t.flushing.Store(false)

	if cleared {
		for _, b := range bindings {
			if b.tracker.Interest(e) == Ignore {
				continue
			}
			if err := b.tracker.Cleared(ctx, u); err != nil {
				panic(err)
			}
		}
	}

	removalHandled := false
	for _, b := range bindings {
		interest := b.tracker.Interest(e)
		handler := b.tracker
		if interest == Ignore {
			continue
		}
		if interest == Delegate {
			if fb, ok := u.Fallback(t.domain, e); ok {
				handler = fb
			} else {
				continue
			}
		}
		if b.tracker.SortEvents() {
			delSel.Sort()
			addSel.Sort()
		}
		if delSel.Len() > 0 {
			if err := handler.Selected(ctx, u, e, delSel.AsAny()); err != nil {
				panic(err)
			}
		}
		if addSel.Len() > 0 {
			if err := handler.Selected(ctx, u, e, addSel.AsAny()); err != nil {
				panic(err)
			}
		}
		if e.IsRemoval() {
			removalHandled = true
		}
	}

	if e.IsRemoval() && !removalHandled {
		// Default row-remover: a consistent table's deleted rows already
		// live on the free-list from Delete; nothing further to compact
		// here without violating other live row-ids' positions.
		t.logger.Debugf("flush: no tracker handled removal on %s.%s, free-list stays authoritative", t.domain, t.name)
	}

	return nil
}

func toRowIDs[R any](idx []uint32) []rowid.ID[R] {
	out := make([]rowid.ID[R], len(idx))
	for i, v := range idx {
		out[i] = rowid.FromIndex[R](v)
	}
	return out
}
