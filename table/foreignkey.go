package table

import (
	"context"

	"github.com/kasuganosora/tablestore/column"
	"github.com/kasuganosora/tablestore/event"
)

// ForeignKeyTracker cascades deletes from a parent table onto a child
// table, using the child's ordered index over its foreign-key column for
// a logarithmic reverse lookup instead of a full scan (spec §4.8
// "foreign-key auto tracker", grounded on column.Indexed.FindRange).
//
// Generated code registers one of these on the parent table for every
// foreign key a child table declares against it.
type ForeignKeyTracker struct {
	ParentDomain, ParentName string
	ChildDomain, ChildName   string

	// Index returns the child table's ordered index over its foreign-key
	// column, so deleted parent rows can be mapped to dependent child
	// rows without scanning the whole child table.
	Index func() *column.Indexed[uint32]

	// DeleteChild removes the child row at idx, re-locking the child
	// table through u itself.
	DeleteChild func(u UniverseHandle, idx uint32) error
}

func (fk *ForeignKeyTracker) Interest(e event.Event) Interest {
	if e.IsRemoval() {
		return HandleEvent
	}
	return Ignore
}

// SortEvents is false: cascading deletes in arrival order is fine, and
// this tracker does not care whether rows are reported low-to-high.
func (fk *ForeignKeyTracker) SortEvents() bool { return false }

func (fk *ForeignKeyTracker) Selected(ctx context.Context, u UniverseHandle, e event.Event, rows event.AnySelection) error {
	if !e.IsRemoval() {
		return nil
	}
	idx := fk.Index()
	for i := 0; i < rows.Len(); i++ {
		parentRow := rows.RawAt(i)
		for _, childIdx := range idx.FindRange(parentRow, parentRow+1) {
			if err := fk.DeleteChild(u, uint32(childIdx)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Cleared deletes every child row when the parent table is wiped.
func (fk *ForeignKeyTracker) Cleared(ctx context.Context, u UniverseHandle) error {
	idx := fk.Index()
	for i := 0; i < idx.Len(); i++ {
		if err := fk.DeleteChild(u, uint32(i)); err != nil {
			return err
		}
	}
	return nil
}

var _ Tracker = (*ForeignKeyTracker)(nil)
