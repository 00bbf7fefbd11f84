package event

import (
	"sort"

	"github.com/kasuganosora/tablestore/rowid"
)

// Selection is a typed multiset of row-ids belonging to one table
// (spec §4.6).
type Selection[T any] struct {
	rows []rowid.ID[T]
}

// NewSelection returns an empty selection.
func NewSelection[T any]() *Selection[T] { return &Selection[T]{} }

// SelectionOf builds a selection from an existing slice of row-ids.
func SelectionOf[T any](rows []rowid.ID[T]) *Selection[T] {
	return &Selection[T]{rows: rows}
}

// Push appends id to the selection.
func (s *Selection[T]) Push(id rowid.ID[T]) { s.rows = append(s.rows, id) }

// Len returns the number of row-ids in the selection.
func (s *Selection[T]) Len() int { return len(s.rows) }

// Rows exposes the underlying typed row-ids.
func (s *Selection[T]) Rows() []rowid.ID[T] { return s.rows }

// Sort orders the selection by raw row index. Required before delivering
// it to a tracker whose SortEvents() is true (spec §4.8).
func (s *Selection[T]) Sort() {
	sort.Slice(s.rows, func(i, j int) bool { return s.rows[i].Index() < s.rows[j].Index() })
}

// AsAny erases the row type while preserving the row-id pointer slice
// and its length, the payload shape trackers actually receive (spec
// §4.6, grounded on the original crate's any_slice.rs AnySlice). The
// underlying slice is shared, not copied.
func (s *Selection[T]) AsAny() AnySelection {
	rows := s.rows
	return AnySelection{
		rows:   rows,
		length: len(rows),
		rawAt:  func(i int) uint32 { return rows[i].Index() },
	}
}

// AnySelection is the type-erased selection view delivered to trackers.
// It keeps the row count and positional access without exposing the
// originating table's marker type, so the dispatch code in table/flush.go
// does not need to be generic over every table it might notify.
type AnySelection struct {
	rows   any
	length int
	rawAt  func(i int) uint32
}

// Len returns the number of rows selected.
func (a AnySelection) Len() int { return a.length }

// RawAt returns the raw positional index of the i-th selected row,
// without requiring the caller to know the originating table's type.
func (a AnySelection) RawAt(i int) uint32 { return a.rawAt(i) }

// Borrowed recovers the original typed row-id slice. It returns ok=false
// if T does not match the selection's originating table — trackers
// generated against a specific foreign table always know T statically,
// so this should never fail for well-formed schemas.
func Borrowed[T any](a AnySelection) (rows []rowid.ID[T], ok bool) {
	rows, ok = a.rows.([]rowid.ID[T])
	return rows, ok
}
