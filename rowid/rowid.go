// Package rowid provides strongly typed, table-scoped row identifiers.
//
// An ID[T] is a plain uint32 at runtime, phantom-tagged with a marker
// type T so that row-ids minted by different tables can never be mixed
// up at compile time. T carries no data; it only needs to exist so the
// compiler can keep IDs apart (package table uses each table's own row
// type as T, so no separate marker type is declared).
package rowid

import "fmt"

// Invalid is the sentinel raw value meaning "no such row".
const Invalid uint32 = ^uint32(0)

// ID is a row identifier scoped to the table tagged by T.
type ID[T any] uint32

// InvalidID returns the sentinel invalid row-id for T.
func InvalidID[T any]() ID[T] { return ID[T](Invalid) }

// Zero returns the row-id "at position 0" for T.
func Zero[T any]() ID[T] { return ID[T](0) }

// FromIndex wraps a raw positional index as a row-id of T.
func FromIndex[T any](i uint32) ID[T] { return ID[T](i) }

// IsValid reports whether id is not the invalid sentinel.
func (id ID[T]) IsValid() bool { return uint32(id) != Invalid }

// Index returns the raw positional index backing id.
func (id ID[T]) Index() uint32 { return uint32(id) }

// Next returns the monotonic successor of id.
func (id ID[T]) Next() ID[T] { return ID[T](uint32(id) + 1) }

// String renders the id for diagnostics; invalid ids print as "<invalid>".
func (id ID[T]) String() string {
	if !id.IsValid() {
		return "<invalid>"
	}
	return fmt.Sprintf("#%d", uint32(id))
}

// Checked is a row-id that has been validated against a specific table
// lock for that lock's lifetime. Epoch is the owning facade's generation
// counter (bumped on Clear/Truncate); holders compare it back against the
// facade before trusting the index for unchecked column access. Checked
// values must not outlive the lock that produced them.
type Checked[T any] struct {
	id    ID[T]
	epoch uint64
}

// NewChecked builds a checked row-id for the given epoch. Callers outside
// this module should obtain Checked values from a table facade's Check
// method rather than constructing them directly.
func NewChecked[T any](id ID[T], epoch uint64) Checked[T] {
	return Checked[T]{id: id, epoch: epoch}
}

// ID returns the underlying row-id.
func (c Checked[T]) ID() ID[T] { return c.id }

// Epoch returns the generation the row-id was checked against.
func (c Checked[T]) Epoch() uint64 { return c.epoch }

// Range is a half-open [Start, End) span of row-ids over a single table.
type Range[T any] struct {
	Start ID[T]
	End   ID[T]
}

// NewRange builds the half-open range [start, end).
func NewRange[T any](start, end ID[T]) Range[T] { return Range[T]{Start: start, End: end} }

// Len returns the number of row-ids spanned by r.
func (r Range[T]) Len() int {
	if r.End.Index() <= r.Start.Index() {
		return 0
	}
	return int(r.End.Index() - r.Start.Index())
}

// Contains reports whether id falls within [Start, End).
func (r Range[T]) Contains(id ID[T]) bool {
	return id.Index() >= r.Start.Index() && id.Index() < r.End.Index()
}

// At returns the row-id at the given offset from Start.
func (r Range[T]) At(offset int) ID[T] {
	return FromIndex[T](r.Start.Index() + uint32(offset))
}

// Each calls f for every row-id in the range, in ascending order. It
// stops early if f returns false.
func (r Range[T]) Each(f func(ID[T]) bool) {
	for i := r.Start.Index(); i < r.End.Index(); i++ {
		if !f(FromIndex[T](i)) {
			return
		}
	}
}

// Slice materializes the range as a slice of row-ids.
func (r Range[T]) Slice() []ID[T] {
	out := make([]ID[T], 0, r.Len())
	r.Each(func(id ID[T]) bool {
		out = append(out, id)
		return true
	})
	return out
}
