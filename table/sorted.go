package table

import (
	"sort"

	"github.com/kasuganosora/tablestore/errs"
	"github.com/kasuganosora/tablestore/rowid"
)

// AssertSorted wraps a slice the caller claims is already sorted by the
// target table's key, so Merge merges it as given instead of sorting it
// (spec §4.4). Constructing one is an assertion, not a guarantee: Merge still
// runs a cheap linear scan to catch a broken assertion rather than
// silently corrupting the table's order.
type AssertSorted[R any] struct {
	rows []R
}

// Assume marks rows as pre-sorted by the destination table's key.
func Assume[R any](rows []R) AssertSorted[R] { return AssertSorted[R]{rows: rows} }

// FromUnsorted copies rows and sorts the copy by less, then wraps the
// result as an AssertSorted — the second construction path spec §4.4
// names alongside Assume, for a caller that has a value sequence in
// arbitrary order rather than one it can already vouch for. The input
// slice itself is left untouched.
func FromUnsorted[R any](rows []R, less func(a, b R) bool) AssertSorted[R] {
	sorted := make([]R, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })
	return AssertSorted[R]{rows: sorted}
}

func isSortedBy[R any](rows []R, less func(a, b R) bool) bool {
	for i := 1; i < len(rows); i++ {
		if less(rows[i], rows[i-1]) {
			return false
		}
	}
	return true
}

// Merge folds a sorted input into a sorted table's storage, producing
// the sorted union in a single linear pass (spec §4.4 "three-way
// merge"): existing rows and incoming rows are walked in lockstep like
// a merge-sort conquer step, each pulled from whichever side is
// currently smaller.
//
// Because a sorted table's row-ids are just physical positions, every
// row whose position shifts during the merge is renumbered; Merge
// returns the freshly assigned ids for the rows that came from input,
// in the same order they were given.
func (g *WriteGuard[R]) Merge(input AssertSorted[R]) []rowid.ID[R] {
	g.checkLive()
	t := g.t
	if t.kind != KindSorted {
		panic("tablestore: Merge is only valid on a sorted table")
	}
	if t.flushing.Load() {
		panic(selfMutationErr(t))
	}
	incoming := input.rows
	if !isSortedBy(incoming, t.sortKey) {
		panic(errs.ErrUnsortedInput())
	}

	n := t.rows.Len()
	merged := make([]R, 0, n+len(incoming))
	newIDs := make([]rowid.ID[R], 0, len(incoming))

	i, j := 0, 0
	for i < n || j < len(incoming) {
		switch {
		case i >= n:
			newIDs = append(newIDs, rowid.FromIndex[R](uint32(len(merged))))
			merged = append(merged, incoming[j])
			j++
		case j >= len(incoming):
			merged = append(merged, t.rows.At(i))
			i++
		case t.sortKey(incoming[j], t.rows.At(i)):
			newIDs = append(newIDs, rowid.FromIndex[R](uint32(len(merged))))
			merged = append(merged, incoming[j])
			j++
		default:
			merged = append(merged, t.rows.At(i))
			i++
		}
	}

	t.rows.Truncate(0)
	t.rows.Reserve(len(merged))
	for _, row := range merged {
		t.rows.Push(row)
	}
	t.epoch++
	return newIDs
}
