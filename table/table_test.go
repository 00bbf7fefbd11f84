package table

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuganosora/tablestore/column"
	"github.com/kasuganosora/tablestore/event"
	"github.com/kasuganosora/tablestore/rowid"
)

type widget struct {
	Name  string
	Count int
}

func newAppendTable() *Table[widget] {
	t, err := New[widget]("demo", "widgets", KindAppend, column.NewContiguous[widget]())
	if err != nil {
		panic(err)
	}
	return t
}

func TestPushAndRead(t *testing.T) {
	tbl := newAppendTable()
	wg := tbl.Write()
	id1 := wg.Push(widget{Name: "a", Count: 1})
	id2 := wg.Push(widget{Name: "b", Count: 2})
	wg.Release()

	rg := tbl.Read()
	defer rg.Release()
	assert.Equal(t, 2, rg.Len())
	assert.Equal(t, widget{Name: "a", Count: 1}, rg.At(id1))
	assert.Equal(t, widget{Name: "b", Count: 2}, rg.At(id2))
}

func TestWriteGuardUseAfterReleasePanics(t *testing.T) {
	tbl := newAppendTable()
	wg := tbl.Write()
	wg.Push(widget{Name: "a"})
	wg.Release()
	assert.Panics(t, func() { wg.Len() })
}

func TestConsistentPushDeleteFreeList(t *testing.T) {
	tbl, err := New[widget]("demo", "gadgets", KindConsistent, column.NewContiguous[widget]())
	require.NoError(t, err)

	wg := tbl.Write()
	id1 := wg.Push(widget{Name: "a"})
	wg.Push(widget{Name: "b"})
	require.NoError(t, wg.Delete(id1))
	wg.NoFlush()
	wg.Release()

	assert.Equal(t, []uint32{0}, tbl.freeList)
	assert.Panics(t, func() {
		rg := tbl.Read()
		defer rg.Release()
		rg.At(id1)
	})

	wg2 := tbl.Write()
	id3 := wg2.Push(widget{Name: "c"})
	wg2.NoFlush()
	wg2.Release()
	assert.Equal(t, uint32(0), id3.Index(), "push must reuse the free-listed slot")
}

func TestDeleteOnNonConsistentTableFails(t *testing.T) {
	tbl := newAppendTable()
	wg := tbl.Write()
	id := wg.Push(widget{Name: "a"})
	err := wg.Delete(id)
	wg.NoFlush()
	wg.Release()
	assert.Error(t, err)
}

func TestWriteGuardPanicsWithoutFlush(t *testing.T) {
	tbl, err := New[widget]("demo", "crates", KindConsistent, column.NewContiguous[widget]())
	require.NoError(t, err)
	wg := tbl.Write()
	wg.Push(widget{Name: "a"})
	assert.Panics(t, func() { wg.Release() })
}

func TestRetainCompactsInPlace(t *testing.T) {
	tbl := newAppendTable()
	wg := tbl.Write()
	wg.Push(widget{Name: "a", Count: 1})
	wg.Push(widget{Name: "b", Count: 2})
	wg.Push(widget{Name: "c", Count: 3})
	wg.Push(widget{Name: "d", Count: 4})
	wg.Retain(func(_ rowid.ID[widget], row widget) bool { return row.Count%2 == 0 })
	wg.Release()

	rg := tbl.Read()
	defer rg.Release()
	require.Equal(t, 2, rg.Len())
	assert.Equal(t, "b", rg.At(rowid.FromIndex[widget](0)).Name)
	assert.Equal(t, "d", rg.At(rowid.FromIndex[widget](1)).Name)
}

func TestVisitCanInsertWhileDropping(t *testing.T) {
	tbl := newAppendTable()
	wg := tbl.Write()
	wg.Push(widget{Name: "a", Count: 1})
	wg.Push(widget{Name: "b", Count: 2})
	wg.Visit(func(_ rowid.ID[widget], row widget, out *VisitHandle[widget]) (widget, VisitResult) {
		if row.Name == "a" {
			out.Insert(widget{Name: "new", Count: 99})
			return row, Drop
		}
		return row, Keep
	})
	wg.Release()

	rg := tbl.Read()
	defer rg.Release()
	names := make([]string, 0)
	for _, id := range rg.Iter() {
		names = append(names, rg.At(id).Name)
	}
	assert.ElementsMatch(t, []string{"b", "new"}, names)
}

func TestSortedPushMaintainsOrder(t *testing.T) {
	tbl := NewSorted[widget]("demo", "sorted_widgets", column.NewContiguous[widget](),
		func(a, b widget) bool { return a.Count < b.Count })
	wg := tbl.Write()
	wg.Push(widget{Name: "c", Count: 3})
	wg.Push(widget{Name: "a", Count: 1})
	wg.Push(widget{Name: "b", Count: 2})
	wg.Release()

	rg := tbl.Read()
	defer rg.Release()
	dump := rg.Dump()
	require.Len(t, dump, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{dump[0].Count, dump[1].Count, dump[2].Count})
}

func TestMergeProducesSortedUnion(t *testing.T) {
	tbl := NewSorted[widget]("demo", "merged_widgets", column.NewContiguous[widget](),
		func(a, b widget) bool { return a.Count < b.Count })
	wg := tbl.Write()
	wg.PushArrayBypassForTest([]widget{{Name: "a", Count: 1}, {Name: "c", Count: 3}})
	newIDs := wg.Merge(Assume([]widget{{Name: "b", Count: 2}, {Name: "d", Count: 4}}))
	wg.Release()
	require.Len(t, newIDs, 2)

	rg := tbl.Read()
	defer rg.Release()
	dump := rg.Dump()
	counts := make([]int, len(dump))
	for i, row := range dump {
		counts[i] = row.Count
	}
	assert.Equal(t, []int{1, 2, 3, 4}, counts)
}

func TestVisitBreakStopsCallbacksAndCarriesTailVerbatim(t *testing.T) {
	tbl := newAppendTable()
	wg := tbl.Write()
	wg.Push(widget{Name: "a", Count: 1})
	wg.Push(widget{Name: "b", Count: 2})
	wg.Push(widget{Name: "c", Count: 3})
	wg.Push(widget{Name: "d", Count: 4})

	calls := 0
	wg.Visit(func(_ rowid.ID[widget], row widget, _ *VisitHandle[widget]) (widget, VisitResult) {
		calls++
		switch row.Name {
		case "a":
			return row, Drop
		case "b":
			return row, Break
		default:
			t.Fatalf("f must not be invoked for %q once Visit has broken", row.Name)
			return row, Keep
		}
	})
	wg.Release()

	assert.Equal(t, 2, calls, "f must stop being called once it returns Break")

	rg := tbl.Read()
	defer rg.Release()
	dump := rg.Dump()
	require.Len(t, dump, 3)
	assert.Equal(t, []string{"b", "c", "d"}, []string{dump[0].Name, dump[1].Name, dump[2].Name})
}

func TestMergeAcceptsFromUnsortedInput(t *testing.T) {
	less := func(a, b widget) bool { return a.Count < b.Count }
	tbl := NewSorted[widget]("demo", "merged_from_unsorted", column.NewContiguous[widget](), less)
	wg := tbl.Write()
	wg.PushArrayBypassForTest([]widget{{Name: "a", Count: 1}, {Name: "c", Count: 3}})

	unsorted := []widget{{Name: "d", Count: 4}, {Name: "b", Count: 2}}
	newIDs := wg.Merge(FromUnsorted(unsorted, less))
	wg.Release()

	require.Len(t, newIDs, 2)
	assert.Equal(t, []widget{{Name: "d", Count: 4}, {Name: "b", Count: 2}}, unsorted,
		"FromUnsorted must sort a copy, not the caller's slice")

	rg := tbl.Read()
	defer rg.Release()
	dump := rg.Dump()
	counts := make([]int, len(dump))
	for i, row := range dump {
		counts[i] = row.Count
	}
	assert.Equal(t, []int{1, 2, 3, 4}, counts)
}

func TestTryReadAndTryWriteReturnErrWouldBlockOnContention(t *testing.T) {
	tbl := newAppendTable()
	wg := tbl.Write()

	_, readErr := tbl.TryRead()
	assert.Error(t, readErr)
	_, writeErr := tbl.TryWrite()
	assert.Error(t, writeErr)

	wg.Release()

	rg, err := tbl.TryRead()
	require.NoError(t, err)
	rg.Release()

	wg2, err := tbl.TryWrite()
	require.NoError(t, err)
	wg2.Release()
}

func TestDecodeClearsTableOnMidStreamError(t *testing.T) {
	codec := RowCodec[widget]{
		Encode: func(w io.Writer, row widget) error {
			name := []byte(row.Name)
			if err := binary.Write(w, binary.BigEndian, uint32(len(name))); err != nil {
				return err
			}
			if _, err := w.Write(name); err != nil {
				return err
			}
			return binary.Write(w, binary.BigEndian, int64(row.Count))
		},
		Decode: func(r io.Reader) (widget, error) {
			var nlen uint32
			if err := binary.Read(r, binary.BigEndian, &nlen); err != nil {
				return widget{}, err
			}
			name := make([]byte, nlen)
			if _, err := io.ReadFull(r, name); err != nil {
				return widget{}, err
			}
			var count int64
			if err := binary.Read(r, binary.BigEndian, &count); err != nil {
				return widget{}, err
			}
			return widget{Name: string(name), Count: int(count)}, nil
		},
	}

	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.BigEndian, uint32(3)))  // version
	require.NoError(t, binary.Write(&buf, binary.BigEndian, uint32(0)))  // free-list length
	require.NoError(t, binary.Write(&buf, binary.BigEndian, uint32(2))) // row count
	require.NoError(t, codec.Encode(&buf, widget{Name: "a", Count: 1}))
	// Second row is truncated mid-stream: a name length with no bytes
	// behind it, so the second codec.Decode call fails.
	require.NoError(t, binary.Write(&buf, binary.BigEndian, uint32(5)))

	tbl, err := New[widget]("demo", "broken_persist", KindConsistent, column.NewContiguous[widget]())
	require.NoError(t, err)
	tbl.WithVersion(3)

	wg := tbl.Write()
	decodeErr := wg.Decode(&buf, codec)
	wg.NoFlush()
	wg.Release()
	require.Error(t, decodeErr)

	rg := tbl.Read()
	defer rg.Release()
	assert.Equal(t, 0, rg.Len())
	assert.Nil(t, tbl.freeList)
	assert.Nil(t, tbl.pendingAdd)
	assert.Nil(t, tbl.pendingDelete)
	assert.False(t, tbl.cleared)
	assert.False(t, tbl.dirty)
}

// PushArrayBypassForTest seeds a sorted table directly, bypassing the
// PushArray guard that forbids bulk pushes on sorted tables, purely so
// tests can set up pre-sorted fixtures without going through Merge.
func (g *WriteGuard[R]) PushArrayBypassForTest(rows []R) {
	for _, r := range rows {
		g.t.rows.Push(r)
	}
}

type countingTracker struct {
	interest      Interest
	sortEvents    bool
	deletes, adds int
	cleared       int
}

func (c *countingTracker) Interest(event.Event) Interest { return c.interest }
func (c *countingTracker) SortEvents() bool              { return c.sortEvents }
func (c *countingTracker) Selected(_ context.Context, _ UniverseHandle, e event.Event, rows event.AnySelection) error {
	if e.IsRemoval() {
		c.deletes += rows.Len()
	} else {
		c.adds += rows.Len()
	}
	return nil
}
func (c *countingTracker) Cleared(context.Context, UniverseHandle) error {
	c.cleared++
	return nil
}

type stubUniverse struct{}

func (stubUniverse) Table(string, string) (Handle, error)         { return nil, nil }
func (stubUniverse) Fallback(string, event.Event) (Tracker, bool) { return nil, false }

func TestFlushDeliversAddsAndDeletesToTracker(t *testing.T) {
	tbl, err := New[widget]("demo", "tracked", KindConsistent, column.NewContiguous[widget]())
	require.NoError(t, err)
	tr := &countingTracker{interest: HandleEvent}
	tbl.RegisterTracker(tr)

	wg := tbl.Write()
	id1 := wg.Push(widget{Name: "a"})
	wg.NoFlush()
	wg.Release()
	require.NoError(t, tbl.Flush(context.Background(), stubUniverse{}, event.Create))
	assert.Equal(t, 1, tr.adds)

	wg2 := tbl.Write()
	require.NoError(t, wg2.Delete(id1))
	wg2.NoFlush()
	wg2.Release()
	require.NoError(t, tbl.Flush(context.Background(), stubUniverse{}, event.Delete))
	assert.Equal(t, 1, tr.deletes)
}

func TestFlushNoopWhenNothingPending(t *testing.T) {
	tbl, err := New[widget]("demo", "idle", KindConsistent, column.NewContiguous[widget]())
	require.NoError(t, err)
	tr := &countingTracker{interest: HandleEvent}
	tbl.RegisterTracker(tr)
	require.NoError(t, tbl.Flush(context.Background(), stubUniverse{}, event.Create))
	assert.Equal(t, 0, tr.adds)
	assert.Equal(t, 0, tr.deletes)
}

func TestFlushIsNoopOnNonConsistentKind(t *testing.T) {
	tbl := newAppendTable()
	wg := tbl.Write()
	wg.Push(widget{Name: "a"})
	wg.Release()
	assert.NoError(t, tbl.Flush(context.Background(), stubUniverse{}, event.Create))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tbl, err := New[widget]("demo", "persisted", KindConsistent, column.NewContiguous[widget]())
	require.NoError(t, err)
	tbl.WithVersion(3)

	wg := tbl.Write()
	wg.Push(widget{Name: "a", Count: 1})
	id2 := wg.Push(widget{Name: "b", Count: 2})
	require.NoError(t, wg.Delete(id2))
	wg.NoFlush()
	wg.Release()

	codec := RowCodec[widget]{
		Encode: func(w io.Writer, row widget) error {
			name := []byte(row.Name)
			if err := binary.Write(w, binary.BigEndian, uint32(len(name))); err != nil {
				return err
			}
			if _, err := w.Write(name); err != nil {
				return err
			}
			return binary.Write(w, binary.BigEndian, int64(row.Count))
		},
		Decode: func(r io.Reader) (widget, error) {
			var nlen uint32
			if err := binary.Read(r, binary.BigEndian, &nlen); err != nil {
				return widget{}, err
			}
			name := make([]byte, nlen)
			if _, err := io.ReadFull(r, name); err != nil {
				return widget{}, err
			}
			var count int64
			if err := binary.Read(r, binary.BigEndian, &count); err != nil {
				return widget{}, err
			}
			return widget{Name: string(name), Count: int(count)}, nil
		},
	}

	var buf bytes.Buffer
	rg := tbl.Read()
	require.NoError(t, rg.Encode(&buf, codec))
	rg.Release()

	tbl2, err := New[widget]("demo", "persisted", KindConsistent, column.NewContiguous[widget]())
	require.NoError(t, err)
	tbl2.WithVersion(3)
	wg2 := tbl2.Write()
	require.NoError(t, wg2.Decode(&buf, codec))
	wg2.NoFlush()
	wg2.Release()

	assert.Equal(t, tbl.freeList, tbl2.freeList)
	rg2 := tbl2.Read()
	defer rg2.Release()
	assert.Equal(t, 2, rg2.Len())
}
