// Package table implements tablestore's mutation core: the generic
// table metamodel, lock-mediated facades, the rug-push visit operator,
// the sorted merge, and the flush/tracker propagation engine (spec §§3-4,
// 7-9).
//
// A Table[R] is generic over its row type R, which doubles as the
// phantom marker for that table's row-ids (rowid.ID[R]): since every
// table's generated row struct is itself a distinct Go type, no
// separate zero-size marker type is needed to keep different tables'
// row-ids from being confused with one another.
package table

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/kasuganosora/tablestore/column"
	"github.com/kasuganosora/tablestore/errs"
	"github.com/kasuganosora/tablestore/event"
	"github.com/kasuganosora/tablestore/tlog"
)

// Kind is a table's guarantee set (spec §4.3).
type Kind int

const (
	KindAppend Kind = iota
	KindSorted
	KindConsistent
	KindList
	// KindBag is reserved but unimplemented in the source this was
	// distilled from (spec §9); every constructor that would produce one
	// returns ErrUnsupportedKind instead.
	KindBag
)

func (k Kind) String() string {
	switch k {
	case KindAppend:
		return "append"
	case KindSorted:
		return "sorted"
	case KindConsistent:
		return "consistent"
	case KindList:
		return "list"
	case KindBag:
		return "bag"
	default:
		return "unknown"
	}
}

// Interest is a tracker's declared stance toward one event (spec §4.8).
type Interest int

const (
	Ignore Interest = iota
	HandleEvent
	Delegate
)

// Tracker is a subscriber invoked during flush to maintain cross-table
// consistency (spec §4.8). Selected/Cleared run without the originating
// table's lock held; a tracker that needs to read or write another table
// (or the same one, from a different flush) must re-lock it via u.
type Tracker interface {
	// Interest reports how this tracker wants event e handled.
	Interest(e event.Event) Interest
	// SortEvents reports whether the engine should sort row-ids by
	// position before delivering them to Selected.
	SortEvents() bool
	// Selected receives the rows added or deleted by one flush. It is
	// called once for the delete set (if non-empty) and once for the add
	// set (if non-empty), deletes first.
	Selected(ctx context.Context, u UniverseHandle, e event.Event, rows event.AnySelection) error
	// Cleared is called instead of/before Selected when the table was
	// cleared in this flush.
	Cleared(ctx context.Context, u UniverseHandle) error
}

// UniverseHandle is what a tracker or flush caller needs from the
// universe: the ability to look up and re-lock sibling tables, and to
// resolve a Delegate interest to the universe-wide fallback.
type UniverseHandle interface {
	Table(domain, name string) (Handle, error)
	Fallback(domain string, e event.Event) (Tracker, bool)
}

// Handle is the type-erased view of a table the domain registry and
// universe hold, independent of its row type.
type Handle interface {
	Domain() string
	Name() string
	Kind() Kind
	Version() uint32
	Save() bool
	// Flush publishes a consistent table's pending edits (a no-op on
	// every other kind).
	Flush(ctx context.Context, u UniverseHandle, e event.Event) error
}

type trackerBinding struct {
	tracker Tracker
}

// Table is the generic table: storage, bookkeeping, and the tracker list,
// generic over its row type R (spec §3 "Table").
type Table[R any] struct {
	mu sync.RWMutex

	domain  string
	name    string
	kind    Kind
	version uint32
	save    bool
	epoch   uint64 // bumped on Clear/Truncate; invalidates outstanding Checked row-ids

	rows    column.Column[R]
	sortKey func(a, b R) bool // non-nil iff kind == KindSorted

	freeList      []uint32 // consistent only, ascending
	pendingAdd    []uint32
	pendingDelete []uint32
	cleared       bool
	dirty         bool
	noFlush       bool

	flushing atomic.Bool

	trackerMu   sync.RWMutex
	trackers    []trackerBinding
	initialized bool // init hooks already run

	logger *tlog.Logger
}

// New builds a table of the given kind over rows. Sorted tables must use
// NewSorted so a sort key is supplied; passing KindSorted here panics.
// KindBag is rejected with ErrUnsupportedKind.
func New[R any](domain, name string, kind Kind, rows column.Column[R]) (*Table[R], error) {
	if kind == KindBag {
		return nil, errs.ErrUnsupportedKind("bag")
	}
	if kind == KindSorted {
		panic("tablestore: sorted tables must be constructed with NewSorted")
	}
	return &Table[R]{
		domain: domain,
		name:   name,
		kind:   kind,
		rows:   rows,
		logger: tlog.Default(),
	}, nil
}

// NewSorted builds a sorted table whose total order is given by less
// (spec §4.3 "sort key"); ties are broken by insertion order: both Push
// and Merge place a new row after existing rows whose key is equal to it,
// and less is never used to reorder existing rows among themselves.
func NewSorted[R any](domain, name string, rows column.Column[R], less func(a, b R) bool) *Table[R] {
	return &Table[R]{
		domain:  domain,
		name:    name,
		kind:    KindSorted,
		rows:    rows,
		sortKey: less,
		logger:  tlog.Default(),
	}
}

// WithVersion sets the table's schema version (spec §6).
func (t *Table[R]) WithVersion(v uint32) *Table[R] { t.version = v; return t }

// WithSave marks the table as opted into serialization (spec §6).
func (t *Table[R]) WithSave(save bool) *Table[R] { t.save = save; return t }

// WithLogger overrides the table's diagnostic logger.
func (t *Table[R]) WithLogger(l *tlog.Logger) *Table[R] { t.logger = l; return t }

// Rows exposes the table's underlying column store. Plain application
// code should go through Read/Write instead; this exists for generated
// tracker-wiring code that needs direct access to a specific field
// column inside a composite row store (e.g. an Indexed column backing a
// foreign key), which the Read/Write facade deliberately does not
// expose a path to.
func (t *Table[R]) Rows() column.Column[R] { return t.rows }

func (t *Table[R]) Domain() string  { return t.domain }
func (t *Table[R]) Name() string    { return t.name }
func (t *Table[R]) Kind() Kind      { return t.kind }
func (t *Table[R]) Version() uint32 { return t.version }
func (t *Table[R]) Save() bool      { return t.save }

var _ Handle = (*Table[struct{}])(nil)
