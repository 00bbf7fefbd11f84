package table

import (
	"encoding/binary"
	"io"

	"github.com/kasuganosora/tablestore/errs"
)

// RowCodec is the pair of per-row encode/decode functions a generated
// table supplies so the core can serialize it without depending on any
// particular wire format (spec §6). Wiring an actual format (JSON, gob,
// protobuf, ...) is left to the generated adapter; the core only owns
// the table-level framing: schema version, free-list, row count.
type RowCodec[R any] struct {
	Encode func(w io.Writer, row R) error
	Decode func(r io.Reader) (R, error)
}

// Encode writes a consistent-aware snapshot of the table: its schema
// version, the free-list (so decoding can rebuild it instead of treating
// every physical slot as live), then every physical row in order (spec
// §6 SERIALIZE/SAVE events pair with this).
func (g *ReadGuard[R]) Encode(w io.Writer, codec RowCodec[R]) error {
	g.checkLive()
	t := g.t
	if err := binary.Write(w, binary.BigEndian, t.version); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint32(len(t.freeList))); err != nil {
		return err
	}
	for _, idx := range t.freeList {
		if err := binary.Write(w, binary.BigEndian, idx); err != nil {
			return err
		}
	}
	n := t.rows.Len()
	if err := binary.Write(w, binary.BigEndian, uint32(n)); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := codec.Encode(w, t.rows.At(i)); err != nil {
			return err
		}
	}
	return nil
}

// Decode replaces the table's contents with a snapshot written by
// Encode, rejecting the read if the stored schema version does not
// match the table's configured version (spec §6 DESERIALIZE).
func (g *WriteGuard[R]) Decode(r io.Reader, codec RowCodec[R]) error {
	g.checkLive()
	t := g.t
	if t.flushing.Load() {
		panic(selfMutationErr(t))
	}
	var version uint32
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return err
	}
	if version != t.version {
		return errs.ErrSchemaVersionMismatch(t.name, t.version, version)
	}
	var freeCount uint32
	if err := binary.Read(r, binary.BigEndian, &freeCount); err != nil {
		return err
	}
	freeList := make([]uint32, freeCount)
	for i := range freeList {
		if err := binary.Read(r, binary.BigEndian, &freeList[i]); err != nil {
			return err
		}
	}
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return err
	}
	t.rows.Truncate(0)
	t.rows.Reserve(int(n))
	for i := uint32(0); i < n; i++ {
		row, err := codec.Decode(r)
		if err != nil {
			t.clearToEmpty()
			return err
		}
		t.rows.Push(row)
	}
	t.freeList = freeList
	t.pendingAdd = nil
	t.pendingDelete = nil
	t.cleared = false
	t.dirty = false
	t.epoch++
	return nil
}

// clearToEmpty defensively empties the table after a failed Decode, so a
// partially-read snapshot never leaves a stale mix of old and
// partially-new rows in place (spec §6 "fails atomically", §7 "trigger a
// defensive clear of the partially loaded table").
func (t *Table[R]) clearToEmpty() {
	n := t.rows.Len()
	for i := 0; i < n; i++ {
		t.rows.Deleted(i)
	}
	t.rows.Truncate(0)
	t.freeList = nil
	t.pendingAdd = nil
	t.pendingDelete = nil
	t.cleared = false
	t.dirty = false
	t.epoch++
}
