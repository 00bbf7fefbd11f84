// Package event defines tablestore's fixed event taxonomy and the
// row-selection containers trackers receive during flush (spec §4.6).
package event

import (
	"fmt"

	"github.com/kasuganosora/tablestore/errs"
)

// Reserved event ids occupy 0..=31; id 0 is the INVALID_EVENT sentinel
// and can never be registered against.
const (
	idInvalid = iota
	idCreate
	idDelete
	idSerialize
	idDeserialize
	idSave
	idUnload
	idSynced
	idUnsynced
	idMoveIn
	idMoveOut
	idUpdate
	idModify
	idDirty
	idReset
	idView
	idDebug
	idClone
)

// ReservedMax is the highest reserved event id.
const ReservedMax = 31

// UserEventBase is the first assignable user event id.
const UserEventBase = ReservedMax + 1

// Event is a small enumerated tag carrying the is_creation/is_removal
// facets flush uses to decide default row-removal behavior (spec §4.7).
type Event struct {
	id         int
	isCreation bool
	isRemoval  bool
	name       string
}

// ID returns the event's stable small integer id.
func (e Event) ID() int { return e.id }

// IsCreation reports whether the event represents rows coming into
// existence.
func (e Event) IsCreation() bool { return e.isCreation }

// IsRemoval reports whether the event represents rows going away.
func (e Event) IsRemoval() bool { return e.isRemoval }

// IsInvalid reports whether e is the INVALID_EVENT sentinel.
func (e Event) IsInvalid() bool { return e.id == idInvalid }

func (e Event) String() string { return e.name }

// Reserved events, per spec §4.6.
var (
	Invalid     = Event{id: idInvalid, name: "INVALID_EVENT"}
	Create      = Event{id: idCreate, isCreation: true, name: "CREATE"}
	Delete      = Event{id: idDelete, isRemoval: true, name: "DELETE"}
	Serialize   = Event{id: idSerialize, name: "SERIALIZE"}
	Deserialize = Event{id: idDeserialize, isCreation: true, name: "DESERIALIZE"}
	Save        = Event{id: idSave, name: "SAVE"}
	Unload      = Event{id: idUnload, isRemoval: true, name: "UNLOAD"}
	Synced      = Event{id: idSynced, name: "SYNCED"}
	Unsynced    = Event{id: idUnsynced, name: "UNSYNCED"}
	MoveIn      = Event{id: idMoveIn, isCreation: true, name: "MOVE_IN"}
	MoveOut     = Event{id: idMoveOut, isRemoval: true, name: "MOVE_OUT"}
	Update      = Event{id: idUpdate, name: "UPDATE"}
	Modify      = Event{id: idModify, name: "MODIFY"}
	Dirty       = Event{id: idDirty, name: "DIRTY"}
	Reset       = Event{id: idReset, isRemoval: true, name: "RESET"}
	View        = Event{id: idView, name: "VIEW"}
	Debug       = Event{id: idDebug, name: "DEBUG"}
	Clone       = Event{id: idClone, isCreation: true, name: "CLONE"}
)

// reserved indexes every built-in event by id for registration checks.
var reserved = map[int]Event{
	idInvalid: Invalid, idCreate: Create, idDelete: Delete, idSerialize: Serialize,
	idDeserialize: Deserialize, idSave: Save, idUnload: Unload, idSynced: Synced,
	idUnsynced: Unsynced, idMoveIn: MoveIn, idMoveOut: MoveOut, idUpdate: Update,
	idModify: Modify, idDirty: Dirty, idReset: Reset, idView: View, idDebug: Debug,
	idClone: Clone,
}

// ByID resolves any reserved or user event back to an Event value given
// its id and the configured user-event ceiling.
func ByID(id, userMax int) (Event, error) {
	if e, ok := reserved[id]; ok {
		return e, nil
	}
	if id < UserEventBase || id > userMax {
		return Event{}, errs.ErrEventOutOfRange(id, userMax)
	}
	return Event{id: id, name: fmt.Sprintf("USER_%d", id)}, nil
}

// User constructs a user-defined event, rejecting ids outside
// [UserEventBase, userMax].
func User(id, userMax int) (Event, error) {
	if id < UserEventBase || id > userMax {
		return Event{}, errs.ErrEventOutOfRange(id, userMax)
	}
	return Event{id: id, name: fmt.Sprintf("USER_%d", id)}, nil
}

// RequireRegistrable returns errs.ErrInvalidEvent if e is INVALID_EVENT
// and nil otherwise; tracker registration must never accept it (spec §4.6).
func RequireRegistrable(e Event) error {
	if e.IsInvalid() {
		return errs.ErrInvalidEvent()
	}
	return nil
}
