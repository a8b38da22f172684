package document

import (
	"time"

	"github.com/kailas-cloud/gymdex/internal/domain/listing"
)

// Presence is what the caller knows about a listing's document in the store.
type Presence int

// Presence values.
const (
	PresenceUnknown Presence = iota
	PresenceAbsent
	PresencePresent
)

func (p Presence) String() string {
	switch p {
	case PresenceAbsent:
		return "absent"
	case PresencePresent:
		return "present"
	default:
		return "unknown"
	}
}

// Action is the write a reconciliation asks for.
type Action int

// Reconcile actions.
const (
	ActionNoop Action = iota
	ActionUpsert
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionUpsert:
		return "upsert"
	case ActionDelete:
		return "delete"
	default:
		return "noop"
	}
}

// Decision is the outcome of Reconcile. Document is set only for ActionUpsert.
type Decision struct {
	ID       string
	Action   Action
	Document Document
}

// Reconcile decides how to bring the document for id in line with row,
// the listing's current state in the Listing Store (nil when the row is gone).
//
//	row missing                    -> delete
//	row eligible                   -> upsert
//	row ineligible, known absent   -> noop
//	row ineligible, otherwise      -> delete (not found tolerated)
func Reconcile(id string, row *listing.Listing, presence Presence, now time.Time) Decision {
	if row == nil {
		return Decision{ID: id, Action: ActionDelete}
	}
	if row.ID != "" {
		id = row.ID
	}

	doc, err := Project(row, now)
	if err == nil {
		return Decision{ID: id, Action: ActionUpsert, Document: doc}
	}

	if presence == PresenceAbsent {
		return Decision{ID: id, Action: ActionNoop}
	}
	return Decision{ID: id, Action: ActionDelete}
}
