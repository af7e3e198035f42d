package hangar

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection names a persisted record collection.
type Collection string

const (
	CollectionVehicles    Collection = "vehicles"
	CollectionTechnicians Collection = "technicians"
	CollectionContractors Collection = "contractors"
	CollectionJobTypes    Collection = "job_types"
	CollectionJobs        Collection = "jobs"
	CollectionNotes       Collection = "shift_notes"
	CollectionSchedule    Collection = "schedule"
)

// Collections lists every persisted collection in load order.
func Collections() []Collection {
	return []Collection{
		CollectionVehicles, CollectionTechnicians, CollectionContractors,
		CollectionJobTypes, CollectionJobs, CollectionNotes, CollectionSchedule,
	}
}

// IsValidCollection checks if a collection name is known.
func IsValidCollection(c Collection) bool {
	for _, known := range Collections() {
		if c == known {
			return true
		}
	}
	return false
}

// Action is the kind of write a Change describes.
type Action string

const (
	ActionInsert Action = "insert"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Change is one record write produced by a mutation. After holds the new
// record value for inserts and updates and is nil for deletes.
type Change struct {
	Collection Collection
	Action     Action
	ID         primitive.ObjectID
	After      any
}

// Tx is the working copy a mutation edits. Changes recorded on it are
// persisted as one unit before the copy replaces the store state.
type Tx struct {
	state   *State
	now     time.Time
	changes []Change
}

// State returns the mutable working copy.
func (tx *Tx) State() *State { return tx.state }

// Now is the instant the mutation started.
func (tx *Tx) Now() time.Time { return tx.now }

// Today is the local calendar date the mutation started on.
func (tx *Tx) Today() string { return DateOf(tx.now) }

// Changes returns the writes recorded so far.
func (tx *Tx) Changes() []Change { return tx.changes }

func (tx *Tx) record(col Collection, action Action, id primitive.ObjectID, after any) {
	// A later write to the same record supersedes an earlier update.
	for i := range tx.changes {
		c := &tx.changes[i]
		if c.Collection == col && c.ID == id && c.Action != ActionDelete && action == ActionUpdate {
			c.After = after
			return
		}
	}
	tx.changes = append(tx.changes, Change{Collection: col, Action: action, ID: id, After: after})
}

func (tx *Tx) inserted(col Collection, id primitive.ObjectID, after any) {
	tx.record(col, ActionInsert, id, after)
}

func (tx *Tx) updated(col Collection, id primitive.ObjectID, after any) {
	tx.record(col, ActionUpdate, id, after)
}

func (tx *Tx) deleted(col Collection, id primitive.ObjectID) {
	tx.record(col, ActionDelete, id, nil)
}
