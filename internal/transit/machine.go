// Package transit holds the per-student board/alight state machine.
package transit

import (
	"fmt"
	"time"

	"shule_tracker/internal/models"
	"shule_tracker/internal/store"
)

// Action is a custody transition target.
type Action string

const (
	ActionPickedUp   Action = models.StatusPickedUp
	ActionDroppedOff Action = models.StatusDroppedOff
)

func (a Action) Valid() bool {
	return a == ActionPickedUp || a == ActionDroppedOff
}

// Machine applies transitions. It is deliberately last-write-wins: no
// precondition on the current status, so a repeated identical transition
// is idempotent in effect. Serialization of concurrent claims for one
// student is the verification gateway's job, not the machine's.
type Machine struct {
	db  store.Store
	now func() time.Time
}

func NewMachine(db store.Store) *Machine {
	return &Machine{db: db, now: time.Now}
}

// WithClock overrides the timestamp source, for tests.
func (m *Machine) WithClock(now func() time.Time) *Machine {
	m.now = now
	return m
}

// Apply sets status = action, couples OnBoard to picked_up, and stamps
// the matching transition time.
func (m *Machine) Apply(studentID uint, action Action) (*models.Student, error) {
	if !action.Valid() {
		return nil, fmt.Errorf("transit: invalid action %q", action)
	}
	st, err := m.db.StudentByID(studentID)
	if err != nil {
		return nil, err
	}
	Mutate(st, action, m.now())
	if err := m.db.SaveStudent(st); err != nil {
		return nil, fmt.Errorf("persist transition: %w", err)
	}
	return st, nil
}

// Mutate applies the transition to an in-memory student record. Split out
// so callers already holding the row inside a transaction can reuse it.
func Mutate(st *models.Student, action Action, at time.Time) {
	st.Status = string(action)
	st.OnBoard = action == ActionPickedUp
	if action == ActionPickedUp {
		st.LastPickupTime = &at
	} else {
		st.LastDropoffTime = &at
	}
}

// Reset returns a student to the start-of-day state. Used by the daily
// reset and by route finish; neither rotates credentials here.
func Reset(st *models.Student) {
	st.Status = models.StatusWaiting
	st.OnBoard = false
}
