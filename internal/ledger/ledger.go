// Package ledger is the append-only audit record of custody verification
// outcomes. Entries are never updated or deleted.
package ledger

import (
	"fmt"
	"time"

	"shule_tracker/internal/models"
	"shule_tracker/internal/store"
)

type Ledger struct {
	db  store.Store
	now func() time.Time
}

func New(db store.Store) *Ledger {
	return &Ledger{db: db, now: time.Now}
}

// Entry is everything a caller supplies for one ledger row; the timestamp
// is stamped here.
type Entry struct {
	StudentID  uint
	OperatorID uint
	VanID      uint
	Method     string
	ActionType string
	Outcome    string
	Reason     string
	Lat, Lng   *float64
}

func (l *Ledger) Append(e Entry) error {
	ev := models.VerificationEvent{
		StudentID:  e.StudentID,
		OperatorID: e.OperatorID,
		VanID:      e.VanID,
		Method:     e.Method,
		ActionType: e.ActionType,
		Outcome:    e.Outcome,
		Reason:     e.Reason,
		Lat:        e.Lat,
		Lng:        e.Lng,
		Timestamp:  l.now(),
	}
	if err := l.db.AppendEvent(&ev); err != nil {
		return fmt.Errorf("append verification event: %w", err)
	}
	return nil
}

// ByStudent returns the most recent events for one student, newest first.
func (l *Ledger) ByStudent(studentID uint, limit int) ([]models.VerificationEvent, error) {
	return l.db.EventsByStudent(studentID, limit)
}
