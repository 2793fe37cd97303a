// Package verification is the sole entry point allowed to request a
// custody state transition. A claim is checked against the stored
// credentials, then the transition, the code rotation (pickups only)
// and the audit append all happen inside one transaction.
package verification

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"shule_tracker/internal/credentials"
	"shule_tracker/internal/ledger"
	"shule_tracker/internal/models"
	"shule_tracker/internal/store"
	"shule_tracker/internal/transit"
)

var (
	// ErrInvalidCredential means the submitted PIN or token does not
	// match; the caller may retry with a fresh value.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrNotFound mirrors store.ErrNotFound for unknown students.
	ErrNotFound = store.ErrNotFound
)

// Request is one custody transfer claim from an operator device.
type Request struct {
	StudentID  uint
	OperatorID uint
	Action     transit.Action
	Claim      Claim
	Lat, Lng   *float64
}

// Result reports a successful transfer. RotatedCode is set only for
// pickups, so the operator app can show the guardian the next code.
type Result struct {
	Student     *models.Student
	RotatedCode string
}

type Gateway struct {
	db    store.Store
	now   func() time.Time
	locks studentLocks
}

func NewGateway(db store.Store) *Gateway {
	return &Gateway{db: db, now: time.Now}
}

// WithClock overrides the timestamp source, for tests.
func (g *Gateway) WithClock(now func() time.Time) *Gateway {
	g.now = now
	return g
}

// Verify runs the custody-transfer policy. Concurrent claims for the
// same student are serialized with a per-student lock so duplicate scans
// cannot both observe the pre-transition state.
func (g *Gateway) Verify(req Request) (*Result, error) {
	if req.Claim == nil {
		return nil, fmt.Errorf("verification: missing claim")
	}
	if !req.Action.Valid() {
		return nil, fmt.Errorf("verification: invalid action %q", req.Action)
	}

	unlock := g.locks.lock(req.StudentID)
	defer unlock()

	var res Result
	var denied error
	err := g.db.InTx(func(tx store.Store) error {
		st, err := tx.StudentByID(req.StudentID)
		if err != nil {
			return err
		}

		audit := ledger.New(tx)
		entry := ledger.Entry{
			StudentID:  st.ID,
			OperatorID: req.OperatorID,
			VanID:      st.VanID,
			Method:     req.Claim.Method(),
			ActionType: string(req.Action),
			Lat:        req.Lat,
			Lng:        req.Lng,
		}

		if !req.Claim.matches(st) {
			// Failed attempts are audited too; commit the failure row by
			// returning nil and surface the denial separately.
			denied = ErrInvalidCredential
			entry.Outcome = models.OutcomeFailure
			entry.Reason = "credential mismatch"
			return audit.Append(entry)
		}

		st, err = transit.NewMachine(tx).WithClock(g.now).Apply(st.ID, req.Action)
		if err != nil {
			return fmt.Errorf("apply transition: %w", err)
		}
		if req.Action == transit.ActionPickedUp {
			code, err := credentials.New(tx).RotateGuardianCode(st.ID)
			if err != nil {
				return fmt.Errorf("rotate guardian code: %w", err)
			}
			st.GuardianCode = code
			res.RotatedCode = code
		}

		entry.Outcome = models.OutcomeSuccess
		if err := audit.Append(entry); err != nil {
			return err
		}
		res.Student = st
		return nil
	})
	if err != nil {
		return nil, err
	}
	if denied != nil {
		logrus.WithFields(logrus.Fields{
			"student_id":  req.StudentID,
			"operator_id": req.OperatorID,
			"method":      req.Claim.Method(),
			"action":      req.Action,
		}).Warn("Custody verification denied.")
		return nil, denied
	}

	logrus.WithFields(logrus.Fields{
		"student_id":  req.StudentID,
		"operator_id": req.OperatorID,
		"method":      req.Claim.Method(),
		"action":      req.Action,
	}).Info("Custody verification accepted.")
	return &res, nil
}

// studentLocks hands out one mutex per student ID. Entries are kept for
// the life of the process; the fleet roster is small enough that this
// never matters.
type studentLocks struct {
	mu sync.Mutex
	m  map[uint]*sync.Mutex
}

func (l *studentLocks) lock(id uint) func() {
	l.mu.Lock()
	if l.m == nil {
		l.m = make(map[uint]*sync.Mutex)
	}
	sl, ok := l.m[id]
	if !ok {
		sl = &sync.Mutex{}
		l.m[id] = sl
	}
	l.mu.Unlock()
	sl.Lock()
	return sl.Unlock
}
