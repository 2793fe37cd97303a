// Package scheduler runs the once-per-day fleet reset: every student back
// to waiting, off board, with a freshly rotated guardian code.
package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"shule_tracker/internal/credentials"
	"shule_tracker/internal/store"
	"shule_tracker/internal/transit"
)

// DailyReset owns the cron entry and the reset batch. The batch is
// idempotent, so a failed run is simply retried at the next scheduled
// fire (or via the manual trigger endpoint).
type DailyReset struct {
	db   store.Store
	cron *cron.Cron
	spec string
}

// New builds the scheduler. spec is a standard 5-field cron expression
// ("0 0 * * *" for midnight); loc is the fleet's operating timezone.
func New(db store.Store, spec string, loc *time.Location) *DailyReset {
	if loc == nil {
		loc = time.Local
	}
	return &DailyReset{
		db:   db,
		cron: cron.New(cron.WithLocation(loc)),
		spec: spec,
	}
}

// Start registers the cron entry and begins the schedule.
func (d *DailyReset) Start() error {
	_, err := d.cron.AddFunc(d.spec, func() {
		count, err := d.RunNow()
		if err != nil {
			// Do not crash the host; the next run reprocesses everything.
			logrus.WithError(err).WithField("students_reset", count).Error("Daily reset batch failed.")
			return
		}
		logrus.WithField("students_reset", count).Info("Daily reset completed.")
	})
	if err != nil {
		return fmt.Errorf("schedule daily reset (%q): %w", d.spec, err)
	}
	d.cron.Start()
	return nil
}

// Stop halts the schedule; a batch already running finishes.
func (d *DailyReset) Stop() {
	d.cron.Stop()
}

// RunNow executes one reset batch in a single transaction and returns
// the number of students reset.
func (d *DailyReset) RunNow() (int, error) {
	var count int
	err := d.db.InTx(func(tx store.Store) error {
		students, err := tx.AllStudents()
		if err != nil {
			return err
		}
		for i := range students {
			st := &students[i]
			transit.Reset(st)
			st.GuardianCode = credentials.GenerateCode()
			if err := tx.SaveStudent(st); err != nil {
				return fmt.Errorf("reset student %d: %w", st.ID, err)
			}
			count++
		}
		return nil
	})
	if err != nil {
		return count, err
	}
	return count, nil
}
