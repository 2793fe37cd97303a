package transit

import (
	"testing"
	"time"

	"shule_tracker/internal/models"
	"shule_tracker/internal/store"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestApplyPickedUp(t *testing.T) {
	mem := store.NewMemory()
	st := mem.PutStudent(&models.Student{Name: "Amina", Status: models.StatusWaiting})

	at := time.Date(2026, 3, 2, 6, 45, 0, 0, time.UTC)
	m := NewMachine(mem).WithClock(fixedClock(at))

	got, err := m.Apply(st.ID, ActionPickedUp)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got.Status != models.StatusPickedUp {
		t.Errorf("status = %q, want picked_up", got.Status)
	}
	if !got.OnBoard {
		t.Error("OnBoard = false after pickup")
	}
	if got.LastPickupTime == nil || !got.LastPickupTime.Equal(at) {
		t.Errorf("LastPickupTime = %v, want %v", got.LastPickupTime, at)
	}
}

func TestApplyDroppedOff(t *testing.T) {
	mem := store.NewMemory()
	st := mem.PutStudent(&models.Student{Status: models.StatusPickedUp, OnBoard: true})

	m := NewMachine(mem)
	got, err := m.Apply(st.ID, ActionDroppedOff)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got.Status != models.StatusDroppedOff {
		t.Errorf("status = %q, want dropped_off", got.Status)
	}
	if got.OnBoard {
		t.Error("OnBoard must be false for any status other than picked_up")
	}
	if got.LastDropoffTime == nil {
		t.Error("LastDropoffTime not stamped")
	}
}

func TestApplyIsLastWriteWins(t *testing.T) {
	mem := store.NewMemory()
	st := mem.PutStudent(&models.Student{Status: models.StatusWaiting})
	m := NewMachine(mem)

	// A repeated identical transition is not suppressed and not an error.
	for i := 0; i < 2; i++ {
		if _, err := m.Apply(st.ID, ActionPickedUp); err != nil {
			t.Fatalf("Apply #%d: %v", i+1, err)
		}
	}
	got, _ := mem.StudentByID(st.ID)
	if got.Status != models.StatusPickedUp || !got.OnBoard {
		t.Errorf("after double pickup: status=%q onBoard=%v", got.Status, got.OnBoard)
	}
}

func TestOnBoardCoupling(t *testing.T) {
	at := time.Now()
	for _, action := range []Action{ActionPickedUp, ActionDroppedOff} {
		st := &models.Student{}
		Mutate(st, action, at)
		if st.OnBoard != (st.Status == models.StatusPickedUp) {
			t.Errorf("action %s: onBoard=%v status=%q breaks invariant", action, st.OnBoard, st.Status)
		}
	}
}

func TestApplyUnknownStudent(t *testing.T) {
	m := NewMachine(store.NewMemory())
	if _, err := m.Apply(42, ActionPickedUp); err != store.ErrNotFound {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestApplyRejectsBogusAction(t *testing.T) {
	m := NewMachine(store.NewMemory())
	if _, err := m.Apply(1, Action("teleported")); err == nil {
		t.Fatal("expected error for invalid action")
	}
}

func TestReset(t *testing.T) {
	st := &models.Student{Status: models.StatusDroppedOff, OnBoard: true}
	Reset(st)
	if st.Status != models.StatusWaiting || st.OnBoard {
		t.Errorf("Reset: status=%q onBoard=%v", st.Status, st.OnBoard)
	}
}
