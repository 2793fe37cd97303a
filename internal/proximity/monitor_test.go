package proximity

import (
	"math"
	"testing"

	"shule_tracker/internal/models"
)

type captureNotifier struct {
	alerts []Alert
}

func (c *captureNotifier) Notify(a Alert) { c.alerts = append(c.alerts, a) }

func ptr(v float64) *float64 { return &v }

func TestHaversine(t *testing.T) {
	// Kampala city center to Entebbe is roughly 35 km.
	d := Haversine(0.3476, 32.5825, 0.0560, 32.4794)
	if d < 32 || d > 38 {
		t.Errorf("Haversine Kampala-Entebbe = %.1f km, want ~35", d)
	}
	if z := Haversine(0.3, 32.5, 0.3, 32.5); math.Abs(z) > 1e-9 {
		t.Errorf("zero-distance = %v", z)
	}
}

func TestAlertFiresOncePerLeg(t *testing.T) {
	n := &captureNotifier{}
	m := NewMonitor(n, 0, 0, 0.5)
	st := &models.Student{
		OnBoard: true,
		HomeLat: ptr(0.30000),
		HomeLng: ptr(32.50000),
	}
	st.ID = 1
	st.VanID = 7

	// ~220 m away: inside the geofence.
	near := []float64{0.30200, 32.50000}
	for i := 0; i < 3; i++ {
		m.Observe(st, near[0], near[1])
	}
	if len(n.alerts) != 1 {
		t.Fatalf("want 1 alert, got %d", len(n.alerts))
	}
	if n.alerts[0].StudentID != 1 || n.alerts[0].VanID != 7 {
		t.Errorf("alert = %+v", n.alerts[0])
	}

	// Next leg: re-armed by pickup, fires again.
	m.Rearm(st.ID)
	m.Observe(st, near[0], near[1])
	if len(n.alerts) != 2 {
		t.Fatalf("after rearm: want 2 alerts, got %d", len(n.alerts))
	}
}

func TestNoAlertOutsideRadius(t *testing.T) {
	n := &captureNotifier{}
	m := NewMonitor(n, 0, 0, 0.5)
	st := &models.Student{OnBoard: true, HomeLat: ptr(0.3), HomeLng: ptr(32.5)}
	st.ID = 2

	// ~11 km off.
	m.Observe(st, 0.4, 32.5)
	if len(n.alerts) != 0 {
		t.Fatalf("alert fired outside radius: %+v", n.alerts)
	}
}

func TestNotOnBoardIsIgnored(t *testing.T) {
	n := &captureNotifier{}
	m := NewMonitor(n, 0.3, 32.5, 0.5)
	st := &models.Student{OnBoard: false, HomeLat: ptr(0.3), HomeLng: ptr(32.5)}
	st.ID = 3

	m.Observe(st, 0.3, 32.5)
	if len(n.alerts) != 0 {
		t.Fatal("alert fired for a student who is not on board")
	}
}

func TestDefaultDestinationFallback(t *testing.T) {
	n := &captureNotifier{}
	m := NewMonitor(n, 0.31300, 32.58100, 0.5)
	st := &models.Student{OnBoard: true} // no home location configured
	st.ID = 4

	m.Observe(st, 0.31310, 32.58110)
	if len(n.alerts) != 1 {
		t.Fatalf("default destination not used, alerts = %d", len(n.alerts))
	}
}
