// Package proximity watches the live position stream on behalf of
// guardians and fires a one-shot alert when the van closes on a
// student's destination.
package proximity

import (
	"math"
	"sync"

	"github.com/sirupsen/logrus"

	"shule_tracker/internal/models"
)

// DefaultRadiusKm is the arrival geofence used when none is configured.
const DefaultRadiusKm = 0.5

// Alert is one "van is nearly there" notification.
type Alert struct {
	StudentID  uint
	VanID      uint
	DistanceKm float64
}

// Notifier delivers alerts; implementations push to guardian clients.
type Notifier interface {
	Notify(a Alert)
}

// Monitor keeps a per-student latch so at most one alert fires per
// transit leg. The latch is re-armed when the student is next picked up.
type Monitor struct {
	notifier   Notifier
	defaultLat float64
	defaultLng float64
	radiusKm   float64

	mu       sync.Mutex
	notified map[uint]bool
}

// NewMonitor builds a monitor. defaultLat/defaultLng is the fallback
// destination for students with no home location (typically the school
// gate).
func NewMonitor(notifier Notifier, defaultLat, defaultLng, radiusKm float64) *Monitor {
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}
	return &Monitor{
		notifier:   notifier,
		defaultLat: defaultLat,
		defaultLng: defaultLng,
		radiusKm:   radiusKm,
		notified:   make(map[uint]bool),
	}
}

// Rearm clears the student's latch; called on every successful pickup,
// since that starts a new leg.
func (m *Monitor) Rearm(studentID uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notified[studentID] = false
}

// Observe evaluates one position update for one student. Students not on
// board are ignored.
func (m *Monitor) Observe(st *models.Student, vanLat, vanLng float64) {
	if !st.OnBoard {
		return
	}
	destLat, destLng := m.defaultLat, m.defaultLng
	if st.HomeLat != nil && st.HomeLng != nil {
		destLat, destLng = *st.HomeLat, *st.HomeLng
	}
	d := Haversine(vanLat, vanLng, destLat, destLng)
	if d >= m.radiusKm {
		return
	}

	m.mu.Lock()
	already := m.notified[st.ID]
	if !already {
		m.notified[st.ID] = true
	}
	m.mu.Unlock()
	if already {
		return
	}

	logrus.WithFields(logrus.Fields{
		"student_id":  st.ID,
		"van_id":      st.VanID,
		"distance_km": d,
	}).Info("Proximity alert fired.")
	if m.notifier != nil {
		m.notifier.Notify(Alert{StudentID: st.ID, VanID: st.VanID, DistanceKm: d})
	}
}

// Haversine returns the great-circle distance in kilometers.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadiusKm = 6371.0
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
