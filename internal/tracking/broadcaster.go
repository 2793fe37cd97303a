// Package tracking ingests high-frequency position samples from active
// vans, keeps the authoritative live position, persists a throttled
// breadcrumb trail, and fans updates out to watching clients.
package tracking

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"shule_tracker/internal/models"
	"shule_tracker/internal/proximity"
	"shule_tracker/internal/store"
)

const (
	// Degrees of movement before an expensive reverse-geocode lookup is
	// repeated (~50 m near the equator).
	geocodeThresholdDeg = 0.0005
	// Degrees of movement before a new breadcrumb row is persisted
	// (~10 m). Bounds storage growth while keeping a usable trail.
	breadcrumbThresholdDeg = 0.0001
)

// ErrNoActiveSession is returned when samples arrive for a van with no
// running tracking session.
var ErrNoActiveSession = errors.New("no active tracking session for van")

// Sample is one raw position reading from an operator device.
type Sample struct {
	VanID     uint      `json:"van_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Speed     float64   `json:"speed"`
	Heading   float64   `json:"heading"`
	Timestamp time.Time `json:"timestamp"`
}

type session struct {
	ctx    context.Context
	cancel context.CancelFunc

	hasGeocoded bool
	geoLat      float64
	geoLng      float64

	hasCrumb bool
	crumbLat float64
	crumbLng float64

	lastTimestamp time.Time
}

// Broadcaster owns the per-van tracking sessions.
type Broadcaster struct {
	db       store.Store
	geocoder Geocoder
	pub      Publisher
	monitor  *proximity.Monitor

	mu       sync.Mutex
	sessions map[uint]*session
}

func NewBroadcaster(db store.Store, geocoder Geocoder, pub Publisher, monitor *proximity.Monitor) *Broadcaster {
	if geocoder == nil {
		geocoder = NoopGeocoder{}
	}
	return &Broadcaster{
		db:       db,
		geocoder: geocoder,
		pub:      pub,
		monitor:  monitor,
		sessions: make(map[uint]*session),
	}
}

// StartSession marks the van active and opens a tracking session. The
// returned context is cancelled by StopSession; socket loops feeding
// this van should stop when it is done.
func (b *Broadcaster) StartSession(vanID uint) (context.Context, error) {
	van, err := b.db.VanByID(vanID)
	if err != nil {
		return nil, err
	}
	van.OperationalStatus = models.VanActive
	if err := b.db.SaveVan(van); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	sess := &session{ctx: ctx, cancel: cancel}
	// Seed the trail reference from the last persisted point so a
	// reconnecting operator does not re-append an unmoved position.
	if crumb, err := b.db.LastBreadcrumb(vanID); err == nil {
		sess.hasCrumb = true
		sess.crumbLat = crumb.Latitude
		sess.crumbLng = crumb.Longitude
	} else if !errors.Is(err, store.ErrNotFound) {
		logrus.WithError(err).WithField("van_id", vanID).Warn("Could not load last breadcrumb for new session.")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if old, ok := b.sessions[vanID]; ok {
		old.cancel()
	}
	b.sessions[vanID] = sess
	logrus.WithField("van_id", vanID).Info("Tracking session started.")
	return ctx, nil
}

// StopSession cancels the van's session and marks it parked. Position
// fields are left in place; a route finish clears them.
func (b *Broadcaster) StopSession(vanID uint) {
	b.mu.Lock()
	sess, ok := b.sessions[vanID]
	if ok {
		sess.cancel()
		delete(b.sessions, vanID)
	}
	b.mu.Unlock()
	if !ok {
		return
	}

	if van, err := b.db.VanByID(vanID); err == nil {
		van.OperationalStatus = models.VanParked
		if err := b.db.SaveVan(van); err != nil {
			logrus.WithError(err).WithField("van_id", vanID).Error("Failed to park van on session stop.")
		}
	}
	logrus.WithField("van_id", vanID).Info("Tracking session stopped.")
}

// Active reports whether the van currently has a tracking session.
func (b *Broadcaster) Active(vanID uint) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.sessions[vanID]
	return ok
}

// Ingest applies one sample. The live position is always overwritten;
// reverse geocoding and breadcrumb persistence are throttled by the
// movement thresholds. Individual write failures are logged and do not
// abort the stream.
func (b *Broadcaster) Ingest(sample Sample) error {
	b.mu.Lock()
	sess, ok := b.sessions[sample.VanID]
	b.mu.Unlock()
	if !ok {
		return ErrNoActiveSession
	}

	if sample.Timestamp.IsZero() {
		sample.Timestamp = time.Now()
	}
	// Out-of-order samples would only make the display stale; skip them.
	if !sess.lastTimestamp.IsZero() && sample.Timestamp.Before(sess.lastTimestamp) {
		logrus.WithField("van_id", sample.VanID).Debug("Discarding out-of-order position sample.")
		return nil
	}
	sess.lastTimestamp = sample.Timestamp

	van, err := b.db.VanByID(sample.VanID)
	if err != nil {
		return err
	}

	van.CurrentLat = sample.Latitude
	van.CurrentLng = sample.Longitude
	van.Speed = sample.Speed
	van.Heading = sample.Heading

	if !sess.hasGeocoded || exceeds(sample.Latitude, sample.Longitude, sess.geoLat, sess.geoLng, geocodeThresholdDeg) {
		name, err := b.geocoder.ReverseGeocode(sess.ctx, sample.Latitude, sample.Longitude)
		if err != nil {
			// Keep the previous name; a failed lookup is not worth
			// interrupting the stream for.
			logrus.WithError(err).WithField("van_id", sample.VanID).Warn("Reverse geocode failed.")
		} else {
			van.LocationName = name
			sess.hasGeocoded = true
			sess.geoLat = sample.Latitude
			sess.geoLng = sample.Longitude
		}
	}

	if err := b.db.SaveVan(van); err != nil {
		logrus.WithError(err).WithField("van_id", sample.VanID).Error("Failed to update live position.")
		return nil
	}

	if !sess.hasCrumb || exceeds(sample.Latitude, sample.Longitude, sess.crumbLat, sess.crumbLng, breadcrumbThresholdDeg) {
		crumb := models.Breadcrumb{
			VanID:     sample.VanID,
			Latitude:  sample.Latitude,
			Longitude: sample.Longitude,
			Speed:     sample.Speed,
			Heading:   sample.Heading,
			Timestamp: sample.Timestamp,
		}
		if err := b.db.AppendBreadcrumb(&crumb); err != nil {
			logrus.WithError(err).WithField("van_id", sample.VanID).Error("Failed to persist breadcrumb.")
		} else {
			sess.hasCrumb = true
			sess.crumbLat = sample.Latitude
			sess.crumbLng = sample.Longitude
		}
	}

	if b.pub != nil {
		b.pub.Publish(Update{
			Kind:         "position",
			VanID:        sample.VanID,
			Latitude:     sample.Latitude,
			Longitude:    sample.Longitude,
			Speed:        sample.Speed,
			Heading:      sample.Heading,
			LocationName: van.LocationName,
			Timestamp:    sample.Timestamp.Format(time.RFC3339Nano),
		})
	}

	if b.monitor != nil {
		students, err := b.db.StudentsByVan(sample.VanID)
		if err != nil {
			logrus.WithError(err).WithField("van_id", sample.VanID).Warn("Could not load students for proximity check.")
		} else {
			for i := range students {
				b.monitor.Observe(&students[i], sample.Latitude, sample.Longitude)
			}
		}
	}
	return nil
}

// exceeds reports whether either coordinate moved more than threshold
// degrees from the reference point.
func exceeds(lat, lng, refLat, refLng, threshold float64) bool {
	return math.Abs(lat-refLat) > threshold || math.Abs(lng-refLng) > threshold
}
