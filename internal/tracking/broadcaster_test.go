package tracking

import (
	"context"
	"errors"
	"testing"
	"time"

	"shule_tracker/internal/models"
	"shule_tracker/internal/store"
)

type capturePublisher struct {
	updates []Update
}

func (c *capturePublisher) Publish(u Update) { c.updates = append(c.updates, u) }

type countingGeocoder struct {
	calls int
	name  string
	err   error
}

func (g *countingGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	g.calls++
	return g.name, g.err
}

func newVan(mem *store.Memory) *models.Van {
	return mem.PutVan(&models.Van{PlateNumber: "UBH 123K"})
}

func TestIngestRequiresSession(t *testing.T) {
	mem := store.NewMemory()
	van := newVan(mem)
	b := NewBroadcaster(mem, nil, nil, nil)

	err := b.Ingest(Sample{VanID: van.ID, Latitude: 0.3, Longitude: 32.5})
	if !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("want ErrNoActiveSession, got %v", err)
	}
}

func TestStartSessionActivatesVan(t *testing.T) {
	mem := store.NewMemory()
	van := newVan(mem)
	b := NewBroadcaster(mem, nil, nil, nil)

	ctx, err := b.StartSession(van.ID)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	got, _ := mem.VanByID(van.ID)
	if got.OperationalStatus != models.VanActive {
		t.Errorf("van status = %q, want active", got.OperationalStatus)
	}

	b.StopSession(van.ID)
	select {
	case <-ctx.Done():
	default:
		t.Error("session context not cancelled by StopSession")
	}
	got, _ = mem.VanByID(van.ID)
	if got.OperationalStatus != models.VanParked {
		t.Errorf("van status after stop = %q, want parked", got.OperationalStatus)
	}
}

func TestActiveReflectsSession(t *testing.T) {
	mem := store.NewMemory()
	van := newVan(mem)
	b := NewBroadcaster(mem, nil, nil, nil)

	if b.Active(van.ID) {
		t.Error("van reported active before any session")
	}
	if _, err := b.StartSession(van.ID); err != nil {
		t.Fatal(err)
	}
	if !b.Active(van.ID) {
		t.Error("van not reported active during session")
	}
	b.StopSession(van.ID)
	if b.Active(van.ID) {
		t.Error("van still reported active after StopSession")
	}
}

// An operator reconnecting at the same spot must not grow the trail: the
// new session picks up the last persisted point as its reference.
func TestRestartedSessionKeepsTrailReference(t *testing.T) {
	mem := store.NewMemory()
	van := newVan(mem)
	b := NewBroadcaster(mem, nil, nil, nil)
	if _, err := b.StartSession(van.ID); err != nil {
		t.Fatal(err)
	}

	base := time.Now()
	if err := b.Ingest(Sample{VanID: van.ID, Latitude: 0.30000, Longitude: 32.50000, Timestamp: base}); err != nil {
		t.Fatal(err)
	}
	b.StopSession(van.ID)

	if _, err := b.StartSession(van.ID); err != nil {
		t.Fatal(err)
	}
	if err := b.Ingest(Sample{VanID: van.ID, Latitude: 0.30000, Longitude: 32.50000, Timestamp: base.Add(time.Minute)}); err != nil {
		t.Fatal(err)
	}
	if len(mem.Crumbs) != 1 {
		t.Errorf("breadcrumbs = %d, want 1 (reconnect at same point)", len(mem.Crumbs))
	}

	// Movement after the reconnect still extends the trail.
	if err := b.Ingest(Sample{VanID: van.ID, Latitude: 0.30050, Longitude: 32.50000, Timestamp: base.Add(2 * time.Minute)}); err != nil {
		t.Fatal(err)
	}
	if len(mem.Crumbs) != 2 {
		t.Errorf("breadcrumbs = %d, want 2 after post-reconnect move", len(mem.Crumbs))
	}
}

// Sub-10m movement: the live position updates every time, but no second
// breadcrumb row is written.
func TestBreadcrumbThreshold(t *testing.T) {
	mem := store.NewMemory()
	van := newVan(mem)
	b := NewBroadcaster(mem, nil, nil, nil)
	if _, err := b.StartSession(van.ID); err != nil {
		t.Fatal(err)
	}

	base := time.Now()
	samples := []Sample{
		{VanID: van.ID, Latitude: 0.30000, Longitude: 32.50000, Speed: 3, Timestamp: base},
		{VanID: van.ID, Latitude: 0.30001, Longitude: 32.50001, Speed: 3, Timestamp: base.Add(time.Second)},
	}
	for _, s := range samples {
		if err := b.Ingest(s); err != nil {
			t.Fatalf("Ingest: %v", err)
		}
	}

	if len(mem.Crumbs) != 1 {
		t.Errorf("breadcrumbs = %d, want 1 (second sample under threshold)", len(mem.Crumbs))
	}
	got, _ := mem.VanByID(van.ID)
	if got.CurrentLat != 0.30001 || got.CurrentLng != 32.50001 {
		t.Errorf("live position = (%v,%v), want the latest sample", got.CurrentLat, got.CurrentLng)
	}

	// A third sample past ~10 m gets its own breadcrumb.
	if err := b.Ingest(Sample{VanID: van.ID, Latitude: 0.30050, Longitude: 32.50000, Timestamp: base.Add(2 * time.Second)}); err != nil {
		t.Fatal(err)
	}
	if len(mem.Crumbs) != 2 {
		t.Errorf("breadcrumbs = %d, want 2 after significant move", len(mem.Crumbs))
	}
}

func TestGeocodeThrottled(t *testing.T) {
	mem := store.NewMemory()
	van := newVan(mem)
	geo := &countingGeocoder{name: "Kira Road"}
	b := NewBroadcaster(mem, geo, nil, nil)
	if _, err := b.StartSession(van.ID); err != nil {
		t.Fatal(err)
	}

	base := time.Now()
	// First sample geocodes, small drift does not, a 50 m+ move does.
	coords := [][2]float64{
		{0.30000, 32.50000},
		{0.30010, 32.50000}, // ~11 m, under geocode threshold
		{0.30100, 32.50000}, // ~110 m
	}
	for i, c := range coords {
		if err := b.Ingest(Sample{VanID: van.ID, Latitude: c[0], Longitude: c[1], Timestamp: base.Add(time.Duration(i) * time.Second)}); err != nil {
			t.Fatal(err)
		}
	}
	if geo.calls != 2 {
		t.Errorf("geocoder calls = %d, want 2", geo.calls)
	}
	got, _ := mem.VanByID(van.ID)
	if got.LocationName != "Kira Road" {
		t.Errorf("location name = %q", got.LocationName)
	}
}

func TestGeocodeFailureKeepsPreviousName(t *testing.T) {
	mem := store.NewMemory()
	van := newVan(mem)
	geo := &countingGeocoder{name: "Ntinda Stage"}
	b := NewBroadcaster(mem, geo, nil, nil)
	if _, err := b.StartSession(van.ID); err != nil {
		t.Fatal(err)
	}

	if err := b.Ingest(Sample{VanID: van.ID, Latitude: 0.3, Longitude: 32.5, Timestamp: time.Now()}); err != nil {
		t.Fatal(err)
	}
	geo.err = errors.New("rate limited")
	if err := b.Ingest(Sample{VanID: van.ID, Latitude: 0.31, Longitude: 32.5, Timestamp: time.Now().Add(time.Second)}); err != nil {
		t.Fatal(err)
	}

	got, _ := mem.VanByID(van.ID)
	if got.LocationName != "Ntinda Stage" {
		t.Errorf("location name = %q, want previous name kept", got.LocationName)
	}
	if got.CurrentLat != 0.31 {
		t.Error("live position must still update when geocoding fails")
	}
}

func TestBreadcrumbWriteFailureDoesNotAbort(t *testing.T) {
	mem := store.NewMemory()
	van := newVan(mem)
	mem.AppendCrumbErr = errors.New("store down")
	b := NewBroadcaster(mem, nil, nil, nil)
	if _, err := b.StartSession(van.ID); err != nil {
		t.Fatal(err)
	}

	if err := b.Ingest(Sample{VanID: van.ID, Latitude: 0.3, Longitude: 32.5, Timestamp: time.Now()}); err != nil {
		t.Fatalf("ingest should survive a breadcrumb write failure, got %v", err)
	}
	got, _ := mem.VanByID(van.ID)
	if got.CurrentLat != 0.3 {
		t.Error("live position not updated")
	}
}

func TestIngestPublishesPosition(t *testing.T) {
	mem := store.NewMemory()
	van := newVan(mem)
	pub := &capturePublisher{}
	b := NewBroadcaster(mem, nil, pub, nil)
	if _, err := b.StartSession(van.ID); err != nil {
		t.Fatal(err)
	}

	if err := b.Ingest(Sample{VanID: van.ID, Latitude: 0.3, Longitude: 32.5, Speed: 8.2, Timestamp: time.Now()}); err != nil {
		t.Fatal(err)
	}
	if len(pub.updates) != 1 {
		t.Fatalf("published updates = %d, want 1", len(pub.updates))
	}
	u := pub.updates[0]
	if u.Kind != "position" || u.VanID != van.ID || u.Speed != 8.2 {
		t.Errorf("update = %+v", u)
	}
}

func TestOutOfOrderSampleDiscarded(t *testing.T) {
	mem := store.NewMemory()
	van := newVan(mem)
	b := NewBroadcaster(mem, nil, nil, nil)
	if _, err := b.StartSession(van.ID); err != nil {
		t.Fatal(err)
	}

	base := time.Now()
	if err := b.Ingest(Sample{VanID: van.ID, Latitude: 0.31, Longitude: 32.5, Timestamp: base}); err != nil {
		t.Fatal(err)
	}
	if err := b.Ingest(Sample{VanID: van.ID, Latitude: 0.30, Longitude: 32.5, Timestamp: base.Add(-time.Minute)}); err != nil {
		t.Fatal(err)
	}
	got, _ := mem.VanByID(van.ID)
	if got.CurrentLat != 0.31 {
		t.Errorf("stale sample overwrote live position: lat=%v", got.CurrentLat)
	}
}
