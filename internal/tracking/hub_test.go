package tracking

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// Runs one watcher against a live hub and fires a burst of updates; with
// the race detector on, this also checks that concurrent fan-out writes
// to one connection are serialized.
func TestHubFansOutToWatcher(t *testing.T) {
	hub := NewHub()
	registered := make(chan struct{})
	done := make(chan struct{})

	up := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		hub.Register(9, conn)
		close(registered)
		<-done
		conn.Close()
	}))
	defer srv.Close()
	defer close(done)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()
	<-registered

	const burst = 5
	for i := 0; i < burst; i++ {
		hub.Publish(Update{Kind: "position", VanID: 9, Latitude: 0.3, Longitude: 32.5})
	}
	// An update for another van must not reach this watcher.
	hub.Publish(Update{Kind: "position", VanID: 4})

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	for i := 0; i < burst; i++ {
		var u Update
		if err := client.ReadJSON(&u); err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if u.VanID != 9 || u.Kind != "position" {
			t.Errorf("update %d = %+v, want van 9 position", i, u)
		}
	}
}
