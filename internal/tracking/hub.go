package tracking

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"shule_tracker/internal/proximity"
)

// Update is one message fanned out to the guardians and school staff
// watching a van.
type Update struct {
	Kind         string  `json:"kind"` // "position" | "status" | "proximity"
	VanID        uint    `json:"van_id"`
	StudentID    uint    `json:"student_id,omitempty"`
	Status       string  `json:"status,omitempty"`
	OnBoard      bool    `json:"on_board,omitempty"`
	Latitude     float64 `json:"latitude,omitempty"`
	Longitude    float64 `json:"longitude,omitempty"`
	Speed        float64 `json:"speed,omitempty"`
	Heading      float64 `json:"heading,omitempty"`
	LocationName string  `json:"location_name,omitempty"`
	DistanceKm   float64 `json:"distance_km,omitempty"`
	Timestamp    string  `json:"timestamp,omitempty"`
}

// Publisher is the fan-out seam; the broadcaster and controllers publish
// through it so tests can capture updates without sockets.
type Publisher interface {
	Publish(u Update)
}

// Hub manages watcher WebSocket connections per van and broadcasts
// updates to them. Each connection carries its own write lock;
// gorilla/websocket supports at most one concurrent writer per conn.
type Hub struct {
	vanClients map[uint]map[*websocket.Conn]*sync.Mutex
	broadcast  chan Update
	mu         sync.Mutex
}

func NewHub() *Hub {
	hub := &Hub{
		vanClients: make(map[uint]map[*websocket.Conn]*sync.Mutex),
		broadcast:  make(chan Update, 100),
	}
	go hub.run()
	return hub
}

// run drains the broadcast channel and writes each update to every
// watcher of that van.
func (h *Hub) run() {
	for u := range h.broadcast {
		h.mu.Lock()
		clients := h.vanClients[u.VanID]
		for conn, wmu := range clients {
			go func(c *websocket.Conn, wmu *sync.Mutex, msg Update) {
				wmu.Lock()
				err := c.WriteJSON(msg)
				wmu.Unlock()
				if err != nil {
					if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
						logrus.WithFields(logrus.Fields{
							"van_id":   msg.VanID,
							"conn_ptr": fmt.Sprintf("%p", c),
						}).Info("Watcher connection closed during broadcast, unregistering.")
						h.Unregister(msg.VanID, c)
					} else {
						logrus.WithError(err).WithField("van_id", msg.VanID).Warn("Failed to send update to watcher.")
					}
				}
			}(conn, wmu, u)
		}
		h.mu.Unlock()
	}
}

// Register adds a watcher connection for the given van.
func (h *Hub) Register(vanID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.vanClients[vanID]; !ok {
		h.vanClients[vanID] = make(map[*websocket.Conn]*sync.Mutex)
	}
	h.vanClients[vanID][conn] = &sync.Mutex{}
	logrus.WithFields(logrus.Fields{
		"van_id":   vanID,
		"conn_ptr": fmt.Sprintf("%p", conn),
	}).Info("Watcher registered with tracking hub.")
}

// Unregister removes a watcher connection.
func (h *Hub) Unregister(vanID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.vanClients[vanID]; ok {
		delete(clients, conn)
		if len(clients) == 0 {
			delete(h.vanClients, vanID)
		}
	}
	logrus.WithFields(logrus.Fields{
		"van_id":   vanID,
		"conn_ptr": fmt.Sprintf("%p", conn),
	}).Info("Watcher unregistered from tracking hub.")
}

// Publish queues an update for broadcast; a full channel drops the
// message rather than blocking the ingest path.
func (h *Hub) Publish(u Update) {
	select {
	case h.broadcast <- u:
	default:
		logrus.Warn("Tracking broadcast channel full, dropping update.")
	}
}

// HubNotifier adapts the hub to the proximity.Notifier interface so
// arrival alerts reach the same watchers as position updates.
type HubNotifier struct {
	Hub *Hub
}

func (n HubNotifier) Notify(a proximity.Alert) {
	n.Hub.Publish(Update{
		Kind:       "proximity",
		VanID:      a.VanID,
		StudentID:  a.StudentID,
		DistanceKm: a.DistanceKm,
	})
}
