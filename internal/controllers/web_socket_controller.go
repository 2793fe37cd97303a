package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"shule_tracker/internal/middleware"
	"shule_tracker/internal/tracking"
)

// upgrader configures the WebSocket connection.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all for development (restrict in production!)
	},
}

// samplePayload is the raw position message from an operator device.
// Devices stamp timestamps inconsistently, so parsing is forgiving: a
// missing timezone is read as UTC.
type samplePayload struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Speed     float64 `json:"speed"`
	Heading   float64 `json:"heading"`
	Timestamp string  `json:"timestamp"`
}

func (p samplePayload) parseTimestamp() (time.Time, error) {
	ts := p.Timestamp
	if ts == "" {
		return time.Now(), nil
	}
	if !(strings.HasSuffix(ts, "Z") || (len(ts) > 6 && strings.ContainsAny(ts[len(ts)-6:], "+-"))) {
		ts += "Z"
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", p.Timestamp, err)
	}
	return t, nil
}

// wsActor identifies who is on the other end of the socket.
type wsActor struct {
	role  string
	vanID uint
}

// authenticateWebSocket validates the JWT passed as a query parameter
// and resolves the van this connection concerns. Operators stream for
// their assigned van; guardians and school staff name the van they want
// to watch.
func authenticateWebSocket(c *gin.Context) (*wsActor, error) {
	tokenString := c.Query("token")
	if tokenString == "" {
		return nil, errors.New("missing authentication token")
	}
	claims, err := middleware.ValidateToken(tokenString)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	switch claims.Role {
	case "operator":
		operator, err := db.OperatorByUserID(claims.UserID)
		if err != nil {
			return nil, fmt.Errorf("operator profile not found for user ID %d", claims.UserID)
		}
		if operator.VanID == 0 {
			return nil, errors.New("operator has no assigned van")
		}
		return &wsActor{role: claims.Role, vanID: operator.VanID}, nil
	case "guardian", "school", "admin":
		raw := c.Query("van_id")
		if raw == "" {
			return nil, errors.New("missing 'van_id' query parameter: watchers must name the van to monitor")
		}
		vanID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid 'van_id' parameter: %w", err)
		}
		if _, err := db.VanByID(uint(vanID)); err != nil {
			return nil, fmt.Errorf("van %d not found", vanID)
		}
		return &wsActor{role: claims.Role, vanID: uint(vanID)}, nil
	default:
		return nil, errors.New("unauthorized role for WebSocket connection")
	}
}

// HandleLocationWebSocket is the single WebSocket endpoint. Operators
// push position samples; guardians and school staff receive position,
// status and proximity updates for one van.
func HandleLocationWebSocket(c *gin.Context) {
	actor, authErr := authenticateWebSocket(c)
	if authErr != nil {
		logrus.WithError(authErr).Warn("WebSocket connection attempt failed.")
		c.JSON(http.StatusUnauthorized, gin.H{"error": authErr.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("Failed to upgrade WebSocket connection.")
		return
	}
	defer conn.Close()

	if actor.role == "operator" {
		handleOperatorSocket(conn, actor.vanID)
	} else {
		handleWatcherSocket(conn, actor.vanID, actor.role)
	}
}

// handleOperatorSocket runs the ingest loop for one van. The tracking
// session lives exactly as long as the socket: closing the connection
// cancels it, so no polling resource outlives the shift.
func handleOperatorSocket(conn *websocket.Conn, vanID uint) {
	// One streaming socket per van; a second device must wait for the
	// first to disconnect rather than silently stealing the session.
	if broadcaster.Active(vanID) {
		logrus.WithField("van_id", vanID).Warn("Rejected operator WebSocket: van already has a live session.")
		conn.WriteJSON(gin.H{"error": "van already has an active tracking session"})
		return
	}
	if _, err := broadcaster.StartSession(vanID); err != nil {
		logrus.WithError(err).WithField("van_id", vanID).Error("Could not start tracking session.")
		conn.WriteJSON(gin.H{"error": "could not start tracking session"})
		return
	}
	defer broadcaster.StopSession(vanID)

	logrus.WithField("van_id", vanID).Info("Operator WebSocket connection established.")
	for {
		messageType, p, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithField("van_id", vanID).Info("Operator WebSocket closed.")
			} else {
				logrus.WithError(err).Errorf("Error reading WebSocket message for van %d", vanID)
			}
			break
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var payload samplePayload
		if err := json.Unmarshal(p, &payload); err != nil {
			conn.WriteJSON(gin.H{"error": "invalid location payload"})
			continue
		}
		ts, err := payload.parseTimestamp()
		if err != nil {
			conn.WriteJSON(gin.H{"error": err.Error()})
			continue
		}

		err = broadcaster.Ingest(tracking.Sample{
			VanID:     vanID,
			Latitude:  payload.Latitude,
			Longitude: payload.Longitude,
			Speed:     payload.Speed,
			Heading:   payload.Heading,
			Timestamp: ts,
		})
		if err != nil {
			// One bad sample must not kill the stream; report and read on.
			logrus.WithError(err).WithField("van_id", vanID).Warn("Position sample rejected.")
			conn.WriteJSON(gin.H{"error": err.Error()})
			continue
		}
		conn.WriteJSON(gin.H{"status": "ok"})
	}
}

// handleWatcherSocket registers a guardian or school client with the hub
// and holds the connection open until the peer goes away.
func handleWatcherSocket(conn *websocket.Conn, vanID uint, role string) {
	logrus.WithFields(logrus.Fields{
		"van_id": vanID,
		"role":   role,
	}).Info("Watcher WebSocket connection established.")

	hub.Register(vanID, conn)
	defer hub.Unregister(vanID, conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithField("van_id", vanID).Info("Watcher WebSocket closed.")
			} else {
				logrus.WithError(err).Errorf("Error reading WebSocket message from watcher of van %d", vanID)
			}
			break
		}
		logrus.WithField("van_id", vanID).Warn("Watcher sent unexpected message. Ignoring.")
	}
}
