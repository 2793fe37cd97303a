package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/twpayne/go-geom"
	gjson "github.com/twpayne/go-geom/encoding/geojson"

	"shule_tracker/internal/models"
	"shule_tracker/internal/store"
	"shule_tracker/internal/tracking"
	"shule_tracker/internal/transit"
)

// operatorVan resolves the caller's operator profile and checks it is
// assigned to the requested van.
func operatorVan(c *gin.Context) (uint, bool) {
	vanID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid van id"})
		return 0, false
	}
	userID := c.MustGet("user_id").(uint)
	operator, err := db.OperatorByUserID(userID)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "no operator profile for this account"})
		return 0, false
	}
	if operator.VanID != uint(vanID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "van is not assigned to this operator"})
		return 0, false
	}
	return uint(vanID), true
}

// FinishRoute ends the operator's shift for one van: the tracking
// session stops, the van's position fields are cleared, and every
// assigned student goes back to waiting. Guardian codes are NOT rotated
// here; only pickups and the daily reset rotate them.
func FinishRoute(c *gin.Context) {
	vanID, ok := operatorVan(c)
	if !ok {
		return
	}

	broadcaster.StopSession(vanID)

	var students []models.Student
	err := db.InTx(func(tx store.Store) error {
		van, err := tx.VanByID(vanID)
		if err != nil {
			return err
		}
		van.OperationalStatus = models.VanParked
		van.CurrentLat = 0
		van.CurrentLng = 0
		van.Speed = 0
		van.Heading = 0
		van.LocationName = ""
		if err := tx.SaveVan(van); err != nil {
			return err
		}

		students, err = tx.StudentsByVan(vanID)
		if err != nil {
			return err
		}
		for i := range students {
			transit.Reset(&students[i])
			if err := tx.SaveStudent(&students[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "van not found"})
			return
		}
		logrus.WithError(err).WithField("van_id", vanID).Error("Route finish failed.")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "could not finish route, try again"})
		return
	}

	for i := range students {
		hub.Publish(tracking.Update{
			Kind:      "status",
			VanID:     vanID,
			StudentID: students[i].ID,
			Status:    students[i].Status,
			OnBoard:   students[i].OnBoard,
			Timestamp: time.Now().Format(time.RFC3339Nano),
		})
	}

	logrus.WithFields(logrus.Fields{
		"van_id":         vanID,
		"students_reset": len(students),
	}).Info("Route finished.")
	c.JSON(http.StatusOK, gin.H{"success": true, "students_reset": len(students)})
}

// GetTrail reconstructs the van's traveled path from its breadcrumbs as
// a GeoJSON LineString.
func GetTrail(c *gin.Context) {
	vanID, ok := operatorVan(c)
	if !ok {
		return
	}

	var since time.Time
	if raw := c.Query("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be RFC3339"})
			return
		}
		since = t
	}

	crumbs, err := db.BreadcrumbsByVan(vanID, since)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load trail"})
		return
	}

	coords := make([]geom.Coord, 0, len(crumbs))
	for _, bc := range crumbs {
		coords = append(coords, geom.Coord{bc.Longitude, bc.Latitude})
	}

	var trail json.RawMessage
	if len(coords) >= 2 {
		ls := geom.NewLineString(geom.XY)
		if _, err := ls.SetCoords(coords); err == nil {
			if b, err := gjson.Marshal(ls); err == nil {
				trail = b
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"van_id": vanID,
		"points": len(crumbs),
		"trail":  trail,
	})
}
