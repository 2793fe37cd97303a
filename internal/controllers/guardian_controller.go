package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"shule_tracker/internal/store"
)

// GetStudentDashboard returns everything a guardian's app shows for one
// student: custody status, the current verification secrets, and the
// assigned van's live position.
func GetStudentDashboard(c *gin.Context) {
	studentID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid student id"})
		return
	}

	st, err := db.StudentByID(uint(studentID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load student"})
		}
		return
	}

	resp := gin.H{
		"student_id":     st.ID,
		"name":           st.Name,
		"status":         st.Status,
		"on_board":       st.OnBoard,
		"guardian_code":  st.GuardianCode,
		"handover_token": st.HandoverToken,
	}

	if st.VanID != 0 {
		if van, err := db.VanByID(st.VanID); err == nil {
			resp["van_id"] = van.ID
			resp["van_position"] = gin.H{"lat": van.CurrentLat, "lng": van.CurrentLng}
			resp["van_speed"] = van.Speed
			resp["location_name"] = van.LocationName
			resp["van_status"] = van.OperationalStatus
		}
	}

	c.JSON(http.StatusOK, resp)
}
