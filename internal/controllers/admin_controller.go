package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"shule_tracker/internal/config"
	"shule_tracker/internal/models"
)

// RunDailyReset is the manual "run now" trigger for the scheduled fleet
// reset.
func RunDailyReset(c *gin.Context) {
	count, err := resetJob.RunNow()
	if err != nil {
		logrus.WithError(err).WithField("students_reset", count).Error("Manual daily reset failed.")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "reset failed, see logs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "students_reset": count})
}

// ListStudentEvents returns the audit ledger for one student, newest
// first.
func ListStudentEvents(c *gin.Context) {
	studentID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid student id"})
		return
	}

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	events, err := audit.ByStudent(uint(studentID), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load events"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": events})
}

func ListVans(c *gin.Context) {
	var vans []models.Van
	if err := config.DB.Find(&vans).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing vans: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": vans})
}

func ListStudents(c *gin.Context) {
	var students []models.Student
	if err := config.DB.Find(&students).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing students: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": students})
}

func ListSchools(c *gin.Context) {
	var schools []models.School
	if err := config.DB.Find(&schools).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing schools: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": schools})
}
