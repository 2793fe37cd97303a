package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"shule_tracker/internal/config"
	"shule_tracker/internal/credentials"
	"shule_tracker/internal/models"
)

// callerSchool resolves the authenticated school-role user to their
// School record.
func callerSchool(c *gin.Context) (*models.School, bool) {
	userID := c.MustGet("user_id").(uint)
	var school models.School
	if err := config.DB.Where("user_id = ?", userID).First(&school).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusForbidden, gin.H{"error": "no school profile for this account"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load school profile"})
		}
		return nil, false
	}
	return &school, true
}

// CreateVan registers a van under the caller's school.
func CreateVan(c *gin.Context) {
	school, ok := callerSchool(c)
	if !ok {
		return
	}

	var input struct {
		PlateNumber string `json:"plate_number" binding:"required"`
		OperatorID  uint   `json:"operator_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	van := models.Van{
		PlateNumber:       input.PlateNumber,
		SchoolID:          school.ID,
		OperatorID:        input.OperatorID,
		OperationalStatus: models.VanParked,
	}
	if err := config.DB.Create(&van).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create van: " + err.Error()})
		return
	}
	if input.OperatorID != 0 {
		config.DB.Model(&models.Operator{}).Where("id = ?", input.OperatorID).Update("van_id", van.ID)
	}

	c.JSON(http.StatusCreated, gin.H{"data": van})
}

// CreateStudent enrolls a student, activates their first guardian code
// and mints the handover token.
func CreateStudent(c *gin.Context) {
	school, ok := callerSchool(c)
	if !ok {
		return
	}

	var input struct {
		Name          string   `json:"name" binding:"required"`
		Grade         string   `json:"grade"`
		GuardianName  string   `json:"guardian_name"`
		GuardianPhone string   `json:"guardian_phone"`
		VanID         uint     `json:"van_id"`
		HomeLat       *float64 `json:"home_lat"`
		HomeLng       *float64 `json:"home_lng"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	student := models.Student{
		SchoolID:      school.ID,
		VanID:         input.VanID,
		Name:          input.Name,
		Grade:         input.Grade,
		GuardianName:  input.GuardianName,
		GuardianPhone: input.GuardianPhone,
		Status:        models.StatusWaiting,
		GuardianCode:  credentials.GenerateCode(),
		HandoverToken: credentials.MintHandoverToken(),
		HomeLat:       input.HomeLat,
		HomeLng:       input.HomeLng,
	}
	if err := config.DB.Create(&student).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create student: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": student})
}

// AssignStudentVan moves a student onto a different van.
func AssignStudentVan(c *gin.Context) {
	school, ok := callerSchool(c)
	if !ok {
		return
	}

	studentID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid student id"})
		return
	}
	var input struct {
		VanID uint `json:"van_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := config.DB.Model(&models.Student{}).
		Where("id = ? AND school_id = ?", studentID, school.ID).
		Update("van_id", input.VanID)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not assign van"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListSchoolStudents lists the caller's roster.
func ListSchoolStudents(c *gin.Context) {
	school, ok := callerSchool(c)
	if !ok {
		return
	}

	var students []models.Student
	if err := config.DB.Where("school_id = ?", school.ID).Find(&students).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list students"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": students})
}
