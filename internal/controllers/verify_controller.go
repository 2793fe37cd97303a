package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"shule_tracker/internal/models"
	"shule_tracker/internal/tracking"
	"shule_tracker/internal/transit"
	"shule_tracker/internal/verification"
)

type verifyInput struct {
	Method       string   `json:"method" binding:"required"`
	Pin          string   `json:"pin"`
	ScannedToken string   `json:"scannedToken"`
	Action       string   `json:"action" binding:"required"`
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`
}

// VerifyStudent is the custody-transfer endpoint: an operator claims a
// pickup or dropoff and proves it with the guardian code or the scanned
// handover token.
func VerifyStudent(c *gin.Context) {
	studentID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid student id"})
		return
	}

	var input verifyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var claim verification.Claim
	switch input.Method {
	case models.MethodPIN:
		claim = verification.PinClaim{Pin: input.Pin}
	case models.MethodQR:
		claim = verification.QrClaim{Token: input.ScannedToken}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "method must be PIN or QR"})
		return
	}

	action := transit.Action(input.Action)
	if !action.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "action must be picked_up or dropped_off"})
		return
	}

	userID := c.MustGet("user_id").(uint)
	operator, err := db.OperatorByUserID(userID)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "no operator profile for this account"})
		return
	}

	res, err := gateway.Verify(verification.Request{
		StudentID:  uint(studentID),
		OperatorID: operator.ID,
		Action:     action,
		Claim:      claim,
		Lat:        input.Lat,
		Lng:        input.Lng,
	})
	switch {
	case errors.Is(err, verification.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
		return
	case errors.Is(err, verification.ErrInvalidCredential):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "wrong credential, retry with the current code"})
		return
	case err != nil:
		logrus.WithError(err).WithField("student_id", studentID).Error("Verification failed on the store side.")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "verification temporarily unavailable, try again later"})
		return
	}

	st := res.Student
	if action == transit.ActionPickedUp && monitor != nil {
		// New transit leg: re-arm the guardian's arrival alert.
		monitor.Rearm(st.ID)
	}
	if hub != nil {
		hub.Publish(tracking.Update{
			Kind:      "status",
			VanID:     st.VanID,
			StudentID: st.ID,
			Status:    st.Status,
			OnBoard:   st.OnBoard,
			Timestamp: time.Now().Format(time.RFC3339Nano),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"status":    st.Status,
		"on_board":  st.OnBoard,
		"next_code": res.RotatedCode, // empty for dropoffs
	})
}
