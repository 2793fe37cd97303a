// internal/models/verification_event.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// Verification methods and outcomes.
const (
	MethodPIN = "PIN"
	MethodQR  = "QR"

	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// VerificationEvent is one row of the custody audit ledger. Rows are
// append-only; nothing in this service updates or deletes them.
type VerificationEvent struct {
	gorm.Model
	StudentID  uint   `json:"student_id" gorm:"index"`
	OperatorID uint   `json:"operator_id" gorm:"index"`
	VanID      uint   `json:"van_id" gorm:"index"`
	Method     string `json:"method"`      // PIN | QR
	ActionType string `json:"action_type"` // picked_up | dropped_off
	Outcome    string `json:"outcome"`     // success | failure
	Reason     string `json:"reason,omitempty"`

	Lat *float64 `json:"lat,omitempty"`
	Lng *float64 `json:"lng,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}
