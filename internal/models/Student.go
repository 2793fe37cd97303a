// internal/models/student.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// Student transit status values.
const (
	StatusWaiting    = "waiting"
	StatusPickedUp   = "picked_up"
	StatusDroppedOff = "dropped_off"
)

// Student carries the per-child custody state. Status, OnBoard and
// GuardianCode are mutated only by the verification gateway and the daily
// reset; OnBoard must always equal (Status == picked_up).
type Student struct {
	gorm.Model
	SchoolID uint   `json:"school_id" gorm:"index"`
	VanID    uint   `json:"van_id" gorm:"index"`
	Name     string `json:"name"`
	Grade    string `json:"grade"`

	GuardianName  string `json:"guardian_name"`
	GuardianPhone string `json:"guardian_phone"`

	Status  string `json:"status" gorm:"default:waiting"`
	OnBoard bool   `json:"on_board"`

	// Rotating 6-digit code for manual custody verification. Rotated on
	// every successful pickup and at the daily reset; never hashed.
	GuardianCode string `json:"guardian_code"`
	// Semi-static opaque token rendered as a scannable code. Assigned at
	// provisioning and never rotated by this service.
	HandoverToken string `json:"handover_token"`

	HomeLat *float64 `json:"home_lat"`
	HomeLng *float64 `json:"home_lng"`

	LastPickupTime  *time.Time `json:"last_pickup_time"`
	LastDropoffTime *time.Time `json:"last_dropoff_time"`
}
