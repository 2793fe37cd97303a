// internal/models/van.go
package models

import (
	"gorm.io/gorm"
)

// Van operational status values.
const (
	VanParked = "parked"
	VanActive = "active"
)

type Van struct {
	gorm.Model
	PlateNumber       string `json:"plate_number"`
	SchoolID          uint   `json:"school_id"`
	OperatorID        uint   `json:"operator_id"`
	OperationalStatus string `json:"operational_status" gorm:"default:parked"`

	// Authoritative live position, overwritten on every sample. A route
	// finish clears all five fields.
	CurrentLat   float64 `json:"current_lat"`
	CurrentLng   float64 `json:"current_lng"`
	Speed        float64 `json:"speed"`   // m/s as reported by the device
	Heading      float64 `json:"heading"` // degrees
	LocationName string  `json:"location_name"`
}
