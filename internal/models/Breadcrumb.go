package models

import (
	"time"

	"gorm.io/gorm"
)

// Breadcrumb is a selectively persisted position sample used to
// reconstruct a van's traveled path. The live position lives on the Van
// row; breadcrumbs are the only append-only history.
type Breadcrumb struct {
	gorm.Model
	VanID     uint      `json:"van_id" gorm:"index"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Speed     float64   `json:"speed"`
	Heading   float64   `json:"heading"`
	Timestamp time.Time `json:"timestamp"`
}
