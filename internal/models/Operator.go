// internal/models/operator.go
package models

import (
	"gorm.io/gorm"
)

// Operator is the staff member driving or escorting a van. Credentials
// (email, password, role) live on the linked User record, not here.
type Operator struct {
	gorm.Model
	UserID        uint   `json:"user_id" gorm:"unique"`
	VanID         uint   `json:"van_id" gorm:"index"`
	User          User   `gorm:"foreignKey:UserID"`
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	LicenseNumber string `json:"license_number"`
	SchoolID      uint   `json:"school_id"`
	School        School `gorm:"foreignKey:SchoolID"`
}
