// internal/models/school.go
package models

import (
	"gorm.io/gorm"
)

// School is the tenant that owns students and the vans that serve them.
type School struct {
	gorm.Model
	UserID uint `gorm:"uniqueIndex" json:"user_id"`

	Name    string `json:"name" binding:"required"`
	Email   string `gorm:"unique;not null" json:"email" binding:"required,email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`

	Vans     []Van     `gorm:"foreignKey:SchoolID" json:"vans,omitempty"`
	Students []Student `gorm:"foreignKey:SchoolID" json:"students,omitempty"`
}
