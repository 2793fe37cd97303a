// Package store owns persistence for the custody core. Services depend on
// the Store interface; the gorm-backed implementation lives in gorm.go and
// an in-memory one for tests in memory.go.
package store

import (
	"errors"
	"time"

	"shule_tracker/internal/models"
)

var (
	// ErrNotFound is returned when a referenced student, van or operator
	// does not exist.
	ErrNotFound = errors.New("record not found")
)

type Store interface {
	StudentByID(id uint) (*models.Student, error)
	StudentsByVan(vanID uint) ([]models.Student, error)
	AllStudents() ([]models.Student, error)
	SaveStudent(st *models.Student) error

	VanByID(id uint) (*models.Van, error)
	SaveVan(v *models.Van) error

	OperatorByUserID(userID uint) (*models.Operator, error)

	AppendEvent(ev *models.VerificationEvent) error
	EventsByStudent(studentID uint, limit int) ([]models.VerificationEvent, error)

	LastBreadcrumb(vanID uint) (*models.Breadcrumb, error)
	AppendBreadcrumb(bc *models.Breadcrumb) error
	BreadcrumbsByVan(vanID uint, since time.Time) ([]models.Breadcrumb, error)

	// InTx runs fn against a transactional view of the store; fn returning
	// an error rolls every write back.
	InTx(fn func(Store) error) error
}
