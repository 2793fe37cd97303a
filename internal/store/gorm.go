package store

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"shule_tracker/internal/models"
)

// DB is the gorm/Postgres backed Store.
type DB struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *DB {
	return &DB{db: db}
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *DB) StudentByID(id uint) (*models.Student, error) {
	var st models.Student
	if err := s.db.First(&st, id).Error; err != nil {
		return nil, translate(err)
	}
	return &st, nil
}

func (s *DB) StudentsByVan(vanID uint) ([]models.Student, error) {
	var students []models.Student
	if err := s.db.Where("van_id = ?", vanID).Find(&students).Error; err != nil {
		return nil, err
	}
	return students, nil
}

func (s *DB) AllStudents() ([]models.Student, error) {
	var students []models.Student
	if err := s.db.Find(&students).Error; err != nil {
		return nil, err
	}
	return students, nil
}

func (s *DB) SaveStudent(st *models.Student) error {
	return s.db.Save(st).Error
}

func (s *DB) VanByID(id uint) (*models.Van, error) {
	var v models.Van
	if err := s.db.First(&v, id).Error; err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

func (s *DB) SaveVan(v *models.Van) error {
	return s.db.Save(v).Error
}

func (s *DB) OperatorByUserID(userID uint) (*models.Operator, error) {
	var op models.Operator
	if err := s.db.Where("user_id = ?", userID).First(&op).Error; err != nil {
		return nil, translate(err)
	}
	return &op, nil
}

func (s *DB) AppendEvent(ev *models.VerificationEvent) error {
	return s.db.Create(ev).Error
}

func (s *DB) EventsByStudent(studentID uint, limit int) ([]models.VerificationEvent, error) {
	var events []models.VerificationEvent
	q := s.db.Where("student_id = ?", studentID).Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (s *DB) LastBreadcrumb(vanID uint) (*models.Breadcrumb, error) {
	var bc models.Breadcrumb
	if err := s.db.Where("van_id = ?", vanID).Order("created_at desc").First(&bc).Error; err != nil {
		return nil, translate(err)
	}
	return &bc, nil
}

func (s *DB) AppendBreadcrumb(bc *models.Breadcrumb) error {
	return s.db.Create(bc).Error
}

func (s *DB) BreadcrumbsByVan(vanID uint, since time.Time) ([]models.Breadcrumb, error) {
	var crumbs []models.Breadcrumb
	q := s.db.Where("van_id = ?", vanID)
	if !since.IsZero() {
		q = q.Where("timestamp >= ?", since)
	}
	if err := q.Order("timestamp asc").Find(&crumbs).Error; err != nil {
		return nil, err
	}
	return crumbs, nil
}

func (s *DB) InTx(fn func(Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&DB{db: tx})
	})
}
