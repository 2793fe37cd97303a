// Package credentials owns the two secrets that authorize a custody
// transfer: the rotating 6-digit guardian code and the semi-static
// handover token.
package credentials

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"

	"shule_tracker/internal/store"
)

// Store rotates and reads a student's custody secrets.
type Store struct {
	db store.Store
}

func New(db store.Store) *Store {
	return &Store{db: db}
}

// GenerateCode returns a uniform random 6-digit code in
// ["100000","999999"].
func GenerateCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		// crypto/rand only fails when the platform entropy source is
		// broken; there is no useful recovery.
		panic(fmt.Sprintf("credentials: entropy source unavailable: %v", err))
	}
	return fmt.Sprintf("%06d", n.Int64()+100000)
}

// MintHandoverToken returns a fresh opaque token for provisioning. Tokens
// are assigned once per student and never rotated by this service.
func MintHandoverToken() string {
	return "TKN-" + strings.ToUpper(uuid.NewString())
}

// RotateGuardianCode generates, persists and returns a new guardian code
// for the student. Called after every successful pickup and by the daily
// reset.
func (s *Store) RotateGuardianCode(studentID uint) (string, error) {
	st, err := s.db.StudentByID(studentID)
	if err != nil {
		return "", err
	}
	st.GuardianCode = GenerateCode()
	if err := s.db.SaveStudent(st); err != nil {
		return "", fmt.Errorf("persist rotated guardian code: %w", err)
	}
	return st.GuardianCode, nil
}

// HandoverToken returns the student's current token unchanged.
func (s *Store) HandoverToken(studentID uint) (string, error) {
	st, err := s.db.StudentByID(studentID)
	if err != nil {
		return "", err
	}
	return st.HandoverToken, nil
}
