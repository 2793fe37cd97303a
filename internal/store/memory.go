package store

import (
	"sync"
	"time"

	"shule_tracker/internal/models"
)

// Memory is an in-process Store used by the test suites. Writes are
// guarded by one mutex; InTx is not rolled back on error, which matches
// how the fakes in the tests are exercised (no mid-batch failures are
// simulated through it).
type Memory struct {
	mu        sync.Mutex
	nextID    uint
	Students  map[uint]*models.Student
	Vans      map[uint]*models.Van
	Operators map[uint]*models.Operator
	Events    []models.VerificationEvent
	Crumbs    []models.Breadcrumb

	// Optional failure hooks.
	SaveStudentErr error
	AppendCrumbErr error
}

func NewMemory() *Memory {
	return &Memory{
		nextID:    1,
		Students:  make(map[uint]*models.Student),
		Vans:      make(map[uint]*models.Van),
		Operators: make(map[uint]*models.Operator),
	}
}

func (m *Memory) id() uint {
	id := m.nextID
	m.nextID++
	return id
}

// PutStudent inserts or replaces a student, assigning an ID when missing.
func (m *Memory) PutStudent(st *models.Student) *models.Student {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st.ID == 0 {
		st.ID = m.id()
	}
	cp := *st
	m.Students[st.ID] = &cp
	return m.Students[st.ID]
}

func (m *Memory) PutVan(v *models.Van) *models.Van {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v.ID == 0 {
		v.ID = m.id()
	}
	cp := *v
	m.Vans[v.ID] = &cp
	return m.Vans[v.ID]
}

func (m *Memory) StudentByID(id uint) (*models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.Students[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *st
	return &cp, nil
}

func (m *Memory) StudentsByVan(vanID uint) ([]models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Student
	for _, st := range m.Students {
		if st.VanID == vanID {
			out = append(out, *st)
		}
	}
	return out, nil
}

func (m *Memory) AllStudents() ([]models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Student
	for _, st := range m.Students {
		out = append(out, *st)
	}
	return out, nil
}

func (m *Memory) SaveStudent(st *models.Student) error {
	if m.SaveStudentErr != nil {
		return m.SaveStudentErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if st.ID == 0 {
		st.ID = m.id()
	}
	cp := *st
	m.Students[st.ID] = &cp
	return nil
}

func (m *Memory) VanByID(id uint) (*models.Van, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.Vans[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (m *Memory) SaveVan(v *models.Van) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v.ID == 0 {
		v.ID = m.id()
	}
	cp := *v
	m.Vans[v.ID] = &cp
	return nil
}

func (m *Memory) OperatorByUserID(userID uint) (*models.Operator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, op := range m.Operators {
		if op.UserID == userID {
			cp := *op
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) AppendEvent(ev *models.VerificationEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev.ID = m.id()
	m.Events = append(m.Events, *ev)
	return nil
}

func (m *Memory) EventsByStudent(studentID uint, limit int) ([]models.VerificationEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.VerificationEvent
	for i := len(m.Events) - 1; i >= 0; i-- {
		if m.Events[i].StudentID == studentID {
			out = append(out, m.Events[i])
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *Memory) LastBreadcrumb(vanID uint) (*models.Breadcrumb, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.Crumbs) - 1; i >= 0; i-- {
		if m.Crumbs[i].VanID == vanID {
			cp := m.Crumbs[i]
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) AppendBreadcrumb(bc *models.Breadcrumb) error {
	if m.AppendCrumbErr != nil {
		return m.AppendCrumbErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	bc.ID = m.id()
	m.Crumbs = append(m.Crumbs, *bc)
	return nil
}

func (m *Memory) BreadcrumbsByVan(vanID uint, since time.Time) ([]models.Breadcrumb, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Breadcrumb
	for _, bc := range m.Crumbs {
		if bc.VanID == vanID && (since.IsZero() || !bc.Timestamp.Before(since)) {
			out = append(out, bc)
		}
	}
	return out, nil
}

func (m *Memory) InTx(fn func(Store) error) error {
	return fn(m)
}
