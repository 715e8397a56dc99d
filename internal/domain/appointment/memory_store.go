package appointment

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MemoryStore keeps appointments in process memory. It backs
// DATABASE_URL=memory and the tests.
type MemoryStore struct {
	*notifier

	mu    sync.RWMutex
	items map[string]Appointment
	now   func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(log *zap.Logger) *MemoryStore {
	s := &MemoryStore{
		items: make(map[string]Appointment),
		now:   time.Now,
	}
	s.notifier = newNotifier(s.List, log)
	return s
}

func (s *MemoryStore) Create(ctx context.Context, a *Appointment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.insertLocked(a)
	s.mu.Unlock()

	s.changed(ctx)
	return nil
}

func (s *MemoryStore) CreateIfFree(ctx context.Context, a *Appointment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	if a.Status != StatusCancelled && s.heldLocked(a.StaffID, a.Date, a.Time, "") {
		s.mu.Unlock()
		return ErrSlotOccupied
	}
	s.insertLocked(a)
	s.mu.Unlock()

	s.changed(ctx)
	return nil
}

func (s *MemoryStore) insertLocked(a *Appointment) {
	now := s.now()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	s.items[a.ID] = a.clone()
}

// heldLocked reports another non-cancelled appointment in the slot.
func (s *MemoryStore) heldLocked(staffID, date, t, exceptID string) bool {
	for id, other := range s.items {
		if id == exceptID || other.Cancelled() {
			continue
		}
		if other.StaffID == staffID && other.Date == date && other.Time == t {
			return true
		}
	}
	return false
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := a.clone()
	return &out, nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, p Patch) (*Appointment, error) {
	return s.update(ctx, id, p, false)
}

func (s *MemoryStore) UpdateIfFree(ctx context.Context, id string, p Patch) (*Appointment, error) {
	return s.update(ctx, id, p, true)
}

func (s *MemoryStore) update(ctx context.Context, id string, p Patch, guarded bool) (*Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	current, ok := s.items[id]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNotFound
	}

	if err := p.check(current); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	next := current.clone()
	p.apply(&next, s.now())
	if guarded && !next.Cancelled() && s.heldLocked(next.StaffID, next.Date, next.Time, id) {
		s.mu.Unlock()
		return nil, ErrSlotOccupied
	}
	s.items[id] = next
	s.mu.Unlock()

	s.changed(ctx)
	out := next.clone()
	return &out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	if _, ok := s.items[id]; !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(s.items, id)
	s.mu.Unlock()

	s.changed(ctx)
	return nil
}

func (s *MemoryStore) FindBy(ctx context.Context, field Field, value string) ([]Appointment, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Appointment, 0)
	for _, a := range all {
		var v string
		switch field {
		case FieldCustomerID:
			v = a.CustomerID
		case FieldStaffID:
			v = a.StaffID
		case FieldDate:
			v = a.Date
		case FieldStatus:
			v = string(a.Status)
		default:
			return nil, ErrValidation
		}
		if v == value {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]Appointment, 0, len(s.items))
	for _, a := range s.items {
		out = append(out, a.clone())
	}
	s.mu.RUnlock()

	sortChronological(out)
	return out, nil
}
