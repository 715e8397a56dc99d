package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GormStore persists appointments through gorm (postgres or sqlite).
type GormStore struct {
	*notifier

	db  *gorm.DB
	now func() time.Time
}

var _ Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB, log *zap.Logger) *GormStore {
	s := &GormStore{db: db, now: time.Now}
	s.notifier = newNotifier(s.List, log)
	return s
}

type appointmentRecord struct {
	ID           string `gorm:"column:id;primaryKey"`
	CustomerID   string `gorm:"column:customer_id"`
	CustomerName string `gorm:"column:customer_name"`
	StaffID      string `gorm:"column:staff_id"`
	StaffName    string `gorm:"column:staff_name"`
	SlotDate     string `gorm:"column:slot_date"`
	SlotTime     string `gorm:"column:slot_time"`
	ServiceID    string `gorm:"column:service_id"`
	ServiceName  string `gorm:"column:service_name"`
	Status       string `gorm:"column:status"`
	Notes        string `gorm:"column:notes"`

	ChangeProposedBy *string    `gorm:"column:change_proposed_by"`
	ChangeNewDate    *string    `gorm:"column:change_new_date"`
	ChangeNewTime    *string    `gorm:"column:change_new_time"`
	ChangeStatus     *string    `gorm:"column:change_status"`
	ChangeCreatedAt  *time.Time `gorm:"column:change_created_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime:false"`
}

func (appointmentRecord) TableName() string { return "appointments" }

var fieldColumns = map[Field]string{
	FieldCustomerID: "customer_id",
	FieldStaffID:    "staff_id",
	FieldDate:       "slot_date",
	FieldStatus:     "status",
}

func toRecord(a Appointment) appointmentRecord {
	r := appointmentRecord{
		ID:           a.ID,
		CustomerID:   a.CustomerID,
		CustomerName: a.CustomerName,
		StaffID:      a.StaffID,
		StaffName:    a.StaffName,
		SlotDate:     a.Date,
		SlotTime:     a.Time,
		ServiceID:    a.ServiceID,
		ServiceName:  a.ServiceName,
		Status:       string(a.Status),
		Notes:        a.Notes,
		CreatedAt:    a.CreatedAt.UTC(),
		UpdatedAt:    a.UpdatedAt.UTC(),
	}
	if pc := a.PendingChange; pc != nil {
		by, date, t, status := string(pc.ProposedBy), pc.NewDate, pc.NewTime, string(pc.Status)
		at := pc.CreatedAt.UTC()
		r.ChangeProposedBy = &by
		r.ChangeNewDate = &date
		r.ChangeNewTime = &t
		r.ChangeStatus = &status
		r.ChangeCreatedAt = &at
	}
	return r
}

func (r appointmentRecord) toDomain() Appointment {
	a := Appointment{
		ID:           r.ID,
		CustomerID:   r.CustomerID,
		CustomerName: r.CustomerName,
		StaffID:      r.StaffID,
		StaffName:    r.StaffName,
		Date:         r.SlotDate,
		Time:         r.SlotTime,
		ServiceID:    r.ServiceID,
		ServiceName:  r.ServiceName,
		Status:       Status(r.Status),
		Notes:        r.Notes,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
	if r.ChangeProposedBy != nil {
		pc := &PendingChange{ProposedBy: Proposer(*r.ChangeProposedBy)}
		if r.ChangeNewDate != nil {
			pc.NewDate = *r.ChangeNewDate
		}
		if r.ChangeNewTime != nil {
			pc.NewTime = *r.ChangeNewTime
		}
		if r.ChangeStatus != nil {
			pc.Status = ChangeStatus(*r.ChangeStatus)
		}
		if r.ChangeCreatedAt != nil {
			pc.CreatedAt = r.ChangeCreatedAt.UTC()
		}
		a.PendingChange = pc
	}
	return a
}

func (s *GormStore) Create(ctx context.Context, a *Appointment) error {
	s.stamp(a)
	rec := toRecord(*a)
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("create appointment: %w", err)
	}
	s.changed(ctx)
	return nil
}

func (s *GormStore) CreateIfFree(ctx context.Context, a *Appointment) error {
	s.stamp(a)
	rec := toRecord(*a)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if a.Status != StatusCancelled {
			held, err := slotHeld(tx, a.StaffID, a.Date, a.Time, "")
			if err != nil {
				return err
			}
			if held {
				return ErrSlotOccupied
			}
		}
		return tx.Create(&rec).Error
	})
	if err != nil {
		if errors.Is(err, ErrSlotOccupied) {
			return err
		}
		return fmt.Errorf("create appointment: %w", err)
	}

	s.changed(ctx)
	return nil
}

func (s *GormStore) stamp(a *Appointment) {
	now := s.now()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
}

// slotHeld must run inside the transaction that then writes. On postgres an
// advisory lock keyed by the slot serializes concurrent writers; sqlite runs
// on a single connection.
func slotHeld(tx *gorm.DB, staffID, date, t, exceptID string) (bool, error) {
	if tx.Dialector.Name() == "postgres" {
		key := staffID + "|" + date + "|" + t
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error; err != nil {
			return false, err
		}
	}

	q := tx.Model(&appointmentRecord{}).
		Where("staff_id = ? AND slot_date = ? AND slot_time = ? AND status <> ?", staffID, date, t, string(StatusCancelled))
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}

	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *GormStore) Get(ctx context.Context, id string) (*Appointment, error) {
	var rec appointmentRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	a := rec.toDomain()
	return &a, nil
}

func (s *GormStore) Update(ctx context.Context, id string, p Patch) (*Appointment, error) {
	return s.update(ctx, id, p, false)
}

func (s *GormStore) UpdateIfFree(ctx context.Context, id string, p Patch) (*Appointment, error) {
	return s.update(ctx, id, p, true)
}

func (s *GormStore) update(ctx context.Context, id string, p Patch, guarded bool) (*Appointment, error) {
	var out Appointment

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec appointmentRecord
		if err := tx.Where("id = ?", id).First(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		next := rec.toDomain()
		if err := p.check(next); err != nil {
			return err
		}
		p.apply(&next, s.now())

		if guarded && !next.Cancelled() {
			held, err := slotHeld(tx, next.StaffID, next.Date, next.Time, id)
			if err != nil {
				return err
			}
			if held {
				return ErrSlotOccupied
			}
		}

		updated := toRecord(next)
		if err := tx.Save(&updated).Error; err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrSlotOccupied) ||
			errors.Is(err, ErrNoPendingChange) || errors.Is(err, ErrProposalMismatch) {
			return nil, err
		}
		return nil, fmt.Errorf("update appointment: %w", err)
	}

	s.changed(ctx)
	return &out, nil
}

func (s *GormStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&appointmentRecord{})
	if res.Error != nil {
		return fmt.Errorf("delete appointment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.changed(ctx)
	return nil
}

func (s *GormStore) FindBy(ctx context.Context, field Field, value string) ([]Appointment, error) {
	col, ok := fieldColumns[field]
	if !ok {
		return nil, ErrValidation
	}

	var recs []appointmentRecord
	err := s.db.WithContext(ctx).
		Where(col+" = ?", value).
		Order("slot_date, slot_time, created_at").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("find appointments: %w", err)
	}
	return toDomainSlice(recs), nil
}

func (s *GormStore) List(ctx context.Context) ([]Appointment, error) {
	var recs []appointmentRecord
	err := s.db.WithContext(ctx).
		Order("slot_date, slot_time, created_at").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return toDomainSlice(recs), nil
}

func toDomainSlice(recs []appointmentRecord) []Appointment {
	out := make([]Appointment, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.toDomain())
	}
	return out
}
