package appointment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"salonbooking/internal/domain/availability"
	"salonbooking/internal/domain/catalog"
	"salonbooking/internal/domain/events"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

// GuardMode selects how writes that place an appointment into a slot
// treat an already occupied slot.
type GuardMode string

const (
	// GuardTransactional rejects the write atomically in the store.
	GuardTransactional GuardMode = "transactional"
	// GuardOptimistic writes unconditionally; the last write wins.
	GuardOptimistic GuardMode = "optimistic"
)

var tracer = otel.Tracer("salonbooking/appointment")

type Service struct {
	store   Store
	dir     Directory
	events  events.Publisher
	guard   GuardMode
	timeout time.Duration
	now     func() time.Time
	log     *zap.Logger
}

func NewService(
	store Store,
	dir Directory,
	publisher events.Publisher,
	guard GuardMode,
	timeout time.Duration,
	log *zap.Logger,
) *Service {
	if publisher == nil {
		publisher = events.Noop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Service{
		store:   store,
		dir:     dir,
		events:  publisher,
		guard:   guard,
		timeout: timeout,
		now:     time.Now,
		log:     log,
	}
}

// Store exposes the injected store to read-side consumers.
func (s *Service) Store() Store { return s.store }

// Guarded reports whether slot placement goes through the conditional writes.
func (s *Service) Guarded() bool { return s.guard != GuardOptimistic }

// CreateSelfService books a slot for a signed-in customer as pending.
func (s *Service) CreateSelfService(ctx context.Context, req SelfServiceRequest) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointment.CreateSelfService")
	defer span.End()

	if strings.TrimSpace(req.CustomerID) == "" || strings.TrimSpace(req.StaffID) == "" || strings.TrimSpace(req.ServiceID) == "" {
		return nil, fmt.Errorf("%w: customer, staff and service are required", ErrValidation)
	}
	date, t, err := normalizeSlot(req.Date, req.Time)
	if err != nil {
		return nil, err
	}
	item, ok := catalog.Find(req.ServiceID)
	if !ok {
		return nil, ErrServiceNotFound
	}
	staff, err := withTimeout(ctx, s.timeout, func(ctx context.Context) (Party, error) {
		return s.dir.FindStaff(ctx, req.StaffID)
	})
	if err != nil {
		return nil, err
	}

	a := &Appointment{
		CustomerID:   req.CustomerID,
		CustomerName: strings.TrimSpace(req.CustomerName),
		StaffID:      staff.ID,
		StaffName:    staff.Name,
		Date:         date,
		Time:         t,
		ServiceID:    item.ID,
		ServiceName:  item.Name,
		Status:       StatusPending,
		Notes:        strings.TrimSpace(req.Notes),
	}
	if err := s.create(ctx, a); err != nil {
		return nil, err
	}

	appointmentsCreated.WithLabelValues("self_service").Inc()
	s.log.Info("appointment booked",
		zap.String("appointment_id", a.ID),
		zap.String("staff_id", a.StaffID),
		zap.String("date", a.Date),
		zap.String("time", a.Time),
	)
	s.publish(ctx, events.AppointmentCreated, a)
	return a, nil
}

// CreateDirect is the admin entry path: the customer is looked up or
// created by phone and the appointment starts confirmed.
func (s *Service) CreateDirect(ctx context.Context, req DirectRequest) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointment.CreateDirect")
	defer span.End()

	if strings.TrimSpace(req.CustomerName) == "" || strings.TrimSpace(req.CustomerPhone) == "" {
		return nil, fmt.Errorf("%w: customer name and phone are required", ErrValidation)
	}
	date, t, err := normalizeSlot(req.Date, req.Time)
	if err != nil {
		return nil, err
	}
	item, ok := catalog.Find(req.ServiceID)
	if !ok {
		return nil, ErrServiceNotFound
	}
	staff, err := withTimeout(ctx, s.timeout, func(ctx context.Context) (Party, error) {
		return s.dir.FindStaff(ctx, req.StaffID)
	})
	if err != nil {
		return nil, err
	}
	customer, err := withTimeout(ctx, s.timeout, func(ctx context.Context) (Party, error) {
		return s.dir.EnsureCustomer(ctx, strings.TrimSpace(req.CustomerName), strings.TrimSpace(req.CustomerPhone))
	})
	if err != nil {
		return nil, err
	}

	a := &Appointment{
		CustomerID:   customer.ID,
		CustomerName: customer.Name,
		StaffID:      staff.ID,
		StaffName:    staff.Name,
		Date:         date,
		Time:         t,
		ServiceID:    item.ID,
		ServiceName:  item.Name,
		Status:       StatusConfirmed,
		Notes:        strings.TrimSpace(req.Notes),
	}
	if err := s.create(ctx, a); err != nil {
		return nil, err
	}

	appointmentsCreated.WithLabelValues("direct").Inc()
	s.log.Info("appointment entered by admin",
		zap.String("appointment_id", a.ID),
		zap.String("customer_id", a.CustomerID),
	)
	s.publish(ctx, events.AppointmentCreated, a)
	return a, nil
}

func (s *Service) create(ctx context.Context, a *Appointment) error {
	_, err := withTimeout(ctx, s.timeout, func(ctx context.Context) (struct{}, error) {
		if s.Guarded() {
			return struct{}{}, s.store.CreateIfFree(ctx, a)
		}
		return struct{}{}, s.store.Create(ctx, a)
	})
	if errors.Is(err, ErrSlotOccupied) {
		slotConflicts.Inc()
	}
	return err
}

// UpdateStatus sets any valid status; transitions are not cross-checked.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointment.UpdateStatus")
	defer span.End()

	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	a, err := s.update(ctx, id, Patch{Status: &status}, false)
	if err != nil {
		return nil, err
	}
	s.log.Info("appointment status changed", zap.String("appointment_id", id), zap.String("status", string(status)))
	s.publish(ctx, events.AppointmentStatusChanged, a)
	return a, nil
}

func (s *Service) Cancel(ctx context.Context, id string) (*Appointment, error) {
	return s.UpdateStatus(ctx, id, StatusCancelled)
}

// Delete removes the record for good. Cancel is the soft path.
func (s *Service) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "appointment.Delete")
	defer span.End()

	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	_, err = withTimeout(ctx, s.timeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.store.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.log.Info("appointment deleted", zap.String("appointment_id", id), zap.String("customer_id", current.CustomerID))
	s.publish(ctx, events.AppointmentDeleted, current)
	return nil
}

// RequestChange opens a customer change request, replacing any earlier
// negotiation on the appointment.
func (s *Service) RequestChange(ctx context.Context, id, newDate, newTime string) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointment.RequestChange")
	defer span.End()

	date, t, err := normalizeSlot(newDate, newTime)
	if err != nil {
		return nil, err
	}
	if today := availability.Today(s.now()); date < today {
		return nil, fmt.Errorf("%w: %s is before today (%s)", ErrValidation, date, today)
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Cancelled() {
		return nil, ErrAppointmentCancelled
	}

	a, err := s.update(ctx, id, Patch{PendingChange: &PendingChange{
		ProposedBy: ProposedByCustomer,
		NewDate:    date,
		NewTime:    t,
		Status:     ChangePending,
		CreatedAt:  s.now(),
	}}, false)
	if err != nil {
		return nil, err
	}
	negotiationActions.WithLabelValues("request").Inc()
	s.publish(ctx, events.ChangeRequested, a)
	return a, nil
}

// WithdrawChangeRequest drops the customer's change request. Without one
// it returns the appointment untouched.
func (s *Service) WithdrawChangeRequest(ctx context.Context, id string) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointment.WithdrawChangeRequest")
	defer span.End()

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.ChangeRequest() == nil {
		return current, nil
	}

	a, err := s.update(ctx, id, Patch{ClearPendingChange: true}, false)
	if err != nil {
		return nil, err
	}
	negotiationActions.WithLabelValues("withdraw").Inc()
	s.publish(ctx, events.ChangeRequestWithdrawn, a)
	return a, nil
}

// ApproveChangeRequest moves the appointment to the requested slot and
// confirms it. newDate and newTime must repeat the pending request.
func (s *Service) ApproveChangeRequest(ctx context.Context, id, newDate, newTime string) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointment.ApproveChangeRequest")
	defer span.End()

	if strings.TrimSpace(newDate) == "" || strings.TrimSpace(newTime) == "" {
		return nil, fmt.Errorf("%w: new date and time are required", ErrValidation)
	}
	date, t, err := normalizeSlot(newDate, newTime)
	if err != nil {
		return nil, err
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	cr := current.ChangeRequest()
	if !cr.IsPendingFrom(ProposedByCustomer) {
		return nil, ErrNoPendingChange
	}
	if cr.NewDate != date || cr.NewTime != t {
		return nil, ErrProposalMismatch
	}

	a, err := s.reschedule(ctx, id, date, t, &Expectation{By: ProposedByCustomer, Date: date, Time: t})
	if err != nil {
		return nil, err
	}
	negotiationActions.WithLabelValues("approve").Inc()
	s.publish(ctx, events.AppointmentRescheduled, a)
	return a, nil
}

// RejectChangeRequest marks the request rejected and keeps it on record.
func (s *Service) RejectChangeRequest(ctx context.Context, id string) (*Appointment, error) {
	return s.rejectPending(ctx, id, ProposedByCustomer, "reject_request", events.ChangeRequestRejected)
}

// ProposeAdminChange offers the customer a new slot, replacing any
// earlier negotiation on the appointment.
func (s *Service) ProposeAdminChange(ctx context.Context, id, newDate, newTime string) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointment.ProposeAdminChange")
	defer span.End()

	date, t, err := normalizeSlot(newDate, newTime)
	if err != nil {
		return nil, err
	}
	a, err := s.update(ctx, id, Patch{PendingChange: &PendingChange{
		ProposedBy: ProposedByAdmin,
		NewDate:    date,
		NewTime:    t,
		Status:     ChangePending,
		CreatedAt:  s.now(),
	}}, false)
	if err != nil {
		return nil, err
	}
	negotiationActions.WithLabelValues("propose").Inc()
	s.publish(ctx, events.AdminProposalMade, a)
	return a, nil
}

// AcceptAdminProposal moves the appointment to the proposed slot and
// confirms it.
func (s *Service) AcceptAdminProposal(ctx context.Context, id string) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointment.AcceptAdminProposal")
	defer span.End()

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ap := current.AdminProposal()
	if !ap.IsPendingFrom(ProposedByAdmin) {
		return nil, ErrNoPendingChange
	}

	a, err := s.reschedule(ctx, id, ap.NewDate, ap.NewTime, &Expectation{By: ProposedByAdmin, Date: ap.NewDate, Time: ap.NewTime})
	if err != nil {
		return nil, err
	}
	negotiationActions.WithLabelValues("accept").Inc()
	s.publish(ctx, events.AppointmentRescheduled, a)
	return a, nil
}

func (s *Service) RejectAdminProposal(ctx context.Context, id string) (*Appointment, error) {
	return s.rejectPending(ctx, id, ProposedByAdmin, "reject_proposal", events.AdminProposalRejected)
}

func (s *Service) rejectPending(ctx context.Context, id string, by Proposer, action, eventType string) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointment.Reject")
	defer span.End()

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.PendingChange.IsPendingFrom(by) {
		return nil, ErrNoPendingChange
	}

	pc := current.PendingChange
	a, err := s.update(ctx, id, Patch{
		RejectPendingChange: true,
		Expect:              &Expectation{By: by, Date: pc.NewDate, Time: pc.NewTime},
	}, false)
	if err != nil {
		return nil, err
	}
	negotiationActions.WithLabelValues(action).Inc()
	s.publish(ctx, eventType, a)
	return a, nil
}

// reschedule only applies while expect still holds in the store.
func (s *Service) reschedule(ctx context.Context, id, date, t string, expect *Expectation) (*Appointment, error) {
	confirmed := StatusConfirmed
	a, err := s.update(ctx, id, Patch{
		Date:               &date,
		Time:               &t,
		Status:             &confirmed,
		ClearPendingChange: true,
		Expect:             expect,
	}, s.Guarded())
	if err != nil {
		return nil, err
	}
	s.log.Info("appointment rescheduled",
		zap.String("appointment_id", id),
		zap.String("date", date),
		zap.String("time", t),
	)
	return a, nil
}

// EditDetails is the admin's direct edit. Staff and service names are
// re-read so the denormalized copies stay in step.
func (s *Service) EditDetails(ctx context.Context, id string, req EditRequest) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointment.EditDetails")
	defer span.End()

	var p Patch
	moves := false

	if req.StaffID != nil {
		staff, err := withTimeout(ctx, s.timeout, func(ctx context.Context) (Party, error) {
			return s.dir.FindStaff(ctx, *req.StaffID)
		})
		if err != nil {
			return nil, err
		}
		p.StaffID, p.StaffName = &staff.ID, &staff.Name
		moves = true
	}
	if req.ServiceID != nil {
		item, ok := catalog.Find(*req.ServiceID)
		if !ok {
			return nil, ErrServiceNotFound
		}
		p.ServiceID, p.ServiceName = &item.ID, &item.Name
	}
	if req.Date != nil {
		d, err := availability.NormalizeDate(*req.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		p.Date = &d
		moves = true
	}
	if req.Time != nil {
		t, err := normalizeGridTime(*req.Time)
		if err != nil {
			return nil, err
		}
		p.Time = &t
		moves = true
	}
	if req.Notes != nil {
		notes := strings.TrimSpace(*req.Notes)
		p.Notes = &notes
	}

	a, err := s.update(ctx, id, p, moves && s.Guarded())
	if err != nil {
		return nil, err
	}
	s.log.Info("appointment edited", zap.String("appointment_id", id))
	s.publish(ctx, events.AppointmentDetailsEdited, a)
	return a, nil
}

func (s *Service) update(ctx context.Context, id string, p Patch, guarded bool) (*Appointment, error) {
	a, err := withTimeout(ctx, s.timeout, func(ctx context.Context) (*Appointment, error) {
		if guarded {
			return s.store.UpdateIfFree(ctx, id, p)
		}
		return s.store.Update(ctx, id, p)
	})
	if errors.Is(err, ErrSlotOccupied) {
		slotConflicts.Inc()
	}
	return a, err
}

func (s *Service) Get(ctx context.Context, id string) (*Appointment, error) {
	return withTimeout(ctx, s.timeout, func(ctx context.Context) (*Appointment, error) {
		return s.store.Get(ctx, id)
	})
}

// Authorize loads the appointment and checks the actor may act on it.
func (s *Service) Authorize(ctx context.Context, id string, actor Actor) (*Appointment, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Manages() && a.CustomerID != actor.UserID {
		return nil, ErrForbidden
	}
	return a, nil
}

func (s *Service) List(ctx context.Context) ([]Appointment, error) {
	return withTimeout(ctx, s.timeout, func(ctx context.Context) ([]Appointment, error) {
		return s.store.List(ctx)
	})
}

// ListForCustomer returns the customer's appointments, newest first.
func (s *Service) ListForCustomer(ctx context.Context, customerID string) ([]Appointment, error) {
	out, err := withTimeout(ctx, s.timeout, func(ctx context.Context) ([]Appointment, error) {
		return s.store.FindBy(ctx, FieldCustomerID, customerID)
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].Time > out[j].Time
	})
	return out, nil
}

func (s *Service) publish(ctx context.Context, eventType string, a *Appointment) {
	evt := events.Event{
		Type:          eventType,
		AppointmentID: a.ID,
		CustomerID:    a.CustomerID,
		StaffID:       a.StaffID,
		Status:        string(a.Status),
		Date:          a.Date,
		Time:          a.Time,
		OccurredAt:    s.now().UTC(),
	}
	if err := s.events.Publish(ctx, evt); err != nil {
		s.log.Warn("failed to publish appointment event",
			zap.String("type", eventType),
			zap.String("appointment_id", a.ID),
			zap.Error(err),
		)
	}
}

// withTimeout bounds one collaborator call by the store timeout.
func withTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	v, err := fn(ctx)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		var zero T
		return zero, fmt.Errorf("%w: %v", ErrStoreTimeout, err)
	}
	return v, err
}

func normalizeSlot(date, t string) (string, string, error) {
	d, err := availability.NormalizeDate(date)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrValidation, err)
	}
	tt, err := normalizeGridTime(t)
	if err != nil {
		return "", "", err
	}
	return d, tt, nil
}

func normalizeGridTime(raw string) (string, error) {
	t, err := availability.NormalizeTime(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if !availability.OnGrid(t) {
		return "", fmt.Errorf("%w: %s is not a bookable slot", ErrValidation, t)
	}
	return t, nil
}
