package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"salonbooking/internal/domain/appointment"
	"salonbooking/internal/domain/availability"
	"salonbooking/internal/domain/user"
)

var tracer = otel.Tracer("salonbooking/booking")

var bookingRejections = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "salon_booking_rejections_total",
	Help: "Wizard commits refused before reaching the store, by reason.",
}, []string{"reason"})

// Users resolves the signed-in customer.
type Users interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

type Service struct {
	appointments *appointment.Service
	users        Users
	view         Snapshotter
	now          func() time.Time
	log          *zap.Logger
}

func NewService(appointments *appointment.Service, users Users, view Snapshotter, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		appointments: appointments,
		users:        users,
		view:         view,
		now:          time.Now,
		log:          log,
	}
}

// Availability renders the grid for one stylist and day.
func (s *Service) Availability(staffID, date string) (*Availability, error) {
	w := NewWizard(s.view, availability.Today(s.now()))
	w.step = StepDateTime
	w.draft.StaffID = staffID

	if date != "" {
		if err := w.SelectDate(date); err != nil {
			return nil, err
		}
	}

	slots := w.Slots()
	free := 0
	for _, sl := range slots {
		if !sl.Occupied {
			free++
		}
	}
	return &Availability{StaffID: staffID, Date: w.Draft().Date, Slots: slots, Free: free}, nil
}

// Book replays the wizard for the customer and commits it. The slot is
// checked against the live snapshot when it is picked; whether the store
// re-checks on commit depends on the slot guard of the lifecycle service.
func (s *Service) Book(ctx context.Context, customerID string, req BookRequest) (*appointment.Appointment, error) {
	ctx, span := tracer.Start(ctx, "booking.Book")
	defer span.End()

	customer, err := s.users.GetByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrNotCustomer
		}
		return nil, fmt.Errorf("load customer: %w", err)
	}

	w := NewWizard(s.view, availability.Today(s.now()))
	if err := w.SelectService(req.ServiceID); err != nil {
		return nil, err
	}
	if err := w.SelectStaff(req.StaffID); err != nil {
		return nil, err
	}
	if req.Date != "" {
		if err := w.SelectDate(req.Date); err != nil {
			return nil, err
		}
	}
	if err := w.SelectTime(req.Time); err != nil {
		if errors.Is(err, ErrSlotTaken) {
			bookingRejections.WithLabelValues("occupied").Inc()
			s.log.Info("booking refused, slot shown occupied",
				zap.String("staff_id", req.StaffID),
				zap.String("date", w.Draft().Date),
				zap.String("time", req.Time),
			)
		}
		return nil, err
	}
	w.SetNotes(req.Notes)

	if !w.Ready() {
		bookingRejections.WithLabelValues("incomplete").Inc()
		return nil, fmt.Errorf("%w: booking is incomplete", ErrValidation)
	}

	d := w.Draft()
	return s.appointments.CreateSelfService(ctx, appointment.SelfServiceRequest{
		CustomerID:   customer.ID,
		CustomerName: customer.Name,
		StaffID:      d.StaffID,
		ServiceID:    d.ServiceID,
		Date:         d.Date,
		Time:         d.Time,
		Notes:        d.Notes,
	})
}
