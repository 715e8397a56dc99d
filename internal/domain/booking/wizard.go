package booking

import (
	"fmt"
	"strings"

	"salonbooking/internal/domain/appointment"
	"salonbooking/internal/domain/availability"
	"salonbooking/internal/domain/catalog"
)

type Step int

const (
	StepService Step = iota + 1
	StepStaff
	StepDateTime
	StepConfirm
)

func (s Step) String() string {
	switch s {
	case StepService:
		return "SERVICE"
	case StepStaff:
		return "STAFF"
	case StepDateTime:
		return "DATETIME"
	case StepConfirm:
		return "CONFIRM"
	default:
		return fmt.Sprintf("Step(%d)", int(s))
	}
}

// Snapshotter yields the live appointment set. realtime.Cache is the
// production implementation.
type Snapshotter interface {
	Snapshot() []appointment.Appointment
}

// Draft is what the customer has picked so far.
type Draft struct {
	ServiceID string `json:"serviceId"`
	StaffID   string `json:"staffId"`
	Date      string `json:"date"`
	Time      string `json:"time,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// Wizard walks service, staff, date/time and confirmation. The time grid
// is read from the live snapshot on every call, so it follows changes
// made by other sessions while the customer is choosing.
type Wizard struct {
	view  Snapshotter
	today string
	step  Step
	draft Draft
}

// NewWizard starts at the service step with the date preset to today.
// Days before today cannot be selected.
func NewWizard(view Snapshotter, today string) *Wizard {
	return &Wizard{
		view:  view,
		today: today,
		step:  StepService,
		draft: Draft{Date: today},
	}
}

func (w *Wizard) Step() Step   { return w.step }
func (w *Wizard) Draft() Draft { return w.draft }

func (w *Wizard) SelectService(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: service is required", ErrValidation)
	}
	if _, ok := catalog.Find(id); !ok {
		return fmt.Errorf("%w: unknown service %q", ErrValidation, id)
	}
	w.draft.ServiceID = id
	w.step = StepStaff
	return nil
}

// SelectStaff picks the stylist. A different stylist drops the chosen time.
func (w *Wizard) SelectStaff(id string) error {
	if w.step < StepStaff {
		return ErrStepOrder
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: staff is required", ErrValidation)
	}
	if id != w.draft.StaffID {
		w.draft.Time = ""
	}
	w.draft.StaffID = id
	w.step = StepDateTime
	return nil
}

// SelectDate changes the day. A different day drops the chosen time.
func (w *Wizard) SelectDate(raw string) error {
	if w.step < StepDateTime {
		return ErrStepOrder
	}
	date, err := availability.NormalizeDate(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if date < w.today {
		return fmt.Errorf("%w: %s is before today (%s)", ErrValidation, date, w.today)
	}
	if date != w.draft.Date {
		w.draft.Time = ""
		w.step = StepDateTime
	}
	w.draft.Date = date
	return nil
}

// Slots is the grid for the selected staff and date.
func (w *Wizard) Slots() []availability.Slot {
	return availability.Grid(w.draft.StaffID, w.draft.Date, w.view.Snapshot())
}

// SelectTime rejects a slot the current snapshot shows as occupied.
func (w *Wizard) SelectTime(raw string) error {
	if w.step < StepDateTime {
		return ErrStepOrder
	}
	t, err := availability.NormalizeTime(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if !availability.OnGrid(t) {
		return fmt.Errorf("%w: %s is not a bookable time", ErrValidation, t)
	}
	if availability.IsOccupied(w.draft.StaffID, w.draft.Date, t, w.view.Snapshot()) {
		return ErrSlotTaken
	}
	w.draft.Time = t
	w.step = StepConfirm
	return nil
}

func (w *Wizard) SetNotes(notes string) {
	w.draft.Notes = strings.TrimSpace(notes)
}

// Back returns to the previous step, keeping the selections.
func (w *Wizard) Back() {
	if w.step > StepService {
		w.step--
	}
}

// Ready reports whether every selection is present. Occupancy is not
// re-checked here.
func (w *Wizard) Ready() bool {
	d := w.draft
	return w.step == StepConfirm && d.ServiceID != "" && d.StaffID != "" && d.Date != "" && d.Time != ""
}
