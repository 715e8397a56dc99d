package roster

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"salonbooking/internal/domain/appointment"
	"salonbooking/internal/pkg/validator"
)

var ErrValidation = errors.New("validation error")

// Window limits the roster by date relative to today.
type Window string

const (
	WindowUpcoming Window = "upcoming"
	WindowPast     Window = "past"
	WindowAll      Window = "all"
)

// ParseWindow defaults to upcoming.
func ParseWindow(raw string) (Window, error) {
	switch w := Window(strings.ToLower(strings.TrimSpace(raw))); w {
	case "":
		return WindowUpcoming, nil
	case WindowUpcoming, WindowPast, WindowAll:
		return w, nil
	default:
		return "", fmt.Errorf("%w: unknown window %q", ErrValidation, raw)
	}
}

// Filter selects roster rows. Empty or "all" status and staff match
// everything.
type Filter struct {
	Query   string `validate:"max=100"`
	Status  string `validate:"omitempty,oneof=all pending confirmed completed cancelled"`
	StaffID string
	Window  Window `validate:"omitempty,oneof=upcoming past all"`
}

func (f Filter) Validate() error {
	errs := validator.Validate(f)
	if len(errs) == 0 {
		return nil
	}
	fields := make([]string, 0, len(errs))
	for field, tag := range errs {
		fields = append(fields, strings.ToLower(field)+" "+tag)
	}
	sort.Strings(fields)
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(fields, ", "))
}

// Group is one day of the roster.
type Group struct {
	Date         string                    `json:"date"`
	Appointments []appointment.Appointment `json:"appointments"`
}

// Build filters appts and groups them by date. Days run newest first for
// the past window and oldest first otherwise; rows within a day run by
// time. today is YYYY-MM-DD.
func Build(appts []appointment.Appointment, f Filter, today string) []Group {
	query := strings.ToLower(strings.TrimSpace(f.Query))
	window, err := ParseWindow(string(f.Window))
	if err != nil {
		window = WindowUpcoming
	}

	byDate := make(map[string][]appointment.Appointment)
	for _, a := range appts {
		if !matches(a, f, query, window, today) {
			continue
		}
		byDate[a.Date] = append(byDate[a.Date], a)
	}

	groups := make([]Group, 0, len(byDate))
	for date, rows := range byDate {
		sort.SliceStable(rows, func(i, j int) bool {
			if rows[i].Time != rows[j].Time {
				return rows[i].Time < rows[j].Time
			}
			return rows[i].ID < rows[j].ID
		})
		groups = append(groups, Group{Date: date, Appointments: rows})
	}

	sort.Slice(groups, func(i, j int) bool {
		if window == WindowPast {
			return groups[i].Date > groups[j].Date
		}
		return groups[i].Date < groups[j].Date
	})
	return groups
}

func matches(a appointment.Appointment, f Filter, query string, window Window, today string) bool {
	if query != "" &&
		!strings.Contains(strings.ToLower(a.CustomerName), query) &&
		!strings.Contains(strings.ToLower(a.ServiceName), query) &&
		!strings.Contains(strings.ToLower(a.StaffName), query) {
		return false
	}
	if f.Status != "" && f.Status != "all" && string(a.Status) != f.Status {
		return false
	}
	if f.StaffID != "" && f.StaffID != "all" && a.StaffID != f.StaffID {
		return false
	}
	switch window {
	case WindowUpcoming:
		return a.Date >= today
	case WindowPast:
		return a.Date < today
	}
	return true
}

// Stats are the dashboard counters.
type Stats struct {
	Total                 int                       `json:"total"`
	PendingChangeRequests int                       `json:"pendingChangeRequests"`
	Today                 int                       `json:"today"`
	ChangeRequests        []appointment.Appointment `json:"changeRequests"`
}

// Summarize counts every appointment, the customer change requests still
// awaiting a decision, and today's appointments that are not cancelled.
func Summarize(appts []appointment.Appointment, today string) Stats {
	s := Stats{Total: len(appts), ChangeRequests: []appointment.Appointment{}}
	for _, a := range appts {
		if a.ChangeRequest().IsPendingFrom(appointment.ProposedByCustomer) {
			s.PendingChangeRequests++
			s.ChangeRequests = append(s.ChangeRequests, a)
		}
		if a.Date == today && !a.Cancelled() {
			s.Today++
		}
	}
	return s
}
