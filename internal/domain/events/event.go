package events

import (
	"context"
	"sync"
	"time"
)

// Event types emitted by the appointment lifecycle.
const (
	AppointmentCreated       = "appointment.created"
	AppointmentStatusChanged = "appointment.status_changed"
	AppointmentRescheduled   = "appointment.rescheduled"
	AppointmentDeleted       = "appointment.deleted"
	ChangeRequested          = "appointment.change_requested"
	ChangeRequestWithdrawn   = "appointment.change_request_withdrawn"
	ChangeRequestRejected    = "appointment.change_request_rejected"
	AdminProposalMade        = "appointment.admin_proposal_made"
	AdminProposalRejected    = "appointment.admin_proposal_rejected"
	AppointmentDetailsEdited = "appointment.details_edited"
)

type Event struct {
	Type          string    `json:"type"`
	AppointmentID string    `json:"appointment_id"`
	CustomerID    string    `json:"customer_id,omitempty"`
	StaffID       string    `json:"staff_id,omitempty"`
	Status        string    `json:"status,omitempty"`
	Date          string    `json:"date,omitempty"`
	Time          string    `json:"time,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Publisher ships lifecycle events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// Noop drops every event. Used when AMQP_URL is unset.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	Err    error
}

var _ Publisher = (*Recorder)(nil)

func (r *Recorder) Publish(_ context.Context, evt Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, evt)
	return nil
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Types lists the recorded event types in order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}
