package appointment

import (
	"encoding/json"
	"time"

	"salonbooking/internal/domain/availability"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports completed and cancelled.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Proposer says which side opened a reschedule negotiation.
type Proposer string

const (
	ProposedByCustomer Proposer = "customer"
	ProposedByAdmin    Proposer = "admin"
)

type ChangeStatus string

const (
	ChangePending  ChangeStatus = "pending"
	ChangeRejected ChangeStatus = "rejected"
)

// PendingChange is the single open reschedule negotiation of an
// appointment. A customer-proposed change is a change request, an
// admin-proposed one is an admin proposal.
type PendingChange struct {
	ProposedBy Proposer
	NewDate    string
	NewTime    string
	Status     ChangeStatus
	CreatedAt  time.Time
}

// IsPendingFrom reports an undecided change opened by p.
func (pc *PendingChange) IsPendingFrom(p Proposer) bool {
	return pc != nil && pc.ProposedBy == p && pc.Status == ChangePending
}

type Appointment struct {
	ID            string
	CustomerID    string
	CustomerName  string
	StaffID       string
	StaffName     string
	Date          string
	Time          string
	ServiceID     string
	ServiceName   string
	Status        Status
	Notes         string
	PendingChange *PendingChange
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (a Appointment) SlotKey() availability.Key {
	return availability.Key{StaffID: a.StaffID, Date: a.Date, Time: a.Time}
}

func (a Appointment) Cancelled() bool {
	return a.Status == StatusCancelled
}

// ChangeRequest returns the customer-proposed change, if any.
func (a Appointment) ChangeRequest() *PendingChange {
	if a.PendingChange != nil && a.PendingChange.ProposedBy == ProposedByCustomer {
		return a.PendingChange
	}
	return nil
}

// AdminProposal returns the admin-proposed change, if any.
func (a Appointment) AdminProposal() *PendingChange {
	if a.PendingChange != nil && a.PendingChange.ProposedBy == ProposedByAdmin {
		return a.PendingChange
	}
	return nil
}

// Equal compares every field, including the pending change by value.
func (a Appointment) Equal(b Appointment) bool {
	pa, pb := a.PendingChange, b.PendingChange
	a.PendingChange, b.PendingChange = nil, nil
	a.CreatedAt, b.CreatedAt = a.CreatedAt.UTC(), b.CreatedAt.UTC()
	a.UpdatedAt, b.UpdatedAt = a.UpdatedAt.UTC(), b.UpdatedAt.UTC()
	if a != b {
		return false
	}
	if pa == nil || pb == nil {
		return pa == pb
	}
	return pa.ProposedBy == pb.ProposedBy &&
		pa.NewDate == pb.NewDate &&
		pa.NewTime == pb.NewTime &&
		pa.Status == pb.Status &&
		pa.CreatedAt.Equal(pb.CreatedAt)
}

func (a Appointment) clone() Appointment {
	if a.PendingChange != nil {
		pc := *a.PendingChange
		a.PendingChange = &pc
	}
	return a
}

type changeRequestView struct {
	NewDate     string       `json:"newDate"`
	NewTime     string       `json:"newTime"`
	Status      ChangeStatus `json:"status"`
	RequestedAt time.Time    `json:"requestedAt"`
}

type adminProposalView struct {
	NewDate    string       `json:"newDate"`
	NewTime    string       `json:"newTime"`
	Status     ChangeStatus `json:"status"`
	ProposedAt time.Time    `json:"proposedAt"`
}

type appointmentView struct {
	ID            string             `json:"id"`
	CustomerID    string             `json:"customerId"`
	CustomerName  string             `json:"customerName"`
	StaffID       string             `json:"staffId"`
	StaffName     string             `json:"staffName"`
	Date          string             `json:"date"`
	Time          string             `json:"time"`
	ServiceID     string             `json:"serviceId"`
	ServiceName   string             `json:"serviceName"`
	Status        Status             `json:"status"`
	Notes         string             `json:"notes,omitempty"`
	ChangeRequest *changeRequestView `json:"changeRequest,omitempty"`
	AdminProposal *adminProposalView `json:"adminProposal,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

// MarshalJSON exposes the pending change under the field named after the
// party that opened it.
func (a Appointment) MarshalJSON() ([]byte, error) {
	v := appointmentView{
		ID:           a.ID,
		CustomerID:   a.CustomerID,
		CustomerName: a.CustomerName,
		StaffID:      a.StaffID,
		StaffName:    a.StaffName,
		Date:         a.Date,
		Time:         a.Time,
		ServiceID:    a.ServiceID,
		ServiceName:  a.ServiceName,
		Status:       a.Status,
		Notes:        a.Notes,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
	if cr := a.ChangeRequest(); cr != nil {
		v.ChangeRequest = &changeRequestView{NewDate: cr.NewDate, NewTime: cr.NewTime, Status: cr.Status, RequestedAt: cr.CreatedAt}
	}
	if ap := a.AdminProposal(); ap != nil {
		v.AdminProposal = &adminProposalView{NewDate: ap.NewDate, NewTime: ap.NewTime, Status: ap.Status, ProposedAt: ap.CreatedAt}
	}
	return json.Marshal(v)
}
