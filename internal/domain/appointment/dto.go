package appointment

// SelfServiceRequest is a customer booking made through the wizard.
type SelfServiceRequest struct {
	CustomerID   string
	CustomerName string
	StaffID      string
	ServiceID    string
	Date         string
	Time         string
	Notes        string
}

// DirectRequest is an admin entry for a walk-in or phone booking.
type DirectRequest struct {
	CustomerName  string `json:"customer_name" binding:"required"`
	CustomerPhone string `json:"customer_phone" binding:"required"`
	StaffID       string `json:"staff_id" binding:"required"`
	ServiceID     string `json:"service_id" binding:"required"`
	Date          string `json:"date" binding:"required,isodate"`
	Time          string `json:"time" binding:"required,hhmm"`
	Notes         string `json:"notes"`
}

// EditRequest changes appointment details directly. Nil fields stay.
type EditRequest struct {
	StaffID   *string `json:"staff_id"`
	ServiceID *string `json:"service_id"`
	Date      *string `json:"date" binding:"omitempty,isodate"`
	Time      *string `json:"time" binding:"omitempty,hhmm"`
	Notes     *string `json:"notes"`
}

// RescheduleRequest carries a proposed or approved new slot.
type RescheduleRequest struct {
	NewDate string `json:"new_date" binding:"required,isodate"`
	NewTime string `json:"new_time" binding:"required,hhmm"`
}

type UpdateStatusRequest struct {
	Status Status `json:"status" binding:"required"`
}

// Actor is the authenticated caller.
type Actor struct {
	UserID string
	Role   string
}

// Manages reports staff and admin callers, who may act on any appointment.
func (a Actor) Manages() bool {
	return a.Role == "ADMIN" || a.Role == "STAFF"
}
