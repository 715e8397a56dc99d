package booking

import "salonbooking/internal/domain/availability"

// BookRequest is the confirmed wizard state sent by the client. An empty
// date means today.
type BookRequest struct {
	ServiceID string `json:"service_id" binding:"required"`
	StaffID   string `json:"staff_id" binding:"required"`
	Date      string `json:"date" binding:"omitempty,isodate"`
	Time      string `json:"time" binding:"required,hhmm"`
	Notes     string `json:"notes"`
}

type AvailabilityQuery struct {
	StaffID string `form:"staff_id" binding:"required"`
	Date    string `form:"date" binding:"omitempty,isodate"`
}

type Availability struct {
	StaffID string              `json:"staffId"`
	Date    string              `json:"date"`
	Slots   []availability.Slot `json:"slots"`
	Free    int                 `json:"free"`
}
