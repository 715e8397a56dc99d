package appointment

import "errors"

var (
	ErrNotFound             = errors.New("appointment not found")
	ErrValidation           = errors.New("validation error")
	ErrSlotOccupied         = errors.New("slot already occupied")
	ErrNoPendingChange      = errors.New("no pending change to decide")
	ErrProposalMismatch     = errors.New("pending change differs from the supplied values")
	ErrAppointmentCancelled = errors.New("appointment is cancelled")
	ErrStaffNotFound        = errors.New("staff member not found")
	ErrServiceNotFound      = errors.New("service not found")
	ErrForbidden            = errors.New("not allowed to act on this appointment")
	ErrStoreTimeout         = errors.New("appointment store timed out")
)
