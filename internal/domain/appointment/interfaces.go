package appointment

import "context"

// Party is the denormalized name snapshot stored on an appointment.
type Party struct {
	ID   string
	Name string
}

// Directory resolves the people an appointment refers to.
type Directory interface {
	// FindStaff returns ErrStaffNotFound unless id belongs to the roster.
	FindStaff(ctx context.Context, id string) (Party, error)
	// EnsureCustomer returns the customer registered under phone,
	// creating one when missing.
	EnsureCustomer(ctx context.Context, name, phone string) (Party, error)
}
