package user

import (
	"context"
	"errors"

	"salonbooking/internal/domain/appointment"
)

// Directory adapts the user service to the appointment lifecycle.
type Directory struct {
	users *Service
}

var _ appointment.Directory = (*Directory)(nil)

func NewDirectory(users *Service) *Directory {
	return &Directory{users: users}
}

func (d *Directory) FindStaff(ctx context.Context, id string) (appointment.Party, error) {
	u, err := d.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return appointment.Party{}, appointment.ErrStaffNotFound
		}
		return appointment.Party{}, err
	}
	if !u.IsRoster() {
		return appointment.Party{}, appointment.ErrStaffNotFound
	}
	return appointment.Party{ID: u.ID, Name: u.Name}, nil
}

func (d *Directory) EnsureCustomer(ctx context.Context, name, phone string) (appointment.Party, error) {
	u, err := d.users.EnsureCustomer(ctx, name, phone)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			return appointment.Party{}, appointment.ErrValidation
		}
		return appointment.Party{}, err
	}
	return appointment.Party{ID: u.ID, Name: u.Name}, nil
}
