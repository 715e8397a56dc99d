package user

import (
	"fmt"
	"net/url"
	"time"
)

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleStaff    Role = "STAFF"
	RoleCustomer Role = "CUSTOMER"
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	PhoneNumber  string    `json:"phoneNumber"`
	PasswordHash string    `json:"-"`
	Avatar       string    `json:"avatar,omitempty"`
	Specialty    string    `json:"specialty,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// IsRoster reports whether the user can be booked.
func (u User) IsRoster() bool {
	return u.Role == RoleStaff || u.Role == RoleAdmin
}

func defaultAvatar(name string, role Role) string {
	background, color := "D4AF37", "000"
	if role != RoleCustomer {
		background, color = "333", "fff"
	}
	return fmt.Sprintf("https://ui-avatars.com/api/?name=%s&background=%s&color=%s", url.QueryEscape(name), background, color)
}
