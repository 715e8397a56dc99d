package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"salonbooking/internal/pkg/jwt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Accounts created for a customer by the salon get this password.
const DefaultCustomerPassword = "123456"

const (
	AdminPhone    = "5555555555"
	adminName     = "Tarık Yalçın"
	adminPassword = "admin"
	adminAvatar   = "https://images.unsplash.com/photo-1556157382-97eda2d62296?w=150&h=150&fit=crop"
)

type Service struct {
	users  Repository
	tokens *jwt.Service
	now    func() time.Time
	log    *zap.Logger
}

func NewService(users Repository, tokens *jwt.Service, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{users: users, tokens: tokens, now: time.Now, log: log}
}

// Register signs up a customer and logs them in.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	u, err := s.create(ctx, req.Name, req.PhoneNumber, req.Password, RoleCustomer, "", "")
	if err != nil {
		return nil, err
	}
	return s.issue(u)
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	u, err := s.users.GetByPhone(ctx, NormalizePhone(req.PhoneNumber))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(u)
}

func (s *Service) CreateStaff(ctx context.Context, req CreateStaffRequest) (*User, error) {
	u, err := s.create(ctx, req.Name, req.PhoneNumber, req.Password, RoleStaff, strings.TrimSpace(req.Specialty), "")
	if err != nil {
		return nil, err
	}
	s.log.Info("staff member created", zap.String("user_id", u.ID), zap.String("name", u.Name))
	return u, nil
}

// EnsureCustomer returns the user registered under phone, keeping its
// stored name, or creates a customer with the default password.
func (s *Service) EnsureCustomer(ctx context.Context, name, phone string) (*User, error) {
	existing, err := s.users.GetByPhone(ctx, NormalizePhone(phone))
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	s.log.Info("customer not found, creating", zap.String("name", name))
	u, err := s.create(ctx, name, phone, DefaultCustomerPassword, RoleCustomer, "", "")
	if errors.Is(err, ErrPhoneTaken) {
		// lost a race with a concurrent registration
		return s.users.GetByPhone(ctx, NormalizePhone(phone))
	}
	return u, err
}

// ListStaff returns everyone who can be booked: staff and admins.
func (s *Service) ListStaff(ctx context.Context) ([]User, error) {
	return s.users.ListByRoles(ctx, RoleAdmin, RoleStaff)
}

func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.users.GetByID(ctx, id)
}

// SeedAdmin creates the salon owner's admin account when it is missing.
// It reports whether anything was written.
func (s *Service) SeedAdmin(ctx context.Context) (bool, error) {
	_, err := s.users.GetByPhone(ctx, AdminPhone)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, err
	}

	u, err := s.create(ctx, adminName, AdminPhone, adminPassword, RoleAdmin, "Master Stylist", adminAvatar)
	if err != nil {
		return false, err
	}
	s.log.Info("admin account created", zap.String("user_id", u.ID))
	return true, nil
}

func (s *Service) create(ctx context.Context, name, phone, password string, role Role, specialty, avatar string) (*User, error) {
	name = strings.TrimSpace(name)
	phone = NormalizePhone(phone)
	if name == "" || phone == "" || password == "" {
		return nil, fmt.Errorf("%w: name, phone and password are required", ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if avatar == "" {
		avatar = defaultAvatar(name, role)
	}

	u := &User{
		ID:           uuid.NewString(),
		Name:         name,
		Role:         role,
		PhoneNumber:  phone,
		PasswordHash: string(hash),
		Avatar:       avatar,
		Specialty:    specialty,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) issue(u *User) (*AuthResult, error) {
	token, err := s.tokens.GenerateToken(u.ID, string(u.Role))
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{User: u, Token: token}, nil
}

// NormalizePhone drops spaces, dashes, dots and parentheses.
func NormalizePhone(raw string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '.', '(', ')':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))
}
