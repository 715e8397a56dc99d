package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Repository is the persistence the user service needs.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByPhone(ctx context.Context, phone string) (*User, error)
	ListByRoles(ctx context.Context, roles ...Role) ([]User, error)
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

type userModel struct {
	ID           string    `gorm:"column:id;primaryKey"`
	Name         string    `gorm:"column:name"`
	Role         string    `gorm:"column:role"`
	PhoneNumber  string    `gorm:"column:phone_number"`
	PasswordHash string    `gorm:"column:password_hash"`
	Avatar       string    `gorm:"column:avatar"`
	Specialty    string    `gorm:"column:specialty"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (userModel) TableName() string { return "users" }

func toDomainUser(m userModel) *User {
	return &User{
		ID:           m.ID,
		Name:         m.Name,
		Role:         Role(m.Role),
		PhoneNumber:  m.PhoneNumber,
		PasswordHash: m.PasswordHash,
		Avatar:       m.Avatar,
		Specialty:    m.Specialty,
		CreatedAt:    m.CreatedAt,
	}
}

func toUserModel(u *User) userModel {
	return userModel{
		ID:           u.ID,
		Name:         u.Name,
		Role:         string(u.Role),
		PhoneNumber:  u.PhoneNumber,
		PasswordHash: u.PasswordHash,
		Avatar:       u.Avatar,
		Specialty:    u.Specialty,
		CreatedAt:    u.CreatedAt,
	}
}

func (r *gormRepository) Create(ctx context.Context, u *User) error {
	m := toUserModel(u)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrPhoneTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *gormRepository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *gormRepository) GetByPhone(ctx context.Context, phone string) (*User, error) {
	return r.first(ctx, "phone_number = ?", phone)
}

func (r *gormRepository) first(ctx context.Context, query string, arg any) (*User, error) {
	var m userModel
	err := r.db.WithContext(ctx).Where(query, arg).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return toDomainUser(m), nil
}

func (r *gormRepository) ListByRoles(ctx context.Context, roles ...Role) ([]User, error) {
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}

	var rows []userModel
	err := r.db.WithContext(ctx).
		Where("role IN ?", names).
		Order("created_at, name").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	out := make([]User, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainUser(m))
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
