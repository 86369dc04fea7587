package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleCandidate Role = "candidate"
	RoleEmployer  Role = "employer"
	RoleAdmin     Role = "admin"
	RoleAgent     Role = "agent"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCandidate, RoleEmployer, RoleAdmin, RoleAgent:
		return true
	}
	return false
}

// User is an account. Email is nullable so that candidates provisioned from a
// shortlisted lead (phone only) do not collide on the unique index.
type User struct {
	ID           string         `gorm:"primaryKey;size:36" json:"id"`
	Email        *string        `gorm:"uniqueIndex;size:191" json:"email,omitempty"`
	Name         string         `gorm:"size:128" json:"name"`
	Phone        string         `gorm:"index;size:32" json:"phone,omitempty"`
	PasswordHash string         `gorm:"size:191" json:"-"`
	Role         Role           `gorm:"size:16;not null" json:"role"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

func (u *User) EmailValue() string {
	if u == nil || u.Email == nil {
		return ""
	}
	return *u.Email
}

// Actor is the authenticated caller of a core operation.
type Actor struct {
	ID   string
	Role Role
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }
func (a Actor) IsAgent() bool { return a.Role == RoleAgent }

type UserFilter struct {
	Query       string
	Role        Role
	WithDeleted bool
	Offset      int
	Limit       int
}

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByIDs(ctx context.Context, ids []string) ([]User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByPhone(ctx context.Context, phone string) (*User, error)
	List(ctx context.Context, f UserFilter) ([]User, int64, error)
	SoftDelete(ctx context.Context, id string) (bool, error)
}
