package models

import "time"

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleUser      Role = "user"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleModerator, RoleUser:
		return true
	}
	return false
}

type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusSuspended:
		return true
	}
	return false
}

// User is the identity record. Hashed password, verification token and the
// lockout counter never leave the server, hence the "-" json tags.
type User struct {
	ID                uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Email             string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	FullName          string     `gorm:"type:varchar(255);not null" json:"full_name"`
	Role              Role       `gorm:"type:varchar(16);not null;default:user" json:"role"`
	Status            Status     `gorm:"type:varchar(16);not null;default:active" json:"status"`
	HashedPassword    string     `gorm:"type:varchar(255);not null" json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	LastLogin         *time.Time `json:"last_login"`
	LoginAttempts     int        `gorm:"not null;default:0" json:"-"`
	IsVerified        bool       `gorm:"not null;default:false" json:"is_verified"`
	VerificationToken *string    `gorm:"type:varchar(64);index" json:"-"`
}

func (User) TableName() string { return "users" }
