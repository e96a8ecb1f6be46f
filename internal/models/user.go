package models

import "time"

// Role is the closed set of account roles.
type Role string

const (
	// RoleStandard is a regular participant.
	RoleStandard Role = "user"
	// RoleElevated can manage challenges and accounts. The storage value
	// predates this service and is kept for compatibility.
	RoleElevated Role = "sudo"
)

// User represents a participant account. Score is mutated only through the
// scoring coordinator's atomic increment.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:64;not null" json:"username"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:128;not null" json:"-"`
	Role         Role      `gorm:"size:16;not null;default:user" json:"role"`
	Score        int       `gorm:"not null;default:0" json:"score"`
	IsVerified   bool      `gorm:"not null;default:false" json:"is_verified"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsElevated reports whether the user may perform administrative operations.
func (u User) IsElevated() bool {
	return u.Role == RoleElevated
}
