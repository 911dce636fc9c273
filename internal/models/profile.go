package models

import (
	"regexp"
	"time"
)

// Role values assignable to a profile.
const (
	RoleManager = "manager"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// Profile represents a platform user: manager, teacher or student.
type Profile struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	FullName     string     `gorm:"size:255;not null" json:"full_name"`
	Username     string     `gorm:"size:255;uniqueIndex;not null" json:"username"`
	Password     string     `gorm:"size:255;not null" json:"-"`
	Role         string     `gorm:"size:32;not null;index" json:"role"`
	ClassroomID  *uint      `gorm:"index" json:"classroom_id"`
	LastOnlineAt *time.Time `json:"last_online_at"`
	AvatarURL    string     `gorm:"size:512" json:"avatar_url"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Legacy rows may still hold plaintext passwords; they are upgraded on login.
var bcryptPattern = regexp.MustCompile(`^\$2[ayb]\$\d{2}\$.{53}$`)

// HasHashedPassword reports whether the stored password is a bcrypt hash.
func (p Profile) HasHashedPassword() bool {
	return bcryptPattern.MatchString(p.Password)
}

// IsOnline reports whether the profile was seen within the presence window.
func (p Profile) IsOnline(reference time.Time, window time.Duration) bool {
	return p.LastOnlineAt != nil && reference.Sub(*p.LastOnlineAt) < window
}
