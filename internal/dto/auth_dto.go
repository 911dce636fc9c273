package dto

import (
	"time"

	"github.com/noah-isme/cbt-go-api/internal/models"
)

// LoginRequest carries credentials for session issuance.
type LoginRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the signed session token plus the resolved profile.
type LoginResponse struct {
	Token   string          `json:"token"`
	Profile ProfileResponse `json:"profile"`
}

// ProfileResponse is the wire shape of a user profile. The password never
// leaves the service.
type ProfileResponse struct {
	ID           uint       `json:"id"`
	FullName     string     `json:"full_name"`
	Username     string     `json:"username"`
	Role         string     `json:"role"`
	ClassroomID  *uint      `json:"classroom_id"`
	LastOnlineAt *time.Time `json:"last_online_at"`
	AvatarURL    string     `json:"avatar_url"`
	Online       bool       `json:"online"`
}

// NewProfileResponse converts a Profile model into a DTO.
func NewProfileResponse(model models.Profile, now time.Time, presenceWindow time.Duration) ProfileResponse {
	return ProfileResponse{
		ID:           model.ID,
		FullName:     model.FullName,
		Username:     model.Username,
		Role:         model.Role,
		ClassroomID:  model.ClassroomID,
		LastOnlineAt: model.LastOnlineAt,
		AvatarURL:    model.AvatarURL,
		Online:       model.IsOnline(now, presenceWindow),
	}
}

// NewProfileResponseSlice maps a slice of profiles.
func NewProfileResponseSlice(profiles []models.Profile, now time.Time, presenceWindow time.Duration) []ProfileResponse {
	result := make([]ProfileResponse, 0, len(profiles))
	for _, profile := range profiles {
		result = append(result, NewProfileResponse(profile, now, presenceWindow))
	}
	return result
}
