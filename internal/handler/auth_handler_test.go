package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/cbt-go-api/internal/dto"
	"github.com/noah-isme/cbt-go-api/internal/middleware"
	"github.com/noah-isme/cbt-go-api/internal/models"
)

func TestAuthLoginSetsSessionCookie(t *testing.T) {
	ta := setupTestApp(t)

	hashed, err := bcrypt.GenerateFromPassword([]byte("rahasia"), bcrypt.DefaultCost)
	require.NoError(t, err)
	profile := models.Profile{FullName: "Ibu Ratna", Username: "ratna", Password: string(hashed), Role: models.RoleTeacher}
	require.NoError(t, ta.db.Create(&profile).Error)

	resp := ta.request(t, http.MethodPost, "/api/v1/auth/login", dto.LoginRequest{Username: "ratna", Password: "rahasia"}, 0, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sessionCookie *http.Cookie
	for _, cookie := range resp.Cookies() {
		if cookie.Name == middleware.SessionCookie {
			sessionCookie = cookie
		}
	}
	require.NotNil(t, sessionCookie)
	require.NotEmpty(t, sessionCookie.Value)
	require.True(t, sessionCookie.HttpOnly)

	envelope := decodeResponse(t, resp)
	require.True(t, envelope.Success)

	var login dto.LoginResponse
	dataAs(t, envelope, &login)
	require.NotEmpty(t, login.Token)
	require.Equal(t, "ratna", login.Profile.Username)
}

func TestAuthLoginRejectsBadCredentials(t *testing.T) {
	ta := setupTestApp(t)

	hashed, err := bcrypt.GenerateFromPassword([]byte("rahasia"), bcrypt.DefaultCost)
	require.NoError(t, err)
	require.NoError(t, ta.db.Create(&models.Profile{FullName: "Ibu Ratna", Username: "ratna", Password: string(hashed), Role: models.RoleTeacher}).Error)

	resp := ta.request(t, http.MethodPost, "/api/v1/auth/login", dto.LoginRequest{Username: "ratna", Password: "salah"}, 0, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	envelope := decodeResponse(t, resp)
	require.False(t, envelope.Success)
}

func TestAuthLogoutClearsCookie(t *testing.T) {
	ta := setupTestApp(t)

	resp := ta.request(t, http.MethodPost, "/api/v1/auth/logout", nil, 0, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cleared *http.Cookie
	for _, cookie := range resp.Cookies() {
		if cookie.Name == middleware.SessionCookie {
			cleared = cookie
		}
	}
	require.NotNil(t, cleared)
	require.Empty(t, cleared.Value)
	require.Negative(t, cleared.MaxAge)
}

func TestAuthMe(t *testing.T) {
	ta := setupTestApp(t)

	profile := models.Profile{FullName: "Budi", Username: "budi", Password: "x", Role: models.RoleStudent}
	require.NoError(t, ta.db.Create(&profile).Error)

	resp := ta.request(t, http.MethodGet, "/api/v1/auth/me", nil, profile.ID, models.RoleStudent)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var me dto.ProfileResponse
	dataAs(t, decodeResponse(t, resp), &me)
	require.Equal(t, "budi", me.Username)

	// a session pointing at a deleted profile is rejected
	resp = ta.request(t, http.MethodGet, "/api/v1/auth/me", nil, 9999, models.RoleStudent)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthHeartbeat(t *testing.T) {
	ta := setupTestApp(t)

	profile := models.Profile{FullName: "Budi", Username: "budi", Password: "x", Role: models.RoleStudent}
	require.NoError(t, ta.db.Create(&profile).Error)
	require.Nil(t, profile.LastOnlineAt)

	resp := ta.request(t, http.MethodPost, "/api/v1/auth/heartbeat", nil, profile.ID, models.RoleStudent)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stored models.Profile
	require.NoError(t, ta.db.First(&stored, profile.ID).Error)
	require.NotNil(t, stored.LastOnlineAt)
}
