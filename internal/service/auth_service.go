package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/cbt-go-api/internal/dto"
	"github.com/noah-isme/cbt-go-api/internal/models"
	"github.com/noah-isme/cbt-go-api/internal/repository"
)

// ErrInvalidCredentials indicates an unknown username or wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrProfileNotFound indicates the profile no longer exists.
var ErrProfileNotFound = errors.New("profile not found")

// AuthService issues and resolves sessions.
type AuthService interface {
	Login(ctx context.Context, payload dto.LoginRequest) (dto.LoginResponse, error)
	Me(ctx context.Context, profileID uint) (dto.ProfileResponse, error)
	Heartbeat(ctx context.Context, profileID uint) error
}

type authService struct {
	profiles       repository.ProfileRepository
	validator      *validator.Validate
	jwtSecret      string
	sessionTTL     time.Duration
	presenceWindow time.Duration
	logger         zerolog.Logger
	now            func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(profiles repository.ProfileRepository, validate *validator.Validate, jwtSecret string, sessionTTL, presenceWindow time.Duration, logger zerolog.Logger) AuthService {
	return &authService{
		profiles:       profiles,
		validator:      validate,
		jwtSecret:      jwtSecret,
		sessionTTL:     sessionTTL,
		presenceWindow: presenceWindow,
		logger:         logger.With().Str("component", "auth_service").Logger(),
		now:            time.Now,
	}
}

// Login verifies credentials and returns a signed session token. Legacy
// plaintext passwords are compared directly and upgraded to a bcrypt hash
// on first successful login.
func (s *authService) Login(ctx context.Context, payload dto.LoginRequest) (dto.LoginResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.LoginResponse{}, err
	}

	profile, err := s.profiles.GetByUsername(ctx, payload.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LoginResponse{}, ErrInvalidCredentials
		}
		return dto.LoginResponse{}, err
	}

	if profile.HasHashedPassword() {
		if bcrypt.CompareHashAndPassword([]byte(profile.Password), []byte(payload.Password)) != nil {
			return dto.LoginResponse{}, ErrInvalidCredentials
		}
	} else {
		if profile.Password != payload.Password {
			return dto.LoginResponse{}, ErrInvalidCredentials
		}
		if hashed, hashErr := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost); hashErr == nil {
			if updateErr := s.profiles.UpdatePassword(ctx, profile.ID, string(hashed)); updateErr != nil {
				s.logger.Warn().Err(updateErr).Uint("profile_id", profile.ID).Msg("failed to upgrade plaintext password")
			}
		}
	}

	token, err := s.issueToken(profile)
	if err != nil {
		return dto.LoginResponse{}, err
	}

	now := s.now()
	if err := s.profiles.TouchLastOnline(ctx, profile.ID, now); err != nil {
		s.logger.Warn().Err(err).Uint("profile_id", profile.ID).Msg("failed to stamp last online")
	}

	s.logger.Info().Uint("profile_id", profile.ID).Str("role", profile.Role).Msg("login succeeded")

	return dto.LoginResponse{
		Token:   token,
		Profile: dto.NewProfileResponse(profile, now, s.presenceWindow),
	}, nil
}

func (s *authService) issueToken(profile models.Profile) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":  profile.ID,
		"role": profile.Role,
		"name": profile.FullName,
		"iat":  now.Unix(),
		"exp":  now.Add(s.sessionTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *authService) Me(ctx context.Context, profileID uint) (dto.ProfileResponse, error) {
	profile, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProfileResponse{}, ErrProfileNotFound
		}
		return dto.ProfileResponse{}, err
	}

	return dto.NewProfileResponse(profile, s.now(), s.presenceWindow), nil
}

// Heartbeat stamps the caller's presence; the dashboard treats profiles
// seen inside the presence window as online.
func (s *authService) Heartbeat(ctx context.Context, profileID uint) error {
	return s.profiles.TouchLastOnline(ctx, profileID, s.now())
}
