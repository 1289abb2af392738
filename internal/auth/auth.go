// Package auth issues and verifies the bearer tokens the admin dashboard
// and the patient portal authenticate with.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/villahermosa/clinic-platform/internal/patients"
	"github.com/villahermosa/clinic-platform/pkg/logging"
)

var (
	// ErrBadCredentials covers every failed login; callers never learn
	// which half was wrong.
	ErrBadCredentials = errors.New("auth: invalid credentials")

	// ErrBadToken covers malformed, expired and mis-signed tokens.
	ErrBadToken = errors.New("auth: invalid token")
)

// Roles carried in the token.
const (
	RoleAdmin   = "admin"
	RolePatient = "patient"
)

// Claims is the JWT payload for both roles.
type Claims struct {
	Role string `json:"role"`
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Service issues HMAC-signed tokens for the configured admin account and
// for patient portal logins.
type Service struct {
	secret        []byte
	expiry        time.Duration
	adminUsername string
	adminHash     []byte
	patients      *patients.Service
	logger        *logging.Logger
}

// Config carries the service dependencies. Patients is optional; without
// it only the admin login works.
type Config struct {
	Secret        string
	Expiry        time.Duration
	AdminUsername string
	AdminPassword string
	Patients      *patients.Service
	Logger        *logging.Logger
}

// NewService constructs an auth service. The configured admin password
// is hashed once here; only the hash is kept.
func NewService(cfg Config) *Service {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Expiry <= 0 {
		cfg.Expiry = 24 * time.Hour
	}
	var adminHash []byte
	if cfg.AdminPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			cfg.Logger.Error("could not hash admin password, admin login disabled", "error", err)
		} else {
			adminHash = hash
		}
	}
	return &Service{
		secret:        []byte(cfg.Secret),
		expiry:        cfg.Expiry,
		adminUsername: cfg.AdminUsername,
		adminHash:     adminHash,
		patients:      cfg.Patients,
		logger:        cfg.Logger,
	}
}

// LoginAdmin checks the configured admin credentials and issues a token.
func (s *Service) LoginAdmin(username, password string) (string, error) {
	if username == "" || password == "" || username != s.adminUsername || s.adminHash == nil ||
		bcrypt.CompareHashAndPassword(s.adminHash, []byte(password)) != nil {
		s.logger.Warn("failed admin login", "username", username)
		return "", ErrBadCredentials
	}
	return s.issue(username, RoleAdmin, username)
}

// LoginPatient checks portal credentials against the patient records and
// issues a token whose subject is the patient id.
func (s *Service) LoginPatient(ctx context.Context, identifier, password string) (string, *patients.Patient, error) {
	if s.patients == nil {
		return "", nil, ErrBadCredentials
	}
	patient, err := s.patients.Authenticate(ctx, identifier, password)
	if err != nil {
		s.logger.Warn("failed patient login", "identifier", identifier)
		return "", nil, ErrBadCredentials
	}
	token, err := s.issue(patient.ID, RolePatient, patient.FullName())
	if err != nil {
		return "", nil, err
	}
	return token, patient, nil
}

func (s *Service) issue(subject, role, name string) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Role: role,
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
			Issuer:    "clinic-platform",
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify parses a token and returns its claims.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrBadToken
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrBadToken
	}
	return claims, nil
}
