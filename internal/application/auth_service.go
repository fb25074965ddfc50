package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/session-scheduler/internal/persistence"
)

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier func(hashedPassword, password string) error

// PasswordHasher derives a storable hash from a plain password.
type PasswordHasher func(password string) (string, error)

// RegisterOrganizerParams captures a new organizer signup.
type RegisterOrganizerParams struct {
	Email       string
	DisplayName string
	Password    string
}

// LoginParams captures an organizer login attempt.
type LoginParams struct {
	Email    string
	Password string
}

// AuthService coordinates organizer registration, login, and session
// validation.
type AuthService struct {
	organizers     persistence.OrganizerRepository
	sessions       persistence.AuthSessionRepository
	hashPassword   PasswordHasher
	verifyPassword PasswordVerifier
	idGenerator    func() string
	tokenGenerator func() string
	now            func() time.Time
	sessionTTL     time.Duration
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(organizers persistence.OrganizerRepository, sessions persistence.AuthSessionRepository, hash PasswordHasher, verify PasswordVerifier, idGenerator, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration) *AuthService {
	return NewAuthServiceWithLogger(organizers, sessions, hash, verify, idGenerator, tokenGenerator, now, sessionTTL, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
func NewAuthServiceWithLogger(organizers persistence.OrganizerRepository, sessions persistence.AuthSessionRepository, hash PasswordHasher, verify PasswordVerifier, idGenerator, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration, logger *slog.Logger) *AuthService {
	if hash == nil {
		hash = func(password string) (string, error) {
			return CreatePasswordHash(password, DefaultArgon2idParams)
		}
	}
	if verify == nil {
		verify = VerifyPassword
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if tokenGenerator == nil {
		tokenGenerator = idGenerator
	}
	if now == nil {
		now = time.Now
	}
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &AuthService{
		organizers:     organizers,
		sessions:       sessions,
		hashPassword:   hash,
		verifyPassword: verify,
		idGenerator:    idGenerator,
		tokenGenerator: tokenGenerator,
		now:            now,
		sessionTTL:     sessionTTL,
		logger:         defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Register creates an organizer account and logs it in.
func (s *AuthService) Register(ctx context.Context, params RegisterOrganizerParams) (result AuthResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.organizers == nil {
		err = fmt.Errorf("organizer repository not configured")
		return
	}

	email := strings.TrimSpace(strings.ToLower(params.Email))
	displayName := strings.TrimSpace(params.DisplayName)

	logger := s.loggerWith(ctx, "Register", "email", email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "registration failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("organizer_id", result.Organizer.ID).InfoContext(ctx, "organizer registered")
	}()

	validation := &ValidationError{}
	if email == "" || !strings.Contains(email, "@") {
		validation.add("email", "a valid email address is required")
	}
	if displayName == "" {
		validation.add("display_name", "display name is required")
	}
	if len(params.Password) < 8 {
		validation.add("password", "password must be at least 8 characters")
	}
	if validation.HasErrors() {
		err = validation
		return
	}

	var hash string
	hash, err = s.hashPassword(params.Password)
	if err != nil {
		return
	}

	now := s.now()
	organizer := persistence.Organizer{
		ID:           s.idGenerator(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err = s.organizers.CreateOrganizer(ctx, organizer); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			err = ErrAlreadyExists
		}
		return
	}

	result, err = s.issueSession(ctx, organizer)
	return
}

// Login validates credentials and issues a new session token.
func (s *AuthService) Login(ctx context.Context, params LoginParams) (result AuthResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.organizers == nil {
		err = fmt.Errorf("organizer repository not configured")
		return
	}

	email := strings.TrimSpace(strings.ToLower(params.Email))

	logger := s.loggerWith(ctx, "Login", "email", email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "login failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("organizer_id", result.Organizer.ID).InfoContext(ctx, "login succeeded")
	}()

	if email == "" || params.Password == "" {
		err = ErrInvalidCredentials
		return
	}

	var organizer persistence.Organizer
	organizer, err = s.organizers.GetOrganizerByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrInvalidCredentials
		}
		return
	}

	if err = s.verifyPassword(organizer.PasswordHash, params.Password); err != nil {
		err = ErrInvalidCredentials
		return
	}

	result, err = s.issueSession(ctx, organizer)
	return
}

func (s *AuthService) issueSession(ctx context.Context, organizer persistence.Organizer) (AuthResult, error) {
	now := s.now()
	session := persistence.AuthSession{
		ID:          s.idGenerator(),
		OrganizerID: organizer.ID,
		Token:       s.tokenGenerator(),
		ExpiresAt:   now.Add(s.sessionTTL),
		CreatedAt:   now,
	}

	if s.sessions != nil {
		if err := s.sessions.DeleteExpiredAuthSessions(ctx, now); err != nil {
			return AuthResult{}, err
		}
		if err := s.sessions.CreateAuthSession(ctx, session); err != nil {
			return AuthResult{}, err
		}
	}

	return AuthResult{Token: session.Token, ExpiresAt: session.ExpiresAt, Organizer: organizer}, nil
}

// Logout invalidates an existing session token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	if s.sessions == nil {
		return fmt.Errorf("session repository not configured")
	}

	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return ErrInvalidCredentials
	}

	logger := s.loggerWith(ctx, "Logout")
	if err := s.sessions.RevokeAuthSession(ctx, trimmed, s.now()); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			logger.ErrorContext(ctx, "failed to revoke session", "error", ErrInvalidCredentials, "error_kind", ErrorKind(ErrInvalidCredentials))
			return ErrInvalidCredentials
		}
		logger.ErrorContext(ctx, "failed to revoke session", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "session revoked")
	return nil
}

// ValidateSession verifies that the provided token corresponds to an active
// session and returns its principal.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (principal Principal, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.sessions == nil {
		err = fmt.Errorf("session repository not configured")
		return
	}

	trimmed := strings.TrimSpace(token)
	logger := s.loggerWith(ctx, "ValidateSession", "token_provided", trimmed != "")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "session validation failed", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if trimmed == "" {
		err = ErrUnauthorized
		return
	}

	var session persistence.AuthSession
	session, err = s.sessions.GetAuthSessionByToken(ctx, trimmed)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrUnauthorized
		}
		return
	}

	now := s.now()
	if session.RevokedAt != nil && !session.RevokedAt.IsZero() {
		err = ErrSessionRevoked
		return
	}
	if !session.ExpiresAt.IsZero() && !session.ExpiresAt.After(now) {
		err = ErrSessionExpired
		return
	}

	principal = Principal{OrganizerID: session.OrganizerID}
	return
}
