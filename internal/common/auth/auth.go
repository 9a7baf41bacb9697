// Package auth signs users up and in against the user table and keeps their
// sessions in Redis.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	apperrors "jobtrail/internal/common/errors"
	"jobtrail/internal/common/logger"
	"jobtrail/internal/models"
	"jobtrail/internal/store"
)

// UserStore is the part of the data access facade authentication needs.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type Authenticator struct {
	users      UserStore
	sessions   *SessionStore
	bcryptCost int
	logger     logger.Logger

	// dummyHash is compared against when the email is unknown so that a miss
	// costs the same as a wrong password.
	dummyHash string
}

func NewAuthenticator(users UserStore, sessions *SessionStore, bcryptCost int, log logger.Logger) *Authenticator {
	dummy, _ := HashPassword("jobtrail-unknown-user", bcryptCost)
	return &Authenticator{
		users:      users,
		sessions:   sessions,
		bcryptCost: bcryptCost,
		logger:     log.WithFields(map[string]interface{}{"component": "auth"}),
		dummyHash:  dummy,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateCredentials(email, password string) error {
	if email == "" {
		return apperrors.NewValidationError("email is required")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return apperrors.NewValidationError(fmt.Sprintf("invalid email address: %s", email))
	}
	if len(password) < MinPasswordLength {
		return apperrors.NewValidationError(fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if len(password) > MaxPasswordBytes {
		return apperrors.NewValidationError(fmt.Sprintf("password must be at most %d bytes", MaxPasswordBytes))
	}
	return nil
}

// SignUp creates the account and opens its first session.
func (a *Authenticator) SignUp(ctx context.Context, email, password, phone string) (*models.Session, error) {
	email = normalizeEmail(email)
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	hash, err := HashPassword(password, a.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &models.User{Email: email, PasswordHash: hash, Phone: strings.TrimSpace(phone)}
	if err := a.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, apperrors.NewEmailTakenError(email)
		}
		return nil, err
	}

	a.logger.Info("User signed up", map[string]interface{}{"userId": user.ID})
	return a.sessions.Create(ctx, user)
}

func (a *Authenticator) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	email = normalizeEmail(email)

	user, err := a.users.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		CheckPassword(a.dummyHash, password)
		return nil, apperrors.NewInvalidCredentialsError()
	}
	if err != nil {
		return nil, err
	}
	if !CheckPassword(user.PasswordHash, password) {
		a.logger.Warn("Sign-in rejected", map[string]interface{}{"userId": user.ID})
		return nil, apperrors.NewInvalidCredentialsError()
	}

	return a.sessions.Create(ctx, user)
}

func (a *Authenticator) SignOut(ctx context.Context, token string) error {
	return a.sessions.Delete(ctx, token)
}

// SignOutAll ends every session of the user.
func (a *Authenticator) SignOutAll(ctx context.Context, userID string) error {
	n, err := a.sessions.DeleteAll(ctx, userID)
	if err != nil {
		return err
	}
	a.logger.Info("Signed out all sessions", map[string]interface{}{"userId": userID, "sessions": n})
	return nil
}

// CurrentSession resolves a token to its session or an authentication error.
func (a *Authenticator) CurrentSession(ctx context.Context, token string) (*models.Session, error) {
	session, err := a.sessions.Get(ctx, token)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, apperrors.NewAuthenticationError("session not found or expired")
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}
