// Package service implements the platform's operations on top of the store,
// the session manager and the price lookup.
package service

import (
	"context"  // Request scoped cancellation
	"errors"   // Error inspection
	"fmt"      // Error wrapping
	"net/mail" // Email address parsing
	"strings"  // String manipulation

	"mock_trading/internal/domain" // Domain models
	"mock_trading/internal/notify" // User notifications
	"mock_trading/internal/store"  // Persistence
	"mock_trading/internal/utils"  // Utility functions

	"github.com/shopspring/decimal" // Decimal money
	"github.com/sirupsen/logrus"    // Logrus for structured logging
)

// ErrInvalidRegistration wraps input validation failures of Register.
var ErrInvalidRegistration = errors.New("invalid registration")

// Sessions creates and revokes login sessions.
type Sessions interface {
	Create(ctx context.Context, userID uint) (string, domain.Principal, error)
	Destroy(ctx context.Context, token string) error
}

// AuthService registers users and manages their sessions.
type AuthService struct {
	store           store.Store
	sessions        Sessions
	notifier        notify.Notifier
	startingBalance decimal.Decimal
	log             logrus.FieldLogger
}

// NewAuthService wires an AuthService.
func NewAuthService(s store.Store, sessions Sessions, n notify.Notifier, startingBalance decimal.Decimal, log logrus.FieldLogger) *AuthService {
	return &AuthService{store: s, sessions: sessions, notifier: n, startingBalance: startingBalance, log: log}
}

// Registration is the input of Register.
type Registration struct {
	Username string
	Email    string
	Password string
}

func (r *Registration) normalize() error {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if r.Username == "" || len(r.Username) > 64 {
		return fmt.Errorf("%w: username must be 1-64 characters", ErrInvalidRegistration)
	}
	if addr, err := mail.ParseAddress(r.Email); err != nil || addr.Address != r.Email {
		return fmt.Errorf("%w: email address is not valid", ErrInvalidRegistration)
	}
	if err := utils.ValidPassword(r.Password); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRegistration, err)
	}
	return nil
}

// Register creates a user with the starting balance. It fails with
// domain.ErrEmailTaken, leaving the store untouched, when the email exists.
func (s *AuthService) Register(ctx context.Context, r Registration) (*domain.User, error) {
	if err := r.normalize(); err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(r.Password) // Hash outside the transaction
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &domain.User{
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: hash,
		Balance:      s.startingBalance,
	}
	err = s.store.Transact(ctx, func(tx store.Repository) error {
		existing, err := tx.FindUserByEmail(ctx, user.Email)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrEmailTaken // Nothing written
		}
		return tx.CreateUser(ctx, user) // Unique index catches a racing insert
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			s.log.WithField("email", user.Email).Info("Registration rejected: email taken")
			return nil, err
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	s.log.WithFields(logrus.Fields{"user_id": user.ID, "email": user.Email}).Info("User registered")
	if err := s.notifier.Welcome(*user); err != nil {
		s.log.WithFields(logrus.Fields{"user_id": user.ID, "error": err.Error()}).Warn("Welcome email not sent")
	}
	return user, nil
}

// Login verifies credentials and opens a session. Unknown emails and wrong
// passwords both yield domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email)) // Emails are stored lower case
	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		utils.BurnPasswordCheck(password) // Same cost as a wrong password
		return "", nil, domain.ErrInvalidCredentials
	}
	if !utils.CheckPassword(user.PasswordHash, password) {
		s.log.WithField("user_id", user.ID).Info("Login rejected: password mismatch")
		return "", nil, domain.ErrInvalidCredentials
	}
	token, _, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return "", nil, err
	}
	s.log.WithField("user_id", user.ID).Info("User logged in")
	return token, user, nil
}

// Logout revokes the session named by token. It is a no-op without a session.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Destroy(ctx, token)
}
