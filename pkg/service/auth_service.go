package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gemmoherb/portal/pkg/auth"
	"github.com/gemmoherb/portal/pkg/models"
	"github.com/gemmoherb/portal/pkg/repository"
	"go.uber.org/zap"
)

const loginMethodLocal = "local"

var verifyPassword = auth.VerifyPassword

type AuthService struct {
	*base
	logger *zap.Logger
}

type LoginResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type RegisterInput struct {
	Username        string `json:"username" validate:"required,min=3,max=64"`
	Password        string `json:"password" validate:"required,min=6,max=128"`
	Email           string `json:"email" validate:"required,email"`
	PharmacyName    string `json:"pharmacy_name" validate:"required,min=2,max=255"`
	PharmacyAddress string `json:"pharmacy_address"`
	PharmacyPhone   string `json:"pharmacy_phone" validate:"max=20"`
}

func accountStatusError(u *models.User) error {
	switch u.Status {
	case models.UserStatusApproved:
		return nil
	case models.UserStatusRejected:
		return ErrAccountRejected
	default:
		return ErrAccountPending
	}
}

// Login checks the credentials and issues a session token. Accounts that are not
// approved are refused with ErrForbidden even when the password is right.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.deps.Users.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, repository.ErrNotFound) {
		// Unknown usernames pay for a derivation too, so timing does not reveal them.
		verifyPassword(password, auth.UnknownUserHash)
		s.logger.Info("Login refused", zap.String("username", username), zap.String("reason", "unknown user"))
		return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}
	if err != nil {
		return nil, storeError(err, "load user")
	}
	stored := user.Password
	if stored == "" {
		stored = auth.UnknownUserHash
	}
	if !verifyPassword(password, stored) || user.Password == "" {
		s.logger.Info("Login refused", zap.String("username", username), zap.String("reason", "bad password"))
		return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}
	if err := accountStatusError(user); err != nil {
		s.logger.Info("Login refused", zap.String("username", username), zap.String("status", user.Status))
		return nil, err
	}

	token, err := s.deps.Tokens.Issue(auth.Session{UserID: user.ID, Role: user.Role, Name: PrincipalFromUser(user).Name})
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}

	user.LastSignedIn = s.deps.Clock.Now()
	if err := s.deps.Users.Update(ctx, user); err != nil {
		s.logger.Warn("Failed to record sign-in", zap.Uint("user_id", user.ID), zap.Error(err))
	}
	s.logger.Info("User signed in", zap.Uint("user_id", user.ID), zap.String("role", user.Role))
	return &LoginResult{Token: token, User: user}, nil
}

// Register records a pharmacy account awaiting approval.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{
		Username:        strings.TrimSpace(in.Username),
		Password:        hash,
		Name:            in.PharmacyName,
		Email:           in.Email,
		LoginMethod:     loginMethodLocal,
		Role:            models.RoleUser,
		Status:          models.UserStatusPending,
		PharmacyName:    in.PharmacyName,
		PharmacyAddress: in.PharmacyAddress,
		PharmacyPhone:   in.PharmacyPhone,
	}
	if err := s.deps.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, storeError(err, "create user")
	}

	s.deps.Notifier.RegistrationReceived(user)
	s.audit(ctx, s.logger, models.AuditEntry{
		Action:   "register",
		EntityID: userEntity(user.ID),
		ActorID:  user.ID,
		Data:     map[string]interface{}{"username": user.Username, "pharmacy_name": user.PharmacyName},
	})
	return user, nil
}

// Authenticate resolves a session token to the principal it belongs to. The account is
// reloaded so that deleted or no longer approved accounts lose access immediately.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*Principal, error) {
	session, err := s.deps.Tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	user, err := s.deps.Users.GetByID(ctx, session.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: account no longer exists", ErrUnauthorized)
	}
	if err != nil {
		return nil, storeError(err, "load user")
	}
	if err := accountStatusError(user); err != nil {
		return nil, err
	}
	return PrincipalFromUser(user), nil
}

// Me returns the caller's account, or nil for anonymous callers.
func (s *AuthService) Me(ctx context.Context, p *Principal) (*models.User, error) {
	if p == nil {
		return nil, nil
	}
	user, err := s.deps.Users.GetByID(ctx, p.UserID)
	if err != nil {
		return nil, storeError(err, fmt.Sprintf("user %d", p.UserID))
	}
	return user, nil
}

// SessionTTL is how long issued tokens stay valid.
func (s *AuthService) SessionTTL() time.Duration {
	return s.deps.Tokens.TTL()
}
