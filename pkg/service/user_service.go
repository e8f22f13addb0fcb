package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gemmoherb/portal/pkg/auth"
	"github.com/gemmoherb/portal/pkg/models"
	"github.com/gemmoherb/portal/pkg/repository"
	"go.uber.org/zap"
)

type UserService struct {
	*base
	logger *zap.Logger
}

type CreateUserInput struct {
	RegisterInput
	Role   string `json:"role" validate:"omitempty,oneof=user admin"`
	Status string `json:"status" validate:"omitempty,oneof=pending approved rejected"`
}

type UserPatch struct {
	Email           *string `json:"email" validate:"omitempty,email"`
	PharmacyName    *string `json:"pharmacy_name" validate:"omitempty,max=255"`
	PharmacyAddress *string `json:"pharmacy_address"`
	PharmacyPhone   *string `json:"pharmacy_phone" validate:"omitempty,max=20"`
	Status          *string `json:"status" validate:"omitempty,oneof=pending approved rejected"`
}

func userEntity(id uint) string {
	return fmt.Sprintf("user:%d", id)
}

func (s *UserService) List(ctx context.Context, p *Principal) ([]models.User, error) {
	if err := RequireAdmin(p); err != nil {
		return nil, err
	}
	users, err := s.deps.Users.List(ctx)
	if err != nil {
		return nil, storeError(err, "list users")
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, p *Principal, id uint) (*models.User, error) {
	if err := RequireAuthenticated(p); err != nil {
		return nil, err
	}
	user, err := s.deps.Users.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, fmt.Sprintf("user %d", id))
	}
	return user, nil
}

// Create adds an account on behalf of an admin. Role defaults to user and status to approved.
func (s *UserService) Create(ctx context.Context, p *Principal, in CreateUserInput) (*models.User, error) {
	if err := RequireAdmin(p); err != nil {
		return nil, err
	}
	if err := s.check(in); err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = models.RoleUser
	}
	if in.Status == "" {
		in.Status = models.UserStatusApproved
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
		Role:            in.Role,
		Status:          in.Status,
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
	s.audit(ctx, s.logger, models.AuditEntry{
		Action:   "create_user",
		EntityID: userEntity(user.ID),
		ActorID:  p.UserID,
		Data:     map[string]interface{}{"username": user.Username, "role": user.Role, "status": user.Status},
	})
	return user, nil
}

func (s *UserService) Approve(ctx context.Context, p *Principal, id uint) (*models.User, error) {
	return s.setStatus(ctx, p, id, models.UserStatusApproved)
}

func (s *UserService) Reject(ctx context.Context, p *Principal, id uint) (*models.User, error) {
	return s.setStatus(ctx, p, id, models.UserStatusRejected)
}

func (s *UserService) setStatus(ctx context.Context, p *Principal, id uint, status string) (*models.User, error) {
	return s.Update(ctx, p, id, UserPatch{Status: &status})
}

// Update changes an account's profile. The display name follows the pharmacy name.
func (s *UserService) Update(ctx context.Context, p *Principal, id uint, patch UserPatch) (*models.User, error) {
	if err := RequireAdmin(p); err != nil {
		return nil, err
	}
	if err := s.check(patch); err != nil {
		return nil, err
	}
	var user *models.User
	err := s.deps.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.deps.Users.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if patch.Email != nil {
			user.Email = *patch.Email
		}
		if patch.PharmacyName != nil {
			user.PharmacyName = *patch.PharmacyName
			user.Name = *patch.PharmacyName
		}
		if patch.PharmacyAddress != nil {
			user.PharmacyAddress = *patch.PharmacyAddress
		}
		if patch.PharmacyPhone != nil {
			user.PharmacyPhone = *patch.PharmacyPhone
		}
		if patch.Status != nil {
			user.Status = *patch.Status
		}
		return s.deps.Users.Update(ctx, user)
	})
	if err != nil {
		return nil, storeError(err, fmt.Sprintf("user %d", id))
	}
	s.audit(ctx, s.logger, models.AuditEntry{
		Action:   "update_user",
		EntityID: userEntity(id),
		ActorID:  p.UserID,
		Data:     map[string]interface{}{"status": user.Status},
	})
	return user, nil
}

// Delete removes an account. Admins cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, p *Principal, id uint) error {
	if err := RequireAdmin(p); err != nil {
		return err
	}
	if id == p.UserID {
		return invalid("cannot delete your own account")
	}
	if err := s.deps.Users.Delete(ctx, id); err != nil {
		return storeError(err, fmt.Sprintf("user %d", id))
	}
	s.audit(ctx, s.logger, models.AuditEntry{Action: "delete_user", EntityID: userEntity(id), ActorID: p.UserID})
	return nil
}

// EnsureAdmin creates an approved admin account unless the username already exists.
// It returns the account and reports whether it was created.
func (s *UserService) EnsureAdmin(ctx context.Context, username, password, email, name string) (*models.User, bool, error) {
	if len(password) < 6 {
		return nil, false, invalid("admin password must be at least 6 characters")
	}
	existing, err := s.deps.Users.GetByUsername(ctx, username)
	if err == nil {
		if !existing.IsAdmin() {
			return nil, false, fmt.Errorf("user %q exists without admin role: %w", username, ErrConflict)
		}
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, storeError(err, "load admin")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, false, fmt.Errorf("hash password: %w", err)
	}
	admin := &models.User{
		Username:    username,
		Password:    hash,
		Name:        name,
		Email:       email,
		LoginMethod: loginMethodLocal,
		Role:        models.RoleAdmin,
		Status:      models.UserStatusApproved,
	}
	if err := s.deps.Users.Create(ctx, admin); err != nil {
		return nil, false, storeError(err, "create admin")
	}
	s.logger.Info("Admin account created", zap.String("username", username), zap.Uint("user_id", admin.ID))
	s.audit(ctx, s.logger, models.AuditEntry{Action: "create_admin", EntityID: userEntity(admin.ID)})
	return admin, true, nil
}
