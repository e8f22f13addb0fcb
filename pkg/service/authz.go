package service

import (
	"context"
	"fmt"

	"github.com/gemmoherb/portal/pkg/models"
)

// Principal is the authenticated caller of an operation.
type Principal struct {
	UserID   uint
	Username string
	Name     string
	Role     string
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == models.RoleAdmin
}

func PrincipalFromUser(u *models.User) *Principal {
	name := u.Name
	if name == "" {
		name = u.Username
	}
	return &Principal{UserID: u.ID, Username: u.Username, Name: name, Role: u.Role}
}

func RequireAuthenticated(p *Principal) error {
	if p == nil {
		return ErrUnauthorized
	}
	return nil
}

func RequireAdmin(p *Principal) error {
	if p == nil {
		return ErrUnauthorized
	}
	if !p.IsAdmin() {
		return fmt.Errorf("%w: admin access required", ErrForbidden)
	}
	return nil
}

// CanViewOrder allows admins and the order's owner.
func CanViewOrder(p *Principal, o *models.Order) error {
	if err := RequireAuthenticated(p); err != nil {
		return err
	}
	if p.IsAdmin() || o.UserID == p.UserID {
		return nil
	}
	return fmt.Errorf("%w: order %d belongs to another account", ErrForbidden, o.ID)
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored by WithPrincipal, or nil.
func PrincipalFrom(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}
