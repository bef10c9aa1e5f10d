package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/gosuda/tenantry/internal/domain"
)

type contextKey string

const (
	ContextKeyCompanyID contextKey = "company_id"
	ContextKeyUserID    contextKey = "user_id"
	ContextKeyUserRole  contextKey = "role"
	ContextKeyUser      contextKey = "user"
)

// WithIdentity stores the authenticated caller's identifiers in ctx. The
// caller also becomes the actor of any mutation made with the returned ctx.
func WithIdentity(ctx context.Context, companyID, userID uuid.UUID, role domain.Role) context.Context {
	ctx = domain.WithActor(ctx, userID)
	ctx = context.WithValue(ctx, ContextKeyCompanyID, companyID)
	ctx = context.WithValue(ctx, ContextKeyUserID, userID)
	ctx = context.WithValue(ctx, ContextKeyUserRole, role)
	return ctx
}

// WithUser stores the loaded caller and its identifiers in ctx.
func WithUser(ctx context.Context, u *domain.User) context.Context {
	ctx = WithIdentity(ctx, u.CompanyID, u.ID, u.Role)
	return context.WithValue(ctx, ContextKeyUser, u)
}

func CompanyIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	v, ok := ctx.Value(ContextKeyCompanyID).(uuid.UUID)
	return v, ok
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	v, ok := ctx.Value(ContextKeyUserID).(uuid.UUID)
	return v, ok
}

func RoleFromContext(ctx context.Context) (domain.Role, bool) {
	v, ok := ctx.Value(ContextKeyUserRole).(domain.Role)
	return v, ok
}

// UserFromContext returns the caller loaded by Auth.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	v, ok := ctx.Value(ContextKeyUser).(*domain.User)
	return v, ok && v != nil
}
