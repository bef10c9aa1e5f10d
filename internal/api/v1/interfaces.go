package v1

import (
	"context"

	"github.com/google/uuid"

	"github.com/gosuda/tenantry/internal/domain"
	"github.com/gosuda/tenantry/internal/tenancy"
)

// AuthService abstracts authentication operations for handler testing.
// *auth.Service satisfies this interface.
type AuthService interface {
	Login(ctx context.Context, subdomain, email, password string) (accessToken, refreshToken string, err error)
	RefreshToken(ctx context.Context, refreshToken string) (string, error)
	IssueTokens(user *domain.User) (accessToken, refreshToken string, err error)
}

// TenancyService abstracts company and user management for handler testing.
// *tenancy.Service satisfies this interface.
type TenancyService interface {
	Signup(ctx context.Context, c *domain.Company, admin *domain.User, password string) error

	GetCompany(ctx context.Context, id uuid.UUID) (*domain.Company, error)
	UpdateCompany(ctx context.Context, c *domain.Company) error
	ActivateCompany(ctx context.Context, c *domain.Company) error
	DeactivateCompany(ctx context.Context, c *domain.Company) error
	UpdateCompanySetting(ctx context.Context, c *domain.Company, key string, value any) error
	DeleteCompanySetting(ctx context.Context, c *domain.Company, key string) error

	CreateUser(ctx context.Context, u *domain.User, password string) error
	GetUser(ctx context.Context, companyID, id uuid.UUID) (*domain.User, error)
	ListUsers(ctx context.Context, companyID uuid.UUID, filter tenancy.UserFilter) ([]*domain.User, error)
	UpdateUser(ctx context.Context, u *domain.User) error
	ChangePassword(ctx context.Context, u *domain.User, password string) error
	DestroyUser(ctx context.Context, u *domain.User) error
	ActivateUser(ctx context.Context, u *domain.User) error
	DeactivateUser(ctx context.Context, u *domain.User) error
}

// AuditReader reads the audit trail. domain.AuditRepository satisfies it.
type AuditReader interface {
	ListByCompany(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]*domain.AuditEntry, error)
	ListByResource(ctx context.Context, companyID uuid.UUID, resource string, resourceID uuid.UUID) ([]*domain.AuditEntry, error)
}
