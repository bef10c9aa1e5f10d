package v1_test

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/tenantry/internal/domain"
	"github.com/gosuda/tenantry/internal/server/middleware"
	"github.com/gosuda/tenantry/internal/tenancy"
)

// ---------------------------------------------------------------------------
// Context helpers: inject the caller into context for DoCtx
// ---------------------------------------------------------------------------

func userCtx(u *domain.User) context.Context {
	return middleware.WithUser(context.Background(), u)
}

// fixture returns a company with one user of each role.
func fixture() (company *domain.Company, admin, manager, employee *domain.User) {
	company = domain.NewCompany("acme", "Acme")

	admin = domain.NewUser(company.ID, "admin@acme.io")
	admin.Role = domain.RoleAdmin
	manager = domain.NewUser(company.ID, "manager@acme.io")
	manager.Role = domain.RoleManager
	employee = domain.NewUser(company.ID, "employee@acme.io")

	return company, admin, manager, employee
}

func ptr[T any](v T) *T { return &v }

// problem is the subset of huma's error model the tests inspect.
type problem struct {
	Status int    `json:"status"`
	Detail string `json:"detail"`
	Errors []struct {
		Message  string `json:"message"`
		Location string `json:"location"`
	} `json:"errors"`
}

func decode[T any](t *testing.T, r io.Reader) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(r).Decode(&v))
	return v
}

// ---------------------------------------------------------------------------
// Mock TenancyService
// ---------------------------------------------------------------------------

type mockTenancy struct {
	signupFunc        func(ctx context.Context, c *domain.Company, admin *domain.User, password string) error
	getCompanyFunc    func(ctx context.Context, id uuid.UUID) (*domain.Company, error)
	updateCompanyFunc func(ctx context.Context, c *domain.Company) error
	setActiveFunc     func(ctx context.Context, entity domain.Activatable, active bool) error
	updateSettingFunc func(ctx context.Context, c *domain.Company, key string, value any) error
	deleteSettingFunc func(ctx context.Context, c *domain.Company, key string) error

	createUserFunc     func(ctx context.Context, u *domain.User, password string) error
	getUserFunc        func(ctx context.Context, companyID, id uuid.UUID) (*domain.User, error)
	listUsersFunc      func(ctx context.Context, companyID uuid.UUID, filter tenancy.UserFilter) ([]*domain.User, error)
	updateUserFunc     func(ctx context.Context, u *domain.User) error
	changePasswordFunc func(ctx context.Context, u *domain.User, password string) error
	destroyUserFunc    func(ctx context.Context, u *domain.User) error
}

func (m *mockTenancy) Signup(ctx context.Context, c *domain.Company, admin *domain.User, password string) error {
	return m.signupFunc(ctx, c, admin, password)
}

func (m *mockTenancy) GetCompany(ctx context.Context, id uuid.UUID) (*domain.Company, error) {
	return m.getCompanyFunc(ctx, id)
}

func (m *mockTenancy) UpdateCompany(ctx context.Context, c *domain.Company) error {
	return m.updateCompanyFunc(ctx, c)
}

func (m *mockTenancy) ActivateCompany(ctx context.Context, c *domain.Company) error {
	return m.setActive(ctx, c, true)
}

func (m *mockTenancy) DeactivateCompany(ctx context.Context, c *domain.Company) error {
	return m.setActive(ctx, c, false)
}

func (m *mockTenancy) UpdateCompanySetting(ctx context.Context, c *domain.Company, key string, value any) error {
	return m.updateSettingFunc(ctx, c, key, value)
}

func (m *mockTenancy) DeleteCompanySetting(ctx context.Context, c *domain.Company, key string) error {
	return m.deleteSettingFunc(ctx, c, key)
}

func (m *mockTenancy) CreateUser(ctx context.Context, u *domain.User, password string) error {
	return m.createUserFunc(ctx, u, password)
}

func (m *mockTenancy) GetUser(ctx context.Context, companyID, id uuid.UUID) (*domain.User, error) {
	return m.getUserFunc(ctx, companyID, id)
}

func (m *mockTenancy) ListUsers(ctx context.Context, companyID uuid.UUID, filter tenancy.UserFilter) ([]*domain.User, error) {
	return m.listUsersFunc(ctx, companyID, filter)
}

func (m *mockTenancy) UpdateUser(ctx context.Context, u *domain.User) error {
	return m.updateUserFunc(ctx, u)
}

func (m *mockTenancy) ChangePassword(ctx context.Context, u *domain.User, password string) error {
	return m.changePasswordFunc(ctx, u, password)
}

func (m *mockTenancy) DestroyUser(ctx context.Context, u *domain.User) error {
	return m.destroyUserFunc(ctx, u)
}

func (m *mockTenancy) ActivateUser(ctx context.Context, u *domain.User) error {
	return m.setActive(ctx, u, true)
}

func (m *mockTenancy) DeactivateUser(ctx context.Context, u *domain.User) error {
	return m.setActive(ctx, u, false)
}

// setActive flips the flag in memory unless setActiveFunc overrides it.
func (m *mockTenancy) setActive(ctx context.Context, entity domain.Activatable, active bool) error {
	if m.setActiveFunc != nil {
		return m.setActiveFunc(ctx, entity, active)
	}
	entity.SetActive(active)
	return nil
}

// withUsers answers GetUser from the given users, scoped by company.
func (m *mockTenancy) withUsers(users ...*domain.User) *mockTenancy {
	m.getUserFunc = func(_ context.Context, companyID, id uuid.UUID) (*domain.User, error) {
		for _, u := range users {
			if u.ID == id && u.CompanyID == companyID {
				cp := *u
				return &cp, nil
			}
		}
		return nil, domain.ErrNotFound
	}
	return m
}

// withCompanies answers GetCompany from the given companies.
func (m *mockTenancy) withCompanies(companies ...*domain.Company) *mockTenancy {
	m.getCompanyFunc = func(_ context.Context, id uuid.UUID) (*domain.Company, error) {
		for _, c := range companies {
			if c.ID == id {
				cp := *c
				return &cp, nil
			}
		}
		return nil, domain.ErrNotFound
	}
	return m
}

// ---------------------------------------------------------------------------
// Mock AuthService
// ---------------------------------------------------------------------------

type mockAuthService struct {
	loginFunc        func(ctx context.Context, subdomain, email, password string) (string, string, error)
	refreshTokenFunc func(ctx context.Context, refreshToken string) (string, error)
	issueTokensFunc  func(user *domain.User) (string, string, error)
}

func (m *mockAuthService) Login(ctx context.Context, subdomain, email, password string) (accessToken, refreshToken string, err error) {
	return m.loginFunc(ctx, subdomain, email, password)
}

func (m *mockAuthService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	return m.refreshTokenFunc(ctx, refreshToken)
}

func (m *mockAuthService) IssueTokens(user *domain.User) (accessToken, refreshToken string, err error) {
	return m.issueTokensFunc(user)
}
