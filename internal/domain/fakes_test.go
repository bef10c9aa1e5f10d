package domain_test

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/gosuda/tenantry/internal/domain"
)

var errStoreDown = errors.New("pg: connection refused")

// fakeSubdomainChecker treats every subdomain in taken as used by another
// company.
type fakeSubdomainChecker struct {
	taken map[string]bool
	err   error

	lastSubdomain string
}

func (f *fakeSubdomainChecker) SubdomainTaken(_ context.Context, subdomain string, _ uuid.UUID) (bool, error) {
	f.lastSubdomain = subdomain
	if f.err != nil {
		return false, f.err
	}
	return f.taken[subdomain], nil
}

// fakeEmailChecker records existing users and answers the company-scoped
// uniqueness question the same way the store does.
type fakeEmailChecker struct {
	users []*domain.User
	err   error
}

func (f *fakeEmailChecker) EmailTaken(_ context.Context, companyID uuid.UUID, email string, excludeID uuid.UUID) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for _, u := range f.users {
		if u.CompanyID == companyID && u.Email == email && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

// fakeCompanyStore counts saves and can be made to fail.
type fakeCompanyStore struct {
	err     error
	updates int
	saved   []bool
	lastRaw string
}

func (f *fakeCompanyStore) Update(_ context.Context, c *domain.Company) error {
	f.updates++
	if f.err != nil {
		return f.err
	}
	f.lastRaw = c.SettingsJSON
	return nil
}

func (f *fakeCompanyStore) SaveActive(_ context.Context, c *domain.Company) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, c.Active)
	return nil
}

type fakeUserStore struct {
	err   error
	saved []bool
}

func (f *fakeUserStore) SaveActive(_ context.Context, u *domain.User) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, u.Active)
	return nil
}

func newUser(companyID uuid.UUID, role domain.Role) *domain.User {
	u := domain.NewUser(companyID, "someone@example.com")
	u.Role = role
	return u
}
