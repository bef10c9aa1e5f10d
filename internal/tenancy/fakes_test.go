package tenancy_test

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/gosuda/tenantry/internal/domain"
)

var errStoreDown = errors.New("store down")

// memStore is an in-memory Store. The *Err fields force the matching
// operation to fail.
type memStore struct {
	mu        sync.Mutex
	companies map[uuid.UUID]*domain.Company
	users     map[uuid.UUID]*domain.User

	companyCreateErr error
	companyUpdateErr error
	companyDeleteErr error
	userCreateErr    error
	userUpdateErr    error
	saveActiveErr    error
	deletedCompanies []uuid.UUID
}

func newMemStore() *memStore {
	return &memStore{
		companies: make(map[uuid.UUID]*domain.Company),
		users:     make(map[uuid.UUID]*domain.User),
	}
}

func (m *memStore) Companies() domain.CompanyRepository { return (*memCompanies)(m) }
func (m *memStore) Users() domain.UserRepository        { return (*memUsers)(m) }

type memCompanies memStore

func (r *memCompanies) Create(_ context.Context, c *domain.Company) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.companyCreateErr != nil {
		return r.companyCreateErr
	}
	cp := *c
	r.companies[c.ID] = &cp
	return nil
}

func (r *memCompanies) GetByID(_ context.Context, id uuid.UUID) (*domain.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.companies[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *memCompanies) GetBySubdomain(_ context.Context, subdomain string) (*domain.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.companies {
		if c.Subdomain == subdomain {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memCompanies) SubdomainTaken(_ context.Context, subdomain string, excludeID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.companies {
		if c.Subdomain == subdomain && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memCompanies) Update(_ context.Context, c *domain.Company) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.companyUpdateErr != nil {
		return r.companyUpdateErr
	}
	if _, ok := r.companies[c.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *c
	r.companies[c.ID] = &cp
	return nil
}

func (r *memCompanies) SaveActive(_ context.Context, c *domain.Company) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.saveActiveErr != nil {
		return r.saveActiveErr
	}
	stored, ok := r.companies[c.ID]
	if !ok {
		return domain.ErrNotFound
	}
	stored.Active = c.Active
	return nil
}

func (r *memCompanies) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.companyDeleteErr != nil {
		return r.companyDeleteErr
	}
	if _, ok := r.companies[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.companies, id)
	for uid, u := range r.users {
		if u.CompanyID == id {
			delete(r.users, uid)
		}
	}
	r.deletedCompanies = append(r.deletedCompanies, id)
	return nil
}

func (r *memCompanies) List(_ context.Context) ([]*domain.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*domain.Company, 0, len(r.companies))
	for _, c := range r.companies {
		out = append(out, c)
	}
	return out, nil
}

func (r *memCompanies) ListByActive(_ context.Context, active bool) ([]*domain.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.Company
	for _, c := range r.companies {
		if c.Active == active {
			out = append(out, c)
		}
	}
	return out, nil
}

type memUsers memStore

func (r *memUsers) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.userCreateErr != nil {
		return r.userCreateErr
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memUsers) GetByID(_ context.Context, companyID, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok || u.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUsers) GetByEmail(_ context.Context, companyID uuid.UUID, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.CompanyID == companyID && u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memUsers) EmailTaken(_ context.Context, companyID uuid.UUID, email string, excludeID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.CompanyID == companyID && u.Email == email && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memUsers) Update(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.userUpdateErr != nil {
		return r.userUpdateErr
	}
	if _, ok := r.users[u.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memUsers) SaveActive(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.saveActiveErr != nil {
		return r.saveActiveErr
	}
	stored, ok := r.users[u.ID]
	if !ok {
		return domain.ErrNotFound
	}
	stored.Active = u.Active
	return nil
}

func (r *memUsers) Delete(_ context.Context, companyID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok || u.CompanyID != companyID {
		return domain.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *memUsers) ListByCompany(_ context.Context, companyID uuid.UUID) ([]*domain.User, error) {
	return r.filter(func(u *domain.User) bool { return u.CompanyID == companyID }), nil
}

func (r *memUsers) ListByRole(_ context.Context, companyID uuid.UUID, role domain.Role) ([]*domain.User, error) {
	return r.filter(func(u *domain.User) bool { return u.CompanyID == companyID && u.Role == role }), nil
}

func (r *memUsers) ListByActive(_ context.Context, companyID uuid.UUID, active bool) ([]*domain.User, error) {
	return r.filter(func(u *domain.User) bool { return u.CompanyID == companyID && u.Active == active }), nil
}

func (r *memUsers) ListByRoleAndActive(_ context.Context, companyID uuid.UUID, role domain.Role, active bool) ([]*domain.User, error) {
	return r.filter(func(u *domain.User) bool {
		return u.CompanyID == companyID && u.Role == role && u.Active == active
	}), nil
}

func (r *memUsers) filter(keep func(*domain.User) bool) []*domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.User
	for _, u := range r.users {
		if keep(u) {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, ev domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []domain.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]domain.EventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type plainHasher struct{}

func (plainHasher) Hash(p string) (string, error) { return "plain$" + p, nil }
func (plainHasher) Verify(p, encoded string) bool { return encoded == "plain$"+p }
