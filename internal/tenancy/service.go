package tenancy

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/tenantry/internal/auth"
	"github.com/gosuda/tenantry/internal/domain"
)

// Store groups the repositories the service works against.
// *postgres.Store satisfies it.
type Store interface {
	Companies() domain.CompanyRepository
	Users() domain.UserRepository
}

// UserFilter narrows ListUsers. Nil fields match everything.
type UserFilter struct {
	Role   *domain.Role
	Active *bool
}

// Service runs validate, persist, publish for every company and user
// mutation.
type Service struct {
	store  Store
	hasher auth.PasswordHasher
	events domain.EventPublisher
}

// NewService builds the service. events may be nil, in which case nothing
// is published.
func NewService(store Store, hasher auth.PasswordHasher, events domain.EventPublisher) *Service {
	return &Service{
		store:  store,
		hasher: hasher,
		events: events,
	}
}

// ---------------------------------------------------------------------------
// Companies
// ---------------------------------------------------------------------------

func (s *Service) CreateCompany(ctx context.Context, c *domain.Company) error {
	companies := s.store.Companies()

	if err := c.Validate(ctx, companies); err != nil {
		return fmt.Errorf("tenancy.CreateCompany: %w", err)
	}
	if err := companies.Create(ctx, c); err != nil {
		return fmt.Errorf("tenancy.CreateCompany: %w", err)
	}

	s.publish(ctx, domain.NewCompanyEvent(domain.EventCompanyCreated, c, map[string]any{"subdomain": c.Subdomain}))
	return nil
}

func (s *Service) UpdateCompany(ctx context.Context, c *domain.Company) error {
	companies := s.store.Companies()

	if err := c.Validate(ctx, companies); err != nil {
		return fmt.Errorf("tenancy.UpdateCompany: %w", err)
	}
	if err := companies.Update(ctx, c); err != nil {
		return fmt.Errorf("tenancy.UpdateCompany: %w", err)
	}

	s.publish(ctx, domain.NewCompanyEvent(domain.EventCompanyUpdated, c, nil))
	return nil
}

// DestroyCompany deletes the company together with all of its users.
func (s *Service) DestroyCompany(ctx context.Context, c *domain.Company) error {
	if err := s.store.Companies().Delete(ctx, c.ID); err != nil {
		return fmt.Errorf("tenancy.DestroyCompany: %w", err)
	}

	s.publish(ctx, domain.NewCompanyEvent(domain.EventCompanyDestroyed, c, nil))
	return nil
}

func (s *Service) ActivateCompany(ctx context.Context, c *domain.Company) error {
	if err := c.Activate(ctx, s.store.Companies()); err != nil {
		return fmt.Errorf("tenancy.ActivateCompany: %w", err)
	}

	s.publish(ctx, domain.NewCompanyEvent(domain.EventCompanyActivated, c, nil))
	return nil
}

func (s *Service) DeactivateCompany(ctx context.Context, c *domain.Company) error {
	if err := c.Deactivate(ctx, s.store.Companies()); err != nil {
		return fmt.Errorf("tenancy.DeactivateCompany: %w", err)
	}

	s.publish(ctx, domain.NewCompanyEvent(domain.EventCompanyDeactivated, c, nil))
	return nil
}

func (s *Service) UpdateCompanySetting(ctx context.Context, c *domain.Company, key string, value any) error {
	if err := c.UpdateSetting(ctx, s.store.Companies(), key, value); err != nil {
		return fmt.Errorf("tenancy.UpdateCompanySetting: %w", err)
	}

	s.publish(ctx, domain.NewCompanyEvent(domain.EventCompanySettingUpdated, c,
		map[string]any{"key": domain.SettingKey(key), "value": value}))
	return nil
}

func (s *Service) DeleteCompanySetting(ctx context.Context, c *domain.Company, key string) error {
	if err := c.DeleteSetting(ctx, s.store.Companies(), key); err != nil {
		return fmt.Errorf("tenancy.DeleteCompanySetting: %w", err)
	}

	s.publish(ctx, domain.NewCompanyEvent(domain.EventCompanySettingDeleted, c,
		map[string]any{"key": domain.SettingKey(key)}))
	return nil
}

func (s *Service) GetCompany(ctx context.Context, id uuid.UUID) (*domain.Company, error) {
	c, err := s.store.Companies().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("tenancy.GetCompany: %w", err)
	}
	return c, nil
}

func (s *Service) GetCompanyBySubdomain(ctx context.Context, subdomain string) (*domain.Company, error) {
	c, err := s.store.Companies().GetBySubdomain(ctx, domain.NormalizeSubdomain(subdomain))
	if err != nil {
		return nil, fmt.Errorf("tenancy.GetCompanyBySubdomain: %w", err)
	}
	return c, nil
}

// ListCompanies returns all companies, or only the active or inactive ones
// when active is set.
func (s *Service) ListCompanies(ctx context.Context, active *bool) ([]*domain.Company, error) {
	var (
		companies []*domain.Company
		err       error
	)
	if active != nil {
		companies, err = s.store.Companies().ListByActive(ctx, *active)
	} else {
		companies, err = s.store.Companies().List(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("tenancy.ListCompanies: %w", err)
	}
	return companies, nil
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

// CreateUser validates u, hashes password into it and stores it.
func (s *Service) CreateUser(ctx context.Context, u *domain.User, password string) error {
	users := s.store.Users()

	if err := s.validateUser(ctx, u, password, true); err != nil {
		return fmt.Errorf("tenancy.CreateUser: %w", err)
	}
	if err := s.setPassword(u, password); err != nil {
		return fmt.Errorf("tenancy.CreateUser: %w", err)
	}
	if err := users.Create(ctx, u); err != nil {
		return fmt.Errorf("tenancy.CreateUser: %w", err)
	}

	s.publish(ctx, domain.NewUserEvent(domain.EventUserCreated, u, map[string]any{"role": u.Role.String()}))
	return nil
}

func (s *Service) UpdateUser(ctx context.Context, u *domain.User) error {
	if err := s.validateUser(ctx, u, "", false); err != nil {
		return fmt.Errorf("tenancy.UpdateUser: %w", err)
	}
	if err := s.store.Users().Update(ctx, u); err != nil {
		return fmt.Errorf("tenancy.UpdateUser: %w", err)
	}

	s.publish(ctx, domain.NewUserEvent(domain.EventUserUpdated, u, map[string]any{"role": u.Role.String()}))
	return nil
}

// ChangePassword replaces the stored digest. The previous digest is kept in
// memory if the save fails.
func (s *Service) ChangePassword(ctx context.Context, u *domain.User, password string) error {
	if password == "" {
		return fmt.Errorf("tenancy.ChangePassword: %w", domain.NewValidationError("password", domain.MsgBlank))
	}

	prev := u.PasswordHash
	if err := s.setPassword(u, password); err != nil {
		return fmt.Errorf("tenancy.ChangePassword: %w", err)
	}
	if err := s.store.Users().Update(ctx, u); err != nil {
		u.PasswordHash = prev
		return fmt.Errorf("tenancy.ChangePassword: %w", err)
	}

	s.publish(ctx, domain.NewUserEvent(domain.EventUserUpdated, u, map[string]any{"password_changed": true}))
	return nil
}

func (s *Service) DestroyUser(ctx context.Context, u *domain.User) error {
	if err := s.store.Users().Delete(ctx, u.CompanyID, u.ID); err != nil {
		return fmt.Errorf("tenancy.DestroyUser: %w", err)
	}

	s.publish(ctx, domain.NewUserEvent(domain.EventUserDestroyed, u, nil))
	return nil
}

func (s *Service) ActivateUser(ctx context.Context, u *domain.User) error {
	if err := u.Activate(ctx, s.store.Users()); err != nil {
		return fmt.Errorf("tenancy.ActivateUser: %w", err)
	}

	s.publish(ctx, domain.NewUserEvent(domain.EventUserActivated, u, nil))
	return nil
}

func (s *Service) DeactivateUser(ctx context.Context, u *domain.User) error {
	if err := u.Deactivate(ctx, s.store.Users()); err != nil {
		return fmt.Errorf("tenancy.DeactivateUser: %w", err)
	}

	s.publish(ctx, domain.NewUserEvent(domain.EventUserDeactivated, u, nil))
	return nil
}

func (s *Service) GetUser(ctx context.Context, companyID, id uuid.UUID) (*domain.User, error) {
	u, err := s.store.Users().GetByID(ctx, companyID, id)
	if err != nil {
		return nil, fmt.Errorf("tenancy.GetUser: %w", err)
	}
	return u, nil
}

// ListUsers returns the company's users matching filter.
func (s *Service) ListUsers(ctx context.Context, companyID uuid.UUID, filter UserFilter) ([]*domain.User, error) {
	users := s.store.Users()

	var (
		list []*domain.User
		err  error
	)
	switch {
	case filter.Role != nil && filter.Active != nil:
		list, err = users.ListByRoleAndActive(ctx, companyID, *filter.Role, *filter.Active)
	case filter.Role != nil:
		list, err = users.ListByRole(ctx, companyID, *filter.Role)
	case filter.Active != nil:
		list, err = users.ListByActive(ctx, companyID, *filter.Active)
	default:
		list, err = users.ListByCompany(ctx, companyID)
	}
	if err != nil {
		return nil, fmt.Errorf("tenancy.ListUsers: %w", err)
	}

	return list, nil
}

// ---------------------------------------------------------------------------
// Signup
// ---------------------------------------------------------------------------

// Signup creates a company together with its first admin. If the admin
// cannot be stored the company is deleted again.
func (s *Service) Signup(ctx context.Context, c *domain.Company, admin *domain.User, password string) error {
	companies := s.store.Companies()
	users := s.store.Users()

	admin.CompanyID = c.ID
	admin.Role = domain.RoleAdmin

	if err := c.Validate(ctx, companies); err != nil {
		return fmt.Errorf("tenancy.Signup: %w", err)
	}
	if err := s.validateUser(ctx, admin, password, true); err != nil {
		return fmt.Errorf("tenancy.Signup: %w", err)
	}
	if err := s.setPassword(admin, password); err != nil {
		return fmt.Errorf("tenancy.Signup: %w", err)
	}

	if err := companies.Create(ctx, c); err != nil {
		return fmt.Errorf("tenancy.Signup: %w", err)
	}
	if err := users.Create(ctx, admin); err != nil {
		if delErr := companies.Delete(ctx, c.ID); delErr != nil {
			log.Error().Err(delErr).Str("company_id", c.ID.String()).Msg("tenancy.Signup: failed to remove company after admin create failure")
		}
		return fmt.Errorf("tenancy.Signup: %w", err)
	}

	s.publish(ctx, domain.NewCompanyEvent(domain.EventCompanyCreated, c, map[string]any{"subdomain": c.Subdomain}))
	s.publish(ctx, domain.NewUserEvent(domain.EventUserCreated, admin, map[string]any{"role": admin.Role.String()}))
	return nil
}

// Seed makes sure a company with the given subdomain exists and has an admin
// with the given email. Existing records are returned unchanged.
func (s *Service) Seed(ctx context.Context, subdomain, name, email, password string) (*domain.Company, *domain.User, error) {
	company, err := s.GetCompanyBySubdomain(ctx, subdomain)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		company = domain.NewCompany(subdomain, name)
		admin := domain.NewUser(company.ID, email)
		if err := s.Signup(ctx, company, admin, password); err != nil {
			return nil, nil, fmt.Errorf("tenancy.Seed: %w", err)
		}
		return company, admin, nil
	case err != nil:
		return nil, nil, fmt.Errorf("tenancy.Seed: %w", err)
	}

	admin, err := s.store.Users().GetByEmail(ctx, company.ID, domain.NormalizeEmail(email))
	switch {
	case errors.Is(err, domain.ErrNotFound):
		admin = domain.NewUser(company.ID, email)
		admin.Role = domain.RoleAdmin
		if err := s.CreateUser(ctx, admin, password); err != nil {
			return nil, nil, fmt.Errorf("tenancy.Seed: %w", err)
		}
	case err != nil:
		return nil, nil, fmt.Errorf("tenancy.Seed: %w", err)
	}

	return company, admin, nil
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

// validateUser runs the entity checks and, when requirePassword is set, adds
// a password presence error to the same result.
func (s *Service) validateUser(ctx context.Context, u *domain.User, password string, requirePassword bool) error {
	err := u.Validate(ctx, s.store.Users())

	var verr *domain.ValidationError
	if err != nil && !errors.As(err, &verr) {
		return err
	}
	if verr == nil {
		verr = &domain.ValidationError{}
	}

	if requirePassword && password == "" {
		verr.Add("password", domain.MsgBlank)
	}

	return verr.OrNil()
}

func (s *Service) setPassword(u *domain.User, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

// publish sends ev when a publisher is configured. Failures are logged and
// never fail the mutation that produced the event.
func (s *Service) publish(ctx context.Context, ev domain.Event) {
	if s.events == nil {
		return
	}
	if actor, ok := domain.ActorFromContext(ctx); ok {
		ev.ActorID = actor
	}

	if err := s.events.PublishEvent(ctx, ev); err != nil {
		log.Warn().Err(err).
			Str("event", string(ev.Type)).
			Str("company_id", ev.CompanyID.String()).
			Msg("tenancy: failed to publish event")
	}
}
