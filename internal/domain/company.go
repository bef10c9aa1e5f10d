package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Company is a tenant: an isolated organization owning its users and a
// settings document.
type Company struct {
	ID        uuid.UUID
	Subdomain string
	Name      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time

	// SettingsJSON is the stored form of the settings document. Use
	// Settings/SetSettings rather than reading it directly.
	SettingsJSON string
}

// NewCompany returns an active company with a fresh ID.
func NewCompany(subdomain, name string) *Company {
	now := time.Now()
	return &Company{
		ID:        uuid.New(),
		Subdomain: subdomain,
		Name:      name,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SubdomainChecker reports whether a subdomain is in use by a company other
// than excludeID.
type SubdomainChecker interface {
	SubdomainTaken(ctx context.Context, subdomain string, excludeID uuid.UUID) (bool, error)
}

// CompanyUpdater persists every mutable company column.
type CompanyUpdater interface {
	Update(ctx context.Context, c *Company) error
}

type CompanyRepository interface {
	SubdomainChecker
	CompanyUpdater
	ActivationStore[*Company]

	Create(ctx context.Context, c *Company) error
	GetByID(ctx context.Context, id uuid.UUID) (*Company, error)
	GetBySubdomain(ctx context.Context, subdomain string) (*Company, error)
	// Delete removes the company and, by cascade, all of its users.
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*Company, error)
	ListByActive(ctx context.Context, active bool) ([]*Company, error)
}

func (c *Company) String() string {
	return c.Name
}

func (c *Company) IsActive() bool        { return c.Active }
func (c *Company) IsInactive() bool      { return !c.Active }
func (c *Company) SetActive(active bool) { c.Active = active }

func (c *Company) Activate(ctx context.Context, store ActivationStore[*Company]) error {
	return Activate(ctx, store, c)
}

func (c *Company) Deactivate(ctx context.Context, store ActivationStore[*Company]) error {
	return Deactivate(ctx, store, c)
}

// Normalize puts the subdomain into canonical form. Validate calls it.
func (c *Company) Normalize() {
	c.Subdomain = NormalizeSubdomain(c.Subdomain)
}

// Validate normalizes c and checks every field. It returns a
// *ValidationError listing all violations, or the lookup's error if the
// uniqueness check could not run.
func (c *Company) Validate(ctx context.Context, checker SubdomainChecker) error {
	c.Normalize()

	verr := &ValidationError{}

	if blank(c.Subdomain) {
		verr.Add("subdomain", MsgBlank)
	} else {
		taken, err := checker.SubdomainTaken(ctx, c.Subdomain, c.ID)
		if err != nil {
			return fmt.Errorf("domain.Company.Validate: %w", err)
		}
		if taken {
			verr.Add("subdomain", MsgTaken)
		}
	}
	if tooLong(c.Subdomain, MaxSubdomainLen) {
		verr.Add("subdomain", tooLongMsg(MaxSubdomainLen))
	}
	if !blank(c.Subdomain) && !ValidSubdomain(c.Subdomain) {
		verr.Add("subdomain", MsgSubdomainChar)
	}

	if blank(c.Name) {
		verr.Add("name", MsgBlank)
	}
	if tooLong(c.Name, MaxCompanyNameLen) {
		verr.Add("name", tooLongMsg(MaxCompanyNameLen))
	}

	return verr.OrNil()
}

// Settings decodes the stored settings document. It never fails: absent or
// malformed data yields an empty document.
func (c *Company) Settings() *Settings {
	return ParseSettings(c.SettingsJSON)
}

// Setting returns a single settings value.
func (c *Company) Setting(key string) (any, bool) {
	return c.Settings().Get(key)
}

// Settings keys that override the server-wide per-company request quota.
const (
	SettingRateLimitRPS   = "rate_limit_rps"
	SettingRateLimitBurst = "rate_limit_burst"
)

// RateLimit returns the company's request quota. Each part falls back to the
// given default unless the settings hold a positive number for it.
func (c *Company) RateLimit(defaultRPS float64, defaultBurst int) (float64, int) {
	settings := c.Settings()

	rps := defaultRPS
	if v, ok := positiveNumber(settings, SettingRateLimitRPS); ok {
		rps = v
	}

	burst := defaultBurst
	if v, ok := positiveNumber(settings, SettingRateLimitBurst); ok && v >= 1 {
		burst = int(v)
	}

	return rps, burst
}

func positiveNumber(s *Settings, key string) (float64, bool) {
	v, ok := s.Get(key)
	if !ok {
		return 0, false
	}

	var n float64
	switch x := v.(type) {
	case float64:
		n = x
	case int:
		n = float64(x)
	default:
		return 0, false
	}
	return n, n > 0
}

// SetSettings replaces the stored document in memory. It does not persist.
func (c *Company) SetSettings(s *Settings) error {
	if s == nil {
		s = NewSettings()
	}

	data, err := s.MarshalJSON()
	if err != nil {
		return fmt.Errorf("domain.Company.SetSettings: %w", err)
	}

	c.SettingsJSON = string(data)
	return nil
}

// UpdateSetting assigns a single key, keeping every other key, and persists
// the company. It does not run Validate: only the settings document changes,
// and a company loaded from the store already passed validation when saved.
func (c *Company) UpdateSetting(ctx context.Context, store CompanyUpdater, key string, value any) error {
	settings := c.Settings()
	settings.Set(key, value)

	return c.saveSettings(ctx, store, settings)
}

// DeleteSetting removes a single key and persists the company. Deleting an
// absent key still saves.
func (c *Company) DeleteSetting(ctx context.Context, store CompanyUpdater, key string) error {
	settings := c.Settings()
	settings.Delete(key)

	return c.saveSettings(ctx, store, settings)
}

func (c *Company) saveSettings(ctx context.Context, store CompanyUpdater, settings *Settings) error {
	prev := c.SettingsJSON
	if err := c.SetSettings(settings); err != nil {
		return err
	}

	if err := store.Update(ctx, c); err != nil {
		c.SettingsJSON = prev
		return err
	}

	return nil
}
