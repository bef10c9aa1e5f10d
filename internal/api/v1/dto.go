package v1

import (
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/tenantry/internal/domain"
)

type CompanyBody struct {
	ID        uuid.UUID      `json:"id"`
	Subdomain string         `json:"subdomain"`
	Name      string         `json:"name"`
	Active    bool           `json:"active"`
	Settings  map[string]any `json:"settings"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func companyBody(c *domain.Company) *CompanyBody {
	return &CompanyBody{
		ID:        c.ID,
		Subdomain: c.Subdomain,
		Name:      c.Name,
		Active:    c.Active,
		Settings:  c.Settings().ToMap(),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

type UserBody struct {
	ID        uuid.UUID `json:"id"`
	CompanyID uuid.UUID `json:"company_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role" enum:"employee,manager,admin"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	FullName  string    `json:"full_name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func userBody(u *domain.User) *UserBody {
	return &UserBody{
		ID:        u.ID,
		CompanyID: u.CompanyID,
		Email:     u.Email,
		Role:      u.Role.String(),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		FullName:  u.FullName(),
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func userBodies(users []*domain.User) []*UserBody {
	out := make([]*UserBody, 0, len(users))
	for _, u := range users {
		out = append(out, userBody(u))
	}
	return out
}
