package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID
	CompanyID    uuid.UUID
	Email        string
	PasswordHash string `json:"-"` // argon2id
	Role         Role
	FirstName    string
	LastName     string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser returns an active employee of companyID with a fresh ID.
func NewUser(companyID uuid.UUID, email string) *User {
	now := time.Now()
	return &User{
		ID:        uuid.New(),
		CompanyID: companyID,
		Email:     email,
		Role:      RoleEmployee,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// EmailChecker reports whether email is used by a user of companyID other
// than excludeID.
type EmailChecker interface {
	EmailTaken(ctx context.Context, companyID uuid.UUID, email string, excludeID uuid.UUID) (bool, error)
}

type UserRepository interface {
	EmailChecker
	ActivationStore[*User]

	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, companyID, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, companyID uuid.UUID, email string) (*User, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, companyID, id uuid.UUID) error
	ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*User, error)
	ListByRole(ctx context.Context, companyID uuid.UUID, role Role) ([]*User, error)
	ListByActive(ctx context.Context, companyID uuid.UUID, active bool) ([]*User, error)
	ListByRoleAndActive(ctx context.Context, companyID uuid.UUID, role Role, active bool) ([]*User, error)
}

func (u *User) IsActive() bool        { return u.Active }
func (u *User) IsInactive() bool      { return !u.Active }
func (u *User) SetActive(active bool) { u.Active = active }

func (u *User) Activate(ctx context.Context, store ActivationStore[*User]) error {
	return Activate(ctx, store, u)
}

func (u *User) Deactivate(ctx context.Context, store ActivationStore[*User]) error {
	return Deactivate(ctx, store, u)
}

func (u *User) IsAdmin() bool    { return u.Role == RoleAdmin }
func (u *User) IsManager() bool  { return u.Role == RoleManager }
func (u *User) IsEmployee() bool { return u.Role == RoleEmployee }

// Normalize puts the email into canonical form. Validate calls it.
func (u *User) Normalize() {
	u.Email = NormalizeEmail(u.Email)
}

// Validate normalizes u and checks every field. Email uniqueness is scoped to
// the user's company.
func (u *User) Validate(ctx context.Context, checker EmailChecker) error {
	u.Normalize()

	verr := &ValidationError{}

	if blank(u.Email) {
		verr.Add("email", MsgBlank)
	}
	if tooLong(u.Email, MaxEmailLen) {
		verr.Add("email", tooLongMsg(MaxEmailLen))
	}
	if !blank(u.Email) && !ValidEmail(u.Email) {
		verr.Add("email", MsgInvalid)
	}
	if !blank(u.Email) && u.CompanyID != uuid.Nil {
		taken, err := checker.EmailTaken(ctx, u.CompanyID, u.Email, u.ID)
		if err != nil {
			return fmt.Errorf("domain.User.Validate: %w", err)
		}
		if taken {
			verr.Add("email", MsgTakenInTenant)
		}
	}

	if tooLong(u.FirstName, MaxPersonNameLen) {
		verr.Add("first_name", tooLongMsg(MaxPersonNameLen))
	}
	if tooLong(u.LastName, MaxPersonNameLen) {
		verr.Add("last_name", tooLongMsg(MaxPersonNameLen))
	}

	if u.CompanyID == uuid.Nil {
		verr.Add("company_id", MsgBlank)
	}
	if !u.Role.Valid() {
		verr.Add("role", MsgNotInList)
	}

	return verr.OrNil()
}

// FullName joins first and last name; empty when both are absent.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// DisplayName is the full name, falling back to the email.
func (u *User) DisplayName() string {
	if name := u.FullName(); name != "" {
		return name
	}
	return u.Email
}

func (u *User) String() string {
	return u.DisplayName()
}

// SameCompany reports whether other belongs to u's company. A nil other is
// never in the same company.
func (u *User) SameCompany(other *User) bool {
	return other != nil && other.CompanyID == u.CompanyID
}

// CanManageUsers reports whether u may administer users. With a nil target it
// answers the general capability question.
func (u *User) CanManageUsers(target *User) bool {
	if !u.IsAdmin() {
		return false
	}
	if target == nil {
		return true
	}
	return u.SameCompany(target)
}

// CanManageCompany reports whether u may administer target, which must be
// u's own company. With a nil target it answers the general capability
// question.
func (u *User) CanManageCompany(target *Company) bool {
	if !u.IsAdmin() {
		return false
	}
	if target == nil {
		return true
	}
	return target.ID == u.CompanyID
}

// CanBookForOthers reports whether u may act on behalf of target. Managers
// and admins qualify within their own company.
func (u *User) CanBookForOthers(target *User) bool {
	if !u.IsAdmin() && !u.IsManager() {
		return false
	}
	if target == nil {
		return true
	}
	return u.SameCompany(target)
}
