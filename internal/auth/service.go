package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/tenantry/internal/domain"
)

// Sentinel errors for the auth package.
var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrUserNotFound       = errors.New("auth: user not found")
)

// CompanyFinder is the read side of the company store used for login.
type CompanyFinder interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Company, error)
	GetBySubdomain(ctx context.Context, subdomain string) (*domain.Company, error)
}

// UserFinder is the read side of the user store used for login.
type UserFinder interface {
	GetByID(ctx context.Context, companyID, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, companyID uuid.UUID, email string) (*domain.User, error)
}

// Service provides authentication and authorization operations.
type Service struct {
	companies  CompanyFinder
	users      UserFinder
	hasher     PasswordHasher
	jwtSecret  string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewService creates a new auth service.
func NewService(companies CompanyFinder, users UserFinder, hasher PasswordHasher, jwtSecret string, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{
		companies:  companies,
		users:      users,
		hasher:     hasher,
		jwtSecret:  jwtSecret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Authenticate resolves the company by subdomain and checks the user's
// password. Unknown or inactive companies and users are reported the same
// way as a wrong password.
func (s *Service) Authenticate(ctx context.Context, subdomain, email, password string) (*domain.User, error) {
	company, err := s.companies.GetBySubdomain(ctx, domain.NormalizeSubdomain(subdomain))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("auth.Authenticate: %w", ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("auth.Authenticate: %w", err)
	}
	if company.IsInactive() {
		return nil, fmt.Errorf("auth.Authenticate: %w", ErrInvalidCredentials)
	}

	user, err := s.users.GetByEmail(ctx, company.ID, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("auth.Authenticate: %w", ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("auth.Authenticate: %w", err)
	}

	if user.IsInactive() || !s.hasher.Verify(password, user.PasswordHash) {
		return nil, fmt.Errorf("auth.Authenticate: %w", ErrInvalidCredentials)
	}

	return user, nil
}

// Login validates subdomain/email/password and returns access + refresh JWT tokens.
func (s *Service) Login(ctx context.Context, subdomain, email, password string) (accessToken, refreshToken string, err error) {
	user, err := s.Authenticate(ctx, subdomain, email, password)
	if err != nil {
		return "", "", fmt.Errorf("auth.Login: %w", err)
	}

	return s.IssueTokens(user)
}

// IssueTokens signs a fresh access + refresh pair for user.
func (s *Service) IssueTokens(user *domain.User) (accessToken, refreshToken string, err error) {
	accessToken, err = IssueAccessToken(s.jwtSecret, user.CompanyID, user.ID, user.Role, s.accessTTL)
	if err != nil {
		return "", "", fmt.Errorf("auth.IssueTokens: %w", err)
	}

	refreshToken, err = IssueRefreshToken(s.jwtSecret, user.CompanyID, user.ID, user.Role, s.refreshTTL)
	if err != nil {
		return "", "", fmt.Errorf("auth.IssueTokens: %w", err)
	}

	return accessToken, refreshToken, nil
}

// RefreshToken validates a refresh token and issues a new access token
// carrying the user's current role.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := ValidateToken(s.jwtSecret, refreshToken)
	if err != nil {
		return "", fmt.Errorf("auth.RefreshToken: %w", err)
	}

	if claims.TokenType != tokenTypeRefresh {
		return "", fmt.Errorf("auth.RefreshToken: %w", ErrInvalidToken)
	}

	companyID, userID, err := claims.IDs()
	if err != nil {
		return "", fmt.Errorf("auth.RefreshToken: %w", err)
	}

	user, err := s.users.GetByID(ctx, companyID, userID)
	if err != nil {
		return "", fmt.Errorf("auth.RefreshToken: %w", ErrUserNotFound)
	}
	if user.IsInactive() {
		return "", fmt.Errorf("auth.RefreshToken: %w", ErrInvalidCredentials)
	}

	company, err := s.companies.GetByID(ctx, companyID)
	if err != nil {
		return "", fmt.Errorf("auth.RefreshToken: %w", err)
	}
	if company.IsInactive() {
		return "", fmt.Errorf("auth.RefreshToken: %w", ErrInvalidCredentials)
	}

	newAccess, err := IssueAccessToken(s.jwtSecret, user.CompanyID, user.ID, user.Role, s.accessTTL)
	if err != nil {
		return "", fmt.Errorf("auth.RefreshToken: %w", err)
	}

	return newAccess, nil
}

// GetUser returns a user by ID (for middleware use).
func (s *Service) GetUser(ctx context.Context, companyID, userID uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, companyID, userID)
	if err != nil {
		return nil, fmt.Errorf("auth.GetUser: %w", err)
	}

	return user, nil
}
