package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/tenantry/internal/auth"
	"github.com/gosuda/tenantry/internal/domain"
)

type SignupInput struct {
	Body struct {
		Subdomain   string `json:"subdomain" maxLength:"255" doc:"Company subdomain; trimmed and lowercased"`
		CompanyName string `json:"company_name" maxLength:"255" doc:"Company display name"`
		Email       string `json:"email" maxLength:"255" doc:"Admin email"`
		Password    string `json:"password" maxLength:"128" doc:"Admin password"` //nolint:gosec // G117: signup credential DTO
		FirstName   string `json:"first_name,omitempty" maxLength:"255" doc:"Admin first name"`
		LastName    string `json:"last_name,omitempty" maxLength:"255" doc:"Admin last name"`
	}
}

type SignupOutput struct {
	Body struct {
		Company      *CompanyBody `json:"company"`
		User         *UserBody    `json:"user"`
		AccessToken  string       `json:"access_token"`  //nolint:gosec // G117: auth response DTO
		RefreshToken string       `json:"refresh_token"` //nolint:gosec // G117: auth response DTO
	}
}

type LoginInput struct {
	Body struct {
		Subdomain string `json:"subdomain" minLength:"1" maxLength:"255" doc:"Company subdomain"`
		Email     string `json:"email" minLength:"3" maxLength:"255" doc:"User email"`
		Password  string `json:"password" minLength:"1" maxLength:"128" doc:"Password"` //nolint:gosec // G117: login credential DTO
	}
}

type LoginOutput struct {
	Body struct {
		AccessToken  string `json:"access_token"`  //nolint:gosec // G117: auth response DTO
		RefreshToken string `json:"refresh_token"` //nolint:gosec // G117: auth response DTO
	}
}

type RefreshInput struct {
	Body struct {
		RefreshToken string `json:"refresh_token" minLength:"1" doc:"Refresh token"` //nolint:gosec // G117: token refresh DTO
	}
}

type RefreshOutput struct {
	Body struct {
		AccessToken string `json:"access_token"` //nolint:gosec // G117: auth response DTO
	}
}

// signupRename points company validation messages at the signup body fields.
var signupRename = map[string]string{"name": "company_name"}

// RegisterAuthRoutes wires the unauthenticated signup, login and refresh
// operations.
func RegisterAuthRoutes(api huma.API, svc TenancyService, authSvc AuthService) {
	huma.Register(api, huma.Operation{
		OperationID:   "signup",
		Method:        http.MethodPost,
		Path:          "/signup",
		Summary:       "Create a company with its first admin",
		Tags:          []string{"Auth"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *SignupInput) (*SignupOutput, error) {
		company := domain.NewCompany(input.Body.Subdomain, input.Body.CompanyName)
		admin := domain.NewUser(uuid.Nil, input.Body.Email)
		admin.FirstName = input.Body.FirstName
		admin.LastName = input.Body.LastName

		if err := svc.Signup(ctx, company, admin, input.Body.Password); err != nil {
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				return nil, validationFailed(verr, signupRename)
			}
			return nil, huma.Error500InternalServerError("failed to sign up", err)
		}

		accessToken, refreshToken, err := authSvc.IssueTokens(admin)
		if err != nil {
			return nil, huma.Error500InternalServerError("signed up but failed to issue tokens", err)
		}

		out := &SignupOutput{}
		out.Body.Company = companyBody(company)
		out.Body.User = userBody(admin)
		out.Body.AccessToken = accessToken
		out.Body.RefreshToken = refreshToken
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/auth/login",
		Summary:     "Login with subdomain, email and password",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
		accessToken, refreshToken, err := authSvc.Login(ctx, input.Body.Subdomain, input.Body.Email, input.Body.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				return nil, huma.Error401Unauthorized("invalid email or password")
			}
			return nil, huma.Error500InternalServerError("login failed", err)
		}

		out := &LoginOutput{}
		out.Body.AccessToken = accessToken
		out.Body.RefreshToken = refreshToken
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "refresh-token",
		Method:      http.MethodPost,
		Path:        "/auth/refresh",
		Summary:     "Refresh access token",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *RefreshInput) (*RefreshOutput, error) {
		accessToken, err := authSvc.RefreshToken(ctx, input.Body.RefreshToken)
		if err != nil {
			return nil, huma.Error401Unauthorized("invalid or expired refresh token")
		}

		out := &RefreshOutput{}
		out.Body.AccessToken = accessToken
		return out, nil
	})
}

type MeOutput struct {
	Body *UserBody
}

// RegisterMeRoutes wires GET /me for an authenticated caller.
func RegisterMeRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-me",
		Method:      http.MethodGet,
		Path:        "/me",
		Summary:     "Current user",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, _ *struct{}) (*MeOutput, error) {
		me, err := currentUser(ctx)
		if err != nil {
			return nil, err
		}
		return &MeOutput{Body: userBody(me)}, nil
	})
}
