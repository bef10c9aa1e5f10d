package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/tenantry/internal/domain"
)

type CompanyOutput struct {
	Body *CompanyBody
}

type UpdateCompanyInput struct {
	Body struct {
		Subdomain *string `json:"subdomain,omitempty" maxLength:"255" doc:"New subdomain"`
		Name      *string `json:"name,omitempty" maxLength:"255" doc:"New display name"`
	}
}

type SettingsOutput struct {
	Body map[string]any
}

type SettingKeyInput struct {
	Key string `path:"key" minLength:"1" maxLength:"255" doc:"Setting key; surrounding whitespace is ignored"`
}

type PutSettingInput struct {
	Key  string `path:"key" minLength:"1" maxLength:"255" doc:"Setting key; surrounding whitespace is ignored"`
	Body struct {
		Value any `json:"value" doc:"Any JSON value"`
	}
}

// callerCompany loads the company of the authenticated caller.
func callerCompany(ctx context.Context, svc TenancyService) (*domain.User, *domain.Company, error) {
	me, err := currentUser(ctx)
	if err != nil {
		return nil, nil, err
	}
	company, err := svc.GetCompany(ctx, me.CompanyID)
	if err != nil {
		return nil, nil, mapError(err, "company", "load company")
	}
	return me, company, nil
}

// managedCompany is callerCompany plus the CanManageCompany check.
func managedCompany(ctx context.Context, svc TenancyService) (*domain.Company, error) {
	me, company, err := callerCompany(ctx, svc)
	if err != nil {
		return nil, err
	}
	if !me.CanManageCompany(company) {
		return nil, huma.Error403Forbidden("admin role required")
	}
	return company, nil
}

func RegisterCompanyRoutes(api huma.API, svc TenancyService) {
	huma.Register(api, huma.Operation{
		OperationID: "get-company",
		Method:      http.MethodGet,
		Path:        "/company",
		Summary:     "Get the caller's company",
		Tags:        []string{"Company"},
	}, func(ctx context.Context, _ *struct{}) (*CompanyOutput, error) {
		_, company, err := callerCompany(ctx, svc)
		if err != nil {
			return nil, err
		}
		return &CompanyOutput{Body: companyBody(company)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-company",
		Method:      http.MethodPatch,
		Path:        "/company",
		Summary:     "Update the caller's company",
		Tags:        []string{"Company"},
	}, func(ctx context.Context, input *UpdateCompanyInput) (*CompanyOutput, error) {
		company, err := managedCompany(ctx, svc)
		if err != nil {
			return nil, err
		}

		if input.Body.Subdomain != nil {
			company.Subdomain = *input.Body.Subdomain
		}
		if input.Body.Name != nil {
			company.Name = *input.Body.Name
		}

		if err := svc.UpdateCompany(ctx, company); err != nil {
			return nil, mapError(err, "company", "update company")
		}
		return &CompanyOutput{Body: companyBody(company)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "activate-company",
		Method:      http.MethodPost,
		Path:        "/company/activate",
		Summary:     "Activate the caller's company",
		Tags:        []string{"Company"},
	}, func(ctx context.Context, _ *struct{}) (*CompanyOutput, error) {
		company, err := managedCompany(ctx, svc)
		if err != nil {
			return nil, err
		}
		if err := svc.ActivateCompany(ctx, company); err != nil {
			return nil, mapError(err, "company", "activate company")
		}
		return &CompanyOutput{Body: companyBody(company)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "deactivate-company",
		Method:      http.MethodPost,
		Path:        "/company/deactivate",
		Summary:     "Deactivate the caller's company",
		Description: "Users of an inactive company can no longer log in or refresh tokens.",
		Tags:        []string{"Company"},
	}, func(ctx context.Context, _ *struct{}) (*CompanyOutput, error) {
		company, err := managedCompany(ctx, svc)
		if err != nil {
			return nil, err
		}
		if err := svc.DeactivateCompany(ctx, company); err != nil {
			return nil, mapError(err, "company", "deactivate company")
		}
		return &CompanyOutput{Body: companyBody(company)}, nil
	})

	registerSettingsRoutes(api, svc)
}

func registerSettingsRoutes(api huma.API, svc TenancyService) {
	huma.Register(api, huma.Operation{
		OperationID: "get-company-settings",
		Method:      http.MethodGet,
		Path:        "/company/settings",
		Summary:     "Get the company settings document",
		Tags:        []string{"Company"},
	}, func(ctx context.Context, _ *struct{}) (*SettingsOutput, error) {
		_, company, err := callerCompany(ctx, svc)
		if err != nil {
			return nil, err
		}
		return &SettingsOutput{Body: company.Settings().ToMap()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "put-company-setting",
		Method:      http.MethodPut,
		Path:        "/company/settings/{key}",
		Summary:     "Set one company setting",
		Tags:        []string{"Company"},
	}, func(ctx context.Context, input *PutSettingInput) (*SettingsOutput, error) {
		company, err := managedCompany(ctx, svc)
		if err != nil {
			return nil, err
		}
		if domain.SettingKey(input.Key) == "" {
			return nil, validationFailed(domain.NewValidationError("key", domain.MsgBlank), nil)
		}

		if err := svc.UpdateCompanySetting(ctx, company, input.Key, input.Body.Value); err != nil {
			return nil, mapError(err, "company", "update setting")
		}
		return &SettingsOutput{Body: company.Settings().ToMap()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-company-setting",
		Method:      http.MethodDelete,
		Path:        "/company/settings/{key}",
		Summary:     "Remove one company setting",
		Tags:        []string{"Company"},
	}, func(ctx context.Context, input *SettingKeyInput) (*SettingsOutput, error) {
		company, err := managedCompany(ctx, svc)
		if err != nil {
			return nil, err
		}
		if err := svc.DeleteCompanySetting(ctx, company, input.Key); err != nil {
			return nil, mapError(err, "company", "delete setting")
		}
		return &SettingsOutput{Body: company.Settings().ToMap()}, nil
	})
}
