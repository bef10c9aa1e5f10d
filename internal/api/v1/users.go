package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/tenantry/internal/domain"
	"github.com/gosuda/tenantry/internal/tenancy"
)

type ListUsersInput struct {
	Role   string `query:"role" enum:"employee,manager,admin" doc:"Only users with this role"`
	Active string `query:"active" enum:"true,false" doc:"Only active or inactive users"`
}

type ListUsersOutput struct {
	Body []*UserBody
}

type CreateUserInput struct {
	Body struct {
		Email     string `json:"email" maxLength:"255" doc:"User email"`
		Password  string `json:"password" maxLength:"128" doc:"Initial password"` //nolint:gosec // G117: credential DTO
		Role      string `json:"role,omitempty" enum:"employee,manager,admin" default:"employee" doc:"Role inside the company"`
		FirstName string `json:"first_name,omitempty" maxLength:"255"`
		LastName  string `json:"last_name,omitempty" maxLength:"255"`
	}
}

type UserIDInput struct {
	ID uuid.UUID `path:"id" doc:"User ID"`
}

type UpdateUserInput struct {
	ID   uuid.UUID `path:"id" doc:"User ID"`
	Body struct {
		Email     *string `json:"email,omitempty" maxLength:"255"`
		Role      *string `json:"role,omitempty" enum:"employee,manager,admin"`
		FirstName *string `json:"first_name,omitempty" maxLength:"255"`
		LastName  *string `json:"last_name,omitempty" maxLength:"255"`
	}
}

type ChangePasswordInput struct {
	ID   uuid.UUID `path:"id" doc:"User ID"`
	Body struct {
		Password string `json:"password" maxLength:"128" doc:"New password"` //nolint:gosec // G117: credential DTO
	}
}

type UserOutput struct {
	Body *UserBody
}

type PermissionsOutput struct {
	Body struct {
		SameCompany      bool `json:"same_company"`
		CanManageUsers   bool `json:"can_manage_users"`
		CanManageCompany bool `json:"can_manage_company"`
		CanBookForOthers bool `json:"can_book_for_others"`
	}
}

// loadTarget fetches a user of the caller's company. Users of other
// companies are reported as not found.
func loadTarget(ctx context.Context, svc TenancyService, id uuid.UUID) (*domain.User, *domain.User, error) {
	me, err := currentUser(ctx)
	if err != nil {
		return nil, nil, err
	}
	target, err := svc.GetUser(ctx, me.CompanyID, id)
	if err != nil {
		return nil, nil, mapError(err, "user", "load user")
	}
	return me, target, nil
}

// managedTarget is loadTarget plus the CanManageUsers check.
func managedTarget(ctx context.Context, svc TenancyService, id uuid.UUID) (*domain.User, error) {
	me, target, err := loadTarget(ctx, svc, id)
	if err != nil {
		return nil, err
	}
	if !me.CanManageUsers(target) {
		return nil, huma.Error403Forbidden("admin role required")
	}
	return target, nil
}

func RegisterUserRoutes(api huma.API, svc TenancyService) {
	huma.Register(api, huma.Operation{
		OperationID: "list-users",
		Method:      http.MethodGet,
		Path:        "/users",
		Summary:     "List users of the caller's company",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *ListUsersInput) (*ListUsersOutput, error) {
		me, err := currentUser(ctx)
		if err != nil {
			return nil, err
		}

		var filter tenancy.UserFilter
		if input.Role != "" {
			role, err := domain.ParseRole(input.Role)
			if err != nil {
				return nil, huma.Error400BadRequest("invalid role", err)
			}
			filter.Role = &role
		}
		if input.Active != "" {
			active := input.Active == "true"
			filter.Active = &active
		}

		users, err := svc.ListUsers(ctx, me.CompanyID, filter)
		if err != nil {
			return nil, mapError(err, "user", "list users")
		}
		return &ListUsersOutput{Body: userBodies(users)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-user",
		Method:        http.MethodPost,
		Path:          "/users",
		Summary:       "Create a user in the caller's company",
		Tags:          []string{"Users"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateUserInput) (*UserOutput, error) {
		me, err := currentUser(ctx)
		if err != nil {
			return nil, err
		}
		if !me.CanManageUsers(nil) {
			return nil, huma.Error403Forbidden("admin role required")
		}

		u := domain.NewUser(me.CompanyID, input.Body.Email)
		u.FirstName = input.Body.FirstName
		u.LastName = input.Body.LastName
		if input.Body.Role != "" {
			role, err := domain.ParseRole(input.Body.Role)
			if err != nil {
				return nil, validationFailed(domain.NewValidationError("role", domain.MsgNotInList), nil)
			}
			u.Role = role
		}

		if err := svc.CreateUser(ctx, u, input.Body.Password); err != nil {
			return nil, mapError(err, "user", "create user")
		}
		return &UserOutput{Body: userBody(u)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-user",
		Method:      http.MethodGet,
		Path:        "/users/{id}",
		Summary:     "Get a user",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *UserIDInput) (*UserOutput, error) {
		_, target, err := loadTarget(ctx, svc, input.ID)
		if err != nil {
			return nil, err
		}
		return &UserOutput{Body: userBody(target)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-user",
		Method:      http.MethodPatch,
		Path:        "/users/{id}",
		Summary:     "Update a user",
		Description: "Admins may change every field. Users may change their own name fields.",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *UpdateUserInput) (*UserOutput, error) {
		me, target, err := loadTarget(ctx, svc, input.ID)
		if err != nil {
			return nil, err
		}

		privileged := input.Body.Email != nil || input.Body.Role != nil
		switch {
		case me.CanManageUsers(target):
		case me.ID == target.ID && !privileged:
		default:
			return nil, huma.Error403Forbidden("insufficient permissions")
		}

		if input.Body.Email != nil {
			target.Email = *input.Body.Email
		}
		if input.Body.Role != nil {
			role, err := domain.ParseRole(*input.Body.Role)
			if err != nil {
				return nil, validationFailed(domain.NewValidationError("role", domain.MsgNotInList), nil)
			}
			target.Role = role
		}
		if input.Body.FirstName != nil {
			target.FirstName = *input.Body.FirstName
		}
		if input.Body.LastName != nil {
			target.LastName = *input.Body.LastName
		}

		if err := svc.UpdateUser(ctx, target); err != nil {
			return nil, mapError(err, "user", "update user")
		}
		return &UserOutput{Body: userBody(target)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "change-user-password",
		Method:        http.MethodPut,
		Path:          "/users/{id}/password",
		Summary:       "Set a user's password",
		Description:   "Users may change their own password; admins may reset any password in their company.",
		Tags:          []string{"Users"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *ChangePasswordInput) (*struct{}, error) {
		me, target, err := loadTarget(ctx, svc, input.ID)
		if err != nil {
			return nil, err
		}
		if me.ID != target.ID && !me.CanManageUsers(target) {
			return nil, huma.Error403Forbidden("insufficient permissions")
		}

		if err := svc.ChangePassword(ctx, target, input.Body.Password); err != nil {
			return nil, mapError(err, "user", "change password")
		}
		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-user",
		Method:        http.MethodDelete,
		Path:          "/users/{id}",
		Summary:       "Delete a user",
		Tags:          []string{"Users"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *UserIDInput) (*struct{}, error) {
		target, err := managedTarget(ctx, svc, input.ID)
		if err != nil {
			return nil, err
		}
		if err := svc.DestroyUser(ctx, target); err != nil {
			return nil, mapError(err, "user", "delete user")
		}
		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "activate-user",
		Method:      http.MethodPost,
		Path:        "/users/{id}/activate",
		Summary:     "Activate a user",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *UserIDInput) (*UserOutput, error) {
		target, err := managedTarget(ctx, svc, input.ID)
		if err != nil {
			return nil, err
		}
		if err := svc.ActivateUser(ctx, target); err != nil {
			return nil, mapError(err, "user", "activate user")
		}
		return &UserOutput{Body: userBody(target)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "deactivate-user",
		Method:      http.MethodPost,
		Path:        "/users/{id}/deactivate",
		Summary:     "Deactivate a user",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *UserIDInput) (*UserOutput, error) {
		target, err := managedTarget(ctx, svc, input.ID)
		if err != nil {
			return nil, err
		}
		if err := svc.DeactivateUser(ctx, target); err != nil {
			return nil, mapError(err, "user", "deactivate user")
		}
		return &UserOutput{Body: userBody(target)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-user-permissions",
		Method:      http.MethodGet,
		Path:        "/users/{id}/permissions",
		Summary:     "What the caller may do with a user",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *UserIDInput) (*PermissionsOutput, error) {
		me, target, err := loadTarget(ctx, svc, input.ID)
		if err != nil {
			return nil, err
		}

		out := &PermissionsOutput{}
		out.Body.SameCompany = me.SameCompany(target)
		out.Body.CanManageUsers = me.CanManageUsers(target)
		out.Body.CanManageCompany = me.CanManageCompany(&domain.Company{ID: target.CompanyID})
		out.Body.CanBookForOthers = me.CanBookForOthers(target)
		return out, nil
	})
}
