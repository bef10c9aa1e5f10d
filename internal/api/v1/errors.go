package v1

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/tenantry/internal/domain"
	"github.com/gosuda/tenantry/internal/server/middleware"
)

// mapError converts a service error into a problem response. what names the
// resource in 404s and op describes the attempted action in 500s.
func mapError(err error, what, op string) error {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return validationFailed(verr, nil)
	case errors.Is(err, domain.ErrNotFound):
		return huma.Error404NotFound(what + " not found")
	case errors.Is(err, domain.ErrForbidden):
		return huma.Error403Forbidden("insufficient permissions")
	case errors.Is(err, domain.ErrConflict):
		return huma.Error409Conflict(what + " was modified concurrently")
	default:
		return huma.Error500InternalServerError("failed to "+op, err)
	}
}

// validationFailed reports every field message as a separate error detail.
// rename maps entity field names to request body field names where they
// differ.
func validationFailed(verr *domain.ValidationError, rename map[string]string) error {
	var details []error
	for _, field := range verr.Fields() {
		name := field
		if r, ok := rename[field]; ok {
			name = r
		}
		for _, msg := range verr.Messages(field) {
			details = append(details, &huma.ErrorDetail{
				Message:  name + " " + msg,
				Location: "body." + name,
			})
		}
	}
	return huma.Error422UnprocessableEntity("validation failed", details...)
}

// currentUser returns the caller loaded by the Auth middleware.
func currentUser(ctx context.Context) (*domain.User, error) {
	u, ok := middleware.UserFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("authentication required")
	}
	return u, nil
}
