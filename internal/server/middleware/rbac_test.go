package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/tenantry/internal/domain"
	"github.com/gosuda/tenantry/internal/server/middleware"
)

// setRole injects a role into the request context using the same context key
// that the Auth middleware uses.
func setRole(r *http.Request, role domain.Role) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.ContextKeyUserRole, role)
	return r.WithContext(ctx)
}

// okHandler is a simple handler that writes 200 OK.
var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRequireRole_AllowsMatchingRole(t *testing.T) {
	t.Parallel()

	for _, role := range domain.Roles() {
		t.Run(role.String(), func(t *testing.T) {
			t.Parallel()

			handler := middleware.RequireRole(role)(okHandler)
			req := setRole(httptest.NewRequest(http.MethodGet, "/", http.NoBody), role)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestRequireRole_BlocksNonMatchingRole(t *testing.T) {
	t.Parallel()

	handler := middleware.RequireRole(domain.RoleAdmin)(okHandler)
	req := setRole(httptest.NewRequest(http.MethodGet, "/", http.NoBody), domain.RoleManager)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "insufficient permissions")
}

func TestRequireRole_AnyOfSeveral(t *testing.T) {
	t.Parallel()

	handler := middleware.RequireRole(domain.RoleManager, domain.RoleAdmin)(okHandler)

	tests := []struct {
		role       domain.Role
		wantStatus int
	}{
		{role: domain.RoleAdmin, wantStatus: http.StatusOK},
		{role: domain.RoleManager, wantStatus: http.StatusOK},
		{role: domain.RoleEmployee, wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.role.String(), func(t *testing.T) {
			t.Parallel()

			req := setRole(httptest.NewRequest(http.MethodGet, "/", http.NoBody), tt.role)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRequireAdmin_ConvenienceWrapper(t *testing.T) {
	t.Parallel()

	handler := middleware.RequireAdmin()(okHandler)

	tests := []struct {
		role       domain.Role
		wantStatus int
	}{
		{role: domain.RoleAdmin, wantStatus: http.StatusOK},
		{role: domain.RoleManager, wantStatus: http.StatusForbidden},
		{role: domain.RoleEmployee, wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.role.String(), func(t *testing.T) {
			t.Parallel()

			req := setRole(httptest.NewRequest(http.MethodGet, "/", http.NoBody), tt.role)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRequireRole_NoUserInContext_Returns401(t *testing.T) {
	t.Parallel()

	handler := middleware.RequireRole(domain.RoleAdmin)(okHandler)

	// Request without any role in context (Auth middleware not applied).
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "authentication required")
}

func TestRequireRole_UnknownRoleInContext_Returns401(t *testing.T) {
	t.Parallel()

	handler := middleware.RequireRole(domain.RoleAdmin)(okHandler)

	req := setRole(httptest.NewRequest(http.MethodGet, "/", http.NoBody), domain.Role(0))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "authentication required")
}
