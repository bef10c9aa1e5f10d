package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/gosuda/tenantry/internal/api/v1"
	"github.com/gosuda/tenantry/internal/api/ws"
	"github.com/gosuda/tenantry/internal/server/middleware"
)

func registerAuthRoutes(api huma.API, svc v1.TenancyService, authSvc v1.AuthService) {
	v1.RegisterAuthRoutes(api, svc, authSvc)
}

func registerAPIRoutes(api huma.API, svc v1.TenancyService, audit v1.AuditReader) {
	v1.RegisterMeRoutes(api)
	v1.RegisterCompanyRoutes(api, svc)
	v1.RegisterUserRoutes(api, svc)
	v1.RegisterAuditRoutes(api, svc, audit)
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/me", hub.ServeSelf)
	r.With(middleware.RequireAdmin()).Get("/company", hub.ServeCompany)
}
