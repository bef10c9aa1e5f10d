package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/tenantry/internal/domain"
)

type AuditEntryBody struct {
	ID         uuid.UUID      `json:"id"`
	ActorType  string         `json:"actor_type" enum:"user,system"`
	ActorID    *uuid.UUID     `json:"actor_id,omitempty"`
	Action     string         `json:"action" example:"user.deactivated"`
	Resource   string         `json:"resource" enum:"company,user"`
	ResourceID uuid.UUID      `json:"resource_id"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

type ListAuditInput struct {
	Limit  int `query:"limit" minimum:"1" maximum:"200" default:"50" doc:"Max results"`
	Offset int `query:"offset" minimum:"0" default:"0" doc:"Offset for pagination"`
}

type UserAuditInput struct {
	ID uuid.UUID `path:"id" doc:"User ID"`
}

type AuditOutput struct {
	Body []*AuditEntryBody
}

func auditBodies(entries []*domain.AuditEntry) []*AuditEntryBody {
	out := make([]*AuditEntryBody, 0, len(entries))
	for _, e := range entries {
		b := &AuditEntryBody{
			ID:         e.ID,
			ActorType:  e.ActorType,
			Action:     e.Action,
			Resource:   e.Resource,
			ResourceID: e.ResourceID,
			Details:    e.Details,
			CreatedAt:  e.CreatedAt,
		}
		if e.ActorID != uuid.Nil {
			id := e.ActorID
			b.ActorID = &id
		}
		out = append(out, b)
	}
	return out
}

// RegisterAuditRoutes exposes the company's audit trail to its admins.
func RegisterAuditRoutes(api huma.API, svc TenancyService, audit AuditReader) {
	huma.Register(api, huma.Operation{
		OperationID: "list-company-audit",
		Method:      http.MethodGet,
		Path:        "/company/audit",
		Summary:     "List audit entries for the caller's company, newest first",
		Tags:        []string{"Audit"},
	}, func(ctx context.Context, input *ListAuditInput) (*AuditOutput, error) {
		company, err := managedCompany(ctx, svc)
		if err != nil {
			return nil, err
		}

		entries, err := audit.ListByCompany(ctx, company.ID, input.Limit, input.Offset)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list audit entries", err)
		}
		return &AuditOutput{Body: auditBodies(entries)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-user-audit",
		Method:      http.MethodGet,
		Path:        "/users/{id}/audit",
		Summary:     "List audit entries about one user",
		Tags:        []string{"Audit"},
	}, func(ctx context.Context, input *UserAuditInput) (*AuditOutput, error) {
		company, err := managedCompany(ctx, svc)
		if err != nil {
			return nil, err
		}

		entries, err := audit.ListByResource(ctx, company.ID, "user", input.ID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list audit entries", err)
		}
		return &AuditOutput{Body: auditBodies(entries)}, nil
	})
}
