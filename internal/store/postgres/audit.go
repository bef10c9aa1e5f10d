package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gosuda/tenantry/internal/domain"
)

const auditColumns = `id, company_id, actor_type, actor_id, action, resource, resource_id, details, created_at`

type AuditRepo struct {
	db DBTX
}

func NewAuditRepo(db DBTX) *AuditRepo {
	return &AuditRepo{db: db}
}

func (r *AuditRepo) Record(ctx context.Context, entry *domain.AuditEntry) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("auditRepo.Record: marshal details: %w", err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO audit_log (`+auditColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.ID, entry.CompanyID, entry.ActorType, nullUUID(entry.ActorID),
		entry.Action, entry.Resource, entry.ResourceID,
		details, entry.CreatedAt,
	)
	if err != nil {
		return classify("auditRepo.Record", err)
	}

	return nil
}

func (r *AuditRepo) ListByCompany(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]*domain.AuditEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+auditColumns+`
		 FROM audit_log WHERE company_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		companyID, limit, offset,
	)
	if err != nil {
		return nil, classify("auditRepo.ListByCompany", err)
	}
	defer rows.Close()

	return scanAuditEntries(rows, "auditRepo.ListByCompany")
}

func (r *AuditRepo) ListByResource(ctx context.Context, companyID uuid.UUID, resource string, resourceID uuid.UUID) ([]*domain.AuditEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+auditColumns+`
		 FROM audit_log WHERE company_id = $1 AND resource = $2 AND resource_id = $3
		 ORDER BY created_at DESC`,
		companyID, resource, resourceID,
	)
	if err != nil {
		return nil, classify("auditRepo.ListByResource", err)
	}
	defer rows.Close()

	return scanAuditEntries(rows, "auditRepo.ListByResource")
}

func scanAuditEntries(rows pgx.Rows, op string) ([]*domain.AuditEntry, error) {
	entries := []*domain.AuditEntry{}
	for rows.Next() {
		var e domain.AuditEntry
		var actorID *uuid.UUID
		var details []byte

		if err := rows.Scan(
			&e.ID, &e.CompanyID, &e.ActorType, &actorID, &e.Action,
			&e.Resource, &e.ResourceID, &details, &e.CreatedAt,
		); err != nil {
			return nil, classify(op, err)
		}
		if actorID != nil {
			e.ActorID = *actorID
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, fmt.Errorf("%s: unmarshal details: %w", op, err)
			}
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}

	return entries, nil
}

// nullUUID stores uuid.Nil as SQL NULL.
func nullUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
