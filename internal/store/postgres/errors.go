package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gosuda/tenantry/internal/domain"
)

const sqlStateUniqueViolation = "23505"

// Unique constraint names, as declared in the migrations.
const (
	constraintCompanySubdomain = "companies_subdomain_key"
	constraintUserCompanyEmail = "users_company_id_email_key"
)

// classify maps a driver error to the domain error a caller can act on:
// missing rows become ErrNotFound, unique violations become the same
// ValidationError the entity checks produce, everything else is a
// PersistenceError.
func classify(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == sqlStateUniqueViolation {
		switch pgErr.ConstraintName {
		case constraintCompanySubdomain:
			return fmt.Errorf("%s: %w", op, domain.NewValidationError("subdomain", domain.MsgTaken))
		case constraintUserCompanyEmail:
			return fmt.Errorf("%s: %w", op, domain.NewValidationError("email", domain.MsgTakenInTenant))
		default:
			return fmt.Errorf("%s: %w", op, domain.ErrConflict)
		}
	}

	return &domain.PersistenceError{Op: op, Err: err}
}

func notFound(op string) error {
	return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
