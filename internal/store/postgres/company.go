package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gosuda/tenantry/internal/domain"
)

const companyColumns = `id, subdomain, name, settings, active, created_at, updated_at`

type CompanyRepo struct {
	db DBTX
}

func NewCompanyRepo(db DBTX) *CompanyRepo {
	return &CompanyRepo{db: db}
}

func (r *CompanyRepo) Create(ctx context.Context, c *domain.Company) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO companies (id, subdomain, name, settings, active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.Subdomain, c.Name, nilIfEmpty(c.SettingsJSON), c.Active, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return classify("companyRepo.Create", err)
	}

	return nil
}

func (r *CompanyRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Company, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE id = $1`,
		id,
	)

	c, err := scanCompany(row)
	if err != nil {
		return nil, classify("companyRepo.GetByID", err)
	}

	return c, nil
}

func (r *CompanyRepo) GetBySubdomain(ctx context.Context, subdomain string) (*domain.Company, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE subdomain = $1`,
		subdomain,
	)

	c, err := scanCompany(row)
	if err != nil {
		return nil, classify("companyRepo.GetBySubdomain", err)
	}

	return c, nil
}

func (r *CompanyRepo) SubdomainTaken(ctx context.Context, subdomain string, excludeID uuid.UUID) (bool, error) {
	var taken bool

	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM companies WHERE subdomain = $1 AND id <> $2)`,
		subdomain, excludeID,
	).Scan(&taken)
	if err != nil {
		return false, classify("companyRepo.SubdomainTaken", err)
	}

	return taken, nil
}

func (r *CompanyRepo) Update(ctx context.Context, c *domain.Company) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE companies SET subdomain = $1, name = $2, settings = $3, active = $4, updated_at = now()
		 WHERE id = $5`,
		c.Subdomain, c.Name, nilIfEmpty(c.SettingsJSON), c.Active, c.ID,
	)
	if err != nil {
		return classify("companyRepo.Update", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("companyRepo.Update")
	}

	return nil
}

func (r *CompanyRepo) SaveActive(ctx context.Context, c *domain.Company) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE companies SET active = $1, updated_at = now() WHERE id = $2`,
		c.Active, c.ID,
	)
	if err != nil {
		return classify("companyRepo.SaveActive", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("companyRepo.SaveActive")
	}

	return nil
}

// Delete removes the company. Its users go with it via ON DELETE CASCADE.
func (r *CompanyRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM companies WHERE id = $1`, id)
	if err != nil {
		return classify("companyRepo.Delete", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("companyRepo.Delete")
	}

	return nil
}

func (r *CompanyRepo) List(ctx context.Context) ([]*domain.Company, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+companyColumns+` FROM companies ORDER BY created_at, id
		 LIMIT 500`,
	)
	if err != nil {
		return nil, classify("companyRepo.List", err)
	}
	defer rows.Close()

	return collectCompanies(rows, "companyRepo.List")
}

func (r *CompanyRepo) ListByActive(ctx context.Context, active bool) ([]*domain.Company, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE active = $1 ORDER BY created_at, id
		 LIMIT 500`,
		active,
	)
	if err != nil {
		return nil, classify("companyRepo.ListByActive", err)
	}
	defer rows.Close()

	return collectCompanies(rows, "companyRepo.ListByActive")
}

func scanCompany(row pgx.Row) (*domain.Company, error) {
	var c domain.Company
	var settings *string

	err := row.Scan(&c.ID, &c.Subdomain, &c.Name, &settings, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	c.SettingsJSON = derefStr(settings)
	return &c, nil
}

func collectCompanies(rows pgx.Rows, op string) ([]*domain.Company, error) {
	var companies []*domain.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, classify(op+": scan", err)
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op+": rows", err)
	}

	return companies, nil
}
