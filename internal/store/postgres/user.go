package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gosuda/tenantry/internal/domain"
)

const userColumns = `id, company_id, email, password_hash, role, first_name, last_name, active, created_at, updated_at`

type UserRepo struct {
	db DBTX
}

func NewUserRepo(db DBTX) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO users (id, company_id, email, password_hash, role, first_name, last_name, active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		u.ID, u.CompanyID, u.Email, u.PasswordHash, int16(u.Role),
		nilIfEmpty(u.FirstName), nilIfEmpty(u.LastName),
		u.Active, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return classify("userRepo.Create", err)
	}

	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, companyID, id uuid.UUID) (*domain.User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE company_id = $1 AND id = $2`,
		companyID, id,
	)

	u, err := scanUser(row)
	if err != nil {
		return nil, classify("userRepo.GetByID", err)
	}

	return u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, companyID uuid.UUID, email string) (*domain.User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE company_id = $1 AND email = $2`,
		companyID, email,
	)

	u, err := scanUser(row)
	if err != nil {
		return nil, classify("userRepo.GetByEmail", err)
	}

	return u, nil
}

func (r *UserRepo) EmailTaken(ctx context.Context, companyID uuid.UUID, email string, excludeID uuid.UUID) (bool, error) {
	var taken bool

	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE company_id = $1 AND email = $2 AND id <> $3)`,
		companyID, email, excludeID,
	).Scan(&taken)
	if err != nil {
		return false, classify("userRepo.EmailTaken", err)
	}

	return taken, nil
}

// Update writes every mutable column. company_id is never rewritten.
func (r *UserRepo) Update(ctx context.Context, u *domain.User) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET email = $1, password_hash = $2, role = $3, first_name = $4, last_name = $5,
		 active = $6, updated_at = now()
		 WHERE company_id = $7 AND id = $8`,
		u.Email, u.PasswordHash, int16(u.Role),
		nilIfEmpty(u.FirstName), nilIfEmpty(u.LastName), u.Active,
		u.CompanyID, u.ID,
	)
	if err != nil {
		return classify("userRepo.Update", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("userRepo.Update")
	}

	return nil
}

func (r *UserRepo) SaveActive(ctx context.Context, u *domain.User) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET active = $1, updated_at = now() WHERE company_id = $2 AND id = $3`,
		u.Active, u.CompanyID, u.ID,
	)
	if err != nil {
		return classify("userRepo.SaveActive", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("userRepo.SaveActive")
	}

	return nil
}

func (r *UserRepo) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM users WHERE company_id = $1 AND id = $2`,
		companyID, id,
	)
	if err != nil {
		return classify("userRepo.Delete", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("userRepo.Delete")
	}

	return nil
}

func (r *UserRepo) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*domain.User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE company_id = $1 ORDER BY created_at, id
		 LIMIT 500`,
		companyID,
	)
	if err != nil {
		return nil, classify("userRepo.ListByCompany", err)
	}
	defer rows.Close()

	return collectUsers(rows, "userRepo.ListByCompany")
}

func (r *UserRepo) ListByRole(ctx context.Context, companyID uuid.UUID, role domain.Role) ([]*domain.User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE company_id = $1 AND role = $2 ORDER BY created_at, id
		 LIMIT 500`,
		companyID, int16(role),
	)
	if err != nil {
		return nil, classify("userRepo.ListByRole", err)
	}
	defer rows.Close()

	return collectUsers(rows, "userRepo.ListByRole")
}

func (r *UserRepo) ListByActive(ctx context.Context, companyID uuid.UUID, active bool) ([]*domain.User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE company_id = $1 AND active = $2 ORDER BY created_at, id
		 LIMIT 500`,
		companyID, active,
	)
	if err != nil {
		return nil, classify("userRepo.ListByActive", err)
	}
	defer rows.Close()

	return collectUsers(rows, "userRepo.ListByActive")
}

func (r *UserRepo) ListByRoleAndActive(ctx context.Context, companyID uuid.UUID, role domain.Role, active bool) ([]*domain.User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE company_id = $1 AND role = $2 AND active = $3
		 ORDER BY created_at, id LIMIT 500`,
		companyID, int16(role), active,
	)
	if err != nil {
		return nil, classify("userRepo.ListByRoleAndActive", err)
	}
	defer rows.Close()

	return collectUsers(rows, "userRepo.ListByRoleAndActive")
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var role int16
	var firstName, lastName *string

	err := row.Scan(&u.ID, &u.CompanyID, &u.Email, &u.PasswordHash, &role,
		&firstName, &lastName, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}

	u.Role = domain.Role(role)
	u.FirstName = derefStr(firstName)
	u.LastName = derefStr(lastName)
	return &u, nil
}

func collectUsers(rows pgx.Rows, op string) ([]*domain.User, error) {
	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, classify(op+": scan", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op+": rows", err)
	}

	return users, nil
}
