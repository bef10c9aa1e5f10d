//go:build integration

package postgres_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/gosuda/tenantry/internal/domain"
	"github.com/gosuda/tenantry/internal/store/postgres"
)

func TestStore_Integration(t *testing.T) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("tenantry"),
		tcpostgres.WithUsername("tenantry"),
		tcpostgres.WithPassword("tenantry"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2)),
	)
	require.NoError(t, err)
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	}()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := postgres.New(ctx, connStr, 4)
	require.NoError(t, err)
	defer store.Close()

	applied, err := store.Migrate(ctx)
	require.NoError(t, err)
	assert.Len(t, applied, 3)

	t.Run("migrate is idempotent", func(t *testing.T) {
		again, err := store.Migrate(ctx)
		require.NoError(t, err)
		assert.Empty(t, again)
	})

	companies := store.Companies()
	users := store.Users()

	acme := domain.NewCompany("acme", "Acme")
	require.NoError(t, companies.Create(ctx, acme))

	t.Run("subdomain uniqueness", func(t *testing.T) {
		taken, err := companies.SubdomainTaken(ctx, "acme", uuid.Nil)
		require.NoError(t, err)
		assert.True(t, taken)

		taken, err = companies.SubdomainTaken(ctx, "acme", acme.ID)
		require.NoError(t, err)
		assert.False(t, taken)

		err = companies.Create(ctx, domain.NewCompany("acme", "Other"))
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, []string{domain.MsgTaken}, verr.Messages("subdomain"))
	})

	t.Run("settings round trip", func(t *testing.T) {
		require.NoError(t, acme.UpdateSetting(ctx, companies, "theme", "dark"))

		got, err := companies.GetBySubdomain(ctx, "acme")
		require.NoError(t, err)
		v, ok := got.Setting("theme")
		require.True(t, ok)
		assert.Equal(t, "dark", v)
	})

	t.Run("email unique per company", func(t *testing.T) {
		other := domain.NewCompany("globex", "Globex")
		require.NoError(t, companies.Create(ctx, other))

		a := domain.NewUser(acme.ID, "same@example.com")
		a.PasswordHash = "h"
		require.NoError(t, users.Create(ctx, a))

		b := domain.NewUser(other.ID, "same@example.com")
		b.PasswordHash = "h"
		require.NoError(t, users.Create(ctx, b))

		dup := domain.NewUser(acme.ID, "same@example.com")
		dup.PasswordHash = "h"
		err := users.Create(ctx, dup)
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, []string{domain.MsgTakenInTenant}, verr.Messages("email"))

		_, err = users.GetByID(ctx, other.ID, a.ID)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("deleting a company cascades to its users", func(t *testing.T) {
		doomed := domain.NewCompany("doomed", "Doomed")
		require.NoError(t, companies.Create(ctx, doomed))

		u := domain.NewUser(doomed.ID, "gone@example.com")
		u.PasswordHash = "h"
		u.Role = domain.RoleAdmin
		require.NoError(t, users.Create(ctx, u))

		require.NoError(t, companies.Delete(ctx, doomed.ID))

		left, err := users.ListByCompany(ctx, doomed.ID)
		require.NoError(t, err)
		assert.Empty(t, left)
	})

	t.Run("activation persists", func(t *testing.T) {
		require.NoError(t, acme.Deactivate(ctx, companies))

		inactive, err := companies.ListByActive(ctx, false)
		require.NoError(t, err)
		require.Len(t, inactive, 1)
		assert.Equal(t, acme.ID, inactive[0].ID)
	})

	t.Run("audit entries survive company deletion", func(t *testing.T) {
		gone := domain.NewCompany("gone", "Gone")
		require.NoError(t, companies.Create(ctx, gone))

		entry := domain.NewAuditEntry(domain.NewCompanyEvent(domain.EventCompanyDestroyed, gone, nil))
		require.NoError(t, store.Audit().Record(ctx, entry))
		require.NoError(t, companies.Delete(ctx, gone.ID))

		entries, err := store.Audit().ListByCompany(ctx, gone.ID, 10, 0)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, domain.ActorSystem, entries[0].ActorType)
		assert.Equal(t, "company.destroyed", entries[0].Action)
	})
}
