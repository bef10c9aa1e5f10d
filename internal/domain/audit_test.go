package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/gosuda/tenantry/internal/domain"
)

func TestNewAuditEntry(t *testing.T) {
	t.Parallel()

	company := domain.NewCompany("acme", "Acme")
	user := domain.NewUser(company.ID, "a@example.com")

	t.Run("user event with actor", func(t *testing.T) {
		t.Parallel()

		actor := uuid.New()
		ev := domain.NewUserEvent(domain.EventUserDeactivated, user, map[string]any{"email": user.Email})
		ev.ActorID = actor

		e := domain.NewAuditEntry(ev)
		assert.NotEqual(t, uuid.Nil, e.ID)
		assert.Equal(t, company.ID, e.CompanyID)
		assert.Equal(t, domain.ActorUser, e.ActorType)
		assert.Equal(t, actor, e.ActorID)
		assert.Equal(t, "user.deactivated", e.Action)
		assert.Equal(t, "user", e.Resource)
		assert.Equal(t, user.ID, e.ResourceID)
		assert.Equal(t, user.Email, e.Details["email"])
		assert.True(t, ev.OccurredAt.Equal(e.CreatedAt))
	})

	t.Run("company event without actor is a system entry", func(t *testing.T) {
		t.Parallel()

		e := domain.NewAuditEntry(domain.NewCompanyEvent(domain.EventCompanyCreated, company, nil))
		assert.Equal(t, domain.ActorSystem, e.ActorType)
		assert.Equal(t, uuid.Nil, e.ActorID)
		assert.Equal(t, "company", e.Resource)
		assert.Equal(t, company.ID, e.ResourceID)
	})

	t.Run("zero timestamp is filled in", func(t *testing.T) {
		t.Parallel()

		before := time.Now().UTC()
		e := domain.NewAuditEntry(domain.Event{Type: domain.EventCompanyUpdated, CompanyID: company.ID})
		assert.False(t, e.CreatedAt.Before(before))
	})
}

func TestActorContext(t *testing.T) {
	t.Parallel()

	_, ok := domain.ActorFromContext(t.Context())
	assert.False(t, ok)

	_, ok = domain.ActorFromContext(domain.WithActor(t.Context(), uuid.Nil))
	assert.False(t, ok, "nil actor is treated as absent")

	id := uuid.New()
	got, ok := domain.ActorFromContext(domain.WithActor(t.Context(), id))
	assert.True(t, ok)
	assert.Equal(t, id, got)
}
