package notify_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/tenantry/internal/domain"
	"github.com/gosuda/tenantry/internal/notify"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type mockSink struct {
	name  string
	err   error
	order *[]string
	mu    sync.Mutex
	got   []domain.Event
}

func (m *mockSink) PublishEvent(_ context.Context, ev domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.got = append(m.got, ev)
	if m.order != nil {
		*m.order = append(*m.order, m.name)
	}
	return m.err
}

type mockAuditRepo struct {
	domain.AuditRepository

	recordFunc func(ctx context.Context, entry *domain.AuditEntry) error
	recorded   []*domain.AuditEntry
}

func (m *mockAuditRepo) Record(ctx context.Context, entry *domain.AuditEntry) error {
	m.recorded = append(m.recorded, entry)
	if m.recordFunc != nil {
		return m.recordFunc(ctx, entry)
	}
	return nil
}

func testEvent() domain.Event {
	return domain.NewCompanyEvent(domain.EventCompanyUpdated, domain.NewCompany("acme", "Acme"), nil)
}

// ---------------------------------------------------------------------------
// Registry
// ---------------------------------------------------------------------------

func TestRegistry(t *testing.T) {
	t.Parallel()

	t.Run("register and get", func(t *testing.T) {
		t.Parallel()

		reg := notify.NewRegistry()
		sink := &mockSink{name: "audit"}
		reg.Register("audit", sink)

		got, ok := reg.Get("audit")
		require.True(t, ok)
		assert.Equal(t, sink, got)
		assert.Equal(t, 1, reg.Len())
	})

	t.Run("get unregistered returns false", func(t *testing.T) {
		t.Parallel()

		_, ok := notify.NewRegistry().Get("unknown")
		assert.False(t, ok)
	})

	t.Run("nil sink is ignored", func(t *testing.T) {
		t.Parallel()

		reg := notify.NewRegistry()
		reg.Register("redis", nil)
		assert.Equal(t, 0, reg.Len())
	})

	t.Run("register overwrites previous", func(t *testing.T) {
		t.Parallel()

		reg := notify.NewRegistry()
		first := &mockSink{name: "first"}
		second := &mockSink{name: "second"}
		reg.Register("audit", first)
		reg.Register("audit", second)

		got, ok := reg.Get("audit")
		require.True(t, ok)
		assert.Equal(t, second, got)
		assert.Equal(t, 1, reg.Len())
	})
}

func TestRegistry_PublishEvent(t *testing.T) {
	t.Parallel()

	t.Run("delivers in registration order", func(t *testing.T) {
		t.Parallel()

		var order []string
		reg := notify.NewRegistry()
		reg.Register("audit", &mockSink{name: "audit", order: &order})
		reg.Register("redis", &mockSink{name: "redis", order: &order})

		require.NoError(t, reg.PublishEvent(t.Context(), testEvent()))
		assert.Equal(t, []string{"audit", "redis"}, order)
	})

	t.Run("failing sink does not stop the others", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		failing := &mockSink{name: "audit", err: boom}
		healthy := &mockSink{name: "redis"}

		reg := notify.NewRegistry()
		reg.Register("audit", failing)
		reg.Register("redis", healthy)

		err := reg.PublishEvent(t.Context(), testEvent())
		require.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "notify.Registry.PublishEvent: audit")
		assert.Len(t, healthy.got, 1)
	})

	t.Run("empty registry is a no-op", func(t *testing.T) {
		t.Parallel()

		assert.NoError(t, notify.NewRegistry().PublishEvent(t.Context(), testEvent()))
	})
}

// ---------------------------------------------------------------------------
// AuditSink
// ---------------------------------------------------------------------------

func TestAuditSink(t *testing.T) {
	t.Parallel()

	t.Run("records the event", func(t *testing.T) {
		t.Parallel()

		repo := &mockAuditRepo{}
		actor := uuid.New()
		ev := testEvent()
		ev.ActorID = actor

		require.NoError(t, notify.NewAuditSink(repo).PublishEvent(t.Context(), ev))
		require.Len(t, repo.recorded, 1)
		assert.Equal(t, "company.updated", repo.recorded[0].Action)
		assert.Equal(t, actor, repo.recorded[0].ActorID)
		assert.Equal(t, ev.CompanyID, repo.recorded[0].CompanyID)
	})

	t.Run("record failure is wrapped", func(t *testing.T) {
		t.Parallel()

		repo := &mockAuditRepo{recordFunc: func(context.Context, *domain.AuditEntry) error {
			return domain.ErrConflict
		}}

		err := notify.NewAuditSink(repo).PublishEvent(t.Context(), testEvent())
		require.ErrorIs(t, err, domain.ErrConflict)
		assert.Contains(t, err.Error(), "notify.AuditSink.PublishEvent")
	})
}
