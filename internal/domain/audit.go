package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	ActorUser   = "user"
	ActorSystem = "system"
)

// AuditEntry is the stored form of an Event. Entries are kept after the
// company they describe is destroyed.
type AuditEntry struct {
	ID         uuid.UUID
	CompanyID  uuid.UUID
	ActorType  string // ActorUser or ActorSystem
	ActorID    uuid.UUID
	Action     string // the event type, e.g. "user.deactivated"
	Resource   string // "company" or "user"
	ResourceID uuid.UUID
	Details    map[string]any
	CreatedAt  time.Time
}

type AuditRepository interface {
	Record(ctx context.Context, entry *AuditEntry) error
	ListByCompany(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]*AuditEntry, error)
	ListByResource(ctx context.Context, companyID uuid.UUID, resource string, resourceID uuid.UUID) ([]*AuditEntry, error)
}

// NewAuditEntry converts ev. Events without an actor are attributed to the
// system.
func NewAuditEntry(ev Event) *AuditEntry {
	resource, _, _ := strings.Cut(string(ev.Type), ".")

	actorType := ActorUser
	if ev.ActorID == uuid.Nil {
		actorType = ActorSystem
	}

	createdAt := ev.OccurredAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	return &AuditEntry{
		ID:         uuid.New(),
		CompanyID:  ev.CompanyID,
		ActorType:  actorType,
		ActorID:    ev.ActorID,
		Action:     string(ev.Type),
		Resource:   resource,
		ResourceID: ev.SubjectID,
		Details:    ev.Data,
		CreatedAt:  createdAt,
	}
}

type actorKey struct{}

// WithActor records who is performing the mutations made with ctx.
func WithActor(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

// ActorFromContext returns the acting user, if any.
func ActorFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(actorKey{}).(uuid.UUID)
	return id, ok && id != uuid.Nil
}
