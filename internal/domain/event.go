package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventCompanyCreated        EventType = "company.created"
	EventCompanyUpdated        EventType = "company.updated"
	EventCompanyDestroyed      EventType = "company.destroyed"
	EventCompanyActivated      EventType = "company.activated"
	EventCompanyDeactivated    EventType = "company.deactivated"
	EventCompanySettingUpdated EventType = "company.setting_updated"
	EventCompanySettingDeleted EventType = "company.setting_deleted"
	EventUserCreated           EventType = "user.created"
	EventUserUpdated           EventType = "user.updated"
	EventUserDestroyed         EventType = "user.destroyed"
	EventUserActivated         EventType = "user.activated"
	EventUserDeactivated       EventType = "user.deactivated"
)

// IsUserEvent reports whether the event is about a user rather than the
// company itself.
func (t EventType) IsUserEvent() bool {
	return strings.HasPrefix(string(t), "user.")
}

// Event describes a change to a company or one of its users. SubjectID is
// the company ID for company events and the user ID for user events.
// ActorID is uuid.Nil when no user triggered the change.
type Event struct {
	Type       EventType      `json:"type"`
	CompanyID  uuid.UUID      `json:"company_id"`
	SubjectID  uuid.UUID      `json:"subject_id"`
	ActorID    uuid.UUID      `json:"actor_id"`
	Data       map[string]any `json:"data,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, e Event) error
}

// NewCompanyEvent builds an event whose subject is the company itself.
func NewCompanyEvent(t EventType, c *Company, data map[string]any) Event {
	return Event{Type: t, CompanyID: c.ID, SubjectID: c.ID, Data: data, OccurredAt: time.Now().UTC()}
}

// NewUserEvent builds an event about u inside its company.
func NewUserEvent(t EventType, u *User, data map[string]any) Event {
	return Event{Type: t, CompanyID: u.CompanyID, SubjectID: u.ID, Data: data, OccurredAt: time.Now().UTC()}
}
