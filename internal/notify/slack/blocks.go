package slack

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	slacklib "github.com/slack-go/slack"

	"github.com/gosuda/tenantry/internal/domain"
)

var titles = map[domain.EventType]string{ //nolint:gochecknoglobals // lookup table
	domain.EventCompanyCreated:     "Company created",
	domain.EventCompanyDestroyed:   "Company destroyed",
	domain.EventCompanyActivated:   "Company activated",
	domain.EventCompanyDeactivated: "Company deactivated",
	domain.EventUserCreated:        "User created",
	domain.EventUserDestroyed:      "User destroyed",
	domain.EventUserActivated:      "User activated",
	domain.EventUserDeactivated:    "User deactivated",
}

// Announced reports whether events of type t are posted.
func Announced(t domain.EventType) bool {
	_, ok := titles[t]
	return ok
}

// Summary is the plain-text fallback shown in notifications.
func Summary(ev domain.Event) string {
	title, ok := titles[ev.Type]
	if !ok {
		title = string(ev.Type)
	}
	return fmt.Sprintf("%s: %s", title, ev.SubjectID)
}

// BuildEventBlocks builds a section naming the affected company and user,
// followed by a context line with the actor and time.
func BuildEventBlocks(ev domain.Event) []slacklib.Block {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n*Company:* `%s`", titles[ev.Type], ev.CompanyID)
	if ev.SubjectID != ev.CompanyID {
		fmt.Fprintf(&b, "\n*User:* `%s`", ev.SubjectID)
	}
	if sub, ok := ev.Data["subdomain"].(string); ok {
		fmt.Fprintf(&b, "\n*Subdomain:* `%s`", sub)
	}
	if role, ok := ev.Data["role"].(string); ok {
		fmt.Fprintf(&b, "\n*Role:* %s", role)
	}

	section := slacklib.NewSectionBlock(
		slacklib.NewTextBlockObject(slacklib.MarkdownType, b.String(), false, false),
		nil,
		nil,
	)

	actor := "system"
	if ev.ActorID != uuid.Nil {
		actor = ev.ActorID.String()
	}
	meta := slacklib.NewContextBlock("event_meta",
		slacklib.NewTextBlockObject(slacklib.MarkdownType,
			fmt.Sprintf("by `%s` at %s", actor, ev.OccurredAt.UTC().Format(time.RFC3339)), false, false),
	)

	return []slacklib.Block{section, meta}
}
