package notify

import (
	"context"
	"fmt"

	"github.com/gosuda/tenantry/internal/domain"
)

// AuditSink records every event it receives as an audit entry.
type AuditSink struct {
	repo domain.AuditRepository
}

func NewAuditSink(repo domain.AuditRepository) *AuditSink {
	return &AuditSink{repo: repo}
}

func (s *AuditSink) PublishEvent(ctx context.Context, ev domain.Event) error {
	if err := s.repo.Record(ctx, domain.NewAuditEntry(ev)); err != nil {
		return fmt.Errorf("notify.AuditSink.PublishEvent: %w", err)
	}

	return nil
}
