// Package notify fans domain events out to every registered sink.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/gosuda/tenantry/internal/domain"
)

// Registry is a domain.EventPublisher that forwards each event to the
// sinks registered on it, in registration order.
type Registry struct {
	mu    sync.RWMutex
	sinks *orderedmap.OrderedMap[string, domain.EventPublisher]
}

func NewRegistry() *Registry {
	return &Registry{
		sinks: orderedmap.New[string, domain.EventPublisher](),
	}
}

// Register adds a sink under name. Registering a name again replaces the
// sink but keeps its position. A nil sink is ignored.
func (r *Registry) Register(name string, sink domain.EventPublisher) {
	if sink == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sinks.Set(name, sink)
}

func (r *Registry) Get(name string) (domain.EventPublisher, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sinks.Get(name)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sinks.Len()
}

// PublishEvent delivers ev to every sink. A failing sink does not stop
// delivery to the rest; all failures are joined into the returned error.
func (r *Registry) PublishEvent(ctx context.Context, ev domain.Event) error {
	r.mu.RLock()
	type named struct {
		name string
		sink domain.EventPublisher
	}
	targets := make([]named, 0, r.sinks.Len())
	for pair := r.sinks.Oldest(); pair != nil; pair = pair.Next() {
		targets = append(targets, named{name: pair.Key, sink: pair.Value})
	}
	r.mu.RUnlock()

	var errs []error
	for _, t := range targets {
		if err := t.sink.PublishEvent(ctx, ev); err != nil {
			errs = append(errs, fmt.Errorf("notify.Registry.PublishEvent: %s: %w", t.name, err))
		}
	}

	return errors.Join(errs...)
}
