// Package auditmem is an in-memory audit event repository with the same
// hash-chain semantics as the gorm-backed one.
package auditmem

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"provreg/internal/domain"
)

type Repository struct {
	mu     sync.Mutex
	events map[string][]domain.AuditEvent // by stream
	nextID int
}

func New() *Repository {
	return &Repository{events: make(map[string][]domain.AuditEvent)}
}

func (r *Repository) Append(ctx context.Context, event domain.AuditEvent) (domain.AuditEvent, error) {
	if event.EventType == "" {
		return domain.AuditEvent{}, errors.New("event_type is required")
	}
	if event.Stream == "" {
		event.Stream = domain.AuditGlobalStream
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	} else {
		event.CreatedAt = event.CreatedAt.UTC()
	}

	_, payloadHash, err := domain.AuditPayloadJSON(event.Payload)
	if err != nil {
		return domain.AuditEvent{}, err
	}
	event.PayloadHash = payloadHash

	r.mu.Lock()
	defer r.mu.Unlock()

	chain := r.events[event.Stream]
	event.Seq = int64(len(chain)) + 1
	if len(chain) == 0 {
		event.PrevEventHash = domain.AuditZeroHash
	} else {
		event.PrevEventHash = chain[len(chain)-1].EventHash
	}

	hash, err := domain.AuditEventHash(event)
	if err != nil {
		return domain.AuditEvent{}, err
	}
	event.EventHash = hash

	r.nextID++
	if event.ID == "" {
		event.ID = "mem-" + strconv.Itoa(r.nextID)
	}

	r.events[event.Stream] = append(chain, event)
	return event, nil
}

func (r *Repository) ListByStream(ctx context.Context, stream string) ([]domain.AuditEvent, error) {
	if stream == "" {
		stream = domain.AuditGlobalStream
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.AuditEvent, len(r.events[stream]))
	copy(out, r.events[stream])
	return out, nil
}
