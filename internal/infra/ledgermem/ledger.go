// Package ledgermem is an in-memory identity/ownership ledger used in tests
// and in no-db mode. Identities are uuids; released identities are
// remembered so they can never be handed out again.
package ledgermem

import (
	"context"
	"sync"

	"provreg/internal/domain"
	"provreg/internal/record"

	"github.com/google/uuid"
)

type entry struct {
	snapshot record.Snapshot
	owner    string
}

type Ledger struct {
	mu       sync.Mutex
	entries  map[string]entry
	retired  map[string]struct{}
	allocated map[string]struct{}
}

func New() *Ledger {
	return &Ledger{
		entries:   make(map[string]entry),
		retired:   make(map[string]struct{}),
		allocated: make(map[string]struct{}),
	}
}

func (l *Ledger) Allocate(ctx context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for {
		id := uuid.NewString()
		if _, dead := l.retired[id]; dead {
			continue
		}
		if _, live := l.allocated[id]; live {
			continue
		}
		l.allocated[id] = struct{}{}
		return id, nil
	}
}

func (l *Ledger) Release(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, id)
	delete(l.allocated, id)
	l.retired[id] = struct{}{}
	return nil
}

func (l *Ledger) Save(ctx context.Context, rec *record.Record, owner string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[rec.ID()] = entry{snapshot: rec.Snapshot(), owner: owner}
	return nil
}

func (l *Ledger) GetByID(ctx context.Context, id string) (*record.Record, string, error) {
	l.mu.Lock()
	e, ok := l.entries[id]
	l.mu.Unlock()
	if !ok {
		return nil, "", domain.ErrNotFound
	}
	rec, err := record.FromSnapshot(e.snapshot)
	if err != nil {
		return nil, "", err
	}
	return rec, e.owner, nil
}

func (l *Ledger) ListByOwner(ctx context.Context, owner string) ([]record.Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []record.Snapshot
	for _, e := range l.entries {
		if e.owner == owner {
			out = append(out, e.snapshot)
		}
	}
	return out, nil
}

func (l *Ledger) SetOwner(ctx context.Context, id, owner string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[id]
	if !ok {
		return domain.ErrNotFound
	}
	e.owner = owner
	l.entries[id] = e
	return nil
}
