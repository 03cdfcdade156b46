package usecase

import (
	"context"

	"provreg/internal/domain"
	"provreg/internal/record"
)

// LedgerRepository is the identity/ownership ledger. It embeds the record
// core's allocator contract: Allocate hands out fresh identities, Release
// removes one permanently (a released identity is never resurrected).
type LedgerRepository interface {
	record.IdentityAllocator
	Save(ctx context.Context, rec *record.Record, owner string) error
	GetByID(ctx context.Context, id string) (*record.Record, string, error)
	ListByOwner(ctx context.Context, owner string) ([]record.Snapshot, error)
	SetOwner(ctx context.Context, id, owner string) error
}

type AuditEventRepository interface {
	Append(ctx context.Context, event domain.AuditEvent) (domain.AuditEvent, error)
	ListByStream(ctx context.Context, stream string) ([]domain.AuditEvent, error)
}

type PolicyEngine interface {
	Evaluate(ctx context.Context, input domain.PolicyInput) (domain.PolicyEvaluation, error)
}
