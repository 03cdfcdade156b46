package usecase

import (
	"context"
	"encoding/hex"
	"errors"
	"time"

	"provreg/internal/domain"
	"provreg/internal/record"
)

type AuditEmitter struct {
	Repo  AuditEventRepository
	Clock record.Clock
}

func NewAuditEmitter(repo AuditEventRepository, clock record.Clock) *AuditEmitter {
	return &AuditEmitter{Repo: repo, Clock: clock}
}

func (e *AuditEmitter) Emit(ctx context.Context, event domain.AuditEvent) (domain.AuditEvent, error) {
	if e == nil || e.Repo == nil {
		return domain.AuditEvent{}, errors.New("audit repository required")
	}
	if event.EventType == "" || event.TargetType == "" || event.Result == "" || event.ActorType == "" {
		return domain.AuditEvent{}, errors.New("audit event missing required fields")
	}
	if event.Payload == nil {
		event.Payload = map[string]any{}
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = e.now().UTC()
	} else {
		event.CreatedAt = event.CreatedAt.UTC()
	}
	return e.Repo.Append(ctx, event)
}

// EmitRecordMinted appends the creation fact for a freshly minted record.
func (e *AuditEmitter) EmitRecordMinted(ctx context.Context, ev record.MintedEvent) error {
	payload := map[string]any{
		"record_id":       ev.RecordID,
		"minter":          ev.Minter,
		"package_name":    ev.PackageName,
		"merkle_root_hex": hex.EncodeToString(ev.MerkleRoot),
		"minted_at_ms":    ev.MintedAtMS,
	}
	_, err := e.Emit(ctx, domain.AuditEvent{
		Stream:     domain.AuditGlobalStream,
		ActorType:  domain.AuditActorPrincipal,
		ActorID:    ev.Minter,
		EventType:  domain.AuditEventRecordMinted,
		Payload:    payload,
		TargetType: domain.AuditTargetRecord,
		TargetID:   ev.RecordID,
		Result:     domain.AuditResultSuccess,
	})
	return err
}

func (e *AuditEmitter) now() time.Time {
	if e != nil && e.Clock != nil {
		return e.Clock()
	}
	return time.Now().UTC()
}
