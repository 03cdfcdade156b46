package usecase

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"provreg/internal/domain"
	"provreg/internal/infra/auditmem"
	"provreg/internal/infra/ledgermem"
	"provreg/internal/record"
)

func fixedClock(ms int64) record.Clock {
	return func() time.Time { return time.UnixMilli(ms) }
}

func mintParams() record.MintParams {
	return record.MintParams{
		PackageName:     "Test Package",
		MerkleAlgo:      61,
		MerkleRoot:      bytes.Repeat([]byte{0xAB}, 32),
		PackageBlobRef:  []byte("package_blob_id"),
		ManifestVersion: "1.4",
		ManifestAlgo:    61,
		ManifestHash:    bytes.Repeat([]byte{0xCD}, 32),
		ManifestBlobRef: []byte("manifest_blob_id"),
	}
}

type syncSink struct {
	emitter *AuditEmitter
}

func (s *syncSink) Publish(ev record.MintedEvent) {
	_ = s.emitter.EmitRecordMinted(context.Background(), ev)
}

func TestMintRecord_AssignsOwnership(t *testing.T) {
	ledger := ledgermem.New()
	audit := auditmem.New()
	emitter := NewAuditEmitter(audit, fixedClock(1000))

	uc := &MintRecord{
		Ledger: ledger,
		Clock:  fixedClock(1000),
		Events: &syncSink{emitter: emitter},
	}

	principal := domain.Principal{Subject: "alice"}
	resp, err := uc.Execute(context.Background(), principal, MintRecordRequest{Params: mintParams()})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if resp.Owner != "alice" {
		t.Fatalf("expected owner alice, got %s", resp.Owner)
	}

	_, owner, err := ledger.GetByID(context.Background(), resp.Record.ID())
	if err != nil {
		t.Fatalf("get minted record: %v", err)
	}
	if owner != "alice" {
		t.Fatalf("ledger owner = %s, want alice", owner)
	}

	events, err := audit.ListByStream(context.Background(), domain.AuditGlobalStream)
	if err != nil {
		t.Fatalf("list audit events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 audit event, got %d", len(events))
	}
	ev := events[0]
	if ev.EventType != domain.AuditEventRecordMinted {
		t.Fatalf("unexpected event type %s", ev.EventType)
	}
	if ev.TargetID != resp.Record.ID() || ev.ActorID != "alice" {
		t.Fatalf("unexpected event identity: %+v", ev)
	}
	if ev.PrevEventHash != domain.AuditZeroHash {
		t.Fatalf("first event not chained to zero hash: %s", ev.PrevEventHash)
	}
}

func TestMintRecord_ValidationFailureLeavesNoTrace(t *testing.T) {
	ledger := ledgermem.New()
	audit := auditmem.New()
	emitter := NewAuditEmitter(audit, fixedClock(1000))

	uc := &MintRecord{
		Ledger: ledger,
		Clock:  fixedClock(1000),
		Events: &syncSink{emitter: emitter},
	}

	p := mintParams()
	p.MerkleRoot = p.MerkleRoot[:3]
	_, err := uc.Execute(context.Background(), domain.Principal{Subject: "alice"}, MintRecordRequest{Params: p})
	if !errors.Is(err, record.ErrInvalidMerkleRootLength) {
		t.Fatalf("expected ErrInvalidMerkleRootLength, got %v", err)
	}

	events, _ := audit.ListByStream(context.Background(), domain.AuditGlobalStream)
	if len(events) != 0 {
		t.Fatalf("audit event recorded for failed mint: %d", len(events))
	}
	if snaps, _ := ledger.ListByOwner(context.Background(), "alice"); len(snaps) != 0 {
		t.Fatalf("record persisted for failed mint: %d", len(snaps))
	}
}

type denyAllPolicy struct{}

func (denyAllPolicy) Evaluate(ctx context.Context, input domain.PolicyInput) (domain.PolicyEvaluation, error) {
	return domain.PolicyEvaluation{Result: domain.PolicyResult{
		Allow: false,
		Deny:  []domain.PolicyDeny{{Code: "DENY_ALL"}},
	}}, nil
}

func TestMintRecord_AdmissionDenied(t *testing.T) {
	uc := &MintRecord{
		Ledger: ledgermem.New(),
		Clock:  fixedClock(1000),
		Policy: denyAllPolicy{},
	}
	_, err := uc.Execute(context.Background(), domain.Principal{Subject: "alice"}, MintRecordRequest{Params: mintParams()})
	if !errors.Is(err, domain.ErrAdmissionDenied) {
		t.Fatalf("expected ErrAdmissionDenied, got %v", err)
	}
}

type failingSaveLedger struct {
	*ledgermem.Ledger
	saveErr  error
	released int
}

func (l *failingSaveLedger) Save(ctx context.Context, rec *record.Record, owner string) error {
	return l.saveErr
}

func (l *failingSaveLedger) Release(ctx context.Context, id string) error {
	l.released++
	return l.Ledger.Release(ctx, id)
}

func TestMintRecord_SaveFailureRetiresIdentity(t *testing.T) {
	ledger := &failingSaveLedger{Ledger: ledgermem.New(), saveErr: errors.New("db down")}
	uc := &MintRecord{Ledger: ledger, Clock: fixedClock(1000)}

	_, err := uc.Execute(context.Background(), domain.Principal{Subject: "alice"}, MintRecordRequest{Params: mintParams()})
	if err == nil || err.Error() != "db down" {
		t.Fatalf("expected save error, got %v", err)
	}
	if ledger.released != 1 {
		t.Fatalf("expected allocated identity to be released, released=%d", ledger.released)
	}
}
