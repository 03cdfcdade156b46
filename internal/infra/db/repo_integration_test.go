//go:build integration
// +build integration

package db

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"provreg/internal/domain"
	"provreg/internal/record"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestLedgerRepository_SaveGetRelease(t *testing.T) {
	db := setupTestDB(t)
	resetDB(t, db)

	repo := NewLedgerRepository(db)
	rec := mintTestRecord(t, repo, "Test Package")

	if err := repo.Save(context.Background(), rec, "alice"); err != nil {
		t.Fatalf("save record: %v", err)
	}

	got, owner, err := repo.GetByID(context.Background(), rec.ID())
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if owner != "alice" {
		t.Fatalf("expected owner alice, got %q", owner)
	}
	if got.PackageName() != "Test Package" {
		t.Fatalf("unexpected package name %q", got.PackageName())
	}
	if !bytes.Equal(got.MerkleRoot(), rec.MerkleRoot()) {
		t.Fatal("merkle root mismatch")
	}
	if got.CreatedAtMS() != rec.CreatedAtMS() {
		t.Fatalf("created_at_ms mismatch: %d vs %d", got.CreatedAtMS(), rec.CreatedAtMS())
	}

	id := rec.ID()
	if err := record.Destroy(context.Background(), repo, rec); err != nil {
		t.Fatalf("destroy record: %v", err)
	}
	if _, _, err := repo.GetByID(context.Background(), id); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after destroy, got %v", err)
	}
}

func TestLedgerRepository_ParentRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	resetDB(t, db)

	repo := NewLedgerRepository(db)
	parent := mintTestRecord(t, repo, "Parent Package")
	if err := repo.Save(context.Background(), parent, "alice"); err != nil {
		t.Fatalf("save parent: %v", err)
	}

	child := mintTestRecordWithParent(t, repo, "Child Package", parent.ID())
	if err := repo.Save(context.Background(), child, "alice"); err != nil {
		t.Fatalf("save child: %v", err)
	}

	got, _, err := repo.GetByID(context.Background(), child.ID())
	if err != nil {
		t.Fatalf("get child: %v", err)
	}
	parentID, ok := got.ParentID()
	if !ok || parentID != parent.ID() {
		t.Fatalf("expected parent %s, got %q (ok=%v)", parent.ID(), parentID, ok)
	}

	snaps, err := repo.ListByOwner(context.Background(), "alice")
	if err != nil {
		t.Fatalf("list by owner: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("expected 2 records for alice, got %d", len(snaps))
	}
}

func TestLedgerRepository_SetOwner(t *testing.T) {
	db := setupTestDB(t)
	resetDB(t, db)

	repo := NewLedgerRepository(db)
	rec := mintTestRecord(t, repo, "Test Package")
	if err := repo.Save(context.Background(), rec, "alice"); err != nil {
		t.Fatalf("save record: %v", err)
	}

	if err := repo.SetOwner(context.Background(), rec.ID(), "bob"); err != nil {
		t.Fatalf("set owner: %v", err)
	}
	_, owner, err := repo.GetByID(context.Background(), rec.ID())
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if owner != "bob" {
		t.Fatalf("expected owner bob, got %q", owner)
	}

	if err := repo.SetOwner(context.Background(), uuid.NewString(), "bob"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown record, got %v", err)
	}
}

func TestAuditEventRepository_Append_HashChain(t *testing.T) {
	db := setupTestDB(t)
	resetDB(t, db)

	repo := NewAuditEventRepository(db)
	firstTime := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	first, err := repo.Append(context.Background(), domain.AuditEvent{
		Stream:    domain.AuditGlobalStream,
		ActorType: domain.AuditActorPrincipal,
		ActorID:   "alice",
		EventType: domain.AuditEventRecordMinted,
		Payload: map[string]any{
			"record_id":    uuid.NewString(),
			"package_name": "Test Package",
		},
		TargetType: domain.AuditTargetRecord,
		TargetID:   "r-1",
		Result:     domain.AuditResultSuccess,
		CreatedAt:  firstTime,
	})
	if err != nil {
		t.Fatalf("append first audit event: %v", err)
	}
	if first.Seq != 1 {
		t.Fatalf("expected seq 1, got %d", first.Seq)
	}
	if first.PrevEventHash != domain.AuditZeroHash {
		t.Fatalf("expected zero prev hash, got %s", first.PrevEventHash)
	}
	if first.EventHash == "" {
		t.Fatal("expected event_hash for first audit event")
	}

	second, err := repo.Append(context.Background(), domain.AuditEvent{
		Stream:    domain.AuditGlobalStream,
		ActorType: domain.AuditActorPrincipal,
		ActorID:   "alice",
		EventType: domain.AuditEventRecordMinted,
		Payload: map[string]any{
			"record_id":    uuid.NewString(),
			"package_name": "Test Package 2",
		},
		TargetType: domain.AuditTargetRecord,
		TargetID:   "r-2",
		Result:     domain.AuditResultSuccess,
		CreatedAt:  firstTime.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("append second audit event: %v", err)
	}
	if second.Seq != 2 {
		t.Fatalf("expected seq 2, got %d", second.Seq)
	}
	if second.PrevEventHash != first.EventHash {
		t.Fatal("expected second event to chain to first")
	}

	events, err := repo.ListByStream(context.Background(), domain.AuditGlobalStream)
	if err != nil {
		t.Fatalf("list audit events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 audit events, got %d", len(events))
	}
	if events[0].EventHash != first.EventHash || events[1].EventHash != second.EventHash {
		t.Fatal("listed events out of order")
	}
}

func TestAuditEventRepository_Append_MissingEventType(t *testing.T) {
	db := setupTestDB(t)
	resetDB(t, db)

	repo := NewAuditEventRepository(db)
	if _, err := repo.Append(context.Background(), domain.AuditEvent{
		Stream:    domain.AuditGlobalStream,
		ActorType: domain.AuditActorSystem,
		Result:    domain.AuditResultFailure,
	}); err == nil {
		t.Fatal("expected error for missing event_type")
	}
}

func mintTestRecord(t *testing.T, allocator record.IdentityAllocator, name string) *record.Record {
	t.Helper()
	return mintTestRecordWithParent(t, allocator, name, "")
}

func mintTestRecordWithParent(t *testing.T, allocator record.IdentityAllocator, name, parentID string) *record.Record {
	t.Helper()
	minter := record.NewMinter(allocator, func() time.Time {
		return time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	}, nil)
	rec, err := minter.Mint(context.Background(), "alice", record.MintParams{
		PackageName:     name,
		MerkleAlgo:      61,
		MerkleRoot:      bytes.Repeat([]byte{0xAB}, record.HashLen),
		PackageBlobRef:  []byte("package_blob_id"),
		ManifestVersion: "1.4",
		ManifestAlgo:    61,
		ManifestHash:    bytes.Repeat([]byte{0xCD}, record.HashLen),
		ManifestBlobRef: []byte("manifest_blob_id"),
		ParentID:        parentID,
	})
	if err != nil {
		t.Fatalf("mint test record: %v", err)
	}
	return rec
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := strings.TrimSpace(os.Getenv("POSTGRES_DSN_TEST"))
	if dsn == "" {
		t.Skip("POSTGRES_DSN_TEST not set")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	lockTestDB(t, gdb)
	if err := (&Store{DB: gdb}).Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func lockTestDB(t *testing.T, db *gorm.DB) {
	t.Helper()
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	conn, err := sqlDB.Conn(context.Background())
	if err != nil {
		t.Fatalf("open db conn: %v", err)
	}
	if _, err := conn.ExecContext(context.Background(), "SELECT pg_advisory_lock(424242001)"); err != nil {
		_ = conn.Close()
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_, _ = conn.ExecContext(context.Background(), "SELECT pg_advisory_unlock(424242001)")
		_ = conn.Close()
	})
}

func resetDB(t *testing.T, db *gorm.DB) {
	t.Helper()
	if err := db.Exec(`
		TRUNCATE records,
			audit_events,
			audit_seq
		RESTART IDENTITY CASCADE`).Error; err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}
