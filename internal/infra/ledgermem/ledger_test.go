package ledgermem

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"provreg/internal/domain"
	"provreg/internal/record"
)

func mintInto(t *testing.T, l *Ledger, owner string) *record.Record {
	t.Helper()
	minter := record.NewMinter(l, func() time.Time { return time.UnixMilli(7) }, nil)
	rec, err := minter.Mint(context.Background(), owner, record.MintParams{
		PackageName:  "pkg",
		MerkleRoot:   bytes.Repeat([]byte{1}, 32),
		ManifestHash: bytes.Repeat([]byte{2}, 32),
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := l.Save(context.Background(), rec, owner); err != nil {
		t.Fatalf("save: %v", err)
	}
	return rec
}

func TestLedger_SaveGetRelease(t *testing.T) {
	l := New()
	rec := mintInto(t, l, "alice")
	id := rec.ID()

	got, owner, err := l.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if owner != "alice" || got.ID() != id {
		t.Fatalf("got id=%s owner=%s", got.ID(), owner)
	}

	if err := l.Release(context.Background(), id); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, _, err := l.GetByID(context.Background(), id); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("released id still resolves: %v", err)
	}
}

func TestLedger_AllocateNeverRepeats(t *testing.T) {
	l := New()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id, err := l.Allocate(context.Background())
		if err != nil {
			t.Fatalf("allocate: %v", err)
		}
		if seen[id] {
			t.Fatalf("id %s repeated", id)
		}
		seen[id] = true
	}
}

func TestLedger_SetOwner(t *testing.T) {
	l := New()
	rec := mintInto(t, l, "alice")

	if err := l.SetOwner(context.Background(), rec.ID(), "bob"); err != nil {
		t.Fatalf("set owner: %v", err)
	}
	_, owner, err := l.GetByID(context.Background(), rec.ID())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if owner != "bob" {
		t.Fatalf("owner = %s, want bob", owner)
	}

	if err := l.SetOwner(context.Background(), "missing", "bob"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
