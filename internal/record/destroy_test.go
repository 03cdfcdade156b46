package record

import (
	"context"
	"errors"
	"testing"
)

func TestDestroy_ReleasesIdentityOnce(t *testing.T) {
	alloc := &fakeAllocator{}
	minter := NewMinter(alloc, fixedClock(1000), nil)

	rec, err := minter.Mint(context.Background(), "p", validParams())
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	id := rec.ID()

	if err := Destroy(context.Background(), alloc, rec); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if len(alloc.released) != 1 || alloc.released[0] != id {
		t.Fatalf("expected single release of %s, got %v", id, alloc.released)
	}
	if rec.ID() != "" {
		t.Fatal("destroyed record retains identity")
	}
	if rec.MerkleRoot() != nil {
		t.Fatal("destroyed record retains field values")
	}
}

func TestBurn_SameContractAsDestroy(t *testing.T) {
	alloc := &fakeAllocator{}
	minter := NewMinter(alloc, fixedClock(1000), nil)

	rec, err := minter.Mint(context.Background(), "p", validParams())
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	id := rec.ID()

	if err := Burn(context.Background(), alloc, rec); err != nil {
		t.Fatalf("burn: %v", err)
	}
	if len(alloc.released) != 1 || alloc.released[0] != id {
		t.Fatalf("expected single release of %s, got %v", id, alloc.released)
	}
}

type failingAllocator struct {
	fakeAllocator
	releaseErr error
}

func (f *failingAllocator) Release(ctx context.Context, id string) error {
	return f.releaseErr
}

func TestDestroy_PropagatesReleaseError(t *testing.T) {
	wantErr := errors.New("ledger down")
	alloc := &failingAllocator{releaseErr: wantErr}
	minter := NewMinter(alloc, fixedClock(1000), nil)

	rec, err := minter.Mint(context.Background(), "p", validParams())
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := Destroy(context.Background(), alloc, rec); !errors.Is(err, wantErr) {
		t.Fatalf("expected release error, got %v", err)
	}
	// Record is left intact when the ledger refuses the release.
	if rec.ID() == "" {
		t.Fatal("record cleared despite failed release")
	}
}

func TestDestroy_NilRecordIsNoop(t *testing.T) {
	alloc := &fakeAllocator{}
	if err := Destroy(context.Background(), alloc, nil); err != nil {
		t.Fatalf("destroy nil: %v", err)
	}
	if len(alloc.released) != 0 {
		t.Fatal("release called for nil record")
	}
}
