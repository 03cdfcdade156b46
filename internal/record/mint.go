package record

import (
	"context"
	"time"
)

// IdentityAllocator hands out record identities and removes them again.
// Allocate must never return a value still considered live; Release must
// make the identity unresolvable and never resurrect it.
type IdentityAllocator interface {
	Allocate(ctx context.Context) (string, error)
	Release(ctx context.Context, id string) error
}

// MintedEvent is the audit fact published once per successful mint.
type MintedEvent struct {
	RecordID    string
	Minter      string
	PackageName string
	MerkleRoot  []byte
	MintedAtMS  int64
}

// EventSink receives minted events. Publish is fire and forget: it must not
// block the mint, and a sink failure never invalidates the minted record.
type EventSink interface {
	Publish(event MintedEvent)
}

// MintParams carries the raw field values for a mint.
type MintParams struct {
	PackageName     string
	MerkleAlgo      uint8
	MerkleRoot      []byte
	PackageBlobRef  []byte
	ManifestVersion string
	ManifestAlgo    uint8
	ManifestHash    []byte
	ManifestBlobRef []byte
	ParentID        string // optional; opaque, never dereferenced
}

// Minter mints provenance records. Zero side effects occur before
// validation passes: a rejected mint allocates no identity and publishes
// no event.
type Minter struct {
	Allocator IdentityAllocator
	Clock     Clock
	Events    EventSink
}

func NewMinter(allocator IdentityAllocator, clock Clock, events EventSink) *Minter {
	if clock == nil {
		clock = time.Now
	}
	return &Minter{Allocator: allocator, Clock: clock, Events: events}
}

// Mint validates params, allocates a fresh identity, stamps the creation
// time, and returns the assembled record. The principal is included in the
// minted event only; it is not part of the record.
//
// Validation order is fixed: package name, merkle root length, manifest
// hash length. The first violated check wins.
func (m *Minter) Mint(ctx context.Context, principal string, p MintParams) (*Record, error) {
	if len(p.PackageName) == 0 {
		return nil, ErrEmptyPackageName
	}
	if len(p.MerkleRoot) != HashLen {
		return nil, ErrInvalidMerkleRootLength
	}
	if len(p.ManifestHash) != HashLen {
		return nil, ErrInvalidManifestHashLength
	}

	createdAt := m.now().UnixMilli()

	id, err := m.Allocator.Allocate(ctx)
	if err != nil {
		return nil, err
	}

	rec := &Record{
		id:          id,
		packageName: p.PackageName,
		merkleAlgo:  p.MerkleAlgo,
		merkleRoot:  copyBytes(p.MerkleRoot),
		createdAtMS: createdAt,
		blobRef:     copyBytes(p.PackageBlobRef),
		manifest: Manifest{
			version:  p.ManifestVersion,
			algo:     p.ManifestAlgo,
			hash:     copyBytes(p.ManifestHash),
			blobRef:  copyBytes(p.ManifestBlobRef),
			parentID: p.ParentID,
		},
	}

	if m.Events != nil {
		m.Events.Publish(MintedEvent{
			RecordID:    rec.id,
			Minter:      principal,
			PackageName: rec.packageName,
			MerkleRoot:  copyBytes(rec.merkleRoot),
			MintedAtMS:  rec.createdAtMS,
		})
	}

	return rec, nil
}

func (m *Minter) now() time.Time {
	if m.Clock != nil {
		return m.Clock()
	}
	return time.Now()
}
