// Package record defines the provenance record for content packages and the
// only construction and destruction paths that can produce or consume one.
//
// A record binds a package name to a merkle commitment over the package
// content and to an integrity-committed manifest reference. Fields are
// unexported: code outside this package can hold, copy, and read records but
// never assemble or tear one down by hand.
package record

import "time"

// HashLen is the required byte length of merkle roots and manifest hashes.
const HashLen = 32

// Clock supplies the creation timestamp. It is read exactly once per mint.
type Clock func() time.Time

// Manifest is the embedded manifest reference. It is a plain value: copyable,
// no identity, no lifecycle of its own.
type Manifest struct {
	version  string
	algo     uint8
	hash     []byte
	blobRef  []byte
	parentID string
}

// Version returns the free-form manifest version string.
func (m Manifest) Version() string { return m.version }

// Algo returns the manifest hash algorithm tag. The tag is opaque to this
// package; interpreting it is the reader's concern.
func (m Manifest) Algo() uint8 { return m.algo }

// Hash returns a copy of the 32-byte manifest hash.
func (m Manifest) Hash() []byte { return copyBytes(m.hash) }

// BlobRef returns a copy of the opaque manifest storage reference.
func (m Manifest) BlobRef() []byte { return copyBytes(m.blobRef) }

// ParentID returns the parent record identifier and whether one is set.
// The identifier is never dereferenced here; a parent may no longer exist.
func (m Manifest) ParentID() (string, bool) {
	return m.parentID, m.parentID != ""
}

// Record is an immutable, uniquely identified provenance record. Between
// mint and destroy no field changes, so concurrent readers need no
// synchronization.
type Record struct {
	id          string
	packageName string
	merkleAlgo  uint8
	merkleRoot  []byte
	createdAtMS int64
	blobRef     []byte
	manifest    Manifest
}

// ID returns the record identity allocated at mint.
func (r *Record) ID() string { return r.id }

// PackageName returns the human-readable package name. Never empty on a
// live record.
func (r *Record) PackageName() string { return r.packageName }

// MerkleAlgo returns the opaque merkle root algorithm tag.
func (r *Record) MerkleAlgo() uint8 { return r.merkleAlgo }

// MerkleRoot returns a copy of the 32-byte merkle root.
func (r *Record) MerkleRoot() []byte { return copyBytes(r.merkleRoot) }

// CreatedAtMS returns the mint timestamp in milliseconds since epoch, as
// reported by the clock at mint time.
func (r *Record) CreatedAtMS() int64 { return r.createdAtMS }

// BlobRef returns a copy of the opaque package storage reference.
func (r *Record) BlobRef() []byte { return copyBytes(r.blobRef) }

// ManifestSnapshot returns the embedded manifest by value.
func (r *Record) ManifestSnapshot() Manifest {
	m := r.manifest
	m.hash = copyBytes(m.hash)
	m.blobRef = copyBytes(m.blobRef)
	return m
}

func copyBytes(in []byte) []byte {
	if in == nil {
		return nil
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}
