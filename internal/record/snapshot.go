package record

import "errors"

// ErrMissingID rejects snapshot rehydration without an identity.
var ErrMissingID = errors.New("missing record id")

// Snapshot is the persisted layout of a record. It exists so storage
// implementations can round-trip every field, including the optional
// parent identifier, without this package giving up construction
// authority: FromSnapshot re-validates the invariants, so no value that
// could not have been minted can re-enter the system.
type Snapshot struct {
	ID              string
	PackageName     string
	MerkleAlgo      uint8
	MerkleRoot      []byte
	CreatedAtMS     int64
	PackageBlobRef  []byte
	ManifestVersion string
	ManifestAlgo    uint8
	ManifestHash    []byte
	ManifestBlobRef []byte
	ParentID        string
}

// Snapshot returns the record's persisted layout. Byte fields are copies.
func (r *Record) Snapshot() Snapshot {
	return Snapshot{
		ID:              r.id,
		PackageName:     r.packageName,
		MerkleAlgo:      r.merkleAlgo,
		MerkleRoot:      copyBytes(r.merkleRoot),
		CreatedAtMS:     r.createdAtMS,
		PackageBlobRef:  copyBytes(r.blobRef),
		ManifestVersion: r.manifest.version,
		ManifestAlgo:    r.manifest.algo,
		ManifestHash:    copyBytes(r.manifest.hash),
		ManifestBlobRef: copyBytes(r.manifest.blobRef),
		ParentID:        r.manifest.parentID,
	}
}

// FromSnapshot rehydrates a stored record. The same invariants that gate
// minting gate rehydration; a snapshot that could not have been minted is
// rejected.
func FromSnapshot(s Snapshot) (*Record, error) {
	if s.ID == "" {
		return nil, ErrMissingID
	}
	if len(s.PackageName) == 0 {
		return nil, ErrEmptyPackageName
	}
	if len(s.MerkleRoot) != HashLen {
		return nil, ErrInvalidMerkleRootLength
	}
	if len(s.ManifestHash) != HashLen {
		return nil, ErrInvalidManifestHashLength
	}
	return &Record{
		id:          s.ID,
		packageName: s.PackageName,
		merkleAlgo:  s.MerkleAlgo,
		merkleRoot:  copyBytes(s.MerkleRoot),
		createdAtMS: s.CreatedAtMS,
		blobRef:     copyBytes(s.PackageBlobRef),
		manifest: Manifest{
			version:  s.ManifestVersion,
			algo:     s.ManifestAlgo,
			hash:     copyBytes(s.ManifestHash),
			blobRef:  copyBytes(s.ManifestBlobRef),
			parentID: s.ParentID,
		},
	}, nil
}
