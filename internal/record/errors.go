package record

import "errors"

var (
	ErrEmptyPackageName          = errors.New("empty package name")
	ErrInvalidMerkleRootLength   = errors.New("invalid merkle root length")
	ErrInvalidManifestHashLength = errors.New("invalid manifest hash length")
)
