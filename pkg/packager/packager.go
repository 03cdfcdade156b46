// Package packager computes the content commitments a client submits when
// minting a provenance record: the package merkle root over the package
// files and the manifest hash over the manifest bytes.
package packager

import (
	"crypto/sha256"
	"errors"
	"sort"
)

// HashLen is the byte length of every hash this package produces.
const HashLen = 32

// AlgoSHA256RFC6962 tags roots built from sha256 leaf/node hashing with
// domain-separated prefixes (0x00 for leaves, 0x01 for interior nodes).
const AlgoSHA256RFC6962 uint8 = 1

var ErrEmptyPackage = errors.New("package has no files")

// File is one entry of a package. The path participates in the leaf hash,
// so moving a file changes the root even when its bytes do not.
type File struct {
	Path string
	Data []byte
}

// Summary carries the commitments for a mint request.
type Summary struct {
	MerkleAlgo   uint8
	MerkleRoot   []byte
	ManifestAlgo uint8
	ManifestHash []byte
}

// Summarize computes the package root and manifest hash in one pass.
func Summarize(files []File, manifest []byte) (Summary, error) {
	root, err := Root(files)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		MerkleAlgo:   AlgoSHA256RFC6962,
		MerkleRoot:   root,
		ManifestAlgo: AlgoSHA256RFC6962,
		ManifestHash: ManifestHash(manifest),
	}, nil
}

// Root computes the merkle root over the package files. Files are ordered
// by path before hashing, so the root is independent of input order.
func Root(files []File) ([]byte, error) {
	if len(files) == 0 {
		return nil, ErrEmptyPackage
	}
	sorted := make([]File, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	leaves := make([][]byte, len(sorted))
	for i, f := range sorted {
		leaves[i] = leafHash(f)
	}
	return treeHash(leaves), nil
}

// ManifestHash hashes the raw manifest bytes.
func ManifestHash(manifest []byte) []byte {
	sum := sha256.Sum256(manifest)
	return sum[:]
}

func leafHash(f File) []byte {
	hasher := sha256.New()
	hasher.Write([]byte{0x00})
	hasher.Write([]byte(f.Path))
	hasher.Write([]byte{0x00})
	hasher.Write(f.Data)
	return hasher.Sum(nil)
}

func nodeHash(left, right []byte) []byte {
	hasher := sha256.New()
	hasher.Write([]byte{0x01})
	hasher.Write(left)
	hasher.Write(right)
	return hasher.Sum(nil)
}

func treeHash(leaves [][]byte) []byte {
	if len(leaves) == 1 {
		return leaves[0]
	}
	k := largestPowerOfTwoLessThan(len(leaves))
	return nodeHash(treeHash(leaves[:k]), treeHash(leaves[k:]))
}

func largestPowerOfTwoLessThan(value int) int {
	power := 1
	for power<<1 < value {
		power <<= 1
	}
	return power
}
