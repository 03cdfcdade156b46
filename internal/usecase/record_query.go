package usecase

import (
	"context"
	"errors"
	"sort"

	"provreg/internal/domain"
	"provreg/internal/record"
)

// DefaultLineageDepth bounds a lineage walk when the caller does not.
const DefaultLineageDepth = 32

// LineageEntry is one step of a parent-chain walk. Missing marks a parent
// identifier whose record no longer resolves; the chain itself never
// guaranteed referential integrity, so a dangling link is data, not an
// error.
type LineageEntry struct {
	RecordID string
	Snapshot *record.Snapshot
	Owner    string
	Missing  bool
}

// RecordQuery serves read-only projections over the ledger. Walking the
// parent chain lives here, outside the record core, which never
// dereferences parent identifiers.
type RecordQuery struct {
	Ledger LedgerRepository
}

func (q *RecordQuery) ByID(ctx context.Context, id string) (*record.Record, string, error) {
	return q.Ledger.GetByID(ctx, id)
}

func (q *RecordQuery) ListByOwner(ctx context.Context, owner string) ([]record.Snapshot, error) {
	snaps, err := q.Ledger.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].ID < snaps[j].ID })
	return snaps, nil
}

// Lineage walks parent links starting from id, newest first. The walk
// stops at the first record without a parent, at a dangling parent
// (reported as a Missing entry), at a cycle, or at maxDepth.
func (q *RecordQuery) Lineage(ctx context.Context, id string, maxDepth int) ([]LineageEntry, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultLineageDepth
	}

	var out []LineageEntry
	seen := map[string]bool{}
	current := id

	for len(out) < maxDepth {
		if seen[current] {
			break
		}
		seen[current] = true

		rec, owner, err := q.Ledger.GetByID(ctx, current)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				if len(out) == 0 {
					return nil, domain.ErrNotFound
				}
				out = append(out, LineageEntry{RecordID: current, Missing: true})
				break
			}
			return nil, err
		}

		snap := rec.Snapshot()
		out = append(out, LineageEntry{RecordID: current, Snapshot: &snap, Owner: owner})

		parent, ok := rec.ManifestSnapshot().ParentID()
		if !ok {
			break
		}
		current = parent
	}
	return out, nil
}
