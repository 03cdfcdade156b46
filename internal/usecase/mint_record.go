package usecase

import (
	"context"
	"encoding/hex"

	"provreg/internal/domain"
	"provreg/internal/record"
)

type MintRecordRequest struct {
	Params record.MintParams
}

type MintRecordResponse struct {
	Record *record.Record
	Owner  string
}

// MintRecord is the mint-and-send-to-principal composition: it runs the
// core mint and immediately assigns ownership of the result to the calling
// principal in the ledger. It adds no validation of its own beyond the
// optional admission policy; the core's checks are authoritative.
type MintRecord struct {
	Ledger LedgerRepository
	Clock  record.Clock
	Events record.EventSink
	Policy PolicyEngine // optional; nil admits everything
}

func (uc *MintRecord) Execute(ctx context.Context, principal domain.Principal, req MintRecordRequest) (*MintRecordResponse, error) {
	p := req.Params

	if uc.Policy != nil {
		eval, err := uc.Policy.Evaluate(ctx, domain.PolicyInput{
			Principal:       principal.Subject,
			PackageName:     p.PackageName,
			MerkleAlgo:      p.MerkleAlgo,
			MerkleRootHex:   hex.EncodeToString(p.MerkleRoot),
			ManifestVersion: p.ManifestVersion,
			ManifestAlgo:    p.ManifestAlgo,
			ManifestHashHex: hex.EncodeToString(p.ManifestHash),
			ParentID:        p.ParentID,
		})
		if err != nil {
			return nil, err
		}
		if !eval.Result.Allow {
			return nil, domain.ErrAdmissionDenied
		}
	}

	minter := record.NewMinter(uc.Ledger, uc.Clock, uc.Events)
	rec, err := minter.Mint(ctx, principal.Subject, p)
	if err != nil {
		return nil, err
	}

	if err := uc.Ledger.Save(ctx, rec, principal.Subject); err != nil {
		// The identity was allocated but never persisted; hand the record
		// back to the core so the ledger can retire it.
		_ = record.Burn(ctx, uc.Ledger, rec)
		return nil, err
	}

	return &MintRecordResponse{Record: rec, Owner: principal.Subject}, nil
}
