package usecase

import (
	"context"

	"provreg/internal/domain"
	"provreg/internal/record"
)

// DestroyRecord tears a record down on behalf of its owner. The ledger
// release inside the core destroy removes the identity from storage, so
// the record is unresolvable afterwards. Destruction emits no audit event.
type DestroyRecord struct {
	Ledger LedgerRepository
}

func (uc *DestroyRecord) Execute(ctx context.Context, principal domain.Principal, recordID string) error {
	rec, owner, err := uc.Ledger.GetByID(ctx, recordID)
	if err != nil {
		return err
	}
	if owner != principal.Subject && !principal.Admin {
		return domain.ErrNotOwner
	}
	return record.Destroy(ctx, uc.Ledger, rec)
}
