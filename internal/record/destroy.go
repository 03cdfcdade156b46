package record

import "context"

// Destroy consumes a record: it releases the identity through the allocator
// and discards all field values. The caller must not touch the record
// afterwards. No event is published on destroy; the audit trail is
// append-only over creations.
func Destroy(ctx context.Context, allocator IdentityAllocator, rec *Record) error {
	return destroy(ctx, allocator, rec)
}

// Burn is the entry point for composing systems that already hold the
// record by value. Same contract as Destroy.
func Burn(ctx context.Context, allocator IdentityAllocator, rec *Record) error {
	return destroy(ctx, allocator, rec)
}

func destroy(ctx context.Context, allocator IdentityAllocator, rec *Record) error {
	if rec == nil {
		return nil
	}
	if err := allocator.Release(ctx, rec.id); err != nil {
		return err
	}
	*rec = Record{}
	return nil
}
