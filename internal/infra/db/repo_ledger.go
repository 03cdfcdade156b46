package db

import (
	"context"
	"errors"
	"time"

	"provreg/internal/domain"
	"provreg/internal/record"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LedgerRepository is the postgres identity/ownership ledger. Identities
// are uuids; Release deletes the row, and a fresh uuid can never collide
// with a retired one, so destroyed identities stay dead.
type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) Allocate(ctx context.Context) (string, error) {
	if r.db == nil {
		return "", errDBUnavailable
	}
	return uuid.NewString(), nil
}

func (r *LedgerRepository) Release(ctx context.Context, id string) error {
	if r.db == nil {
		return errDBUnavailable
	}
	if id == "" {
		return errors.New("record id is required")
	}
	return r.db.WithContext(ctx).Delete(&RecordModel{}, "id = ?", id).Error
}

func (r *LedgerRepository) Save(ctx context.Context, rec *record.Record, owner string) error {
	if r.db == nil {
		return errDBUnavailable
	}
	if owner == "" {
		return errors.New("owner is required")
	}
	model := modelFromSnapshot(rec.Snapshot(), owner)
	model.StoredAt = time.Now().UTC()
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *LedgerRepository) GetByID(ctx context.Context, id string) (*record.Record, string, error) {
	if r.db == nil {
		return nil, "", errDBUnavailable
	}
	var model RecordModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", domain.ErrNotFound
		}
		return nil, "", err
	}
	rec, err := record.FromSnapshot(snapshotFromModel(model))
	if err != nil {
		return nil, "", err
	}
	return rec, model.Owner, nil
}

func (r *LedgerRepository) ListByOwner(ctx context.Context, owner string) ([]record.Snapshot, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var models []RecordModel
	if err := r.db.WithContext(ctx).
		Where("owner = ?", owner).
		Order("created_at_ms ASC, id ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]record.Snapshot, 0, len(models))
	for _, model := range models {
		out = append(out, snapshotFromModel(model))
	}
	return out, nil
}

func (r *LedgerRepository) SetOwner(ctx context.Context, id, owner string) error {
	if r.db == nil {
		return errDBUnavailable
	}
	result := r.db.WithContext(ctx).
		Model(&RecordModel{}).
		Where("id = ?", id).
		Update("owner", owner)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func modelFromSnapshot(s record.Snapshot, owner string) RecordModel {
	return RecordModel{
		ID:              s.ID,
		Owner:           owner,
		PackageName:     s.PackageName,
		MerkleAlgo:      s.MerkleAlgo,
		MerkleRoot:      copyBytes(s.MerkleRoot),
		CreatedAtMS:     s.CreatedAtMS,
		PackageBlobRef:  copyBytes(s.PackageBlobRef),
		ManifestVersion: s.ManifestVersion,
		ManifestAlgo:    s.ManifestAlgo,
		ManifestHash:    copyBytes(s.ManifestHash),
		ManifestBlobRef: copyBytes(s.ManifestBlobRef),
		ParentID:        stringPtrIfNotEmpty(s.ParentID),
	}
}

func snapshotFromModel(m RecordModel) record.Snapshot {
	return record.Snapshot{
		ID:              m.ID,
		PackageName:     m.PackageName,
		MerkleAlgo:      m.MerkleAlgo,
		MerkleRoot:      copyBytes(m.MerkleRoot),
		CreatedAtMS:     m.CreatedAtMS,
		PackageBlobRef:  copyBytes(m.PackageBlobRef),
		ManifestVersion: m.ManifestVersion,
		ManifestAlgo:    m.ManifestAlgo,
		ManifestHash:    copyBytes(m.ManifestHash),
		ManifestBlobRef: copyBytes(m.ManifestBlobRef),
		ParentID:        stringValue(m.ParentID),
	}
}
