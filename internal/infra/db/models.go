package db

import "time"

// RecordModel is the persisted layout of a provenance record plus its
// current owner. Every field of the record round-trips, including the
// optional parent identifier.
type RecordModel struct {
	ID              string `gorm:"type:uuid;primaryKey"`
	Owner           string `gorm:"index;not null"`
	PackageName     string `gorm:"not null"`
	MerkleAlgo      uint8  `gorm:"not null"`
	MerkleRoot      []byte `gorm:"type:bytea;not null"`
	CreatedAtMS     int64  `gorm:"not null"`
	PackageBlobRef  []byte `gorm:"type:bytea"`
	ManifestVersion string
	ManifestAlgo    uint8  `gorm:"not null"`
	ManifestHash    []byte `gorm:"type:bytea;not null"`
	ManifestBlobRef []byte `gorm:"type:bytea"`
	ParentID        *string `gorm:"type:uuid;index"`
	StoredAt        time.Time `gorm:"not null"`
}

func (RecordModel) TableName() string { return "records" }

type AuditEventModel struct {
	ID            string    `gorm:"type:uuid;primaryKey"`
	Stream        string    `gorm:"index:idx_audit_stream_seq,unique;not null"`
	Seq           int64     `gorm:"index:idx_audit_stream_seq,unique;not null"`
	EventType     string    `gorm:"not null"`
	PayloadJSON   []byte    `gorm:"type:jsonb;not null"`
	PayloadHash   string    `gorm:"not null"`
	ActorType     string    `gorm:"not null"`
	ActorID       *string
	TargetType    string    `gorm:"not null"`
	TargetID      *string
	Result        string    `gorm:"not null"`
	PrevEventHash string    `gorm:"not null"`
	EventHash     string    `gorm:"not null"`
	CreatedAt     time.Time `gorm:"not null"`
}

func (AuditEventModel) TableName() string { return "audit_events" }

// AuditSeqModel holds the per-stream sequence counter, row-locked on
// append so chains never fork.
type AuditSeqModel struct {
	Stream string `gorm:"primaryKey"`
	Seq    int64  `gorm:"not null"`
}

func (AuditSeqModel) TableName() string { return "audit_seq" }
