package domain

import "time"

const (
	// AuditGlobalStream is the reserved stream identifier for the
	// registry-wide audit chain.
	AuditGlobalStream = "__registry__"
	AuditChainVersion = "audit_chain_v1"
)

type AuditActorType string

const (
	AuditActorSystem    AuditActorType = "system"
	AuditActorPrincipal AuditActorType = "principal"
	AuditActorAdmin     AuditActorType = "admin_api_key"
)

type AuditEventType string

const (
	// AuditEventRecordMinted is the only event type the record core
	// commits to. Destruction is deliberately unaudited; the chain is an
	// append-only trail of creations.
	AuditEventRecordMinted AuditEventType = "record_minted"
)

type AuditTargetType string

const (
	AuditTargetRecord AuditTargetType = "record"
)

type AuditResult string

const (
	AuditResultSuccess AuditResult = "success"
	AuditResultFailure AuditResult = "failure"
)

// AuditEvent is one link in the hash-chained audit trail. Seq, PrevEventHash
// and EventHash are assigned by the repository on append.
type AuditEvent struct {
	ID            string
	Stream        string
	Seq           int64
	EventType     AuditEventType
	Payload       any
	PayloadHash   string
	ActorType     AuditActorType
	ActorID       string
	TargetType    AuditTargetType
	TargetID      string
	Result        AuditResult
	PrevEventHash string
	EventHash     string
	CreatedAt     time.Time
}
