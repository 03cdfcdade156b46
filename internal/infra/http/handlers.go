package http

import (
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"
	"time"

	"provreg/internal/domain"
	"provreg/internal/record"
	"provreg/internal/usecase"

	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type mintRequest struct {
	PackageName    string        `json:"package_name"`
	MerkleAlgo     uint8         `json:"merkle_algo"`
	MerkleRoot     string        `json:"merkle_root"`
	PackageBlobRef string        `json:"package_blob_ref,omitempty"`
	Manifest       manifestInput `json:"manifest"`
}

type manifestInput struct {
	Version  string `json:"version"`
	Algo     uint8  `json:"algo"`
	Hash     string `json:"hash"`
	BlobRef  string `json:"blob_ref,omitempty"`
	ParentID string `json:"parent_id,omitempty"`
}

type recordResponse struct {
	RecordID       string           `json:"record_id"`
	Owner          string           `json:"owner,omitempty"`
	PackageName    string           `json:"package_name"`
	MerkleAlgo     uint8            `json:"merkle_algo"`
	MerkleRoot     string           `json:"merkle_root"`
	CreatedAtMS    int64            `json:"created_at_ms"`
	PackageBlobRef string           `json:"package_blob_ref,omitempty"`
	Manifest       manifestResponse `json:"manifest"`
}

type manifestResponse struct {
	Version  string `json:"version"`
	Algo     uint8  `json:"algo"`
	Hash     string `json:"hash"`
	BlobRef  string `json:"blob_ref,omitempty"`
	ParentID string `json:"parent_id,omitempty"`
}

type lineageEntryResponse struct {
	RecordID string          `json:"record_id"`
	Missing  bool            `json:"missing,omitempty"`
	Record   *recordResponse `json:"record,omitempty"`
}

type auditEventResponse struct {
	ID            string `json:"id"`
	Stream        string `json:"stream"`
	Seq           int64  `json:"seq"`
	EventType     string `json:"event_type"`
	PayloadHash   string `json:"payload_hash"`
	ActorID       string `json:"actor_id,omitempty"`
	TargetID      string `json:"target_id,omitempty"`
	Result        string `json:"result"`
	PrevEventHash string `json:"prev_event_hash"`
	EventHash     string `json:"event_hash"`
	CreatedAt     string `json:"created_at"`
}

type blobUploadResponse struct {
	BlobRef   string `json:"blob_ref"`
	UploadURL string `json:"upload_url"`
}

func (s *Server) handleMintRecord(c *gin.Context) {
	principal, ok := s.principal(c)
	if !ok {
		return
	}
	if !s.enforceRateLimit(c, principal) {
		return
	}
	var req mintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	merkleRoot, err := hex.DecodeString(req.MerkleRoot)
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_MERKLE_ROOT_ENCODING", "merkle_root must be hex")
		return
	}
	manifestHash, err := hex.DecodeString(req.Manifest.Hash)
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_MANIFEST_HASH_ENCODING", "manifest.hash must be hex")
		return
	}

	resp, err := s.mint.Execute(c.Request.Context(), principal, usecase.MintRecordRequest{
		Params: record.MintParams{
			PackageName:     req.PackageName,
			MerkleAlgo:      req.MerkleAlgo,
			MerkleRoot:      merkleRoot,
			PackageBlobRef:  []byte(req.PackageBlobRef),
			ManifestVersion: req.Manifest.Version,
			ManifestAlgo:    req.Manifest.Algo,
			ManifestHash:    manifestHash,
			ManifestBlobRef: []byte(req.Manifest.BlobRef),
			ParentID:        req.Manifest.ParentID,
		},
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, buildRecordResponse(resp.Record, resp.Owner))
}

func (s *Server) handleGetRecord(c *gin.Context) {
	rec, owner, err := s.query.ByID(c.Request.Context(), c.Param("record_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildRecordResponse(rec, owner))
}

func (s *Server) handleListRecords(c *gin.Context) {
	principal, ok := s.principal(c)
	if !ok {
		return
	}
	snaps, err := s.query.ListByOwner(c.Request.Context(), principal.Subject)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]recordResponse, 0, len(snaps))
	for i := range snaps {
		out = append(out, buildSnapshotResponse(&snaps[i], principal.Subject))
	}
	c.JSON(http.StatusOK, gin.H{"records": out})
}

func (s *Server) handleLineage(c *gin.Context) {
	maxDepth := 0
	if raw := c.Query("max_depth"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeErrorCode(c, http.StatusBadRequest, "INVALID_MAX_DEPTH", "max_depth must be a positive integer")
			return
		}
		maxDepth = parsed
	}
	entries, err := s.query.Lineage(c.Request.Context(), c.Param("record_id"), maxDepth)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]lineageEntryResponse, 0, len(entries))
	for _, entry := range entries {
		item := lineageEntryResponse{RecordID: entry.RecordID, Missing: entry.Missing}
		if entry.Snapshot != nil {
			resp := buildSnapshotResponse(entry.Snapshot, entry.Owner)
			item.Record = &resp
		}
		out = append(out, item)
	}
	c.JSON(http.StatusOK, gin.H{"lineage": out})
}

func (s *Server) handleDestroyRecord(c *gin.Context) {
	principal, ok := s.principal(c)
	if !ok {
		return
	}
	if err := s.destroy.Execute(c.Request.Context(), principal, c.Param("record_id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleListAudit(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	stream := c.Query("stream")
	if stream == "" {
		stream = domain.AuditGlobalStream
	}
	events, err := s.audit.ListByStream(c.Request.Context(), stream)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]auditEventResponse, 0, len(events))
	for _, event := range events {
		out = append(out, buildAuditEventResponse(event))
	}
	c.JSON(http.StatusOK, gin.H{"events": out})
}

func (s *Server) handleBlobUpload(c *gin.Context) {
	if _, ok := s.principal(c); !ok {
		return
	}
	if s.blobs == nil {
		writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "blob storage not configured")
		return
	}
	kind := c.Query("kind")
	if kind != "packages" && kind != "manifests" {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_BLOB_KIND", "kind must be packages or manifests")
		return
	}
	key, url, err := s.blobs.NewUploadURL(c.Request.Context(), kind)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, blobUploadResponse{BlobRef: key, UploadURL: url})
}

func (s *Server) handleBlobDownload(c *gin.Context) {
	if _, ok := s.principal(c); !ok {
		return
	}
	if s.blobs == nil {
		writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "blob storage not configured")
		return
	}
	key := c.Query("key")
	if key == "" {
		writeErrorCode(c, http.StatusBadRequest, "MISSING_BLOB_KEY", "key query parameter required")
		return
	}
	url, err := s.blobs.DownloadURL(c.Request.Context(), key)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"download_url": url})
}

// principal resolves the calling principal from headers. A valid admin key
// grants admin regardless of subject; otherwise X-Principal-ID is required
// on any route that acts on behalf of someone.
func (s *Server) principal(c *gin.Context) (domain.Principal, bool) {
	admin := false
	if key := c.GetHeader("X-Admin-Key"); key != "" && s.adminAPIKey != "" {
		admin = subtle.ConstantTimeCompare([]byte(key), []byte(s.adminAPIKey)) == 1
	}
	subject := c.GetHeader("X-Principal-ID")
	if subject == "" && !admin {
		writeErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "X-Principal-ID header required")
		return domain.Principal{}, false
	}
	return domain.Principal{Subject: subject, Admin: admin}, true
}

func (s *Server) requireAdmin(c *gin.Context) bool {
	if s.adminAPIKey == "" {
		writeErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "admin key required")
		return false
	}
	key := c.GetHeader("X-Admin-Key")
	if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(s.adminAPIKey)) != 1 {
		writeErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid admin key")
		return false
	}
	return true
}

func buildRecordResponse(rec *record.Record, owner string) recordResponse {
	snap := rec.Snapshot()
	return buildSnapshotResponse(&snap, owner)
}

func buildSnapshotResponse(snap *record.Snapshot, owner string) recordResponse {
	return recordResponse{
		RecordID:       snap.ID,
		Owner:          owner,
		PackageName:    snap.PackageName,
		MerkleAlgo:     snap.MerkleAlgo,
		MerkleRoot:     hex.EncodeToString(snap.MerkleRoot),
		CreatedAtMS:    snap.CreatedAtMS,
		PackageBlobRef: string(snap.PackageBlobRef),
		Manifest: manifestResponse{
			Version:  snap.ManifestVersion,
			Algo:     snap.ManifestAlgo,
			Hash:     hex.EncodeToString(snap.ManifestHash),
			BlobRef:  string(snap.ManifestBlobRef),
			ParentID: snap.ParentID,
		},
	}
}

func buildAuditEventResponse(event domain.AuditEvent) auditEventResponse {
	return auditEventResponse{
		ID:            event.ID,
		Stream:        event.Stream,
		Seq:           event.Seq,
		EventType:     string(event.EventType),
		PayloadHash:   event.PayloadHash,
		ActorID:       event.ActorID,
		TargetID:      event.TargetID,
		Result:        string(event.Result),
		PrevEventHash: event.PrevEventHash,
		EventHash:     event.EventHash,
		CreatedAt:     event.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func writeError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL"
	switch {
	case errors.Is(err, record.ErrEmptyPackageName):
		status, code = http.StatusBadRequest, "EMPTY_PACKAGE_NAME"
	case errors.Is(err, record.ErrInvalidMerkleRootLength):
		status, code = http.StatusBadRequest, "INVALID_MERKLE_ROOT_LENGTH"
	case errors.Is(err, record.ErrInvalidManifestHashLength):
		status, code = http.StatusBadRequest, "INVALID_MANIFEST_HASH_LENGTH"
	case errors.Is(err, domain.ErrAdmissionDenied):
		status, code = http.StatusForbidden, "ADMISSION_DENIED"
	case errors.Is(err, domain.ErrNotOwner):
		status, code = http.StatusForbidden, "NOT_OWNER"
	case errors.Is(err, domain.ErrForbidden):
		status, code = http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrUnauthorized):
		status, code = http.StatusUnauthorized, "UNAUTHORIZED"
	}
	writeErrorCode(c, status, code, err.Error())
}

func writeErrorCode(c *gin.Context, status int, code, message string) {
	c.JSON(status, errorResponse{
		Code:    code,
		Message: message,
	})
}
