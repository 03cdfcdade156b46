package http

import (
	"context"
	"net/http"
	"time"

	"provreg/internal/config"
	"provreg/internal/domain"
	"provreg/internal/infra/auditmem"
	"provreg/internal/infra/blobstore"
	"provreg/internal/infra/db"
	"provreg/internal/infra/events"
	"provreg/internal/infra/ledgermem"
	"provreg/internal/infra/policyopa"
	"provreg/internal/infra/ratelimit"
	"provreg/internal/logging"
	"provreg/internal/usecase"

	"github.com/gin-gonic/gin"
)

type Server struct {
	cfg   config.Config
	store *db.Store
	r     *gin.Engine

	mint    *usecase.MintRecord
	destroy *usecase.DestroyRecord
	query   *usecase.RecordQuery
	audit   usecase.AuditEventRepository
	sink    *events.AuditSink
	blobs   *blobstore.Store

	logger      logging.Logger
	adminAPIKey string
	policyHash  string

	rateLimiter         domain.RateLimiter
	rateLimitRequests   int
	rateLimitWindow     time.Duration
	rateLimitFailClosed bool
}

// NewServer wires the full registry from config: postgres ledger when a
// DSN is set, in-memory otherwise, with the audit chain following the
// same split.
func NewServer(cfg config.Config, store *db.Store, logger logging.Logger) (*Server, error) {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{cfg: cfg, store: store, r: r, logger: logger}
	if err := s.initDeps(); err != nil {
		return nil, err
	}
	s.routes()
	return s, nil
}

// ServerDeps lets tests and embedders swap any collaborator.
type ServerDeps struct {
	Mint        *usecase.MintRecord
	Destroy     *usecase.DestroyRecord
	Query       *usecase.RecordQuery
	Audit       usecase.AuditEventRepository
	Sink        *events.AuditSink
	Blobs       *blobstore.Store
	Logger      logging.Logger
	AdminAPIKey string
	RateLimiter domain.RateLimiter
}

func NewServerWithDeps(cfg config.Config, deps ServerDeps) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{
		cfg:         cfg,
		r:           r,
		mint:        deps.Mint,
		destroy:     deps.Destroy,
		query:       deps.Query,
		audit:       deps.Audit,
		sink:        deps.Sink,
		blobs:       deps.Blobs,
		logger:      deps.Logger,
		adminAPIKey: deps.AdminAPIKey,
	}
	s.initRateLimit(deps.RateLimiter)
	s.routes()
	return s
}

func (s *Server) initDeps() error {
	s.adminAPIKey = s.cfg.AdminAPIKey

	var ledger usecase.LedgerRepository
	var auditRepo usecase.AuditEventRepository
	if s.store != nil && s.store.DB != nil {
		ledger = db.NewLedgerRepository(s.store.DB)
		auditRepo = db.NewAuditEventRepository(s.store.DB)
	} else {
		ledger = ledgermem.New()
		auditRepo = auditmem.New()
	}

	emitter := usecase.NewAuditEmitter(auditRepo, nil)
	s.sink = events.NewAuditSink(emitter, s.logger)
	s.audit = auditRepo

	var policy usecase.PolicyEngine
	if s.cfg.PolicyBundlePath != "" {
		engine, err := policyopa.NewEngineFromBundlePath(context.Background(), s.cfg.PolicyBundlePath, s.cfg.PolicyBundleID)
		if err != nil {
			return err
		}
		policy = engine
		s.policyHash = engine.BundleHash()
	}

	if s.cfg.S3Bucket != "" {
		blobs, err := blobstore.New(context.Background(), blobstore.Config{
			Region:       s.cfg.S3Region,
			Bucket:       s.cfg.S3Bucket,
			AccessKey:    s.cfg.S3AccessKey,
			SecretKey:    s.cfg.S3SecretKey,
			BaseEndpoint: s.cfg.S3BaseEndpoint,
		})
		if err != nil {
			return err
		}
		s.blobs = blobs
	}

	s.mint = &usecase.MintRecord{
		Ledger: ledger,
		Events: s.sink,
		Policy: policy,
	}
	s.destroy = &usecase.DestroyRecord{Ledger: ledger}
	s.query = &usecase.RecordQuery{Ledger: ledger}

	s.initRateLimit(nil)
	return nil
}

func (s *Server) initRateLimit(override domain.RateLimiter) {
	if override != nil {
		s.rateLimiter = override
	}
	if s.rateLimiter == nil && s.cfg.RateLimitRequests > 0 {
		if s.cfg.RedisAddr != "" {
			if limiter, err := ratelimit.NewRedisLimiter(s.cfg.RedisAddr, s.cfg.RedisPassword, s.cfg.RedisDB, nil); err == nil {
				s.rateLimiter = limiter
			}
		}
		if s.rateLimiter == nil {
			s.rateLimiter = ratelimit.NewMemoryLimiter(ratelimit.MemoryLimiterConfig{
				MaxKeys: s.cfg.RateLimitMaxKeys,
			})
		}
	}
	s.rateLimitRequests = s.cfg.RateLimitRequests
	s.rateLimitWindow = s.cfg.RateLimitWindow()
	s.rateLimitFailClosed = s.cfg.RateLimitFailClosed
}

func (s *Server) routes() {
	s.r.GET("/healthz", func(c *gin.Context) {
		dbMode := "no-db"
		if s.store != nil && s.store.DB != nil {
			dbMode = "db"
		}
		out := gin.H{"status": "ok", "mode": dbMode}
		if s.policyHash != "" {
			out["policy_bundle_hash"] = s.policyHash
		}
		c.JSON(http.StatusOK, out)
	})

	v1 := s.r.Group("/v1")
	{
		v1.POST("/records", s.handleMintRecord)
		v1.GET("/records", s.handleListRecords)
		v1.GET("/records/:record_id", s.handleGetRecord)
		v1.GET("/records/:record_id/lineage", s.handleLineage)
		v1.DELETE("/records/:record_id", s.handleDestroyRecord)
		v1.POST("/records/:record_id/destroy", s.handleDestroyRecord)

		v1.GET("/audit", s.handleListAudit)

		v1.POST("/blobs/uploads", s.handleBlobUpload)
		v1.GET("/blobs/download", s.handleBlobDownload)
	}
}

// Flush drains in-flight audit publications. Called on shutdown.
func (s *Server) Flush() {
	if s.sink != nil {
		s.sink.Flush()
	}
}

func (s *Server) Run() error {
	return s.r.Run(s.cfg.HTTPAddr)
}
