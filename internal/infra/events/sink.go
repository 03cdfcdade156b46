// Package events provides EventSink implementations for the record core.
package events

import (
	"context"
	"sync"
	"time"

	"provreg/internal/logging"
	"provreg/internal/record"
	"provreg/internal/usecase"
)

const publishTimeout = 5 * time.Second

// AuditSink forwards minted events to the audit chain. Publication is fire
// and forget: the mint has already succeeded by the time the sink runs, so
// append failures are logged and dropped, never surfaced.
type AuditSink struct {
	emitter *usecase.AuditEmitter
	logger  logging.Logger
	wg      sync.WaitGroup
}

func NewAuditSink(emitter *usecase.AuditEmitter, logger logging.Logger) *AuditSink {
	return &AuditSink{emitter: emitter, logger: logger}
}

func (s *AuditSink) Publish(ev record.MintedEvent) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := s.emitter.EmitRecordMinted(ctx, ev); err != nil && s.logger != nil {
			s.logger.Error(ctx, "audit publish failed", "record_id", ev.RecordID, "error", err.Error())
		}
	}()
}

// Flush blocks until all in-flight publications have settled. Used on
// shutdown and in tests; callers on the mint path never wait.
func (s *AuditSink) Flush() {
	s.wg.Wait()
}

// ChanSink feeds minted events to a channel for composing systems that
// want a raw stream. A full channel drops the event rather than block.
type ChanSink struct {
	C chan record.MintedEvent
}

func NewChanSink(buffer int) *ChanSink {
	return &ChanSink{C: make(chan record.MintedEvent, buffer)}
}

func (s *ChanSink) Publish(ev record.MintedEvent) {
	select {
	case s.C <- ev:
	default:
	}
}
