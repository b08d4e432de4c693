// Package ingest drains gateway message events through normalization into
// the store. It decouples event delivery from storage with a bounded
// in-process queue so a slow database never blocks the gateway read loop.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/0xtito/network-state-bot/internal/discord"
	"github.com/0xtito/network-state-bot/internal/normalizer"
	"github.com/0xtito/network-state-bot/internal/observability"
	"github.com/0xtito/network-state-bot/internal/repositories"
	"github.com/0xtito/network-state-bot/internal/telemetry"
)

// Listener is the single consumer of inbound message events.
type Listener struct {
	repo    repositories.MessageRepository
	emitter *telemetry.AuditEmitter
	queue   chan *discord.Message
	errs    chan error
}

// NewListener builds a Listener with a bounded queue of the given size.
func NewListener(repo repositories.MessageRepository, emitter *telemetry.AuditEmitter, queueSize int) *Listener {
	if queueSize < 1 {
		queueSize = 1
	}
	return &Listener{
		repo:    repo,
		emitter: emitter,
		queue:   make(chan *discord.Message, queueSize),
		errs:    make(chan error, 16),
	}
}

// Enqueue hands one gateway event to the listener. It never blocks: when the
// queue is full the event is dropped and counted, matching the platform's
// fire-and-forget delivery model (there is no ack channel to push back on).
func (l *Listener) Enqueue(msg *discord.Message) {
	select {
	case l.queue <- msg:
		observability.SetIngestQueueDepth(len(l.queue))
	default:
		observability.IncIngestEvent("dropped")
		log.Printf("ingest queue full, dropping message id=%s", msg.ID)
	}
}

// Errors exposes ingestion failures for observation. The channel is
// best-effort: it never blocks the consumer and overflow is discarded.
func (l *Listener) Errors() <-chan error {
	return l.errs
}

// Run consumes the queue until ctx is canceled. Each event produces two
// independent writes (normalized row, then raw blob); a failure in either is
// logged and reported but the event is never retried.
func (l *Listener) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-l.queue:
			observability.SetIngestQueueDepth(len(l.queue))
			l.process(ctx, msg)
		}
	}
}

func (l *Listener) process(ctx context.Context, msg *discord.Message) {
	ctx, span := otel.Tracer("nsbot/ingest").Start(ctx, "ingest.process")
	defer span.End()
	if msg != nil {
		span.SetAttributes(attribute.String("message.id", msg.ID))
	}

	record, raw, err := normalizer.Normalize(msg)
	if err != nil {
		observability.IncIngestEvent("normalize_error")
		l.report(ctx, "", fmt.Errorf("normalize event: %w", err))
		return
	}

	if err := l.repo.InsertMessage(ctx, record); err != nil {
		if errors.Is(err, repositories.ErrDuplicateMessage) {
			// Redelivered event; the row and its raw blob already exist.
			observability.IncIngestEvent("duplicate")
			log.Printf("ingest skipping duplicate message id=%s", record.ID)
			return
		}
		observability.IncIngestEvent("store_error")
		l.report(ctx, record.ID, fmt.Errorf("insert message %s: %w", record.ID, err))
		return
	}

	// The raw write is independent of the normalized write. When it fails
	// the normalized row stays; there is no rollback.
	if err := l.repo.InsertRaw(ctx, raw); err != nil {
		observability.IncIngestEvent("store_error")
		l.report(ctx, record.ID, fmt.Errorf("insert raw record %s: %w", record.ID, err))
		return
	}

	observability.IncIngestEvent("stored")
}

func (l *Listener) report(ctx context.Context, messageID string, err error) {
	log.Printf("ingest failure: %v", err)
	l.emitter.Emit(ctx, "ERROR", err.Error(), "", messageID)
	select {
	case l.errs <- err:
	default:
	}
}
