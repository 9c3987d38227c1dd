// Package relay moves committed outbox rows onto the message broker.
//
// Each batch runs in one transaction: rows are locked with SKIP LOCKED, sent
// one by one, and settled as published, retried or parked before commit.
package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/registry"
)

const (
	defaultBatchSize      = 50
	defaultMaxAttempts    = 10
	defaultPollInterval   = time.Second
	defaultPublishTimeout = 15 * time.Second
	maxErrorBackoff       = 30 * time.Second
	jitter                = 250 * time.Millisecond
)

// Store is the slice of the outbox repository the relay needs.
type Store interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

type Transactor interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type Resolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

// Sink delivers one message to a topic and returns once the broker acked it.
type Sink interface {
	Send(ctx context.Context, topic string, data []byte, attrs map[string]string) error
}

type Options struct {
	BatchSize      int
	MaxAttempts    int
	PollInterval   time.Duration
	PublishTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = defaultBatchSize
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = defaultMaxAttempts
	}
	if o.PollInterval <= 0 {
		o.PollInterval = defaultPollInterval
	}
	if o.PublishTimeout <= 0 {
		o.PublishTimeout = defaultPublishTimeout
	}
	return o
}

type Params struct {
	Tx       Transactor
	Store    Store
	Resolver Resolver
	Sink     Sink
	Logger   *logger.Logger
	Metrics  *metrics.OutboxMetrics
	Options  Options
}

type Relay struct {
	tx       Transactor
	store    Store
	resolver Resolver
	sink     Sink
	logg     *logger.Logger
	metrics  *metrics.OutboxMetrics
	opts     Options
}

func New(p Params) (*Relay, error) {
	switch {
	case p.Tx == nil:
		return nil, errors.New("transactor is required")
	case p.Store == nil:
		return nil, errors.New("outbox store is required")
	case p.Resolver == nil:
		return nil, errors.New("event resolver is required")
	case p.Sink == nil:
		return nil, errors.New("sink is required")
	}
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Relay{
		tx:       p.Tx,
		store:    p.Store,
		resolver: p.Resolver,
		sink:     p.Sink,
		logg:     logg,
		metrics:  p.Metrics,
		opts:     p.Options.withDefaults(),
	}, nil
}

// Outcome is how a single row was settled.
type Outcome string

const (
	Published Outcome = "published"
	Retried   Outcome = "retried"
	Parked    Outcome = "parked"
)

// Stats summarises one Drain call.
type Stats struct {
	Fetched   int
	Published int
	Retried   int
	Parked    int
}

func (s *Stats) add(o Outcome) {
	switch o {
	case Published:
		s.Published++
	case Retried:
		s.Retried++
	case Parked:
		s.Parked++
	}
}

// Run drains batches until ctx is canceled. A full batch is followed
// immediately by the next one; an empty batch waits one poll interval and a
// failed batch backs off exponentially.
func (r *Relay) Run(ctx context.Context) error {
	idle := r.idleBackoff()
	failing := r.errorBackoff()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		stats, err := r.Drain(ctx)
		var wait time.Duration
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.logg.Error(ctx, "outbox.batch_failed", err)
			wait, _ = failing.Next()
		case stats.Fetched == 0:
			failing = r.errorBackoff()
			wait, _ = idle.Next()
		default:
			failing = r.errorBackoff()
			continue
		}

		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func (r *Relay) idleBackoff() retry.Backoff {
	return retry.WithJitter(jitter, retry.NewConstant(r.opts.PollInterval))
}

func (r *Relay) errorBackoff() retry.Backoff {
	return retry.WithJitter(jitter, retry.WithCappedDuration(maxErrorBackoff, retry.NewExponential(r.opts.PollInterval)))
}

// Drain processes at most one batch. The returned error covers fetching and
// settling rows; publish failures are recorded on the row instead.
func (r *Relay) Drain(ctx context.Context) (Stats, error) {
	var stats Stats
	started := time.Now()
	err := r.tx.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := r.store.FetchUnpublishedForPublish(tx, r.opts.BatchSize, r.opts.MaxAttempts)
		if err != nil {
			return fmt.Errorf("fetch outbox batch: %w", err)
		}
		stats.Fetched = len(events)
		for _, event := range events {
			outcome, err := r.settle(ctx, tx, event)
			if err != nil {
				return err
			}
			stats.add(outcome)
			r.metrics.Record(string(event.EventType), string(outcome))
		}
		return nil
	})
	if stats.Fetched > 0 {
		r.metrics.ObserveBatch(time.Since(started))
	}
	return stats, err
}

func (r *Relay) settle(ctx context.Context, tx *gorm.DB, event models.OutboxEvent) (Outcome, error) {
	resolved, sendErr := r.resolver.Resolve(event)
	if sendErr == nil {
		sendErr = r.send(ctx, event, resolved)
	}
	logCtx := r.logg.WithFields(ctx, eventFields(event, resolved))

	if sendErr == nil {
		if err := r.store.MarkPublishedTx(tx, event.ID); err != nil {
			return "", fmt.Errorf("mark %s published: %w", event.ID, err)
		}
		r.logg.Info(logCtx, "outbox.published")
		return Published, nil
	}

	var permanent registry.NonRetryableError
	attempt := event.AttemptCount + 1
	if errors.As(sendErr, &permanent) || attempt >= r.opts.MaxAttempts {
		if err := r.store.MarkTerminalTx(tx, event.ID, sendErr, r.opts.MaxAttempts); err != nil {
			return "", fmt.Errorf("park %s: %w", event.ID, err)
		}
		r.logg.WarnErr(r.logg.WithField(logCtx, "attempt", attempt), "outbox.parked", sendErr)
		return Parked, nil
	}

	if err := r.store.MarkFailedTx(tx, event.ID, sendErr); err != nil {
		return "", fmt.Errorf("mark %s failed: %w", event.ID, err)
	}
	r.logg.WarnErr(r.logg.WithField(logCtx, "attempt", attempt), "outbox.retry", sendErr)
	return Retried, nil
}

func (r *Relay) send(ctx context.Context, event models.OutboxEvent, resolved *registry.ResolvedEvent) error {
	sendCtx, cancel := context.WithTimeout(ctx, r.opts.PublishTimeout)
	defer cancel()
	return r.sink.Send(sendCtx, resolved.Descriptor.Topic, event.Payload, Attributes(event, resolved))
}

// Attributes are the broker message attributes consumers filter on.
func Attributes(event models.OutboxEvent, resolved *registry.ResolvedEvent) map[string]string {
	attrs := map[string]string{
		"event_type":     string(event.EventType),
		"aggregate_type": string(event.AggregateType),
		"aggregate_id":   event.AggregateID.String(),
		"created_at":     event.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if resolved != nil {
		attrs["event_id"] = resolved.Envelope.EventID
		attrs["version"] = fmt.Sprint(resolved.Envelope.Version)
	}
	return attrs
}

func eventFields(event models.OutboxEvent, resolved *registry.ResolvedEvent) map[string]any {
	fields := map[string]any{
		"outbox_id":    event.ID.String(),
		"event_type":   event.EventType,
		"aggregate_id": event.AggregateID.String(),
	}
	if resolved != nil {
		fields["topic"] = resolved.Descriptor.Topic
		fields["event_id"] = resolved.Envelope.EventID
	}
	return fields
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
