package relay

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/registry"
)

func TestDrainSettlesEachRow(t *testing.T) {
	store := &fakeStore{events: []models.OutboxEvent{orderRow(0), orderRow(0)}}
	sink := &fakeSink{errs: []error{errors.New("unavailable"), nil}}
	r := newTestRelay(t, store, sink, fakeResolver{}, Options{MaxAttempts: 5})

	stats, err := r.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{Fetched: 2, Published: 1, Retried: 1}, stats)
	assert.Equal(t, []uuid.UUID{store.events[0].ID}, store.failed)
	assert.Equal(t, []uuid.UUID{store.events[1].ID}, store.published)

	require.Len(t, sink.sent, 2)
	assert.Equal(t, "orders-topic", sink.sent[1].topic)
	assert.Equal(t, string(enums.EventOrderPlaced), sink.sent[1].attrs["event_type"])
	assert.Equal(t, store.events[1].AggregateID.String(), sink.sent[1].attrs["aggregate_id"])
}

func TestDrainEmptyBatch(t *testing.T) {
	r := newTestRelay(t, &fakeStore{}, &fakeSink{}, fakeResolver{}, Options{})
	stats, err := r.Drain(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Fetched)
}

func TestDrainParksUnresolvableRow(t *testing.T) {
	row := orderRow(0)
	store := &fakeStore{events: []models.OutboxEvent{row}}
	sink := &fakeSink{}
	r := newTestRelay(t, store, sink, fakeResolver{err: registry.NewNonRetryableError(errors.New("bad payload"))}, Options{MaxAttempts: 4})

	stats, err := r.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Parked)
	assert.Equal(t, []uuid.UUID{row.ID}, store.terminal)
	assert.Equal(t, 4, store.terminalAttempts)
	assert.Empty(t, sink.sent)
}

func TestDrainParksOnLastAttempt(t *testing.T) {
	store := &fakeStore{events: []models.OutboxEvent{orderRow(1)}}
	sink := &fakeSink{errs: []error{errors.New("timeout")}}
	r := newTestRelay(t, store, sink, fakeResolver{}, Options{MaxAttempts: 2})

	stats, err := r.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Parked)
	assert.Len(t, store.terminal, 1)
	assert.Empty(t, store.failed)
}

func TestDrainStopsWhenSettleFails(t *testing.T) {
	store := &fakeStore{events: []models.OutboxEvent{orderRow(0)}, markErr: errors.New("conn reset")}
	r := newTestRelay(t, store, &fakeSink{}, fakeResolver{}, Options{})

	_, err := r.Drain(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conn reset")
}

func TestDrainRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	store := &fakeStore{events: []models.OutboxEvent{orderRow(0), orderRow(0)}}
	sink := &fakeSink{errs: []error{nil, errors.New("unavailable")}}
	r := newTestRelay(t, store, sink, fakeResolver{}, Options{})
	r.metrics = metrics.NewOutboxMetrics(reg)

	_, err := r.Drain(context.Background())
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(reg, "outbox_events_total", "outbox_batch_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestRunStopsOnCancel(t *testing.T) {
	r := newTestRelay(t, &fakeStore{}, &fakeSink{}, fakeResolver{}, Options{PollInterval: 10 * time.Millisecond})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Run(ctx), context.DeadlineExceeded)
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(Params{})
	require.Error(t, err)
	_, err = New(Params{Tx: fakeTx{}, Store: &fakeStore{}, Resolver: fakeResolver{}})
	require.Error(t, err)
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}.withDefaults()
	assert.Equal(t, defaultBatchSize, opts.BatchSize)
	assert.Equal(t, defaultMaxAttempts, opts.MaxAttempts)
	assert.Equal(t, defaultPollInterval, opts.PollInterval)
	assert.Equal(t, defaultPublishTimeout, opts.PublishTimeout)
}

func TestRelayAgainstSQLiteOutbox(t *testing.T) {
	client := dbtest.Client(t)
	emitter := outbox.NewService(outbox.NewRepository(client.DB()), logger.Nop())
	orderID := uuid.New()
	require.NoError(t, client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return emitter.Emit(context.Background(), tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Data:          payloads.OrderPlacedEvent{OrderID: orderID, Username: "ada@example.com", ItemCount: 1},
		})
	}))

	reg, err := registry.NewEventRegistry(config.PubSubConfig{OrdersTopic: "orders"})
	require.NoError(t, err)
	sink := &fakeSink{}
	r, err := New(Params{
		Tx:       client,
		Store:    outbox.NewRepository(client.DB()),
		Resolver: reg,
		Sink:     sink,
	})
	require.NoError(t, err)

	stats, err := r.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Published)
	require.Len(t, sink.sent, 1)
	assert.Equal(t, "1", sink.sent[0].attrs["version"])

	var row models.OutboxEvent
	require.NoError(t, client.DB().First(&row, "aggregate_id = ?", orderID).Error)
	assert.NotNil(t, row.PublishedAt)

	stats, err = r.Drain(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Fetched)
}

func newTestRelay(t *testing.T, store Store, sink Sink, resolver Resolver, opts Options) *Relay {
	t.Helper()
	r, err := New(Params{Tx: fakeTx{}, Store: store, Resolver: resolver, Sink: sink, Options: opts})
	require.NoError(t, err)
	return r
}

func orderRow(attempts int) models.OutboxEvent {
	payload, _ := json.Marshal(outbox.PayloadEnvelope{Version: 1, EventID: uuid.NewString(), Data: json.RawMessage(`{}`)})
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderPlaced,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       payload,
		AttemptCount:  attempts,
	}
}

type fakeTx struct{}

func (fakeTx) WithTx(_ context.Context, fn func(*gorm.DB) error) error {
	return fn(nil)
}

type fakeStore struct {
	events           []models.OutboxEvent
	published        []uuid.UUID
	failed           []uuid.UUID
	terminal         []uuid.UUID
	terminalAttempts int
	markErr          error
}

func (f *fakeStore) FetchUnpublishedForPublish(*gorm.DB, int, int) ([]models.OutboxEvent, error) {
	return f.events, nil
}

func (f *fakeStore) MarkPublishedTx(_ *gorm.DB, id uuid.UUID) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.published = append(f.published, id)
	return nil
}

func (f *fakeStore) MarkFailedTx(_ *gorm.DB, id uuid.UUID, _ error) error {
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeStore) MarkTerminalTx(_ *gorm.DB, id uuid.UUID, _ error, attempts int) error {
	f.terminal = append(f.terminal, id)
	f.terminalAttempts = attempts
	return nil
}

type fakeResolver struct {
	err error
}

func (f fakeResolver) Resolve(event models.OutboxEvent) (*registry.ResolvedEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &registry.ResolvedEvent{
		Descriptor: registry.EventDescriptor{EventType: event.EventType, AggregateType: event.AggregateType, Topic: "orders-topic"},
		Envelope:   outbox.PayloadEnvelope{Version: 1, EventID: event.ID.String()},
	}, nil
}

type sentMessage struct {
	topic string
	data  []byte
	attrs map[string]string
}

type fakeSink struct {
	errs []error
	sent []sentMessage
}

func (f *fakeSink) Send(_ context.Context, topic string, data []byte, attrs map[string]string) error {
	f.sent = append(f.sent, sentMessage{topic: topic, data: data, attrs: attrs})
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}
