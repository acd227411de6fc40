package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackbass-labs/blackbass-backend/pkg/config"
	"github.com/blackbass-labs/blackbass-backend/pkg/db/models"
	"github.com/blackbass-labs/blackbass-backend/pkg/enums"
	"github.com/blackbass-labs/blackbass-backend/pkg/logger"
)

type fakeResult struct {
	id  string
	err error
}

func (r fakeResult) Get(ctx context.Context) (string, error) { return r.id, r.err }

type fakePublisher struct {
	published []*gcppubsub.Message
	err       error
}

func (p *fakePublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	p.published = append(p.published, msg)
	return fakeResult{id: "server-id", err: p.err}
}

type fakeOutboxRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
	fetchErr  error
}

func (r *fakeOutboxRepo) FetchUnpublished(limit int, maxAttempts int) ([]models.OutboxEvent, error) {
	if r.fetchErr != nil {
		return nil, r.fetchErr
	}
	events := r.events
	r.events = nil
	return events, nil
}

func (r *fakeOutboxRepo) MarkPublished(id uuid.UUID) error {
	r.published = append(r.published, id)
	return nil
}

func (r *fakeOutboxRepo) MarkFailed(id uuid.UUID, err error) error {
	r.failed = append(r.failed, id)
	return nil
}

type fakePubSub struct{}

func (fakePubSub) Ping(context.Context) error                { return nil }
func (fakePubSub) OrdersPublisher() *gcppubsub.Publisher     { return nil }
func (fakePubSub) DeadLetterPublisher() *gcppubsub.Publisher { return nil }

type fakeDB struct{ err error }

func (f fakeDB) Ping(context.Context) error { return f.err }

func testEvent(attempts int) models.OutboxEvent {
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{"order_id":"x"}`),
		AttemptCount:  attempts,
	}
}

func newTestService(t *testing.T, repo outboxRepository, pub publisher, dlq publisher) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Config:     &config.Config{Outbox: config.OutboxConfig{BatchSize: 10, PollIntervalMS: 5, MaxAttempts: 3}},
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		DB:         fakeDB{},
		PubSub:     fakePubSub{},
		Repository: repo,
		Publisher:  pub,
		DeadLetter: dlq,
	})
	require.NoError(t, err)
	return svc
}

func TestProcessBatchPublishesAndMarks(t *testing.T) {
	event := testEvent(0)
	repo := &fakeOutboxRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{}
	svc := newTestService(t, repo, pub, &fakePublisher{})

	processed, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)

	require.Len(t, pub.published, 1)
	msg := pub.published[0]
	assert.Equal(t, event.ID.String(), msg.Attributes["event_id"])
	assert.Equal(t, string(enums.EventOrderCreated), msg.Attributes["event_type"])
	assert.Equal(t, event.AggregateID.String(), msg.Attributes["aggregate_id"])
	assert.JSONEq(t, `{"order_id":"x"}`, string(msg.Data))

	assert.Equal(t, []uuid.UUID{event.ID}, repo.published)
	assert.Empty(t, repo.failed)
}

func TestProcessBatchEmptyQueue(t *testing.T) {
	repo := &fakeOutboxRepo{}
	svc := newTestService(t, repo, &fakePublisher{}, &fakePublisher{})

	processed, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestProcessBatchMarksFailureForRetry(t *testing.T) {
	event := testEvent(0)
	repo := &fakeOutboxRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{err: errors.New("deadline exceeded")}
	dlq := &fakePublisher{}
	svc := newTestService(t, repo, pub, dlq)

	processed, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)

	assert.Equal(t, []uuid.UUID{event.ID}, repo.failed)
	assert.Empty(t, repo.published)
	assert.Empty(t, dlq.published)
}

func TestProcessBatchDeadLettersAtMaxAttempts(t *testing.T) {
	event := testEvent(2) // next failure reaches the cap of 3
	repo := &fakeOutboxRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{err: errors.New("deadline exceeded")}
	dlq := &fakePublisher{}
	svc := newTestService(t, repo, pub, dlq)

	processed, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)

	require.Len(t, dlq.published, 1)
	assert.Equal(t, event.ID.String(), dlq.published[0].Attributes["event_id"])
	// dead-lettered events are retired, not retried
	assert.Equal(t, []uuid.UUID{event.ID}, repo.published)
	assert.Empty(t, repo.failed)
}

func TestProcessBatchWithoutDeadLetterTopic(t *testing.T) {
	event := testEvent(2)
	repo := &fakeOutboxRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{err: errors.New("deadline exceeded")}
	svc := newTestService(t, repo, pub, nil)
	svc.deadLetter = nil

	processed, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)

	assert.Equal(t, []uuid.UUID{event.ID}, repo.failed)
	assert.Empty(t, repo.published)
}

func TestRunStopsOnCancel(t *testing.T) {
	repo := &fakeOutboxRepo{}
	svc := newTestService(t, repo, &fakePublisher{}, &fakePublisher{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := svc.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunFailsWhenDatabaseUnreachable(t *testing.T) {
	svc := newTestService(t, &fakeOutboxRepo{}, &fakePublisher{}, &fakePublisher{})
	svc.db = fakeDB{err: errors.New("connection refused")}

	err := svc.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database ping failed")
}

func TestNextBackoffDoublesAndCaps(t *testing.T) {
	base := 500 * time.Millisecond

	assert.Equal(t, time.Second, nextBackoff(base, base, maxBackoff))
	assert.Equal(t, 2*base, nextBackoff(0, base, maxBackoff))
	assert.Equal(t, maxBackoff, nextBackoff(maxBackoff, base, maxBackoff))
	assert.Equal(t, maxBackoff, nextBackoff(8*time.Second, base, maxBackoff))
}
