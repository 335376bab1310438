package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/farhanmajid/bazario-backend/pkg/config"
	"github.com/farhanmajid/bazario-backend/pkg/db/models"
	"github.com/farhanmajid/bazario-backend/pkg/enums"
	"github.com/farhanmajid/bazario-backend/pkg/logger"
	"github.com/farhanmajid/bazario-backend/pkg/outbox"
	"github.com/farhanmajid/bazario-backend/pkg/outbox/payloads"
	"github.com/farhanmajid/bazario-backend/pkg/outbox/registry"
)

type fakeRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
	terminal  []uuid.UUID
}

func (r *fakeRepo) FetchUnpublished(limit, maxAttempts int) ([]models.OutboxEvent, error) {
	if len(r.events) > limit {
		return r.events[:limit], nil
	}
	return r.events, nil
}

func (r *fakeRepo) MarkPublished(id uuid.UUID) error {
	r.published = append(r.published, id)
	return nil
}

func (r *fakeRepo) MarkFailed(id uuid.UUID, err error) error {
	r.failed = append(r.failed, id)
	return nil
}

func (r *fakeRepo) MarkTerminal(id uuid.UUID, err error, maxAttempts int) error {
	r.terminal = append(r.terminal, id)
	return nil
}

type fakeRegistry struct {
	resolved *registry.ResolvedEvent
	err      error
}

func (r *fakeRegistry) Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.resolved, nil
}

type fakePublishResult struct {
	err error
}

func (r fakePublishResult) Get(context.Context) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return "server-id", nil
}

type fakePublisher struct {
	results []publishResult
}

func (p *fakePublisher) Publish(_ context.Context, _ *gcppubsub.Message) publishResult {
	if len(p.results) == 0 {
		return fakePublishResult{}
	}
	next := p.results[0]
	p.results = p.results[1:]
	return next
}

func TestServiceProcessBatchContinuesAfterFailure(t *testing.T) {
	repo := &fakeRepo{
		events: []models.OutboxEvent{
			{
				ID:            uuid.New(),
				EventType:     enums.EventOrderCreated,
				AggregateType: enums.AggregateOrder,
				AggregateID:   uuid.New(),
				Payload:       mustEnvelopePayload(t, "event-one"),
			},
			{
				ID:            uuid.New(),
				EventType:     enums.EventOrderCreated,
				AggregateType: enums.AggregateOrder,
				AggregateID:   uuid.New(),
				Payload:       mustEnvelopePayload(t, "event-two"),
			},
		},
	}
	pub := &fakePublisher{
		results: []publishResult{
			fakePublishResult{err: errors.New("transient")},
			fakePublishResult{},
		},
	}
	resolved := &registry.ResolvedEvent{
		Descriptor: registry.EventDescriptor{
			Topic:         "orders-topic",
			AggregateType: enums.AggregateOrder,
		},
		Envelope: outbox.PayloadEnvelope{
			EventID:    uuid.NewString(),
			OccurredAt: time.Now(),
		},
		Payload: &payloads.OrderCreatedEvent{},
	}
	service := newTestService(t, repo, pub, &fakeRegistry{resolved: resolved}, nil)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if got := len(repo.failed); got != 1 {
		t.Fatalf("unexpected number of failed rows: %d", got)
	}
	if got := len(repo.published); got != 1 {
		t.Fatalf("unexpected number of published rows: %d", got)
	}
	if repo.failed[0] != repo.events[0].ID {
		t.Fatalf("failed row recorded wrong ID")
	}
	if repo.published[0] != repo.events[1].ID {
		t.Fatalf("published row recorded wrong ID")
	}
}

func TestServiceProcessBatchMarksTerminalOnResolveError(t *testing.T) {
	event := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventUserInvited,
		AggregateType: enums.AggregateUser,
		AggregateID:   uuid.New(),
		Payload:       mustEnvelopePayload(t, "nonretryable"),
	}
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	reg := &fakeRegistry{err: registry.NewNonRetryableError(errors.New("invalid payload"))}
	service := newTestService(t, repo, &fakePublisher{}, reg, nil)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if got := len(repo.terminal); got != 1 {
		t.Fatalf("expected terminal mark, got %d", got)
	}
	if repo.terminal[0] != event.ID {
		t.Fatalf("terminal row recorded wrong ID")
	}
	if len(repo.failed) != 0 || len(repo.published) != 0 {
		t.Fatalf("unexpected publish bookkeeping: failed=%d published=%d", len(repo.failed), len(repo.published))
	}
}

func TestServiceProcessBatchMarksTerminalOnNonRetryablePublish(t *testing.T) {
	event := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventFulfillmentStatusChanged,
		AggregateType: enums.AggregateFulfillmentStatus,
		AggregateID:   uuid.New(),
		Payload:       mustEnvelopePayload(t, "no-publisher"),
	}
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	resolved := &registry.ResolvedEvent{
		Descriptor: registry.EventDescriptor{
			Topic:         "fulfillment-topic",
			AggregateType: enums.AggregateFulfillmentStatus,
		},
		Envelope: outbox.PayloadEnvelope{
			EventID:    event.ID.String(),
			OccurredAt: time.Now(),
		},
		Payload: &payloads.FulfillmentStatusChangedEvent{},
	}
	service := newTestService(t, repo, nil, &fakeRegistry{resolved: resolved}, nil)
	service.publisherFactory = func(string) publisher { return nil }

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if got := len(repo.terminal); got != 1 {
		t.Fatalf("expected terminal mark, got %d", got)
	}
}

func TestServiceProcessBatchIdlesOnEmptyQueue(t *testing.T) {
	repo := &fakeRepo{}
	service := newTestService(t, repo, &fakePublisher{}, &fakeRegistry{}, nil)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if processed {
		t.Fatalf("expected empty batch to report not processed")
	}
}

func newTestService(t *testing.T, repo outboxRepository, pub publisher, reg registryResolver, outboxCfgOverride *config.OutboxConfig) *Service {
	t.Helper()
	outboxCfg := config.OutboxConfig{
		BatchSize:    2,
		PollInterval: 100 * time.Millisecond,
		MaxAttempts:  5,
	}
	if outboxCfgOverride != nil {
		outboxCfg = *outboxCfgOverride
	}
	cfg := &config.Config{Outbox: outboxCfg}
	logg := logger.New(logger.Options{
		ServiceName: "outbox-publisher-test",
		Output:      io.Discard,
	})
	service, err := NewService(ServiceParams{
		Config:           cfg,
		Logger:           logg,
		Repository:       repo,
		Registry:         reg,
		PublisherFactory: func(_ string) publisher { return pub },
	})
	if err != nil {
		t.Fatalf("failed to construct service: %v", err)
	}
	return service
}

func mustEnvelopePayload(tb testing.TB, eventID string) json.RawMessage {
	tb.Helper()
	env := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    eventID,
		OccurredAt: time.Now(),
		Data:       json.RawMessage(`{}`),
	}
	payload, err := json.Marshal(env)
	if err != nil {
		tb.Fatalf("marshal envelope: %v", err)
	}
	return payload
}
