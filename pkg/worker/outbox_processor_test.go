package worker

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/HealthLane-PH/healthlane-web/internal/model"
	"github.com/HealthLane-PH/healthlane-web/internal/repository/memory"
	"github.com/HealthLane-PH/healthlane-web/pkg/logger"
	"github.com/HealthLane-PH/healthlane-web/pkg/messaging"
	"github.com/HealthLane-PH/healthlane-web/pkg/metrics"
)

type mockHandler struct {
	mock.Mock
}

func (m *mockHandler) Handle(ctx context.Context, event *model.OutboxEvent) error {
	return m.Called(ctx, event.EventType).Error(0)
}

func seedEvent(t *testing.T, store *memory.Store, eventType string) *model.OutboxEvent {
	t.Helper()
	evt, err := model.NewOutboxEvent(eventType, map[string]string{"k": "v"})
	require.NoError(t, err)
	require.NoError(t, store.Outbox().Create(context.Background(), evt))
	return evt
}

func statusOf(store *memory.Store) map[string]model.OutboxStatus {
	out := make(map[string]model.OutboxStatus)
	for _, e := range store.Events() {
		out[e.EventType] = e.Status
	}
	return out
}

func TestProcessBatchSingleAttempt(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedEvent(t, store, model.EventPersonCreated)
	seedEvent(t, store, model.EventDoctorStatusChanged)

	handler := &mockHandler{}
	handler.On("Handle", mock.Anything, model.EventPersonCreated).Return(nil).Once()
	handler.On("Handle", mock.Anything, model.EventDoctorStatusChanged).Return(stderrors.New("smtp down")).Once()

	p := NewOutboxProcessor(store.Outbox(), handler, nil, OutboxProcessorConfig{BatchSize: 10, PollInterval: time.Second}, logger.NewNop(), metrics.NewNop())

	n, err := p.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	status := statusOf(store)
	assert.Equal(t, model.OutboxStatusProcessed, status[model.EventPersonCreated])
	assert.Equal(t, model.OutboxStatusFailed, status[model.EventDoctorStatusChanged])

	// Failed events are not retried.
	n, err = p.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	handler.AssertExpectations(t)

	for _, e := range store.Events() {
		if e.Status == model.OutboxStatusFailed {
			require.NotNil(t, e.ErrorMessage)
			assert.Equal(t, "smtp down", *e.ErrorMessage)
		}
	}
}

func TestProcessBatchRespectsBatchSize(t *testing.T) {
	store := memory.NewStore()
	for i := 0; i < 3; i++ {
		seedEvent(t, store, model.EventClinicCreated)
	}
	handler := EventHandlerFunc(func(ctx context.Context, event *model.OutboxEvent) error { return nil })
	p := NewOutboxProcessor(store.Outbox(), handler, nil, OutboxProcessorConfig{BatchSize: 2, PollInterval: time.Second}, logger.NewNop(), metrics.NewNop())

	n, err := p.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = p.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestProcessBatchPublishesHandledEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := memory.NewStore()
	evt := seedEvent(t, store, model.EventClinicCreated)

	broker := messaging.NewMemoryBroker()
	defer broker.Close()
	sub, err := broker.Subscribe(ctx, messaging.EventsChannel)
	require.NoError(t, err)

	handler := EventHandlerFunc(func(ctx context.Context, event *model.OutboxEvent) error { return nil })
	p := NewOutboxProcessor(store.Outbox(), handler, broker, OutboxProcessorConfig{BatchSize: 10, PollInterval: time.Second}, logger.NewNop(), metrics.NewNop())
	_, err = p.ProcessBatch(ctx)
	require.NoError(t, err)

	select {
	case raw := <-sub:
		var msg messaging.Message
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, evt.ID.String(), msg.ID)
		assert.Equal(t, model.EventClinicCreated, msg.Type)
		assert.JSONEq(t, `{"k":"v"}`, string(msg.Payload))
	case <-time.After(time.Second):
		t.Fatal("no message published")
	}
}

func TestNewOutboxProcessorValidatesConfig(t *testing.T) {
	store := memory.NewStore()
	assert.Panics(t, func() {
		NewOutboxProcessor(store.Outbox(), nil, nil, OutboxProcessorConfig{PollInterval: time.Second}, logger.NewNop(), metrics.NewNop())
	})
	assert.Panics(t, func() {
		NewOutboxProcessor(store.Outbox(), nil, nil, OutboxProcessorConfig{BatchSize: 1}, logger.NewNop(), metrics.NewNop())
	})
}

func TestOutboxCleanup(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedEvent(t, store, model.EventPersonCreated)
	seedEvent(t, store, model.EventDoctorStatusChanged)

	handler := EventHandlerFunc(func(ctx context.Context, event *model.OutboxEvent) error {
		if event.EventType == model.EventDoctorStatusChanged {
			return stderrors.New("boom")
		}
		return nil
	})
	p := NewOutboxProcessor(store.Outbox(), handler, nil, OutboxProcessorConfig{BatchSize: 10, PollInterval: time.Second}, logger.NewNop(), metrics.NewNop())
	_, err := p.ProcessBatch(ctx)
	require.NoError(t, err)

	w := NewOutboxCleanupWorker(store.Outbox(), OutboxCleanupConfig{Retention: time.Hour, Interval: time.Minute}, logger.NewNop(), metrics.NewNop())

	rows, err := w.Cleanup(ctx)
	require.NoError(t, err)
	assert.Zero(t, rows)

	w.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	rows, err = w.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	remaining := store.Events()
	require.Len(t, remaining, 1)
	assert.Equal(t, model.OutboxStatusFailed, remaining[0].Status)
}

func TestOutboxReleaseStaleClaims(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	evt := seedEvent(t, store, model.EventPersonCreated)

	// A processor claims the batch and never reports back.
	claimed, err := store.Outbox().GetPendingEventsWithLock(ctx, 10)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, model.OutboxStatusProcessing, statusOf(store)[model.EventPersonCreated])

	w := NewOutboxCleanupWorker(store.Outbox(), OutboxCleanupConfig{Retention: time.Hour, Interval: time.Minute, StaleAfter: 10 * time.Minute}, logger.NewNop(), metrics.NewNop())

	rows, err := w.ReleaseStale(ctx)
	require.NoError(t, err)
	assert.Zero(t, rows, "fresh claims stay with their processor")

	w.now = func() time.Time { return time.Now().Add(time.Hour) }
	rows, err = w.ReleaseStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)
	assert.Equal(t, model.OutboxStatusPending, statusOf(store)[model.EventPersonCreated])

	handler := new(mockHandler)
	handler.On("Handle", mock.Anything, model.EventPersonCreated).Return(nil).Once()
	p := NewOutboxProcessor(store.Outbox(), handler, nil, OutboxProcessorConfig{BatchSize: 10, PollInterval: time.Second}, logger.NewNop(), metrics.NewNop())
	_, err = p.ProcessBatch(ctx)
	require.NoError(t, err)

	handler.AssertExpectations(t)
	assert.Equal(t, model.OutboxStatusProcessed, statusOf(store)[evt.EventType])
}
