package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/agency-admin/internal/config"
	"github.com/spec-kit/agency-admin/internal/domain"
)

type memoryStore struct {
	mu   sync.Mutex
	subs []domain.WebhookSubscription
	logs []domain.WebhookLog
	err  error
}

func (s *memoryStore) ListActiveForEvent(_ context.Context, event domain.WebhookEvent) ([]domain.WebhookSubscription, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []domain.WebhookSubscription
	for _, sub := range s.subs {
		if sub.IsActive && sub.Subscribes(event) {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (s *memoryStore) CreateLog(_ context.Context, log *domain.WebhookLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	log.ID = "log-" + log.SubscriptionID
	s.logs = append(s.logs, *log)
	return nil
}

type deliveryCounter struct {
	mu      sync.Mutex
	success int
	failure int
}

func (c *deliveryCounter) RecordWebhookDelivery(_ string, success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if success {
		c.success++
	} else {
		c.failure++
	}
}

func testDispatcher(store Store, metrics DeliveryRecorder) *Dispatcher {
	cfg := config.WebhookConfig{TimeoutSeconds: 2, RetryCount: 3, UserAgent: "Andorinha-Webhooks/1.0"}
	return newDispatcher(cfg, store, zap.NewNop(), metrics, time.Millisecond)
}

func TestDispatch_SignsAndLogs(t *testing.T) {
	var gotBody []byte
	var gotHeaders http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotHeaders = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	store := &memoryStore{subs: []domain.WebhookSubscription{
		{ID: "s1", Name: "crm", URL: srv.URL, Secret: "shh", IsActive: true, Events: []string{"USER_CREATED"}},
		{ID: "s2", Name: "other", URL: srv.URL, Secret: "x", IsActive: true, Events: []string{"POST_PUBLISHED"}},
	}}
	metrics := &deliveryCounter{}
	d := testDispatcher(store, metrics)

	occurred := time.Date(2024, 5, 10, 14, 30, 0, 0, time.UTC)
	err := d.Dispatch(context.Background(), domain.WebhookUserCreated, map[string]any{"userId": "u1"}, occurred)
	require.NoError(t, err)

	require.Len(t, store.logs, 1)
	entry := store.logs[0]
	assert.True(t, entry.Success)
	assert.Equal(t, "s1", entry.SubscriptionID)
	require.NotNil(t, entry.StatusCode)
	assert.Equal(t, http.StatusOK, *entry.StatusCode)
	assert.Equal(t, 0, entry.RetriesCount)

	assert.Equal(t, Sign(gotBody, "shh"), gotHeaders.Get(SignatureHeader))
	assert.Equal(t, "USER_CREATED", gotHeaders.Get(EventHeader))
	assert.Equal(t, "Andorinha-Webhooks/1.0", gotHeaders.Get("User-Agent"))

	var env Envelope
	require.NoError(t, json.Unmarshal(gotBody, &env))
	assert.Equal(t, domain.WebhookUserCreated, env.Event)
	assert.Equal(t, "u1", env.Data["userId"])
	assert.Equal(t, "2024-05-10T14:30:00Z", env.Timestamp)
	assert.Equal(t, 1, metrics.success)
}

func TestDeliver_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	store := &memoryStore{}
	d := testDispatcher(store, nil)
	sub := domain.WebhookSubscription{ID: "s1", URL: srv.URL, Secret: "k", IsActive: true}

	entry, err := d.Deliver(context.Background(), sub, domain.WebhookLeadCreated, nil)
	require.NoError(t, err)
	assert.True(t, entry.Success)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, 2, entry.RetriesCount)
}

func TestDeliver_ClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("bad"))
	}))
	defer srv.Close()

	store := &memoryStore{}
	d := testDispatcher(store, nil)

	var hooked []string
	d.OnFailure(func(_ context.Context, sub domain.WebhookSubscription, _ domain.WebhookLog) {
		hooked = append(hooked, sub.ID)
	})

	entry, err := d.Deliver(context.Background(),
		domain.WebhookSubscription{ID: "s9", URL: srv.URL, Secret: "k"}, domain.WebhookUserDeleted, nil)
	require.NoError(t, err)
	assert.False(t, entry.Success)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	require.NotNil(t, entry.Error)
	assert.Contains(t, *entry.Error, "HTTP 400")
	assert.Equal(t, []string{"s9"}, hooked)
	require.Len(t, store.logs, 1)
}

func TestDispatch_StoreFailureIsReturned(t *testing.T) {
	d := testDispatcher(&memoryStore{err: errors.New("db down")}, nil)
	err := d.Dispatch(context.Background(), domain.WebhookUserCreated, nil, time.Time{})
	assert.ErrorContains(t, err, "db down")
}

func TestDispatch_ZeroOccurredAtUsesClock(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := &memoryStore{subs: []domain.WebhookSubscription{
		{ID: "s1", URL: srv.URL, Secret: "k", IsActive: true, Events: []string{"LEAD_CREATED"}},
	}}
	d := testDispatcher(store, nil)
	d.now = func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) }

	require.NoError(t, d.Dispatch(context.Background(), domain.WebhookLeadCreated, nil, time.Time{}))

	var env Envelope
	require.NoError(t, json.Unmarshal(gotBody, &env))
	assert.Equal(t, "2024-06-01T09:00:00Z", env.Timestamp)
}
