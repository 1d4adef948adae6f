package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/textpilot/bulksms-backend/internal/model"
)

func fast2smsBatch(phones ...string) Batch {
	b := Batch{CampaignID: "c1"}
	for _, p := range phones {
		b.Deliveries = append(b.Deliveries, Delivery{
			Recipient: model.Recipient{Phone: p},
			Rendered:  "Hello " + p,
		})
	}
	return b
}

func TestFast2SMSIsolatesRecipientFailures(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		require.NoError(t, r.ParseForm())
		if r.Form.Get("numbers") == "912" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"return": false, "message": ["Invalid number"]}`))
			return
		}
		w.Write([]byte(`{"return": true, "request_id": "req-1", "message": ["SMS sent successfully."]}`))
	}))
	defer server.Close()

	adapter := NewFast2SMS(server.URL, "test-key", 2, 5*time.Second, zap.NewNop())
	result, err := adapter.Send(context.Background(), fast2smsBatch("911", "912", "913"), Options{})
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 3)

	assert.Equal(t, model.OutcomeSent, result.Outcomes[0].Status)
	assert.Equal(t, model.OutcomeFailed, result.Outcomes[1].Status)
	assert.Equal(t, "Invalid number", result.Outcomes[1].ErrorDetail)
	assert.Equal(t, model.OutcomeSent, result.Outcomes[2].Status)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFast2SMSRenderWarningSurfacesOnRejectionOnly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("numbers") == "912" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"return": false, "message": ["Invalid number"]}`))
			return
		}
		w.Write([]byte(`{"return": true}`))
	}))
	defer server.Close()

	batch := fast2smsBatch("911", "912")
	batch.Deliveries[0].RenderWarning = "missing field(s): city"
	batch.Deliveries[1].RenderWarning = "missing field(s): city"

	adapter := NewFast2SMS(server.URL, "test-key", 2, 5*time.Second, zap.NewNop())
	result, err := adapter.Send(context.Background(), batch, Options{})
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 2)

	// A degraded render is not an error on a successful send.
	assert.Equal(t, model.OutcomeSent, result.Outcomes[0].Status)
	assert.Empty(t, result.Outcomes[0].ErrorDetail)

	// The rejection carries the warning alongside the gateway's reason.
	assert.Equal(t, model.OutcomeFailed, result.Outcomes[1].Status)
	assert.Equal(t, "Invalid number; missing field(s): city", result.Outcomes[1].ErrorDetail)
}

func TestFast2SMSTransportErrorBecomesFailedOutcome(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"return": true}`))
	}))
	server.Close() // refuse every connection

	adapter := NewFast2SMS(server.URL, "test-key", 2, time.Second, zap.NewNop())
	result, err := adapter.Send(context.Background(), fast2smsBatch("911"), Options{})
	require.NoError(t, err)

	assert.Equal(t, model.OutcomeFailed, result.Outcomes[0].Status)
	assert.Contains(t, result.Outcomes[0].ErrorDetail, "send failed")
}

func TestFast2SMSCredentialPassthrough(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("authorization")
		w.Write([]byte(`{"return": true}`))
	}))
	defer server.Close()

	adapter := NewFast2SMS(server.URL, "configured-key", 1, time.Second, zap.NewNop())

	_, err := adapter.Send(context.Background(), fast2smsBatch("911"), Options{Credential: "caller-key"})
	require.NoError(t, err)
	assert.Equal(t, "caller-key", gotAuth)

	_, err = adapter.Send(context.Background(), fast2smsBatch("911"), Options{})
	require.NoError(t, err)
	assert.Equal(t, "configured-key", gotAuth)
}

func TestFast2SMSCanceledBeforeSending(t *testing.T) {
	adapter := NewFast2SMS("http://127.0.0.1:1", "k", 2, time.Second, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := adapter.Send(ctx, fast2smsBatch("911", "912"), Options{})
	require.NoError(t, err)
	for _, o := range result.Outcomes {
		assert.Equal(t, model.OutcomeFailed, o.Status)
		assert.Equal(t, "dispatch canceled", o.ErrorDetail)
	}
}
