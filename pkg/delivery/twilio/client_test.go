package twilio

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukex/leadflow/pkg/delivery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SendSMS(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", r.URL.Path)

		sid, token, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "AC123", sid)
		assert.Equal(t, "secret", token)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "+15550100", r.PostForm.Get("To"))
		assert.Equal(t, "+15550199", r.PostForm.Get("From"))
		assert.Equal(t, "Hi there", r.PostForm.Get("Body"))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM42","status":"queued"}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{
		BaseURL:    server.URL,
		AccountSID: "AC123",
		AuthToken:  "secret",
		From:       "+15550199",
	}, server.Client())
	require.NoError(t, err)

	result, err := client.SendSMS(context.Background(), delivery.SMSMessage{To: "+15550100", Body: "Hi there"})
	require.NoError(t, err)
	assert.Equal(t, &delivery.Result{Provider: ProviderName, ProviderMessageID: "SM42", Status: "queued"}, result)
}

func TestClient_SendSMS_ContextDeadline(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client, err := NewClient(Config{BaseURL: server.URL, AccountSID: "AC1", AuthToken: "t", From: "+1"}, server.Client())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = client.SendSMS(ctx, delivery.SMSMessage{To: "+2", Body: "slow"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
