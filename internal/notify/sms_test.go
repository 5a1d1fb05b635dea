package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"eskan/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func TestSendSMS(t *testing.T) {
	var got smsPayload
	var gotAuth string
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer gateway.Close()

	notifier := NewSMSNotifier(config.SMSConfig{
		Enabled:    true,
		GatewayURL: gateway.URL,
		APIKey:     "secret",
		Sender:     "eskan",
	}, testLogger())

	err := notifier.SendSMS(context.Background(), "09120000000", "Your stay request REQ-DEADBEEF has been submitted.")
	require.NoError(t, err)
	assert.Equal(t, "09120000000", got.To)
	assert.Equal(t, "eskan", got.From)
	assert.Contains(t, got.Message, "REQ-DEADBEEF")
	assert.Equal(t, "Bearer secret", gotAuth)
}

func TestSendSMSDisabled(t *testing.T) {
	notifier := NewSMSNotifier(config.SMSConfig{Enabled: false}, testLogger())

	assert.NoError(t, notifier.SendSMS(context.Background(), "09120000000", "hello"))
}

func TestSendSMSEmptyPhone(t *testing.T) {
	notifier := NewSMSNotifier(config.SMSConfig{Enabled: true, GatewayURL: "http://localhost"}, testLogger())

	assert.Error(t, notifier.SendSMS(context.Background(), "", "hello"))
}

func TestSendSMSGatewayError(t *testing.T) {
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer gateway.Close()

	notifier := NewSMSNotifier(config.SMSConfig{Enabled: true, GatewayURL: gateway.URL}, testLogger())

	err := notifier.SendSMS(context.Background(), "09120000000", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestSendSMSGatewayDown(t *testing.T) {
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	gateway.Close()

	notifier := NewSMSNotifier(config.SMSConfig{Enabled: true, GatewayURL: gateway.URL}, testLogger())

	assert.Error(t, notifier.SendSMS(context.Background(), "09120000000", "hello"))
}
