package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

// fcmRequest - тело запроса messages:send
type fcmRequest struct {
	Message struct {
		Token        string            `json:"token"`
		Notification map[string]string `json:"notification"`
		Data         map[string]string `json:"data"`
	} `json:"message"`
}

func newTestFCM(t *testing.T, handler http.HandlerFunc) (*FCMSender, *int32) {
	t.Helper()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	sender, err := newFCMSender(context.Background(), "rydr-test",
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)
	return sender, &calls
}

func TestFCMSender_Send(t *testing.T) {
	var received fcmRequest
	sender, calls := newTestFCM(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/projects/rydr-test/messages:send", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"projects/rydr-test/messages/1"}`))
	})

	msg := Message{
		UserID:      uuid.New(),
		DeviceToken: "device-token",
		Title:       "🚗 Trip Status Updated",
		Body:        "Your trip is now ongoing.",
		Data:        map[string]string{"status": "ongoing"},
	}
	require.NoError(t, sender.Send(context.Background(), msg))

	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	assert.Equal(t, "device-token", received.Message.Token)
	assert.Equal(t, msg.Title, received.Message.Notification["title"])
	assert.Equal(t, msg.Body, received.Message.Notification["body"])
	assert.Equal(t, msg.Data, received.Message.Data)
}

func TestFCMSender_SendErrors(t *testing.T) {
	t.Run("нет токена устройства", func(t *testing.T) {
		sender, calls := newTestFCM(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		err := sender.Send(context.Background(), Message{UserID: uuid.New(), Title: "t", Body: "b"})
		assert.ErrorIs(t, err, ErrNoDeviceToken)
		assert.Equal(t, int32(0), atomic.LoadInt32(calls))
	})

	t.Run("FCM отклоняет токен", func(t *testing.T) {
		sender, _ := newTestFCM(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":400,"message":"The registration token is not a valid FCM registration token","status":"INVALID_ARGUMENT"}}`))
		})

		err := sender.Send(context.Background(), Message{UserID: uuid.New(), DeviceToken: "stale", Title: "t", Body: "b"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "fcm send")
	})
}

func TestNewFCMSender_MissingCredentials(t *testing.T) {
	_, err := NewFCMSender(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read FCM credentials")
}
