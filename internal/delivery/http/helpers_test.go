package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Vishaljain290502/Rydr/internal/delivery/http/middleware"
	"github.com/Vishaljain290502/Rydr/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// CreateTestTrip создает тестовую поездку с указанным хостом
func CreateTestTrip(id, hostID uuid.UUID) *domain.Trip {
	return &domain.Trip{
		ID: id,
		Host: domain.TripUser{
			ID:          hostID,
			FirstName:   "Test",
			LastName:    "Host",
			Number:      "9876543210",
			CountryCode: "+91",
		},
		Source:             domain.NewPoint(18.5204, 73.8567),
		SourceAddress:      "Pune",
		Destination:        domain.NewPoint(19.0760, 72.8777),
		DestinationAddress: "Mumbai",
		StartDate:          time.Date(2026, 11, 1, 9, 0, 0, 0, time.UTC),
		Vehicle: domain.VehicleSnapshot{
			ID:            uuid.New(),
			VehicleNumber: "MH12AB1234",
			BrandName:     "Maruti",
			ModelName:     "Swift",
			NumberOfSeats: 4,
		},
		SeatCapacity:   3,
		SeatsAvailable: 3,
		Participants:   []domain.TripUser{},
		PricePerPerson: 250,
		Status:         domain.TripStatusScheduled,
	}
}

// CreateAuthContext создает контекст с user_id для тестирования
func CreateAuthContext(t *testing.T, userID uuid.UUID) context.Context {
	t.Helper()
	return middleware.WithUserID(context.Background(), userID)
}

// newRequest создает запрос с JSON телом, контекстом и path параметрами chi
func newRequest(t *testing.T, method, target string, body interface{}, ctx context.Context, params map[string]string) *http.Request {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	req = req.WithContext(ctx)

	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	return req
}

// decodeResponse разбирает конверт ответа API
func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

// AssertSuccess проверяет успешный ответ API
func AssertSuccess(t *testing.T, response map[string]interface{}) {
	t.Helper()
	success, ok := response["success"].(bool)
	if !ok || !success {
		t.Errorf("Expected success=true, got %v", response)
	}
}

// AssertError проверяет ошибочный ответ API
func AssertError(t *testing.T, response map[string]interface{}) {
	t.Helper()
	success, ok := response["success"].(bool)
	if !ok || success {
		t.Errorf("Expected success=false, got %v", response)
	}
}
