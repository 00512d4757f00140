package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// statusError - ответ push шлюза с кодом, отличным от 2xx
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("push gateway returned status %d: %s", e.code, e.body)
}

// WebhookSender отправляет уведомления во внешний push шлюз по HTTP
type WebhookSender struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
}

// NewWebhookSender создает новый HTTP клиент для push шлюза
func NewWebhookSender(baseURL string, timeout time.Duration, maxRetries int) *WebhookSender {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &WebhookSender{
		baseURL:    baseURL,
		maxRetries: maxRetries,
		backoff:    time.Second,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Send отправляет уведомление с retry логикой
func (s *WebhookSender) Send(ctx context.Context, msg Message) error {
	jsonData, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/notifications", s.baseURL)

	var lastErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if attempt > 0 {
			// Линейно растущая задержка между попытками
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * s.backoff):
			}
		}

		lastErr = s.doRequest(ctx, url, jsonData)
		if lastErr == nil {
			return nil
		}

		// Если это не временная ошибка, не повторяем
		if !isRetryable(lastErr) {
			break
		}
	}

	return fmt.Errorf("notification failed after %d attempts: %w", s.maxRetries, lastErr)
}

// doRequest выполняет HTTP запрос и обрабатывает ответ
// Тело запроса создается заново на каждую попытку
func (s *WebhookSender) doRequest(ctx context.Context, url string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &statusError{code: resp.StatusCode, body: string(body)}
	}

	return nil
}

// Health проверяет доступность push шлюза
func (s *WebhookSender) Health(ctx context.Context) error {
	url := fmt.Sprintf("%s/health", s.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("health check returned status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

func (s *WebhookSender) Close() error {
	s.httpClient.CloseIdleConnections()
	return nil
}

// isRetryable: сетевые ошибки и 5xx повторяем, 4xx нет
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500 || se.code == http.StatusTooManyRequests
	}
	return true
}
