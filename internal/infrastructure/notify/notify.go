package notify

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNoDeviceToken - у получателя нет токена устройства, доставка пропускается
var ErrNoDeviceToken = errors.New("recipient has no device token")

// Message - одно уведомление одному получателю
type Message struct {
	UserID      uuid.UUID         `json:"userId"`
	DeviceToken string            `json:"deviceToken,omitempty"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Data        map[string]string `json:"data,omitempty"`
}

// Sender - транспорт доставки уведомлений
type Sender interface {
	// Send доставляет одно сообщение
	Send(ctx context.Context, msg Message) error

	// Close освобождает ресурсы транспорта
	Close() error
}
