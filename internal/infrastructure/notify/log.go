package notify

import (
	"context"

	"github.com/Vishaljain290502/Rydr/internal/pkg/logger"
)

// LogSender пишет уведомления в лог вместо доставки (локальная разработка)
type LogSender struct {
	logger logger.Logger
}

// NewLogSender создает LogSender
func NewLogSender(log logger.Logger) *LogSender {
	return &LogSender{logger: log}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("Notification", map[string]interface{}{
		"user_id":   msg.UserID,
		"has_token": msg.DeviceToken != "",
		"title":     msg.Title,
		"body":      msg.Body,
	})
	return nil
}

func (s *LogSender) Close() error {
	return nil
}
