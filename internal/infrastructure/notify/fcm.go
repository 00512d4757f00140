package notify

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	fcm "google.golang.org/api/fcm/v1"
	"google.golang.org/api/option"
)

// FCMSender доставляет push уведомления через Firebase Cloud Messaging HTTP v1 API
type FCMSender struct {
	service *fcm.Service
	parent  string
}

// NewFCMSender создает FCMSender из JSON ключа сервисного аккаунта
func NewFCMSender(ctx context.Context, credentialsFile string) (*FCMSender, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read FCM credentials: %w", err)
	}

	creds, err := google.CredentialsFromJSON(ctx, data, fcm.FirebaseMessagingScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse FCM credentials: %w", err)
	}
	if creds.ProjectID == "" {
		return nil, fmt.Errorf("FCM credentials have no project_id")
	}

	return newFCMSender(ctx, creds.ProjectID, option.WithCredentials(creds))
}

func newFCMSender(ctx context.Context, projectID string, opts ...option.ClientOption) (*FCMSender, error) {
	service, err := fcm.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create FCM service: %w", err)
	}

	return &FCMSender{
		service: service,
		parent:  "projects/" + projectID,
	}, nil
}

func (s *FCMSender) Send(ctx context.Context, msg Message) error {
	if msg.DeviceToken == "" {
		return ErrNoDeviceToken
	}

	req := &fcm.SendMessageRequest{
		Message: &fcm.Message{
			Token: msg.DeviceToken,
			Notification: &fcm.Notification{
				Title: msg.Title,
				Body:  msg.Body,
			},
			Data: msg.Data,
		},
	}

	if _, err := s.service.Projects.Messages.Send(s.parent, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("fcm send: %w", err)
	}

	return nil
}

func (s *FCMSender) Close() error {
	return nil
}
