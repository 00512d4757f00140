package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Vishaljain290502/Rydr/internal/domain"
	"github.com/Vishaljain290502/Rydr/internal/pkg/logger"
	"github.com/Vishaljain290502/Rydr/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const defaultTimeout = 10 * time.Second

// Dispatcher рассылает уведомления участникам поездки в фоне
// Токены устройств берутся из текущих записей пользователей, а не из снимков поездки
type Dispatcher struct {
	users       repository.UserRepository
	sender      Sender
	timeout     time.Duration
	concurrency int
	logger      logger.Logger

	wg sync.WaitGroup
}

// NewDispatcher создает новый Dispatcher
func NewDispatcher(users repository.UserRepository, sender Sender, timeout time.Duration, concurrency int, log logger.Logger) *Dispatcher {
	if concurrency < 1 {
		concurrency = 1
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Dispatcher{
		users:       users,
		sender:      sender,
		timeout:     timeout,
		concurrency: concurrency,
		logger:      log,
	}
}

// Notify ставит рассылку в фон и сразу возвращается
// Отмена ctx вызывающего не прерывает рассылку, ее ограничивает только timeout
func (d *Dispatcher) Notify(ctx context.Context, recipients []domain.TripUser, title, body string) {
	if len(recipients) == 0 {
		return
	}

	ids := make([]uuid.UUID, 0, len(recipients))
	for _, r := range recipients {
		ids = append(ids, r.ID)
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()

		d.dispatch(sendCtx, ids, title, body)
	}()
}

// Wait дожидается завершения всех начатых рассылок (используется при остановке)
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Close дожидается рассылок и закрывает транспорт
func (d *Dispatcher) Close() error {
	d.Wait()
	return d.sender.Close()
}

func (d *Dispatcher) dispatch(ctx context.Context, ids []uuid.UUID, title, body string) {
	users, err := d.users.GetByIDs(ctx, ids)
	if err != nil {
		d.logger.Warn("Failed to resolve notification recipients", map[string]interface{}{
			"recipients": len(ids),
			"error":      err.Error(),
		})
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)

	for _, u := range users {
		msg := Message{
			UserID:      u.ID,
			DeviceToken: u.DeviceToken,
			Title:       title,
			Body:        body,
		}

		g.Go(func() error {
			err := d.sender.Send(gctx, msg)
			switch {
			case err == nil:
			case errors.Is(err, ErrNoDeviceToken):
				d.logger.Debug("Notification skipped: no device token", map[string]interface{}{
					"user_id": msg.UserID,
				})
			default:
				// Ошибка доставки одному получателю не должна мешать остальным
				d.logger.Warn("Failed to send notification", map[string]interface{}{
					"user_id": msg.UserID,
					"title":   msg.Title,
					"error":   err.Error(),
				})
			}
			return nil
		})
	}

	_ = g.Wait()
}
