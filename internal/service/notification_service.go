package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/Ankita19Rathore/QUEUEASE/internal/events"
	"github.com/Ankita19Rathore/QUEUEASE/internal/persistence"
)

// NotificationService fans queue events out to observers. The engine only
// emits; delivery runs over a Redis pub/sub channel and is not retried or
// guaranteed.
type NotificationService struct {
	dispatcher events.Dispatcher
	redis      *persistence.Redis
	logger     *zap.Logger
	channel    string
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, redis *persistence.Redis, logger *zap.Logger, channel string) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		redis:      redis,
		logger:     logger,
		channel:    channel,
	}
}

// RegisterHandlers subscribes to every queue event.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for _, eventType := range []events.EventType{
		events.EventTokenIssued,
		events.EventTokenCompleted,
		events.EventQueueAdvanced,
		events.EventQueueSnapshotChanged,
		events.EventConfigurationChanged,
		events.EventPauseStateChanged,
	} {
		n.dispatcher.Subscribe(eventType, n.broadcast)
	}
}

func (n *NotificationService) broadcast(ctx context.Context, event events.Event) error {
	n.logger.Info("queue event",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.String("shift", string(event.Shift)))

	if n.redis == nil || n.redis.Client == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Error("marshal queue event", zap.Error(err))
		return nil
	}
	if err := n.redis.Client.Publish(ctx, n.channel, payload).Err(); err != nil {
		// Best effort: a dropped broadcast never fails the operation.
		n.logger.Warn("publish queue event", zap.Error(err))
	}
	return nil
}
