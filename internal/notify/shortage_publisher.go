package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/oakfield-hms/roster-api/internal/dto"
)

// ShortageChannel is the pub/sub channel shortage events are emitted on.
// Downstream notification transports subscribe to it.
const ShortageChannel = "roster.shortages"

// ShortagePublisher fans shortage events out over Redis pub/sub.
type ShortagePublisher struct {
	client *redis.Client
	logger *zap.Logger
}

// NewShortagePublisher builds a publisher on an established Redis client.
func NewShortagePublisher(client *redis.Client, logger *zap.Logger) *ShortagePublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShortagePublisher{client: client, logger: logger}
}

// PublishShortage emits one shortage event. Callers treat failures as
// non-fatal; generation never rolls back over a missed notification.
func (p *ShortagePublisher) PublishShortage(ctx context.Context, event dto.ShortageEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal shortage event: %w", err)
	}
	if err := p.client.Publish(ctx, ShortageChannel, payload).Err(); err != nil {
		return fmt.Errorf("publish shortage event: %w", err)
	}
	p.logger.Debug("shortage event published",
		zap.String("department_id", event.DepartmentID),
		zap.String("template_id", event.TemplateID),
		zap.Int("deficit", event.Shortage()))
	return nil
}
