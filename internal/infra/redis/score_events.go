package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
)

const scoreEventsChannel = "trivia:scores"

var _ app.Publisher = (*ScoreEventBus)(nil)

// ScoreEventBus relays accepted submissions between service instances so
// every live leaderboard connection hears about scores recorded elsewhere.
type ScoreEventBus struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
	timeout time.Duration
}

func NewScoreEventBus(client *redis.Client, logger *zap.Logger) *ScoreEventBus {
	return &ScoreEventBus{
		client:  client,
		channel: scoreEventsChannel,
		logger:  logger,
		timeout: 2 * time.Second,
	}
}

// Publish is best effort: a failed publish only costs live viewers an update.
func (b *ScoreEventBus) Publish(ev domain.ScoreEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		b.logger.Warn("encode score event", zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		b.logger.Warn("publish score event", zap.Error(err))
	}
}

// Run forwards events from Redis into local until ctx is done.
func (b *ScoreEventBus) Run(ctx context.Context, local app.Publisher) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev domain.ScoreEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.logger.Warn("decode score event", zap.Error(err))
				continue
			}
			local.Publish(ev)
		}
	}
}
