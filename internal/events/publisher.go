package events

import (
	"context"

	"coinpulse/internal/adapters/kafka"
	"coinpulse/pkg/errors"
	"coinpulse/pkg/logger"
)

// Producer writes keyed JSON messages to a topic
type Producer interface {
	Publish(ctx context.Context, topic string, key string, event interface{}) error
}

// Publisher publishes daily run events to Kafka
type Publisher struct {
	producer Producer
	log      *logger.Logger
}

// NewPublisher creates a new event publisher
func NewPublisher(producer Producer, log *logger.Logger) *Publisher {
	return &Publisher{
		producer: producer,
		log:      log,
	}
}

// PublishDailySentiment publishes the per-run sentiment snapshot keyed by date
func (p *Publisher) PublishDailySentiment(ctx context.Context, event *DailySentimentUpdated) error {
	return p.publish(ctx, kafka.TopicSentimentDaily, event.Date, event)
}

// PublishRunFailed publishes an aborted run keyed by run id
func (p *Publisher) PublishRunFailed(ctx context.Context, event *DailyRunFailed) error {
	return p.publish(ctx, kafka.TopicRunFailed, event.RunID, event)
}

func (p *Publisher) publish(ctx context.Context, topic, key string, event interface{}) error {
	if err := p.producer.Publish(ctx, topic, key, event); err != nil {
		p.log.Errorw("Failed to publish event", "topic", topic, "key", key, "error", err)
		return errors.Wrapf(err, "publish %s", topic)
	}
	return nil
}
