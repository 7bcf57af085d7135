package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"tabletap/internal/connections/rabbitmq"
	"tabletap/internal/domain"
)

// Publisher pushes committed order changes onto the orders exchange.
type Publisher struct {
	mq *rabbitmq.Client
}

func NewPublisher(mq *rabbitmq.Client) *Publisher {
	return &Publisher{mq: mq}
}

func (p *Publisher) PublishOrderEvent(ctx context.Context, ev domain.OrderEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}
	if err := p.mq.Publish(ctx, ev.RoutingKey(), body); err != nil {
		return fmt.Errorf("publish order event: %w", err)
	}
	return nil
}
