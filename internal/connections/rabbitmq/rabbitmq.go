package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"tabletap/internal/config"
)

// OrdersExchange is the topic exchange every order change event goes through.
// Routing keys are order.<restaurant>.<customer|guest>.<insert|update|delete>.
const OrdersExchange = "orders.events"

type Client struct {
	conn *amqp.Connection
	ch   *amqp.Channel

	acks <-chan amqp.Confirmation
	mu   sync.Mutex // serializes Publish while waiting for confirms
}

func Dial(cfg config.RabbitMQ) (*Client, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s:%d/", cfg.User, cfg.Password, cfg.Host, cfg.Port)
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	// Publisher confirms: Publish blocks until the broker acks.
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	acks := ch.NotifyPublish(make(chan amqp.Confirmation, 1))

	c := &Client{conn: conn, ch: ch, acks: acks}
	if err := c.declareTopology(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) declareTopology() error {
	return c.ch.ExchangeDeclare(OrdersExchange, "topic", true, false, false, false, nil)
}

func (c *Client) Channel() *amqp.Channel { return c.ch }

func (c *Client) Close() {
	if c == nil {
		return
	}
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

func (c *Client) Ping() error {
	if c.conn == nil || c.conn.IsClosed() {
		return errors.New("rabbitmq connection is closed")
	}
	return nil
}

// Publish sends one persistent JSON message and waits for the broker confirm.
func (c *Client) Publish(ctx context.Context, key string, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ch.PublishWithContext(ctx, OrdersExchange, key, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}); err != nil {
		return err
	}

	select {
	case conf := <-c.acks:
		if conf.Ack {
			return nil
		}
		return errors.New("publish NACK from broker")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscription is one scoped binding onto the orders exchange. Each
// subscriber gets its own exclusive auto-deleted queue so teardown leaves
// nothing behind on the broker.
type Subscription struct {
	ch       *amqp.Channel
	queue    string
	consumer string
	closed   chan *amqp.Error
}

func (c *Client) Subscribe(pattern, consumer string) (*Subscription, <-chan amqp.Delivery, error) {
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, nil, err
	}
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, nil, err
	}
	if err := ch.QueueBind(q.Name, pattern, OrdersExchange, false, nil); err != nil {
		_ = ch.Close()
		return nil, nil, err
	}
	deliveries, err := ch.Consume(q.Name, consumer, true, true, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, nil, err
	}
	sub := &Subscription{
		ch:       ch,
		queue:    q.Name,
		consumer: consumer,
		closed:   ch.NotifyClose(make(chan *amqp.Error, 1)),
	}
	return sub, deliveries, nil
}

// Closed fires when the broker or network drops the channel.
func (s *Subscription) Closed() <-chan *amqp.Error { return s.closed }

func (s *Subscription) Cancel() {
	if s == nil || s.ch == nil {
		return
	}
	_ = s.ch.Cancel(s.consumer, false)
	_ = s.ch.Close()
}
