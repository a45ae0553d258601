// Package rabbitmq consumes newsletter issues published by trusted internal
// producers.
package rabbitmq

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

// QueueService implements letterbox.QueueService over AMQP 0-9-1.
type QueueService struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewQueueService dials the broker and opens a channel.
func NewQueueService(url string) (*QueueService, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &QueueService{
		conn: conn,
		ch:   ch,
	}, nil
}

// Consume declares topic and streams message bodies until ctx is done.
func (s *QueueService) Consume(ctx context.Context, topic string) (<-chan []byte, error) {
	q, err := s.ch.QueueDeclare(
		topic,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		return nil, err
	}

	deliveries, err := s.ch.Consume(
		q.Name,
		"",
		true, // autoAck
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, err
	}

	messages := make(chan []byte)

	go func() {
		defer close(messages)

		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				messages <- d.Body
			}
		}
	}()

	return messages, nil
}

// Close shuts down the channel and connection.
func (s *QueueService) Close() error {
	if err := s.ch.Close(); err != nil {
		return err
	}

	return s.conn.Close()
}
