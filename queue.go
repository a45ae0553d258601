package letterbox

import "context"

// QueueService consumes newsletter issues published on a message broker by
// trusted internal producers.
type QueueService interface {
	Consume(ctx context.Context, topic string) (<-chan []byte, error)
	Close() error
}
