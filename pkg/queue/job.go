package queue

import "context"

// Job consumes messages of one type from the queue. The backtest job is
// the only implementation today; the queue itself stays generic.
type Job interface {
	// Name identifies the job in logs and the retry set.
	Name() string

	// Type is the message type this job subscribes to.
	Type() string

	// Handle processes one message payload.
	Handle(ctx context.Context, payload interface{}) error
}
