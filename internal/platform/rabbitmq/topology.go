package rabbitmq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Topology names the processing queue and its optional dead-letter queue.
// Publisher and consumer must declare it identically or the broker refuses
// the second declaration.
type Topology struct {
	Queue           string
	DeadLetterQueue string
}

func (t Topology) Declare(ch *amqp.Channel) error {
	var args amqp.Table
	if t.DeadLetterQueue != "" {
		if _, err := ch.QueueDeclare(t.DeadLetterQueue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare dead letter queue failed: %w", err)
		}
		args = amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": t.DeadLetterQueue,
		}
	}

	if _, err := ch.QueueDeclare(t.Queue, true, false, false, false, args); err != nil {
		return fmt.Errorf("declare queue failed: %w", err)
	}
	return nil
}
