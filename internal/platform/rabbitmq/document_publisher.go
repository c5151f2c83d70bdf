package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"slidedeck/internal/ingest"
)

var ErrPublishNacked = errors.New("broker did not confirm message")

// DocumentPublisher sends processing messages as persistent deliveries and
// waits for the broker's confirm. The connection is opened on first use and
// reopened after any failure, so a broker outage only fails the publishes
// made while it lasts.
type DocumentPublisher struct {
	url         string
	topology    Topology
	dialTimeout time.Duration
	log         *logrus.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewDocumentPublisher(url string, topology Topology, dialTimeout time.Duration, log *logrus.Logger) *DocumentPublisher {
	return &DocumentPublisher{
		url:         url,
		topology:    topology,
		dialTimeout: dialTimeout,
		log:         log,
	}
}

func (p *DocumentPublisher) Publish(ctx context.Context, msg ingest.ProcessingMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal processing message failed: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}

	confirm, err := ch.PublishWithDeferredConfirmWithContext(
		ctx,
		"",
		p.topology.Queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.DocumentID,
			Timestamp:    time.Now().UTC(),
		},
	)
	if err != nil {
		p.reset()
		return fmt.Errorf("publish message failed: %w", err)
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		p.reset()
		return fmt.Errorf("wait publish confirm failed: %w", err)
	}
	if !acked {
		return ErrPublishNacked
	}
	return nil
}

// Connected reports whether a usable channel is currently open.
func (p *DocumentPublisher) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn != nil && !p.conn.IsClosed() && p.ch != nil && !p.ch.IsClosed()
}

func (p *DocumentPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var err error
	if p.conn != nil {
		err = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
	return err
}

// channel must be called with mu held.
func (p *DocumentPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() && p.conn != nil && !p.conn.IsClosed() {
		return p.ch, nil
	}
	p.reset()

	conn, err := Dial(p.url, p.dialTimeout)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("enable publisher confirms failed: %w", err)
	}
	if err := p.topology.Declare(ch); err != nil {
		_ = conn.Close()
		return nil, err
	}

	p.conn, p.ch = conn, ch
	p.log.WithField("queue", p.topology.Queue).Info("rabbitmq publisher connected")
	return ch, nil
}

func (p *DocumentPublisher) reset() {
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}
