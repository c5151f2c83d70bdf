package worker

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
	"slidedeck/internal/model"
	"slidedeck/internal/platform/rabbitmq"
)

type MessageProcessor interface {
	Process(ctx context.Context, msg ingest.ProcessingMessage) (*model.Document, error)
}

// DefaultProcessTimeout bounds the handling of one delivery.
const DefaultProcessTimeout = 2 * time.Minute

type Options struct {
	Topology       rabbitmq.Topology
	Concurrency    int
	Prefetch       int
	ProcessTimeout time.Duration
}

type outcome int

const (
	outcomeAck outcome = iota
	outcomeReject
	outcomeRequeue
)

func (o outcome) String() string {
	switch o {
	case outcomeAck:
		return "ack"
	case outcomeRequeue:
		return "requeue"
	default:
		return "reject"
	}
}

// DocumentProcessWorker consumes processing messages with a fixed pool of
// goroutines sharing one channel. Successful messages are acked; failed ones
// are rejected without requeue so the broker dead-letters them. Interrupted
// ones go back to the queue.
//
// Stopping the worker only stops new deliveries from being taken. A delivery
// already in progress runs to completion under ProcessTimeout.
type DocumentProcessWorker struct {
	conn      *amqp.Connection
	processor MessageProcessor
	opts      Options
	log       *logrus.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
	done   chan struct{}
}

func NewDocumentProcessWorker(conn *amqp.Connection, processor MessageProcessor, opts Options, log *logrus.Logger) *DocumentProcessWorker {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Prefetch < opts.Concurrency {
		opts.Prefetch = opts.Concurrency
	}
	if opts.ProcessTimeout <= 0 {
		opts.ProcessTimeout = DefaultProcessTimeout
	}
	return &DocumentProcessWorker{
		conn:      conn,
		processor: processor,
		opts:      opts,
		log:       log,
		done:      make(chan struct{}),
	}
}

func (w *DocumentProcessWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	ch, err := w.conn.Channel()
	if err != nil {
		return fmt.Errorf("open worker channel failed: %w", err)
	}
	if err := w.opts.Topology.Declare(ch); err != nil {
		_ = ch.Close()
		return fmt.Errorf("declare worker topology failed: %w", err)
	}
	if err := ch.Qos(w.opts.Prefetch, 0, false); err != nil {
		_ = ch.Close()
		return fmt.Errorf("set worker qos failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.opts.Topology.Queue,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	for i := 0; i < w.opts.Concurrency; i++ {
		w.wg.Add(1)
		go w.consume(workerCtx, i, deliveries)
	}
	go func() {
		w.wg.Wait()
		_ = ch.Close()
		close(w.done)
	}()

	w.log.WithFields(logrus.Fields{
		"queue":       w.opts.Topology.Queue,
		"concurrency": w.opts.Concurrency,
		"prefetch":    w.opts.Prefetch,
	}).Info("document worker started")
	return nil
}

// Done is closed once every consumer goroutine has exited, either because
// Close was called or because the broker closed the delivery channel.
func (w *DocumentProcessWorker) Done() <-chan struct{} {
	return w.done
}

func (w *DocumentProcessWorker) Close() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.done
}

func (w *DocumentProcessWorker) consume(ctx context.Context, id int, deliveries <-chan amqp.Delivery) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				w.log.WithField("consumer", id).Warn("delivery channel closed")
				return
			}
			if ctx.Err() != nil {
				w.settle(d, outcomeRequeue)
				return
			}
			w.settle(d, w.process(ctx, d.Body))
		}
	}
}

// process handles one delivery on a context that outlives worker shutdown.
func (w *DocumentProcessWorker) process(ctx context.Context, body []byte) outcome {
	processCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.opts.ProcessTimeout)
	defer cancel()
	return w.handle(processCtx, body)
}

func (w *DocumentProcessWorker) settle(d amqp.Delivery, o outcome) {
	var err error
	switch o {
	case outcomeAck:
		err = d.Ack(false)
	case outcomeRequeue:
		err = d.Nack(false, true)
	default:
		err = d.Nack(false, false)
	}
	if err != nil {
		w.log.WithError(err).WithField("outcome", o.String()).Error("settle delivery failed")
	}
}

func (w *DocumentProcessWorker) handle(ctx context.Context, body []byte) outcome {
	var msg ingest.ProcessingMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		w.log.WithError(err).Error("worker decode message failed")
		return outcomeReject
	}
	if err := msg.Validate(); err != nil {
		w.log.WithError(err).Error("worker received invalid message")
		return outcomeReject
	}

	entry := w.log.WithFields(logrus.Fields{
		"document_id": msg.DocumentID,
		"state":       ingest.StateProcessing,
	})
	entry.Debug("processing document")

	_, err := w.processor.Process(ctx, msg)
	switch {
	case err == nil:
		return outcomeAck
	case errors.Is(err, ingest.ErrInterrupted):
		entry.WithError(err).Warn("worker processing interrupted, requeueing")
		return outcomeRequeue
	default:
		entry.WithError(err).WithField("kind", errorKind(err)).Warn("worker process document failed")
		return outcomeReject
	}
}

func errorKind(err error) string {
	if kind, ok := model.KindOf(err); ok {
		return kind.String()
	}
	return "unknown"
}
