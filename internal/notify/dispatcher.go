package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"
)

// Topic is the in-process queue the dispatcher consumes.
const Topic = "notifications.outbound"

// DefaultWorkers bounds concurrent provider sends when none is configured.
const DefaultWorkers = 8

// ErrDispatcherClosed is returned by Enqueue after Close.
var ErrDispatcherClosed = errors.New("notify: dispatcher closed")

// Sender delivers one formatted notification. *Client implements it.
type Sender interface {
	Send(ctx context.Context, cfg Config, text string) error
}

// Notification is one queued job: everything needed to relay a message
// without touching the database again.
type Notification struct {
	MessageID uint            `json:"message_id"`
	TopicID   string          `json:"topic_id"`
	TopicName string          `json:"topic_name"`
	Config    Config          `json:"config"`
	Text      string          `json:"text"`
	Contacts  json.RawMessage `json:"contacts"`
}

// Outcome is reported once per job when its send resolves.
type Outcome struct {
	MessageID uint
	TopicID   string
	State     DeliveryState
	Reason    string
	Status    int
	Detail    string
	Err       error
	Duration  time.Duration
}

// Dispatcher decouples ingestion from delivery. Enqueue publishes jobs on an
// in-memory watermill channel and returns immediately; Run consumes them and
// sends each on its own goroutine, at most Workers at a time.
//
// Jobs are acknowledged as soon as a worker owns them, so nothing is ever
// redelivered: a failed send is logged and counted, never retried.
type Dispatcher struct {
	sender    Sender
	logger    zerolog.Logger
	onOutcome func(Outcome)

	pubsub   *gochannel.GoChannel
	messages <-chan *message.Message
	sem      *semaphore.Weighted
	wg       sync.WaitGroup

	closeOnce sync.Once
}

// DispatcherOption customizes a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithOutcomeHook registers fn to observe every resolved send. fn runs on the
// worker goroutine and must not block for long.
func WithOutcomeHook(fn func(Outcome)) DispatcherOption {
	return func(d *Dispatcher) { d.onOutcome = fn }
}

// WithLogger sets the dispatcher logger (defaults to zerolog.Nop).
func WithLogger(lg zerolog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = lg }
}

// NewDispatcher builds a dispatcher and subscribes to the queue right away,
// so jobs enqueued before Run starts are buffered rather than dropped.
func NewDispatcher(sender Sender, workers int, opts ...DispatcherOption) (*Dispatcher, error) {
	if sender == nil {
		return nil, errors.New("notify: nil sender")
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	d := &Dispatcher{
		sender: sender,
		logger: zerolog.Nop(),
		sem:    semaphore.NewWeighted(int64(workers)),
	}
	for _, o := range opts {
		o(d)
	}

	d.pubsub = gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: int64(workers) * 4,
	}, NewWatermillLogger(d.logger))

	msgs, err := d.pubsub.Subscribe(context.Background(), Topic)
	if err != nil {
		_ = d.pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", Topic, err)
	}
	d.messages = msgs
	return d, nil
}

// Enqueue hands n to the dispatcher. It never waits for the send; the only
// errors are encoding failures and a closed dispatcher.
func (d *Dispatcher) Enqueue(_ context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("message_id", fmt.Sprint(n.MessageID))
	msg.Metadata.Set("topic_id", n.TopicID)

	if err := d.pubsub.Publish(Topic, msg); err != nil {
		return fmt.Errorf("%w: %v", ErrDispatcherClosed, err)
	}
	return nil
}

// Run consumes jobs until ctx is cancelled or the dispatcher is closed, then
// waits for in-flight sends before returning. Sends run on a context detached
// from ctx, so shutdown lets them finish instead of aborting them.
func (d *Dispatcher) Run(ctx context.Context) error {
	root := context.WithoutCancel(ctx)
	defer d.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			_ = d.Close()
			return nil
		case msg, ok := <-d.messages:
			if !ok {
				return nil
			}
			d.handle(ctx, root, msg)
		}
	}
}

// Close stops accepting jobs. Pending jobs not yet handed to a worker are
// dropped. Close is safe to call more than once.
func (d *Dispatcher) Close() error {
	var err error
	d.closeOnce.Do(func() { err = d.pubsub.Close() })
	return err
}

func (d *Dispatcher) handle(ctx, root context.Context, msg *message.Message) {
	// Ack on every path: a Nack would make gochannel redeliver.
	defer msg.Ack()

	var n Notification
	if err := json.Unmarshal(msg.Payload, &n); err != nil {
		d.logger.Error().Err(err).Str("job_id", msg.UUID).Msg("dropping undecodable notification job")
		return
	}

	if err := d.sem.Acquire(ctx, 1); err != nil {
		d.logger.Warn().Uint("message_id", n.MessageID).Msg("dispatcher stopping; notification not sent")
		d.report(Outcome{MessageID: n.MessageID, TopicID: n.TopicID, State: StateNotAttempted})
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.sem.Release(1)
		d.dispatch(root, n)
	}()
}

func (d *Dispatcher) dispatch(ctx context.Context, n Notification) {
	tr := otel.Tracer("notify/Dispatcher")
	ctx, span := tr.Start(ctx, "Dispatch",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.Int64("message.id", int64(n.MessageID)),
			attribute.String("topic.id", n.TopicID),
		),
	)
	defer span.End()

	lg := d.logger.With().
		Uint("message_id", n.MessageID).
		Str("topic", n.TopicName).
		Logger()

	notificationsInflight.Inc()
	start := time.Now()
	lg.Debug().Str("state", string(StateSending)).Msg("sending notification")
	err := d.sender.Send(ctx, n.Config, FormatBody(n.TopicName, n.Text, n.Contacts))
	notificationsInflight.Dec()

	out := Outcome{
		MessageID: n.MessageID,
		TopicID:   n.TopicID,
		State:     StateDelivered,
		Duration:  time.Since(start),
	}
	if err != nil {
		out.Err = err
		var de *DeliveryError
		if errors.As(err, &de) {
			out.State, out.Reason, out.Status, out.Detail = de.State, de.Reason, de.Status, de.Detail
		} else {
			out.State, out.Reason = StateTransportFailed, ReasonTransport
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, out.Reason)
	}
	span.SetAttributes(attribute.String("notify.state", string(out.State)))

	switch out.State {
	case StateDelivered:
		lg.Info().Dur("latency", out.Duration).Msg("notification delivered")
	case StateRejected:
		ev := lg.Warn()
		if out.Reason == ReasonResponseUnreadable {
			ev = lg.Error().Err(err)
		}
		ev.Int("status", out.Status).Str("reason", out.Reason).Str("detail", out.Detail).Msg("notification rejected by provider")
	default:
		lg.Error().Err(err).Str("reason", out.Reason).Msg("notification send failed")
	}

	d.report(out)
}

func (d *Dispatcher) report(out Outcome) {
	notificationsTotal.WithLabelValues(string(out.State), out.Reason).Inc()
	if d.onOutcome != nil {
		d.onOutcome(out)
	}
}
