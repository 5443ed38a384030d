package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// AMQPConfig names the broker objects used for reply jobs.
type AMQPConfig struct {
	URL        string
	Exchange   string
	Queue      string
	RoutingKey string
}

// AMQP publishes jobs to a durable queue and consumes them in-process.
// Publishing failures fall back to another dispatcher.
type AMQP struct {
	conn     *amqp.Connection
	pub      *amqp.Channel
	sub      *amqp.Channel
	cfg      AMQPConfig
	handle   Handler
	fallback Dispatcher

	pubMu sync.Mutex
	wg    sync.WaitGroup
}

// NewAMQP connects to the broker, declares the exchange and queue and starts
// a consumer. When the broker cannot be reached it logs why and returns
// fallback unchanged.
func NewAMQP(cfg AMQPConfig, h Handler, fallback Dispatcher) Dispatcher {
	if cfg.Exchange == "" {
		cfg.Exchange = "classroom.assistant"
	}
	if cfg.Queue == "" {
		cfg.Queue = "assistant.replies"
	}
	if cfg.RoutingKey == "" {
		cfg.RoutingKey = "assistant.reply"
	}
	d, err := dialAMQP(cfg, h, fallback)
	if err != nil {
		log.Warn().Err(err).Str("dispatcher", DispatcherMode(fallback)).Msg("amqp disabled, using fallback dispatcher")
		return fallback
	}
	log.Info().Str("exchange", cfg.Exchange).Str("queue", cfg.Queue).Msg("amqp dispatcher connected")
	return d
}

func dialAMQP(cfg AMQPConfig, h Handler, fallback Dispatcher) (*AMQP, error) {
	if cfg.URL == "" {
		return nil, errors.New("empty amqp url")
	}
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, err
	}
	pub, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := pub.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if _, err := pub.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := pub.QueueBind(cfg.Queue, cfg.RoutingKey, cfg.Exchange, false, nil); err != nil {
		_ = conn.Close()
		return nil, err
	}

	sub, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := sub.Qos(4, 0, false); err != nil {
		_ = conn.Close()
		return nil, err
	}
	deliveries, err := sub.Consume(cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	d := &AMQP{conn: conn, pub: pub, sub: sub, cfg: cfg, handle: h, fallback: fallback}
	d.wg.Add(1)
	go d.consume(deliveries)
	return d, nil
}

func (d *AMQP) consume(deliveries <-chan amqp.Delivery) {
	defer d.wg.Done()
	for msg := range deliveries {
		var job Job
		if err := json.Unmarshal(msg.Body, &job); err != nil {
			log.Error().Err(err).Msg("amqp: dropping malformed assistant job")
			_ = msg.Nack(false, false)
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), DefaultJobTimeout)
		err := d.handle(ctx, job)
		cancel()
		observeJob(ModeAMQP, err)
		if err != nil {
			log.Error().Err(err).
				Uint("group_id", job.GroupID).
				Uint("message_id", job.MessageID).
				Str("request_id", job.RequestID).
				Msg("assistant job failed")
			// Requeue once; a redelivered failure is dropped.
			_ = msg.Nack(false, !msg.Redelivered)
			continue
		}
		_ = msg.Ack(false)
	}
}

// Dispatch publishes job as a persistent JSON message.
func (d *AMQP) Dispatch(ctx context.Context, job Job) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}
	d.pubMu.Lock()
	err = d.pub.PublishWithContext(ctx, d.cfg.Exchange, d.cfg.RoutingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
		MessageId:    job.RequestID,
	})
	d.pubMu.Unlock()
	if err != nil {
		log.Warn().Err(err).Uint("message_id", job.MessageID).Msg("amqp publish failed, using fallback dispatcher")
		return d.fallback.Dispatch(ctx, job)
	}
	return nil
}

// Close shuts the consumer and connection down, then closes the fallback.
func (d *AMQP) Close(ctx context.Context) error {
	_ = d.sub.Close()
	_ = d.pub.Close()
	connErr := d.conn.Close()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return errors.Join(connErr, d.fallback.Close(ctx))
}

// DispatcherMode reports the dispatcher kind for logging.
func DispatcherMode(d Dispatcher) string {
	switch d.(type) {
	case *AMQP:
		return ModeAMQP
	case *Pool:
		return ModeAsync
	case *Inline:
		return ModeInline
	default:
		return "unknown"
	}
}
