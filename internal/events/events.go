package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"

	"github.com/emilythestrangee/decision-board/backend/internal/logging"
	"github.com/emilythestrangee/decision-board/backend/internal/metrics"
	"github.com/emilythestrangee/decision-board/backend/internal/models"
)

type Kind string

const (
	DecisionCreated Kind = "decision.created"
	DecisionDeleted Kind = "decision.deleted"
	VoteCast        Kind = "vote.cast"
	CommentAdded    Kind = "comment.added"
)

// Event is the JSON message published for every state change. Messages are
// keyed by decision ID so one decision's events stay ordered in a partition.
type Event struct {
	Kind       Kind              `json:"kind"`
	DecisionID uuid.UUID         `json:"decision_id"`
	UserID     int               `json:"user_id"`
	Action     models.VoteAction `json:"action,omitempty"`
	VoteType   models.VoteType   `json:"vote_type,omitempty"`
	Votes      *models.Tally     `json:"votes,omitempty"`
	At         time.Time         `json:"at"`
}

type Publisher interface {
	Publish(e Event) error
	Close() error
}

// Nop discards events. Used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(Event) error { return nil }
func (Nop) Close() error        { return nil }

var (
	// ErrBufferFull is returned when the producer cannot take another
	// message without blocking. The event is dropped.
	ErrBufferFull = errors.New("events: producer buffer full")
	ErrClosed     = errors.New("events: publisher closed")
)

// KafkaPublisher hands events to an async producer. Publish never waits on
// the brokers; delivery failures are logged and counted by a drain loop.
type KafkaPublisher struct {
	producer sarama.AsyncProducer
	topic    string

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewProducerConfig returns the producer settings used in production.
func NewProducerConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = false
	config.Producer.Return.Errors = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Partitioner = sarama.NewHashPartitioner
	config.Producer.Flush.Frequency = 100 * time.Millisecond
	config.ChannelBufferSize = 1024
	config.Version = sarama.V2_0_0_0
	config.ClientID = "decision-board"
	return config
}

// NewKafkaPublisher dials brokers. With no brokers it returns Nop.
func NewKafkaPublisher(brokers []string, topic string) (Publisher, error) {
	if len(brokers) == 0 {
		logging.Logger.Info().Msg("kafka: no brokers configured, events disabled")
		return Nop{}, nil
	}
	producer, err := sarama.NewAsyncProducer(brokers, NewProducerConfig())
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	logging.Logger.Info().Strs("brokers", brokers).Str("topic", topic).Msg("kafka: producer ready")
	return NewPublisherWithProducer(producer, topic), nil
}

// NewPublisherWithProducer takes ownership of producer and starts draining
// its error channel.
func NewPublisherWithProducer(producer sarama.AsyncProducer, topic string) *KafkaPublisher {
	p := &KafkaPublisher{producer: producer, topic: topic, done: make(chan struct{})}
	go p.drain()
	return p
}

func (p *KafkaPublisher) drain() {
	defer close(p.done)
	for perr := range p.producer.Errors() {
		metrics.EventPublishFailures.Inc()
		logging.Logger.Warn().Err(perr.Err).Str("topic", perr.Msg.Topic).Msg("kafka: event not delivered")
	}
}

// Publish enqueues e and returns without waiting for the brokers.
func (p *KafkaPublisher) Publish(e Event) error {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(e.DecisionID.String()),
		Value: sarama.ByteEncoder(payload),
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.producer.Input() <- msg:
		return nil
	default:
		metrics.EventPublishFailures.Inc()
		return fmt.Errorf("publish %s: %w", e.Kind, ErrBufferFull)
	}
}

// Close flushes buffered messages and waits for the drain loop to finish.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.producer.AsyncClose()
	<-p.done
	return nil
}
