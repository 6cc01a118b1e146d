package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/segmentio/kafka-go"
)

// KafkaPublisher publishes decision events to a Kafka topic via a
// single background writer goroutine reading off a bounded channel.
// A full channel drops the newest event rather than blocking the
// arbiter (spec SPEC_FULL §4.11).
type KafkaPublisher struct {
	l  hclog.Logger
	w  *kafka.Writer
	ch chan DecisionEvent
}

// NewKafkaPublisher returns a publisher writing to topic on the given
// brokers. Call Close when the daemon shuts down to flush the writer.
func NewKafkaPublisher(l hclog.Logger, brokers []string, topic string) *KafkaPublisher {
	p := &KafkaPublisher{
		l: l.Named("events.kafka"),
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
			Async:        true,
		},
		ch: make(chan DecisionEvent, 1024),
	}
	go p.run()
	return p
}

func (p *KafkaPublisher) run() {
	for ev := range p.ch {
		payload, err := json.Marshal(ev)
		if err != nil {
			p.l.Warn("Error marshalling decision event, dropping", "error", err)
			continue
		}
		msg := kafka.Message{Key: []byte(ev.PromotionID), Value: payload}
		if err := p.w.WriteMessages(context.Background(), msg); err != nil {
			p.l.Warn("Error publishing decision event", "error", err)
		}
	}
}

// Publish enqueues ev for publication, dropping it if the internal
// buffer is full.
func (p *KafkaPublisher) Publish(ev DecisionEvent) {
	select {
	case p.ch <- ev:
	default:
		p.l.Warn("Decision event buffer full, dropping", "build", ev.PromotionID)
	}
}

// Close stops accepting new events and flushes the writer.
func (p *KafkaPublisher) Close() error {
	close(p.ch)
	return p.w.Close()
}
