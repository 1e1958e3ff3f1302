package outbox

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/IBM/sarama"
	"github.com/cockroachdb/errors"
)

// BroadcasterConfig configures a Broadcaster's Kafka connection and poll
// cadence.
type BroadcasterConfig struct {
	Brokers  []string
	Topic    string
	Interval time.Duration
}

// Broadcaster periodically scans a Store for NEW records, publishes each to
// Kafka via a sarama.SyncProducer, and marks it ACKED on success. It never
// reads a record back into an OrderBook — its only job is at-least-once
// delivery of already-matched trades to downstream consumers.
type Broadcaster struct {
	store    *Store
	producer sarama.SyncProducer
	topic    string
	interval time.Duration
}

// NewBroadcaster dials cfg.Brokers with a synchronous, fully-acknowledged
// producer and returns a Broadcaster that polls store on cfg.Interval.
func NewBroadcaster(store *Store, cfg BroadcasterConfig) (*Broadcaster, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.Producer.Return.Successes = true
	saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
	saramaCfg.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, errors.Wrap(err, "outbox: new sarama producer")
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return &Broadcaster{store: store, producer: producer, topic: cfg.Topic, interval: interval}, nil
}

// Run polls the outbox until ctx is cancelled. Intended to be launched as
// one goroutine in an errgroup alongside the facade's metrics server.
func (b *Broadcaster) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return b.producer.Close()
		case <-ticker.C:
			if err := b.deliverPending(); err != nil {
				log.Printf("outbox: delivery pass failed: %v", err)
			}
		}
	}
}

// deliverPending sends every SENT record (left over from a pass that stopped
// between MarkSent and MarkAcked) and every NEW record. A failed send puts
// the record back to NEW so a later pass retries it.
func (b *Broadcaster) deliverPending() error {
	for _, state := range []State{StateSent, StateNew} {
		err := b.store.ScanByState(state, func(rec Record) error {
			if err := b.store.MarkSent(rec.Trade.TradeID); err != nil {
				return err
			}

			payload, err := json.Marshal(rec.Trade)
			if err != nil {
				return errors.Wrap(err, "outbox: marshal trade")
			}

			_, _, err = b.producer.SendMessage(&sarama.ProducerMessage{
				Topic: b.topic,
				Value: sarama.ByteEncoder(payload),
			})
			if err != nil {
				log.Printf("outbox: send trade %d failed, will retry: %v", rec.Trade.TradeID, err)
				return b.store.setState(rec.Trade.TradeID, StateNew)
			}

			return b.store.MarkAcked(rec.Trade.TradeID)
		})
		if err != nil {
			return err
		}
	}
	return nil
}
