// Package kafka publishes market-data snapshots on a best-effort basis: no
// staging, no retry beyond what kafka-go itself does, no delivery
// guarantee beyond "the broker accepted the write." This is the cheap,
// low-latency sibling of infra/outbox's durable trade delivery.
package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"lob/domain/orderbook"
)

// Config configures a MarketDataPublisher. The zero value is not usable —
// Brokers and Topic must be set — but BatchTimeout defaults sensibly.
type Config struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
}

// MarketDataPublisher writes JSON-encoded snapshots to a single topic.
type MarketDataPublisher struct {
	writer *kafka.Writer
}

// NewMarketDataPublisher creates a publisher from cfg.
func NewMarketDataPublisher(cfg Config) *MarketDataPublisher {
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 10 * time.Millisecond
	}
	return &MarketDataPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			BatchTimeout: cfg.BatchTimeout,
		},
	}
}

// Publish JSON-encodes snap and writes it. Callers — typically a callback
// registered via RegisterMarketDataCallback — invoke this outside the
// book's lock, so a slow or failing write never blocks the match loop.
func (p *MarketDataPublisher) Publish(ctx context.Context, snap orderbook.Snapshot) error {
	val, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   symbolKey(snap.SymbolID),
		Value: val,
	})
}

// Close flushes and closes the underlying writer.
func (p *MarketDataPublisher) Close() error {
	return p.writer.Close()
}

func symbolKey(symbolID uint32) []byte {
	b := make([]byte, 4)
	b[0] = byte(symbolID >> 24)
	b[1] = byte(symbolID >> 16)
	b[2] = byte(symbolID >> 8)
	b[3] = byte(symbolID)
	return b
}
