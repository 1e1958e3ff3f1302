// Package outbox durably stages trades for at-least-once delivery to an
// external stream, independent of whether the in-memory book that produced
// them survives a crash. Records are never read back into an OrderBook —
// this is a delivery guarantee for already-matched, immutable Trade
// events, not a recovery log for book state.
package outbox

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"

	"lob/domain/orderbook"
)

// State is a staged record's position in its delivery lifecycle.
type State uint8

const (
	StateNew State = iota
	StateSent
	StateAcked
)

func (s State) String() string {
	switch s {
	case StateSent:
		return "SENT"
	case StateAcked:
		return "ACKED"
	default:
		return "NEW"
	}
}

// Record pairs a staged Trade with its delivery state.
type Record struct {
	Trade orderbook.Trade
	State State
}

// Config configures the outbox's on-disk store.
type Config struct {
	Dir string
}

// Store is a pebble-backed key-value store of staged trade records, keyed
// by trade id.
type Store struct {
	db *pebble.DB
}

// Open opens (creating if necessary) the outbox database configured by cfg.
func Open(cfg Config) (*Store, error) {
	db, err := pebble.Open(cfg.Dir, &pebble.Options{DisableWAL: false})
	if err != nil {
		return nil, errors.Wrapf(err, "outbox: open %q", cfg.Dir)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Stage records trade as NEW before any network call is attempted.
func (s *Store) Stage(trade orderbook.Trade) error {
	rec := Record{Trade: trade, State: StateNew}
	val, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "outbox: marshal record")
	}
	if err := s.db.Set(keyFor(trade.TradeID), val, pebble.Sync); err != nil {
		return errors.Wrapf(err, "outbox: stage trade %d", trade.TradeID)
	}
	return nil
}

// MarkSent transitions a staged record to SENT, ahead of broker
// acknowledgement — mirrors the teacher's two-phase exit-WAL states so a
// crash between send and ack is at worst a duplicate delivery, never a
// lost one.
func (s *Store) MarkSent(tradeID uint64) error {
	return s.setState(tradeID, StateSent)
}

// MarkAcked transitions a staged record to ACKED once the broker has
// confirmed delivery.
func (s *Store) MarkAcked(tradeID uint64) error {
	return s.setState(tradeID, StateAcked)
}

func (s *Store) setState(tradeID uint64, state State) error {
	rec, err := s.get(tradeID)
	if err != nil {
		return err
	}
	rec.State = state
	val, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "outbox: marshal record")
	}
	return s.db.Set(keyFor(tradeID), val, pebble.Sync)
}

func (s *Store) get(tradeID uint64) (Record, error) {
	val, closer, err := s.db.Get(keyFor(tradeID))
	if err != nil {
		return Record{}, errors.Wrapf(err, "outbox: get trade %d", tradeID)
	}
	defer closer.Close()

	var rec Record
	if err := json.Unmarshal(val, &rec); err != nil {
		return Record{}, errors.Wrap(err, "outbox: unmarshal record")
	}
	return rec, nil
}

// ScanByState calls fn for every staged record currently in state, in key
// (trade id) order. Used by the Broadcaster to find undelivered records.
func (s *Store) ScanByState(state State, fn func(Record) error) error {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte("trade/"),
		UpperBound: []byte("trade/~"),
	})
	if err != nil {
		return errors.Wrap(err, "outbox: new iterator")
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		var rec Record
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			return errors.Wrap(err, "outbox: unmarshal record")
		}
		if rec.State != state {
			continue
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return iter.Error()
}

func keyFor(tradeID uint64) []byte {
	return []byte(fmt.Sprintf("trade/%020d", tradeID))
}
