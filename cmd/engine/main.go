// cmd/engine wires the matching engine's library surface to its
// distribution and observability adapters. It contains no matching logic
// of its own — every symbol comparison, priority rule, and fill happens in
// domain/orderbook.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"lob/domain/orderbook"
	"lob/engine"
	"lob/infra/alerting"
	"lob/infra/kafka"
	"lob/infra/metrics"
	"lob/infra/outbox"
)

const (
	metricsAddr         = ":9090"
	outboxDir           = "./outbox_data"
	kafkaBrokers        = "localhost:9092"
	marketDataTopic     = "market-data"
	tradeTopic          = "trades"
	broadcasterInterval = 250 * time.Millisecond
)

// knownSymbols is the fixed set of symbol ids this process publishes
// market data and trades for. The order-flow generator that would submit
// against them is an explicit non-goal of the core; wiring them here only
// demonstrates that a caller subscribes through the same
// RegisterMarketDataCallback/RegisterTradeCallback surface any other
// caller would use.
var knownSymbols = []uint32{1, 2, 3}

func main() {
	reporter, err := alerting.New(alerting.Config{DSN: os.Getenv("SENTRY_DSN")})
	if err != nil {
		log.Fatalf("alerting init failed: %v", err)
	}
	defer func() {
		if r := recover(); r != nil {
			reporter.CaptureInvariantViolation(fmt.Errorf("invariant violation: %v", r), nil)
			panic(r)
		}
	}()

	registry := prometheus.NewRegistry()
	recorder := metrics.NewRecorder(registry)

	store, err := outbox.Open(outbox.Config{Dir: outboxDir})
	if err != nil {
		log.Fatalf("outbox init failed: %v", err)
	}
	defer store.Close()

	broadcaster, err := outbox.NewBroadcaster(store, outbox.BroadcasterConfig{
		Brokers:  []string{kafkaBrokers},
		Topic:    tradeTopic,
		Interval: broadcasterInterval,
	})
	if err != nil {
		log.Fatalf("outbox broadcaster init failed: %v", err)
	}

	marketData := kafka.NewMarketDataPublisher(kafka.Config{
		Brokers: []string{kafkaBrokers},
		Topic:   marketDataTopic,
	})
	defer marketData.Close()

	sim := engine.New(recorder)

	// Publishers attach through the same callback surface any other
	// caller would use — there is no privileged internal wiring path.
	bgCtx := context.Background()
	for _, symbolID := range knownSymbols {
		sim.RegisterMarketDataCallback(symbolID, func(snap orderbook.Snapshot) {
			if err := marketData.Publish(bgCtx, snap); err != nil {
				log.Printf("market data publish failed for symbol %d: %v", snap.SymbolID, err)
			}
		})
		sim.RegisterTradeCallback(symbolID, func(t orderbook.Trade) {
			if err := store.Stage(t); err != nil {
				log.Printf("outbox stage failed for trade %d: %v", t.TradeID, err)
			}
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return broadcaster.Run(gctx) })
	g.Go(func() error { return serveMetrics(gctx, registry) })

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case <-stop:
		log.Println("shutdown signal received")
	case <-gctx.Done():
	}
	cancel()

	if err := g.Wait(); err != nil && gctx.Err() == nil {
		log.Printf("background job exited with error: %v", err)
	}

	log.Printf("final metrics: %+v", sim.GetPerformanceMetrics())
}

func serveMetrics(ctx context.Context, gatherer prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: metricsAddr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
