package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ruihong457-droid/Block-Chain-MoneyPot/internal/api"
	"github.com/ruihong457-droid/Block-Chain-MoneyPot/internal/config"
	"github.com/ruihong457-droid/Block-Chain-MoneyPot/internal/domain"
	"github.com/ruihong457-droid/Block-Chain-MoneyPot/internal/journal"
	"github.com/ruihong457-droid/Block-Chain-MoneyPot/internal/ledger"
	"github.com/ruihong457-droid/Block-Chain-MoneyPot/internal/logging"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Event sink: Postgres journal when configured, log-only otherwise.
	var events ledger.EventSink
	var j *journal.Journal
	if cfg.DBSource != "" {
		j, err = journal.New(ctx, cfg.DBSource, logger)
		if err != nil {
			logger.Fatal("unable to open audit journal", zap.Error(err))
		}
		defer j.Close()
		events = j
	} else {
		logger.Warn("DB_SOURCE not set, audit journal disabled")
		events = logSink{logger}
	}

	// The value transfer itself belongs to the host environment; the
	// default sink only records the disbursement.
	sink := ledger.SinkFunc(func(_ context.Context, to string, amount int64) error {
		logger.Info("disbursement", zap.String("to", to), zap.Int64("amount", amount))
		return nil
	})

	pots := ledger.New(sink, events)
	handler := api.NewHandler(pots, j, logger)

	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")
	handler.Register(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

// logSink emits events to the process log when no journal is configured.
type logSink struct {
	logger *zap.Logger
}

func (s logSink) Emit(_ context.Context, e domain.Event) {
	s.logger.Info("event",
		zap.String("kind", e.Kind),
		zap.Int64("pot_id", e.PotID),
		zap.String("actor", e.Actor),
		zap.Int64("amount", e.Amount))
}
