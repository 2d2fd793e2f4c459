package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/atolye/internal/client/cli"
	"github.com/dmitrijs2005/atolye/internal/client/config"
	"github.com/dmitrijs2005/atolye/internal/logging"
	"github.com/dmitrijs2005/atolye/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		log.Fatalf("%v", err)
	}
	logger := logging.NewTextLogger(os.Stderr, level)

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           metrics.SetupMetricsRoute(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error(ctx, "metrics server stopped", "error", err)
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	app, err := cli.NewApp(ctx, cfg, logger, collector)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
