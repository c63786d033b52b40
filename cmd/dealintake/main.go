package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/gmsas95/dealintake/internal/api"
	"github.com/gmsas95/dealintake/internal/artifact"
	"github.com/gmsas95/dealintake/internal/checklist"
	"github.com/gmsas95/dealintake/internal/classify"
	"github.com/gmsas95/dealintake/internal/config"
	"github.com/gmsas95/dealintake/internal/ledger"
	"github.com/gmsas95/dealintake/internal/llm"
	"github.com/gmsas95/dealintake/internal/ocr"
	"github.com/gmsas95/dealintake/internal/store"
	"github.com/gmsas95/dealintake/internal/watch"
)

var (
	configPath  = flag.String("config", "", "Path to config file")
	dataDir     = flag.String("data", "", "Path to data directory")
	metricsPort = flag.Int("metrics-port", 9090, "Prometheus metrics port (0 disables)")
	version     = "dev"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version", "--version", "-v":
			fmt.Printf("dealintake version %s\n", version)
			return
		}
	}

	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath, *dataDir)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	st, err := store.New(cfg)
	if err != nil {
		logger.Fatal("Failed to open store", zap.Error(err))
	}
	defer st.Close()

	// The LLM fallback tier is optional: without an API key the engine
	// degrades to rules + fallback, which is still total.
	var fallback *classify.FallbackClassifier
	if provider, err := cfg.DefaultProvider(); err == nil && provider.APIKey != "" {
		fallback = classify.NewFallbackClassifier(llm.NewClient(provider), logger)
		logger.Info("LLM fallback classifier enabled", zap.String("model", provider.Model))
	} else {
		logger.Warn("LLM fallback classifier disabled, no provider API key")
	}
	engine := classify.NewEngine(classify.NewRulesClassifier(), fallback, logger)

	var ocrProvider ocr.Provider
	if cfg.OCR.BaseURL != "" {
		ocrProvider = ocr.NewClient(cfg.OCR)
		logger.Info("structured OCR enabled", zap.String("base_url", cfg.OCR.BaseURL))
	} else {
		logger.Warn("structured OCR disabled, classification will use cached or filename text")
	}

	reconciler := checklist.NewReconciler(st, logger)
	emitter := ledger.NewEmitter(st, logger)
	queue := artifact.NewQueue(st, logger)
	processor := artifact.NewProcessor(st, engine, ocrProvider, reconciler, emitter,
		cfg.Queue.AutoMatchThreshold, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := artifact.NewPool(queue, processor, cfg.Queue.Workers, logger)
	pool.Start(ctx)

	// Periodically requeue failed artifacts below the retry ceiling.
	sweeper := cron.New()
	if _, err := sweeper.AddFunc(cfg.Queue.RetrySweepSchedule, func() {
		n, err := st.RequeueFailed(cfg.Queue.MaxRetries)
		if err != nil {
			logger.Error("retry sweep failed", zap.Error(err))
			return
		}
		if n > 0 {
			logger.Info("retry sweep requeued artifacts", zap.Int64("count", n))
		}
	}); err != nil {
		logger.Fatal("Invalid retry sweep schedule",
			zap.String("schedule", cfg.Queue.RetrySweepSchedule), zap.Error(err))
	}
	sweeper.Start()

	if cfg.Intake.Enabled {
		watcher := watch.New(cfg.Intake.WatchDir, queue, st, logger)
		go func() {
			if err := watcher.Run(ctx); err != nil {
				logger.Error("drop folder watcher stopped", zap.Error(err))
			}
		}()
	}

	if *metricsPort > 0 {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			addr := fmt.Sprintf(":%d", *metricsPort)
			logger.Info("metrics listener started", zap.String("addr", addr))
			if err := http.ListenAndServe(addr, mux); err != nil {
				logger.Error("metrics listener error", zap.Error(err))
			}
		}()
	}

	server := api.New(cfg, st, queue, reconciler, logger)
	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	logger.Info("dealintake started",
		zap.String("address", cfg.Server.Address),
		zap.Int("port", cfg.Server.Port),
		zap.Int("workers", cfg.Queue.Workers),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	cancel()
	sweeper.Stop()
	if err := server.Shutdown(); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}
	pool.Wait()
}
