package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"BtcEdge/internal/usecase"
	pkgch "BtcEdge/pkg/clickhouse"
	"BtcEdge/pkg/config"
	xhttp "BtcEdge/pkg/http"
	pkgkafka "BtcEdge/pkg/kafka"
	applogger "BtcEdge/pkg/logger"
	"BtcEdge/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	log         *applogger.Logger
	collector   *usecase.CandleCollector
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	chClient    *pkgch.Client
	jobQueue    *queue.RedisQueue
	backfill    *usecase.HistoryBackfill
	poller      *usecase.ProbPoller
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
	CandleProc  *usecase.CandleProcessor
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	collector *usecase.CandleCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	jobQueue *queue.RedisQueue,
	backfill *usecase.HistoryBackfill,
	poller *usecase.ProbPoller,
	httpHandler xhttp.Handler,
) *App {
	return &App{
		cfg:         cfg,
		log:         log,
		collector:   collector,
		consumer:    consumer,
		kh:          kh,
		chClient:    chClient,
		jobQueue:    jobQueue,
		backfill:    backfill,
		poller:      poller,
		httpHandler: httpHandler,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.log

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Warm the feature window before the live stream contributes.
	if a.backfill != nil {
		if err := a.backfill.Backfill(ctx, 48); err != nil {
			l.Warn("history backfill failed", applogger.Error(err))
		}
	}

	// Start collector
	go func() {
		if err := a.collector.Start(ctx); err != nil {
			l.Error("collector error", applogger.Error(err))
		}
	}()
	l.Info("collector started",
		applogger.String("symbol", a.cfg.Binance.Symbol),
		applogger.String("interval", a.cfg.Binance.Interval),
	)

	// Start market probability poller
	if a.poller != nil {
		go a.poller.Run(ctx)
		l.Info("market prob poller started")
	}

	// Start consumer if configured
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Start backtest job queue when redis is configured
	if a.jobQueue != nil && a.cfg.Redis.Enabled {
		if err := a.jobQueue.Start(); err != nil {
			l.Error("job queue start error", applogger.Error(err))
		} else {
			a.jobQueue.StartRetryProcessor()
			l.Info("backtest job queue started")
		}
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}
	l.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	l := a.log

	// Stop collector (pipeline + stream)
	if err := a.collector.Shutdown(ctx); err != nil {
		l.Warn("collector stop error", applogger.Error(err))
	}

	// Shutdown HTTP server
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	// Stop job queue
	if a.jobQueue != nil && a.cfg.Redis.Enabled {
		if err := a.jobQueue.Stop(shutdownCtx); err != nil {
			l.Warn("job queue stop error", applogger.Error(err))
		}
	}

	// Stop consumer
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Close candle processor resources (publisher/storage)
	if a.CandleProc != nil {
		a.CandleProc.Close()
	}

	// Close infrastructure clients
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	// Flush any pending aggregated logs before exit
	l.RemoveCollector()

	l.Info("shutdown complete")
	return nil
}
