package di

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"BtcEdge/internal/domain/models"
	"BtcEdge/internal/domain/repository"
	domsvc "BtcEdge/internal/domain/service"
	"BtcEdge/internal/handler/api"
	mid "BtcEdge/internal/middleware"
	internalrepo "BtcEdge/internal/repository"
	"BtcEdge/internal/service/binance"
	icache "BtcEdge/internal/service/cache"
	"BtcEdge/internal/service/polymarket"
	"BtcEdge/internal/services/features"
	"BtcEdge/internal/services/predictor"
	"BtcEdge/internal/services/risk"
	"BtcEdge/internal/usecase"
	pkgcache "BtcEdge/pkg/cache"
	pkgch "BtcEdge/pkg/clickhouse"
	"BtcEdge/pkg/config"
	xhttp "BtcEdge/pkg/http"
	pkgkafka "BtcEdge/pkg/kafka"
	"BtcEdge/pkg/logger"
	"BtcEdge/pkg/metrics"
	"BtcEdge/pkg/queue"
	"BtcEdge/pkg/server"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	format := "console"
	if cfg.Environment == "production" {
		format = "json"
	}
	return logger.New(&logger.Config{Level: "info", Format: format, Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := cfg.ClickHouse.Database
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + db,
		"CREATE TABLE IF NOT EXISTS " + db + ".candles_5m (ts DateTime, open_time_ms Int64, symbol String, open Float64, high Float64, low Float64, close Float64, volume Float64, source String) ENGINE=ReplacingMergeTree ORDER BY (symbol, open_time_ms)",
		"CREATE TABLE IF NOT EXISTS " + db + ".candles_1m (ts DateTime, open_time_ms Int64, symbol String, open Float64, high Float64, low Float64, close Float64, volume Float64, source String) ENGINE=ReplacingMergeTree ORDER BY (symbol, open_time_ms)",
		"CREATE TABLE IF NOT EXISTS " + db + ".market_probs (open_time_ms Int64, market_id String, slug String, yes_price Float64, no_price Float64, created_at DateTime DEFAULT now()) ENGINE=ReplacingMergeTree ORDER BY (open_time_ms, market_id)",
		"CREATE TABLE IF NOT EXISTS " + db + ".paper_trades (ts String, open_time_ms Int64, signal String, model_prob Float64, market_prob Float64, edge Float64, position_usd Float64, reason String) ENGINE=MergeTree ORDER BY open_time_ms",
	}); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCandleStorage creates the raw-candle ClickHouse storage.
func ProvideCandleStorage(chClient *pkgch.Client, cfg *config.Config) repository.Storage {
	return internalrepo.NewClickHouseStorage(chClient.DB(), cfg.ClickHouse.Database+".candles_5m")
}

// ProvideCandlePublisher creates the Kafka publisher for closed candles.
func ProvideCandlePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaCandlesHandler registers handler for the candles topic.
func ProvideKafkaCandlesHandler(store repository.Storage, metrics repository.Metrics, cfg *config.Config) *usecase.KafkaCandlesHandler {
	return usecase.NewKafkaCandlesHandler(cfg.Kafka.Topic, store, metrics)
}

// ProvideBinanceStream creates the Binance kline WebSocket stream.
func ProvideBinanceStream(cfg *config.Config) repository.MarketStream {
	return binance.New(
		cfg.Binance.WebSocketURL,
		cfg.Binance.Symbol,
		cfg.Binance.Interval,
		cfg.Binance.ReconnectDelay,
		cfg.Binance.PingInterval,
	)
}

// ProvideCandleProcessor creates the candle processor use case.
func ProvideCandleProcessor(
	pub repository.Publisher,
	store repository.Storage,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.CandleProcessor {
	return usecase.NewCandleProcessor(
		pub,
		store,
		metrics,
		cfg.Backend.Type,
		cfg.Backend.BatchSize,
		cfg.Backend.BatchTimeout,
	)
}

// ProvideCandleCollector creates the candle collector use case. Closed
// candles additionally fan out to the paper trader.
func ProvideCandleCollector(
	stream repository.MarketStream,
	processor *usecase.CandleProcessor,
	metrics repository.Metrics,
	paper *usecase.PaperTradingUseCase,
	log *logger.Logger,
) *usecase.CandleCollector {
	pipe := mid.NewRealtimePipeline(processor, metrics,
		mid.WithBufferSize(2000),
		mid.WithOnCandle(func(ctx context.Context, c *models.Candle) {
			if err := paper.OnCandleClosed(ctx, c); err != nil {
				log.Warn("paper trading on candle", logger.Error(err))
			}
		}),
	)
	return usecase.NewCandleCollector(stream, processor, metrics, pipe)
}

// ProvideCacheService builds the run-record cache: a memory-over-redis
// layered cache when redis is configured, plain in-memory otherwise. Run
// status is polled repeatedly while a backtest executes, so the memory
// layer absorbs most reads.
func ProvideCacheService(cfg *config.Config) (pkgcache.Service, error) {
	if !cfg.Redis.Enabled {
		return pkgcache.NewMemoryCache(), nil
	}
	host, portStr, err := net.SplitHostPort(cfg.Redis.Addr)
	if err != nil {
		return nil, fmt.Errorf("redis addr: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("redis port: %w", err)
	}
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, err
	}
	return pkgcache.NewLayeredCache(rc), nil
}

// ProvideBytesCache builds the short-TTL response cache for the API layer.
func ProvideBytesCache(cfg *config.Config) icache.BytesCache {
	if cfg.Redis.Enabled {
		return icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	return icache.NewTTLCache()
}

// ProvideRedisClient creates the shared redis client for the job queue.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideJobQueue creates the backtest job queue. One queue instance serves
// both publishing and consuming.
func ProvideJobQueue(log *logger.Logger, client *redis.Client, job *usecase.BacktestJob) *queue.RedisQueue {
	return queue.NewRedisQueue(log, &queue.QueueConfig{
		Workers:    2,
		RetryLimit: 3,
		RetryDelay: 30 * time.Second,
	}, client, job)
}

// ProvideRiskParams maps config to pure risk parameters.
func ProvideRiskParams(cfg *config.Config) risk.Params {
	p := risk.DefaultParams()
	if cfg.Risk.RiskFraction > 0 {
		p.RiskFraction = cfg.Risk.RiskFraction
	}
	if cfg.Risk.MaxTradeCap > 0 {
		p.MaxTradeCap = cfg.Risk.MaxTradeCap
	}
	if cfg.Risk.EdgeThreshold > 0 {
		p.EdgeThreshold = cfg.Risk.EdgeThreshold
	}
	if cfg.Risk.LossStreakLimit > 0 {
		p.LossStreakLimit = cfg.Risk.LossStreakLimit
	}
	if cfg.Risk.DailyDrawdownCap > 0 {
		p.DailyDrawdownCap = cfg.Risk.DailyDrawdownCap
	}
	return p
}

// ProvideRiskEngine creates the decision engine.
func ProvideRiskEngine(params risk.Params) *risk.Engine {
	return risk.NewEngine(params)
}

// ProvideFeatureParams maps config to indicator periods.
func ProvideFeatureParams(cfg *config.Config) features.Params {
	p := features.DefaultParams()
	if cfg.Features.EMAFast > 0 {
		p.EMAFast = cfg.Features.EMAFast
	}
	if cfg.Features.EMASlow > 0 {
		p.EMASlow = cfg.Features.EMASlow
	}
	if cfg.Features.RSIPeriod > 0 {
		p.RSIPeriod = cfg.Features.RSIPeriod
	}
	if cfg.Features.MACDFast > 0 {
		p.MACDFast = cfg.Features.MACDFast
	}
	if cfg.Features.MACDSlow > 0 {
		p.MACDSlow = cfg.Features.MACDSlow
	}
	if cfg.Features.MACDSignal > 0 {
		p.MACDSignal = cfg.Features.MACDSignal
	}
	if cfg.Features.ATRPeriod > 0 {
		p.ATRPeriod = cfg.Features.ATRPeriod
	}
	return p
}

// ProvidePredictor creates the model-service client.
func ProvidePredictor(cfg *config.Config, feats features.Params) domsvc.Predictor {
	return predictor.NewHTTPPredictor(cfg, feats)
}

// ProvideCandleStore creates the read-side candle repository.
func ProvideCandleStore(chClient *pkgch.Client) repository.CandleStore {
	return internalrepo.NewCHCandleStore(chClient)
}

// ProvideMarketProbStore creates the market probability repository.
func ProvideMarketProbStore(chClient *pkgch.Client) repository.MarketProbStore {
	return internalrepo.NewCHMarketProbStore(chClient)
}

// ProvidePaperTradeStore creates the paper trade repository.
func ProvidePaperTradeStore(chClient *pkgch.Client) repository.PaperTradeStore {
	return internalrepo.NewCHPaperTradeStore(chClient)
}

// ProvideRunStore creates the backtest run repository.
func ProvideRunStore(c pkgcache.Service) repository.BacktestRunStore {
	return internalrepo.NewCacheRunStore(c)
}

// ProvidePaperState creates the shared paper trading state.
func ProvidePaperState(cfg *config.Config) *usecase.PaperState {
	balance := cfg.Risk.InitialBalance
	if balance <= 0 {
		balance = 100
	}
	return usecase.NewPaperState(balance)
}

// ProvideSignalUseCase creates the live signal use case.
func ProvideSignalUseCase(
	store repository.CandleStore,
	probs repository.MarketProbStore,
	predictor domsvc.Predictor,
	engine *risk.Engine,
	feats features.Params,
	state *usecase.PaperState,
	metrics repository.Metrics,
) *usecase.SignalUseCase {
	return usecase.NewSignalUseCase(store, probs, predictor, engine, feats, state, metrics)
}

// ProvideCandlesUseCase creates the candle query use case.
func ProvideCandlesUseCase(store repository.CandleStore) *usecase.CandlesUseCase {
	return usecase.NewCandlesUseCase(store)
}

// ProvideBacktestUseCase creates the backtest use case.
func ProvideBacktestUseCase(
	store repository.CandleStore,
	probs repository.MarketProbStore,
	predictor domsvc.Predictor,
	params risk.Params,
	feats features.Params,
	log *logger.Logger,
) *usecase.BacktestUseCase {
	return usecase.NewBacktestUseCase(store, probs, predictor, params, feats, log)
}

// ProvideBacktestJob creates the async backtest job handler.
func ProvideBacktestJob(backtests *usecase.BacktestUseCase, runs repository.BacktestRunStore, log *logger.Logger) *usecase.BacktestJob {
	return usecase.NewBacktestJob(backtests, runs, log, os.Stdout)
}

// ProvideBacktestRuns creates the run-tracking use case.
func ProvideBacktestRuns(backtests *usecase.BacktestUseCase, runs repository.BacktestRunStore, q *queue.RedisQueue) *usecase.BacktestRunsUseCase {
	return usecase.NewBacktestRunsUseCase(backtests, runs, q)
}

// ProvidePaperTrading creates the live paper trading use case.
func ProvidePaperTrading(
	signals *usecase.SignalUseCase,
	trades repository.PaperTradeStore,
	state *usecase.PaperState,
	log *logger.Logger,
) *usecase.PaperTradingUseCase {
	return usecase.NewPaperTradingUseCase(signals, trades, state, log)
}

// ProvideHistoryBackfill creates the startup backfill use case.
func ProvideHistoryBackfill(cfg *config.Config, storage repository.Storage, log *logger.Logger) *usecase.HistoryBackfill {
	return usecase.NewHistoryBackfill(binance.NewRESTClient(cfg), storage, log)
}

// ProvideProbPoller creates the prediction market poller.
func ProvideProbPoller(cfg *config.Config, store repository.MarketProbStore, log *logger.Logger) *usecase.ProbPoller {
	return usecase.NewProbPoller(polymarket.NewClient(cfg, log), store, log)
}

// ProvideAPIHandler assembles the HTTP handler with its response cache.
func ProvideAPIHandler(
	log *logger.Logger,
	signals *usecase.SignalUseCase,
	candles *usecase.CandlesUseCase,
	runs *usecase.BacktestRunsUseCase,
	paper *usecase.PaperTradingUseCase,
	trades repository.PaperTradeStore,
	model domsvc.Predictor,
	cfg *config.Config,
) xhttp.Handler {
	h := api.NewHandler(log, signals, candles, runs, paper, trades, model)
	h.SetCache(ProvideBytesCache(cfg))
	return h
}

// ProvideConsumerHook builds the consumer lifecycle hooks: one hook stamps
// start time and trace id into the context, a second records handling
// latency and logs handler errors with the trace id.
func ProvideConsumerHook(log *logger.Logger, m repository.Metrics) pkgkafka.ConsumerHook {
	stamp := pkgkafka.HookFuncs{
		Before: func(ctx context.Context, topic string, km kafkago.Message, data []byte) (context.Context, kafkago.Message, []byte, error) {
			ctx = pkgkafka.WithStartTime(ctx, time.Now())
			ctx = pkgkafka.WithTraceID(ctx, pkgkafka.ExtractTraceID(km))
			return ctx, km, data, nil
		},
	}
	observe := pkgkafka.HookFuncs{
		After: func(ctx context.Context, topic string, km kafkago.Message, data []byte, err error) {
			if start, ok := ctx.Value(pkgkafka.CtxStartTime).(time.Time); ok {
				m.RecordLatency("kafka_handle", time.Since(start).Seconds())
			}
		},
		Err: func(ctx context.Context, topic string, km kafkago.Message, data []byte, err error) {
			traceID, _ := ctx.Value(pkgkafka.CtxTraceID).(string)
			log.Warn("kafka handler error",
				logger.String("topic", topic),
				logger.String("trace_id", traceID),
				logger.Error(err),
			)
		},
	}
	return pkgkafka.NewHookChain(stamp, observe)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	collector *usecase.CandleCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaCandlesHandler,
	chClient *pkgch.Client,
	producer *pkgkafka.Producer,
	jobQueue *queue.RedisQueue,
	backfill *usecase.HistoryBackfill,
	poller *usecase.ProbPoller,
	hook pkgkafka.ConsumerHook,
	apiHandler xhttp.Handler,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(hook)
	}
	// In production, error logs are deduplicated and shipped to kafka so
	// repeated failures show up as one counted entry instead of a flood.
	if producer != nil && cfg.Environment == "production" {
		log.AddCollector(&logger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.LogTopic,
			Publisher:      producer,
		})
	}
	app := server.New(cfg, log, collector, consumer, kh, chClient, jobQueue, backfill, poller, apiHandler)
	if collector != nil {
		app.CandleProc = collector.Processor()
	}
	return app
}
