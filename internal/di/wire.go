//go:build wireinject
// +build wireinject

package di

import (
	"BtcEdge/pkg/config"
	"BtcEdge/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisClient,
		ProvideCacheService,

		// Repositories
		ProvideCandleStorage,
		ProvideCandlePublisher,
		ProvideBinanceStream,
		ProvideCandleStore,
		ProvideMarketProbStore,
		ProvidePaperTradeStore,
		ProvideRunStore,

		// Decision core
		ProvideRiskParams,
		ProvideRiskEngine,
		ProvideFeatureParams,
		ProvidePredictor,
		ProvidePaperState,

		// Use cases
		ProvideCandleProcessor,
		ProvideCandleCollector,
		ProvideKafkaCandlesHandler,
		ProvideSignalUseCase,
		ProvideCandlesUseCase,
		ProvideBacktestUseCase,
		ProvideBacktestJob,
		ProvideBacktestRuns,
		ProvidePaperTrading,
		ProvideHistoryBackfill,
		ProvideProbPoller,
		ProvideConsumerHook,
		ProvideJobQueue,

		// HTTP and application server
		ProvideAPIHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
