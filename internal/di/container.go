// Package di wires the service's components. Construction is explicit
// and ordered; there is no reflection or code generation, so the full
// dependency graph is readable top to bottom in NewContainer.
package di

import (
	"context"
	"fmt"
	"net/http"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"argus-backend/internal/cache"
	"argus-backend/internal/cache/invalidation"
	"argus-backend/internal/cache/metrics"
	redisstore "argus-backend/internal/cache/redis"
	"argus-backend/internal/cache/warming"
	"argus-backend/internal/config"
	"argus-backend/internal/dashboard"
	"argus-backend/internal/infrastructure/messaging/eventbridge"
	httpiface "argus-backend/internal/interfaces/http"
)

// Container holds every long-lived component of the service.
type Container struct {
	Config   *config.Config
	Logger   *zap.Logger
	Registry *prometheus.Registry

	Collector     *metrics.Collector
	Store         *redisstore.Store
	Coordinator   *cache.Coordinator
	Dashboard     *dashboard.Cache
	Invalidations *invalidation.Router
	Warmer        *warming.Warmer
	Analyzer      *metrics.Analyzer

	Handler http.Handler
}

// NewContainer constructs the full component graph. The cache backend is
// not pinged here: a degraded backend must not prevent startup.
func NewContainer(ctx context.Context, cfg *config.Config, source dashboard.Source) (*Container, error) {
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	collector := metrics.NewCollector(cfg.Cache.MetricsCapacity, logger)
	registry := prometheus.NewRegistry()
	if err := collector.EnablePrometheus(registry, "argus"); err != nil {
		return nil, fmt.Errorf("register prometheus metrics: %w", err)
	}

	store := redisstore.NewStore(redisstore.Config{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  cfg.Redis.DialTimeout.Std(),
		ReadTimeout:  cfg.Redis.ReadTimeout.Std(),
		WriteTimeout: cfg.Redis.WriteTimeout.Std(),
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, collector, logger)

	codecs := cache.NewCodecRegistry()
	dashboard.RegisterCodecs(codecs)

	coordinator := cache.NewCoordinator(store, codecs, logger)
	coordinator.ApplyTTLOverrides(ttlOverrides(cfg))

	dash := dashboard.NewCache(coordinator, source, logger)
	invalidations := invalidation.NewRouter(store, logger)

	warmer := warming.NewWarmer(coordinator, dash, logger,
		warming.WithInterval(cfg.Cache.WarmingInterval.Std()),
		warming.WithConcurrency(cfg.Cache.WarmingConcurrency),
		warming.WithHealthSource(collector),
	)

	sink, err := newAlertSink(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	analyzer := metrics.NewAnalyzer(collector, sink,
		cfg.Cache.AnalyzerInterval.Std(),
		cfg.Cache.MetricsWindow.Std(),
		logger,
	)

	router := httpiface.NewRouter(
		httpiface.NewDashboardHandler(dash, logger),
		httpiface.NewCacheHandler(collector, invalidations, warmer, cfg.Cache.MetricsWindow.Std(), logger),
		store,
		registry,
		logger,
	)

	return &Container{
		Config:        cfg,
		Logger:        logger,
		Registry:      registry,
		Collector:     collector,
		Store:         store,
		Coordinator:   coordinator,
		Dashboard:     dash,
		Invalidations: invalidations,
		Warmer:        warmer,
		Analyzer:      analyzer,
		Handler:       router.Setup(),
	}, nil
}

// Start launches the background loops.
func (c *Container) Start() {
	c.Warmer.Start()
	c.Analyzer.Start()
}

// Shutdown stops background loops, closes the store, and flushes logs.
func (c *Container) Shutdown(ctx context.Context) {
	c.Warmer.Stop()
	c.Analyzer.Stop()

	if err := c.Store.Close(); err != nil {
		c.Logger.Warn("closing cache store", zap.Error(err))
	}
	_ = c.Logger.Sync()
}

// ApplyConfig applies the hot-reloadable subset of a new configuration.
// Only per-class TTL overrides change at runtime; everything else needs a
// restart.
func (c *Container) ApplyConfig(cfg *config.Config) {
	c.Coordinator.ApplyTTLOverrides(ttlOverrides(cfg))
}

func ttlOverrides(cfg *config.Config) map[cache.Class]time.Duration {
	overrides := make(map[cache.Class]time.Duration, len(cfg.Cache.TTLOverrides))
	for name, ttl := range cfg.Cache.TTLOverrides {
		overrides[cache.Class(name)] = ttl.Std()
	}
	return overrides
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.IsDevelopment() {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	if cfg.Logging.Format == "console" {
		zc.Encoding = "console"
	} else {
		zc.Encoding = "json"
	}
	level, err := zap.ParseAtomicLevel(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Logging.Level, err)
	}
	zc.Level = level
	return zc.Build()
}

// newAlertSink builds the alert publisher, or a no-op sink when event
// publishing is disabled.
func newAlertSink(ctx context.Context, cfg *config.Config, logger *zap.Logger) (metrics.Sink, error) {
	if !cfg.Events.Enabled {
		return metrics.NopSink{}, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := awseventbridge.NewFromConfig(awsCfg)
	return eventbridge.NewAlertPublisher(client, cfg.Events.EventBusName, cfg.Events.Source, logger), nil
}
