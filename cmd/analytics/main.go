package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/wyfcoding/merchantmetrics/internal/analytics/application"
	"github.com/wyfcoding/merchantmetrics/internal/analytics/domain"
	"github.com/wyfcoding/merchantmetrics/internal/analytics/infrastructure/messaging"
	"github.com/wyfcoding/merchantmetrics/internal/analytics/infrastructure/persistence/mysql"
	redisrepo "github.com/wyfcoding/merchantmetrics/internal/analytics/infrastructure/persistence/redis"
	"github.com/wyfcoding/merchantmetrics/internal/analytics/interfaces/consumer"
	httpserver "github.com/wyfcoding/merchantmetrics/internal/analytics/interfaces/http"
	"github.com/wyfcoding/merchantmetrics/pkg/cache"
	"github.com/wyfcoding/merchantmetrics/pkg/config"
	"github.com/wyfcoding/merchantmetrics/pkg/db"
	"github.com/wyfcoding/merchantmetrics/pkg/logger"
	"github.com/wyfcoding/merchantmetrics/pkg/metrics"
	"github.com/wyfcoding/merchantmetrics/pkg/middleware"
	"github.com/wyfcoding/merchantmetrics/pkg/mq"
	"github.com/wyfcoding/merchantmetrics/pkg/ratelimit"
	"github.com/wyfcoding/merchantmetrics/pkg/utils"
)

var configPath = flag.String("config", "configs/analytics/config.toml", "config file path")

func main() {
	flag.Parse()

	// 1. 初始化配置
	cfg, err := config.LoadWithDefaults(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 2. 初始化日志
	if err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}); err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}
	log := logger.Get()
	slog.SetDefault(log)

	// 3. 初始化指标
	metricsImpl := metrics.New(cfg.ServiceName)
	if err := metricsImpl.Register(); err != nil {
		slog.Error("failed to register metrics", "error", err)
		os.Exit(1)
	}
	if cfg.Metrics.Enabled {
		_ = metrics.StartHTTPServer(cfg.Metrics.Port, cfg.Metrics.Path)
	}
	collector := metrics.NewDefaultMetricsCollector(metricsImpl)

	// 4. 初始化基础设施
	database, err := db.Init(db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		slog.Error("failed to connect database", "error", err)
		os.Exit(1)
	}

	// Auto Migrate (仅用于开发方便)
	if cfg.Environment == "dev" {
		if err := database.AutoMigrate(
			&mysql.TransactionModel{},
			&mysql.BusinessMetricsModel{},
			&mysql.FinancingOfferModel{},
			&mysql.LoanApplicationModel{},
		); err != nil {
			slog.Error("failed to migrate database", "error", err)
		}
	}

	// Redis 不可用时降级为无缓存运行
	var snapCache domain.SnapshotCache
	redisCache, err := cache.New(cache.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxPoolSize:  cfg.Redis.MaxPoolSize,
		ConnTimeout:  cfg.Redis.ConnTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		slog.Warn("redis unavailable, running without snapshot cache", "error", err)
	} else {
		snapCache = redisrepo.NewSnapshotCache(redisCache, time.Minute)
	}

	// Kafka 未配置时降级为无事件运行
	kafkaCfg := mq.KafkaConfig{
		Brokers:        cfg.Kafka.Brokers,
		GroupID:        cfg.Kafka.GroupID,
		SessionTimeout: cfg.Kafka.SessionTimeout,
		MaxRetries:     cfg.Kafka.MaxRetries,
		RetryBackoff:   cfg.Kafka.RetryBackoff,
	}
	var publisher domain.EventPublisher
	var producer *mq.KafkaProducer
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = mq.NewProducer(kafkaCfg)
		if err != nil {
			slog.Error("failed to init kafka producer", "error", err)
			os.Exit(1)
		}
		defer producer.Close()
		publisher = messaging.NewSnapshotPublisher(producer, cfg.Kafka.SnapshotTopic)
	}

	// 5. 初始化仓储
	txStore := mysql.NewTransactionRepository(database.DB)
	snapshotRepo := mysql.NewSnapshotRepository(database.DB)
	financingRepo := mysql.NewFinancingRepository(database.DB)

	// 6. 初始化应用服务
	idGen := utils.NewSnowflakeID(1)
	svc := application.NewMetricsService(
		txStore,
		snapshotRepo,
		financingRepo,
		publisher,
		snapCache,
		idGen,
		log,
		application.Options{
			WindowDays:          cfg.Analytics.WindowDays,
			TrendLookbackDays:   cfg.Analytics.TrendLookbackDays,
			CreditLookbackDays:  cfg.Analytics.CreditLookbackDays,
			PublishMaxRetries:   cfg.Kafka.MaxRetries,
			PublishRetryBackoff: time.Duration(cfg.Kafka.RetryBackoff) * time.Millisecond,
		},
	)
	backfill := application.NewBackfillJob(
		snapshotRepo,
		collector,
		time.Duration(cfg.Analytics.BackfillInterval)*time.Second,
		log,
	)

	// 7. 初始化接口层
	gin.SetMode(gin.ReleaseMode)
	if cfg.Environment == "dev" {
		gin.SetMode(gin.DebugMode)
	}
	r := gin.New()
	r.Use(middleware.GinRecoveryMiddleware())
	r.Use(middleware.GinLoggingMiddleware())
	r.Use(middleware.GinCORSMiddleware())
	if cfg.RateLimit.Enabled && redisCache != nil {
		limiter := ratelimit.NewRedisRateLimiter(redisCache.GetClient())
		r.Use(middleware.RateLimitMiddleware(limiter, cfg.RateLimit))
	}

	r.GET("/sys/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": cfg.ServiceName})
	})

	handler := httpserver.NewAnalyticsHandler(svc, collector)
	handler.RegisterRoutes(r.Group(""))

	// 8. 启动服务
	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(rootCtx)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}
	g.Go(func() error {
		slog.Info("HTTP server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	// 补算作业
	g.Go(func() error {
		backfill.Start(ctx)
		return nil
	})

	// 同步事件消费者
	if len(cfg.Kafka.Brokers) > 0 {
		syncConsumer, err := mq.NewConsumer(kafkaCfg, cfg.Kafka.SyncTopic)
		if err != nil {
			slog.Error("failed to init kafka consumer", "error", err)
			os.Exit(1)
		}
		syncHandler := consumer.NewSyncEventHandler(svc, log)
		g.Go(func() error {
			defer syncConsumer.Close()
			if err := syncHandler.Start(ctx, syncConsumer); err != nil && err != context.Canceled {
				return err
			}
			return nil
		})
	}

	// 9. 优雅关闭
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
			slog.Info("shutting down servers...")
		case <-ctx.Done():
			slog.Info("context cancelled, shutting down...")
		}
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server exited with error", "error", err)
	}
}
