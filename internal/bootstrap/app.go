package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"slidedeck/internal/app"
	"slidedeck/internal/cache"
	"slidedeck/internal/config"
	"slidedeck/internal/ingest"
	"slidedeck/internal/parser"
	"slidedeck/internal/pkg/logger"
	mysqlClient "slidedeck/internal/platform/mysql"
	rabbitmqClient "slidedeck/internal/platform/rabbitmq"
	redisClient "slidedeck/internal/platform/redis"
	"slidedeck/internal/repository"
	"slidedeck/internal/storage"
	"slidedeck/internal/transport/http/handler"
	"slidedeck/internal/worker"
)

type App struct {
	Config *config.Config
	Log    *logrus.Logger
	MySQL  *gorm.DB
	Redis  *redis.Client

	Repository *repository.DocumentRepository
	Cache      *cache.DocumentCache
	Files      *storage.Store
	Publisher  *rabbitmqClient.DocumentPublisher
	Processor  *ingest.Processor
	Documents  *app.DocumentService

	MQConn         *amqp.Connection
	DocumentWorker *worker.DocumentProcessWorker

	StartedAt time.Time
}

// New wires every component except the queue consumer. MySQL must be
// reachable; Redis and RabbitMQ outages are tolerated and only logged.
func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN(), mysqlClient.PoolOptions{
		MaxIdleConns: cfg.MySQL.MaxIdleConns,
		MaxOpenConns: cfg.MySQL.MaxOpenConns,
	}, log)
	if err != nil {
		return nil, err
	}
	repo := repository.NewDocumentRepository(mysqlDB)
	if err := repo.Migrate(ctx); err != nil {
		return nil, err
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	documentCache := cache.NewDocumentCache(redisCli, cfg.DocumentTTL())
	if err != nil {
		log.WithError(err).Warn("redis unavailable, document reads will bypass the cache")
		documentCache.MarkUnavailable()
	}

	files, err := storage.New(cfg.Storage.UploadDir, cfg.Storage.MaxUploadBytes)
	if err != nil {
		return nil, err
	}

	publisher := rabbitmqClient.NewDocumentPublisher(cfg.RabbitMQ.URL, topology(cfg), cfg.DialTimeout(), log)
	processor := ingest.NewProcessor(parser.DefaultDispatcher(), repo, files, log)
	pipeline := ingest.NewPipeline(publisher, processor, files, log, cfg.PublishTimeout())
	validator := ingest.NewValidator(cfg.Storage.MaxUploadBytes, cfg.Storage.StrictPDF)
	documents := app.NewDocumentService(repo, documentCache, files, validator, pipeline, log)

	return &App{
		Config:     cfg,
		Log:        log,
		MySQL:      mysqlDB,
		Redis:      redisCli,
		Repository: repo,
		Cache:      documentCache,
		Files:      files,
		Publisher:  publisher,
		Processor:  processor,
		Documents:  documents,
		StartedAt:  time.Now(),
	}, nil
}

// StartWorker connects a dedicated consumer connection and starts the pool.
func (a *App) StartWorker(ctx context.Context) error {
	if a.DocumentWorker != nil {
		return nil
	}
	conn, err := rabbitmqClient.New(ctx, a.Config.RabbitMQ.URL, a.Config.DialTimeout())
	if err != nil {
		return err
	}

	w := worker.NewDocumentProcessWorker(conn, a.Processor, worker.Options{
		Topology:       topology(a.Config),
		Concurrency:    a.Config.Worker.Concurrency,
		Prefetch:       a.Config.Worker.Prefetch,
		ProcessTimeout: a.Config.ProcessTimeout(),
	}, a.Log)
	if err := w.Start(ctx); err != nil {
		_ = conn.Close()
		return fmt.Errorf("start document worker failed: %w", err)
	}

	a.MQConn = conn
	a.DocumentWorker = w
	return nil
}

func (a *App) DependencyChecks() []handler.DependencyCheck {
	return []handler.DependencyCheck{
		{Name: "mysql", Check: a.Repository.Ping},
		{Name: "redis", Check: a.Cache.Ping},
		{Name: "rabbitmq", Optional: true, Check: func(context.Context) error {
			if !a.Publisher.Connected() {
				return errors.New("publisher not connected, uploads are processed inline")
			}
			return nil
		}},
	}
}

func (a *App) Close() error {
	var closeErr error
	if a.DocumentWorker != nil {
		a.DocumentWorker.Close()
	}
	if a.MQConn != nil && !a.MQConn.IsClosed() {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}

func topology(cfg *config.Config) rabbitmqClient.Topology {
	return rabbitmqClient.Topology{
		Queue:           cfg.RabbitMQ.Queue,
		DeadLetterQueue: cfg.RabbitMQ.DeadLetterQueue,
	}
}
