package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	appsvc "taskbox/internal/app"
	"taskbox/internal/config"
	"taskbox/internal/platform/database"
	rabbitmqClient "taskbox/internal/platform/rabbitmq"
	redisClient "taskbox/internal/platform/redis"
	"taskbox/internal/repository"
	"taskbox/internal/session"
	"taskbox/internal/worker"
)

type App struct {
	Config *config.Config
	Logger *slog.Logger
	DB     *gorm.DB
	Redis  *redis.Client
	MQConn *amqp.Connection

	Sessions    session.Store
	Events      *rabbitmqClient.ItemEventPublisher
	EventQueue  *appsvc.AsyncEventPublisher
	EventWorker *worker.ItemEventWorker

	StartedAt time.Time
}

// New wires the HTTP server's dependencies. Redis is connected only for the
// redis session store and RabbitMQ only when the event feed is enabled.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{Config: cfg, Logger: logger, StartedAt: time.Now()}

	if err := app.openDatabase(ctx); err != nil {
		return nil, err
	}

	switch cfg.Session.Store {
	case "redis":
		redisCli, err := redisClient.New(ctx, cfg.Redis)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		app.Redis = redisCli
		app.Sessions = session.NewRedisStore(redisCli, cfg.SessionTTL())
	default:
		app.Sessions = session.NewMemoryStore(cfg.SessionTTL())
	}

	if cfg.EventsEnabled() {
		mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		app.MQConn = mqConn
		app.Events = rabbitmqClient.NewItemEventPublisher(mqConn, cfg.RabbitMQ.ItemEventQueue)
		app.EventQueue = appsvc.NewAsyncEventPublisher(app.Events, 0, 0, logger)
	}

	logger.Info("dependencies ready",
		"database", cfg.Database.Driver,
		"session_store", cfg.Session.Store,
		"events", cfg.EventsEnabled())
	return app, nil
}

// NewAuditWorker wires the database and broker for the item event consumer
// and starts it.
func NewAuditWorker(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if !cfg.EventsEnabled() {
		return nil, errors.New("rabbitmq.url is not configured")
	}

	app := &App{Config: cfg, Logger: logger, StartedAt: time.Now()}
	if err := app.openDatabase(ctx); err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.MQConn = mqConn

	eventRepo := repository.NewItemEventRepository(app.DB)
	app.EventWorker = worker.NewItemEventWorker(mqConn, eventRepo, cfg.RabbitMQ.ItemEventQueue, logger)
	if err := app.EventWorker.Start(ctx); err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("start item event worker failed: %w", err)
	}
	return app, nil
}

// OpenDatabase wires only the database, for commands that read or migrate it
// without serving traffic.
func OpenDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{Config: cfg, Logger: logger, StartedAt: time.Now()}
	if err := app.openDatabase(ctx); err != nil {
		return nil, err
	}
	return app, nil
}

// Migrate opens the configured database, applies the schema and closes it.
func Migrate(ctx context.Context, cfg *config.Config) error {
	app, err := OpenDatabase(ctx, cfg, slog.Default())
	if err != nil {
		return err
	}
	return app.Close()
}

func (a *App) openDatabase(ctx context.Context) error {
	cfg := a.Config

	dsn := cfg.MySQLDSN()
	if cfg.Database.Driver == database.DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.SQLitePath), 0o755); err != nil {
			return fmt.Errorf("create sqlite directory failed: %w", err)
		}
		dsn = database.SQLiteDSN(cfg.Database.SQLitePath)
	}

	db, err := database.Open(ctx, cfg.Database.Driver, dsn)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}
	a.DB = db
	return nil
}

func (a *App) Close() error {
	var closeErr error
	if a.EventWorker != nil {
		a.EventWorker.Close()
	}
	if a.EventQueue != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := a.EventQueue.Close(ctx)
		cancel()
		if err != nil {
			closeErr = fmt.Errorf("flush item events failed: %w", err)
		}
	}
	if a.Events != nil {
		if err := a.Events.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
