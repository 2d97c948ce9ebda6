package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/abhishek622/hiringpipeline/internal/cache"
	"github.com/abhishek622/hiringpipeline/internal/config"
	"github.com/abhishek622/hiringpipeline/internal/database"
	"github.com/abhishek622/hiringpipeline/internal/events"
	"github.com/abhishek622/hiringpipeline/internal/grading"
	"github.com/abhishek622/hiringpipeline/internal/handler"
	"github.com/abhishek622/hiringpipeline/internal/logger"
	"github.com/abhishek622/hiringpipeline/internal/panel"
	"github.com/abhishek622/hiringpipeline/internal/pipeline"
	"github.com/abhishek622/hiringpipeline/internal/profile"
	"github.com/abhishek622/hiringpipeline/internal/repository"
)

type application struct {
	DB        *pgxpool.Pool
	Redis     *redis.Client
	Publisher events.Publisher
	Logger    *zap.Logger
	Config    *config.Config
	Handler   *handler.Handler
}

func main() {
	ctx := context.Background()
	cfg := config.MustLoad()

	log, err := logger.NewLogger(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()
	log.Info("config loaded", zap.String("config", cfg.String()))

	pool, err := database.Connect(ctx, cfg.DB.DSN, database.Options{
		MaxConns:        cfg.DB.MaxOpenConns,
		MinConns:        cfg.DB.MinConns,
		MaxConnLifetime: cfg.DB.MaxConnLifetime,
		MaxConnIdleTime: cfg.DB.MaxIdleTime,
	})
	if err != nil {
		log.Fatal("connect database", zap.Error(err))
	}

	if err := database.Migrate(ctx, pool, log); err != nil {
		log.Fatal("migrate database", zap.Error(err))
	}

	repo := repository.NewRepository(pool)
	checks := map[string]handler.HealthCheck{
		"database": func(ctx context.Context) error { return database.Health(ctx, pool) },
	}

	var (
		rdb          *redis.Client
		profileCache profile.Cache
	)
	if cfg.Redis.Addr != "" {
		rdb = cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := cache.Ping(pingCtx, rdb)
		cancel()
		if err != nil {
			log.Fatal("connect redis", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		profileCache = cache.NewProfileCache(rdb, cfg.Redis.ProfileTTL)
		checks["redis"] = func(ctx context.Context) error { return cache.Ping(ctx, rdb) }
	} else {
		log.Info("redis not configured, profile cache disabled")
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQP.URL != "" {
		mq, err := events.NewRabbitMQ(cfg.RabbitMQ(), log)
		if err != nil {
			log.Fatal("connect rabbitmq", zap.Error(err))
		}
		publisher = mq
	} else {
		log.Info("amqp not configured, events are not published")
	}

	tracker := profile.NewTracker(repo, profileCache, cfg.ProfileSettings(), log.Named("profile"))
	pipelineSvc := pipeline.NewService(pipeline.Deps{
		Store:     repo,
		Grader:    grading.NewEngine(cfg.GradingPolicy()),
		Tracker:   tracker,
		Publisher: publisher,
		Policies:  cfg.StagePolicies(),
		Logger:    log.Named("pipeline"),
	})
	panelSvc := panel.NewService(tracker, repo, panel.NewBalancer(cfg.PanelSettings()), log.Named("panel"))

	app := &application{
		DB:        pool,
		Redis:     rdb,
		Publisher: publisher,
		Logger:    log,
		Config:    cfg,
		Handler: &handler.Handler{
			Logger:   log.Named("http"),
			Pipeline: pipelineSvc,
			Profiles: tracker,
			Panels:   panelSvc,
			Checks:   checks,
		},
	}

	if err := app.serve(); err != nil {
		log.Error("server exited", zap.Error(err))
	}
	app.close()
}

// close releases dependencies in reverse startup order once the server has drained.
func (app *application) close() {
	if err := app.Publisher.Close(); err != nil {
		app.Logger.Warn("close publisher", zap.Error(err))
	}
	if app.Redis != nil {
		if err := app.Redis.Close(); err != nil {
			app.Logger.Warn("close redis", zap.Error(err))
		}
	}
	app.DB.Close()
}
