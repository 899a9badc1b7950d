package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"live-poll-service/internal/app"
	"live-poll-service/internal/config"
	"live-poll-service/internal/infra/memory"
	pgstore "live-poll-service/internal/infra/postgres"
	redismirror "live-poll-service/internal/infra/redis"
	"live-poll-service/internal/realtime"
	transport "live-poll-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the poll server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}

	var store app.ResultStore = memory.NewResultStore(cfg.Archive.Capacity)
	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg.Postgres.URL, logger); err != nil {
			return err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		store = pgstore.NewResultStore(pool)
		logger.Info("result archive on postgres")
	}
	archiver := app.NewArchiver(store, cfg.Archive.Buffer, logger.Named("archive"))

	hub := realtime.NewHub(logger.Named("hub"))

	var mirror *redismirror.EventMirror
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, event mirror disabled", zap.Error(err))
		} else {
			mirror = redismirror.NewEventMirror(redisClient, cfg.Redis.Prefix,
				config.Duration(cfg.Redis.TTL, 10*time.Minute), 0, logger.Named("mirror"))
			logger.Info("event mirror enabled", zap.String("addr", cfg.Redis.Addr))
		}
	}

	sinks := []app.Broadcaster{hub}
	if mirror != nil {
		sinks = append(sinks, mirror)
	}
	coordinator := app.NewCoordinator(app.NewFanOut(sinks...),
		app.WithLogger(logger.Named("session")),
		app.WithArchive(archiver),
		app.WithDefaultTimeLimit(cfg.Session.DefaultTimeLimit),
	)

	if !strings.EqualFold(cfg.Log.Format, "console") {
		gin.SetMode(gin.ReleaseMode)
	}
	origins := config.SplitOrigins(cfg.Server.CORSAllowedOrigins)
	settings := realtime.Settings{
		SendBuffer:   cfg.Realtime.SendBuffer,
		PingInterval: config.Duration(cfg.Realtime.PingInterval, 30*time.Second),
		PongWait:     config.Duration(cfg.Realtime.PongWait, 60*time.Second),
		WriteWait:    config.Duration(cfg.Realtime.WriteWait, 10*time.Second),
		ReadLimit:    cfg.Realtime.ReadLimit,
	}
	router := transport.NewRouter(
		transport.NewAPIHandler(coordinator, archiver, logger),
		transport.NewWSHandler(coordinator, hub, settings, origins, logger.Named("ws")),
		transport.RouterConfig{Origins: origins, StaticDir: cfg.Server.StaticDir},
		logger,
	)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  config.Duration(cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout: config.Duration(cfg.Server.WriteTimeout, 15*time.Second),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting poll service", zap.String("port", finalPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error { return archiver.Run(gctx) })
	if mirror != nil {
		g.Go(func() error { return mirror.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
