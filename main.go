package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"squadmatch/server/internal/config"
	"squadmatch/server/internal/database"
	"squadmatch/server/internal/handlers"
	"squadmatch/server/internal/logger"
	"squadmatch/server/internal/repository"
	"squadmatch/server/internal/repository/memory"
	"squadmatch/server/internal/repository/postgres"
	"squadmatch/server/internal/routes"
	"squadmatch/server/internal/service"
	"squadmatch/server/internal/storage"
	ws "squadmatch/server/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	log := logger.New(cfg)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	// svc is assigned below; the hub only calls back once connections arrive
	var svc *service.Services
	hubOpts := []ws.Option{
		ws.WithLogger(log),
		ws.WithRoomMembers(func(ctx context.Context, roomID, userID string) ([]string, error) {
			room, err := svc.Chats.RoomForMember(ctx, roomID, userID)
			if err != nil {
				return nil, err
			}
			return room.MemberIDs, nil
		}),
	}
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return err
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return err
		}
		log.Info("✅ Redis connected, realtime events fan out across instances")
		hubOpts = append(hubOpts, ws.WithRedis(rdb, ws.DefaultChannel))
	}
	hub := ws.NewHub(hubOpts...)

	hubCtx, cancelHub := context.WithCancel(ctx)
	defer cancelHub()
	go hub.Run(hubCtx)

	objects := storage.NewLocal(cfg.Uploads.Dir, cfg.Server.PublicBaseURL, cfg.Uploads.MaxBytes)
	svc = service.New(service.Deps{
		Store:         store,
		Objects:       objects,
		Notifier:      hub,
		Logger:        log,
		PublicBaseURL: cfg.Server.PublicBaseURL,
	})

	app := fiber.New(fiber.Config{
		AppName:   "Squadmatch API v1.0",
		BodyLimit: int(cfg.Uploads.MaxBytes) + 1024*1024,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowCredentials: true,
	}))

	routes.SetupRoutes(app, handlers.New(svc, objects, hub, cfg.Uploads.MaxBytes, log), []byte(cfg.JWT.Secret))

	errCh := make(chan error, 1)
	go func() {
		log.Info("🚀 Server starting", "port", cfg.Server.Port, "env", cfg.Server.Environment, "store", cfg.Store.Driver)
		errCh <- app.Listen(":" + cfg.Server.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	cancelHub()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

// openStore selects the persistence backend named by STORE
func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (repository.Store, func(), error) {
	if cfg.Store.Driver == config.StoreMemory {
		log.Warn("using in-memory store, data is lost on restart")
		return memory.New().Repositories(), func() {}, nil
	}

	pool, err := database.Connect(ctx, cfg.Store.DatabaseURL)
	if err != nil {
		return repository.Store{}, nil, err
	}
	if err := database.Migrate(ctx, pool); err != nil {
		pool.Close()
		return repository.Store{}, nil, err
	}
	log.Info("✅ Database connected")
	return postgres.NewStore(pool), pool.Close, nil
}
