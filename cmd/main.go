package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/sync/errgroup"

	"github.com/ukydev/opsboard/internal/auth"
	"github.com/ukydev/opsboard/internal/cache"
	"github.com/ukydev/opsboard/internal/config"
	"github.com/ukydev/opsboard/internal/db"
	"github.com/ukydev/opsboard/internal/events"
	"github.com/ukydev/opsboard/internal/handlers"
	"github.com/ukydev/opsboard/internal/jobs"
	"github.com/ukydev/opsboard/internal/middleware"
	"github.com/ukydev/opsboard/internal/models"
	"github.com/ukydev/opsboard/internal/realtime"
)

const (
	shutdownTimeout = 15 * time.Second
	sweepInterval   = time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	cfg.ConfigureLogging()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.WithError(err).Fatal("Server stopped")
	}
	log.Info("Server stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	client, err := db.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}
	defer client.Disconnect(context.Background())
	log.WithField("database", cfg.MongoDB).Info("Connected to MongoDB successfully!")

	database := client.Database(cfg.MongoDB)
	if err := db.EnsureIndexes(ctx, database); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	store := db.NewStore(database)

	var (
		redisClient *redis.Client
		locker      cache.Locker = cache.NewLocalLocker()
	)
	if cfg.RedisAddr != "" {
		if redisClient, err = cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer redisClient.Close()
		locker = cache.NewRedisLocker(redisClient)
		log.WithField("addr", cfg.RedisAddr).Info("Connected to Redis")
	} else {
		log.Warn("REDIS_ADDR not set, using in-process locks and no bank holiday cache")
	}
	bankHolidays := cache.NewBankHolidayCache(cmdable(redisClient), func(ctx context.Context) ([]models.BankHoliday, error) {
		return store.BankHolidays.FindBankHolidays(ctx, bson.M{})
	})

	hub := realtime.NewHub()
	defer hub.Close()
	listeners := events.Multi{hub}
	if cfg.MQTTBroker != "" {
		mqttPub, err := events.NewMQTTPublisher(cfg.MQTTBroker, cfg.MQTTClientID, cfg.MQTTTopicPrefix)
		if err != nil {
			return fmt.Errorf("connect mqtt: %w", err)
		}
		defer mqttPub.Close()
		listeners = append(listeners, mqttPub)
		log.WithField("broker", cfg.MQTTBroker).Info("Publishing events to MQTT")
	}

	checklist, err := config.LoadChecklist(cfg.ChecklistFile)
	if err != nil {
		return err
	}

	updates := apiPublisher(cfg, listeners)
	api := &handlers.API{
		Bookings:         store.Bookings,
		Employees:        store.Employees,
		Holidays:         store.Holidays,
		BankHolidays:     store.BankHolidays,
		Vehicles:         store.Vehicles,
		Maintenance:      store.Maintenance,
		Checks:           store.Checks,
		Defects:          store.Defects,
		Publisher:        updates,
		Locker:           locker,
		BankHolidayCache: bankHolidays,
		Checklist:        checklist,
		Location:         cfg.Location(),
		WindowDays:       cfg.ReminderWindowDays,
	}

	authService := auth.NewService(cfg.JWTSecret, cfg.JWTExpiry)
	authHandler := handlers.NewAuthHandler(authService, store.Users)
	authHandler.Locker = locker
	limiter := middleware.NewRateLimitMiddleware()
	router := handlers.NewRouter(handlers.RouterConfig{
		API:                api,
		Auth:               authHandler,
		AuthService:        authService,
		Stream:             hub,
		Limiter:            limiter,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Health: func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		},
	})

	scheduler := &jobs.Scheduler{
		Bookings:   store.Bookings,
		Vehicles:   store.Vehicles,
		Checks:     store.Checks,
		Publisher:  listeners,
		Updates:    updates,
		Location:   cfg.Location(),
		WindowDays: cfg.ReminderWindowDays,
	}
	if err := scheduler.Start(); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("port", cfg.Port).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("Shutting down")
		scheduler.Stop(shutdownCtx)
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		sweepLimiter(gctx, limiter, sweepInterval)
		return nil
	})
	if cfg.MongoChangeStreams {
		watcher := &db.Watcher{Database: database, Collections: db.WatchedCollections, Publisher: listeners}
		g.Go(func() error {
			if err := watcher.Run(gctx); err != nil && gctx.Err() == nil {
				log.WithError(err).Error("Change streams stopped, live updates are off")
			}
			return nil
		})
	}
	return g.Wait()
}

// apiPublisher decides who announces writes. With change streams on, the
// watcher does it and the handlers and jobs stay quiet so listeners see each
// change once. Reminders always go straight to listeners.
func apiPublisher(cfg *config.Config, listeners events.Publisher) events.Publisher {
	if cfg.MongoChangeStreams {
		return nil
	}
	return listeners
}

// cmdable keeps a nil client a nil interface.
func cmdable(c *redis.Client) redis.Cmdable {
	if c == nil {
		return nil
	}
	return c
}

func sweepLimiter(ctx context.Context, limiter *middleware.RateLimitMiddleware, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := limiter.Sweep(time.Minute); n > 0 {
				log.WithField("clients", n).Debug("rate limiter swept")
			}
		}
	}
}
