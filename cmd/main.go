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

	"github.com/leogoca00/hangar-sprc/internal/auth"
	"github.com/leogoca00/hangar-sprc/internal/config"
	"github.com/leogoca00/hangar-sprc/internal/db"
	"github.com/leogoca00/hangar-sprc/internal/handlers"
	"github.com/leogoca00/hangar-sprc/internal/hangar"
	"github.com/leogoca00/hangar-sprc/internal/middleware"
	"github.com/leogoca00/hangar-sprc/internal/notify"
	"github.com/leogoca00/hangar-sprc/internal/scheduler"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := cfg.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Fatal("Hangar API stopped")
	}
}

// backend holds the collaborators selected by the persistence mode.
type backend struct {
	opts    []hangar.Option
	users   db.UserCollection
	cleanup func(context.Context)
}

func openBackend(ctx context.Context, cfg *config.Config, logger *log.Logger) (*backend, error) {
	if cfg.App.Persistence != config.PersistenceMongo {
		logger.Info("Using in-memory persistence")
		return &backend{users: db.NewMemoryUserCollection(), cleanup: func(context.Context) {}}, nil
	}

	client, err := db.ConnectMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Timeout)
	if err != nil {
		return nil, err
	}
	database := client.Database(cfg.Mongo.Database)
	if err := db.EnsureIndexes(ctx, database); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	logger.WithFields(log.Fields{
		"database":     cfg.Mongo.Database,
		"transactions": cfg.Mongo.Transactions,
	}).Info("Connected to MongoDB")

	repo := db.NewRepository(client, cfg.Mongo.Database, cfg.Mongo.Transactions)
	return &backend{
		opts:  []hangar.Option{hangar.WithPersister(repo), hangar.WithSource(repo)},
		users: &db.MongoUserCollection{Collection: database.Collection(db.UsersCollection)},
		cleanup: func(ctx context.Context) {
			if err := client.Disconnect(ctx); err != nil {
				logger.WithError(err).Warn("MongoDB disconnect failed")
			}
		},
	}, nil
}

// connectNotifier joins the change feed when a broker is configured.
func connectNotifier(cfg *config.Config, logger *log.Logger) (*notify.Notifier, func(), error) {
	if cfg.MQTT.Broker == "" {
		return nil, func() {}, nil
	}
	client, origin, err := notify.Connect(cfg.MQTT.Broker, cfg.MQTT.ClientID, 10*time.Second)
	if err != nil {
		return nil, nil, err
	}
	logger.WithFields(log.Fields{"broker": cfg.MQTT.Broker, "origin": origin}).Info("Connected to MQTT broker")
	return notify.New(client, cfg.MQTT.Topic, origin, logger), func() { client.Disconnect(250) }, nil
}

// newRouter wires routes and the middleware chain around the store.
func newRouter(cfg *config.Config, logger *log.Logger, store *hangar.Store, users db.UserCollection) http.Handler {
	authService := auth.NewService(cfg.JWT.Secret, cfg.JWT.Expiry)
	authMiddleware := middleware.NewAuthMiddleware(authService)

	mux := http.NewServeMux()
	handlers.Register(mux, authMiddleware,
		handlers.NewHangarHandler(store, logger),
		handlers.NewAuthHandler(authService, users),
	)

	limiter := middleware.NewRateLimitMiddleware(cfg.RateLimit.TrustedProxies...)
	var h http.Handler = mux
	h = authMiddleware.Authenticate(h)
	h = limiter.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window)(h)
	return middleware.RequestLogger(logger)(h)
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("timezone %q: %w", cfg.App.Timezone, err)
	}

	be, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer be.cleanup(context.Background())

	notifier, disconnect, err := connectNotifier(cfg, logger)
	if err != nil {
		return err
	}
	defer disconnect()

	opts := append([]hangar.Option{hangar.WithLogger(logger)}, be.opts...)
	if notifier != nil {
		opts = append(opts, hangar.WithPublisher(notifier))
	}
	store := hangar.NewStore(hangar.SystemClock{Loc: loc}, opts...)
	if err := store.Init(ctx); err != nil {
		return fmt.Errorf("load records: %w", err)
	}
	if cfg.App.SeedFleet {
		n, err := store.SeedFleet(ctx)
		if err != nil {
			return fmt.Errorf("seed fleet: %w", err)
		}
		if n > 0 {
			logger.WithField("vehicles", n).Info("Seeded default fleet")
		}
	}
	if notifier != nil {
		if err := notifier.Subscribe(store); err != nil {
			return err
		}
	}

	sched := scheduler.New(store, loc, cfg.App.ReportDir, logger)
	if err := sched.Register(cfg.Cron.DelaySweep, cfg.Cron.DailyReport); err != nil {
		return err
	}
	sched.Start()

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           newRouter(cfg, logger, store, be.users),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("port", cfg.App.Port).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		logger.Info("Shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	sched.Stop(shutdownCtx)
	return srv.Shutdown(shutdownCtx)
}
