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

	"go.uber.org/zap"

	"jobtrail/internal/api"
	"jobtrail/internal/common/auth"
	notify "jobtrail/internal/common/aws"
	"jobtrail/internal/common/camunda"
	"jobtrail/internal/common/config"
	"jobtrail/internal/common/database"
	"jobtrail/internal/common/logger"
	"jobtrail/internal/common/observability"
	"jobtrail/internal/service"
	"jobtrail/internal/store"

	car "jobtrail/internal/workers/application/create-application-record"
	sfr "jobtrail/internal/workers/followup/send-follow-up-reminders"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "console").Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting jobtrail...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name, nil)
	defer obs.Shutdown()

	ctx := context.Background()
	location, _ := cfg.App.Location()

	// --- Data access facade ---
	var st store.Store
	var pg *database.PostgresClient
	switch cfg.Database.Driver {
	case config.DriverMemory:
		zapLog.Warn("using in-memory store, data is lost on restart")
		st = store.NewMemoryStore()
	default:
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		zapLog.Info("PostgreSQL connected successfully")

		pgStore := store.NewPostgresStore(pg.DB)
		if cfg.Database.MigrateOnStart {
			if err := pgStore.Migrate(ctx); err != nil {
				zapLog.Fatal("migrations failed", zap.Error(err))
			}
		}
		st = pgStore
	}

	// --- Redis with retry ---
	rc := database.NewRedis(cfg.Database.Redis)
	err = retryWithBackoff(func() error {
		return rc.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rc.Close()
	zapLog.Info("Redis connected successfully")

	// --- Services ---
	sessions := auth.NewSessionStore(rc.Client, config.GetDuration(cfg.Auth.SessionTTL))
	authn := auth.NewAuthenticator(st, sessions, cfg.Auth.BcryptCost, log)
	tracker := service.New(service.Config{
		Location:    location,
		SettingsTTL: config.GetDuration(cfg.Cache.SettingsTTL),
	}, st, rc.Client, log)

	srv := api.NewServer(api.Config{
		SessionKey:   []byte(cfg.Server.SessionKey),
		CookieName:   cfg.Server.CookieName,
		SecureCookie: cfg.Server.SecureCookie,
		SessionTTL:   config.GetDuration(cfg.Auth.SessionTTL),
	}, tracker, authn, obs, tracker.Ping, log)

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      srv,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}
	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Workflow workers ---
	var zeebe *camunda.Client
	var workers []*camunda.CamundaWorker
	if cfg.Camunda.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClientWithConfig(ctx, camunda.ConfigFrom(cfg.Camunda))
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		zapLog.Info("Zeebe client connected successfully")
		workers = startWorkers(ctx, cfg, zeebe, st, tracker, obs, log)
	} else {
		zapLog.Info("Camunda disabled, workflow workers not started")
	}

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http server shutdown failed", zap.Error(err))
	}

	for _, w := range workers {
		w.Stop()
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("zeebe client close failed", zap.Error(err))
		}
	}

	zapLog.Info("jobtrail stopped")
}

func startWorkers(ctx context.Context, cfg *config.Config, zeebe *camunda.Client, st store.Store, tracker *service.Service, obs *observability.Observability, log logger.Logger) []*camunda.CamundaWorker {
	var started []*camunda.CamundaWorker
	add := func(w *camunda.CamundaWorker) {
		if w != nil {
			started = append(started, w)
		}
	}

	carCfg := config.GetWorkerConfig(cfg, car.TaskType)
	add(camunda.StartWorker(zeebe.GetClient(), car.TaskType, carCfg,
		car.NewHandler(car.LoadConfig(carCfg), tracker, obs, log), log))

	sfrCfg := config.GetWorkerConfig(cfg, sfr.TaskType)
	if sfrCfg.Enabled {
		var email notify.EmailSender
		var sms notify.SMSPublisher
		region := cfg.Notifications.AWS.Region
		if cfg.Notifications.Email.Enabled {
			client, err := notify.NewSESClient(ctx, region)
			if err != nil {
				log.Error("SES client unavailable, reminder emails disabled", map[string]interface{}{"error": err.Error()})
			} else {
				email = client
			}
		}
		if cfg.Notifications.SMS.Enabled {
			client, err := notify.NewSNSClient(ctx, region)
			if err != nil {
				log.Error("SNS client unavailable, reminder SMS disabled", map[string]interface{}{"error": err.Error()})
			} else {
				sms = client
			}
		}
		handler := sfr.NewHandler(sfr.LoadConfig(sfrCfg, cfg.Notifications), st, email, sms, tracker.Today, obs, log)
		add(camunda.StartWorker(zeebe.GetClient(), sfr.TaskType, sfrCfg, handler, log))
	}

	return started
}
