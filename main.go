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

	"wedding-rsvp/internal/auth"
	"wedding-rsvp/internal/auth/auth_api"
	authdb "wedding-rsvp/internal/auth/db"
	"wedding-rsvp/internal/config"
	"wedding-rsvp/internal/database"
	"wedding-rsvp/internal/database/migrations"
	"wedding-rsvp/internal/kafka"
	"wedding-rsvp/internal/logger"
	"wedding-rsvp/internal/metrics"
	"wedding-rsvp/internal/mongodb"
	"wedding-rsvp/internal/notify"
	"wedding-rsvp/internal/reservation"
	reservationdb "wedding-rsvp/internal/reservation/db"
	"wedding-rsvp/internal/reservation/qr"
	"wedding-rsvp/internal/reservation/reservation_api"
	"wedding-rsvp/internal/settings"
	settingsdb "wedding-rsvp/internal/settings/db"
	"wedding-rsvp/internal/settings/settings_api"
	"wedding-rsvp/internal/sse"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
)

// stores are the persistence handles chosen by DB_DRIVER.
type stores struct {
	reservations reservation.Store
	settings     settings.Store
	admins       auth.AdminStore
	close        func()
}

func openStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (*stores, error) {
	switch cfg.Database.Driver {
	case config.DriverMongo:
		client, db, err := mongodb.Connect(ctx, cfg.Mongo, log)
		if err != nil {
			return nil, err
		}
		return &stores{
			reservations: mongodb.NewReservationStore(db),
			settings:     mongodb.NewSettingsStore(db),
			admins:       mongodb.NewAdminStore(db),
			close: func() {
				if err := client.Disconnect(context.Background()); err != nil {
					log.Warn("DATABASE", fmt.Sprintf("MongoDB disconnect: %v", err))
				}
			},
		}, nil

	case config.DriverPostgres:
		bunDB, err := database.OpenPostgres(ctx, cfg.Database, log)
		if err != nil {
			return nil, err
		}
		if cfg.Database.AutoMigrate {
			// The runner shares bunDB, so it is not closed here.
			runner := migrations.NewRunner(bunDB, migrations.Options{MigrationsDir: cfg.Database.MigrationsDir}, log)
			if err := runner.Up(); err != nil {
				bunDB.Close()
				return nil, fmt.Errorf("apply migrations: %w", err)
			}
		}
		return &stores{
			reservations: reservationdb.New(bunDB),
			settings:     settingsdb.New(bunDB),
			admins:       authdb.New(bunDB),
			close:        func() { bunDB.Close() },
		}, nil
	}
	return nil, fmt.Errorf("unknown DB_DRIVER %q (expected %s or %s)", cfg.Database.Driver, config.DriverMongo, config.DriverPostgres)
}

// connectRedis returns nil when Redis is disabled or unreachable; the login
// throttle is then off.
func connectRedis(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) *redis.Client {
	if !cfg.Enabled {
		log.Info("REDIS", "Redis disabled, login throttling is off")
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("REDIS", fmt.Sprintf("Redis unreachable at %s, login throttling is off: %v", cfg.Addr, err))
		client.Close()
		return nil
	}
	log.Info("REDIS", fmt.Sprintf("✅ Redis connection successful to %s", cfg.Addr))
	return client
}

// startEvents wires submission fan-out. With Kafka every instance consumes
// the topic into its own emitter; without it the service emits locally.
func startEvents(ctx context.Context, cfg config.KafkaConfig, emitter *sse.SubmissionEmitter, log *logger.Logger) (reservation.EventPublisher, func()) {
	if !cfg.Enabled {
		log.Info("KAFKA", "Kafka disabled, submissions are streamed from this instance only")
		return emitter, func() {}
	}

	topic := cfg.Topics.Submissions
	if err := kafka.EnsureTopicsExist(cfg.Brokers, []string{topic}, log); err != nil {
		log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	}

	producer := kafka.NewProducer(cfg.Brokers, topic, log)

	groupID := cfg.GroupID
	if host, err := os.Hostname(); err == nil {
		groupID += "-" + host
	}
	consumer := kafka.NewConsumer(cfg.Brokers, topic, groupID, log)
	go consumer.Start(ctx, emitter.Emit)

	return producer, func() {
		if err := producer.Close(); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Producer close: %v", err))
		}
		if err := consumer.Close(); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Consumer close: %v", err))
		}
	}
}

func newAuthenticator(cfg config.AuthConfig, admins auth.AdminStore, log *logger.Logger) auth.Authenticator {
	if cfg.Source == config.AuthSourceStore {
		log.Info("AUTH", "Admin login checks stored admin users")
		return auth.StoreCredentials{Store: admins}
	}
	log.Info("AUTH", "Admin login checks ADMIN_USERNAME/ADMIN_PASSWORD")
	return auth.StaticCredentials{Username: cfg.AdminUsername, Password: cfg.AdminPassword}
}

func newMailer(cfg config.EmailConfig, log *logger.Logger) reservation.Mailer {
	if cfg.APIKey == "" {
		log.Warn("EMAIL", "RESEND_API_KEY not set, confirmation emails are disabled")
		return notify.NopMailer{Logger: log}
	}
	return notify.NewResendMailer(cfg.APIKey, cfg.From, cfg.OperatorAddress, log)
}

// newRouter builds the middleware stack plus the health and metrics endpoints.
// Client addresses come from forwarding headers only when the deployment
// sits behind a proxy that sets them.
func newRouter(cfg config.ServerConfig, log *logger.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if cfg.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Recoverer)
	r.Use(log.AccessLog)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Total-Count", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())
	return r
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println(".env file not found, using environment variables")
	}
	cfg := config.Load()

	log := logger.NewLogger(cfg.App.LogDir)
	defer log.Close()
	log.SetLevel(logger.ParseLevel(cfg.App.LogLevel))
	log.Info("APP", "Starting wedding RSVP service")

	if cfg.Auth.JWTSecret == config.DefaultJWTSecret {
		log.Warn("CONFIG", "JWT_SECRET is the default value, set it before deploying")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer st.close()

	redisClient := connectRedis(ctx, cfg.Redis, log)
	if redisClient != nil {
		defer redisClient.Close()
	}

	emitter := sse.NewSubmissionEmitter()
	publisher, closeEvents := startEvents(ctx, cfg.Kafka, emitter, log)
	defer closeEvents()

	reservationService := reservation.NewService(st.reservations, publisher, newMailer(cfg.Email, log), log)
	settingsService := settings.NewService(st.settings, log)
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	authHandler := &auth_api.Handler{
		Auth:         newAuthenticator(cfg.Auth, st.admins, log),
		Tokens:       tokens,
		Limiter:      auth.NewLoginLimiter(redisClient, cfg.Redis.LoginMaxAttempts, cfg.Redis.LoginWindow),
		CookieName:   cfg.Auth.CookieName,
		CookieSecure: cfg.Auth.CookieSecure,
		Logger:       log,
	}
	reservationHandler := reservation_api.NewHandler(
		reservationService,
		qr.NewGenerator(cfg.App.PublicBaseURL),
		&sse.StreamHandler{Emitter: emitter, Logger: log},
		log,
	)
	settingsHandler := settings_api.NewHandler(settingsService, log)

	log.Info("HTTP", "Setting up router and middleware")
	r := newRouter(cfg.Server, log)

	r.Route("/api", func(r chi.Router) {
		// --- Public Routes ---
		r.Route("/reservations", reservationHandler.RegisterPublicRoutes)
		r.Get("/invitation", settingsHandler.GetInvitation)
		r.Route("/admin", authHandler.RegisterRoutes)

		// --- Protected Routes ---
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(tokens, cfg.Auth.CookieName, log))
			reservationHandler.RegisterAdminRoutes(r)
			r.Get("/settings", settingsHandler.GetSettings)
			r.Post("/settings", settingsHandler.CreateSettings)
			r.Put("/settings", settingsHandler.UpdateSettings)
		})
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Wedding RSVP service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	<-ctx.Done()
	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "✅ Wedding RSVP service shutdown complete")
	}
}
