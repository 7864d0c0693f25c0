package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	_ "github.com/sbilibin2017/gw-notes/docs"
	"github.com/sbilibin2017/gw-notes/internal/handlers"
	"github.com/sbilibin2017/gw-notes/internal/images"
	"github.com/sbilibin2017/gw-notes/internal/jwt"
	"github.com/sbilibin2017/gw-notes/internal/logger"
	"github.com/sbilibin2017/gw-notes/internal/metrics"
	"github.com/sbilibin2017/gw-notes/internal/middlewares"
	"github.com/sbilibin2017/gw-notes/internal/migrations"
	"github.com/sbilibin2017/gw-notes/internal/repositories"
	"github.com/sbilibin2017/gw-notes/internal/services"
	"github.com/sbilibin2017/gw-notes/internal/views"

	_ "github.com/jackc/pgx/v5/stdlib"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Build info variables, set via ldflags at build time.
var (
	buildVersion = "N/A" // Version of the service
	buildDate    = "N/A" // Build date
	buildCommit  = "N/A" // Git commit hash
)

// config holds everything the service reads from the environment.
type config struct {
	// Application
	AppHost        string
	AppPort        string
	LogLevel       string
	LogDevelopment bool

	// PostgreSQL
	PGHost         string
	PGPort         int
	PGUser         string
	PGPassword     string
	PGDB           string
	PGMaxOpenConns int
	PGMaxIdleConns int

	// Redis
	RedisHost         string
	RedisPort         int
	RedisDB           int
	RedisPassword     string
	RedisPoolSize     int
	RedisMinIdleConns int

	// Kafka, disabled when no brokers are configured
	KafkaBrokers []string
	KafkaTopic   string

	// Sessions
	SessionSecretKey    string
	SessionTTL          time.Duration
	SessionRememberTTL  time.Duration
	SessionCookieSecure bool

	// Uploads
	UploadDir          string
	UploadMaxBytes     int64
	UploadMaxDimension int
	UploadMaxPixels    int
}

// dsn returns the PostgreSQL connection string.
func (c *config) dsn() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDB)
}

// @title gw-notes API
// @version 1.0.0
// @description Note taking service with image attachments
// @host localhost:8080
// @BasePath /
// @schemes http
// @securityDefinitions.apikey SessionCookie
// @in cookie
// @name session
func main() {
	printBuildInfo()
	configPath := parseFlags()

	cfg, err := parseConfig(configPath)
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	if err := run(context.Background(), cfg); err != nil {
		log.Fatalf("application stopped with error: %v", err)
	}
}

// printBuildInfo prints the build version, commit hash, and build date.
func printBuildInfo() {
	fmt.Printf("Starting service version %s, commit %s, build %s\n", buildVersion, buildCommit, buildDate)
}

// parseFlags parses command-line flags and returns the config file path.
func parseFlags() string {
	c := flag.String("c", "config.env", "Path to configuration file")
	flag.Parse()
	return *c
}

// parseConfig loads environment variables from a file and returns
// the application, database, Redis, Kafka, session and upload configuration.
func parseConfig(path string) (*config, error) {
	_ = godotenv.Load(path)

	getEnv := func(key, defaultValue string) string {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			return val
		}
		return defaultValue
	}

	var (
		cfg config
		err error
	)

	// Application config
	cfg.AppHost = getEnv("APP_HOST", "localhost")
	cfg.AppPort = getEnv("APP_PORT", "8080")
	cfg.LogLevel = getEnv("APP_LOG_LEVEL", "info")
	if cfg.LogDevelopment, err = strconv.ParseBool(getEnv("APP_LOG_DEVELOPMENT", "false")); err != nil {
		return nil, fmt.Errorf("APP_LOG_DEVELOPMENT: %w", err)
	}

	// PostgreSQL config
	cfg.PGHost = getEnv("POSTGRES_HOST", "localhost")
	cfg.PGUser = getEnv("POSTGRES_USER", "user")
	cfg.PGPassword = getEnv("POSTGRES_PASSWORD", "password")
	cfg.PGDB = getEnv("POSTGRES_DB", "database")
	if cfg.PGPort, err = strconv.Atoi(getEnv("POSTGRES_PORT", "5432")); err != nil {
		return nil, fmt.Errorf("POSTGRES_PORT: %w", err)
	}
	if cfg.PGMaxOpenConns, err = strconv.Atoi(getEnv("POSTGRES_MAX_OPEN_CONNS", "16")); err != nil {
		return nil, fmt.Errorf("POSTGRES_MAX_OPEN_CONNS: %w", err)
	}
	if cfg.PGMaxIdleConns, err = strconv.Atoi(getEnv("POSTGRES_MAX_IDLE_CONNS", "8")); err != nil {
		return nil, fmt.Errorf("POSTGRES_MAX_IDLE_CONNS: %w", err)
	}

	// Redis config
	cfg.RedisHost = getEnv("REDIS_HOST", "localhost")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	if cfg.RedisPort, err = strconv.Atoi(getEnv("REDIS_PORT", "6379")); err != nil {
		return nil, fmt.Errorf("REDIS_PORT: %w", err)
	}
	if cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0")); err != nil {
		return nil, fmt.Errorf("REDIS_DB: %w", err)
	}
	if cfg.RedisPoolSize, err = strconv.Atoi(getEnv("REDIS_POOL_SIZE", "10")); err != nil {
		return nil, fmt.Errorf("REDIS_POOL_SIZE: %w", err)
	}
	if cfg.RedisMinIdleConns, err = strconv.Atoi(getEnv("REDIS_MIN_IDLE_CONNS", "2")); err != nil {
		return nil, fmt.Errorf("REDIS_MIN_IDLE_CONNS: %w", err)
	}

	// Kafka config
	cfg.KafkaBrokers = splitList(getEnv("KAFKA_BROKERS", ""))
	cfg.KafkaTopic = getEnv("KAFKA_TOPIC", "notes.events")

	// Session config
	cfg.SessionSecretKey = getEnv("SESSION_SECRET_KEY", "my_super_secret_key")
	ttl, err := strconv.Atoi(getEnv("SESSION_TTL_SECOND", "1800"))
	if err != nil {
		return nil, fmt.Errorf("SESSION_TTL_SECOND: %w", err)
	}
	cfg.SessionTTL = time.Duration(ttl) * time.Second
	rememberTTL, err := strconv.Atoi(getEnv("SESSION_REMEMBER_TTL_SECOND", "2592000"))
	if err != nil {
		return nil, fmt.Errorf("SESSION_REMEMBER_TTL_SECOND: %w", err)
	}
	cfg.SessionRememberTTL = time.Duration(rememberTTL) * time.Second
	if cfg.SessionCookieSecure, err = strconv.ParseBool(getEnv("SESSION_COOKIE_SECURE", "false")); err != nil {
		return nil, fmt.Errorf("SESSION_COOKIE_SECURE: %w", err)
	}

	// Upload config
	cfg.UploadDir = getEnv("UPLOAD_DIR", "uploads")
	if cfg.UploadMaxBytes, err = strconv.ParseInt(getEnv("UPLOAD_MAX_BYTES", strconv.FormatInt(handlers.DefaultMaxUploadBytes, 10)), 10, 64); err != nil {
		return nil, fmt.Errorf("UPLOAD_MAX_BYTES: %w", err)
	}
	if cfg.UploadMaxDimension, err = strconv.Atoi(getEnv("UPLOAD_MAX_DIMENSION", strconv.Itoa(images.DefaultMaxSize))); err != nil {
		return nil, fmt.Errorf("UPLOAD_MAX_DIMENSION: %w", err)
	}
	if cfg.UploadMaxPixels, err = strconv.Atoi(getEnv("UPLOAD_MAX_PIXELS", strconv.Itoa(images.DefaultMaxPixels))); err != nil {
		return nil, fmt.Errorf("UPLOAD_MAX_PIXELS: %w", err)
	}

	return &cfg, nil
}

// splitList splits a comma separated value, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// run initializes the logger, database, Redis, Kafka writer and HTTP server.
// It sets up routes, applies middleware, and handles graceful shutdown.
func run(ctx context.Context, cfg *config) error {
	// Initialize logger
	if err := logger.Initialize(cfg.LogLevel, cfg.LogDevelopment); err != nil {
		fmt.Println("failed to initialize logger:", err)
		return err
	}
	defer logger.Log.Sync()
	logger.Log.Infow("logger initialized", "level", cfg.LogLevel)

	// Connect to PostgreSQL
	logger.Log.Infow("connecting to PostgreSQL", "host", cfg.PGHost, "port", cfg.PGPort, "db", cfg.PGDB)
	db, err := sqlx.ConnectContext(ctx, "pgx", cfg.dsn())
	if err != nil {
		return fmt.Errorf("postgres connection error: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.PGMaxOpenConns)
	db.SetMaxIdleConns(cfg.PGMaxIdleConns)
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}

	if err := migrations.Up(cfg.dsn()); err != nil {
		return err
	}

	// Connect to Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		PoolSize:     cfg.RedisPoolSize,
		MinIdleConns: cfg.RedisMinIdleConns,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection error: %w", err)
	}
	defer rdb.Close()

	// Kafka writer for note events
	var kafkaWriter services.KafkaWriter
	if len(cfg.KafkaBrokers) > 0 {
		w := &kafka.Writer{
			Addr:                   kafka.TCP(cfg.KafkaBrokers...),
			Topic:                  cfg.KafkaTopic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		}
		defer func() {
			if err := w.Close(); err != nil {
				logger.Log.Errorw("failed to close kafka writer", "error", err)
			}
		}()
		kafkaWriter = w
		logger.Log.Infow("note events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Log.Infow("note events disabled, KAFKA_BROKERS is empty")
	}

	// Initialize JWT sessions
	sessions := jwt.New(
		jwt.WithSecretKey(cfg.SessionSecretKey),
		jwt.WithExpiration(cfg.SessionTTL),
		jwt.WithRememberExpiration(cfg.SessionRememberTTL),
		jwt.WithSecureCookie(cfg.SessionCookieSecure),
	)

	// Initialize image storage
	imageStorage, err := images.New(cfg.UploadDir,
		images.WithMaxSize(cfg.UploadMaxDimension),
		images.WithMaxPixels(cfg.UploadMaxPixels),
	)
	if err != nil {
		return err
	}
	logger.Log.Infow("image storage ready", "dir", imageStorage.Dir(),
		"max_dimension", cfg.UploadMaxDimension, "max_pixels", cfg.UploadMaxPixels)

	m := metrics.New()

	// Initialize repositories
	userReadRepo := repositories.NewUserReadRepository(db, middlewares.GetTxFromContext)
	userWriteRepo := repositories.NewUserWriteRepository(db, middlewares.GetTxFromContext)
	noteReadRepo := repositories.NewNoteReadRepository(db, middlewares.GetTxFromContext)
	noteWriteRepo := repositories.NewNoteWriteRepository(db, middlewares.GetTxFromContext)
	sessionRepo := repositories.NewSessionRepository(rdb)

	// Initialize services
	authService := services.NewAuthService(userReadRepo, userWriteRepo, sessions, sessionRepo)
	noteService := services.NewNoteService(noteReadRepo, noteWriteRepo, imageStorage, kafkaWriter, m)

	renderer, err := views.New()
	if err != nil {
		return err
	}

	// Initialize handlers
	indexHandler := handlers.NewIndexHandler(renderer)
	notFoundHandler := handlers.NewNotFoundHandler(renderer)
	registerPageHandler := handlers.NewRegisterPageHandler(renderer)
	registerHandler := handlers.NewRegisterHandler(authService, renderer)
	loginPageHandler := handlers.NewLoginPageHandler(renderer)
	loginHandler := handlers.NewLoginHandler(authService, sessions, renderer)
	logoutHandler := handlers.NewLogoutHandler(authService, sessions)
	notesPageHandler := handlers.NewNotesPageHandler(noteService, renderer)
	addNoteHandler := handlers.NewAddNoteHandler(noteService, cfg.UploadMaxBytes)
	getNoteHandler := handlers.NewGetNoteHandler(noteService)
	editNoteHandler := handlers.NewEditNoteHandler(noteService, cfg.UploadMaxBytes)
	deleteNoteHandler := handlers.NewDeleteNoteHandler(noteService)
	uploadsHandler := handlers.NewUploadsHandler(imageStorage, notFoundHandler)

	// Setup router
	r := chi.NewRouter()
	r.Use(middlewares.LoggingMiddleware)
	r.Use(chimiddleware.Recoverer)
	r.Use(middlewares.MetricsMiddleware(m))
	r.NotFound(notFoundHandler)

	r.Handle("/metrics", m.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://%s:%s/swagger/doc.json", cfg.AppHost, cfg.AppPort)),
	))

	r.Group(func(r chi.Router) {
		r.Use(middlewares.SessionMiddleware(sessions, sessionRepo, userReadRepo))

		// Images are read from disk only
		r.With(middlewares.RequireLogin).Get("/uploads/{name}", uploadsHandler)

		r.Group(func(r chi.Router) {
			r.Use(middlewares.TxMiddleware(db))

			// Public routes
			r.Get("/", indexHandler)
			r.Get("/register", registerPageHandler)
			r.Post("/register", registerHandler)
			r.Get("/login", loginPageHandler)
			r.Post("/login", loginHandler)

			// Pages
			r.Group(func(r chi.Router) {
				r.Use(middlewares.RequireLogin)
				r.Get("/logout", logoutHandler)
				r.Get("/notes", notesPageHandler)
			})

			// JSON API
			r.Group(func(r chi.Router) {
				r.Use(middlewares.RequireLoginJSON)
				r.Post("/add_note", addNoteHandler)
				r.Get("/get_note/{id}", getNoteHandler)
				r.Post("/edit_note/{id}", editNoteHandler)
				r.Post("/delete_note/{id}", deleteNoteHandler)
			})
		})
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.AppHost, cfg.AppPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	errChan := make(chan error, 1)
	ctxShutdown, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	go func() {
		logger.Log.Infof("HTTP server listening on %s:%s", cfg.AppHost, cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	select {
	case <-ctxShutdown.Done():
		logger.Log.Info("Shutdown signal received, stopping HTTP server...")
	case serveErr := <-errChan:
		return serveErr
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorw("HTTP server shutdown error", "error", err)
	}

	logger.Log.Info("HTTP server stopped gracefully")
	return nil
}
