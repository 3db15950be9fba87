package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"gorm.io/gorm"

	"github.com/Skotchmaster/pineapple_admin/internal/audit"
	"github.com/Skotchmaster/pineapple_admin/internal/config"
	"github.com/Skotchmaster/pineapple_admin/internal/es"
	"github.com/Skotchmaster/pineapple_admin/internal/handlers"
	"github.com/Skotchmaster/pineapple_admin/internal/middleware/auth"
	"github.com/Skotchmaster/pineapple_admin/internal/middleware/csrf"
	"github.com/Skotchmaster/pineapple_admin/internal/mykafka"
	"github.com/Skotchmaster/pineapple_admin/internal/service"
	"github.com/Skotchmaster/pineapple_admin/internal/session"
	httpserver "github.com/Skotchmaster/pineapple_admin/internal/transport/http"
	"github.com/Skotchmaster/pineapple_admin/internal/web"
	"github.com/Skotchmaster/pineapple_admin/pkg/apiclient"
	"github.com/Skotchmaster/pineapple_admin/pkg/db"
	"github.com/Skotchmaster/pineapple_admin/pkg/logging"
	loggingmw "github.com/Skotchmaster/pineapple_admin/pkg/middleware/logging"
	tracingmw "github.com/Skotchmaster/pineapple_admin/pkg/middleware/tracing"
)

type closer struct {
	name string
	fn   func() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	initCtx, cancelInit := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInit()

	var closers []closer

	sealer, err := session.NewSealer(cfg.SessionSecret)
	if err != nil {
		log.Fatal(err)
	}

	store, ready, closeStore, err := openStore(initCtx, cfg, sealer)
	if err != nil {
		log.Fatalf("Ошибка инициализации хранилища сессий: %v", err)
	}
	closers = append(closers, closeStore)

	var publishers []audit.Publisher
	var activity service.ActivitySource
	if len(cfg.KafkaBrokers) > 0 {
		prod := mykafka.NewProducer(cfg.KafkaBrokers, cfg.AuditTopic)
		publishers = append(publishers, prod)
		closers = append(closers, closer{"kafka", prod.Close})
	}
	if cfg.ESURL != "" {
		esClient, err := es.NewClient(es.Config{URL: cfg.ESURL, User: cfg.ESUser, Password: cfg.ESPassword})
		if err != nil {
			log.Fatal(err)
		}
		if err := es.Ping(initCtx, esClient); err != nil {
			logger.Warn("elasticsearch unavailable, activity feed disabled until it answers", "error", err)
		}
		idx := &es.Indexer{Client: esClient, Index: cfg.AuditIndex}
		publishers = append(publishers, idx)
		activity = idx
	}
	var pub audit.Publisher = audit.Nop{}
	if len(publishers) > 0 {
		pub = audit.Multi(publishers)
	}

	api := apiclient.NewClient(cfg.APIURL,
		apiclient.WithTimeout(cfg.APITimeout),
		apiclient.WithListener(auth.Listener),
	)

	renderer, err := web.NewRenderer()
	if err != nil {
		log.Fatal(err)
	}

	guard := &auth.Guard{Store: store, Secret: cfg.SessionSecret, Secure: cfg.CookieSecure}
	csrfCfg := csrf.DefaultConfig()
	csrfCfg.Secure = cfg.CookieSecure

	deps := httpserver.Deps{
		Renderer:       renderer,
		Guard:          guard,
		AuthHandler:    &handlers.AuthHandler{Auth: service.NewAuthService(api, store, pub), Guard: guard},
		DashHandler:    &handlers.DashboardHandler{Dashboard: service.NewDashboardService(api, store, activity)},
		ProductHandler: &handlers.ProductHandler{Products: service.NewProductService(api, store, pub)},
		CSRF:           &csrfCfg,
		Ready:          ready,
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(tracingmw.Middleware("pineapple-admin"))
	e.Use(loggingmw.RequestLogger(logger))

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.APITimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("http server listening", "addr", srv.Addr, "api", cfg.APIURL, "session_backend", cfg.SessionBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit

	go func() {
		<-quit
		logger.Warn("force exit")
		os.Exit(1)
	}()

	logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	for _, c := range closers {
		if err := c.fn(); err != nil {
			logger.Error("close error", "component", c.name, "error", err)
		}
	}
	if err := tp.Shutdown(ctx); err != nil {
		logger.Error("tracer shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}

func openStore(ctx context.Context, cfg *config.Config, sealer *session.Sealer) (session.Store, func(context.Context) error, closer, error) {
	switch cfg.SessionBackend {
	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, closer{}, err
		}
		ready := func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		return &session.RedisStore{Client: rdb, Sealer: sealer}, ready, closer{"redis", rdb.Close}, nil
	default:
		var (
			gdb *gorm.DB
			err error
		)
		if cfg.SessionBackend == config.BackendSQLite {
			gdb, err = db.OpenSQLite(ctx, cfg.SQLitePath)
		} else {
			gdb, err = db.Open(ctx, cfg.DatabaseURL)
		}
		if err != nil {
			return nil, nil, closer{}, err
		}
		if err := session.Migrate(gdb); err != nil {
			return nil, nil, closer{}, err
		}
		closeDB := func() error {
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		}
		ready := func(ctx context.Context) error { return db.Ping(ctx, gdb) }
		return &session.GormStore{DB: gdb, Sealer: sealer}, ready, closer{"db", closeDB}, nil
	}
}
