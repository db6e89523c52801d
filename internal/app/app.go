package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/yanasan/todo-api/internal/config"
	"github.com/yanasan/todo-api/internal/database"
	"github.com/yanasan/todo-api/internal/handler"
	"github.com/yanasan/todo-api/internal/logger"
	"github.com/yanasan/todo-api/internal/metrics"
	"github.com/yanasan/todo-api/internal/middleware"
	"github.com/yanasan/todo-api/internal/password"
	"github.com/yanasan/todo-api/internal/repository"
	"github.com/yanasan/todo-api/internal/router"
	"github.com/yanasan/todo-api/internal/service"
	"github.com/yanasan/todo-api/internal/token"
)

type App struct {
	server       *http.Server
	cleanupFuncs []func()
}

type stores struct {
	users service.CredentialStore
	todos service.TodoStore
	db    *database.DB
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	slog.SetDefault(logger.New(os.Stdout, cfg.LogLevel, cfg.LogFormat))

	st, err := openStores(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	appRouter, err := buildRouter(cfg, st)
	if err != nil {
		if st.db != nil {
			st.db.Close()
		}
		return nil, err
	}

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	a := &App{server: server}
	if st.db != nil {
		a.cleanupFuncs = append(a.cleanupFuncs, st.db.Close)
	}
	return a, nil
}

func openStores(ctx context.Context, cfg *config.Config) (stores, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		slog.Warn("using in-memory store, data is lost on restart")
		return stores{
			users: repository.NewMemoryUserRepository(),
			todos: repository.NewMemoryTodoRepository(),
		}, nil
	}

	slog.Info("running database migrations")
	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return stores{}, fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.Open(ctx, database.Options{
		URL:             cfg.DatabaseURL,
		ApplicationName: cfg.ProjectName,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
	})
	if err != nil {
		return stores{}, fmt.Errorf("failed to connect to database: %w", err)
	}
	slog.Info("database ready")

	return stores{
		users: repository.NewUserRepository(db.Pool),
		todos: repository.NewTodoRepository(db.Pool),
		db:    db,
	}, nil
}

func buildRouter(cfg *config.Config, st stores) (http.Handler, error) {
	codec, err := token.NewCodec(cfg.SecretKey, cfg.Algorithm, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token codec: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	authService, err := service.NewAuthService(service.AuthConfig{
		AccessTTL:  cfg.AccessTTL(),
		RefreshTTL: cfg.RefreshTTL(),
	}, codec, st.users, password.NewBcrypt(cfg.BcryptCost), collector)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize auth service: %w", err)
	}
	todoService := service.NewTodoService(st.todos)

	systemHandler := handler.NewSystemHandler(cfg.ProjectName, cfg.Version, nil)
	if st.db != nil {
		systemHandler = handler.NewSystemHandler(cfg.ProjectName, cfg.Version, st.db)
	}

	return router.New(cfg, middleware.NewAuthMiddleware(authService), collector, router.Handlers{
		System:  systemHandler,
		Auth:    handler.NewAuthHandler(authService),
		Todo:    handler.NewTodoHandler(todoService),
		Metrics: metrics.Handler(registry),
	}), nil
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	slog.Info("server stopped")
	return nil
}
