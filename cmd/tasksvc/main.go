package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mkrupp/tasktracker/internal/infra/config"
	"github.com/mkrupp/tasktracker/internal/infra/database"
	"github.com/mkrupp/tasktracker/internal/infra/logging"
	http_ "github.com/mkrupp/tasktracker/internal/infra/transport/http"
	"github.com/mkrupp/tasktracker/internal/repo/task"
	"github.com/mkrupp/tasktracker/internal/repo/user"
	"github.com/mkrupp/tasktracker/internal/svc/authsvc"
	"github.com/mkrupp/tasktracker/internal/svc/healthsvc"
	"github.com/mkrupp/tasktracker/internal/svc/tasksvc"
)

const (
	appName = "app"
	svcName = "tasksvc"
)

var loggerName = strings.ToLower(strings.Join([]string{appName, svcName}, "."))

type Config struct {
	config.EnvConfig

	Log  logging.LoggerConfig      `envPrefix:"LOG_"`
	Auth authsvc.AuthConfig        `envPrefix:"AUTH_"`
	DB   database.Config           `envPrefix:"DB_"`
	HTTP http_.HTTPTransportConfig `envPrefix:"HTTP_"`
}

func main() {
	var (
		cfg Config
		ctx = context.Background()

		configPrefix = strings.ToUpper(strings.Join([]string{appName, svcName}, "_"))
	)

	if err := config.Parse(ctx, &cfg, configPrefix); err != nil {
		fmt.Fprintf(os.Stderr, "parse config: %v\n", err)
		os.Exit(1)
	}

	logging.Configure(ctx, cfg.Log, loggerName)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config) (err error) {
	log := logging.GetLogger("cmd.tasksvc")

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "error", "err", err)

			return
		}

		log.InfoContext(ctx, "shutdown")
	}()

	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	authSvc, err := authsvc.NewAuthService(user.SQLUserRepositoryFactory(db), cfg.Auth)
	if err != nil {
		return fmt.Errorf("new auth service: %w", err)
	}

	taskSvc, err := tasksvc.NewRepoTaskService(task.SQLTaskRepositoryFactory(db), user.SQLUserRepositoryFactory(db))
	if err != nil {
		return fmt.Errorf("new task service: %w", err)
	}

	metrics := http_.NewMetrics(strings.ReplaceAll(loggerName, ".", "_"))

	taskTransport := tasksvc.NewHTTPTransport(taskSvc, authSvc)
	healthTransport := healthsvc.NewHTTPTransport(db)

	mux := http.NewServeMux()
	mux.Handle("/api/auth/", authsvc.NewHTTPTransport(authSvc))
	mux.Handle("/api/tasks", taskTransport)
	mux.Handle("/api/tasks/", taskTransport)
	mux.Handle("GET /health", healthTransport)
	mux.Handle("GET /ready", healthTransport)
	mux.Handle("GET /metrics", metrics.Handler())

	if err := http_.ListenAndServe(ctx, mux, metrics, cfg.HTTP); err != nil {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}
