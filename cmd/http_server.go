package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/frahmantamala/expense-tracker/internal"
	"github.com/frahmantamala/expense-tracker/internal/core/events"
	"github.com/frahmantamala/expense-tracker/internal/core/events/amqp"
	"github.com/frahmantamala/expense-tracker/internal/transport/rest"
	"github.com/frahmantamala/expense-tracker/pkg/logger"
	"github.com/frahmantamala/expense-tracker/pkg/tracing"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const shutdownTimeout = 30 * time.Second

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startHTTPServer(cmd.Context())
	},
}

type Dependencies struct {
	Config *internal.Config
	SQL    *sqlx.DB
	Gorm   *gorm.DB
	Bus    *events.EventBus
	AMQP   *amqp.Client
	Logger *slog.Logger
}

func startHTTPServer(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := initializeDependencies()
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer deps.close()

	closer, err := tracing.Init(tracing.Config{
		Enabled:      deps.Config.Observability.Tracing.Enabled,
		ServiceName:  deps.Config.Observability.Tracing.ServiceName,
		SamplingRate: deps.Config.Observability.Tracing.SamplingRate,
		CollectorURL: deps.Config.Observability.Tracing.JaegerURL,
	}, deps.Logger)
	if err != nil {
		return err
	}
	defer closer.Close()

	metricsPath := ""
	if deps.Config.Observability.Metrics.Enabled {
		metricsPath = deps.Config.Observability.Metrics.Path
	}

	router, err := rest.NewAPI(rest.APIOptions{
		SQL:            deps.SQL,
		Gorm:           deps.Gorm,
		Security:       deps.Config.Security,
		Publisher:      deps.Bus,
		Logger:         deps.Logger,
		AllowedOrigins: splitOrigins(deps.Config.Server.AllowedOrigins),
		MetricsPath:    metricsPath,
	})
	if err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		deps.Logger.Info("starting HTTP server", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		deps.Logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	deps.Bus.Wait()
	deps.Logger.Info("server stopped")
	return err
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Configure(logger.Options{
		Format: config.Observability.Logging.Format,
		Level:  config.Observability.Logging.Level,
	})
	log := logger.L()

	sqlDB, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := openGorm(config.Database.Driver, sqlDB)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	deps := &Dependencies{
		Config: config,
		SQL:    sqlDB,
		Gorm:   gormDB,
		Bus:    events.NewEventBus(log),
		Logger: log,
	}

	if config.Events.Enabled() {
		client, err := amqp.NewClient(config.Events.AMQPURL, config.Events.Exchange, config.Events.Queue, log)
		if err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("failed to connect to broker: %w", err)
		}
		client.Register(deps.Bus)
		deps.AMQP = client
	}

	return deps, nil
}

func (d *Dependencies) close() {
	if d.AMQP != nil {
		if err := d.AMQP.Close(); err != nil {
			d.Logger.Error("amqp close error", "error", err)
		}
	}
	if err := d.SQL.Close(); err != nil {
		d.Logger.Error("database close error", "error", err)
	}
}

// initDB opens the configured database and verifies the connection.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	driver := sqlDriverName(cfg.Driver)

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	if cfg.Driver == "sqlite" {
		// sqlite allows a single writer
		dbConn.SetMaxOpenConns(1)
	}

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// openGorm layers gorm on top of the already open pool.
func openGorm(driver string, db *sqlx.DB) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Dialector{Conn: db.DB}
	default:
		dialector = postgres.New(postgres.Config{Conn: db.DB})
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}
	return gdb, nil
}

func sqlDriverName(driver string) string {
	if driver == "sqlite" {
		return "sqlite3"
	}
	return "pgx"
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
