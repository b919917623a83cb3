package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/expense-approval/internal"
	"github.com/frahmantamala/expense-approval/internal/analytics"
	analyticsPostgres "github.com/frahmantamala/expense-approval/internal/analytics/postgres"
	"github.com/frahmantamala/expense-approval/internal/approvalrule"
	approvalRulePostgres "github.com/frahmantamala/expense-approval/internal/approvalrule/postgres"
	"github.com/frahmantamala/expense-approval/internal/core/events"
	"github.com/frahmantamala/expense-approval/internal/database"
	"github.com/frahmantamala/expense-approval/internal/expense"
	expensePostgres "github.com/frahmantamala/expense-approval/internal/expense/postgres"
	"github.com/frahmantamala/expense-approval/internal/notify"
	"github.com/frahmantamala/expense-approval/internal/setting"
	settingPostgres "github.com/frahmantamala/expense-approval/internal/setting/postgres"
	"github.com/frahmantamala/expense-approval/internal/transport"
	"github.com/frahmantamala/expense-approval/internal/transport/middleware"
	"github.com/frahmantamala/expense-approval/internal/transport/rest"
	"github.com/frahmantamala/expense-approval/internal/transport/swagger"
	"github.com/frahmantamala/expense-approval/internal/user"
	userPostgres "github.com/frahmantamala/expense-approval/internal/user/postgres"
	"github.com/frahmantamala/expense-approval/pkg/logger"
	"github.com/go-chi/chi"
	"github.com/spf13/cobra"
	"github.com/ulule/limiter/v3"
)

var openAPIPath string

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

func init() {
	httpServerCmd.Flags().StringVar(&openAPIPath, "openapi", "api/openapi.yml", "OpenAPI document served at /openapi.yml")
}

type Dependencies struct {
	Config   *internal.Config
	DB       *database.DB
	Router   *chi.Mux
	EventBus *events.EventBus
	Notifier *notify.Client
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr, "driver", deps.Config.Database.Driver)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("Server failed to start", "error", err)
			deps.close()
			os.Exit(1)
		}
	}

	deps.close()
	deps.Logger.Info("Server stopped")
}

func (d *Dependencies) close() {
	if d.EventBus != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := d.EventBus.Drain(ctx); err != nil {
			d.Logger.Warn("event handlers still running at shutdown", "error", err)
		}
		cancel()
	}
	if d.Notifier != nil {
		if err := d.Notifier.Close(); err != nil {
			d.Logger.Error("AMQP close error", "error", err)
		}
	}
	if err := d.DB.Close(); err != nil {
		d.Logger.Error("Database close error", "error", err)
	}
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.LoggerWrapper()

	db, err := database.Open(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if config.Database.Driver == database.DriverSQLite {
		if err := database.AutoMigrate(db.Gorm); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to migrate sqlite schema: %w", err)
		}
	}

	deps := &Dependencies{
		Config: config,
		DB:     db,
		Router: chi.NewRouter(),
		Logger: log,
	}

	settingService := setting.NewService(settingPostgres.NewSettingRepository(db.Gorm), log)
	settings, err := settingService.Load(ctx)
	if err != nil {
		deps.close()
		return nil, fmt.Errorf("failed to load company settings: %w", err)
	}

	eventBus := events.NewEventBus(log)
	deps.EventBus = eventBus
	if config.Messaging.Enabled() {
		client, err := notify.NewClient(config.Messaging.AMQPURL, config.Messaging.Exchange, config.Messaging.Queue, log)
		if err != nil {
			deps.close()
			return nil, fmt.Errorf("failed to connect to message broker: %w", err)
		}
		deps.Notifier = client
		notify.NewForwarder(client, log).RegisterEventHandlers(eventBus)
	}

	var limiterInstance *limiter.Limiter
	if config.RateLimit.Enabled {
		limiterInstance, err = middleware.NewLimiter(config.RateLimit.Rate)
		if err != nil {
			deps.close()
			return nil, fmt.Errorf("invalid rate limit %q: %w", config.RateLimit.Rate, err)
		}
	}

	var doc *swagger.Document
	if openAPIPath != "" {
		doc, err = swagger.Load(ctx, openAPIPath)
		if err != nil {
			log.Warn("OpenAPI document unavailable, swagger UI disabled", "path", openAPIPath, "error", err)
		}
	}

	health := rest.NewHealthHandler(db.SQLX.DB, config.Database.Driver)
	if deps.Notifier != nil {
		health.WithCheck("amqp", deps.Notifier.Ping)
	}

	baseHandler := transport.NewBaseHandler(log)
	expenseService := expense.NewService(expensePostgres.NewExpenseRepository(db.Gorm), settings, eventBus, log)

	rest.RegisterAllRoutes(deps.Router, rest.Handlers{
		Expense:      expense.NewHandler(baseHandler, expenseService),
		Analytics:    analytics.NewHandler(baseHandler, analytics.NewService(analyticsPostgres.NewAnalyticsReader(db.SQLX), log)),
		User:         user.NewHandler(baseHandler, user.NewService(userPostgres.NewUserRepository(db.Gorm), log)),
		ApprovalRule: approvalrule.NewHandler(baseHandler, approvalrule.NewService(approvalRulePostgres.NewApprovalRuleRepository(db.Gorm), log)),
		Setting:      setting.NewHandler(baseHandler, settingService),
		Health:       health,
	}, rest.RouterOptions{
		Server:  config.Server,
		Metrics: config.Observability.Metrics,
		Limiter: limiterInstance,
		OpenAPI: doc,
		Logger:  log,
	})

	return deps, nil
}
