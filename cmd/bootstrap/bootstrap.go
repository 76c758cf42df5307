package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ayurveda-clinic-backend/config"
	deliveryHttp "ayurveda-clinic-backend/internal/delivery/http"
	"ayurveda-clinic-backend/internal/delivery/http/handler"
	"ayurveda-clinic-backend/internal/delivery/http/middleware"
	"ayurveda-clinic-backend/internal/infrastructure/cache"
	"ayurveda-clinic-backend/internal/infrastructure/database"
	"ayurveda-clinic-backend/internal/infrastructure/mail"
	"ayurveda-clinic-backend/internal/infrastructure/queue"
	"ayurveda-clinic-backend/internal/repository"
	"ayurveda-clinic-backend/internal/service"
	"ayurveda-clinic-backend/internal/usecase"
	"ayurveda-clinic-backend/internal/worker"
	"ayurveda-clinic-backend/pkg/jwt"
	"ayurveda-clinic-backend/pkg/validator"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	shutdownTimeout = 10 * time.Second
	sweepTimeout    = 5 * time.Minute
	emailTimeout    = 10 * time.Second
)

// App holds all dependencies for the application
type App struct {
	Config      *config.Config
	Log         *logrus.Logger
	Location    *time.Location
	DB          *gorm.DB
	RedisClient *redis.Client
	QueueClient *asynq.Client
	LockService *service.BookingLockService
	Reminders   usecase.ReminderUsecase
	Server      *http.Server
	Worker      *worker.Server
	Cron        *cron.Cron
}

// NewLogger configures the logrus logger shared by every layer.
func NewLogger(cfg config.AppConfig) *logrus.Logger {
	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

// New creates a new App instance with all dependencies initialized
func New(cfg *config.Config, log *logrus.Logger) (*App, error) {
	app := &App{Config: cfg, Log: log}

	loc, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", cfg.App.Timezone, err)
	}
	app.Location = loc

	// Initialize database
	db, err := database.NewPostgresConnection(cfg.DB, cfg.App.Timezone, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db

	// Initialize Redis
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	app.RedisClient = redisClient

	app.QueueClient = asynq.NewClient(queue.NewRedisClientOpt(cfg))
	app.LockService = service.NewBookingLockService(redisClient, log, cfg.DB.LockTimeout)

	app.initialize()
	return app, nil
}

// initialize wires repositories, usecases, the worker, the sweep schedule and the HTTP server.
func (app *App) initialize() {
	cfg, log, db := app.Config, app.Log, app.DB

	// Initialize repositories
	userRepo := repository.NewUserRepository(db, cfg.DB.StoreTimeout)
	appointmentRepo := repository.NewAppointmentRepository(db, cfg.DB.StoreTimeout, cfg.DB.LockTimeout)
	availabilityRepo := repository.NewDoctorAvailabilityRepository(db, cfg.DB.StoreTimeout)
	feedbackRepo := repository.NewFeedbackRepository(db, cfg.DB.StoreTimeout)
	notificationRepo := repository.NewNotificationRepository(db, cfg.DB.StoreTimeout)
	auditLogRepo := repository.NewAuditLogRepository(db, cfg.DB.StoreTimeout)

	// Initialize services
	jwtService := jwt.NewJWTService(cfg.JWT)
	tokenStore := cache.NewTokenStore(app.RedisClient)
	auditService := service.NewAuditService(log, auditLogRepo)
	emailService := service.NewEmailService(newEmailSender(cfg.Email, log), cfg.Email, app.Location, log)
	dispatcher := queue.NewDispatcher(app.QueueClient, log)

	// Initialize usecases
	authUsecase := usecase.NewAuthUsecase(log, userRepo, jwtService, tokenStore, auditService)
	appointmentUsecase := usecase.NewAppointmentUsecase(log, appointmentRepo, userRepo, app.LockService, dispatcher, auditService, app.Location)
	availabilityUsecase := usecase.NewAvailabilityUsecase(log, availabilityRepo, appointmentRepo, userRepo, auditService, app.Location)
	feedbackUsecase := usecase.NewFeedbackUsecase(log, feedbackRepo, appointmentRepo, auditService)
	notificationUsecase := usecase.NewNotificationUsecase(log, notificationRepo)
	auditLogUsecase := usecase.NewAuditLogUsecase(log, auditLogRepo)
	app.Reminders = usecase.NewReminderUsecase(log, appointmentRepo, userRepo, emailService, app.LockService)

	// Background worker for notifications and emails
	handlers := worker.NewHandlers(appointmentRepo, userRepo, notificationRepo, emailService, log)
	app.Worker = worker.NewServer(queue.NewRedisClientOpt(cfg), cfg.Queue.Concurrency, handlers, log)

	// Initialize handlers
	customValidator := validator.NewValidator()
	authHandler := handler.NewAuthHandler(authUsecase, customValidator)
	appointmentHandler := handler.NewAppointmentHandler(appointmentUsecase, customValidator)
	availabilityHandler := handler.NewAvailabilityHandler(availabilityUsecase, customValidator)
	feedbackHandler := handler.NewFeedbackHandler(feedbackUsecase, customValidator)
	notificationHandler := handler.NewNotificationHandler(notificationUsecase)
	auditLogHandler := handler.NewAuditLogHandler(auditLogUsecase)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService, tokenStore)
	corsMiddleware := middleware.NewCORSMiddleware(cfg.App.CORSOrigins...)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst, log)

	// Initialize router
	router := deliveryHttp.NewRouter(
		authHandler,
		appointmentHandler,
		availabilityHandler,
		feedbackHandler,
		notificationHandler,
		auditLogHandler,
		authMiddleware,
		corsMiddleware,
		rateLimiter,
	)

	app.Server = &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.App.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// newEmailSender uses EmailJS when configured and logs emails otherwise.
func newEmailSender(cfg config.EmailConfig, log *logrus.Logger) service.EmailSender {
	if !cfg.Enabled() {
		log.Warn("EmailJS is not configured, emails will only be logged")
		return mail.NewLogSender(log)
	}
	return mail.NewEmailJSSender(cfg, &http.Client{Timeout: emailTimeout}, log)
}

// RunSweep runs one reminder sweep at the current time.
func (app *App) RunSweep(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	_, err := app.Reminders.RunSweep(ctx, time.Now())
	return err
}

// scheduleSweep registers the reminder sweep on cron. Overlapping runs in one process are
// skipped; across processes the sweep bucket lock does the same.
func (app *App) scheduleSweep() error {
	c := cron.New(
		cron.WithLocation(app.Location),
		cron.WithLogger(cron.VerbosePrintfLogger(app.Log)),
		cron.WithChain(cron.Recover(cron.PrintfLogger(app.Log)), cron.SkipIfStillRunning(cron.PrintfLogger(app.Log))),
	)
	_, err := c.AddFunc(app.Config.Reminder.Cron, func() {
		if err := app.RunSweep(context.Background()); err != nil {
			app.Log.Warnf("Reminder sweep failed: %+v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid REMINDER_CRON %q: %w", app.Config.Reminder.Cron, err)
	}
	app.Cron = c
	return nil
}

// Run starts the worker, the reminder schedule and the HTTP server, then blocks
// until shutdown.
func (app *App) Run() error {
	if err := app.Worker.Start(); err != nil {
		return fmt.Errorf("failed to start worker: %w", err)
	}

	if err := app.scheduleSweep(); err != nil {
		return err
	}
	app.Cron.Start()
	app.Log.Infof("Reminder sweep scheduled: %s", app.Config.Reminder.Cron)

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		app.Log.Infof("Server starting on port %s", app.Config.App.Port)
		app.Log.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case <-quit:
	case err := <-serverErr:
		runErr = fmt.Errorf("server failed: %w", err)
	}

	app.shutdown()
	return runErr
}

func (app *App) shutdown() {
	app.Log.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Shutdown HTTP server gracefully
	if err := app.Server.Shutdown(ctx); err != nil {
		app.Log.Errorf("Server forced to shutdown: %v", err)
	}

	// let a running sweep finish
	if app.Cron != nil {
		select {
		case <-app.Cron.Stop().Done():
		case <-ctx.Done():
			app.Log.Warn("Reminder sweep still running at shutdown")
		}
	}
	app.Worker.Shutdown()

	app.Close()
	app.Log.Info("Server shutdown complete")
}

// Close closes all connections (database, redis, queue)
func (app *App) Close() {
	if app.LockService != nil {
		app.LockService.Stop()
	}

	if app.QueueClient != nil {
		if err := app.QueueClient.Close(); err != nil {
			app.Log.Warnf("Failed to close queue client: %v", err)
		}
	}

	// Close Redis connection
	if app.RedisClient != nil {
		if err := app.RedisClient.Close(); err != nil {
			app.Log.Warnf("Failed to close Redis: %v", err)
		}
	}

	// Close database connection
	if app.DB != nil {
		if sqlDB, err := app.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}
}
