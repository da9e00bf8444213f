package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/cmd/mainconfig"
	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/api/router"
	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/appointments"
	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/archive"
	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/clinic"
	appconfig "github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/config"
	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/conversation"
	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/gateway"
	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/holds"
	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/http/handlers"
	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/lease"
	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/notify"
	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/observability/metrics"
	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/quarantine"
	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/reminders"
	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/runlog"
	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/pkg/logging"
)

// redisOptions translates the lease configuration into client options, or nil
// when no Redis address is configured. REDIS_TLS switches the connection to
// TLS for managed endpoints (ElastiCache in-transit encryption).
func redisOptions(cfg *appconfig.Config) *redis.Options {
	if cfg.RedisAddr == "" {
		return nil
	}
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return opts
}

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting gendei lifecycle API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()
	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	loc, err := time.LoadLocation(cfg.DefaultTimezone)
	if err != nil {
		logger.Error("invalid default timezone, falling back to UTC", "timezone", cfg.DefaultTimezone, "error", err)
		loc = time.UTC
	}

	dynamoClient := dynamodb.NewFromConfig(awsCfg)
	apptStore := appointments.NewStore(dynamoClient, cfg.AppointmentsTable, logger)
	clinicStore := clinic.NewStore(dynamoClient, cfg.ClinicsTable, cfg.ClinicCredentialsTable, logger)
	resolver := conversation.NewResolver(dynamoClient, cfg.ConversationsTable, logger)
	syncer := conversation.NewSyncer(dynamoClient, cfg.ConversationsTable, resolver, logger)

	gatewayClient := gateway.NewClient(cfg.WhatsAppGatewayURL, cfg.ServiceSecret, logger)

	// Postgres is the operational sidecar (run ledger, quarantine). The jobs
	// degrade to log-only when it is absent.
	var (
		pgPool *pgxpool.Pool
		runsDB runlog.DB
		quarDB *sql.DB
	)
	if cfg.DatabaseURL != "" {
		pgPool, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open postgres pool", "error", err)
			os.Exit(1)
		}
		runsDB = pgPool

		quarDB, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open postgres for quarantine", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("DATABASE_URL not set, run ledger and quarantine disabled")
	}
	runStore := runlog.NewStore(runsDB, logger)
	quarStore := quarantine.NewStore(quarDB, logger)

	var redisClient *redis.Client
	if opts := redisOptions(cfg); opts != nil {
		redisClient = redis.NewClient(opts)
	} else {
		logger.Warn("REDIS_ADDR not set, send leases disabled")
	}
	leases := lease.New(redisClient, cfg.LeaseTTL, logger)

	jobMetrics := metrics.NewJobMetrics(nil)

	archiveStore := archive.NewStore(s3.NewFromConfig(awsCfg), cfg.ArchiveBucket, logger)

	var emailSender notify.EmailSender
	if cfg.SESFromEmail != "" {
		emailSender = notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger)
	} else if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sg != nil {
		emailSender = sg
	}
	notifier := notify.NewService(emailSender, clinicStore, logger)

	scanner := reminders.NewScanner(apptStore, quarStore, loc, logger)
	dispatcher := reminders.NewDispatcher(clinicStore, gatewayClient, apptStore, syncer, leases, clinic.DefaultTerminology(), loc, logger)
	reminderSvc := reminders.NewService(scanner, dispatcher, apptStore, runStore, jobMetrics, logger)

	committer := appointments.NewBatchCommitter(dynamoClient, cfg.BatchWriteLimit, logger)
	holdMonitor := holds.NewMonitor(apptStore, apptStore, committer, quarStore, syncer,
		archiveStore, notifier, runStore, jobMetrics, cfg.HoldDuration(), logger)

	jobsHandler := handlers.NewJobsHandler(reminderSvc, holdMonitor, logger)

	r := router.New(&router.Config{
		Logger:         logger,
		Jobs:           jobsHandler,
		ServiceSecret:  cfg.ServiceSecret,
		MetricsHandler: promhttp.Handler(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	if pgPool != nil {
		pgPool.Close()
	}
	if quarDB != nil {
		_ = quarDB.Close()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}

	logger.Info("server stopped")
}
