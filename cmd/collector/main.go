package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"airfare-collector/internal/domain/entity"
	"airfare-collector/internal/domain/reference"
	"airfare-collector/internal/domain/repository"
	"airfare-collector/internal/infrastructure/config"
	"airfare-collector/internal/infrastructure/oauth"
	"airfare-collector/internal/infrastructure/persistence"
	"airfare-collector/internal/interface/gmail"
	"airfare-collector/internal/interface/portal"
	repo "airfare-collector/internal/interface/repository"
	"airfare-collector/internal/usecase"
	"airfare-collector/pkg/logger"
	"airfare-collector/pkg/metrics"
	"airfare-collector/pkg/utils"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

const usage = `Usage: airfare-collector <command> [flags]

Commands:
  run      fetch a date range and push it through every stage
  collect  fetch a date range and store the raw responses only
  ingest   reprocess stored raw responses
  version  print the version
`

func main() {
	os.Exit(run(os.Args[1:]))
}

// commandFlags are the flags shared by every command
type commandFlags struct {
	start       string
	end         string
	flatFile    string
	scrapedFrom string
	scrapedTo   string
}

func parseFlags(command string, args []string) (commandFlags, error) {
	var f commandFlags
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	fs.StringVar(&f.flatFile, "flat-file", "", "merged dataset file (.csv or .xlsx)")
	switch command {
	case "run", "collect":
		fs.StringVar(&f.start, "start", "", "first departure date, YYYYMMDD")
		fs.StringVar(&f.end, "end", "", "last departure date, YYYYMMDD")
	case "ingest":
		fs.StringVar(&f.scrapedFrom, "scraped-from", "", "first scrape date, YYYYMMDD or YYYY-MM-DD")
		fs.StringVar(&f.scrapedTo, "scraped-to", "", "last scrape date, YYYYMMDD or YYYY-MM-DD")
	}
	if err := fs.Parse(args); err != nil {
		return f, err
	}
	if fs.NArg() > 0 {
		return f, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return f, nil
}

func run(args []string) int {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return exitUsage
	}
	command := args[0]
	switch command {
	case "run", "collect", "ingest", "version":
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", command, usage)
		return exitUsage
	}

	flags, err := parseFlags(command, args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		return exitError
	}
	if command == "version" {
		fmt.Println(cfg.AppVersion)
		return exitOK
	}

	// Create logger
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}
	log := logger.NewLogger(logger.Options{Level: level, File: cfg.LogFile})
	defer log.Sync()
	log.Info("Starting Airfare Collector", "command", command, "version", cfg.AppVersion)

	// Validate arguments before any connection is made
	var dateRange entity.DateRange
	var filter entity.RawFilter
	switch command {
	case "run", "collect":
		dateRange, err = entity.ParseDateRange(flags.start, flags.end)
		if err != nil {
			log.Error("Invalid date range", "error", err)
			return exitUsage
		}
	case "ingest":
		filter, err = parseRawFilter(flags.scrapedFrom, flags.scrapedTo)
		if err != nil {
			log.Error("Invalid scrape date filter", "error", err)
			return exitUsage
		}
	}

	// Cancel on interrupt so the scheduler stops dispatching
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.NewMetrics("airfare")
	if cfg.MetricsAddr != "" {
		server := startMetricsServer(cfg.MetricsAddr, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Error("HTTP server shutdown error", "error", err)
			}
		}()
	}

	tables := reference.Default()

	// Set up raw response storage
	var rawStore repository.RawResponseRepository
	switch cfg.RawStore {
	case "mongo":
		log.Info("Connecting to MongoDB")
		mongoClient, db, err := persistence.NewMongoClient(ctx, persistence.MongoOptions{
			URI:         cfg.MongoURI,
			Database:    cfg.MongoDB,
			Username:    cfg.MongoUser,
			Password:    cfg.MongoPassword,
			MaxPoolSize: uint64(max(cfg.MaxConnsPerHost, 0)),
		})
		if err != nil {
			log.Error("Failed to connect to MongoDB", "error", err)
			return exitError
		}
		defer disconnectMongo(mongoClient, log)
		rawStore = repo.NewMongoRawResponseRepository(db)
	default:
		rawStore = repo.NewFileRawResponseRepository(cfg.RawDir, log)
	}

	// Set up the PostgreSQL sink and reference overrides
	var sink repository.FlightFareRepository
	if cfg.PostgresDSN != "" {
		log.Info("Connecting to PostgreSQL")
		gormDB, err := persistence.NewPostgresDB(ctx, cfg.PostgresDSN, cfg.PostgresMaxConns)
		if err != nil {
			log.Error("Failed to connect to PostgreSQL", "error", err)
			return exitError
		}
		defer closePostgres(gormDB, log)

		if cfg.AutoMigrate {
			if err := repo.MigrateFlightFares(ctx, gormDB); err != nil {
				log.Error("Failed to migrate flight_info", "error", err)
				return exitError
			}
		}
		tables = loadReferenceOverrides(ctx, gormDB, tables, log)
		sink = repo.NewGormFlightFareRepository(gormDB, cfg.SinkBatchSize, log)
	} else {
		log.Warn("POSTGRES_DSN is not set, records will not be uploaded")
	}

	var flatFile repository.FlatFileRepository
	flatPath := flags.flatFile
	if flatPath == "" {
		flatPath = cfg.FlatFile
	}
	if flatPath != "" {
		flatFile = repo.NewFlatFileRepository(flatPath, log)
	}

	var reporter repository.RunReporter
	if cfg.ReportingEnabled() {
		reporter, err = newReporter(ctx, cfg, log)
		if err != nil {
			log.Warn("Failed to create Gmail reporter, reports disabled", "error", err)
			reporter = nil
		}
	}

	// Set up the portal client and credentials
	client := portal.NewClient(portal.ClientOptions{
		BaseURL:         cfg.PortalBaseURL,
		APIURL:          cfg.PortalAPIURL(),
		TargetURL:       cfg.PortalTargetURL(),
		UserAgent:       cfg.UserAgent,
		Timeout:         cfg.FetchTimeout,
		MaxConns:        cfg.MaxConns,
		MaxConnsPerHost: cfg.MaxConnsPerHost,
	}, log)
	credentials, err := newCredentialProvider(ctx, cfg, portal.NewTransport(1, 1), log)
	if err != nil {
		log.Error("Failed to set up credentials", "error", err)
		return exitUsage
	}

	retry := usecase.DefaultRetryPolicy()
	retry.MaxAttempts = cfg.FetchMaxAttempts
	retry.BaseDelay = cfg.FetchBaseDelay

	pipeline := usecase.NewFarePipeline(usecase.PipelineDeps{
		Tables:      tables,
		Credentials: credentials,
		TargetURL:   cfg.PortalTargetURL(),
		Scheduler: usecase.NewFetchScheduler(client, rawStore, m, log, usecase.FetchOptions{
			Concurrency: cfg.FetchConcurrency,
			Retry:       retry,
		}),
		RawStore:   rawStore,
		Loader:     usecase.NewResponseLoader(m, log),
		Normalizer: usecase.NewNormalizer(tables, m, log),
		Merger:     usecase.NewMerger(m, log),
		FlatFile:   flatFile,
		Sink:       sink,
		Reporter:   reporter,
		Metrics:    m,
		Logger:     log,
	})

	switch command {
	case "run":
		_, err = pipeline.Run(ctx, dateRange)
	case "collect":
		_, err = pipeline.Collect(ctx, dateRange)
	case "ingest":
		_, err = pipeline.Ingest(ctx, filter)
	}
	return exitCode(err)
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, entity.ErrInvalidDateRange):
		return exitUsage
	default:
		return exitError
	}
}

func parseRawFilter(from, to string) (entity.RawFilter, error) {
	var filter entity.RawFilter
	if from != "" {
		t, ok := utils.ParseISODate(from)
		if !ok {
			return filter, fmt.Errorf("%w: scraped-from %q", entity.ErrInvalidDateRange, from)
		}
		filter.ScrapedFrom = t
	}
	if to != "" {
		t, ok := utils.ParseISODate(to)
		if !ok {
			return filter, fmt.Errorf("%w: scraped-to %q", entity.ErrInvalidDateRange, to)
		}
		filter.ScrapedTo = t
	}
	if !filter.ScrapedFrom.IsZero() && !filter.ScrapedTo.IsZero() && filter.ScrapedFrom.After(filter.ScrapedTo) {
		return filter, fmt.Errorf("%w: scraped-from %s is after scraped-to %s", entity.ErrInvalidDateRange, from, to)
	}
	return filter, nil
}

func newCredentialProvider(ctx context.Context, cfg *config.Config, transport http.RoundTripper, log logger.Logger) (repository.CredentialProvider, error) {
	if cfg.PortalCookie != "" {
		log.Info("Using session cookies from PORTAL_COOKIE")
		return portal.NewStaticCredentialProvider(cfg.PortalCookie)
	}

	provider := portal.NewHTTPCredentialProvider(cfg.UserAgent, cfg.FetchTimeout, transport, log)
	if cfg.RedisURL == "" {
		return provider, nil
	}

	rc, err := persistence.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Warn("Redis unavailable, session cookies will not be cached", "error", err)
		return provider, nil
	}
	return portal.NewCachedCredentialProvider(provider, rc, cfg.CookieTTL, log), nil
}

func loadReferenceOverrides(ctx context.Context, db *gorm.DB, tables reference.Tables, log logger.Logger) reference.Tables {
	airlines, err := repo.NewGormAirlineRepository(db).ListAll(ctx)
	if err != nil {
		log.Warn("Failed to load airlines, using built-in table", "error", err)
	} else {
		tables = tables.WithAirlines(airlines)
	}

	airports, err := repo.NewGormAirportRepository(db).ListAll(ctx)
	if err != nil {
		log.Warn("Failed to load airports, using built-in table", "error", err)
	} else {
		tables = tables.WithAirports(airports)
	}
	return tables
}

func startMetricsServer(addr string, log logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Healthy"))
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("Starting HTTP server", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()
	return server
}

func newReporter(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.RunReporter, error) {
	auth, err := oauth.NewSenderAuth(oauth.SenderOptions{
		ClientID:     cfg.GmailClientID,
		ClientSecret: cfg.GmailClientSecret,
		RefreshToken: cfg.GmailRefreshToken,
	}, log)
	if err != nil {
		return nil, err
	}
	tokens, err := auth.TokenSource(ctx)
	if err != nil {
		return nil, err
	}
	return gmail.NewGmailReporter(ctx, tokens, cfg.ReportTo, log)
}

func disconnectMongo(client *mongo.Client, log logger.Logger) {
	if err := persistence.DisconnectMongo(client); err != nil {
		log.Error("MongoDB disconnect error", "error", err)
	}
}

func closePostgres(db *gorm.DB, log logger.Logger) {
	if err := persistence.ClosePostgresDB(db); err != nil {
		log.Error("PostgreSQL close error", "error", err)
	}
}
