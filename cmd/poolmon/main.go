package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	kingpin "github.com/alecthomas/kingpin/v2"
	"github.com/prometheus/common/version"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"poolmon/config"
	docs "poolmon/internal/app/docs"
	"poolmon/internal/app/router"
	poolmod "poolmon/internal/module/pool"
	"poolmon/internal/pkg/aggregator"
)

// @title           poolmon
// @version         0.1.0
// @description     Batch pool job and slot counters
// @schema			http
// @BasePath        /api/v1
func main() {
	app := kingpin.New("poolmon", "Counts jobs and slots of a batch pool.")
	app.Version(version.Print("poolmon"))
	app.HelpFlag.Short('h')

	var (
		configFile = app.Flag("config", "Path to YAML config file; built-in defaults when empty").Short('c').Envar("POOLMON_CONFIG").String()
		poolAddr   = app.Flag("pool", "Collector address, overrides pool.address").Envar("POOLMON_POOL").String()
		logFormat  = app.Flag("log-format", "Log format").Default("text").Envar("POOLMON_LOG_FORMAT").Enum("text", "json")
		logOutput  = app.Flag("log-output", "Log output destination").Default("stderr").Envar("POOLMON_LOG_OUTPUT").Enum("stdout", "stderr", "file")
		logFile    = app.Flag("log-file", "Log file path (used when --log-output=file)").Envar("POOLMON_LOG_FILE").String()
		logLevel   = app.Flag("log-level", "Minimum log level").Default("info").Envar("POOLMON_LOG_LEVEL").Enum("debug", "info", "warn", "error")

		probe       = app.Command("probe", "Run one pass and print the counters.")
		probeJobs   = probe.Command("jobs", "Count idle, running and held jobs.")
		probeSlots  = probe.Command("slots", "Summarise slots.")
		probeFormat = probe.Flag("format", "Output format").Default("text").Enum("text", "json")

		serve     = app.Command("serve", "Serve passes on demand over HTTP.")
		serveAddr = serve.Flag("addr", "Server listen address, overrides server.addr").Envar("POOLMON_ADDR").String()
	)
	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))

	logger, cleanup, err := newLogger(*logOutput, *logFormat, *logFile, *logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to setup logger: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	cfg, err := loadConfig(*configFile)
	if err != nil {
		logger.Error("failed to load config", slog.String("path", *configFile), slog.Any("err", err))
		os.Exit(1)
	}
	if *poolAddr != "" {
		cfg.Pool.Address = *poolAddr
	}

	svc, closeSvc, err := newQueryService(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize pool query service", slog.String("source", cfg.Pool.Source), slog.Any("err", err))
		os.Exit(1)
	}
	defer closeSvc()

	acfg, err := aggregatorConfig(cfg)
	if err != nil {
		logger.Error("invalid aggregator settings", slog.Any("err", err))
		os.Exit(1)
	}
	agg, err := aggregator.New(acfg, svc, logger)
	if err != nil {
		logger.Error("failed to initialize aggregator", slog.Any("err", err))
		os.Exit(1)
	}
	aggregator.SetDefault(agg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case probeJobs.FullCommand(), probeSlots.FullCommand():
		run := agg.JobCounts
		if cmd == probeSlots.FullCommand() {
			run = agg.SlotCounts
		}
		res, err := run(ctx)
		if err != nil {
			logger.Error("pass failed", slog.String("pass", cmd), slog.Any("err", err))
			os.Exit(1)
		}
		if len(res.Failed) > 0 {
			logger.Warn("pass is missing sources", slog.Any("failed", res.Failed))
		}
		if err := printSnapshot(os.Stdout, res.Snapshot.WithPrefix(cfg.Pool.Prefix), *probeFormat); err != nil {
			logger.Error("failed to print counters", slog.Any("err", err))
			os.Exit(1)
		}
	case serve.FullCommand():
		if *serveAddr != "" {
			cfg.Server.Addr = *serveAddr
		}
		if err := runServer(ctx, cfg.Server, logger); err != nil {
			logger.Error("server failed", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

func runServer(ctx context.Context, cfg config.Server, logger *slog.Logger) error {
	r := router.New(logger)
	docs.SwaggerInfo.BasePath = "/api/v1"
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.Register(
		poolmod.Router{},
		router.Metrics{},
	)
	router.MountAll(r)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", cfg.Addr), slog.String("version", version.Version))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down server...")

	to, err := time.ParseDuration(cfg.ShutdownTimeout)
	if err != nil || to <= 0 {
		to = 10 * time.Second
	}
	sctx, cancel := context.WithTimeout(context.Background(), to)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Error("server forced to shutdown", slog.Any("err", err))
	}
	logger.Info("server exiting")
	return nil
}

func newLogger(logOutput, logFormat, logFile, logLevel string) (*slog.Logger, func(), error) {
	var w io.Writer
	var closer io.Closer
	switch logOutput {
	case "stdout":
		w = os.Stdout
	case "stderr", "":
		w = os.Stderr
	case "file":
		if logFile == "" {
			return nil, nil, fmt.Errorf("--log-file is required when --log-output=file")
		}
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, err
		}
		w = f
		closer = f
	default:
		return nil, nil, fmt.Errorf("unsupported log output: %s", logOutput)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, nil, fmt.Errorf("unsupported log level: %s", logLevel)
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch logFormat {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		return nil, nil, fmt.Errorf("unsupported log format: %s", logFormat)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	cleanup := func() {
		if closer != nil {
			_ = closer.Close()
		}
	}
	return logger, cleanup, nil
}
