package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"kamsent/internal/config"
	"kamsent/internal/handlers"
	"kamsent/internal/middleware"
	"kamsent/internal/models"
	"kamsent/internal/monitor"
	"kamsent/internal/profile"
	"kamsent/internal/sensors"
	"kamsent/internal/utils"
	"kamsent/internal/version"
	"kamsent/internal/warnings"
)

// App bundles the long-lived services so shutdown can walk them in order.
type App struct {
	cfg        config.Config
	logger     *slog.Logger
	monitor    *monitor.Monitor
	facade     *monitor.Facade
	recorder   *monitor.Recorder
	sessionLog *profile.SessionLog
	hub        *middleware.Hub
	limiter    *middleware.RateLimiter
	dashboard  *handlers.DashboardHandlers
	thresholds *handlers.ThresholdHandlers
}

func main() {
	configPath := flag.String("config", "kamsent.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kamsent: %v\n", err)
		os.Exit(1)
	}
	logger := newLogger(cfg.LogLevel)
	logger.Info("starting kamsent", slog.String("version", version.String()))

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	app, err := buildApp(cfg, logger)
	if err != nil {
		logger.Error("startup failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	r := setupRouter(app)
	srv := &http.Server{
		Addr:           app.cfg.Host + ":" + strconv.Itoa(app.cfg.Port),
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	app.recorder.Stop()
	app.monitor.Stop()
	app.hub.Stop()
	app.limiter.Stop()
	if err := app.sessionLog.Close(); err != nil {
		logger.Warn("session log close failed", slog.String("error", err.Error()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("server exited")
}

// buildApp constructs and starts every service: sensor detection, the
// monitor with its per-domain samplers, the warning engine, the write-once
// snapshots, and the background recorder.
func buildApp(cfg config.Config, logger *slog.Logger) (*App, error) {
	paths := utils.NewPaths(cfg.DataDir)
	if err := paths.EnsureDirs(); err != nil {
		return nil, err
	}

	ctx := context.Background()
	srcs := sensors.Detect(logger)

	var gpuSrc *sensors.NvidiaSMISource
	for _, src := range srcs {
		if g, ok := src.(*sensors.NvidiaSMISource); ok {
			gpuSrc = g
		}
	}
	sysinfo := sensors.CollectSystemInfo(ctx, gpuSrc)
	logger.Info("system detected",
		slog.String("cpu", sysinfo.CPUName),
		slog.String("gpu", sysinfo.GPUName))

	thresholds := warnings.NewStore(paths.ThresholdsFile(), func() warnings.ThresholdProfile {
		return warnings.DetectProfile(sysinfo.CPUName, sysinfo.GPUName)
	}, logger)
	if err := thresholds.Load(); err != nil {
		return nil, err
	}

	engine := warnings.NewEngine(warnings.EngineConfig{
		SustainedWindow: cfg.Warnings.SustainedWindow,
		SustainedRatio:  cfg.Warnings.SustainedRatio,
		SpikeMultiplier: cfg.Warnings.SpikeMultiplier,
		BaselineSamples: cfg.Warnings.BaselineSamples,
		MinBaselineKBps: cfg.Warnings.MinBaselineKBps,
		GraceWindow:     cfg.Warnings.GraceWindow,
	})

	mon := monitor.New(cfg.Sampling, srcs, logger)
	mon.Prime(ctx)
	facade := monitor.NewFacade(mon, engine, thresholds)
	mon.Start()

	profiles := profile.NewStore(paths, logger)
	if _, err := profiles.SaveOriginalProfile(sysinfo); err != nil {
		return nil, err
	}
	if err := profiles.EnsureVersionFile(); err != nil {
		return nil, err
	}
	initial := facade.Snapshot()
	if _, err := profiles.SaveBaseline(sysinfo, initial.Metrics); err != nil {
		return nil, err
	}

	sessionLog := profile.NewSessionLog(paths, cfg.SessionLog.BatchSize, cfg.SessionLog.MaxLines, logger)
	logger.Info("session started", slog.String("session_id", sessionLog.SessionID()))

	hub := middleware.NewHub(logger)
	go hub.Run()

	recorder := monitor.NewRecorder(facade, cfg.Sampling.NetworkInterval, logger,
		func(snap models.StatsSnapshot) {
			sessionLog.Append(snap.Metrics, snap.Warnings)
		},
		func(snap models.StatsSnapshot) {
			if hub.ClientCount() == 0 {
				return
			}
			if payload, err := json.Marshal(snap); err == nil {
				hub.Broadcast(payload)
			}
		},
	)
	recorder.Start()

	app := &App{
		cfg:        cfg,
		logger:     logger,
		monitor:    mon,
		facade:     facade,
		recorder:   recorder,
		sessionLog: sessionLog,
		hub:        hub,
		limiter:    middleware.NewRateLimiter(rate.Every(time.Minute/300), 30),
	}
	app.dashboard = handlers.NewDashboardHandlers(facade, profiles, sysinfo)
	app.thresholds = handlers.NewThresholdHandlers(thresholds)
	return app, nil
}

func setupRouter(app *App) *gin.Engine {
	r := gin.New()
	// No reverse proxy sits in front of the dashboard; trusting forwarded
	// headers would let remote clients forge their IP.
	_ = r.SetTrustedProxies(nil)
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
		)
	}))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())
	r.Use(app.limiter.Middleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.StaticFile("/", "./static/dashboard.html")
	r.Static("/static", "./static")

	api := r.Group("/api")
	{
		api.GET("/stats", app.dashboard.APIStats)
		api.GET("/system", app.dashboard.APISystem)
		api.GET("/version", app.dashboard.APIVersion)
		api.GET("/baseline", app.dashboard.APIBaseline)
		api.GET("/original_profile", app.dashboard.APIOriginalProfile)
		api.GET("/thresholds", app.thresholds.APIGetThresholds)

		local := api.Group("")
		local.Use(middleware.LocalOnly())
		{
			local.POST("/thresholds", app.thresholds.APIUpdateThresholds)
			local.POST("/thresholds/reset", app.thresholds.APIResetThresholds)
		}
	}

	r.GET("/ws", app.hub.HandleWebSocket())
	return r
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
