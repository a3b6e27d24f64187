// Package app 提供应用程序的初始化和配置功能.
//
// 初始化顺序：配置 -> 校验 -> 日志 -> 追踪/指标 -> 存储 -> 服务 -> 定时任务 -> 事件订阅 -> HTTP.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yeisme/papervault/pkg/api"
	"github.com/yeisme/papervault/pkg/configs"
	"github.com/yeisme/papervault/pkg/internal/handle"
	"github.com/yeisme/papervault/pkg/internal/jobs"
	"github.com/yeisme/papervault/pkg/internal/router"
	"github.com/yeisme/papervault/pkg/internal/service"
	"github.com/yeisme/papervault/pkg/internal/storage"
	"github.com/yeisme/papervault/pkg/log"
	"github.com/yeisme/papervault/pkg/metrics"
	"github.com/yeisme/papervault/pkg/middleware"
	"github.com/yeisme/papervault/pkg/scheduler"
	"github.com/yeisme/papervault/pkg/tracing"
)

type App struct {
	Engine *gin.Engine

	config    *configs.AppConfig
	manager   *storage.Manager
	scheduler *scheduler.Scheduler
	logger    zerolog.Logger
}

// Bootstrap 加载并校验配置、初始化日志，serve 与一次性子命令共用.
func Bootstrap(configPath string) (*configs.AppConfig, error) {
	if err := configs.InitConfig(configPath); err != nil {
		return nil, fmt.Errorf("init config: %w", err)
	}

	cfg := configs.GetConfig()
	if err := configs.Validate(cfg); err != nil {
		return nil, err
	}

	log.Init()

	return cfg, nil
}

// NewApp 初始化全部依赖并组装 HTTP 引擎，失败时释放已打开的资源.
func NewApp(ctx context.Context, configPath string) (*App, error) {
	cfg, err := Bootstrap(configPath)
	if err != nil {
		return nil, err
	}

	l := log.Component("app")

	if err := tracing.InitTracer(cfg.Tracing); err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	if err := metrics.InitMetrics(cfg.Metrics); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	manager, err := storage.Init(ctx, cfg)
	if err != nil {
		return nil, err
	}

	deps := service.DepsFromManager(manager, cfg)
	files := service.NewFileService(deps)
	authSvc := service.NewAuthService(cfg.Auth)
	sweep := service.NewSweepService(deps)

	sched, err := scheduler.NewScheduler()
	if err != nil {
		_ = manager.Close()
		return nil, fmt.Errorf("init scheduler: %w", err)
	}

	if err := jobs.RegisterCronJobs(ctx, sched, sweep, cfg.Sweep); err != nil {
		_ = sched.Stop()
		_ = manager.Close()

		return nil, fmt.Errorf("register jobs: %w", err)
	}

	if manager.MQ != nil {
		if err := jobs.RegisterAuditHandlers(manager.MQ); err != nil {
			_ = sched.Stop()
			_ = manager.Close()

			return nil, err
		}
	}

	gl := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(gl, zerolog.DebugLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(gl, zerolog.ErrorLevel)

	engine := NewEngine(cfg, api.Options{
		BasePath:  cfg.Server.BasePath,
		Handlers:  handle.New(files, authSvc, sweep, cfg),
		Verifier:  authSvc.Issuer(),
		Manager:   manager,
		Scheduler: sched,
	})

	l.Info().Str("version", configs.AppVersion).Str("base_path", cfg.Server.BasePath).Msg("app initialized")

	return &App{
		Engine:    engine,
		config:    cfg,
		manager:   manager,
		scheduler: sched,
		logger:    l,
	}, nil
}

// NewEngine 组装 gin 引擎：公共中间件、405/404、指标、文档与业务路由.
func NewEngine(cfg *configs.AppConfig, opts api.Options) *gin.Engine {
	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	engine.Use(middleware.Common(cfg)...)
	engine.NoMethod(handle.MethodNotAllowed)
	engine.NoRoute(handle.NotFound)

	metrics.RegisterRoutes(cfg.Metrics, engine)
	router.RegisterSwaggerRoute(engine, cfg.Server)

	return api.RegisterGroup(engine, opts)
}

// Run 启动定时任务、事件订阅与 HTTP 服务，收到 SIGINT/SIGTERM 后优雅退出.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port),
		Handler:      a.Engine,
		ReadTimeout:  a.config.Server.GetTimeoutDuration(),
		WriteTimeout: a.config.Server.GetTimeoutDuration(),
	}

	a.scheduler.Start()

	if a.manager.MQ != nil {
		go func() {
			if err := a.manager.MQ.Run(ctx); err != nil {
				a.logger.Error().Err(err).Msg("mq router stopped")
			}
		}()
	}

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info().Str("addr", srv.Addr).Msg("http server listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	var serveErr error

	select {
	case <-ctx.Done():
		a.logger.Info().Msg("shutdown signal received")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.GetShutdownTimeout())
	defer cancel()

	return errors.Join(serveErr, a.shutdown(shutdownCtx, srv))
}

// shutdown 依次停止 HTTP、定时任务、追踪与存储.
func (a *App) shutdown(ctx context.Context, srv *http.Server) error {
	var errs []error

	if err := srv.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}

	if err := a.scheduler.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("scheduler stop: %w", err))
	}

	if err := tracing.ShutdownTracer(ctx); err != nil {
		errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
	}

	if err := a.manager.Close(); err != nil {
		errs = append(errs, fmt.Errorf("storage close: %w", err))
	}

	a.logger.Info().Msg("server stopped")

	return errors.Join(errs...)
}
