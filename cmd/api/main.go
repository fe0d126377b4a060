package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/xiebiao/storefront/internal/infrastructure/config"
	"github.com/xiebiao/storefront/pkg/logger"
	"github.com/xiebiao/storefront/pkg/metrics"
	"github.com/xiebiao/storefront/pkg/tracing"
)

// @title           Storefront API
// @version         1.0
// @description     图书商城购买与订单服务
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "启动失败: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}

	// 2. 日志
	log, closer, err := logger.New(logger.Options{
		Level:        cfg.Log.Level,
		Format:       cfg.Log.Format,
		Output:       cfg.Log.Output,
		EnableCaller: cfg.Log.EnableCaller,
	})
	if err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	defer closer.Close()
	zerolog.DefaultContextLogger = &log

	log.Info().
		Int("port", cfg.Server.Port).
		Str("mode", cfg.Server.Mode).
		Str("events", cfg.Events.Driver).
		Msg("配置加载成功")

	// 3. 链路追踪(可选)
	if cfg.Tracing.Enabled {
		shutdown, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.Endpoint)
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				log.Warn().Err(err).Msg("关闭TracerProvider失败")
			}
		}()
		log.Info().Str("endpoint", cfg.Tracing.Endpoint).Msg("链路追踪已开启")
	}
	if cfg.Metrics.Enabled {
		metrics.InitMetrics()
	}

	// 4. 依赖注入
	app, cleanup, err := InitializeApp(cfg, log)
	if err != nil {
		return fmt.Errorf("初始化应用失败: %w", err)
	}
	defer cleanup()

	// 5. 启动服务,收到SIGINT/SIGTERM后优雅退出
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      app.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("服务启动")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("正在关闭服务")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("启动服务失败: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("关闭服务失败: %w", err)
	}
	log.Info().Msg("服务已退出")
	return nil
}
