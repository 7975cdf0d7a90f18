package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/mercadolivro/internal/infrastructure/config"
	"github.com/xiebiao/mercadolivro/pkg/logger"
	"github.com/xiebiao/mercadolivro/pkg/tracing"
)

// @title           Mercado Livro API
// @version         1.0
// @description     二手书交易平台:客户、图书目录与购买(提交后异步标记已售出并分配发票号)
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
// @description     格式: Bearer <access_token>

// main 主程序入口
// 启动顺序：配置 → 日志 → 链路追踪 → 依赖组装 → 事件分发器 → HTTP/gRPC服务
// 收到SIGINT/SIGTERM后优雅关闭
func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 2. 初始化日志
	appLogger, err := logger.New(logger.Options{
		Level:        cfg.Log.Level,
		Format:       cfg.Log.Format,
		Output:       cfg.Log.Output,
		EnableCaller: cfg.Log.EnableCaller,
	})
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("配置加载成功",
		zap.Int("port", cfg.Server.Port),
		zap.String("mode", cfg.Server.Mode),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("redis", cfg.Redis.Addr()),
		zap.String("event_transport", cfg.Event.Transport),
	)

	// 3. 链路追踪（tracing.enabled=false时为空操作）
	shutdownTracer, err := tracing.InitTracer(tracing.Options{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		Endpoint:    cfg.Tracing.Endpoint,
	})
	if err != nil {
		appLogger.Fatal("初始化链路追踪失败", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(ctx); err != nil {
			appLogger.Warn("关闭TracerProvider失败", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 4. 组装依赖
	app, cleanup, err := newApp(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("初始化应用失败", zap.Error(err))
	}
	defer cleanup()

	// 5. 运行，阻塞直到收到退出信号
	if err := app.Run(ctx); err != nil {
		appLogger.Error("服务异常退出", zap.Error(err))
	}
}
