package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	appauth "github.com/xiebiao/mercadolivro/internal/application/auth"
	appbook "github.com/xiebiao/mercadolivro/internal/application/book"
	appcustomer "github.com/xiebiao/mercadolivro/internal/application/customer"
	"github.com/xiebiao/mercadolivro/internal/application/listener"
	apppurchase "github.com/xiebiao/mercadolivro/internal/application/purchase"
	"github.com/xiebiao/mercadolivro/internal/domain/book"
	"github.com/xiebiao/mercadolivro/internal/domain/customer"
	"github.com/xiebiao/mercadolivro/internal/domain/purchase"
	"github.com/xiebiao/mercadolivro/internal/infrastructure/config"
	"github.com/xiebiao/mercadolivro/internal/infrastructure/messaging"
	"github.com/xiebiao/mercadolivro/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/mercadolivro/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/mercadolivro/internal/interface/grpcserver"
	"github.com/xiebiao/mercadolivro/internal/interface/http/handler"
	"github.com/xiebiao/mercadolivro/internal/interface/http/middleware"
	"github.com/xiebiao/mercadolivro/internal/interface/http/router"
	"github.com/xiebiao/mercadolivro/pkg/jwt"
	"github.com/xiebiao/mercadolivro/pkg/metrics"
	"github.com/xiebiao/mercadolivro/pkg/mq"
)

// App 组装完成的应用
// 生命周期：newApp → Run（阻塞直到ctx取消）→ cleanup
type App struct {
	cfg        *config.Config
	logger     *zap.Logger
	httpServer *http.Server
	grpcServer *grpcserver.Server
	dispatcher messaging.Dispatcher
	reconciler *listener.SoldBookReconciler
	invoices   *listener.InvoiceAssigner
}

// newApp 手动依赖注入
// 依赖链：Repository ← Service ← UseCase ← Handler ← Router
// wire.go声明了同一张依赖图，供wire生成代码使用
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	fail := func(err error) (*App, func(), error) {
		cleanup()
		return nil, nil, err
	}

	if cfg.Metrics.Enabled {
		metrics.InitMetrics()
	}

	// 1. 基础设施
	db, dbCleanup, err := provideDB(cfg, logger)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, dbCleanup)

	redisClient, redisCleanup, err := provideRedis(ctx, cfg, logger)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, redisCleanup)

	dispatcher, err := provideDispatcher(cfg, logger)
	if err != nil {
		return fail(err)
	}

	txManager := mysql.NewTxManager(db)
	sessionStore := redis.NewSessionStore(redisClient)
	jwtManager := provideJWTManager(cfg)

	// 2. 领域层
	bookService := book.NewService(mysql.NewBookRepository(db))
	customerService := customer.NewService(mysql.NewCustomerRepository(db), bookService)
	purchaseService := purchase.NewService(mysql.NewPurchaseRepository(db), mysql.NewBookRepository(db), txManager, dispatcher, logger)

	// 3. 订阅者
	reconciler := listener.NewSoldBookReconciler(bookService, logger)
	invoices := listener.NewInvoiceAssigner(purchaseService, provideInvoiceLock(cfg, redisClient), logger)

	// 4. 应用层与接口层
	queryPurchases := apppurchase.NewQueryPurchaseUseCase(customerService, purchaseService)
	handlers := router.Handlers{
		Auth: handler.NewAuthHandler(
			provideLoginUseCase(cfg, customerService, jwtManager, sessionStore, logger),
			appauth.NewLogoutUseCase(jwtManager, sessionStore),
			appauth.NewRefreshTokenUseCase(customerService, jwtManager),
		),
		Customer: handler.NewCustomerHandler(
			appcustomer.NewRegisterUseCase(customerService),
			appcustomer.NewManageCustomerUseCase(customerService, txManager, logger),
			appcustomer.NewListCustomersUseCase(customerService),
			queryPurchases,
		),
		Book: handler.NewBookHandler(
			appbook.NewPublishBookUseCase(bookService, customerService),
			appbook.NewManageBookUseCase(bookService),
			appbook.NewQueryBooksUseCase(bookService),
		),
		Purchase: handler.NewPurchaseHandler(
			apppurchase.NewCreatePurchaseUseCase(customerService, purchaseService, logger),
			queryPurchases,
		),
	}
	engine := router.New(cfg, handlers, middleware.NewAuthMiddleware(jwtManager, sessionStore), logger)

	app := provideApp(
		cfg,
		logger,
		provideHTTPServer(cfg, engine),
		provideGRPCServer(db, redisClient, dispatcher, logger),
		dispatcher,
		reconciler,
		invoices,
	)
	return app, cleanup, nil
}

// Run 启动分发器、HTTP与gRPC服务，ctx取消后按顺序优雅关闭：
// HTTP（不再接收新购买）→ gRPC → 分发器（处理完在途事件）
func (a *App) Run(ctx context.Context) error {
	// 1. 注册订阅者并启动分发器
	// 分发器的工作协程不跟随ctx取消，由Shutdown负责排空队列
	if err := listener.Register(a.dispatcher, a.reconciler, a.invoices); err != nil {
		return fmt.Errorf("注册订阅者失败: %w", err)
	}
	if err := a.dispatcher.Start(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("启动事件分发器失败: %w", err)
	}

	// 2. 启动服务
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("HTTP服务启动", zap.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP服务异常退出: %w", err)
		}
		return nil
	})
	if a.cfg.GRPC.Enabled {
		g.Go(func() error {
			lis, err := net.Listen("tcp", fmt.Sprintf(":%d", a.cfg.GRPC.Port))
			if err != nil {
				return fmt.Errorf("gRPC监听端口失败: %w", err)
			}
			return a.grpcServer.Serve(gctx, lis)
		})
	}

	// 3. 等待退出信号或任一服务出错
	g.Go(func() error {
		<-gctx.Done()
		a.shutdown()
		return nil
	})
	return g.Wait()
}

func (a *App) shutdown() {
	a.logger.Info("正在优雅关闭服务...")
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Warn("HTTP服务关闭超时", zap.Error(err))
	}
	if a.cfg.GRPC.Enabled {
		a.grpcServer.Stop()
	}
	if err := a.dispatcher.Shutdown(ctx); err != nil {
		a.logger.Warn("事件分发器关闭超时，未处理完的事件将丢失", zap.Error(err))
	}
	a.logger.Info("服务已关闭")
}

// =========================================
// Providers（main与wire共用）
// =========================================

func provideApp(
	cfg *config.Config,
	logger *zap.Logger,
	httpServer *http.Server,
	grpcServer *grpcserver.Server,
	dispatcher messaging.Dispatcher,
	reconciler *listener.SoldBookReconciler,
	invoices *listener.InvoiceAssigner,
) *App {
	return &App{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		grpcServer: grpcServer,
		dispatcher: dispatcher,
		reconciler: reconciler,
		invoices:   invoices,
	}
}

func provideDB(cfg *config.Config, logger *zap.Logger) (*gorm.DB, func(), error) {
	db, err := mysql.NewDB(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return db, func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}, nil
}

func provideRedis(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*goredis.Client, func(), error) {
	client, err := redis.NewClient(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

// provideDispatcher 按event.transport选择分发器
func provideDispatcher(cfg *config.Config, logger *zap.Logger) (messaging.Dispatcher, error) {
	switch cfg.Event.Transport {
	case messaging.TransportRabbitMQ:
		d, err := messaging.NewRabbitDispatcher(messaging.RabbitOptions{
			URL:          cfg.Event.RabbitMQ.URL,
			Exchange:     cfg.Event.RabbitMQ.Exchange,
			ExchangeType: cfg.Event.RabbitMQ.ExchangeType,
			Publisher:    mq.PublisherOptions{BreakerOpen: cfg.Event.RabbitMQ.BreakerOpen},
		}, logger)
		if err != nil {
			return nil, err
		}
		return d, nil
	default:
		return messaging.NewMemoryDispatcher(logger), nil
	}
}

// provideInvoiceLock event.invoice_dedupe关闭时返回nil（重复投递覆盖发票号）
func provideInvoiceLock(cfg *config.Config, client *goredis.Client) listener.InvoiceLock {
	if !cfg.Event.InvoiceDedupe {
		return nil
	}
	return redis.NewInvoiceLock(client, cfg.Event.InvoiceLockTTL)
}

func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpire, cfg.JWT.RefreshTokenExpire)
}

// provideLoginUseCase 会话有效期与Refresh Token一致
func provideLoginUseCase(cfg *config.Config, customers appauth.Authenticator, jwtManager *jwt.Manager, sessions appauth.SessionStore, logger *zap.Logger) *appauth.LoginUseCase {
	return appauth.NewLoginUseCase(customers, jwtManager, sessions, cfg.JWT.RefreshTokenExpire, logger)
}

func provideHTTPServer(cfg *config.Config, engine http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}

// provideGRPCServer 健康检查探测数据库、Redis与事件分发器
func provideGRPCServer(db *gorm.DB, client *goredis.Client, dispatcher messaging.Dispatcher, logger *zap.Logger) *grpcserver.Server {
	return grpcserver.New([]grpcserver.Dependency{
		{Name: "database", Check: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}},
		{Name: "redis", Check: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}},
		{Name: "dispatcher", Check: dispatcher.Ping},
	}, grpcserver.Options{Logger: logger})
}
