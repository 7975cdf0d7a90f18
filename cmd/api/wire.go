//go:build wireinject
// +build wireinject

// Wire依赖注入配置文件
//
// 与newApp是同一张依赖图：
//   - 运行 `wire gen ./cmd/api` 生成wire_gen.go
//   - 生成后main可以改为调用InitializeApp
//
// 接口到实现的绑定集中在bindingSet，新增端口接口时在这里补充wire.Bind

package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	"go.uber.org/zap"

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
	"github.com/xiebiao/mercadolivro/internal/interface/http/handler"
	"github.com/xiebiao/mercadolivro/internal/interface/http/middleware"
	"github.com/xiebiao/mercadolivro/internal/interface/http/router"
)

// infrastructureSet 数据库、Redis、事件分发器
var infrastructureSet = wire.NewSet(
	provideDB,
	provideRedis,
	provideDispatcher,
	provideInvoiceLock,
	provideJWTManager,
	redis.NewSessionStore,
	mysql.NewTxManager,
)

// repositorySet 仓储实现
var repositorySet = wire.NewSet(
	mysql.NewCustomerRepository,
	mysql.NewBookRepository,
	mysql.NewPurchaseRepository,
)

// domainSet 领域服务
var domainSet = wire.NewSet(
	customer.NewService,
	book.NewService,
	purchase.NewService,
)

// listenerSet 购买事件订阅者
var listenerSet = wire.NewSet(
	listener.NewSoldBookReconciler,
	listener.NewInvoiceAssigner,
)

// applicationSet 用例
var applicationSet = wire.NewSet(
	provideLoginUseCase,
	appauth.NewLogoutUseCase,
	appauth.NewRefreshTokenUseCase,
	appcustomer.NewRegisterUseCase,
	appcustomer.NewManageCustomerUseCase,
	appcustomer.NewListCustomersUseCase,
	appbook.NewPublishBookUseCase,
	appbook.NewManageBookUseCase,
	appbook.NewQueryBooksUseCase,
	apppurchase.NewCreatePurchaseUseCase,
	apppurchase.NewQueryPurchaseUseCase,
)

// interfaceSet HTTP与gRPC
var interfaceSet = wire.NewSet(
	handler.NewAuthHandler,
	handler.NewCustomerHandler,
	handler.NewBookHandler,
	handler.NewPurchaseHandler,
	wire.Struct(new(router.Handlers), "*"),
	middleware.NewAuthMiddleware,
	router.New,
	provideHTTPServer,
	provideGRPCServer,
	provideApp,
)

// bindingSet 端口接口 → 实现
var bindingSet = wire.NewSet(
	wire.Bind(new(book.Reader), new(book.Repository)),
	wire.Bind(new(customer.BookRetirer), new(book.Service)),
	wire.Bind(new(listener.SoldMarker), new(book.Service)),
	wire.Bind(new(listener.PurchaseUpdater), new(purchase.Service)),
	wire.Bind(new(purchase.Transactor), new(*mysql.TxManager)),
	wire.Bind(new(appcustomer.Transactor), new(*mysql.TxManager)),
	wire.Bind(new(purchase.Publisher), new(messaging.Dispatcher)),
	wire.Bind(new(appauth.Authenticator), new(customer.Service)),
	wire.Bind(new(appauth.SessionStore), new(*redis.SessionStore)),
	wire.Bind(new(middleware.TokenBlacklist), new(*redis.SessionStore)),
	wire.Bind(new(appbook.CustomerFinder), new(customer.Service)),
	wire.Bind(new(apppurchase.CustomerFinder), new(customer.Service)),
	wire.Bind(new(http.Handler), new(*gin.Engine)),
)

// InitializeApp 初始化整个应用
// 返回的cleanup按相反顺序关闭Redis与数据库连接
func InitializeApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, func(), error) {
	wire.Build(
		infrastructureSet,
		repositorySet,
		domainSet,
		listenerSet,
		applicationSet,
		interfaceSet,
		bindingSet,
	)
	return nil, nil, nil
}
