// Package router 注册HTTP路由与全局中间件
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/xiebiao/mercadolivro/docs"
	"github.com/xiebiao/mercadolivro/internal/infrastructure/config"
	"github.com/xiebiao/mercadolivro/internal/interface/http/handler"
	"github.com/xiebiao/mercadolivro/internal/interface/http/middleware"
	"github.com/xiebiao/mercadolivro/pkg/response"
)

// Handlers 所有HTTP处理器
type Handlers struct {
	Auth     *handler.AuthHandler
	Customer *handler.CustomerHandler
	Book     *handler.BookHandler
	Purchase *handler.PurchaseHandler
}

// New 创建Gin引擎并注册路由
// 中间件顺序：RequestID → Recovery → Tracing → Metrics → AccessLog → 业务Handler
func New(cfg *config.Config, h Handlers, authMiddleware *middleware.AuthMiddleware, logger *zap.Logger) *gin.Engine {
	switch cfg.Server.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Recovery(logger))
	if cfg.Tracing.Enabled {
		r.Use(middleware.Tracing())
	}
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics())
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}
	r.Use(middleware.AccessLog(logger))

	// 健康检查
	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{"message": "pong", "status": "healthy"})
	})

	// Swagger文档,访问 /swagger/index.html
	if cfg.Server.Mode != "release" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	requireAuth := authMiddleware.RequireAuth()

	v1 := r.Group("/api/v1")
	{
		// 认证
		v1.POST("/login", h.Auth.Login)
		v1.POST("/refresh", h.Auth.Refresh)
		v1.POST("/logout", requireAuth, h.Auth.Logout)

		// 客户
		customers := v1.Group("/customers")
		{
			customers.GET("", h.Customer.List)
			customers.POST("", h.Customer.Create)
			customers.GET("/email-available", h.Customer.EmailAvailable)
			customers.GET("/:id", requireAuth, h.Customer.Get)
			customers.PUT("/:id", requireAuth, h.Customer.Update)
			customers.DELETE("/:id", requireAuth, h.Customer.Delete)
			customers.GET("/:id/purchases", requireAuth, h.Customer.ListPurchases)
		}

		// 图书
		books := v1.Group("/books")
		{
			books.GET("", h.Book.List)
			books.GET("/active", h.Book.ListActive)
			books.GET("/:id", h.Book.Get)
			books.POST("", requireAuth, h.Book.Publish)
			books.PUT("/:id", requireAuth, h.Book.Update)
			books.DELETE("/:id", requireAuth, h.Book.Delete)
		}

		// 购买(下单接口限流)
		purchases := v1.Group("/purchases", requireAuth)
		{
			purchases.POST("", middleware.RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst), h.Purchase.Create)
			purchases.GET("/:id", h.Purchase.Get)
		}
	}

	return r
}
