package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/xiebiao/storefront/docs"
	"github.com/xiebiao/storefront/internal/infrastructure/config"
	"github.com/xiebiao/storefront/internal/interface/http/handler"
	"github.com/xiebiao/storefront/internal/interface/http/middleware"
	"github.com/xiebiao/storefront/pkg/response"
)

// Handlers 路由需要的全部处理器
type Handlers struct {
	Purchase *handler.PurchaseHandler
	Order    *handler.OrderHandler
	Cart     *handler.CartHandler
	Ops      *handler.OpsHandler
}

// New 创建并配置Gin引擎
func New(cfg *config.Config, log zerolog.Logger, h Handlers, auth *middleware.AuthMiddleware) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics())
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	// 健康检查
	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})

	// 访问 http://localhost:8080/swagger/index.html 查看API文档
	if cfg.Server.Mode != "release" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group("/api/v1")
	{
		authorized := v1.Group("")
		authorized.Use(auth.RequireAuth())
		{
			authorized.POST("/books/:id/purchase", h.Purchase.Purchase)

			orders := authorized.Group("/orders")
			orders.POST("", h.Purchase.Checkout)
			orders.GET("", h.Order.ListOrders)
			orders.GET("/:id", h.Order.GetOrder)
			orders.POST("/:id/cancel", h.Order.CancelOrder)

			carts := authorized.Group("/cart")
			carts.GET("", h.Cart.GetCart)
			carts.POST("/items", h.Cart.AddItem)
			carts.PUT("/items/:book_id", h.Cart.SetItem)
			carts.DELETE("/items/:book_id", h.Cart.RemoveItem)
			carts.POST("/checkout", h.Cart.Checkout)
		}

		// 运营接口(订单状态推进),使用X-API-Key鉴权
		ops := v1.Group("/ops/orders")
		ops.Use(middleware.RequireOpsKey(cfg.Ops.APIKey))
		{
			ops.POST("/:id/confirm", h.Ops.Confirm)
			ops.POST("/:id/process", h.Ops.StartProcessing)
			ops.POST("/:id/ship", h.Ops.Ship)
			ops.POST("/:id/deliver", h.Ops.Deliver)
			ops.POST("/:id/cancel", h.Ops.Cancel)
		}
	}

	return r
}
