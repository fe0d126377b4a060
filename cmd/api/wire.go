//go:build wireinject
// +build wireinject

// Wire依赖注入配置文件
//
// 修改Provider后运行 `wire gen ./cmd/api` 重新生成wire_gen.go

package main

import (
	"github.com/google/wire"
	"github.com/rs/zerolog"

	appcart "github.com/xiebiao/storefront/internal/application/cart"
	apporder "github.com/xiebiao/storefront/internal/application/order"
	"github.com/xiebiao/storefront/internal/application/purchase"
	"github.com/xiebiao/storefront/internal/domain/cart"
	"github.com/xiebiao/storefront/internal/infrastructure/config"
	"github.com/xiebiao/storefront/internal/infrastructure/messaging"
	"github.com/xiebiao/storefront/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/storefront/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/storefront/internal/interface/http/handler"
	"github.com/xiebiao/storefront/internal/interface/http/middleware"
	"github.com/xiebiao/storefront/internal/interface/http/router"
)

// infrastructureSet 数据库、Redis、事件投递
var infrastructureSet = wire.NewSet(
	provideDB,
	provideRedisClient,
	messaging.NewPublisher,
)

// repositorySet 仓储层
var repositorySet = wire.NewSet(
	mysql.NewBookRepository,
	mysql.NewOrderRepository,
	mysql.NewTxManager,
	wire.Bind(new(purchase.Transactor), new(*mysql.TxManager)),
	provideCartStore,
	wire.Bind(new(cart.Store), new(*redis.CartStore)),
)

// applicationSet 应用层
var applicationSet = wire.NewSet(
	providePurchaseOptions,
	purchase.NewEngine,
	purchase.NewCartCheckout,
	apporder.NewLifecycle,
	apporder.NewHistoryQuery,
	appcart.NewService,
)

// httpSet 接口层
var httpSet = wire.NewSet(
	provideJWTManager,
	middleware.NewAuthMiddleware,
	handler.NewPurchaseHandler,
	handler.NewOrderHandler,
	handler.NewCartHandler,
	handler.NewOpsHandler,
	wire.Struct(new(router.Handlers), "*"),
	router.New,
)

// InitializeApp 初始化整个应用
// cleanup按创建的逆序关闭事件发布者、Redis和数据库连接
func InitializeApp(cfg *config.Config, log zerolog.Logger) (*App, func(), error) {
	wire.Build(
		infrastructureSet,
		repositorySet,
		applicationSet,
		httpSet,
		provideApp,
	)
	return nil, nil, nil
}
