package main

import (
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/xiebiao/storefront/internal/application/purchase"
	"github.com/xiebiao/storefront/internal/infrastructure/config"
	"github.com/xiebiao/storefront/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/storefront/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/storefront/pkg/jwt"
)

// App 组装完成的应用
type App struct {
	Router *gin.Engine
}

// ========================================
// Custom Providers (自定义Provider)
// ========================================
// 构造函数参数需要从Config中提取的,在这里手写Provider
// 放在wire.go之外,wire_gen.go才能引用

func provideDB(cfg *config.Config, log zerolog.Logger) (*gorm.DB, func(), error) {
	db, err := mysql.NewDB(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return db, cleanup, nil
}

func provideRedisClient(cfg *config.Config, log zerolog.Logger) (*goredis.Client, func(), error) {
	client, err := redis.NewClient(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

func provideCartStore(client *goredis.Client, cfg *config.Config) *redis.CartStore {
	return redis.NewCartStore(client, cfg.Redis.CartTTL)
}

func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTokenExpire)
}

func providePurchaseOptions(cfg *config.Config) purchase.Options {
	return purchase.Options{
		LockTimeout: cfg.Purchase.LockTimeout,
		MaxQuantity: cfg.Purchase.MaxQuantity,
	}
}

func provideApp(r *gin.Engine) *App {
	return &App{Router: r}
}
