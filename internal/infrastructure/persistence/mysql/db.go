package mysql

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/storefront/internal/infrastructure/config"
)

// NewDB 创建数据库连接
// 设计说明：
// 1. 配置连接池参数（MaxOpenConns、MaxIdleConns、ConnMaxLifetime）
// 2. 不开启TranslateError：唯一索引冲突要保留驱动原始错误，按索引名区分幂等键和订单号
// 3. 开发环境开启SQL日志，生产环境关闭
// 4. 按配置自动迁移表结构
func NewDB(cfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	logLevel := logger.Silent
	if cfg.Server.Mode == "debug" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(mysql.Open(cfg.Database.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	log.Info().
		Str("host", cfg.Database.Host).
		Str("db", cfg.Database.DBName).
		Int("lock_wait_timeout", cfg.Database.LockWaitTimeout).
		Msg("数据库连接成功")

	if cfg.Database.AutoMigrate {
		if err := AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("数据库迁移失败: %w", err)
		}
	}

	return db, nil
}

// AutoMigrate 自动迁移表结构
// 只会创建表、添加字段和索引，不会删除或修改现有字段
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&BookModel{},
		&OrderModel{},
		&OrderItemModel{},
	)
}

// BookModel GORM图书模型
// 设计说明:
// 1. 价格使用DECIMAL(12,2),shopspring/decimal负责Scan/Value
// 2. stock/popularity只通过条件UPDATE修改
type BookModel struct {
	ID         uint            `gorm:"primaryKey"`
	ISBN       string          `gorm:"uniqueIndex;size:20;not null;comment:ISBN号"`
	Title      string          `gorm:"size:200;not null;comment:书名"`
	Author     string          `gorm:"size:100;not null;comment:作者"`
	Price      decimal.Decimal `gorm:"type:decimal(12,2);not null;comment:单价"`
	Stock      int             `gorm:"not null;default:0;comment:库存数量"`
	Popularity int             `gorm:"not null;default:0;index;comment:累计售出数量"`
	CreatedAt  time.Time       `gorm:"comment:创建时间"`
	UpdatedAt  time.Time       `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (BookModel) TableName() string {
	return "books"
}

// 订单表唯一索引名,Create按名字区分冲突类型
const (
	idxOrdersOrderNo  = "idx_orders_order_no"
	idxOrdersUserIdem = "idx_orders_user_idem"
)

// OrderModel GORM订单模型
// 设计说明:
// 1. 与OrderItemModel是一对多关系
// 2. (user_id, status)复合索引服务于按状态查询订单历史
// 3. (user_id, idempotency_key)唯一索引实现幂等;key为NULL时不参与唯一约束
type OrderModel struct {
	ID             uint             `gorm:"primaryKey"`
	OrderNo        string           `gorm:"uniqueIndex:idx_orders_order_no;size:40;not null;comment:订单号"`
	UserID         uint             `gorm:"not null;index:idx_orders_user_status,priority:1;uniqueIndex:idx_orders_user_idem,priority:1;comment:买家用户ID"`
	Status         string           `gorm:"size:20;not null;default:pending;index:idx_orders_user_status,priority:2;comment:订单状态"`
	TotalAmount    decimal.Decimal  `gorm:"type:decimal(12,2);not null;comment:订单总金额"`
	IdempotencyKey *string          `gorm:"size:64;uniqueIndex:idx_orders_user_idem,priority:2;comment:幂等键"`
	Items          []OrderItemModel `gorm:"foreignKey:OrderID"`
	ShippedAt      *time.Time       `gorm:"comment:发货时间"`
	DeliveredAt    *time.Time       `gorm:"comment:送达时间"`
	CreatedAt      time.Time        `gorm:"index;comment:创建时间"`
	UpdatedAt      time.Time        `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel GORM订单明细模型
// BookTitle/UnitPrice是下单时的快照
type OrderItemModel struct {
	ID         uint            `gorm:"primaryKey"`
	OrderID    uint            `gorm:"index;not null;comment:订单ID"`
	BookID     uint            `gorm:"index;not null;comment:图书ID"`
	BookTitle  string          `gorm:"size:200;not null;comment:下单时书名"`
	Quantity   int             `gorm:"not null;comment:购买数量"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null;comment:下单时单价"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(12,2);not null;comment:明细小计"`
}

// TableName 指定表名
func (OrderItemModel) TableName() string {
	return "order_items"
}
