package book

import (
	"time"

	"github.com/shopspring/decimal"
)

// Book 图书实体(领域模型)
// 设计说明:
// 1. Price使用decimal定点数(对应DECIMAL(12,2)),避免浮点误差
// 2. Stock和Popularity只能通过购买流程变化,二者必须在同一事务内更新
// 3. 不依赖GORM,持久化由infrastructure层负责转换
type Book struct {
	ID         uint
	ISBN       string
	Title      string
	Author     string
	Price      decimal.Decimal // 单价(元,两位小数)
	Stock      int             // 库存数量,永不为负
	Popularity int             // 累计售出数量,只增不减
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewBook 创建图书(工厂方法)
func NewBook(isbn, title, author string, price decimal.Decimal, stock int) (*Book, error) {
	if price.IsNegative() {
		return nil, ErrInvalidPrice
	}
	if stock < 0 {
		return nil, ErrInvalidStock
	}
	now := time.Now()
	return &Book{
		ISBN:      isbn,
		Title:     title,
		Author:    author,
		Price:     price.Round(2),
		Stock:     stock,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// CanSupply 判断当前库存能否满足购买数量
// 返回*InsufficientStockError时携带可用库存,供调用方展示
func (b *Book) CanSupply(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if b.Stock < quantity {
		return &InsufficientStockError{
			BookID:    b.ID,
			Requested: quantity,
			Available: b.Stock,
		}
	}
	return nil
}

// ApplyPurchase 扣减库存并累加热度(内存态)
// 持久化由Repository.ApplyPurchase的条件更新完成,这里保持实体与数据库一致
func (b *Book) ApplyPurchase(quantity int) error {
	if err := b.CanSupply(quantity); err != nil {
		return err
	}
	b.Stock -= quantity
	b.Popularity += quantity
	b.UpdatedAt = time.Now()
	return nil
}

// Subtotal 计算购买quantity本的金额
func (b *Book) Subtotal(quantity int) decimal.Decimal {
	return b.Price.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}
