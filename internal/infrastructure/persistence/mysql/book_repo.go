package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/storefront/internal/domain/book"
	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

// bookRepository 图书仓储实现(MySQL)
// 设计说明:
// 1. 实现domain/book/repository.go定义的接口
// 2. 负责domain实体与GORM模型之间的转换
// 3. 锁相关错误(1205/1213/ctx超时)转换为ErrBusy
type bookRepository struct {
	db *gorm.DB
}

// NewBookRepository 创建图书仓储
func NewBookRepository(db *gorm.DB) book.Repository {
	return &bookRepository{db: db}
}

// Create 新增图书
func (r *bookRepository) Create(ctx context.Context, b *book.Book) error {
	model := toBookModel(b)
	if err := withTx(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return apperrors.New(apperrors.ErrCodeDuplicateEntry, "ISBN号已存在")
		}
		return apperrors.Wrap(err, "创建图书失败")
	}

	b.ID = model.ID
	b.CreatedAt = model.CreatedAt
	b.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByID 根据ID查找图书(不加锁)
func (r *bookRepository) FindByID(ctx context.Context, id uint) (*book.Book, error) {
	var model BookModel
	if err := withTx(ctx, r.db).First(&model, id).Error; err != nil {
		return nil, r.translate(err, "查询图书失败")
	}
	return toBookEntity(&model), nil
}

// LockByID 悲观锁查询图书
// SELECT * FROM books WHERE id = ? FOR UPDATE
// 必须在TxManager.Transaction内调用,否则锁在语句结束后立即释放
func (r *bookRepository) LockByID(ctx context.Context, id uint) (*book.Book, error) {
	var model BookModel
	err := withTx(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, id).Error
	if err != nil {
		return nil, r.translate(err, "锁定图书失败")
	}
	return toBookEntity(&model), nil
}

// ApplyPurchase 条件扣减库存并累加热度(单条UPDATE,原子)
// UPDATE books SET stock = stock - ?, popularity = popularity + ?, updated_at = ?
// WHERE id = ? AND stock >= ?
func (r *bookRepository) ApplyPurchase(ctx context.Context, id uint, quantity int) error {
	if quantity <= 0 {
		return book.ErrInvalidQuantity
	}

	result := withTx(ctx, r.db).Model(&BookModel{}).
		Where("id = ? AND stock >= ?", id, quantity).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock - ?", quantity),
			"popularity": gorm.Expr("popularity + ?", quantity),
		})
	if result.Error != nil {
		return r.translate(result.Error, "扣减库存失败")
	}

	if result.RowsAffected == 0 {
		// 图书不存在或库存不足,再查一次区分原因
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		return book.ErrStockConflict
	}
	return nil
}

func (r *bookRepository) translate(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return book.ErrBookNotFound
	}
	if isBusyError(err) {
		return apperrors.ErrBusy.WithCause(err)
	}
	return apperrors.Wrap(err, msg)
}

// =========================================
// 辅助函数:模型转换
// =========================================

func toBookModel(b *book.Book) *BookModel {
	return &BookModel{
		ID:         b.ID,
		ISBN:       b.ISBN,
		Title:      b.Title,
		Author:     b.Author,
		Price:      b.Price,
		Stock:      b.Stock,
		Popularity: b.Popularity,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}

func toBookEntity(model *BookModel) *book.Book {
	return &book.Book{
		ID:         model.ID,
		ISBN:       model.ISBN,
		Title:      model.Title,
		Author:     model.Author,
		Price:      model.Price,
		Stock:      model.Stock,
		Popularity: model.Popularity,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}
}
