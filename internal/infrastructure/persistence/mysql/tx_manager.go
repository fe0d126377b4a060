package mysql

import (
	"context"
	"errors"
	"strings"

	gomysql "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

// MySQL错误码
const (
	errLockWaitTimeout = 1205 // Lock wait timeout exceeded
	errDeadlock        = 1213 // Deadlock found when trying to get lock
	errDuplicateEntry  = 1062 // Duplicate entry for key
)

type txKey struct{}

// TxManager 事务管理器
// 设计说明:
// 1. 封装GORM的Transaction方法
// 2. 通过context传递事务DB,Repository用getDB(ctx)取出
// 3. 锁等待超时、死锁、context超时统一转换为ErrBusy
type TxManager struct {
	db *gorm.DB
}

// NewTxManager 创建事务管理器
func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db}
}

// Transaction 执行事务
// fn返回error时ROLLBACK,返回nil时COMMIT
//
// 使用示例:
//
//	err := txManager.Transaction(ctx, func(ctx context.Context) error {
//	    b, err := bookRepo.LockByID(ctx, bookID)
//	    if err != nil {
//	        return err
//	    }
//	    if err := bookRepo.ApplyPurchase(ctx, b.ID, qty); err != nil {
//	        return err
//	    }
//	    return orderRepo.Create(ctx, o)
//	})
func (m *TxManager) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
	return translateBusy(err)
}

// withTx 从context获取事务DB,没有则使用默认DB
func withTx(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return db.WithContext(ctx)
}

// translateBusy 把锁竞争类错误转换为ErrBusy,其余原样返回
func translateBusy(err error) error {
	if err == nil || errors.Is(err, apperrors.ErrBusy) {
		return err
	}
	if isBusyError(err) {
		return apperrors.ErrBusy.WithCause(err)
	}
	return err
}

func isBusyError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var myErr *gomysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == errLockWaitTimeout || myErr.Number == errDeadlock
	}
	return false
}

// isDuplicateError 判断是否为唯一索引冲突
func isDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *gomysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == errDuplicateEntry
}

// duplicateIndex 1062错误命中的索引名
// 消息形如: Duplicate entry '7-key-1' for key 'orders.idx_orders_user_idem'
func duplicateIndex(err error) string {
	var myErr *gomysql.MySQLError
	if !errors.As(err, &myErr) || myErr.Number != errDuplicateEntry {
		return ""
	}
	i := strings.LastIndex(myErr.Message, "for key '")
	if i < 0 {
		return ""
	}
	name := strings.TrimSuffix(myErr.Message[i+len("for key '"):], "'")
	// MySQL 8 带表名前缀
	if j := strings.LastIndex(name, "."); j >= 0 {
		name = name[j+1:]
	}
	return name
}
