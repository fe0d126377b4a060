package errors

import (
	"errors"
	"fmt"
)

// AppError 自定义应用错误
// 设计说明：
// 1. Code用于客户端判断错误类型（不直接暴露HTTP状态码）
// 2. Message是用户友好的提示信息
// 3. Err是内部错误，仅记录到日志，不返回给客户端
type AppError struct {
	Code    int    `json:"code"`    // 业务错误码
	Message string `json:"message"` // 用户友好的错误提示
	Err     error  `json:"-"`       // 内部错误（不序列化）
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持errors.Is和errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 按错误码比较
// 同一个预定义错误被WithCause包装后仍然能被errors.Is识别
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// WithCause 复制错误并附带内部原因
func (e *AppError) WithCause(err error) *AppError {
	return &AppError{Code: e.Code, Message: e.Message, Err: err}
}

// New 创建新的AppError
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装系统错误（如数据库错误、网络错误）
func Wrap(err error, message string) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
		Err:     err,
	}
}

// Wrapf 格式化包装错误
func Wrapf(err error, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// =========================================
// 错误码定义
// =========================================
// 规范：
// - 4xxxx: 客户端错误（参数错误、业务规则校验失败）
// - 5xxxx: 服务端错误（数据库异常、资源繁忙）

const (
	// 系统级错误码（50000-50099）
	ErrCodeInternal      = 50000 // 内部错误
	ErrCodeDatabaseError = 50001 // 数据库错误
	ErrCodeRedisError    = 50002 // Redis错误
	ErrCodeBusy          = 50003 // 资源繁忙（锁等待超时/死锁），可重试

	// 认证授权错误（40100-40199）
	ErrCodeUnauthorized = 40100 // 未登录
	ErrCodeInvalidToken = 40101 // Token无效
	ErrCodeTokenExpired = 40102 // Token过期
	ErrCodeForbidden    = 40104 // 无权限

	// 资源错误（40400-40499）
	ErrCodeNotFound      = 40400 // 资源不存在(通用)
	ErrCodeBookNotFound  = 40402 // 图书不存在
	ErrCodeOrderNotFound = 40403 // 订单不存在

	// 业务规则错误（40000-40099）
	ErrCodeBusinessError      = 40000 // 业务错误(通用)
	ErrCodeInsufficientStock  = 40001 // 库存不足
	ErrCodeInvalidOrderStatus = 40002 // 订单状态非法
	ErrCodeEmptyCart          = 40006 // 购物车为空
	ErrCodeDuplicateEntry     = 40009 // 重复记录(通用)

	// 参数错误（40900-40999）
	ErrCodeInvalidParams = 40900 // 参数错误
	ErrCodeBindError     = 40901 // 参数绑定失败
)

// =========================================
// 预定义错误
// =========================================

var (
	// 系统错误
	ErrInternal      = New(ErrCodeInternal, "系统内部错误")
	ErrDatabaseError = New(ErrCodeDatabaseError, "数据库错误")
	ErrRedisError    = New(ErrCodeRedisError, "缓存服务错误")
	ErrBusy          = New(ErrCodeBusy, "系统繁忙，请稍后重试")

	// 认证授权
	ErrUnauthorized = New(ErrCodeUnauthorized, "请先登录")
	ErrInvalidToken = New(ErrCodeInvalidToken, "无效的Token")
	ErrTokenExpired = New(ErrCodeTokenExpired, "Token已过期")
	ErrForbidden    = New(ErrCodeForbidden, "无权限访问")

	// 资源不存在
	ErrNotFound = New(ErrCodeNotFound, "资源不存在")

	// 参数错误
	ErrInvalidParams = New(ErrCodeInvalidParams, "参数错误")
	ErrBindError     = New(ErrCodeBindError, "参数格式错误")
)

// =========================================
// 辅助函数
// =========================================

// Detailer 携带结构化细节的错误（如库存不足时的可用数量）
// response层会把Detail()放进响应的data字段
type Detailer interface {
	Detail() interface{}
}

// IsAppError 判断是否为AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError 提取AppError（如果不是AppError则包装成Internal错误）
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, "系统内部错误")
}

// GetDetail 提取错误链上的细节数据，没有则返回nil
func GetDetail(err error) interface{} {
	var d Detailer
	if errors.As(err, &d) {
		return d.Detail()
	}
	return nil
}
