package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/xiebiao/storefront/pkg/errors"
	"github.com/xiebiao/storefront/pkg/jwt"
	"github.com/xiebiao/storefront/pkg/response"
)

const (
	contextKeyUserID = "user_id"
	headerAPIKey     = "X-API-Key"
)

// AuthMiddleware JWT认证中间件
// 只解析Token取出用户身份,不负责登录和会话管理
type AuthMiddleware struct {
	jwtManager *jwt.Manager
}

// NewAuthMiddleware 创建认证中间件
func NewAuthMiddleware(jwtManager *jwt.Manager) *AuthMiddleware {
	return &AuthMiddleware{jwtManager: jwtManager}
}

// RequireAuth 要求登录
// 使用方式:
//
//	authorized := r.Group("/api/v1")
//	authorized.Use(authMiddleware.RequireAuth())
//	authorized.POST("/books/:id/purchase", purchaseHandler.Purchase)
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 格式:Authorization: Bearer <token>
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.ErrorWithCode(c, apperrors.ErrCodeInvalidToken, "Token格式错误")
			c.Abort()
			return
		}

		claims, err := m.jwtManager.ParseToken(parts[1])
		if err != nil {
			response.Error(c, err) // ErrTokenExpired / ErrInvalidToken
			c.Abort()
			return
		}

		c.Set(contextKeyUserID, claims.UserID)
		c.Next()
	}
}

// RequireOpsKey 运营接口鉴权(订单状态推进)
// X-API-Key与配置的ops.api_key做常量时间比较
func RequireOpsKey(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader(headerAPIKey)
		if apiKey == "" || provided == "" ||
			subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
			response.Error(c, apperrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserID 从Context获取当前登录用户ID,未登录返回0
func GetUserID(c *gin.Context) uint {
	if userID, exists := c.Get(contextKeyUserID); exists {
		if uid, ok := userID.(uint); ok {
			return uid
		}
	}
	return 0
}

// MustGetUserID 从Context获取用户ID(如果不存在则panic)
// 用于已经通过RequireAuth中间件的Handler
func MustGetUserID(c *gin.Context) uint {
	userID := GetUserID(c)
	if userID == 0 {
		panic("user_id not found in context")
	}
	return userID
}
