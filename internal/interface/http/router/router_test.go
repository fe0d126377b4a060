package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	appcart "github.com/xiebiao/storefront/internal/application/cart"
	apporder "github.com/xiebiao/storefront/internal/application/order"
	"github.com/xiebiao/storefront/internal/application/purchase"
	"github.com/xiebiao/storefront/internal/infrastructure/config"
	"github.com/xiebiao/storefront/internal/interface/http/handler"
	"github.com/xiebiao/storefront/internal/interface/http/middleware"
	"github.com/xiebiao/storefront/internal/testutil/memstore"
	apperrors "github.com/xiebiao/storefront/pkg/errors"
	"github.com/xiebiao/storefront/pkg/jwt"
)

const opsKey = "ops-secret"

type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type RouterSuite struct {
	suite.Suite
	store  *memstore.Store
	carts  *memstore.Cart
	jwt    *jwt.Manager
	engine *gin.Engine
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	s.store = memstore.New()
	s.carts = memstore.NewCart()
	s.jwt = jwt.NewManager("test-secret", "storefront", time.Hour)
	events := &memstore.Recorder{}
	log := zerolog.Nop()

	cfg := &config.Config{}
	cfg.Server.Mode = "test"
	cfg.Ops.APIKey = opsKey

	engine := purchase.NewEngine(s.store.Books(), s.store.Orders(), s.store, events, log, purchase.Options{
		LockTimeout: time.Second,
		MaxQuantity: 100,
	})
	lifecycle := apporder.NewLifecycle(s.store.Orders(), events, log)

	s.engine = New(cfg, log, Handlers{
		Purchase: handler.NewPurchaseHandler(engine),
		Order:    handler.NewOrderHandler(apporder.NewHistoryQuery(s.store.Orders()), lifecycle),
		Cart:     handler.NewCartHandler(appcart.NewService(s.carts, s.store.Books(), log), purchase.NewCartCheckout(s.carts, engine, log)),
		Ops:      handler.NewOpsHandler(lifecycle),
	}, middleware.NewAuthMiddleware(s.jwt))

	s.store.AddBook(1, "Go语言实战", "900.00", 5)
	s.store.AddBook(2, "深入理解计算机系统", "139.00", 1)
}

func (s *RouterSuite) do(method, path string, userID uint, body interface{}, headers map[string]string) apiResponse {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		token, err := s.jwt.GenerateToken(userID)
		s.Require().NoError(err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	s.Require().Equal(http.StatusOK, w.Code)
	s.NotEmpty(w.Header().Get("X-Request-ID"))

	var resp apiResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func (s *RouterSuite) decode(raw json.RawMessage, v interface{}) {
	s.Require().NoError(json.Unmarshal(raw, v))
}

func (s *RouterSuite) TestPing() {
	resp := s.do(http.MethodGet, "/ping", 0, nil, nil)
	s.Equal(0, resp.Code)
}

func (s *RouterSuite) TestPurchase_Success() {
	resp := s.do(http.MethodPost, "/api/v1/books/1/purchase", 7, gin.H{"quantity": 3}, nil)
	s.Require().Equal(0, resp.Code, resp.Message)

	var data struct {
		Order struct {
			ID          uint   `json:"id"`
			Status      string `json:"status"`
			TotalAmount string `json:"total_amount"`
			Items       []struct {
				UnitPrice string `json:"unit_price"`
				Quantity  int    `json:"quantity"`
			} `json:"items"`
		} `json:"order"`
		Stock      int `json:"stock"`
		Popularity int `json:"popularity"`
	}
	s.decode(resp.Data, &data)
	s.Equal("pending", data.Order.Status)
	s.Equal("2700.00", data.Order.TotalAmount)
	s.Require().Len(data.Order.Items, 1)
	s.Equal("900.00", data.Order.Items[0].UnitPrice)
	s.Equal(2, data.Stock)
	s.Equal(3, data.Popularity)
}

func (s *RouterSuite) TestPurchase_InsufficientStockCarriesAvailable() {
	resp := s.do(http.MethodPost, "/api/v1/books/2/purchase", 7, gin.H{"quantity": 2}, nil)
	s.Equal(apperrors.ErrCodeInsufficientStock, resp.Code)

	var detail struct {
		BookID    uint `json:"book_id"`
		Requested int  `json:"requested"`
		Available int  `json:"available"`
	}
	s.decode(resp.Data, &detail)
	s.Equal(uint(2), detail.BookID)
	s.Equal(2, detail.Requested)
	s.Equal(1, detail.Available)
}

func (s *RouterSuite) TestPurchase_IdempotencyKeyHeader() {
	headers := map[string]string{"Idempotency-Key": "abc"}
	first := s.do(http.MethodPost, "/api/v1/books/1/purchase", 7, gin.H{"quantity": 1}, headers)
	second := s.do(http.MethodPost, "/api/v1/books/1/purchase", 7, gin.H{"quantity": 1}, headers)
	s.Require().Equal(0, first.Code)
	s.Require().Equal(0, second.Code)

	var a, b struct {
		Order struct {
			ID uint `json:"id"`
		} `json:"order"`
		Replayed bool `json:"replayed"`
	}
	s.decode(first.Data, &a)
	s.decode(second.Data, &b)
	s.Equal(a.Order.ID, b.Order.ID)
	s.False(a.Replayed)
	s.True(b.Replayed)
	s.Equal(4, s.store.Book(1).Stock)
}

func (s *RouterSuite) TestPurchase_RequestErrors() {
	resp := s.do(http.MethodPost, "/api/v1/books/1/purchase", 0, gin.H{"quantity": 1}, nil)
	s.Equal(apperrors.ErrCodeUnauthorized, resp.Code)

	resp = s.do(http.MethodPost, "/api/v1/books/abc/purchase", 7, gin.H{"quantity": 1}, nil)
	s.Equal(apperrors.ErrCodeInvalidParams, resp.Code)

	resp = s.do(http.MethodPost, "/api/v1/books/1/purchase", 7, gin.H{"quantity": 0}, nil)
	s.Equal(apperrors.ErrCodeInvalidParams, resp.Code)

	resp = s.do(http.MethodPost, "/api/v1/books/99/purchase", 7, gin.H{"quantity": 1}, nil)
	s.Equal(apperrors.ErrCodeBookNotFound, resp.Code)
}

func (s *RouterSuite) TestCheckout_AllOrNothing() {
	resp := s.do(http.MethodPost, "/api/v1/orders", 7, gin.H{"items": []gin.H{
		{"book_id": 1, "quantity": 1},
		{"book_id": 2, "quantity": 5},
	}}, nil)
	s.Equal(apperrors.ErrCodeInsufficientStock, resp.Code)
	s.Equal(5, s.store.Book(1).Stock)
	s.Zero(s.store.OrderCount())
}

func (s *RouterSuite) TestOrderLifecycleThroughOps() {
	resp := s.do(http.MethodPost, "/api/v1/books/1/purchase", 7, gin.H{"quantity": 1}, nil)
	s.Require().Equal(0, resp.Code)
	var created struct {
		Order struct {
			ID uint `json:"id"`
		} `json:"order"`
	}
	s.decode(resp.Data, &created)
	id := created.Order.ID

	// 没有运营密钥
	resp = s.do(http.MethodPost, fmt.Sprintf("/api/v1/ops/orders/%d/confirm", id), 0, nil, nil)
	s.Equal(apperrors.ErrCodeForbidden, resp.Code)
	resp = s.do(http.MethodPost, fmt.Sprintf("/api/v1/ops/orders/%d/confirm", id), 0, nil, map[string]string{"X-API-Key": "wrong"})
	s.Equal(apperrors.ErrCodeForbidden, resp.Code)

	key := map[string]string{"X-API-Key": opsKey}
	for _, action := range []string{"confirm", "process", "ship", "deliver"} {
		resp = s.do(http.MethodPost, fmt.Sprintf("/api/v1/ops/orders/%d/%s", id, action), 0, nil, key)
		s.Require().Equal(0, resp.Code, action)
	}

	var o struct {
		Status         string `json:"status"`
		CanBeCancelled bool   `json:"can_be_cancelled"`
		ShippedAt      string `json:"shipped_at"`
		DeliveredAt    string `json:"delivered_at"`
	}
	s.decode(resp.Data, &o)
	s.Equal("delivered", o.Status)
	s.False(o.CanBeCancelled)
	s.NotEmpty(o.ShippedAt)
	s.NotEmpty(o.DeliveredAt)

	// 已送达不能取消
	resp = s.do(http.MethodPost, fmt.Sprintf("/api/v1/ops/orders/%d/cancel", id), 0, nil, key)
	s.Equal(apperrors.ErrCodeInvalidOrderStatus, resp.Code)
}

func (s *RouterSuite) TestOwnerCancelAndHistory() {
	resp := s.do(http.MethodPost, "/api/v1/books/1/purchase", 7, gin.H{"quantity": 1}, nil)
	s.Require().Equal(0, resp.Code)
	var created struct {
		Order struct {
			ID uint `json:"id"`
		} `json:"order"`
	}
	s.decode(resp.Data, &created)
	path := fmt.Sprintf("/api/v1/orders/%d", created.Order.ID)

	// 其他用户看不到也取消不了
	s.Equal(apperrors.ErrCodeOrderNotFound, s.do(http.MethodGet, path, 8, nil, nil).Code)
	s.Equal(apperrors.ErrCodeOrderNotFound, s.do(http.MethodPost, path+"/cancel", 8, nil, nil).Code)

	resp = s.do(http.MethodPost, path+"/cancel", 7, nil, nil)
	s.Require().Equal(0, resp.Code)
	resp = s.do(http.MethodPost, path+"/cancel", 7, nil, nil)
	s.Equal(apperrors.ErrCodeInvalidOrderStatus, resp.Code)

	// 取消不回补库存
	s.Equal(4, s.store.Book(1).Stock)

	resp = s.do(http.MethodGet, "/api/v1/orders?page=1&page_size=5&status=cancelled", 7, nil, nil)
	s.Require().Equal(0, resp.Code)
	var page struct {
		List []struct {
			ID     uint   `json:"id"`
			Status string `json:"status"`
		} `json:"list"`
		Total    int64 `json:"total"`
		PageSize int   `json:"page_size"`
	}
	s.decode(resp.Data, &page)
	s.Equal(int64(1), page.Total)
	s.Equal(5, page.PageSize)
	s.Require().Len(page.List, 1)
	s.Equal("cancelled", page.List[0].Status)

	resp = s.do(http.MethodGet, "/api/v1/orders?status=unknown", 7, nil, nil)
	s.Equal(apperrors.ErrCodeInvalidParams, resp.Code)
}

func (s *RouterSuite) TestCartFlow() {
	s.Equal(0, s.do(http.MethodPost, "/api/v1/cart/items", 7, gin.H{"book_id": 1, "quantity": 2}, nil).Code)
	s.Equal(0, s.do(http.MethodPost, "/api/v1/cart/items", 7, gin.H{"book_id": 2, "quantity": 1}, nil).Code)

	// 加购超过库存只做提示,不占用库存
	resp := s.do(http.MethodPost, "/api/v1/cart/items", 7, gin.H{"book_id": 2, "quantity": 1}, nil)
	s.Equal(apperrors.ErrCodeInsufficientStock, resp.Code)

	resp = s.do(http.MethodPut, "/api/v1/cart/items/1", 7, gin.H{"quantity": 3}, nil)
	s.Equal(0, resp.Code)

	resp = s.do(http.MethodGet, "/api/v1/cart", 7, nil, nil)
	s.Require().Equal(0, resp.Code)
	var view struct {
		TotalItems int    `json:"total_items"`
		Total      string `json:"total"`
	}
	s.decode(resp.Data, &view)
	s.Equal(4, view.TotalItems)
	s.Equal("2839.00", view.Total)

	resp = s.do(http.MethodPost, "/api/v1/cart/checkout", 7, nil, nil)
	s.Require().Equal(0, resp.Code, resp.Message)
	s.Equal(2, s.store.Book(1).Stock)
	s.Equal(0, s.store.Book(2).Stock)

	resp = s.do(http.MethodPost, "/api/v1/cart/checkout", 7, nil, nil)
	s.Equal(apperrors.ErrCodeEmptyCart, resp.Code)

	s.Equal(0, s.do(http.MethodDelete, "/api/v1/cart/items/1", 7, nil, nil).Code)
}

func TestRequireOpsKey_EmptyConfigRejectsEverything(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ops", middleware.RequireOpsKey(""), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/ops", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, apperrors.ErrCodeForbidden, resp.Code)
}
