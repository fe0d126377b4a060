// Package metrics 基于Prometheus的指标收集
//
// 指标分三类:
//   - HTTP:请求数、耗时、处理中的请求数
//   - 业务:购买结果、购买耗时、售出数量、订单状态流转
//   - 依赖:事件发布结果、熔断器状态
//
// 命名规范:Counter以_total结尾,Histogram以单位结尾(_seconds)。
// 标签只用有限取值的维度(result、action),不要用user_id/book_id。
//
// 使用示例:
//
//	metrics.InitMetrics()
//	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
//
//	start := time.Now()
//	_, err := engine.Purchase(ctx, req)
//	metrics.ObservePurchase("single", "success", time.Since(start))
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	initOnce sync.Once

	// HTTPRequestsTotal HTTP请求总数
	// 标签:method、path(路由模板)、status
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration HTTP请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsInProgress 正在处理的HTTP请求数
	HTTPRequestsInProgress prometheus.Gauge

	// PurchasesTotal 购买次数
	// 标签:kind(single/checkout)、result(success/insufficient_stock/busy/not_found/replayed/error)
	PurchasesTotal *prometheus.CounterVec

	// PurchaseDuration 购买事务耗时(含等待行锁)
	PurchaseDuration *prometheus.HistogramVec

	// BooksSoldTotal 售出图书数量
	BooksSoldTotal prometheus.Counter

	// PurchasesInProgress 正在执行的购买事务数
	PurchasesInProgress prometheus.Gauge

	// OrderTransitionsTotal 订单状态流转次数
	// 标签:action(confirm/process/ship/deliver/cancel)、result(success/illegal/not_found/error)
	OrderTransitionsTotal *prometheus.CounterVec

	// EventsPublishedTotal 事件发布次数
	// 标签:type(order.created/order.status_changed)、result(success/failure/rejected)
	EventsPublishedTotal *prometheus.CounterVec

	// CircuitBreakerState 熔断器状态(0=CLOSED, 1=OPEN, 2=HALF_OPEN)
	CircuitBreakerState *prometheus.GaugeVec
)

// InitMetrics 注册所有指标到默认Registry
// 可以重复调用,只有第一次生效
func InitMetrics() {
	initOnce.Do(func() {
		HTTPRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "HTTP请求总数",
			},
			[]string{"method", "path", "status"},
		)

		HTTPRequestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP请求耗时（秒）",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
			},
			[]string{"method", "path"},
		)

		HTTPRequestsInProgress = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_progress",
				Help: "正在处理的HTTP请求数",
			},
		)

		PurchasesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "purchases_total",
				Help: "购买次数",
			},
			[]string{"kind", "result"},
		)

		// 购买耗时主要取决于行锁等待,上限由purchase.lock_timeout决定
		PurchaseDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "purchase_duration_seconds",
				Help:    "购买事务耗时（秒）",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"kind"},
		)

		BooksSoldTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "books_sold_total",
				Help: "售出图书数量",
			},
		)

		PurchasesInProgress = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "purchases_in_progress",
				Help: "正在执行的购买事务数",
			},
		)

		OrderTransitionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "order_transitions_total",
				Help: "订单状态流转次数",
			},
			[]string{"action", "result"},
		)

		EventsPublishedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "order_events_published_total",
				Help: "订单事件发布次数",
			},
			[]string{"type", "result"},
		)

		CircuitBreakerState = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）",
			},
			[]string{"name"},
		)
	})
}

// ObservePurchase 记录一次购买的结果和耗时
func ObservePurchase(kind, result string, d time.Duration) {
	InitMetrics()
	PurchasesTotal.WithLabelValues(kind, result).Inc()
	PurchaseDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// AddBooksSold 累加售出数量
func AddBooksSold(n int) {
	InitMetrics()
	BooksSoldTotal.Add(float64(n))
}

// TrackPurchaseInProgress 处理中计数+1,返回的函数用于-1
func TrackPurchaseInProgress() func() {
	InitMetrics()
	PurchasesInProgress.Inc()
	return PurchasesInProgress.Dec
}

// ObserveTransition 记录一次订单状态流转
func ObserveTransition(action, result string) {
	InitMetrics()
	OrderTransitionsTotal.WithLabelValues(action, result).Inc()
}

// ObserveEvent 记录一次事件发布
func ObserveEvent(eventType, result string) {
	InitMetrics()
	EventsPublishedTotal.WithLabelValues(eventType, result).Inc()
}

// SetBreakerState 更新熔断器状态
func SetBreakerState(name string, state int) {
	InitMetrics()
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// ObserveHTTP 记录一次HTTP请求
func ObserveHTTP(method, path, status string, d time.Duration) {
	InitMetrics()
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}
