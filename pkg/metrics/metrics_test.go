package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	return m.GetGauge().GetValue()
}

func TestInitMetrics_Idempotent(t *testing.T) {
	InitMetrics()
	InitMetrics() // 重复调用不应panic(重复注册)

	assert.NotNil(t, HTTPRequestsTotal)
	assert.NotNil(t, PurchasesTotal)
	assert.NotNil(t, OrderTransitionsTotal)
	assert.NotNil(t, CircuitBreakerState)
}

func TestObservePurchase(t *testing.T) {
	InitMetrics()
	c := PurchasesTotal.WithLabelValues("single", "insufficient_stock")
	before := counterValue(t, c)

	ObservePurchase("single", "insufficient_stock", 20*time.Millisecond)
	ObservePurchase("single", "insufficient_stock", 30*time.Millisecond)

	assert.Equal(t, before+2, counterValue(t, c))
}

func TestTrackPurchaseInProgress(t *testing.T) {
	InitMetrics()
	before := gaugeValue(t, PurchasesInProgress)

	done := TrackPurchaseInProgress()
	assert.Equal(t, before+1, gaugeValue(t, PurchasesInProgress))
	done()
	assert.Equal(t, before, gaugeValue(t, PurchasesInProgress))
}

func TestObserveTransitionAndEvent(t *testing.T) {
	InitMetrics()
	tr := OrderTransitionsTotal.WithLabelValues("cancel", "illegal")
	ev := EventsPublishedTotal.WithLabelValues("order.created", "rejected")
	trBefore, evBefore := counterValue(t, tr), counterValue(t, ev)

	ObserveTransition("cancel", "illegal")
	ObserveEvent("order.created", "rejected")

	assert.Equal(t, trBefore+1, counterValue(t, tr))
	assert.Equal(t, evBefore+1, counterValue(t, ev))
}

func TestSetBreakerState(t *testing.T) {
	SetBreakerState("events", 1)
	assert.Equal(t, float64(1), gaugeValue(t, CircuitBreakerState.WithLabelValues("events")))
}
