package order

import (
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStatuses = []Status{
	StatusPending, StatusConfirmed, StatusProcessing,
	StatusShipped, StatusDelivered, StatusCancelled,
}

func TestCanTransition(t *testing.T) {
	legal := map[[2]Status]bool{
		{StatusPending, StatusConfirmed}:    true,
		{StatusPending, StatusCancelled}:    true,
		{StatusConfirmed, StatusProcessing}: true,
		{StatusConfirmed, StatusCancelled}:  true,
		{StatusProcessing, StatusShipped}:   true,
		{StatusShipped, StatusDelivered}:    true,
	}

	// 穷举所有(from, to)组合,只有图中的边合法
	for _, from := range allStatuses {
		for _, to := range allStatuses {
			want := legal[[2]Status{from, to}]
			assert.Equal(t, want, CanTransition(from, to), "%s → %s", from, to)
		}
	}
}

func TestStatus_Terminal(t *testing.T) {
	assert.True(t, StatusDelivered.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, Status("paid").IsValid())

	_, err := ParseStatus("refunded")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	st, err := ParseStatus("shipped")
	require.NoError(t, err)
	assert.Equal(t, "已发货", st.DisplayName())
}

func TestOrder_DerivedQueries(t *testing.T) {
	cases := []struct {
		status       Status
		cancellable  bool
		modification bool
	}{
		{StatusPending, true, true},
		{StatusConfirmed, true, false},
		{StatusProcessing, false, false},
		{StatusShipped, false, false},
		{StatusDelivered, false, false},
		{StatusCancelled, false, false},
	}

	for _, tc := range cases {
		o := &Order{Status: tc.status}
		assert.Equal(t, tc.cancellable, o.CanBeCancelled(), "CanBeCancelled(%s)", tc.status)
		assert.Equal(t, tc.modification, o.CanBeModified(), "CanBeModified(%s)", tc.status)
	}
}

func TestNewOrder_TotalsAndSnapshot(t *testing.T) {
	item1, err := NewOrderItem(1, "Go语言实战", decimal.RequireFromString("900.00"), 3)
	require.NoError(t, err)
	item2, err := NewOrderItem(2, "Go并发编程", decimal.RequireFromString("19.99"), 2)
	require.NoError(t, err)

	o, err := NewOrder(GenerateOrderNo(), 7, []OrderItem{item1, item2}, "key-1")
	require.NoError(t, err)

	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, "2700.00", item1.TotalPrice.StringFixed(2))
	assert.Equal(t, "2739.98", o.TotalAmount.StringFixed(2))
	assert.Equal(t, 5, o.TotalItemsCount())

	records := o.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "Go语言实战", records[0].Title)
	assert.True(t, records[0].UnitPrice.Equal(decimal.RequireFromString("900")))

	_, err = NewOrder("x", 7, nil, "")
	assert.ErrorIs(t, err, ErrInvalidOrderItems)

	_, err = NewOrderItem(1, "t", decimal.NewFromInt(1), 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestOrder_ApplyAndDeliveryDays(t *testing.T) {
	o := &Order{Status: StatusProcessing}
	_, ok := o.DeliveryDays()
	assert.False(t, ok)

	shipped := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	o.Apply(NewStatusChange(StatusShipped, shipped))
	assert.Equal(t, StatusShipped, o.Status)
	require.NotNil(t, o.ShippedAt)
	assert.Nil(t, o.DeliveredAt)

	o.Apply(NewStatusChange(StatusDelivered, shipped.Add(49*time.Hour)))
	days, ok := o.DeliveryDays()
	assert.True(t, ok)
	assert.Equal(t, 3, days)
}

func TestGenerateOrderNo(t *testing.T) {
	assert.Regexp(t, regexp.MustCompile(`^ORD-\d{13}-[0-9a-f]{12}$`), GenerateOrderNo())
}

func TestGenerateOrderNo_ConcurrentUnique(t *testing.T) {
	const n = 200
	out := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out <- GenerateOrderNo()
		}()
	}
	wg.Wait()
	close(out)

	seen := make(map[string]bool, n)
	for no := range out {
		assert.False(t, seen[no], "订单号重复: %s", no)
		seen[no] = true
	}
	assert.Len(t, seen, n)
}
