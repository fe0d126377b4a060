package order

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Status 订单状态
// 使用字符串存储,数据库里可读,也便于和消息事件保持一致
type Status string

const (
	StatusPending    Status = "pending"    // 待确认
	StatusConfirmed  Status = "confirmed"  // 已确认
	StatusProcessing Status = "processing" // 处理中
	StatusShipped    Status = "shipped"    // 已发货
	StatusDelivered  Status = "delivered"  // 已送达
	StatusCancelled  Status = "cancelled"  // 已取消
)

// transitions 合法的状态流转(唯一来源)
//
//	pending → confirmed → processing → shipped → delivered
//	pending → cancelled
//	confirmed → cancelled
var transitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped},
	StatusShipped:    {StatusDelivered},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

func (s Status) String() string {
	return string(s)
}

// DisplayName 状态展示名
func (s Status) DisplayName() string {
	switch s {
	case StatusPending:
		return "待确认"
	case StatusConfirmed:
		return "已确认"
	case StatusProcessing:
		return "处理中"
	case StatusShipped:
		return "已发货"
	case StatusDelivered:
		return "已送达"
	case StatusCancelled:
		return "已取消"
	default:
		return "未知状态"
	}
}

// IsValid 是否为已定义的状态
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal 终态没有任何出边
func (s Status) IsTerminal() bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// CanTransition 纯函数:from → to 是否为合法边
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ParseStatus 解析状态字符串
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", ErrInvalidStatus
	}
	return st, nil
}

// Order 订单实体(聚合根)
// 设计说明:
// 1. Order是聚合根,OrderItem是子实体
// 2. TotalAmount在创建时由明细求和,之后不再变化
// 3. IdempotencyKey在同一用户内唯一,重复提交返回已有订单
type Order struct {
	ID             uint
	OrderNo        string
	UserID         uint
	Status         Status
	TotalAmount    decimal.Decimal
	IdempotencyKey string
	Items          []OrderItem
	ShippedAt      *time.Time
	DeliveredAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// OrderItem 订单明细
// BookTitle和UnitPrice是下单时的快照,图书改名改价不影响历史订单
type OrderItem struct {
	ID         uint
	OrderID    uint
	BookID     uint
	BookTitle  string
	Quantity   int
	UnitPrice  decimal.Decimal
	TotalPrice decimal.Decimal
}

// NewOrderItem 创建订单明细,TotalPrice只在这里计算一次
func NewOrderItem(bookID uint, title string, unitPrice decimal.Decimal, quantity int) (OrderItem, error) {
	if quantity <= 0 {
		return OrderItem{}, ErrInvalidQuantity
	}
	price := unitPrice.Round(2)
	return OrderItem{
		BookID:     bookID,
		BookTitle:  title,
		Quantity:   quantity,
		UnitPrice:  price,
		TotalPrice: price.Mul(decimal.NewFromInt(int64(quantity))).Round(2),
	}, nil
}

// NewOrder 创建新订单(工厂方法),初始状态为pending
func NewOrder(orderNo string, userID uint, items []OrderItem, idempotencyKey string) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrInvalidOrderItems
	}
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.TotalPrice)
	}
	now := time.Now()
	return &Order{
		OrderNo:        orderNo,
		UserID:         userID,
		Status:         StatusPending,
		TotalAmount:    total.Round(2),
		IdempotencyKey: idempotencyKey,
		Items:          items,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// StatusChange 一次状态变更需要写入的字段
type StatusChange struct {
	To          Status
	At          time.Time
	ShippedAt   *time.Time
	DeliveredAt *time.Time
}

// NewStatusChange 根据目标状态生成需要落库的时间戳
func NewStatusChange(to Status, at time.Time) StatusChange {
	change := StatusChange{To: to, At: at}
	switch to {
	case StatusShipped:
		change.ShippedAt = &at
	case StatusDelivered:
		change.DeliveredAt = &at
	}
	return change
}

// Apply 把已落库的状态变更同步到实体
func (o *Order) Apply(change StatusChange) {
	o.Status = change.To
	o.UpdatedAt = change.At
	if change.ShippedAt != nil {
		o.ShippedAt = change.ShippedAt
	}
	if change.DeliveredAt != nil {
		o.DeliveredAt = change.DeliveredAt
	}
}

// CanTransitionTo 检查是否可以转换到目标状态
func (o *Order) CanTransitionTo(target Status) bool {
	return CanTransition(o.Status, target)
}

// CanBeCancelled 待确认或已确认的订单可以取消
func (o *Order) CanBeCancelled() bool {
	return o.Status == StatusPending || o.Status == StatusConfirmed
}

// CanBeModified 只有待确认的订单可以修改
func (o *Order) CanBeModified() bool {
	return o.Status == StatusPending
}

// IsOwnedBy 检查订单是否属于指定用户
func (o *Order) IsOwnedBy(userID uint) bool {
	return o.UserID == userID
}

// TotalItemsCount 订单内图书总数量
func (o *Order) TotalItemsCount() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}

// DeliveryDays 发货到送达的天数(向上取整)
// 未发货或未送达时返回false
func (o *Order) DeliveryDays() (int, bool) {
	if o.ShippedAt == nil || o.DeliveredAt == nil {
		return 0, false
	}
	d := o.DeliveredAt.Sub(*o.ShippedAt)
	return int(math.Ceil(d.Hours() / 24)), true
}

// Record 订单流水视图(每个明细一行)
type Record struct {
	OrderID    uint
	OrderNo    string
	BookID     uint
	Title      string
	Quantity   int
	UnitPrice  decimal.Decimal
	TotalPrice decimal.Decimal
	CreatedAt  time.Time
}

// Records 展开为流水记录
func (o *Order) Records() []Record {
	records := make([]Record, len(o.Items))
	for i, item := range o.Items {
		records[i] = Record{
			OrderID:    o.ID,
			OrderNo:    o.OrderNo,
			BookID:     item.BookID,
			Title:      item.BookTitle,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: item.TotalPrice,
			CreatedAt:  o.CreatedAt,
		}
	}
	return records
}
