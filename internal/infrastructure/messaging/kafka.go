package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/xiebiao/storefront/internal/domain/order"
)

// messageWriter kafka.Writer的最小接口,便于测试替换
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher 通过Kafka发布订单事件
// 以订单ID为消息Key,同一订单的事件落在同一分区,消费端按顺序处理
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher 创建同步写入的Kafka生产者
func NewKafkaPublisher(brokers []string, topic string, log zerolog.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
		MaxAttempts:  3,
		Async:        false,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			log.Error().Msgf("kafka producer: "+msg, args...)
		}),
	}
	return &KafkaPublisher{writer: w}
}

// Publish 发布事件
func (p *KafkaPublisher) Publish(ctx context.Context, event order.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("事件序列化失败: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(event.OrderID), 10)),
		Value: body,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
		Time: event.OccurredAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("写入Kafka失败: %w", err)
	}
	return nil
}

// Close 刷新缓冲并关闭
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
