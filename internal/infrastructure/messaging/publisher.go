// Package messaging 订单事件投递
//
// 按events.driver选择实现:
//
//	none      NoopPublisher(只打日志)
//	rabbitmq  RabbitPublisher(pkg/mq)
//	kafka     KafkaPublisher(segmentio/kafka-go)
//
// 除none外都包一层ResilientPublisher(超时+熔断+指标)。
package messaging

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/xiebiao/storefront/internal/domain/order"
	"github.com/xiebiao/storefront/internal/infrastructure/config"
)

// NewPublisher 根据配置创建事件发布者
// 返回的cleanup负责关闭底层连接
func NewPublisher(cfg *config.Config, log zerolog.Logger) (order.EventPublisher, func(), error) {
	log = log.With().Str("component", "events").Str("driver", cfg.Events.Driver).Logger()

	var (
		inner  order.EventPublisher
		closer io.Closer
	)
	switch cfg.Events.Driver {
	case "", "none":
		return NewNoopPublisher(log), func() {}, nil
	case "rabbitmq":
		p, err := NewRabbitPublisher(cfg.Events.URL, cfg.Events.Exchange)
		if err != nil {
			return nil, nil, err
		}
		inner, closer = p, p
	case "kafka":
		p := NewKafkaPublisher(cfg.Events.Brokers, cfg.Events.Topic, log)
		inner, closer = p, p
	default:
		return nil, nil, fmt.Errorf("未知的事件驱动: %s", cfg.Events.Driver)
	}

	cleanup := func() {
		if err := closer.Close(); err != nil {
			log.Error().Err(err).Msg("关闭事件发布者失败")
		}
	}
	log.Info().Msg("事件发布者已创建")
	return NewResilientPublisher(inner, cfg.Events.PublishTimeout, log), cleanup, nil
}
