// Package mq 费用事件 Kafka 发布
package mq

import (
	"context"

	"github.com/ahamawy/fiveseptemberlaunch-sub000/internal/feeengine/domain"
	pkgmq "github.com/ahamawy/fiveseptemberlaunch-sub000/pkg/mq"
)

// FeeEventPublisher 账本提交后向下游广播费用计算完成事件
type FeeEventPublisher struct {
	producer *pkgmq.Producer
	topic    string
}

// NewFeeEventPublisher 创建事件发布器
func NewFeeEventPublisher(producer *pkgmq.Producer, topic string) *FeeEventPublisher {
	if topic == "" {
		topic = "fees.calculated"
	}
	return &FeeEventPublisher{producer: producer, topic: topic}
}

// PublishFeesCalculated 以 transaction_id 为 key 发布事件，保证同交易事件有序
func (p *FeeEventPublisher) PublishFeesCalculated(ctx context.Context, event domain.FeesCalculatedEvent) error {
	return p.producer.SendMessage(ctx, p.topic, event.TransactionID, event)
}
