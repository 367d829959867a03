package kafka

import (
	"context"
	"time"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/core"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/infra/log"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

// Consumer 基于 kafka-go Reader 实现顺序消费。
type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(cfg Config) (core.KafkaConsumer, error) {
	if cfg.Topic == "" {
		return nil, errors.New("kafka topic 不能为空")
	}
	groupID := cfg.GroupID
	if groupID == "" {
		groupID = defaultGroupID
	}

	mechanism, err := buildSASLMechanism(cfg.SASL)
	if err != nil {
		return nil, errors.Wrap(err, "构建 SASL 认证失败")
	}

	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:       cfg.Brokers,
			Topic:         cfg.Topic,
			GroupID:       groupID,
			MinBytes:      minBytes,
			MaxBytes:      maxBytes,
			QueueCapacity: 1,
			Dialer: &kafka.Dialer{
				Timeout:       10 * time.Second,
				DualStack:     true,
				SASLMechanism: mechanism,
			},
		}),
	}, nil
}

// Consume 逐条拉取并交给 handler，成功后提交 offset。
// 无效记录由 handler 自行吞掉并返回 nil；handler 返回错误时不提交并停止消费，
// 重启后该消息会被重新投递。
func (c *Consumer) Consume(ctx context.Context, handler core.MessageHandler) error {
	if c.reader == nil {
		return errors.New("kafka reader 未初始化")
	}
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return ctx.Err()
			}
			return err
		}

		if err := handler(ctx, core.KafkaMessage{
			Topic:     msg.Topic,
			Key:       string(msg.Key),
			Value:     msg.Value,
			Partition: int32(msg.Partition),
			Offset:    msg.Offset,
			Timestamp: msg.Time,
		}); err != nil {
			log.Errorw("kafka 消息处理失败，停止消费且不提交 offset",
				"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "key", string(msg.Key), "err", err)
			return errors.Wrapf(err, "handle kafka message partition=%d offset=%d", msg.Partition, msg.Offset)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return errors.Wrap(err, "commit kafka offset")
		}
	}
}

func (c *Consumer) Close() error {
	if c.reader != nil {
		return c.reader.Close()
	}
	return nil
}
