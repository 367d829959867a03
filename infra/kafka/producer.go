package kafka

import (
	"context"
	"time"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/core"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/infra/log"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

// traceHeader 每条消息携带的追踪 ID 头
const traceHeader = "x-trace-id"

// Producer 基于 kafka-go 实现 KafkaProducer。
// 同步写入：诊断结果落库后才发布，调用方需要知道发布是否成功。
type Producer struct {
	writer *kafka.Writer
}

func NewProducer(cfg Config) (core.KafkaProducer, error) {
	if cfg.Topic == "" {
		return nil, errors.New("kafka topic 不能为空")
	}
	mechanism, err := buildSASLMechanism(cfg.SASL)
	if err != nil {
		return nil, errors.Wrap(err, "构建 SASL 认证失败")
	}

	log.Infof("Kafka Producer: topic=%s brokers=%v sasl=%t", cfg.Topic, cfg.Brokers, mechanism != nil)

	return &Producer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  cfg.Topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
			Transport:              &kafka.Transport{SASL: mechanism},
			RequiredAcks:           kafka.RequireOne,
			BatchTimeout:           50 * time.Millisecond,
			WriteTimeout:           10 * time.Second,
			ReadTimeout:            10 * time.Second,
			Compression:            kafka.Snappy,
		},
	}, nil
}

// Publish 以 key 分区写入一条消息，key 为空时生成随机 key。
func (p *Producer) Publish(ctx context.Context, key string, value []byte) error {
	if p.writer == nil {
		return errors.New("kafka writer 未初始化")
	}
	if key == "" {
		key = uuid.NewString()
	}
	msg := kafka.Message{
		Key:     []byte(key),
		Value:   value,
		Time:    time.Now().Local(),
		Headers: []kafka.Header{{Key: traceHeader, Value: []byte(uuid.NewString())}},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrapf(err, "写入 kafka topic %s 失败", p.writer.Topic)
	}
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
