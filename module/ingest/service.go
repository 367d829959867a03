package ingest

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/core"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/domain"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/infra/log"
)

// Service 测量数据接入：Kafka 必选，MQTT 可选
type Service struct {
	pipeline   *Pipeline
	consumer   core.KafkaConsumer
	subscriber core.MeasurementSubscriber
	producer   core.KafkaProducer
}

func New(pipeline *Pipeline, consumer core.KafkaConsumer, subscriber core.MeasurementSubscriber, producer core.KafkaProducer) *Service {
	return &Service{
		pipeline:   pipeline,
		consumer:   consumer,
		subscriber: subscriber,
		producer:   producer,
	}
}

// Start 阻塞消费，直到 ctx 结束或任一来源出错
func (s *Service) Start(ctx context.Context) error {
	if s.consumer == nil {
		return errors.New("kafka measurement consumer not configured")
	}
	if s.pipeline == nil {
		return errors.New("diagnosis pipeline not configured")
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		log.Info("启动 Kafka 测量数据消费")
		if err := s.consumer.Consume(egCtx, s.pipeline.Handler(domain.SourceKafka)); err != nil && !errors.Is(err, context.Canceled) {
			return errors.Wrap(err, "kafka 测量数据消费失败")
		}
		return nil
	})
	if s.subscriber != nil {
		eg.Go(func() error {
			log.Info("启动 MQTT 测量数据订阅")
			if err := s.subscriber.Subscribe(egCtx, s.pipeline.Handler(domain.SourceMQTT)); err != nil && !errors.Is(err, context.Canceled) {
				return errors.Wrap(err, "mqtt 测量数据订阅失败")
			}
			return nil
		})
	}
	return eg.Wait()
}

// Close 关闭持有的连接
func (s *Service) Close() error {
	var errs []error
	if s.consumer != nil {
		if err := s.consumer.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, "close kafka consumer"))
		}
	}
	if s.subscriber != nil {
		if err := s.subscriber.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, "close mqtt subscriber"))
		}
	}
	if s.producer != nil {
		if err := s.producer.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, "close kafka producer"))
		}
	}
	if len(errs) > 0 {
		return errors.New(fmt.Sprintf("关闭 ingest service 时发生 %d 个错误: %v", len(errs), errs))
	}
	return nil
}
