package core

import (
	"context"
	"time"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/domain"
)

// KafkaProducer 向单个 topic 生产消息。
type KafkaProducer interface {
	Publish(ctx context.Context, key string, value []byte) error
	Close() error
}

// KafkaConsumer 顺序消费单个 topic，handler 返回后提交 offset。
type KafkaConsumer interface {
	Consume(ctx context.Context, handler MessageHandler) error
	Close() error
}

// MeasurementSubscriber 订阅现场网关推送的测量记录（MQTT）。
type MeasurementSubscriber interface {
	Subscribe(ctx context.Context, handler MessageHandler) error
	Close() error
}

// MessageHandler 处理一条入站消息。
type MessageHandler func(ctx context.Context, msg KafkaMessage) error

// KafkaMessage 表示一条入站消息，MQTT 消息复用该结构（Topic 为 MQTT 主题）。
type KafkaMessage struct {
	Topic     string
	Key       string
	Value     []byte
	Partition int32
	Offset    int64
	Timestamp time.Time
}

// DiagnosisRepository 管理 itops_pump_diagnosis 索引。
type DiagnosisRepository interface {
	Upsert(ctx context.Context, doc domain.DiagnosisDocument) error
	QueryByIDs(ctx context.Context, ids []uint64) ([]domain.DiagnosisDocument, error)
	// GetByID 不存在时返回 domain.ErrDiagnosisNotFound
	GetByID(ctx context.Context, id uint64) (*domain.DiagnosisDocument, error)
}

// ReportCache 缓存渲染后的诊断报告。
type ReportCache interface {
	GetReport(ctx context.Context, id uint64, format string) ([]byte, bool, error)
	SetReport(ctx context.Context, id uint64, format string, body []byte, ttl time.Duration) error
}

// Diagnoser 对单条测量记录执行诊断。
type Diagnoser interface {
	Run(rec domain.MeasurementRecord) (*domain.DiagnosisResult, error)
}

// Metrics 诊断相关指标。
type Metrics interface {
	ObserveDiagnosis(source string, result *domain.DiagnosisResult, elapsed time.Duration)
	IncRejected(source, reason string)
}

// IDGenerator 生成诊断 ID。
type IDGenerator interface {
	NextID() uint64
}
