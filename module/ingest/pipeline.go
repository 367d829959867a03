package ingest

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/core"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/domain"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/infra/log"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/module/intake"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/utils/timex"
)

// 拒收原因，用作指标标签
const (
	reasonInvalid  = "invalid_measurement"
	reasonFormat   = "unknown_format"
	reasonInternal = "internal"
)

// 入库失败的重试次数（不含首次）
const persistRetries = 3

func defaultPersistBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	return backoff.WithMaxRetries(b, persistRetries)
}

// Pipeline 测量记录 → 诊断 → 入库 → 结果下发
type Pipeline struct {
	registry  *intake.Registry
	diagnoser core.Diagnoser
	repo      core.DiagnosisRepository
	results   core.KafkaProducer // 可为 nil
	metrics   core.Metrics
	ids       core.IDGenerator
	format    func() string

	persistBackOff func() backoff.BackOff
}

// NewPipeline format 每条消息调用一次，以便配置热更新后生效
func NewPipeline(
	registry *intake.Registry,
	diagnoser core.Diagnoser,
	repo core.DiagnosisRepository,
	results core.KafkaProducer,
	metrics core.Metrics,
	ids core.IDGenerator,
	format func() string,
) *Pipeline {
	return &Pipeline{
		registry:  registry,
		diagnoser: diagnoser,
		repo:      repo,
		results:   results,
		metrics:   metrics,
		ids:       ids,
		format:    format,

		persistBackOff: defaultPersistBackOff,
	}
}

// Diagnose 对已标准化的记录执行诊断并持久化
func (p *Pipeline) Diagnose(ctx context.Context, source string, rec domain.MeasurementRecord) (*domain.DiagnosisDocument, error) {
	start := time.Now()
	result, err := p.diagnoser.Run(rec)
	if err != nil {
		p.metrics.IncRejected(source, rejectReason(err))
		return nil, err
	}
	p.metrics.ObserveDiagnosis(source, result, time.Since(start))

	now := timex.NowLocalTime()
	doc := domain.DiagnosisDocument{
		DiagnosisID: p.ids.NextID(),
		AssetID:     rec.Asset.AssetID,
		Location:    rec.Asset.Location,
		PumpType:    rec.Asset.PumpType,
		Source:      source,
		RecordedAt:  timex.OrNow(rec.RecordedAt),
		CreateTime:  now,
		Result:      *result,
	}
	if err := p.persist(ctx, doc); err != nil {
		return nil, errors.Wrap(err, "persist diagnosis")
	}

	log.Infow("诊断完成",
		"diagnosis_id", doc.DiagnosisID,
		"asset_id", doc.AssetID,
		"source", source,
		"report_type", result.ReportType,
		"summary", result.Summary,
	)
	p.publish(ctx, doc)
	return &doc, nil
}

// persist 按诊断 ID 幂等写入，短暂故障时退避重试
func (p *Pipeline) persist(ctx context.Context, doc domain.DiagnosisDocument) error {
	attempt := 1
	return backoff.RetryNotify(func() error {
		return p.repo.Upsert(ctx, doc)
	}, backoff.WithContext(p.persistBackOff(), ctx), func(err error, wait time.Duration) {
		log.Warnw("诊断入库失败，稍后重试",
			"diagnosis_id", doc.DiagnosisID,
			"attempt", attempt,
			"wait", wait.String(),
			"error", err,
		)
		attempt++
	})
}

// publish 结果下发失败不影响已入库的诊断
func (p *Pipeline) publish(ctx context.Context, doc domain.DiagnosisDocument) {
	if p.results == nil {
		return
	}
	body, err := sonic.Marshal(doc)
	if err != nil {
		log.Errorf("序列化诊断结果失败: %v", err)
		return
	}
	if err := p.results.Publish(ctx, doc.AssetID, body); err != nil {
		log.Warnw("诊断结果下发失败",
			"diagnosis_id", doc.DiagnosisID,
			"error", err,
		)
	}
}

// Handler 返回某一来源的消息处理函数。
// 非法记录只记日志和指标并返回 nil，offset 照常提交，避免阻塞分区；
// 入库重试耗尽时返回错误，由消费端保留 offset。
func (p *Pipeline) Handler(source string) core.MessageHandler {
	return func(ctx context.Context, msg core.KafkaMessage) error {
		defer func(t time.Time) {
			log.Debugw("测量消息处理完成",
				"source", source,
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"duration_ms", time.Since(t).Milliseconds(),
			)
		}(time.Now())

		format := p.format()
		std, err := p.registry.Get(format)
		if err != nil {
			p.metrics.IncRejected(source, reasonFormat)
			log.Errorw("载荷格式未注册，丢弃消息", "format", format, "error", err)
			return nil
		}

		rec, err := std.Standardize(ctx, msg.Value)
		if err != nil {
			return p.reject(source, msg, err)
		}
		if rec.Asset.AssetID == "" {
			rec.Asset.AssetID = msg.Key
		}
		if rec.RecordedAt.IsZero() {
			rec.RecordedAt = msg.Timestamp
		}

		if _, err := p.Diagnose(ctx, source, rec); err != nil {
			if errors.Is(err, domain.ErrInvalidMeasurement) {
				return nil
			}
			return err
		}
		return nil
	}
}

func (p *Pipeline) reject(source string, msg core.KafkaMessage, err error) error {
	if !errors.Is(err, domain.ErrInvalidMeasurement) {
		return errors.Wrap(err, "standardize measurement")
	}
	p.metrics.IncRejected(source, reasonInvalid)
	log.Warnw("测量记录无效，已跳过",
		"source", source,
		"key", msg.Key,
		"offset", msg.Offset,
		"error", err.Error(),
	)
	return nil
}

func rejectReason(err error) string {
	if errors.Is(err, domain.ErrInvalidMeasurement) {
		return reasonInvalid
	}
	return reasonInternal
}
