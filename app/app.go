package app

import (
	"context"
	stderr "errors"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/config"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/core"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/domain"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/infra/cache"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/infra/kafka"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/infra/log"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/infra/metrics"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/infra/mqtt"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/infra/opensearch"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/module/api"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/module/diagnosis"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/module/ingest"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/module/intake"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/utils/idgen"
)

// App 负责模块装配。
type App struct {
	API    *api.Server
	Ingest *ingest.Service

	cache        *cache.ReportCache
	measurements core.KafkaProducer // API 投递测量记录
}

func New(cfgManager *config.ConfigManager) (*App, error) {
	cfg := cfgManager.GetConfig()

	osClient, err := opensearch.NewClient(opensearch.ConfigFor(cfg.DepServices.OpenSearch))
	if err != nil {
		return nil, errors.Wrap(err, "初始化 OpenSearch 失败")
	}
	store := opensearch.NewDiagnosisStore(osClient)

	// 报告缓存不可用时降级为每次渲染
	var reports core.ReportCache
	reportCache, err := cache.NewReportCache(cache.RedisConfigFor(cfg.DepServices.Redis))
	if err != nil {
		log.Warnf("初始化报告缓存失败，降级为不缓存: %v", err)
	} else {
		reports = reportCache
	}

	measurementConsumer, err := kafka.NewConsumer(kafka.ConfigFor(cfg.DepServices.MQ, cfg.Kafka.Measurements))
	if err != nil {
		return nil, errors.Wrap(err, "初始化测量记录 consumer 失败")
	}
	measurementProducer, err := kafka.NewProducer(kafka.ConfigFor(cfg.DepServices.MQ, cfg.Kafka.Measurements))
	if err != nil {
		return nil, errors.Wrap(err, "初始化测量记录 producer 失败")
	}
	diagnosisProducer, err := kafka.NewProducer(kafka.ConfigFor(cfg.DepServices.MQ, cfg.Kafka.Diagnoses))
	if err != nil {
		return nil, errors.Wrap(err, "初始化诊断结果 producer 失败")
	}

	var subscriber core.MeasurementSubscriber
	if cfg.MQTT.Enabled {
		subscriber, err = mqtt.NewSubscriber(mqtt.Config{
			Broker:         cfg.MQTT.Broker,
			ClientID:       cfg.MQTT.ClientID,
			Username:       cfg.MQTT.Username,
			Password:       cfg.MQTT.Password,
			Topic:          cfg.MQTT.Topic,
			QoS:            cfg.MQTT.QoS,
			ConnectTimeout: cfg.MQTT.ConnectTimeout,
		})
		if err != nil {
			return nil, errors.Wrap(err, "初始化 MQTT 订阅失败")
		}
	}

	promMetrics := metrics.NewPromMetrics()
	registry := intake.NewRegistry()
	pipeline := ingest.NewPipeline(
		registry,
		&configuredDiagnoser{cfgManager: cfgManager},
		store,
		diagnosisProducer,
		promMetrics,
		idgen.New(),
		func() string { return cfgManager.GetConfig().AppConfig.Intake.Format },
	)

	cfgManager.OnReload(func(c *config.Config) {
		log.Infow("业务配置已更新",
			"intake_format", c.AppConfig.Intake.Format,
			"report_cache_ttl", c.AppConfig.Report.CacheTTL.String(),
			"line_frequency_hz", c.AppConfig.Diagnosis.LineFrequencyHz)
	})

	return &App{
		API:          api.New(cfgManager, pipeline, registry, store, reports, measurementProducer, promMetrics.Handler()),
		Ingest:       ingest.New(pipeline, measurementConsumer, subscriber, diagnosisProducer),
		cache:        reportCache,
		measurements: measurementProducer,
	}, nil
}

// configuredDiagnoser 每次诊断按当前业务配置构造引擎
type configuredDiagnoser struct {
	cfgManager *config.ConfigManager
}

func (d *configuredDiagnoser) Run(rec domain.MeasurementRecord) (*domain.DiagnosisResult, error) {
	return diagnosis.NewEngine(ParametersFrom(d.cfgManager.GetConfig().AppConfig.Diagnosis)).Run(rec)
}

// ParametersFrom 业务配置转换为诊断参数
func ParametersFrom(c config.DiagnosisConfig) diagnosis.Parameters {
	return diagnosis.Parameters{
		FluidDensity:    c.Fluid.Density,
		VaporHead:       c.Fluid.VaporHead,
		FrictionHead:    c.Fluid.FrictionHead,
		AmbientTemp:     c.AmbientTemp,
		LineFrequencyHz: c.LineFrequencyHz,
	}
}

func (a *App) Start(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context 不能为空")
	}

	eg, egCtx := errgroup.WithContext(ctx)

	if a.Ingest != nil {
		eg.Go(func() error {
			if err := a.Ingest.Start(egCtx); err != nil && !errors.Is(err, context.Canceled) {
				return errors.Wrap(err, "ingest 启动失败")
			}
			return nil
		})
	}

	if a.API != nil {
		eg.Go(func() error {
			if err := a.API.Start(egCtx); err != nil && !errors.Is(err, context.Canceled) {
				return errors.Wrap(err, "api 启动失败")
			}
			return nil
		})
	}

	log.Info("应用已启动，等待退出信号")
	return eg.Wait()
}

// Close 统一关闭持有的连接资源，需由上层在取消上下文后调用。
func (a *App) Close(ctx context.Context) error {
	var errs []error

	if a.API != nil {
		if err := a.API.Stop(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errs = append(errs, errors.Wrap(err, "stop api"))
		}
	}
	if a.Ingest != nil {
		if err := a.Ingest.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, "close ingest"))
		}
	}
	if a.measurements != nil {
		if err := a.measurements.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, "close measurement producer"))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, "close report cache"))
		}
	}

	return stderr.Join(errs...)
}
