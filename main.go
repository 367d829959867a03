// itops-pump-diagnosis 泵组振动诊断服务：从 Kafka/MQTT 接收测量记录，诊断结果入库并转发下游。
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/app"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/config"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/infra/log"
)

var version = "dev"

const (
	defaultConfigPath = "config/config.yaml"
	shutdownTimeout   = 5 * time.Second
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:          "itops-pump-diagnosis",
		Short:        "泵组振动诊断服务",
		Version:      version,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "服务配置文件路径")
	root.AddCommand(newCheckConfigCommand(&configPath))
	return root
}

// newCheckConfigCommand 加载配置并打印生效值，不连接任何外部依赖
func newCheckConfigCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "校验配置文件并输出生效的诊断参数",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			manager, err := config.NewConfigManager(*configPath)
			if err != nil {
				return err
			}
			defer manager.Stop()
			return describeConfig(cmd.OutOrStdout(), manager.GetConfig())
		},
	}
}

func describeConfig(w io.Writer, cfg *config.Config) error {
	params := app.ParametersFrom(cfg.AppConfig.Diagnosis)
	_, err := fmt.Fprintf(w,
		"api.port: %d\nkafka.measurements: %s (group %s)\nkafka.diagnoses: %s\nmqtt.enabled: %t\nintake.format: %s\n"+
			"fluid.density: %g kg/m³\nfluid.vapor_head: %g m\nfluid.friction_head: %g m\nambient_temp: %g °C\nline_frequency: %g Hz\nreport.cache_ttl: %s\n",
		cfg.API.Port, cfg.Kafka.Measurements.Topic, cfg.Kafka.Measurements.ConsumerGroup, cfg.Kafka.Diagnoses.Topic,
		cfg.MQTT.Enabled, cfg.AppConfig.Intake.Format,
		params.FluidDensity, params.VaporHead, params.FrictionHead, params.AmbientTemp, params.LineFrequencyHz,
		cfg.AppConfig.Report.CacheTTL)
	return err
}

// logSettings 服务配置中的日志段落转换为日志模块参数
func logSettings(c config.LogConfig) *log.LogCfg {
	return &log.LogCfg{
		Filepath:    c.Filepath,
		Level:       c.Level,
		MaxSize:     c.MaxSize,
		MaxAge:      c.MaxAge,
		MaxBackups:  c.MaxBackups,
		Compress:    c.Compress,
		Development: c.Development,
	}
}

// serve 装配并运行诊断服务，阻塞至 ctx 结束或任一组件退出
func serve(ctx context.Context, configPath string) error {
	manager, err := config.NewConfigManager(configPath)
	if err != nil {
		return err
	}
	defer manager.Stop()

	cfg := manager.GetConfig()
	log.SetDefaultLog(logSettings(cfg.Log))
	defer func() { _ = log.Sync() }()

	svc, err := app.New(manager)
	if err != nil {
		return errors.Wrap(err, "装配诊断服务失败")
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := svc.Close(closeCtx); err != nil {
			log.Errorw("关闭诊断服务失败", "err", err)
		}
	}()

	log.Infow("泵组振动诊断服务启动",
		"version", version,
		"config", configPath,
		"measurement_topic", cfg.Kafka.Measurements.Topic,
		"intake_format", cfg.AppConfig.Intake.Format,
		"mqtt", cfg.MQTT.Enabled,
		"api_port", cfg.API.Port)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error { return ignoreCanceled(manager.Start(egCtx)) })
	eg.Go(func() error { return ignoreCanceled(svc.Start(egCtx)) })
	if err := eg.Wait(); err != nil {
		log.Errorw("诊断服务异常退出", "err", err)
		return err
	}
	log.Info("诊断服务已停止")
	return nil
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
