package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/app"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/config"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/domain"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/module/diagnosis"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/module/intake"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/module/report"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/utils/idgen"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/utils/timex"
)

type runOptions struct {
	file      string
	input     string // flat / structured
	format    string // text / json
	appConfig string // 可选，app_config.yaml
	output    string // 为空时写 stdout
}

func newRunCommand() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "诊断一条测量记录（JSON 或 YAML）",
		Example: `  pumpdiag run -f record.json
  pumpdiag run -f record.yaml --input structured --format json -o report.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if opts.output != "" {
				f, err := os.Create(opts.output)
				if err != nil {
					return errors.Wrap(err, "创建输出文件失败")
				}
				defer f.Close()
				out = f
			}
			return runDiagnosis(cmd.Context(), opts, out)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.file, "file", "f", "", "测量记录文件，.json / .yaml / .yml")
	flags.StringVar(&opts.input, "input", intake.FormatFlat, "载荷格式：flat / structured")
	flags.StringVar(&opts.format, "format", report.FormatText, "报告格式：text / json")
	flags.StringVar(&opts.appConfig, "app-config", "", "业务配置文件，缺省使用内置介质参数")
	flags.StringVarP(&opts.output, "output", "o", "", "报告输出文件")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runDiagnosis(ctx context.Context, opts *runOptions, out io.Writer) error {
	if report.ContentType(opts.format) == "" {
		return errors.Errorf("不支持的报告格式: %s", opts.format)
	}

	rec, err := loadRecord(ctx, opts.file, opts.input)
	if err != nil {
		return err
	}

	params := diagnosis.DefaultParameters()
	if opts.appConfig != "" {
		appCfg, err := config.LoadAppConfig(opts.appConfig)
		if err != nil {
			return err
		}
		appCfg.Normalize()
		params = app.ParametersFrom(appCfg.Diagnosis)
	}

	result, err := diagnosis.NewEngine(params).Run(rec)
	if err != nil {
		return err
	}

	doc := domain.DiagnosisDocument{
		DiagnosisID: idgen.New().NextID(),
		AssetID:     rec.Asset.AssetID,
		Location:    rec.Asset.Location,
		PumpType:    rec.Asset.PumpType,
		Source:      domain.SourceCLI,
		RecordedAt:  timex.OrNow(rec.RecordedAt),
		CreateTime:  timex.NowLocalTime(),
		Result:      *result,
	}
	body, _, err := report.Render(doc, opts.format)
	if err != nil {
		return err
	}
	_, err = out.Write(body)
	return err
}

// loadRecord JSON 直接走标准化器；YAML 先解成 map 再映射
func loadRecord(ctx context.Context, path, input string) (domain.MeasurementRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.MeasurementRecord{}, errors.Wrap(err, "读取测量记录失败")
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var m map[string]any
		if err := yaml.Unmarshal(data, &m); err != nil {
			return domain.MeasurementRecord{}, errors.Wrapf(domain.ErrInvalidMeasurement, "解析 YAML 失败: %v", err)
		}
		switch input {
		case intake.FormatFlat:
			return intake.NewFlatStandardizer().FromMap(m)
		case intake.FormatStructured:
			return intake.NewStructuredStandardizer().FromMap(m)
		default:
			return domain.MeasurementRecord{}, errors.Errorf("不支持的载荷格式: %s", input)
		}
	default:
		std, err := intake.NewRegistry().Get(input)
		if err != nil {
			return domain.MeasurementRecord{}, err
		}
		return std.Standardize(ctx, data)
	}
}
