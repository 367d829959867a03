package config

import (
	"time"
)

// ========== 远程配置服务 ==========

// AppConfigServiceConfig 远程配置服务配置
type AppConfigServiceConfig struct {
	Endpoint        string        `yaml:"endpoint"`         // 远程配置接口地址
	RefreshInterval time.Duration `yaml:"refresh_interval"` // 刷新间隔
	Enabled         bool          `yaml:"enabled"`          // 是否启用远程配置
}

// ========== 本地业务配置 ==========

// 业务配置默认值
const (
	DefaultFluidDensity    = 850.0 // kg/m³
	DefaultVaporHead       = 0.5   // m
	DefaultFrictionHead    = 0.3   // m
	DefaultAmbientTemp     = 35.0  // °C
	DefaultLineFrequencyHz = 50.0  // Hz
	DefaultReportCacheTTL  = 10 * time.Minute
	DefaultIntakeFormat    = "flat"
)

const (
	defaultTimeRelativity     = 10
	defaultTimeType           = "m"
	maxReasonableLineFreqHz   = 400.0
	minReasonableFluidDensity = 1.0
)

// AppConfig 本地业务配置（app_config.yaml 格式）
type AppConfig struct {
	Diagnosis DiagnosisConfig `yaml:"diagnosis" json:"diagnosis"`
	Report    ReportConfig    `yaml:"report" json:"report"`
	Intake    IntakeConfig    `yaml:"intake" json:"intake"`
}

// DiagnosisConfig 诊断可调参数，记录中未携带时使用
type DiagnosisConfig struct {
	Fluid           FluidConfig `yaml:"fluid" json:"fluid"`
	AmbientTemp     float64     `yaml:"ambient_temp" json:"ambient_temp"`           // 环境温度 °C
	LineFrequencyHz float64     `yaml:"line_frequency_hz" json:"line_frequency_hz"` // 电网频率 Hz
}

// FluidConfig 介质物性，用于 NPSHa 计算
type FluidConfig struct {
	Density      float64 `yaml:"density" json:"density"`             // 密度 kg/m³
	VaporHead    float64 `yaml:"vapor_head" json:"vapor_head"`       // 饱和蒸汽压头 m
	FrictionHead float64 `yaml:"friction_head" json:"friction_head"` // 吸入管路摩阻 m
}

// ReportConfig 报告渲染配置
type ReportConfig struct {
	CacheTTL time.Duration `yaml:"cache_ttl" json:"cache_ttl"` // 渲染结果缓存时间，0 表示不缓存
}

// IntakeConfig 数据接入配置
type IntakeConfig struct {
	Format string `yaml:"format" json:"format"` // Kafka/MQTT 载荷格式：flat / structured
}

// defaultAppConfig 返回默认业务配置
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Diagnosis: DiagnosisConfig{
			Fluid: FluidConfig{
				Density:      DefaultFluidDensity,
				VaporHead:    DefaultVaporHead,
				FrictionHead: DefaultFrictionHead,
			},
			AmbientTemp:     DefaultAmbientTemp,
			LineFrequencyHz: DefaultLineFrequencyHz,
		},
		Report: ReportConfig{CacheTTL: DefaultReportCacheTTL},
		Intake: IntakeConfig{Format: DefaultIntakeFormat},
	}
}

// Normalize 补齐缺省或明显错误的取值
func (c *AppConfig) Normalize() {
	d := &c.Diagnosis
	if d.Fluid.Density < minReasonableFluidDensity {
		d.Fluid.Density = DefaultFluidDensity
	}
	if d.Fluid.VaporHead < 0 {
		d.Fluid.VaporHead = DefaultVaporHead
	}
	if d.Fluid.FrictionHead < 0 {
		d.Fluid.FrictionHead = DefaultFrictionHead
	}
	if d.AmbientTemp == 0 {
		d.AmbientTemp = DefaultAmbientTemp
	}
	if d.LineFrequencyHz <= 0 || d.LineFrequencyHz > maxReasonableLineFreqHz {
		d.LineFrequencyHz = DefaultLineFrequencyHz
	}
	if c.Report.CacheTTL < 0 {
		c.Report.CacheTTL = 0
	}
	if c.Intake.Format == "" {
		c.Intake.Format = DefaultIntakeFormat
	}
}

// ========== 远程 API 响应结构（设备管理平台返回格式）==========

// RemoteAppConfig 远程业务配置
type RemoteAppConfig struct {
	Fluid         RemoteFluidConfig  `json:"fluid"`
	AmbientTemp   float64            `json:"ambient_temp"`
	LineFrequency float64            `json:"line_frequency"`
	PayloadFormat string             `json:"payload_format"`
	ReportPolicy  RemotePolicyConfig `json:"report_policy"`
}

// RemoteFluidConfig 远程介质物性
type RemoteFluidConfig struct {
	Density      float64 `json:"density"`
	VaporHead    float64 `json:"vapor_head"`
	FrictionHead float64 `json:"friction_head"`
}

// RemotePolicyConfig 远程策略配置
type RemotePolicyConfig struct {
	Cache RemoteExpirationConfig `json:"cache"`
}

// RemoteExpirationConfig 远程时长配置（time_type + time_relativity）
type RemoteExpirationConfig struct {
	TimeType       string `json:"time_type"`       // 时间类型：d-天, h-小时, m-分钟
	TimeRelativity int    `json:"time_relativity"` // 时间值
}

// Duration 按 time_type 换算时长，非法值回落到默认值
func (e RemoteExpirationConfig) Duration() time.Duration {
	n := e.TimeRelativity
	unit := e.TimeType
	if n <= 0 {
		n, unit = defaultTimeRelativity, defaultTimeType
	}
	switch unit {
	case "d":
		return time.Duration(n) * 24 * time.Hour
	case "h":
		return time.Duration(n) * time.Hour
	default: // m
		return time.Duration(n) * time.Minute
	}
}

// ToAppConfig 将远程配置转换为本地配置格式
func (r *RemoteAppConfig) ToAppConfig() *AppConfig {
	cfg := &AppConfig{
		Diagnosis: DiagnosisConfig{
			Fluid: FluidConfig{
				Density:      r.Fluid.Density,
				VaporHead:    r.Fluid.VaporHead,
				FrictionHead: r.Fluid.FrictionHead,
			},
			AmbientTemp:     r.AmbientTemp,
			LineFrequencyHz: r.LineFrequency,
		},
		Report: ReportConfig{CacheTTL: r.ReportPolicy.Cache.Duration()},
		Intake: IntakeConfig{Format: r.PayloadFormat},
	}
	cfg.Normalize()
	return cfg
}
