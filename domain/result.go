package domain

import "time"

// ReportType 报告类型
type ReportType string

const (
	ReportEmergencyShutdown      ReportType = "EMERGENCY_SHUTDOWN"
	ReportRoutineMonitoring      ReportType = "ROUTINE_MONITORING"
	ReportComprehensiveDiagnosis ReportType = "COMPREHENSIVE_DIAGNOSIS"
)

// Stage 诊断流水线状态
type Stage string

const (
	StageSafetyCheck Stage = "SAFETY_CHECK"
	StageSeverity    Stage = "SEVERITY"
	StageSignature   Stage = "SIGNATURE"
	StageValidate    Stage = "VALIDATE"
	StageFuse        Stage = "FUSE"
	StageRisk        Stage = "RISK"
	StageDone        Stage = "DONE"
)

// Zone ISO 10816-3 振动区域
type Zone string

const (
	ZoneA Zone = "A"
	ZoneB Zone = "B"
	ZoneC Zone = "C"
	ZoneD Zone = "D"
)

// Level 严重度 / 可能性等级
type Level string

const (
	LevelHigh   Level = "HIGH"
	LevelMedium Level = "MEDIUM"
	LevelLow    Level = "LOW"
)

// RiskLevel 风险矩阵输出等级
type RiskLevel string

const (
	RiskCritical RiskLevel = "CRITICAL"
	RiskHigh     RiskLevel = "HIGH"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskLow      RiskLevel = "LOW"
)

// ComplianceStatus 标准符合性
type ComplianceStatus string

const (
	Compliant    ComplianceStatus = "COMPLIANT"
	Warning      ComplianceStatus = "WARNING"
	NonCompliant ComplianceStatus = "NON-COMPLIANT"
)

// 引用的标准名称，同时作为符合性映射的键
const (
	StandardISO10816 = "ISO 10816-3"
	StandardIEC60034 = "IEC 60034-1"
	StandardAPI610   = "API 610"
	StandardISO15243 = "ISO 15243"
	StandardISO45001 = "ISO 45001"
	StandardAPI670   = "API 670"
)

// SafetyTrigger 安全闸门触发项
type SafetyTrigger struct {
	Parameter string  `json:"parameter"`
	Component string  `json:"component"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
	Unit      string  `json:"unit"`
	Standard  string  `json:"standard"`
	Action    string  `json:"action"`
	Severity  string  `json:"severity"`
}

// SafetyResult 安全闸门结果
type SafetyResult struct {
	ShutdownRequired bool            `json:"shutdown_required"`
	Triggers         []SafetyTrigger `json:"triggers"`
	Status           string          `json:"safety_status"` // SAFE / CRITICAL
	Standard         string          `json:"standard"`
}

// DirectionAverages 六个方向的 DE/NDE 平均值及最大值
type DirectionAverages struct {
	MotorH       float64 `json:"motor_h"`
	MotorV       float64 `json:"motor_v"`
	MotorA       float64 `json:"motor_a"`
	PumpH        float64 `json:"pump_h"`
	PumpV        float64 `json:"pump_v"`
	PumpA        float64 `json:"pump_a"`
	MaxVelocity  float64 `json:"max_velocity"`
	MaxDirection string  `json:"max_direction"`
}

// ZoneResult 振动烈度分区结果
type ZoneResult struct {
	Zone       Zone       `json:"zone"`
	Velocity   float64    `json:"velocity_rms"`
	RPM        float64    `json:"rpm"`
	PowerKW    float64    `json:"power_kw"`
	Group      int        `json:"group"`
	Foundation Foundation `json:"foundation"`
	LimitA     float64    `json:"limit_a"` // Zone A 上限
	LimitB     float64    `json:"limit_b"`
	LimitC     float64    `json:"limit_c"`
	Remark     string     `json:"remark"`
	Action     string     `json:"action"`
	Clause     string     `json:"clause"`
	Standard   string     `json:"standard"`
}

// FusionResult 贝叶斯融合结果
type FusionResult struct {
	PrimaryFault      FaultType          `json:"primary_fault"`
	PrimaryConfidence float64            `json:"primary_confidence"`
	Secondary         []FaultProbability `json:"secondary_faults"`
	All               []FaultProbability `json:"all_probabilities"`
	EvidenceSummary   string             `json:"evidence_summary"`
	Standard          string             `json:"standard"`
}

// Recommendation 维护建议
type Recommendation struct {
	Priority string `json:"priority"`
	Timeline string `json:"timeline"`
	Action   string `json:"action"`
	Details  string `json:"details"`
	Standard string `json:"standard"`
}

// RiskResult 风险评估结果
type RiskResult struct {
	RiskLevel              RiskLevel        `json:"risk_level"`
	SeverityLevel          Level            `json:"severity_level"`
	ProbabilityLevel       Level            `json:"probability_level"`
	SeverityDescription    string           `json:"severity_description"`
	ProbabilityDescription string           `json:"probability_description"`
	Timeline               string           `json:"action_timeline"`
	ActionPriority         string           `json:"action_priority"`
	MTBFDays               int              `json:"mtbf_days"`
	Recommendations        []Recommendation `json:"recommendations"`
	Standard               string           `json:"standard"`
}

// BearingCondition ISO 15243 轴承状态分级
type BearingCondition struct {
	Location       string   `json:"location"`
	Stage          int      `json:"stage"`
	Condition      string   `json:"condition"`
	HF             float64  `json:"hf_value"`
	TempRise       float64  `json:"temp_rise"`
	Demod          *float64 `json:"demod_value,omitempty"`
	Recommendation string   `json:"recommendation"`
	Standard       string   `json:"standard"`
}

// Issue 电气或水力检查项
type Issue struct {
	Parameter string  `json:"parameter"`
	Value     float64 `json:"value"`
	Unit      string  `json:"unit"`
	Threshold string  `json:"threshold"`
	Severity  string  `json:"severity"`
	Standard  string  `json:"standard"`
}

// ElectricalAssessment 电气参数评估
type ElectricalAssessment struct {
	VoltageImbalancePct float64  `json:"voltage_imbalance_pct"`
	CurrentImbalancePct float64  `json:"current_imbalance_pct"`
	LoadFactorPct       float64  `json:"load_factor_pct"`
	SlipPct             *float64 `json:"slip_pct,omitempty"`
	Issues              []Issue  `json:"issues"`
}

// HydraulicAssessment 水力参数评估
type HydraulicAssessment struct {
	NPSHa           float64 `json:"npsha"`
	NPSHr           float64 `json:"npshr"`
	NPSHaMargin     float64 `json:"npsha_margin"`
	BEPDeviationPct float64 `json:"bep_deviation_pct"`
	CavitationRisk  Level   `json:"cavitation_risk"`
	Issues          []Issue `json:"issues"`
}

// AuditTrail 审计信息
type AuditTrail struct {
	StagesExecuted      []Stage  `json:"stages_executed"`
	StandardsReferenced []string `json:"standards_referenced"`
	ConfidenceScore     float64  `json:"confidence_score"`
}

// DiagnosisResult 一次诊断的完整输出，未执行的阶段为 nil。
type DiagnosisResult struct {
	ReportType        ReportType                  `json:"report_type"`
	Summary           string                      `json:"summary"`
	Safety            SafetyResult                `json:"safety"`
	Averages          *DirectionAverages          `json:"averages,omitempty"`
	Zone              *ZoneResult                 `json:"zone,omitempty"`
	Signatures        []FaultCandidate            `json:"signatures"`
	Validation        []ValidatedFault            `json:"validation"`
	Fusion            *FusionResult               `json:"fusion,omitempty"`
	Risk              *RiskResult                 `json:"risk,omitempty"`
	Faults            []RankedFault               `json:"faults"`
	Bearings          []BearingCondition          `json:"bearings"`
	Electrical        *ElectricalAssessment       `json:"electrical,omitempty"`
	Hydraulic         *HydraulicAssessment        `json:"hydraulic,omitempty"`
	Recommendations   []Recommendation            `json:"recommendations"`
	Compliance        map[string]ComplianceStatus `json:"compliance"`
	OverallCompliance ComplianceStatus            `json:"overall_compliance"`
	Audit             AuditTrail                  `json:"audit_trail"`
}

// DiagnosisDocument 对应索引 itops_pump_diagnosis。
type DiagnosisDocument struct {
	DiagnosisID uint64          `json:"diagnosis_id"`
	AssetID     string          `json:"asset_id"`
	Location    string          `json:"location"`
	PumpType    string          `json:"pump_type"`
	Source      string          `json:"source"` // api / kafka / mqtt / cli
	RecordedAt  time.Time       `json:"recorded_at"`
	CreateTime  time.Time       `json:"create_time"`
	Result      DiagnosisResult `json:"result"`
}

// 诊断来源
const (
	SourceAPI   = "api"
	SourceKafka = "kafka"
	SourceMQTT  = "mqtt"
	SourceCLI   = "cli"
)
