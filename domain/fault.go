package domain

// FaultType 故障类型
type FaultType string

const (
	FaultElectricalUnbalance  FaultType = "ELECTRICAL_UNBALANCE"
	FaultMechanicalUnbalance  FaultType = "MECHANICAL_UNBALANCE"
	FaultAngularMisalignment  FaultType = "ANGULAR_MISALIGNMENT"
	FaultParallelMisalignment FaultType = "PARALLEL_MISALIGNMENT"
	FaultBearingDefect        FaultType = "BEARING_DEFECT"
	FaultCavitation           FaultType = "CAVITATION"
	FaultNone                 FaultType = "NO_FAULT"
)

// IsMisalignment 角向与平行不对中共用一套 CPT 与 MTBF 基准。
func (t FaultType) IsMisalignment() bool {
	return t == FaultAngularMisalignment || t == FaultParallelMisalignment
}

// 告警级别
const (
	SeverityCritical = "CRITICAL"
	SeverityWarning  = "WARNING"
)

// FaultCandidate 特征识别阶段输出的候选故障。
type FaultCandidate struct {
	Type            FaultType `json:"type"`
	BaseConfidence  float64   `json:"base_confidence"` // [0,1]
	PrimaryEvidence string    `json:"primary_evidence"`
	Evidence        []string  `json:"evidence"`
	Severity        string    `json:"severity"`
	Standard        string    `json:"standard"`
}

// ValidatedFault 交叉验证后的候选故障，原候选不做修改。
type ValidatedFault struct {
	FaultCandidate
	ConsistencyScore    float64  `json:"consistency_score"`   // [0,1]
	AdjustedConfidence  float64  `json:"adjusted_confidence"` // 上限 0.95
	ConsistencyEvidence []string `json:"consistency_evidence"`
	Inconsistencies     []string `json:"inconsistencies"`
	Validated           bool     `json:"is_validated"`
}

// FaultProbability 贝叶斯融合后的单个故障后验。
type FaultProbability struct {
	Type        FaultType `json:"fault_type"`
	Posterior   float64   `json:"posterior_probability"` // 百分比，上限 95
	Satisfied   int       `json:"satisfied_count"`
	Assessed    int       `json:"assessed_count"`
	Evidence    []string  `json:"evidence"`
	Explanation string    `json:"explanation"`
}

// RankedFault 结果中按后验降序排列的故障列表项。
type RankedFault struct {
	Type       FaultType `json:"type"`
	Confidence float64   `json:"confidence"` // 百分比
}
