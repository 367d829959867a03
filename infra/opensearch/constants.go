package opensearch

// 基础索引名称
const (
	DiagnosisIndexBase = "itops_pump_diagnosis"

	maxQuerySize = 5000
	indexPrefix  = "mdl-"
)

// DiagnosisIndex 实际索引名称
var DiagnosisIndex = indexPrefix + DiagnosisIndexBase
