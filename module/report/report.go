package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/domain"
)

// 报告格式
const (
	FormatText = "text"
	FormatJSON = "json"
)

const (
	lineWidth      = 80
	unknownField   = "UNKNOWN"
	analysisEngine = "6-Stage Hierarchical Diagnostic Engine"
	reportTitle    = "Pump Diagnostic Report"
)

// ContentType 报告格式对应的 Content-Type，未知格式返回空串
func ContentType(format string) string {
	switch format {
	case FormatText, "":
		return "text/plain; charset=utf-8"
	case FormatJSON:
		return "application/json; charset=utf-8"
	}
	return ""
}

// Render 按格式渲染，返回内容与 Content-Type
func Render(doc domain.DiagnosisDocument, format string) ([]byte, string, error) {
	switch format {
	case FormatText, "":
		return []byte(RenderText(doc)), ContentType(format), nil
	case FormatJSON:
		body, err := RenderJSON(doc)
		return body, ContentType(format), err
	default:
		return nil, "", errors.Errorf("不支持的报告格式: %s", format)
	}
}

// ReportID DIAG-<日期>-<资产>-<诊断ID>
func ReportID(doc domain.DiagnosisDocument) string {
	return fmt.Sprintf("DIAG-%s-%s-%d", doc.CreateTime.Format("20060102"), orUnknown(doc.AssetID), doc.DiagnosisID)
}

// num 最短往返精度，保证数值原样输出
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func orUnknown(s string) string {
	if s == "" {
		return unknownField
	}
	return s
}

type textWriter struct {
	b strings.Builder
}

func (w *textWriter) line(format string, args ...any) {
	fmt.Fprintf(&w.b, format, args...)
	w.b.WriteByte('\n')
}

func (w *textWriter) rule(ch string) {
	w.line("%s", strings.Repeat(ch, lineWidth))
}

func (w *textWriter) section(title string) {
	w.line("%s", title)
	w.rule("-")
}

func (w *textWriter) blank() {
	w.b.WriteByte('\n')
}

// RenderText 生成纯文本报告，紧急停机与无故障在标题行即可区分
func RenderText(doc domain.DiagnosisDocument) string {
	r := doc.Result
	w := &textWriter{}

	w.rule("=")
	w.line("PUMP DIAGNOSTIC REPORT")
	w.rule("=")
	w.line("Asset ID: %s", orUnknown(doc.AssetID))
	w.line("Location: %s", orUnknown(doc.Location))
	w.line("Pump Type: %s", orUnknown(doc.PumpType))
	w.line("Date: %s", doc.CreateTime.Format("02 Jan 2006"))
	w.line("Report ID: %s", ReportID(doc))
	w.line("Report Type: %s", r.ReportType)
	w.rule("=")
	w.blank()

	if r.ReportType == domain.ReportEmergencyShutdown {
		w.line("*** EMERGENCY SHUTDOWN REQUIRED ***")
		w.blank()
	}

	w.section("EXECUTIVE SUMMARY")
	w.line("Diagnosis: %s", r.Summary)
	w.line("Confidence: %s%%", num(r.Audit.ConfidenceScore))
	if r.Risk != nil {
		w.line("Risk Level: %s", r.Risk.RiskLevel)
		w.line("Recommended Timeline: %s", r.Risk.Timeline)
	}
	w.blank()

	writeSafety(w, r.Safety)
	writeSeverity(w, r)
	writeSignatures(w, r)
	writeDiagnosis(w, r)
	writeBearings(w, r.Bearings)
	writeAssessments(w, r.Electrical, r.Hydraulic)
	writeActions(w, r)
	writeCompliance(w, r)

	w.section("AUDIT TRAIL")
	stages := make([]string, len(r.Audit.StagesExecuted))
	for i, s := range r.Audit.StagesExecuted {
		stages[i] = string(s)
	}
	w.line("Stages Executed: %s", strings.Join(stages, " -> "))
	w.line("Standards Referenced: %s", strings.Join(r.Audit.StandardsReferenced, ", "))
	w.blank()

	w.rule("=")
	w.line("END OF REPORT")
	w.rule("=")
	return w.b.String()
}

func writeSafety(w *textWriter, s domain.SafetyResult) {
	w.section("SAFETY GATE (" + domain.StandardAPI670 + ")")
	w.line("Status: %s", s.Status)
	for _, t := range s.Triggers {
		w.line("  - [%s] %s %s: %s %s (threshold %s %s, %s)",
			t.Severity, t.Component, t.Parameter, num(t.Value), t.Unit, num(t.Threshold), t.Unit, t.Standard)
		w.line("    Action: %s", t.Action)
	}
	w.blank()
}

func writeSeverity(w *textWriter, r domain.DiagnosisResult) {
	if r.Zone == nil {
		return
	}
	z := r.Zone
	w.section("VIBRATION SEVERITY (" + z.Standard + ")")
	w.line("Zone Classification: %s", z.Zone)
	w.line("Maximum Velocity: %s mm/s", num(z.Velocity))
	if a := r.Averages; a != nil {
		w.line("Direction: %s", a.MaxDirection)
		w.line("Motor H/V/A: %s / %s / %s mm/s", num(a.MotorH), num(a.MotorV), num(a.MotorA))
		w.line("Pump H/V/A: %s / %s / %s mm/s", num(a.PumpH), num(a.PumpV), num(a.PumpA))
	}
	w.line("Machine Group: %d", z.Group)
	w.line("Foundation Type: %s", z.Foundation)
	w.line("Zone A/B/C Limits: %s / %s / %s mm/s", num(z.LimitA), num(z.LimitB), num(z.LimitC))
	w.line("Status: %s", z.Remark)
	w.line("Action: %s", z.Action)
	w.blank()
}

// writeSignatures 候选特征及其交叉验证得分
func writeSignatures(w *textWriter, r domain.DiagnosisResult) {
	if len(r.Signatures) == 0 {
		return
	}
	validated := make(map[domain.FaultType]domain.ValidatedFault, len(r.Validation))
	for _, v := range r.Validation {
		validated[v.Type] = v
	}

	w.section("FAULT SIGNATURES & CROSS-VALIDATION")
	for _, c := range r.Signatures {
		w.line("%s: signature confidence %s (%s)", c.Type, num(c.BaseConfidence), c.PrimaryEvidence)
		v, ok := validated[c.Type]
		if !ok {
			continue
		}
		status := "NOT VALIDATED"
		if v.Validated {
			status = "VALIDATED"
		}
		w.line("  Consistency: %s, Adjusted Confidence: %s, %s", num(v.ConsistencyScore), num(v.AdjustedConfidence), status)
	}
	w.blank()
}

func writeDiagnosis(w *textWriter, r domain.DiagnosisResult) {
	if r.Fusion == nil {
		return
	}
	f := r.Fusion
	w.section("PRIMARY DIAGNOSIS (Bayesian Fusion)")
	w.line("Fault Type: %s", f.PrimaryFault)
	w.line("Confidence: %s%%", num(f.PrimaryConfidence))
	w.line("Evidence: %s", f.EvidenceSummary)
	if len(f.Secondary) > 0 {
		w.line("Secondary Faults:")
		for _, p := range f.Secondary {
			w.line("  - %s (%s%% confidence)", p.Type, num(p.Posterior))
		}
	}
	w.blank()
}

func writeBearings(w *textWriter, bearings []domain.BearingCondition) {
	if len(bearings) == 0 {
		return
	}
	w.section("BEARING CONDITION (" + domain.StandardISO15243 + ")")
	for _, b := range bearings {
		w.line("%s: Stage %d - %s", b.Location, b.Stage, b.Condition)
		w.line("  HF: %s g, Temperature Rise: %s °C", num(b.HF), num(b.TempRise))
		if b.Demod != nil {
			w.line("  Demodulation: %s gE", num(*b.Demod))
		}
		w.line("  Recommendation: %s", b.Recommendation)
	}
	w.blank()
}

func writeAssessments(w *textWriter, e *domain.ElectricalAssessment, h *domain.HydraulicAssessment) {
	if e == nil && h == nil {
		return
	}
	w.section("ELECTRICAL & HYDRAULIC")
	if e != nil {
		w.line("Voltage Imbalance: %s %%", num(e.VoltageImbalancePct))
		w.line("Current Imbalance: %s %%", num(e.CurrentImbalancePct))
		w.line("Load Factor: %s %%", num(e.LoadFactorPct))
		if e.SlipPct != nil {
			w.line("Slip: %s %%", num(*e.SlipPct))
		}
		writeIssues(w, e.Issues)
	}
	if h != nil {
		w.line("NPSHa: %s m (NPSHr %s m, margin %s m)", num(h.NPSHa), num(h.NPSHr), num(h.NPSHaMargin))
		w.line("BEP Deviation: %s %%", num(h.BEPDeviationPct))
		w.line("Cavitation Risk: %s", h.CavitationRisk)
		writeIssues(w, h.Issues)
	}
	w.blank()
}

func writeIssues(w *textWriter, issues []domain.Issue) {
	for _, i := range issues {
		w.line("  ! [%s] %s = %s %s (%s, %s)", i.Severity, i.Parameter, num(i.Value), i.Unit, i.Threshold, i.Standard)
	}
}

func writeActions(w *textWriter, r domain.DiagnosisResult) {
	w.section("RECOMMENDED ACTIONS")
	if r.Risk != nil {
		w.line("Risk Level: %s", r.Risk.RiskLevel)
		w.line("Severity: %s - %s", r.Risk.SeverityLevel, r.Risk.SeverityDescription)
		w.line("Probability: %s - %s", r.Risk.ProbabilityLevel, r.Risk.ProbabilityDescription)
		w.line("MTBF Estimation: %d days", r.Risk.MTBFDays)
	}
	for i, rec := range r.Recommendations {
		w.line("%d. [%s] %s", i+1, rec.Priority, rec.Timeline)
		w.line("   Action: %s", rec.Action)
		if rec.Details != "" {
			w.line("   Details: %s", rec.Details)
		}
		if rec.Standard != "" {
			w.line("   Standard: %s", rec.Standard)
		}
	}
	w.blank()
}

func writeCompliance(w *textWriter, r domain.DiagnosisResult) {
	w.section("COMPLIANCE STATUS")
	keys := make([]string, 0, len(r.Compliance))
	for k := range r.Compliance {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		w.line("%s: %s", k, r.Compliance[k])
	}
	w.line("Overall Status: %s", r.OverallCompliance)
	w.blank()
}

type jsonReport struct {
	Metadata jsonMetadata           `json:"report_metadata"`
	Result   domain.DiagnosisResult `json:"diagnosis_result"`
	Audit    jsonAudit              `json:"audit_trail"`
}

type jsonMetadata struct {
	ReportType  string    `json:"report_type"`
	ReportID    string    `json:"report_id"`
	DiagnosisID string    `json:"diagnosis_id"`
	Generated   time.Time `json:"generated_date"`
	RecordedAt  time.Time `json:"recorded_at"`
	Source      string    `json:"source"`
	Asset       jsonAsset `json:"asset_info"`
}

type jsonAsset struct {
	AssetID  string `json:"asset_id"`
	Location string `json:"location"`
	PumpType string `json:"pump_type"`
}

type jsonAudit struct {
	StandardsUsed   []string `json:"standards_used"`
	ConfidenceScore float64  `json:"confidence_score"`
	AnalysisEngine  string   `json:"analysis_engine"`
}

// RenderJSON 元数据 + 完整诊断结果 + 审计信息
func RenderJSON(doc domain.DiagnosisDocument) ([]byte, error) {
	rep := jsonReport{
		Metadata: jsonMetadata{
			ReportType:  reportTitle,
			ReportID:    ReportID(doc),
			DiagnosisID: strconv.FormatUint(doc.DiagnosisID, 10),
			Generated:   doc.CreateTime,
			RecordedAt:  doc.RecordedAt,
			Source:      doc.Source,
			Asset: jsonAsset{
				AssetID:  doc.AssetID,
				Location: doc.Location,
				PumpType: doc.PumpType,
			},
		},
		Result: doc.Result,
		Audit: jsonAudit{
			StandardsUsed:   doc.Result.Audit.StandardsReferenced,
			ConfidenceScore: doc.Result.Audit.ConfidenceScore,
			AnalysisEngine:  analysisEngine,
		},
	}
	body, err := sonic.ConfigStd.MarshalIndent(rep, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "序列化报告失败")
	}
	return body, nil
}
