package diagnosis

import (
	"fmt"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/domain"
	"github.com/pkg/errors"
)

// noFaultConfidence 无故障结论的置信度（%）
const noFaultConfidence = 95.0

// 审计中列出的引用标准
var standardsReferenced = []string{
	"ISO 10816-3:2001",
	"ISO 13373-2:2012",
	"IEC 60034-1:2017",
	"API 610 Ed.11",
	"ISO 15243:2017",
	"ISO 45001:2018",
}

// Engine 六级诊断流水线。只持有只读参数，可被多个 goroutine 并发调用。
type Engine struct {
	params Parameters
}

// NewEngine 创建诊断引擎，非法参数回落到 DefaultParameters 对应字段
func NewEngine(params Parameters) *Engine {
	return &Engine{params: params.normalized()}
}

// Parameters 返回引擎使用的诊断参数
func (e *Engine) Parameters() Parameters {
	return e.params
}

// run 单次诊断的中间状态，不跨调用复用。
type run struct {
	rec    domain.MeasurementRecord
	ind    Indicators
	avg    domain.DirectionAverages
	result *domain.DiagnosisResult

	bearings   []domain.BearingCondition
	candidates []domain.FaultCandidate
	validated  []domain.ValidatedFault
	fusion     domain.FusionResult
}

type stepFunc func(r *run) (domain.Stage, error)

var steps = map[domain.Stage]stepFunc{
	domain.StageSafetyCheck: (*run).safetyCheck,
	domain.StageSeverity:    (*run).severity,
	domain.StageSignature:   (*run).signature,
	domain.StageValidate:    (*run).validate,
	domain.StageFuse:        (*run).fuse,
	domain.StageRisk:        (*run).risk,
}

// Run 对一条测量记录执行完整诊断。
// 紧急停机、无故障和无确认故障都是正常终态，只有输入非法时返回错误。
func (e *Engine) Run(rec domain.MeasurementRecord) (*domain.DiagnosisResult, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	r := &run{
		rec: rec,
		ind: DeriveIndicators(rec, e.params),
		avg: CalculateDirectionAverages(rec.Vibration),
		result: &domain.DiagnosisResult{
			Faults:          []domain.RankedFault{},
			Recommendations: []domain.Recommendation{},
			Audit: domain.AuditTrail{
				StagesExecuted:      []domain.Stage{},
				StandardsReferenced: append([]string(nil), standardsReferenced...),
			},
		},
	}

	stage := domain.StageSafetyCheck
	for stage != domain.StageDone {
		step, ok := steps[stage]
		if !ok {
			return nil, errors.Errorf("未知诊断阶段: %s", stage)
		}
		r.result.Audit.StagesExecuted = append(r.result.Audit.StagesExecuted, stage)
		next, err := step(r)
		if err != nil {
			return nil, err
		}
		stage = next
	}
	return r.result, nil
}

func (r *run) safetyCheck() (domain.Stage, error) {
	r.result.Safety = CheckSafety(r.rec, r.avg, r.ind)
	if r.result.Safety.ShutdownRequired {
		r.emergency()
		return domain.StageDone, nil
	}
	return domain.StageSeverity, nil
}

func (r *run) severity() (domain.Stage, error) {
	zone, err := Classify(r.avg.MaxVelocity, r.rec.Asset.RatedRPM, r.rec.Asset.MotorPowerKW, r.rec.Asset.Foundation)
	if err != nil {
		return "", err
	}
	avg := r.avg
	r.result.Averages = &avg
	r.result.Zone = &zone

	r.bearings = assessBearings(r.rec, r.ind)
	electrical := AssessElectrical(r.ind)
	hydraulic := AssessHydraulic(r.rec, r.ind)
	r.result.Bearings = r.bearings
	r.result.Electrical = &electrical
	r.result.Hydraulic = &hydraulic
	return domain.StageSignature, nil
}

func (r *run) signature() (domain.Stage, error) {
	r.candidates = DetectSignatures(r.avg, r.ind)
	r.result.Signatures = r.candidates
	if len(r.candidates) == 1 && r.candidates[0].Type == domain.FaultNone {
		r.routine(true)
		return domain.StageDone, nil
	}
	return domain.StageValidate, nil
}

func (r *run) validate() (domain.Stage, error) {
	all := CrossValidate(r.candidates, r.rec, r.avg, r.ind)
	r.result.Validation = all
	for _, vf := range all {
		if vf.Validated {
			r.validated = append(r.validated, vf)
		}
	}
	if len(r.validated) == 0 {
		r.routine(false)
		return domain.StageDone, nil
	}
	return domain.StageFuse, nil
}

func (r *run) fuse() (domain.Stage, error) {
	r.fusion = Fuse(r.validated, r.rec, r.avg, r.ind)
	fusion := r.fusion
	r.result.Fusion = &fusion
	return domain.StageRisk, nil
}

func (r *run) risk() (domain.Stage, error) {
	zone := *r.result.Zone
	risk := AssessRisk(r.fusion, zone, r.ind, worstBearingStage(r.bearings))
	r.result.Risk = &risk
	r.comprehensive()
	return domain.StageDone, nil
}

func (r *run) emergency() {
	res := r.result
	res.ReportType = domain.ReportEmergencyShutdown
	res.Summary = "CRITICAL SAFETY HAZARD DETECTED"
	res.Recommendations = []domain.Recommendation{{
		Priority: domain.SeverityCritical,
		Timeline: "IMMEDIATE",
		Action:   "SHUTDOWN MACHINE NOW",
		Details:  "Follow LOTO procedure per OSHA 1910.147",
		Standard: "OSHA 1910.147 + API 670 Annex G",
	}}
	res.Compliance = emergencyCompliance(res.Safety.Triggers)
	res.OverallCompliance = domain.NonCompliant
}

// routine noFault 为 true 表示特征识别无命中，否则为候选均未通过交叉验证。
func (r *run) routine(noFault bool) {
	res := r.result
	zone := *res.Zone
	res.ReportType = domain.ReportRoutineMonitoring
	if noFault {
		res.Summary = "NO SIGNIFICANT FAULTS DETECTED"
		res.Faults = []domain.RankedFault{{Type: domain.FaultNone, Confidence: noFaultConfidence}}
		res.Audit.ConfidenceScore = noFaultConfidence
	} else {
		res.Summary = "NO CONFIRMED FAULT"
	}

	if zone.Zone == domain.ZoneC || zone.Zone == domain.ZoneD {
		rec := domain.Recommendation{
			Priority: "HIGH",
			Timeline: "<72 hours",
			Action:   zone.Action,
			Details:  zone.Remark,
			Standard: zone.Clause,
		}
		if zone.Zone == domain.ZoneD {
			rec.Priority, rec.Timeline = domain.SeverityCritical, "IMMEDIATE"
		}
		res.Recommendations = append(res.Recommendations, rec)
	}
	res.Recommendations = append(res.Recommendations, domain.Recommendation{
		Priority: "ROUTINE",
		Timeline: "Monthly",
		Action:   "Continue routine monitoring",
		Details:  fmt.Sprintf("Vibration Zone %s - %s", zone.Zone, zone.Remark),
		Standard: "ISO 10816-3 Clause 5.2",
	})

	res.Compliance = assessCompliance(zone, r.ind, worstBearingStage(r.bearings), nil)
	res.OverallCompliance = overallCompliance(res.Compliance)
}

func (r *run) comprehensive() {
	res := r.result
	res.ReportType = domain.ReportComprehensiveDiagnosis
	res.Summary = string(r.fusion.PrimaryFault)
	for _, fp := range r.fusion.All {
		res.Faults = append(res.Faults, domain.RankedFault{Type: fp.Type, Confidence: fp.Posterior})
	}
	res.Recommendations = append(res.Recommendations, res.Risk.Recommendations...)
	res.Compliance = assessCompliance(*res.Zone, r.ind, worstBearingStage(r.bearings), res.Risk)
	res.OverallCompliance = overallCompliance(res.Compliance)
	res.Audit.ConfidenceScore = r.fusion.PrimaryConfidence
}
