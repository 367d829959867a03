package diagnosis

import (
	"fmt"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/domain"
)

const riskStandard = "ISO 45001:2018 Annex A + API 581 RBI Methodology"

// 各故障类型的 MTBF 基准（天）
var baseMTBF = map[domain.FaultType]int{
	domain.FaultElectricalUnbalance: 45,
	domain.FaultMechanicalUnbalance: 60,
	domain.FaultBearingDefect:       21,
	domain.FaultCavitation:          14,
	domain.FaultNone:                365,
}

const (
	misalignmentMTBF = 30
	defaultMTBF      = 90
)

type riskCell struct {
	level    domain.RiskLevel
	timeline string
	priority string
}

// riskMatrix [严重度][可能性]
var riskMatrix = map[domain.Level]map[domain.Level]riskCell{
	domain.LevelHigh: {
		domain.LevelHigh:   {domain.RiskCritical, "<4 hours", "IMMEDIATE SHUTDOWN"},
		domain.LevelMedium: {domain.RiskHigh, "<24 hours", "CORRECTIVE MAINTENANCE"},
		domain.LevelLow:    {domain.RiskMedium, "<72 hours", "SCHEDULED MAINTENANCE"},
	},
	domain.LevelMedium: {
		domain.LevelHigh:   {domain.RiskHigh, "<24 hours", "CORRECTIVE MAINTENANCE"},
		domain.LevelMedium: {domain.RiskMedium, "<7 days", "PLANNED MAINTENANCE"},
		domain.LevelLow:    {domain.RiskLow, "<30 days", "ROUTINE MONITORING"},
	},
	domain.LevelLow: {
		domain.LevelHigh:   {domain.RiskMedium, "<7 days", "PLANNED MAINTENANCE"},
		domain.LevelMedium: {domain.RiskLow, "<30 days", "ROUTINE MONITORING"},
		domain.LevelLow:    {domain.RiskLow, "<90 days", "ROUTINE MONITORING"},
	},
}

// AssessRisk 严重度 × 可能性查 3×3 风险矩阵，并生成维护建议。
// worstStage 为各测点轴承分级的最大值，Stage 3 直接判为高严重度。
func AssessRisk(fusion domain.FusionResult, zone domain.ZoneResult, ind Indicators, worstStage int) domain.RiskResult {
	res := domain.RiskResult{Standard: riskStandard}

	conf := fusion.PrimaryConfidence
	switch {
	case zone.Zone == domain.ZoneD || worstStage >= 3 || (conf > 90 && zone.Zone == domain.ZoneC):
		res.SeverityLevel = domain.LevelHigh
		res.SeverityDescription = "Major damage potential - bearing failure imminent"
	case conf > 80 && (zone.Zone == domain.ZoneB || zone.Zone == domain.ZoneC):
		res.SeverityLevel = domain.LevelMedium
		res.SeverityDescription = "Moderate damage potential - requires attention"
	default:
		res.SeverityLevel = domain.LevelLow
		res.SeverityDescription = "Minor issue - routine monitoring acceptable"
	}

	res.MTBFDays = EstimateMTBF(fusion.PrimaryFault, zone, ind)
	switch {
	case res.MTBFDays < 7:
		res.ProbabilityLevel = domain.LevelHigh
		res.ProbabilityDescription = "Failure likely within 7 days"
	case res.MTBFDays < 30:
		res.ProbabilityLevel = domain.LevelMedium
		res.ProbabilityDescription = "Failure likely within 30 days"
	default:
		res.ProbabilityLevel = domain.LevelLow
		res.ProbabilityDescription = "Failure unlikely within 90 days"
	}

	cell := riskMatrix[res.SeverityLevel][res.ProbabilityLevel]
	res.RiskLevel, res.Timeline, res.ActionPriority = cell.level, cell.timeline, cell.priority
	res.Recommendations = recommendations(fusion.PrimaryFault, res.MTBFDays, res.RiskLevel)
	return res
}

// EstimateMTBF 基准值按振动区域、轴承高频和温升逐级下调。
func EstimateMTBF(fault domain.FaultType, zone domain.ZoneResult, ind Indicators) int {
	mtbf, ok := baseMTBF[fault]
	switch {
	case fault.IsMisalignment():
		mtbf = misalignmentMTBF
	case !ok:
		mtbf = defaultMTBF
	}

	switch {
	case zone.Zone == domain.ZoneC || zone.Zone == domain.ZoneD:
		mtbf = max(mtbf/3, 3)
	case highZoneB(zone):
		mtbf = max(mtbf/2, 7)
	}

	if fault == domain.FaultBearingDefect {
		switch {
		case ind.PumpHF > 1.5:
			mtbf = 3
		case ind.PumpHF > 1.0:
			mtbf = 7
		}
	}

	switch {
	case ind.TempRise > 60:
		mtbf = max(mtbf/2, 2)
	case ind.TempRise > 50:
		mtbf = max(mtbf*2/3, 3)
	}
	return mtbf
}

func recommendations(fault domain.FaultType, mtbf int, level domain.RiskLevel) []domain.Recommendation {
	urgent := level == domain.RiskCritical || level == domain.RiskHigh
	monitor := domain.Recommendation{
		Priority: "MONITOR",
		Timeline: "Weekly",
		Action:   "Monitor vibration and temperature trends",
		Details:  "Record FFT spectrum and bearing temperatures daily until resolved",
		Standard: "ISO 13373-3 Clause 7.2",
	}
	if urgent {
		monitor.Timeline = "Daily"
	}

	var primary, follow *domain.Recommendation
	switch {
	case fault == domain.FaultElectricalUnbalance:
		primary = &domain.Recommendation{
			Priority: "HIGH",
			Timeline: "<24 hours",
			Action:   "Correct voltage imbalance to <2%",
			Details:  "Check tap changer transformer and balance 3-phase load distribution",
			Standard: "IEC 60034-1 §6.3",
		}
		if level == domain.RiskCritical {
			primary.Priority, primary.Timeline = "CRITICAL", "<4 hours"
		}
		follow = &domain.Recommendation{
			Priority: "MEDIUM",
			Timeline: "<7 days",
			Action:   "Verify motor terminal connections",
			Details:  "Check for loose connections or corrosion at motor terminals",
			Standard: "NEMA MG-1 §14.32",
		}
	case fault == domain.FaultMechanicalUnbalance:
		primary = &domain.Recommendation{
			Priority: "HIGH",
			Timeline: "<72 hours",
			Action:   "Schedule dynamic balancing",
			Details:  "Perform dynamic balancing to ISO 1940-1 G2.5 grade",
			Standard: "ISO 1940-1:2003 G2.5",
		}
		follow = &domain.Recommendation{
			Priority: "MEDIUM",
			Timeline: "<7 days",
			Action:   "Inspect impeller for fouling or damage",
			Details:  "Check impeller for product buildup or erosion damage",
			Standard: "API 610 Clause 8.4.3",
		}
	case fault.IsMisalignment():
		primary = &domain.Recommendation{
			Priority: "HIGH",
			Timeline: "<72 hours",
			Action:   "Re-align coupling",
			Details:  "Perform laser alignment to API 671 tolerances (±0.05 mm)",
			Standard: "API 671 Clause 5.3",
		}
		follow = &domain.Recommendation{
			Priority: "MEDIUM",
			Timeline: "<7 days",
			Action:   "Inspect coupling and foundation bolts",
			Details:  "Check for loose foundation bolts or coupling wear",
			Standard: "API 686 Chapter 4",
		}
	case fault == domain.FaultBearingDefect:
		primary = &domain.Recommendation{
			Priority: "HIGH",
			Timeline: fmt.Sprintf("<%d days", min(mtbf, 14)),
			Action:   "Schedule bearing replacement",
			Details:  fmt.Sprintf("MTBF estimation: %d days. Replace before Stage 3 progression.", mtbf),
			Standard: bearingStandard,
		}
		if mtbf < 7 {
			primary.Priority = "CRITICAL"
		}
		follow = &domain.Recommendation{
			Priority: "MEDIUM",
			Timeline: "<30 days",
			Action:   "Check lubrication system",
			Details:  "Verify oil level, quality, and contamination level (ISO 4406)",
			Standard: "ISO 12922",
		}
	case fault == domain.FaultCavitation:
		primary = &domain.Recommendation{
			Priority: "HIGH",
			Timeline: "<24 hours",
			Action:   "Adjust flow control valve",
			Details:  "Operate within 70-110% BEP to prevent cavitation damage",
			Standard: "API 610 Clause 7.3.2",
		}
		follow = &domain.Recommendation{
			Priority: "MEDIUM",
			Timeline: "<7 days",
			Action:   "Check NPSHa margin",
			Details:  "Verify suction pressure and vapor pressure margin",
			Standard: "API 610 Clause 7.3.2",
		}
	}

	recs := make([]domain.Recommendation, 0, 3)
	if primary != nil {
		recs = append(recs, *primary)
	}
	recs = append(recs, monitor)
	if follow != nil {
		recs = append(recs, *follow)
	}
	return recs
}
