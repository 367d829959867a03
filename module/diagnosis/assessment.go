package diagnosis

import (
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/domain"
)

// AssessElectrical 电源质量与负载检查。
func AssessElectrical(ind Indicators) domain.ElectricalAssessment {
	ea := domain.ElectricalAssessment{
		VoltageImbalancePct: ind.VoltageImbalance,
		CurrentImbalancePct: ind.CurrentImbalance,
		LoadFactorPct:       ind.LoadFactor,
		SlipPct:             ind.Slip,
		Issues:              []domain.Issue{},
	}

	switch {
	case ind.VoltageImbalance > 5:
		ea.Issues = append(ea.Issues, issue("Voltage Imbalance", ind.VoltageImbalance, "%", ">5.0%", domain.SeverityCritical, "IEC 60034-1 §6.3"))
	case ind.VoltageImbalance > 2:
		ea.Issues = append(ea.Issues, issue("Voltage Imbalance", ind.VoltageImbalance, "%", ">2.0%", domain.SeverityWarning, "IEC 60034-1 §6.3"))
	}

	switch {
	case ind.CurrentImbalance > 10:
		ea.Issues = append(ea.Issues, issue("Current Imbalance", ind.CurrentImbalance, "%", ">10.0%", domain.SeverityCritical, "NEMA MG-1 §14.32"))
	case ind.CurrentImbalance > 5:
		ea.Issues = append(ea.Issues, issue("Current Imbalance", ind.CurrentImbalance, "%", ">5.0%", domain.SeverityWarning, "NEMA MG-1 §14.32"))
	}

	if ind.Slip != nil && *ind.Slip > 3 {
		ea.Issues = append(ea.Issues, issue("Motor Slip", *ind.Slip, "%", ">3.0%", domain.SeverityWarning, "IEC 60034-1 Clause 5.2"))
	}

	switch {
	case ind.LoadFactor > MaxLoadFactor:
		ea.Issues = append(ea.Issues, issue("Overload", ind.LoadFactor, "%", ">110%", domain.SeverityCritical, overloadStandard))
	case ind.LoadFactor < 40:
		ea.Issues = append(ea.Issues, issue("Underload", ind.LoadFactor, "%", "<40%", domain.SeverityWarning, "API 610 Clause 7.3"))
	}
	return ea
}

// AssessHydraulic NPSH 裕量与 BEP 偏离检查，两者同时越限时汽蚀风险为 HIGH。
func AssessHydraulic(rec domain.MeasurementRecord, ind Indicators) domain.HydraulicAssessment {
	ha := domain.HydraulicAssessment{
		NPSHa:           ind.NPSHa,
		NPSHr:           rec.Asset.NPSHr,
		NPSHaMargin:     ind.NPSHaMargin,
		BEPDeviationPct: ind.BEPDeviation,
		CavitationRisk:  domain.LevelLow,
		Issues:          []domain.Issue{},
	}

	lowMargin := ind.NPSHaMargin < npshMarginLimit
	switch {
	case ind.NPSHaMargin < 0.3:
		ha.Issues = append(ha.Issues, issue("NPSHa Margin", ind.NPSHaMargin, "m", "<0.3m", domain.SeverityCritical, "API 610 Clause 7.3.2"))
	case lowMargin:
		ha.Issues = append(ha.Issues, issue("NPSHa Margin", ind.NPSHaMargin, "m", "<0.6m", domain.SeverityWarning, "API 610 Clause 7.3.2"))
	}

	offBEP := ind.BEPDeviation > bepDeviationLimit
	switch {
	case ind.BEPDeviation > 30:
		ha.Issues = append(ha.Issues, issue("BEP Deviation", ind.BEPDeviation, "%", ">30%", domain.SeverityCritical, "API 610 Clause 7.3"))
	case offBEP:
		ha.Issues = append(ha.Issues, issue("BEP Deviation", ind.BEPDeviation, "%", ">20%", domain.SeverityWarning, "API 610 Clause 7.3"))
	}

	switch {
	case lowMargin && offBEP:
		ha.CavitationRisk = domain.LevelHigh
	case lowMargin || offBEP:
		ha.CavitationRisk = domain.LevelMedium
	}
	return ha
}

func issue(parameter string, value float64, unit, threshold, severity, standard string) domain.Issue {
	return domain.Issue{
		Parameter: parameter,
		Value:     value,
		Unit:      unit,
		Threshold: threshold,
		Severity:  severity,
		Standard:  standard,
	}
}

// complianceRank 用于取最差状态。
var complianceRank = map[domain.ComplianceStatus]int{
	domain.Compliant:    0,
	domain.Warning:      1,
	domain.NonCompliant: 2,
}

// assessCompliance 逐标准判定；risk 为 nil 时不评估 ISO 45001。
func assessCompliance(zone domain.ZoneResult, ind Indicators, worstStage int, risk *domain.RiskResult) map[string]domain.ComplianceStatus {
	c := make(map[string]domain.ComplianceStatus, 5)

	switch zone.Zone {
	case domain.ZoneA, domain.ZoneB:
		c[domain.StandardISO10816] = domain.Compliant
	case domain.ZoneC:
		c[domain.StandardISO10816] = domain.Warning
	default:
		c[domain.StandardISO10816] = domain.NonCompliant
	}

	switch {
	case ind.VoltageImbalance <= 2:
		c[domain.StandardIEC60034] = domain.Compliant
	case ind.VoltageImbalance <= 5:
		c[domain.StandardIEC60034] = domain.Warning
	default:
		c[domain.StandardIEC60034] = domain.NonCompliant
	}

	switch {
	case ind.NPSHaMargin >= 0.6:
		c[domain.StandardAPI610] = domain.Compliant
	case ind.NPSHaMargin >= 0.3:
		c[domain.StandardAPI610] = domain.Warning
	default:
		c[domain.StandardAPI610] = domain.NonCompliant
	}

	switch {
	case worstStage == 0:
		c[domain.StandardISO15243] = domain.Compliant
	case worstStage == 1:
		c[domain.StandardISO15243] = domain.Warning
	default:
		c[domain.StandardISO15243] = domain.NonCompliant
	}

	if risk != nil {
		switch risk.RiskLevel {
		case domain.RiskLow:
			c[domain.StandardISO45001] = domain.Compliant
		case domain.RiskMedium:
			c[domain.StandardISO45001] = domain.Warning
		default:
			c[domain.StandardISO45001] = domain.NonCompliant
		}
	}
	return c
}

// emergencyCompliance 紧急停机时每个触发项对应标准及 API 670 均不符合。
func emergencyCompliance(triggers []domain.SafetyTrigger) map[string]domain.ComplianceStatus {
	c := map[string]domain.ComplianceStatus{domain.StandardAPI670: domain.NonCompliant}
	for _, t := range triggers {
		c[triggerCompliance(t)] = domain.NonCompliant
	}
	return c
}

func overallCompliance(c map[string]domain.ComplianceStatus) domain.ComplianceStatus {
	overall := domain.Compliant
	for _, s := range c {
		if complianceRank[s] > complianceRank[overall] {
			overall = s
		}
	}
	return overall
}
