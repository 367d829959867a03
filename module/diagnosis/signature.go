package diagnosis

import (
	"fmt"
	"sort"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/domain"
)

// 各特征规则的固定基础置信度
const (
	confidenceElectrical   = 0.92
	confidenceMechanical   = 0.88
	confidenceMisalignment = 0.85
	confidenceBearing      = 0.87
	confidenceCavitation   = 0.80
	confidenceNoFault      = 0.95
)

// 特征判定阈值
const (
	voltageImbalanceLimit = 2.0  // %
	bearingHFLimit        = 0.7  // g
	bearingGradientLimit  = 15.0 // °C
	npshMarginLimit       = 0.6  // m
	bepDeviationLimit     = 20.0 // %
)

// DetectSignatures 对五类故障特征独立判定，按置信度降序返回；无命中时返回单个 NO_FAULT。
func DetectSignatures(avg domain.DirectionAverages, ind Indicators) []domain.FaultCandidate {
	sf := ind.Spectral
	var faults []domain.FaultCandidate

	vImbalanced := ind.VoltageImbalance > voltageImbalanceLimit

	if sf.TwoLFDominant && vImbalanced {
		p := sf.TwoLFPeak
		faults = append(faults, domain.FaultCandidate{
			Type:            domain.FaultElectricalUnbalance,
			BaseConfidence:  confidenceElectrical,
			PrimaryEvidence: fmt.Sprintf("2×Line Freq dominant at %.1f Hz (%.1f mm/s)", p.FrequencyHz, p.Amplitude),
			Evidence: []string{
				fmt.Sprintf("2LF/1X ratio = %.2f > 0.5 threshold", ratio(p.Amplitude, sf.Peak1.Amplitude)),
				fmt.Sprintf("Voltage imbalance %.1f%% > 2%% limit (IEC 60034-1 §6.3)", ind.VoltageImbalance),
				"Phase instability expected (electrical origin)",
			},
			Standard: "ISO 13373-2 Clause 5.4.3 + NEMA MG-1 §14.32",
			Severity: domain.SeverityWarning,
		})
	}

	if sf.OneXDominant && !sf.TwoLFDominant && ind.VoltageImbalance < voltageImbalanceLimit {
		p := sf.OneXPeak
		faults = append(faults, domain.FaultCandidate{
			Type:            domain.FaultMechanicalUnbalance,
			BaseConfidence:  confidenceMechanical,
			PrimaryEvidence: fmt.Sprintf("1X dominant at %.1f Hz (%.1f mm/s, %.0f%% RMS)", p.FrequencyHz, p.Amplitude, sf.OneXRatio*100),
			Evidence: []string{
				fmt.Sprintf("1X/Total RMS ratio = %.2f > 0.80 threshold", sf.OneXRatio),
				"Phase stability expected (mechanical origin)",
				fmt.Sprintf("Fundamental frequency = %.2f Hz (RPM/60)", ind.Fundamental),
			},
			Standard: "ISO 1940-1:2003 G2.5",
			Severity: domain.SeverityWarning,
		})
	}

	if sf.TwoXDominant {
		p := sf.TwoXPeak
		faultType, pattern := domain.FaultParallelMisalignment, "Radial"
		if avg.PumpA > avg.PumpV {
			faultType, pattern = domain.FaultAngularMisalignment, "Axial"
		}
		faults = append(faults, domain.FaultCandidate{
			Type:            faultType,
			BaseConfidence:  confidenceMisalignment,
			PrimaryEvidence: fmt.Sprintf("2X dominant at %.1f Hz (%.1f mm/s)", p.FrequencyHz, p.Amplitude),
			Evidence: []string{
				fmt.Sprintf("2X/1X ratio = %.2f > 0.5 threshold", sf.TwoXRatio),
				fmt.Sprintf("%s vibration dominant at pump (A %.2f / V %.2f mm/s)", pattern, avg.PumpA, avg.PumpV),
				fmt.Sprintf("2X frequency = %.2f Hz (2×RPM/60)", 2*ind.Fundamental),
			},
			Standard: "API 671 Clause 5.3",
			Severity: domain.SeverityWarning,
		})
	}

	gradientHigh := ind.TempGradient > bearingGradientLimit
	if ind.PumpHF > bearingHFLimit && (gradientHigh || sf.BPFOPeak != nil) {
		evidence := make([]string, 0, 3)
		if sf.BPFOPeak != nil {
			evidence = append(evidence, fmt.Sprintf("Peak at %.1f Hz (BPFO candidate - non-harmonic)", sf.BPFOPeak.FrequencyHz))
		}
		if gradientHigh {
			evidence = append(evidence, fmt.Sprintf("Temperature gradient DE-NDE = %.0f°C >15°C", ind.TempGradient))
		}
		evidence = append(evidence, "High frequency bands indicate bearing defect (ISO 15243)")
		faults = append(faults, domain.FaultCandidate{
			Type:            domain.FaultBearingDefect,
			BaseConfidence:  confidenceBearing,
			PrimaryEvidence: fmt.Sprintf("HF 5-16 kHz = %.2fg > 0.7g threshold", ind.PumpHF),
			Evidence:        evidence,
			Standard:        "ISO 15243:2017 Table 2",
			Severity:        domain.SeverityWarning,
		})
	}

	if ind.NPSHaMargin < npshMarginLimit && ind.BEPDeviation > bepDeviationLimit {
		faults = append(faults, domain.FaultCandidate{
			Type:            domain.FaultCavitation,
			BaseConfidence:  confidenceCavitation,
			PrimaryEvidence: fmt.Sprintf("NPSHa margin = %.2fm < 0.6m safety margin", ind.NPSHaMargin),
			Evidence: []string{
				fmt.Sprintf("BEP deviation = %.0f%% > 20%% limit", ind.BEPDeviation),
				"Operating outside Best Efficiency Point",
				"Cavitation risk increases bearing load",
			},
			Standard: "API 610 Clause 7.3.2",
			Severity: domain.SeverityWarning,
		})
	}

	if len(faults) == 0 {
		return []domain.FaultCandidate{{
			Type:            domain.FaultNone,
			BaseConfidence:  confidenceNoFault,
			PrimaryEvidence: "No fault signature matched",
			Evidence:        []string{},
			Standard:        "ISO 13373-2 Clause 5.4",
		}}
	}

	sort.SliceStable(faults, func(i, j int) bool {
		return faults[i].BaseConfidence > faults[j].BaseConfidence
	})
	return faults
}

func ratio(a, b float64) float64 {
	if b <= 0 {
		return 0
	}
	return a / b
}
