package diagnosis

import (
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/domain"
)

const bearingStandard = "ISO 15243:2017 Table 2"

// AssessBearing ISO 15243 轴承缺陷分级，demod 为 nil 时不做冲击判定。
func AssessBearing(location string, hf, tempRise float64, demod *float64) domain.BearingCondition {
	bc := domain.BearingCondition{
		Location: location,
		HF:       hf,
		TempRise: tempRise,
		Demod:    demod,
		Standard: bearingStandard,
	}
	switch {
	case hf < 0.3:
		bc.Stage, bc.Condition, bc.Recommendation = 0, "NORMAL", "Continue routine monitoring"
	case hf < 0.7:
		bc.Stage, bc.Condition, bc.Recommendation = 1, "EARLY STAGE", "Monitor closely - defect incipient"
	case hf < 1.5:
		bc.Stage, bc.Condition, bc.Recommendation = 2, "MODERATE DEFECT", "Plan replacement within 30 days"
	default:
		bc.Stage, bc.Condition, bc.Recommendation = 3, "SEVERE DEFECT", "Replace immediately - failure imminent"
	}

	if tempRise > 60 {
		bc.Condition += " + OVERHEATING"
		bc.Recommendation = "URGENT: Replace bearing and check lubrication"
	}
	if demod != nil && *demod > 0.5 {
		bc.Condition += " + IMPACT DETECTED"
		bc.Recommendation += " - Demodulation confirms defect"
	}
	return bc
}

// assessBearings 泵 DE 在前，电机 DE 在后。
func assessBearings(rec domain.MeasurementRecord, ind Indicators) []domain.BearingCondition {
	return []domain.BearingCondition{
		AssessBearing(domain.LocationPumpDE, ind.PumpHF, ind.TempRise, rec.Advanced.PumpDEDemod),
		AssessBearing(domain.LocationMotorDE, ind.MotorHF, ind.MotorTempRise, rec.Advanced.MotorDEDemod),
	}
}

func worstBearingStage(bearings []domain.BearingCondition) int {
	worst := 0
	for _, b := range bearings {
		if b.Stage > worst {
			worst = b.Stage
		}
	}
	return worst
}
