package diagnosis

import (
	"math"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/domain"
)

// 安全闸门绝对阈值，与机组分组和基础类型无关。
const (
	MaxBearingTemperature   = 120.0 // °C
	MaxVibrationVelocity    = 11.2  // mm/s，Zone D 绝对上限
	MaxDischargeFluctuation = 15.0  // %
	MaxLoadFactor           = 110.0 // %
)

const (
	safetyStandard               = "API 670 Annex G Table G.1 + OSHA 1910.147"
	bearingTemperatureStandard   = "API 610 Table 8.4.3-1"
	vibrationShutdownStandard    = "ISO 10816-3:2001 Clause 5.4"
	dischargeFluctuationStandard = "API 610 Clause 7.3.4"
	overloadStandard             = "IEC 60034-1 Table 3"
)

// CheckSafety 四项独立的停机判定，全部评估后取或。
// 压力波动未提供时不评估。
func CheckSafety(rec domain.MeasurementRecord, avg domain.DirectionAverages, ind Indicators) domain.SafetyResult {
	var triggers []domain.SafetyTrigger

	motorMax := math.Max(rec.Thermal.MotorDE, rec.Thermal.MotorNDE)
	if motorMax > MaxBearingTemperature {
		triggers = append(triggers, domain.SafetyTrigger{
			Parameter: "Motor Bearing Temperature",
			Component: "Motor",
			Value:     motorMax,
			Threshold: MaxBearingTemperature,
			Unit:      "°C",
			Standard:  bearingTemperatureStandard,
			Action:    "IMMEDIATE SHUTDOWN - LOTO required",
			Severity:  domain.SeverityCritical,
		})
	}

	pumpMax := math.Max(rec.Thermal.PumpDE, rec.Thermal.PumpNDE)
	if pumpMax > MaxBearingTemperature {
		triggers = append(triggers, domain.SafetyTrigger{
			Parameter: "Pump Bearing Temperature",
			Component: "Pump",
			Value:     pumpMax,
			Threshold: MaxBearingTemperature,
			Unit:      "°C",
			Standard:  bearingTemperatureStandard,
			Action:    "IMMEDIATE SHUTDOWN - LOTO required",
			Severity:  domain.SeverityCritical,
		})
	}

	if avg.MaxVelocity > MaxVibrationVelocity {
		triggers = append(triggers, domain.SafetyTrigger{
			Parameter: "Vibration Velocity",
			Component: avg.MaxDirection,
			Value:     avg.MaxVelocity,
			Threshold: MaxVibrationVelocity,
			Unit:      "mm/s",
			Standard:  vibrationShutdownStandard,
			Action:    "IMMEDIATE SHUTDOWN - bearing damage imminent",
			Severity:  domain.SeverityCritical,
		})
	}

	if f := rec.Hydraulic.DischargeFluctuationPct; f != nil && *f > MaxDischargeFluctuation {
		triggers = append(triggers, domain.SafetyTrigger{
			Parameter: "Discharge Pressure Fluctuation",
			Component: "Hydraulic",
			Value:     *f,
			Threshold: MaxDischargeFluctuation,
			Unit:      "%",
			Standard:  dischargeFluctuationStandard,
			Action:    "IMMEDIATE SHUTDOWN - surge protection required",
			Severity:  domain.SeverityCritical,
		})
	}

	if ind.LoadFactor > MaxLoadFactor {
		triggers = append(triggers, domain.SafetyTrigger{
			Parameter: "Motor Load Factor",
			Component: "Electrical",
			Value:     ind.LoadFactor,
			Threshold: MaxLoadFactor,
			Unit:      "%",
			Standard:  overloadStandard,
			Action:    "IMMEDIATE SHUTDOWN - overload protection",
			Severity:  domain.SeverityCritical,
		})
	}

	status := "SAFE"
	if len(triggers) > 0 {
		status = domain.SeverityCritical
	}
	return domain.SafetyResult{
		ShutdownRequired: len(triggers) > 0,
		Triggers:         triggers,
		Status:           status,
		Standard:         safetyStandard,
	}
}

// triggerCompliance 触发项对应的符合性条目。
func triggerCompliance(t domain.SafetyTrigger) string {
	switch t.Standard {
	case vibrationShutdownStandard:
		return domain.StandardISO10816
	case overloadStandard:
		return domain.StandardIEC60034
	default:
		return domain.StandardAPI610
	}
}
