package diagnosis

import (
	"fmt"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/domain"
	"github.com/pkg/errors"
)

// zoneLimits 单个分组/基础组合的 A/B/C 区上限（mm/s RMS）。
type zoneLimits struct {
	a, b, c float64
}

// ISO 10816-3 Table 2；Group 1 取 ISO 20816-1 小型机组的 Class I/II 数值。
var zoneTable = map[int]map[domain.Foundation]zoneLimits{
	1: {
		domain.FoundationRigid:    {a: 0.71, b: 1.8, c: 4.5},
		domain.FoundationFlexible: {a: 1.12, b: 2.8, c: 7.1},
	},
	2: {
		domain.FoundationRigid:    {a: 1.8, b: 4.5, c: 7.1},
		domain.FoundationFlexible: {a: 2.8, b: 7.1, c: 11.2},
	},
	3: {
		domain.FoundationRigid:    {a: 2.8, b: 7.1, c: 11.2},
		domain.FoundationFlexible: {a: 4.5, b: 11.2, c: 18.0},
	},
}

// MachineGroup 按电机功率划分机组：≤15 kW 为 1 组，≤75 kW 为 2 组，其余为 3 组。
func MachineGroup(powerKW float64) int {
	switch {
	case powerKW <= 15:
		return 1
	case powerKW <= 75:
		return 2
	default:
		return 3
	}
}

// Classify 按 ISO 10816-3 将速度有效值划入 A-D 区，边界值归入较低的区。
func Classify(velocity, rpm, powerKW float64, foundation domain.Foundation) (domain.ZoneResult, error) {
	if velocity < 0 {
		return domain.ZoneResult{}, errors.Wrapf(domain.ErrInvalidMeasurement, "振动速度为负: %v", velocity)
	}
	if rpm <= 0 || powerKW <= 0 {
		return domain.ZoneResult{}, errors.Wrapf(domain.ErrInvalidMeasurement, "转速或功率非法: rpm=%v power=%v", rpm, powerKW)
	}
	group := MachineGroup(powerKW)
	limits, ok := zoneTable[group][foundation]
	if !ok {
		return domain.ZoneResult{}, errors.Wrapf(domain.ErrInvalidMeasurement, "未知基础类型: %q", foundation)
	}

	res := domain.ZoneResult{
		Velocity:   velocity,
		RPM:        rpm,
		PowerKW:    powerKW,
		Group:      group,
		Foundation: foundation,
		LimitA:     limits.a,
		LimitB:     limits.b,
		LimitC:     limits.c,
		Standard:   fmt.Sprintf("ISO 10816-3:2001 Table 2 (Group %d, %s)", group, foundation),
	}
	switch {
	case velocity <= limits.a:
		res.Zone = domain.ZoneA
		res.Remark = "New machine condition or after repair"
		res.Action = "Continue normal operation"
		res.Clause = "ISO 10816-3 Clause 5.1"
	case velocity <= limits.b:
		res.Zone = domain.ZoneB
		res.Remark = "Acceptable for unlimited operation"
		res.Action = "Routine monitoring (monthly)"
		res.Clause = "ISO 10816-3 Clause 5.2"
	case velocity <= limits.c:
		res.Zone = domain.ZoneC
		res.Remark = "UNSATISFACTORY - Short-term operation only"
		res.Action = "Schedule corrective maintenance within 72 hours"
		res.Clause = "ISO 10816-3 Clause 5.3"
	default:
		res.Zone = domain.ZoneD
		res.Remark = "UNACCEPTABLE - Vibration causes damage"
		res.Action = "IMMEDIATE SHUTDOWN REQUIRED"
		res.Clause = "ISO 10816-3 Clause 5.4"
	}
	return res, nil
}

// highZoneB 位于 B 区上半段。
func highZoneB(z domain.ZoneResult) bool {
	return z.Zone == domain.ZoneB && z.Velocity > (z.LimitA+z.LimitB)/2
}

// CalculateDirectionAverages 计算电机/泵 H/V/A 六个方向的平均值，并给出最大值及其方向，并列时取靠前者。
func CalculateDirectionAverages(v domain.VibrationReadings) domain.DirectionAverages {
	avg := domain.DirectionAverages{
		MotorH: v.Motor.Horizontal.Average(),
		MotorV: v.Motor.Vertical.Average(),
		MotorA: v.Motor.Axial.Average(),
		PumpH:  v.Pump.Horizontal.Average(),
		PumpV:  v.Pump.Vertical.Average(),
		PumpA:  v.Pump.Axial.Average(),
	}
	ordered := []struct {
		label string
		value float64
	}{
		{"Motor H", avg.MotorH},
		{"Motor V", avg.MotorV},
		{"Motor A", avg.MotorA},
		{"Pump H", avg.PumpH},
		{"Pump V", avg.PumpV},
		{"Pump A", avg.PumpA},
	}
	avg.MaxVelocity, avg.MaxDirection = ordered[0].value, ordered[0].label
	for _, d := range ordered[1:] {
		if d.value > avg.MaxVelocity {
			avg.MaxVelocity, avg.MaxDirection = d.value, d.label
		}
	}
	return avg
}
