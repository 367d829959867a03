package diagnosis

import (
	"fmt"
	"math"
	"sort"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/domain"
)

const (
	validationThreshold = 0.6
	maxConfidence       = 0.95
)

// 证据前缀
const (
	markPassed   = "✓"
	markFailed   = "✗"
	markNotCheck = "○"
)

// consistency 单个候选的一致性累计。
type consistency struct {
	score           float64
	evidence        []string
	inconsistencies []string
}

func (c *consistency) pass(weight float64, format string, args ...interface{}) {
	c.score += weight
	c.evidence = append(c.evidence, markPassed+" "+fmt.Sprintf(format, args...))
}

func (c *consistency) fail(format string, args ...interface{}) {
	c.inconsistencies = append(c.inconsistencies, markFailed+" "+fmt.Sprintf(format, args...))
}

// note 记录未计分的中性证据。
func (c *consistency) note(format string, args ...interface{}) {
	c.evidence = append(c.evidence, markNotCheck+" "+fmt.Sprintf(format, args...))
}

// CrossValidate 用次级参数对每个候选做一致性复核，生成新的 ValidatedFault，不修改入参。
// 结果按调整后置信度降序。
func CrossValidate(candidates []domain.FaultCandidate, rec domain.MeasurementRecord, avg domain.DirectionAverages, ind Indicators) []domain.ValidatedFault {
	out := make([]domain.ValidatedFault, 0, len(candidates))
	for _, fc := range candidates {
		c := &consistency{evidence: []string{}, inconsistencies: []string{}}
		switch {
		case fc.Type == domain.FaultElectricalUnbalance:
			validateElectrical(c, rec, ind)
		case fc.Type == domain.FaultMechanicalUnbalance:
			validateMechanical(c, rec, avg, ind)
		case fc.Type == domain.FaultBearingDefect:
			validateBearing(c, rec, ind)
		case fc.Type.IsMisalignment():
			validateMisalignment(c, fc.Type, avg, ind)
		case fc.Type == domain.FaultCavitation:
			validateCavitation(c, rec, ind)
		}

		score := math.Round(math.Min(c.score, 1)*100) / 100
		adjusted := math.Min(fc.BaseConfidence*(0.7+score*0.3), maxConfidence)
		candidate := fc
		candidate.Evidence = append([]string(nil), fc.Evidence...)
		out = append(out, domain.ValidatedFault{
			FaultCandidate:      candidate,
			ConsistencyScore:    score,
			AdjustedConfidence:  adjusted,
			ConsistencyEvidence: c.evidence,
			Inconsistencies:     c.inconsistencies,
			Validated:           score >= validationThreshold,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AdjustedConfidence > out[j].AdjustedConfidence
	})
	return out
}

func validateElectrical(c *consistency, rec domain.MeasurementRecord, ind Indicators) {
	if ind.VoltageImbalance > voltageImbalanceLimit {
		c.pass(0.4, "Voltage imbalance %.1f%% confirmed (>2%% limit)", ind.VoltageImbalance)
	} else {
		c.fail("Voltage imbalance only %.1f%% (<2%% limit)", ind.VoltageImbalance)
	}

	if ind.TempGradient < 15 {
		c.pass(0.3, "Temperature gradient %.0f°C normal (<15°C)", ind.TempGradient)
	} else {
		c.fail("Temperature gradient %.0f°C high - possible bearing defect", ind.TempGradient)
	}

	switch phase := rec.Advanced.PhaseInstabilityDeg; {
	case phase == nil:
		c.note("Phase instability not measured")
	case *phase > 20:
		c.pass(0.3, "Phase instability ±%.0f° confirmed", *phase)
	default:
		c.fail("Phase stability ±%.0f° - unexpected for electrical fault", *phase)
	}
}

func validateMechanical(c *consistency, rec domain.MeasurementRecord, avg domain.DirectionAverages, ind Indicators) {
	if ind.VoltageImbalance < voltageImbalanceLimit {
		c.pass(0.4, "Voltage imbalance %.1f%% normal (<2%% limit)", ind.VoltageImbalance)
	} else {
		c.fail("Voltage imbalance %.1f%% high - possible electrical fault", ind.VoltageImbalance)
	}

	switch phase := rec.Advanced.PhaseInstabilityDeg; {
	case phase == nil:
		c.note("Phase stability not measured")
	case *phase < 10:
		c.pass(0.3, "Phase stability ±%.0f° confirmed", *phase)
	default:
		c.fail("Phase instability ±%.0f° - unexpected for mechanical fault", *phase)
	}

	if d := rec.Advanced.DisplacementPeakUM; d == nil {
		c.note("Displacement not measured")
	} else if displacementCorrelates(*d, avg.PumpV, ind.Fundamental) {
		c.pass(0.3, "Displacement %.0fμm correlates with velocity", *d)
	} else {
		c.fail("Displacement %.0fμm doesn't correlate with velocity", *d)
	}

	if cd := rec.Advanced.CoastDownVelocity; len(cd) < 2 {
		c.note("Coast-down not recorded")
	} else if coastDownDecays(cd) {
		c.pass(0.3, "Coast-down decays monotonically to %.2f mm/s", cd[len(cd)-1])
	} else {
		c.fail("Coast-down does not decay - vibration not speed dependent")
	}
}

// displacementCorrelates 位移峰值与速度换算值 v/(2πf1) 的偏差在 50% 以内。
func displacementCorrelates(displacementUM, velocity, f1 float64) bool {
	if f1 <= 0 {
		return false
	}
	expected := velocity / (2 * math.Pi * f1) * 1000
	return math.Abs(displacementUM-expected) < expected*0.5
}

// coastDownDecays 停机惰转曲线单调不增且末值低于初值一半。
func coastDownDecays(samples []float64) bool {
	for i := 1; i < len(samples); i++ {
		if samples[i] > samples[i-1] {
			return false
		}
	}
	return samples[len(samples)-1] < samples[0]*0.5
}

func validateBearing(c *consistency, rec domain.MeasurementRecord, ind Indicators) {
	if ind.PumpHF > bearingHFLimit {
		c.pass(0.4, "HF 5-16 kHz = %.2fg > 0.7g threshold", ind.PumpHF)
	} else {
		c.fail("HF 5-16 kHz = %.2fg normal (<0.7g)", ind.PumpHF)
	}

	if ind.TempRise > 40 {
		c.pass(0.3, "Bearing temp rise %.0f°C >40°C limit", ind.TempRise)
	} else {
		c.note("Bearing temp rise %.0f°C normal", ind.TempRise)
	}

	if ind.VoltageImbalance < voltageImbalanceLimit {
		c.pass(0.3, "Voltage imbalance %.1f%% normal", ind.VoltageImbalance)
	} else {
		c.fail("Voltage imbalance %.1f%% high", ind.VoltageImbalance)
	}

	if d := rec.Advanced.PumpDEDemod; d != nil {
		if *d > 0.5 {
			c.pass(0.3, "Demodulation %.2f gE confirms impacting", *d)
		} else {
			c.note("Demodulation %.2f gE normal", *d)
		}
	}
}

func validateMisalignment(c *consistency, t domain.FaultType, avg domain.DirectionAverages, ind Indicators) {
	sf := ind.Spectral
	if sf.TwoXRatio > 0.5 {
		c.pass(0.4, "2X/1X ratio = %.2f > 0.5 threshold", sf.TwoXRatio)
	} else {
		c.fail("2X/1X ratio = %.2f < 0.5 threshold", sf.TwoXRatio)
	}

	switch {
	case t == domain.FaultAngularMisalignment && avg.PumpA > avg.PumpV:
		c.pass(0.3, "Axial vibration %.2f mm/s > radial %.2f mm/s", avg.PumpA, avg.PumpV)
	case t == domain.FaultParallelMisalignment && avg.PumpA < avg.PumpV:
		c.pass(0.3, "Radial vibration dominant (parallel misalignment)")
	default:
		c.fail("Vibration pattern doesn't match misalignment type")
	}

	if ind.TempGradient > 10 {
		c.pass(0.3, "Temperature gradient %.0f°C present", ind.TempGradient)
	} else {
		c.note("Temperature gradient %.0f°C normal", ind.TempGradient)
	}
}

func validateCavitation(c *consistency, rec domain.MeasurementRecord, ind Indicators) {
	if ind.PumpHF >= 0.3 {
		c.pass(0.4, "Pump HF %.2fg elevated (≥0.3g) - bubble collapse", ind.PumpHF)
	} else {
		c.fail("Pump HF %.2fg normal - no cavitation noise", ind.PumpHF)
	}

	switch f := rec.Hydraulic.DischargeFluctuationPct; {
	case f == nil:
		c.note("Discharge pressure fluctuation not measured")
	case *f > 5:
		c.pass(0.3, "Discharge pressure fluctuation %.1f%% > 5%%", *f)
	default:
		c.fail("Discharge pressure steady (%.1f%%)", *f)
	}

	if ind.VoltageImbalance < voltageImbalanceLimit {
		c.pass(0.3, "Voltage imbalance %.1f%% normal", ind.VoltageImbalance)
	} else {
		c.fail("Voltage imbalance %.1f%% high", ind.VoltageImbalance)
	}
}
