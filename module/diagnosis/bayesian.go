package diagnosis

import (
	"fmt"
	"sort"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/domain"
)

const (
	fusionStandard   = "ISO 13381-1:2021 Clause 7 (Prognostics methodology)"
	maxPosterior     = 95.0
	evidenceBaseline = 0.5 // P(e|¬fault)
)

// condition CPT 中的一行：P(e|fault) 及其在本次测量上的判定。
// assess 返回 (是否满足, 是否可评估, 证据描述)。
type condition struct {
	name       string
	likelihood float64
	assess     func(c evidenceContext) (bool, bool, string)
}

type evidenceContext struct {
	rec   domain.MeasurementRecord
	avg   domain.DirectionAverages
	ind   Indicators
	fault domain.FaultType
}

func always(ok bool, desc string) (bool, bool, string) { return ok, true, desc }

var (
	condVImbalanceHigh = condition{"v_imbalance>2%", 0.92, func(c evidenceContext) (bool, bool, string) {
		return always(c.ind.VoltageImbalance > 2, fmt.Sprintf("V imbalance %.1f%%", c.ind.VoltageImbalance))
	}}
	condVImbalanceLow = func(w float64) condition {
		return condition{"v_imbalance<2%", w, func(c evidenceContext) (bool, bool, string) {
			return always(c.ind.VoltageImbalance < 2, fmt.Sprintf("V imbalance %.1f%% normal", c.ind.VoltageImbalance))
		}}
	}
	condHFNormal = func(w float64) condition {
		return condition{"hf_normal", w, func(c evidenceContext) (bool, bool, string) {
			return always(c.ind.PumpHF < 0.7, fmt.Sprintf("HF %.2fg normal", c.ind.PumpHF))
		}}
	}
	condTempNormal = func(w float64) condition {
		return condition{"temp_normal", w, func(c evidenceContext) (bool, bool, string) {
			return always(c.ind.TempRise < 40, fmt.Sprintf("Temp rise %.0f°C normal", c.ind.TempRise))
		}}
	}
	condOneXNotDominant = func(w float64) condition {
		return condition{"1x_not_dominant", w, func(c evidenceContext) (bool, bool, string) {
			return always(!c.ind.Spectral.OneXDominant, "1X not dominant")
		}}
	}
	condPhaseUnstable = func(w float64) condition {
		return condition{"phase_unstable", w, func(c evidenceContext) (bool, bool, string) {
			p := c.rec.Advanced.PhaseInstabilityDeg
			if p == nil {
				return false, false, ""
			}
			return *p > 20, true, fmt.Sprintf("Phase unstable ±%.0f°", *p)
		}}
	}
	condTempGradient = func(limit, w float64) condition {
		return condition{fmt.Sprintf("temp_gradient>%.0fC", limit), w, func(c evidenceContext) (bool, bool, string) {
			return always(c.ind.TempGradient > limit, fmt.Sprintf("Temp gradient %.0f°C", c.ind.TempGradient))
		}}
	}
)

var misalignmentCPT = []condition{
	{"2x_dominant", 0.92, func(c evidenceContext) (bool, bool, string) {
		return always(c.ind.Spectral.TwoXDominant, fmt.Sprintf("2X/1X ratio %.2f", c.ind.Spectral.TwoXRatio))
	}},
	{"pattern_dominant", 0.88, func(c evidenceContext) (bool, bool, string) {
		if c.fault == domain.FaultAngularMisalignment {
			return always(c.avg.PumpA > c.avg.PumpV, "Axial dominant")
		}
		return always(c.avg.PumpA < c.avg.PumpV, "Radial dominant")
	}},
	condVImbalanceLow(0.85),
	condTempGradient(10, 0.80),
	condPhaseUnstable(0.75),
}

// cpt P(evidence|fault)，每类故障 4-6 项。
var cpt = map[domain.FaultType][]condition{
	domain.FaultElectricalUnbalance: {
		{"2lf_dominant", 0.95, func(c evidenceContext) (bool, bool, string) {
			return always(c.ind.Spectral.TwoLFDominant, "2LF dominant")
		}},
		condVImbalanceHigh,
		condPhaseUnstable(0.88),
		condHFNormal(0.85),
		condTempNormal(0.80),
		condOneXNotDominant(0.75),
	},
	domain.FaultMechanicalUnbalance: {
		{"1x_dominant", 0.94, func(c evidenceContext) (bool, bool, string) {
			return always(c.ind.Spectral.OneXDominant, "1X dominant")
		}},
		{"phase_stable", 0.90, func(c evidenceContext) (bool, bool, string) {
			p := c.rec.Advanced.PhaseInstabilityDeg
			if p == nil {
				return false, false, ""
			}
			return *p < 10, true, fmt.Sprintf("Phase stable ±%.0f°", *p)
		}},
		condVImbalanceLow(0.85),
		condHFNormal(0.80),
		condTempNormal(0.75),
		{"displacement_correlated", 0.70, func(c evidenceContext) (bool, bool, string) {
			d := c.rec.Advanced.DisplacementPeakUM
			if d == nil {
				return false, false, ""
			}
			return displacementCorrelates(*d, c.avg.PumpV, c.ind.Fundamental), true, fmt.Sprintf("Displacement %.0fμm correlated", *d)
		}},
	},
	domain.FaultBearingDefect: {
		{"hf>0.7g", 0.96, func(c evidenceContext) (bool, bool, string) {
			return always(c.ind.PumpHF > 0.7, fmt.Sprintf("HF %.2fg high", c.ind.PumpHF))
		}},
		{"bpfo_peak", 0.93, func(c evidenceContext) (bool, bool, string) {
			p := c.ind.Spectral.BPFOPeak
			if p == nil {
				return false, true, ""
			}
			return true, true, fmt.Sprintf("BPFO peak %.1fHz", p.FrequencyHz)
		}},
		{"temp_rise>40C", 0.90, func(c evidenceContext) (bool, bool, string) {
			return always(c.ind.TempRise > 40, fmt.Sprintf("Temp rise %.0f°C", c.ind.TempRise))
		}},
		condVImbalanceLow(0.85),
		condOneXNotDominant(0.80),
		condTempGradient(15, 0.75),
	},
	domain.FaultAngularMisalignment:  misalignmentCPT,
	domain.FaultParallelMisalignment: misalignmentCPT,
	domain.FaultCavitation: {
		{"npsh_margin<0.6m", 0.93, func(c evidenceContext) (bool, bool, string) {
			return always(c.ind.NPSHaMargin < 0.6, fmt.Sprintf("NPSHa margin %.2fm", c.ind.NPSHaMargin))
		}},
		{"bep_deviation>20%", 0.90, func(c evidenceContext) (bool, bool, string) {
			return always(c.ind.BEPDeviation > 20, fmt.Sprintf("BEP deviation %.0f%%", c.ind.BEPDeviation))
		}},
		{"hf_elevated", 0.80, func(c evidenceContext) (bool, bool, string) {
			return always(c.ind.PumpHF >= 0.3, fmt.Sprintf("HF %.2fg elevated", c.ind.PumpHF))
		}},
		{"pressure_fluctuation>5%", 0.78, func(c evidenceContext) (bool, bool, string) {
			f := c.rec.Hydraulic.DischargeFluctuationPct
			if f == nil {
				return false, false, ""
			}
			return *f > 5, true, fmt.Sprintf("Pressure fluctuation %.1f%%", *f)
		}},
		condVImbalanceLow(0.85),
	},
}

// Fuse 对通过交叉验证的故障做朴素贝叶斯合成。
// 先验取无信息先验，满足项乘 w/0.5，不满足项乘 (1-w)/0.5，缺测项跳过。
func Fuse(validated []domain.ValidatedFault, rec domain.MeasurementRecord, avg domain.DirectionAverages, ind Indicators) domain.FusionResult {
	probs := make([]domain.FaultProbability, 0, len(validated))
	for _, vf := range validated {
		probs = append(probs, posterior(evidenceContext{rec: rec, avg: avg, ind: ind, fault: vf.Type}))
	}
	sort.SliceStable(probs, func(i, j int) bool {
		return probs[i].Posterior > probs[j].Posterior
	})

	res := domain.FusionResult{
		PrimaryFault:    domain.FaultNone,
		All:             probs,
		Secondary:       []domain.FaultProbability{},
		EvidenceSummary: "No fault detected",
		Standard:        fusionStandard,
	}
	if len(probs) == 0 {
		return res
	}
	res.PrimaryFault = probs[0].Type
	res.PrimaryConfidence = probs[0].Posterior
	res.Secondary = probs[1:]
	res.EvidenceSummary = fmt.Sprintf("%d of %d consistent parameters", probs[0].Satisfied, probs[0].Assessed)
	return res
}

func posterior(c evidenceContext) domain.FaultProbability {
	odds := 1.0
	fp := domain.FaultProbability{Type: c.fault, Evidence: []string{}}
	for _, cond := range cpt[c.fault] {
		ok, assessed, desc := cond.assess(c)
		if !assessed {
			continue
		}
		fp.Assessed++
		if ok {
			fp.Satisfied++
			odds *= cond.likelihood / evidenceBaseline
			fp.Evidence = append(fp.Evidence, desc)
		} else {
			odds *= (1 - cond.likelihood) / evidenceBaseline
		}
	}
	p := odds / (1 + odds) * 100
	if p > maxPosterior {
		p = maxPosterior
	}
	fp.Posterior = p
	fp.Explanation = fmt.Sprintf("Posterior odds = %.3f based on %d of %d consistent parameters", odds, fp.Satisfied, fp.Assessed)
	return fp
}
