package diagnosis

import (
	"testing"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/domain"
	. "github.com/smartystreets/goconvey/convey"
)

func zoneOf(z domain.Zone, velocity float64) domain.ZoneResult {
	return domain.ZoneResult{Zone: z, Velocity: velocity, LimitA: 2.8, LimitB: 7.1, LimitC: 11.2}
}

func TestEstimateMTBF(t *testing.T) {
	Convey("TestEstimateMTBF", t, func() {
		ind := Indicators{TempRise: 25, PumpHF: 0.2}

		Convey("各故障类型的基准值", func() {
			a := zoneOf(domain.ZoneA, 1)
			So(EstimateMTBF(domain.FaultElectricalUnbalance, a, ind), ShouldEqual, 45)
			So(EstimateMTBF(domain.FaultMechanicalUnbalance, a, ind), ShouldEqual, 60)
			So(EstimateMTBF(domain.FaultAngularMisalignment, a, ind), ShouldEqual, 30)
			So(EstimateMTBF(domain.FaultParallelMisalignment, a, ind), ShouldEqual, 30)
			So(EstimateMTBF(domain.FaultBearingDefect, a, ind), ShouldEqual, 21)
			So(EstimateMTBF(domain.FaultCavitation, a, ind), ShouldEqual, 14)
			So(EstimateMTBF(domain.FaultNone, a, ind), ShouldEqual, 365)
			So(EstimateMTBF(domain.FaultType("UNKNOWN"), a, ind), ShouldEqual, 90)
		})

		Convey("C/D 区除以 3，B 区上半段除以 2", func() {
			So(EstimateMTBF(domain.FaultMechanicalUnbalance, zoneOf(domain.ZoneC, 8), ind), ShouldEqual, 20)
			So(EstimateMTBF(domain.FaultCavitation, zoneOf(domain.ZoneD, 12), ind), ShouldEqual, 4)
			So(EstimateMTBF(domain.FaultBearingDefect, zoneOf(domain.ZoneC, 8), Indicators{TempRise: 25}), ShouldEqual, 7)
			So(EstimateMTBF(domain.FaultMechanicalUnbalance, zoneOf(domain.ZoneB, 6), ind), ShouldEqual, 30)
			So(EstimateMTBF(domain.FaultCavitation, zoneOf(domain.ZoneB, 6), ind), ShouldEqual, 7)
			So(EstimateMTBF(domain.FaultMechanicalUnbalance, zoneOf(domain.ZoneB, 4), ind), ShouldEqual, 60)
		})

		Convey("轴承高频覆盖 MTBF", func() {
			a := zoneOf(domain.ZoneA, 1)
			So(EstimateMTBF(domain.FaultBearingDefect, a, Indicators{PumpHF: 1.8, TempRise: 25}), ShouldEqual, 3)
			So(EstimateMTBF(domain.FaultBearingDefect, a, Indicators{PumpHF: 1.2, TempRise: 25}), ShouldEqual, 7)
			So(EstimateMTBF(domain.FaultMechanicalUnbalance, a, Indicators{PumpHF: 1.8, TempRise: 25}), ShouldEqual, 60)
		})

		Convey("温升进一步下调", func() {
			a := zoneOf(domain.ZoneA, 1)
			So(EstimateMTBF(domain.FaultMechanicalUnbalance, a, Indicators{TempRise: 65}), ShouldEqual, 30)
			So(EstimateMTBF(domain.FaultMechanicalUnbalance, a, Indicators{TempRise: 55}), ShouldEqual, 40)
			So(EstimateMTBF(domain.FaultBearingDefect, a, Indicators{PumpHF: 1.8, TempRise: 65}), ShouldEqual, 2)
			So(EstimateMTBF(domain.FaultBearingDefect, a, Indicators{PumpHF: 1.8, TempRise: 55}), ShouldEqual, 3)
		})
	})
}

func TestAssessRisk(t *testing.T) {
	Convey("TestAssessRisk", t, func() {
		fusion := func(ft domain.FaultType, conf float64) domain.FusionResult {
			return domain.FusionResult{PrimaryFault: ft, PrimaryConfidence: conf}
		}

		Convey("高置信度且 C 区为高严重度", func() {
			res := AssessRisk(fusion(domain.FaultElectricalUnbalance, 95), zoneOf(domain.ZoneC, 7.8), Indicators{TempRise: 35}, 1)

			So(res.SeverityLevel, ShouldEqual, domain.LevelHigh)
			So(res.MTBFDays, ShouldEqual, 15)
			So(res.ProbabilityLevel, ShouldEqual, domain.LevelMedium)
			So(res.RiskLevel, ShouldEqual, domain.RiskHigh)
			So(res.Timeline, ShouldEqual, "<24 hours")
			So(res.ActionPriority, ShouldEqual, "CORRECTIVE MAINTENANCE")
			So(res.Standard, ShouldEqual, "ISO 45001:2018 Annex A + API 581 RBI Methodology")
		})

		Convey("D 区或轴承 Stage 3 直接为高严重度", func() {
			res := AssessRisk(fusion(domain.FaultMechanicalUnbalance, 50), zoneOf(domain.ZoneD, 12), Indicators{}, 0)
			So(res.SeverityLevel, ShouldEqual, domain.LevelHigh)

			res = AssessRisk(fusion(domain.FaultBearingDefect, 50), zoneOf(domain.ZoneA, 1), Indicators{PumpHF: 1.8}, 3)
			So(res.SeverityLevel, ShouldEqual, domain.LevelHigh)
			So(res.ProbabilityLevel, ShouldEqual, domain.LevelHigh)
			So(res.RiskLevel, ShouldEqual, domain.RiskCritical)
			So(res.Timeline, ShouldEqual, "<4 hours")
		})

		Convey("中等置信度 B 区为中严重度", func() {
			res := AssessRisk(fusion(domain.FaultMechanicalUnbalance, 85), zoneOf(domain.ZoneB, 4), Indicators{}, 0)

			So(res.SeverityLevel, ShouldEqual, domain.LevelMedium)
			So(res.ProbabilityLevel, ShouldEqual, domain.LevelLow)
			So(res.RiskLevel, ShouldEqual, domain.RiskLow)
			So(res.Timeline, ShouldEqual, "<30 days")
		})

		Convey("A 区低置信度为低严重度", func() {
			res := AssessRisk(fusion(domain.FaultCavitation, 93), zoneOf(domain.ZoneA, 1), Indicators{}, 0)

			So(res.SeverityLevel, ShouldEqual, domain.LevelLow)
			So(res.SeverityDescription, ShouldEqual, "Minor issue - routine monitoring acceptable")
			So(res.RiskLevel, ShouldEqual, domain.RiskLow)
		})

		Convey("风险矩阵九个单元", func() {
			So(riskMatrix, ShouldHaveLength, 3)
			for _, row := range riskMatrix {
				So(row, ShouldHaveLength, 3)
			}
			So(riskMatrix[domain.LevelLow][domain.LevelHigh].level, ShouldEqual, domain.RiskMedium)
			So(riskMatrix[domain.LevelLow][domain.LevelLow].timeline, ShouldEqual, "<90 days")
			So(riskMatrix[domain.LevelHigh][domain.LevelLow].priority, ShouldEqual, "SCHEDULED MAINTENANCE")
		})
	})
}

func TestRecommendations(t *testing.T) {
	Convey("TestRecommendations", t, func() {
		Convey("主建议在前，监测项居中", func() {
			recs := recommendations(domain.FaultElectricalUnbalance, 15, domain.RiskHigh)

			So(recs, ShouldHaveLength, 3)
			So(recs[0].Action, ShouldEqual, "Correct voltage imbalance to <2%")
			So(recs[0].Priority, ShouldEqual, "HIGH")
			So(recs[1].Priority, ShouldEqual, "MONITOR")
			So(recs[1].Timeline, ShouldEqual, "Daily")
			So(recs[2].Action, ShouldEqual, "Verify motor terminal connections")
		})

		Convey("CRITICAL 风险时电气建议 4 小时内处理", func() {
			recs := recommendations(domain.FaultElectricalUnbalance, 3, domain.RiskCritical)
			So(recs[0].Priority, ShouldEqual, "CRITICAL")
			So(recs[0].Timeline, ShouldEqual, "<4 hours")
		})

		Convey("轴承建议期限取 MTBF 与 14 天的较小值", func() {
			recs := recommendations(domain.FaultBearingDefect, 3, domain.RiskCritical)
			So(recs[0].Priority, ShouldEqual, "CRITICAL")
			So(recs[0].Timeline, ShouldEqual, "<3 days")
			So(recs[0].Details, ShouldEqual, "MTBF estimation: 3 days. Replace before Stage 3 progression.")

			recs = recommendations(domain.FaultBearingDefect, 21, domain.RiskMedium)
			So(recs[0].Priority, ShouldEqual, "HIGH")
			So(recs[0].Timeline, ShouldEqual, "<14 days")
			So(recs[1].Timeline, ShouldEqual, "Weekly")
		})

		Convey("每类故障都包含监测项", func() {
			for _, ft := range []domain.FaultType{
				domain.FaultMechanicalUnbalance,
				domain.FaultAngularMisalignment,
				domain.FaultCavitation,
				domain.FaultNone,
			} {
				recs := recommendations(ft, 30, domain.RiskLow)
				found := false
				for _, r := range recs {
					if r.Priority == "MONITOR" {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			}
		})
	})
}

func TestAssessBearing(t *testing.T) {
	Convey("TestAssessBearing", t, func() {
		Convey("按高频分级", func() {
			So(AssessBearing(domain.LocationPumpDE, 0.2, 20, nil).Stage, ShouldEqual, 0)
			So(AssessBearing(domain.LocationPumpDE, 0.3, 20, nil).Stage, ShouldEqual, 1)
			So(AssessBearing(domain.LocationPumpDE, 0.7, 20, nil).Stage, ShouldEqual, 2)
			So(AssessBearing(domain.LocationPumpDE, 1.2, 20, nil).Stage, ShouldEqual, 2)
			So(AssessBearing(domain.LocationPumpDE, 1.5, 20, nil).Stage, ShouldEqual, 3)
		})

		Convey("过热与冲击附加说明", func() {
			bc := AssessBearing(domain.LocationPumpDE, 1.0, 65, domain.Float64(0.8))

			So(bc.Condition, ShouldEqual, "MODERATE DEFECT + OVERHEATING + IMPACT DETECTED")
			So(bc.Recommendation, ShouldEqual, "URGENT: Replace bearing and check lubrication - Demodulation confirms defect")
			So(bc.Standard, ShouldEqual, "ISO 15243:2017 Table 2")
		})

		Convey("未测解调时不判定冲击", func() {
			bc := AssessBearing(domain.LocationMotorDE, 0.1, 10, nil)
			So(bc.Condition, ShouldEqual, "NORMAL")
			So(bc.Demod, ShouldBeNil)
		})
	})
}

func TestAssessElectricalAndHydraulic(t *testing.T) {
	Convey("TestAssessElectricalAndHydraulic", t, func() {
		Convey("电气检查项分级", func() {
			slip := 3.5
			ea := AssessElectrical(Indicators{VoltageImbalance: 6, CurrentImbalance: 7, LoadFactor: 35, Slip: &slip})

			So(ea.Issues, ShouldHaveLength, 4)
			So(ea.Issues[0].Severity, ShouldEqual, domain.SeverityCritical)
			So(ea.Issues[1].Severity, ShouldEqual, domain.SeverityWarning)
			So(ea.Issues[2].Parameter, ShouldEqual, "Motor Slip")
			So(ea.Issues[3].Parameter, ShouldEqual, "Underload")
		})

		Convey("正常电气参数无检查项", func() {
			ea := AssessElectrical(Indicators{VoltageImbalance: 0.5, CurrentImbalance: 1, LoadFactor: 75})
			So(ea.Issues, ShouldBeEmpty)
		})

		Convey("汽蚀风险分级", func() {
			rec := cavitationRecord()
			_, ind := derive(rec)

			ha := AssessHydraulic(rec, ind)

			So(ha.CavitationRisk, ShouldEqual, domain.LevelHigh)
			So(ha.Issues, ShouldHaveLength, 2)
			So(ha.Issues[0].Severity, ShouldEqual, domain.SeverityCritical)
			So(ha.Issues[1].Threshold, ShouldEqual, ">30%")

			rec = healthyRecord()
			_, ind = derive(rec)
			So(AssessHydraulic(rec, ind).CavitationRisk, ShouldEqual, domain.LevelLow)

			rec.Hydraulic.ActualFlow = 36
			_, ind = derive(rec)
			So(AssessHydraulic(rec, ind).CavitationRisk, ShouldEqual, domain.LevelMedium)
		})
	})
}

func TestCompliance(t *testing.T) {
	Convey("TestCompliance", t, func() {
		Convey("取最差状态作为总体结论", func() {
			c := assessCompliance(zoneOf(domain.ZoneB, 4), Indicators{VoltageImbalance: 3, NPSHaMargin: 2}, 0, nil)

			So(c[domain.StandardISO10816], ShouldEqual, domain.Compliant)
			So(c[domain.StandardIEC60034], ShouldEqual, domain.Warning)
			So(c[domain.StandardAPI610], ShouldEqual, domain.Compliant)
			So(c[domain.StandardISO15243], ShouldEqual, domain.Compliant)
			So(c, ShouldNotContainKey, domain.StandardISO45001)
			So(overallCompliance(c), ShouldEqual, domain.Warning)
		})

		Convey("风险评估后加入 ISO 45001", func() {
			risk := &domain.RiskResult{RiskLevel: domain.RiskCritical}
			c := assessCompliance(zoneOf(domain.ZoneA, 1), Indicators{NPSHaMargin: 2}, 0, risk)

			So(c[domain.StandardISO45001], ShouldEqual, domain.NonCompliant)
			So(overallCompliance(c), ShouldEqual, domain.NonCompliant)
		})

		Convey("紧急停机时触发项标准与 API 670 均不符合", func() {
			c := emergencyCompliance([]domain.SafetyTrigger{{Standard: bearingTemperatureStandard}})

			So(c, ShouldHaveLength, 2)
			So(c[domain.StandardAPI610], ShouldEqual, domain.NonCompliant)
			So(c[domain.StandardAPI670], ShouldEqual, domain.NonCompliant)
		})
	})
}
