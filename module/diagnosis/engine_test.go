package diagnosis

import (
	"math"
	"sync"
	"testing"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/domain"
	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEngine_Run(t *testing.T) {
	Convey("TestEngine_Run", t, func() {
		engine := NewEngine(DefaultParameters())

		Convey("轴承温度 125°C 时紧急停机，后续阶段不执行", func() {
			rec := healthyRecord()
			rec.Thermal.PumpDE = 125

			res, err := engine.Run(rec)

			So(err, ShouldBeNil)
			So(res.ReportType, ShouldEqual, domain.ReportEmergencyShutdown)
			So(res.Summary, ShouldEqual, "CRITICAL SAFETY HAZARD DETECTED")
			So(res.Safety.Triggers, ShouldHaveLength, 1)
			So(res.Safety.Triggers[0].Severity, ShouldEqual, domain.SeverityCritical)
			So(res.Safety.Triggers[0].Parameter, ShouldEqual, "Pump Bearing Temperature")
			So(res.Averages, ShouldBeNil)
			So(res.Zone, ShouldBeNil)
			So(res.Signatures, ShouldBeNil)
			So(res.Validation, ShouldBeNil)
			So(res.Fusion, ShouldBeNil)
			So(res.Risk, ShouldBeNil)
			So(res.Audit.StagesExecuted, ShouldResemble, []domain.Stage{domain.StageSafetyCheck})
			So(res.Recommendations[0].Action, ShouldEqual, "SHUTDOWN MACHINE NOW")
			So(res.OverallCompliance, ShouldEqual, domain.NonCompliant)
			So(res.Compliance[domain.StandardAPI670], ShouldEqual, domain.NonCompliant)
		})

		Convey("正常机组为例行监测，A 区无故障", func() {
			res, err := engine.Run(healthyRecord())

			So(err, ShouldBeNil)
			So(res.ReportType, ShouldEqual, domain.ReportRoutineMonitoring)
			So(res.Summary, ShouldEqual, "NO SIGNIFICANT FAULTS DETECTED")
			So(res.Zone.Zone, ShouldEqual, domain.ZoneA)
			So(res.Faults, ShouldResemble, []domain.RankedFault{{Type: domain.FaultNone, Confidence: 95}})
			So(res.Fusion, ShouldBeNil)
			So(res.Risk, ShouldBeNil)
			So(res.Bearings, ShouldHaveLength, 2)
			So(res.Bearings[0].Location, ShouldEqual, domain.LocationPumpDE)
			So(res.Recommendations, ShouldHaveLength, 1)
			So(res.Recommendations[0].Details, ShouldEqual, "Vibration Zone A - New machine condition or after repair")
			So(res.OverallCompliance, ShouldEqual, domain.Compliant)
			So(res.Audit.StagesExecuted, ShouldResemble, []domain.Stage{
				domain.StageSafetyCheck, domain.StageSeverity, domain.StageSignature,
			})
		})

		Convey("电气不平衡完整诊断，24 小时内处理", func() {
			res, err := engine.Run(electricalRecord())

			So(err, ShouldBeNil)
			So(res.ReportType, ShouldEqual, domain.ReportComprehensiveDiagnosis)
			So(res.Summary, ShouldEqual, string(domain.FaultElectricalUnbalance))
			So(res.Signatures[0].Type, ShouldEqual, domain.FaultElectricalUnbalance)
			So(res.Validation[0].Validated, ShouldBeTrue)
			So(res.Fusion.PrimaryConfidence, ShouldBeGreaterThan, 85)
			So(res.Zone.Zone, ShouldEqual, domain.ZoneC)
			So(res.Risk.RiskLevel, ShouldEqual, domain.RiskHigh)
			So(res.Risk.Timeline, ShouldEqual, "<24 hours")
			So(res.Faults[0].Type, ShouldEqual, domain.FaultElectricalUnbalance)
			So(res.Audit.ConfidenceScore, ShouldEqual, res.Fusion.PrimaryConfidence)
			So(res.Audit.StagesExecuted, ShouldHaveLength, 6)
			So(res.Compliance[domain.StandardIEC60034], ShouldEqual, domain.Warning)
			So(res.Compliance[domain.StandardISO45001], ShouldEqual, domain.NonCompliant)
			So(res.Electrical.Issues[0].Parameter, ShouldEqual, "Voltage Imbalance")
		})

		Convey("轴承缺陷 HF=1.8g 为 Stage 3，MTBF 不超过 7 天", func() {
			res, err := engine.Run(bearingRecord())

			So(err, ShouldBeNil)
			So(res.Summary, ShouldEqual, string(domain.FaultBearingDefect))
			So(res.Bearings[0].Stage, ShouldEqual, 3)
			So(res.Risk.MTBFDays, ShouldBeLessThanOrEqualTo, 7)
			So(res.Risk.RiskLevel, ShouldBeIn, []domain.RiskLevel{domain.RiskCritical, domain.RiskHigh})
			So(res.Compliance[domain.StandardISO15243], ShouldEqual, domain.NonCompliant)
		})

		Convey("轴承高频 1.2g 为 Stage 2", func() {
			rec := bearingRecord()
			rec.Vibration.PumpHF = domain.HFReading{Overall: 1.2}

			res, err := engine.Run(rec)

			So(err, ShouldBeNil)
			So(res.Bearings[0].Stage, ShouldEqual, 2)
			So(res.Risk.MTBFDays, ShouldBeLessThanOrEqualTo, 7)
		})

		Convey("汽蚀候选置信度 0.80，未确认时为例行监测", func() {
			res, err := engine.Run(cavitationRecord())

			So(err, ShouldBeNil)
			So(res.Signatures[0].Type, ShouldEqual, domain.FaultCavitation)
			So(res.Signatures[0].BaseConfidence, ShouldEqual, 0.80)
			So(res.Hydraulic.BEPDeviationPct, ShouldAlmostEqual, 40, 1e-9)
			So(res.Hydraulic.NPSHaMargin, ShouldBeLessThan, 0.6)
			So(res.ReportType, ShouldEqual, domain.ReportRoutineMonitoring)
			So(res.Summary, ShouldEqual, "NO CONFIRMED FAULT")
			So(res.Faults, ShouldBeEmpty)
			So(res.Audit.StagesExecuted, ShouldHaveLength, 4)
		})

		Convey("汽蚀得到高频与压力波动佐证后完成诊断", func() {
			rec := cavitationRecord()
			rec.Vibration.PumpHF = domain.HFReading{Overall: 0.35}
			rec.Hydraulic.DischargeFluctuationPct = domain.Float64(8)

			res, err := engine.Run(rec)

			So(err, ShouldBeNil)
			So(res.ReportType, ShouldEqual, domain.ReportComprehensiveDiagnosis)
			So(res.Fusion.PrimaryFault, ShouldEqual, domain.FaultCavitation)
			So(res.Recommendations[0].Action, ShouldEqual, "Adjust flow control valve")
			So(res.Compliance[domain.StandardAPI610], ShouldEqual, domain.NonCompliant)
		})

		Convey("C 区无确认故障时给出区域处置建议", func() {
			rec := healthyRecord()
			rec.Vibration.Pump.Horizontal = domain.BearingVelocity{DE: 8.0, NDE: 7.6}

			res, err := engine.Run(rec)

			So(err, ShouldBeNil)
			So(res.ReportType, ShouldEqual, domain.ReportRoutineMonitoring)
			So(res.Recommendations, ShouldHaveLength, 2)
			So(res.Recommendations[0].Action, ShouldEqual, "Schedule corrective maintenance within 72 hours")
			So(res.Compliance[domain.StandardISO10816], ShouldEqual, domain.Warning)
		})

		Convey("输入非法时返回错误", func() {
			rec := healthyRecord()
			rec.Asset.RatedRPM = 0
			_, err := engine.Run(rec)
			So(errors.Cause(err), ShouldEqual, domain.ErrInvalidMeasurement)
			So(err.Error(), ShouldContainSubstring, "asset.rated_rpm")

			rec = healthyRecord()
			rec.Vibration.Pump.Axial.DE = -1
			_, err = engine.Run(rec)
			So(errors.Cause(err), ShouldEqual, domain.ErrInvalidMeasurement)

			rec = healthyRecord()
			rec.Asset.Foundation = "wooden"
			_, err = engine.Run(rec)
			So(errors.Cause(err), ShouldEqual, domain.ErrInvalidMeasurement)

			rec = healthyRecord()
			rec.Spectrum = domain.Spectrum{}
			_, err = engine.Run(rec)
			So(errors.Cause(err), ShouldEqual, domain.ErrInvalidMeasurement)
		})

		Convey("并发运行互不影响", func() {
			records := []domain.MeasurementRecord{healthyRecord(), electricalRecord(), bearingRecord(), cavitationRecord()}
			want := make([]domain.ReportType, len(records))
			for i, rec := range records {
				res, err := engine.Run(rec)
				So(err, ShouldBeNil)
				want[i] = res.ReportType
			}

			got := make([]domain.ReportType, len(records)*8)
			var wg sync.WaitGroup
			for i := range got {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					res, err := engine.Run(records[i%len(records)])
					if err == nil {
						got[i] = res.ReportType
					}
				}(i)
			}
			wg.Wait()

			for i := range got {
				So(got[i], ShouldEqual, want[i%len(records)])
			}
		})
	})
}

func TestNewEngine(t *testing.T) {
	Convey("TestNewEngine", t, func() {
		def, err := NewEngine(DefaultParameters()).Run(healthyRecord())
		So(err, ShouldBeNil)

		Convey("零值参数回落到默认值，NPSHa 为有限值", func() {
			engine := NewEngine(Parameters{})
			So(engine.Parameters(), ShouldResemble, Parameters{
				FluidDensity:    850,
				VaporHead:       0,
				FrictionHead:    0,
				AmbientTemp:     0,
				LineFrequencyHz: 50,
			})

			res, err := engine.Run(healthyRecord())
			So(err, ShouldBeNil)
			So(res.Hydraulic, ShouldNotBeNil)
			So(math.IsInf(res.Hydraulic.NPSHa, 0) || math.IsNaN(res.Hydraulic.NPSHa), ShouldBeFalse)
			So(math.IsNaN(res.Hydraulic.NPSHaMargin), ShouldBeFalse)
		})

		Convey("负值与 NaN 参数逐字段替换", func() {
			engine := NewEngine(Parameters{
				FluidDensity:    -1,
				VaporHead:       -2,
				FrictionHead:    math.NaN(),
				AmbientTemp:     math.Inf(1),
				LineFrequencyHz: math.NaN(),
			})
			So(engine.Parameters(), ShouldResemble, DefaultParameters())

			res, err := engine.Run(healthyRecord())
			So(err, ShouldBeNil)
			So(res.Hydraulic.NPSHa, ShouldAlmostEqual, def.Hydraulic.NPSHa, 1e-9)
		})

		Convey("合法参数原样保留", func() {
			p := Parameters{FluidDensity: 1000, VaporHead: 0.2, FrictionHead: 0.1, AmbientTemp: -5, LineFrequencyHz: 60}
			So(NewEngine(p).Parameters(), ShouldResemble, p)
		})
	})
}
