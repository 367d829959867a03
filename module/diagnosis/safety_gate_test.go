package diagnosis

import (
	"testing"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/domain"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCheckSafety(t *testing.T) {
	Convey("TestCheckSafety", t, func() {
		Convey("正常记录不触发停机", func() {
			rec := healthyRecord()
			avg, ind := derive(rec)

			res := CheckSafety(rec, avg, ind)

			So(res.ShutdownRequired, ShouldBeFalse)
			So(res.Triggers, ShouldBeEmpty)
			So(res.Status, ShouldEqual, "SAFE")
		})

		Convey("任一轴承温度超过 120°C 都触发停机", func() {
			for _, set := range []func(*domain.ThermalReadings){
				func(th *domain.ThermalReadings) { th.MotorDE = 121 },
				func(th *domain.ThermalReadings) { th.MotorNDE = 121 },
				func(th *domain.ThermalReadings) { th.PumpDE = 121 },
				func(th *domain.ThermalReadings) { th.PumpNDE = 121 },
			} {
				rec := healthyRecord()
				set(&rec.Thermal)
				avg, ind := derive(rec)

				res := CheckSafety(rec, avg, ind)

				So(res.ShutdownRequired, ShouldBeTrue)
				So(res.Triggers, ShouldHaveLength, 1)
				So(res.Triggers[0].Severity, ShouldEqual, domain.SeverityCritical)
				So(res.Triggers[0].Value, ShouldEqual, 121.0)
			}
		})

		Convey("温度恰好 120°C 不触发", func() {
			rec := healthyRecord()
			rec.Thermal.PumpDE = 120
			avg, ind := derive(rec)

			So(CheckSafety(rec, avg, ind).ShutdownRequired, ShouldBeFalse)
		})

		Convey("四项条件全部评估并按顺序记录", func() {
			rec := healthyRecord()
			rec.Thermal.MotorDE = 130
			rec.Thermal.PumpNDE = 125
			rec.Vibration.Pump.Axial = domain.BearingVelocity{DE: 12, NDE: 12.4}
			rec.Hydraulic.DischargeFluctuationPct = domain.Float64(18)
			rec.Electrical.CurrentR, rec.Electrical.CurrentS, rec.Electrical.CurrentT = 240, 240, 240
			avg, ind := derive(rec)

			res := CheckSafety(rec, avg, ind)

			So(res.ShutdownRequired, ShouldBeTrue)
			So(res.Status, ShouldEqual, domain.SeverityCritical)
			So(res.Triggers, ShouldHaveLength, 5)
			So(res.Triggers[0].Component, ShouldEqual, "Motor")
			So(res.Triggers[1].Component, ShouldEqual, "Pump")
			So(res.Triggers[2].Component, ShouldEqual, "Pump A")
			So(res.Triggers[2].Value, ShouldAlmostEqual, 12.2, 1e-9)
			So(res.Triggers[3].Component, ShouldEqual, "Hydraulic")
			So(res.Triggers[4].Component, ShouldEqual, "Electrical")
			So(res.Triggers[4].Value, ShouldAlmostEqual, 120, 1e-9)
		})

		Convey("未提供压力波动时不评估该项", func() {
			rec := healthyRecord()
			rec.Hydraulic.DischargeFluctuationPct = nil
			avg, ind := derive(rec)

			So(CheckSafety(rec, avg, ind).Triggers, ShouldBeEmpty)
		})
	})
}

func TestTriggerCompliance(t *testing.T) {
	Convey("TestTriggerCompliance", t, func() {
		So(triggerCompliance(domain.SafetyTrigger{Standard: vibrationShutdownStandard}), ShouldEqual, domain.StandardISO10816)
		So(triggerCompliance(domain.SafetyTrigger{Standard: overloadStandard}), ShouldEqual, domain.StandardIEC60034)
		So(triggerCompliance(domain.SafetyTrigger{Standard: bearingTemperatureStandard}), ShouldEqual, domain.StandardAPI610)
		So(triggerCompliance(domain.SafetyTrigger{Standard: dischargeFluctuationStandard}), ShouldEqual, domain.StandardAPI610)
	})
}
