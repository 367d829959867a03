package diagnosis

import (
	"testing"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/domain"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDeriveIndicators(t *testing.T) {
	Convey("TestDeriveIndicators", t, func() {
		Convey("电气与温度派生量", func() {
			_, ind := derive(electricalRecord())

			So(ind.Fundamental, ShouldEqual, 25.0)
			So(ind.TwoLineFreq, ShouldEqual, 100.0)
			So(ind.VoltageImbalance, ShouldAlmostEqual, 3.5, 1e-9)
			So(ind.LoadFactor, ShouldAlmostEqual, 75, 1e-9)
			So(ind.Slip, ShouldBeNil)
			So(ind.TempGradient, ShouldEqual, 8.0)
			So(ind.TempRise, ShouldEqual, 35.0)
		})

		Convey("实测转速优先并计算转差率", func() {
			rec := healthyRecord()
			rec.Electrical.ActualRPM = domain.Float64(1455)

			ind := DeriveIndicators(rec, DefaultParameters())

			So(ind.RPM, ShouldEqual, 1455.0)
			So(ind.Fundamental, ShouldAlmostEqual, 24.25, 1e-9)
			So(*ind.Slip, ShouldAlmostEqual, 3, 1e-9)
		})

		Convey("NPSHa 按介质密度换算", func() {
			_, ind := derive(cavitationRecord())

			So(ind.NPSHa, ShouldAlmostEqual, 0.2*10.197*1000/850-0.8, 1e-9)
			So(ind.NPSHaMargin, ShouldBeLessThan, 0.6)
			So(ind.BEPDeviation, ShouldAlmostEqual, 40, 1e-9)
		})

		Convey("记录中的介质参数覆盖默认值", func() {
			rec := cavitationRecord()
			rec.Fluid.Density = domain.Float64(1000)
			rec.Fluid.VaporHead = domain.Float64(0.2)
			rec.Fluid.FrictionHead = domain.Float64(0)

			ind := DeriveIndicators(rec, DefaultParameters())

			So(ind.NPSHa, ShouldAlmostEqual, 0.2*10.197-0.2, 1e-9)
		})

		Convey("环境温度可由记录覆盖", func() {
			rec := healthyRecord()
			rec.Thermal.Ambient = domain.Float64(25)

			ind := DeriveIndicators(rec, DefaultParameters())

			So(ind.TempRise, ShouldEqual, 35.0)
		})

		Convey("高频分段存在时取均方根", func() {
			rec := healthyRecord()
			rec.Vibration.PumpHF = domain.HFReading{Overall: 0.1, Bands: &domain.HFBands{Low: 0.3, Mid: 0.4, High: 0}}

			ind := DeriveIndicators(rec, DefaultParameters())

			So(ind.PumpHF, ShouldAlmostEqual, 0.5, 1e-9)
		})

		Convey("60 Hz 电网的二倍频为 120 Hz", func() {
			p := DefaultParameters()
			p.LineFrequencyHz = 60
			rec := electricalRecord()
			rec.Spectrum.Peaks[2].FrequencyHz = 119

			ind := DeriveIndicators(rec, p)

			So(ind.TwoLineFreq, ShouldEqual, 120.0)
			So(ind.Spectral.TwoLFDominant, ShouldBeTrue)
		})
	})
}

func TestMatchSpectrum(t *testing.T) {
	Convey("TestMatchSpectrum", t, func() {
		Convey("1X 占比超过 80% 判为主导", func() {
			sf := matchSpectrum([]domain.SpectralPeak{
				{FrequencyHz: 24.8, Amplitude: 4.5},
				{FrequencyHz: 50, Amplitude: 0.5},
				{FrequencyHz: 75, Amplitude: 0.3},
			}, 25, 100)

			So(sf.OneXDominant, ShouldBeTrue)
			So(sf.OneXRatio, ShouldAlmostEqual, 4.5/5.3, 1e-9)
			So(sf.TwoXDominant, ShouldBeFalse)
		})

		Convey("2X 与 1X 幅值比超过 0.5 判为主导", func() {
			sf := matchSpectrum([]domain.SpectralPeak{
				{FrequencyHz: 25, Amplitude: 2.0},
				{FrequencyHz: 50, Amplitude: 1.4},
			}, 25, 100)

			So(sf.TwoXDominant, ShouldBeTrue)
			So(sf.TwoXRatio, ShouldAlmostEqual, 0.7, 1e-9)
		})

		Convey("2LF 需在 ±5 Hz 且幅值超过 peak1 一半", func() {
			sf := matchSpectrum([]domain.SpectralPeak{
				{FrequencyHz: 25, Amplitude: 2.0},
				{FrequencyHz: 104, Amplitude: 0.9},
			}, 25, 100)
			So(sf.TwoLFDominant, ShouldBeFalse)

			sf = matchSpectrum([]domain.SpectralPeak{
				{FrequencyHz: 25, Amplitude: 2.0},
				{FrequencyHz: 106, Amplitude: 1.5},
			}, 25, 100)
			So(sf.TwoLFDominant, ShouldBeFalse)
		})

		Convey("BPFO 候选为 50 Hz 以上的非谐波峰", func() {
			So(isBPFOCandidate(domain.SpectralPeak{FrequencyHz: 107, Amplitude: 1}, 25), ShouldBeTrue)
			So(isBPFOCandidate(domain.SpectralPeak{FrequencyHz: 75, Amplitude: 1}, 25), ShouldBeFalse)
			So(isBPFOCandidate(domain.SpectralPeak{FrequencyHz: 40, Amplitude: 1}, 25), ShouldBeFalse)
			So(isBPFOCandidate(domain.SpectralPeak{FrequencyHz: 107, Amplitude: 0}, 25), ShouldBeFalse)
		})

		Convey("空峰值组不匹配任何特征", func() {
			sf := matchSpectrum(nil, 25, 100)
			So(sf.TwoLFPeak, ShouldBeNil)
			So(sf.OneXPeak, ShouldBeNil)
			So(sf.BPFOPeak, ShouldBeNil)
		})
	})
}

func TestDetectSignatures(t *testing.T) {
	Convey("TestDetectSignatures", t, func() {
		Convey("正常记录返回 NO_FAULT", func() {
			faults := DetectSignatures(derive(healthyRecord()))

			So(faults, ShouldHaveLength, 1)
			So(faults[0].Type, ShouldEqual, domain.FaultNone)
			So(faults[0].BaseConfidence, ShouldEqual, 0.95)
		})

		Convey("2LF 占优且电压不平衡判为电气不平衡", func() {
			faults := DetectSignatures(derive(electricalRecord()))

			So(faults, ShouldHaveLength, 1)
			So(faults[0].Type, ShouldEqual, domain.FaultElectricalUnbalance)
			So(faults[0].BaseConfidence, ShouldEqual, 0.92)
			So(faults[0].PrimaryEvidence, ShouldEqual, "2×Line Freq dominant at 101.0 Hz (2.4 mm/s)")
			So(faults[0].Evidence[1], ShouldEqual, "Voltage imbalance 3.5% > 2% limit (IEC 60034-1 §6.3)")
		})

		Convey("1X 占优且电压平衡判为机械不平衡", func() {
			rec := healthyRecord()
			rec.Spectrum.Peaks = []domain.SpectralPeak{
				{FrequencyHz: 25, Amplitude: 4.5},
				{FrequencyHz: 50, Amplitude: 0.5},
				{FrequencyHz: 75, Amplitude: 0.3},
			}

			faults := DetectSignatures(derive(rec))

			So(faults, ShouldHaveLength, 1)
			So(faults[0].Type, ShouldEqual, domain.FaultMechanicalUnbalance)
			So(faults[0].BaseConfidence, ShouldEqual, 0.88)
		})

		Convey("2X 占优按轴向/径向区分不对中类型", func() {
			rec := healthyRecord()
			rec.Spectrum.Peaks = []domain.SpectralPeak{
				{FrequencyHz: 25, Amplitude: 2.0},
				{FrequencyHz: 50, Amplitude: 1.4},
			}
			rec.Vibration.Pump.Axial = domain.BearingVelocity{DE: 2.0, NDE: 1.8}

			faults := DetectSignatures(derive(rec))
			So(faults[0].Type, ShouldEqual, domain.FaultAngularMisalignment)

			rec.Vibration.Pump.Axial = domain.BearingVelocity{DE: 0.5, NDE: 0.5}
			faults = DetectSignatures(derive(rec))
			So(faults[0].Type, ShouldEqual, domain.FaultParallelMisalignment)
			So(faults[0].BaseConfidence, ShouldEqual, 0.85)
		})

		Convey("高频超限且有温差或 BPFO 判为轴承缺陷", func() {
			faults := DetectSignatures(derive(bearingRecord()))

			So(faults, ShouldHaveLength, 1)
			So(faults[0].Type, ShouldEqual, domain.FaultBearingDefect)
			So(faults[0].BaseConfidence, ShouldEqual, 0.87)
			So(faults[0].Evidence, ShouldHaveLength, 3)

			rec := bearingRecord()
			rec.Spectrum.Peaks = rec.Spectrum.Peaks[:2]
			rec.Thermal.PumpNDE = 85
			So(DetectSignatures(derive(rec))[0].Type, ShouldEqual, domain.FaultNone)
		})

		Convey("NPSH 裕量不足且偏离 BEP 判为汽蚀", func() {
			faults := DetectSignatures(derive(cavitationRecord()))

			So(faults, ShouldHaveLength, 1)
			So(faults[0].Type, ShouldEqual, domain.FaultCavitation)
			So(faults[0].BaseConfidence, ShouldEqual, 0.80)
		})

		Convey("多个候选按置信度降序", func() {
			rec := bearingRecord()
			rec.Hydraulic.SuctionPressure = 0.2
			rec.Hydraulic.ActualFlow = 30
			rec.Spectrum.Peaks = []domain.SpectralPeak{
				{FrequencyHz: 25, Amplitude: 2.0},
				{FrequencyHz: 50, Amplitude: 1.4},
				{FrequencyHz: 107, Amplitude: 1.2},
			}

			faults := DetectSignatures(derive(rec))

			So(faults, ShouldHaveLength, 3)
			So(faults[0].Type, ShouldEqual, domain.FaultBearingDefect)
			So(faults[1].Type, ShouldEqual, domain.FaultParallelMisalignment)
			So(faults[2].Type, ShouldEqual, domain.FaultCavitation)
		})
	})
}
