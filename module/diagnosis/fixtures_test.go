package diagnosis

import (
	"time"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/domain"
)

func uniform(v float64) domain.MachineVelocity {
	b := domain.BearingVelocity{DE: v, NDE: v}
	return domain.MachineVelocity{Horizontal: b, Vertical: b, Axial: b}
}

// healthyRecord 110 kW 刚性基础机组的正常巡检记录。
func healthyRecord() domain.MeasurementRecord {
	return domain.MeasurementRecord{
		Asset: domain.AssetContext{
			AssetID:         "P-101A",
			Location:        "TBBM Plumpang",
			PumpType:        "Centrifugal",
			MotorPowerKW:    110,
			RatedRPM:        1500,
			FullLoadCurrent: 200,
			Foundation:      domain.FoundationRigid,
			BEPFlow:         50,
			BEPHead:         65,
			NPSHr:           2.8,
		},
		Vibration: domain.VibrationReadings{
			Motor:   uniform(1.0),
			Pump:    uniform(1.0),
			MotorHF: domain.HFReading{Overall: 0.2},
			PumpHF:  domain.HFReading{Overall: 0.2},
		},
		Spectrum: domain.Spectrum{Peaks: []domain.SpectralPeak{
			{FrequencyHz: 25, Amplitude: 1.0},
			{FrequencyHz: 50, Amplitude: 0.3},
			{FrequencyHz: 75, Amplitude: 0.2},
		}},
		Electrical: domain.ElectricalReadings{
			VoltageR: 400, VoltageS: 401, VoltageT: 399,
			CurrentR: 150, CurrentS: 150, CurrentT: 150,
		},
		Hydraulic: domain.HydraulicReadings{
			SuctionPressure:   3,
			DischargePressure: 8,
			ActualFlow:        48,
		},
		Thermal: domain.ThermalReadings{
			MotorDE: 60, MotorNDE: 55,
			PumpDE: 60, PumpNDE: 55,
		},
		RecordedAt: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
	}
}

// electricalRecord 2×电网频率占优且电压不平衡 3.5%，泵水平方向处于 C 区。
func electricalRecord() domain.MeasurementRecord {
	rec := healthyRecord()
	rec.Vibration.Pump.Horizontal = domain.BearingVelocity{DE: 8.0, NDE: 7.6}
	rec.Vibration.PumpHF = domain.HFReading{Overall: 0.4}
	rec.Spectrum.Peaks = []domain.SpectralPeak{
		{FrequencyHz: 25, Amplitude: 2.0},
		{FrequencyHz: 50, Amplitude: 0.6},
		{FrequencyHz: 101, Amplitude: 2.4},
	}
	rec.Electrical.VoltageR, rec.Electrical.VoltageS, rec.Electrical.VoltageT = 414, 400, 386
	rec.Advanced.PhaseInstabilityDeg = domain.Float64(25)
	rec.Thermal.PumpDE, rec.Thermal.PumpNDE = 70, 62
	return rec
}

// bearingRecord 泵 DE 高频 1.8 g，温升 55 °C，DE/NDE 温差 18 °C。
func bearingRecord() domain.MeasurementRecord {
	rec := healthyRecord()
	rec.Vibration.PumpHF = domain.HFReading{Overall: 1.8}
	rec.Spectrum.Peaks = []domain.SpectralPeak{
		{FrequencyHz: 24.7, Amplitude: 2.0},
		{FrequencyHz: 49.4, Amplitude: 0.6},
		{FrequencyHz: 107, Amplitude: 1.2},
	}
	rec.Thermal.PumpDE, rec.Thermal.PumpNDE = 90, 72
	return rec
}

// cavitationRecord 吸入压力 0.2 bar，流量 30 m³/h（BEP 50）。
func cavitationRecord() domain.MeasurementRecord {
	rec := healthyRecord()
	rec.Hydraulic.SuctionPressure = 0.2
	rec.Hydraulic.ActualFlow = 30
	return rec
}

func derive(rec domain.MeasurementRecord) (domain.DirectionAverages, Indicators) {
	return CalculateDirectionAverages(rec.Vibration), DeriveIndicators(rec, DefaultParameters())
}
