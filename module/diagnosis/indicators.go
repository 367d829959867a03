package diagnosis

import (
	"math"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/domain"
)

// barToWaterMetres 1 bar 对应的水柱高度（m）。
const barToWaterMetres = 10.197

// Parameters 诊断参数，来自业务配置，单次运行内只读。
type Parameters struct {
	FluidDensity    float64 // kg/m³
	VaporHead       float64 // m
	FrictionHead    float64 // m
	AmbientTemp     float64 // °C
	LineFrequencyHz float64
}

// DefaultParameters 油品泵站的默认介质参数。
func DefaultParameters() Parameters {
	return Parameters{
		FluidDensity:    850,
		VaporHead:       0.5,
		FrictionHead:    0.3,
		AmbientTemp:     35,
		LineFrequencyHz: 50,
	}
}

// normalized 非正的密度、电网频率以及负的压头换成默认值，避免派生量出现 Inf/NaN
func (p Parameters) normalized() Parameters {
	def := DefaultParameters()
	if !positive(p.FluidDensity) {
		p.FluidDensity = def.FluidDensity
	}
	if !positive(p.LineFrequencyHz) {
		p.LineFrequencyHz = def.LineFrequencyHz
	}
	if p.VaporHead < 0 || math.IsNaN(p.VaporHead) || math.IsInf(p.VaporHead, 0) {
		p.VaporHead = def.VaporHead
	}
	if p.FrictionHead < 0 || math.IsNaN(p.FrictionHead) || math.IsInf(p.FrictionHead, 0) {
		p.FrictionHead = def.FrictionHead
	}
	if math.IsNaN(p.AmbientTemp) || math.IsInf(p.AmbientTemp, 0) {
		p.AmbientTemp = def.AmbientTemp
	}
	return p
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

// Indicators 由测量记录派生的中间量，各阶段共享只读。
type Indicators struct {
	RPM         float64 // 实测转速优先
	Fundamental float64 // 1X，Hz
	TwoLineFreq float64 // 2×电网频率，Hz

	VoltageImbalance float64 // %
	CurrentImbalance float64 // %
	LoadFactor       float64 // %
	Slip             *float64

	Ambient       float64
	TempGradient  float64 // 泵 |DE-NDE|
	TempRise      float64 // 泵 DE 温升
	MotorTempRise float64

	NPSHa        float64
	NPSHaMargin  float64
	BEPDeviation float64 // %

	PumpHF  float64 // g
	MotorHF float64

	Spectral SpectralFeatures
}

// SpectralFeatures 峰值组上的特征匹配结果。
type SpectralFeatures struct {
	Peak1         domain.SpectralPeak
	TotalAmp      float64
	TwoLFPeak     *domain.SpectralPeak
	TwoLFDominant bool
	OneXPeak      *domain.SpectralPeak
	OneXRatio     float64 // 1X / 三峰幅值和
	OneXDominant  bool
	TwoXPeak      *domain.SpectralPeak
	TwoXRatio     float64 // 2X / peak1
	TwoXDominant  bool
	BPFOPeak      *domain.SpectralPeak
}

// DeriveIndicators 计算派生指标，调用方需保证记录已通过校验。
func DeriveIndicators(rec domain.MeasurementRecord, p Parameters) Indicators {
	ind := Indicators{
		RPM:         rec.Asset.RatedRPM,
		TwoLineFreq: 2 * p.LineFrequencyHz,
		Ambient:     p.AmbientTemp,
		PumpHF:      rec.Vibration.PumpHF.Total(),
		MotorHF:     rec.Vibration.MotorHF.Total(),
	}
	if rec.Electrical.ActualRPM != nil {
		ind.RPM = *rec.Electrical.ActualRPM
		slip := (rec.Asset.RatedRPM - *rec.Electrical.ActualRPM) / rec.Asset.RatedRPM * 100
		ind.Slip = &slip
	}
	ind.Fundamental = ind.RPM / 60

	e := rec.Electrical
	ind.VoltageImbalance = imbalance(e.VoltageR, e.VoltageS, e.VoltageT)
	ind.CurrentImbalance = imbalance(e.CurrentR, e.CurrentS, e.CurrentT)
	ind.LoadFactor = (e.CurrentR + e.CurrentS + e.CurrentT) / 3 / rec.Asset.FullLoadCurrent * 100

	if rec.Thermal.Ambient != nil {
		ind.Ambient = *rec.Thermal.Ambient
	}
	ind.TempGradient = math.Abs(rec.Thermal.PumpDE - rec.Thermal.PumpNDE)
	ind.TempRise = rec.Thermal.PumpDE - ind.Ambient
	ind.MotorTempRise = rec.Thermal.MotorDE - ind.Ambient

	density, vapor, friction := p.FluidDensity, p.VaporHead, p.FrictionHead
	if rec.Fluid.Density != nil {
		density = *rec.Fluid.Density
	}
	if rec.Fluid.VaporHead != nil {
		vapor = *rec.Fluid.VaporHead
	}
	if rec.Fluid.FrictionHead != nil {
		friction = *rec.Fluid.FrictionHead
	}
	ind.NPSHa = rec.Hydraulic.SuctionPressure*barToWaterMetres*1000/density - vapor - friction
	ind.NPSHaMargin = ind.NPSHa - rec.Asset.NPSHr
	ind.BEPDeviation = math.Abs(rec.Hydraulic.ActualFlow-rec.Asset.BEPFlow) / rec.Asset.BEPFlow * 100

	ind.Spectral = matchSpectrum(rec.Spectrum.Primary(), ind.Fundamental, ind.TwoLineFreq)
	return ind
}

func matchSpectrum(peaks []domain.SpectralPeak, f1, twoLF float64) SpectralFeatures {
	var sf SpectralFeatures
	if len(peaks) == 0 {
		return sf
	}
	sf.Peak1 = peaks[0]
	for _, p := range peaks {
		sf.TotalAmp += p.Amplitude
	}

	for i := range peaks {
		p := peaks[i]
		if sf.TwoLFPeak == nil && math.Abs(p.FrequencyHz-twoLF) <= 5 && p.Amplitude > 0.5*sf.Peak1.Amplitude {
			sf.TwoLFPeak = &peaks[i]
		}
		if near(p.FrequencyHz, f1, 0.1) && sf.TotalAmp > 0 {
			ratio := p.Amplitude / sf.TotalAmp
			if sf.OneXPeak == nil || ratio > sf.OneXRatio {
				sf.OneXPeak = &peaks[i]
				sf.OneXRatio = ratio
			}
		}
		if near(p.FrequencyHz, 2*f1, 0.1) && sf.Peak1.Amplitude > 0 {
			ratio := p.Amplitude / sf.Peak1.Amplitude
			if sf.TwoXPeak == nil || ratio > sf.TwoXRatio {
				sf.TwoXPeak = &peaks[i]
				sf.TwoXRatio = ratio
			}
		}
		if sf.BPFOPeak == nil && isBPFOCandidate(p, f1) {
			sf.BPFOPeak = &peaks[i]
		}
	}
	sf.TwoLFDominant = sf.TwoLFPeak != nil
	sf.OneXDominant = sf.OneXPeak != nil && sf.OneXRatio > 0.80
	sf.TwoXDominant = sf.TwoXPeak != nil && sf.TwoXRatio > 0.5
	return sf
}

// isBPFOCandidate 非谐波峰：高于 50 Hz 且与 1X/2X/3X 均相差 20% 以上。
func isBPFOCandidate(p domain.SpectralPeak, f1 float64) bool {
	if p.FrequencyHz <= 50 || p.Amplitude <= 0 {
		return false
	}
	for h := 1.0; h <= 3; h++ {
		if math.Abs(p.FrequencyHz-h*f1) <= 0.2*h*f1 {
			return false
		}
	}
	return true
}

func near(freq, target, tolerance float64) bool {
	return math.Abs(freq-target) <= tolerance*target
}

// imbalance 三相不平衡度：max(|x-avg|)/avg×100。
func imbalance(a, b, c float64) float64 {
	avg := (a + b + c) / 3
	if avg <= 0 {
		return 0
	}
	dev := math.Max(math.Abs(a-avg), math.Max(math.Abs(b-avg), math.Abs(c-avg)))
	return dev / avg * 100
}
