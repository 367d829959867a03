package domain

import (
	"math"
	"time"
)

// Foundation 基础类型，决定 ISO 10816-3 限值列。
type Foundation string

const (
	FoundationRigid    Foundation = "rigid"    // 刚性基础（混凝土）
	FoundationFlexible Foundation = "flexible" // 柔性基础（钢结构）
)

// Direction 测量方向。
type Direction string

const (
	DirectionHorizontal Direction = "H"
	DirectionVertical   Direction = "V"
	DirectionAxial      Direction = "A"
)

// 测点位置。
const (
	LocationMotorDE  = "motor_de"
	LocationMotorNDE = "motor_nde"
	LocationPumpDE   = "pump_de"
	LocationPumpNDE  = "pump_nde"
)

// MeasurementRecord 一次现场巡检的完整测量记录，诊断过程中只读。
// 指针字段为可选的高级测量项，为 nil 时依赖它们的规则直接跳过。
type MeasurementRecord struct {
	Asset      AssetContext       `json:"asset"`
	Vibration  VibrationReadings  `json:"vibration"`
	Spectrum   Spectrum           `json:"spectrum"`
	Electrical ElectricalReadings `json:"electrical"`
	Hydraulic  HydraulicReadings  `json:"hydraulic"`
	Thermal    ThermalReadings    `json:"thermal"`
	Advanced   AdvancedReadings   `json:"advanced"`
	Fluid      FluidOverrides     `json:"fluid"`
	RecordedAt time.Time          `json:"recorded_at"`
}

// AssetContext 设备铭牌与工况基准。
type AssetContext struct {
	AssetID         string     `json:"asset_id"`
	Location        string     `json:"location"`
	PumpType        string     `json:"pump_type"`
	MotorPowerKW    float64    `json:"motor_power_kw" validate:"gt=0,lte=50000"`
	RatedRPM        float64    `json:"rated_rpm" validate:"gt=0,lte=10000"`
	FullLoadCurrent float64    `json:"full_load_current" validate:"gt=0,lte=10000"` // FLC，单位 A
	Foundation      Foundation `json:"foundation" validate:"foundation"`
	BEPFlow         float64    `json:"bep_flow" validate:"gt=0,lte=100000"` // m³/h
	BEPHead         float64    `json:"bep_head" validate:"gte=0,lte=5000"`
	NPSHr           float64    `json:"npshr" validate:"gte=0,lte=500"` // m
}

// BearingVelocity 同一方向上 DE/NDE 两个测点的速度有效值（mm/s）。
type BearingVelocity struct {
	DE  float64 `json:"de" validate:"gte=0,lte=100"`
	NDE float64 `json:"nde" validate:"gte=0,lte=100"`
}

// Average 方向平均值，即 DE 与 NDE 的算术平均。
func (b BearingVelocity) Average() float64 {
	return (b.DE + b.NDE) / 2
}

// MachineVelocity 单台设备三个方向的速度读数。
type MachineVelocity struct {
	Horizontal BearingVelocity `json:"horizontal"`
	Vertical   BearingVelocity `json:"vertical"`
	Axial      BearingVelocity `json:"axial"`
}

// HFBands 高频加速度分频段读数（g RMS）：0.5–1.5 / 1.5–5 / 5–16 kHz。
type HFBands struct {
	Low  float64 `json:"low" validate:"gte=0,lte=100"`
	Mid  float64 `json:"mid" validate:"gte=0,lte=100"`
	High float64 `json:"high" validate:"gte=0,lte=100"`
}

// HFReading 某个轴承位置的高频加速度。
type HFReading struct {
	Overall float64  `json:"overall" validate:"gte=0,lte=100"`
	Bands   *HFBands `json:"bands,omitempty"`
}

// Total 提供分频段数据时按平方和开方合成，否则使用总值。
func (h HFReading) Total() float64 {
	if h.Bands == nil {
		return h.Overall
	}
	return math.Sqrt(h.Bands.Low*h.Bands.Low + h.Bands.Mid*h.Bands.Mid + h.Bands.High*h.Bands.High)
}

// VibrationReadings 振动速度与高频加速度。
type VibrationReadings struct {
	Motor   MachineVelocity `json:"motor"`
	Pump    MachineVelocity `json:"pump"`
	MotorHF HFReading       `json:"motor_hf"` // 电机 DE
	PumpHF  HFReading       `json:"pump_hf"`  // 泵 DE
}

// SpectralPeak FFT 峰值（频率 Hz，幅值 mm/s）。
type SpectralPeak struct {
	FrequencyHz float64 `json:"frequency_hz" validate:"gte=0,lte=20000"`
	Amplitude   float64 `json:"amplitude" validate:"gte=0,lte=100"`
}

// LocationSpectrum 某测点某方向上的峰值三元组。
type LocationSpectrum struct {
	Location  string         `json:"location"`
	Direction Direction      `json:"direction"`
	Peaks     []SpectralPeak `json:"peaks" validate:"max=3,dive"`
}

// Spectrum 全局三峰值，或按测点/方向给出的完整峰值表。
type Spectrum struct {
	Peaks     []SpectralPeak     `json:"peaks" validate:"max=3,dive"`
	Locations []LocationSpectrum `json:"locations,omitempty" validate:"dive"`
}

// Primary 返回参与特征识别的峰值组：优先全局峰值，其次泵 DE 水平方向，再次第一组测点数据。
func (s Spectrum) Primary() []SpectralPeak {
	if len(s.Peaks) > 0 {
		return s.Peaks
	}
	for _, l := range s.Locations {
		if l.Location == LocationPumpDE && l.Direction == DirectionHorizontal && len(l.Peaks) > 0 {
			return l.Peaks
		}
	}
	for _, l := range s.Locations {
		if len(l.Peaks) > 0 {
			return l.Peaks
		}
	}
	return nil
}

// ElectricalReadings 三相电压电流与实测转速。
type ElectricalReadings struct {
	VoltageR  float64  `json:"voltage_r" validate:"gt=0,lte=15000"`
	VoltageS  float64  `json:"voltage_s" validate:"gt=0,lte=15000"`
	VoltageT  float64  `json:"voltage_t" validate:"gt=0,lte=15000"`
	CurrentR  float64  `json:"current_r" validate:"gte=0,lte=10000"`
	CurrentS  float64  `json:"current_s" validate:"gte=0,lte=10000"`
	CurrentT  float64  `json:"current_t" validate:"gte=0,lte=10000"`
	ActualRPM *float64 `json:"actual_rpm,omitempty" validate:"omitempty,gt=0,lte=10000"`
}

// HydraulicReadings 水力参数，压力单位 bar，流量 m³/h。
type HydraulicReadings struct {
	SuctionPressure         float64  `json:"suction_pressure" validate:"gte=0,lte=500"`
	DischargePressure       float64  `json:"discharge_pressure" validate:"gte=0,lte=500"`
	ActualFlow              float64  `json:"actual_flow" validate:"gte=0,lte=100000"`
	DischargeFluctuationPct *float64 `json:"discharge_fluctuation_pct,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// ThermalReadings 轴承座温度（°C）。
type ThermalReadings struct {
	MotorDE  float64  `json:"motor_de" validate:"gte=0,lte=300"`
	MotorNDE float64  `json:"motor_nde" validate:"gte=0,lte=300"`
	PumpDE   float64  `json:"pump_de" validate:"gte=0,lte=300"`
	PumpNDE  float64  `json:"pump_nde" validate:"gte=0,lte=300"`
	Ambient  *float64 `json:"ambient,omitempty" validate:"omitempty,gte=0,lte=80"`
}

// AdvancedReadings 可选的高级诊断数据。
type AdvancedReadings struct {
	PhaseInstabilityDeg *float64  `json:"phase_instability_deg,omitempty" validate:"omitempty,gte=0,lte=180"`
	MotorDEDemod        *float64  `json:"motor_de_demod,omitempty" validate:"omitempty,gte=0,lte=100"` // gE
	PumpDEDemod         *float64  `json:"pump_de_demod,omitempty" validate:"omitempty,gte=0,lte=100"`  // gE
	DisplacementPeakUM  *float64  `json:"displacement_peak_um,omitempty" validate:"omitempty,gte=0,lte=10000"`
	CoastDownVelocity   []float64 `json:"coast_down_velocity,omitempty" validate:"dive,gte=0,lte=100"`
}

// FluidOverrides 按记录覆盖介质物性，未给出的项使用配置默认值。
type FluidOverrides struct {
	Density      *float64 `json:"density,omitempty" validate:"omitempty,gt=0,lte=20000"`       // kg/m³
	VaporHead    *float64 `json:"vapor_head,omitempty" validate:"omitempty,gte=0,lte=1000"`    // m
	FrictionHead *float64 `json:"friction_head,omitempty" validate:"omitempty,gte=0,lte=1000"` // m
}

// Float64 返回指向 v 的指针，便于构造可选字段。
func Float64(v float64) *float64 {
	return &v
}
