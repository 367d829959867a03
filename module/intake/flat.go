package intake

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/domain"
)

// flatRequiredKeys 缺失即拒绝，不做默认值填充
var flatRequiredKeys = []string{
	"motor_kw", "motor_rpm", "flc", "foundation_type", "bep_flow", "npshr",
	"motor_h_de", "motor_h_nde", "motor_v_de", "motor_v_nde", "motor_a_de", "motor_a_nde",
	"pump_h_de", "pump_h_nde", "pump_v_de", "pump_v_nde", "pump_a_de", "pump_a_nde",
	"hf_motor_de", "hf_pump_de",
	"voltage_r", "voltage_s", "voltage_t", "current_r", "current_s", "current_t",
	"p_suc", "p_dis", "actual_flow",
	"temp_motor_de", "temp_motor_nde", "temp_pump_de", "temp_pump_nde",
}

const maxFlatPeaks = 3

// flatRecord 平铺键值载荷
type flatRecord struct {
	AssetID    string    `mapstructure:"asset_id"`
	Location   string    `mapstructure:"location"`
	PumpType   string    `mapstructure:"pump_type"`
	MotorKW    float64   `mapstructure:"motor_kw"`
	MotorRPM   float64   `mapstructure:"motor_rpm"`
	FLC        float64   `mapstructure:"flc"`
	Foundation string    `mapstructure:"foundation_type"`
	BEPFlow    float64   `mapstructure:"bep_flow"`
	BEPHead    float64   `mapstructure:"bep_head"`
	NPSHr      float64   `mapstructure:"npshr"`
	RecordedAt time.Time `mapstructure:"recorded_at"`

	MotorHDE  float64 `mapstructure:"motor_h_de"`
	MotorHNDE float64 `mapstructure:"motor_h_nde"`
	MotorVDE  float64 `mapstructure:"motor_v_de"`
	MotorVNDE float64 `mapstructure:"motor_v_nde"`
	MotorADE  float64 `mapstructure:"motor_a_de"`
	MotorANDE float64 `mapstructure:"motor_a_nde"`
	PumpHDE   float64 `mapstructure:"pump_h_de"`
	PumpHNDE  float64 `mapstructure:"pump_h_nde"`
	PumpVDE   float64 `mapstructure:"pump_v_de"`
	PumpVNDE  float64 `mapstructure:"pump_v_nde"`
	PumpADE   float64 `mapstructure:"pump_a_de"`
	PumpANDE  float64 `mapstructure:"pump_a_nde"`

	HFMotorDE float64 `mapstructure:"hf_motor_de"`
	HFPumpDE  float64 `mapstructure:"hf_pump_de"`

	VoltageR  float64  `mapstructure:"voltage_r"`
	VoltageS  float64  `mapstructure:"voltage_s"`
	VoltageT  float64  `mapstructure:"voltage_t"`
	CurrentR  float64  `mapstructure:"current_r"`
	CurrentS  float64  `mapstructure:"current_s"`
	CurrentT  float64  `mapstructure:"current_t"`
	ActualRPM *float64 `mapstructure:"actual_rpm"`

	SuctionPressure   float64  `mapstructure:"p_suc"`
	DischargePressure float64  `mapstructure:"p_dis"`
	ActualFlow        float64  `mapstructure:"actual_flow"`
	DischargeFluct    *float64 `mapstructure:"p_dis_fluctuation"`

	TempMotorDE  float64  `mapstructure:"temp_motor_de"`
	TempMotorNDE float64  `mapstructure:"temp_motor_nde"`
	TempPumpDE   float64  `mapstructure:"temp_pump_de"`
	TempPumpNDE  float64  `mapstructure:"temp_pump_nde"`
	AmbientTemp  *float64 `mapstructure:"ambient_temp"`

	PhaseInstability *float64  `mapstructure:"phase_instability"`
	DemodMotorDE     *float64  `mapstructure:"demod_motor_de"`
	DemodPumpDE      *float64  `mapstructure:"demod_pump_de"`
	DisplacementPeak *float64  `mapstructure:"displacement_peak"`
	CoastDown        []float64 `mapstructure:"coastdown_velocity"`

	FluidDensity *float64 `mapstructure:"fluid_density"`
	VaporHead    *float64 `mapstructure:"vapor_head"`
	FrictionHead *float64 `mapstructure:"friction_head"`
}

// FlatStandardizer 处理采集端的平铺键值载荷
type FlatStandardizer struct{}

func NewFlatStandardizer() *FlatStandardizer {
	return &FlatStandardizer{}
}

func (s *FlatStandardizer) Standardize(_ context.Context, payload []byte) (domain.MeasurementRecord, error) {
	m, err := decodeObject(payload)
	if err != nil {
		return domain.MeasurementRecord{}, err
	}
	return s.FromMap(m)
}

// FromMap 转换已解析的键值对，CLI 读取 YAML 时直接调用
func (s *FlatStandardizer) FromMap(m map[string]any) (domain.MeasurementRecord, error) {
	var missing []string
	for _, key := range flatRequiredKeys {
		if !present(m, key) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return domain.MeasurementRecord{}, errors.Wrapf(domain.ErrInvalidMeasurement, "缺少必填字段: %s", strings.Join(missing, ", "))
	}

	var fr flatRecord
	if err := decodeInto(m, &fr, "mapstructure"); err != nil {
		return domain.MeasurementRecord{}, err
	}
	peaks, err := flatPeaks(m)
	if err != nil {
		return domain.MeasurementRecord{}, err
	}

	rec := fr.toRecord()
	rec.Spectrum.Peaks = peaks
	rec.Vibration.MotorHF.Bands, err = flatBands(m, "hf_motor_de")
	if err != nil {
		return domain.MeasurementRecord{}, err
	}
	rec.Vibration.PumpHF.Bands, err = flatBands(m, "hf_pump_de")
	if err != nil {
		return domain.MeasurementRecord{}, err
	}

	if err := rec.Validate(); err != nil {
		return domain.MeasurementRecord{}, err
	}
	return rec, nil
}

// flatPeaks 频率与幅值同时给出的峰值才计入
func flatPeaks(m map[string]any) ([]domain.SpectralPeak, error) {
	peaks := make([]domain.SpectralPeak, 0, maxFlatPeaks)
	for i := 1; i <= maxFlatPeaks; i++ {
		fk, ak := fmt.Sprintf("peak%d_freq", i), fmt.Sprintf("peak%d_amp", i)
		if !present(m, fk) || !present(m, ak) {
			continue
		}
		freq, err := toNumber(m[fk])
		if err != nil {
			return nil, errors.Wrapf(domain.ErrInvalidMeasurement, "%s 不是数值", fk)
		}
		amp, err := toNumber(m[ak])
		if err != nil {
			return nil, errors.Wrapf(domain.ErrInvalidMeasurement, "%s 不是数值", ak)
		}
		peaks = append(peaks, domain.SpectralPeak{FrequencyHz: freq, Amplitude: amp})
	}
	return peaks, nil
}

// flatBands 三个分频段齐全时才返回
func flatBands(m map[string]any, prefix string) (*domain.HFBands, error) {
	var vals [3]float64
	for i := range vals {
		key := fmt.Sprintf("%s_band%d", prefix, i+1)
		if !present(m, key) {
			return nil, nil
		}
		v, err := toNumber(m[key])
		if err != nil {
			return nil, errors.Wrapf(domain.ErrInvalidMeasurement, "%s 不是数值", key)
		}
		vals[i] = v
	}
	return &domain.HFBands{Low: vals[0], Mid: vals[1], High: vals[2]}, nil
}

func (f flatRecord) toRecord() domain.MeasurementRecord {
	bv := func(de, nde float64) domain.BearingVelocity {
		return domain.BearingVelocity{DE: de, NDE: nde}
	}
	return domain.MeasurementRecord{
		Asset: domain.AssetContext{
			AssetID:         f.AssetID,
			Location:        f.Location,
			PumpType:        f.PumpType,
			MotorPowerKW:    f.MotorKW,
			RatedRPM:        f.MotorRPM,
			FullLoadCurrent: f.FLC,
			Foundation:      domain.Foundation(strings.ToLower(strings.TrimSpace(f.Foundation))),
			BEPFlow:         f.BEPFlow,
			BEPHead:         f.BEPHead,
			NPSHr:           f.NPSHr,
		},
		Vibration: domain.VibrationReadings{
			Motor: domain.MachineVelocity{
				Horizontal: bv(f.MotorHDE, f.MotorHNDE),
				Vertical:   bv(f.MotorVDE, f.MotorVNDE),
				Axial:      bv(f.MotorADE, f.MotorANDE),
			},
			Pump: domain.MachineVelocity{
				Horizontal: bv(f.PumpHDE, f.PumpHNDE),
				Vertical:   bv(f.PumpVDE, f.PumpVNDE),
				Axial:      bv(f.PumpADE, f.PumpANDE),
			},
			MotorHF: domain.HFReading{Overall: f.HFMotorDE},
			PumpHF:  domain.HFReading{Overall: f.HFPumpDE},
		},
		Electrical: domain.ElectricalReadings{
			VoltageR:  f.VoltageR,
			VoltageS:  f.VoltageS,
			VoltageT:  f.VoltageT,
			CurrentR:  f.CurrentR,
			CurrentS:  f.CurrentS,
			CurrentT:  f.CurrentT,
			ActualRPM: f.ActualRPM,
		},
		Hydraulic: domain.HydraulicReadings{
			SuctionPressure:         f.SuctionPressure,
			DischargePressure:       f.DischargePressure,
			ActualFlow:              f.ActualFlow,
			DischargeFluctuationPct: f.DischargeFluct,
		},
		Thermal: domain.ThermalReadings{
			MotorDE:  f.TempMotorDE,
			MotorNDE: f.TempMotorNDE,
			PumpDE:   f.TempPumpDE,
			PumpNDE:  f.TempPumpNDE,
			Ambient:  f.AmbientTemp,
		},
		Advanced: domain.AdvancedReadings{
			PhaseInstabilityDeg: f.PhaseInstability,
			MotorDEDemod:        f.DemodMotorDE,
			PumpDEDemod:         f.DemodPumpDE,
			DisplacementPeakUM:  f.DisplacementPeak,
			CoastDownVelocity:   f.CoastDown,
		},
		Fluid: domain.FluidOverrides{
			Density:      f.FluidDensity,
			VaporHead:    f.VaporHead,
			FrictionHead: f.FrictionHead,
		},
		RecordedAt: f.RecordedAt,
	}
}
