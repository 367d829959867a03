package intake

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/domain"
)

// structuredRequiredPaths 嵌套载荷的必填路径
var structuredRequiredPaths = func() []string {
	paths := []string{
		"asset.motor_power_kw", "asset.rated_rpm", "asset.full_load_current",
		"asset.foundation", "asset.bep_flow", "asset.npshr",
		"vibration.motor_hf.overall", "vibration.pump_hf.overall",
		"electrical.voltage_r", "electrical.voltage_s", "electrical.voltage_t",
		"electrical.current_r", "electrical.current_s", "electrical.current_t",
		"hydraulic.suction_pressure", "hydraulic.discharge_pressure", "hydraulic.actual_flow",
		"thermal.motor_de", "thermal.motor_nde", "thermal.pump_de", "thermal.pump_nde",
	}
	for _, machine := range []string{"motor", "pump"} {
		for _, dir := range []string{"horizontal", "vertical", "axial"} {
			for _, end := range []string{"de", "nde"} {
				paths = append(paths, "vibration."+machine+"."+dir+"."+end)
			}
		}
	}
	return paths
}()

// StructuredStandardizer 处理与 MeasurementRecord 同构的嵌套 JSON
type StructuredStandardizer struct{}

func NewStructuredStandardizer() *StructuredStandardizer {
	return &StructuredStandardizer{}
}

func (s *StructuredStandardizer) Standardize(_ context.Context, payload []byte) (domain.MeasurementRecord, error) {
	m, err := decodeObject(payload)
	if err != nil {
		return domain.MeasurementRecord{}, err
	}
	return s.FromMap(m)
}

func (s *StructuredStandardizer) FromMap(m map[string]any) (domain.MeasurementRecord, error) {
	var missing []string
	for _, p := range structuredRequiredPaths {
		if !pathPresent(m, p) {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		return domain.MeasurementRecord{}, errors.Wrapf(domain.ErrInvalidMeasurement, "缺少必填字段: %s", strings.Join(missing, ", "))
	}

	var rec domain.MeasurementRecord
	if err := decodeInto(m, &rec, "json"); err != nil {
		return domain.MeasurementRecord{}, err
	}
	rec.Asset.Foundation = domain.Foundation(strings.ToLower(strings.TrimSpace(string(rec.Asset.Foundation))))

	if err := rec.Validate(); err != nil {
		return domain.MeasurementRecord{}, err
	}
	return rec, nil
}

// pathPresent 按 a.b.c 逐层查找
func pathPresent(m map[string]any, path string) bool {
	keys := strings.Split(path, ".")
	cur := m
	for i, k := range keys {
		if !present(cur, k) {
			return false
		}
		if i == len(keys)-1 {
			return true
		}
		next, ok := cur[k].(map[string]any)
		if !ok {
			return false
		}
		cur = next
	}
	return false
}
