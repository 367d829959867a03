package intake

import (
	"reflect"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/domain"
)

var timeType = reflect.TypeOf(time.Time{})

// decodeObject 把载荷解析为 JSON 对象
func decodeObject(payload []byte) (map[string]any, error) {
	var m map[string]any
	if err := sonic.Unmarshal(payload, &m); err != nil {
		return nil, errors.Wrapf(domain.ErrInvalidMeasurement, "载荷不是合法 JSON 对象: %v", err)
	}
	if m == nil {
		return nil, errors.Wrap(domain.ErrInvalidMeasurement, "载荷为空")
	}
	return m, nil
}

// timeHook 时间字段兼容 RFC3339 字符串与 Unix 秒
func timeHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != timeType {
		return data, nil
	}
	if _, ok := data.(time.Time); ok {
		return data, nil
	}
	if f, ok := data.(float64); ok {
		data = int64(f)
	}
	t, err := cast.ToTimeE(data)
	if err != nil {
		return nil, errors.Wrapf(err, "无法解析时间 %v", data)
	}
	return t, nil
}

// numberHook 数值字段只接受数字或数字字符串，空串与布尔值不能静默变成 0/1
func numberHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.Float64 {
		return data, nil
	}
	return toNumber(data)
}

// toNumber 严格数值转换
func toNumber(v any) (float64, error) {
	switch x := v.(type) {
	case bool:
		return 0, errors.Errorf("布尔值 %v 不是数值", x)
	case string:
		if strings.TrimSpace(x) == "" {
			return 0, errors.New("空字符串不是数值")
		}
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, errors.Errorf("%v 不是数值", v)
	}
	return f, nil
}

// decodeInto 弱类型解码，数值可以是字符串
func decodeInto(input any, out any, tagName string) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.ComposeDecodeHookFunc(timeHook, numberHook),
		WeaklyTypedInput: true,
		TagName:          tagName,
		Result:           out,
	})
	if err != nil {
		return errors.Wrap(err, "创建解码器失败")
	}
	if err := dec.Decode(input); err != nil {
		return errors.Wrapf(domain.ErrInvalidMeasurement, "字段类型错误: %v", err)
	}
	return nil
}

// present 键存在且不为 null
func present(m map[string]any, key string) bool {
	v, ok := m[key]
	return ok && v != nil
}
