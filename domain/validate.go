package domain

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	va := validator.New()
	if err := va.RegisterValidation("foundation", FoundationValidation); err != nil {
		panic(err)
	}
	va.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return va
}

// FoundationValidation 校验基础类型取值
func FoundationValidation(fl validator.FieldLevel) bool {
	switch Foundation(fl.Field().String()) {
	case FoundationRigid, FoundationFlexible:
		return true
	}
	return false
}

// Validate 校验记录是否满足物理约束：读数非负且不超过量程上限，转速/功率/FLC/BEP 流量为正，至少一个频谱峰值。
func (r MeasurementRecord) Validate() error {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return errors.Wrap(ErrInvalidMeasurement, describeValidation(verrs))
		}
		return errors.Wrap(ErrInvalidMeasurement, err.Error())
	}
	if len(r.Spectrum.Primary()) == 0 {
		return errors.Wrap(ErrInvalidMeasurement, "缺少频谱峰值")
	}
	return nil
}

func describeValidation(verrs validator.ValidationErrors) string {
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		// Namespace 形如 MeasurementRecord.asset.rated_rpm，去掉根类型名
		field := fe.Namespace()
		if idx := strings.Index(field, "."); idx >= 0 {
			field = field[idx+1:]
		}
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s 不满足 %s=%s（当前值 %v）", field, fe.Tag(), fe.Param(), fe.Value()))
		} else {
			parts = append(parts, fmt.Sprintf("%s 不满足 %s（当前值 %v）", field, fe.Tag(), fe.Value()))
		}
	}
	return strings.Join(parts, "; ")
}
