package domain

import "github.com/pkg/errors"

var (
	// ErrInvalidMeasurement 测量记录缺项或违反物理约束，诊断不能继续。
	ErrInvalidMeasurement = errors.New("测量记录无效")
	// ErrDiagnosisNotFound 诊断文档不存在。
	ErrDiagnosisNotFound = errors.New("诊断记录不存在")
)
