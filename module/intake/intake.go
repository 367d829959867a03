package intake

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/domain"
)

// 载荷格式
const (
	FormatFlat       = "flat"
	FormatStructured = "structured"
)

// Standardizer 把采集端载荷转换为通过校验的测量记录
type Standardizer interface {
	Standardize(ctx context.Context, payload []byte) (domain.MeasurementRecord, error)
}

// Registry 按载荷格式查找 Standardizer
type Registry struct {
	standardizers map[string]Standardizer
}

func NewRegistry() *Registry {
	return &Registry{
		standardizers: map[string]Standardizer{
			FormatFlat:       NewFlatStandardizer(),
			FormatStructured: NewStructuredStandardizer(),
		},
	}
}

// Register 注册或覆盖某个格式
func (r *Registry) Register(format string, s Standardizer) {
	r.standardizers[format] = s
}

func (r *Registry) Get(format string) (Standardizer, error) {
	s, ok := r.standardizers[format]
	if !ok {
		return nil, errors.Errorf("不支持的载荷格式: %s", format)
	}
	return s, nil
}

// Formats 返回已注册的格式，按名称排序
func (r *Registry) Formats() []string {
	formats := make([]string, 0, len(r.standardizers))
	for f := range r.standardizers {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}
