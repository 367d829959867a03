package slice

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// AppendUnique 元素已存在时不追加
func AppendUnique[T comparable](list []T, v T) []T {
	for _, item := range list {
		if item == v {
			return list
		}
	}
	return append(list, v)
}

// ParseUint64List 解析逗号分隔的 ID 列表，去重并保持顺序；空段忽略，非法值报错。
func ParseUint64List(value string) ([]uint64, error) {
	var result []uint64
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := cast.ToUint64E(part)
		if err != nil || id == 0 {
			return nil, errors.Errorf("非法 ID: %q", part)
		}
		result = AppendUnique(result, id)
	}
	return result, nil
}
