package opensearch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

// OpenSearchError 表示 OpenSearch 返回的错误响应结构。
type OpenSearchError struct {
	ErrorInfo struct {
		Type      string `json:"type"`
		Reason    string `json:"reason"`
		RootCause []struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
			Index  string `json:"index,omitempty"`
		} `json:"root_cause,omitempty"`
	} `json:"error"`
	Status int `json:"status"`
}

// Error 实现 error 接口。
func (e *OpenSearchError) Error() string {
	if e.ErrorInfo.Reason == "" {
		return fmt.Sprintf("opensearch error (status=%d)", e.Status)
	}
	if len(e.ErrorInfo.RootCause) > 0 {
		root := e.ErrorInfo.RootCause[0]
		return fmt.Sprintf("[%s] %s (root: %s - %s)", e.ErrorInfo.Type, e.ErrorInfo.Reason, root.Type, root.Reason)
	}
	return fmt.Sprintf("[%s] %s", e.ErrorInfo.Type, e.ErrorInfo.Reason)
}

// 以下结构仅用于解析 OpenSearch 响应。
type mgetResponse struct {
	Docs []getResponse `json:"docs"`
}

type getResponse struct {
	Found  bool            `json:"found"`
	Source json.RawMessage `json:"_source"`
}

func readResponseBody(body io.Reader) ([]byte, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.Wrap(err, "读取 OpenSearch 响应失败")
	}
	return data, nil
}

// formatErrorMessage 解析 OpenSearch 错误响应，非 JSON 时返回原文。
func formatErrorMessage(data []byte) error {
	if len(data) == 0 {
		return errors.New("opensearch 返回空错误响应")
	}
	var osErr OpenSearchError
	if err := sonic.Unmarshal(data, &osErr); err == nil && osErr.ErrorInfo.Reason != "" {
		return &osErr
	}
	msg := strings.TrimSpace(string(data))
	if msg == "" {
		msg = "unknown opensearch error"
	}
	return errors.New(msg)
}

// readErrorResponse 读取并解析错误响应体。
func readErrorResponse(body io.Reader) error {
	data, err := readResponseBody(body)
	if err != nil {
		return errors.Wrap(err, "读取 OpenSearch 错误响应失败")
	}
	return formatErrorMessage(data)
}

func decodeMGet[T any](data []byte) ([]T, error) {
	var resp mgetResponse
	if err := sonic.Unmarshal(data, &resp); err != nil {
		return nil, errors.Wrap(err, "解析 mget 响应失败")
	}
	items := make([]T, 0, len(resp.Docs))
	for _, doc := range resp.Docs {
		if !doc.Found || len(doc.Source) == 0 {
			continue
		}
		var item T
		if err := sonic.Unmarshal(doc.Source, &item); err != nil {
			return nil, errors.Wrap(err, "解析文档失败")
		}
		items = append(items, item)
	}
	return items, nil
}

// decodeGet 解析单文档响应，found=false 时返回 nil。
func decodeGet[T any](data []byte) (*T, error) {
	var resp getResponse
	if err := sonic.Unmarshal(data, &resp); err != nil {
		return nil, errors.Wrap(err, "解析 get 响应失败")
	}
	if !resp.Found || len(resp.Source) == 0 {
		return nil, nil
	}
	var item T
	if err := sonic.Unmarshal(resp.Source, &item); err != nil {
		return nil, errors.Wrap(err, "解析文档失败")
	}
	return &item, nil
}

func encodeBody(payload any) (*bytes.Reader, error) {
	data, err := sonic.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "序列化请求体失败")
	}
	return bytes.NewReader(data), nil
}
