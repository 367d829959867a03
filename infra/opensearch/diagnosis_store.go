package opensearch

import (
	"context"
	"net/http"
	"time"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/domain"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/infra/log"
	opensearchsdk "github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// DiagnosisStore 负责 itops_pump_diagnosis 索引。
type DiagnosisStore struct {
	client *opensearchsdk.Client
}

// diagnosisDocument 包装 DiagnosisDocument 并补充索引所需的公共字段。
type diagnosisDocument struct {
	domain.DiagnosisDocument
	Timestamp  time.Time `json:"@timestamp"`
	WriteTime  time.Time `json:"__write_time"`
	DataType   string    `json:"__data_type"`
	IndexBase  string    `json:"__index_base"`
	Category   string    `json:"category"`
	ReportType string    `json:"report_type"`
	RiskLevel  string    `json:"risk_level,omitempty"`
	ID         string    `json:"__id"`
}

func NewDiagnosisStore(client *opensearchsdk.Client) *DiagnosisStore {
	return &DiagnosisStore{client: client}
}

// Upsert 以 diagnosis_id 为文档 ID 写入。报告类型与风险等级冗余到顶层，便于看板聚合。
func (s *DiagnosisStore) Upsert(ctx context.Context, doc domain.DiagnosisDocument) error {
	defer func(start time.Time) {
		log.Debugw("OpenSearch",
			"operation", "DiagnosisStore.Upsert",
			"index", DiagnosisIndex,
			"document_id", doc.DiagnosisID,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}(time.Now())

	if s.client == nil {
		return errors.New("opensearch client 未初始化")
	}
	if doc.DiagnosisID == 0 {
		return errors.New("diagnosis_id 不能为空")
	}

	ts := doc.RecordedAt
	if ts.IsZero() {
		ts = doc.CreateTime
	}
	wrapped := diagnosisDocument{
		DiagnosisDocument: doc,
		Timestamp:         ts,
		WriteTime:         time.Now().Local(),
		DataType:          DiagnosisIndexBase,
		IndexBase:         DiagnosisIndexBase,
		Category:          "diagnosis",
		ReportType:        string(doc.Result.ReportType),
		ID:                cast.ToString(doc.DiagnosisID),
	}
	if doc.Result.Risk != nil {
		wrapped.RiskLevel = string(doc.Result.Risk.RiskLevel)
	}

	body, err := encodeBody(wrapped)
	if err != nil {
		return err
	}
	req := opensearchapi.IndexRequest{
		Index:      DiagnosisIndex,
		DocumentID: wrapped.ID,
		Body:       body,
		Refresh:    "wait_for",
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return errors.Wrap(err, "写入诊断记录失败")
	}
	defer func() {
		_ = res.Body.Close()
	}()
	if res.IsError() {
		return readErrorResponse(res.Body)
	}
	return nil
}

// QueryByIDs 批量查询，不存在的 ID 被忽略。
func (s *DiagnosisStore) QueryByIDs(ctx context.Context, ids []uint64) ([]domain.DiagnosisDocument, error) {
	defer func(start time.Time) {
		log.Debugw("OpenSearch",
			"operation", "DiagnosisStore.QueryByIDs",
			"index", DiagnosisIndex,
			"ids_count", len(ids),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}(time.Now())

	if s.client == nil {
		return nil, errors.New("opensearch client 未初始化")
	}
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > maxQuerySize {
		return nil, errors.Errorf("单次最多查询 %d 条诊断记录", maxQuerySize)
	}

	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = cast.ToString(id)
	}
	body, err := encodeBody(map[string]any{"ids": strIDs})
	if err != nil {
		return nil, err
	}
	req := opensearchapi.MgetRequest{
		Index: DiagnosisIndex,
		Body:  body,
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, errors.Wrap(err, "查询诊断记录失败")
	}
	defer func() {
		_ = res.Body.Close()
	}()
	if res.IsError() {
		return nil, readErrorResponse(res.Body)
	}
	data, err := readResponseBody(res.Body)
	if err != nil {
		return nil, err
	}
	return decodeMGet[domain.DiagnosisDocument](data)
}

// GetByID 查询单条诊断记录，不存在时返回 domain.ErrDiagnosisNotFound。
func (s *DiagnosisStore) GetByID(ctx context.Context, id uint64) (*domain.DiagnosisDocument, error) {
	if s.client == nil {
		return nil, errors.New("opensearch client 未初始化")
	}

	req := opensearchapi.GetRequest{
		Index:      DiagnosisIndex,
		DocumentID: cast.ToString(id),
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, errors.Wrap(err, "查询诊断记录失败")
	}
	defer func() {
		_ = res.Body.Close()
	}()
	if res.StatusCode == http.StatusNotFound {
		return nil, errors.Wrapf(domain.ErrDiagnosisNotFound, "diagnosis_id=%d", id)
	}
	if res.IsError() {
		return nil, readErrorResponse(res.Body)
	}
	data, err := readResponseBody(res.Body)
	if err != nil {
		return nil, err
	}
	doc, err := decodeGet[domain.DiagnosisDocument](data)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errors.Wrapf(domain.ErrDiagnosisNotFound, "diagnosis_id=%d", id)
	}
	return doc, nil
}
