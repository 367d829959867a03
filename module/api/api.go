package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/config"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/core"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/domain"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/infra/log"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/module/ingest"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/module/intake"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/module/report"
	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/utils/slice"
)

const maxBodyBytes = 10 << 20

// Server 提供 HTTP 入口：同步诊断、测量记录投递、诊断查询与报告。
type Server struct {
	cfgManager   *config.ConfigManager
	pipeline     *ingest.Pipeline
	registry     *intake.Registry
	repo         core.DiagnosisRepository
	reports      core.ReportCache // 可为 nil
	measurements core.KafkaProducer
	metrics      http.Handler
	router       *gin.Engine
	httpServer   *http.Server
}

func New(
	cfgManager *config.ConfigManager,
	pipeline *ingest.Pipeline,
	registry *intake.Registry,
	repo core.DiagnosisRepository,
	reports core.ReportCache,
	measurements core.KafkaProducer,
	metrics http.Handler,
) *Server {
	s := &Server{
		cfgManager:   cfgManager,
		pipeline:     pipeline,
		registry:     registry,
		repo:         repo,
		reports:      reports,
		measurements: measurements,
		metrics:      metrics,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	if s.metrics != nil {
		engine.GET("/metrics", gin.WrapH(s.metrics))
	}

	v1 := engine.Group("/api/itops-pump-diagnosis").Group("/v1")
	{
		v1.POST("/diagnoses", s.postDiagnosis)
		v1.POST("/measurements", s.postMeasurement)
		v1.GET("/diagnoses/info/:diagnosis_ids", s.queryDiagnoses)
		v1.GET("/diagnoses/:diagnosis_id/report", s.getReport)
	}
	return engine
}

// Start 启动 HTTP Server，ctx 结束时优雅关闭。
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfgManager.GetConfig().API.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// Stop 优雅关闭 HTTP 服务。
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) readBody(c *gin.Context) ([]byte, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "读取请求失败"})
		return nil, false
	}
	if len(body) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求体不能为空"})
		return nil, false
	}
	return body, true
}

// postDiagnosis 同步诊断并入库，默认按 flat 格式解析，可用 ?format= 指定。
func (s *Server) postDiagnosis(c *gin.Context) {
	body, ok := s.readBody(c)
	if !ok {
		return
	}

	std, err := s.registry.Get(c.DefaultQuery("format", intake.FormatFlat))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rec, err := std.Standardize(c.Request.Context(), body)
	if err != nil {
		writeError(c, err)
		return
	}

	doc, err := s.pipeline.Diagnose(c.Request.Context(), domain.SourceAPI, rec)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// postMeasurement 投递到测量记录 topic，异步诊断。
func (s *Server) postMeasurement(c *gin.Context) {
	body, ok := s.readBody(c)
	if !ok {
		return
	}
	if s.measurements == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "kafka producer 未配置"})
		return
	}

	key := c.Query("asset_id")
	log.Debugw("收到测量记录", "asset_id", key, "bytes", len(body))
	if err := s.measurements.Publish(c.Request.Context(), key, body); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("写入 Kafka 失败: %v", err)})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted", "asset_id": key})
}

func (s *Server) queryDiagnoses(c *gin.Context) {
	ids, err := slice.ParseUint64List(c.Param("diagnosis_ids"))
	if err != nil || len(ids) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "diagnosis_ids 参数格式错误"})
		return
	}

	items, err := s.repo.QueryByIDs(c.Request.Context(), ids)
	if err != nil {
		writeError(c, err)
		return
	}
	if items == nil {
		items = []domain.DiagnosisDocument{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// getReport 渲染报告，命中缓存时直接返回。
func (s *Server) getReport(c *gin.Context) {
	id, err := cast.ToUint64E(c.Param("diagnosis_id"))
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "diagnosis_id 必须是有效的数字"})
		return
	}
	format := c.DefaultQuery("format", report.FormatText)
	contentType := report.ContentType(format)
	if contentType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("不支持的报告格式: %s", format)})
		return
	}

	ctx := c.Request.Context()
	if s.reports != nil {
		body, hit, err := s.reports.GetReport(ctx, id, format)
		if err != nil {
			log.Warnf("读取报告缓存失败: %v", err)
		} else if hit {
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, contentType, body)
			return
		}
	}

	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	body, _, err := report.Render(*doc, format)
	if err != nil {
		writeError(c, err)
		return
	}

	if s.reports != nil {
		ttl := s.cfgManager.GetConfig().AppConfig.Report.CacheTTL
		if err := s.reports.SetReport(ctx, id, format, body, ttl); err != nil {
			log.Warnf("写入报告缓存失败: %v", err)
		}
	}
	c.Header("X-Cache", "MISS")
	c.Data(http.StatusOK, contentType, body)
}

// writeError 无效输入 400，记录不存在 404，其余 500
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidMeasurement):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrDiagnosisNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		log.Errorf("请求处理失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
