package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rushteam/stresskit/core"
	"github.com/rushteam/stresskit/feature"
)

const (
	// DefaultRecentLimit 是最近预测接口的默认条数。
	DefaultRecentLimit = 20
	// MaxRecentLimit 是最近预测接口的单次上限。
	MaxRecentLimit = 200
)

// 响应体定义（字段名即对外 JSON 契约）

type rootResponse struct {
	Service       string   `json:"service"`
	Version       string   `json:"version"`
	Status        string   `json:"status"`
	ModelType     string   `json:"model_type,omitempty"`
	FeatureCount  int      `json:"n_features,omitempty"`
	TargetClasses []string `json:"target_classes,omitempty"`
}

type healthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
}

type batchRequest struct {
	Workers []*core.WorkerRecord `json:"workers"`
}

type batchResponse struct {
	Predictions []*core.PredictionResult `json:"predictions"`
	Count       int                      `json:"count"`
}

type recentResponse struct {
	Predictions []*core.HistoryEntry `json:"predictions"`
	Count       int                  `json:"count"`
}

type statsResponse struct {
	Columns []feature.ColumnStats `json:"columns"`
	Count   int                   `json:"count"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// statsProvider 由暴露归一化计数的门面实现（可选能力）。
type statsProvider interface {
	Stats() []feature.ColumnStats
}

func (s *Server) handleRoot(c *gin.Context) {
	resp := rootResponse{
		Service: "stresskit",
		Version: s.version,
		Status:  s.predictor.State().String(),
	}
	if desc, err := s.predictor.Describe(); err == nil {
		resp.ModelType = desc.ModelType
		resp.FeatureCount = desc.FeatureCount
		resp.TargetClasses = desc.TargetClasses
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleHealth(c *gin.Context) {
	if !s.predictor.Ready() {
		c.JSON(http.StatusServiceUnavailable, healthResponse{
			Status:      s.predictor.State().String(),
			ModelLoaded: false,
		})
		return
	}
	c.JSON(http.StatusOK, healthResponse{Status: "healthy", ModelLoaded: true})
}

func (s *Server) handleModelInfo(c *gin.Context) {
	desc, err := s.predictor.Describe()
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, desc)
}

func (s *Server) handleModelStats(c *gin.Context) {
	p, ok := s.predictor.(statsProvider)
	if !ok {
		s.writeError(c, core.NewDomainError(core.ModuleServer,
			core.ErrorCodeNotSupported, "server: facade does not expose feature stats"))
		return
	}
	columns := p.Stats()
	if columns == nil {
		columns = []feature.ColumnStats{}
	}
	c.JSON(http.StatusOK, statsResponse{Columns: columns, Count: len(columns)})
}

func (s *Server) handlePredict(c *gin.Context) {
	var record core.WorkerRecord
	if err := c.ShouldBindJSON(&record); err != nil {
		s.writeError(c, core.NewMalformedInputError(core.ModuleServer,
			"server: malformed request body: "+err.Error()))
		return
	}
	if s.rules != nil {
		if err := s.rules.ValidateRecord(&record); err != nil {
			s.writeError(c, err)
			return
		}
	}

	result, err := s.predictor.PredictOne(c.Request.Context(), &record)
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.recordPrediction(result)
	c.JSON(http.StatusOK, result)
}

func (s *Server) handlePredictBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, core.NewMalformedInputError(core.ModuleServer,
			"server: malformed request body: "+err.Error()))
		return
	}
	if s.rules != nil {
		if err := s.rules.ValidateBatchSize(len(req.Workers)); err != nil {
			s.writeError(c, err)
			return
		}
		for i, record := range req.Workers {
			if err := s.rules.ValidateRecord(record); err != nil {
				s.writeError(c, core.NewInvalidInputError(core.ModuleServer,
					"server: row "+strconv.Itoa(i)+": "+err.Error()))
				return
			}
		}
	}

	results, err := s.predictor.PredictMany(c.Request.Context(), req.Workers)
	if err != nil {
		s.writeError(c, err)
		return
	}

	for _, result := range results {
		s.recordPrediction(result)
	}
	c.JSON(http.StatusOK, batchResponse{Predictions: results, Count: len(results)})
}

func (s *Server) handleRecent(c *gin.Context) {
	limit := DefaultRecentLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.writeError(c, core.NewInvalidInputError(core.ModuleServer,
				"server: limit must be a positive integer"))
			return
		}
		limit = n
	}
	if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}

	entries := []*core.HistoryEntry{}
	if s.history != nil {
		got, err := s.history.Recent(c.Request.Context(), limit)
		if err != nil {
			s.writeError(c, err)
			return
		}
		if got != nil {
			entries = got
		}
	}
	c.JSON(http.StatusOK, recentResponse{Predictions: entries, Count: len(entries)})
}

func (s *Server) handleLatest(c *gin.Context) {
	workerID := c.Query("worker_id")
	if workerID == "" {
		s.writeError(c, core.NewInvalidInputError(core.ModuleServer,
			"server: worker_id is required"))
		return
	}
	if s.history == nil {
		s.writeError(c, core.ErrStoreNotFound)
		return
	}

	entry, err := s.history.Latest(c.Request.Context(), workerID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (s *Server) handleLive(c *gin.Context) {
	s.hub.handle(c.Writer, c.Request)
}

// recordPrediction 在响应路径之外留痕并推送：
// 推送对落后的订阅者直接丢弃，存储写入带超时异步执行。
func (s *Server) recordPrediction(result *core.PredictionResult) {
	entry := &core.HistoryEntry{
		ID:        uuid.NewString(),
		Result:    result,
		CreatedAt: time.Now().UTC(),
	}

	if payload, err := json.Marshal(entry); err == nil {
		s.hub.broadcast(payload)
	}

	if s.history == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), historyWriteTimeout)
		defer cancel()
		if err := s.history.Append(ctx, entry); err != nil {
			s.logger.Warn().Err(err).Str("entry_id", entry.ID).
				Msg("server: history append failed")
		}
	}()
}

// writeError 把领域错误映射为 HTTP 状态码并输出统一错误体。
func (s *Server) writeError(c *gin.Context, err error) {
	code := core.ErrorCodeInternalError
	if domainErr := core.GetDomainError(err); domainErr != nil {
		code = domainErr.Code
	}
	c.AbortWithStatusJSON(statusFor(code), errorResponse{Code: code, Message: err.Error()})
}

func statusFor(code string) int {
	switch code {
	case core.ErrorCodeNotReady, core.ErrorCodeUnavailable:
		return http.StatusServiceUnavailable
	case core.ErrorCodeInvalidInput, core.ErrorCodeMalformedInput:
		return http.StatusBadRequest
	case core.ErrorCodeNotFound:
		return http.StatusNotFound
	case core.ErrorCodeNotSupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
