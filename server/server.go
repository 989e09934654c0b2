// Package server 提供推理服务的 HTTP 接口层。
//
// 设计原则：
//   - 只依赖 core.Predictor / core.HistoryStore 接口，不依赖具体实现
//   - 边界校验（字段区间、批量大小）在进入门面之前完成
//   - 留痕写入与实时推送在响应之后异步进行，绝不阻塞预测路径
//
// 路由：
//
//	GET  /                    服务概览
//	GET  /health              健康检查
//	GET  /model/info          模型自省
//	GET  /model/stats         归一化计数快照
//	GET  /predictions/recent  最近预测
//	GET  /predictions/latest  某 worker 最近一次预测
//	GET  /predictions/live    实时推送（WebSocket）
//	POST /predict             单条预测
//	POST /predict_batch       批量预测
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/rushteam/stresskit/core"
	"github.com/rushteam/stresskit/pkg/rules"
)

const (
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 30 * time.Second

	// historyWriteTimeout 限制异步留痕写入的耗时
	historyWriteTimeout = 5 * time.Second
)

// Server 是 HTTP 服务，组合门面、留痕存储、边界校验与实时推送。
type Server struct {
	engine    *gin.Engine
	predictor core.Predictor
	history   core.HistoryStore
	rules     *rules.Engine
	hub       *hub
	logger    zerolog.Logger
	version   string
	origins   []string

	readTimeout  time.Duration
	writeTimeout time.Duration
	srv          *http.Server
}

// Option 配置 Server。
type Option func(*Server)

// WithLogger 设置日志器。
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithHistory 设置留痕存储；未设置时最近预测接口返回空列表。
func WithHistory(history core.HistoryStore) Option {
	return func(s *Server) { s.history = history }
}

// WithRules 设置边界校验引擎；未设置时跳过字段区间校验。
func WithRules(engine *rules.Engine) Option {
	return func(s *Server) { s.rules = engine }
}

// WithVersion 设置对外展示的服务版本号。
func WithVersion(version string) Option {
	return func(s *Server) { s.version = version }
}

// WithCORSOrigins 设置允许的跨域来源，默认允许所有来源。
func WithCORSOrigins(origins ...string) Option {
	return func(s *Server) { s.origins = origins }
}

// WithTimeouts 设置 HTTP 读写超时。
func WithTimeouts(read, write time.Duration) Option {
	return func(s *Server) {
		s.readTimeout = read
		s.writeTimeout = write
	}
}

// New 创建 HTTP 服务。predictor 必须非 nil，此时即注册全部路由。
func New(predictor core.Predictor, opts ...Option) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		engine:       gin.New(),
		predictor:    predictor,
		logger:       zerolog.Nop(),
		version:      "dev",
		readTimeout:  defaultReadTimeout,
		writeTimeout: defaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.hub = newHub(s.logger)
	go s.hub.run()

	s.engine.Use(
		gin.Recovery(),
		requestID(),
		accessLog(s.logger),
		cors(s.origins),
	)
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/", s.handleRoot)
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/model/info", s.handleModelInfo)
	s.engine.GET("/model/stats", s.handleModelStats)
	s.engine.GET("/predictions/recent", s.handleRecent)
	s.engine.GET("/predictions/latest", s.handleLatest)
	s.engine.GET("/predictions/live", s.handleLive)
	s.engine.POST("/predict", s.handlePredict)
	s.engine.POST("/predict_batch", s.handlePredictBatch)
}

// Handler 返回底层 http.Handler，便于测试与嵌入。
func (s *Server) Handler() http.Handler { return s.engine }

// Start 监听 addr 并阻塞服务，正常关闭时返回 nil。
func (s *Server) Start(addr string) error {
	s.srv = &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
	}
	s.logger.Info().Str("addr", addr).Msg("server: listening")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 优雅关闭：停止实时推送并等待在途请求完成。
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.stop()
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
