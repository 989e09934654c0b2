// Package predictor 实现推理服务门面：负责制品生命周期与单条/批量预测。
//
// 设计原则：
//   - 加载一次、只读共享：Load 成功后所有组件不再变更，
//     预测调用无锁并发执行，状态字用原子量保护
//   - 预测路径零 I/O：归一化、变换、推理全部为纯内存计算
//   - 失败即终态：加载失败后进入 Failed，本进程内不自动重试
//
// 使用场景：
//   - server 包通过 core.Predictor 接口消费
//   - 库内嵌调用（无 HTTP 进程）直接构造 Service
package predictor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/rushteam/stresskit/bundle"
	"github.com/rushteam/stresskit/core"
	"github.com/rushteam/stresskit/feature"
	"github.com/rushteam/stresskit/model"
)

// DefaultBatchConcurrency 批量推理的默认并发 worker 数
const DefaultBatchConcurrency = 8

// Service 是 core.Predictor 的标准实现。
type Service struct {
	loader      bundle.Loader
	source      string
	logger      zerolog.Logger
	monitor     *feature.Monitor
	concurrency int

	state   atomic.Int32
	loadMu  sync.Mutex
	loadErr error

	// 以下字段在 Load 成功后只读
	bundle      *bundle.Bundle
	normalizer  *feature.Normalizer
	transformer *feature.Transformer
	classifier  model.Classifier
	labels      *feature.LabelEncoder
}

var _ core.Predictor = (*Service)(nil)

// Option 服务门面选项
type Option func(*Service)

// WithLogger 注入日志器（默认丢弃日志）
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMonitor 注入特征质量监控器（记录填补 / 截断 / 越界计数）
func WithMonitor(m *feature.Monitor) Option {
	return func(s *Service) {
		s.monitor = m
	}
}

// WithBatchConcurrency 设置批量推理并发数（<=0 时退化为串行）
func WithBatchConcurrency(n int) Option {
	return func(s *Service) {
		s.concurrency = n
	}
}

// New 创建推理服务门面。
// loader 决定制品来源（本地文件 / HTTP），source 是其定位串。
func New(loader bundle.Loader, source string, opts ...Option) *Service {
	s := &Service{
		loader:      loader,
		source:      source,
		logger:      zerolog.Nop(),
		monitor:     feature.NewMonitor(),
		concurrency: DefaultBatchConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load 加载并组装模型制品。
//
// 状态机：Unloaded → Loading → Ready | Failed。
// 已 Ready 时幂等返回 nil；已 Failed 时重复返回首次失败错误。
func (s *Service) Load(ctx context.Context) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	switch core.ServiceState(s.state.Load()) {
	case core.StateReady:
		return nil
	case core.StateFailed:
		return s.loadErr
	}

	s.state.Store(int32(core.StateLoading))

	b, err := s.loader.Load(ctx, s.source)
	if err != nil {
		return s.fail(fmt.Errorf("predictor: load bundle: %w", err))
	}

	normalizer, err := feature.NewNormalizer(b.NormalizerParams())
	if err != nil {
		return s.fail(fmt.Errorf("predictor: build normalizer: %w", err))
	}
	normalizer = normalizer.WithMonitor(s.monitor)

	transformer, err := feature.NewTransformer(
		b.Preprocessor.Scaler,
		b.Preprocessor.OneHot,
		b.NumericFeatures,
		b.CategoricalFeatures,
	)
	if err != nil {
		return s.fail(fmt.Errorf("predictor: build transformer: %w", err))
	}

	s.bundle = b
	s.normalizer = normalizer
	s.transformer = transformer
	s.classifier = b.Model
	s.labels = b.LabelEncoder
	s.state.Store(int32(core.StateReady))

	s.logger.Info().
		Str("source", s.source).
		Str("model", b.Model.Name()).
		Int("trees", b.Model.NumTrees()).
		Int("input_features", len(b.FeatureNames)).
		Int("transformed_width", transformer.OutputWidth()).
		Strs("classes", b.LabelEncoder.Classes).
		Msg("model bundle loaded")
	return nil
}

// fail 记录首次加载错误并迁移到 Failed 终态。
func (s *Service) fail(err error) error {
	s.loadErr = err
	s.state.Store(int32(core.StateFailed))
	s.logger.Error().Err(err).Str("source", s.source).Msg("model bundle load failed")
	return err
}

// State 返回当前生命周期状态。
func (s *Service) State() core.ServiceState {
	return core.ServiceState(s.state.Load())
}

// Ready 仅在一次完整成功的加载之后返回 true。
func (s *Service) Ready() bool {
	return s.State() == core.StateReady
}

// PredictOne 对单条记录执行完整推理链路：归一化 → 变换 → 前向 → 解码。
func (s *Service) PredictOne(ctx context.Context, record *core.WorkerRecord) (*core.PredictionResult, error) {
	if !s.Ready() {
		return nil, core.NewNotReadyError(core.ModulePredictor, "model not loaded")
	}
	return s.predict(ctx, record)
}

// predict 是单条推理的内部实现，单条与批量共用以保证两条路径结果一致。
// 调用方必须已确认 Ready。
func (s *Service) predict(ctx context.Context, record *core.WorkerRecord) (*core.PredictionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if record == nil {
		return nil, core.NewInvalidInputError(core.ModulePredictor, "nil record")
	}

	normalized, err := s.normalizer.Normalize(record)
	if err != nil {
		return nil, err
	}

	vector, err := s.transformer.Transform(normalized)
	if err != nil {
		return nil, err
	}

	probs, err := s.classifier.PredictProba(vector)
	if err != nil {
		return nil, err
	}

	best := argmax(probs)
	label, ok := s.labels.Decode(best)
	if !ok {
		return nil, core.NewDomainError(core.ModulePredictor, core.ErrorCodeInternalError,
			fmt.Sprintf("class index %d out of label range", best))
	}

	probabilities := make(map[string]float64, len(probs))
	for i, class := range s.labels.Classes {
		probabilities[class] = probs[i]
	}

	return &core.PredictionResult{
		WorkerID:       record.ID(),
		PredictedLabel: label,
		Probabilities:  probabilities,
	}, nil
}

// Describe 返回模型自省信息。
func (s *Service) Describe() (*core.ModelDescriptor, error) {
	if !s.Ready() {
		return nil, core.NewNotReadyError(core.ModulePredictor, "model not loaded")
	}
	return s.bundle.Descriptor(), nil
}

// Stats 返回特征质量计数快照（按列聚合的填补 / 截断 / 越界 / 非法值计数）。
func (s *Service) Stats() []feature.ColumnStats {
	return s.monitor.Snapshot()
}

// Close 释放资源。当前实现全部为内存组件，无需清理。
func (s *Service) Close() error {
	return nil
}

// argmax 返回最大值下标；并列时取下标最小者。
func argmax(p []float64) int {
	best := 0
	for i := 1; i < len(p); i++ {
		if p[i] > p[best] {
			best = i
		}
	}
	return best
}
