package core

import "context"

// ServiceState 是服务门面的生命周期状态。
//
// 状态机：Unloaded → Loading → Ready（成功）
// 或：    Unloaded → Loading → Failed（致命，不再迁移、不自动重试）
type ServiceState int32

const (
	StateUnloaded ServiceState = iota // 尚未开始加载
	StateLoading                      // 正在加载制品
	StateReady                        // 加载成功，可服务
	StateFailed                       // 加载失败，本进程内永久不可用
)

// String 返回状态名（用于日志与健康检查）。
func (s ServiceState) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Predictor 是推理服务门面的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（predictor）实现
//   - 遵循依赖倒置原则：HTTP 层只依赖此接口
//   - 制品加载一次后只读，预测调用无锁并发安全
//
// 使用场景：
//   - HTTP 服务的单条 / 批量预测
//   - 库内嵌调用（无服务器进程）
type Predictor interface {
	// Load 加载模型制品；只允许成功一次，失败后进入 Failed 终态
	Load(ctx context.Context) error

	// Ready 仅在一次完整成功的加载之后返回 true
	Ready() bool

	// State 返回当前生命周期状态
	State() ServiceState

	// PredictOne 对单条记录推理；未就绪时返回 NOT_READY 错误
	PredictOne(ctx context.Context, record *WorkerRecord) (*PredictionResult, error)

	// PredictMany 批量推理；结果与输入一一对应且顺序一致，
	// 任何一行归一化失败则整批失败（不静默跳行）
	PredictMany(ctx context.Context, records []*WorkerRecord) ([]*PredictionResult, error)

	// Describe 返回模型自省信息；未就绪时返回 NOT_READY 错误
	Describe() (*ModelDescriptor, error)

	// Close 释放资源
	Close() error
}
