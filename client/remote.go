package client

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rushteam/stresskit/core"
)

// Remote 把远端推理服务适配为 core.Predictor，
// 调用方可以在进程内模型与远端服务之间无缝切换。
//
// 与进程内实现的生命周期语义差异：模型由远端进程加载，
// Load 在这里只是一次可达性探测，失败不是终态，允许重试；
// State 反映最近一次探测的观测结果。
type Remote struct {
	client *Client
	state  atomic.Int32
}

// NewRemote 用已有客户端构造远端门面。
func NewRemote(client *Client) *Remote {
	return &Remote{client: client}
}

// Load 探测远端服务：可达且模型已加载视为就绪。
func (r *Remote) Load(ctx context.Context) error {
	health, err := r.client.Health(ctx)
	if err != nil {
		r.state.Store(int32(core.StateFailed))
		return core.NewLoadFailureError(core.ModuleClient,
			fmt.Sprintf("client: probe remote service: %v", err))
	}
	if !health.ModelLoaded {
		r.state.Store(int32(core.StateLoading))
		return core.NewNotReadyError(core.ModuleClient,
			fmt.Sprintf("client: remote service is %s", health.Status))
	}
	r.state.Store(int32(core.StateReady))
	return nil
}

// Ready 报告最近一次探测是否观测到就绪。
func (r *Remote) Ready() bool {
	return r.State() == core.StateReady
}

// State 返回最近一次探测观测到的状态。
func (r *Remote) State() core.ServiceState {
	return core.ServiceState(r.state.Load())
}

// PredictOne 把单条预测转发给远端；远端错误还原为 DomainError。
func (r *Remote) PredictOne(ctx context.Context, record *core.WorkerRecord) (*core.PredictionResult, error) {
	return r.client.Predict(ctx, record)
}

// PredictMany 把批量预测转发给远端。空批不发起请求，与进程内实现保持一致。
func (r *Remote) PredictMany(ctx context.Context, records []*core.WorkerRecord) ([]*core.PredictionResult, error) {
	if len(records) == 0 {
		return nil, nil
	}
	return r.client.PredictBatch(ctx, records)
}

// Describe 返回远端模型的自省信息。
func (r *Remote) Describe() (*core.ModelDescriptor, error) {
	return r.client.ModelInfo(context.Background())
}

// Close 无资源可释放。
func (r *Remote) Close() error { return nil }

var _ core.Predictor = (*Remote)(nil)
