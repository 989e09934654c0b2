// Package stresskit 是零工经济从业者财务压力的推理服务工具包（Stress Kit）。
//
// 设计要点：
// - 门面优先: 预测逻辑统一经过 Predictor 门面（加载 → 归一化 → 向量化 → 推理 → 解码）
// - 制品即模型: 训练产物序列化为单个 JSON 制品，加载时原子校验全部组件
// - 预测路径零 I/O: 请求自带全部特征，缺失值只用制品内的训练统计量填充
package stresskit

import "github.com/rushteam/stresskit/core"

// 轻量 facade：便于用户直接 import "stresskit" 使用核心抽象。
type Predictor = core.Predictor
type WorkerRecord = core.WorkerRecord
type PredictionResult = core.PredictionResult
type ModelDescriptor = core.ModelDescriptor
type HistoryStore = core.HistoryStore
type HistoryEntry = core.HistoryEntry
type DomainError = core.DomainError

const (
	StressLow      = core.StressLow
	StressModerate = core.StressModerate
	StressHigh     = core.StressHigh
)

// Version 是对外报告的服务版本。
const Version = "1.0.0"
