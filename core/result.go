package core

// 压力等级标签（与训练标签一致；LabelEncoder 按字典序编码：High=0, Low=1, Moderate=2）
const (
	StressLow      = "Low"
	StressModerate = "Moderate"
	StressHigh     = "High"
)

// PredictionResult 是一次推理的结构化输出。
//
// Probabilities 的 key 集合恒等于标签编码器的类别集合（不随单次结果变化），
// 下游可以依赖稳定的 key 集。encoding/json 对 map 按 key 字典序输出，
// 与 LabelEncoder 的字典序类别一致。
type PredictionResult struct {
	// WorkerID 回显请求中的 worker_id，未提供时为空
	WorkerID string `json:"worker_id,omitempty"`
	// PredictedLabel 是预测的压力等级（Low / Moderate / High）
	PredictedLabel string `json:"predicted_stress_level"`
	// Probabilities 是各类别的概率，和为 1（浮点容差内）
	Probabilities map[string]float64 `json:"prediction_probabilities"`
}

// ModelDescriptor 描述已加载的模型：用于自省接口，不参与预测。
// 字段名与模型信息接口的响应体一致。
type ModelDescriptor struct {
	ModelType           string   `json:"model_type"`
	NumTrees            int      `json:"n_estimators"`
	MaxDepth            int      `json:"max_depth"`
	FeatureCount        int      `json:"n_features"`
	FeatureNames        []string `json:"feature_names"`
	TargetClasses       []string `json:"target_classes"`
	NumericFeatures     []string `json:"numerical_features"`
	CategoricalFeatures []string `json:"categorical_features"`
}
