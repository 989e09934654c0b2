package model

// Classifier 是分类推理的最小抽象：输入变换后的特征向量，
// 输出各类别的概率分布。具体实现可以是本地树模型（随机森林），
// 也可以是其他概率分类器（LR/GBDT）。
type Classifier interface {
	Name() string
	NumClasses() int
	NumFeatures() int
	PredictProba(x []float64) ([]float64, error)
	Predict(x []float64) (int, error)
}
