package model

import (
	"fmt"

	"github.com/rushteam/stresskit/core"
)

// Tree 是随机森林中的一棵决策树，采用平行数组表示（与训练导出格式一致）：
//   - ChildrenLeft[i] / ChildrenRight[i] 是节点 i 的左右子节点下标，叶子为 -1
//   - Feature[i] 是节点 i 的分裂特征下标，叶子为 -2
//   - Threshold[i] 是节点 i 的分裂阈值，判定规则为 x[feature] <= threshold 走左
//   - Value[i] 是节点 i 的各类别样本计数（仅叶子参与预测）
type Tree struct {
	ChildrenLeft  []int       `json:"children_left"`
	ChildrenRight []int       `json:"children_right"`
	Feature       []int       `json:"feature"`
	Threshold     []float64   `json:"threshold"`
	Value         [][]float64 `json:"value"`
}

// RandomForest 是随机森林分类器（推理侧实现）。
//
// 预测原理：
//  1. 每棵树沿分裂规则走到叶子，叶子的类别计数归一化为该树的概率分布
//  2. 森林概率 = 所有树概率分布的算术平均
//  3. 预测类别 = 概率最大的类别索引（并列取最小索引）
//
// 工程特征：
//   - 实时性：好（本地推理，纯 CPU，无 I/O）
//   - 确定性：同一输入恒得同一输出（推理不引入随机性）
//   - 并发安全：加载后只读，可跨请求共享
type RandomForest struct {
	ModelType    string `json:"model_type"`
	TreeCount    int    `json:"n_estimators"`
	Depth        int    `json:"max_depth"`
	ClassCount   int    `json:"n_classes"`
	FeatureCount int    `json:"n_features"`
	Trees        []Tree `json:"trees"`
}

var _ Classifier = (*RandomForest)(nil)

func (f *RandomForest) Name() string {
	if f.ModelType != "" {
		return f.ModelType
	}
	return "RandomForestClassifier"
}

// NumClasses 返回类别数
func (f *RandomForest) NumClasses() int { return f.ClassCount }

// NumFeatures 返回期望的特征向量宽度
func (f *RandomForest) NumFeatures() int { return f.FeatureCount }

// NumTrees 返回树的数量
func (f *RandomForest) NumTrees() int { return len(f.Trees) }

// MaxDepth 返回训练时的最大深度（自省用）
func (f *RandomForest) MaxDepth() int { return f.Depth }

// Validate 校验森林结构的完整性：空森林、数组长度不一致、
// 子节点/特征下标越界都会在加载期暴露，不推迟到首次预测。
func (f *RandomForest) Validate() error {
	if len(f.Trees) == 0 {
		return core.NewSchemaMismatchError(core.ModuleModel, "model: forest has no trees")
	}
	if f.TreeCount != 0 && f.TreeCount != len(f.Trees) {
		return core.NewSchemaMismatchError(core.ModuleModel,
			fmt.Sprintf("model: declared %d trees, found %d", f.TreeCount, len(f.Trees)))
	}
	if f.ClassCount <= 0 {
		return core.NewSchemaMismatchError(core.ModuleModel, "model: non-positive class count")
	}
	if f.FeatureCount <= 0 {
		return core.NewSchemaMismatchError(core.ModuleModel, "model: non-positive feature count")
	}
	for ti := range f.Trees {
		t := &f.Trees[ti]
		n := len(t.ChildrenLeft)
		if n == 0 {
			return core.NewSchemaMismatchError(core.ModuleModel,
				fmt.Sprintf("model: tree %d is empty", ti))
		}
		if len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
			return core.NewSchemaMismatchError(core.ModuleModel,
				fmt.Sprintf("model: tree %d has inconsistent node arrays", ti))
		}
		for i := 0; i < n; i++ {
			left, right := t.ChildrenLeft[i], t.ChildrenRight[i]
			if left == -1 && right == -1 {
				if len(t.Value[i]) != f.ClassCount {
					return core.NewSchemaMismatchError(core.ModuleModel,
						fmt.Sprintf("model: tree %d leaf %d has %d class counts, expected %d",
							ti, i, len(t.Value[i]), f.ClassCount))
				}
				continue
			}
			if left < 0 || left >= n || right < 0 || right >= n {
				return core.NewSchemaMismatchError(core.ModuleModel,
					fmt.Sprintf("model: tree %d node %d has child out of range", ti, i))
			}
			if t.Feature[i] < 0 || t.Feature[i] >= f.FeatureCount {
				return core.NewSchemaMismatchError(core.ModuleModel,
					fmt.Sprintf("model: tree %d node %d splits on feature %d, expected [0,%d)",
						ti, i, t.Feature[i], f.FeatureCount))
			}
		}
	}
	return nil
}

// treeProba 单棵树的概率分布：走到叶子后把类别计数归一化。
// 迭代次数以节点数为上界，防止损坏制品中的环引发死循环。
func (f *RandomForest) treeProba(t *Tree, x []float64, out []float64) error {
	node := 0
	for steps := 0; steps <= len(t.ChildrenLeft); steps++ {
		if t.ChildrenLeft[node] == -1 {
			counts := t.Value[node]
			total := 0.0
			for _, c := range counts {
				total += c
			}
			if total <= 0 {
				return core.NewSchemaMismatchError(core.ModuleModel, "model: leaf with zero sample count")
			}
			for i, c := range counts {
				out[i] = c / total
			}
			return nil
		}
		if x[t.Feature[node]] <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}
	return core.NewSchemaMismatchError(core.ModuleModel, "model: tree traversal did not reach a leaf")
}

// PredictProba 返回各类别的概率分布：所有树概率的算术平均。
func (f *RandomForest) PredictProba(x []float64) ([]float64, error) {
	if len(x) != f.FeatureCount {
		return nil, core.NewSchemaMismatchError(core.ModuleModel,
			fmt.Sprintf("model: feature vector has width %d, expected %d", len(x), f.FeatureCount))
	}

	sum := make([]float64, f.ClassCount)
	buf := make([]float64, f.ClassCount)
	for ti := range f.Trees {
		if err := f.treeProba(&f.Trees[ti], x, buf); err != nil {
			return nil, err
		}
		for i, p := range buf {
			sum[i] += p
		}
	}
	inv := 1.0 / float64(len(f.Trees))
	for i := range sum {
		sum[i] *= inv
	}
	return sum, nil
}

// Predict 返回概率最大的类别索引（并列时取最小索引）。
func (f *RandomForest) Predict(x []float64) (int, error) {
	proba, err := f.PredictProba(x)
	if err != nil {
		return 0, err
	}
	best := 0
	for i := 1; i < len(proba); i++ {
		if proba[i] > proba[best] {
			best = i
		}
	}
	return best, nil
}
