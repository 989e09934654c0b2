package bundle

import (
	"fmt"
	"strings"

	"github.com/rushteam/stresskit/core"
	"github.com/rushteam/stresskit/feature"
	"github.com/rushteam/stresskit/model"
)

// Preprocessor 是拟合好的预处理器参数：数值列标准化 + 类别列独热编码。
type Preprocessor struct {
	Scaler *feature.StandardScaler `json:"scaler"`
	OneHot *feature.OneHotEncoder  `json:"onehot"`
}

// Bundle 是模型制品：分类器、拟合预处理器、标签编码器与训练期统计量，
// 作为一个不可变单元一次性加载。
//
// 设计原则：
//   - 单一结构体加载：任何命名组件缺失都在加载期原子性失败，
//     绝不推迟到首次使用时才暴露
//   - 加载后只读：由服务门面独占持有，生命周期与进程一致
//   - 九个顶层键与训练导出格式一一对应
type Bundle struct {
	// Model 是训练好的随机森林分类器
	Model *model.RandomForest `json:"model"`
	// Preprocessor 是拟合好的列变换器参数
	Preprocessor *Preprocessor `json:"preprocessor"`
	// LabelEncoder 是目标标签编码器（类别按字典序）
	LabelEncoder *feature.LabelEncoder `json:"label_encoder"`
	// TrainMedians 是各数值列的训练中位数
	TrainMedians map[string]float64 `json:"train_medians"`
	// TrainMeans 是各数值列的训练均值
	TrainMeans map[string]float64 `json:"train_means"`
	// OutlierColumns 是训练时按 IQR 判定为重尾的数值列
	OutlierColumns []string `json:"numerical_cols_outliers"`
	// NumericFeatures 是数值特征列名（训练顺序）
	NumericFeatures []string `json:"numerical_features"`
	// CategoricalFeatures 是类别特征列名（训练顺序）
	CategoricalFeatures []string `json:"categorical_features"`
	// FeatureNames 是最终列顺序（final_feature_order）
	FeatureNames []string `json:"feature_names"`
}

// Validate 原子性校验制品结构：先检查所有命名组件是否齐备
// （一次性报出全部缺失项），再做组件间的一致性交叉检查。
func (b *Bundle) Validate() error {
	var missing []string
	if b.Model == nil {
		missing = append(missing, "model")
	}
	if b.Preprocessor == nil || b.Preprocessor.Scaler == nil || b.Preprocessor.OneHot == nil {
		missing = append(missing, "preprocessor")
	}
	if b.LabelEncoder == nil || len(b.LabelEncoder.Classes) == 0 {
		missing = append(missing, "label_encoder")
	}
	if b.TrainMedians == nil {
		missing = append(missing, "train_medians")
	}
	if b.TrainMeans == nil {
		missing = append(missing, "train_means")
	}
	if b.OutlierColumns == nil {
		missing = append(missing, "numerical_cols_outliers")
	}
	if len(b.NumericFeatures) == 0 {
		missing = append(missing, "numerical_features")
	}
	if b.CategoricalFeatures == nil {
		missing = append(missing, "categorical_features")
	}
	if len(b.FeatureNames) == 0 {
		missing = append(missing, "feature_names")
	}
	if len(missing) > 0 {
		return core.NewSchemaMismatchError(core.ModuleBundle,
			fmt.Sprintf("bundle: missing components: %s", strings.Join(missing, ", ")))
	}

	if err := b.Model.Validate(); err != nil {
		return err
	}
	if len(b.LabelEncoder.Classes) != b.Model.NumClasses() {
		return core.NewSchemaMismatchError(core.ModuleBundle,
			fmt.Sprintf("bundle: label encoder has %d classes, model expects %d",
				len(b.LabelEncoder.Classes), b.Model.NumClasses()))
	}

	// 变换后向量宽度 = 数值列数 + 各类别列的 (基数-1)，必须等于模型期望宽度
	width := len(b.NumericFeatures)
	for _, col := range b.CategoricalFeatures {
		w := b.Preprocessor.OneHot.Width(col)
		if w <= 0 {
			return core.NewSchemaMismatchError(core.ModuleBundle,
				fmt.Sprintf("bundle: one-hot categories missing for column %q", col))
		}
		width += w
	}
	if width != b.Model.NumFeatures() {
		return core.NewSchemaMismatchError(core.ModuleBundle,
			fmt.Sprintf("bundle: transformed width %d does not match model feature count %d",
				width, b.Model.NumFeatures()))
	}

	return nil
}

// NormalizerParams 导出归一化器所需的统计量与列元数据。
func (b *Bundle) NormalizerParams() feature.NormalizerParams {
	return feature.NormalizerParams{
		Medians:             b.TrainMedians,
		Means:               b.TrainMeans,
		OutlierColumns:      b.OutlierColumns,
		NumericFeatures:     b.NumericFeatures,
		CategoricalFeatures: b.CategoricalFeatures,
		FeatureOrder:        b.FeatureNames,
	}
}

// Descriptor 导出模型自省信息。
// FeatureCount 是模型输入的原始特征数（变换前），与自省接口的语义一致。
func (b *Bundle) Descriptor() *core.ModelDescriptor {
	return &core.ModelDescriptor{
		ModelType:           b.Model.Name(),
		NumTrees:            b.Model.NumTrees(),
		MaxDepth:            b.Model.MaxDepth(),
		FeatureCount:        len(b.FeatureNames),
		FeatureNames:        b.FeatureNames,
		TargetClasses:       b.LabelEncoder.Classes,
		NumericFeatures:     b.NumericFeatures,
		CategoricalFeatures: b.CategoricalFeatures,
	}
}
