package feature

import (
	"fmt"

	"github.com/rushteam/stresskit/core"
)

// StandardScaler 是拟合好的 Z-score 标准化器。
// 公式: z = (x - mean) / scale
// 参数在训练时拟合；scale 非正（零方差列）时仅做中心化。
type StandardScaler struct {
	// Mean 是各数值列的训练均值
	Mean map[string]float64 `json:"mean"`
	// Scale 是各数值列的训练标准差
	Scale map[string]float64 `json:"scale"`
}

// NewStandardScaler 创建标准化器
func NewStandardScaler(mean, scale map[string]float64) *StandardScaler {
	return &StandardScaler{Mean: mean, Scale: scale}
}

// Transform 标准化单个值（指定列名）。
func (s *StandardScaler) Transform(key string, value float64) float64 {
	mean := s.Mean[key]
	scale := s.Scale[key]
	if scale > 0 {
		return (value - mean) / scale
	}
	return value - mean
}

// Transformer 是拟合好的列变换器：数值列标准化 + 类别列独热编码，
// 输出固定宽度的稠密特征向量。
//
// 输出布局（与训练时的列变换器一致）：
//   - 先是数值列的标准化值（按 numeric 列表顺序）
//   - 再是各类别列的独热块（按 categorical 列表顺序）
//
// 参数全部来自制品，推理时只读、从不重新拟合：
// 类别基数与缩放参数在训练时已固化，重新拟合会悄然改变输出含义。
type Transformer struct {
	scaler      *StandardScaler
	onehot      *OneHotEncoder
	numeric     []string
	categorical []string
	width       int
}

// NewTransformer 创建列变换器，并校验参数对声明列的覆盖完整性。
func NewTransformer(scaler *StandardScaler, onehot *OneHotEncoder, numeric, categorical []string) (*Transformer, error) {
	if scaler == nil {
		return nil, core.NewSchemaMismatchError(core.ModuleFeature, "feature: nil scaler")
	}
	if onehot == nil {
		return nil, core.NewSchemaMismatchError(core.ModuleFeature, "feature: nil one-hot encoder")
	}
	for _, col := range numeric {
		if _, ok := scaler.Mean[col]; !ok {
			return nil, core.NewSchemaMismatchError(core.ModuleFeature,
				fmt.Sprintf("feature: scaler missing mean for column %q", col))
		}
		if _, ok := scaler.Scale[col]; !ok {
			return nil, core.NewSchemaMismatchError(core.ModuleFeature,
				fmt.Sprintf("feature: scaler missing scale for column %q", col))
		}
	}
	width := len(numeric)
	for _, col := range categorical {
		w := onehot.Width(col)
		if w <= 0 {
			return nil, core.NewSchemaMismatchError(core.ModuleFeature,
				fmt.Sprintf("feature: one-hot encoder missing categories for column %q", col))
		}
		width += w
	}
	return &Transformer{
		scaler:      scaler,
		onehot:      onehot,
		numeric:     numeric,
		categorical: categorical,
		width:       width,
	}, nil
}

// OutputWidth 返回输出向量的固定宽度。
func (t *Transformer) OutputWidth() int {
	return t.width
}

// Transform 将归一化记录变换为稠密特征向量。
// 记录必须已经过 Normalizer 处理（列齐备）；缺列是 SCHEMA_MISMATCH。
func (t *Transformer) Transform(record *core.NormalizedRecord) ([]float64, error) {
	if record == nil {
		return nil, core.NewInvalidInputError(core.ModuleFeature, "feature: nil normalized record")
	}

	out := make([]float64, 0, t.width)
	for _, col := range t.numeric {
		v, ok := record.Numeric[col]
		if !ok {
			return nil, core.NewSchemaMismatchError(core.ModuleFeature,
				fmt.Sprintf("feature: numeric column %q missing in normalized record", col))
		}
		out = append(out, t.scaler.Transform(col, v))
	}
	for _, col := range t.categorical {
		v, ok := record.Categorical[col]
		if !ok {
			return nil, core.NewSchemaMismatchError(core.ModuleFeature,
				fmt.Sprintf("feature: categorical column %q missing in normalized record", col))
		}
		out = append(out, t.onehot.Encode(col, v)...)
	}
	return out, nil
}

// TransformAll 批量变换，结果与输入一一对应。
func (t *Transformer) TransformAll(records []*core.NormalizedRecord) ([][]float64, error) {
	out := make([][]float64, len(records))
	for i, record := range records {
		vec, err := t.Transform(record)
		if err != nil {
			return nil, fmt.Errorf("feature: row %d: %w", i, err)
		}
		out[i] = vec
	}
	return out, nil
}
