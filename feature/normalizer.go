package feature

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rushteam/stresskit/core"
)

// UnknownCategory 是类别特征缺失时的填充哨兵值（与训练时一致）。
const UnknownCategory = "Unknown"

// ClampColumns 列出负值截断为 0 的列：针对计数/时长类字段的脏数据，
// 不适用于合法负值字段（end_of_month_balance 不截断）。
var ClampColumns = []string{
	core.FieldNumSavingsAccounts,
	core.FieldAvgLoanDelayDays,
}

// ParseCreditAge 解析 "N y. M m." 形式的信用历史时长字符串，返回总月数 N*12+M。
// 无法解析时返回 MALFORMED_INPUT 错误，调用方按缺失值处理（绝不折算为 0）。
func ParseCreditAge(s string) (float64, error) {
	cleaned := strings.ReplaceAll(s, " y.", "")
	cleaned = strings.ReplaceAll(cleaned, " m.", "")
	parts := strings.Split(cleaned, " ")
	if len(parts) < 2 {
		return 0, core.NewMalformedInputError(core.ModuleFeature,
			fmt.Sprintf("feature: unparsable credit age %q", s))
	}
	years, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, core.NewMalformedInputError(core.ModuleFeature,
			fmt.Sprintf("feature: unparsable credit age %q", s))
	}
	months, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, core.NewMalformedInputError(core.ModuleFeature,
			fmt.Sprintf("feature: unparsable credit age %q", s))
	}
	return float64(years*12 + months), nil
}

// NormalizerParams 是构造归一化器所需的训练期统计量与列元数据，
// 全部来自模型制品，推理时只读。
type NormalizerParams struct {
	// Medians 是各数值列的训练中位数（重尾列的填充值）
	Medians map[string]float64
	// Means 是各数值列的训练均值（非重尾列的填充值）
	Means map[string]float64
	// OutlierColumns 是训练时按 IQR 判定为重尾的数值列
	OutlierColumns []string
	// NumericFeatures 是数值特征列名（训练顺序）
	NumericFeatures []string
	// CategoricalFeatures 是类别特征列名（训练顺序）
	CategoricalFeatures []string
	// FeatureOrder 是最终列顺序（final_feature_order）
	FeatureOrder []string
}

// Normalizer 将原始记录归一化为拟合变换器期望的精确列布局与取值。
//
// 处理步骤（顺序固定，后续步骤依赖前序派生列）：
//  1. 信用历史时长转换："N y. M m." → N*12+M 月，原始字符串列丢弃
//  2. 负值修正：ClampColumns 中的列负值截断为 0
//  3. 缺失填充：数值列按重尾与否取训练中位数/均值，类别列填 "Unknown"；
//     越界值按缺失处理后再填充
//  4. 列投影与排序：丢弃 worker_id 等元数据列，按 FeatureOrder 排列，
//     任何声明列缺失视为 SCHEMA_MISMATCH
//
// 重尾判定与填充统计量在训练时冻结，归一化器自身从不做判定、
// 也从不用请求批次重新计算统计量。
type Normalizer struct {
	medians     map[string]float64
	means       map[string]float64
	outliers    map[string]struct{}
	numeric     []string
	categorical []string
	order       []string
	monitor     *Monitor
}

// NewNormalizer 创建归一化器，并校验统计量对声明列的覆盖完整性。
// 任何数值列缺少中位数或均值、或 FeatureOrder 与列集合不一致，
// 都是制品级 SCHEMA_MISMATCH（在构造期暴露，不推迟到首次预测）。
func NewNormalizer(p NormalizerParams) (*Normalizer, error) {
	if len(p.FeatureOrder) == 0 {
		return nil, core.NewSchemaMismatchError(core.ModuleFeature,
			"feature: empty feature order")
	}
	if len(p.FeatureOrder) != len(p.NumericFeatures)+len(p.CategoricalFeatures) {
		return nil, core.NewSchemaMismatchError(core.ModuleFeature, fmt.Sprintf(
			"feature: feature order has %d columns, expected %d numeric + %d categorical",
			len(p.FeatureOrder), len(p.NumericFeatures), len(p.CategoricalFeatures)))
	}

	numericSet := make(map[string]struct{}, len(p.NumericFeatures))
	for _, col := range p.NumericFeatures {
		if _, ok := p.Medians[col]; !ok {
			return nil, core.NewSchemaMismatchError(core.ModuleFeature,
				fmt.Sprintf("feature: missing training median for column %q", col))
		}
		if _, ok := p.Means[col]; !ok {
			return nil, core.NewSchemaMismatchError(core.ModuleFeature,
				fmt.Sprintf("feature: missing training mean for column %q", col))
		}
		numericSet[col] = struct{}{}
	}
	categoricalSet := make(map[string]struct{}, len(p.CategoricalFeatures))
	for _, col := range p.CategoricalFeatures {
		categoricalSet[col] = struct{}{}
	}
	for _, col := range p.FeatureOrder {
		_, isNum := numericSet[col]
		_, isCat := categoricalSet[col]
		if !isNum && !isCat {
			return nil, core.NewSchemaMismatchError(core.ModuleFeature,
				fmt.Sprintf("feature: column %q in feature order is neither numeric nor categorical", col))
		}
	}

	outliers := make(map[string]struct{}, len(p.OutlierColumns))
	for _, col := range p.OutlierColumns {
		outliers[col] = struct{}{}
	}

	return &Normalizer{
		medians:     p.Medians,
		means:       p.Means,
		outliers:    outliers,
		numeric:     p.NumericFeatures,
		categorical: p.CategoricalFeatures,
		order:       p.FeatureOrder,
	}, nil
}

// WithMonitor 挂接归一化监控（可选），记录填充/截断/畸形值计数。
func (n *Normalizer) WithMonitor(m *Monitor) *Normalizer {
	n.monitor = m
	return n
}

// FeatureOrder 返回最终列顺序（只读）。
func (n *Normalizer) FeatureOrder() []string {
	return n.order
}

// Normalize 归一化单条记录。
// 对已齐备的记录是恒等变换（幂等）：不改动任何已有取值。
func (n *Normalizer) Normalize(record *core.WorkerRecord) (*core.NormalizedRecord, error) {
	if record == nil {
		return nil, core.NewInvalidInputError(core.ModuleFeature, "feature: nil record")
	}

	numeric := record.NumericValues()
	categorical := record.CategoricalValues()

	// 步骤 1：信用历史时长转换（解析失败按缺失处理，绝不落 0）
	if raw, ok := record.CreditAge(); ok {
		if months, err := ParseCreditAge(raw); err != nil {
			n.monitor.recordMalformed(core.FieldCreditAgeMonths)
		} else {
			numeric[core.FieldCreditAgeMonthsNumeric] = months
		}
	}

	// 步骤 2：指定列的负值截断
	for _, col := range ClampColumns {
		if v, ok := numeric[col]; ok && v < 0 {
			numeric[col] = 0
			n.monitor.recordClamped(col)
		}
	}

	// 越界值按缺失处理（MALFORMED_INPUT 策略），交给步骤 3 填充
	for col, v := range numeric {
		if r, ok := core.NumericFieldRanges[col]; ok && !r.Contains(v) {
			delete(numeric, col)
			n.monitor.recordOutOfRange(col)
		}
	}

	// 步骤 3：缺失填充（重尾列取中位数，其余取均值；类别列填 Unknown）
	for _, col := range n.numeric {
		if _, ok := numeric[col]; ok {
			continue
		}
		if _, heavy := n.outliers[col]; heavy {
			numeric[col] = n.medians[col]
		} else {
			numeric[col] = n.means[col]
		}
		n.monitor.recordImputed(col)
	}
	for _, col := range n.categorical {
		if _, ok := categorical[col]; !ok {
			categorical[col] = UnknownCategory
			n.monitor.recordImputed(col)
		}
	}

	// 步骤 4：列投影与排序（多余列丢弃，声明列缺失为 SCHEMA_MISMATCH）
	outNumeric := make(map[string]float64, len(n.numeric))
	outCategorical := make(map[string]string, len(n.categorical))
	for _, col := range n.order {
		if v, ok := numeric[col]; ok {
			outNumeric[col] = v
			continue
		}
		if v, ok := categorical[col]; ok {
			outCategorical[col] = v
			continue
		}
		return nil, core.NewSchemaMismatchError(core.ModuleFeature,
			fmt.Sprintf("feature: column %q missing after normalization", col))
	}

	return &core.NormalizedRecord{
		Columns:     n.order,
		Numeric:     outNumeric,
		Categorical: outCategorical,
	}, nil
}

// NormalizeAll 归一化一批记录，结果与输入一一对应。
// 任何一行失败则整批失败，错误信息携带行号。
func (n *Normalizer) NormalizeAll(records []*core.WorkerRecord) ([]*core.NormalizedRecord, error) {
	out := make([]*core.NormalizedRecord, len(records))
	for i, record := range records {
		normalized, err := n.Normalize(record)
		if err != nil {
			return nil, fmt.Errorf("feature: row %d: %w", i, err)
		}
		out[i] = normalized
	}
	return out, nil
}
