package feature

// OneHotEncoder 是拟合好的 One-Hot 编码器（独热编码）。
// 类别表在训练时拟合，推理时只读复用。
//
// 语义与训练侧保持一致：
//   - drop=first：每列的第一个类别不占维度（全零表示）
//   - handle_unknown=ignore：未知类别编码为全零
//   - 每列输出维度 = len(categories) - 1
type OneHotEncoder struct {
	// Categories 是每个特征名对应的类别列表（训练时的顺序，已排序）
	Categories map[string][]string `json:"categories"`
	// Drop 是丢弃策略（目前只支持 "first"）
	Drop string `json:"drop"`
	// HandleUnknown 是未知类别策略（目前只支持 "ignore"）
	HandleUnknown string `json:"handle_unknown"`
}

// NewOneHotEncoder 创建 One-Hot 编码器（drop=first, handle_unknown=ignore）
func NewOneHotEncoder(categories map[string][]string) *OneHotEncoder {
	return &OneHotEncoder{
		Categories:    categories,
		Drop:          "first",
		HandleUnknown: "ignore",
	}
}

// Width 返回某列的输出维度（len(categories)-1，列不存在时为 0）。
func (e *OneHotEncoder) Width(key string) int {
	categories, ok := e.Categories[key]
	if !ok || len(categories) == 0 {
		return 0
	}
	return len(categories) - 1
}

// Encode 编码单个值（指定特征名），返回该列的稠密向量。
// 第一个类别与未知类别均为全零向量，二者在模型侧不可区分，
// 这是训练时 drop=first + handle_unknown=ignore 组合的既有行为。
func (e *OneHotEncoder) Encode(key, value string) []float64 {
	categories, ok := e.Categories[key]
	if !ok || len(categories) == 0 {
		return nil
	}

	out := make([]float64, len(categories)-1)
	for i, cat := range categories {
		if cat != value {
			continue
		}
		if i == 0 {
			break // drop=first：首类别全零
		}
		out[i-1] = 1.0
		break
	}
	return out
}

// LabelEncoder 是拟合好的目标标签编码器。
// Classes 按字典序排列（训练时 fit 的既有顺序），
// 整数类别索引 i 对应 Classes[i]。
type LabelEncoder struct {
	Classes []string `json:"classes"`
}

// NewLabelEncoder 创建标签编码器
func NewLabelEncoder(classes []string) *LabelEncoder {
	return &LabelEncoder{Classes: classes}
}

// Decode 将类别索引还原为标签字符串，越界时返回空串与 false。
func (e *LabelEncoder) Decode(index int) (string, bool) {
	if index < 0 || index >= len(e.Classes) {
		return "", false
	}
	return e.Classes[index], true
}

// Encode 将标签字符串映射为类别索引，未知标签返回 -1 与 false。
func (e *LabelEncoder) Encode(label string) (int, bool) {
	for i, c := range e.Classes {
		if c == label {
			return i, true
		}
	}
	return -1, false
}
