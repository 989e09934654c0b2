package feature

import (
	"sort"
	"sync"
)

// ColumnStats 是单列的归一化计数快照。
type ColumnStats struct {
	Column     string `json:"column"`
	Imputed    int64  `json:"imputed"`      // 缺失后按训练统计量填充的次数
	Clamped    int64  `json:"clamped"`      // 负值截断为 0 的次数
	OutOfRange int64  `json:"out_of_range"` // 越界按缺失处理的次数
	Malformed  int64  `json:"malformed"`    // 无法解析按缺失处理的次数
}

// Monitor 是归一化监控：按列累计填充、截断、越界、畸形值次数。
// 用于观察线上输入质量漂移（填充率飙升通常意味着上游字段改名或丢失）。
// 生产环境可以对接 Prometheus 等外部监控系统，这里保留内存实现。
type Monitor struct {
	mu    sync.RWMutex
	stats map[string]*ColumnStats
}

// NewMonitor 创建归一化监控。
func NewMonitor() *Monitor {
	return &Monitor{stats: make(map[string]*ColumnStats)}
}

func (m *Monitor) column(name string) *ColumnStats {
	s, ok := m.stats[name]
	if !ok {
		s = &ColumnStats{Column: name}
		m.stats[name] = s
	}
	return s
}

func (m *Monitor) recordImputed(column string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.column(column).Imputed++
	m.mu.Unlock()
}

func (m *Monitor) recordClamped(column string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.column(column).Clamped++
	m.mu.Unlock()
}

func (m *Monitor) recordOutOfRange(column string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.column(column).OutOfRange++
	m.mu.Unlock()
}

func (m *Monitor) recordMalformed(column string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.column(column).Malformed++
	m.mu.Unlock()
}

// Snapshot 返回所有列的计数副本，按列名排序。
func (m *Monitor) Snapshot() []ColumnStats {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]ColumnStats, 0, len(m.stats))
	for _, s := range m.stats {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Column < out[j].Column })
	return out
}

// ColumnSnapshot 返回单列的计数副本，未出现过的列返回零值。
func (m *Monitor) ColumnSnapshot(column string) ColumnStats {
	if m == nil {
		return ColumnStats{Column: column}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if s, ok := m.stats[column]; ok {
		return *s
	}
	return ColumnStats{Column: column}
}
