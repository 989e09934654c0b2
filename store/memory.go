package store

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rushteam/stresskit/core"
)

// DefaultCapacity 是留痕缓冲的默认容量。
const DefaultCapacity = 1000

// MemoryHistory 是内存实现的 HistoryStore，用于测试/开发/单机部署。
// 进程重启后数据丢失。
//
// 结构：
//   - 环形缓冲保存最近 capacity 条记录（整体时间序）
//   - LRU 缓存保存每个 worker 最近一次的预测（按 worker 查询不用扫缓冲）
//
// 二者独立淘汰：worker 的最新记录被环形缓冲挤出后仍可按 worker 查到，
// 直到 LRU 容量满。
type MemoryHistory struct {
	mu     sync.RWMutex
	ring   []*core.HistoryEntry
	next   int // 下一个写入下标
	count  int // 已写入条数，<= len(ring)
	latest *lru.Cache[string, *core.HistoryEntry]
}

func NewMemoryHistory(capacity int) *MemoryHistory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	latest, _ := lru.New[string, *core.HistoryEntry](capacity)
	return &MemoryHistory{
		ring:   make([]*core.HistoryEntry, capacity),
		latest: latest,
	}
}

func (m *MemoryHistory) Name() string { return "memory" }

func (m *MemoryHistory) Append(ctx context.Context, entry *core.HistoryEntry) error {
	if entry == nil {
		return core.NewInvalidInputError(core.ModuleStore, "store: nil history entry")
	}

	m.mu.Lock()
	m.ring[m.next] = entry
	m.next = (m.next + 1) % len(m.ring)
	if m.count < len(m.ring) {
		m.count++
	}
	m.mu.Unlock()

	if entry.Result != nil && entry.Result.WorkerID != "" {
		m.latest.Add(entry.Result.WorkerID, entry)
	}
	return nil
}

func (m *MemoryHistory) Recent(ctx context.Context, limit int) ([]*core.HistoryEntry, error) {
	if limit <= 0 {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	n := m.count
	if limit < n {
		n = limit
	}
	result := make([]*core.HistoryEntry, 0, n)
	// 新者在前：从最后写入位倒序遍历
	for i := 0; i < n; i++ {
		idx := (m.next - 1 - i + len(m.ring)) % len(m.ring)
		result = append(result, m.ring[idx])
	}
	return result, nil
}

func (m *MemoryHistory) Latest(ctx context.Context, workerID string) (*core.HistoryEntry, error) {
	if workerID == "" {
		return nil, core.ErrStoreNotFound
	}
	entry, ok := m.latest.Get(workerID)
	if !ok {
		return nil, core.ErrStoreNotFound
	}
	return entry, nil
}

func (m *MemoryHistory) Close() error { return nil }

// 确保 MemoryHistory 实现了 core.HistoryStore 接口
var _ core.HistoryStore = (*MemoryHistory)(nil)
