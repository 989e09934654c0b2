package core

import (
	"context"
	"time"
)

// HistoryEntry 是一条已完成预测的留痕记录，用于最近预测接口与实时推送。
type HistoryEntry struct {
	// ID 是本次预测的唯一标识
	ID string `json:"id"`
	// Result 是预测输出
	Result *PredictionResult `json:"result"`
	// CreatedAt 是预测完成时间
	CreatedAt time.Time `json:"created_at"`
}

// HistoryStore 是预测留痕存储的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - 写入发生在预测路径之外（异步），任何实现都不得阻塞预测响应
//   - 容量有界：超出容量时淘汰最旧记录
//
// 实现：
//   - store.MemoryHistory 实现此接口（环形缓冲 + LRU）
//   - store.RedisHistory 实现此接口（LPUSH + LTRIM）
type HistoryStore interface {
	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// Append 追加一条留痕记录，超容量时淘汰最旧的
	Append(ctx context.Context, entry *HistoryEntry) error

	// Recent 返回最近的 limit 条记录，新者在前
	Recent(ctx context.Context, limit int) ([]*HistoryEntry, error)

	// Latest 返回某 worker 最近一次的预测，不存在时返回 ErrStoreNotFound
	Latest(ctx context.Context, workerID string) (*HistoryEntry, error)

	// Close 关闭连接/释放资源
	Close() error
}

// Store 错误定义（使用统一的 DomainError）
var (
	// ErrStoreNotFound 表示记录不存在
	ErrStoreNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: entry not found")

	// ErrStoreNotSupported 表示操作不支持
	ErrStoreNotSupported = NewDomainError(ModuleStore, ErrorCodeNotSupported, "store: operation not supported")
)

// IsStoreNotFound 检查错误是否为记录不存在（使用统一的错误检查）
func IsStoreNotFound(err error) bool {
	if err == nil {
		return false
	}
	domainErr := GetDomainError(err)
	if domainErr != nil && domainErr.Module == ModuleStore {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}
