package config

import (
	"fmt"

	"github.com/rushteam/stresskit/core"
	"github.com/rushteam/stresskit/store"
)

func init() {
	RegisterHistoryBackend(BackendMemory, func(cfg HistoryConfig) (core.HistoryStore, error) {
		return store.NewMemoryHistory(cfg.Capacity), nil
	})
	RegisterHistoryBackend(BackendRedis, func(cfg HistoryConfig) (core.HistoryStore, error) {
		history, err := store.NewRedisHistory(cfg.RedisAddr, cfg.RedisDB, cfg.Capacity)
		if err != nil {
			return nil, fmt.Errorf("config: connect redis history: %w", err)
		}
		return history, nil
	})
}

// NewHistoryStore 按配置构建留痕存储后端。
func NewHistoryStore(cfg HistoryConfig) (core.HistoryStore, error) {
	builder, ok := lookupHistoryBuilder(cfg.Backend)
	if !ok {
		return nil, fmt.Errorf("config: history backend %q is not supported (supported: %v)",
			cfg.Backend, SupportedHistoryBackends())
	}
	return builder(cfg)
}
