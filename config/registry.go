package config

import (
	"sort"
	"sync"

	"github.com/rushteam/stresskit/core"
)

// HistoryBuilder 根据配置构建一种留痕存储后端。
type HistoryBuilder func(cfg HistoryConfig) (core.HistoryStore, error)

var (
	historyBuilders   = make(map[string]HistoryBuilder)
	historyBuildersMu sync.RWMutex
)

// RegisterHistoryBackend 注册一种留痕后端的构建逻辑，供 NewHistoryStore 与配置校验使用。
// 内置后端（memory / redis）由本包注册；扩展后端在组件的 init 中调用即可被配置驱动，
// 例如：func init() { config.RegisterHistoryBackend("postgres", BuildPostgresHistory) }
func RegisterHistoryBackend(name string, builder HistoryBuilder) {
	if name == "" || builder == nil {
		return
	}
	historyBuildersMu.Lock()
	defer historyBuildersMu.Unlock()
	historyBuilders[name] = builder
}

// SupportedHistoryBackends 返回当前已注册的后端名列表（排序），用于错误提示与校验。
func SupportedHistoryBackends() []string {
	historyBuildersMu.RLock()
	defer historyBuildersMu.RUnlock()
	names := make([]string, 0, len(historyBuilders))
	for name := range historyBuilders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupHistoryBuilder(name string) (HistoryBuilder, bool) {
	historyBuildersMu.RLock()
	defer historyBuildersMu.RUnlock()
	builder, ok := historyBuilders[name]
	return builder, ok
}
