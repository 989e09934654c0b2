package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rushteam/stresskit/core"
)

// keyPrefix 是本服务在 Redis 中的命名空间。
const keyPrefix = "stresskit:history"

// RedisHistory 是 Redis 实现的 HistoryStore，多实例部署时共享留痕。
// 生产环境常用，支持持久化、集群、哨兵等。
//
// 键布局：
//   - stresskit:history:recent          LIST，LPUSH + LTRIM 保持容量
//   - stresskit:history:latest:<worker> STRING，该 worker 最近一次预测
type RedisHistory struct {
	client   *redis.Client
	capacity int64
}

func NewRedisHistory(addr string, db int, capacity int) (*RedisHistory, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &RedisHistory{client: client, capacity: int64(capacity)}, nil
}

func (r *RedisHistory) Name() string { return "redis" }

func (r *RedisHistory) Append(ctx context.Context, entry *core.HistoryEntry) error {
	if entry == nil {
		return core.NewInvalidInputError(core.ModuleStore, "store: nil history entry")
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("store: marshal history entry: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.LPush(ctx, recentKey(), payload)
	pipe.LTrim(ctx, recentKey(), 0, r.capacity-1)
	if entry.Result != nil && entry.Result.WorkerID != "" {
		pipe.Set(ctx, latestKey(entry.Result.WorkerID), payload, 0)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisHistory) Recent(ctx context.Context, limit int) ([]*core.HistoryEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	vals, err := r.client.LRange(ctx, recentKey(), 0, int64(limit)-1).Result()
	if err != nil {
		return nil, err
	}

	result := make([]*core.HistoryEntry, 0, len(vals))
	for _, v := range vals {
		var entry core.HistoryEntry
		if err := json.Unmarshal([]byte(v), &entry); err != nil {
			return nil, fmt.Errorf("store: unmarshal history entry: %w", err)
		}
		result = append(result, &entry)
	}
	return result, nil
}

func (r *RedisHistory) Latest(ctx context.Context, workerID string) (*core.HistoryEntry, error) {
	if workerID == "" {
		return nil, core.ErrStoreNotFound
	}
	val, err := r.client.Get(ctx, latestKey(workerID)).Bytes()
	if err == redis.Nil {
		return nil, core.ErrStoreNotFound
	}
	if err != nil {
		return nil, err
	}

	var entry core.HistoryEntry
	if err := json.Unmarshal(val, &entry); err != nil {
		return nil, fmt.Errorf("store: unmarshal history entry: %w", err)
	}
	return &entry, nil
}

func (r *RedisHistory) Close() error {
	return r.client.Close()
}

func recentKey() string { return keyPrefix + ":recent" }

func latestKey(workerID string) string { return keyPrefix + ":latest:" + workerID }

// 确保 RedisHistory 实现了 core.HistoryStore 接口
var _ core.HistoryStore = (*RedisHistory)(nil)
