package bundle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rushteam/stresskit/core"
)

// Loader 是模型制品加载器接口。
// 支持从不同来源加载制品（本地文件、HTTP 接口等）。
type Loader interface {
	// Load 加载并校验制品
	// source 是数据源标识（文件路径、URL 等）
	Load(ctx context.Context, source string) (*Bundle, error)
}

// FileLoader 本地文件制品加载器
type FileLoader struct{}

// NewFileLoader 创建本地文件制品加载器
func NewFileLoader() *FileLoader {
	return &FileLoader{}
}

// Load 从本地文件加载制品。
// 文件缺失或 JSON 损坏返回 LOAD_FAILURE；组件缺失返回 SCHEMA_MISMATCH。
func (l *FileLoader) Load(ctx context.Context, path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.NewLoadFailureError(core.ModuleBundle,
			fmt.Sprintf("bundle: read artifact %s: %v", path, err))
	}
	return decode(data)
}

// HTTPLoader HTTP 接口制品加载器
type HTTPLoader struct {
	client  *http.Client
	timeout time.Duration
}

// NewHTTPLoader 创建 HTTP 接口制品加载器
//
// 用法：
//
//	loader := bundle.NewHTTPLoader(30 * time.Second)
//	b, err := loader.Load(ctx, "http://models.example.com/stress/v1/bundle.json")
func NewHTTPLoader(timeout time.Duration) *HTTPLoader {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HTTPLoader{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// NewHTTPLoaderWithClient 使用自定义 HTTP 客户端创建加载器
func NewHTTPLoaderWithClient(client *http.Client) *HTTPLoader {
	return &HTTPLoader{
		client:  client,
		timeout: client.Timeout,
	}
}

// Load 从 HTTP 接口加载制品
func (l *HTTPLoader) Load(ctx context.Context, url string) (*Bundle, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, core.NewLoadFailureError(core.ModuleBundle,
			fmt.Sprintf("bundle: build request: %v", err))
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, core.NewLoadFailureError(core.ModuleBundle,
			fmt.Sprintf("bundle: fetch artifact: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, core.NewLoadFailureError(core.ModuleBundle,
			fmt.Sprintf("bundle: fetch artifact: status=%d, body=%s", resp.StatusCode, string(body)))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, core.NewLoadFailureError(core.ModuleBundle,
			fmt.Sprintf("bundle: read response: %v", err))
	}
	return decode(data)
}

// decode 反序列化并校验制品（所有加载器共用）。
func decode(data []byte) (*Bundle, error) {
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, core.NewLoadFailureError(core.ModuleBundle,
			fmt.Sprintf("bundle: decode artifact: %v", err))
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}
