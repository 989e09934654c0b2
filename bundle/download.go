package bundle

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Downloader 在启动期把制品文件拉到本地（仅启动期执行，预测路径上没有任何 I/O）。
type Downloader struct {
	client  *http.Client
	timeout time.Duration
}

// DownloaderOption 下载器选项
type DownloaderOption func(*Downloader)

// WithHTTPClient 使用自定义 HTTP 客户端
func WithHTTPClient(client *http.Client) DownloaderOption {
	return func(d *Downloader) {
		d.client = client
	}
}

// WithTimeout 设置下载超时（默认 5 分钟，制品文件可能较大）
func WithTimeout(timeout time.Duration) DownloaderOption {
	return func(d *Downloader) {
		d.timeout = timeout
	}
}

// NewDownloader 创建制品下载器
func NewDownloader(opts ...DownloaderOption) *Downloader {
	d := &Downloader{
		timeout: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.client == nil {
		d.client = &http.Client{Timeout: d.timeout}
	}
	return d
}

// rewriteShareURL 把网盘分享链接改写为直链。
// Dropbox 分享页参数 dl=0 表示预览页，必须改为 dl=1 才能拿到文件本体。
func rewriteShareURL(url string) string {
	if !strings.Contains(url, "dropbox.com") {
		return url
	}
	if strings.Contains(url, "dl=0") {
		return strings.Replace(url, "dl=0", "dl=1", 1)
	}
	if !strings.Contains(url, "dl=") {
		sep := "?"
		if strings.Contains(url, "?") {
			sep = "&"
		}
		return url + sep + "dl=1"
	}
	return url
}

// EnsureLocal 确保制品文件在本地就绪：
//   - 文件已存在则直接返回（不校验内容，校验交给 Loader）
//   - url 为空且文件不存在时返回 false（调用方决定是否致命）
//   - 下载失败时删除残缺文件，避免下次启动误判已就绪
//
// 返回值表示本次是否真正执行了下载。
func (d *Downloader) EnsureLocal(ctx context.Context, url, path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if url == "" {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("bundle: create artifact dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", rewriteShareURL(url), nil)
	if err != nil {
		return false, fmt.Errorf("bundle: build download request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("bundle: download artifact: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("bundle: download artifact: status=%d", resp.StatusCode)
	}

	f, err := os.Create(path)
	if err != nil {
		return false, fmt.Errorf("bundle: create artifact file: %w", err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(path) // 删除残缺文件
		return false, fmt.Errorf("bundle: write artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return false, fmt.Errorf("bundle: close artifact file: %w", err)
	}
	return true, nil
}
