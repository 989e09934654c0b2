// Package client 提供访问推理服务 HTTP 接口的类型化客户端。
//
// 用法：
//
//	cli := client.New("http://localhost:8000")
//	result, err := cli.Predict(ctx, record)
//
// 服务端返回的非 2xx 响应被还原为 core.DomainError，
// 调用方可以用 core.IsNotReady / core.IsInvalidInput 等谓词判断。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rushteam/stresskit/core"
)

// Client 是推理服务的 HTTP 客户端。
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// Option 配置 Client。
type Option func(*Client)

// WithTimeout 设置请求超时时间。
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.timeout = timeout }
}

// WithHTTPClient 使用自定义 HTTP 客户端（连接池、代理等）。
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// New 创建客户端，baseURL 形如 "http://localhost:8000"。
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}
	return c
}

// HealthStatus 是健康检查响应。
type HealthStatus struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
}

type batchRequest struct {
	Workers []*core.WorkerRecord `json:"workers"`
}

type batchResponse struct {
	Predictions []*core.PredictionResult `json:"predictions"`
	Count       int                      `json:"count"`
}

type recentResponse struct {
	Predictions []*core.HistoryEntry `json:"predictions"`
	Count       int                  `json:"count"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Predict 对单条记录发起预测。
func (c *Client) Predict(ctx context.Context, record *core.WorkerRecord) (*core.PredictionResult, error) {
	if record == nil {
		return nil, core.NewInvalidInputError(core.ModuleClient, "client: nil record")
	}
	var result core.PredictionResult
	if err := c.postJSON(ctx, "/predict", record, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PredictBatch 对一批记录发起预测，结果顺序与输入一致。
func (c *Client) PredictBatch(ctx context.Context, records []*core.WorkerRecord) ([]*core.PredictionResult, error) {
	var resp batchResponse
	if err := c.postJSON(ctx, "/predict_batch", batchRequest{Workers: records}, &resp); err != nil {
		return nil, err
	}
	return resp.Predictions, nil
}

// Health 返回服务健康状态。服务未就绪（503）不算调用失败，
// 状态体原样返回；其余非 2xx 返回错误。
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("client: create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client: health request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		return nil, errorFromResponse(resp)
	}
	var status HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("client: decode health response: %w", err)
	}
	return &status, nil
}

// ModelInfo 返回已加载模型的自省信息。
func (c *Client) ModelInfo(ctx context.Context) (*core.ModelDescriptor, error) {
	var desc core.ModelDescriptor
	if err := c.getJSON(ctx, "/model/info", &desc); err != nil {
		return nil, err
	}
	return &desc, nil
}

// Recent 返回最近 limit 条预测留痕，limit <= 0 时使用服务端默认值。
func (c *Client) Recent(ctx context.Context, limit int) ([]*core.HistoryEntry, error) {
	path := "/predictions/recent"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var resp recentResponse
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Predictions, nil
}

// Latest 返回某 worker 最近一次的预测留痕，不存在时返回 NOT_FOUND 错误。
func (c *Client) Latest(ctx context.Context, workerID string) (*core.HistoryEntry, error) {
	if workerID == "" {
		return nil, core.NewInvalidInputError(core.ModuleClient, "client: empty worker id")
	}
	var entry core.HistoryEntry
	if err := c.getJSON(ctx, "/predictions/latest?worker_id="+url.QueryEscape(workerID), &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("client: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("client: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("client: create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errorFromResponse(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decode response: %w", err)
	}
	return nil
}

// errorFromResponse 把服务端错误体还原为 DomainError；
// 错误体不可解析时按状态码推断错误代码。
func errorFromResponse(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil && body.Code != "" {
		return core.NewDomainError(core.ModuleClient, body.Code, body.Message)
	}

	code := core.ErrorCodeInternalError
	switch resp.StatusCode {
	case http.StatusServiceUnavailable:
		code = core.ErrorCodeUnavailable
	case http.StatusBadRequest:
		code = core.ErrorCodeInvalidInput
	case http.StatusNotFound:
		code = core.ErrorCodeNotFound
	}
	return core.NewDomainError(core.ModuleClient, code,
		fmt.Sprintf("client: unexpected status %d: %s", resp.StatusCode, raw))
}
