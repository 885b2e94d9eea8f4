// Package client 提供HTTP控制接口的Go客户端，供命令行子命令使用
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/weisyn/powminer/internal/api/http/handlers"
	"github.com/weisyn/powminer/pkg/types"
)

// Client 控制接口客户端
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// APIError 服务端返回的业务错误
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Details    string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s (%d %s): %s", e.Message, e.StatusCode, e.Code, e.Details)
	}
	return fmt.Sprintf("%s (%d %s)", e.Message, e.StatusCode, e.Code)
}

// envelope 与 handlers.StandardAPIResponse 对应，Data 延迟解析
type envelope struct {
	Success bool               `json:"success"`
	Data    json.RawMessage    `json:"data,omitempty"`
	Message string             `json:"message,omitempty"`
	Error   *handlers.APIError `json:"error,omitempty"`
}

// New 创建客户端，endpoint 形如 http://127.0.0.1:8645
func New(endpoint string) *Client {
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// StartMining 启动挖矿，address 为空时使用服务端配置
func (c *Client) StartMining(ctx context.Context, address string) error {
	var body interface{}
	if address != "" {
		body = handlers.StartMiningRequest{MinerAddress: address}
	}
	return c.do(ctx, http.MethodPost, "/api/v1/mining/start", body, nil)
}

// StopMining 停止挖矿
func (c *Client) StopMining(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/v1/mining/stop", nil, nil)
}

// MiningStatus 查询挖矿状态
func (c *Client) MiningStatus(ctx context.Context) (*types.MiningStatus, error) {
	var status types.MiningStatus
	if err := c.do(ctx, http.MethodGet, "/api/v1/mining/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Tip 查询链尖
func (c *Client) Tip(ctx context.Context) (*handlers.BlockEntryResponse, error) {
	var entry handlers.BlockEntryResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/blocks/tip", nil, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// SubmitTx 提交十六进制编码的原始交易
func (c *Client) SubmitTx(ctx context.Context, rawTx string) (*handlers.SubmitTxResponse, error) {
	var resp handlers.SubmitTxResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/txpool/submit", handlers.SubmitTxRequest{RawTx: rawTx}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("序列化请求失败: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reader)
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("请求 %s 失败: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取响应失败: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("解析响应失败 (HTTP %d): %w", resp.StatusCode, err)
	}
	if !env.Success {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: "请求失败"}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
			apiErr.Details = env.Error.Details
		}
		return apiErr
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("解析响应数据失败: %w", err)
		}
	}
	return nil
}
