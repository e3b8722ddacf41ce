package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

// RPCClient Soroban RPC客户端实现（JSON-RPC 2.0 over HTTP）
type RPCClient struct {
	endpoint   string
	httpClient *http.Client
	nextID     atomic.Uint64

	// sleep 轮询间隔的等待实现，测试中可注入以避免真实延时
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRPCClient 创建Soroban RPC客户端
func NewRPCClient(endpoint string, timeout time.Duration) *RPCClient {
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &RPCClient{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		sleep: sleepContext,
	}
}

// SetSleeper 覆盖轮询等待实现（测试专用）
func (c *RPCClient) SetSleeper(sleep func(ctx context.Context, d time.Duration) error) {
	if sleep != nil {
		c.sleep = sleep
	}
}

// sleepContext 可被context取消的等待
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// jsonrpcRequest JSON-RPC 2.0 请求
type jsonrpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
	ID      uint64      `json:"id"`
}

// jsonrpcResponse JSON-RPC 2.0 响应
type jsonrpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *jsonrpcError   `json:"error,omitempty"`
	ID      uint64          `json:"id"`
}

// jsonrpcError JSON-RPC 2.0 错误
type jsonrpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// call 统一的JSON-RPC调用方法
func (c *RPCClient) call(ctx context.Context, method string, params interface{}, result interface{}) error {
	req := &jsonrpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.nextID.Add(1),
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// 传输层失败统一归类为节点不可达，不区分超时与拒绝连接
		return fmt.Errorf("%w: %v", ErrNetworkUnreachable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var jsonResp jsonrpcResponse
	if err := json.Unmarshal(respBody, &jsonResp); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	if jsonResp.Error != nil {
		if isAccountNotFound(jsonResp.Error) {
			return fmt.Errorf("%w: %s", ErrAccountNotFound, jsonResp.Error.Message)
		}
		return fmt.Errorf("jsonrpc error %d: %s", jsonResp.Error.Code, jsonResp.Error.Message)
	}

	if result != nil && len(jsonResp.Result) > 0 {
		if err := json.Unmarshal(jsonResp.Result, result); err != nil {
			return fmt.Errorf("unmarshal result: %w", err)
		}
	}

	return nil
}

// isAccountNotFound 识别账户不存在错误
// RPC端对未注资账户返回 -32600 + "not found" 风格消息，这里做结构化归类
func isAccountNotFound(e *jsonrpcError) bool {
	return strings.Contains(strings.ToLower(e.Message), "account not found") ||
		strings.Contains(strings.ToLower(e.Message), "account missing")
}

// ===== 接口实现 =====

func (c *RPCClient) GetAccount(ctx context.Context, address string) (*AccountState, error) {
	params := map[string]interface{}{
		"address": address,
	}

	var result struct {
		Address  string `json:"address"`
		Sequence string `json:"sequence"` // 字符串承载，u64超出JSON安全整数范围
	}
	if err := c.call(ctx, "getAccount", params, &result); err != nil {
		return nil, err
	}

	var seq uint64
	if _, err := fmt.Sscanf(result.Sequence, "%d", &seq); err != nil {
		return nil, fmt.Errorf("parse sequence %q: %w", result.Sequence, err)
	}

	return &AccountState{
		Address:  result.Address,
		Sequence: seq,
	}, nil
}

func (c *RPCClient) SimulateTransaction(ctx context.Context, envelopeXDR string) (*SimulateResult, error) {
	params := map[string]interface{}{
		"transaction": envelopeXDR,
	}

	var result SimulateResult
	if err := c.call(ctx, "simulateTransaction", params, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *RPCClient) SendTransaction(ctx context.Context, signedXDR string) (*SendResult, error) {
	params := map[string]interface{}{
		"transaction": signedXDR,
	}

	var result SendResult
	if err := c.call(ctx, "sendTransaction", params, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *RPCClient) GetTransaction(ctx context.Context, hash string) (*GetTransactionResult, error) {
	params := map[string]interface{}{
		"hash": hash,
	}

	var result GetTransactionResult
	if err := c.call(ctx, "getTransaction", params, &result); err != nil {
		return nil, err
	}
	if result.Hash == "" {
		result.Hash = hash
	}

	return &result, nil
}

// PollUntilTerminal 固定间隔、有界次数的轮询循环
//
// 这是整个系统唯一的重试逻辑：不做指数退避（共识定案窗口很短，
// 固定间隔已经足够），不做无限等待（有界次数保证UI最终脱离pending态）
func (c *RPCClient) PollUntilTerminal(ctx context.Context, hash string, maxAttempts int, interval time.Duration) (*GetTransactionResult, error) {
	if maxAttempts <= 0 {
		return nil, fmt.Errorf("maxAttempts must be positive, got %d", maxAttempts)
	}

	for i := 0; i < maxAttempts; i++ {
		if err := c.sleep(ctx, interval); err != nil {
			return nil, err
		}

		result, err := c.GetTransaction(ctx, hash)
		if err != nil {
			// 单次查询失败不终止循环，下一轮重新查询
			continue
		}

		if result.Status.IsTerminal() {
			return result, nil
		}
	}

	return nil, fmt.Errorf("%w: no terminal status after %d attempts", ErrPollTimeout, maxAttempts)
}

func (c *RPCClient) Ping(ctx context.Context) error {
	var result struct {
		Status string `json:"status"`
	}
	if err := c.call(ctx, "getHealth", nil, &result); err != nil {
		return err
	}
	if result.Status != "healthy" {
		return fmt.Errorf("node unhealthy: %s", result.Status)
	}
	return nil
}

func (c *RPCClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
