package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// BridgeKit 通过本地HTTP桥接进程访问外部签名器
//
// 签名器本体运行在本系统之外（浏览器扩展/独立应用），桥接进程
// 负责把签名请求转交给签名器UI并等待用户交互结果
type BridgeKit struct {
	kind       Kind
	endpoint   string
	httpClient *http.Client
}

// NewBridgeKit 创建签名器桥接客户端
//
// 注意：签名是用户交互操作，超时应显著长于普通RPC调用
func NewBridgeKit(kind Kind, endpoint string, timeout time.Duration) *BridgeKit {
	return &BridgeKit{
		kind:     kind,
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Kind 返回签名器类型
func (k *BridgeKit) Kind() Kind { return k.kind }

type bridgeAddressResponse struct {
	Address string `json:"address"`
}

type bridgeSignRequest struct {
	Transaction       string `json:"transaction"`
	Address           string `json:"address"`
	NetworkPassphrase string `json:"networkPassphrase"`
}

type bridgeSignResponse struct {
	SignedTransaction string `json:"signedTransaction"`
}

type bridgeErrorResponse struct {
	Error string `json:"error"`
}

// GetAddress 请求当前激活账户地址
func (k *BridgeKit) GetAddress(ctx context.Context) (string, error) {
	var resp bridgeAddressResponse
	if err := k.post(ctx, "/address", nil, &resp); err != nil {
		return "", err
	}
	if resp.Address == "" {
		return "", fmt.Errorf("%w: bridge returned empty address", ErrSignerInit)
	}
	return resp.Address, nil
}

// SignTransaction 请求对信封签名，阻塞直到用户确认、拒绝或超时
func (k *BridgeKit) SignTransaction(ctx context.Context, envelopeXDR string, opts SignOptions) (string, error) {
	req := bridgeSignRequest{
		Transaction:       envelopeXDR,
		Address:           opts.Address,
		NetworkPassphrase: opts.NetworkPassphrase,
	}
	var resp bridgeSignResponse
	if err := k.post(ctx, "/sign", req, &resp); err != nil {
		return "", err
	}
	if resp.SignedTransaction == "" {
		return "", fmt.Errorf("bridge returned empty signed transaction")
	}
	return resp.SignedTransaction, nil
}

// post 发送桥接请求并解析响应
func (k *BridgeKit) post(ctx context.Context, path string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode bridge request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, k.endpoint+path, reader)
	if err != nil {
		return fmt.Errorf("create bridge request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := k.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %s bridge unreachable: %v", ErrSignerNotInstalled, k.kind, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("read bridge response: %w", err)
	}

	switch httpResp.StatusCode {
	case http.StatusOK:
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("decode bridge response: %w", err)
		}
		return nil
	case http.StatusForbidden:
		// 用户在签名器UI中点了拒绝
		return fmt.Errorf("%w: %s", ErrUserDeclined, bridgeErrorMessage(data))
	case http.StatusServiceUnavailable:
		return fmt.Errorf("%w: %s", ErrSignerNotInstalled, bridgeErrorMessage(data))
	default:
		return fmt.Errorf("%w: bridge status %d: %s", ErrSignerInit, httpResp.StatusCode, bridgeErrorMessage(data))
	}
}

func bridgeErrorMessage(data []byte) string {
	var resp bridgeErrorResponse
	if err := json.Unmarshal(data, &resp); err == nil && resp.Error != "" {
		return resp.Error
	}
	return string(data)
}

// ===== 注册表 =====

// BridgeRegistry 按签名器类型维护桥接端点
type BridgeRegistry struct {
	kits map[Kind]Kit
}

// NewBridgeRegistry 根据端点配置创建注册表
func NewBridgeRegistry(endpoints map[Kind]string, timeout time.Duration) *BridgeRegistry {
	kits := make(map[Kind]Kit, len(endpoints))
	for kind, endpoint := range endpoints {
		kits[kind] = NewBridgeKit(kind, endpoint, timeout)
	}
	return &BridgeRegistry{kits: kits}
}

// Resolve 解析指定类型的签名器
func (r *BridgeRegistry) Resolve(kind Kind) (Kit, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	kit, ok := r.kits[kind]
	if !ok {
		return nil, fmt.Errorf("%w: no bridge configured for %s", ErrSignerNotInstalled, kind)
	}
	return kit, nil
}

// StaticRegistry 固定Kit映射的注册表，主要用于测试
type StaticRegistry map[Kind]Kit

// Resolve 解析指定类型的签名器
func (r StaticRegistry) Resolve(kind Kind) (Kit, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	kit, ok := r[kind]
	if !ok {
		return nil, fmt.Errorf("%w: no signer for %s", ErrSignerNotInstalled, kind)
	}
	return kit, nil
}
