// Package wallet 提供钱包会话管理与外部签名能力
package wallet

import (
	"context"
	"errors"
)

// Kind 签名器类型
// 同一时间只有一种签名器处于激活状态（不支持多钱包会话）
type Kind string

const (
	KindFreighter Kind = "freighter" // Freighter浏览器扩展
	KindAlbedo    Kind = "albedo"    // Albedo网页签名器
	KindXBull     Kind = "xbull"     // xBull钱包
)

// Valid 判断签名器类型是否受支持
func (k Kind) Valid() bool {
	switch k {
	case KindFreighter, KindAlbedo, KindXBull:
		return true
	default:
		return false
	}
}

// SignOptions 签名请求参数
type SignOptions struct {
	Address           string // 签名账户地址
	NetworkPassphrase string // 网络口令，防止跨网重放
}

// Kit 外部签名器统一能力接口
//
// 所有签名器类型暴露相同的方法（同名同参），上层无需区分具体实现。
// 每次调用都是一个挂起点：用户在本系统之外的UI中交互，
// 随时可能取消（归类为ErrUserDeclined），不能假定任何延迟上界。
// 私钥材料永远不经过本系统
type Kit interface {
	// GetAddress 请求当前激活账户地址
	GetAddress(ctx context.Context) (string, error)

	// SignTransaction 请求对信封签名，返回已签名信封
	SignTransaction(ctx context.Context, envelopeXDR string, opts SignOptions) (string, error)
}

// KitRegistry 按签名器类型解析Kit实现
type KitRegistry interface {
	// Resolve 解析指定类型的签名器
	// 未安装/未配置时返回ErrSignerNotInstalled
	Resolve(kind Kind) (Kit, error)
}

// ===== 错误 =====

var (
	// ErrNotConnected 无活跃会话时请求签名
	ErrNotConnected = errors.New("wallet not connected")

	// ErrSignerNotInstalled 签名器未安装/未配置
	ErrSignerNotInstalled = errors.New("wallet signer not installed")

	// ErrUserDeclined 用户在签名器中拒绝了请求
	ErrUserDeclined = errors.New("request declined by user")

	// ErrSignerInit 签名器初始化失败
	ErrSignerInit = errors.New("wallet signer initialization failed")

	// ErrUnknownKind 不受支持的签名器类型
	ErrUnknownKind = errors.New("unknown wallet kind")
)
