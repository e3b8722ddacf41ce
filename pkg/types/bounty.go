// Package types 定义赏金板共享数据类型
package types

import (
	"fmt"
	"time"
)

// BountyStatus 赏金状态
// 合约按 u32 编码存储，展示层使用语义化名称
type BountyStatus string

const (
	BountyStatusOpen      BountyStatus = "Open"      // 开放中，可认领
	BountyStatusAssigned  BountyStatus = "Assigned"  // 已提交方案，待审核
	BountyStatusCompleted BountyStatus = "Completed" // 已完成，奖励已发放
	BountyStatusCancelled BountyStatus = "Cancelled" // 已取消/已过期
)

// StatusFromCode 将合约状态码转换为展示状态
// 未知状态码返回false，由调用方决定是否丢弃该记录
func StatusFromCode(code uint32) (BountyStatus, bool) {
	switch code {
	case 0:
		return BountyStatusOpen, true
	case 1:
		return BountyStatusAssigned, true
	case 2:
		return BountyStatusCompleted, true
	case 3:
		return BountyStatusCancelled, true
	default:
		return BountyStatusOpen, false
	}
}

// Bounty 赏金条目（合约状态的只读投影）
//
// 合约是唯一数据源：客户端不在本地修改该模型，只重新拉取
type Bounty struct {
	ID          uint64       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Reward      int64        `json:"reward"`   // stroops（最小单位）
	Deadline    uint64       `json:"deadline"` // Unix时间戳
	Creator     string       `json:"creator"`
	Status      BountyStatus `json:"status"`
	Assignee    string       `json:"assignee,omitempty"`
	ProofURL    string       `json:"proof_url,omitempty"`
	CreatedAt   uint64       `json:"created_at,omitempty"`
}

// IsExpired 判断赏金是否已过截止时间
func (b *Bounty) IsExpired(now time.Time) bool {
	return uint64(now.Unix()) >= b.Deadline
}

// ShortenAddress 缩短地址用于展示（GABC...WXYZ）
func ShortenAddress(address string, chars int) string {
	if address == "" {
		return ""
	}
	if chars <= 0 {
		chars = 4
	}
	if len(address) <= chars*2 {
		return address
	}
	return address[:chars] + "..." + address[len(address)-chars:]
}

// FormatTxHash 格式化交易哈希用于展示
func FormatTxHash(hash string, chars int) string {
	if hash == "" {
		return ""
	}
	if chars <= 0 {
		chars = 8
	}
	if len(hash) <= chars*2 {
		return hash
	}
	return hash[:chars] + "..." + hash[len(hash)-chars:]
}

// TimeRemaining 计算距离截止时间的剩余时间描述
func TimeRemaining(deadline uint64, now time.Time) string {
	diff := int64(deadline) - now.Unix()
	if diff <= 0 {
		return "Expired"
	}

	days := diff / 86400
	hours := (diff % 86400) / 3600
	minutes := (diff % 3600) / 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

// ExplorerURLKind 浏览器链接类型
type ExplorerURLKind string

const (
	ExplorerTx       ExplorerURLKind = "tx"
	ExplorerAccount  ExplorerURLKind = "account"
	ExplorerContract ExplorerURLKind = "contract"
)

// ExplorerURL 拼接区块浏览器链接
func ExplorerURL(baseURL string, kind ExplorerURLKind, id string) string {
	return fmt.Sprintf("%s/%s/%s", baseURL, kind, id)
}
