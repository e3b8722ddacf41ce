// Package builder 提供交易信封构建功能
package builder

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Amount 表示XLM金额（使用stroop最小单位）
//
// 金额系统：
//   - 1 XLM = 10^7 stroops
//   - 使用 *big.Int 确保精确计算，避免浮点数精度问题
//   - 合约侧reward为i128，可能超出int64范围
type Amount struct {
	value *big.Int // stroops（1 XLM = 10^7 stroops）
}

const (
	// DecimalPlaces XLM的小数位数
	DecimalPlaces = 7

	// StroopsPerXLM 1 XLM对应的stroop数量
	StroopsPerXLM = 10_000_000 // 10^7
)

var (
	// ErrInvalidAmount 无效的金额
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrNegativeAmount 负数金额
	ErrNegativeAmount = errors.New("negative amount")

	// stroopsPerXLM 预计算的big.Int
	stroopsPerXLM = big.NewInt(StroopsPerXLM)
)

// NewAmount 从XLM单位创建Amount
//
// 示例：
//
//	NewAmount(1.5) → 15000000 stroops
//	NewAmount(0.0000001) → 1 stroop
func NewAmount(xlm float64) (*Amount, error) {
	if xlm < 0 {
		return nil, ErrNegativeAmount
	}

	// 转换为最小单位: xlm * 10^7（向下取整）
	base := new(big.Float).Mul(
		big.NewFloat(xlm),
		new(big.Float).SetInt(stroopsPerXLM),
	)
	value, _ := base.Int(nil)

	return &Amount{value: value}, nil
}

// NewAmountFromString 从字符串创建Amount
//
// 支持格式：
//   - "100" → 100 stroops
//   - "1.5" → 15000000 stroops（作为XLM解析）
func NewAmountFromString(s string) (*Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty string", ErrInvalidAmount)
	}

	if strings.Contains(s, ".") {
		xlm, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, err)
		}
		return NewAmount(xlm)
	}

	value, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, s)
	}
	if value.Sign() < 0 {
		return nil, ErrNegativeAmount
	}

	return &Amount{value: value}, nil
}

// NewAmountFromStroops 从stroop数量创建Amount
func NewAmountFromStroops(stroops int64) (*Amount, error) {
	if stroops < 0 {
		return nil, ErrNegativeAmount
	}
	return &Amount{value: big.NewInt(stroops)}, nil
}

// NewAmountFromBigInt 从big.Int创建Amount
func NewAmountFromBigInt(value *big.Int) (*Amount, error) {
	if value == nil {
		return nil, fmt.Errorf("%w: nil value", ErrInvalidAmount)
	}
	if value.Sign() < 0 {
		return nil, ErrNegativeAmount
	}
	// 复制value，避免外部修改
	return &Amount{value: new(big.Int).Set(value)}, nil
}

// Zero 返回零金额
func Zero() *Amount {
	return &Amount{value: big.NewInt(0)}
}

// Add 加法：a + b
func (a *Amount) Add(b *Amount) *Amount {
	if a == nil || b == nil {
		return Zero()
	}
	return &Amount{value: new(big.Int).Add(a.value, b.value)}
}

// Cmp 比较两个金额
// 返回值：
//
//	-1: a < b
//	 0: a == b
//	 1: a > b
func (a *Amount) Cmp(b *Amount) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}
	return a.value.Cmp(b.value)
}

// IsZero 判断金额是否为零
func (a *Amount) IsZero() bool {
	return a == nil || a.value.Sign() == 0
}

// IsPositive 判断金额是否为正
func (a *Amount) IsPositive() bool {
	return a != nil && a.value.Sign() > 0
}

// LessThan 判断 a < b
func (a *Amount) LessThan(b *Amount) bool {
	return a.Cmp(b) < 0
}

// Stroops 返回stroop数量
// 超出int64范围时返回0，调用方应先用BigInt检查
func (a *Amount) Stroops() int64 {
	if a == nil || !a.value.IsInt64() {
		return 0
	}
	return a.value.Int64()
}

// BigInt 返回big.Int副本
func (a *Amount) BigInt() *big.Int {
	if a == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(a.value)
}

// ToXLM 转换为XLM单位（float64）
// 注意：大额金额可能损失精度
func (a *Amount) ToXLM() float64 {
	if a == nil {
		return 0
	}
	xlm := new(big.Float).Quo(
		new(big.Float).SetInt(a.value),
		new(big.Float).SetInt(stroopsPerXLM),
	)
	result, _ := xlm.Float64()
	return result
}

// String 转换为XLM单位字符串（保留7位小数）
//
// 示例：
//
//	15000000 → "1.5000000"
//	1 → "0.0000001"
func (a *Amount) String() string {
	if a == nil {
		return "0.0000000"
	}
	xlm := new(big.Float).Quo(
		new(big.Float).SetInt(a.value),
		new(big.Float).SetInt(stroopsPerXLM),
	)
	return xlm.Text('f', DecimalPlaces)
}

// StringTrimmed 转换为XLM单位字符串（移除末尾的0）
//
// 示例：
//
//	15000000 → "1.5"
//	10000000 → "1"
func (a *Amount) StringTrimmed() string {
	str := a.String()
	str = strings.TrimRight(str, "0")
	str = strings.TrimRight(str, ".")
	return str
}

// StringStroops 转换为stroop单位字符串
func (a *Amount) StringStroops() string {
	if a == nil {
		return "0"
	}
	return a.value.String()
}
