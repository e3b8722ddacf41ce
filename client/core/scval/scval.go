// Package scval 提供合约调用参数与返回值的类型化编码
//
// 合约函数签名使用强类型（string/i128/u64/u32/address等），
// 参数顺序与类型必须与合约声明完全一致。本包用带类型标签的联合体
// 表示这些值，并负责与RPC边界的JSON表示互转。
package scval

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
)

// Type 值类型标签
type Type string

const (
	TypeString  Type = "string"
	TypeI128    Type = "i128"
	TypeU64     Type = "u64"
	TypeU32     Type = "u32"
	TypeBool    Type = "bool"
	TypeAddress Type = "address"
	TypeVec     Type = "vec"
	TypeMap     Type = "map"
	TypeVoid    Type = "void"
)

var (
	// ErrTypeMismatch 解码时类型与期望不符
	ErrTypeMismatch = errors.New("scval: type mismatch")

	// ErrMalformed 值内容无法解析
	ErrMalformed = errors.New("scval: malformed value")
)

// Value 类型化的合约值
//
// 数值统一以十进制字符串承载（i128超出int64范围，u64超出JSON安全整数范围）
type Value struct {
	Type    Type             `json:"type"`
	Str     string           `json:"str,omitempty"` // string/i128/u64/u32/address/bool 的字面值
	Entries []Value          `json:"entries,omitempty"`
	Fields  map[string]Value `json:"fields,omitempty"`
}

// ===== 构造函数 =====

// String 构造字符串值
func String(s string) Value {
	return Value{Type: TypeString, Str: s}
}

// I128 构造128位有符号整数值
func I128(v *big.Int) Value {
	return Value{Type: TypeI128, Str: v.String()}
}

// I128FromInt64 由int64构造i128值
func I128FromInt64(v int64) Value {
	return Value{Type: TypeI128, Str: big.NewInt(v).String()}
}

// U64 构造64位无符号整数值
func U64(v uint64) Value {
	return Value{Type: TypeU64, Str: fmt.Sprintf("%d", v)}
}

// U32 构造32位无符号整数值
func U32(v uint32) Value {
	return Value{Type: TypeU32, Str: fmt.Sprintf("%d", v)}
}

// Bool 构造布尔值
func Bool(v bool) Value {
	if v {
		return Value{Type: TypeBool, Str: "true"}
	}
	return Value{Type: TypeBool, Str: "false"}
}

// Address 构造地址值
func Address(addr string) Value {
	return Value{Type: TypeAddress, Str: addr}
}

// Vec 构造向量值
func Vec(entries ...Value) Value {
	return Value{Type: TypeVec, Entries: entries}
}

// Map 构造结构体/映射值
func Map(fields map[string]Value) Value {
	return Value{Type: TypeMap, Fields: fields}
}

// Void 构造空值
func Void() Value {
	return Value{Type: TypeVoid}
}

// ===== 解码访问器 =====

// AsString 按字符串解码
func (v Value) AsString() (string, error) {
	if v.Type != TypeString {
		return "", fmt.Errorf("%w: want string, got %s", ErrTypeMismatch, v.Type)
	}
	return v.Str, nil
}

// AsI128 按i128解码
func (v Value) AsI128() (*big.Int, error) {
	if v.Type != TypeI128 {
		return nil, fmt.Errorf("%w: want i128, got %s", ErrTypeMismatch, v.Type)
	}
	n, ok := new(big.Int).SetString(v.Str, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a valid i128", ErrMalformed, v.Str)
	}
	return n, nil
}

// AsU64 按u64解码
// u32值可放宽解码为u64（合约计数器字段在不同版本间有宽度差异）
func (v Value) AsU64() (uint64, error) {
	if v.Type != TypeU64 && v.Type != TypeU32 {
		return 0, fmt.Errorf("%w: want u64, got %s", ErrTypeMismatch, v.Type)
	}
	var n uint64
	if _, err := fmt.Sscanf(v.Str, "%d", &n); err != nil {
		return 0, fmt.Errorf("%w: %q is not a valid u64", ErrMalformed, v.Str)
	}
	return n, nil
}

// AsU32 按u32解码
func (v Value) AsU32() (uint32, error) {
	if v.Type != TypeU32 && v.Type != TypeU64 {
		return 0, fmt.Errorf("%w: want u32, got %s", ErrTypeMismatch, v.Type)
	}
	var n uint32
	if _, err := fmt.Sscanf(v.Str, "%d", &n); err != nil {
		return 0, fmt.Errorf("%w: %q is not a valid u32", ErrMalformed, v.Str)
	}
	return n, nil
}

// AsBool 按布尔解码
func (v Value) AsBool() (bool, error) {
	if v.Type != TypeBool {
		return false, fmt.Errorf("%w: want bool, got %s", ErrTypeMismatch, v.Type)
	}
	switch v.Str {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q is not a valid bool", ErrMalformed, v.Str)
	}
}

// AsAddress 按地址解码
func (v Value) AsAddress() (string, error) {
	if v.Type != TypeAddress {
		return "", fmt.Errorf("%w: want address, got %s", ErrTypeMismatch, v.Type)
	}
	if v.Str == "" {
		return "", fmt.Errorf("%w: empty address", ErrMalformed)
	}
	return v.Str, nil
}

// AsVec 按向量解码
func (v Value) AsVec() ([]Value, error) {
	if v.Type != TypeVec {
		return nil, fmt.Errorf("%w: want vec, got %s", ErrTypeMismatch, v.Type)
	}
	return v.Entries, nil
}

// AsMap 按映射解码
func (v Value) AsMap() (map[string]Value, error) {
	if v.Type != TypeMap {
		return nil, fmt.Errorf("%w: want map, got %s", ErrTypeMismatch, v.Type)
	}
	return v.Fields, nil
}

// Field 取映射中的字段，缺失时返回零值与false
func (v Value) Field(name string) (Value, bool) {
	if v.Type != TypeMap || v.Fields == nil {
		return Value{}, false
	}
	f, ok := v.Fields[name]
	return f, ok
}

// IsVoid 判断是否为空值
func (v Value) IsVoid() bool {
	return v.Type == TypeVoid || v.Type == ""
}

// Parse 从RPC返回的原始JSON解析值
func Parse(raw json.RawMessage) (Value, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return Void(), nil
	}
	var v Value
	if err := json.Unmarshal(raw, &v); err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if v.Type == "" {
		return Value{}, fmt.Errorf("%w: missing type tag", ErrMalformed)
	}
	return v, nil
}
