package builder

import (
	"github.com/antigravity/bountyboard/client/core/scval"
)

// OperationDescriptor 合约调用操作描述
//
// 参数顺序与类型必须与合约函数的声明签名完全一致。
// 每次调用都新建一个描述，不得复用
type OperationDescriptor struct {
	ContractID string        `json:"contract_id"` // 目标合约标识
	Function   string        `json:"function"`    // 合约函数名
	Args       []scval.Value `json:"args"`        // 有序类型化参数
}

// NewOperation 创建合约调用操作描述
func NewOperation(contractID, function string, args ...scval.Value) *OperationDescriptor {
	return &OperationDescriptor{
		ContractID: contractID,
		Function:   function,
		Args:       args,
	}
}
