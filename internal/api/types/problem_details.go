// Package types 定义API层的公共响应类型
package types

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// 错误码
const (
	CodeBadRequest     = "BOUNTY-400"
	CodeWalletRequired = "BOUNTY-401"
	CodeNotFound       = "BOUNTY-404"
	CodeTxFailed       = "BOUNTY-422"
	CodeInternalError  = "BOUNTY-500"
	CodeNotReady       = "BOUNTY-503"
)

// LayerBountyService 本服务的层标识
const LayerBountyService = "bounty-service"

// ProblemDetails 错误响应结构（基于 RFC7807 扩展）
type ProblemDetails struct {
	// RFC7807 标准字段
	Type     string `json:"type,omitempty"`
	Title    string `json:"title,omitempty"`
	Status   int    `json:"status,omitempty"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	// 扩展字段
	Code        string                 `json:"code"`
	Layer       string                 `json:"layer"`
	UserMessage string                 `json:"userMessage"`
	Details     map[string]interface{} `json:"details,omitempty"`
	TraceID     string                 `json:"traceId"`
	Timestamp   string                 `json:"timestamp"`
}

// Error 实现 error 接口
func (p *ProblemDetails) Error() string {
	if p.Detail != "" {
		return p.Detail
	}
	return p.UserMessage
}

// WriteJSON 将错误响应写入HTTP响应
func (p *ProblemDetails) WriteJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// NewProblemDetails 创建错误响应
func NewProblemDetails(code, userMessage, detail string, status int, details map[string]interface{}) *ProblemDetails {
	if details == nil {
		details = make(map[string]interface{})
	}
	return &ProblemDetails{
		Title:       http.StatusText(status),
		Status:      status,
		Detail:      detail,
		Code:        code,
		Layer:       LayerBountyService,
		UserMessage: userMessage,
		Details:     details,
		TraceID:     uuid.New().String(),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
}

// IsProblemDetails 判断错误是否为ProblemDetails
func IsProblemDetails(err error) (*ProblemDetails, bool) {
	var problem *ProblemDetails
	if errors.As(err, &problem) {
		return problem, true
	}
	return nil, false
}
