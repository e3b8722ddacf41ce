package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/antigravity/bountyboard/client/core/contract"
	"github.com/antigravity/bountyboard/client/core/transport"
	"github.com/antigravity/bountyboard/internal/config"
)

// HealthHandler 健康检查接口
type HealthHandler struct {
	client    transport.Client
	contracts *contract.InvocationService
	network   config.NetworkOptions
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(client transport.Client, contracts *contract.InvocationService, network config.NetworkOptions) *HealthHandler {
	return &HealthHandler{client: client, contracts: contracts, network: network}
}

// Health 健康检查
//
// GET /api/v1/health
// RPC不可达时返回503，合约未配置只降级不报错
func (h *HealthHandler) Health(c *gin.Context) {
	rpcHealthy := true
	var rpcError string
	if err := h.client.Ping(c.Request.Context()); err != nil {
		rpcHealthy = false
		rpcError = err.Error()
	}

	status := http.StatusOK
	if !rpcHealthy {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"healthy":             rpcHealthy,
		"rpc_url":             h.network.RPCURL,
		"rpc_error":           rpcError,
		"network":             h.network.Network,
		"contract_configured": h.contracts.Configured(),
		"contract_id":         h.contracts.ContractID(),
	})
}
