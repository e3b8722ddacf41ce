package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/antigravity/bountyboard/client/core/wallet"
	"github.com/antigravity/bountyboard/internal/api/http/middleware"
	apitypes "github.com/antigravity/bountyboard/internal/api/types"
)

// WalletHandler 钱包会话接口
type WalletHandler struct {
	manager *wallet.Manager
	logger  *zap.Logger
}

// NewWalletHandler 创建钱包处理器
func NewWalletHandler(manager *wallet.Manager, logger *zap.Logger) *WalletHandler {
	return &WalletHandler{manager: manager, logger: logger}
}

// ConnectRequest 连接请求
type ConnectRequest struct {
	Kind string `json:"kind" binding:"required"` // freighter/albedo/xbull
}

// Connect 连接钱包
//
// POST /api/v1/wallet/connect
func (h *WalletHandler) Connect(c *gin.Context) {
	var req ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.WriteError(c, apitypes.CodeBadRequest,
			"Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	kind := wallet.Kind(req.Kind)
	if !kind.Valid() {
		middleware.WriteError(c, apitypes.CodeBadRequest,
			"Unsupported wallet kind", req.Kind, http.StatusBadRequest)
		return
	}

	session, err := h.manager.Connect(c.Request.Context(), kind)
	if err != nil {
		switch {
		case errors.Is(err, wallet.ErrUserDeclined):
			middleware.WriteError(c, apitypes.CodeWalletRequired,
				"Connection was declined in the wallet", err.Error(), http.StatusForbidden)
		case errors.Is(err, wallet.ErrSignerNotInstalled):
			middleware.WriteError(c, apitypes.CodeNotReady,
				"Wallet signer is not installed or not reachable", err.Error(), http.StatusServiceUnavailable)
		default:
			_ = c.Error(err)
		}
		return
	}
	c.JSON(http.StatusOK, session)
}

// Disconnect 断开钱包
//
// POST /api/v1/wallet/disconnect
func (h *WalletHandler) Disconnect(c *gin.Context) {
	if err := h.manager.Disconnect(); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"disconnected": true})
}

// Session 查询当前会话
//
// GET /api/v1/wallet/session
func (h *WalletHandler) Session(c *gin.Context) {
	c.JSON(http.StatusOK, h.manager.Session())
}
