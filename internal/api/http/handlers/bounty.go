// Package handlers 实现HTTP API处理器
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/antigravity/bountyboard/client/core/builder"
	"github.com/antigravity/bountyboard/client/core/contract"
	"github.com/antigravity/bountyboard/client/core/tx"
	"github.com/antigravity/bountyboard/client/core/wallet"
	"github.com/antigravity/bountyboard/internal/api/http/middleware"
	apitypes "github.com/antigravity/bountyboard/internal/api/types"
	"github.com/antigravity/bountyboard/internal/cache"
	"github.com/antigravity/bountyboard/pkg/types"
)

// BountyHandler 悬赏相关接口
type BountyHandler struct {
	cache        *cache.BountyCache
	contracts    *contract.InvocationService
	orchestrator *tx.Orchestrator
	explorerURL  string
	logger       *zap.Logger
}

// NewBountyHandler 创建悬赏处理器
func NewBountyHandler(c *cache.BountyCache, contracts *contract.InvocationService, orchestrator *tx.Orchestrator, explorerURL string, logger *zap.Logger) *BountyHandler {
	return &BountyHandler{
		cache:        c,
		contracts:    contracts,
		orchestrator: orchestrator,
		explorerURL:  explorerURL,
		logger:       logger,
	}
}

// bountyView 面向API的悬赏视图，补充展示字段
type bountyView struct {
	types.Bounty
	RewardXLM    string `json:"reward_xlm"`
	CreatorShort string `json:"creator_short"`
	ExplorerURL  string `json:"explorer_url,omitempty"`
}

func (h *BountyHandler) view(b types.Bounty) bountyView {
	amount, err := builder.NewAmountFromStroops(b.Reward)
	rewardXLM := ""
	if err == nil {
		rewardXLM = amount.StringTrimmed()
	}
	return bountyView{
		Bounty:       b,
		RewardXLM:    rewardXLM,
		CreatorShort: types.ShortenAddress(b.Creator, 4),
		ExplorerURL:  types.ExplorerURL(h.explorerURL, types.ExplorerContract, h.contracts.ContractID()),
	}
}

func (h *BountyHandler) views(bounties []types.Bounty) []bountyView {
	out := make([]bountyView, 0, len(bounties))
	for _, b := range bounties {
		out = append(out, h.view(b))
	}
	return out
}

// List 列出悬赏
//
// GET /api/v1/bounties?filter=all|open&user=G...
func (h *BountyHandler) List(c *gin.Context) {
	var (
		bounties []types.Bounty
		err      error
	)
	if user := c.Query("user"); user != "" {
		bounties, err = h.cache.ByUser(user)
	} else if c.DefaultQuery("filter", "all") == "open" {
		bounties, err = h.cache.Open()
	} else {
		bounties, err = h.cache.All()
	}

	if err != nil {
		if errors.Is(err, cache.ErrNotWarmedUp) || errors.Is(err, contract.ErrContractNotConfigured) {
			middleware.WriteError(c, apitypes.CodeNotReady,
				"Bounty list is not available yet, please retry shortly",
				err.Error(), http.StatusServiceUnavailable)
			return
		}
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bounties": h.views(bounties), "count": len(bounties)})
}

// Get 查询单个悬赏
//
// GET /api/v1/bounties/:id
func (h *BountyHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		middleware.WriteError(c, apitypes.CodeBadRequest,
			"Bounty id must be a number", err.Error(), http.StatusBadRequest)
		return
	}

	bounty, err := h.contracts.GetBounty(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if bounty == nil {
		middleware.WriteError(c, apitypes.CodeNotFound,
			fmt.Sprintf("Bounty %d does not exist", id), "", http.StatusNotFound)
		return
	}
	c.JSON(http.StatusOK, h.view(*bounty))
}

// Count 查询悬赏总数
//
// GET /api/v1/bounties/count
func (h *BountyHandler) Count(c *gin.Context) {
	count, err := h.contracts.GetBountyCount(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// CreateBountyRequest 创建悬赏请求
type CreateBountyRequest struct {
	Title        string `json:"title" binding:"required"`
	Description  string `json:"description" binding:"required"`
	RewardXLM    string `json:"reward_xlm" binding:"required"` // 十进制字符串
	DeadlineDays uint64 `json:"deadline_days" binding:"required"`
}

// Create 创建悬赏
//
// POST /api/v1/bounties
func (h *BountyHandler) Create(c *gin.Context) {
	var req CreateBountyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.WriteError(c, apitypes.CodeBadRequest,
			"Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	xlm, err := strconv.ParseFloat(req.RewardXLM, 64)
	if err != nil {
		middleware.WriteError(c, apitypes.CodeBadRequest,
			"Invalid reward amount", err.Error(), http.StatusBadRequest)
		return
	}
	reward, err := builder.NewAmount(xlm)
	if err != nil {
		middleware.WriteError(c, apitypes.CodeBadRequest,
			"Invalid reward amount", err.Error(), http.StatusBadRequest)
		return
	}
	if !reward.IsPositive() {
		middleware.WriteError(c, apitypes.CodeBadRequest,
			"Reward must be positive", "", http.StatusBadRequest)
		return
	}

	attempt, err := h.orchestrator.CreateBounty(c.Request.Context(), req.Title, req.Description, reward, req.DeadlineDays)
	h.respondAttempt(c, attempt, err)
}

// SubmitSolutionRequest 提交方案请求
type SubmitSolutionRequest struct {
	ProofURL string `json:"proof_url" binding:"required"`
}

// SubmitSolution 提交方案
//
// POST /api/v1/bounties/:id/submit
func (h *BountyHandler) SubmitSolution(c *gin.Context) {
	id, ok := h.bountyID(c)
	if !ok {
		return
	}
	var req SubmitSolutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.WriteError(c, apitypes.CodeBadRequest,
			"Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}
	attempt, err := h.orchestrator.SubmitSolution(c.Request.Context(), id, req.ProofURL)
	h.respondAttempt(c, attempt, err)
}

// ApproveSolution 批准方案
//
// POST /api/v1/bounties/:id/approve
func (h *BountyHandler) ApproveSolution(c *gin.Context) {
	id, ok := h.bountyID(c)
	if !ok {
		return
	}
	attempt, err := h.orchestrator.ApproveSolution(c.Request.Context(), id)
	h.respondAttempt(c, attempt, err)
}

// RejectSolution 驳回方案
//
// POST /api/v1/bounties/:id/reject
func (h *BountyHandler) RejectSolution(c *gin.Context) {
	id, ok := h.bountyID(c)
	if !ok {
		return
	}
	attempt, err := h.orchestrator.RejectSolution(c.Request.Context(), id)
	h.respondAttempt(c, attempt, err)
}

// Cancel 取消悬赏
//
// POST /api/v1/bounties/:id/cancel
func (h *BountyHandler) Cancel(c *gin.Context) {
	id, ok := h.bountyID(c)
	if !ok {
		return
	}
	attempt, err := h.orchestrator.CancelBounty(c.Request.Context(), id)
	h.respondAttempt(c, attempt, err)
}

// Initialize 初始化合约
//
// POST /api/v1/contract/initialize
func (h *BountyHandler) Initialize(c *gin.Context) {
	attempt, err := h.orchestrator.Initialize(c.Request.Context())
	h.respondAttempt(c, attempt, err)
}

func (h *BountyHandler) bountyID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		middleware.WriteError(c, apitypes.CodeBadRequest,
			"Bounty id must be a number", err.Error(), http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// respondAttempt 统一处理流水线结果
//
// 未连接钱包时流水线根本没有启动，返回401；
// 已启动的流水线无论成败都返回其终态快照
func (h *BountyHandler) respondAttempt(c *gin.Context, attempt *tx.Attempt, err error) {
	if err != nil {
		if errors.Is(err, wallet.ErrNotConnected) {
			middleware.WriteError(c, apitypes.CodeWalletRequired,
				"Please connect your wallet first", err.Error(), http.StatusUnauthorized)
			return
		}
		if errors.Is(err, contract.ErrContractNotConfigured) {
			middleware.WriteError(c, apitypes.CodeNotReady,
				"Contract is not configured", err.Error(), http.StatusServiceUnavailable)
			return
		}
		_ = c.Error(err)
		return
	}

	snapshot := attempt.Snapshot()
	status := http.StatusOK
	if snapshot.Status == tx.StatusError {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"attempt": snapshot})
}
