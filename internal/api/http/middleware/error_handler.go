package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apitypes "github.com/antigravity/bountyboard/internal/api/types"
)

// ErrorHandler 错误处理中间件
//
// 所有handler错误统一收敛为ProblemDetails响应
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		problem, ok := apitypes.IsProblemDetails(err)
		if !ok {
			logger.Error("handler returned non-ProblemDetails error",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err))
			problem = apitypes.NewProblemDetails(
				apitypes.CodeInternalError,
				"Internal server error, please retry later",
				fmt.Sprintf("internal error: %v", err),
				500,
				map[string]interface{}{"path": c.Request.URL.Path},
			)
		}

		logger.Warn("http error",
			zap.String("code", problem.Code),
			zap.String("traceId", problem.TraceID),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		problem.WriteJSON(c.Writer)
		c.Abort()
	}
}

// WriteProblem 写入ProblemDetails响应
func WriteProblem(c *gin.Context, problem *apitypes.ProblemDetails) {
	c.Header("Content-Type", "application/problem+json")
	c.JSON(problem.Status, problem)
	c.Abort()
}

// WriteError 写入错误响应（自动转换为ProblemDetails）
func WriteError(c *gin.Context, code, userMessage, detail string, status int) {
	WriteProblem(c, apitypes.NewProblemDetails(code, userMessage, detail, status, nil))
}
