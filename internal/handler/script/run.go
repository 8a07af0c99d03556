package script

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"reelforge/internal/service"
)

// RunRequest 运行请求
type RunRequest struct {
	Force               bool     `json:"force"` // 忽略检查点
	Method              string   `json:"method"`
	SimilarityThreshold *float64 `json:"similarity_threshold"`
}

// Run 运行阶段 4 和 5
// @Summary      运行同步与分段
// @Description  依次执行同步与分段，按检查点续跑，完成后通知下游
// @Tags         脚本流水线
// @Accept       json
// @Produce      json
// @Param        script_id  path      int         true   "脚本ID"
// @Param        request    body      RunRequest  false  "运行参数"
// @Success      200        {object}  map[string]interface{}  "成功响应"
// @Failure      404        {object}  ErrorResponse  "输入文件不存在"
// @Failure      409        {object}  ErrorResponse  "同一脚本正在运行"
// @Failure      500        {object}  ErrorResponse  "服务器内部错误"
// @Router       /scripts/{script_id}/run [post]
func (h *Handler) Run(c *gin.Context) {
	scriptID, ok := bindScriptID(c)
	if !ok {
		return
	}

	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40001,
			Message: "Invalid request body",
			Detail:  err.Error(),
		})
		return
	}

	result, err := h.pipeline.Run(c.Request.Context(), scriptID, service.RunOptions{
		Force: req.Force,
		Sync: service.SyncOptions{
			Method:              req.Method,
			SimilarityThreshold: req.SimilarityThreshold,
		},
	})
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, result)
}
