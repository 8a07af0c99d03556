package script

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"reelforge/internal/service"
)

// SynchronizeRequest 同步请求（均为可选，缺省使用配置）
type SynchronizeRequest struct {
	Method              string   `json:"method"`               // similarity / order / hybrid
	SimilarityThreshold *float64 `json:"similarity_threshold"` // 0-1
}

// Synchronize 同步短语与字幕
// @Summary      同步短语与字幕时间轴
// @Description  读取短语分析结果与字幕，为每个短语匹配口播时间并写入同步结果
// @Tags         脚本流水线
// @Accept       json
// @Produce      json
// @Param        script_id  path      int                 true   "脚本ID"
// @Param        request    body      SynchronizeRequest  false  "同步参数"
// @Success      200        {object}  map[string]interface{}  "成功响应"
// @Failure      400        {object}  ErrorResponse  "请求参数错误"
// @Failure      404        {object}  ErrorResponse  "输入文件不存在"
// @Failure      500        {object}  ErrorResponse  "服务器内部错误"
// @Router       /scripts/{script_id}/synchronize [post]
func (h *Handler) Synchronize(c *gin.Context) {
	scriptID, ok := bindScriptID(c)
	if !ok {
		return
	}

	var req SynchronizeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40001,
			Message: "Invalid request body",
			Detail:  err.Error(),
		})
		return
	}

	result, err := h.pipeline.Synchronize(c.Request.Context(), scriptID, service.SyncOptions{
		Method:              req.Method,
		SimilarityThreshold: req.SimilarityThreshold,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, result)
}
