package script

import (
	"github.com/gin-gonic/gin"
)

// Segment 切分长短语并改写分段提示词
// @Summary      生成分段提示词
// @Description  读取同步结果，按时长切分长短语并调用 LLM 改写每段提示词
// @Tags         脚本流水线
// @Produce      json
// @Param        script_id  path      int  true  "脚本ID"
// @Success      200        {object}  map[string]interface{}  "成功响应"
// @Failure      404        {object}  ErrorResponse  "同步结果不存在"
// @Failure      500        {object}  ErrorResponse  "服务器内部错误"
// @Router       /scripts/{script_id}/segment [post]
func (h *Handler) Segment(c *gin.Context) {
	scriptID, ok := bindScriptID(c)
	if !ok {
		return
	}

	result, err := h.pipeline.Segment(c.Request.Context(), scriptID)
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, result)
}
