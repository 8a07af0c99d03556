package script

import (
	"github.com/gin-gonic/gin"
)

// GetCheckpoint 获取检查点
// @Summary      获取检查点
// @Tags         脚本流水线
// @Produce      json
// @Param        script_id  path      int  true  "脚本ID"
// @Success      200        {object}  map[string]interface{}  "成功响应，没有检查点时 data.checkpoint 为 null"
// @Router       /scripts/{script_id}/checkpoint [get]
func (h *Handler) GetCheckpoint(c *gin.Context) {
	scriptID, ok := bindScriptID(c)
	if !ok {
		return
	}
	cp, err := h.pipeline.GetCheckpoint(c.Request.Context(), scriptID)
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, gin.H{"checkpoint": cp})
}

// ClearCheckpoint 清除检查点
// @Summary      清除检查点
// @Tags         脚本流水线
// @Produce      json
// @Param        script_id  path      int  true  "脚本ID"
// @Success      200        {object}  map[string]interface{}  "成功响应"
// @Router       /scripts/{script_id}/checkpoint [delete]
func (h *Handler) ClearCheckpoint(c *gin.Context) {
	scriptID, ok := bindScriptID(c)
	if !ok {
		return
	}
	if err := h.pipeline.ClearCheckpoint(c.Request.Context(), scriptID); err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, nil)
}
