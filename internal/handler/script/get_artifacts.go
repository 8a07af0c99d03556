package script

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetSynchronized 获取同步结果
// @Summary      获取同步结果
// @Tags         脚本流水线
// @Produce      json
// @Param        script_id  path      int  true  "脚本ID"
// @Success      200        {object}  map[string]interface{}  "同步结果文档"
// @Failure      404        {object}  ErrorResponse  "文件不存在"
// @Router       /scripts/{script_id}/synchronized [get]
func (h *Handler) GetSynchronized(c *gin.Context) {
	scriptID, ok := bindScriptID(c)
	if !ok {
		return
	}
	doc, err := h.pipeline.GetSynchronized(c.Request.Context(), scriptID)
	if err != nil {
		writeError(c, err)
		return
	}
	data, err := doc.Marshal()
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

// GetSegmented 获取分段结果
// @Summary      获取分段结果
// @Tags         脚本流水线
// @Produce      json
// @Param        script_id  path      int  true  "脚本ID"
// @Success      200        {object}  map[string]interface{}  "分段结果文档"
// @Failure      404        {object}  ErrorResponse  "文件不存在"
// @Router       /scripts/{script_id}/segmented [get]
func (h *Handler) GetSegmented(c *gin.Context) {
	scriptID, ok := bindScriptID(c)
	if !ok {
		return
	}
	doc, err := h.pipeline.GetSegmented(c.Request.Context(), scriptID)
	if err != nil {
		writeError(c, err)
		return
	}
	data, err := doc.Marshal()
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

// GetJobs 获取下游视频任务
// @Summary      获取视频任务
// @Description  根据分段结果生成视频任务列表，仅主持人出镜的短语不生成任务
// @Tags         脚本流水线
// @Produce      json
// @Param        script_id  path      int  true  "脚本ID"
// @Success      200        {object}  map[string]interface{}  "成功响应"
// @Failure      404        {object}  ErrorResponse  "分段结果不存在"
// @Router       /scripts/{script_id}/jobs [get]
func (h *Handler) GetJobs(c *gin.Context) {
	scriptID, ok := bindScriptID(c)
	if !ok {
		return
	}
	jobs, err := h.pipeline.PlanVideoJobs(c.Request.Context(), scriptID)
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, gin.H{"jobs": jobs, "total": len(jobs)})
}
