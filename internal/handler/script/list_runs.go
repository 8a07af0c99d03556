package script

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListRunsRequest 运行记录查询参数
type ListRunsRequest struct {
	ScriptID int   `form:"script_id"` // 为空时返回全部脚本
	Page     int64 `form:"page"`
	PageSize int64 `form:"page_size"`
}

// ListRuns 查询运行记录
// @Summary      查询运行记录
// @Description  需要配置 MongoDB
// @Tags         脚本流水线
// @Produce      json
// @Param        script_id  query     int  false  "脚本ID"
// @Param        page       query     int  false  "页码"
// @Param        page_size  query     int  false  "每页数量"
// @Success      200        {object}  map[string]interface{}  "成功响应"
// @Failure      503        {object}  ErrorResponse  "未配置 MongoDB"
// @Router       /runs [get]
func (h *Handler) ListRuns(c *gin.Context) {
	var req ListRunsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40001,
			Message: "Invalid query",
			Detail:  err.Error(),
		})
		return
	}

	result, err := h.pipeline.ListRuns(c.Request.Context(), req.ScriptID, req.Page, req.PageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	writeSuccess(c, result)
}
