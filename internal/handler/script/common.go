package script

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	httputil "reelforge/internal/pkg/http"
	"reelforge/internal/pkg/reeltools"
	"reelforge/internal/pkg/runlock"
	"reelforge/internal/repository/artifact"
	"reelforge/internal/service"
)

// ErrorResponse 错误响应类型别名（使用共用的 http.ErrorResponse）
type ErrorResponse = httputil.ErrorResponse

// ScriptURI 路径参数
type ScriptURI struct {
	ScriptID int `uri:"script_id" binding:"required,min=1"` // 脚本ID
}

// bindScriptID 解析路径中的脚本ID，失败时已写入响应
func bindScriptID(c *gin.Context) (int, bool) {
	var uri ScriptURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40001,
			Message: "Invalid script_id",
			Detail:  err.Error(),
		})
		return 0, false
	}
	return uri.ScriptID, true
}

// writeError 按错误类型返回状态码与错误码
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := 50001

	switch {
	case errors.Is(err, artifact.ErrArtifactNotFound), errors.Is(err, reeltools.ErrSubtitleNotFound):
		status, code = http.StatusNotFound, 40401
	case errors.Is(err, reeltools.ErrUnknownSyncMethod), errors.Is(err, reeltools.ErrInvalidThreshold):
		status, code = http.StatusBadRequest, 40002
	case errors.Is(err, runlock.ErrRunInProgress):
		status, code = http.StatusConflict, 40901
	case errors.Is(err, service.ErrRunHistoryDisabled):
		status, code = http.StatusServiceUnavailable, 50301
	}

	c.JSON(status, httputil.NewErrorResponse(code, http.StatusText(status), err.Error()))
}

func writeSuccess(c *gin.Context, data any) {
	c.JSON(http.StatusOK, httputil.NewSuccessResponse("success", data))
}
