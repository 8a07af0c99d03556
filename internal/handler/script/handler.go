package script

import (
	"reelforge/internal/service"
)

// Handler 脚本流水线 HTTP 处理器
type Handler struct {
	pipeline service.PipelineService
}

// NewHandler 创建脚本流水线处理器
func NewHandler(pipeline service.PipelineService) *Handler {
	return &Handler{pipeline: pipeline}
}
