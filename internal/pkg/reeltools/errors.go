package reeltools

import (
	"errors"
	"fmt"

	"reelforge/internal/model/script"
)

var (
	// ErrSubtitleNotFound 字幕文件不存在
	ErrSubtitleNotFound = errors.New("subtitle timeline not found")
	// ErrUnknownSyncMethod 未知的同步方法
	ErrUnknownSyncMethod = script.ErrUnknownSyncMethod
	// ErrInvalidThreshold 相似度阈值不在 [0, 1] 内
	ErrInvalidThreshold = errors.New("similarity threshold must be within [0, 1]")
	// ErrInvalidRules 分段规则无效
	ErrInvalidRules = errors.New("invalid segmentation rules")
)

// ParseError 字幕来源不可读
type ParseError struct {
	Source string // 字幕文件 key 或路径
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to read subtitle timeline %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError 时间数据违反约束（负时间、结束不晚于开始）
type ValidationError struct {
	Block  int // 字幕块序号（从 1 开始），0 表示非字幕块来源
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Block > 0 {
		return fmt.Sprintf("invalid subtitle block %d: %s", e.Block, e.Reason)
	}
	return "invalid timing: " + e.Reason
}
