package script

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownSyncMethod 未知的同步方法
var ErrUnknownSyncMethod = errors.New("unknown sync method")

// EditingSuggestion 剪辑建议（由上游短语分析阶段给出）
type EditingSuggestion string

const (
	EditingNarratorOnly     EditingSuggestion = "Narrator only on screen"         // 仅主持人出镜
	EditingNarratorAndVideo EditingSuggestion = "Narrator and video split screen" // 主持人与视频分屏
	EditingVideoOnly        EditingSuggestion = "Video only on screen"            // 仅视频画面
)

// String 返回剪辑建议的字符串表示
func (e EditingSuggestion) String() string {
	return string(e)
}

// NeedsFootage 该剪辑建议是否需要视频素材
func (e EditingSuggestion) NeedsFootage() bool {
	return e != EditingNarratorOnly
}

// MatchMethod 短语时间匹配方式
type MatchMethod string

const (
	MatchMethodSimilarity  MatchMethod = "similarity"   // 文本相似度匹配
	MatchMethodOrder       MatchMethod = "order"        // 按顺序匹配
	MatchMethodHybridOrder MatchMethod = "hybrid_order" // 混合模式的顺序补位
	MatchMethodNone        MatchMethod = "none"         // 未匹配
)

// String 返回匹配方式的字符串表示
func (m MatchMethod) String() string {
	return string(m)
}

// 未匹配状态
const (
	TimingStatusNoMatch   = "no_match"   // 相似度未达阈值且无补位
	TimingStatusNoSegment = "no_segment" // 顺序模式下字幕段不足
)

// SyncMethod 同步算法
type SyncMethod string

const (
	SyncMethodSimilarity SyncMethod = "similarity"
	SyncMethodOrder      SyncMethod = "order"
	SyncMethodHybrid     SyncMethod = "hybrid"
)

// String 返回同步算法的字符串表示
func (m SyncMethod) String() string {
	return string(m)
}

// ParseSyncMethod 解析同步算法，未知值返回 ErrUnknownSyncMethod
func ParseSyncMethod(s string) (SyncMethod, error) {
	switch m := SyncMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case SyncMethodSimilarity, SyncMethodOrder, SyncMethodHybrid:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSyncMethod, s)
	}
}

// NarrativeFocus 分段在叙事中的作用
type NarrativeFocus string

const (
	FocusOpening     NarrativeFocus = "opening"     // 开场
	FocusDevelopment NarrativeFocus = "development" // 展开
	FocusClosing     NarrativeFocus = "closing"     // 收尾
	FocusComplete    NarrativeFocus = "complete"    // 未分段的完整镜头（仅用于视频任务）
)

// String 返回叙事作用的字符串表示
func (f NarrativeFocus) String() string {
	return string(f)
}

// ParseNarrativeFocus 解析 LLM 返回的叙事作用，兼容西语标签（inicio/desarrollo/cierre）
// 无法识别时返回 false
func ParseNarrativeFocus(s string) (NarrativeFocus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "opening", "inicio", "start", "hook":
		return FocusOpening, true
	case "development", "desarrollo", "middle":
		return FocusDevelopment, true
	case "closing", "cierre", "end", "conclusion":
		return FocusClosing, true
	default:
		return "", false
	}
}
