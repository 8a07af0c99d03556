package reeltools

import (
	"fmt"
	"math"

	"reelforge/internal/model/script"
)

// SegmentationRules 时长分段规则
type SegmentationRules struct {
	MaxSegmentDuration       float64 `json:"max_segment_duration"`        // 单段最长时长（秒）
	MinSegmentDuration       float64 `json:"min_segment_duration"`        // 单段最短时长（秒）
	PreferEqualSegments      bool    `json:"prefer_equal_segments"`       // 两段时强制等分
	MinimumDurationToSegment float64 `json:"minimum_duration_to_segment"` // 低于该时长不分段
}

// DefaultSegmentationRules 默认分段规则
func DefaultSegmentationRules() SegmentationRules {
	return SegmentationRules{
		MaxSegmentDuration:       3.0,
		MinSegmentDuration:       2.0,
		PreferEqualSegments:      true,
		MinimumDurationToSegment: 4.0,
	}
}

// Validate 校验分段规则
func (r SegmentationRules) Validate() error {
	if r.MaxSegmentDuration <= 0 || r.MinSegmentDuration <= 0 {
		return fmt.Errorf("%w: segment durations must be positive", ErrInvalidRules)
	}
	if r.MinSegmentDuration > r.MaxSegmentDuration {
		return fmt.Errorf("%w: min_segment_duration %.2f exceeds max_segment_duration %.2f",
			ErrInvalidRules, r.MinSegmentDuration, r.MaxSegmentDuration)
	}
	if r.MinimumDurationToSegment < 0 {
		return fmt.Errorf("%w: minimum_duration_to_segment must not be negative", ErrInvalidRules)
	}
	return nil
}

// Snapshot 转为文档中记录的规则快照
func (r SegmentationRules) Snapshot() script.SegmentationRulesUsed {
	return script.SegmentationRulesUsed{
		MaxSegmentDuration:       r.MaxSegmentDuration,
		MinSegmentDuration:       r.MinSegmentDuration,
		PreferEqualSegments:      r.PreferEqualSegments,
		MinimumDurationToSegment: r.MinimumDurationToSegment,
	}
}

// Segmenter 按规则把短语时长切分为连续的时间窗口
type Segmenter struct {
	rules SegmentationRules
}

// NewSegmenter 创建分段器
func NewSegmenter(rules SegmentationRules) (*Segmenter, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return &Segmenter{rules: rules}, nil
}

// Rules 返回分段规则
func (s *Segmenter) Rules() SegmentationRules {
	return s.rules
}

// Calculate 计算时间窗口
// 窗口首尾相接，恰好覆盖 [start, start+duration]；时长低于阈值时只返回一个窗口
func (s *Segmenter) Calculate(duration, start float64) []script.SegmentWindow {
	end := start + duration
	if duration < s.rules.MinimumDurationToSegment {
		return []script.SegmentWindow{newWindow(1, start, end)}
	}

	n := int(math.Ceil(duration / s.rules.MaxSegmentDuration))
	if n < 1 {
		n = 1
	}

	var segDur float64
	if n == 2 && s.rules.PreferEqualSegments {
		segDur = duration / 2
	} else {
		segDur = duration / float64(n)
	}

	if segDur < s.rules.MinSegmentDuration && n > 1 {
		n = max(1, int(math.Floor(duration/s.rules.MinSegmentDuration)))
		segDur = duration / float64(n)
	}

	windows := make([]script.SegmentWindow, 0, n)
	for i := 0; i < n; i++ {
		// 边界由下标直接计算，避免累加误差
		wStart := start + float64(i)*segDur
		wEnd := start + float64(i+1)*segDur
		if i == n-1 {
			wEnd = end
		}
		windows = append(windows, newWindow(i+1, wStart, wEnd))
	}
	return windows
}

func newWindow(number int, start, end float64) script.SegmentWindow {
	return script.SegmentWindow{
		SegmentNumber: number,
		Timing: script.WindowTiming{
			StartTime: start,
			EndTime:   end,
			Duration:  end - start,
		},
	}
}

// FocusFor 按位置返回叙事作用：第一段开场，最后一段收尾，其余展开
func FocusFor(segmentNumber, total int) script.NarrativeFocus {
	switch {
	case segmentNumber <= 1:
		return script.FocusOpening
	case segmentNumber >= total:
		return script.FocusClosing
	default:
		return script.FocusDevelopment
	}
}

// AssignNarrativeFocus 为每个窗口设置叙事作用
func AssignNarrativeFocus(windows []script.SegmentWindow) {
	for i := range windows {
		windows[i].NarrativeFocus = FocusFor(windows[i].SegmentNumber, len(windows))
	}
}

// 不分段原因
const (
	ReasonNoPrompt       = "Duration too short or no video prompt"
	ReasonNoTiming       = "Phrase has no matched timing"
	ReasonSingleSegment  = "Single segment sufficient"
	reasonShortFormat    = "Duration < %gs"
	reasonSegmentsFormat = "Duration %.2fs split into %d segments"
)

// Decide 判断短语是否需要分段
// 需要分段时返回的窗口已设置叙事作用，提示词由调用方改写后写入 Segments
func (s *Segmenter) Decide(phrase *script.Phrase) (*script.SegmentationDecision, []script.SegmentWindow) {
	start, duration, ok := phrase.Timing.Window()
	decision := &script.SegmentationDecision{OriginalDuration: duration}

	switch {
	case phrase.Prompt() == "":
		decision.Reason = ReasonNoPrompt
		return decision, nil
	case !ok:
		decision.Reason = ReasonNoTiming
		return decision, nil
	case duration < s.rules.MinimumDurationToSegment:
		decision.Reason = fmt.Sprintf(reasonShortFormat, s.rules.MinimumDurationToSegment)
		return decision, nil
	}

	windows := s.Calculate(duration, start)
	if len(windows) == 1 {
		decision.Reason = ReasonSingleSegment
		return decision, nil
	}

	AssignNarrativeFocus(windows)
	decision.NeedsSegmentation = true
	decision.Reason = fmt.Sprintf(reasonSegmentsFormat, duration, len(windows))
	decision.TotalSegments = len(windows)
	return decision, windows
}
