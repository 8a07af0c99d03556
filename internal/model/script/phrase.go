package script

import (
	"encoding/json"
)

// SpokenSegment 字幕时间轴中的一段实际口播
type SpokenSegment struct {
	Index int     `json:"index"` // 原字幕序号
	Start float64 `json:"start"` // 开始时间（秒）
	End   float64 `json:"end"`   // 结束时间（秒）
	Text  string  `json:"text"`  // 文本
}

// Duration 时长（秒）
func (s SpokenSegment) Duration() float64 {
	return s.End - s.Start
}

// Phrase 脚本中的一句计划旁白，附带同步与分段结果
// 未识别的 JSON 字段会原样保留，重写文档时不丢失上游信息
type Phrase struct {
	PhraseNumber      int                   `json:"phrase_number"`
	Text              string                `json:"phrase"`
	Category          string                `json:"category"`
	EditingSuggestion EditingSuggestion     `json:"editing_suggestion"`
	VideoPrompt       *string               `json:"video_prompt"`
	Timing            *TimingAnnotation     `json:"timing,omitempty"`
	Segmentation      *SegmentationDecision `json:"segmentation,omitempty"`

	extra map[string]json.RawMessage
}

var phraseKnownFields = []string{
	"phrase_number", "phrase", "category", "editing_suggestion",
	"video_prompt", "timing", "segmentation",
}

// phraseAlias 避免 MarshalJSON/UnmarshalJSON 递归
type phraseAlias Phrase

// UnmarshalJSON 解析短语，保留未知字段
func (p *Phrase) UnmarshalJSON(data []byte) error {
	var alias phraseAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, k := range phraseKnownFields {
		delete(raw, k)
	}
	*p = Phrase(alias)
	if len(raw) > 0 {
		p.extra = raw
	}
	return nil
}

// MarshalJSON 序列化短语，合并未知字段（已知字段优先）
func (p Phrase) MarshalJSON() ([]byte, error) {
	data, err := encode(phraseAlias(p), false)
	if err != nil {
		return nil, err
	}
	if len(p.extra) == 0 {
		return data, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for k, v := range p.extra {
		if _, ok := merged[k]; !ok {
			merged[k] = v
		}
	}
	return encode(merged, false)
}

// Prompt 返回原始视频提示词（可能为空）
func (p *Phrase) Prompt() string {
	if p.VideoPrompt == nil {
		return ""
	}
	return *p.VideoPrompt
}

// TimingAnnotation 同步阶段写入的时间信息
// Method 为 none 时所有时间字段为 nil 且相似度为 0
type TimingAnnotation struct {
	StartTime       *float64    `json:"start_time"`
	EndTime         *float64    `json:"end_time"`
	Duration        *float64    `json:"duration"`
	MatchedText     *string     `json:"matched_text"`
	SimilarityScore float64     `json:"similarity_score"`
	Method          MatchMethod `json:"method"`
	Status          string      `json:"status,omitempty"`
}

// NewMatchedTiming 根据匹配到的字幕段构造时间信息
func NewMatchedTiming(seg SpokenSegment, score float64, method MatchMethod) *TimingAnnotation {
	start, end, dur, text := seg.Start, seg.End, seg.Duration(), seg.Text
	return &TimingAnnotation{
		StartTime:       &start,
		EndTime:         &end,
		Duration:        &dur,
		MatchedText:     &text,
		SimilarityScore: score,
		Method:          method,
	}
}

// NewUnmatchedTiming 构造未匹配的时间信息
func NewUnmatchedTiming(status string) *TimingAnnotation {
	return &TimingAnnotation{
		Method: MatchMethodNone,
		Status: status,
	}
}

// Matched 是否已匹配到时间窗口
func (t *TimingAnnotation) Matched() bool {
	return t != nil && t.Method != MatchMethodNone && t.StartTime != nil && t.EndTime != nil
}

// Window 返回开始时间与时长，未匹配时 ok 为 false
func (t *TimingAnnotation) Window() (start, duration float64, ok bool) {
	if !t.Matched() {
		return 0, 0, false
	}
	duration = *t.EndTime - *t.StartTime
	if t.Duration != nil {
		duration = *t.Duration
	}
	return *t.StartTime, duration, true
}

// SegmentationDecision 分段阶段写入的分段决策
type SegmentationDecision struct {
	NeedsSegmentation bool            `json:"needs_segmentation"`
	Reason            string          `json:"reason"`
	OriginalDuration  float64         `json:"original_duration"`
	TotalSegments     int             `json:"total_segments,omitempty"`
	Segments          []SegmentWindow `json:"segments,omitempty"`
	Error             string          `json:"error,omitempty"`
}

// WindowTiming 分段时间窗口
type WindowTiming struct {
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Duration  float64 `json:"duration"`
}

// SegmentWindow 短语时长中的一个子区间
// 同一短语的窗口首尾相接，恰好覆盖 [start, end]
type SegmentWindow struct {
	SegmentNumber     int               `json:"segment_number"`
	Timing            WindowTiming      `json:"timing"`
	AdaptedPrompt     string            `json:"adapted_prompt,omitempty"`
	NarrativeFocus    NarrativeFocus    `json:"narrative_focus,omitempty"`
	OriginalContext   string            `json:"original_context,omitempty"`
	OriginalPrompt    string            `json:"original_prompt,omitempty"`
	EditingSuggestion EditingSuggestion `json:"editing_suggestion,omitempty"`
}
