package script

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNoPhrases 文档中没有短语列表
var ErrNoPhrases = errors.New("document has no phrases_with_video_prompts")

// 文档字段名
const (
	FieldAnalysis            = "analysis"
	FieldPhrases             = "phrases_with_video_prompts"
	FieldSynchronization     = "synchronization"
	FieldSegmentationSummary = "segmentation_summary"
)

// Document 阶段之间传递的脚本 JSON 文档
// 只解析短语列表，其余字段原样保留
type Document struct {
	Phrases []*Phrase

	fields map[string]json.RawMessage
	nested bool // 短语位于 analysis 下
}

// ParseDocument 解析脚本文档
// 短语优先从 analysis.phrases_with_video_prompts 读取，其次是顶层
func ParseDocument(data []byte) (*Document, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	doc := &Document{fields: fields}

	if raw, ok := fields[FieldAnalysis]; ok {
		var analysis map[string]json.RawMessage
		if err := json.Unmarshal(raw, &analysis); err == nil {
			if phrasesRaw, ok := analysis[FieldPhrases]; ok {
				if err := json.Unmarshal(phrasesRaw, &doc.Phrases); err != nil {
					return nil, fmt.Errorf("failed to parse analysis phrases: %w", err)
				}
				doc.nested = true
				return doc, nil
			}
		}
	}

	phrasesRaw, ok := fields[FieldPhrases]
	if !ok {
		return nil, ErrNoPhrases
	}
	if err := json.Unmarshal(phrasesRaw, &doc.Phrases); err != nil {
		return nil, fmt.Errorf("failed to parse phrases: %w", err)
	}
	return doc, nil
}

// NewDocument 以短语列表构造顶层文档
func NewDocument(phrases []*Phrase) *Document {
	return &Document{
		Phrases: phrases,
		fields:  make(map[string]json.RawMessage),
	}
}

// Set 设置顶层字段
func (d *Document) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal field %s: %w", key, err)
	}
	if d.fields == nil {
		d.fields = make(map[string]json.RawMessage)
	}
	d.fields[key] = raw
	return nil
}

// Get 读取顶层字段，字段不存在时返回 false
func (d *Document) Get(key string, v any) (bool, error) {
	raw, ok := d.fields[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("failed to unmarshal field %s: %w", key, err)
	}
	return true, nil
}

// Has 顶层字段是否存在
func (d *Document) Has(key string) bool {
	_, ok := d.fields[key]
	return ok
}

// Marshal 序列化文档（两空格缩进，不转义 HTML 字符）
func (d *Document) Marshal() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(d.fields)+1)
	for k, v := range d.fields {
		out[k] = v
	}

	phrases := d.Phrases
	if phrases == nil {
		phrases = []*Phrase{}
	}
	phrasesRaw, err := encode(phrases, false)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal phrases: %w", err)
	}

	if d.nested {
		var analysis map[string]json.RawMessage
		if err := json.Unmarshal(out[FieldAnalysis], &analysis); err != nil {
			return nil, fmt.Errorf("failed to rebuild analysis: %w", err)
		}
		analysis[FieldPhrases] = phrasesRaw
		analysisRaw, err := encode(analysis, false)
		if err != nil {
			return nil, err
		}
		out[FieldAnalysis] = analysisRaw
	} else {
		out[FieldPhrases] = phrasesRaw
	}

	return encode(out, true)
}

func encode(v any, indent bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// SynchronizationSummary 同步阶段统计
type SynchronizationSummary struct {
	SynchronizedAt      time.Time  `json:"synchronized_at"`
	Method              SyncMethod `json:"method"`
	SimilarityThreshold float64    `json:"similarity_threshold"`
	TotalPhrases        int        `json:"total_phrases"`
	MatchedPhrases      int        `json:"matched_phrases"`
	UnmatchedPhrases    int        `json:"unmatched_phrases"`
}

// SegmentationRulesUsed 分段规则快照
type SegmentationRulesUsed struct {
	MaxSegmentDuration       float64 `json:"max_segment_duration"`
	MinSegmentDuration       float64 `json:"min_segment_duration"`
	PreferEqualSegments      bool    `json:"prefer_equal_segments"`
	MinimumDurationToSegment float64 `json:"minimum_duration_to_segment"`
}

// SegmentationSummary 分段阶段统计
type SegmentationSummary struct {
	TotalPhrases             int                   `json:"total_phrases"`
	PhrasesSegmented         int                   `json:"phrases_segmented"`
	PhrasesNotSegmented      int                   `json:"phrases_not_segmented"`
	TotalSegmentsCreated     int                   `json:"total_segments_created"`
	AverageSegmentsPerPhrase float64               `json:"average_segments_per_phrase"`
	AdaptationErrors         int                   `json:"adaptation_errors"`
	SegmentationRulesUsed    SegmentationRulesUsed `json:"segmentation_rules_used"`
	ProcessedAt              time.Time             `json:"processed_at"`
}
