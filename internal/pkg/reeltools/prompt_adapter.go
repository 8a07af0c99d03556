package reeltools

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"reelforge/internal/model/script"
)

const adapterInstructions = `You are a short-form video editor preparing vertical 9:16 educational clips.

Split the original video prompt below into one prompt per time segment. The segments play back to back and must read as one continuous sequence.

Segment roles:
- first segment ("opening"): hook the viewer with a dynamic establishing shot
- middle segments ("development"): build momentum with smooth transitions
- last segment ("closing"): end on a memorable frame

Every adapted prompt must mention the vertical 9:16 format, describe camera movement and lighting, and fit the segment duration.

Reply with JSON only, no commentary, in this shape:
{"segments":[{"segment_number":1,"adapted_prompt":"...","narrative_focus":"opening","original_context":"..."}]}
Return exactly one entry per segment timing, in the same order.`

// AdaptRequest 分段提示词改写请求
type AdaptRequest struct {
	PhraseNumber      int
	OriginalPrompt    string
	EditingSuggestion script.EditingSuggestion
	Duration          float64
	Windows           []script.SegmentWindow
}

// adaptedSegment LLM 返回的单段改写结果
type adaptedSegment struct {
	SegmentNumber   int    `json:"segment_number"`
	AdaptedPrompt   string `json:"adapted_prompt"`
	NarrativeFocus  string `json:"narrative_focus"`
	OriginalContext string `json:"original_context"`
}

type adaptedResponse struct {
	Segments []adaptedSegment `json:"segments"`
}

// PromptAdapter 分段提示词改写器
type PromptAdapter struct {
	llmProvider LLMProvider
	cache       PromptCache
}

// AdapterOption 改写器选项
type AdapterOption func(*PromptAdapter)

// WithPromptCache 设置改写结果缓存
func WithPromptCache(cache PromptCache) AdapterOption {
	return func(a *PromptAdapter) {
		a.cache = cache
	}
}

// NewPromptAdapter 创建分段提示词改写器
func NewPromptAdapter(llmProvider LLMProvider, opts ...AdapterOption) *PromptAdapter {
	a := &PromptAdapter{llmProvider: llmProvider}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Adapt 为每个时间窗口生成改写后的提示词
// 返回的窗口数量与顺序与请求一致；缺失的条目使用确定性的兜底提示词。
// 调用 LLM 失败或返回无法解析时，仍返回全部使用兜底提示词的窗口，同时返回错误
func (a *PromptAdapter) Adapt(ctx context.Context, req AdaptRequest) ([]script.SegmentWindow, error) {
	if len(req.Windows) == 0 {
		return []script.SegmentWindow{}, nil
	}

	if a.llmProvider == nil {
		return FallbackWindows(req), errors.New("llmProvider is required")
	}

	prompt, err := buildAdapterPrompt(req)
	if err != nil {
		return FallbackWindows(req), err
	}

	cacheKey := adapterCacheKey(prompt)
	content, cached := a.cacheGet(ctx, cacheKey)
	if !cached {
		content, err = a.llmProvider.Generate(ctx, prompt)
		if err != nil {
			return FallbackWindows(req), fmt.Errorf("failed to adapt segment prompts: %w", err)
		}
	}

	segments, err := parseAdaptedSegments(content)
	if err != nil {
		return FallbackWindows(req), err
	}
	if !cached && len(segments) > 0 {
		a.cacheSet(ctx, cacheKey, content)
	}

	if len(segments) < len(req.Windows) {
		log.Warn().
			Int("phrase_number", req.PhraseNumber).
			Int("expected", len(req.Windows)).
			Int("received", len(segments)).
			Msg("改写结果数量不足，缺失的分段使用兜底提示词")
	}

	return mergeAdapted(req, segments), nil
}

// FallbackWindows 全部窗口使用兜底提示词
func FallbackWindows(req AdaptRequest) []script.SegmentWindow {
	return mergeAdapted(req, nil)
}

// mergeAdapted 按位置合并改写结果，缺失的条目使用兜底提示词
func mergeAdapted(req AdaptRequest, segments []adaptedSegment) []script.SegmentWindow {
	total := len(req.Windows)
	windows := make([]script.SegmentWindow, total)
	for i, w := range req.Windows {
		w.OriginalPrompt = req.OriginalPrompt
		w.EditingSuggestion = req.EditingSuggestion

		if i < len(segments) && strings.TrimSpace(segments[i].AdaptedPrompt) != "" {
			seg := segments[i]
			w.AdaptedPrompt = strings.TrimSpace(seg.AdaptedPrompt)
			focus, ok := script.ParseNarrativeFocus(seg.NarrativeFocus)
			if !ok {
				focus = FocusFor(w.SegmentNumber, total)
			}
			w.NarrativeFocus = focus
			w.OriginalContext = seg.OriginalContext
		} else {
			w.AdaptedPrompt = fmt.Sprintf("%s (segment %d/%d)", req.OriginalPrompt, w.SegmentNumber, total)
			w.NarrativeFocus = script.FocusDevelopment
			w.OriginalContext = fmt.Sprintf("Segment %d of original prompt", w.SegmentNumber)
		}
		windows[i] = w
	}
	return windows
}

// buildAdapterPrompt 构建改写提示词（说明 + 原始提示词 + 分段时间 JSON）
func buildAdapterPrompt(req AdaptRequest) (string, error) {
	timings := make([]map[string]any, 0, len(req.Windows))
	for _, w := range req.Windows {
		timings = append(timings, map[string]any{
			"segment_number": w.SegmentNumber,
			"start_time":     w.Timing.StartTime,
			"end_time":       w.Timing.EndTime,
			"duration":       w.Timing.Duration,
		})
	}
	timingsJSON, err := json.MarshalIndent(timings, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal segment timings: %w", err)
	}

	var b strings.Builder
	b.WriteString(adapterInstructions)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Original video prompt: %s\n", req.OriginalPrompt)
	fmt.Fprintf(&b, "Editing suggestion: %s\n", req.EditingSuggestion)
	fmt.Fprintf(&b, "Original duration: %.2f seconds\n", req.Duration)
	fmt.Fprintf(&b, "Total segments needed: %d\n\n", len(req.Windows))
	b.WriteString("Segment timings:\n")
	b.Write(timingsJSON)
	b.WriteString("\n")
	return b.String(), nil
}

// parseAdaptedSegments 解析 LLM 返回，兼容 {"segments":[...]} 与顶层数组
func parseAdaptedSegments(content string) ([]adaptedSegment, error) {
	cleaned := CleanJSONContent(content)
	if cleaned == "" {
		return nil, errors.New("empty adapter response")
	}

	if strings.HasPrefix(cleaned, "[") {
		var segments []adaptedSegment
		if err := json.Unmarshal([]byte(cleaned), &segments); err != nil {
			return nil, fmt.Errorf("failed to parse adapter response: %w", err)
		}
		return segments, nil
	}

	var resp adaptedResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse adapter response: %w", err)
	}
	return resp.Segments, nil
}

func adapterCacheKey(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return "reelforge:adapt:" + hex.EncodeToString(sum[:])
}

func (a *PromptAdapter) cacheGet(ctx context.Context, key string) (string, bool) {
	if a.cache == nil {
		return "", false
	}
	value, ok, err := a.cache.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("读取改写缓存失败")
		return "", false
	}
	return value, ok
}

func (a *PromptAdapter) cacheSet(ctx context.Context, key, value string) {
	if a.cache == nil {
		return
	}
	if err := a.cache.Set(ctx, key, value); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("写入改写缓存失败")
	}
}
