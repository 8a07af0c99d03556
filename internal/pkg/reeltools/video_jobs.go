package reeltools

import (
	"strings"

	"reelforge/internal/model/script"
)

// DefaultJobDuration 短语缺少时间信息时的镜头时长（秒）
const DefaultJobDuration = 3.0

// PlanVideoJobs 根据分段结果生成下游视频任务
// 仅主持人出镜的短语不生成任务；已分段的短语每段一个任务，其余短语使用原始提示词
func PlanVideoJobs(scriptID int, phrases []*script.Phrase) []script.VideoJob {
	jobs := make([]script.VideoJob, 0, len(phrases))
	for _, phrase := range phrases {
		if !phrase.EditingSuggestion.NeedsFootage() {
			continue
		}

		if seg := phrase.Segmentation; seg != nil && seg.NeedsSegmentation {
			for _, w := range seg.Segments {
				prompt := cleanJobPrompt(w.AdaptedPrompt)
				if prompt == "" {
					continue
				}
				duration := w.Timing.Duration
				if duration <= 0 {
					duration = DefaultJobDuration
				}
				focus := w.NarrativeFocus
				if focus == "" {
					focus = script.FocusDevelopment
				}
				jobs = append(jobs, script.VideoJob{
					ScriptID:       scriptID,
					PhraseNumber:   phrase.PhraseNumber,
					SegmentNumber:  w.SegmentNumber,
					Prompt:         prompt,
					Duration:       duration,
					NarrativeFocus: focus,
					IsSegmented:    true,
				})
			}
			continue
		}

		prompt := cleanJobPrompt(phrase.Prompt())
		if prompt == "" {
			continue
		}
		duration := DefaultJobDuration
		if _, d, ok := phrase.Timing.Window(); ok && d > 0 {
			duration = d
		}
		jobs = append(jobs, script.VideoJob{
			ScriptID:       scriptID,
			PhraseNumber:   phrase.PhraseNumber,
			SegmentNumber:  1,
			Prompt:         prompt,
			Duration:       duration,
			NarrativeFocus: script.FocusComplete,
			IsSegmented:    false,
		})
	}
	return jobs
}

func cleanJobPrompt(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), `"`))
}
