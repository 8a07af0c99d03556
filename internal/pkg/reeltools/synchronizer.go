package reeltools

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"reelforge/internal/model/script"
)

// segmentPool 尚未被占用的口播片段集合
// 每次占用返回新的集合，短语处理顺序决定匹配结果
type segmentPool struct {
	segments []script.SpokenSegment
	consumed []bool
}

func newSegmentPool(segments []script.SpokenSegment) segmentPool {
	return segmentPool{
		segments: segments,
		consumed: make([]bool, len(segments)),
	}
}

// take 占用第 i 个片段
func (p segmentPool) take(i int) segmentPool {
	consumed := make([]bool, len(p.consumed))
	copy(consumed, p.consumed)
	consumed[i] = true
	return segmentPool{segments: p.segments, consumed: consumed}
}

// available 按时间顺序返回未占用片段的下标
func (p segmentPool) available() []int {
	idx := make([]int, 0, len(p.segments))
	for i, used := range p.consumed {
		if !used {
			idx = append(idx, i)
		}
	}
	return idx
}

// syncStrategy 一种短语与字幕的匹配算法
// 返回的时间信息与 phrases 一一对应
type syncStrategy interface {
	method() script.SyncMethod
	match(phrases []*script.Phrase, pool segmentPool) []*script.TimingAnnotation
}

// similarityStrategy 贪心相似度匹配：按短语顺序在剩余片段中取最高分，达到阈值即占用
type similarityStrategy struct {
	threshold float64
}

func (s similarityStrategy) method() script.SyncMethod { return script.SyncMethodSimilarity }

func (s similarityStrategy) match(phrases []*script.Phrase, pool segmentPool) []*script.TimingAnnotation {
	timings, _ := s.greedy(phrases, pool)
	for i := range timings {
		if timings[i] == nil {
			timings[i] = script.NewUnmatchedTiming(script.TimingStatusNoMatch)
		}
	}
	return timings
}

// greedy 相似度匹配，未匹配的短语位置为 nil
func (s similarityStrategy) greedy(phrases []*script.Phrase, pool segmentPool) ([]*script.TimingAnnotation, segmentPool) {
	timings := make([]*script.TimingAnnotation, len(phrases))
	for pi, phrase := range phrases {
		best, bestScore := -1, 0.0
		for _, si := range pool.available() {
			score := Similarity(phrase.Text, pool.segments[si].Text)
			// 同分保留时间靠前的片段
			if best < 0 || score > bestScore {
				best, bestScore = si, score
			}
		}
		if best < 0 || bestScore < s.threshold {
			log.Debug().
				Int("phrase_number", phrase.PhraseNumber).
				Float64("best_score", bestScore).
				Msg("短语未达到相似度阈值")
			continue
		}
		pool = pool.take(best)
		timings[pi] = script.NewMatchedTiming(pool.segments[best], bestScore, script.MatchMethodSimilarity)
	}
	return timings, pool
}

// orderStrategy 按位置匹配：第 i 个短语对应第 i 个片段
type orderStrategy struct{}

func (orderStrategy) method() script.SyncMethod { return script.SyncMethodOrder }

func (orderStrategy) match(phrases []*script.Phrase, pool segmentPool) []*script.TimingAnnotation {
	timings := make([]*script.TimingAnnotation, len(phrases))
	for i, phrase := range phrases {
		if i >= len(pool.segments) {
			timings[i] = script.NewUnmatchedTiming(script.TimingStatusNoSegment)
			continue
		}
		seg := pool.segments[i]
		timings[i] = script.NewMatchedTiming(seg, Similarity(phrase.Text, seg.Text), script.MatchMethodOrder)
	}
	return timings
}

// hybridStrategy 先做相似度匹配，再把剩余片段按顺序分配给未匹配的短语
type hybridStrategy struct {
	similarity similarityStrategy
}

func (hybridStrategy) method() script.SyncMethod { return script.SyncMethodHybrid }

func (s hybridStrategy) match(phrases []*script.Phrase, pool segmentPool) []*script.TimingAnnotation {
	timings, pool := s.similarity.greedy(phrases, pool)

	leftover := pool.available()
	for pi, phrase := range phrases {
		if timings[pi] != nil {
			continue
		}
		if len(leftover) == 0 {
			timings[pi] = script.NewUnmatchedTiming(script.TimingStatusNoMatch)
			continue
		}
		si := leftover[0]
		leftover = leftover[1:]
		pool = pool.take(si)
		seg := pool.segments[si]
		timings[pi] = script.NewMatchedTiming(seg, Similarity(phrase.Text, seg.Text), script.MatchMethodHybridOrder)
	}
	return timings
}

// Synchronizer 短语与字幕时间轴同步器
type Synchronizer struct {
	threshold float64
	strategy  syncStrategy
}

// NewSynchronizer 创建同步器
// 未知的同步方法返回 ErrUnknownSyncMethod，阈值不在 [0, 1] 返回 ErrInvalidThreshold
func NewSynchronizer(method script.SyncMethod, threshold float64) (*Synchronizer, error) {
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidThreshold, threshold)
	}

	var strategy syncStrategy
	switch method {
	case script.SyncMethodSimilarity:
		strategy = similarityStrategy{threshold: threshold}
	case script.SyncMethodOrder:
		strategy = orderStrategy{}
	case script.SyncMethodHybrid:
		strategy = hybridStrategy{similarity: similarityStrategy{threshold: threshold}}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSyncMethod, method)
	}

	return &Synchronizer{threshold: threshold, strategy: strategy}, nil
}

// Method 返回同步方法
func (s *Synchronizer) Method() script.SyncMethod {
	return s.strategy.method()
}

// Threshold 返回相似度阈值
func (s *Synchronizer) Threshold() float64 {
	return s.threshold
}

// Synchronize 为每个短语匹配口播时间窗口
// 返回短语的浅拷贝（附带 Timing），不修改入参；片段时间无效时返回 ValidationError
func (s *Synchronizer) Synchronize(phrases []*script.Phrase, spoken []script.SpokenSegment) ([]*script.Phrase, error) {
	if err := ValidateSpokenSegments(spoken); err != nil {
		return nil, err
	}

	result := make([]*script.Phrase, 0, len(phrases))
	if len(phrases) == 0 {
		return result, nil
	}

	timings := s.strategy.match(phrases, newSegmentPool(spoken))
	matched := 0
	for i, phrase := range phrases {
		cp := *phrase
		cp.Timing = timings[i]
		if cp.Timing.Matched() {
			matched++
		}
		result = append(result, &cp)
	}

	log.Info().
		Str("method", s.Method().String()).
		Float64("threshold", s.threshold).
		Int("phrases", len(phrases)).
		Int("spoken_segments", len(spoken)).
		Int("matched", matched).
		Msg("短语同步完成")
	return result, nil
}

// Summarize 生成同步阶段统计
func Summarize(phrases []*script.Phrase, method script.SyncMethod, threshold float64, now time.Time) script.SynchronizationSummary {
	summary := script.SynchronizationSummary{
		SynchronizedAt:      now,
		Method:              method,
		SimilarityThreshold: threshold,
		TotalPhrases:        len(phrases),
	}
	for _, p := range phrases {
		if p.Timing.Matched() {
			summary.MatchedPhrases++
		}
	}
	summary.UnmatchedPhrases = summary.TotalPhrases - summary.MatchedPhrases
	return summary
}
