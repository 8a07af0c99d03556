package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"reelforge/internal/config"
	"reelforge/internal/model/run"
	"reelforge/internal/model/script"
	"reelforge/internal/pkg/events"
	"reelforge/internal/pkg/reeltools"
	"reelforge/internal/pkg/runlock"
	"reelforge/internal/repository/artifact"
	runrepo "reelforge/internal/repository/run"
)

// ErrRunHistoryDisabled 未配置 MongoDB 时无法查询运行记录
var ErrRunHistoryDisabled = errors.New("run history requires mongo")

// PipelineService 短语同步与分段流水线服务接口
type PipelineService interface {
	// Synchronize 阶段 4：把短语对齐到字幕时间轴并写入同步结果
	Synchronize(ctx context.Context, scriptID int, opts SyncOptions) (*SyncResult, error)
	// Segment 阶段 5：切分长短语并改写分段提示词
	Segment(ctx context.Context, scriptID int) (*SegmentResult, error)
	// Run 依次执行阶段 4 和 5，支持检查点续跑
	Run(ctx context.Context, scriptID int, opts RunOptions) (*RunResult, error)
	// PlanVideoJobs 根据分段结果生成下游视频任务
	PlanVideoJobs(ctx context.Context, scriptID int) ([]script.VideoJob, error)

	GetSynchronized(ctx context.Context, scriptID int) (*script.Document, error)
	GetSegmented(ctx context.Context, scriptID int) (*script.Document, error)
	GetCheckpoint(ctx context.Context, scriptID int) (*script.Checkpoint, error)
	ClearCheckpoint(ctx context.Context, scriptID int) error
	ListRuns(ctx context.Context, scriptID int, page, pageSize int64) (*RunListResult, error)
}

// SyncOptions 同步参数，为空时使用配置值
type SyncOptions struct {
	Method              string   `json:"method"`
	SimilarityThreshold *float64 `json:"similarity_threshold"`
}

// SyncResult 同步阶段结果
type SyncResult struct {
	ScriptID  int                           `json:"script_id"`
	Summary   script.SynchronizationSummary `json:"summary"`
	OutputKey string                        `json:"output_key"`
	Location  string                        `json:"location"`
}

// SegmentResult 分段阶段结果
type SegmentResult struct {
	ScriptID  int                        `json:"script_id"`
	Summary   script.SegmentationSummary `json:"summary"`
	OutputKey string                     `json:"output_key"`
	Location  string                     `json:"location"`
}

// RunListResult 运行记录列表结果
type RunListResult struct {
	Runs     []*run.PipelineRun `json:"runs"`
	Total    int64              `json:"total"`
	Page     int64              `json:"page"`
	PageSize int64              `json:"page_size"`
}

// PipelineDeps 流水线服务依赖
// Runs、Publisher、Locker 为可选依赖
type PipelineDeps struct {
	Artifacts    artifact.ArtifactRepository
	Adapter      *reeltools.PromptAdapter
	Runs         runrepo.RunRepository
	Publisher    events.Publisher
	Locker       *runlock.Locker
	Sync         config.SyncConfig
	Segmentation config.SegmentationConfig
}

type pipelineService struct {
	artifacts   artifact.ArtifactRepository
	adapter     *reeltools.PromptAdapter
	runs        runrepo.RunRepository
	publisher   events.Publisher
	locker      *runlock.Locker
	syncCfg     config.SyncConfig
	segmenter   *reeltools.Segmenter
	concurrency int
	now         func() time.Time
}

// NewPipelineService 创建 PipelineService
func NewPipelineService(deps PipelineDeps) (PipelineService, error) {
	if deps.Artifacts == nil {
		return nil, fmt.Errorf("artifact repository is required")
	}

	segmenter, err := reeltools.NewSegmenter(rulesFromConfig(deps.Segmentation))
	if err != nil {
		return nil, err
	}

	adapter := deps.Adapter
	if adapter == nil {
		adapter = reeltools.NewPromptAdapter(nil)
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	concurrency := deps.Segmentation.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	return &pipelineService{
		artifacts:   deps.Artifacts,
		adapter:     adapter,
		runs:        deps.Runs,
		publisher:   publisher,
		locker:      deps.Locker,
		syncCfg:     deps.Sync,
		segmenter:   segmenter,
		concurrency: concurrency,
		now:         time.Now,
	}, nil
}

func rulesFromConfig(cfg config.SegmentationConfig) reeltools.SegmentationRules {
	return reeltools.SegmentationRules{
		MaxSegmentDuration:       cfg.MaxSegmentDuration,
		MinSegmentDuration:       cfg.MinSegmentDuration,
		PreferEqualSegments:      cfg.PreferEqualSegments,
		MinimumDurationToSegment: cfg.MinimumDurationToSegment,
	}
}

// synchronizer 根据请求参数与配置创建同步器
func (s *pipelineService) synchronizer(opts SyncOptions) (*reeltools.Synchronizer, error) {
	methodName := opts.Method
	if methodName == "" {
		methodName = s.syncCfg.Method
	}
	method, err := script.ParseSyncMethod(methodName)
	if err != nil {
		return nil, err
	}

	threshold := s.syncCfg.SimilarityThreshold
	if opts.SimilarityThreshold != nil {
		threshold = *opts.SimilarityThreshold
	}
	return reeltools.NewSynchronizer(method, threshold)
}

func (s *pipelineService) Synchronize(ctx context.Context, scriptID int, opts SyncOptions) (*SyncResult, error) {
	unlock, err := s.lock(scriptID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return s.synchronize(ctx, scriptID, opts)
}

func (s *pipelineService) synchronize(ctx context.Context, scriptID int, opts SyncOptions) (*SyncResult, error) {
	synchronizer, err := s.synchronizer(opts)
	if err != nil {
		return nil, err
	}

	doc, err := s.artifacts.LoadRelease(ctx, scriptID)
	if err != nil {
		return nil, fmt.Errorf("failed to load phrase analysis: %w", err)
	}
	spoken, err := s.artifacts.LoadSubtitles(ctx, scriptID)
	if err != nil {
		return nil, fmt.Errorf("failed to load subtitles: %w", err)
	}

	phrases, err := synchronizer.Synchronize(doc.Phrases, spoken)
	if err != nil {
		return nil, fmt.Errorf("failed to synchronize phrases: %w", err)
	}
	doc.Phrases = phrases

	summary := reeltools.Summarize(phrases, synchronizer.Method(), synchronizer.Threshold(), s.now())
	if err := doc.Set(script.FieldSynchronization, summary); err != nil {
		return nil, fmt.Errorf("failed to set synchronization summary: %w", err)
	}

	location, err := s.artifacts.SaveSynchronized(ctx, scriptID, doc)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("script_id", scriptID).
		Str("method", summary.Method.String()).
		Int("total_phrases", summary.TotalPhrases).
		Int("matched_phrases", summary.MatchedPhrases).
		Str("location", location).
		Msg("阶段 4 同步完成")

	return &SyncResult{
		ScriptID:  scriptID,
		Summary:   summary,
		OutputKey: artifact.SynchronizedKey(scriptID),
		Location:  location,
	}, nil
}

// adaptTask 待改写的短语
type adaptTask struct {
	phrase *script.Phrase
	req    reeltools.AdaptRequest
}

func (s *pipelineService) Segment(ctx context.Context, scriptID int) (*SegmentResult, error) {
	unlock, err := s.lock(scriptID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return s.segment(ctx, scriptID)
}

func (s *pipelineService) segment(ctx context.Context, scriptID int) (*SegmentResult, error) {
	doc, err := s.artifacts.LoadSynchronized(ctx, scriptID)
	if err != nil {
		return nil, fmt.Errorf("failed to load synchronized script: %w", err)
	}

	phrases := make([]*script.Phrase, 0, len(doc.Phrases))
	var tasks []adaptTask
	for _, p := range doc.Phrases {
		cp := *p
		decision, windows := s.segmenter.Decide(&cp)
		cp.Segmentation = decision
		phrases = append(phrases, &cp)

		if decision.NeedsSegmentation {
			tasks = append(tasks, adaptTask{
				phrase: &cp,
				req: reeltools.AdaptRequest{
					PhraseNumber:      cp.PhraseNumber,
					OriginalPrompt:    cp.Prompt(),
					EditingSuggestion: cp.EditingSuggestion,
					Duration:          decision.OriginalDuration,
					Windows:           windows,
				},
			})
		}
	}

	log.Info().
		Int("script_id", scriptID).
		Int("total_phrases", len(phrases)).
		Int("phrases_to_segment", len(tasks)).
		Int("concurrency", s.concurrency).
		Msg("开始改写分段提示词")

	s.adaptAll(ctx, tasks)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc.Phrases = phrases
	summary := summarizeSegmentation(phrases, s.segmenter.Rules(), s.now())
	if err := doc.Set(script.FieldSegmentationSummary, summary); err != nil {
		return nil, fmt.Errorf("failed to set segmentation summary: %w", err)
	}

	location, err := s.artifacts.SaveSegmented(ctx, scriptID, doc)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("script_id", scriptID).
		Int("phrases_segmented", summary.PhrasesSegmented).
		Int("segments_created", summary.TotalSegmentsCreated).
		Int("adaptation_errors", summary.AdaptationErrors).
		Str("location", location).
		Msg("阶段 5 分段完成")

	return &SegmentResult{
		ScriptID:  scriptID,
		Summary:   summary,
		OutputKey: artifact.SegmentedKey(scriptID),
		Location:  location,
	}, nil
}

// adaptAll 并发改写，每个任务只写自己的短语
func (s *pipelineService) adaptAll(ctx context.Context, tasks []adaptTask) {
	var wg sync.WaitGroup
	sem := make(chan struct{}, s.concurrency)

	for _, task := range tasks {
		wg.Add(1)
		go func(t adaptTask) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				t.phrase.Segmentation.Segments = reeltools.FallbackWindows(t.req)
				t.phrase.Segmentation.Error = ctx.Err().Error()
				return
			}

			windows, err := s.adapter.Adapt(ctx, t.req)
			t.phrase.Segmentation.Segments = windows
			if err != nil {
				t.phrase.Segmentation.Error = err.Error()
				log.Warn().Err(err).
					Int("phrase_number", t.req.PhraseNumber).
					Int("segments", len(windows)).
					Msg("分段提示词改写失败，使用兜底提示词")
			}
		}(task)
	}

	wg.Wait()
}

func summarizeSegmentation(phrases []*script.Phrase, rules reeltools.SegmentationRules, now time.Time) script.SegmentationSummary {
	summary := script.SegmentationSummary{
		TotalPhrases:          len(phrases),
		SegmentationRulesUsed: rules.Snapshot(),
		ProcessedAt:           now,
	}
	for _, p := range phrases {
		d := p.Segmentation
		if d == nil || !d.NeedsSegmentation {
			continue
		}
		summary.PhrasesSegmented++
		summary.TotalSegmentsCreated += d.TotalSegments
		if d.Error != "" {
			summary.AdaptationErrors++
		}
	}
	summary.PhrasesNotSegmented = summary.TotalPhrases - summary.PhrasesSegmented
	if summary.PhrasesSegmented > 0 {
		summary.AverageSegmentsPerPhrase = float64(summary.TotalSegmentsCreated) / float64(summary.PhrasesSegmented)
	}
	return summary
}

func (s *pipelineService) PlanVideoJobs(ctx context.Context, scriptID int) ([]script.VideoJob, error) {
	doc, err := s.artifacts.LoadSegmented(ctx, scriptID)
	if err != nil {
		return nil, fmt.Errorf("failed to load segmented script: %w", err)
	}
	return reeltools.PlanVideoJobs(scriptID, doc.Phrases), nil
}

func (s *pipelineService) GetSynchronized(ctx context.Context, scriptID int) (*script.Document, error) {
	return s.artifacts.LoadSynchronized(ctx, scriptID)
}

func (s *pipelineService) GetSegmented(ctx context.Context, scriptID int) (*script.Document, error) {
	return s.artifacts.LoadSegmented(ctx, scriptID)
}

func (s *pipelineService) GetCheckpoint(ctx context.Context, scriptID int) (*script.Checkpoint, error) {
	return s.artifacts.LoadCheckpoint(ctx, scriptID)
}

func (s *pipelineService) ClearCheckpoint(ctx context.Context, scriptID int) error {
	return s.artifacts.ClearCheckpoint(ctx, scriptID)
}

func (s *pipelineService) ListRuns(ctx context.Context, scriptID int, page, pageSize int64) (*RunListResult, error) {
	if s.runs == nil {
		return nil, ErrRunHistoryDisabled
	}
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 20
	}

	list, total, err := s.runs.List(ctx, scriptID, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return &RunListResult{Runs: list, Total: total, Page: page, PageSize: pageSize}, nil
}
