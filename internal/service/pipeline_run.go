package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"reelforge/internal/model/run"
	"reelforge/internal/model/script"
	"reelforge/internal/pkg/events"
	"reelforge/internal/pkg/id"
	"reelforge/internal/repository/artifact"
)

// RunOptions 流水线运行参数
type RunOptions struct {
	Force bool        `json:"force"` // 忽略检查点，全部重新执行
	Sync  SyncOptions `json:"sync"`
}

// RunResult 流水线运行结果
type RunResult struct {
	RunID   string            `json:"run_id"`
	Stages  []run.StageResult `json:"stages"`
	Sync    *SyncResult       `json:"sync,omitempty"`
	Segment *SegmentResult    `json:"segment,omitempty"`
	Jobs    []script.VideoJob `json:"jobs"`
}

func (s *pipelineService) Run(ctx context.Context, scriptID int, opts RunOptions) (*RunResult, error) {
	unlock, err := s.lock(scriptID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	result := &RunResult{RunID: id.New()}
	record := &run.PipelineRun{
		ID:                  result.RunID,
		ScriptID:            scriptID,
		Status:              run.StatusRunning,
		Force:               opts.Force,
		SyncMethod:          s.syncCfg.Method,
		SimilarityThreshold: s.syncCfg.SimilarityThreshold,
	}
	if opts.Sync.Method != "" {
		record.SyncMethod = opts.Sync.Method
	}
	if opts.Sync.SimilarityThreshold != nil {
		record.SimilarityThreshold = *opts.Sync.SimilarityThreshold
	}
	s.createRun(ctx, record)

	log.Info().
		Str("run_id", result.RunID).
		Int("script_id", scriptID).
		Bool("force", opts.Force).
		Msg("开始运行流水线")

	err = s.runStages(ctx, scriptID, opts, result, record)
	record.Stages = result.Stages
	completedAt := s.now()
	record.CompletedAt = &completedAt
	if err != nil {
		record.Status = run.StatusFailed
		record.Error = err.Error()
		s.updateRun(ctx, record)
		log.Error().Err(err).
			Str("run_id", result.RunID).
			Int("script_id", scriptID).
			Msg("流水线运行失败")
		return result, err
	}

	record.Status = run.StatusCompleted
	s.updateRun(ctx, record)
	log.Info().
		Str("run_id", result.RunID).
		Int("script_id", scriptID).
		Int("video_jobs", len(result.Jobs)).
		Msg("流水线运行完成")
	return result, nil
}

func (s *pipelineService) runStages(ctx context.Context, scriptID int, opts RunOptions, result *RunResult, record *run.PipelineRun) error {
	var cp *script.Checkpoint
	if opts.Force {
		if err := s.artifacts.ClearCheckpoint(ctx, scriptID); err != nil {
			return err
		}
	} else {
		loaded, err := s.artifacts.LoadCheckpoint(ctx, scriptID)
		if err != nil {
			return fmt.Errorf("failed to load checkpoint: %w", err)
		}
		cp = loaded
		if cp != nil {
			log.Info().
				Int("script_id", scriptID).
				Int("last_completed_step", cp.LastCompletedStep).
				Str("step_name", cp.StepName).
				Msg("发现检查点，从中断处继续")
		}
	}

	params := map[string]any{
		"sync_method":          record.SyncMethod,
		"similarity_threshold": record.SimilarityThreshold,
	}

	// 阶段 4
	err := s.stage(result, run.StageSynchronize, cp.Completed(script.StepSynchronize), func() error {
		syncResult, err := s.synchronize(ctx, scriptID, opts.Sync)
		if err != nil {
			return err
		}
		result.Sync = syncResult
		record.TotalPhrases = syncResult.Summary.TotalPhrases
		record.MatchedPhrases = syncResult.Summary.MatchedPhrases
		return s.artifacts.SaveCheckpoint(ctx, script.NewCheckpoint(scriptID, script.StepSynchronize, params, s.now()))
	})
	if err != nil {
		return err
	}

	// 阶段 5
	err = s.stage(result, run.StageSegment, cp.Completed(script.StepSegment), func() error {
		segResult, err := s.segment(ctx, scriptID)
		if err != nil {
			return err
		}
		result.Segment = segResult
		record.PhrasesSegmented = segResult.Summary.PhrasesSegmented
		record.SegmentsCreated = segResult.Summary.TotalSegmentsCreated
		record.AdaptationErrors = segResult.Summary.AdaptationErrors
		return s.artifacts.SaveCheckpoint(ctx, script.NewCheckpoint(scriptID, script.StepSegment, params, s.now()))
	})
	if err != nil {
		return err
	}

	jobs, err := s.PlanVideoJobs(ctx, scriptID)
	if err != nil {
		return err
	}
	result.Jobs = jobs
	record.VideoJobs = len(jobs)
	s.publish(ctx, scriptID, result)

	if err := s.artifacts.ClearCheckpoint(ctx, scriptID); err != nil {
		log.Warn().Err(err).Int("script_id", scriptID).Msg("清除检查点失败")
	}
	return nil
}

// lock 获取脚本运行锁，同一脚本同时只允许一个阶段或流水线运行
func (s *pipelineService) lock(scriptID int) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	l, err := s.locker.Acquire(scriptID)
	if err != nil {
		return nil, err
	}
	return func() {
		if err := l.Release(); err != nil {
			log.Warn().Err(err).Str("lock", l.Path()).Msg("释放运行锁失败")
		}
	}, nil
}

// stage 执行单个阶段并记录结果，skip 为 true 时只记录跳过
func (s *pipelineService) stage(result *RunResult, stage run.Stage, skip bool, fn func() error) error {
	sr := run.StageResult{Stage: stage, Skipped: skip, StartedAt: s.now()}
	if skip {
		log.Info().Str("stage", string(stage)).Msg("检查点显示阶段已完成，跳过")
	} else if err := fn(); err != nil {
		sr.Error = err.Error()
		sr.CompletedAt = s.now()
		result.Stages = append(result.Stages, sr)
		return fmt.Errorf("stage %s failed: %w", stage, err)
	}
	sr.CompletedAt = s.now()
	result.Stages = append(result.Stages, sr)
	return nil
}

// publish 通知下游，失败只记录日志
func (s *pipelineService) publish(ctx context.Context, scriptID int, result *RunResult) {
	if err := s.publisher.PublishVideoJobs(ctx, result.Jobs); err != nil {
		log.Warn().Err(err).Int("script_id", scriptID).Msg("发布视频任务失败")
		return
	}

	event := events.SegmentationCompleted{
		ScriptID:     scriptID,
		RunID:        result.RunID,
		SegmentedKey: artifact.SegmentedKey(scriptID),
		VideoJobs:    len(result.Jobs),
		CompletedAt:  s.now(),
	}
	if result.Segment != nil {
		event.PhrasesSegmented = result.Segment.Summary.PhrasesSegmented
		event.SegmentsCreated = result.Segment.Summary.TotalSegmentsCreated
	}
	if err := s.publisher.PublishSegmentationCompleted(ctx, event); err != nil {
		log.Warn().Err(err).Int("script_id", scriptID).Msg("发布分段完成事件失败")
	}
}

func (s *pipelineService) createRun(ctx context.Context, record *run.PipelineRun) {
	if s.runs == nil {
		return
	}
	if err := s.runs.Create(ctx, record); err != nil {
		log.Warn().Err(err).Str("run_id", record.ID).Msg("保存运行记录失败")
	}
}

func (s *pipelineService) updateRun(ctx context.Context, record *run.PipelineRun) {
	if s.runs == nil {
		return
	}
	// 运行被取消时仍然需要写入最终状态
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.runs.Update(ctx, record); err != nil {
		log.Warn().Err(err).Str("run_id", record.ID).Msg("更新运行记录失败")
	}
}
