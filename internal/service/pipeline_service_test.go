package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"reelforge/internal/config"
	"reelforge/internal/model/run"
	"reelforge/internal/model/script"
	"reelforge/internal/pkg/events"
	"reelforge/internal/pkg/reeltools"
	"reelforge/internal/pkg/runlock"
	"reelforge/internal/pkg/storage/local"
	"reelforge/internal/repository/artifact"
)

const testScriptID = 12

const releaseJSON = `{
  "topic": "Ahorro",
  "analysis": {
    "phrases_with_video_prompts": [
      {"phrase_number": 1, "phrase": "Hola amigos, bienvenidos", "category": "hook",
       "editing_suggestion": "Narrator only on screen", "video_prompt": null},
      {"phrase_number": 2, "phrase": "Ahorra dinero cada mes con este truco", "category": "tip",
       "editing_suggestion": "Video only on screen", "video_prompt": "Coins falling into a glass jar"},
      {"phrase_number": 3, "phrase": "Invierte en tu futuro", "category": "cta",
       "editing_suggestion": "Narrator and video split screen", "video_prompt": "Piggy bank on a desk"}
    ]
  }
}`

const subtitlesSRT = `1
00:00:00,000 --> 00:00:02,500
Hola amigos, bienvenidos

2
00:00:02,500 --> 00:00:09,000
Ahorra dinero cada mes con este truco

3
00:00:09,000 --> 00:00:11,000
Invierte en tu futuro
`

const adaptedJSON = `{"segments":[
  {"segment_number":1,"adapted_prompt":"Coins start falling","narrative_focus":"opening","original_context":"start"},
  {"segment_number":2,"adapted_prompt":"Jar fills up","narrative_focus":"development","original_context":"middle"},
  {"segment_number":3,"adapted_prompt":"Jar is full","narrative_focus":"closing","original_context":"end"}
]}`

// mockLLMProvider 用于测试的 mock LLM 提供者
type mockLLMProvider struct {
	mu           sync.Mutex
	calls        int
	generateFunc func(ctx context.Context, prompt string) (string, error)
}

func (m *mockLLMProvider) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.generateFunc != nil {
		return m.generateFunc(ctx, prompt)
	}
	return "", errors.New("mock generate function not set")
}

// mockPublisher 记录发布的事件
type mockPublisher struct {
	jobs      []script.VideoJob
	completed []events.SegmentationCompleted
}

func (m *mockPublisher) PublishVideoJobs(ctx context.Context, jobs []script.VideoJob) error {
	m.jobs = append(m.jobs, jobs...)
	return nil
}

func (m *mockPublisher) PublishSegmentationCompleted(ctx context.Context, event events.SegmentationCompleted) error {
	m.completed = append(m.completed, event)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

// mockRunRepo 内存运行记录仓库
type mockRunRepo struct {
	runs map[string]run.PipelineRun
}

func newMockRunRepo() *mockRunRepo {
	return &mockRunRepo{runs: make(map[string]run.PipelineRun)}
}

func (m *mockRunRepo) Create(ctx context.Context, r *run.PipelineRun) error {
	m.runs[r.ID] = *r
	return nil
}

func (m *mockRunRepo) Update(ctx context.Context, r *run.PipelineRun) error {
	m.runs[r.ID] = *r
	return nil
}

func (m *mockRunRepo) FindByID(ctx context.Context, id string) (*run.PipelineRun, error) {
	r, ok := m.runs[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return &r, nil
}

func (m *mockRunRepo) List(ctx context.Context, scriptID int, page, pageSize int64) ([]*run.PipelineRun, int64, error) {
	var list []*run.PipelineRun
	for _, r := range m.runs {
		if scriptID == 0 || r.ScriptID == scriptID {
			cp := r
			list = append(list, &cp)
		}
	}
	return list, int64(len(list)), nil
}

type fixture struct {
	base      string
	repo      *artifact.Repo
	llm       *mockLLMProvider
	publisher *mockPublisher
	runs      *mockRunRepo
	locker    *runlock.Locker
	svc       PipelineService
}

func testSegmentationConfig() config.SegmentationConfig {
	return config.SegmentationConfig{
		MaxSegmentDuration:       3.0,
		MinSegmentDuration:       2.0,
		PreferEqualSegments:      true,
		MinimumDurationToSegment: 4.0,
		Concurrency:              2,
	}
}

func newFixture(t *testing.T) *fixture {
	base := t.TempDir()
	s, err := local.NewLocalStorage(base)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	locker, err := runlock.New(filepath.Join(base, ".locks"))
	if err != nil {
		t.Fatalf("failed to create locker: %v", err)
	}

	f := &fixture{
		base: base,
		repo: artifact.NewRepo(s),
		llm: &mockLLMProvider{
			generateFunc: func(ctx context.Context, prompt string) (string, error) {
				return adaptedJSON, nil
			},
		},
		publisher: &mockPublisher{},
		runs:      newMockRunRepo(),
		locker:    locker,
	}

	svc, err := NewPipelineService(PipelineDeps{
		Artifacts:    f.repo,
		Adapter:      reeltools.NewPromptAdapter(f.llm),
		Runs:         f.runs,
		Publisher:    f.publisher,
		Locker:       locker,
		Sync:         config.SyncConfig{Method: "hybrid", SimilarityThreshold: 0.6},
		Segmentation: testSegmentationConfig(),
	})
	if err != nil {
		t.Fatalf("failed to create pipeline service: %v", err)
	}
	f.svc = svc
	return f
}

func (f *fixture) write(t *testing.T, key, content string) {
	path := filepath.Join(f.base, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) exists(key string) bool {
	_, err := os.Stat(filepath.Join(f.base, filepath.FromSlash(key)))
	return err == nil
}

func (f *fixture) writeInputs(t *testing.T) {
	f.write(t, artifact.ReleaseKey(testScriptID), releaseJSON)
	f.write(t, artifact.SubtitlesKey(testScriptID), subtitlesSRT)
}

func TestNewPipelineService(t *testing.T) {
	Convey("NewPipelineService 校验依赖", t, func() {
		_, err := NewPipelineService(PipelineDeps{Segmentation: testSegmentationConfig()})
		So(err, ShouldNotBeNil)

		cfg := testSegmentationConfig()
		cfg.MinSegmentDuration = 5
		_, err = NewPipelineService(PipelineDeps{Artifacts: artifact.NewRepo(nil), Segmentation: cfg})
		So(errors.Is(err, reeltools.ErrInvalidRules), ShouldBeTrue)
	})
}

func TestPipelineService_Synchronize(t *testing.T) {
	Convey("Synchronize 阶段 4", t, func() {
		ctx := context.Background()
		f := newFixture(t)

		Convey("输入齐全时写入同步结果", func() {
			f.writeInputs(t)

			result, err := f.svc.Synchronize(ctx, testScriptID, SyncOptions{})
			So(err, ShouldBeNil)
			So(result.Summary.Method, ShouldEqual, script.SyncMethodHybrid)
			So(result.Summary.TotalPhrases, ShouldEqual, 3)
			So(result.Summary.MatchedPhrases, ShouldEqual, 3)
			So(result.OutputKey, ShouldEqual, artifact.SynchronizedKey(testScriptID))

			doc, err := f.svc.GetSynchronized(ctx, testScriptID)
			So(err, ShouldBeNil)
			So(doc.Has(script.FieldSynchronization), ShouldBeTrue)
			So(doc.Phrases[1].Timing.Method, ShouldEqual, script.MatchMethodSimilarity)
			So(*doc.Phrases[1].Timing.StartTime, ShouldEqual, 2.5)
			So(*doc.Phrases[1].Timing.EndTime, ShouldEqual, 9.0)

			var topic string
			_, err = doc.Get("topic", &topic)
			So(err, ShouldBeNil)
			So(topic, ShouldEqual, "Ahorro")
		})

		Convey("请求参数覆盖配置", func() {
			f.writeInputs(t)
			threshold := 1.0
			result, err := f.svc.Synchronize(ctx, testScriptID, SyncOptions{Method: "order", SimilarityThreshold: &threshold})
			So(err, ShouldBeNil)
			So(result.Summary.Method, ShouldEqual, script.SyncMethodOrder)
			So(result.Summary.SimilarityThreshold, ShouldEqual, 1.0)
		})

		Convey("缺少分析结果时不写任何输出", func() {
			f.write(t, artifact.SubtitlesKey(testScriptID), subtitlesSRT)
			_, err := f.svc.Synchronize(ctx, testScriptID, SyncOptions{})
			So(errors.Is(err, artifact.ErrArtifactNotFound), ShouldBeTrue)
			So(f.exists(artifact.SynchronizedKey(testScriptID)), ShouldBeFalse)
		})

		Convey("缺少字幕时返回 ErrSubtitleNotFound", func() {
			f.write(t, artifact.ReleaseKey(testScriptID), releaseJSON)
			_, err := f.svc.Synchronize(ctx, testScriptID, SyncOptions{})
			So(errors.Is(err, reeltools.ErrSubtitleNotFound), ShouldBeTrue)
			So(f.exists(artifact.SynchronizedKey(testScriptID)), ShouldBeFalse)
		})

		Convey("未知同步方法返回 ErrUnknownSyncMethod", func() {
			f.writeInputs(t)
			_, err := f.svc.Synchronize(ctx, testScriptID, SyncOptions{Method: "fuzzy"})
			So(errors.Is(err, reeltools.ErrUnknownSyncMethod), ShouldBeTrue)
		})

		Convey("阈值越界返回 ErrInvalidThreshold", func() {
			f.writeInputs(t)
			threshold := 1.5
			_, err := f.svc.Synchronize(ctx, testScriptID, SyncOptions{SimilarityThreshold: &threshold})
			So(errors.Is(err, reeltools.ErrInvalidThreshold), ShouldBeTrue)
		})
	})
}

func TestPipelineService_Segment(t *testing.T) {
	Convey("Segment 阶段 5", t, func() {
		ctx := context.Background()
		f := newFixture(t)
		f.writeInputs(t)
		_, err := f.svc.Synchronize(ctx, testScriptID, SyncOptions{})
		So(err, ShouldBeNil)

		Convey("长短语被切分并使用改写后的提示词", func() {
			result, err := f.svc.Segment(ctx, testScriptID)
			So(err, ShouldBeNil)
			So(result.Summary.TotalPhrases, ShouldEqual, 3)
			So(result.Summary.PhrasesSegmented, ShouldEqual, 1)
			So(result.Summary.PhrasesNotSegmented, ShouldEqual, 2)
			So(result.Summary.TotalSegmentsCreated, ShouldEqual, 3)
			So(result.Summary.AverageSegmentsPerPhrase, ShouldEqual, 3.0)
			So(result.Summary.AdaptationErrors, ShouldEqual, 0)
			So(f.llm.calls, ShouldEqual, 1)

			doc, err := f.svc.GetSegmented(ctx, testScriptID)
			So(err, ShouldBeNil)
			So(doc.Has(script.FieldSegmentationSummary), ShouldBeTrue)

			first := doc.Phrases[0].Segmentation
			So(first.NeedsSegmentation, ShouldBeFalse)
			So(first.Reason, ShouldEqual, reeltools.ReasonNoPrompt)

			long := doc.Phrases[1].Segmentation
			So(long.NeedsSegmentation, ShouldBeTrue)
			So(long.TotalSegments, ShouldEqual, 3)
			So(long.Segments, ShouldHaveLength, 3)
			So(long.Segments[0].AdaptedPrompt, ShouldEqual, "Coins start falling")
			So(long.Segments[0].Timing.StartTime, ShouldEqual, 2.5)
			So(long.Segments[2].Timing.EndTime, ShouldEqual, 9.0)
			So(long.Segments[2].NarrativeFocus, ShouldEqual, script.FocusClosing)

			short := doc.Phrases[2].Segmentation
			So(short.NeedsSegmentation, ShouldBeFalse)
			So(short.Reason, ShouldEqual, "Duration < 4s")
		})

		Convey("改写失败时记录错误并使用兜底提示词", func() {
			f.llm.generateFunc = func(ctx context.Context, prompt string) (string, error) {
				return "", errors.New("service unavailable")
			}

			result, err := f.svc.Segment(ctx, testScriptID)
			So(err, ShouldBeNil)
			So(result.Summary.AdaptationErrors, ShouldEqual, 1)
			So(result.Summary.PhrasesSegmented, ShouldEqual, 1)

			doc, err := f.svc.GetSegmented(ctx, testScriptID)
			So(err, ShouldBeNil)
			long := doc.Phrases[1].Segmentation
			So(long.NeedsSegmentation, ShouldBeTrue)
			So(long.Error, ShouldContainSubstring, "service unavailable")
			So(long.Segments, ShouldHaveLength, 3)
			So(long.Segments[1].AdaptedPrompt, ShouldEqual, "Coins falling into a glass jar (segment 2/3)")
		})

		Convey("生成视频任务", func() {
			_, err := f.svc.Segment(ctx, testScriptID)
			So(err, ShouldBeNil)

			jobs, err := f.svc.PlanVideoJobs(ctx, testScriptID)
			So(err, ShouldBeNil)
			So(jobs, ShouldHaveLength, 4)
			So(jobs[0].PhraseNumber, ShouldEqual, 2)
			So(jobs[0].IsSegmented, ShouldBeTrue)
			So(jobs[3].PhraseNumber, ShouldEqual, 3)
			So(jobs[3].NarrativeFocus, ShouldEqual, script.FocusComplete)
			So(jobs[3].Duration, ShouldEqual, 2.0)
		})
	})

	Convey("没有同步结果时返回 ErrArtifactNotFound", t, func() {
		f := newFixture(t)
		_, err := f.svc.Segment(context.Background(), testScriptID)
		So(errors.Is(err, artifact.ErrArtifactNotFound), ShouldBeTrue)
	})
}

func TestPipelineService_Run(t *testing.T) {
	Convey("Run 执行阶段 4 和 5", t, func() {
		ctx := context.Background()
		f := newFixture(t)
		f.writeInputs(t)

		Convey("完整运行后清除检查点并通知下游", func() {
			result, err := f.svc.Run(ctx, testScriptID, RunOptions{})
			So(err, ShouldBeNil)
			So(result.Stages, ShouldHaveLength, 2)
			So(result.Stages[0].Skipped, ShouldBeFalse)
			So(result.Jobs, ShouldHaveLength, 4)

			So(f.exists(artifact.SegmentedKey(testScriptID)), ShouldBeTrue)
			So(f.exists(artifact.CheckpointKey(testScriptID)), ShouldBeFalse)

			So(f.publisher.jobs, ShouldHaveLength, 4)
			So(f.publisher.completed, ShouldHaveLength, 1)
			So(f.publisher.completed[0].SegmentsCreated, ShouldEqual, 3)

			record := f.runs.runs[result.RunID]
			So(record.Status, ShouldEqual, run.StatusCompleted)
			So(record.MatchedPhrases, ShouldEqual, 3)
			So(record.VideoJobs, ShouldEqual, 4)
			So(record.CompletedAt, ShouldNotBeNil)
		})

		Convey("检查点显示阶段 4 已完成时跳过同步", func() {
			_, err := f.svc.Synchronize(ctx, testScriptID, SyncOptions{})
			So(err, ShouldBeNil)
			So(os.Remove(filepath.Join(f.base, filepath.FromSlash(artifact.ReleaseKey(testScriptID)))), ShouldBeNil)
			So(f.repo.SaveCheckpoint(ctx, script.NewCheckpoint(testScriptID, script.StepSynchronize, nil, time.Now())), ShouldBeNil)

			result, err := f.svc.Run(ctx, testScriptID, RunOptions{})
			So(err, ShouldBeNil)
			So(result.Stages[0].Skipped, ShouldBeTrue)
			So(result.Stages[1].Skipped, ShouldBeFalse)
			So(result.Sync, ShouldBeNil)
			So(result.Segment, ShouldNotBeNil)
		})

		Convey("force 时忽略检查点", func() {
			So(f.repo.SaveCheckpoint(ctx, script.NewCheckpoint(testScriptID, script.StepSegment, nil, time.Now())), ShouldBeNil)

			result, err := f.svc.Run(ctx, testScriptID, RunOptions{Force: true})
			So(err, ShouldBeNil)
			So(result.Stages[0].Skipped, ShouldBeFalse)
			So(result.Stages[1].Skipped, ShouldBeFalse)
			So(f.runs.runs[result.RunID].Force, ShouldBeTrue)
		})

		Convey("阶段失败时保留检查点并记录失败", func() {
			So(os.Remove(filepath.Join(f.base, filepath.FromSlash(artifact.SubtitlesKey(testScriptID)))), ShouldBeNil)

			result, err := f.svc.Run(ctx, testScriptID, RunOptions{})
			So(errors.Is(err, artifact.ErrArtifactNotFound), ShouldBeTrue)
			So(result.Stages, ShouldHaveLength, 1)
			So(result.Stages[0].Error, ShouldNotBeEmpty)
			So(f.runs.runs[result.RunID].Status, ShouldEqual, run.StatusFailed)
			So(f.publisher.jobs, ShouldBeEmpty)
		})

		Convey("同一脚本正在运行时返回 ErrRunInProgress", func() {
			lock, err := f.locker.Acquire(testScriptID)
			So(err, ShouldBeNil)
			defer lock.Release()

			_, err = f.svc.Run(ctx, testScriptID, RunOptions{})
			So(errors.Is(err, runlock.ErrRunInProgress), ShouldBeTrue)
		})

		Convey("流水线运行期间单独执行阶段 4、5 也返回 ErrRunInProgress", func() {
			_, err := f.svc.Synchronize(ctx, testScriptID, SyncOptions{})
			So(err, ShouldBeNil)
			_, err = f.svc.Segment(ctx, testScriptID)
			So(err, ShouldBeNil)
			segmentedPath := filepath.Join(f.base, filepath.FromSlash(artifact.SegmentedKey(testScriptID)))
			before, err := os.ReadFile(segmentedPath)
			So(err, ShouldBeNil)

			lock, err := f.locker.Acquire(testScriptID)
			So(err, ShouldBeNil)
			defer lock.Release()

			_, err = f.svc.Synchronize(ctx, testScriptID, SyncOptions{})
			So(errors.Is(err, runlock.ErrRunInProgress), ShouldBeTrue)
			_, err = f.svc.Segment(ctx, testScriptID)
			So(errors.Is(err, runlock.ErrRunInProgress), ShouldBeTrue)

			after, err := os.ReadFile(segmentedPath)
			So(err, ShouldBeNil)
			So(string(after), ShouldEqual, string(before))
		})

		Convey("阶段执行结束后释放运行锁", func() {
			_, err := f.svc.Synchronize(ctx, testScriptID, SyncOptions{})
			So(err, ShouldBeNil)
			lock, err := f.locker.Acquire(testScriptID)
			So(err, ShouldBeNil)
			So(lock.Release(), ShouldBeNil)
		})
	})
}

func TestPipelineService_ListRuns(t *testing.T) {
	Convey("ListRuns 查询运行记录", t, func() {
		ctx := context.Background()

		Convey("未配置 MongoDB 时返回 ErrRunHistoryDisabled", func() {
			svc, err := NewPipelineService(PipelineDeps{
				Artifacts:    artifact.NewRepo(nil),
				Segmentation: testSegmentationConfig(),
			})
			So(err, ShouldBeNil)
			_, err = svc.ListRuns(ctx, 0, 1, 20)
			So(errors.Is(err, ErrRunHistoryDisabled), ShouldBeTrue)
		})

		Convey("分页参数使用默认值", func() {
			f := newFixture(t)
			f.writeInputs(t)
			_, err := f.svc.Run(ctx, testScriptID, RunOptions{})
			So(err, ShouldBeNil)

			result, err := f.svc.ListRuns(ctx, testScriptID, 0, 0)
			So(err, ShouldBeNil)
			So(result.Page, ShouldEqual, 1)
			So(result.PageSize, ShouldEqual, 20)
			So(result.Total, ShouldEqual, 1)
		})
	})
}
