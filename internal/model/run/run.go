package run

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Status 运行状态
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Stage 流水线阶段
type Stage string

const (
	StageSynchronize Stage = "synchronize" // 阶段 4：短语与字幕同步
	StageSegment     Stage = "segment"     // 阶段 5：长短语分段
)

// StageResult 单个阶段的执行结果
type StageResult struct {
	Stage       Stage     `bson:"stage" json:"stage"`
	Skipped     bool      `bson:"skipped" json:"skipped"` // 检查点已完成，未重新执行
	Error       string    `bson:"error,omitempty" json:"error,omitempty"`
	StartedAt   time.Time `bson:"started_at" json:"started_at"`
	CompletedAt time.Time `bson:"completed_at" json:"completed_at"`
}

// PipelineRun 一次流水线运行记录
type PipelineRun struct {
	ID       string `bson:"id" json:"id"` // UUID
	ScriptID int    `bson:"script_id" json:"script_id"`
	Status   Status `bson:"status" json:"status"`
	Force    bool   `bson:"force" json:"force"`

	SyncMethod          string  `bson:"sync_method" json:"sync_method"`
	SimilarityThreshold float64 `bson:"similarity_threshold" json:"similarity_threshold"`

	TotalPhrases     int `bson:"total_phrases" json:"total_phrases"`
	MatchedPhrases   int `bson:"matched_phrases" json:"matched_phrases"`
	PhrasesSegmented int `bson:"phrases_segmented" json:"phrases_segmented"`
	SegmentsCreated  int `bson:"segments_created" json:"segments_created"`
	AdaptationErrors int `bson:"adaptation_errors" json:"adaptation_errors"`
	VideoJobs        int `bson:"video_jobs" json:"video_jobs"`

	Stages []StageResult `bson:"stages" json:"stages"`
	Error  string        `bson:"error,omitempty" json:"error,omitempty"`

	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
	CompletedAt *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
}

// Collection 返回集合名称
func (r *PipelineRun) Collection() string { return "pipeline_runs" }

// EnsureIndexes 创建和维护索引
func (r *PipelineRun) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(r.Collection())
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetName("idx_id").SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "script_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_script_created"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_status"),
		},
	}
	_, err := coll.Indexes().CreateMany(ctx, indexes)
	return err
}
