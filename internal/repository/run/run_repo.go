package run

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"reelforge/internal/model/run"
)

// ErrRunNotFound 运行记录不存在
var ErrRunNotFound = errors.New("pipeline run not found")

// RunRepository 流水线运行记录仓库接口
type RunRepository interface {
	Create(ctx context.Context, r *run.PipelineRun) error
	Update(ctx context.Context, r *run.PipelineRun) error
	FindByID(ctx context.Context, id string) (*run.PipelineRun, error)
	List(ctx context.Context, scriptID int, page, pageSize int64) ([]*run.PipelineRun, int64, error)
}

// Repo 实现 RunRepository
type Repo struct {
	coll *mongo.Collection
}

// NewRepo 创建运行记录仓库
func NewRepo(db *mongo.Database) *Repo {
	var r run.PipelineRun
	return &Repo{coll: db.Collection(r.Collection())}
}

// Create 创建运行记录
func (r *Repo) Create(ctx context.Context, pr *run.PipelineRun) error {
	now := time.Now()
	pr.CreatedAt = now
	pr.UpdatedAt = now
	_, err := r.coll.InsertOne(ctx, pr)
	return err
}

// Update 更新运行记录
func (r *Repo) Update(ctx context.Context, pr *run.PipelineRun) error {
	pr.UpdatedAt = time.Now()
	_, err := r.coll.UpdateOne(ctx, bson.M{"id": pr.ID}, bson.M{"$set": pr})
	return err
}

// FindByID 根据ID查询运行记录
func (r *Repo) FindByID(ctx context.Context, id string) (*run.PipelineRun, error) {
	var pr run.PipelineRun
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&pr); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	return &pr, nil
}

// List 查询运行记录（scriptID 为 0 时不过滤，按创建时间倒序分页）
func (r *Repo) List(ctx context.Context, scriptID int, page, pageSize int64) ([]*run.PipelineRun, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 20
	}

	filter := bson.M{}
	if scriptID > 0 {
		filter["script_id"] = scriptID
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((page - 1) * pageSize).
		SetLimit(pageSize)

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var list []*run.PipelineRun
	if err := cur.All(ctx, &list); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}
