package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"reelforge/internal/config"
	"reelforge/internal/model/script"
)

const (
	defaultSubjectPrefix  = "reelforge"
	defaultConnectTimeout = 5 * time.Second
	maxReconnectAttempts  = 10
)

// SegmentationCompleted 分段完成事件
type SegmentationCompleted struct {
	ScriptID         int       `json:"script_id"`
	RunID            string    `json:"run_id,omitempty"`
	SegmentedKey     string    `json:"segmented_key"`
	PhrasesSegmented int       `json:"phrases_segmented"`
	SegmentsCreated  int       `json:"segments_created"`
	VideoJobs        int       `json:"video_jobs"`
	CompletedAt      time.Time `json:"completed_at"`
}

// Publisher 下游通知发布接口
type Publisher interface {
	// PublishVideoJobs 逐条发布视频任务
	PublishVideoJobs(ctx context.Context, jobs []script.VideoJob) error
	// PublishSegmentationCompleted 发布分段完成事件
	PublishSegmentationCompleted(ctx context.Context, event SegmentationCompleted) error
	Close() error
}

// Subjects 事件主题
type Subjects struct {
	VideoJobs             string
	SegmentationCompleted string
}

// NewSubjects 根据前缀生成主题，前缀为空时使用默认值
func NewSubjects(prefix string) Subjects {
	if prefix == "" {
		prefix = defaultSubjectPrefix
	}
	return Subjects{
		VideoJobs:             prefix + ".video.jobs",
		SegmentationCompleted: prefix + ".segmentation.completed",
	}
}

// conn *nats.Conn 中用到的方法
type conn interface {
	Publish(subj string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Drain() error
}

// NATSPublisher 基于 NATS core 的发布者
type NATSPublisher struct {
	conn     conn
	subjects Subjects
}

// NewNATSPublisher 连接 NATS 并创建发布者
func NewNATSPublisher(cfg *config.NATSConfig) (*NATSPublisher, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}

	nc, err := nats.Connect(
		cfg.URL,
		nats.Name("reelforge"),
		nats.Timeout(timeout),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(maxReconnectAttempts),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	log.Info().Str("url", cfg.URL).Msg("已连接 NATS")
	return newPublisher(nc, NewSubjects(cfg.SubjectPrefix)), nil
}

func newPublisher(c conn, subjects Subjects) *NATSPublisher {
	return &NATSPublisher{conn: c, subjects: subjects}
}

// PublishVideoJobs 逐条发布视频任务并等待服务端确认收到
func (p *NATSPublisher) PublishVideoJobs(ctx context.Context, jobs []script.VideoJob) error {
	for _, job := range jobs {
		if err := p.publish(p.subjects.VideoJobs, job); err != nil {
			return err
		}
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush NATS connection: %w", err)
	}

	log.Info().
		Str("subject", p.subjects.VideoJobs).
		Int("jobs", len(jobs)).
		Msg("视频任务已发布")
	return nil
}

// PublishSegmentationCompleted 发布分段完成事件
func (p *NATSPublisher) PublishSegmentationCompleted(ctx context.Context, event SegmentationCompleted) error {
	if err := p.publish(p.subjects.SegmentationCompleted, event); err != nil {
		return err
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush NATS connection: %w", err)
	}
	return nil
}

// Close 发送完缓冲中的消息后关闭连接
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}

func (p *NATSPublisher) publish(subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

// NoopPublisher 未配置 NATS 时使用，丢弃所有事件
type NoopPublisher struct{}

func (NoopPublisher) PublishVideoJobs(ctx context.Context, jobs []script.VideoJob) error {
	return nil
}

func (NoopPublisher) PublishSegmentationCompleted(ctx context.Context, event SegmentationCompleted) error {
	return nil
}

func (NoopPublisher) Close() error { return nil }
