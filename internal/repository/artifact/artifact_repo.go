package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"reelforge/internal/model/script"
	"reelforge/internal/pkg/reeltools"
	"reelforge/internal/pkg/storage"
)

// ErrArtifactNotFound 流水线输入文件不存在
var ErrArtifactNotFound = errors.New("artifact not found")

// NotFoundError 记录缺失文件的 key，errors.Is(err, ErrArtifactNotFound) 为 true
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("artifact not found: %s", e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrArtifactNotFound
}

const jsonContentType = "application/json"

// 制作目录下各阶段文件的 key
func ReleaseKey(scriptID int) string {
	return fmt.Sprintf("01_ContentGeneration/05_release_material/script_%d_data.json", scriptID)
}

func SubtitlesKey(scriptID int) string {
	return fmt.Sprintf("03_VideoProcessing/03_subtitles/clean_subtitles_%d.srt", scriptID)
}

func SynchronizedKey(scriptID int) string {
	return fmt.Sprintf("03_VideoProcessing/04_synchronization/synchronized_script_%d.json", scriptID)
}

func SegmentedKey(scriptID int) string {
	return fmt.Sprintf("04_VideoGeneration/01_segmented_prompts/segmented_prompts_%d.json", scriptID)
}

func CheckpointKey(scriptID int) string {
	return fmt.Sprintf("00_checkpoints/checkpoint_script_id_%d.json", scriptID)
}

// ArtifactRepository 流水线文件读写接口
type ArtifactRepository interface {
	LoadRelease(ctx context.Context, scriptID int) (*script.Document, error)
	LoadSubtitles(ctx context.Context, scriptID int) ([]script.SpokenSegment, error)
	LoadSynchronized(ctx context.Context, scriptID int) (*script.Document, error)
	SaveSynchronized(ctx context.Context, scriptID int, doc *script.Document) (string, error)
	LoadSegmented(ctx context.Context, scriptID int) (*script.Document, error)
	SaveSegmented(ctx context.Context, scriptID int, doc *script.Document) (string, error)
	LoadCheckpoint(ctx context.Context, scriptID int) (*script.Checkpoint, error)
	SaveCheckpoint(ctx context.Context, cp *script.Checkpoint) error
	ClearCheckpoint(ctx context.Context, scriptID int) error
}

// Repo 基于 storage.Storage 的实现
type Repo struct {
	storage storage.Storage
	srt     *reeltools.SRTParser
}

// NewRepo 创建文件仓库
func NewRepo(s storage.Storage) *Repo {
	return &Repo{
		storage: s,
		srt:     reeltools.NewSRTParser(s),
	}
}

// LoadRelease 读取阶段 1 的短语分析结果
func (r *Repo) LoadRelease(ctx context.Context, scriptID int) (*script.Document, error) {
	return r.loadDocument(ctx, ReleaseKey(scriptID))
}

// LoadSubtitles 读取并解析阶段 3 的字幕
func (r *Repo) LoadSubtitles(ctx context.Context, scriptID int) ([]script.SpokenSegment, error) {
	segments, err := r.srt.ParseFile(ctx, SubtitlesKey(scriptID))
	if err != nil {
		if errors.Is(err, reeltools.ErrSubtitleNotFound) {
			return nil, fmt.Errorf("%w: %w", err, &NotFoundError{Key: SubtitlesKey(scriptID)})
		}
		return nil, err
	}
	return segments, nil
}

// LoadSynchronized 读取阶段 4 的同步结果
func (r *Repo) LoadSynchronized(ctx context.Context, scriptID int) (*script.Document, error) {
	return r.loadDocument(ctx, SynchronizedKey(scriptID))
}

// SaveSynchronized 写入阶段 4 的同步结果
func (r *Repo) SaveSynchronized(ctx context.Context, scriptID int, doc *script.Document) (string, error) {
	return r.saveDocument(ctx, SynchronizedKey(scriptID), doc)
}

// LoadSegmented 读取阶段 5 的分段结果
func (r *Repo) LoadSegmented(ctx context.Context, scriptID int) (*script.Document, error) {
	return r.loadDocument(ctx, SegmentedKey(scriptID))
}

// SaveSegmented 写入阶段 5 的分段结果
func (r *Repo) SaveSegmented(ctx context.Context, scriptID int, doc *script.Document) (string, error) {
	return r.saveDocument(ctx, SegmentedKey(scriptID), doc)
}

// LoadCheckpoint 读取检查点
// 不存在时返回 nil, nil；内容损坏时记录警告并视为不存在
func (r *Repo) LoadCheckpoint(ctx context.Context, scriptID int) (*script.Checkpoint, error) {
	key := CheckpointKey(scriptID)
	data, err := r.read(ctx, key)
	if err != nil {
		if errors.Is(err, ErrArtifactNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var cp script.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("检查点内容损坏，忽略")
		return nil, nil
	}
	return &cp, nil
}

// SaveCheckpoint 写入检查点
func (r *Repo) SaveCheckpoint(ctx context.Context, cp *script.Checkpoint) error {
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}
	_, err = r.write(ctx, CheckpointKey(cp.ScriptID), data)
	return err
}

// ClearCheckpoint 删除检查点
func (r *Repo) ClearCheckpoint(ctx context.Context, scriptID int) error {
	if err := r.storage.Delete(ctx, CheckpointKey(scriptID)); err != nil {
		return fmt.Errorf("failed to clear checkpoint: %w", err)
	}
	return nil
}

func (r *Repo) loadDocument(ctx context.Context, key string) (*script.Document, error) {
	data, err := r.read(ctx, key)
	if err != nil {
		return nil, err
	}
	doc, err := script.ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", key, err)
	}
	return doc, nil
}

func (r *Repo) saveDocument(ctx context.Context, key string, doc *script.Document) (string, error) {
	data, err := doc.Marshal()
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return r.write(ctx, key, data)
}

func (r *Repo) read(ctx context.Context, key string) ([]byte, error) {
	rc, err := r.storage.Download(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &NotFoundError{Key: key}
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

func (r *Repo) write(ctx context.Context, key string, data []byte) (string, error) {
	location, err := r.storage.Upload(ctx, key, bytes.NewReader(data), jsonContentType)
	if err != nil {
		return "", fmt.Errorf("failed to write %s: %w", key, err)
	}
	log.Debug().Str("key", key).Int("bytes", len(data)).Msg("文件已写入")
	return location, nil
}
