package config

import (
	"errors"
	"fmt"
	"time"
)

// Config 应用配置根结构
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	AI           AIConfig           `mapstructure:"ai"`
	Log          LogConfig          `mapstructure:"log"`
	Sync         SyncConfig         `mapstructure:"sync"`
	Segmentation SegmentationConfig `mapstructure:"segmentation"`
	Pipeline     PipelineConfig     `mapstructure:"pipeline"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Mongo        MongoConfig        `mapstructure:"mongo"`
	Redis        RedisConfig        `mapstructure:"redis"`
	NATS         NATSConfig         `mapstructure:"nats"`
	Auth         AuthConfig         `mapstructure:"auth"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// AIConfig AI 服务配置（分段提示词改写使用）
type AIConfig struct {
	Provider string          `mapstructure:"provider"` // openai, azure, ark, gemini
	APIKey   string          `mapstructure:"api_key"`
	Model    string          `mapstructure:"model"`
	BaseURL  string          `mapstructure:"base_url"`
	Options  AIOptionsConfig `mapstructure:"options"`
}

// AIOptionsConfig AI 模型参数
type AIOptionsConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	TopP        float64 `mapstructure:"top_p"`
}

// LogConfig 日志配置 (Zerolog)
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // json, console, auto
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	TimeFormat string `mapstructure:"time_format"`
}

// SyncConfig 短语与字幕同步配置
type SyncConfig struct {
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"` // 相似度阈值（0-1）
	Method              string  `mapstructure:"method"`               // similarity, order, hybrid
}

// SegmentationConfig 时长分段配置
type SegmentationConfig struct {
	MaxSegmentDuration       float64       `mapstructure:"max_segment_duration"`
	MinSegmentDuration       float64       `mapstructure:"min_segment_duration"`
	PreferEqualSegments      bool          `mapstructure:"prefer_equal_segments"`
	MinimumDurationToSegment float64       `mapstructure:"minimum_duration_to_segment"`
	Concurrency              int           `mapstructure:"concurrency"` // 提示词改写并发数
	CacheTTL                 time.Duration `mapstructure:"cache_ttl"`   // 改写结果缓存时长（需要 Redis）
}

// PipelineConfig 流水线运行配置
type PipelineConfig struct {
	LockDir string `mapstructure:"lock_dir"` // 单脚本运行锁目录
}

// MongoConfig MongoDB 配置（运行记录，可选）
type MongoConfig struct {
	URI         string `mapstructure:"uri"`
	Database    string `mapstructure:"database"`
	MaxPoolSize uint64 `mapstructure:"max_pool_size"`
	MinPoolSize uint64 `mapstructure:"min_pool_size"`
}

// RedisConfig Redis 配置（提示词改写缓存，可选）
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// NATSConfig NATS 配置（下游视频任务通知，可选）
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	SubjectPrefix  string        `mapstructure:"subject_prefix"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// AuthConfig 认证配置
type AuthConfig struct {
	JWTSecret   string        `mapstructure:"jwt_secret"`   // 为空时 API 不做认证
	TokenExpiry time.Duration `mapstructure:"token_expiry"` // 签发 token 的有效期
}

// StorageConfig 存储配置
type StorageConfig struct {
	Type  string       `mapstructure:"type"` // local, oss
	Local *LocalConfig `mapstructure:"local,omitempty"`
	OSS   *OSSConfig   `mapstructure:"oss,omitempty"`
}

// LocalConfig 本地文件系统配置
type LocalConfig struct {
	BasePath string `mapstructure:"base_path"` // 制作目录根路径（VideoProduction）
}

// OSSConfig 阿里云OSS配置
type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	Prefix          string `mapstructure:"prefix"` // 对象 key 前缀
}

var validSyncMethods = map[string]bool{"similarity": true, "order": true, "hybrid": true}

// Validate 验证配置有效性
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("invalid server port")
	}

	validModes := map[string]bool{"debug": true, "release": true, "test": true}
	if !validModes[c.Server.Mode] {
		return errors.New("invalid server mode, must be debug/release/test")
	}

	if err := c.Sync.Validate(); err != nil {
		return err
	}
	if err := c.Segmentation.Validate(); err != nil {
		return err
	}

	switch c.Storage.Type {
	case "local":
		if c.Storage.Local == nil || c.Storage.Local.BasePath == "" {
			return errors.New("storage.local.base_path is required")
		}
	case "oss":
		if c.Storage.OSS == nil {
			return errors.New("storage.oss config is required")
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}

	return nil
}

// Validate 验证同步配置
func (c *SyncConfig) Validate() error {
	if !validSyncMethods[c.Method] {
		return fmt.Errorf("invalid sync method %q, must be similarity/order/hybrid", c.Method)
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("invalid similarity threshold %v, must be within [0, 1]", c.SimilarityThreshold)
	}
	return nil
}

// Validate 验证分段配置
func (c *SegmentationConfig) Validate() error {
	if c.MaxSegmentDuration <= 0 || c.MinSegmentDuration <= 0 {
		return errors.New("segment durations must be positive")
	}
	if c.MinSegmentDuration > c.MaxSegmentDuration {
		return errors.New("min_segment_duration must not exceed max_segment_duration")
	}
	if c.MinimumDurationToSegment < 0 {
		return errors.New("minimum_duration_to_segment must not be negative")
	}
	if c.Concurrency < 0 {
		return errors.New("segmentation concurrency must not be negative")
	}
	return nil
}
