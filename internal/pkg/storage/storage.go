package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound 文件不存在
var ErrNotFound = errors.New("file not found")

// Storage 制作目录存储接口（本地目录或对象存储）
// key 为相对制作目录根的路径，统一使用正斜杠
type Storage interface {
	// Upload 写入文件，返回文件位置（路径或 URL）
	Upload(ctx context.Context, key string, data io.Reader, contentType string) (string, error)

	// Download 读取文件，文件不存在时返回包装了 ErrNotFound 的错误
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete 删除文件，文件不存在视为成功
	Delete(ctx context.Context, key string) error

	// Exists 检查文件是否存在
	Exists(ctx context.Context, key string) (bool, error)

	// List 列出指定前缀下的文件 key
	List(ctx context.Context, prefix string) ([]string, error)

	// GetFileInfo 获取文件信息
	GetFileInfo(ctx context.Context, key string) (*FileInfo, error)

	// GetStorageType 获取存储类型
	GetStorageType() string
}

// FileInfo 文件信息
type FileInfo struct {
	Key          string
	Size         int64
	ContentType  string
	ETag         string
	LastModified time.Time
}

// StorageType 存储类型
type StorageType string

const (
	StorageTypeLocal StorageType = "local" // 本地文件系统
	StorageTypeOSS   StorageType = "oss"   // 阿里云OSS
)
