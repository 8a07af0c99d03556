package runlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrRunInProgress 同一脚本已有运行中的流水线
var ErrRunInProgress = errors.New("pipeline run already in progress")

// Locker 按脚本加文件锁，保证同一脚本同时只有一个运行
type Locker struct {
	dir string
}

// New 创建锁管理器，dir 不存在时自动创建
func New(dir string) (*Locker, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock dir: %w", err)
	}
	return &Locker{dir: dir}, nil
}

// Lock 已获取的锁
type Lock struct {
	path string
	lock *flock.Flock
}

// Acquire 尝试获取脚本锁，已被占用时立即返回 ErrRunInProgress
func (l *Locker) Acquire(scriptID int) (*Lock, error) {
	path := filepath.Join(l.dir, fmt.Sprintf("script_%d.lock", scriptID))
	fl := flock.New(path)

	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: script %d", ErrRunInProgress, scriptID)
	}
	return &Lock{path: path, lock: fl}, nil
}

// Path 锁文件路径
func (l *Lock) Path() string {
	return l.path
}

// Release 释放锁
func (l *Lock) Release() error {
	return l.lock.Unlock()
}
