package storage

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound 键不存在
var ErrNotFound = errors.New("storage: key not found")

// 存储驱动
const (
	DriverRedis  = "redis"
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

// KV 整值读写的键值存储，每个键是一个命名槽位
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// MemoryKV 进程内存储，用于测试和 STORAGE_DRIVER=memory
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryKV 创建内存存储
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]string)}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = value
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}
