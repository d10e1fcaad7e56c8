package history

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// maxMemoryRecords 限制内存中保留的记录条数,磁盘文件只追加。
const maxMemoryRecords = 512

// MemoryStore 把操作记录保存在内存里,同时以追加写的方式落到本地
// JSON 行文件,方便迭代开发与测试。
type MemoryStore struct {
	mu       sync.RWMutex
	dataFile string
	records  []Record
}

// NewMemoryStore 创建内存存储。dataDir 为空时只保留内存态。
func NewMemoryStore(dataDir string) (*MemoryStore, error) {
	store := &MemoryStore{}
	if dataDir == "" {
		return store, nil
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("创建数据目录失败: %w", err)
	}
	store.dataFile = filepath.Join(dataDir, "operations.log")
	if err := store.loadFromDisk(); err != nil {
		return nil, err
	}
	return store, nil
}

// Append 记录一次操作结果,新记录排在最前。
func (m *MemoryStore) Append(_ context.Context, record Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.dataFile != "" {
		file, err := os.OpenFile(m.dataFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("打开操作日志失败: %w", err)
		}
		defer file.Close()

		encoded, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("序列化操作记录失败: %w", err)
		}
		if _, err := file.Write(append(encoded, '\n')); err != nil {
			return fmt.Errorf("写入操作日志失败: %w", err)
		}
	}

	m.records = append([]Record{record}, m.records...)
	if len(m.records) > maxMemoryRecords {
		m.records = m.records[:maxMemoryRecords]
	}
	return nil
}

// ListLatest 返回最近的操作记录,按时间倒序排列。
func (m *MemoryStore) ListLatest(_ context.Context, limit int) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 || limit > len(m.records) {
		limit = len(m.records)
	}
	results := make([]Record, limit)
	copy(results, m.records[:limit])
	return results, nil
}

// Close 实现 Store 接口,内存存储无需清理。
func (m *MemoryStore) Close() error {
	return nil
}

func (m *MemoryStore) loadFromDisk() error {
	file, err := os.OpenFile(m.dataFile, os.O_RDONLY|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("读取操作日志失败: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	var restored []Record
	for scanner.Scan() {
		var record Record
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			continue
		}
		restored = append([]Record{record}, restored...)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("解析操作日志失败: %w", err)
	}
	if len(restored) > maxMemoryRecords {
		restored = restored[:maxMemoryRecords]
	}
	m.records = restored
	return nil
}
