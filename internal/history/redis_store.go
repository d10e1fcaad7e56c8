package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisConfig 描述 Redis 存储的连接参数。
type RedisConfig struct {
	Address    string
	Password   string
	DB         int
	Key        string
	MaxEntries int
}

// RedisStore 用 Redis list 保存最近的操作记录,新记录在表头,
// 超出上限的旧记录被裁剪。
type RedisStore struct {
	client *redis.Client
	key    string
	max    int64
}

// NewRedisStore 创建 Redis 存储实例。
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	if cfg.Address == "" {
		return nil, errors.New("Redis address 不能为空")
	}
	key := cfg.Key
	if key == "" {
		key = "walletmcp:operations"
	}
	max := int64(cfg.MaxEntries)
	if max <= 0 {
		max = 512
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("连接 Redis 失败: %w", err)
	}
	return &RedisStore{client: client, key: key, max: max}, nil
}

// Append 写入一条操作记录并裁剪到上限。
func (s *RedisStore) Append(ctx context.Context, record Record) error {
	encoded, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("序列化操作记录失败: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, s.key, encoded)
	pipe.LTrim(ctx, s.key, 0, s.max-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("Redis 写入操作记录失败: %w", err)
	}
	return nil
}

// ListLatest 返回最近的操作记录。
func (s *RedisStore) ListLatest(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	raw, err := s.client.LRange(ctx, s.key, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("Redis 查询操作记录失败: %w", err)
	}
	records := make([]Record, 0, len(raw))
	for _, item := range raw {
		var record Record
		if err := json.Unmarshal([]byte(item), &record); err != nil {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// Close 断开 Redis 连接。
func (s *RedisStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}
