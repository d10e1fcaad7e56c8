package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLConfig 描述 MySQL 存储的连接参数。
type MySQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// MySQLStore 把操作记录持久化到 MySQL。
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore 建立连接池并确保表结构存在。
func NewMySQLStore(ctx context.Context, cfg MySQLConfig) (*MySQLStore, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("MySQL DSN 不能为空")
	}

	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("连接 MySQL 失败: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	} else {
		db.SetMaxOpenConns(20)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	} else {
		db.SetMaxIdleConns(10)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	} else {
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("MySQL 连接检查失败: %w", err)
	}

	store := &MySQLStore{db: db}
	if err := store.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *MySQLStore) ensureSchema(ctx context.Context) error {
	const ddl = `CREATE TABLE IF NOT EXISTS wallet_operations (
		seq BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		id VARCHAR(64) NOT NULL,
		tool VARCHAR(128) NOT NULL,
		wallet_id VARCHAR(64) NOT NULL,
		chain VARCHAR(64) NOT NULL DEFAULT '',
		tx_hash VARCHAR(128) NOT NULL DEFAULT '',
		status VARCHAR(32) NOT NULL,
		detail TEXT,
		created_at BIGINT NOT NULL,
		UNIQUE KEY uk_id (id),
		KEY idx_wallet (wallet_id),
		KEY idx_created (created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("初始化操作记录表失败: %w", err)
	}
	return nil
}

// Append 写入一条操作记录。
func (s *MySQLStore) Append(ctx context.Context, record Record) error {
	const stmt = `INSERT INTO wallet_operations
		(id, tool, wallet_id, chain, tx_hash, status, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, stmt,
		record.ID, record.Tool, record.WalletID, record.Chain,
		record.TxHash, record.Status, record.Detail, record.CreatedAt)
	if err != nil {
		return fmt.Errorf("写入操作记录失败: %w", err)
	}
	return nil
}

// ListLatest 返回最近的操作记录,按写入顺序倒排。
func (s *MySQLStore) ListLatest(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	const stmt = `SELECT id, tool, wallet_id, chain, tx_hash, status, detail, created_at
		FROM wallet_operations ORDER BY seq DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, stmt, limit)
	if err != nil {
		return nil, fmt.Errorf("查询操作记录失败: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var record Record
		if err := rows.Scan(&record.ID, &record.Tool, &record.WalletID, &record.Chain,
			&record.TxHash, &record.Status, &record.Detail, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("解析操作记录失败: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历操作记录失败: %w", err)
	}
	return records, nil
}

// Close 释放连接池。
func (s *MySQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
