package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Config 描述 walletmcpd 在启动阶段需要加载的核心配置。
// 凭证 secret 永远不出现在配置文件里,只通过环境变量槽位读取。
type Config struct {
	Server  ServerConfig  `json:"server"`
	Wallets WalletsConfig `json:"wallets"`
	Web3    Web3Config    `json:"web3"`
	History HistoryConfig `json:"history"`
	Notify  NotifyConfig  `json:"notify"`
	Logger  LoggerConfig  `json:"logger"`
	Runtime RuntimeConfig `json:"runtime"`
}

// ServerConfig 控制 MCP 服务的传输方式。
type ServerConfig struct {
	// Transport 取值 stdio 或 http。
	Transport string `json:"transport"`
	// Address 仅在 http 传输下生效。
	Address string `json:"address"`
}

// WalletsConfig 描述凭证槽位与默认选择策略。
type WalletsConfig struct {
	// PriorityID 指定启动时优先选中的身份 ID。
	PriorityID string `json:"priority_id"`
	// DefaultRole 在没有优先身份时的默认角色,默认 seller。
	DefaultRole string `json:"default_role"`
	// Slots 覆盖内置槽位表;为空时使用内置表。
	Slots []WalletSlot `json:"slots"`
}

// WalletSlot 是一条凭证槽位定义,顺序即注册顺序。
type WalletSlot struct {
	EnvKey      string `json:"env_key"`
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	Provider    string `json:"provider"`
}

// Web3Config 包含访问区块链节点所需的 RPC 地址。
type Web3Config struct {
	ChainConfig  string `json:"chain_config"`
	RPCURL       string `json:"rpc_url"`
	DefaultChain string `json:"default_chain"`
}

// HistoryConfig 控制操作记录的存储后端。
type HistoryConfig struct {
	// Driver 取值 memory、mysql 或 redis。
	Driver string `json:"driver"`
	DSN    string `json:"dsn"`
	Redis  RedisConfig `json:"redis"`
}

// RedisConfig 描述 Redis 连接信息。
type RedisConfig struct {
	Address    string `json:"address"`
	Password   string `json:"password"`
	DB         int    `json:"db"`
	Key        string `json:"key"`
	MaxEntries int    `json:"max_entries"`
}

// NotifyConfig 控制交易事件的对外发布。
type NotifyConfig struct {
	// Driver 取值 none 或 rabbitmq。
	Driver   string         `json:"driver"`
	RabbitMQ RabbitMQConfig `json:"rabbitmq"`
}

// RabbitMQConfig 描述 RabbitMQ 连接参数。
type RabbitMQConfig struct {
	URL        string `json:"url"`
	Queue      string `json:"queue"`
	Durable    bool   `json:"durable"`
	AutoDelete bool   `json:"auto_delete"`
}

// LoggerConfig 控制结构化日志输出。
type LoggerConfig struct {
	Level       string      `json:"level"`
	Format      string      `json:"format"`
	OutputPaths []string    `json:"output_paths"`
	Audit       AuditConfig `json:"audit"`
}

// AuditConfig 控制审计日志文件。
type AuditConfig struct {
	Enabled    bool   `json:"enabled"`
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

// RuntimeConfig 用于放置运行时的通用参数。
type RuntimeConfig struct {
	DataDir string `json:"data_dir"`
}

// Load 负责解析指定路径的 JSON 配置文件。
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("配置文件路径为空")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开配置文件失败: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	cfg.applyDefaults(filepath.Dir(path))

	return &cfg, nil
}

// applyDefaults 在用户未填写部分字段时设置合理的默认值。
func (c *Config) applyDefaults(baseDir string) {
	if c.Server.Transport == "" {
		c.Server.Transport = "stdio"
	}
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}

	if c.Wallets.DefaultRole == "" {
		c.Wallets.DefaultRole = "seller"
	}

	if c.History.Driver == "" {
		c.History.Driver = "memory"
	}
	if c.History.Redis.Key == "" {
		c.History.Redis.Key = "walletmcp:operations"
	}
	if c.History.Redis.MaxEntries <= 0 {
		c.History.Redis.MaxEntries = 512
	}

	if c.Notify.Driver == "" {
		c.Notify.Driver = "none"
	}
	if c.Notify.RabbitMQ.Queue == "" {
		c.Notify.RabbitMQ.Queue = "walletmcp.events"
	}

	if c.Web3.ChainConfig != "" && !filepath.IsAbs(c.Web3.ChainConfig) {
		c.Web3.ChainConfig = filepath.Join(baseDir, c.Web3.ChainConfig)
	}

	if c.Runtime.DataDir == "" {
		c.Runtime.DataDir = filepath.Join(baseDir, "data")
	} else if !filepath.IsAbs(c.Runtime.DataDir) {
		c.Runtime.DataDir = filepath.Join(baseDir, c.Runtime.DataDir)
	}
}
