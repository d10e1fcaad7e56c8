package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"WalletMCP-Chain/internal/api"
	"WalletMCP-Chain/internal/chaintools"
	"WalletMCP-Chain/internal/config"
	"WalletMCP-Chain/internal/history"
	"WalletMCP-Chain/internal/notify"
	"WalletMCP-Chain/internal/toolset"
	"WalletMCP-Chain/internal/wallet"
	"WalletMCP-Chain/internal/web3/provider"
	"WalletMCP-Chain/pkg/logger"

	"github.com/spf13/cobra"
)

var configPath string

// main 是 walletmcpd 守护进程的入口。
func main() {
	root := &cobra.Command{
		Use:           "walletmcpd",
		Short:         "多钱包区块链 MCP 服务",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "配置文件路径, 默认 configs/walletmcp.json")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "启动 MCP 服务",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx)
		},
	}
	root.AddCommand(serve)

	if err := root.Execute(); err != nil && err != context.Canceled {
		log.Fatalf("walletmcpd 运行失败: %v", err)
	}
}

func run(ctx context.Context) error {
	path := configPath
	if path == "" {
		path = os.Getenv("WALLETMCP_CONFIG")
	}
	if path == "" {
		path = filepath.Join("configs", "walletmcp.json")
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:       cfg.Logger.Level,
		Format:      cfg.Logger.Format,
		OutputPaths: cfg.Logger.OutputPaths,
		Audit: logger.AuditConfig{
			Enabled:    cfg.Logger.Audit.Enabled,
			Path:       cfg.Logger.Audit.Path,
			MaxSizeMB:  cfg.Logger.Audit.MaxSizeMB,
			MaxBackups: cfg.Logger.Audit.MaxBackups,
			MaxAgeDays: cfg.Logger.Audit.MaxAgeDays,
		},
	}); err != nil {
		return err
	}
	defer logger.Sync()

	// 加载凭证并建立身份注册表与会话。零个可用身份不中止启动,
	// 所有链上操作会显式返回 NO_ACTIVE_IDENTITY。
	identities := wallet.LoadIdentities(os.Getenv, walletSlots(cfg.Wallets.Slots))
	registry := wallet.NewRegistry(identities)
	session := wallet.NewSession(registry, wallet.SessionOptions{
		PriorityID:  cfg.Wallets.PriorityID,
		DefaultRole: wallet.NormalizeRole(cfg.Wallets.DefaultRole),
	})

	chainRegistry, err := provider.NewRegistry(ctx, cfg.Web3)
	if err != nil {
		return err
	}
	defer chainRegistry.Close()

	chainClient, err := chainRegistry.DefaultClient()
	if err != nil {
		return err
	}

	synchronizer := toolset.NewSynchronizer(chaintools.NewBuilder(chainClient))

	var store history.Store
	switch cfg.History.Driver {
	case "", "memory":
		store, err = history.NewMemoryStore(cfg.Runtime.DataDir)
		if err != nil {
			return err
		}
	case "mysql":
		store, err = history.NewMySQLStore(ctx, history.MySQLConfig{DSN: cfg.History.DSN})
		if err != nil {
			return err
		}
	case "redis":
		store, err = history.NewRedisStore(history.RedisConfig{
			Address:    cfg.History.Redis.Address,
			Password:   cfg.History.Redis.Password,
			DB:         cfg.History.Redis.DB,
			Key:        cfg.History.Redis.Key,
			MaxEntries: cfg.History.Redis.MaxEntries,
		})
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("未知的操作记录驱动: %s", cfg.History.Driver)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("关闭操作记录存储失败: %v", err)
		}
	}()

	var publisher notify.Publisher
	switch cfg.Notify.Driver {
	case "", "none":
		publisher = notify.NopPublisher{}
	case "rabbitmq":
		publisher, err = notify.NewRabbitMQPublisher(notify.RabbitMQConfig{
			URL:        cfg.Notify.RabbitMQ.URL,
			Queue:      cfg.Notify.RabbitMQ.Queue,
			Durable:    cfg.Notify.RabbitMQ.Durable,
			AutoDelete: cfg.Notify.RabbitMQ.AutoDelete,
		})
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("未知的事件发布驱动: %s", cfg.Notify.Driver)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Printf("关闭事件发布端失败: %v", err)
		}
	}()

	server := api.NewServer(api.Options{
		Transport: cfg.Server.Transport,
		Address:   cfg.Server.Address,
		ChainName: chainClient.Name(),
	}, registry, session, synchronizer, store, publisher)

	return server.Start(ctx)
}

// walletSlots 把配置里的槽位定义转换到 wallet 包的槽位表。
func walletSlots(slots []config.WalletSlot) []wallet.Slot {
	if len(slots) == 0 {
		return wallet.DefaultSlots()
	}
	out := make([]wallet.Slot, 0, len(slots))
	for _, slot := range slots {
		out = append(out, wallet.Slot{
			EnvKey:      slot.EnvKey,
			ID:          slot.ID,
			DisplayName: slot.DisplayName,
			Role:        wallet.NormalizeRole(slot.Role),
			Provider:    wallet.NormalizeProvider(slot.Provider),
		})
	}
	return out
}
