package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/blues/raise/internal/chain"
	"github.com/blues/raise/internal/config"
	"github.com/blues/raise/internal/contract/processor"
	"github.com/blues/raise/internal/host"
	"github.com/blues/raise/internal/ledger"
	"github.com/blues/raise/internal/logger"
	"github.com/blues/raise/internal/repository"
	"github.com/blues/raise/internal/roles"
	"github.com/blues/raise/internal/router"
	"github.com/blues/raise/internal/task"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := logger.Setup(cfg.Log); err != nil {
		log.Fatalf("Failed to setup logger: %v", err)
	}
	defer logger.Sync()

	// 初始化数据库
	db, err := repository.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	registry, err := setupRoles(ctx, cfg, db)
	if err != nil {
		logger.Fatal("Failed to initialize roles: %v", err)
	}

	// 价值资产
	var (
		asset        ledger.Asset
		erc20        *chain.ERC20Asset
		token        *ledger.Token
		chainManager *chain.Manager
	)
	switch cfg.Asset.Mode {
	case "chain":
		chainManager, err = chain.NewManager(ctx, cfg.Chain)
		if err != nil {
			logger.Fatal("Failed to initialize chain manager: %v", err)
		}
		defer chainManager.Close()
		contract, err := chainManager.GetContract(cfg.Asset.Contract)
		if err != nil {
			logger.Fatal("Asset contract unavailable: %v", err)
		}
		erc20, err = chain.NewERC20Asset(contract, chainManager.GetClient(), cfg.Chain.PrivateKey, cfg.Chain.ChainId)
		if err != nil {
			logger.Fatal("Failed to create ERC20 asset: %v", err)
		}
		logger.Info("Using ERC20 asset %s with custody %s", erc20.Address().Hex(), erc20.Custody().Hex())
		asset = erc20
	default:
		token, err = setupLedger(ctx, cfg, db)
		if err != nil {
			logger.Fatal("Failed to initialize ledger: %v", err)
		}
		logger.Info("Using in-memory asset ledger %s persisted in postgres", token.Address().Hex())
		asset = token
	}

	proxyAdmin := common.Address{}
	if cfg.Factory.ProxyAdmin != "" {
		proxyAdmin = common.HexToAddress(cfg.Factory.ProxyAdmin)
	}
	store := repository.NewGormStore(db, processor.NewProcessorManager())
	h, err := host.New(ctx, host.Config{
		FactoryAddress: common.HexToAddress(cfg.Factory.Address),
		ProxyAdmin:     proxyAdmin,
		Implementation: common.HexToAddress(cfg.Factory.Implementation),
		Asset:          asset,
		Roles:          registry,
	}, store)
	if err != nil {
		logger.Fatal("Failed to start host: %v", err)
	}
	if erc20 != nil {
		erc20.BindInstances(h.Has)
	}

	// 启动定时任务
	if cfg.Task.Operator != "" {
		tasks, err := task.NewManager(h, cfg)
		if err != nil {
			logger.Fatal("Failed to create task manager: %v", err)
		}
		tasks.Start()
		defer tasks.Stop()
	} else {
		logger.Warn("task.operator not set, settlement jobs disabled")
	}

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router.Setup(cfg, db, h, chainManager, token),
	}

	go func() {
		logger.Info("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed: %v", err)
	}
}

// setupLedger 恢复持久化的内存账本，库中没有记录时写入初始余额
func setupLedger(ctx context.Context, cfg *config.Config, db *gorm.DB) (*ledger.Token, error) {
	token := ledger.NewToken(common.HexToAddress(cfg.Asset.Address))
	store := repository.NewLedgerStore(db)
	balances, allowances, err := store.LoadLedger(ctx, token.Address())
	if err != nil {
		return nil, err
	}
	token.SetSink(store)
	if len(balances) > 0 || len(allowances) > 0 {
		token.Load(balances, allowances)
		logger.Info("Restored %d balances and %d allowances", len(balances), len(allowances))
		return token, nil
	}
	for account, amount := range cfg.Asset.Balances {
		v, ok := new(big.Int).SetString(amount, 10)
		if !ok {
			return nil, fmt.Errorf("asset.balances: invalid amount %q", amount)
		}
		if err := token.Deposit(ctx, common.HexToAddress(account), v); err != nil {
			return nil, fmt.Errorf("bootstrap balance %s: %w", account, err)
		}
	}
	return token, nil
}

// setupRoles 写入初始授权，配置了 redis 时加读穿缓存
func setupRoles(ctx context.Context, cfg *config.Config, db *gorm.DB) (roles.Registry, error) {
	store := roles.NewStore(db)
	for name, accounts := range cfg.Roles {
		role := roles.Role(name)
		for _, a := range accounts {
			if !common.IsHexAddress(a) {
				return nil, fmt.Errorf("role %s: invalid account %q", name, a)
			}
			if err := store.Grant(ctx, role, common.HexToAddress(a)); err != nil {
				return nil, fmt.Errorf("grant %s: %w", name, err)
			}
		}
	}

	if cfg.Redis.Addr == "" {
		return store, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	logger.Info("Role cache enabled at %s (ttl %s)", cfg.Redis.Addr, cfg.Redis.TTL)
	return roles.NewCached(store, rdb, cfg.Redis.TTL), nil
}
