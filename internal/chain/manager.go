package chain

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/blues/raise/internal/config"
	"github.com/blues/raise/internal/logger"
	"github.com/ethereum/go-ethereum/ethclient"
)

var supportedTypes = []string{"ethereum", "polygon", "bsc", "arbitrum", "optimism"}

// Manager 单链管理器
type Manager struct {
	mu        sync.RWMutex
	contracts map[string]*Contract // 合约映射: "contractName" -> Contract
	client    *ethclient.Client
	config    config.ChainConfig
}

// NewManager 创建单链管理器
func NewManager(ctx context.Context, cfg config.ChainConfig) (*Manager, error) {
	m := &Manager{
		contracts: make(map[string]*Contract),
		config:    cfg,
	}
	if err := m.initClient(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize client: %w", err)
	}
	if err := m.initContracts(cfg); err != nil {
		m.client.Close()
		return nil, fmt.Errorf("failed to initialize contracts: %w", err)
	}
	return m, nil
}

func (m *Manager) initClient(ctx context.Context, cfg config.ChainConfig) error {
	if cfg.RpcUrl == "" {
		return fmt.Errorf("no RPC URL configured")
	}
	if !slices.Contains(supportedTypes, cfg.ChainType) {
		return fmt.Errorf("unsupported chain type %s, supported types: %v", cfg.ChainType, supportedTypes)
	}

	logger.Info("Creating %s client connection (id: %d)", cfg.ChainType, cfg.ChainId)
	client, err := ethclient.DialContext(ctx, cfg.RpcUrl)
	if err != nil {
		return fmt.Errorf("failed to create %s client: %w", cfg.ChainType, err)
	}

	// 测试连接
	if _, err := client.BlockNumber(ctx); err != nil {
		client.Close()
		return fmt.Errorf("client connection test failed (%s): %w", cfg.ChainType, err)
	}
	m.client = client
	logger.Info("Successfully created %s client", cfg.ChainType)
	return nil
}

func (m *Manager) initContracts(cfg config.ChainConfig) error {
	for name, contractCfg := range cfg.Contracts {
		if !contractCfg.Enabled {
			logger.Info("Skipping disabled contract: %s", name)
			continue
		}
		contract, err := NewContract(name, contractCfg, cfg)
		if err != nil {
			return fmt.Errorf("failed to create contract %s: %w", name, err)
		}
		m.contracts[name] = contract
		logger.Info("Initialized contract %s at %s", name, contract.GetAddress().Hex())
	}
	return nil
}

// GetClient 获取客户端
func (m *Manager) GetClient() *ethclient.Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client
}

// GetContract 获取指定合约
func (m *Manager) GetContract(name string) (*Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	contract, ok := m.contracts[name]
	if !ok {
		return nil, fmt.Errorf("contract %s not found", name)
	}
	return contract, nil
}

// GetConfig 获取链配置
func (m *Manager) GetConfig() config.ChainConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// GetHealthStatus 获取健康状态
func (m *Manager) GetHealthStatus(ctx context.Context) map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	health := map[string]interface{}{
		"chain_type":    m.config.ChainType,
		"chain_id":      m.config.ChainId,
		"client_status": "connected",
	}
	if m.client == nil {
		health["client_status"] = "not_initialized"
	} else if n, err := m.client.BlockNumber(ctx); err != nil {
		health["client_status"] = "disconnected"
	} else {
		health["block_number"] = n
	}

	contracts := make(map[string]string, len(m.contracts))
	for name, c := range m.contracts {
		contracts[name] = c.GetAddress().Hex()
	}
	health["contracts"] = contracts
	return health
}

// Close 关闭管理器
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != nil {
		m.client.Close()
		m.client = nil
	}
	logger.Info("Chain manager closed")
}
