package config

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/blues/raise/internal/logger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Chain    ChainConfig    `mapstructure:"chain"`
	Asset    AssetConfig    `mapstructure:"asset"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Factory  FactoryConfig  `mapstructure:"factory"`
	Task     TaskConfig     `mapstructure:"task"`
	Log      LogConfig      `mapstructure:"log"`
	// Roles 启动时写入 role_grant 的初始授权，角色名到账户列表
	Roles map[string][]string `mapstructure:"roles"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN postgres 连接串
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.DBName, d.Port, d.SSLMode)
}

// ChainConfig 链上资产配置
type ChainConfig struct {
	Enabled    bool                      `mapstructure:"enabled"`
	ChainType  string                    `mapstructure:"chain_type"`  // 链类型 (ethereum, polygon, etc.)
	ChainId    int64                     `mapstructure:"chain_id"`    // 链ID
	RpcUrl     string                    `mapstructure:"rpc_url"`     // RPC节点URL
	PrivateKey string                    `mapstructure:"private_key"` // 托管账户私钥
	Contracts  map[string]ContractConfig `mapstructure:"contracts"`   // 该链上的合约配置
}

// ContractConfig 单个合约配置
type ContractConfig struct {
	Address string `mapstructure:"address"`  // 合约地址
	ABIPath string `mapstructure:"abi_path"` // ABI文件路径
	Enabled bool   `mapstructure:"enabled"`  // 是否启用此合约
}

// AssetConfig 募资使用的价值资产
type AssetConfig struct {
	Mode    string `mapstructure:"mode"`    // memory 或 chain
	Address string `mapstructure:"address"` // memory 模式下的资产标识
	// Contract chain 模式下 chain.contracts 中的合约名
	Contract string `mapstructure:"contract"`
	// Balances memory 模式首次启动时的初始余额，账户到十进制金额
	Balances map[string]string `mapstructure:"balances"`
}

// AuthConfig 调用方身份
type AuthConfig struct {
	Mode   string `mapstructure:"mode"` // jwt 或 header
	Secret string `mapstructure:"secret"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// FactoryConfig 工厂初始配置，仅在数据库中没有工厂快照时使用
type FactoryConfig struct {
	Address        string `mapstructure:"address"`
	ProxyAdmin     string `mapstructure:"proxy_admin"`
	Implementation string `mapstructure:"implementation"`
}

type TaskConfig struct {
	Interval            int    `mapstructure:"interval"` // 秒
	BatchSize           int    `mapstructure:"batch_size"`
	Operator            string `mapstructure:"operator"` // 任务以该系统账户身份执行
	Workers             int    `mapstructure:"workers"`
	AutoReleaseToIssuer bool   `mapstructure:"auto_release_to_issuer"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, stderr, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

// GetLevel 实现 logger.Config 接口
func (l LogConfig) GetLevel() string {
	return l.Level
}

// GetOutput 实现 logger.Config 接口
func (l LogConfig) GetOutput() string {
	return l.Output
}

// GetFile 实现 logger.Config 接口
func (l LogConfig) GetFile() string {
	return l.File
}

// Validate 检查跨字段约束
func (c *Config) Validate() error {
	switch c.Asset.Mode {
	case "memory":
		for account, amount := range c.Asset.Balances {
			if !common.IsHexAddress(account) {
				return fmt.Errorf("asset.balances: invalid account %q", account)
			}
			if v, ok := new(big.Int).SetString(amount, 10); !ok || v.Sign() < 0 {
				return fmt.Errorf("asset.balances: invalid amount %q for %s", amount, account)
			}
		}
	case "chain":
		if !c.Chain.Enabled {
			return fmt.Errorf("asset.mode=chain requires chain.enabled")
		}
		if _, ok := c.Chain.Contracts[c.Asset.Contract]; !ok {
			return fmt.Errorf("asset contract %q not configured under chain.contracts", c.Asset.Contract)
		}
	default:
		return fmt.Errorf("unknown asset.mode %q", c.Asset.Mode)
	}
	switch c.Auth.Mode {
	case "jwt":
		if c.Auth.Secret == "" {
			return fmt.Errorf("auth.secret is required in jwt mode")
		}
	case "header":
	default:
		return fmt.Errorf("unknown auth.mode %q", c.Auth.Mode)
	}
	if c.Task.BatchSize <= 0 || c.Task.BatchSize > 256 {
		return fmt.Errorf("task.batch_size must be within 1..256, got %d", c.Task.BatchSize)
	}
	if c.Factory.Address == "" || c.Factory.Implementation == "" {
		return fmt.Errorf("factory.address and factory.implementation are required")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "raise")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("chain.enabled", false)
	v.SetDefault("chain.chain_type", "ethereum")
	v.SetDefault("asset.mode", "memory")
	v.SetDefault("asset.address", "0x00000000000000000000000000000000000000a5")
	v.SetDefault("chain.rpc_url", "")
	v.SetDefault("chain.private_key", "")
	v.SetDefault("auth.mode", "jwt")
	v.SetDefault("auth.secret", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", "30s")
	v.SetDefault("factory.address", "0x00000000000000000000000000000000000000fa")
	v.SetDefault("factory.proxy_admin", "")
	v.SetDefault("factory.implementation", "0x0000000000000000000000000000000000000001")
	v.SetDefault("task.interval", 60)
	v.SetDefault("task.batch_size", 100)
	v.SetDefault("task.operator", "")
	v.SetDefault("task.workers", 8)
	v.SetDefault("task.auto_release_to_issuer", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file", "logs/app.log")
}

// Load 读取 config.yaml 与环境变量，如 RAISE_AUTH_SECRET 覆盖 auth.secret
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/raise")
	setDefaults(v)

	v.SetEnvPrefix("raise")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		logger.Warn("Could not find config file, using defaults: %v", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
