package config

import (
	"testing"
	"time"
)

func TestLoadDefaultsAndEnv(t *testing.T) {
	t.Setenv("RAISE_AUTH_SECRET", "s3cret")
	t.Setenv("RAISE_TASK_BATCH_SIZE", "50")
	t.Setenv("RAISE_SERVER_PORT", "9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Auth.Secret != "s3cret" || cfg.Task.BatchSize != 50 || cfg.Server.Port != "9090" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if cfg.Asset.Mode != "memory" || cfg.Redis.TTL != 30*time.Second || cfg.Database.Port != 5432 {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Asset:   AssetConfig{Mode: "memory"},
			Auth:    AuthConfig{Mode: "jwt", Secret: "k"},
			Factory: FactoryConfig{Address: "0xfa", Implementation: "0x01"},
			Task:    TaskConfig{BatchSize: 10},
		}
	}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"header auth without secret", func(c *Config) { c.Auth = AuthConfig{Mode: "header"} }, false},
		{"jwt without secret", func(c *Config) { c.Auth.Secret = "" }, true},
		{"unknown asset mode", func(c *Config) { c.Asset.Mode = "paper" }, true},
		{"chain asset while chain disabled", func(c *Config) { c.Asset.Mode = "chain" }, true},
		{"chain asset with unknown contract", func(c *Config) {
			c.Asset = AssetConfig{Mode: "chain", Contract: "usdc"}
			c.Chain.Enabled = true
		}, true},
		{"chain asset", func(c *Config) {
			c.Asset = AssetConfig{Mode: "chain", Contract: "usdc"}
			c.Chain = ChainConfig{Enabled: true, Contracts: map[string]ContractConfig{"usdc": {Address: "0x01"}}}
		}, false},
		{"memory balances", func(c *Config) {
			c.Asset.Balances = map[string]string{"0x0000000000000000000000000000000000000011": "1000"}
		}, false},
		{"memory balance bad account", func(c *Config) { c.Asset.Balances = map[string]string{"alice": "1000"} }, true},
		{"memory balance negative", func(c *Config) {
			c.Asset.Balances = map[string]string{"0x0000000000000000000000000000000000000011": "-1"}
		}, true},
		{"batch too large", func(c *Config) { c.Task.BatchSize = 257 }, true},
		{"missing factory", func(c *Config) { c.Factory.Address = "" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "raise", SSLMode: "disable"}
	want := "host=db user=u password=p dbname=raise port=5432 sslmode=disable TimeZone=UTC"
	if got := d.DSN(); got != want {
		t.Fatalf("DSN() = %q", got)
	}
}
