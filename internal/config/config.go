// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/viper"
	"github.com/yoinknow/curve-engine/internal/domain"
)

type Config struct {
	Log         LogConfig         `mapstructure:"log"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Records     RecordsConfig     `mapstructure:"records"`
	Server      ServerConfig      `mapstructure:"server"`
	Authorities AuthoritiesConfig `mapstructure:"authorities"`
	ProgramID   string            `mapstructure:"program_id"`
	Genesis     GenesisConfig     `mapstructure:"genesis"`
	EventBuffer int               `mapstructure:"event_buffer"`
	Scenario    string            `mapstructure:"scenario"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	File        string `mapstructure:"file"`
	Development bool   `mapstructure:"development"`
	BufferSize  int    `mapstructure:"buffer_size"`
}

// StorageConfig selects the state store: memory or leveldb.
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

// RecordsConfig selects the trade record store: postgres, sqlite or none.
type RecordsConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"` // пусто: API выключен
}

type AuthoritiesConfig struct {
	Withdraw string `mapstructure:"withdraw"`
	Platform string `mapstructure:"platform"`
}

// GenesisConfig seeds initialize + configure at startup.
type GenesisConfig struct {
	Authority                   string                 `mapstructure:"authority"`
	FeeRecipient                string                 `mapstructure:"fee_recipient"`
	InitialVirtualTokenReserves uint64                 `mapstructure:"initial_virtual_token_reserves"`
	InitialVirtualSolReserves   uint64                 `mapstructure:"initial_virtual_sol_reserves"`
	InitialRealTokenReserves    uint64                 `mapstructure:"initial_real_token_reserves"`
	TokenTotalSupply            uint64                 `mapstructure:"token_total_supply"`
	FeeBasisPoints              uint64                 `mapstructure:"fee_basis_points"`
	FeeShares                   domain.FeeShares       `mapstructure:"fee_shares"`
	BuybacksEnabled             bool                   `mapstructure:"buybacks_enabled"`
	Buyback                     domain.BuybackParams   `mapstructure:"buyback"`
	EarlyBird                   domain.EarlyBirdParams `mapstructure:"early_bird"`
}

const (
	DefaultStorageDriver = "memory"
	DefaultRecordsDriver = "none"
	DefaultEventBuffer   = 1024
	DefaultFeeBps        = 100
	DefaultLogLevel      = "info"
)

const envPrefix = "CURVE_ENGINE"

// LoadConfig reads path (optional), applies defaults and CURVE_ENGINE_*
// environment overrides, and validates the result.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	bb := domain.DefaultBuybackParams()
	defaults := map[string]interface{}{
		"log.level":                               DefaultLogLevel,
		"log.file":                                "curve-engine.log",
		"log.development":                         false,
		"log.buffer_size":                         500,
		"storage.driver":                          DefaultStorageDriver,
		"storage.path":                            "",
		"records.driver":                          DefaultRecordsDriver,
		"records.dsn":                             "",
		"server.addr":                             "",
		"authorities.withdraw":                    "",
		"authorities.platform":                    "",
		"program_id":                              "",
		"event_buffer":                            DefaultEventBuffer,
		"scenario":                                "",
		"genesis.authority":                       "",
		"genesis.fee_recipient":                   "",
		"genesis.initial_virtual_token_reserves":  uint64(1_073_000_000_000_000),
		"genesis.initial_virtual_sol_reserves":    uint64(30_000_000_000),
		"genesis.initial_real_token_reserves":     uint64(793_100_000_000_000),
		"genesis.token_total_supply":              uint64(1_000_000_000_000_000),
		"genesis.fee_basis_points":                DefaultFeeBps,
		"genesis.fee_shares.platform":             5_000,
		"genesis.fee_shares.creator":              3_000,
		"genesis.fee_shares.treasury":             1_500,
		"genesis.fee_shares.early_bird":           500,
		"genesis.buybacks_enabled":                true,
		"genesis.buyback.backing_mult_bps":        bb.BackingMultBps,
		"genesis.buyback.ema_drop_bps":            bb.EmaDropBps,
		"genesis.buyback.ema_alpha_bps":           bb.EmaAlphaBps,
		"genesis.buyback.spend_bps":               bb.SpendBps,
		"genesis.buyback.max_supply_bps":          bb.MaxSupplyBps,
		"genesis.buyback.min_backing_lamports":    bb.MinBackingLamports,
		"genesis.buyback.max_burn_percentage_bps": bb.MaxBurnPercentageBps,
		"genesis.early_bird.enabled":              true,
		"genesis.early_bird.cutoff":               50,
		"genesis.early_bird.min_buy_lamports":     uint64(100_000_000),
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	switch cfg.Storage.Driver {
	case "memory":
	case "leveldb":
		if cfg.Storage.Path == "" {
			return errors.New("storage.path is required for leveldb")
		}
	default:
		return errors.New("storage.driver must be memory or leveldb")
	}

	switch cfg.Records.Driver {
	case "none":
	case "postgres", "sqlite":
		if cfg.Records.DSN == "" {
			return errors.New("records.dsn is required")
		}
	default:
		return errors.New("records.driver must be postgres, sqlite or none")
	}

	if cfg.EventBuffer <= 0 {
		return errors.New("invalid event_buffer")
	}
	if err := validateKeys(cfg); err != nil {
		return err
	}
	if err := cfg.Genesis.FeeShares.Validate(); err != nil {
		return errors.New("genesis.fee_shares must add up to 10000")
	}
	if err := cfg.Genesis.Buyback.Validate(); err != nil {
		return errors.New("genesis.buyback basis points must not exceed 10000")
	}
	if cfg.Genesis.FeeBasisPoints > 10_000 {
		return errors.New("invalid genesis.fee_basis_points")
	}
	if cfg.Genesis.InitialRealTokenReserves > cfg.Genesis.TokenTotalSupply {
		return errors.New("genesis.initial_real_token_reserves exceeds token_total_supply")
	}
	return nil
}

func validateKeys(cfg *Config) error {
	keys := map[string]string{
		"authorities.withdraw":  cfg.Authorities.Withdraw,
		"authorities.platform":  cfg.Authorities.Platform,
		"program_id":            cfg.ProgramID,
		"genesis.authority":     cfg.Genesis.Authority,
		"genesis.fee_recipient": cfg.Genesis.FeeRecipient,
	}
	for name, value := range keys {
		if value == "" {
			return fmt.Errorf("missing %s in configuration", name)
		}
		if _, err := solana.PublicKeyFromBase58(value); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	return nil
}

// Keys is the decoded set of configured public keys.
type Keys struct {
	ProgramID         solana.PublicKey
	WithdrawAuthority solana.PublicKey
	PlatformAuthority solana.PublicKey
	GenesisAuthority  solana.PublicKey
	FeeRecipient      solana.PublicKey
}

// Keys decodes the base58 keys. LoadConfig has already validated them.
func (c *Config) Keys() (Keys, error) {
	var (
		k   Keys
		err error
	)
	for _, f := range []struct {
		dst *solana.PublicKey
		src string
	}{
		{&k.ProgramID, c.ProgramID},
		{&k.WithdrawAuthority, c.Authorities.Withdraw},
		{&k.PlatformAuthority, c.Authorities.Platform},
		{&k.GenesisAuthority, c.Genesis.Authority},
		{&k.FeeRecipient, c.Genesis.FeeRecipient},
	} {
		if *f.dst, err = solana.PublicKeyFromBase58(f.src); err != nil {
			return Keys{}, err
		}
	}
	return k, nil
}
