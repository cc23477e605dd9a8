package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

const defaultSigningSecret = "dev-secret-change-me"

type Config struct {
	Port          string `env:"APP_PORT"             envDefault:"3030"`
	Env           string `env:"APP_ENV"              envDefault:"dev"`
	LogLevel      string `env:"LOG_LEVEL"            envDefault:"info"`
	DBDriver      string `env:"DB_DRIVER"            envDefault:"sqlite"`
	DatabaseDSN   string `env:"DATABASE_DSN"         envDefault:"data.db"`
	SigningSecret string `env:"SHEET_SIGNING_SECRET" envDefault:"dev-secret-change-me"`
	// 0 表示使用 crypto/rand 生成种子。
	DiceSeed     int64   `env:"DICE_SEED"      envDefault:"0"`
	DiceMaxRange int     `env:"DICE_MAX_RANGE" envDefault:"200"`
	DiceMaxTimes int     `env:"DICE_MAX_TIMES" envDefault:"50"`
	RateLimitRPS float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateBurst    int     `env:"RATE_LIMIT_BURST" envDefault:"40"`
}

// Load 从环境变量读取配置，未设置的字段使用默认值。
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate 校验配置；非 dev 环境禁止使用默认签名密钥。
func Validate(cfg Config) error {
	if cfg.Port == "" {
		return errors.New("APP_PORT must not be empty")
	}
	if cfg.DatabaseDSN == "" {
		return errors.New("DATABASE_DSN must not be empty")
	}
	switch cfg.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	if cfg.Env != "dev" && cfg.SigningSecret == defaultSigningSecret {
		return errors.New("SHEET_SIGNING_SECRET must be changed outside dev")
	}
	// 掷骰数量决定分配的切片长度，上限必须存在。
	if cfg.DiceMaxRange <= 0 || cfg.DiceMaxTimes <= 0 {
		return errors.New("DICE_MAX_RANGE and DICE_MAX_TIMES must be positive")
	}
	if cfg.RateLimitRPS <= 0 || cfg.RateBurst <= 0 {
		return errors.New("rate limit must be positive")
	}
	return nil
}
