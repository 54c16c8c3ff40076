package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Cfg 是一个全局变量，用于存储所有应用程序的配置
var Cfg *Config

// SaveMode 定义了同一天重复保存时的合并语义
type SaveMode string

const (
	// SaveModeAdditive 表示新提交的数值累加到当天已有记录上
	SaveModeAdditive SaveMode = "additive"
	// SaveModeReplace 表示新提交的数值整行覆盖当天已有记录
	SaveModeReplace SaveMode = "replace"
)

// ScoringPolicy 定义了每日总分的计算策略
type ScoringPolicy string

const (
	// PolicyFlat 表示对各科目计数直接求和
	PolicyFlat ScoringPolicy = "flat"
	// PolicyWeighted 表示按subject_weights表中的权重加权求和
	PolicyWeighted ScoringPolicy = "weighted"
)

// Config 结构体定义了应用程序的所有配置项
// 它与 config.yaml 文件的结构完全对应
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Entry    EntryConfig    `mapstructure:"entry"`
	Scoring  ScoringConfig  `mapstructure:"scoring"`
	Session  SessionConfig  `mapstructure:"session"`
}

// ServerConfig 定义了服务器相关的配置
type ServerConfig struct {
	Mode    string     `mapstructure:"mode"`
	Address string     `mapstructure:"address"`
	Cors    CorsConfig `mapstructure:"cors"`
}

// CorsConfig 定义了CORS相关的配置
type CorsConfig struct {
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

// DatabaseConfig 定义了数据库和缓存相关的配置
type DatabaseConfig struct {
	// Driver 可选 "sqlite" 或 "postgres"
	Driver   string         `mapstructure:"driver"`
	Sqlite   SqliteConfig   `mapstructure:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// SqliteConfig 定义了SQLite的配置
type SqliteConfig struct {
	Path string `mapstructure:"path"`
}

// PostgresConfig 定义了PostgreSQL的配置
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig 定义了Redis的配置
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// EntryConfig 定义了答题记录保存行为的配置
type EntryConfig struct {
	// SaveMode 是一个部署级的显式选择，见SaveMode常量
	SaveMode SaveMode `mapstructure:"saveMode"`
}

// ScoringConfig 定义了计分策略的配置
type ScoringConfig struct {
	Policy ScoringPolicy `mapstructure:"policy"`
}

// SessionConfig 定义了会话相关的配置
type SessionConfig struct {
	TTLHours int `mapstructure:"ttlHours"`
}

// LoadConfig 函数负责查找、加载和解析配置文件
// 它会在指定的路径中查找名为 config.yaml 的文件
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// 配置文件搜索路径，按顺序查找
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	// 允许通过环境变量覆盖配置，例如 SERVER_ADDRESS=:8888
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 未在配置文件中出现的项使用默认值
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.sqlite.path", "tracker.db")
	v.SetDefault("database.redis.address", "localhost:6379")
	v.SetDefault("entry.saveMode", string(SaveModeAdditive))
	v.SetDefault("scoring.policy", string(PolicyFlat))
	v.SetDefault("session.ttlHours", 72)

	if err := v.ReadInConfig(); err != nil {
		// 配置文件缺失时完全依赖默认值和环境变量
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	Cfg = &cfg
	return Cfg, nil
}

// validate 检查枚举型配置项的取值是否合法
func validate(cfg *Config) error {
	switch cfg.Entry.SaveMode {
	case SaveModeAdditive, SaveModeReplace:
	default:
		return fmt.Errorf("无效的 entry.saveMode 配置: %q", cfg.Entry.SaveMode)
	}
	switch cfg.Scoring.Policy {
	case PolicyFlat, PolicyWeighted:
	default:
		return fmt.Errorf("无效的 scoring.policy 配置: %q", cfg.Scoring.Policy)
	}
	switch cfg.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("无效的 database.driver 配置: %q", cfg.Database.Driver)
	}
	return nil
}
