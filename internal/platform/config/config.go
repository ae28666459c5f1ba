package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Cfg 是一个全局变量，用于存储所有应用程序的配置
var Cfg *Config

// Env 表示当前运行环境
type Env string

const (
	EnvDev  Env = "dev"
	EnvQA   Env = "qa"
	EnvProd Env = "prod"
)

// Config 结构体定义了应用程序的所有配置项
// 它与 config.yaml 文件的结构完全对应
type Config struct {
	Env      Env            `mapstructure:"env"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Email    EmailConfig    `mapstructure:"email"`
	Jobs     JobsConfig     `mapstructure:"jobs"`
	Cards    CardsConfig    `mapstructure:"cards"`
}

// ServerConfig 定义了服务器相关的配置
type ServerConfig struct {
	Mode    string     `mapstructure:"mode"`
	Address string     `mapstructure:"address"`
	BaseURL string     `mapstructure:"baseUrl"`
	Cors    CorsConfig `mapstructure:"cors"`
}

// CorsConfig 定义了CORS相关的配置
type CorsConfig struct {
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

// DatabaseConfig 定义了数据库和缓存相关的配置
type DatabaseConfig struct {
	Driver string      `mapstructure:"driver"`
	DSN    string      `mapstructure:"dsn"`
	Redis  RedisConfig `mapstructure:"redis"`
}

// RedisConfig 定义了Redis的配置
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig 定义了登录令牌的配置
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwtSecret"`
	TokenTTL  time.Duration `mapstructure:"tokenTTL"`
}

// EmailConfig 定义了邮件发送的配置
type EmailConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	ResendAPIKey string `mapstructure:"resendApiKey"`
	FromAddress  string `mapstructure:"fromAddress"`
	DevRecipient string `mapstructure:"devRecipient"`
	Concurrency  int    `mapstructure:"concurrency"`
}

// JobsConfig 定义了后台定时任务的配置，Spec 字段使用 cron 表达式
type JobsConfig struct {
	Enabled              bool   `mapstructure:"enabled"`
	StatsVersionSpec     string `mapstructure:"statsVersionSpec"`
	StatsPageSpec        string `mapstructure:"statsPageSpec"`
	CorrectCountsSpec    string `mapstructure:"correctCountsSpec"`
	ExpireListingsSpec   string `mapstructure:"expireListingsSpec"`
	RefreshDeckCacheSpec string `mapstructure:"refreshDeckCacheSpec"`
}

// CardsConfig 定义了卡牌附加信息文件的位置
type CardsConfig struct {
	ExtraInfoPath string `mapstructure:"extraInfoPath"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", string(EnvDev))
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.baseUrl", "http://localhost:3000")
	v.SetDefault("server.cors.allowedOrigins", []string{"http://localhost:3000"})
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "decks.db")
	v.SetDefault("database.redis.address", "localhost:6379")
	v.SetDefault("database.redis.db", 0)
	v.SetDefault("auth.tokenTTL", 72*time.Hour)
	v.SetDefault("email.enabled", false)
	v.SetDefault("email.fromAddress", "Decks of KeyForge <noreply@decksofkeyforge.com>")
	v.SetDefault("email.devRecipient", "decksofkeyforge@gmail.com")
	v.SetDefault("email.concurrency", 4)
	v.SetDefault("jobs.enabled", true)
	v.SetDefault("jobs.statsVersionSpec", "@every 1h")
	v.SetDefault("jobs.statsPageSpec", "@every 20s")
	v.SetDefault("jobs.correctCountsSpec", "@every 24h")
	v.SetDefault("jobs.expireListingsSpec", "@every 1h")
	v.SetDefault("jobs.refreshDeckCacheSpec", "@every 10m")
	v.SetDefault("cards.extraInfoPath", "./config/extra-deck-info.yml")
}

// LoadConfig 函数负责查找、加载和解析配置文件
// 它会在指定的路径中查找名为 config.yaml 的文件，文件不存在时使用默认值
func LoadConfig() (*Config, error) {
	// 0. 如果存在 .env 文件，先将其加载到环境变量中
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	// 1. 设置配置文件名和类型
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// 2. 添加配置文件搜索路径
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	// 3. 允许通过环境变量覆盖配置，例如 DATABASE_REDIS_ADDRESS=redis:6379
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	// 5. 将配置反序列化到结构体中
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// 6. 将加载的配置赋值给全局变量
	Cfg = &cfg

	return Cfg, nil
}

func (c *Config) validate() error {
	switch c.Env {
	case EnvDev, EnvQA, EnvProd:
	default:
		return errors.New("env 必须是 dev、qa 或 prod 之一")
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return errors.New("database.driver 必须是 sqlite 或 postgres")
	}
	if c.Env == EnvProd && c.Auth.JWTSecret == "" {
		return errors.New("生产环境必须配置 auth.jwtSecret")
	}
	return nil
}
