package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the backend and worker configuration.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	RateLimit     RateLimitConfig     `mapstructure:"rate_limit"`
	Log           LogConfig           `mapstructure:"log"`
}

type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
	Mode    string `mapstructure:"mode"`
	Port    int    `mapstructure:"port"`
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // seconds
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
	UserTTL  int    `mapstructure:"user_ttl"` // seconds
}

func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// UserTTLDuration is how long a cached user record stays valid.
func (r *RedisConfig) UserTTLDuration() time.Duration {
	if r.UserTTL <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(r.UserTTL) * time.Second
}

type MinIOConfig struct {
	Endpoint     string `mapstructure:"endpoint"`
	AccessKey    string `mapstructure:"access_key"`
	SecretKey    string `mapstructure:"secret_key"`
	UseSSL       bool   `mapstructure:"use_ssl"`
	AvatarBucket string `mapstructure:"avatar_bucket"`

	// PublicEndpoint is the host browsers reach MinIO on, when it differs
	// from Endpoint.
	PublicEndpoint string `mapstructure:"public_endpoint"`
}

type KafkaConfig struct {
	Brokers []string          `mapstructure:"brokers"`
	Topics  map[string]string `mapstructure:"topics"`
	GroupID string            `mapstructure:"group_id"`
}

// CommentTopic returns the topic comment events are published on.
func (k *KafkaConfig) CommentTopic() string {
	if t, ok := k.Topics["comment_events"]; ok && t != "" {
		return t
	}
	return "comment_events"
}

type ElasticsearchConfig struct {
	Hosts []string          `mapstructure:"hosts"`
	Index map[string]string `mapstructure:"index"`
}

// CommentIndex returns the name of the comment search index.
func (e *ElasticsearchConfig) CommentIndex() string {
	if name := e.Index["comments"]; name != "" {
		return name
	}
	return "comments"
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

var (
	globalConfig *Config
	envReplacer  = strings.NewReplacer(".", "_")
)

// Load reads the yaml config at configPath. Values in a .env file next to the
// process and in the environment override the file.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := newViper(configPath)
	v.SetDefault("app.name", "remark-go")
	v.SetDefault("app.mode", "release")
	v.SetDefault("app.port", 8000)
	v.SetDefault("rate_limit.requests_per_second", 20)
	v.SetDefault("rate_limit.burst", 40)
	v.SetDefault("log.level", "info")
	v.SetDefault("minio.avatar_bucket", "avatars")
	v.SetDefault("kafka.group_id", "remark-go-search-indexer")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	globalConfig = &cfg
	return &cfg, nil
}

// Get returns the config loaded by Load.
func Get() *Config {
	if globalConfig == nil {
		panic("config not loaded, please call Load() first")
	}
	return globalConfig
}

func newViper(configPath string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(envReplacer)
	v.AutomaticEnv()
	return v
}
