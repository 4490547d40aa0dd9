package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Env        string           `yaml:"env"`
	HTTPPort   string           `yaml:"http_port"`
	DB         DBConfig         `yaml:"db"`
	Redis      RedisConfig      `yaml:"redis"`
	Queue      QueueConfig      `yaml:"queue"`
	JWT        JWTConfig        `yaml:"jwt"`
	Log        LogConfig        `yaml:"log"`
	Regulation RegulationConfig `yaml:"regulation"`
	CORS       CORSConfig       `yaml:"cors"`
	// AuditInterval is the period of the regulation chain auditor, zero disables it.
	AuditInterval time.Duration `yaml:"audit_interval"`
	DemoEnabled   bool          `yaml:"demo_enabled"`
}

type DBConfig struct {
	Type     string `yaml:"type"` // sqlite, postgres
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type QueueConfig struct {
	Driver       string   `yaml:"driver"` // redis, kafka
	KafkaBrokers []string `yaml:"kafka_brokers"`
	KafkaTopic   string   `yaml:"kafka_topic"`
}

type JWTConfig struct {
	Secret        string        `yaml:"secret"`
	Expire        time.Duration `yaml:"expire"`
	ResetTokenTTL time.Duration `yaml:"reset_token_ttl"`
}

type CORSConfig struct {
	// AllowedOrigins lists the browser origins allowed to call the api, "*" allows any origin without credentials.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json, text
}

type RegulationConfig struct {
	SaveTimeout time.Duration `yaml:"save_timeout"`
	ProposalTTL time.Duration `yaml:"proposal_ttl"`
	Compression string        `yaml:"compression"` // nop, gzip, brotli, lz4
}

// LoadConfig reads the configuration from the environment, a yaml file named by
// CONFIG_FILE overrides the environment.
func LoadConfig() *Config {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			logrus.Warnf("config file %s not loaded: %v", path, err)
		} else if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
			logrus.Errorf("config file %s is invalid: %v", path, err)
		}
	}

	ConfigureLogger(cfg.Log)

	return cfg
}

func defaultConfig() *Config {
	return &Config{
		Env:      GetEnv("ENV", "dev"),
		HTTPPort: GetEnv("HTTP_PORT", "4001"),
		DB: DBConfig{
			Type:     GetEnv("DB_TYPE", "sqlite"),
			DSN:      GetEnv("DB_DSN", "file:.tmp/travelexpense.db?_foreign_keys=on"),
			Host:     GetEnv("POSTGRES_HOST", "localhost"),
			Port:     GetEnvInt("POSTGRES_PORT", 5432),
			Database: GetEnv("POSTGRES_DATABASE", "travelexpense"),
			User:     GetEnv("POSTGRES_USER", "emrgen"),
			Password: GetEnv("POSTGRES_PASSWORD", "emrgen"),
		},
		Redis: RedisConfig{
			Addr:     GetEnv("REDIS_ADDR", "localhost:6379"),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       GetEnvInt("REDIS_DB", 0),
		},
		Queue: QueueConfig{
			Driver:       GetEnv("QUEUE_DRIVER", "redis"),
			KafkaBrokers: GetEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			KafkaTopic:   GetEnv("KAFKA_TOPIC", "travelexpense.notifications"),
		},
		JWT: JWTConfig{
			Secret:        GetEnv("JWT_SECRET", "travelexpense-dev-secret"),
			Expire:        time.Duration(GetEnvInt("JWT_EXPIRE_MINUTES", 60)) * time.Minute,
			ResetTokenTTL: GetEnvDuration("RESET_TOKEN_TTL", time.Hour),
		},
		Log: LogConfig{
			Level:  GetEnv("LOG_LEVEL", "info"),
			Format: GetEnv("LOG_FORMAT", "text"),
		},
		Regulation: RegulationConfig{
			SaveTimeout: GetEnvDuration("SAVE_TIMEOUT", 30*time.Second),
			ProposalTTL: GetEnvDuration("REVISION_PROPOSAL_TTL", 10*time.Minute),
			Compression: GetEnv("COMPRESSION", "gzip"),
		},
		CORS: CORSConfig{
			AllowedOrigins: GetEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		AuditInterval: GetEnvDuration("AUDIT_INTERVAL", 5*time.Minute),
		DemoEnabled:   GetEnvBool("DEMO_ENABLED", false),
	}
}

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func GetEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func GetEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
