package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	ServerPort  string `mapstructure:"SERVER_PORT"`
	AppEnv      string `mapstructure:"APP_ENV"`
	FrontendURL string `mapstructure:"FRONTEND_URL"`
	BodyLimitMB int    `mapstructure:"BODY_LIMIT_MB"`

	DBDriver      string `mapstructure:"DB_DRIVER"`
	DBHost        string `mapstructure:"DB_HOST"`
	DBPort        string `mapstructure:"DB_PORT"`
	DBUser        string `mapstructure:"DB_USER"`
	DBPassword    string `mapstructure:"DB_PASSWORD"`
	DBName        string `mapstructure:"DB_NAME"`
	SQLitePath    string `mapstructure:"SQLITE_PATH"`
	MongoURI      string `mapstructure:"MONGO_URI"`
	MongoDatabase string `mapstructure:"MONGO_DATABASE"`

	JWTSecret        string        `mapstructure:"JWT_SECRET"`
	ActivationSecret string        `mapstructure:"ACTIVATION_SECRET"`
	ResetSecret      string        `mapstructure:"RESET_SECRET"`
	SessionTTL       time.Duration `mapstructure:"SESSION_TTL"`
	ActivationTTL    time.Duration `mapstructure:"ACTIVATION_TTL"`
	ResetTTL         time.Duration `mapstructure:"RESET_TTL"`

	MailDriver      string `mapstructure:"MAIL_DRIVER"`
	SendgridAPIKey  string `mapstructure:"SENDGRID_API_KEY"`
	MailFromName    string `mapstructure:"MAIL_FROM_NAME"`
	MailFromAddress string `mapstructure:"MAIL_FROM_ADDRESS"`

	StorageDriver   string `mapstructure:"STORAGE_DRIVER"`
	UploadDir       string `mapstructure:"UPLOAD_DIR"`
	S3Bucket        string `mapstructure:"S3_BUCKET"`
	S3Region        string `mapstructure:"S3_REGION"`
	S3Endpoint      string `mapstructure:"S3_ENDPOINT"`
	S3PublicBaseURL string `mapstructure:"S3_PUBLIC_BASE_URL"`

	PayOSClientID        string `mapstructure:"PAYOS_CLIENT_ID"`
	PayOSAPIKey          string `mapstructure:"PAYOS_API_KEY"`
	PayOSChecksumKey     string `mapstructure:"PAYOS_CHECKSUM_KEY"`
	PayOSBaseURL         string `mapstructure:"PAYOS_BASE_URL"`
	PaymentWebhookVerify bool   `mapstructure:"PAYMENT_WEBHOOK_VERIFY"`

	RedisAddr       string        `mapstructure:"REDIS_ADDR"`
	RedisPassword   string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB         int           `mapstructure:"REDIS_DB"`
	RateLimit       int           `mapstructure:"RATE_LIMIT"`
	RateLimitWindow time.Duration `mapstructure:"RATE_LIMIT_WINDOW"`

	KafkaBrokers []string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string   `mapstructure:"KAFKA_TOPIC"`

	SuperAdminEmail    string `mapstructure:"SUPERADMIN_EMAIL"`
	SuperAdminPassword string `mapstructure:"SUPERADMIN_PASSWORD"`
	SuperAdminName     string `mapstructure:"SUPERADMIN_NAME"`
}

var defaults = map[string]interface{}{
	"SERVER_PORT":   "8080",
	"APP_ENV":       "development",
	"FRONTEND_URL":  "http://localhost:5173",
	"BODY_LIMIT_MB": 200,

	"DB_DRIVER":      "postgres",
	"DB_HOST":        "localhost",
	"DB_PORT":        "5432",
	"DB_USER":        "postgres",
	"DB_PASSWORD":    "postgres",
	"DB_NAME":        "learning_platform",
	"SQLITE_PATH":    "learning_platform.db",
	"MONGO_URI":      "mongodb://localhost:27017",
	"MONGO_DATABASE": "learning_platform",

	"JWT_SECRET":        "secret",
	"ACTIVATION_SECRET": "activation-secret",
	"RESET_SECRET":      "reset-secret",
	"SESSION_TTL":       "360h",
	"ACTIVATION_TTL":    "5m",
	"RESET_TTL":         "5m",

	"MAIL_DRIVER":       "console",
	"SENDGRID_API_KEY":  "",
	"MAIL_FROM_NAME":    "E-Learning Platform",
	"MAIL_FROM_ADDRESS": "no-reply@elearning.local",

	"STORAGE_DRIVER":     "local",
	"UPLOAD_DIR":         "uploads",
	"S3_BUCKET":          "",
	"S3_REGION":          "us-east-1",
	"S3_ENDPOINT":        "",
	"S3_PUBLIC_BASE_URL": "",

	"PAYOS_CLIENT_ID":        "",
	"PAYOS_API_KEY":          "",
	"PAYOS_CHECKSUM_KEY":     "",
	"PAYOS_BASE_URL":         "https://api-merchant.payos.vn",
	"PAYMENT_WEBHOOK_VERIFY": false,

	"REDIS_ADDR":        "",
	"REDIS_PASSWORD":    "",
	"REDIS_DB":          0,
	"RATE_LIMIT":        20,
	"RATE_LIMIT_WINDOW": "1m",

	"KAFKA_BROKERS": "",
	"KAFKA_TOPIC":   "elearning.events",

	"SUPERADMIN_EMAIL":    "",
	"SUPERADMIN_PASSWORD": "",
	"SUPERADMIN_NAME":     "Super Admin",
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, using environment variables")
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.KafkaBrokers = splitList(v.GetString("KAFKA_BROKERS"))
	cfg.DBDriver = strings.ToLower(cfg.DBDriver)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate refuses to run production with empty or built-in token secrets.
func (c *Config) Validate() error {
	if !c.IsProduction() {
		return nil
	}
	secrets := []struct {
		key   string
		value string
	}{
		{"JWT_SECRET", c.JWTSecret},
		{"ACTIVATION_SECRET", c.ActivationSecret},
		{"RESET_SECRET", c.ResetSecret},
	}
	for _, s := range secrets {
		if s.value == "" || s.value == defaults[s.key] {
			return fmt.Errorf("%s must be set to a non-default value in production", s.key)
		}
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// DSN returns the postgres connection string.
func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=disable TimeZone=UTC"
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
