package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	Queue     QueueConfig
	JWT       JWTConfig
	Email     EmailConfig
	Reminder  ReminderConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Port     string
	Env      string
	Timezone string
	LogLevel string

	// CORSOrigins lists allowed browser origins; "*" allows any.
	CORSOrigins []string
}

type DBConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	// StoreTimeout bounds every repository call.
	StoreTimeout time.Duration
	// LockTimeout bounds waiting on practitioner locks.
	LockTimeout time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type QueueConfig struct {
	RedisDB     int
	Concurrency int
}

type JWTConfig struct {
	Secret        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

// EmailConfig holds EmailJS credentials and template ids.
type EmailConfig struct {
	Endpoint           string
	ServiceID          string
	PublicKey          string
	PrivateKey         string
	AcceptanceTemplate string
	ReminderTemplate   string
	BookingTemplate    string
}

// Enabled reports whether outbound email is configured.
func (c EmailConfig) Enabled() bool {
	return c.ServiceID != "" && c.PublicKey != ""
}

type ReminderConfig struct {
	Cron string
}

type RateLimitConfig struct {
	PerMinute int
	Burst     int
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// .env is optional; environment variables are enough in containers
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !isNotExist(err) {
			return nil, err
		}
	}

	config := &Config{
		App: AppConfig{
			Port:        viper.GetString("APP_PORT"),
			Env:         viper.GetString("APP_ENV"),
			Timezone:    viper.GetString("APP_TIMEZONE"),
			LogLevel:    viper.GetString("LOG_LEVEL"),
			CORSOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
		DB: DBConfig{
			Host:         viper.GetString("DB_HOST"),
			Port:         viper.GetString("DB_PORT"),
			User:         viper.GetString("DB_USER"),
			Password:     viper.GetString("DB_PASSWORD"),
			Name:         viper.GetString("DB_NAME"),
			SSLMode:      viper.GetString("DB_SSLMODE"),
			MaxOpenConns: viper.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: viper.GetInt("DB_MAX_IDLE_CONNS"),
			StoreTimeout: parseDuration("STORE_TIMEOUT", 5*time.Second),
			LockTimeout:  parseDuration("LOCK_TIMEOUT", 3*time.Second),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Queue: QueueConfig{
			RedisDB:     viper.GetInt("QUEUE_REDIS_DB"),
			Concurrency: viper.GetInt("QUEUE_CONCURRENCY"),
		},
		JWT: JWTConfig{
			Secret:        viper.GetString("JWT_SECRET"),
			AccessExpiry:  parseDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
			RefreshExpiry: parseDuration("JWT_REFRESH_EXPIRY", 7*24*time.Hour),
		},
		Email: EmailConfig{
			Endpoint:           viper.GetString("EMAILJS_ENDPOINT"),
			ServiceID:          viper.GetString("EMAILJS_SERVICE_ID"),
			PublicKey:          viper.GetString("EMAILJS_PUBLIC_KEY"),
			PrivateKey:         viper.GetString("EMAILJS_PRIVATE_KEY"),
			AcceptanceTemplate: viper.GetString("EMAILJS_ACCEPTANCE_TEMPLATE"),
			ReminderTemplate:   viper.GetString("EMAILJS_REMINDER_TEMPLATE"),
			BookingTemplate:    viper.GetString("EMAILJS_BOOKING_TEMPLATE"),
		},
		Reminder: ReminderConfig{
			Cron: viper.GetString("REMINDER_CRON"),
		},
		RateLimit: RateLimitConfig{
			PerMinute: viper.GetInt("RATE_LIMIT_PER_MINUTE"),
			Burst:     viper.GetInt("RATE_LIMIT_BURST"),
		},
	}

	return config, nil
}

func setDefaults() {
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_TIMEZONE", "Asia/Kolkata")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 100)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 10)
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("QUEUE_REDIS_DB", 1)
	viper.SetDefault("QUEUE_CONCURRENCY", 10)
	viper.SetDefault("EMAILJS_ENDPOINT", "https://api.emailjs.com/api/v1.0/email/send")
	viper.SetDefault("REMINDER_CRON", "0 * * * *")
	viper.SetDefault("RATE_LIMIT_PER_MINUTE", 30)
	viper.SetDefault("RATE_LIMIT_BURST", 10)
}

func parseDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(viper.GetString(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
