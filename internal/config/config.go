package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            int
	DatabasePath    string
	UploadDirectory string
	ResultDirectory string
	LogDirectory    string
	MaxUploadMB     int64
	FileRetention   time.Duration // 0 = pliki nie są usuwane
	AllowedOrigins  []string

	DefaultThresholdSpeed float64 // km/h, used when the settings row is missing or unreadable
	ProcessingWorkers     int     // Liczba równoległych zadań wideo
	QueueSize             int
	TrackCapacity         int // 0 = bez limitu
	ClassNames            []string

	OCRWorkers   int // Równoległe wywołania OCR w obrębie jednej klatki
	OCRPoolSize  int
	OCRLanguage  string
	OCRMinHeight int

	OCRTimeout    time.Duration
	DBTimeout     time.Duration
	NotifyTimeout time.Duration

	Email    EmailConfig
	Telegram TelegramConfig
	Kafka    KafkaConfig
}

// EmailConfig holds SMTP defaults. Sender/receiver may be overridden at runtime via /email-config.
type EmailConfig struct {
	Enabled    bool
	Sender     string
	Password   string
	Receiver   string
	SMTPServer string
	SMTPPort   int
}

type TelegramConfig struct {
	Token  string
	ChatID int64
}

type KafkaConfig struct {
	BootstrapServers string
	Topic            string
}

func Load() *Config {
	// Plik .env jest opcjonalny
	_ = godotenv.Load()

	return &Config{
		Port:            getEnvAsInt("PORT", 5000),
		DatabasePath:    getEnv("DB_PATH", filepath.Join(".", "data", "speedguard.db")),
		UploadDirectory: getEnv("UPLOAD_DIR", filepath.Join(".", "uploads")),
		ResultDirectory: getEnv("RESULT_DIR", filepath.Join(".", "results")),
		LogDirectory:    getEnv("LOG_DIR", filepath.Join(".", "logs")),
		MaxUploadMB:     int64(getEnvAsInt("MAX_UPLOAD_MB", 512)),
		FileRetention:   getEnvAsDuration("FILE_RETENTION", 24*time.Hour),
		AllowedOrigins:  getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),

		DefaultThresholdSpeed: getEnvAsFloat("DEFAULT_THRESHOLD_SPEED", 50.0),
		ProcessingWorkers:     getEnvAsInt("PROCESSING_WORKERS", 2),
		QueueSize:             getEnvAsInt("QUEUE_SIZE", 16),
		TrackCapacity:         getEnvAsInt("TRACK_CAPACITY", 4096),
		ClassNames:            getEnvAsList("CLASS_NAMES", []string{"numberplate"}),

		OCRWorkers:   getEnvAsInt("OCR_WORKERS", 4),
		OCRPoolSize:  getEnvAsInt("OCR_POOL_SIZE", 4),
		OCRLanguage:  getEnv("OCR_LANGUAGE", "eng"),
		OCRMinHeight: getEnvAsInt("OCR_MIN_HEIGHT", 48),

		OCRTimeout:    getEnvAsDuration("OCR_TIMEOUT", 3*time.Second),
		DBTimeout:     getEnvAsDuration("DB_TIMEOUT", 2*time.Second),
		NotifyTimeout: getEnvAsDuration("NOTIFY_TIMEOUT", 10*time.Second),

		Email: EmailConfig{
			Enabled:    getEnvAsBool("EMAIL_ENABLED", true),
			Sender:     getEnv("EMAIL_SENDER", ""),
			Password:   getEnv("EMAIL_PASSWORD", ""),
			Receiver:   getEnv("EMAIL_RECEIVER", ""),
			SMTPServer: getEnv("SMTP_SERVER", "smtp.gmail.com"),
			SMTPPort:   getEnvAsInt("SMTP_PORT", 587),
		},
		Telegram: TelegramConfig{
			Token:  getEnv("TELEGRAM_TOKEN", ""),
			ChatID: getEnvAsInt64("TELEGRAM_CHAT_ID", 0),
		},
		Kafka: KafkaConfig{
			BootstrapServers: getEnv("KAFKA_BOOTSTRAP_SERVERS", ""),
			Topic:            getEnv("KAFKA_TOPIC", "speed-violations"),
		},
	}
}

// ClassName resolves a tracker class index through the fixed class table.
func (c *Config) ClassName(index int) string {
	if index >= 0 && index < len(c.ClassNames) {
		return c.ClassNames[index]
	}
	return "class_" + strconv.Itoa(index)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
