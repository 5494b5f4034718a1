package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server      ServerConfig
	Model       ModelConfig
	Detector    DetectorConfig
	Diagnostics DiagnosticsConfig
	Supabase    SupabaseConfig
	Redis       RedisConfig
	RabbitMQ    RabbitMQConfig
	History     HistoryConfig
	Storage     StorageConfig
}

type ServerConfig struct {
	Port            string
	Mode            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type ModelConfig struct {
	Path         string
	LabelsPath   string
	InputSize    int
	ChannelOrder string
	Threads      int
	PoolSize     int
	ApplySoftmax bool
}

type DetectorConfig struct {
	Enabled       bool
	Command       []string
	MaxHands      int
	MinConfidence float64
	Padding       int
	Timeout       time.Duration
}

type DiagnosticsConfig struct {
	Mode    string // off, dir or storage
	Dir     string
	Format  string
	Quality int
}

type SupabaseConfig struct {
	URL    string
	KEY    string
	BUCKET string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RabbitMQConfig struct {
	URL     string
	Queue   string
	Workers int
}

type HistoryConfig struct {
	Path string
}

type StorageConfig struct {
	MaxFileSize   int64
	CacheDuration time.Duration
	JobTTL        time.Duration
}

const (
	DiagnosticsOff     = "off"
	DiagnosticsDir     = "dir"
	DiagnosticsStorage = "storage"
)

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8000"),
			Mode:            getEnv("GIN_MODE", "release"),
			ReadTimeout:     getDuration("READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDuration("WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Model: ModelConfig{
			Path:         getEnv("MODEL_PATH", "ml_model/isl_model.tflite"),
			LabelsPath:   getEnv("CLASSES_PATH", "ml_model/class_names.txt"),
			InputSize:    getEnvAsInt("MODEL_INPUT_SIZE", 128),
			ChannelOrder: strings.ToLower(strings.TrimSpace(getEnv("MODEL_CHANNEL_ORDER", "bgr"))),
			Threads:      getEnvAsInt("MODEL_THREADS", 2),
			PoolSize:     getEnvAsInt("MODEL_POOL_SIZE", 2),
			ApplySoftmax: getEnvAsBool("MODEL_APPLY_SOFTMAX", true),
		},
		Detector: DetectorConfig{
			Enabled:       getEnvAsBool("HAND_DETECTION", true),
			Command:       strings.Fields(getEnv("DETECTOR_COMMAND", "python3 scripts/hand_landmarks.py")),
			MaxHands:      getEnvAsInt("DETECTOR_MAX_HANDS", 1),
			MinConfidence: getEnvAsFloat("DETECTOR_MIN_CONFIDENCE", 0.5),
			Padding:       getEnvAsInt("CROP_PADDING", 40),
			Timeout:       getDuration("DETECTOR_TIMEOUT", 5*time.Second),
		},
		Diagnostics: DiagnosticsConfig{
			Mode:    strings.ToLower(getEnv("DIAGNOSTICS_MODE", DiagnosticsOff)),
			Dir:     getEnv("DIAGNOSTICS_DIR", "./debug"),
			Format:  getEnv("DIAGNOSTICS_FORMAT", "jpeg"),
			Quality: getEnvAsInt("DIAGNOSTICS_QUALITY", 90),
		},
		Supabase: SupabaseConfig{
			URL:    getEnv("SUPABASE_URL", ""),
			KEY:    getEnv("SUPABASE_KEY", ""),
			BUCKET: getEnv("SUPABASE_BUCKET", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		RabbitMQ: RabbitMQConfig{
			URL:     getEnv("RABBITMQ_URL", ""),
			Queue:   getEnv("RABBITMQ_QUEUE", "sign_recognition"),
			Workers: getEnvAsInt("RABBITMQ_WORKERS", 2),
		},
		History: HistoryConfig{
			Path: getEnv("HISTORY_DB", "./data/history.db"),
		},
		Storage: StorageConfig{
			MaxFileSize:   getEnvAsInt64("MAX_FILE_SIZE", 10*1024*1024), // 10MB
			CacheDuration: getDuration("CACHE_DURATION", 24*time.Hour),
			JobTTL:        getDuration("JOB_TTL", 24*time.Hour),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	if c.Model.InputSize <= 0 {
		return fmt.Errorf("MODEL_INPUT_SIZE must be positive, got %d", c.Model.InputSize)
	}
	switch strings.ToLower(strings.TrimSpace(c.Model.ChannelOrder)) {
	case "rgb", "bgr":
	default:
		return fmt.Errorf("MODEL_CHANNEL_ORDER must be rgb or bgr, got %q", c.Model.ChannelOrder)
	}
	if c.Detector.Padding < 0 {
		return fmt.Errorf("CROP_PADDING must not be negative, got %d", c.Detector.Padding)
	}
	if c.Detector.Enabled && len(c.Detector.Command) == 0 {
		return fmt.Errorf("DETECTOR_COMMAND is empty while HAND_DETECTION is on")
	}
	switch c.Diagnostics.Mode {
	case DiagnosticsOff, DiagnosticsDir:
	case DiagnosticsStorage:
		if !c.Supabase.Enabled() {
			return fmt.Errorf("DIAGNOSTICS_MODE=storage needs SUPABASE_URL and SUPABASE_BUCKET")
		}
	default:
		return fmt.Errorf("unknown DIAGNOSTICS_MODE %q", c.Diagnostics.Mode)
	}
	return nil
}

// Enabled reports whether Supabase storage is configured.
func (c SupabaseConfig) Enabled() bool {
	return c.URL != "" && c.BUCKET != ""
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsInt64(key string, defaultVal int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}
