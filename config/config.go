package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendHuggingFace = "huggingface"
	BackendOpenAI      = "openai"
)

type ServerConfig struct {
	Host        string
	Port        string
	APIToken    string
	MaxUploadMB int
}

type LogConfig struct {
	Level  string
	Format string
}

type HuggingFaceConfig struct {
	URL             string
	Token           string
	CaptionModel    string
	ClassifierModel string
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type InferenceConfig struct {
	CaptionerBackend string
	Timeout          time.Duration
	RetryAttempts    uint
	RetryDelay       time.Duration
	HuggingFace      HuggingFaceConfig
	OpenAI           OpenAIConfig
}

type AttributesConfig struct {
	Threshold    float64
	TaxonomyPath string
	Concurrency  int
}

type PreprocessConfig struct {
	MaxSide int
	MinSide int
}

type Config struct {
	Server        ServerConfig
	Log           LogConfig
	Inference     InferenceConfig
	Attributes    AttributesConfig
	Preprocess    PreprocessConfig
	TelegramToken string
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	threshold, err := getEnvFloat("ATTRIBUTE_THRESHOLD", 0.4)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:        getEnv("APP_HOST", "0.0.0.0"),
			Port:        getEnv("APP_PORT", "10000"),
			APIToken:    os.Getenv("API_TOKEN"),
			MaxUploadMB: getEnvInt("MAX_UPLOAD_MB", 10),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		Inference: InferenceConfig{
			CaptionerBackend: strings.ToLower(getEnv("CAPTIONER_BACKEND", BackendHuggingFace)),
			Timeout:          time.Duration(getEnvInt("INFERENCE_TIMEOUT_SECONDS", 60)) * time.Second,
			RetryAttempts:    uint(getEnvInt("INFERENCE_RETRY_ATTEMPTS", 3)),
			RetryDelay:       time.Duration(getEnvInt("INFERENCE_RETRY_DELAY_MS", 1000)) * time.Millisecond,
			HuggingFace: HuggingFaceConfig{
				URL:             strings.TrimRight(getEnv("HF_API_URL", "https://api-inference.huggingface.co"), "/"),
				Token:           os.Getenv("HF_API_TOKEN"),
				CaptionModel:    getEnv("CAPTION_MODEL", "Salesforce/blip-image-captioning-base"),
				ClassifierModel: getEnv("CLASSIFIER_MODEL", "facebook/bart-large-mnli"),
			},
			OpenAI: OpenAIConfig{
				APIKey:  os.Getenv("OPENAI_API_KEY"),
				BaseURL: os.Getenv("OPENAI_BASE_URL"),
				Model:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			},
		},
		Attributes: AttributesConfig{
			Threshold:    threshold,
			TaxonomyPath: os.Getenv("TAXONOMY_PATH"),
			Concurrency:  getEnvInt("CLASSIFY_CONCURRENCY", 4),
		},
		Preprocess: PreprocessConfig{
			MaxSide: getEnvInt("PREPROCESS_MAX_SIDE", 1024),
			MinSide: getEnvInt("PREPROCESS_MIN_SIDE", 16),
		},
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Inference.CaptionerBackend {
	case BackendHuggingFace:
	case BackendOpenAI:
		if c.Inference.OpenAI.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai captioner")
		}
	default:
		return fmt.Errorf("unknown CAPTIONER_BACKEND %q", c.Inference.CaptionerBackend)
	}
	if c.Inference.HuggingFace.URL == "" {
		return fmt.Errorf("HF_API_URL is required")
	}
	if c.Attributes.Threshold < 0 || c.Attributes.Threshold > 1 {
		return fmt.Errorf("ATTRIBUTE_THRESHOLD must be within [0, 1], got %v", c.Attributes.Threshold)
	}
	if c.Attributes.Concurrency < 1 {
		return fmt.Errorf("CLASSIFY_CONCURRENCY must be positive")
	}
	if c.Server.MaxUploadMB < 1 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	return nil
}

// Addr адрес, на котором слушает HTTP-сервер
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// MaxUploadBytes ограничение размера загружаемого файла
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMB) << 20
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return floatValue, nil
}
