package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr string
	DBPath     string
	APIToken   string

	TelegramToken string

	VisionBackend string
	OllamaHost    string
	OllamaModel   string
	ClaudeAPIKey  string
	ClaudeModel   string
	GeminiAPIKey  string
	GeminiModel   string

	PhotoBackend string
	PhotoPath    string
	S3Bucket     string
	S3Region     string
	S3Endpoint   string
	S3AccessKey  string
	S3SecretKey  string

	LogLevel string
	LogFile  string

	DefaultTimezone       string
	AnalysisRatePerMinute float64
	AnalysisBurst         int

	parseErrs []error
}

// Load reads configuration from the environment. Values from a .env file in
// the working directory are used when the variable is not already set.
func Load() *Config {
	var parseErrs []error
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		parseErrs = append(parseErrs, fmt.Errorf(".env: %w", err))
	}

	c := &Config{
		ListenAddr:      getEnv("LISTEN_ADDR", "127.0.0.1:8080"),
		DBPath:          getEnv("DB_PATH", "/data/calorigram.db"),
		APIToken:        getEnv("API_TOKEN", ""),
		TelegramToken:   getEnv("TELEGRAM_BOT_TOKEN", ""),
		VisionBackend:   getEnv("VISION_BACKEND", "claude"),
		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OllamaModel:     getEnv("OLLAMA_MODEL", "llava"),
		ClaudeAPIKey:    getEnv("CLAUDE_API_KEY", ""),
		ClaudeModel:     getEnv("CLAUDE_MODEL", "claude-sonnet-4-5"),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		PhotoBackend:    getEnv("PHOTO_BACKEND", "local"),
		PhotoPath:       getEnv("PHOTO_LOCAL_PATH", "/data/photos"),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Region:        getEnv("S3_REGION", ""),
		S3Endpoint:      getEnv("S3_ENDPOINT", ""),
		S3AccessKey:     getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:     getEnv("S3_SECRET_KEY", ""),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFile:         getEnv("LOG_FILE", ""),
		DefaultTimezone: getEnv("DEFAULT_TIMEZONE", "Europe/Moscow"),
		parseErrs:       parseErrs,
	}
	c.AnalysisRatePerMinute = c.getFloat("ANALYSIS_RATE_PER_MINUTE", 6)
	c.AnalysisBurst = c.getInt("ANALYSIS_BURST", 3)
	return c
}

// Validate reports malformed numbers and settings the chosen backends need.
func (c *Config) Validate() error {
	errs := append([]error(nil), c.parseErrs...)

	switch c.VisionBackend {
	case "claude":
		if c.ClaudeAPIKey == "" {
			errs = append(errs, errors.New("CLAUDE_API_KEY is required when VISION_BACKEND=claude"))
		}
	case "gemini":
		if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required when VISION_BACKEND=gemini"))
		}
	case "ollama":
		if c.OllamaHost == "" {
			errs = append(errs, errors.New("OLLAMA_HOST is required when VISION_BACKEND=ollama"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown VISION_BACKEND %q", c.VisionBackend))
	}

	switch c.PhotoBackend {
	case "local":
		if c.PhotoPath == "" {
			errs = append(errs, errors.New("PHOTO_LOCAL_PATH is required when PHOTO_BACKEND=local"))
		}
	case "s3":
		if c.S3Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required when PHOTO_BACKEND=s3"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown PHOTO_BACKEND %q", c.PhotoBackend))
	}

	if c.APIToken == "" && !loopback(c.ListenAddr) {
		errs = append(errs, fmt.Errorf("API_TOKEN is required when LISTEN_ADDR %q is not a loopback address", c.ListenAddr))
	}

	if c.AnalysisRatePerMinute < 0 {
		errs = append(errs, errors.New("ANALYSIS_RATE_PER_MINUTE must not be negative"))
	}
	return errors.Join(errs...)
}

// loopback reports whether addr binds only to the local host. An empty host
// listens on every interface.
func loopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil || host == "" {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func (c *Config) getFloat(key string, defaultVal float64) float64 {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return defaultVal
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		c.parseErrs = append(c.parseErrs, fmt.Errorf("%s: %w", key, err))
		return defaultVal
	}
	return v
}

func (c *Config) getInt(key string, defaultVal int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		c.parseErrs = append(c.parseErrs, fmt.Errorf("%s: %w", key, err))
		return defaultVal
	}
	return v
}
