package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every environment-driven setting for the studio backend.
type Config struct {
	// Redis
	RedisHost     string
	RedisPort     string
	RedisUsername string
	RedisPassword string
	RedisUseTLS   bool

	// Supabase
	SupabaseURL            string
	SupabaseServiceKey     string
	SupabaseStorageBucket  string
	SupabaseStorageBaseURL string

	// Gemini API
	GeminiAPIKey   string
	GeminiVideoKey string // separate billed Veo capability, may be empty
	ImageModel     string
	VideoModel     string
	TextModel      string

	// Server
	Port string

	// Credit costs
	ImageCost        float64
	VideoCost        float64
	AnalysisCost     float64
	VoiceBaseCost    float64
	VoicePerClipCost float64
	ComicCost        float64
}

var globalConfig *Config

// LoadConfig reads .env (if present) plus the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env file not found, using environment variables")
	}

	useTLS := true
	if tlsStr := os.Getenv("REDIS_USE_TLS"); tlsStr != "" {
		if parsed, err := strconv.ParseBool(tlsStr); err == nil {
			useTLS = parsed
		}
	}

	globalConfig = &Config{
		// Redis
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisUsername: getEnv("REDIS_USERNAME", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisUseTLS:   useTLS,

		// Supabase
		SupabaseURL:            getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey:     getEnv("SUPABASE_SERVICE_KEY", ""),
		SupabaseStorageBucket:  getEnv("SUPABASE_STORAGE_BUCKET", "assets"),
		SupabaseStorageBaseURL: getEnv("SUPABASE_STORAGE_BASE_URL", ""),

		// Gemini
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiVideoKey: getEnv("GEMINI_VIDEO_API_KEY", ""),
		ImageModel:     getEnv("GEMINI_IMAGE_MODEL", "gemini-3-pro-image-preview"),
		VideoModel:     getEnv("GEMINI_VIDEO_MODEL", "veo-3.0-fast-generate-001"),
		TextModel:      getEnv("GEMINI_TEXT_MODEL", "gemini-2.0-flash"),

		// Server
		Port: getEnv("PORT", "8080"),

		// Credit costs
		ImageCost:        getEnvFloat("CREDIT_COST_IMAGE", 5),
		VideoCost:        getEnvFloat("CREDIT_COST_VIDEO", 25),
		AnalysisCost:     getEnvFloat("CREDIT_COST_ANALYSIS", 2),
		VoiceBaseCost:    getEnvFloat("CREDIT_COST_VOICE_BASE", 5),
		VoicePerClipCost: getEnvFloat("CREDIT_COST_VOICE_PER_CLIP", 0.2),
		ComicCost:        getEnvFloat("CREDIT_COST_COMIC", 5),
	}

	if err := globalConfig.validate(); err != nil {
		return nil, err
	}

	log.Println("✅ Configuration loaded successfully")
	log.Printf("   Redis: %s:%s (TLS: %v)", globalConfig.RedisHost, globalConfig.RedisPort, globalConfig.RedisUseTLS)
	log.Printf("   Supabase: %s (bucket: %s)", globalConfig.SupabaseURL, globalConfig.SupabaseStorageBucket)
	log.Printf("   Gemini: image=%s video=%s text=%s", globalConfig.ImageModel, globalConfig.VideoModel, globalConfig.TextModel)
	log.Printf("   Costs: image=%.1f video=%.1f analysis=%.1f", globalConfig.ImageCost, globalConfig.VideoCost, globalConfig.AnalysisCost)

	return globalConfig, nil
}

// GetConfig returns the loaded configuration.
func GetConfig() *Config {
	if globalConfig == nil {
		log.Fatal("❌ Config not loaded. Call LoadConfig() first.")
	}
	return globalConfig
}

// SetConfig replaces the global configuration. Test hook.
func SetConfig(c *Config) {
	globalConfig = c
}

func (c *Config) validate() error {
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabaseServiceKey == "" {
		return fmt.Errorf("SUPABASE_SERVICE_KEY is required")
	}
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetRedisAddr builds the Redis connection string.
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

// HasVideoAuth reports whether the billed Veo capability has been granted.
// The video model needs its own key selection, distinct from basic usage.
func (c *Config) HasVideoAuth() bool {
	return c.GeminiVideoKey != ""
}

