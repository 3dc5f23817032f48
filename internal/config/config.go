// Package config loads service configuration from environment variables.
package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/datapilot-ai/backend/internal/service/ai"
	arkengine "github.com/datapilot-ai/backend/internal/service/ai/ark"
	"github.com/datapilot-ai/backend/internal/service/ai/gemini"
	"github.com/datapilot-ai/backend/internal/store"
)

// Config aggregates every setting the service needs.
type Config struct {
	Server ServerConfig
	AI     AIConfig
	Store  StoreConfig
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	aiCfg, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	storeCfg, err := loadStoreConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, AI: aiCfg, Store: storeCfg}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8000"
	}

	if strings.Contains(port, ":") {
		// Accept ":8000" or "127.0.0.1:8000" verbatim.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// Supported generation providers.
const (
	ProviderGemini = "gemini"
	ProviderArk    = "ark"
)

// AIConfig describes the generation provider. The system instruction and
// temperature are fixed once here and shared by every session for the life of
// the process.
type AIConfig struct {
	Provider    string
	Temperature float64
	Timeout     time.Duration

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	ArkAPIKey    string
	ArkAccessKey string
	ArkSecretKey string
	ArkModel     string
	ArkBaseURL   string
	ArkRegion    string
}

func loadAIConfig() (AIConfig, error) {
	provider := strings.ToLower(getEnvOrDefault("LLM_PROVIDER", ProviderGemini))
	if provider != ProviderGemini && provider != ProviderArk {
		return AIConfig{}, fmt.Errorf("invalid LLM_PROVIDER value: %q", provider)
	}

	temperature := ai.DefaultTemperature
	if override, err := parseOptionalFloatEnv("LLM_TEMPERATURE"); err != nil {
		return AIConfig{}, err
	} else if override != nil {
		temperature = *override
	}

	timeoutSeconds, err := parseOptionalIntEnv("LLM_TIMEOUT_SECONDS")
	if err != nil {
		return AIConfig{}, err
	}
	var timeout time.Duration
	if timeoutSeconds != nil {
		timeout = time.Duration(*timeoutSeconds) * time.Second
	}

	return AIConfig{
		Provider:      provider,
		Temperature:   temperature,
		Timeout:       timeout,
		GeminiAPIKey:  strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:   getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiBaseURL: strings.TrimSpace(os.Getenv("GEMINI_BASE_URL")),
		ArkAPIKey:     strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		ArkAccessKey:  strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		ArkSecretKey:  strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		ArkModel:      strings.TrimSpace(os.Getenv("ARK_MODEL")),
		ArkBaseURL:    getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		ArkRegion:     getEnvOrDefault("ARK_REGION", "cn-beijing"),
	}, nil
}

// NewEngine builds the configured generation engine.
func (c AIConfig) NewEngine(ctx context.Context) (ai.Engine, error) {
	switch c.Provider {
	case ProviderArk:
		if c.ArkModel == "" || (c.ArkAPIKey == "" && (c.ArkAccessKey == "" || c.ArkSecretKey == "")) {
			return nil, fmt.Errorf("ark provider requires ARK_MODEL and ARK_API_KEY or ARK_ACCESS_KEY/ARK_SECRET_KEY")
		}
		return arkengine.New(ctx, arkengine.Config{
			APIKey:            c.ArkAPIKey,
			AccessKey:         c.ArkAccessKey,
			SecretKey:         c.ArkSecretKey,
			Model:             c.ArkModel,
			BaseURL:           c.ArkBaseURL,
			Region:            c.ArkRegion,
			SystemInstruction: ai.SystemInstruction,
			Temperature:       c.Temperature,
		})
	default:
		if c.GeminiAPIKey == "" {
			return nil, fmt.Errorf("gemini provider requires GEMINI_API_KEY")
		}
		return gemini.New(gemini.Config{
			APIKey:            c.GeminiAPIKey,
			Model:             c.GeminiModel,
			BaseURL:           c.GeminiBaseURL,
			SystemInstruction: ai.SystemInstruction,
			Temperature:       c.Temperature,
			Timeout:           c.Timeout,
		}), nil
	}
}

// Supported registry store drivers.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// StoreConfig selects the registry storage backend.
type StoreConfig struct {
	Driver string
	Path   string
}

func loadStoreConfig() (StoreConfig, error) {
	driver := strings.ToLower(getEnvOrDefault("STORE_DRIVER", StoreMemory))
	if driver != StoreMemory && driver != StoreSQLite {
		return StoreConfig{}, fmt.Errorf("invalid STORE_DRIVER value: %q", driver)
	}

	path := strings.TrimSpace(os.Getenv("STORE_PATH"))
	if driver == StoreSQLite && path == "" {
		path = "data/sessions.db"
	}

	return StoreConfig{Driver: driver, Path: path}, nil
}

// NewStore builds the configured registry store.
func (c StoreConfig) NewStore() (store.Store, error) {
	if c.Driver == StoreSQLite {
		return store.NewSQLite(c.Path)
	}
	return store.NewMemory(), nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
