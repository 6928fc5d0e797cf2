package main

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port   string `yaml:"port"`
	DBPath string `yaml:"db_path"`

	JWTSecret string `yaml:"jwt_secret"`

	LLMProvider        string  `yaml:"llm_provider"`
	LLMModel           string  `yaml:"llm_model"`
	LLMTemperature     float64 `yaml:"llm_temperature"`
	LLMMaxOutputTokens int     `yaml:"llm_max_output_tokens"`
	GeminiAPIKey       string  `yaml:"gemini_api_key"`
	AnthropicAPIKey    string  `yaml:"anthropic_api_key"`

	AlertThreshold float64 `yaml:"alert_threshold"`

	SlackBotToken     string `yaml:"slack_bot_token"`
	SlackAlertChannel string `yaml:"slack_alert_channel"`
	DigestSchedule    string `yaml:"digest_schedule"`
}

func LoadConfig() Config {
	var cfg Config

	// Load from config.yaml if it exists
	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	// Env vars override YAML values
	envOverride(&cfg.Port, "PORT")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverride(&cfg.JWTSecret, "JWT_SECRET")
	envOverride(&cfg.LLMProvider, "LLM_PROVIDER")
	envOverride(&cfg.LLMModel, "LLM_MODEL")
	envOverrideFloat(&cfg.LLMTemperature, "LLM_TEMPERATURE")
	envOverrideInt(&cfg.LLMMaxOutputTokens, "LLM_MAX_OUTPUT_TOKENS")
	envOverride(&cfg.GeminiAPIKey, "GEMINI_API_KEY")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverrideFloat(&cfg.AlertThreshold, "ALERT_THRESHOLD")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.SlackAlertChannel, "SLACK_ALERT_CHANNEL")
	envOverride(&cfg.DigestSchedule, "DIGEST_SCHEDULE")

	// Defaults
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./eduxplain.db"
	}
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = "gemini"
	}
	if cfg.LLMTemperature == 0 {
		cfg.LLMTemperature = 0.3
	}
	if cfg.LLMMaxOutputTokens == 0 {
		cfg.LLMMaxOutputTokens = 400
	}
	if cfg.AlertThreshold == 0 {
		cfg.AlertThreshold = defaultAlertThreshold
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = randomSecret()
		log.Println("jwt_secret not set; generated an ephemeral secret (tokens will not survive a restart)")
	}

	// Validate required fields
	switch cfg.LLMProvider {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			log.Fatalf("gemini_api_key is required when llm_provider=gemini")
		}
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			log.Fatalf("anthropic_api_key is required when llm_provider=anthropic")
		}
	default:
		log.Fatalf("llm_provider must be 'gemini' or 'anthropic', got '%s'", cfg.LLMProvider)
	}

	if cfg.AlertThreshold < 0 || cfg.AlertThreshold > 1 {
		log.Fatalf("invalid alert_threshold '%f': must be between 0 and 1", cfg.AlertThreshold)
	}
	if cfg.LLMTemperature < 0 || cfg.LLMTemperature > 2 {
		log.Fatalf("invalid llm_temperature '%f': must be between 0 and 2", cfg.LLMTemperature)
	}
	if cfg.LLMMaxOutputTokens < 1 {
		log.Fatalf("invalid llm_max_output_tokens '%d': must be >= 1", cfg.LLMMaxOutputTokens)
	}
	if cfg.DigestSchedule != "" && cfg.SlackAlertChannel == "" {
		log.Fatalf("slack_alert_channel is required when digest_schedule is set")
	}
	if cfg.SlackAlertChannel != "" && cfg.SlackBotToken == "" {
		log.Fatalf("slack_bot_token is required when slack_alert_channel is set")
	}

	return cfg
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

func envOverrideFloat(field *float64, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		log.Fatalf("generating jwt secret: %v", err)
	}
	return hex.EncodeToString(buf)
}
