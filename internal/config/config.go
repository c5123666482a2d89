package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config carries runtime configuration for the service. Everything is
// environment-variable driven; a .env file in the working directory is
// loaded first when present.
type Config struct {
	ServerAddress string `envconfig:"SERVER_ADDRESS" default:":8000"`
	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat     string `envconfig:"LOG_FORMAT" default:"console"`

	Agent   AgentConfig
	PowerBI PowerBIConfig
	History HistoryConfig
	Redis   RedisConfig
}

// AgentConfig selects and configures the hosted chat-model provider.
type AgentConfig struct {
	// Provider is one of "azure", "openai", "claude", "gemini". Empty means
	// no agent: chat degrades to mock responses and the translators report
	// the agent as unavailable.
	Provider string `envconfig:"AI_PROVIDER"`

	AzureEndpoint   string `envconfig:"AZURE_OPENAI_ENDPOINT"`
	AzureAPIKey     string `envconfig:"AZURE_OPENAI_API_KEY"`
	AzureDeployment string `envconfig:"AZURE_OPENAI_DEPLOYMENT_NAME" default:"gpt-4o-mini"`
	AzureAPIVersion string `envconfig:"AZURE_OPENAI_API_VERSION" default:"2024-06-01"`

	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`
	OpenAIModel  string `envconfig:"OPENAI_MODEL" default:"gpt-4o"`

	ClaudeAPIKey string `envconfig:"ANTHROPIC_API_KEY"`
	ClaudeModel  string `envconfig:"ANTHROPIC_MODEL" default:"claude-3-5-sonnet-latest"`

	GeminiAPIKey string `envconfig:"GEMINI_API_KEY"`
	GeminiModel  string `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash"`
}

// PowerBIConfig holds the identifiers and fallbacks for the Power BI REST API.
type PowerBIConfig struct {
	WorkspaceID string `envconfig:"POWERBI_WORKSPACE_ID"`
	DatasetID   string `envconfig:"POWERBI_DATASET_ID"`
	ReportID    string `envconfig:"POWERBI_REPORT_ID"`

	// StaticAccessToken short-circuits the credential chain when set. Used
	// for local development without an Azure login.
	StaticAccessToken string `envconfig:"POWERBI_ACCESS_TOKEN"`
	// StaticEmbedURL pairs with StaticAccessToken for a fully static config.
	StaticEmbedURL string `envconfig:"POWERBI_EMBED_URL"`
}

// HistoryConfig selects the conversation history backend.
type HistoryConfig struct {
	// Driver is "memory" (default), "sqlite3" or "mysql".
	Driver string `envconfig:"HISTORY_DRIVER" default:"memory"`
	DSN    string `envconfig:"HISTORY_DSN"`
	// MaxMessages caps retained history entries; 0 means unbounded.
	MaxMessages int `envconfig:"HISTORY_MAX_MESSAGES" default:"200"`
}

// RedisConfig configures the optional embed-token descriptor cache.
type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR"`
	Username string `envconfig:"REDIS_USERNAME"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB"`
}

// Load reads configuration from the environment, loading .env first if it
// exists. Missing optional values degrade the related feature instead of
// failing here; validation of hard requirements happens where the component
// is constructed.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	cfg.Agent.Provider = strings.ToLower(strings.TrimSpace(cfg.Agent.Provider))
	switch cfg.Agent.Provider {
	case "", "azure", "openai", "claude", "gemini":
	default:
		return nil, fmt.Errorf("unsupported AI_PROVIDER: %s", cfg.Agent.Provider)
	}

	switch strings.ToLower(cfg.History.Driver) {
	case "", "memory", "sqlite", "sqlite3", "mysql":
	default:
		return nil, fmt.Errorf("unsupported HISTORY_DRIVER: %s", cfg.History.Driver)
	}

	return &cfg, nil
}

// AgentConfigured reports whether any provider credentials are present.
// Azure OpenAI can authenticate through the credential chain, so an endpoint
// alone is enough there.
func (c *Config) AgentConfigured() bool {
	switch c.Agent.Provider {
	case "azure":
		return c.Agent.AzureEndpoint != ""
	case "openai":
		return c.Agent.OpenAIAPIKey != ""
	case "claude":
		return c.Agent.ClaudeAPIKey != ""
	case "gemini":
		return c.Agent.GeminiAPIKey != ""
	}
	return false
}
