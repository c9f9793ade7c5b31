package config

import (
	"fmt"
	"os"
	"time"
)

// Config is the root configuration for the execution backend: the
// Container Manager, Tool & Prompt Server, and Agent Bridge all read
// their settings from one decoded Config value.
type Config struct {
	Version int `yaml:"version"`

	Server      ServerConfig      `yaml:"server"`
	Logging     LoggingConfig     `yaml:"logging"`
	Container   ContainerConfig   `yaml:"container"`
	MCP         MCPConfig         `yaml:"mcp"`
	Session     SessionConfig     `yaml:"session"`
	PromptCache PromptCacheConfig `yaml:"prompt_cache"`
	Artifact    ArtifactConfig    `yaml:"artifact"`
	LLM         LLMConfig         `yaml:"llm"`
}

// ServerConfig configures the two HTTP listeners: the Tool & Prompt
// Server (MCP, metrics, and side-endpoints) and the Agent Bridge (chat
// completions).
type ServerConfig struct {
	ToolServerAddr string `yaml:"tool_server_addr"`
	BridgeAddr     string `yaml:"bridge_addr"`
}

// LoggingConfig controls the slog handler used process-wide.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// ContainerConfig configures the Container Manager.
type ContainerConfig struct {
	// ContainerdSocket is the path to the containerd gRPC socket.
	ContainerdSocket string `yaml:"containerd_socket"`

	// Namespace is the containerd namespace used for all containers
	// this process manages.
	Namespace string `yaml:"namespace"`

	// ExecutorImage is the image reference satisfying the container
	// image contract (§6 of the spec): bash, python3, non-root user,
	// writable /workspace and /artifacts.
	ExecutorImage string `yaml:"executor_image"`

	// ToolsPath and SkillsPath are host directories bind-mounted
	// read-only at /tools and /skills inside every container.
	ToolsPath  string `yaml:"tools_path"`
	SkillsPath string `yaml:"skills_path"`

	// NamePrefix is used to derive per-user container names and to
	// recognize orphans left behind by a prior process on startup.
	NamePrefix string `yaml:"name_prefix"`

	// MemoryLimitBytes and CPUShares bound each container's resources.
	// Zero means "no limit imposed by this layer."
	MemoryLimitBytes int64  `yaml:"memory_limit_bytes"`
	CPUShares        uint64 `yaml:"cpu_shares"`

	// StartRetryAttempts bounds retries of transient daemon errors.
	StartRetryAttempts int `yaml:"start_retry_attempts"`
}

// MCPConfig configures how the Agent Bridge reaches the Tool & Prompt
// Server over MCP.
type MCPConfig struct {
	ServerURL string `yaml:"server_url"`
}

// SessionConfig configures the Session Store.
type SessionConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

func (c SessionConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// PromptCacheConfig configures the Prompt Cache.
type PromptCacheConfig struct {
	TTLSeconds     int `yaml:"ttl_seconds"`
	FetchTimeoutMS int `yaml:"fetch_timeout_ms"`
}

func (c PromptCacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

func (c PromptCacheConfig) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutMS) * time.Millisecond
}

// ArtifactConfig configures artifact retrieval limits.
type ArtifactConfig struct {
	SizeLimitBytes int64 `yaml:"size_limit_bytes"`
}

// LLMConfig configures the Agent Bridge's model client.
type LLMConfig struct {
	DefaultModel string `yaml:"default_model"`
	AgentName    string `yaml:"agent_name"`
	APIKey       string `yaml:"api_key"`
	BaseURL      string `yaml:"base_url"`
}

// Load reads, resolves includes in, and decodes the config file at path,
// then applies defaults and validates the result.
func Load(path string) (*Config, error) {
	raw, err := loadRawRecursive(path, map[string]bool{})
	if err != nil {
		return nil, fmt.Errorf("config: load %s: %w", path, err)
	}

	cfg, err := decodeRawConfig(raw)
	if err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}

	applyDefaults(cfg)

	if err := ValidateVersion(cfg.Version); err != nil {
		return nil, err
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = CurrentVersion
	}
	if cfg.Server.ToolServerAddr == "" {
		cfg.Server.ToolServerAddr = ":8989"
	}
	if cfg.Server.BridgeAddr == "" {
		cfg.Server.BridgeAddr = ":8990"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Container.ContainerdSocket == "" {
		cfg.Container.ContainerdSocket = "/run/containerd/containerd.sock"
	}
	if cfg.Container.Namespace == "" {
		cfg.Container.Namespace = "nexus-exec"
	}
	if cfg.Container.NamePrefix == "" {
		cfg.Container.NamePrefix = "mcp-executor-"
	}
	if cfg.Container.StartRetryAttempts <= 0 {
		cfg.Container.StartRetryAttempts = 3
	}
	if cfg.MCP.ServerURL == "" {
		cfg.MCP.ServerURL = "http://localhost:8989/mcp"
	}
	if cfg.Session.TimeoutSeconds <= 0 {
		cfg.Session.TimeoutSeconds = 3600
	}
	if cfg.PromptCache.TTLSeconds <= 0 {
		cfg.PromptCache.TTLSeconds = 3600
	}
	if cfg.PromptCache.FetchTimeoutMS <= 0 {
		cfg.PromptCache.FetchTimeoutMS = 10000
	}
	if cfg.Artifact.SizeLimitBytes <= 0 {
		cfg.Artifact.SizeLimitBytes = 50 * 1024 * 1024
	}
	if cfg.LLM.DefaultModel == "" {
		cfg.LLM.DefaultModel = "gpt-4o-mini"
	}
	if cfg.LLM.AgentName == "" {
		cfg.LLM.AgentName = "nexus-agent"
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
}

// ConfigValidationError reports a config value that failed validation.
type ConfigValidationError struct {
	Field  string
	Reason string
}

func (e *ConfigValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

func validateConfig(cfg *Config) error {
	if cfg.Container.ExecutorImage == "" {
		return &ConfigValidationError{Field: "container.executor_image", Reason: "must be set"}
	}
	if cfg.Container.ToolsPath == "" {
		return &ConfigValidationError{Field: "container.tools_path", Reason: "must be set"}
	}
	if cfg.Container.SkillsPath == "" {
		return &ConfigValidationError{Field: "container.skills_path", Reason: "must be set"}
	}
	if cfg.Session.TimeoutSeconds <= 0 {
		return &ConfigValidationError{Field: "session.timeout_seconds", Reason: "must be positive"}
	}
	if cfg.Artifact.SizeLimitBytes <= 0 {
		return &ConfigValidationError{Field: "artifact.size_limit_bytes", Reason: "must be positive"}
	}
	return nil
}
