package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// TableRef names a dataset table and the file backing it.
type TableRef struct {
	Name string `mapstructure:"name" yaml:"name"`
	Path string `mapstructure:"path" yaml:"path"`
}

// Checks holds the independently toggleable code validation rules.
type Checks struct {
	Imports   bool `mapstructure:"imports" yaml:"imports"`
	Links     bool `mapstructure:"links" yaml:"links"`
	SaveFuncs bool `mapstructure:"save_funcs" yaml:"save_funcs"`
	ExecEval  bool `mapstructure:"exec_eval" yaml:"exec_eval"`
}

// Global configuration structure.
type Global struct {
	APIKey          string  `mapstructure:"api_key" yaml:"api_key"`
	DefaultModel    string  `mapstructure:"default_model" yaml:"default_model"`
	DefaultProvider string  `mapstructure:"default_provider" yaml:"default_provider"`
	MaxTokens       int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature     float64 `mapstructure:"temperature" yaml:"temperature"`

	// Code generation contract
	FunctionName   string     `mapstructure:"function_name" yaml:"function_name"`
	Libraries      []string   `mapstructure:"libraries" yaml:"libraries"`
	Tables         []TableRef `mapstructure:"tables" yaml:"tables"`
	PromptTemplate string     `mapstructure:"prompt_template" yaml:"prompt_template"`

	// Validator toggles
	Validate Checks `mapstructure:"validate" yaml:"validate"`

	// Code runtime
	Interpreter    string `mapstructure:"interpreter" yaml:"interpreter"`
	PythonBin      string `mapstructure:"python_bin" yaml:"python_bin"`
	ExecTimeoutSec int    `mapstructure:"exec_timeout_sec" yaml:"exec_timeout_sec"`

	// Conversation memory
	SessionsDir         string `mapstructure:"sessions_dir" yaml:"sessions_dir"`
	HistoryBudgetTokens int    `mapstructure:"history_budget_tokens" yaml:"history_budget_tokens"`

	// History recall (embedding search over old turns)
	RecallEnabled     bool    `mapstructure:"recall_enabled" yaml:"recall_enabled"`
	EmbeddingModel    string  `mapstructure:"embedding_model" yaml:"embedding_model"`
	EmbeddingProvider string  `mapstructure:"embedding_provider" yaml:"embedding_provider"`
	RecallTopK        int     `mapstructure:"recall_top_k" yaml:"recall_top_k"`
	RecallMinScore    float64 `mapstructure:"recall_min_score" yaml:"recall_min_score"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	// Local runtimes (Ollama)
	OllamaHost       string `mapstructure:"ollama_host" yaml:"ollama_host"`
	OllamaTimeoutSec int    `mapstructure:"ollama_timeout_sec" yaml:"ollama_timeout_sec"`
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.edachat/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".edachat")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("EDACHAT")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("default_model", "openai/gpt-4o-mini")
	v.SetDefault("default_provider", "openrouter")
	v.SetDefault("max_tokens", 4096)
	v.SetDefault("temperature", 0.7)
	v.SetDefault("function_name", "eda_function")
	v.SetDefault("libraries", []string{"math", "statistics", "pandas", "numpy"})
	v.SetDefault("prompt_template", "")
	v.SetDefault("validate.imports", true)
	v.SetDefault("validate.links", true)
	v.SetDefault("validate.save_funcs", true)
	v.SetDefault("validate.exec_eval", true)
	v.SetDefault("interpreter", "python")
	v.SetDefault("python_bin", "python3")
	v.SetDefault("exec_timeout_sec", 0)
	v.SetDefault("history_budget_tokens", 6000)
	v.SetDefault("recall_enabled", false)
	v.SetDefault("embedding_model", "openai/text-embedding-3-small")
	v.SetDefault("embedding_provider", "openrouter")
	v.SetDefault("recall_top_k", 4)
	v.SetDefault("recall_min_score", 0.0)
	// HTTP/retry defaults
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)
	// Ollama defaults
	v.SetDefault("ollama_host", "http://127.0.0.1:11434")
	v.SetDefault("ollama_timeout_sec", 60)

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".edachat")
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.SessionsDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		c.SessionsDir = filepath.Join(home, ".edachat", "sessions")
	}
	return &c, nil
}
