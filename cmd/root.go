package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	cfgpkg "github.com/edalab/edachat/internal/config"
	"github.com/edalab/edachat/internal/logger"
)

var (
	// Global flags (wired to config/viper at load time)
	cfgFile  string
	logLevel string
	logFile  string
	// Per-invocation overrides
	flagModel       string
	flagProvider    string
	flagHTTPTimeout int
	flagRetryMax    int

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "edachat",
	Short: "edachat: chat with a model about your data and run the code it writes",
	Long: `edachat is an interactive EDA assistant. It sends your questions about
configured tables to a language model, extracts the runnable code from the
reply, and executes it on demand in a persistent interpreter owned by the
session.`,
}

// Execute is the entry point called by main.main()
func Execute() {
	cobra.OnInitialize(initApp)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.edachat/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "append logs to this file instead of stderr")
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "", "model to use (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagProvider, "provider", "", "provider: openrouter, openai, ollama (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeout, "http-timeout", 0, "HTTP timeout in seconds for model calls (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMax, "retry-max", 0, "max retry attempts for model calls (overrides config)")
}

func initApp() {
	// A local .env can hold EDACHAT_API_KEY during development.
	_ = godotenv.Load()

	if err := logger.Configure(logLevel, logFile); err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: logger setup failed: %v\n", err)
	}

	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c

	f := rootCmd.PersistentFlags()
	if f.Changed("model") && flagModel != "" {
		cfg.DefaultModel = flagModel
	}
	if f.Changed("provider") && flagProvider != "" {
		cfg.DefaultProvider = flagProvider
	}
	if f.Changed("http-timeout") && flagHTTPTimeout > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeout
	}
	if f.Changed("retry-max") && flagRetryMax > 0 {
		cfg.RetryMaxAttempts = flagRetryMax
	}
}
