package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/edalab/edachat/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set edachat configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Println("No config loaded")
			return nil
		}
		fmt.Printf("api_key: %s\n", mask(cfg.APIKey))
		fmt.Printf("default_model: %s\n", cfg.DefaultModel)
		fmt.Printf("default_provider: %s\n", cfg.DefaultProvider)
		fmt.Printf("max_tokens: %d\n", cfg.MaxTokens)
		fmt.Printf("temperature: %.3f\n", cfg.Temperature)
		fmt.Printf("function_name: %s\n", cfg.FunctionName)
		fmt.Printf("libraries: %s\n", strings.Join(cfg.Libraries, ", "))
		fmt.Printf("interpreter: %s (%s)\n", cfg.Interpreter, cfg.PythonBin)
		fmt.Printf("exec_timeout_sec: %d\n", cfg.ExecTimeoutSec)
		fmt.Printf("validate: imports=%v links=%v save_funcs=%v exec_eval=%v\n",
			cfg.Validate.Imports, cfg.Validate.Links, cfg.Validate.SaveFuncs, cfg.Validate.ExecEval)
		fmt.Printf("sessions_dir: %s\n", cfg.SessionsDir)
		fmt.Printf("history_budget_tokens: %d\n", cfg.HistoryBudgetTokens)
		fmt.Printf("recall_enabled: %v\n", cfg.RecallEnabled)
		if cfg.RecallEnabled {
			fmt.Printf("embedding_model: %s (%s)\n", cfg.EmbeddingModel, cfg.EmbeddingProvider)
			fmt.Printf("recall_top_k: %d\n", cfg.RecallTopK)
			fmt.Printf("recall_min_score: %.3f\n", cfg.RecallMinScore)
		}
		if cfg.DefaultProvider == "ollama" {
			fmt.Printf("ollama_host: %s\n", cfg.OllamaHost)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		switch key {
		case "api_key":
			cfg.APIKey = val
		case "default_model":
			cfg.DefaultModel = val
		case "default_provider":
			switch strings.ToLower(val) {
			case "openrouter", "openai", "ollama":
				cfg.DefaultProvider = strings.ToLower(val)
			default:
				return fmt.Errorf("invalid default_provider: %s (use openrouter, openai or ollama)", val)
			}
		case "function_name":
			cfg.FunctionName = val
		case "libraries":
			libs := strings.Split(val, ",")
			for i := range libs {
				libs[i] = strings.TrimSpace(libs[i])
			}
			cfg.Libraries = libs
		case "prompt_template":
			cfg.PromptTemplate = val
		case "interpreter":
			cfg.Interpreter = val
		case "python_bin":
			cfg.PythonBin = val
		case "exec_timeout_sec":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for exec_timeout_sec: %v", val)
			}
			cfg.ExecTimeoutSec = i
		case "validate.imports", "validate.links", "validate.save_funcs", "validate.exec_eval":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("invalid bool for %s: %v", key, val)
			}
			switch key {
			case "validate.imports":
				cfg.Validate.Imports = b
			case "validate.links":
				cfg.Validate.Links = b
			case "validate.save_funcs":
				cfg.Validate.SaveFuncs = b
			case "validate.exec_eval":
				cfg.Validate.ExecEval = b
			}
		case "max_tokens":
			i, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("invalid int for max_tokens: %w", err)
			}
			cfg.MaxTokens = i
		case "temperature":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return fmt.Errorf("invalid float for temperature: %w", err)
			}
			cfg.Temperature = f
		case "history_budget_tokens":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for history_budget_tokens: %v", val)
			}
			cfg.HistoryBudgetTokens = i
		case "recall_enabled":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("invalid bool for recall_enabled: %v", val)
			}
			cfg.RecallEnabled = b
		case "embedding_model":
			cfg.EmbeddingModel = val
		case "embedding_provider":
			switch strings.ToLower(val) {
			case "openrouter", "ollama":
				cfg.EmbeddingProvider = strings.ToLower(val)
			default:
				return fmt.Errorf("invalid embedding_provider: %s (use openrouter or ollama)", val)
			}
		case "recall_top_k":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for recall_top_k: %v", val)
			}
			cfg.RecallTopK = i
		case "recall_min_score":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil || f < 0 {
				return fmt.Errorf("invalid float for recall_min_score: %v", val)
			}
			cfg.RecallMinScore = f
		case "sessions_dir":
			cfg.SessionsDir = val
		case "ollama_host":
			cfg.OllamaHost = val
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Println("Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
