package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/edalab/edachat/internal/ai"
	"github.com/edalab/edachat/internal/chat"
	cfgpkg "github.com/edalab/edachat/internal/config"
	"github.com/edalab/edachat/internal/prompt"
	"github.com/edalab/edachat/internal/recall"
	"github.com/edalab/edachat/internal/runtime"
	"github.com/edalab/edachat/internal/tables"
	"github.com/edalab/edachat/internal/validator"
)

func requireConfig() (*cfgpkg.Global, error) {
	if cfg == nil {
		return nil, errors.New("configuration not loaded; run 'edachat config set api_key <key>' first")
	}
	return cfg, nil
}

func providerConfig(c *cfgpkg.Global) ai.ProviderConfig {
	return ai.ProviderConfig{
		HTTPTimeout: time.Duration(c.HTTPTimeoutSec) * time.Second,
		RetryMax:    c.RetryMaxAttempts,
		BaseDelay:   time.Duration(c.RetryBaseDelayMs) * time.Millisecond,
		MaxDelay:    time.Duration(c.RetryMaxDelayMs) * time.Millisecond,
		APIKey:      c.APIKey,
		Host:        c.OllamaHost,
	}
}

func buildProvider(c *cfgpkg.Global) (ai.Provider, error) {
	name := c.DefaultProvider
	if name == "" {
		name = ai.ProviderOpenRouter
	}
	pc := providerConfig(c)
	if name == ai.ProviderOllama {
		pc.HTTPTimeout = time.Duration(c.OllamaTimeoutSec) * time.Second
	}
	p, ok := ai.GetProvider(name, pc)
	if !ok {
		return nil, fmt.Errorf("unknown provider %q (use openrouter, openai or ollama)", name)
	}
	return p, nil
}

// loadTables reads every configured table reference.
func loadTables(c *cfgpkg.Global) ([]*tables.Table, error) {
	out := make([]*tables.Table, 0, len(c.Tables))
	for _, ref := range c.Tables {
		t, err := tables.LoadFile(ref.Path, ref.Name)
		if err != nil {
			return nil, fmt.Errorf("load table %q: %w", ref.Name, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func tablesDescription(c *cfgpkg.Global) (string, error) {
	ts, err := loadTables(c)
	if err != nil {
		return "", err
	}
	if len(ts) == 0 {
		return "(no tables configured)", nil
	}
	return tables.Describe(ts, tables.DefaultOptions()), nil
}

func tablePaths(c *cfgpkg.Global) map[string]string {
	m := make(map[string]string, len(c.Tables))
	for _, ref := range c.Tables {
		name := ref.Name
		if name == "" {
			name = ref.Path
		}
		m[name] = ref.Path
	}
	return m
}

func buildValidator(c *cfgpkg.Global) *validator.Validator {
	return validator.New(validator.Config{
		Imports:   c.Validate.Imports,
		Links:     c.Validate.Links,
		SaveFuncs: c.Validate.SaveFuncs,
		ExecEval:  c.Validate.ExecEval,
	})
}

// newInterpreter builds and starts the session's interpreter. workDir holds
// the driver script and exported figures.
func newInterpreter(ctx context.Context, c *cfgpkg.Global, workDir string) (runtime.Interpreter, error) {
	opts := runtime.Options{
		Bin:          c.PythonBin,
		FunctionName: c.FunctionName,
		Imports:      importStatements(c.Libraries),
		Tables:       tablePaths(c),
		WorkDir:      workDir,
		Timeout:      time.Duration(c.ExecTimeoutSec) * time.Second,
		Validator:    buildValidator(c),
	}
	interp, ok := runtime.New(c.Interpreter, opts)
	if !ok {
		return nil, fmt.Errorf("unknown interpreter %q", c.Interpreter)
	}
	if err := interp.Start(ctx); err != nil {
		return nil, fmt.Errorf("start interpreter: %w", err)
	}
	return interp, nil
}

func importStatements(libraries []string) []string {
	out := make([]string, 0, len(libraries))
	for _, lib := range libraries {
		switch lib {
		case "pandas":
			out = append(out, "import pandas as pd", "import pandas")
		case "numpy":
			out = append(out, "import numpy as np", "import numpy")
		case "matplotlib":
			out = append(out, "import matplotlib", "matplotlib.use('Agg')", "import matplotlib.pyplot as plt")
		default:
			out = append(out, "import "+lib)
		}
	}
	return out
}

// buildEmbedder selects the embeddings backend for history recall.
func buildEmbedder(c *cfgpkg.Global) (recall.Embedder, error) {
	pc := providerConfig(c)
	switch c.EmbeddingProvider {
	case ai.ProviderOllama:
		client := ai.NewOllamaClient(pc.Host, pc.HTTPTimeout, pc.RetryMax, pc.BaseDelay, pc.MaxDelay)
		return recall.EmbedderFunc(func(ctx context.Context, texts []string) ([][]float32, error) {
			return client.Embed(ctx, c.EmbeddingModel, texts)
		}), nil
	case "", ai.ProviderOpenRouter:
		client := ai.NewClient(pc.APIKey, pc.HTTPTimeout, pc.RetryMax, pc.BaseDelay, pc.MaxDelay)
		return recall.EmbedderFunc(func(ctx context.Context, texts []string) ([][]float32, error) {
			return client.Embed(ctx, c.EmbeddingModel, texts)
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedding_provider %q", c.EmbeddingProvider)
	}
}

// newConversation wires provider, prompt and optional recall for a session.
func newConversation(c *cfgpkg.Global, session *chat.Session) (*chat.Conversation, error) {
	provider, err := buildProvider(c)
	if err != nil {
		return nil, err
	}
	desc, err := tablesDescription(c)
	if err != nil {
		return nil, err
	}
	builder := prompt.NewBuilder(c.PromptTemplate, c.Libraries, desc, c.FunctionName)

	opts := chat.Options{
		Model:               c.DefaultModel,
		MaxTokens:           c.MaxTokens,
		Temperature:         c.Temperature,
		HistoryBudgetTokens: c.HistoryBudgetTokens,
	}
	if c.RecallEnabled {
		emb, err := buildEmbedder(c)
		if err != nil {
			return nil, err
		}
		turnsFn := func() []recall.TurnDoc {
			tr := session.Transcript()
			docs := make([]recall.TurnDoc, 0, len(tr.Turns))
			for _, t := range tr.Turns {
				docs = append(docs, recall.TurnDoc{ID: t.ID, Role: t.Role, Content: t.Memory()})
			}
			return docs
		}
		opts.Recaller = recall.NewRecaller(emb, session.RootDir(), turnsFn, recall.BuildOptions{
			EmbedProvider: c.EmbeddingProvider,
			EmbedModel:    c.EmbeddingModel,
		}, c.RecallTopK, c.RecallMinScore)
	}
	return chat.NewConversation(provider, builder, session.Transcript(), opts), nil
}
