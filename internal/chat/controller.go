package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/edalab/edachat/internal/ai"
	"github.com/edalab/edachat/internal/logger"
	"github.com/edalab/edachat/internal/prompt"
	"github.com/edalab/edachat/internal/utils"
)

// ErrBusy is returned when Send is called while a previous turn is still
// streaming. One cooperative turn at a time; input stays blocked until the
// reply completes.
var ErrBusy = errors.New("a reply is still streaming; wait for it to finish")

// Recaller supplies relevant snippets from older history when the transcript
// no longer fits the token budget.
type Recaller interface {
	Recall(ctx context.Context, query string) (string, error)
}

// Options configures a Conversation.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
	// HistoryBudgetTokens caps the serialized history included in a prompt.
	// When exceeded, history is condensed to the last two turns. 0 selects
	// a default derived from the model's context window.
	HistoryBudgetTokens int
	Recaller            Recaller // optional
}

// Conversation drives the turn loop: append user input, build the prompt,
// stream the model reply, parse it into a new assistant turn.
type Conversation struct {
	mu   sync.Mutex
	busy bool

	transcript *Transcript
	provider   ai.Provider
	builder    *prompt.Builder
	opts       Options
}

// NewConversation wires a provider and prompt builder to a transcript. A nil
// transcript starts an empty one.
func NewConversation(provider ai.Provider, builder *prompt.Builder, transcript *Transcript, opts Options) *Conversation {
	if transcript == nil {
		transcript = &Transcript{}
	}
	if opts.HistoryBudgetTokens <= 0 {
		// Leave room for the reply and the fixed template text.
		opts.HistoryBudgetTokens = ai.ContextWindow(opts.Model) / 4
	}
	return &Conversation{
		transcript: transcript,
		provider:   provider,
		builder:    builder,
		opts:       opts,
	}
}

// Transcript exposes the conversation's turn list.
func (c *Conversation) Transcript() *Transcript { return c.transcript }

// Busy reports whether a turn is currently in flight.
func (c *Conversation) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

func (c *Conversation) acquire() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return ErrBusy
	}
	c.busy = true
	return nil
}

func (c *Conversation) release() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}

// Send runs one conversation turn. The user input is appended to the
// transcript, the prompt is built from the (possibly condensed) history, and
// the model reply streams through onDelta in arrival order before being
// parsed into the returned assistant turn. Model call failures are returned
// as-is; the user turn stays in the transcript so the input is not lost.
func (c *Conversation) Send(ctx context.Context, input string, onDelta func(string)) (*Turn, error) {
	if strings.TrimSpace(input) == "" {
		return nil, errors.New("input is empty")
	}
	if err := c.acquire(); err != nil {
		return nil, err
	}
	defer c.release()

	history := c.historyForPrompt(ctx, input)
	c.transcript.Append(NewTurn(uuid.NewString(), RoleUser, input))

	rendered := c.builder.Render(history, input)
	req := ai.GenerateRequest{
		Model:       c.opts.Model,
		Messages:    []ai.Message{{Role: RoleUser, Content: rendered}},
		MaxTokens:   c.opts.MaxTokens,
		Temperature: c.opts.Temperature,
	}

	reply, err := c.generate(ctx, req, onDelta)
	if err != nil {
		return nil, err
	}
	turn := NewTurn(uuid.NewString(), RoleAssistant, reply)
	c.transcript.Append(turn)
	return turn, nil
}

func (c *Conversation) generate(ctx context.Context, req ai.GenerateRequest, onDelta func(string)) (string, error) {
	if sp, ok := c.provider.(ai.StreamProvider); ok && onDelta != nil {
		var b strings.Builder
		err := sp.GenerateStream(ctx, req, func(d string) {
			b.WriteString(d)
			onDelta(d)
		})
		if err != nil {
			return "", err
		}
		return b.String(), nil
	}
	resp, err := c.provider.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	content := resp.Content()
	if onDelta != nil {
		onDelta(content)
	}
	return content, nil
}

// historyForPrompt serializes prior turns, condensing to the last two when
// the full history exceeds the budget. If a recaller is attached, relevant
// older snippets are prepended to the condensed history.
func (c *Conversation) historyForPrompt(ctx context.Context, input string) string {
	full := c.transcript.Memory()
	if utils.CountTokens(full) <= c.opts.HistoryBudgetTokens {
		return full
	}
	condensed := c.transcript.MemoryLastN(2)
	if c.opts.Recaller == nil {
		return condensed
	}
	recalled, err := c.opts.Recaller.Recall(ctx, input)
	if err != nil {
		logger.Warn("history recall failed", "error", err)
		return condensed
	}
	if recalled == "" {
		return condensed
	}
	return "[RECALLED CONTEXT]\n" + recalled + "\n\n" + condensed
}
