package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/edalab/edachat/internal/chat"
	cfgpkg "github.com/edalab/edachat/internal/config"
	"github.com/edalab/edachat/internal/logger"
	"github.com/edalab/edachat/internal/render"
	"github.com/edalab/edachat/internal/runtime"
)

var (
	flagSessionID   string
	flagSessionName string
	flagNoRuntime   bool
)

var chatCmd *cobra.Command

func init() {
	chatCmd = &cobra.Command{
		Use:   "chat",
		Short: "Start or resume an interactive chat session",
		Long: `Opens a REPL. Plain input is sent to the model; replies stream in and
any fenced code they contain becomes runnable blocks.

Commands inside the REPL:
  /run [n]          run code block n of the last reply (default: all)
  /note n i <text>  annotate output i of code block n
  /show             re-render the last reply with its outputs
  /tables           show the configured table summaries
  /help             list commands
  /quit             save and exit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := requireConfig()
			if err != nil {
				return err
			}
			return runChat(cmd.Context(), c)
		},
	}
	chatCmd.Flags().StringVar(&flagSessionID, "session", "", "resume a session by id or id prefix")
	chatCmd.Flags().StringVar(&flagSessionName, "name", "", "name for a new session")
	chatCmd.Flags().BoolVar(&flagNoRuntime, "no-runtime", false, "do not attach an interpreter (code cannot be run)")
	rootCmd.AddCommand(chatCmd)
}

func runChat(ctx context.Context, c *cfgpkg.Global) error {
	session, err := openSession(c)
	if err != nil {
		return err
	}
	if err := session.Save(); err != nil {
		return err
	}

	conv, err := newConversation(c, session)
	if err != nil {
		return err
	}

	// A missing interpreter disables /run but never blocks the chat.
	var interp runtime.Interpreter
	if !flagNoRuntime {
		interp, err = newInterpreter(ctx, c, session.RootDir())
		if err != nil {
			logger.Warn("interpreter unavailable, /run disabled", "error", err)
			interp = nil
		}
	}
	if interp != nil {
		defer interp.Close()
	}

	r := render.NewStdout()
	fmt.Printf("session %s (%s, %s) - /help for commands\n", session.ID[:8], c.DefaultProvider, c.DefaultModel)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "eda> ",
		HistoryFile:     filepath.Join(session.RootDir(), ".input_history"),
		InterruptPrompt: "^C",
	})
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := replCommand(ctx, line, session, interp, r); quit {
				break
			}
			continue
		}

		turn, err := conv.Send(ctx, line, r.Delta)
		fmt.Println()
		if err != nil {
			r.ErrorBanner(err.Error())
			continue
		}
		if len(turn.CodeBlocks()) > 0 {
			if interp != nil {
				fmt.Println("(reply contains code; /run to execute)")
			} else {
				r.RunDisabled()
			}
		}
		if err := session.Save(); err != nil {
			logger.Warn("session save failed", "error", err)
		}
	}

	if err := session.Save(); err != nil {
		return err
	}
	fmt.Printf("session saved: %s\n", session.ID)
	return nil
}

// replCommand handles a /command line. Returns true when the REPL should
// exit.
func replCommand(ctx context.Context, line string, session *chat.Session, interp runtime.Interpreter, r *render.Renderer) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Println(chatCmd.Long)
	case "/tables":
		desc, err := tablesDescription(cfg)
		if err != nil {
			r.ErrorBanner(err.Error())
			break
		}
		fmt.Println(desc)
	case "/show":
		if t := lastAssistantTurn(session); t != nil {
			r.Turn(t)
		} else {
			fmt.Println("no reply yet")
		}
	case "/run":
		runBlocks(ctx, fields[1:], session, interp, r)
	case "/note":
		noteOutput(fields[1:], session, r)
	default:
		fmt.Printf("unknown command %s (/help for commands)\n", fields[0])
	}
	return false
}

func lastAssistantTurn(session *chat.Session) *chat.Turn {
	turns := session.Transcript().Turns
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == chat.RoleAssistant {
			return turns[i]
		}
	}
	return nil
}

// runBlocks executes the selected code blocks of the last reply. Failures
// render inline and keep the session alive; the interpreter keeps whatever
// namespace mutations happened before the failure.
func runBlocks(ctx context.Context, args []string, session *chat.Session, interp runtime.Interpreter, r *render.Renderer) {
	if interp == nil {
		r.RunDisabled()
		return
	}
	turn := lastAssistantTurn(session)
	if turn == nil {
		fmt.Println("no reply yet")
		return
	}
	blocks := turn.CodeBlocks()
	if len(blocks) == 0 {
		fmt.Println("last reply has no code blocks")
		return
	}
	selected := blocks
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 || n >= len(blocks) {
			r.ErrorBanner(fmt.Sprintf("no code block %q (reply has %d)", args[0], len(blocks)))
			return
		}
		selected = blocks[n : n+1]
	}
	for _, cb := range selected {
		if err := cb.Run(ctx, interp); err != nil {
			r.ErrorBanner(cb.RunErr)
			continue
		}
		for _, out := range cb.Outputs {
			r.Output(out)
		}
	}
	if err := session.Save(); err != nil {
		logger.Warn("session save failed", "error", err)
	}
}

func noteOutput(args []string, session *chat.Session, r *render.Renderer) {
	if len(args) < 3 {
		fmt.Println("usage: /note <block> <output> <text>")
		return
	}
	turn := lastAssistantTurn(session)
	if turn == nil {
		fmt.Println("no reply yet")
		return
	}
	blocks := turn.CodeBlocks()
	bi, err1 := strconv.Atoi(args[0])
	oi, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil || bi < 0 || bi >= len(blocks) {
		fmt.Println("usage: /note <block> <output> <text>")
		return
	}
	if err := blocks[bi].SetNote(oi, strings.Join(args[2:], " ")); err != nil {
		r.ErrorBanner(err.Error())
		return
	}
	if err := session.Save(); err != nil {
		logger.Warn("session save failed", "error", err)
	}
}

func openSession(c *cfgpkg.Global) (*chat.Session, error) {
	if flagSessionID != "" {
		return chat.FindSession(c.SessionsDir, flagSessionID)
	}
	name := flagSessionName
	if name == "" {
		name = "session"
	}
	return chat.NewSession(c.SessionsDir, name, c.DefaultProvider, c.DefaultModel), nil
}
