package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/edalab/edachat/internal/chat"
	"github.com/edalab/edachat/internal/render"
	"github.com/edalab/edachat/internal/runtime"
)

var flagAskRun bool

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a single question without opening the REPL",
	Long: `Sends one question to the model and prints the reply. With --run, any
code in the reply is executed immediately and its outputs printed. The
exchange is saved as a session; --session resumes an existing one.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		question := strings.Join(args, " ")

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

		r := render.NewStdout()
		turn, err := conv.Send(ctx, question, r.Delta)
		fmt.Println()
		if err != nil {
			return err
		}

		if flagAskRun && len(turn.CodeBlocks()) > 0 {
			interp, err := newInterpreter(ctx, c, session.RootDir())
			if err != nil {
				r.RunDisabled()
			} else {
				defer interp.Close()
				runTurnBlocks(ctx, turn, interp, r)
			}
		}
		return session.Save()
	},
}

// runTurnBlocks executes every code block of a turn, rendering outputs or an
// inline error banner per block.
func runTurnBlocks(ctx context.Context, turn *chat.Turn, interp runtime.Interpreter, r *render.Renderer) {
	for _, cb := range turn.CodeBlocks() {
		if err := cb.Run(ctx, interp); err != nil {
			r.ErrorBanner(cb.RunErr)
			continue
		}
		for _, out := range cb.Outputs {
			r.Output(out)
		}
	}
}

func init() {
	askCmd.Flags().BoolVar(&flagAskRun, "run", false, "execute code in the reply immediately")
	askCmd.Flags().StringVar(&flagSessionID, "session", "", "resume a session by id or id prefix")
	rootCmd.AddCommand(askCmd)
}
