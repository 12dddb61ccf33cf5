package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/edalab/edachat/internal/markdown"
	"github.com/edalab/edachat/internal/render"
)

var flagRunNoValidate bool

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Execute a code file against the configured tables",
	Long: `Reads a file containing Python code (bare or inside a fenced markdown
block), validates it, and executes it in a fresh interpreter seeded with the
configured libraries and tables. Pass "-" to read the code from stdin. The
code must define the configured function (default eda_function).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		var b []byte
		if args[0] == "-" {
			b, err = io.ReadAll(os.Stdin)
		} else {
			b, err = os.ReadFile(args[0])
		}
		if err != nil {
			return fmt.Errorf("read code: %w", err)
		}
		code := string(b)
		if fenced := markdown.CodeBlock(code); fenced != "" {
			code = fenced
		}

		workDir, err := os.MkdirTemp("", "edachat-run-")
		if err != nil {
			return err
		}
		defer os.RemoveAll(workDir)

		if flagRunNoValidate {
			c.Validate.Imports = false
			c.Validate.Links = false
			c.Validate.SaveFuncs = false
			c.Validate.ExecEval = false
		}
		interp, err := newInterpreter(ctx, c, workDir)
		if err != nil {
			return err
		}
		defer interp.Close()

		r := render.NewStdout()
		outs, err := interp.Run(ctx, code)
		if err != nil {
			r.ErrorBanner(err.Error())
			return nil
		}
		for _, out := range outs {
			r.Output(out)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&flagRunNoValidate, "no-validate", false, "skip validation checks")
	rootCmd.AddCommand(runCmd)
}
