package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/caffeineduck/sexprbox/sexpr"
	"github.com/caffeineduck/sexprbox/wire"
)

func newReplCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive s-expression reader",
		Long: `Start an interactive session that reads s-expressions and prints their
canonical form and wire encoding.

Features:
  - Command history (up/down arrows)
  - Line editing (left/right, backspace, delete)
  - History search (Ctrl+R)
  - Multi-line input (end line with \)

Enter ':decode <hex>' to decode records. Type 'exit' or 'quit' to end the
session, or press Ctrl+D.`,
		RunE: runRepl,
	}
	cmd.Flags().String("history", "", "History file path (default: ~/.sexprbox_history)")
	return cmd
}

func runRepl(cmd *cobra.Command, args []string) error {
	historyFile, _ := cmd.Flags().GetString("history")
	if historyFile == "" {
		home, _ := os.UserHomeDir()
		historyFile = filepath.Join(home, ".sexprbox_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            ">>> ",
		HistoryFile:       historyFile,
		HistoryLimit:      1000,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
		Stdout:            cmd.OutOrStdout(),
		Stderr:            cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("initialize readline: %w", err)
	}
	defer rl.Close()

	fmt.Fprintln(cmd.ErrOrStderr(), "sexprbox REPL (type 'exit' to quit, Ctrl+D to exit)")

	var multiLine strings.Builder
	inMultiLine := false

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				multiLine.Reset()
				inMultiLine = false
				rl.SetPrompt(">>> ")
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		if strings.HasSuffix(line, "\\") {
			multiLine.WriteString(strings.TrimSuffix(line, "\\"))
			multiLine.WriteString("\n")
			inMultiLine = true
			rl.SetPrompt("... ")
			continue
		}
		if inMultiLine {
			multiLine.WriteString(line)
			line = multiLine.String()
			multiLine.Reset()
			inMultiLine = false
			rl.SetPrompt(">>> ")
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}
		if err := evalLine(rl.Stdout(), line); err != nil {
			fmt.Fprintf(rl.Stderr(), "Error: %v\n", err)
		}
	}
}

// evalLine handles one REPL entry.
func evalLine(w io.Writer, line string) error {
	if rest, ok := strings.CutPrefix(line, ":decode"); ok {
		b, err := hex.DecodeString(strings.Join(strings.Fields(rest), ""))
		if err != nil {
			return fmt.Errorf("invalid hex: %w", err)
		}
		return printRecords(w, b)
	}

	v, err := sexpr.Parse(line)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, sexpr.Render(v))
	fmt.Fprintln(w, hex.EncodeToString(wire.Marshal(v)))
	return nil
}
