package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/cwbudde/machine-dialect/internal/bytecode"
	"github.com/cwbudde/machine-dialect/internal/optimize"
	"github.com/spf13/cobra"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive Machine Dialect shell",
	Long: "Start a REPL: each blank line submits the statements typed since\n" +
		"the last submission as one document, compiled and run immediately.",
	RunE: runShell,
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

func runShell(_ *cobra.Command, _ []string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "md> ",
		HistoryFile:     "",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return &ioError{fmt.Errorf("starting shell: %w", err)}
	}
	defer rl.Close()

	var buf strings.Builder
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			buf.Reset()
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return &ioError{err}
		}

		if strings.TrimSpace(line) == "" {
			src := buf.String()
			buf.Reset()
			if strings.TrimSpace(src) == "" {
				continue
			}
			evalShellSource(src)
			continue
		}
		buf.WriteString(line)
		buf.WriteString("\n")
	}
}

func evalShellSource(src string) {
	mod, err := compileToModule(src, "<shell>", optimize.Basic, "shell")
	if err != nil {
		return
	}
	result, err := bytecode.New(mod).Run()
	if err != nil {
		fmt.Printf("Runtime error: %s\n", err)
		return
	}
	if !result.IsEmpty() {
		fmt.Println(result.String())
	}
}
