package cmd

import (
	"fmt"
	"os"

	"github.com/cwbudde/machine-dialect/internal/bytecode"
	"github.com/cwbudde/machine-dialect/internal/optimize"
	"github.com/spf13/cobra"
)

var (
	evalExpr    string
	runOptLevel int
	dumpBC      bool
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run a Machine Dialect document",
	Long: "Compile and execute a Machine Dialect document in one step.\n\n" +
		"Examples:\n" +
		"  mdc run doc.md\n" +
		"  mdc run -e 'Set `x` to _2_ + _3_. `x`.'",
	Args: cobra.MaximumNArgs(1),
	RunE: runScript,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&evalExpr, "eval", "e", "", "evaluate an inline document body instead of reading a file")
	runCmd.Flags().IntVar(&runOptLevel, "opt", int(optimize.Basic), "optimizer level: 0=none, 1=basic, 2=aggressive")
	runCmd.Flags().BoolVar(&dumpBC, "dump-bytecode", false, "print the disassembled module before running it")
}

func runScript(_ *cobra.Command, args []string) error {
	var path string
	if len(args) == 1 {
		path = args[0]
	} else if evalExpr == "" {
		return &compileError{fmt.Errorf("either provide a file path or use -e for an inline document")}
	}

	body, filename, err := readInput(path, evalExpr)
	if err != nil {
		return err
	}

	mod, err := compileToModule(body, filename, optimize.Level(runOptLevel), filename)
	if err != nil {
		return err
	}

	if dumpBC {
		fmt.Fprintln(os.Stderr, bytecode.Disassemble(mod))
	}

	result, err := bytecode.New(mod).Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Runtime error: %s\n", err)
		return err
	}

	if !result.IsEmpty() {
		fmt.Println(result.String())
	}
	return nil
}
