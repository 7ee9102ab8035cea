package cmd

import (
	"fmt"
	"os"

	"github.com/cwbudde/machine-dialect/internal/bytecode"
	"github.com/cwbudde/machine-dialect/internal/optimize"
	"github.com/spf13/cobra"
)

var disasmOptLevel int

var disasmCmd = &cobra.Command{
	Use:   "disasm [file]",
	Short: "Compile a document and print its disassembly",
	Long:  "Compile a Machine Dialect document and print its bytecode module\nwithout running it: constant pool, globals, and every function chunk.",
	Args:  cobra.ExactArgs(1),
	RunE:  disasmScript,
}

func init() {
	rootCmd.AddCommand(disasmCmd)
	disasmCmd.Flags().IntVar(&disasmOptLevel, "opt", int(optimize.Basic), "optimizer level: 0=none, 1=basic, 2=aggressive")
}

func disasmScript(_ *cobra.Command, args []string) error {
	filename := args[0]
	body, filename, err := readInput(filename, "")
	if err != nil {
		return err
	}

	mod, err := compileToModule(body, filename, optimize.Level(disasmOptLevel), filename)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, bytecode.Disassemble(mod))
	return nil
}
