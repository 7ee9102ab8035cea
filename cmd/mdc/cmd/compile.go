package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cwbudde/machine-dialect/internal/bytecode"
	"github.com/cwbudde/machine-dialect/internal/optimize"
	"github.com/spf13/cobra"
)

var (
	outputFile     string
	optLevelFlag   int
	disassemble    bool
	compileVerbose bool
)

var compileCmd = &cobra.Command{
	Use:   "compile [file]",
	Short: "Compile a Machine Dialect document to bytecode",
	Long: `Compile a Machine Dialect document down to a serialized bytecode
module and save it as a .mdbc file.

Examples:
  # Compile a document to bytecode
  mdc compile doc.md

  # Compile with a custom output path
  mdc compile doc.md -o out.mdbc

  # Compile and show the disassembly on stderr
  mdc compile doc.md --disassemble`,
	Args: cobra.ExactArgs(1),
	RunE: compileScript,
}

func init() {
	rootCmd.AddCommand(compileCmd)

	compileCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default: <input>.mdbc)")
	compileCmd.Flags().IntVar(&optLevelFlag, "opt", int(optimize.Basic), "optimizer level: 0=none, 1=basic, 2=aggressive")
	compileCmd.Flags().BoolVar(&disassemble, "disassemble", false, "show disassembled bytecode after compilation")
	compileCmd.Flags().BoolVarP(&compileVerbose, "verbose", "v", false, "verbose output")
}

func compileScript(_ *cobra.Command, args []string) error {
	filename := args[0]

	body, filename, err := readInput(filename, "")
	if err != nil {
		return err
	}

	if compileVerbose {
		fmt.Fprintf(os.Stderr, "Compiling %s...\n", filename)
	}

	mod, err := compileToModule(body, filename, optimize.Level(optLevelFlag), filename)
	if err != nil {
		return err
	}

	if compileVerbose {
		fmt.Fprintf(os.Stderr, "Compilation successful\n")
		fmt.Fprintf(os.Stderr, "  Functions: %d\n", len(mod.Functions))
		fmt.Fprintf(os.Stderr, "  Constants: %d\n", len(mod.Constants))
		fmt.Fprintf(os.Stderr, "  Main locals: %d\n", mod.Main.Locals)
	}

	if disassemble {
		fmt.Fprintf(os.Stderr, "\n== Disassembled Bytecode (%s) ==\n", filename)
		fmt.Fprintln(os.Stderr, bytecode.Disassemble(mod))
	}

	data := bytecode.Serialize(mod)

	outFile := outputFile
	if outFile == "" {
		ext := filepath.Ext(filename)
		if ext != "" {
			outFile = strings.TrimSuffix(filename, ext) + ".mdbc"
		} else {
			outFile = filename + ".mdbc"
		}
	}

	if err := os.WriteFile(outFile, data, 0644); err != nil {
		return &ioError{fmt.Errorf("writing %s: %w", outFile, err)}
	}

	if compileVerbose {
		fmt.Fprintf(os.Stderr, "Bytecode written to %s (%d bytes)\n", outFile, len(data))
	} else {
		fmt.Printf("Compiled %s -> %s\n", filename, outFile)
	}

	return nil
}
