package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "mdc",
	Short: "Machine Dialect compiler and runtime",
	Long: `mdc is a Go implementation of Machine Dialect, a Markdown-flavored
programming language.

A Machine Dialect document is itself readable prose: statements like
"Set ` + "`x`" + ` to _5_." and "If ` + "`x`" + ` is greater than _3_: ..." compile through a
lexer, parser, HIR, MIR/SSA, an optimizer, and down to a bytecode module
that mdc's register VM runs directly.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
}
