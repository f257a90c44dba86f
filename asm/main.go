package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	verbose    bool
	outputFlag string
)

func main() {
	root := &cobra.Command{
		Use:           "ez80asm [flags] input.asm",
		Short:         "Two-pass assembler for the eZ80 in ADL mode",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssemble(args[0])
		},
	}
	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "trace pass activity to stderr")
	root.Flags().StringVarP(&outputFlag, "output", "o", "", "output object file (default: input with .o extension)")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("error:"), err)
		os.Exit(1)
	}
}

func newTraceLogger(verbose bool) *zap.SugaredLogger {
	if !verbose {
		return zap.NewNop().Sugar()
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableCaller = true
	cfg.DisableStacktrace = true
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return logger.Sugar()
}

func runAssemble(inputFile string) error {
	trace := newTraceLogger(verbose)
	defer trace.Sync()

	out := outputFlag
	if out == "" {
		out = defaultObjectName(inputFile)
	}

	trace.Infow("preprocessing", "input", inputFile)
	lines, err := preprocessFile(inputFile, 0)
	if err != nil {
		return err
	}

	trace.Infow("pass 1: sizing and symbol definition")
	trace.Infow("pass 2: encoding and relocation emission")
	asm, diags := assembleSource(inputFile, lines)

	for _, d := range diags {
		fmt.Fprintf(os.Stderr, "%s %s\n", color.RedString("error:"), d)
	}
	if asm.errors > 0 {
		return fmt.Errorf("%d error(s), no object file written", asm.errors)
	}

	trace.Infow("writing object file", "path", out, "code_bytes", len(asm.code), "data_bytes", len(asm.data))
	if err := writeObjectFile(out, asm); err != nil {
		return err
	}
	return nil
}

func defaultObjectName(inputFile string) string {
	if idx := strings.LastIndexByte(inputFile, '.'); idx >= 0 {
		return inputFile[:idx] + ".o"
	}
	return inputFile + ".o"
}
