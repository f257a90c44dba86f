package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	verbose    bool
	outputFlag string
	baseFlag   string
	mapFlag    string
	searchDirs []string
	libNames   []string
)

func main() {
	root := &cobra.Command{
		Use:           "ez80ld [flags] object...",
		Short:         "Static linker for eZ80 EZ8O object files",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLink(args)
		},
	}
	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "trace linking phases to stderr")
	root.Flags().StringVarP(&outputFlag, "output", "o", "a.out", "output binary path")
	root.Flags().StringVarP(&baseFlag, "base", "b", "000000", "base address in hex")
	root.Flags().StringVarP(&mapFlag, "map", "m", "", "write a map file")
	root.Flags().StringArrayVarP(&searchDirs, "libdir", "L", nil, "library search directory (repeatable)")
	root.Flags().StringArrayVarP(&libNames, "lib", "l", nil, "link against libNAME.a (repeatable)")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("error:"), err)
		os.Exit(1)
	}
}

func newTraceLogger(verbose bool) *zap.SugaredLogger {
	if !verbose {
		return nil
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableCaller = true
	cfg.DisableStacktrace = true
	logger, err := cfg.Build()
	if err != nil {
		return nil
	}
	return logger.Sugar()
}

func runLink(objectPaths []string) error {
	base, err := strconv.ParseUint(strings.TrimPrefix(baseFlag, "0x"), 16, 32)
	if err != nil {
		return fmt.Errorf("invalid base address %q: %v", baseFlag, err)
	}

	trace := newTraceLogger(verbose)
	if trace != nil {
		defer trace.Sync()
	}

	ld := newLinker(uint32(base), trace)

	for _, p := range objectPaths {
		obj, err := loadObjectFile(p)
		if err != nil {
			return err
		}
		ld.addObject(obj)
	}

	for _, name := range libNames {
		path, err := resolveLibrary(name, searchDirs)
		if err != nil {
			return err
		}
		members, err := scanArchive(path)
		if err != nil {
			return err
		}
		ld.addLibrary(members)
	}

	code, data, err := ld.link()
	if err != nil {
		return err
	}

	if err := writeFlatBinary(outputFlag, code, data); err != nil {
		return err
	}
	if mapFlag != "" {
		if err := writeMapFile(mapFlag, ld); err != nil {
			return err
		}
	}

	if verbose {
		fmt.Printf("%s: %d code bytes, %d data bytes, %d bss bytes -> %s\n",
			color.GreenString("link ok"), ld.totalCode, ld.totalData, ld.totalBSS, outputFlag)
	}
	return nil
}

/* resolveLibrary implements "-l name": probe libNAME.a in each -L
   directory in order, then fall back to the literal path. */
func resolveLibrary(name string, dirs []string) (string, error) {
	libFile := "lib" + name + ".a"
	for _, dir := range dirs {
		candidate := filepath.Join(dir, libFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}
	return "", fmt.Errorf("cannot find library %q (tried lib%s.a in each -L directory, then %q)", name, name, name)
}
