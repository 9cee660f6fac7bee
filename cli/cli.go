package cli

import (
	"fmt"

	"github.com/spf13/pflag"
)

// Config holds all the command-line flag values.
type Config struct {
	Udiff      bool
	PrintDiff  bool
	Yes        bool
	Undo       bool
	Redo       bool
	File       string
	Marker     string
	LookupDirs []string
	Extensions []string
}

// ParseFlags defines and parses command-line flags using pflag.
func ParseFlags() (*Config, error) {
	cfg := &Config{}

	pflag.BoolVarP(&cfg.Udiff, "udiff", "u", false, "Treat hinted code blocks as unified diffs instead of sectioned patches.")
	pflag.BoolVarP(&cfg.PrintDiff, "print-diff", "p", false, "Print each file's diff without prompting or writing anything.")
	pflag.BoolVarP(&cfg.Yes, "yes", "y", false, "Apply all changes without asking for confirmation.")
	pflag.StringVarP(&cfg.File, "file", "f", "", "Read the model response from a file instead of stdin or the clipboard.")
	pflag.StringVarP(&cfg.Marker, "marker", "m", "", "Override the unchanged-marker token of sectioned patches.")
	pflag.StringSliceVarP(&cfg.LookupDirs, "lookup-dir", "l", []string{}, "Directories to look for files in (default: current directory).")
	pflag.StringSliceVarP(&cfg.Extensions, "extension", "e", []string{}, "Only process files with these extensions (e.g. 'py', 'go').")

	// Mutually exclusive history group.
	pflag.BoolVarP(&cfg.Undo, "undo", "r", false, "Undo the last applied operation.")
	pflag.BoolVarP(&cfg.Redo, "redo", "R", false, "Redo the last undone operation.")

	pflag.Usage = func() {
		fmt.Println("Usage: mend [flags]")
		fmt.Println("\nReconcile file edits proposed in an LLM response (stdin, clipboard or -f)")
		fmt.Println("against the files on disk, review the diffs, and apply them on confirmation.")
		fmt.Println("\nExample: pbpaste | mend -e go")
		fmt.Println("\nFlags:")
		pflag.PrintDefaults()
	}

	pflag.Parse()

	if cfg.Undo && cfg.Redo {
		return nil, fmt.Errorf("error: --undo and --redo are mutually exclusive")
	}

	// Normalize extensions.
	for i, ext := range cfg.Extensions {
		if len(ext) > 0 && ext[0] != '.' {
			cfg.Extensions[i] = "." + ext
		}
	}

	return cfg, nil
}
