package main

import (
	"fmt"
	"os"

	"github.com/sokinpui/mend/cli"
	"github.com/sokinpui/mend/internal/tui"
	"github.com/sokinpui/mend/mend"
)

func main() {
	cfg, err := cli.ParseFlags()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	app, err := mend.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	// Interactive confirmation unless a non-prompting mode was chosen.
	if !cfg.Yes && !cfg.PrintDiff && !cfg.Undo && !cfg.Redo {
		prompt, err := tui.NewPrompt()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer prompt.Close()
		app.SetConfirmer(prompt)
	}

	summary, err := app.Execute()
	if err != nil {
		if e, ok := err.(*mend.DetailedError); ok {
			fmt.Fprintf(os.Stderr, "\n--- Stack Trace ---\n%s\n", e.Stack)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if out := tui.RenderSummary(summary); out != "" {
		fmt.Print(out)
	}
}
