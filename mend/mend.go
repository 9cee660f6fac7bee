package mend

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/sokinpui/mend/cli"
	"github.com/sokinpui/mend/internal/edit"
	"github.com/sokinpui/mend/internal/fs"
	"github.com/sokinpui/mend/internal/model"
	"github.com/sokinpui/mend/internal/source"
	"github.com/sokinpui/mend/internal/state"
)

// App orchestrates one invocation of the tool.
type App struct {
	cfg          *cli.Config
	stateManager *state.Manager
	resolver     *fs.PathResolver
	provider     *source.Provider
	confirmer    edit.Confirmer
}

// DetailedError enhances a standard error with a stack trace.
type DetailedError struct {
	Err   error
	Stack []byte
}

func (e *DetailedError) Error() string {
	return e.Err.Error()
}

// New creates a new App instance. The default confirmer auto-approves so
// the library works headless; interactive front ends inject their own via
// SetConfirmer.
func New(cfg *cli.Config) (*App, error) {
	stateManager, err := state.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize state manager: %w", err)
	}

	return &App{
		cfg:          cfg,
		stateManager: stateManager,
		resolver:     fs.NewPathResolver(cfg.LookupDirs),
		provider:     source.New(cfg.File),
		confirmer:    autoApprove(),
	}, nil
}

// SetConfirmer replaces the confirmation capability.
func (a *App) SetConfirmer(c edit.Confirmer) {
	if c != nil {
		a.confirmer = c
	}
}

// Execute runs the mode selected by the flags.
func (a *App) Execute() (summary model.Summary, err error) {
	// Centralized panic recovery to provide stack traces for unexpected errors.
	defer func() {
		if r := recover(); r != nil {
			err = &DetailedError{
				Err:   fmt.Errorf("internal panic: %v", r),
				Stack: debug.Stack(),
			}
		}
	}()

	switch {
	case a.cfg.Undo:
		return a.undoLastOperation()
	case a.cfg.Redo:
		return a.redoLastOperation()
	default:
		return a.processContent()
	}
}

// processContent reads the response and runs the reconciliation loop.
func (a *App) processContent() (model.Summary, error) {
	content, err := a.provider.GetContent()
	if err != nil {
		return model.Summary{}, err
	}
	if content == "" {
		return model.Summary{Message: "Source is empty. Nothing to process."}, nil
	}
	return a.Run(content)
}

// Run reconciles the edits proposed in content against the files on disk,
// applying each one its confirmer approves.
func (a *App) Run(content string) (model.Summary, error) {
	confirm := a.confirmer
	if a.cfg.PrintDiff {
		confirm = printOnly()
	}

	orch := edit.New(a.resolver, confirm)
	orch.SetMarker(a.cfg.Marker)
	orch.SetExtensions(a.cfg.Extensions)

	kind := model.KindSection
	if a.cfg.Udiff {
		kind = model.KindUnified
	}

	res := orch.Run(content, kind)

	if len(res.Applied) > 0 && !a.cfg.PrintDiff {
		changes := make([]state.Change, 0, len(res.Applied))
		for _, ap := range res.Applied {
			changes = append(changes, state.Change{
				Path:   ap.Path,
				Action: ap.Decision.String(),
				Before: ap.Before,
				After:  ap.After,
			})
		}
		if err := a.stateManager.Record(changes); err != nil {
			// The edits are already on disk; only undo is lost.
			return a.summarize(res), fmt.Errorf("failed to record undo state: %w", err)
		}
	}

	return a.summarize(res), nil
}

func (a *App) summarize(res *edit.Result) model.Summary {
	var s model.Summary
	for _, ap := range res.Applied {
		if ap.Decision == model.Create {
			s.Created = append(s.Created, ap.Path)
		} else {
			s.Modified = append(s.Modified, ap.Path)
		}
	}
	s.Skipped = append(s.Skipped, res.Skipped...)
	for _, f := range res.Failures {
		s.Failed = append(s.Failed, fmt.Sprintf("%s: %v", f.Path, f.Err))
	}
	relativizeSummaryPaths(&s)
	return s
}

func (a *App) undoLastOperation() (model.Summary, error) {
	restored, failed, err := a.stateManager.Undo()
	if err != nil {
		return model.Summary{}, err
	}
	if len(restored) == 0 && len(failed) == 0 {
		return model.Summary{Message: "No operation to undo."}, nil
	}
	s := model.Summary{Modified: restored, Failed: failed, Message: "Undid last operation."}
	relativizeSummaryPaths(&s)
	return s, nil
}

func (a *App) redoLastOperation() (model.Summary, error) {
	redone, failed, err := a.stateManager.Redo()
	if err != nil {
		return model.Summary{}, err
	}
	if len(redone) == 0 && len(failed) == 0 {
		return model.Summary{Message: "No operation to redo."}, nil
	}
	s := model.Summary{Modified: redone, Failed: failed, Message: "Redid last undone operation."}
	relativizeSummaryPaths(&s)
	return s, nil
}

// Apply is a one-shot library entry point: reconcile content and apply
// every discovered change without prompting.
func Apply(content string, cfg cli.Config) (model.Summary, error) {
	app, err := New(&cfg)
	if err != nil {
		return model.Summary{}, err
	}
	return app.Run(content)
}

func autoApprove() edit.Confirmer {
	return edit.ConfirmerFunc(func(string, model.Decision, string) (bool, error) {
		return true, nil
	})
}

// printOnly renders each diff to stdout and declines the write.
func printOnly() edit.Confirmer {
	return edit.ConfirmerFunc(func(_ string, _ model.Decision, rendered string) (bool, error) {
		fmt.Print(rendered)
		return false, nil
	})
}

// relativizeSummaryPaths converts absolute file paths in a summary to be
// relative to the current working directory for cleaner display.
func relativizeSummaryPaths(summary *model.Summary) {
	wd, err := os.Getwd()
	if err != nil {
		return
	}

	makeRelative := func(absPaths []string) []string {
		relPaths := make([]string, len(absPaths))
		for i, p := range absPaths {
			rel, err := filepath.Rel(wd, p)
			if err != nil {
				relPaths[i] = p
			} else {
				relPaths[i] = rel
			}
		}
		return relPaths
	}

	summary.Created = makeRelative(summary.Created)
	summary.Modified = makeRelative(summary.Modified)
	summary.Skipped = makeRelative(summary.Skipped)
}
