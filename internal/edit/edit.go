package edit

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/sokinpui/mend/internal/diffview"
	"github.com/sokinpui/mend/internal/extract"
	"github.com/sokinpui/mend/internal/fs"
	"github.com/sokinpui/mend/internal/model"
	"github.com/sokinpui/mend/internal/patcher"
)

// ErrAborted is returned by a Confirmer to stop the whole run. Files not
// yet processed are left untouched.
var ErrAborted = errors.New("aborted by user")

// Confirmer is the injected yes/no capability the orchestrator blocks on
// before writing anything. Anything but an explicit yes is a decline.
type Confirmer interface {
	Confirm(path string, decision model.Decision, rendered string) (bool, error)
}

// ConfirmerFunc adapts a plain function to the Confirmer interface.
type ConfirmerFunc func(path string, decision model.Decision, rendered string) (bool, error)

func (f ConfirmerFunc) Confirm(path string, decision model.Decision, rendered string) (bool, error) {
	return f(path, decision, rendered)
}

// AppliedEdit records one confirmed, written change.
type AppliedEdit struct {
	Path     string
	Decision model.Decision
	Before   string
	After    string
}

// Failure records a file that could not be processed. Other files in the
// same run keep going.
type Failure struct {
	Path string
	Err  error
}

// Result is the outcome of one orchestration pass.
type Result struct {
	Applied  []AppliedEdit
	Skipped  []string
	Failures []Failure
}

// Contents maps path to final written content for every applied file, for
// conversation bookkeeping by the caller.
func (r *Result) Contents() map[string]string {
	m := make(map[string]string, len(r.Applied))
	for _, a := range r.Applied {
		m[a.Path] = a.After
	}
	return m
}

// Orchestrator drives each edit discovered in a model response through
// Discovered → Diffed → Applied or Skipped. Files are processed strictly
// one at a time; the confirmation prompt is the only blocking point.
type Orchestrator struct {
	resolver   *fs.PathResolver
	section    *patcher.Section
	unified    *patcher.Unified
	confirm    Confirmer
	styles     diffview.Styles
	extensions []string
}

// New creates an Orchestrator. A nil confirmer declines everything.
func New(resolver *fs.PathResolver, confirm Confirmer) *Orchestrator {
	if confirm == nil {
		confirm = ConfirmerFunc(func(string, model.Decision, string) (bool, error) {
			return false, nil
		})
	}
	return &Orchestrator{
		resolver: resolver,
		section:  patcher.NewSection(),
		unified:  patcher.NewUnified(),
		confirm:  confirm,
		styles:   diffview.DefaultStyles(),
	}
}

// SetMarker overrides the sectioned-patch unchanged marker.
func (o *Orchestrator) SetMarker(marker string) {
	if marker != "" {
		o.section.Marker = marker
	}
}

// SetExtensions restricts processing to paths with the given extensions.
func (o *Orchestrator) SetExtensions(exts []string) {
	o.extensions = exts
}

// Run discovers edits in response and processes them sequentially. Hinted
// blocks use the given dialect; diff-language blocks are always unified.
func (o *Orchestrator) Run(response string, kind model.PatchKind) *Result {
	res := &Result{}
	for _, e := range extract.Files(response, kind) {
		if !o.allowed(e.Path) {
			continue
		}
		if aborted := o.process(e, res); aborted {
			break
		}
	}
	return res
}

// process moves a single edit through the state machine. Returns true when
// the confirmer aborted the run.
func (o *Orchestrator) process(e model.FileEdit, res *Result) bool {
	path := o.resolver.Resolve(e.Path)

	original, exists, err := fs.ReadText(path)
	if err != nil {
		res.Failures = append(res.Failures, Failure{Path: path, Err: err})
		return false
	}
	decision := model.Modify
	if !exists {
		decision = model.Create
	}

	var reconciled string
	switch e.Kind {
	case model.KindUnified:
		reconciled, err = o.unified.Apply(original, e.Patch)
		if err != nil {
			// The patcher already fell back to the original; surface why.
			res.Failures = append(res.Failures, Failure{Path: path, Err: fmt.Errorf("unified patch: %w", err)})
			return false
		}
	default:
		reconciled = o.section.Apply(original, e.Patch)
	}

	if exists && reconciled == original {
		res.Skipped = append(res.Skipped, path)
		return false
	}

	rendered := diffview.Render(original, reconciled, e.Path, o.styles)

	ok, err := o.confirm.Confirm(path, decision, rendered)
	if err != nil {
		if errors.Is(err, ErrAborted) {
			res.Skipped = append(res.Skipped, path)
			return true
		}
		res.Failures = append(res.Failures, Failure{Path: path, Err: err})
		return false
	}
	if !ok {
		res.Skipped = append(res.Skipped, path)
		return false
	}

	if err := fs.WriteText(path, reconciled); err != nil {
		res.Failures = append(res.Failures, Failure{Path: path, Err: err})
		return false
	}
	res.Applied = append(res.Applied, AppliedEdit{
		Path:     path,
		Decision: decision,
		Before:   original,
		After:    reconciled,
	})
	return false
}

func (o *Orchestrator) allowed(path string) bool {
	if len(o.extensions) == 0 {
		return true
	}
	ext := filepath.Ext(path)
	for _, allowed := range o.extensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
