package model

// PatchKind selects the dialect a proposed edit is written in.
type PatchKind int

const (
	// KindSection is the [UNCHANGED]-marker sectioned format.
	KindSection PatchKind = iota
	// KindUnified is unified-diff notation with hunk markers.
	KindUnified
)

// FileEdit is a single proposed change discovered in a model response.
// Path is the path as written in the response, not yet resolved.
type FileEdit struct {
	Path  string
	Kind  PatchKind
	Patch string
}

// Decision classifies what an edit will do to its target path.
type Decision int

const (
	Create Decision = iota
	Modify
	Skip
)

func (d Decision) String() string {
	switch d {
	case Create:
		return "create"
	case Modify:
		return "modify"
	default:
		return "skip"
	}
}

// Summary reports the outcome of one run for display.
type Summary struct {
	Created  []string
	Modified []string
	Skipped  []string
	Failed   []string
	Message  string
}
