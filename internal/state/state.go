package state

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/sokinpui/mend/internal/fs"
)

const (
	stateDirName  = ".mend"
	stateFileName = "state.json"
	trashDirName  = "trash"
)

// Change is one applied file change to journal.
type Change struct {
	Path   string
	Action string // "create" or "modify"
	Before string
	After  string
}

// Operation is the journalled form of a Change. Content snapshots are
// spilled to the trash directory and referenced by file name.
type Operation struct {
	Path       string `json:"path"`
	Action     string `json:"action"`
	BeforeFile string `json:"before_file,omitempty"`
	AfterFile  string `json:"after_file"`
}

// HistoryEntry is one complete run of the tool.
type HistoryEntry struct {
	Timestamp  int64       `json:"timestamp"`
	Operations []Operation `json:"operations"`
}

// State is the entire journal file.
type State struct {
	History []HistoryEntry `json:"history"`
	// CurrentIndex points at the last applied entry, -1 when everything
	// has been undone.
	CurrentIndex int `json:"current_index"`
}

// Manager handles the journal under .mend/ at the project root.
type Manager struct {
	statePath string
	trashDir  string
	state     *State
	seq       int
}

// findGitRoot finds the root of the enclosing git repository.
func findGitRoot() (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

// New creates and loads a journal manager rooted at the git toplevel, or
// the working directory outside a repository.
func New() (*Manager, error) {
	rootDir, err := findGitRoot()
	if err != nil {
		rootDir, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("could not get current working directory: %w", err)
		}
	}
	return NewAt(rootDir)
}

// NewAt creates and loads a journal manager rooted at dir.
func NewAt(dir string) (*Manager, error) {
	stateDir := filepath.Join(dir, stateDirName)
	trashDir := filepath.Join(stateDir, trashDirName)
	if err := os.MkdirAll(trashDir, 0755); err != nil {
		return nil, fmt.Errorf("could not create state directory: %w", err)
	}

	m := &Manager{
		statePath: filepath.Join(stateDir, stateFileName),
		trashDir:  trashDir,
		state:     &State{CurrentIndex: -1},
	}
	if err := m.load(); err != nil {
		return nil, err
	}
	return m, nil
}

// Record journals one run's changes, truncating any redo tail.
func (m *Manager) Record(changes []Change) error {
	if len(changes) == 0 {
		return nil
	}

	entry := HistoryEntry{Timestamp: time.Now().Unix()}
	for _, c := range changes {
		op := Operation{Path: c.Path, Action: c.Action}
		if c.Action != "create" {
			name, err := m.snapshot(c.Path, c.Before)
			if err != nil {
				return err
			}
			op.BeforeFile = name
		}
		name, err := m.snapshot(c.Path, c.After)
		if err != nil {
			return err
		}
		op.AfterFile = name
		entry.Operations = append(entry.Operations, op)
	}

	m.state.History = append(m.state.History[:m.state.CurrentIndex+1], entry)
	m.state.CurrentIndex = len(m.state.History) - 1
	return m.save()
}

// Undo restores every file touched by the last recorded run to its prior
// content, removing files that run created.
func (m *Manager) Undo() (restored, failed []string, err error) {
	if m.state.CurrentIndex < 0 {
		return nil, nil, nil
	}
	entry := m.state.History[m.state.CurrentIndex]

	for _, op := range entry.Operations {
		if op.Action == "create" {
			if rmErr := os.Remove(op.Path); rmErr != nil && !os.IsNotExist(rmErr) {
				failed = append(failed, op.Path)
				continue
			}
		} else {
			content, rdErr := m.readSnapshot(op.BeforeFile)
			if rdErr != nil {
				failed = append(failed, op.Path)
				continue
			}
			if wrErr := fs.WriteText(op.Path, content); wrErr != nil {
				failed = append(failed, op.Path)
				continue
			}
		}
		restored = append(restored, op.Path)
	}

	if len(restored) == 0 {
		// Nothing on disk changed; keep the journal pointing at this entry.
		return restored, failed, nil
	}
	m.state.CurrentIndex--
	return restored, failed, m.save()
}

// Redo reapplies the most recently undone run.
func (m *Manager) Redo() (redone, failed []string, err error) {
	next := m.state.CurrentIndex + 1
	if next >= len(m.state.History) {
		return nil, nil, nil
	}
	entry := m.state.History[next]

	for _, op := range entry.Operations {
		content, rdErr := m.readSnapshot(op.AfterFile)
		if rdErr != nil {
			failed = append(failed, op.Path)
			continue
		}
		if wrErr := fs.WriteText(op.Path, content); wrErr != nil {
			failed = append(failed, op.Path)
			continue
		}
		redone = append(redone, op.Path)
	}

	if len(redone) == 0 {
		return redone, failed, nil
	}
	m.state.CurrentIndex = next
	return redone, failed, m.save()
}

// snapshot writes content into the trash directory and returns the
// snapshot's file name.
func (m *Manager) snapshot(path, content string) (string, error) {
	m.seq++
	name := fmt.Sprintf("%d-%d-%s", time.Now().UnixNano(), m.seq, filepath.Base(path))
	if err := os.WriteFile(filepath.Join(m.trashDir, name), []byte(content), 0644); err != nil {
		return "", fmt.Errorf("could not snapshot %s: %w", path, err)
	}
	return name, nil
}

func (m *Manager) readSnapshot(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(m.trashDir, name))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (m *Manager) load() error {
	data, err := os.ReadFile(m.statePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("could not read state file: %w", err)
	}
	if err := json.Unmarshal(data, m.state); err != nil {
		// A corrupt journal should not block new runs; start fresh.
		m.state = &State{CurrentIndex: -1}
	}
	return nil
}

func (m *Manager) save() error {
	data, err := json.MarshalIndent(m.state, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode state: %w", err)
	}
	if err := os.WriteFile(m.statePath, data, 0644); err != nil {
		return fmt.Errorf("could not write state file: %w", err)
	}
	return nil
}
