// Package history implements linear snapshot undo and redo over a layer
// store.
//
// A snapshot is taken before each destructive operation. Undo swaps the
// store back to the newest snapshot and keeps the replaced state for
// Redo. Taking a snapshot after an undo clears the redo list.
package history

import (
	"fmt"
	"slices"

	"github.com/gogpu/strata"
	"github.com/gogpu/strata/internal/idgen"
	"github.com/gogpu/strata/layer"
)

// DefaultDepth is the number of undo entries kept when none is configured.
const DefaultDepth = 50

// Target is the state a Manager snapshots and restores.
type Target interface {
	State() (*layer.State, error)
	Restore(*layer.State) error
	Pool() *strata.Pool
}

// Snapshot is one undo or redo entry.
type Snapshot struct {
	ID    string
	Label string
	state *layer.State
}

// Manager keeps bounded undo and redo lists. It is not safe for
// concurrent use.
type Manager struct {
	target    Target
	depth     int
	newID     idgen.Generator
	undo      []*Snapshot // oldest first
	redo      []*Snapshot // oldest first
	onRestore func(label string)

	// Entries the newest snapshot displaced. Discarding that snapshot
	// puts them back; any other change releases them.
	parked *parked
}

type parked struct {
	snap    *Snapshot
	redo    []*Snapshot
	evicted []*Snapshot
}

// Option configures a Manager.
type Option func(*Manager)

// WithDepth bounds the undo list. Values below 1 select DefaultDepth.
func WithDepth(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.depth = n
		}
	}
}

// WithIDGenerator sets the generator for snapshot ids.
func WithIDGenerator(g idgen.Generator) Option {
	return func(m *Manager) {
		if g != nil {
			m.newID = g
		}
	}
}

// OnRestore registers fn to run after every successful undo or redo.
func OnRestore(fn func(label string)) Option {
	return func(m *Manager) { m.onRestore = fn }
}

// New returns a Manager for target.
func New(target Target, opts ...Option) *Manager {
	m := &Manager{target: target, depth: DefaultDepth, newID: idgen.Default}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Snapshot records the current state under label and clears the redo
// list. The oldest entry is evicted once the depth is exceeded. Both
// come back if the snapshot is discarded before anything else happens.
func (m *Manager) Snapshot(label string) (string, error) {
	st, err := m.target.State()
	if err != nil {
		strata.Logger().Warn("history: snapshot skipped", "label", label, "err", err)
		return "", fmt.Errorf("history: snapshot %q: %w", label, err)
	}
	m.settle()

	s := &Snapshot{ID: m.newID(), Label: label, state: st}
	p := &parked{snap: s, redo: m.redo}
	m.redo = nil
	m.undo = append(m.undo, s)
	if over := len(m.undo) - m.depth; over > 0 {
		p.evicted = slices.Clone(m.undo[:over])
		m.undo = append(m.undo[:0:0], m.undo[over:]...)
	}
	m.parked = p
	strata.Logger().Debug("history: snapshot", "label", label, "depth", len(m.undo))
	return s.ID, nil
}

// Discard drops the newest undo entry without restoring it. It is used
// when the operation a snapshot guarded turned out to change nothing.
// The redo list and evicted entries that snapshot displaced are
// restored.
func (m *Manager) Discard() bool {
	if len(m.undo) == 0 {
		return false
	}
	last := m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]
	m.release(last)
	if p := m.parked; p != nil && p.snap == last {
		m.redo = p.redo
		m.undo = append(p.evicted, m.undo...)
		m.parked = nil
		return true
	}
	m.settle()
	return true
}

// settle releases the entries held for a possible Discard.
func (m *Manager) settle() {
	if p := m.parked; p != nil {
		m.release(p.redo...)
		m.release(p.evicted...)
		m.parked = nil
	}
}

// Undo restores the newest snapshot. It returns false when there is
// nothing to undo or the current state cannot be captured.
func (m *Manager) Undo() bool {
	if len(m.undo) == 0 {
		return false
	}
	return m.swap(&m.undo, &m.redo)
}

// Redo reapplies the state replaced by the last Undo.
func (m *Manager) Redo() bool {
	if len(m.redo) == 0 {
		return false
	}
	return m.swap(&m.redo, &m.undo)
}

// swap restores the newest entry of from and pushes the replaced state
// onto to under the same label.
func (m *Manager) swap(from, to *[]*Snapshot) bool {
	m.settle()
	entry := (*from)[len(*from)-1]
	current, err := m.target.State()
	if err != nil {
		strata.Logger().Warn("history: cannot capture current state", "label", entry.Label, "err", err)
		return false
	}
	if err := m.target.Restore(entry.state); err != nil {
		current.Release(m.target.Pool())
		strata.Logger().Warn("history: restore failed", "label", entry.Label, "err", err)
		return false
	}
	*from = (*from)[:len(*from)-1]
	m.release(entry)
	*to = append(*to, &Snapshot{ID: entry.ID, Label: entry.Label, state: current})
	if m.onRestore != nil {
		m.onRestore(entry.Label)
	}
	return true
}

// CanUndo reports whether Undo has an entry to restore.
func (m *Manager) CanUndo() bool { return len(m.undo) > 0 }

// CanRedo reports whether Redo has an entry to restore.
func (m *Manager) CanRedo() bool { return len(m.redo) > 0 }

// Newest returns the id of the newest undo entry, or "".
func (m *Manager) Newest() string {
	if len(m.undo) == 0 {
		return ""
	}
	return m.undo[len(m.undo)-1].ID
}

// UndoLabel returns the label Undo would restore, or "".
func (m *Manager) UndoLabel() string {
	if len(m.undo) == 0 {
		return ""
	}
	return m.undo[len(m.undo)-1].Label
}

// RedoLabel returns the label Redo would restore, or "".
func (m *Manager) RedoLabel() string {
	if len(m.redo) == 0 {
		return ""
	}
	return m.redo[len(m.redo)-1].Label
}

// Len returns the number of undo and redo entries.
func (m *Manager) Len() (undo, redo int) { return len(m.undo), len(m.redo) }

// Depth returns the maximum number of undo entries.
func (m *Manager) Depth() int { return m.depth }

// Clear drops every entry.
func (m *Manager) Clear() {
	m.settle()
	m.release(m.undo...)
	m.release(m.redo...)
	m.undo, m.redo = nil, nil
}

func (m *Manager) release(entries ...*Snapshot) {
	for _, e := range entries {
		if e.state != nil {
			e.state.Release(m.target.Pool())
			e.state = nil
		}
	}
}
