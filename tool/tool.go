// Package tool routes pointer and keyboard input to the active editing
// tool. Every tool implements one interface; a Dispatcher owns the
// registry and the active tool.
package tool

import (
	"errors"
	"fmt"

	"github.com/gogpu/strata"
)

// Kind names a tool variant.
type Kind uint8

// Tool kinds.
const (
	KindBrush Kind = iota
	KindSelect
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindBrush:
		return "brush"
	case KindSelect:
		return "select"
	case KindText:
		return "text"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind parses a tool name as produced by Kind.String.
func ParseKind(s string) (Kind, bool) {
	for _, k := range []Kind{KindBrush, KindSelect, KindText} {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// Key is a keyboard command.
type Key uint8

// Keys.
const (
	KeyEscape Key = iota + 1
	KeyDelete
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
)

// ErrUnknownTool is returned when a tool kind is not registered.
var ErrUnknownTool = errors.New("tool: unknown tool")

// Tool is one input-handling variant.
type Tool interface {
	Kind() Kind
	PointerDown(p strata.Point) error
	PointerMove(p strata.Point) error
	PointerUp(p strata.Point) error
	Key(k Key) error
	// Cancel interrupts an in-flight gesture, on tool switch or when the
	// pointer leaves the surface.
	Cancel()
}

// History is the undo capability tools snapshot into.
type History interface {
	Snapshot(label string) (string, error)
	Discard() bool
}

// Deactivator is implemented by tools that clear their state when
// another tool becomes active.
type Deactivator interface {
	Deactivate()
}

// Registry holds one tool per kind.
type Registry struct {
	tools map[Kind]Tool
}

// NewRegistry returns a registry with the given tools.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[Kind]Tool, len(tools))}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

// Register adds t, replacing any tool of the same kind.
func (r *Registry) Register(t Tool) { r.tools[t.Kind()] = t }

// Get returns the tool of kind k.
func (r *Registry) Get(k Kind) (Tool, bool) {
	t, ok := r.tools[k]
	return t, ok
}

// Len returns the number of registered tools.
func (r *Registry) Len() int { return len(r.tools) }
