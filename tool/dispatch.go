package tool

import (
	"fmt"

	"github.com/gogpu/strata"
)

// Scheduler is the throttled recomposition a Dispatcher cancels and
// re-requests around tool switches.
type Scheduler interface {
	Request() uint64
	Cancel()
}

// Dispatcher sends input to the active tool.
type Dispatcher struct {
	registry  *Registry
	active    Tool
	scheduler Scheduler
}

// NewDispatcher returns a Dispatcher with the tool of kind initial active.
// s may be nil.
func NewDispatcher(r *Registry, initial Kind, s Scheduler) (*Dispatcher, error) {
	t, ok := r.Get(initial)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, initial)
	}
	return &Dispatcher{registry: r, active: t, scheduler: s}, nil
}

// Active returns the kind of the active tool.
func (d *Dispatcher) Active() Kind { return d.active.Kind() }

// Tool returns the active tool.
func (d *Dispatcher) Tool() Tool { return d.active }

// Use makes the tool of kind k active. The previous tool's gesture is
// cancelled, and so is any recomposition scheduled for it.
func (d *Dispatcher) Use(k Kind) error {
	t, ok := d.registry.Get(k)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTool, k)
	}
	if t == d.active {
		return nil
	}
	prev := d.active
	prev.Cancel()
	if da, ok := prev.(Deactivator); ok {
		da.Deactivate()
	}
	d.active = t
	if d.scheduler != nil {
		d.scheduler.Cancel()
		d.scheduler.Request()
	}
	strata.Logger().Debug("tool: switched", "from", prev.Kind(), "to", k)
	return nil
}

// PointerDown routes a press.
func (d *Dispatcher) PointerDown(p strata.Point) error { return d.active.PointerDown(p) }

// PointerMove routes a move.
func (d *Dispatcher) PointerMove(p strata.Point) error { return d.active.PointerMove(p) }

// PointerUp routes a release.
func (d *Dispatcher) PointerUp(p strata.Point) error { return d.active.PointerUp(p) }

// Key routes a keyboard command.
func (d *Dispatcher) Key(k Key) error { return d.active.Key(k) }

// Leave reports that the pointer left the surface.
func (d *Dispatcher) Leave() { d.active.Cancel() }
