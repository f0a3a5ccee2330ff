package layer

import (
	"fmt"
	"math"
	"slices"

	"github.com/gogpu/strata"
	"github.com/gogpu/strata/effect"
	"github.com/gogpu/strata/internal/idgen"
	"github.com/gogpu/strata/mask"
)

// Store owns every layer and group of one canvas.
//
// All mutators are synchronous and never trigger compositing. Each
// successful mutation bumps Revision, which the composition engine uses
// for change detection.
//
// Layer and Group return live entities. Callers may draw into a layer's
// Content and then call Touch; every other change goes through a Store
// method.
type Store struct {
	width  int
	height int
	pool   *strata.Pool
	newID  idgen.Generator

	layers map[string]*Layer
	groups map[string]*Group
	root   []string // top-level scope, back to front

	active   string
	revision uint64
	counts   [typeCount]int
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithIDGenerator sets the generator used for layer and group ids.
func WithIDGenerator(g idgen.Generator) StoreOption {
	return func(s *Store) {
		if g != nil {
			s.newID = g
		}
	}
}

// WithPool sets the surface pool layer content is allocated from.
func WithPool(p *strata.Pool) StoreOption {
	return func(s *Store) {
		if p != nil {
			s.pool = p
		}
	}
}

// NewStore creates an empty store for a width x height canvas.
func NewStore(width, height int, opts ...StoreOption) (*Store, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("layer: %w: %dx%d", strata.ErrInvalidDimensions, width, height)
	}
	s := &Store{
		width:  width,
		height: height,
		newID:  idgen.Default,
		layers: make(map[string]*Layer),
		groups: make(map[string]*Group),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.pool == nil {
		s.pool = strata.NewPool(0, 0)
	}
	return s, nil
}

// Width returns the canvas width.
func (s *Store) Width() int { return s.width }

// Height returns the canvas height.
func (s *Store) Height() int { return s.height }

// Pool returns the surface pool shared with the store.
func (s *Store) Pool() *strata.Pool { return s.pool }

// Revision returns a counter bumped by every observable mutation.
func (s *Store) Revision() uint64 { return s.revision }

// Touch records that a layer's content was drawn into.
func (s *Store) Touch(id string) {
	if _, ok := s.layers[id]; !ok {
		if _, ok := s.groups[id]; !ok {
			s.unknown("touch", id)
			return
		}
	}
	s.revision++
}

// Len returns the number of layers, groups excluded.
func (s *Store) Len() int { return len(s.layers) }

// Layer returns the layer with the given id.
func (s *Store) Layer(id string) (*Layer, bool) {
	l, ok := s.layers[id]
	return l, ok
}

// Group returns the group with the given id.
func (s *Store) Group(id string) (*Group, bool) {
	g, ok := s.groups[id]
	return g, ok
}

// IsGroup reports whether id names a group.
func (s *Store) IsGroup(id string) bool {
	_, ok := s.groups[id]
	return ok
}

// Exists reports whether id names a layer or a group.
func (s *Store) Exists(id string) bool {
	return s.layers[id] != nil || s.groups[id] != nil
}

// Root returns the ids of the top-level scope, back to front.
func (s *Store) Root() []string { return slices.Clone(s.root) }

// Children returns the child ids of a group, back to front.
func (s *Store) Children(groupID string) []string {
	g, ok := s.groups[groupID]
	if !ok {
		return nil
	}
	return slices.Clone(g.Children)
}

// ParentOf returns the id of the group containing id, or "" for the
// top-level scope. ok is false when id is unknown.
func (s *Store) ParentOf(id string) (parent string, ok bool) {
	if !s.Exists(id) {
		return "", false
	}
	for gid, g := range s.groups {
		if slices.Contains(g.Children, id) {
			return gid, true
		}
	}
	return "", true
}

// Shown reports whether the layer id is visible and so is every group
// above it.
func (s *Store) Shown(id string) bool {
	l, ok := s.layers[id]
	if !ok || !l.Visible {
		return false
	}
	for pid, ok := s.ParentOf(id); ok && pid != ""; pid, ok = s.ParentOf(pid) {
		if !s.groups[pid].Visible {
			return false
		}
	}
	return true
}

// Layers returns every layer in composite order, back to front, with
// group children expanded in place.
func (s *Store) Layers() []*Layer {
	out := make([]*Layer, 0, len(s.layers))
	s.walk(s.root, func(id string) {
		if l, ok := s.layers[id]; ok {
			out = append(out, l)
		}
	})
	return out
}

func (s *Store) walk(scope []string, fn func(id string)) {
	for _, id := range scope {
		fn(id)
		if g, ok := s.groups[id]; ok {
			s.walk(g.Children, fn)
		}
	}
}

// ActiveLayer returns the active layer id, or "" when none is active.
func (s *Store) ActiveLayer() string { return s.active }

// SetActiveLayer makes id the active layer. An empty id clears it.
func (s *Store) SetActiveLayer(id string) error {
	if id != "" && !s.Exists(id) {
		return s.unknown("set active", id)
	}
	if s.active != id {
		s.active = id
		s.revision++
	}
	return nil
}

// CreateLayer adds a layer on top of the top-level scope and returns its
// id. The name defaults to the type and a running number. TypeGroup
// creates an empty group.
func (s *Store) CreateLayer(t Type, name string) (string, error) {
	if t >= typeCount {
		return "", fmt.Errorf("layer: unknown type %d", uint8(t))
	}
	if t == TypeGroup {
		return s.CreateGroup(name, nil)
	}
	content, err := s.pool.Acquire(s.width, s.height)
	if err != nil {
		strata.Logger().Warn("layer: cannot allocate content", "type", t, "err", err)
		return "", fmt.Errorf("layer: create %s: %w", t, err)
	}
	l := &Layer{
		ID:      s.newID(),
		Type:    t,
		Props:   s.defaultProps(t, name),
		Content: content,
	}
	s.layers[l.ID] = l
	s.root = append(s.root, l.ID)
	s.renumber("")
	s.revision++
	return l.ID, nil
}

func (s *Store) defaultProps(t Type, name string) Props {
	s.counts[t]++
	if name == "" {
		name = fmt.Sprintf("%s %d", displayName(t), s.counts[t])
	}
	return Props{
		Name:      name,
		Visible:   true,
		Opacity:   1,
		BlendMode: strata.BlendNormal,
		Transform: IdentityTransform(),
	}
}

func displayName(t Type) string {
	n := t.String()
	return string(n[0]-'a'+'A') + n[1:]
}

// DeleteLayer removes a layer, or a group with all of its descendants.
// Content surfaces go back to the pool. Deleting the active layer clears
// the active layer.
func (s *Store) DeleteLayer(id string) error {
	if !s.Exists(id) {
		return s.unknown("delete", id)
	}
	parent, _ := s.ParentOf(id)
	s.setScope(parent, slices.DeleteFunc(s.scope(parent), func(c string) bool { return c == id }))
	s.drop(id)
	s.renumber(parent)
	s.revision++
	return nil
}

func (s *Store) drop(id string) {
	if g, ok := s.groups[id]; ok {
		for _, c := range g.Children {
			s.drop(c)
		}
		delete(s.groups, id)
	} else if l, ok := s.layers[id]; ok {
		s.pool.Release(l.Content)
		l.Content = nil
		delete(s.layers, id)
	}
	if s.active == id {
		s.active = ""
	}
}

// DuplicateLayer copies a layer, or a group and its descendants, and
// inserts the copy directly above the source. It returns the new id.
func (s *Store) DuplicateLayer(id string) (string, error) {
	if !s.Exists(id) {
		return "", s.unknown("duplicate", id)
	}
	parent, _ := s.ParentOf(id)
	var created []string
	dup, err := s.duplicate(id, &created)
	if err != nil {
		for _, c := range created {
			s.drop(c)
		}
		return "", err
	}
	scope := s.scope(parent)
	at := slices.Index(scope, id) + 1
	s.setScope(parent, slices.Insert(scope, at, dup))
	s.renumber(parent)
	s.revision++
	return dup, nil
}

func (s *Store) duplicate(id string, created *[]string) (string, error) {
	if g, ok := s.groups[id]; ok {
		c := g.clone()
		c.ID = s.newID()
		c.Name = g.Name + " copy"
		c.Children = make([]string, 0, len(g.Children))
		s.groups[c.ID] = c
		*created = append(*created, c.ID)
		for _, child := range g.Children {
			dup, err := s.duplicate(child, created)
			if err != nil {
				return "", err
			}
			c.Children = append(c.Children, dup)
		}
		return c.ID, nil
	}

	l := s.layers[id]
	var content *strata.Surface
	if l.Content != nil {
		var err error
		content, err = s.pool.Acquire(l.Content.Width(), l.Content.Height())
		if err != nil {
			strata.Logger().Warn("layer: cannot allocate duplicate", "id", id, "err", err)
			return "", fmt.Errorf("layer: duplicate %s: %w", id, err)
		}
	}
	c := l.clone(content)
	c.ID = s.newID()
	c.Name = l.Name + " copy"
	if c.Stroke != nil {
		c.Stroke.ID = s.newID()
		c.Stroke.Selected = false
	}
	s.layers[c.ID] = c
	*created = append(*created, c.ID)
	return c.ID, nil
}

// Patch is a partial property update. Nil fields are left unchanged.
type Patch struct {
	Name      *string
	Visible   *bool
	Opacity   *float64
	BlendMode *strata.BlendMode
	Locked    *LockFlags
	Transform *Transform
	Effects   *[]effect.Effect
}

// Ptr returns a pointer to v, for building patches.
func Ptr[T any](v T) *T { return &v }

// SetProperty applies a patch to a layer.
//
// A layer locked with LockAll accepts only Locked and Visible. A
// position-locked layer rejects Transform. Both return ErrLocked and
// leave the layer unchanged.
func (s *Store) SetProperty(id string, p Patch) error {
	l, ok := s.layers[id]
	if !ok {
		return s.unknown("set property", id)
	}
	if err := p.check(l.Locked); err != nil {
		return fmt.Errorf("layer: %s: %w", id, err)
	}
	if err := p.validate(); err != nil {
		return fmt.Errorf("layer: %s: %w", id, err)
	}
	if p.Name != nil {
		l.Name = *p.Name
	}
	if p.Visible != nil {
		l.Visible = *p.Visible
	}
	if p.Opacity != nil {
		l.Opacity = *p.Opacity
	}
	if p.BlendMode != nil {
		l.BlendMode = *p.BlendMode
	}
	if p.Locked != nil {
		l.Locked = *p.Locked
	}
	if p.Transform != nil {
		l.Transform = *p.Transform
	}
	if p.Effects != nil {
		l.Effects = effect.CloneStack(*p.Effects)
	}
	s.revision++
	return nil
}

func (p Patch) check(locked LockFlags) error {
	if locked.Has(LockAll) {
		if p.Name != nil || p.Opacity != nil || p.BlendMode != nil || p.Transform != nil || p.Effects != nil {
			return strata.ErrLocked
		}
		return nil
	}
	if locked.Has(LockPosition) && p.Transform != nil {
		return fmt.Errorf("%w: position", strata.ErrLocked)
	}
	return nil
}

func (p Patch) validate() error {
	if p.Opacity != nil && (math.IsNaN(*p.Opacity) || *p.Opacity < 0 || *p.Opacity > 1) {
		return fmt.Errorf("opacity %v out of [0,1]", *p.Opacity)
	}
	if p.BlendMode != nil && !p.BlendMode.Valid() {
		return fmt.Errorf("unknown blend mode %d", uint8(*p.BlendMode))
	}
	if p.Effects != nil {
		for _, e := range *p.Effects {
			if err := e.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// SetMask attaches a layer mask. A nil mask removes it.
func (s *Store) SetMask(id string, m *mask.LayerMask) error {
	l, ok := s.layers[id]
	if !ok {
		return s.unknown("set mask", id)
	}
	if l.Locked.Has(LockAll) {
		return fmt.Errorf("layer: %s: %w", id, strata.ErrLocked)
	}
	l.Mask = m
	s.revision++
	return nil
}

// SetClipMask attaches a clip mask. A nil mask removes it.
func (s *Store) SetClipMask(id string, c *mask.ClipMask) error {
	l, ok := s.layers[id]
	if !ok {
		return s.unknown("set clip mask", id)
	}
	if l.Locked.Has(LockAll) {
		return fmt.Errorf("layer: %s: %w", id, strata.ErrLocked)
	}
	l.ClipMask = c
	s.revision++
	return nil
}

// SetStrokeData attaches or replaces a layer's stroke metadata. It does
// not touch the content surface.
func (s *Store) SetStrokeData(id string, d *StrokeData) error {
	l, ok := s.layers[id]
	if !ok {
		return s.unknown("set stroke data", id)
	}
	l.Stroke = d
	s.revision++
	return nil
}

// SetTextData attaches or replaces a layer's text description.
func (s *Store) SetTextData(id string, d *TextData) error {
	l, ok := s.layers[id]
	if !ok {
		return s.unknown("set text data", id)
	}
	l.Text = d
	s.revision++
	return nil
}

// GroupPatch is a partial group update. Nil fields are left unchanged.
type GroupPatch struct {
	Name      *string
	Visible   *bool
	Opacity   *float64
	BlendMode *strata.BlendMode
	Collapsed *bool
}

// SetGroupProperty applies a patch to a group.
func (s *Store) SetGroupProperty(id string, p GroupPatch) error {
	g, ok := s.groups[id]
	if !ok {
		return s.unknown("set group property", id)
	}
	if err := (Patch{Opacity: p.Opacity, BlendMode: p.BlendMode}).validate(); err != nil {
		return fmt.Errorf("layer: group %s: %w", id, err)
	}
	if p.Name != nil {
		g.Name = *p.Name
	}
	if p.Visible != nil {
		g.Visible = *p.Visible
	}
	if p.Opacity != nil {
		g.Opacity = *p.Opacity
	}
	if p.BlendMode != nil {
		g.BlendMode = *p.BlendMode
	}
	if p.Collapsed != nil {
		g.Collapsed = *p.Collapsed
	}
	s.revision++
	return nil
}

func (s *Store) unknown(op, id string) error {
	strata.Logger().Warn("layer: unknown id", "op", op, "id", id)
	return fmt.Errorf("layer: %s %q: %w", op, id, strata.ErrUnknownLayer)
}
