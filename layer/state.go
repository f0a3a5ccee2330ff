package layer

import (
	"fmt"
	"slices"

	"github.com/gogpu/strata"
)

// State is a deep copy of everything a Store holds. It is the shape used
// by history snapshots and by persistence collaborators.
type State struct {
	Width  int               `json:"width" yaml:"width"`
	Height int               `json:"height" yaml:"height"`
	Layers map[string]*Layer `json:"layers" yaml:"layers"`
	Groups map[string]*Group `json:"groups" yaml:"groups"`
	Root   []string          `json:"root" yaml:"root"`
	Active string            `json:"active,omitempty" yaml:"active,omitempty"`

	counts [typeCount]int
}

// Bytes returns the raster memory held by the state.
func (st *State) Bytes() int64 {
	var n int64
	for _, l := range st.Layers {
		if l.Content != nil {
			n += int64(len(l.Content.Data()))
		}
	}
	return n
}

// Release hands the state's surfaces back to p. The state must not be
// restored afterwards.
func (st *State) Release(p *strata.Pool) {
	for _, l := range st.Layers {
		p.Release(l.Content)
		l.Content = nil
	}
}

// State captures a deep copy of the store. Content surfaces come from
// the store's pool; on allocation failure nothing is retained.
func (s *Store) State() (*State, error) {
	st := &State{
		Width:  s.width,
		Height: s.height,
		Layers: make(map[string]*Layer, len(s.layers)),
		Groups: make(map[string]*Group, len(s.groups)),
		Root:   slices.Clone(s.root),
		Active: s.active,
		counts: s.counts,
	}
	for id, l := range s.layers {
		c, err := s.cloneLayer(l)
		if err != nil {
			st.Release(s.pool)
			return nil, fmt.Errorf("layer: capture state: %w", err)
		}
		st.Layers[id] = c
	}
	for id, g := range s.groups {
		st.Groups[id] = g.clone()
	}
	return st, nil
}

// Restore replaces the store's contents with a deep copy of st. Every
// surface is acquired before anything changes, so on failure the store
// is left as it was.
func (s *Store) Restore(st *State) error {
	if st == nil {
		return fmt.Errorf("layer: restore: nil state")
	}
	if st.Width != s.width || st.Height != s.height {
		return fmt.Errorf("layer: restore: %w: state is %dx%d, store is %dx%d",
			strata.ErrInvalidDimensions, st.Width, st.Height, s.width, s.height)
	}
	layers := make(map[string]*Layer, len(st.Layers))
	for id, l := range st.Layers {
		c, err := s.cloneLayer(l)
		if err != nil {
			for _, done := range layers {
				s.pool.Release(done.Content)
			}
			return fmt.Errorf("layer: restore: %w", err)
		}
		layers[id] = c
	}
	groups := make(map[string]*Group, len(st.Groups))
	for id, g := range st.Groups {
		groups[id] = g.clone()
	}

	for _, l := range s.layers {
		s.pool.Release(l.Content)
		l.Content = nil
	}
	s.layers = layers
	s.groups = groups
	s.root = slices.Clone(st.Root)
	s.active = st.Active
	s.counts = st.counts
	s.revision++
	return nil
}

func (s *Store) cloneLayer(l *Layer) (*Layer, error) {
	if l.Content == nil {
		return l.clone(nil), nil
	}
	content, err := s.pool.Acquire(l.Content.Width(), l.Content.Height())
	if err != nil {
		strata.Logger().Warn("layer: cannot allocate copy", "id", l.ID, "err", err)
		return nil, err
	}
	return l.clone(content), nil
}
