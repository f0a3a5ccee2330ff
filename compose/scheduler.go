package compose

import (
	"time"

	"github.com/gogpu/strata"
)

// Composer is the part of Engine a Scheduler drives.
type Composer interface {
	ComposeIfChanged() (*strata.Surface, bool)
	Compose() *strata.Surface
}

// Scheduler throttles composite passes. Input handlers call Request as
// often as they like; the event loop calls Poll, and at most one pass
// runs per interval. A pass is skipped when nothing changed.
type Scheduler struct {
	composer Composer
	interval time.Duration
	onFrame  func(*strata.Surface)

	pending    bool
	generation uint64
	last       time.Time
	ran        bool
}

// NewScheduler returns a Scheduler running at most one pass per interval.
// onFrame, if non-nil, receives each new composite.
func NewScheduler(c Composer, interval time.Duration, onFrame func(*strata.Surface)) *Scheduler {
	return &Scheduler{composer: c, interval: interval, onFrame: onFrame}
}

// Request marks a pass as needed and returns the request generation.
func (s *Scheduler) Request() uint64 {
	s.pending = true
	return s.generation
}

// Pending reports whether a requested pass has not run yet.
func (s *Scheduler) Pending() bool { return s.pending }

// Generation returns the current generation. Cancel advances it.
func (s *Scheduler) Generation() uint64 { return s.generation }

// Cancel drops the pending pass. Requests made before Cancel never run.
func (s *Scheduler) Cancel() {
	s.pending = false
	s.generation++
}

// Poll runs the pending pass if the interval since the previous pass has
// elapsed. It reports whether a new composite was produced.
func (s *Scheduler) Poll(now time.Time) bool {
	if !s.pending {
		return false
	}
	if s.ran && now.Sub(s.last) < s.interval {
		return false
	}
	s.pending = false
	s.last, s.ran = now, true
	out, changed := s.composer.ComposeIfChanged()
	if changed && s.onFrame != nil {
		s.onFrame(out)
	}
	return changed
}

// Flush runs a pass immediately, ignoring the interval, and clears any
// pending request.
func (s *Scheduler) Flush() *strata.Surface {
	s.pending = false
	out := s.composer.Compose()
	if out != nil && s.onFrame != nil {
		s.onFrame(out)
	}
	return out
}
