package playback

import (
	"sync"

	"github.com/kikiluvv/kinecut/internal/audio"
	"github.com/kikiluvv/kinecut/internal/media"
	"github.com/kikiluvv/kinecut/internal/timeline"
)

// Session owns the state both drivers share: the logical clock, the projected
// timeline snapshot, the handle registry and the audio engine. It is passed
// explicitly into the interactive and export drivers, which never run at the
// same time.
type Session struct {
	Registry *media.Registry
	Engine   *audio.Engine

	mu    sync.RWMutex
	clock float64
	media []timeline.MediaEntry
	audio []timeline.AudioEntry
	total float64
}

// NewSession creates a session over the given registry and engine
func NewSession(registry *media.Registry, engine *audio.Engine) *Session {
	return &Session{
		Registry: registry,
		Engine:   engine,
		total:    timeline.MinTotalDuration,
	}
}

// SetTimeline replaces the projection snapshot. Called whenever the source
// collections change; the projections themselves are immutable.
func (s *Session) SetTimeline(media []timeline.MediaEntry, audio []timeline.AudioEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.media = media
	s.audio = audio
	s.total = timeline.TotalDuration(media)
}

// Snapshot returns the projections and total duration as one consistent read.
// Both resolutions inside a tick work off the same snapshot.
func (s *Session) Snapshot() (media []timeline.MediaEntry, audio []timeline.AudioEntry, total float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.media, s.audio, s.total
}

// Now returns the logical clock in seconds
func (s *Session) Now() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clock
}

// SetNow moves the logical clock (scrubbing, rewind)
func (s *Session) SetNow(t float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t < 0 {
		t = 0
	}
	s.clock = t
}

// TotalDuration is the projected project length
func (s *Session) TotalDuration() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}
