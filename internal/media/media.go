package media

import (
	"context"
	"image"
	"sync"

	"github.com/kikiluvv/kinecut/internal/timeline"
)

// Handle is a playable/drawable visual asset. Image handles are static; video
// handles expose a readable/writable playback position. Frames come back at
// the source's natural size, scaling is the compositor's job.
type Handle interface {
	ID() string
	Kind() timeline.MediaType
	NaturalSize() (width, height int)

	// Frame returns the pixels for the clip-local time. For video this may
	// block on media I/O; the context bounds the wait.
	Frame(ctx context.Context, localTime float64) (image.Image, error)

	// Position is the handle's own playback position in clip-local seconds
	Position() float64

	// SetPosition moves the playhead without waiting for decode: the
	// optimistic resync used by interactive playback.
	SetPosition(t float64)

	// Seek moves the playhead and blocks until the frame is actually decoded:
	// the export path's frame-accurate resync.
	Seek(ctx context.Context, t float64) error

	Play()
	Pause()
	Playing() bool
}

// Registry maps media-item ids to handles. Shared between the interactive
// driver and the export driver, which never run concurrently.
type Registry struct {
	mu      sync.RWMutex
	handles map[string]Handle
}

// NewRegistry creates an empty handle registry
func NewRegistry() *Registry {
	return &Registry{handles: make(map[string]Handle)}
}

// Register stores a handle under its id
func (r *Registry) Register(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles[h.ID()] = h
}

// Get returns the handle for the id, or nil
func (r *Registry) Get(id string) Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handles[id]
}

// Remove drops the handle for the id
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handles, id)
}

// PauseAllExcept pauses every playing video handle other than the given id.
// Pass "" to pause everything. Keeps at most one video decoding at a time.
func (r *Registry) PauseAllExcept(id string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for hid, h := range r.handles {
		if hid == id {
			continue
		}
		if h.Kind() == timeline.MediaVideo && h.Playing() {
			h.Pause()
		}
	}
}
