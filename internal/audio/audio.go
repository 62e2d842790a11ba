package audio

import (
	"sync"
)

const (
	// DefaultSampleRate is the mixdown/export rate
	DefaultSampleRate = 44100
	// Channels is fixed: the engine is stereo end to end
	Channels = 2
)

// Buffer is a decoded, randomly-seekable stereo sample buffer. Samples are
// interleaved L/R in [-1, 1].
type Buffer struct {
	SampleRate int
	Samples    []float64
}

// NewBuffer allocates a silent buffer holding the given number of frames
func NewBuffer(sampleRate, frames int) *Buffer {
	return &Buffer{
		SampleRate: sampleRate,
		Samples:    make([]float64, frames*Channels),
	}
}

// Frames is the per-channel sample count
func (b *Buffer) Frames() int {
	return len(b.Samples) / Channels
}

// Duration is the buffer length in seconds
func (b *Buffer) Duration() float64 {
	if b.SampleRate == 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.SampleRate)
}

// Cache maps audio-track ids to decoded buffers. Buffers persist for the
// track's lifetime; Remove releases the decoded data.
type Cache struct {
	mu      sync.RWMutex
	buffers map[string]*Buffer
}

// NewCache creates an empty buffer cache
func NewCache() *Cache {
	return &Cache{buffers: make(map[string]*Buffer)}
}

// Put stores a decoded buffer under the track id
func (c *Cache) Put(id string, b *Buffer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buffers[id] = b
}

// Get returns the buffer for the id, or nil when the track never decoded
func (c *Cache) Get(id string) *Buffer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.buffers[id]
}

// Remove releases the buffer for the id
func (c *Cache) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.buffers, id)
}

// Len returns the number of cached buffers
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.buffers)
}
