package media

import (
	"context"
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/kikiluvv/kinecut/internal/ffmpeg"
	"github.com/kikiluvv/kinecut/internal/timeline"
)

// frameTolerance is how far a cached frame may sit from the requested local
// time before a fresh extraction is forced. Half a frame at 30fps.
const frameTolerance = 1.0 / 60.0

// VideoHandle serves frames out of a video file via ffmpeg extraction. The
// playback position is a logical playhead: SetPosition moves it optimistically
// (interactive resync), Seek moves it and waits for the decode (export resync).
type VideoHandle struct {
	id       string
	path     string
	width    int
	height   int
	duration float64
	exec     *ffmpeg.Executor

	mu       sync.Mutex
	position float64
	playing  bool
	frame    *image.RGBA
	frameAt  float64
}

// NewVideoHandle probes the file and wraps it as a seekable frame source
func NewVideoHandle(ctx context.Context, exec *ffmpeg.Executor, id, path string) (*VideoHandle, error) {
	info, err := exec.Probe(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to probe video %s: %w", path, err)
	}
	if !info.HasVideo {
		return nil, fmt.Errorf("%s has no video stream", path)
	}
	return &VideoHandle{
		id:       id,
		path:     path,
		width:    info.Width,
		height:   info.Height,
		duration: info.Duration,
		exec:     exec,
	}, nil
}

func (h *VideoHandle) ID() string               { return h.id }
func (h *VideoHandle) Kind() timeline.MediaType { return timeline.MediaVideo }
func (h *VideoHandle) NaturalSize() (int, int)  { return h.width, h.height }

// Duration is the probed clip length in seconds
func (h *VideoHandle) Duration() float64 { return h.duration }

func (h *VideoHandle) Position() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.position
}

func (h *VideoHandle) SetPosition(t float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.position = h.clampTime(t)
}

// Seek moves the playhead and blocks until the target frame is decoded
func (h *VideoHandle) Seek(ctx context.Context, t float64) error {
	h.mu.Lock()
	h.position = h.clampTime(t)
	target := h.position
	h.mu.Unlock()

	_, err := h.fetch(ctx, target)
	return err
}

// Frame returns the pixels at the local time, reusing the cached frame when
// it is close enough.
func (h *VideoHandle) Frame(ctx context.Context, localTime float64) (image.Image, error) {
	h.mu.Lock()
	target := h.clampTime(localTime)
	if h.frame != nil && math.Abs(h.frameAt-target) <= frameTolerance {
		cached := h.frame
		h.mu.Unlock()
		return cached, nil
	}
	h.mu.Unlock()

	return h.fetch(ctx, target)
}

func (h *VideoHandle) Play() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.playing = true
}

func (h *VideoHandle) Pause() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.playing = false
}

func (h *VideoHandle) Playing() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.playing
}

func (h *VideoHandle) fetch(ctx context.Context, target float64) (*image.RGBA, error) {
	img, err := h.exec.ExtractFrame(ctx, h.path, target, h.width, h.height)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	h.frame = img
	h.frameAt = target
	h.mu.Unlock()
	return img, nil
}

func (h *VideoHandle) clampTime(t float64) float64 {
	if t < 0 {
		return 0
	}
	if h.duration > 0 && t > h.duration {
		return h.duration
	}
	return t
}
