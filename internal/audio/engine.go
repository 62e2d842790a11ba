package audio

import (
	"math"
	"sync"

	"github.com/rs/zerolog"
)

// Source is a started playback of a buffer. Stop is best-effort: stopping a
// source that already ended must not fail.
type Source interface {
	Stop()
}

// Sink is the hardware audio output. Opening one can fail on hosts without
// audio capability, in which case the engine degrades to silent no-ops.
type Sink interface {
	Play(b *Buffer, offset float64) (Source, error)
	Close() error
}

// Engine owns the single output graph: at most one sounding source at a time,
// routed through a dynamics compressor. Tracks never mix during interactive
// playback; mixing happens only in the export mixdown.
type Engine struct {
	logger zerolog.Logger
	sink   Sink
	cache  *Cache
	comp   Compressor

	mu       sync.Mutex
	active   Source
	activeID string
}

// NewEngine creates an engine over the given sink. A nil sink is the
// capability-unavailable case: every call becomes a silent no-op.
func NewEngine(logger zerolog.Logger, sink Sink, cache *Cache) *Engine {
	e := &Engine{
		logger: logger.With().Str("component", "audio").Logger(),
		sink:   sink,
		cache:  cache,
		comp:   DefaultCompressor(),
	}
	if sink == nil {
		e.logger.Warn().Msg("no audio output available, preview will be silent")
	}
	return e
}

// PlayBuffered stops any sounding source and starts the track's buffer at the
// given source offset. The offset is clamped into [0, buffer duration].
// Missing capability or a missing buffer are silent no-ops.
func (e *Engine) PlayBuffered(trackID string, offset float64) {
	if e.sink == nil {
		return
	}
	buf := e.cache.Get(trackID)
	if buf == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopLocked()

	clamped := math.Max(0, math.Min(offset, buf.Duration()))
	src, err := e.sink.Play(e.comp.Apply(buf), clamped)
	if err != nil {
		e.logger.Debug().Err(err).Str("track", trackID).Msg("source start failed")
		return
	}
	e.active = src
	e.activeID = trackID
}

// StopActiveSource stops the sounding source if any. Safe to call redundantly.
func (e *Engine) StopActiveSource() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
}

// ReleaseTrack releases the track's decoded buffer and, if it is the sounding
// track, stops playback immediately.
func (e *Engine) ReleaseTrack(trackID string) {
	e.mu.Lock()
	if e.activeID == trackID {
		e.stopLocked()
	}
	e.mu.Unlock()
	e.cache.Remove(trackID)
}

// ActiveTrack returns the id of the sounding track, or "" when silent
func (e *Engine) ActiveTrack() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activeID
}

// Close stops playback and releases the sink
func (e *Engine) Close() error {
	e.mu.Lock()
	e.stopLocked()
	e.mu.Unlock()
	if e.sink == nil {
		return nil
	}
	return e.sink.Close()
}

func (e *Engine) stopLocked() {
	if e.active != nil {
		e.active.Stop()
		e.active = nil
		e.activeID = ""
	}
}

// Compressor is a static-curve downward compressor applied on the output path
type Compressor struct {
	ThresholdDB float64
	Ratio       float64
	MakeupDB    float64
}

// DefaultCompressor uses the usual -24 dB threshold at 12:1
func DefaultCompressor() Compressor {
	return Compressor{ThresholdDB: -24, Ratio: 12}
}

// Apply returns a compressed copy of the buffer, clipped to [-1, 1]
func (c Compressor) Apply(in *Buffer) *Buffer {
	out := &Buffer{
		SampleRate: in.SampleRate,
		Samples:    make([]float64, len(in.Samples)),
	}
	makeup := math.Pow(10, c.MakeupDB/20)
	for i, s := range in.Samples {
		out.Samples[i] = clip(c.compress(s) * makeup)
	}
	return out
}

func (c Compressor) compress(s float64) float64 {
	level := math.Abs(s)
	if level == 0 {
		return 0
	}
	db := 20 * math.Log10(level)
	if db <= c.ThresholdDB || c.Ratio <= 1 {
		return s
	}
	outDB := c.ThresholdDB + (db-c.ThresholdDB)/c.Ratio
	gain := math.Pow(10, (outDB-db)/20)
	return s * gain
}

func clip(s float64) float64 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}
