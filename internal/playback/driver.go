package playback

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/kinecut/internal/beats"
	"github.com/kikiluvv/kinecut/internal/config"
	"github.com/kikiluvv/kinecut/internal/timeline"
)

// State is the driver's transport state
type State int

const (
	Stopped State = iota
	Playing
)

func (s State) String() string {
	if s == Playing {
		return "playing"
	}
	return "stopped"
}

// Driver advances the session clock and keeps the active audio track and the
// active visual handle in sync with it. Tick never reschedules itself; Loop
// feeds it wall-clock deltas, tests feed it synthetic ones.
type Driver struct {
	logger  zerolog.Logger
	session *Session

	tickRate   int
	resyncSec  float64
	beatWindow float64

	mu          sync.Mutex
	state       State
	lastAudioID string
}

// NewDriver creates an interactive playback driver over the session
func NewDriver(logger zerolog.Logger, session *Session, cfg config.PlaybackConfig) *Driver {
	tickRate := cfg.TickRate
	if tickRate <= 0 {
		tickRate = 60
	}
	resync := cfg.ResyncSec
	if resync <= 0 {
		resync = 0.15
	}
	return &Driver{
		logger:     logger.With().Str("component", "playback").Logger(),
		session:    session,
		tickRate:   tickRate,
		resyncSec:  resync,
		beatWindow: cfg.BeatWindowSec,
	}
}

// State returns the current transport state
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Start begins playback from the current clock position. Starting at or past
// the end rewinds to zero first.
func (d *Driver) Start() {
	d.mu.Lock()
	if d.state == Playing {
		d.mu.Unlock()
		return
	}
	d.state = Playing
	d.mu.Unlock()

	_, audioEntries, total := d.session.Snapshot()
	if d.session.Now() >= total {
		d.session.SetNow(0)
	}

	now := d.session.Now()
	d.logger.Debug().Float64("at", now).Msg("playback started")

	if active := timeline.ActiveAudio(audioEntries, now); active != nil {
		d.session.Engine.PlayBuffered(active.ID, active.SourceOffset(now))
		d.mu.Lock()
		d.lastAudioID = active.ID
		d.mu.Unlock()
	}
}

// Pause halts playback, silences audio and pauses every video handle. The
// clock keeps its position.
func (d *Driver) Pause() {
	d.mu.Lock()
	if d.state == Stopped {
		d.mu.Unlock()
		return
	}
	d.state = Stopped
	d.lastAudioID = ""
	d.mu.Unlock()

	d.session.Engine.StopActiveSource()
	d.session.Registry.PauseAllExcept("")
	d.logger.Debug().Float64("at", d.session.Now()).Msg("playback paused")
}

// Tick advances the clock by delta seconds and reconciles audio, then video,
// against the new position. Reaching the end rewinds to zero and stops.
func (d *Driver) Tick(delta float64) {
	d.mu.Lock()
	if d.state != Playing {
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()

	if delta < 0 {
		delta = 0
	}
	now := d.session.Now() + delta
	d.session.SetNow(now)

	mediaEntries, audioEntries, total := d.session.Snapshot()

	d.syncAudio(audioEntries, now)
	d.syncVideo(mediaEntries, now)

	if now >= total {
		d.logger.Debug().Float64("total", total).Msg("reached end of timeline")
		d.Pause()
		d.session.SetNow(0)
	}
}

// syncAudio switches the engine to whichever track covers the clock. Audio is
// reconciled before video so a track change is never delayed by a decode.
func (d *Driver) syncAudio(entries []timeline.AudioEntry, now float64) {
	active := timeline.ActiveAudio(entries, now)

	d.mu.Lock()
	last := d.lastAudioID
	d.mu.Unlock()

	switch {
	case active == nil && last != "":
		d.session.Engine.StopActiveSource()
		d.setLastAudio("")
	case active != nil && active.ID != last:
		d.session.Engine.PlayBuffered(active.ID, active.SourceOffset(now))
		d.setLastAudio(active.ID)
	}
}

// syncVideo keeps the active handle's playhead within the resync threshold of
// the timeline-derived local time. The correction is optimistic: the position
// moves immediately, the decode catches up on its own.
func (d *Driver) syncVideo(entries []timeline.MediaEntry, now float64) {
	active := timeline.ActiveMedia(entries, now)
	if active == nil {
		d.session.Registry.PauseAllExcept("")
		return
	}

	d.session.Registry.PauseAllExcept(active.ID)

	handle := d.session.Registry.Get(active.ID)
	if handle == nil || handle.Kind() != timeline.MediaVideo {
		return
	}

	local := active.LocalTime(now)
	if math.Abs(handle.Position()-local) > d.resyncSec {
		d.logger.Debug().
			Str("item", active.ID).
			Float64("have", handle.Position()).
			Float64("want", local).
			Msg("resyncing video position")
		handle.SetPosition(local)
	}
	if !handle.Playing() {
		handle.Play()
	}
}

// BeatActive reports whether a beat pulse is live at the current clock
func (d *Driver) BeatActive(markers beats.Set) bool {
	_, audioEntries, _ := d.session.Snapshot()
	return beats.ActiveWithin(audioEntries, markers, d.session.Now(), d.State() == Playing, d.beatWindow)
}

// Loop runs the wall-clock tick loop until playback stops or the context is
// cancelled. Call Start first.
func (d *Driver) Loop(ctx context.Context) {
	interval := time.Second / time.Duration(d.tickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			d.Pause()
			return
		case t := <-ticker.C:
			delta := t.Sub(last).Seconds()
			last = t
			d.Tick(delta)
			if d.State() == Stopped {
				return
			}
		}
	}
}

func (d *Driver) setLastAudio(id string) {
	d.mu.Lock()
	d.lastAudioID = id
	d.mu.Unlock()
}
