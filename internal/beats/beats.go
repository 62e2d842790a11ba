package beats

import (
	"math"

	"github.com/kikiluvv/kinecut/internal/timeline"
)

// PulseWindow is how close (seconds) the playhead must be to a marker for the
// pulse to read as active.
const PulseWindow = 0.1

// Marker is one rhythm event, local to the audio source
type Marker struct {
	Time      float64 `json:"time"`
	Intensity float64 `json:"intensity"`
	Effect    string  `json:"effect"`
}

// Set maps audio-track ids to their precomputed markers
type Set map[string][]Marker

// Active reports whether the playhead sits inside a pulse window. True iff
// playback is running, now falls inside some track's active window, and the
// trim-mapped local time is within PulseWindow of one of that track's markers.
// Purely a UI emphasis signal; it never affects timing or export.
func Active(entries []timeline.AudioEntry, markers Set, now float64, playing bool) bool {
	return ActiveWithin(entries, markers, now, playing, PulseWindow)
}

// ActiveWithin is Active with a caller-chosen pulse window
func ActiveWithin(entries []timeline.AudioEntry, markers Set, now float64, playing bool, window float64) bool {
	if !playing {
		return false
	}
	if window <= 0 {
		window = PulseWindow
	}
	for i := range entries {
		entry := &entries[i]
		if now < entry.GlobalStart || now >= entry.GlobalEnd {
			continue
		}
		ms, ok := markers[entry.ID]
		if !ok {
			continue
		}
		local := now - entry.GlobalStart + entry.TrimStart
		for _, m := range ms {
			if math.Abs(m.Time-local) < window {
				return true
			}
		}
	}
	return false
}
