package audio

import (
	"math"

	"github.com/kikiluvv/kinecut/internal/timeline"
)

// Mixdown renders every audio track into one master buffer. Unlike interactive
// playback, tracks are independent scheduling entries here: overlapping windows
// genuinely mix. Each track contributes only its [trimStart, trimEnd) slice,
// starting at its globalStart within the master timeline. Tracks without a
// decoded buffer are skipped.
func Mixdown(entries []timeline.AudioEntry, cache *Cache, totalDuration float64, sampleRate int) *Buffer {
	frames := int(math.Ceil(totalDuration * float64(sampleRate)))
	if frames < 1 {
		frames = 1
	}
	master := NewBuffer(sampleRate, frames)

	for _, entry := range entries {
		buf := cache.Get(entry.ID)
		if buf == nil {
			continue
		}
		mixTrack(master, buf, entry)
	}

	for i, s := range master.Samples {
		master.Samples[i] = clip(s)
	}
	return master
}

func mixTrack(master, src *Buffer, entry timeline.AudioEntry) {
	startFrame := int(entry.GlobalStart * float64(master.SampleRate))
	activeFrames := int(entry.ActiveDuration * float64(master.SampleRate))

	// Source positions map through the sample-rate ratio so buffers decoded at
	// a different rate still land at the right time.
	ratio := float64(src.SampleRate) / float64(master.SampleRate)
	trimOffset := entry.TrimStart * float64(src.SampleRate)

	for i := 0; i < activeFrames; i++ {
		dst := startFrame + i
		if dst >= master.Frames() {
			break
		}
		srcFrame := int(trimOffset + float64(i)*ratio)
		if srcFrame >= src.Frames() {
			break
		}
		master.Samples[dst*Channels] += src.Samples[srcFrame*Channels]
		master.Samples[dst*Channels+1] += src.Samples[srcFrame*Channels+1]
	}
}
