package beats

import (
	"math"

	"github.com/kikiluvv/kinecut/internal/audio"
)

const (
	windowSec   = 0.05 // analysis window
	minSpacing  = 0.25 // seconds between reported markers
	energyFloor = 0.02 // RMS below this is treated as silence
	peakFactor  = 1.4  // window must exceed the running average by this much
)

// Analyze derives rhythm markers from a decoded buffer by short-window RMS
// onset detection. A nil or empty buffer yields no markers; analysis never
// fails, a track that defeats it is simply markerless.
func Analyze(b *audio.Buffer) []Marker {
	if b == nil || b.Frames() == 0 || b.SampleRate == 0 {
		return nil
	}

	windowFrames := int(windowSec * float64(b.SampleRate))
	if windowFrames < 1 {
		windowFrames = 1
	}

	energies := windowEnergies(b, windowFrames)
	if len(energies) == 0 {
		return nil
	}

	peak := 0.0
	for _, e := range energies {
		if e > peak {
			peak = e
		}
	}
	if peak < energyFloor {
		return nil
	}

	var markers []Marker
	lastTime := -minSpacing
	avg := energies[0]
	for i := 1; i < len(energies); i++ {
		// Exponential moving average tracks the local loudness baseline.
		avg = avg*0.9 + energies[i-1]*0.1

		t := float64(i) * windowSec
		e := energies[i]
		if e < energyFloor || e < avg*peakFactor {
			continue
		}
		if t-lastTime < minSpacing {
			continue
		}
		markers = append(markers, Marker{
			Time:      t,
			Intensity: math.Min(1, e/peak),
			Effect:    effectFor(e / peak),
		})
		lastTime = t
	}
	return markers
}

func windowEnergies(b *audio.Buffer, windowFrames int) []float64 {
	frames := b.Frames()
	count := frames / windowFrames
	energies := make([]float64, 0, count)

	for w := 0; w < count; w++ {
		sum := 0.0
		base := w * windowFrames * audio.Channels
		n := windowFrames * audio.Channels
		for i := 0; i < n; i++ {
			s := b.Samples[base+i]
			sum += s * s
		}
		energies = append(energies, math.Sqrt(sum/float64(n)))
	}
	return energies
}

func effectFor(intensity float64) string {
	switch {
	case intensity > 0.85:
		return "flash"
	case intensity > 0.6:
		return "pop"
	case intensity > 0.35:
		return "shake"
	default:
		return "focus"
	}
}
