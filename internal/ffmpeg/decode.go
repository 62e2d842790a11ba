package ffmpeg

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/kikiluvv/kinecut/internal/audio"
)

// DecodeAudio decodes a file to an interleaved stereo float64 buffer at the
// given sample rate. This is the collaborator side of the decoded-audio cache:
// the engine core only ever consumes the resulting buffers.
func (e *Executor) DecodeAudio(ctx context.Context, path string, sampleRate int) (*audio.Buffer, error) {
	if sampleRate <= 0 {
		sampleRate = audio.DefaultSampleRate
	}

	args := []string{
		"-i", path,
		"-f", "f64le",
		"-ac", fmt.Sprintf("%d", audio.Channels),
		"-ar", fmt.Sprintf("%d", sampleRate),
		"pipe:1",
	}

	data, err := e.Output(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("audio decode failed for %s: %w", path, err)
	}

	samples := make([]float64, len(data)/8)
	for i := range samples {
		bits := binary.LittleEndian.Uint64(data[i*8:])
		samples[i] = math.Float64frombits(bits)
	}

	return &audio.Buffer{SampleRate: sampleRate, Samples: samples}, nil
}
