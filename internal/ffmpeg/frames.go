package ffmpeg

import (
	"context"
	"fmt"
	"image"

	"github.com/kikiluvv/kinecut/pkg/util"
)

// ExtractFrame decodes the frame nearest the timestamp as RGBA at the source's
// native size. Dimensions must come from a prior Probe: rawvideo carries no
// geometry of its own.
func (e *Executor) ExtractFrame(ctx context.Context, path string, at float64, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame dimensions %dx%d", width, height)
	}
	if at < 0 {
		at = 0
	}

	args := []string{
		"-ss", util.FormatSeconds(at),
		"-i", path,
		"-frames:v", "1",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"pipe:1",
	}

	data, err := e.Output(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("frame extraction failed at %.3fs: %w", at, err)
	}

	expected := width * height * 4
	if len(data) < expected {
		return nil, fmt.Errorf("short frame read: got %d bytes, want %d", len(data), expected)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	copy(img.Pix, data[:expected])
	return img, nil
}
