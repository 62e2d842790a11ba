package media

import (
	"context"
	"fmt"
	"image"
	"os"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/kikiluvv/kinecut/internal/timeline"
)

// ImageHandle is a static visual asset: one decoded frame for any local time
type ImageHandle struct {
	id  string
	img image.Image
}

// NewImageHandle decodes the file once and serves it for the item's lifetime
func NewImageHandle(id, path string) (*ImageHandle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return &ImageHandle{id: id, img: img}, nil
}

func (h *ImageHandle) ID() string               { return h.id }
func (h *ImageHandle) Kind() timeline.MediaType { return timeline.MediaImage }

func (h *ImageHandle) NaturalSize() (int, int) {
	b := h.img.Bounds()
	return b.Dx(), b.Dy()
}

func (h *ImageHandle) Frame(context.Context, float64) (image.Image, error) {
	return h.img, nil
}

func (h *ImageHandle) Position() float64                   { return 0 }
func (h *ImageHandle) SetPosition(float64)                 {}
func (h *ImageHandle) Seek(context.Context, float64) error { return nil }
func (h *ImageHandle) Play()                               {}
func (h *ImageHandle) Pause()                              {}
func (h *ImageHandle) Playing() bool                       { return false }
