package export

import (
	"context"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/kinecut/internal/audio"
	"github.com/kikiluvv/kinecut/internal/config"
	"github.com/kikiluvv/kinecut/internal/ffmpeg"
	"github.com/kikiluvv/kinecut/internal/media"
	"github.com/kikiluvv/kinecut/internal/timeline"
)

func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not found in PATH")
	}
}

func writeTestPNG(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
		img.Pix[i+3] = 255
	}
	path := filepath.Join(t.TempDir(), "red.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExportImageProject(t *testing.T) {
	skipIfNoFFmpeg(t)

	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	cfg := config.Default()

	exe, err := ffmpeg.New(logger, cfg.FFmpeg)
	if err != nil {
		t.Fatalf("executor: %v", err)
	}

	ctx := context.Background()
	if !exe.SupportsEncoder(ctx, cfg.Export.PreferredCodec) &&
		!exe.SupportsEncoder(ctx, cfg.Export.FallbackCodec) {
		t.Skip("no usable video encoder")
	}

	pngPath := writeTestPNG(t)
	item := timeline.NewMediaItem("still", pngPath, timeline.MediaImage, 0.5, 0)
	item.Overlay = timeline.Overlay{}

	project := timeline.NewProject("integration")
	project.AddItem(item)

	registry := media.NewRegistry()
	h, err := media.NewImageHandle(item.ID, pngPath)
	if err != nil {
		t.Fatalf("image handle: %v", err)
	}
	registry.Register(h)

	exporter := New(logger, cfg, exe, registry, audio.NewCache())

	var percents []float64
	outPath := filepath.Join(t.TempDir(), "out.bin")
	result, err := exporter.Export(ctx, Options{
		Project:    project,
		OutputPath: outPath,
		Progress:   func(p float64) { percents = append(percents, p) },
	})
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	stat, err := os.Stat(result.Path)
	if err != nil {
		t.Fatalf("output missing: %v", err)
	}
	if stat.Size() == 0 {
		t.Error("output is empty")
	}
	if result.MimeType == "" {
		t.Error("result should carry the negotiated mime type")
	}
	if filepath.Ext(result.Path) == ".bin" {
		t.Error("extension should be replaced with the container format")
	}
	if result.Frames != 15 {
		t.Errorf("0.5s at 30fps should be 15 frames, got %d", result.Frames)
	}

	if len(percents) == 0 {
		t.Fatal("progress was never reported")
	}
	for i := 1; i < len(percents); i++ {
		if percents[i] < percents[i-1] {
			t.Fatalf("progress went backwards: %v then %v", percents[i-1], percents[i])
		}
	}
	if percents[len(percents)-1] != 100 {
		t.Errorf("progress should finish at 100, got %v", percents[len(percents)-1])
	}

	info, err := exe.Probe(ctx, result.Path)
	if err != nil {
		t.Fatalf("probe of output failed: %v", err)
	}
	if !info.HasVideo {
		t.Error("output has no video stream")
	}

	// The red still should come through as a red-dominant frame.
	frame, err := exe.ExtractFrame(ctx, result.Path, 0.1, info.Width, info.Height)
	if err != nil {
		t.Fatalf("frame extraction failed: %v", err)
	}
	c := frame.RGBAAt(info.Width/2, info.Height/2)
	if c.R < 150 || c.G > 100 || c.B > 100 {
		t.Errorf("expected red center pixel, got %+v", c)
	}
}

func TestExportRejectsMissingProject(t *testing.T) {
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	e := New(logger, config.Default(), nil, media.NewRegistry(), audio.NewCache())

	if _, err := e.Export(context.Background(), Options{OutputPath: "x.mp4"}); err == nil {
		t.Error("nil project should fail")
	}
	if _, err := e.Export(context.Background(), Options{Project: timeline.NewProject("p")}); err == nil {
		t.Error("empty output path should fail")
	}
}

// slowSeekHandle blocks in Seek until its context expires
type slowSeekHandle struct {
	id       string
	position float64
}

func (h *slowSeekHandle) ID() string               { return h.id }
func (h *slowSeekHandle) Kind() timeline.MediaType { return timeline.MediaVideo }
func (h *slowSeekHandle) NaturalSize() (int, int)  { return 64, 64 }
func (h *slowSeekHandle) Frame(context.Context, float64) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 64, 64)), nil
}
func (h *slowSeekHandle) Position() float64   { return h.position }
func (h *slowSeekHandle) SetPosition(float64) {}
func (h *slowSeekHandle) Seek(ctx context.Context, t float64) error {
	<-ctx.Done()
	return ctx.Err()
}
func (h *slowSeekHandle) Play()         {}
func (h *slowSeekHandle) Pause()        {}
func (h *slowSeekHandle) Playing() bool { return false }

func TestRenderFrameSeekTimeoutFails(t *testing.T) {
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	cfg := config.Default()
	cfg.Export.SeekTimeoutSec = 0.02

	item := timeline.NewMediaItem("clip", "/tmp/clip.mp4", timeline.MediaVideo, 5, 0)
	entries := timeline.BuildMedia([]timeline.MediaItem{item})

	registry := media.NewRegistry()
	registry.Register(&slowSeekHandle{id: item.ID, position: 3}) // far from t=0

	exporter := New(logger, cfg, nil, registry, audio.NewCache())
	comp, err := NewCompositor(64, 64)
	if err != nil {
		t.Fatalf("compositor: %v", err)
	}

	job := captureJob{media: entries, total: 5, comp: comp}
	err = exporter.renderFrame(context.Background(), comp.NewFrame(), job, 0)
	if err == nil {
		t.Fatal("a seek that never completes should fail the frame")
	}
}

func TestRenderFrameSkipsSeekWithinThreshold(t *testing.T) {
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	cfg := config.Default()
	cfg.Export.SeekTimeoutSec = 0.02

	item := timeline.NewMediaItem("clip", "/tmp/clip.mp4", timeline.MediaVideo, 5, 0)
	entries := timeline.BuildMedia([]timeline.MediaItem{item})

	registry := media.NewRegistry()
	// Within the 0.1s export sync threshold: no seek, no timeout.
	registry.Register(&slowSeekHandle{id: item.ID, position: 0.05})

	exporter := New(logger, cfg, nil, registry, audio.NewCache())
	comp, err := NewCompositor(64, 64)
	if err != nil {
		t.Fatalf("compositor: %v", err)
	}

	job := captureJob{media: entries, total: 5, comp: comp}
	if err := exporter.renderFrame(context.Background(), comp.NewFrame(), job, 0); err != nil {
		t.Fatalf("aligned handle should render without seeking: %v", err)
	}
}

func TestRenderFrameMissingHandle(t *testing.T) {
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)

	item := timeline.NewMediaItem("ghost", "/tmp/ghost.mp4", timeline.MediaVideo, 5, 0)
	entries := timeline.BuildMedia([]timeline.MediaItem{item})

	exporter := New(logger, config.Default(), nil, media.NewRegistry(), audio.NewCache())
	comp, err := NewCompositor(64, 64)
	if err != nil {
		t.Fatalf("compositor: %v", err)
	}

	job := captureJob{media: entries, total: 5, comp: comp}
	if err := exporter.renderFrame(context.Background(), comp.NewFrame(), job, 0); err == nil {
		t.Error("an item without a handle should fail the frame")
	}
}

func TestExportFailsOnUnregisteredHandle(t *testing.T) {
	skipIfNoFFmpeg(t)

	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	cfg := config.Default()
	exe, err := ffmpeg.New(logger, cfg.FFmpeg)
	if err != nil {
		t.Fatalf("executor: %v", err)
	}

	ctx := context.Background()
	if !exe.SupportsEncoder(ctx, cfg.Export.PreferredCodec) &&
		!exe.SupportsEncoder(ctx, cfg.Export.FallbackCodec) {
		t.Skip("no usable video encoder")
	}

	project := timeline.NewProject("broken")
	project.AddItem(timeline.NewMediaItem("ghost", "/tmp/ghost.png", timeline.MediaImage, 1, 0))

	exporter := New(logger, cfg, exe, media.NewRegistry(), audio.NewCache())
	outPath := filepath.Join(t.TempDir(), "out.mp4")

	if _, err := exporter.Export(ctx, Options{Project: project, OutputPath: outPath}); err == nil {
		t.Fatal("export should fail when an item has no handle")
	}
	// Partial artifacts are removed on failure.
	if _, err := os.Stat(outPath); err == nil {
		t.Error("failed export should not leave the output behind")
	}
}
