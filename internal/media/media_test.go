package media

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/kinecut/internal/config"
	"github.com/kikiluvv/kinecut/internal/ffmpeg"
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

func writeTestPNG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0, A: 255})
		}
	}
	path := filepath.Join(t.TempDir(), "test.png")
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

func TestImageHandle(t *testing.T) {
	path := writeTestPNG(t, 40, 30)

	h, err := NewImageHandle("img-1", path)
	if err != nil {
		t.Fatalf("failed to open image: %v", err)
	}

	if h.ID() != "img-1" {
		t.Errorf("unexpected id %s", h.ID())
	}
	if h.Kind() != timeline.MediaImage {
		t.Errorf("unexpected kind %s", h.Kind())
	}
	w, ht := h.NaturalSize()
	if w != 40 || ht != 30 {
		t.Errorf("expected 40x30, got %dx%d", w, ht)
	}

	// Every local time serves the same frame.
	f1, err := h.Frame(context.Background(), 0)
	if err != nil {
		t.Fatalf("frame failed: %v", err)
	}
	f2, _ := h.Frame(context.Background(), 99)
	if f1 != f2 {
		t.Error("image frames should be the single decoded image")
	}

	// Transport operations are inert.
	h.Play()
	if h.Playing() {
		t.Error("images never play")
	}
	h.SetPosition(5)
	if h.Position() != 0 {
		t.Error("images have no playhead")
	}
	if err := h.Seek(context.Background(), 5); err != nil {
		t.Errorf("image seek should be a no-op: %v", err)
	}
}

func TestImageHandleMissingFile(t *testing.T) {
	if _, err := NewImageHandle("x", "/nonexistent/image.png"); err == nil {
		t.Error("missing file should fail")
	}
}

func TestImageHandleNotAnImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.png")
	if err := os.WriteFile(path, []byte("not an image"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewImageHandle("x", path); err == nil {
		t.Error("undecodable file should fail")
	}
}

type stubHandle struct {
	id      string
	kind    timeline.MediaType
	playing bool
}

func (h *stubHandle) ID() string               { return h.id }
func (h *stubHandle) Kind() timeline.MediaType { return h.kind }
func (h *stubHandle) NaturalSize() (int, int)  { return 1, 1 }
func (h *stubHandle) Frame(context.Context, float64) (image.Image, error) {
	return nil, nil
}
func (h *stubHandle) Position() float64                   { return 0 }
func (h *stubHandle) SetPosition(float64)                 {}
func (h *stubHandle) Seek(context.Context, float64) error { return nil }
func (h *stubHandle) Play()                               { h.playing = true }
func (h *stubHandle) Pause()                              { h.playing = false }
func (h *stubHandle) Playing() bool                       { return h.playing }

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	a := &stubHandle{id: "a", kind: timeline.MediaVideo}
	r.Register(a)

	if r.Get("a") != a {
		t.Error("registered handle should resolve")
	}
	if r.Get("missing") != nil {
		t.Error("unknown id should resolve to nil")
	}

	r.Remove("a")
	if r.Get("a") != nil {
		t.Error("removed handle should not resolve")
	}
}

func TestRegistryPauseAllExcept(t *testing.T) {
	r := NewRegistry()
	a := &stubHandle{id: "a", kind: timeline.MediaVideo, playing: true}
	b := &stubHandle{id: "b", kind: timeline.MediaVideo, playing: true}
	img := &stubHandle{id: "i", kind: timeline.MediaImage, playing: true}
	r.Register(a)
	r.Register(b)
	r.Register(img)

	r.PauseAllExcept("a")
	if !a.playing {
		t.Error("excepted handle should keep playing")
	}
	if b.playing {
		t.Error("other video should be paused")
	}
	if !img.playing {
		t.Error("non-video handles are left alone")
	}

	r.PauseAllExcept("")
	if a.playing {
		t.Error("empty id pauses everything")
	}
}

func generateTestVideo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	cmd := exec.Command("ffmpeg",
		"-f", "lavfi", "-i", "testsrc=duration=2:size=320x240:rate=30",
		"-pix_fmt", "yuv420p", "-y", path)
	if err := cmd.Run(); err != nil {
		t.Skipf("could not generate test video: %v", err)
	}
	return path
}

func testExecutor(t *testing.T) *ffmpeg.Executor {
	t.Helper()
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	e, err := ffmpeg.New(logger, config.Default().FFmpeg)
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}
	return e
}

func TestVideoHandle(t *testing.T) {
	skipIfNoFFmpeg(t)

	path := generateTestVideo(t)
	e := testExecutor(t)
	ctx := context.Background()

	h, err := NewVideoHandle(ctx, e, "vid-1", path)
	if err != nil {
		t.Fatalf("failed to open video: %v", err)
	}

	if h.Kind() != timeline.MediaVideo {
		t.Errorf("unexpected kind %s", h.Kind())
	}
	w, ht := h.NaturalSize()
	if w != 320 || ht != 240 {
		t.Errorf("expected 320x240, got %dx%d", w, ht)
	}

	// Position clamps into the clip.
	h.SetPosition(-1)
	if h.Position() != 0 {
		t.Errorf("negative position should clamp to 0, got %v", h.Position())
	}
	h.SetPosition(999)
	if h.Position() != h.Duration() {
		t.Errorf("overlong position should clamp to duration, got %v", h.Position())
	}

	frame, err := h.Frame(ctx, 1.0)
	if err != nil {
		t.Fatalf("frame failed: %v", err)
	}
	if frame.Bounds().Dx() != 320 || frame.Bounds().Dy() != 240 {
		t.Errorf("unexpected frame bounds %v", frame.Bounds())
	}

	// Close-enough requests reuse the cached frame.
	again, err := h.Frame(ctx, 1.0+frameTolerance/2)
	if err != nil {
		t.Fatalf("cached frame failed: %v", err)
	}
	if again != frame {
		t.Error("nearby request should serve the cached frame")
	}

	if err := h.Seek(ctx, 0.5); err != nil {
		t.Fatalf("seek failed: %v", err)
	}
	if h.Position() != 0.5 {
		t.Errorf("seek should move the playhead, got %v", h.Position())
	}
}

func TestVideoHandleMissingFile(t *testing.T) {
	skipIfNoFFmpeg(t)

	e := testExecutor(t)
	if _, err := NewVideoHandle(context.Background(), e, "x", "/nonexistent.mp4"); err == nil {
		t.Error("missing file should fail")
	}
}
