package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Export.FPS != 30 {
		t.Errorf("expected 30 fps, got %d", cfg.Export.FPS)
	}
	if cfg.Audio.SampleRate != 44100 {
		t.Errorf("expected 44100, got %d", cfg.Audio.SampleRate)
	}
	if cfg.Playback.ResyncSec != 0.15 {
		t.Errorf("expected 0.15, got %v", cfg.Playback.ResyncSec)
	}
	if cfg.Playback.ExportSyncSec != 0.1 {
		t.Errorf("expected 0.1, got %v", cfg.Playback.ExportSyncSec)
	}
	if cfg.Export.SeekTimeoutSec != 5 {
		t.Errorf("expected 5, got %v", cfg.Export.SeekTimeoutSec)
	}
	if cfg.Export.PreferredCodec != "libx264" || cfg.Export.FallbackCodec != "libvpx-vp9" {
		t.Errorf("unexpected codec defaults: %s / %s",
			cfg.Export.PreferredCodec, cfg.Export.FallbackCodec)
	}
	if cfg.Export.PreferredFormat != "mp4" || cfg.Export.FallbackFormat != "webm" {
		t.Errorf("unexpected format defaults: %s / %s",
			cfg.Export.PreferredFormat, cfg.Export.FallbackFormat)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.Export.FPS != 30 {
		t.Errorf("expected defaults, got fps %d", cfg.Export.FPS)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kinecut.yaml")
	content := []byte("export:\n  fps: 60\n  preferred_codec: libx265\nplayback:\n  resync_sec: 0.3\n")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Export.FPS != 60 {
		t.Errorf("expected 60, got %d", cfg.Export.FPS)
	}
	if cfg.Export.PreferredCodec != "libx265" {
		t.Errorf("expected libx265, got %s", cfg.Export.PreferredCodec)
	}
	if cfg.Playback.ResyncSec != 0.3 {
		t.Errorf("expected 0.3, got %v", cfg.Playback.ResyncSec)
	}
	// Untouched sections keep their defaults.
	if cfg.Audio.SampleRate != 44100 {
		t.Errorf("expected 44100, got %d", cfg.Audio.SampleRate)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("export: [not a map"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("malformed yaml should fail")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Export.FPS = 24
	cfg.FFmpeg.CRF = 18

	path := filepath.Join(t.TempDir(), "rt.yaml")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Export.FPS != 24 || loaded.FFmpeg.CRF != 18 {
		t.Errorf("round trip lost values: fps=%d crf=%d", loaded.Export.FPS, loaded.FFmpeg.CRF)
	}
}

func TestContextRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Export.FPS = 12

	ctx := WithConfig(context.Background(), cfg)
	if got := FromContext(ctx); got.Export.FPS != 12 {
		t.Errorf("expected 12, got %d", got.Export.FPS)
	}

	// A bare context yields defaults rather than nil.
	if got := FromContext(context.Background()); got == nil || got.Export.FPS != 30 {
		t.Error("missing config should fall back to defaults")
	}
}
