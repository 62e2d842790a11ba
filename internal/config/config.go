package config

import (
	"context"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Config holds all application configuration
type Config struct {
	// Core settings
	WorkDir string `yaml:"work_dir"`
	TempDir string `yaml:"temp_dir"`

	// FFmpeg settings
	FFmpeg FFmpegConfig `yaml:"ffmpeg"`

	// Export settings
	Export ExportConfig `yaml:"export"`

	// Audio settings
	Audio AudioConfig `yaml:"audio"`

	// Playback settings
	Playback PlaybackConfig `yaml:"playback"`
}

type FFmpegConfig struct {
	BinaryPath string `yaml:"binary_path"`
	Threads    int    `yaml:"threads"`
	Preset     string `yaml:"preset"`
	CRF        int    `yaml:"crf"`
}

type ExportConfig struct {
	FPS              int     `yaml:"fps"`
	VideoBitrate     string  `yaml:"video_bitrate"`
	AudioBitrate     string  `yaml:"audio_bitrate"`
	SeekTimeoutSec   float64 `yaml:"seek_timeout_sec"`
	PreferredCodec   string  `yaml:"preferred_codec"`
	PreferredAudio   string  `yaml:"preferred_audio"`
	FallbackCodec    string  `yaml:"fallback_codec"`
	FallbackAudio    string  `yaml:"fallback_audio"`
	PreferredFormat  string  `yaml:"preferred_format"`
	FallbackFormat   string  `yaml:"fallback_format"`
	PreferredMime    string  `yaml:"preferred_mime"`
	FallbackMime     string  `yaml:"fallback_mime"`
	KeepMixdownFiles bool    `yaml:"keep_mixdown_files"`
}

type AudioConfig struct {
	SampleRate int `yaml:"sample_rate"`
}

type PlaybackConfig struct {
	TickRate      int     `yaml:"tick_rate"`
	ResyncSec     float64 `yaml:"resync_sec"`
	BeatWindowSec float64 `yaml:"beat_window_sec"`
	ExportSyncSec float64 `yaml:"export_sync_sec"`
}

// Load reads configuration from file or returns defaults
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func defaultConfig() *Config {
	return &Config{
		WorkDir: "./work",
		TempDir: "",
		FFmpeg: FFmpegConfig{
			BinaryPath: "ffmpeg",
			Threads:    0,
			Preset:     "medium",
			CRF:        23,
		},
		Export: ExportConfig{
			FPS:             30,
			VideoBitrate:    "10M",
			AudioBitrate:    "128k",
			SeekTimeoutSec:  5,
			PreferredCodec:  "libx264",
			PreferredAudio:  "aac",
			FallbackCodec:   "libvpx-vp9",
			FallbackAudio:   "libopus",
			PreferredFormat: "mp4",
			FallbackFormat:  "webm",
			PreferredMime:   "video/mp4;codecs=avc1,mp4a.40.2",
			FallbackMime:    "video/webm;codecs=vp9,opus",
		},
		Audio: AudioConfig{
			SampleRate: 44100,
		},
		Playback: PlaybackConfig{
			TickRate:      60,
			ResyncSec:     0.15,
			BeatWindowSec: 0.1,
			ExportSyncSec: 0.1,
		},
	}
}

// Default returns the built-in defaults without touching the filesystem
func Default() *Config {
	return defaultConfig()
}

func findConfigFile() string {
	candidates := []string{
		"./kinecut.yaml",
		"./kinecut.yml",
		filepath.Join(os.Getenv("HOME"), ".kinecut", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return defaultConfig()
}
