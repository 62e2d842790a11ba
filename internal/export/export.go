package export

import (
	"context"
	"fmt"
	"image"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/kinecut/internal/audio"
	"github.com/kikiluvv/kinecut/internal/config"
	"github.com/kikiluvv/kinecut/internal/ffmpeg"
	"github.com/kikiluvv/kinecut/internal/media"
	"github.com/kikiluvv/kinecut/internal/timeline"
	"github.com/kikiluvv/kinecut/pkg/util"
)

// Options configures one export run
type Options struct {
	Project *timeline.Project

	// OutputPath is where the file lands. Its extension is replaced with the
	// negotiated container format.
	OutputPath string

	// Progress receives a percentage in [0, 100], monotonically increasing.
	// May be nil.
	Progress func(percent float64)
}

// Result describes a finished export
type Result struct {
	Path     string
	MimeType string
	Duration float64
	Frames   int
}

// profile is one negotiated codec/container combination
type profile struct {
	VideoCodec string
	AudioCodec string
	Format     string
	Mime       string
}

// Exporter renders a project to a file in two phases: the full audio mixdown
// first, then a frame-by-frame capture paced by the audio sample clock.
type Exporter struct {
	logger   zerolog.Logger
	cfg      *config.Config
	exec     *ffmpeg.Executor
	registry *media.Registry
	cache    *audio.Cache
}

// New creates an exporter sharing the session's registry and audio cache
func New(logger zerolog.Logger, cfg *config.Config, exec *ffmpeg.Executor, registry *media.Registry, cache *audio.Cache) *Exporter {
	return &Exporter{
		logger:   logger.With().Str("component", "export").Logger(),
		cfg:      cfg,
		exec:     exec,
		registry: registry,
		cache:    cache,
	}
}

// Export renders the project. Any failure mid-capture aborts the encode and
// removes partial artifacts.
func (e *Exporter) Export(ctx context.Context, opts Options) (*Result, error) {
	if opts.Project == nil {
		return nil, fmt.Errorf("no project to export")
	}
	if opts.OutputPath == "" {
		return nil, fmt.Errorf("output path is required")
	}

	mediaEntries := opts.Project.Media()
	audioEntries := opts.Project.Audio()
	total := timeline.TotalDuration(mediaEntries)

	res := opts.Project.Settings.AspectRatio.OutputResolution()
	comp, err := NewCompositor(res.Width, res.Height)
	if err != nil {
		return nil, err
	}

	prof, err := e.negotiate(ctx)
	if err != nil {
		return nil, err
	}

	outPath := replaceExt(opts.OutputPath, prof.Format)

	e.logger.Info().
		Str("output", outPath).
		Str("video_codec", prof.VideoCodec).
		Str("audio_codec", prof.AudioCodec).
		Int("width", res.Width).
		Int("height", res.Height).
		Float64("duration", total).
		Msg("starting export")

	// Phase one: offline mixdown of every audio track.
	wavPath, err := e.writeMixdown(audioEntries, total)
	if err != nil {
		return nil, err
	}
	if !e.cfg.Export.KeepMixdownFiles {
		defer util.CleanupFiles(wavPath)
	}

	// Phase two: paced frame capture into a streaming encode.
	frames, err := e.capture(ctx, captureJob{
		media:    mediaEntries,
		total:    total,
		comp:     comp,
		prof:     prof,
		wavPath:  wavPath,
		outPath:  outPath,
		progress: opts.Progress,
	})
	if err != nil {
		util.CleanupFiles(outPath)
		return nil, err
	}

	if opts.Progress != nil {
		opts.Progress(100)
	}

	e.logger.Info().Str("output", outPath).Int("frames", frames).Msg("export complete")
	return &Result{
		Path:     outPath,
		MimeType: prof.Mime,
		Duration: total,
		Frames:   frames,
	}, nil
}

// negotiate picks the preferred codec pair when the host encoder supports it,
// otherwise the fallback pair.
func (e *Exporter) negotiate(ctx context.Context) (profile, error) {
	exp := e.cfg.Export

	preferred := profile{
		VideoCodec: exp.PreferredCodec,
		AudioCodec: exp.PreferredAudio,
		Format:     exp.PreferredFormat,
		Mime:       exp.PreferredMime,
	}
	fallback := profile{
		VideoCodec: exp.FallbackCodec,
		AudioCodec: exp.FallbackAudio,
		Format:     exp.FallbackFormat,
		Mime:       exp.FallbackMime,
	}

	if e.supports(ctx, preferred) {
		return preferred, nil
	}
	e.logger.Warn().
		Str("preferred", preferred.VideoCodec).
		Str("fallback", fallback.VideoCodec).
		Msg("preferred codec unavailable, falling back")

	if e.supports(ctx, fallback) {
		return fallback, nil
	}
	return profile{}, fmt.Errorf("no supported encoder: tried %s and %s", preferred.VideoCodec, fallback.VideoCodec)
}

func (e *Exporter) supports(ctx context.Context, p profile) bool {
	return e.exec.SupportsEncoder(ctx, p.VideoCodec) && e.exec.SupportsEncoder(ctx, p.AudioCodec)
}

// writeMixdown renders all tracks to one WAV and returns its path. A silent
// file is still produced when no track has a decoded buffer, keeping the
// encoder invocation uniform.
func (e *Exporter) writeMixdown(entries []timeline.AudioEntry, total float64) (string, error) {
	master := audio.Mixdown(entries, e.cache, total, e.cfg.Audio.SampleRate)

	f, err := util.TempFile(e.cfg.TempDir, "kinecut-mixdown", ".wav")
	if err != nil {
		return "", fmt.Errorf("failed to create mixdown file: %w", err)
	}
	defer f.Close()

	if err := audio.WriteWAV(f, master); err != nil {
		util.CleanupFiles(f.Name())
		return "", fmt.Errorf("failed to write mixdown: %w", err)
	}

	e.logger.Debug().
		Str("path", f.Name()).
		Float64("duration", master.Duration()).
		Msg("mixdown written")
	return f.Name(), nil
}

type captureJob struct {
	media    []timeline.MediaEntry
	total    float64
	comp     *Compositor
	prof     profile
	wavPath  string
	outPath  string
	progress func(float64)
}

// capture runs the frame loop. The frame timestamp is derived from the audio
// sample count fed so far, so video and audio share one clock and cannot
// drift apart over long exports.
func (e *Exporter) capture(ctx context.Context, job captureJob) (int, error) {
	fps := e.cfg.Export.FPS
	if fps <= 0 {
		fps = 30
	}
	rate := e.cfg.Audio.SampleRate
	if rate <= 0 {
		rate = audio.DefaultSampleRate
	}

	width, height := job.comp.width, job.comp.height
	session, err := e.exec.StartEncode(ctx, ffmpeg.EncodeOptions{
		Width:        width,
		Height:       height,
		FPS:          fps,
		AudioPath:    job.wavPath,
		Output:       job.outPath,
		Format:       job.prof.Format,
		VideoCodec:   job.prof.VideoCodec,
		AudioCodec:   job.prof.AudioCodec,
		VideoBitrate: e.cfg.Export.VideoBitrate,
		AudioBitrate: e.cfg.Export.AudioBitrate,
		Preset:       e.cfg.FFmpeg.Preset,
		CRF:          e.cfg.FFmpeg.CRF,
	})
	if err != nil {
		return 0, err
	}

	frame := job.comp.NewFrame()
	frameCount := int(math.Ceil(job.total * float64(fps)))
	if frameCount < 1 {
		frameCount = 1
	}

	for i := 0; i < frameCount; i++ {
		if err := ctx.Err(); err != nil {
			session.Abort()
			return 0, err
		}

		// Samples consumed by frames 0..i-1 set this frame's timestamp.
		samples := int64(i) * int64(rate) / int64(fps)
		t := float64(samples) / float64(rate)

		if err := e.renderFrame(ctx, frame, job, t); err != nil {
			session.Abort()
			return 0, err
		}
		if err := session.WriteFrame(frame); err != nil {
			session.Abort()
			return 0, err
		}

		if job.progress != nil {
			pct := t / job.total * 100
			if pct > 100 {
				pct = 100
			}
			job.progress(pct)
		}
	}

	if err := session.Close(); err != nil {
		return 0, err
	}
	return frameCount, nil
}

// renderFrame composites the frame for timeline time t. Gaps with no active
// item come out solid black.
func (e *Exporter) renderFrame(ctx context.Context, frame *image.RGBA, job captureJob, t float64) error {
	active := timeline.ActiveMedia(job.media, t)
	if active == nil {
		job.comp.Clear(frame)
		return nil
	}

	handle := e.registry.Get(active.ID)
	if handle == nil {
		return fmt.Errorf("no handle registered for item %s", active.ID)
	}

	local := active.LocalTime(t)

	// Exports are frame accurate: when the handle's playhead has drifted,
	// block on a real seek instead of the interactive optimistic nudge.
	if handle.Kind() == timeline.MediaVideo && math.Abs(handle.Position()-local) > e.exportSyncThreshold() {
		seekCtx, cancel := context.WithTimeout(ctx, e.seekTimeout())
		err := handle.Seek(seekCtx, local)
		cancel()
		if err != nil {
			return fmt.Errorf("seek to %.3fs in %s failed: %w", local, active.ID, err)
		}
	}

	src, err := handle.Frame(ctx, local)
	if err != nil {
		return fmt.Errorf("frame fetch for %s at %.3fs failed: %w", active.ID, local, err)
	}

	job.comp.Render(frame, src, &active.MediaItem)
	return nil
}

func (e *Exporter) exportSyncThreshold() float64 {
	if v := e.cfg.Playback.ExportSyncSec; v > 0 {
		return v
	}
	return 0.1
}

func (e *Exporter) seekTimeout() time.Duration {
	sec := e.cfg.Export.SeekTimeoutSec
	if sec <= 0 {
		sec = 5
	}
	return time.Duration(sec * float64(time.Second))
}

// replaceExt swaps the path's extension for the negotiated container's
func replaceExt(path, format string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "." + format
}
