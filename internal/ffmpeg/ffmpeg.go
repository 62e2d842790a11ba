package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/kinecut/internal/config"
)

// Executor handles all ffmpeg/ffprobe invocations
type Executor struct {
	logger      zerolog.Logger
	ffmpegPath  string
	ffprobePath string
	threads     int

	encodersOnce sync.Once
	encoders     string
}

// New creates an executor, resolving both binaries up front
func New(logger zerolog.Logger, cfg config.FFmpegConfig) (*Executor, error) {
	binary := cfg.BinaryPath
	if binary == "" {
		binary = "ffmpeg"
	}

	ffmpegPath, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	ffprobePath, err := exec.LookPath("ffprobe")
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found in PATH: %w", err)
	}

	return &Executor{
		logger:      logger.With().Str("component", "ffmpeg").Logger(),
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		threads:     cfg.Threads,
	}, nil
}

// Run executes ffmpeg with the given arguments, streaming stderr to the
// optional log handler.
func (e *Executor) Run(ctx context.Context, args []string, logHandler func(line string)) error {
	if len(args) == 0 {
		return fmt.Errorf("no arguments provided")
	}

	full := e.baseArgs()
	full = append(full, args...)

	e.logger.Debug().Strs("args", full).Msg("executing ffmpeg")

	cmd := exec.CommandContext(ctx, e.ffmpegPath, full...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		if logHandler != nil {
			logHandler(scanner.Text())
		}
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() == context.Canceled {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg execution failed: %w", err)
	}
	return nil
}

// Output executes ffmpeg and returns its stdout, used for raw frame and PCM
// extraction. Stderr is kept for the error message.
func (e *Executor) Output(ctx context.Context, args []string) ([]byte, error) {
	full := e.baseArgs()
	full = append(full, args...)

	e.logger.Debug().Strs("args", full).Msg("executing ffmpeg for output")

	cmd := exec.CommandContext(ctx, e.ffmpegPath, full...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ffmpeg failed: %w\n%s", err, stderr.String())
	}
	return stdout.Bytes(), nil
}

// SupportsEncoder reports whether the host ffmpeg build carries the encoder.
// The encoder list is queried once and cached.
func (e *Executor) SupportsEncoder(ctx context.Context, name string) bool {
	e.encodersOnce.Do(func() {
		cmd := exec.CommandContext(ctx, e.ffmpegPath, "-hide_banner", "-encoders")
		out, err := cmd.Output()
		if err != nil {
			e.logger.Warn().Err(err).Msg("encoder query failed")
			return
		}
		e.encoders = string(out)
	})
	return strings.Contains(e.encoders, " "+name+" ")
}

func (e *Executor) baseArgs() []string {
	args := []string{"-y", "-hide_banner", "-loglevel", "error"}
	if e.threads > 0 {
		args = append(args, "-threads", fmt.Sprintf("%d", e.threads))
	}
	return args
}
