package ffmpeg

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"io"
	"os/exec"

	"github.com/rs/zerolog"
)

// EncodeOptions configures a raw-stream capture encode: RGBA frames arrive
// over stdin, the mixdown WAV is muxed in as the second input.
type EncodeOptions struct {
	Width      int
	Height     int
	FPS        int
	AudioPath  string // empty for a video-only encode
	Output     string
	Format     string
	VideoCodec string
	AudioCodec string

	VideoBitrate string
	AudioBitrate string
	Preset       string
	CRF          int
}

// EncodeSession is a running streaming encode. Frames are pushed with
// WriteFrame; Close finishes the stream and waits for the mux to complete.
type EncodeSession struct {
	cmd      *exec.Cmd
	stdin    io.WriteCloser
	frameLen int
	logger   zerolog.Logger
	done     chan struct{}
	waitErr  error
}

// StartEncode launches the streaming encoder
func (e *Executor) StartEncode(ctx context.Context, opts EncodeOptions) (*EncodeSession, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", opts.Width, opts.Height)
	}
	if opts.FPS <= 0 {
		return nil, fmt.Errorf("fps must be positive")
	}
	if opts.Output == "" {
		return nil, fmt.Errorf("output path is required")
	}

	args := e.baseArgs()
	args = append(args,
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", opts.Width, opts.Height),
		"-r", fmt.Sprintf("%d", opts.FPS),
		"-i", "pipe:0",
	)
	if opts.AudioPath != "" {
		args = append(args, "-i", opts.AudioPath)
	}

	args = append(args, "-c:v", opts.VideoCodec)
	if opts.CRF > 0 {
		args = append(args, "-crf", fmt.Sprintf("%d", opts.CRF))
	}
	if opts.Preset != "" {
		args = append(args, "-preset", opts.Preset)
	}
	if opts.VideoBitrate != "" {
		args = append(args, "-b:v", opts.VideoBitrate)
	}
	args = append(args, "-pix_fmt", "yuv420p")

	if opts.AudioPath != "" {
		args = append(args, "-c:a", opts.AudioCodec)
		if opts.AudioBitrate != "" {
			args = append(args, "-b:a", opts.AudioBitrate)
		}
		// Audio must not outlast the captured frames.
		args = append(args, "-shortest")
	}

	if opts.Format != "" {
		args = append(args, "-f", opts.Format)
	}
	args = append(args, opts.Output)

	e.logger.Debug().Strs("args", args).Msg("starting streaming encode")

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open encoder stdin: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open encoder stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start encoder: %w", err)
	}

	s := &EncodeSession{
		cmd:      cmd,
		stdin:    stdin,
		frameLen: opts.Width * opts.Height * 4,
		logger:   e.logger,
		done:     make(chan struct{}),
	}

	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			s.logger.Debug().Str("encoder", scanner.Text()).Msg("")
		}
		s.waitErr = cmd.Wait()
		close(s.done)
	}()

	return s, nil
}

// WriteFrame pushes one RGBA frame into the encoder
func (s *EncodeSession) WriteFrame(img *image.RGBA) error {
	if len(img.Pix) != s.frameLen {
		return fmt.Errorf("frame size mismatch: got %d bytes, want %d", len(img.Pix), s.frameLen)
	}
	if _, err := s.stdin.Write(img.Pix); err != nil {
		return fmt.Errorf("encoder rejected frame: %w", err)
	}
	return nil
}

// Close ends the frame stream and waits for the encoder to finish the file
func (s *EncodeSession) Close() error {
	if err := s.stdin.Close(); err != nil {
		return fmt.Errorf("failed to close encoder stream: %w", err)
	}
	<-s.done
	if s.waitErr != nil {
		return fmt.Errorf("encoder failed: %w", s.waitErr)
	}
	return nil
}

// Abort kills the encoder, discarding whatever was written
func (s *EncodeSession) Abort() {
	_ = s.stdin.Close()
	_ = s.cmd.Process.Kill()
	<-s.done
}
