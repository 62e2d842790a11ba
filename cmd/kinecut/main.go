package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kikiluvv/kinecut/internal/audio"
	"github.com/kikiluvv/kinecut/internal/beats"
	"github.com/kikiluvv/kinecut/internal/config"
	"github.com/kikiluvv/kinecut/internal/export"
	"github.com/kikiluvv/kinecut/internal/ffmpeg"
	"github.com/kikiluvv/kinecut/internal/logging"
	"github.com/kikiluvv/kinecut/internal/media"
	"github.com/kikiluvv/kinecut/internal/timeline"
	"github.com/kikiluvv/kinecut/pkg/util"
)

var (
	cfgFile string
	verbose bool
	outFile string
	atStamp string
)

func main() {
	ctx := context.Background()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "kinecut",
	Short: "kinecut - timeline rendering and export engine",
	Long:  "A timeline-driven video rendering engine that projects clip and track collections onto a master clock and exports them through ffmpeg.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logging
		logging.Init(verbose)

		// Load config
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		// Store config in context
		ctx := config.WithConfig(cmd.Context(), cfg)
		cmd.SetContext(ctx)

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./kinecut.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	renderCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default: <project name>.mp4)")
	inspectCmd.Flags().StringVar(&atStamp, "at", "", "also resolve the active entries at a timestamp (e.g. 1:23.5)")

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(beatsCmd)
	rootCmd.AddCommand(configCmd)
}

var renderCmd = &cobra.Command{
	Use:   "render [project file]",
	Short: "Render a project to a video file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		project, err := timeline.Load(args[0])
		if err != nil {
			return err
		}

		exec, err := ffmpeg.New(log.Logger, cfg.FFmpeg)
		if err != nil {
			return err
		}

		registry, cache, err := loadAssets(cmd.Context(), exec, cfg, project)
		if err != nil {
			return err
		}

		output := outFile
		if output == "" {
			if err := util.EnsureDir(cfg.WorkDir); err != nil {
				return err
			}
			output = filepath.Join(cfg.WorkDir, project.Name+".mp4")
		}

		exporter := export.New(log.Logger, cfg, exec, registry, cache)

		lastLogged := -10.0
		result, err := exporter.Export(cmd.Context(), export.Options{
			Project:    project,
			OutputPath: output,
			Progress: func(pct float64) {
				if pct-lastLogged >= 10 || pct >= 100 {
					lastLogged = pct
					log.Info().Float64("percent", pct).Msg("export progress")
				}
			},
		})
		if err != nil {
			return err
		}

		log.Info().
			Str("output", result.Path).
			Str("mime", result.MimeType).
			Str("duration", util.FormatSeconds(result.Duration)).
			Int("frames", result.Frames).
			Msg("render complete")

		return nil
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [project file]",
	Short: "Show the projected timeline of a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := timeline.Load(args[0])
		if err != nil {
			return err
		}

		mediaEntries := project.Media()
		audioEntries := project.Audio()
		total := timeline.TotalDuration(mediaEntries)

		res := project.Settings.AspectRatio.OutputResolution()
		fmt.Printf("project: %s\n", project.Name)
		fmt.Printf("output:  %dx%d (%s)\n", res.Width, res.Height, project.Settings.AspectRatio)
		fmt.Printf("total:   %s\n\n", util.FormatSeconds(total))

		fmt.Println("media:")
		for _, entry := range mediaEntries {
			fmt.Printf("  [%6s - %6s] %-7s %s",
				util.FormatSeconds(entry.GlobalStart),
				util.FormatSeconds(entry.GlobalEnd),
				entry.Type,
				entry.Name,
			)
			if entry.Effect != timeline.EffectNone {
				fmt.Printf(" (%s)", entry.Effect)
			}
			fmt.Println()
		}

		if len(audioEntries) > 0 {
			fmt.Println("\naudio:")
			for _, entry := range audioEntries {
				fmt.Printf("  [%6s - %6s] %s (trim %s-%s)\n",
					util.FormatSeconds(entry.GlobalStart),
					util.FormatSeconds(entry.GlobalEnd),
					entry.Name,
					util.FormatSeconds(entry.TrimStart),
					util.FormatSeconds(entry.TrimEnd),
				)
			}
		}

		if atStamp != "" {
			d, err := util.ParseTimestamp(atStamp)
			if err != nil {
				return err
			}
			at := d.Seconds()

			fmt.Printf("\nat %s:\n", util.FormatSeconds(at))
			if active := timeline.ActiveMedia(mediaEntries, at); active != nil {
				fmt.Printf("  media: %s (clip time %s)\n", active.Name, util.FormatSeconds(active.LocalTime(at)))
			} else {
				fmt.Println("  media: none")
			}
			if active := timeline.ActiveAudio(audioEntries, at); active != nil {
				fmt.Printf("  audio: %s (source offset %s)\n", active.Name, util.FormatSeconds(active.SourceOffset(at)))
			} else {
				fmt.Println("  audio: none")
			}
		}

		return nil
	},
}

var beatsCmd = &cobra.Command{
	Use:   "beats [audio file]",
	Short: "Detect beat markers in an audio file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		exec, err := ffmpeg.New(log.Logger, cfg.FFmpeg)
		if err != nil {
			return err
		}

		buf, err := exec.DecodeAudio(cmd.Context(), args[0], cfg.Audio.SampleRate)
		if err != nil {
			return err
		}

		markers := beats.Analyze(buf)
		log.Info().Int("markers", len(markers)).Float64("duration", buf.Duration()).Msg("analysis complete")

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(markers)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Config management commands",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "./kinecut.yaml"
		if util.FileExists(path) {
			return fmt.Errorf("%s already exists", path)
		}
		if err := config.Default().Save(path); err != nil {
			return err
		}
		log.Info().Str("path", path).Msg("config written")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
}

// loadAssets opens a handle for every media item and decodes every audio
// track into the cache.
func loadAssets(ctx context.Context, exec *ffmpeg.Executor, cfg *config.Config, project *timeline.Project) (*media.Registry, *audio.Cache, error) {
	registry := media.NewRegistry()
	cache := audio.NewCache()

	for _, item := range project.Items {
		switch item.Type {
		case timeline.MediaImage:
			h, err := media.NewImageHandle(item.ID, item.Source)
			if err != nil {
				return nil, nil, err
			}
			registry.Register(h)
		case timeline.MediaVideo:
			h, err := media.NewVideoHandle(ctx, exec, item.ID, item.Source)
			if err != nil {
				return nil, nil, err
			}
			registry.Register(h)
		default:
			return nil, nil, fmt.Errorf("item %s has unknown type %q", item.ID, item.Type)
		}
	}

	for _, track := range project.Tracks {
		buf, err := exec.DecodeAudio(ctx, track.Source, cfg.Audio.SampleRate)
		if err != nil {
			// Undecodable audio is not fatal: the track is left out of the
			// mix and playback, the rest of the project still renders.
			log.Warn().Err(err).Str("track", track.Name).Msg("audio decode failed, skipping track")
			continue
		}
		cache.Put(track.ID, buf)
	}

	return registry, cache, nil
}
