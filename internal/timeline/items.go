package timeline

import (
	"github.com/google/uuid"
)

// MediaType distinguishes still images from video clips
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// ScaleMode controls how an asset is fitted into the output frame
type ScaleMode string

const (
	ScaleCover   ScaleMode = "cover"
	ScaleContain ScaleMode = "contain"
	ScaleFill    ScaleMode = "fill"
	ScaleFit     ScaleMode = "fit"
)

// MaxItemDuration caps a single clip's length at creation time
const MaxItemDuration = 10.0

// MinTrimGap is the smallest allowed trim window on an audio track
const MinTrimGap = 0.1

// Overlay holds the text layer drawn over a media item
type Overlay struct {
	Text         string  `json:"text,omitempty"`
	Subtext      string  `json:"subtext,omitempty"`
	TextColor    string  `json:"textColor,omitempty"`
	SubtextColor string  `json:"subtextColor,omitempty"`
	BgColor      string  `json:"bgColor,omitempty"`
	X            float64 `json:"x"` // percent 0-100
	Y            float64 `json:"y"` // percent 0-100
	TextSize     float64 `json:"textSize,omitempty"`

	FontFamily    string  `json:"fontFamily,omitempty"`
	FontWeight    string  `json:"fontWeight,omitempty"`
	LetterSpacing string  `json:"letterSpacing,omitempty"`

	Animation      TextAnimation `json:"animation,omitempty"`
	AnimationSpeed float64       `json:"animationSpeed,omitempty"`
}

// Empty reports whether the overlay has nothing to draw
func (o Overlay) Empty() bool {
	return o.Text == "" && o.Subtext == ""
}

// MediaItem is a single visual asset in the production bin
type MediaItem struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Source   string    `json:"source"`
	Type     MediaType `json:"type"`
	Duration float64   `json:"duration"`
	Order    int       `json:"order"`

	Effect    Effect    `json:"effect"`
	ScaleMode ScaleMode `json:"scaleMode"`
	Overlay   Overlay   `json:"overlay"`
}

// NewMediaItem creates a media item with a fresh id and editor defaults.
// Duration is clamped into (0, MaxItemDuration].
func NewMediaItem(name, source string, typ MediaType, duration float64, order int) MediaItem {
	if duration > MaxItemDuration {
		duration = MaxItemDuration
	}
	if duration <= 0 {
		duration = MinTotalDuration
	}
	return MediaItem{
		ID:        uuid.NewString(),
		Name:      name,
		Source:    source,
		Type:      typ,
		Duration:  duration,
		Order:     order,
		Effect:    EffectNone,
		ScaleMode: ScaleCover,
		Overlay: Overlay{
			X:              50,
			Y:              50,
			TextSize:       60,
			TextColor:      "#ffffff",
			SubtextColor:   "#cccccc",
			FontFamily:     "Inter",
			FontWeight:     "900",
			LetterSpacing:  "0.1em",
			Animation:      AnimReveal,
			AnimationSpeed: 1,
		},
	}
}

// AudioTrack is a music/voice track positioned independently on the timeline
type AudioTrack struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Source        string  `json:"source"`
	Duration      float64 `json:"duration"`
	TrimStart     float64 `json:"trimStart"`
	TrimEnd       float64 `json:"trimEnd"`
	TimelineStart float64 `json:"timelineStart"`
	Order         int     `json:"order"`
}

// NewAudioTrack creates a track spanning its full decoded duration
func NewAudioTrack(name, source string, duration float64, order int) AudioTrack {
	return AudioTrack{
		ID:       uuid.NewString(),
		Name:     name,
		Source:   source,
		Duration: duration,
		TrimEnd:  duration,
		Order:    order,
	}
}

// ActiveDuration is the audible length of the trim window
func (t AudioTrack) ActiveDuration() float64 {
	return t.TrimEnd - t.TrimStart
}

// SetTrimStart clamps the new start into [0, trimEnd-MinTrimGap]
func (t *AudioTrack) SetTrimStart(v float64) {
	if v < 0 {
		v = 0
	}
	if v > t.TrimEnd-MinTrimGap {
		v = t.TrimEnd - MinTrimGap
	}
	t.TrimStart = v
}

// SetTrimEnd clamps the new end into [trimStart+MinTrimGap, duration]
func (t *AudioTrack) SetTrimEnd(v float64) {
	if v > t.Duration {
		v = t.Duration
	}
	if v < t.TrimStart+MinTrimGap {
		v = t.TrimStart + MinTrimGap
	}
	t.TrimEnd = v
}

// SetTimelineStart clamps the new timeline position to be non-negative
func (t *AudioTrack) SetTimelineStart(v float64) {
	if v < 0 {
		v = 0
	}
	t.TimelineStart = v
}
