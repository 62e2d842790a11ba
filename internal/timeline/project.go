package timeline

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Project is the single active editing session: the raw collections the
// timeline projections are computed from, plus project-wide settings.
type Project struct {
	Name     string       `json:"name"`
	Items    []MediaItem  `json:"items"`
	Tracks   []AudioTrack `json:"tracks"`
	Settings Settings     `json:"settings"`
}

// NewProject creates an empty project with default settings
func NewProject(name string) *Project {
	return &Project{
		Name:     name,
		Settings: DefaultSettings(),
	}
}

// Media returns the media projection, recomputed from the current items
func (p *Project) Media() []MediaEntry {
	return BuildMedia(p.Items)
}

// Audio returns the audio projection, recomputed from the current tracks
func (p *Project) Audio() []AudioEntry {
	return BuildAudio(p.Tracks)
}

// TotalDuration is the project length governed by the visual timeline
func (p *Project) TotalDuration() float64 {
	return TotalDuration(p.Media())
}

// AddItem appends a media item to the bin
func (p *Project) AddItem(item MediaItem) {
	p.Items = append(p.Items, item)
}

// AddTrack appends an audio track
func (p *Project) AddTrack(track AudioTrack) {
	p.Tracks = append(p.Tracks, track)
}

// Item looks up a media item by id
func (p *Project) Item(id string) *MediaItem {
	for i := range p.Items {
		if p.Items[i].ID == id {
			return &p.Items[i]
		}
	}
	return nil
}

// Track looks up an audio track by id
func (p *Project) Track(id string) *AudioTrack {
	for i := range p.Tracks {
		if p.Tracks[i].ID == id {
			return &p.Tracks[i]
		}
	}
	return nil
}

// RemoveItem deletes a media item by id
func (p *Project) RemoveItem(id string) {
	for i := range p.Items {
		if p.Items[i].ID == id {
			p.Items = append(p.Items[:i], p.Items[i+1:]...)
			return
		}
	}
}

// RemoveTrack deletes an audio track by id. The caller is responsible for
// releasing the track's decoded buffer and stopping playback if it is sounding.
func (p *Project) RemoveTrack(id string) {
	for i := range p.Tracks {
		if p.Tracks[i].ID == id {
			p.Tracks = append(p.Tracks[:i], p.Tracks[i+1:]...)
			return
		}
	}
}

// MoveItem swaps the item's order with its neighbor in sorted position.
// direction is -1 for earlier, +1 for later.
func (p *Project) MoveItem(id string, direction int) {
	sorted := p.sortedItems()
	idx := -1
	for i := range sorted {
		if sorted[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return
	}

	swap := idx + direction
	if swap < 0 || swap >= len(sorted) {
		return
	}
	sorted[idx].Order, sorted[swap].Order = sorted[swap].Order, sorted[idx].Order
	p.applyOrders(sorted)
}

// MoveToPosition splices the item to a 1-based rank and renumbers every item's
// order to its resulting index, collapsing any gaps.
func (p *Project) MoveToPosition(id string, rank int) {
	if len(p.Items) == 0 {
		return
	}
	target := rank - 1
	if target < 0 {
		target = 0
	}
	if target > len(p.Items)-1 {
		target = len(p.Items) - 1
	}

	sorted := p.sortedItems()
	current := -1
	for i := range sorted {
		if sorted[i].ID == id {
			current = i
			break
		}
	}
	if current == -1 || current == target {
		return
	}

	item := sorted[current]
	sorted = append(sorted[:current], sorted[current+1:]...)
	sorted = append(sorted[:target], append([]MediaItem{item}, sorted[target:]...)...)
	for i := range sorted {
		sorted[i].Order = i
	}
	p.applyOrders(sorted)
}

func (p *Project) sortedItems() []MediaItem {
	sorted := make([]MediaItem, len(p.Items))
	copy(sorted, p.Items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order < sorted[j].Order
	})
	return sorted
}

func (p *Project) applyOrders(sorted []MediaItem) {
	for _, s := range sorted {
		if it := p.Item(s.ID); it != nil {
			it.Order = s.Order
		}
	}
}

// Validate checks the invariants editing must maintain
func (p *Project) Validate() error {
	for _, it := range p.Items {
		if it.Duration <= 0 {
			return fmt.Errorf("item %s: duration must be positive", it.ID)
		}
		if it.Type != MediaImage && it.Type != MediaVideo {
			return fmt.Errorf("item %s: unknown media type %q", it.ID, it.Type)
		}
	}
	for _, tr := range p.Tracks {
		if tr.TrimStart < 0 || tr.TrimEnd > tr.Duration {
			return fmt.Errorf("track %s: trim window outside source", tr.ID)
		}
		if tr.TrimStart >= tr.TrimEnd {
			return fmt.Errorf("track %s: trim window must be positive", tr.ID)
		}
		if tr.TimelineStart < 0 {
			return fmt.Errorf("track %s: timeline start must be non-negative", tr.ID)
		}
	}
	return nil
}

// Load reads a project document from disk
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project: %w", err)
	}

	p := &Project{}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse project: %w", err)
	}
	if p.Settings.AspectRatio == "" {
		p.Settings = DefaultSettings()
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid project: %w", err)
	}
	return p, nil
}

// Save writes the project document to disk
func (p *Project) Save(path string) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
