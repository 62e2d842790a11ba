package timeline

import (
	"sort"
)

// MinTotalDuration is the floor applied to an empty timeline so downstream
// consumers never divide by zero or export a zero-length file.
const MinTotalDuration = 0.1

// MediaEntry is a media item projected onto the global timeline
type MediaEntry struct {
	MediaItem
	GlobalStart float64
	GlobalEnd   float64
}

// AudioEntry is an audio track projected onto the global timeline
type AudioEntry struct {
	AudioTrack
	GlobalStart    float64
	GlobalEnd      float64
	ActiveDuration float64
}

// BuildMedia projects media items onto the global timeline. Items are sorted by
// order (stable, so equal orders keep their relative position within one build)
// and packed back to back by cumulative summation of durations.
func BuildMedia(items []MediaItem) []MediaEntry {
	sorted := make([]MediaItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order < sorted[j].Order
	})

	entries := make([]MediaEntry, 0, len(sorted))
	acc := 0.0
	for _, item := range sorted {
		entry := MediaEntry{
			MediaItem:   item,
			GlobalStart: acc,
			GlobalEnd:   acc + item.Duration,
		}
		acc = entry.GlobalEnd
		entries = append(entries, entry)
	}
	return entries
}

// BuildAudio projects audio tracks onto the global timeline. Tracks are
// independently positioned: globalStart comes straight from timelineStart, the
// window length from the trim slice. Sorted by timelineStart for the
// first-match-wins active resolution.
func BuildAudio(tracks []AudioTrack) []AudioEntry {
	sorted := make([]AudioTrack, len(tracks))
	copy(sorted, tracks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TimelineStart < sorted[j].TimelineStart
	})

	entries := make([]AudioEntry, 0, len(sorted))
	for _, track := range sorted {
		active := track.TrimEnd - track.TrimStart
		entries = append(entries, AudioEntry{
			AudioTrack:     track,
			GlobalStart:    track.TimelineStart,
			GlobalEnd:      track.TimelineStart + active,
			ActiveDuration: active,
		})
	}
	return entries
}

// TotalDuration is the end of the last media entry, floored at MinTotalDuration.
// Audio extending past the last visual asset never extends the total.
func TotalDuration(media []MediaEntry) float64 {
	if len(media) == 0 {
		return MinTotalDuration
	}
	end := media[len(media)-1].GlobalEnd
	if end < MinTotalDuration {
		return MinTotalDuration
	}
	return end
}

// ActiveMedia returns the first entry whose [globalStart, globalEnd) window
// contains t, or nil when none does.
func ActiveMedia(entries []MediaEntry, t float64) *MediaEntry {
	for i := range entries {
		if t >= entries[i].GlobalStart && t < entries[i].GlobalEnd {
			return &entries[i]
		}
	}
	return nil
}

// ActiveAudio returns the first track whose window contains t, or nil. When
// windows overlap the first in sort order wins and the rest are ignored.
func ActiveAudio(entries []AudioEntry, t float64) *AudioEntry {
	for i := range entries {
		if t >= entries[i].GlobalStart && t < entries[i].GlobalEnd {
			return &entries[i]
		}
	}
	return nil
}

// SourceOffset maps a global time inside the entry's window to a position in
// the underlying audio source, accounting for the trim offset.
func (e *AudioEntry) SourceOffset(globalTime float64) float64 {
	return e.TrimStart + (globalTime - e.GlobalStart)
}

// LocalTime maps a global time inside the entry's window to clip-local time.
func (e *MediaEntry) LocalTime(globalTime float64) float64 {
	return globalTime - e.GlobalStart
}
