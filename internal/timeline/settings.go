package timeline

// AspectRatio is the project's output shape
type AspectRatio string

const (
	AspectWide      AspectRatio = "16:9"
	AspectVertical  AspectRatio = "9:16"
	AspectSquare    AspectRatio = "1:1"
	AspectSocial    AspectRatio = "4:5"
	AspectCinematic AspectRatio = "21:9"
)

// Resolution is a fixed output pixel size
type Resolution struct {
	Width  int
	Height int
}

// resolutionTable is a discrete lookup, not a proportional computation: each
// supported ratio maps to one capture size.
var resolutionTable = map[AspectRatio]Resolution{
	AspectWide:      {1280, 720},
	AspectVertical:  {720, 1280},
	AspectSquare:    {720, 720},
	AspectSocial:    {720, 900},
	AspectCinematic: {1280, 548},
}

// OutputResolution returns the capture size for the ratio, defaulting to
// 1280x720 for anything unrecognized.
func (a AspectRatio) OutputResolution() Resolution {
	if r, ok := resolutionTable[a]; ok {
		return r
	}
	return Resolution{1280, 720}
}

// Settings holds project-wide defaults
type Settings struct {
	AspectRatio AspectRatio `json:"aspectRatio"`
	FitMode     ScaleMode   `json:"fitMode"`
	Quality     string      `json:"quality,omitempty"`
}

// DefaultSettings are the editor defaults for a fresh project
func DefaultSettings() Settings {
	return Settings{
		AspectRatio: AspectWide,
		FitMode:     ScaleCover,
		Quality:     "hd",
	}
}
