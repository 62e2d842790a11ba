package timeline

// Effect is a visual filter tag applied to a media item
type Effect string

const (
	EffectNone       Effect = "none"
	EffectVibrant    Effect = "vibrant"
	EffectMonochrome Effect = "monochrome"
	EffectVintage    Effect = "vintage"
	EffectRetro      Effect = "retro"
	EffectElegant    Effect = "elegant"
	EffectPop        Effect = "pop"
	EffectGlitch     Effect = "glitch"
	EffectBlur       Effect = "blur"
	EffectZoom       Effect = "zoom"
)

// TextAnimation is a preview-only overlay animation tag. The export pipeline
// renders the static end-state regardless of the tag.
type TextAnimation string

const (
	AnimNone       TextAnimation = "none"
	AnimReveal     TextAnimation = "reveal"
	AnimTypewriter TextAnimation = "typewriter"
	AnimBounce     TextAnimation = "bounce"
	AnimGlitch     TextAnimation = "glitch"
	AnimFlicker    TextAnimation = "flicker"
	AnimWave       TextAnimation = "wave"
	AnimZoom       TextAnimation = "zoom"
)

// FilterParams are the color-pipeline parameters for one effect. Neutral values
// are 1 for the multiplicative stages and 0 for the rest.
type FilterParams struct {
	Saturation float64 // 1 = unchanged
	Contrast   float64 // 1 = unchanged
	Brightness float64 // 1 = unchanged
	Grayscale  float64 // 0..1 mix toward luma
	Sepia      float64 // 0..1 mix toward sepia tone
	HueRotate  float64 // degrees
	BlurRadius int     // pixels, box radius
}

// IsNeutral reports whether applying the filter would be a no-op
func (p FilterParams) IsNeutral() bool {
	return p.Saturation == 1 && p.Contrast == 1 && p.Brightness == 1 &&
		p.Grayscale == 0 && p.Sepia == 0 && p.HueRotate == 0 && p.BlurRadius == 0
}

var neutralFilter = FilterParams{Saturation: 1, Contrast: 1, Brightness: 1}

// filterTable mirrors the render-path effect lookup: each tag maps to a fixed
// parameter set. Zoom is an emphasis effect and renders unfiltered.
var filterTable = map[Effect]FilterParams{
	EffectNone:       neutralFilter,
	EffectVibrant:    {Saturation: 1.8, Contrast: 1.1, Brightness: 1},
	EffectMonochrome: {Saturation: 1, Contrast: 1.2, Brightness: 1, Grayscale: 1},
	EffectVintage:    {Saturation: 1, Contrast: 0.9, Brightness: 1.1, Sepia: 0.5},
	EffectRetro:      {Saturation: 1.4, Contrast: 1.1, Brightness: 1, HueRotate: -30},
	EffectElegant:    {Saturation: 0.8, Contrast: 0.95, Brightness: 1.05},
	EffectPop:        {Saturation: 2, Contrast: 1.2, Brightness: 1},
	EffectGlitch:     {Saturation: 1, Contrast: 1.5, Brightness: 1, HueRotate: 90},
	EffectBlur:       {Saturation: 1, Contrast: 1, Brightness: 1, BlurRadius: 5},
	EffectZoom:       neutralFilter,
}

// Filter returns the color-pipeline parameters for the effect tag. Unknown tags
// render unfiltered.
func (e Effect) Filter() FilterParams {
	if p, ok := filterTable[e]; ok {
		return p
	}
	return neutralFilter
}

// Effects lists every known effect tag
func Effects() []Effect {
	return []Effect{
		EffectNone, EffectVibrant, EffectMonochrome, EffectVintage, EffectRetro,
		EffectElegant, EffectPop, EffectGlitch, EffectBlur, EffectZoom,
	}
}
