package export

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/kikiluvv/kinecut/internal/timeline"
)

// referenceWidth is the canvas width overlay sizes are authored against.
// Text scales proportionally on narrower or wider outputs.
const referenceWidth = 1920.0

// Compositor draws one output frame at a time: source pixels scaled per the
// item's fit mode, the item's color filter, then the text overlay on top.
type Compositor struct {
	width  int
	height int

	bold    *opentype.Font
	regular *opentype.Font
	faces   map[faceKey]font.Face
}

type faceKey struct {
	size float64
	bold bool
}

// NewCompositor creates a compositor for the given canvas size
func NewCompositor(width, height int) (*Compositor, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", width, height)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bold font: %w", err)
	}
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse regular font: %w", err)
	}
	return &Compositor{
		width:   width,
		height:  height,
		bold:    bold,
		regular: regular,
		faces:   make(map[faceKey]font.Face),
	}, nil
}

// NewFrame allocates a canvas-sized RGBA frame
func (c *Compositor) NewFrame() *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, c.width, c.height))
}

// Render draws the item's source into dst. The canvas is cleared to black
// first so letterboxed and empty regions come out solid.
func (c *Compositor) Render(dst *image.RGBA, src image.Image, item *timeline.MediaItem) {
	c.Clear(dst)
	if src != nil {
		rect := scaleRect(src.Bounds().Dx(), src.Bounds().Dy(), c.width, c.height, item.ScaleMode)
		xdraw.ApproxBiLinear.Scale(dst, rect, src, src.Bounds(), draw.Src, nil)
		if params := item.Effect.Filter(); !params.IsNeutral() {
			applyFilter(dst, rect, params)
		}
	}
	if !item.Overlay.Empty() {
		c.drawOverlay(dst, item.Overlay)
	}
}

// Clear fills the frame with opaque black
func (c *Compositor) Clear(dst *image.RGBA) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
}

// scaleRect computes where the source lands on the canvas. Cover overflows
// and crops, contain and fit letterbox, fill stretches edge to edge.
func scaleRect(srcW, srcH, canvasW, canvasH int, mode timeline.ScaleMode) image.Rectangle {
	if mode == timeline.ScaleFill || srcW <= 0 || srcH <= 0 {
		return image.Rect(0, 0, canvasW, canvasH)
	}

	srcAspect := float64(srcW) / float64(srcH)
	canvasAspect := float64(canvasW) / float64(canvasH)

	var dw, dh float64
	if mode == timeline.ScaleCover {
		if srcAspect > canvasAspect {
			dh = float64(canvasH)
			dw = dh * srcAspect
		} else {
			dw = float64(canvasW)
			dh = dw / srcAspect
		}
	} else {
		// contain and fit share letterbox math
		if srcAspect > canvasAspect {
			dw = float64(canvasW)
			dh = dw / srcAspect
		} else {
			dh = float64(canvasH)
			dw = dh * srcAspect
		}
	}

	x := (float64(canvasW) - dw) / 2
	y := (float64(canvasH) - dh) / 2
	return image.Rect(int(math.Round(x)), int(math.Round(y)), int(math.Round(x+dw)), int(math.Round(y+dh)))
}

// applyFilter runs the effect's color adjustments over the drawn region in
// place. Stages run grayscale, sepia, hue rotation, saturation, contrast,
// brightness, then blur, matching the order the filter table composes them in.
// Pixels outside the region, letterbox bars included, stay untouched.
func applyFilter(img *image.RGBA, region image.Rectangle, p timeline.FilterParams) {
	region = region.Intersect(img.Bounds())
	if region.Empty() {
		return
	}

	pix := img.Pix
	for y := region.Min.Y; y < region.Max.Y; y++ {
		i := img.PixOffset(region.Min.X, y)
		for x := region.Min.X; x < region.Max.X; x++ {
			r := float64(pix[i]) / 255
			g := float64(pix[i+1]) / 255
			b := float64(pix[i+2]) / 255

			if p.Grayscale > 0 {
				r, g, b = grayscale(r, g, b, p.Grayscale)
			}
			if p.Sepia > 0 {
				r, g, b = sepia(r, g, b, p.Sepia)
			}
			if p.HueRotate != 0 {
				r, g, b = hueRotate(r, g, b, p.HueRotate)
			}
			if p.Saturation != 1 {
				r, g, b = saturate(r, g, b, p.Saturation)
			}
			if p.Contrast != 1 {
				r = (r-0.5)*p.Contrast + 0.5
				g = (g-0.5)*p.Contrast + 0.5
				b = (b-0.5)*p.Contrast + 0.5
			}
			if p.Brightness != 1 {
				r *= p.Brightness
				g *= p.Brightness
				b *= p.Brightness
			}

			pix[i] = clampByte(r)
			pix[i+1] = clampByte(g)
			pix[i+2] = clampByte(b)
			i += 4
		}
	}

	if p.BlurRadius > 0 {
		boxBlur(img, region, p.BlurRadius)
	}
}

func grayscale(r, g, b, amount float64) (float64, float64, float64) {
	luma := 0.2126*r + 0.7152*g + 0.0722*b
	return r + (luma-r)*amount, g + (luma-g)*amount, b + (luma-b)*amount
}

func sepia(r, g, b, amount float64) (float64, float64, float64) {
	sr := 0.393*r + 0.769*g + 0.189*b
	sg := 0.349*r + 0.686*g + 0.168*b
	sb := 0.272*r + 0.534*g + 0.131*b
	return r + (sr-r)*amount, g + (sg-g)*amount, b + (sb-b)*amount
}

func saturate(r, g, b, s float64) (float64, float64, float64) {
	nr := (0.213+0.787*s)*r + (0.715-0.715*s)*g + (0.072-0.072*s)*b
	ng := (0.213-0.213*s)*r + (0.715+0.285*s)*g + (0.072-0.072*s)*b
	nb := (0.213-0.213*s)*r + (0.715-0.715*s)*g + (0.072+0.928*s)*b
	return nr, ng, nb
}

func hueRotate(r, g, b, degrees float64) (float64, float64, float64) {
	rad := degrees * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	nr := (0.213+cos*0.787-sin*0.213)*r + (0.715-cos*0.715-sin*0.715)*g + (0.072-cos*0.072+sin*0.928)*b
	ng := (0.213-cos*0.213+sin*0.143)*r + (0.715+cos*0.285+sin*0.140)*g + (0.072-cos*0.072-sin*0.283)*b
	nb := (0.213-cos*0.213-sin*0.787)*r + (0.715-cos*0.715+sin*0.715)*g + (0.072+cos*0.928+sin*0.072)*b
	return nr, ng, nb
}

// boxBlur is a separable box blur over the region, one horizontal and one
// vertical pass. Samples clamp to the region so unfiltered pixels around it
// never bleed in.
func boxBlur(img *image.RGBA, region image.Rectangle, radius int) {
	region = region.Intersect(img.Bounds())
	if region.Empty() {
		return
	}
	tmp := image.NewRGBA(img.Bounds())

	blurAxis(img.Pix, tmp.Pix, region, img.Stride, radius, true)
	blurAxis(tmp.Pix, img.Pix, region, img.Stride, radius, false)
}

func blurAxis(src, dst []uint8, region image.Rectangle, stride, radius int, horizontal bool) {
	for y := region.Min.Y; y < region.Max.Y; y++ {
		for x := region.Min.X; x < region.Max.X; x++ {
			var r, g, b, a, n int
			for k := -radius; k <= radius; k++ {
				sx, sy := x, y
				if horizontal {
					sx += k
				} else {
					sy += k
				}
				if sx < region.Min.X || sx >= region.Max.X || sy < region.Min.Y || sy >= region.Max.Y {
					continue
				}
				off := sy*stride + sx*4
				r += int(src[off])
				g += int(src[off+1])
				b += int(src[off+2])
				a += int(src[off+3])
				n++
			}
			off := y*stride + x*4
			dst[off] = uint8(r / n)
			dst[off+1] = uint8(g / n)
			dst[off+2] = uint8(b / n)
			dst[off+3] = uint8(a / n)
		}
	}
}

// drawOverlay paints the headline and subtext centered on the overlay's
// percentage position. Sizes scale with canvas width against the 1920
// reference so overlays keep their proportions across aspect ratios.
func (c *Compositor) drawOverlay(dst *image.RGBA, ov timeline.Overlay) {
	fontSize := ov.TextSize * float64(c.width) / referenceWidth
	if fontSize <= 0 {
		return
	}
	x := ov.X / 100 * float64(c.width)
	y := ov.Y / 100 * float64(c.height)

	if ov.Text != "" {
		c.drawText(dst, strings.ToUpper(ov.Text), x, y, fontSize, true, ov.TextColor)
	}
	if ov.Subtext != "" {
		subSize := fontSize * 0.4
		c.drawText(dst, strings.ToUpper(ov.Subtext), x, y+fontSize*0.75, subSize, false, ov.SubtextColor)
	}
}

func (c *Compositor) drawText(dst *image.RGBA, text string, x, y, size float64, bold bool, hexColor string) {
	face := c.face(size, bold)
	if face == nil {
		return
	}

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(parseHexColor(hexColor)),
		Face: face,
	}
	width := d.MeasureString(text)
	d.Dot = fixed.Point26_6{
		X: fixed.Int26_6(x*64) - width/2,
		Y: fixed.Int26_6(y * 64),
	}
	d.DrawString(text)
}

func (c *Compositor) face(size float64, bold bool) font.Face {
	key := faceKey{size: size, bold: bold}
	if f, ok := c.faces[key]; ok {
		return f
	}
	src := c.regular
	if bold {
		src = c.bold
	}
	face, err := opentype.NewFace(src, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil
	}
	c.faces[key] = face
	return face
}

// parseHexColor reads #rgb and #rrggbb strings, falling back to white
func parseHexColor(s string) color.RGBA {
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")

	hexByte := func(str string) (uint8, bool) {
		var v uint8
		for _, ch := range str {
			var d uint8
			switch {
			case ch >= '0' && ch <= '9':
				d = uint8(ch - '0')
			case ch >= 'a' && ch <= 'f':
				d = uint8(ch-'a') + 10
			case ch >= 'A' && ch <= 'F':
				d = uint8(ch-'A') + 10
			default:
				return 0, false
			}
			v = v<<4 | d
		}
		return v, true
	}

	switch len(s) {
	case 3:
		r, ok1 := hexByte(s[0:1])
		g, ok2 := hexByte(s[1:2])
		b, ok3 := hexByte(s[2:3])
		if !ok1 || !ok2 || !ok3 {
			return white
		}
		return color.RGBA{R: r * 17, G: g * 17, B: b * 17, A: 255}
	case 6:
		r, ok1 := hexByte(s[0:2])
		g, ok2 := hexByte(s[2:4])
		b, ok3 := hexByte(s[4:6])
		if !ok1 || !ok2 || !ok3 {
			return white
		}
		return color.RGBA{R: r, G: g, B: b, A: 255}
	default:
		return white
	}
}

func clampByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
