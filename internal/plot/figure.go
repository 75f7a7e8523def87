package plot

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/transform"
	gfx "github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/starfinder-mcp/internal/detection"
	"github.com/ironsheep/starfinder-mcp/internal/imaging"
)

// Canvas layout in pixels.
const (
	marginSide = 40
	titleBand  = 70
	titleScale = 3
)

// Layer is a set of circles drawn over the image with one style.
type Layer struct {
	Circles []detection.Aperture
	Style   OverlayStyle
}

// Figure describes a single image plot with overlays.
type Figure struct {
	Title   string
	Options DisplayOptions
	Image   *imaging.Plane
	Layers  []Layer
}

// NewFigure starts an empty figure with the given display options.
func NewFigure(title string, opts DisplayOptions) *Figure {
	return &Figure{Title: title, Options: opts}
}

// ImShow sets the plane shown by the figure. The plane is read during
// Render and never modified.
func (f *Figure) ImShow(p *imaging.Plane) {
	f.Image = p
}

// Overlay adds the apertures as unfilled circles.
func (f *Figure) Overlay(set *detection.ApertureSet, style OverlayStyle) {
	layer := Layer{Style: style}
	if set != nil {
		layer.Circles = set.Apertures
	}
	f.Layers = append(f.Layers, layer)
}

// CircleCount returns the number of circles across all layers.
func (f *Figure) CircleCount() int {
	n := 0
	for _, l := range f.Layers {
		n += len(l.Circles)
	}
	return n
}

// Frame maps data coordinates onto the canvas.
type Frame struct {
	// Plot is the canvas rectangle covered by the image.
	Plot image.Rectangle

	// ScaleX and ScaleY are canvas pixels per data pixel.
	ScaleX float64
	ScaleY float64

	width, height int
	lower         bool
}

// newFrame fits a width x height image into the canvas below the title
// band, keeping square data pixels.
func newFrame(opts DisplayOptions, width, height int) Frame {
	areaW := opts.CanvasSize - 2*marginSide
	areaH := opts.CanvasSize - titleBand - marginSide

	s := math.Min(float64(areaW)/float64(width), float64(areaH)/float64(height))
	plotW := int(math.Max(1, math.Round(float64(width)*s)))
	plotH := int(math.Max(1, math.Round(float64(height)*s)))

	x0 := marginSide + (areaW-plotW)/2
	y0 := titleBand + (areaH-plotH)/2
	return Frame{
		Plot:   image.Rect(x0, y0, x0+plotW, y0+plotH),
		ScaleX: float64(plotW) / float64(width),
		ScaleY: float64(plotH) / float64(height),
		width:  width,
		height: height,
		lower:  opts.Origin == "lower",
	}
}

// ToCanvas converts a data position to canvas coordinates.
func (fr Frame) ToCanvas(x, y float64) (float64, float64) {
	cx := float64(fr.Plot.Min.X) + (x+0.5)*fr.ScaleX
	if fr.lower {
		return cx, float64(fr.Plot.Min.Y) + (float64(fr.height)-(y+0.5))*fr.ScaleY
	}
	return cx, float64(fr.Plot.Min.Y) + (y+0.5)*fr.ScaleY
}

// Layout returns the frame a figure would be drawn with.
func (f *Figure) Layout() (Frame, error) {
	if f.Image == nil {
		return Frame{}, fmt.Errorf("figure has no image")
	}
	if err := f.Options.Validate(); err != nil {
		return Frame{}, err
	}
	return newFrame(f.Options, f.Image.Width, f.Image.Height), nil
}

// Render draws the figure onto a new square canvas.
func (f *Figure) Render() (*image.NRGBA, error) {
	frame, err := f.Layout()
	if err != nil {
		return nil, err
	}

	styles := make([]colorful.Color, len(f.Layers))
	for i, l := range f.Layers {
		c, err := l.Style.validate()
		if err != nil {
			return nil, err
		}
		styles[i] = c
	}

	size := f.Options.CanvasSize
	canvas := gfx.New(size, size, color.White)

	raster := f.raster()
	scaled := transform.Resize(raster, frame.Plot.Dx(), frame.Plot.Dy(), transform.NearestNeighbor)
	canvas = gfx.Paste(canvas, scaled, frame.Plot.Min)

	drawFrame(canvas, frame.Plot.Inset(-1))

	for i, l := range f.Layers {
		for _, a := range l.Circles {
			strokeCircle(canvas, frame, a, l.Style, styles[i])
		}
	}

	if f.Title != "" {
		canvas = drawTitle(canvas, f.Title)
	}
	return canvas, nil
}

// raster maps the plane through the colormap at one canvas pixel per data
// pixel, in display orientation.
func (f *Figure) raster() *image.NRGBA {
	p := f.Image
	img := image.NewNRGBA(image.Rect(0, 0, p.Width, p.Height))
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			img.SetNRGBA(x, y, f.Options.Color(p.At(x, y)))
		}
	}
	if f.Options.Origin == "lower" {
		return gfx.FlipV(img)
	}
	return img
}

// drawFrame outlines r with one-pixel black axes lines.
func drawFrame(canvas *image.NRGBA, r image.Rectangle) {
	black := color.NRGBA{A: 255}
	for x := r.Min.X; x < r.Max.X; x++ {
		canvas.SetNRGBA(x, r.Min.Y, black)
		canvas.SetNRGBA(x, r.Max.Y-1, black)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		canvas.SetNRGBA(r.Min.X, y, black)
		canvas.SetNRGBA(r.Max.X-1, y, black)
	}
}

// strokeCircle draws an antialiased circle outline, clipped to the plot
// area.
func strokeCircle(canvas *image.NRGBA, frame Frame, a detection.Aperture, style OverlayStyle, c colorful.Color) {
	cx, cy := frame.ToCanvas(a.X, a.Y)
	rx := a.R * frame.ScaleX
	half := style.LineWidth / 2

	x1, y1, x2, y2 := a.Bounds()
	ax, ay := frame.ToCanvas(x1, y1)
	bx, by := frame.ToCanvas(x2, y2)
	pad := half + 1
	bounds := image.Rect(
		int(math.Floor(math.Min(ax, bx)-pad)), int(math.Floor(math.Min(ay, by)-pad)),
		int(math.Ceil(math.Max(ax, bx)+pad))+1, int(math.Ceil(math.Max(ay, by)+pad))+1,
	).Intersect(frame.Plot)

	for py := bounds.Min.Y; py < bounds.Max.Y; py++ {
		for px := bounds.Min.X; px < bounds.Max.X; px++ {
			d := math.Hypot(float64(px)+0.5-cx, float64(py)+0.5-cy)
			coverage := half + 0.5 - math.Abs(d-rx)
			if coverage <= 0 {
				continue
			}
			if coverage > 1 {
				coverage = 1
			}
			blend(canvas, px, py, c, coverage*style.Alpha)
		}
	}
}

func blend(canvas *image.NRGBA, x, y int, c colorful.Color, alpha float64) {
	under, _ := colorful.MakeColor(canvas.NRGBAAt(x, y))
	r, g, b := under.BlendRgb(c, alpha).Clamped().RGB255()
	canvas.SetNRGBA(x, y, color.NRGBA{R: r, G: g, B: b, A: 255})
}

// drawTitle renders text centred in the title band, enlarged from the 7x13
// bitmap face.
func drawTitle(canvas *image.NRGBA, text string) *image.NRGBA {
	face := basicfont.Face7x13
	w := font.MeasureString(face, text).Ceil()
	h := face.Height

	glyphs := image.NewNRGBA(image.Rect(0, 0, w, h))
	d := &font.Drawer{
		Dst:  glyphs,
		Src:  image.NewUniform(color.Black),
		Face: face,
		Dot:  fixed.Point26_6{X: 0, Y: fixed.I(face.Ascent)},
	}
	d.DrawString(text)

	big := gfx.Resize(glyphs, w*titleScale, h*titleScale, gfx.NearestNeighbor)
	pos := image.Pt((canvas.Bounds().Dx()-big.Bounds().Dx())/2, (titleBand-big.Bounds().Dy())/2)
	return gfx.Overlay(canvas, big, pos, 1.0)
}
