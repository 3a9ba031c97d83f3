package captions

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/disintegration/imaging"
	"github.com/ivlev/reelcast/internal/config"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// RenderedCue is a caption panel written to disk.
type RenderedCue struct {
	Path   string
	Start  time.Duration
	End    time.Duration
	Width  int
	Height int
	Y      int
}

// Renderer draws caption panels for one frame size.
type Renderer struct {
	face   font.Face
	style  config.Captions
	frameH int
	textW  int
	lineH  int
	ascent int
	top    int

	// FontFallback is set when the configured font was missing and the
	// built-in Go font is used instead.
	FontFallback bool
}

// NewRenderer loads the caption font. A missing font file falls back to
// Go Regular; an unreadable or invalid one is an error.
func NewRenderer(fontPath string, style config.Captions, frameW, frameH int) (*Renderer, error) {
	data, fallback, err := fontData(fontPath)
	if err != nil {
		return nil, err
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", fontPath, err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    style.FontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("font face: %w", err)
	}

	m := face.Metrics()
	r := &Renderer{
		face:         face,
		style:        style,
		frameH:       frameH,
		textW:        max(1, int(float64(frameW)*style.WidthRatio)),
		lineH:        m.Height.Ceil(),
		ascent:       m.Ascent.Ceil(),
		FontFallback: fallback,
	}
	probe := r.Panel(style.ProbeText)
	r.top = frameH - style.BottomMargin - probe.Bounds().Dy()
	return r, nil
}

func fontData(path string) ([]byte, bool, error) {
	if path == "" {
		return goregular.TTF, true, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return goregular.TTF, true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read font: %w", err)
	}
	return data, false, nil
}

func (r *Renderer) Close() error {
	return r.face.Close()
}

// Top is the panel's vertical position, shared by every cue so captions
// do not jump between lines of different height.
func (r *Renderer) Top() int {
	return r.top
}

// Panel renders text on a translucent black box. A blank line is appended
// so descenders on the last line are never clipped.
func (r *Renderer) Panel(text string) *image.RGBA {
	s := r.style
	padded := strings.TrimRightFunc(text, unicode.IsSpace) + "\n "
	lines := wrapLines(r.face, padded, r.textW)

	stroke := max(0, s.StrokeWidth)
	textH := len(lines)*r.lineH + 2*stroke
	boxW := r.textW + 2*s.PadX
	boxH := textH + 2*s.PadY

	panel := image.NewRGBA(image.Rect(0, 0, boxW, boxH))
	fill := color.NRGBA{A: alpha(s.BoxOpacity)}
	draw.Draw(panel, panel.Bounds(), image.NewUniform(fill), image.Point{}, draw.Src)

	glyphs := image.NewAlpha(image.Rect(0, 0, r.textW, textH))
	r.drawLines(glyphs, lines, 0, stroke)

	origin := image.Pt(s.PadX, s.PadY)
	textRect := glyphs.Bounds().Add(origin)

	shadow := shadowMask(glyphs, s.ShadowBlur)
	shadowRect := textRect.Add(image.Pt(s.ShadowOffsetX, s.ShadowOffsetY))
	draw.DrawMask(panel, shadowRect, image.NewUniform(color.NRGBA{A: alpha(s.ShadowAlpha)}),
		image.Point{}, shadow, image.Point{}, draw.Over)

	if stroke > 0 {
		outline := image.NewAlpha(glyphs.Bounds())
		for dy := -stroke; dy <= stroke; dy++ {
			for dx := -stroke; dx <= stroke; dx++ {
				if dx*dx+dy*dy > stroke*stroke {
					continue
				}
				r.drawLines(outline, lines, dx, stroke+dy)
			}
		}
		draw.DrawMask(panel, textRect, image.Black, image.Point{}, outline, image.Point{}, draw.Over)
	}
	draw.DrawMask(panel, textRect, image.White, image.Point{}, glyphs, image.Point{}, draw.Over)
	return panel
}

// drawLines draws centred lines into mask, shifted by dx and starting at
// top.
func (r *Renderer) drawLines(mask *image.Alpha, lines []string, dx, top int) {
	d := &font.Drawer{Dst: mask, Src: image.Opaque, Face: r.face}
	for i, line := range lines {
		adv := d.MeasureString(line).Ceil()
		x := (r.textW-adv)/2 + dx
		y := top + i*r.lineH + r.ascent
		d.Dot = fixed.P(x, y)
		d.DrawString(line)
	}
}

// RenderAll writes one PNG per cue into dir.
func (r *Renderer) RenderAll(cues []Cue, dir string) ([]RenderedCue, error) {
	out := make([]RenderedCue, 0, len(cues))
	for i, c := range cues {
		panel := r.Panel(c.Text)
		path := filepath.Join(dir, fmt.Sprintf("caption_%03d.png", i))
		if err := writePNG(path, panel); err != nil {
			return nil, fmt.Errorf("caption %d: %w", i+1, err)
		}
		out = append(out, RenderedCue{
			Path:   path,
			Start:  c.Start,
			End:    c.End,
			Width:  panel.Bounds().Dx(),
			Height: panel.Bounds().Dy(),
			Y:      r.top,
		})
	}
	return out, nil
}

// wrapLines breaks text into lines no wider than maxW. Explicit newlines
// are kept; a single word wider than maxW gets a line of its own.
func wrapLines(face font.Face, text string, maxW int) []string {
	var lines []string
	limit := fixed.I(maxW)
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, para)
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			candidate := line + " " + w
			if font.MeasureString(face, candidate) <= limit {
				line = candidate
				continue
			}
			lines = append(lines, line)
			line = w
		}
		lines = append(lines, line)
	}
	return lines
}

// shadowMask softens the glyph mask with a Gaussian blur of the given
// sigma in pixels.
func shadowMask(glyphs *image.Alpha, sigma int) image.Image {
	if sigma <= 0 {
		return glyphs
	}
	return imaging.Blur(glyphs, float64(sigma))
}

func alpha(opacity float64) uint8 {
	return uint8(math.Round(255 * math.Max(0, math.Min(1, opacity))))
}

func writePNG(path string, img image.Image) error {
	return imaging.Save(img, path, imaging.PNGCompressionLevel(png.BestSpeed))
}
