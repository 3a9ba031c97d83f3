// Package compose rasterises the still layers of a slide: the full-frame
// background and the bordered card holding the slide image.
package compose

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io/fs"
	"math"
	"os"

	"github.com/ivlev/reelcast/internal/config"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Layout is the card geometry for one frame size.
type Layout struct {
	FrameW int
	FrameH int
	BoxW   int
	InnerW int
	Border int
}

func NewLayout(p config.Profile) Layout {
	boxW := int(float64(p.Width) * p.ContentScale)
	return Layout{
		FrameW: p.Width,
		FrameH: p.Height,
		BoxW:   boxW,
		InnerW: max(1, boxW-2*p.BorderPx),
		Border: p.BorderPx,
	}
}

// ScaledHeight is the height of an imgW x imgH image scaled to InnerW wide.
func (l Layout) ScaledHeight(imgW, imgH int) int {
	if imgW <= 0 {
		return 1
	}
	return max(1, int(math.Round(float64(imgH)*float64(l.InnerW)/float64(imgW))))
}

// CardSize returns the card dimensions for an image, after clipping to the
// frame height.
func (l Layout) CardSize(imgW, imgH int) (int, int) {
	h := l.ScaledHeight(imgW, imgH) + 2*l.Border
	return l.BoxW, min(h, l.FrameH)
}

// Card draws img scaled to the layout's inner width inside a solid border.
// Cards taller than the frame are cropped around their centre.
func Card(img image.Image, l Layout, border color.Color) *image.RGBA {
	b := img.Bounds()
	scaledH := l.ScaledHeight(b.Dx(), b.Dy())
	fullH := scaledH + 2*l.Border
	cardW, cardH := l.CardSize(b.Dx(), b.Dy())

	card := image.NewRGBA(image.Rect(0, 0, l.BoxW, fullH))
	draw.Draw(card, card.Bounds(), image.NewUniform(border), image.Point{}, draw.Src)
	inner := image.Rect(l.Border, l.Border, l.Border+l.InnerW, l.Border+scaledH)
	draw.CatmullRom.Scale(card, inner, img, b, draw.Over, nil)

	if fullH == cardH {
		return card
	}
	top := (fullH - cardH) / 2
	cropped := image.NewRGBA(image.Rect(0, 0, cardW, cardH))
	draw.Draw(cropped, cropped.Bounds(), card, image.Pt(0, top), draw.Src)
	return cropped
}

// Background returns the frame-sized backdrop. The image at path is
// stretched to w x h; a missing or empty path yields a solid fill.
func Background(path string, w, h int, fill color.Color) (*image.RGBA, error) {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if path != "" {
		img, err := LoadImage(path)
		switch {
		case err == nil:
			draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
			return dst, nil
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("background %s: %w", path, err)
		}
	}
	draw.Draw(dst, dst.Bounds(), image.NewUniform(fill), image.Point{}, draw.Src)
	return dst, nil
}

func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
