// Package normalize shrinks oversized slide images into scratch JPEGs so the
// compositor never handles more pixels than the card can show.
package normalize

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/png"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

// Options configures a Normalizer.
type Options struct {
	MaxWidth  int
	MaxHeight int
	Quality   int
	// ReuseUnchanged keeps the original file when neither a resize nor an
	// orientation fix was needed.
	ReuseUnchanged bool
	Workers        int
}

// Outcome is the per-image result. Path is always usable: on failure it is
// the original source.
type Outcome struct {
	Source   string
	Path     string
	Resized  bool
	Reused   bool
	Fallback bool
	Err      error
}

type Normalizer struct {
	opts   Options
	logger *slog.Logger
}

func New(opts Options, logger *slog.Logger) *Normalizer {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Quality <= 0 {
		opts.Quality = 85
	}
	return &Normalizer{opts: opts, logger: logger}
}

// Run normalizes paths into dir, preserving order. Per-image failures are
// reported in the outcome; the error is only set when ctx is cancelled.
func (n *Normalizer) Run(ctx context.Context, paths []string, dir string) ([]Outcome, error) {
	outcomes := make([]Outcome, len(paths))
	if n.opts.MaxWidth <= 0 || n.opts.MaxHeight <= 0 {
		for i, p := range paths {
			outcomes[i] = Outcome{Source: p, Path: p, Reused: true}
		}
		return outcomes, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n.opts.Workers)
	for i, src := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			dst := filepath.Join(dir, fmt.Sprintf("%03d.jpg", i))
			outcomes[i] = n.normalizeOne(src, dst)
			if outcomes[i].Fallback {
				n.logger.Warn("image normalization failed, using original",
					"image", src, "error", outcomes[i].Err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// Paths extracts the usable path of every outcome.
func Paths(outcomes []Outcome) []string {
	out := make([]string, len(outcomes))
	for i, o := range outcomes {
		out[i] = o.Path
	}
	return out
}

// Fallbacks counts outcomes that fell back to the source file.
func Fallbacks(outcomes []Outcome) int {
	count := 0
	for _, o := range outcomes {
		if o.Fallback {
			count++
		}
	}
	return count
}

func (n *Normalizer) normalizeOne(src, dst string) Outcome {
	out := Outcome{Source: src, Path: src}

	data, err := os.ReadFile(src)
	if err != nil {
		out.Fallback, out.Err = true, err
		return out
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		out.Fallback, out.Err = true, fmt.Errorf("decode: %w", err)
		return out
	}
	orientation := readOrientation(data)

	fitted, resized := Fit(img, n.opts.MaxWidth, n.opts.MaxHeight)
	if !resized && orientation == 1 && n.opts.ReuseUnchanged {
		out.Reused = true
		return out
	}

	if err := writeJPEG(dst, flatten(fitted), n.opts.Quality); err != nil {
		out.Fallback, out.Err = true, fmt.Errorf("encode: %w", err)
		return out
	}
	out.Path = dst
	out.Resized = resized
	return out
}

// FitSize returns the largest size with the aspect ratio of w x h that fits
// in maxW x maxH. Images that already fit are never enlarged.
func FitSize(w, h, maxW, maxH int) (int, int, bool) {
	if w <= maxW && h <= maxH {
		return w, h, false
	}
	scale := math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	nw := max(1, int(math.Round(float64(w)*scale)))
	nh := max(1, int(math.Round(float64(h)*scale)))
	return nw, nh, true
}

// Fit downscales img to fit the box; the second result is false when img
// was returned untouched.
func Fit(img image.Image, maxW, maxH int) (image.Image, bool) {
	b := img.Bounds()
	nw, nh, resized := FitSize(b.Dx(), b.Dy(), maxW, maxH)
	if !resized {
		return img, false
	}
	return imaging.Resize(img, nw, nh, imaging.Lanczos), true
}

// flatten drops transparency by compositing over white.
func flatten(img image.Image) *image.NRGBA {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Point{}, 1)
}

func writeJPEG(path string, img image.Image, quality int) error {
	if err := imaging.Save(img, path, imaging.JPEGQuality(quality)); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}

// readOrientation returns the EXIF orientation tag, or 1 when absent. The
// decoder already applies it; the value only tells whether the original
// file displays upright as stored.
func readOrientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return 1
	}
	return v
}
