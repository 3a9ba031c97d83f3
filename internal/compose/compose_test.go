package compose

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/ivlev/reelcast/internal/config"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// similar tolerates resampling rounding.
func similar(a, b color.RGBA) bool {
	d := func(x, y uint8) int {
		if x > y {
			return int(x - y)
		}
		return int(y - x)
	}
	return d(a.R, b.R) <= 2 && d(a.G, b.G) <= 2 && d(a.B, b.B) <= 2 && d(a.A, b.A) <= 2
}

func TestLayoutShorts(t *testing.T) {
	l := NewLayout(config.Shorts())
	if l.BoxW != 619 || l.InnerW != 587 {
		t.Fatalf("layout = %+v", l)
	}
	w, h := l.CardSize(100, 50)
	if w != 619 || h != 326 {
		t.Errorf("CardSize = %dx%d, want 619x326", w, h)
	}

	// Small images are scaled up to the inner width.
	if got := l.ScaledHeight(10, 10); got != 587 {
		t.Errorf("ScaledHeight(10,10) = %d", got)
	}
}

func TestLayoutTinyFrame(t *testing.T) {
	p := config.Shorts()
	p.Width = 20
	l := NewLayout(p)
	if l.InnerW != 1 {
		t.Errorf("InnerW = %d, want 1", l.InnerW)
	}
}

func TestCardBorderAndContent(t *testing.T) {
	l := NewLayout(config.Shorts())
	border := color.RGBA{R: 240, G: 240, B: 240, A: 255}
	red := color.RGBA{R: 255, A: 255}

	card := Card(solid(100, 50, red), l, border)
	if b := card.Bounds(); b.Dx() != 619 || b.Dy() != 326 {
		t.Fatalf("card bounds %v", b)
	}
	if got := card.RGBAAt(2, 2); got != border {
		t.Errorf("corner = %v, want border", got)
	}
	if got := card.RGBAAt(309, 163); !similar(got, red) {
		t.Errorf("centre = %v, want image colour", got)
	}
}

func TestCardTallIsCropped(t *testing.T) {
	l := NewLayout(config.Shorts())
	red := color.RGBA{R: 255, A: 255}
	card := Card(solid(100, 1000, red), l, color.White)
	if b := card.Bounds(); b.Dx() != 619 || b.Dy() != 1280 {
		t.Fatalf("card bounds %v", b)
	}
	// The top border is cropped away, so the first row is image.
	if got := card.RGBAAt(300, 0); !similar(got, red) {
		t.Errorf("top row = %v, want image colour", got)
	}
	if w, h := l.CardSize(100, 1000); w != 619 || h != 1280 {
		t.Errorf("CardSize = %dx%d", w, h)
	}
}

func TestBackgroundFallsBackToFill(t *testing.T) {
	fill := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	bg, err := Background(filepath.Join(t.TempDir(), "background.png"), 72, 128, fill)
	if err != nil {
		t.Fatal(err)
	}
	if bg.RGBAAt(10, 10) != fill {
		t.Errorf("expected solid fill")
	}

	bg, err = Background("", 4, 4, fill)
	if err != nil || bg.Bounds().Dx() != 4 {
		t.Errorf("empty path: %v %v", bg.Bounds(), err)
	}
}

func TestBackgroundStretchesImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bg.png")
	blue := color.RGBA{B: 255, A: 255}
	if err := WritePNG(path, solid(10, 10, blue)); err != nil {
		t.Fatal(err)
	}
	bg, err := Background(path, 72, 128, color.White)
	if err != nil {
		t.Fatal(err)
	}
	if b := bg.Bounds(); b.Dx() != 72 || b.Dy() != 128 {
		t.Fatalf("bounds %v", b)
	}
	if got := bg.RGBAAt(36, 64); !similar(got, blue) {
		t.Errorf("centre = %v, want %v", got, blue)
	}

	loaded, err := LoadImage(path)
	if err != nil || loaded.Bounds().Dx() != 10 {
		t.Errorf("LoadImage: %v", err)
	}
}
