package captions

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ivlev/reelcast/internal/config"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

const srtWithBOM = "\ufeff1\n00:00:01,000 --> 00:00:02,500\nHello there\nsecond line\n\n2\n00:00:03,000 --> 00:00:04,000\nBye\n"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseFileSRTWithBOM(t *testing.T) {
	path := writeFile(t, t.TempDir(), "subs.srt", srtWithBOM)
	cues, err := ParseFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(cues) != 2 {
		t.Fatalf("got %d cues", len(cues))
	}
	if cues[0].Start != time.Second || cues[0].End != 2500*time.Millisecond {
		t.Errorf("cue 0 timing %v-%v", cues[0].Start, cues[0].End)
	}
	if cues[0].Text != "Hello there\nsecond line" {
		t.Errorf("cue 0 text %q", cues[0].Text)
	}
	if cues[1].Text != "Bye" {
		t.Errorf("cue 1 text %q", cues[1].Text)
	}
}

func TestParseFileWebVTT(t *testing.T) {
	vtt := "WEBVTT\n\n00:00:00.500 --> 00:00:01.750\nFirst\n\n00:00:02.000 --> 00:00:03.000\nSecond\n"
	path := writeFile(t, t.TempDir(), "subs.vtt", vtt)
	cues, err := ParseFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(cues) != 2 || cues[0].Text != "First" || cues[0].Start != 500*time.Millisecond {
		t.Errorf("cues = %+v", cues)
	}
}

func TestParseFileErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := ParseFile(writeFile(t, dir, "subs.txt", "x")); err == nil {
		t.Error("expected unsupported format error")
	}
	if _, err := ParseFile(filepath.Join(dir, "missing.srt")); err == nil {
		t.Error("expected missing file error")
	}
}

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	p := config.Shorts()
	r, err := NewRenderer("", p.Captions, p.Width, p.Height)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestWrapLines(t *testing.T) {
	r := newTestRenderer(t)
	text := strings.Repeat("caption words wrap ", 12)
	lines := wrapLines(r.face, text, r.textW)
	if len(lines) < 2 {
		t.Fatalf("expected wrapping, got %d line(s)", len(lines))
	}
	for _, line := range lines {
		if w := font.MeasureString(r.face, line); w > fixed.I(r.textW) {
			t.Errorf("line %q is %d px wide, limit %d", line, w.Ceil(), r.textW)
		}
	}

	long := strings.Repeat("x", 200)
	if got := wrapLines(r.face, long, r.textW); len(got) != 1 || got[0] != long {
		t.Errorf("long word split: %v", got)
	}
	if got := wrapLines(r.face, "a\n ", r.textW); len(got) != 2 || got[1] != " " {
		t.Errorf("blank trailing line lost: %q", got)
	}
}

func TestPanelGeometry(t *testing.T) {
	r := newTestRenderer(t)
	s := config.Shorts().Captions

	one := r.Panel("Hello")
	if w := one.Bounds().Dx(); w != 648+2*s.PadX {
		t.Errorf("panel width %d", w)
	}
	wantH := 2*r.lineH + 2*s.StrokeWidth + 2*s.PadY
	if h := one.Bounds().Dy(); h != wantH {
		t.Errorf("panel height %d, want %d", h, wantH)
	}
	// Trailing whitespace does not add lines.
	if h := r.Panel("Hello \n\n").Bounds().Dy(); h != wantH {
		t.Errorf("padded panel height %d, want %d", h, wantH)
	}
	if h := r.Panel("Hello\nWorld").Bounds().Dy(); h != wantH+r.lineH {
		t.Errorf("two line panel height %d", h)
	}

	if got := one.RGBAAt(0, 0).A; got != 140 {
		t.Errorf("panel alpha %d, want 140", got)
	}
}

func TestTopUsesProbe(t *testing.T) {
	r := newTestRenderer(t)
	probeH := r.Panel(config.Shorts().Captions.ProbeText).Bounds().Dy()
	if r.Top() != 1280-160-probeH {
		t.Errorf("Top = %d, want %d", r.Top(), 1280-160-probeH)
	}
}

func TestNewRendererFont(t *testing.T) {
	p := config.Shorts()
	dir := t.TempDir()

	r, err := NewRenderer(filepath.Join(dir, "missing.ttf"), p.Captions, p.Width, p.Height)
	if err != nil {
		t.Fatal(err)
	}
	if !r.FontFallback {
		t.Error("expected font fallback")
	}
	r.Close()

	bad := writeFile(t, dir, "bad.ttf", "not a font")
	if _, err := NewRenderer(bad, p.Captions, p.Width, p.Height); err == nil {
		t.Error("expected error for invalid font")
	}
}

func TestRenderAll(t *testing.T) {
	r := newTestRenderer(t)
	dir := t.TempDir()
	cues := []Cue{
		{Start: time.Second, End: 2 * time.Second, Text: "one"},
		{Start: 2 * time.Second, End: 3 * time.Second, Text: "two"},
	}
	rendered, err := r.RenderAll(cues, dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(rendered) != 2 {
		t.Fatalf("rendered %d", len(rendered))
	}
	for i, rc := range rendered {
		if _, err := os.Stat(rc.Path); err != nil {
			t.Errorf("cue %d not written: %v", i, err)
		}
		if rc.Y != r.Top() || rc.Start != cues[i].Start {
			t.Errorf("cue %d = %+v", i, rc)
		}
	}
}

func TestShadowMaskSpreads(t *testing.T) {
	src := image.NewAlpha(image.Rect(0, 0, 9, 9))
	src.SetAlpha(4, 4, color.Alpha{A: 255})

	blurred := shadowMask(src, 1)
	alphaAt := func(x, y int) uint32 {
		_, _, _, a := blurred.At(x, y).RGBA()
		return a >> 8
	}
	if alphaAt(3, 4) == 0 {
		t.Error("blur did not spread")
	}
	if alphaAt(4, 4) == 255 {
		t.Error("blur did not soften the centre")
	}
	if alphaAt(0, 0) != 0 {
		t.Error("blur reached the far corner")
	}
	if shadowMask(src, 0) != image.Image(src) {
		t.Error("zero sigma should return the mask unchanged")
	}
}
