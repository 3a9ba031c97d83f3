package video

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/ivlev/reelcast/internal/config"
	"github.com/ivlev/reelcast/internal/timing"
)

func argAfter(args []string, flag string) string {
	i := slices.Index(args, flag)
	if i < 0 || i+1 >= len(args) {
		return ""
	}
	return args[i+1]
}

func TestAssembleArgsThreeSlidesTrim(t *testing.T) {
	p := config.Shorts()
	job := AssembleJob{
		Segments:   []string{"s0.mp4", "s1.mp4", "s2.mp4"},
		Offsets:    []float64{0, 2.5, 5.0},
		Transition: 0.6,
		Timeline:   8.1,
		Audio:      "voice.mp3",
		Binding:    timing.AudioBinding{Mode: timing.TrimToAudio, UseAudio: true, Duration: 9},
		Output:     "out/final.mp4",
	}
	args := buildAssembleArgs(job, p)
	graph := argAfter(args, "-filter_complex")

	for _, want := range []string{
		"[0:v][1:v]xfade=transition=fade:duration=0.600:offset=2.500[x1]",
		"[x1][2:v]xfade=transition=fade:duration=0.600:offset=5.000[x2]",
		"[x2]tpad=stop_mode=clone:stop_duration=0.900[vpad]",
		"[vpad]format=yuv420p[vout]",
		"[3:a]aresample=44100[aout]",
	} {
		if !strings.Contains(graph, want) {
			t.Errorf("graph missing %q\n%s", want, graph)
		}
	}
	if strings.Contains(graph, "apad") {
		t.Errorf("trim mode should not pad audio: %s", graph)
	}
	if got := argAfter(args, "-t"); got != "9.000" {
		t.Errorf("-t = %q", got)
	}
	if got := argAfter(args, "-c:a"); got != "aac" {
		t.Errorf("-c:a = %q", got)
	}
	if got := argAfter(args, "-r"); got != "20" {
		t.Errorf("-r = %q", got)
	}
	if got := argAfter(args, "-threads"); got != "2" {
		t.Errorf("-threads = %q", got)
	}
	if args[len(args)-1] != "out/final.mp4" {
		t.Errorf("output = %q", args[len(args)-1])
	}
}

func TestAssembleArgsSingleSlideNoAudio(t *testing.T) {
	p := config.Shorts()
	job := AssembleJob{
		Segments: []string{"s0.mp4"},
		Offsets:  []float64{0},
		Timeline: 2.5,
		Binding:  timing.AudioBinding{Mode: timing.PadAudio, Silence: 2.5, Duration: 2.5},
		Output:   "final.mp4",
	}
	args := buildAssembleArgs(job, p)
	graph := argAfter(args, "-filter_complex")

	if graph != "[0:v]format=yuv420p[vout]" {
		t.Errorf("graph = %q", graph)
	}
	if !slices.Contains(args, "-an") {
		t.Errorf("expected -an in %v", args)
	}
	if slices.Contains(args, "-c:a") || slices.Contains(args, "[aout]") {
		t.Errorf("unexpected audio args in %v", args)
	}
	if got := argAfter(args, "-t"); got != "2.500" {
		t.Errorf("-t = %q", got)
	}
}

func TestAssembleArgsPadAudio(t *testing.T) {
	p := config.HD()
	job := AssembleJob{
		Segments:   []string{"a.mp4", "b.mp4"},
		Offsets:    []float64{0, 2.4},
		Transition: 0.6,
		Timeline:   5.4,
		Audio:      "short.wav",
		Binding:    timing.AudioBinding{Mode: timing.PadAudio, UseAudio: true, Silence: 4, Duration: 6},
		Output:     "final.mp4",
	}
	args := buildAssembleArgs(job, p)
	graph := argAfter(args, "-filter_complex")

	if !strings.Contains(graph, "[2:a]aresample=44100,apad=pad_dur=4.000[aout]") {
		t.Errorf("graph = %s", graph)
	}
	if !strings.Contains(graph, "tpad=stop_mode=clone:stop_duration=0.600") {
		t.Errorf("missing tpad: %s", graph)
	}
	// The hd profile leaves the audio codec to ffmpeg.
	if slices.Contains(args, "-c:a") {
		t.Errorf("unexpected -c:a in %v", args)
	}
	if got := argAfter(args, "-r"); got != "24" {
		t.Errorf("-r = %q", got)
	}
}

func TestAssembleArgsCaptionOverlays(t *testing.T) {
	job := AssembleJob{
		Segments: []string{"s0.mp4"},
		Offsets:  []float64{0},
		Timeline: 5,
		Audio:    "a.mp3",
		Binding:  timing.AudioBinding{Mode: timing.TrimToAudio, UseAudio: true, Duration: 5},
		Overlays: []Overlay{
			{Path: "cap0.png", Y: 1000, Start: 0.5, End: 2},
			{Path: "cap1.png", Y: 1000, Start: 2, End: 4.25},
		},
		Output: "final.mp4",
	}
	args := buildAssembleArgs(job, config.Shorts())
	graph := argAfter(args, "-filter_complex")

	for _, want := range []string{
		"[0:v][1:v]overlay=x=(W-w)/2:y=1000:enable='between(t,0.500,2.000)'[c0]",
		"[c0][2:v]overlay=x=(W-w)/2:y=1000:enable='between(t,2.000,4.250)'[c1]",
		"[c1]format=yuv420p[vout]",
		"[3:a]aresample=44100[aout]",
	} {
		if !strings.Contains(graph, want) {
			t.Errorf("graph missing %q\n%s", want, graph)
		}
	}
	if strings.Contains(graph, "tpad") {
		t.Errorf("no tpad expected when timeline covers the output: %s", graph)
	}
}

func TestSlideArgs(t *testing.T) {
	e := NewFFmpegEncoder(config.Shorts(), nil)
	args := e.slideArgs(SlideJob{Background: "bg.png", Card: "card_000.png", Duration: 3.1, Output: "seg_000.mp4"})

	joined := strings.Join(args, " ")
	for _, want := range []string{"-loop 1", "bg.png", "card_000.png", "-filter_complex", "-t 3.100", "-c:v libx264", "-preset fast", "-y"} {
		if !strings.Contains(joined, want) {
			t.Errorf("slide args missing %q: %s", want, joined)
		}
	}
	if !slices.Contains(args, "seg_000.mp4") {
		t.Errorf("output missing: %v", args)
	}
}

func TestEncodeSlideHonoursContext(t *testing.T) {
	e := NewFFmpegEncoder(config.Shorts(), nil)
	e.Binary = filepath.Join(t.TempDir(), "no-such-ffmpeg")
	job := SlideJob{Background: "bg.png", Card: "card_000.png", Duration: 1, Output: filepath.Join(t.TempDir(), "seg.mp4")}

	err := e.EncodeSlide(context.Background(), job)
	if err == nil || !strings.Contains(err.Error(), "encode slide 1") {
		t.Fatalf("missing binary: err = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := e.EncodeSlide(ctx, job); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled: err = %v, want context.Canceled", err)
	}
}

func TestAssembleFailsWithoutSegments(t *testing.T) {
	e := NewFFmpegEncoder(config.Shorts(), nil)
	if err := e.Assemble(context.Background(), AssembleJob{Output: "x.mp4"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestAssembleCreatesOutputDir(t *testing.T) {
	e := NewFFmpegEncoder(config.Shorts(), nil)
	e.Binary = filepath.Join(t.TempDir(), "no-such-ffmpeg")
	out := filepath.Join(t.TempDir(), "nested", "dir", "final.mp4")

	err := e.Assemble(context.Background(), AssembleJob{
		Segments: []string{"s0.mp4"},
		Offsets:  []float64{0},
		Binding:  timing.AudioBinding{Duration: 1},
		Output:   out,
	})
	if err == nil {
		t.Fatal("expected error from missing binary")
	}
	if fi, statErr := os.Stat(filepath.Dir(out)); statErr != nil || !fi.IsDir() {
		t.Errorf("output dir not created: %v", statErr)
	}
}

func TestTailBuffer(t *testing.T) {
	tb := &tailBuffer{max: 5}
	tb.Write([]byte("abc"))
	tb.Write([]byte("defgh"))
	if got := tb.String(); got != "defgh" {
		t.Errorf("tail = %q", got)
	}
}
