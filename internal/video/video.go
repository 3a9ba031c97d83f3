package video

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ivlev/reelcast/internal/config"
	"github.com/ivlev/reelcast/internal/effects"
	"github.com/ivlev/reelcast/internal/timing"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// SlideJob is one still slide to encode into a segment.
type SlideJob struct {
	Index      int
	Background string
	Card       string
	Duration   float64
	Output     string
}

// Overlay is a rendered caption panel shown between Start and End.
type Overlay struct {
	Path  string
	Y     int
	Start float64
	End   float64
}

// AssembleJob joins segments into the final video.
type AssembleJob struct {
	Segments   []string
	Offsets    []float64 // timeline start of every segment
	Transition float64
	Timeline   float64
	Audio      string
	Binding    timing.AudioBinding
	Overlays   []Overlay
	Output     string
}

type Encoder interface {
	EncodeSlide(ctx context.Context, job SlideJob) error
	Assemble(ctx context.Context, job AssembleJob) error
}

type FFmpegEncoder struct {
	Profile config.Profile
	Effect  effects.Effect
	Binary  string
	Logger  *slog.Logger
}

func NewFFmpegEncoder(p config.Profile, logger *slog.Logger) *FFmpegEncoder {
	return &FFmpegEncoder{
		Profile: p,
		Effect:  effects.ForTransition(p.Transition),
		Binary:  "ffmpeg",
		Logger:  logger,
	}
}

func (e *FFmpegEncoder) EncodeSlide(ctx context.Context, job SlideJob) error {
	stderr := &tailBuffer{max: 4096}
	stream := e.slideStream(ctx, job).
		SetFfmpegPath(e.binary()).
		WithErrorOutput(stderr).
		Silent(true)
	if e.Logger != nil {
		e.Logger.Debug("ffmpeg", "slide", job.Index+1, "args", strings.Join(stream.GetArgs(), " "))
	}
	if err := ffmpegError(ctx, stream.Run(), stderr); err != nil {
		return fmt.Errorf("encode slide %d: %w", job.Index+1, err)
	}
	return nil
}

func (e *FFmpegEncoder) slideArgs(job SlideJob) []string {
	return e.slideStream(context.Background(), job).GetArgs()
}

// slideStream builds the ffmpeg graph of one segment, bound to ctx.
func (e *FFmpegEncoder) slideStream(ctx context.Context, job SlideJob) *ffmpeg.Stream {
	p := e.Profile
	d := effects.Seconds(job.Duration)
	in := ffmpeg.KwArgs{"loop": 1, "t": d, "framerate": p.FPS}

	bg := ffmpeg.Input(job.Background, in)
	card := ffmpeg.Input(job.Card, in)
	params := effects.SegmentParams{
		Index:    job.Index,
		Width:    p.Width,
		Height:   p.Height,
		FPS:      p.FPS,
		Duration: job.Duration,
		Fade:     p.Transition,
	}

	composed := e.Effect.Apply(bg, card, params)
	return ffmpeg.OutputContext(ctx, []*ffmpeg.Stream{composed}, job.Output, ffmpeg.KwArgs{
		"t":       d,
		"r":       p.FPS,
		"c:v":     p.VideoCodec,
		"preset":  p.Preset,
		"crf":     p.SegmentCRF,
		"pix_fmt": "yuv420p",
		"threads": p.Threads,
	}).OverWriteOutput()
}

// Assemble cross-fades the segments, attaches audio and captions and writes
// the output in a single ffmpeg pass.
func (e *FFmpegEncoder) Assemble(ctx context.Context, job AssembleJob) error {
	if len(job.Segments) == 0 {
		return fmt.Errorf("assemble: no segments")
	}
	if dir := filepath.Dir(job.Output); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("assemble: %w", err)
		}
	}
	if err := e.run(ctx, buildAssembleArgs(job, e.Profile)); err != nil {
		return fmt.Errorf("assemble: %w", err)
	}
	return nil
}

func buildAssembleArgs(job AssembleJob, p config.Profile) []string {
	args := []string{"-y"}
	for _, seg := range job.Segments {
		args = append(args, "-i", seg)
	}
	overlayBase := len(job.Segments)
	for _, o := range job.Overlays {
		args = append(args, "-i", o.Path)
	}
	useAudio := job.Binding.UseAudio && job.Audio != ""
	audioIndex := overlayBase + len(job.Overlays)
	if useAudio {
		args = append(args, "-i", job.Audio)
	}

	var graph []string
	last := "[0:v]"

	// 1. Cross-fades.
	for i := 1; i < len(job.Segments); i++ {
		offset := job.Offsets[i]
		out := fmt.Sprintf("[x%d]", i)
		graph = append(graph, fmt.Sprintf("%s[%d:v]xfade=transition=fade:duration=%s:offset=%s%s",
			last, i, effects.Seconds(job.Transition), effects.Seconds(offset), out))
		last = out
	}

	// 2. Hold the last frame when the audio outlasts the slides.
	if gap := job.Binding.Duration - job.Timeline; gap > 0.001 {
		graph = append(graph, fmt.Sprintf("%stpad=stop_mode=clone:stop_duration=%s[vpad]", last, effects.Seconds(gap)))
		last = "[vpad]"
	}

	// 3. Captions.
	for j, o := range job.Overlays {
		out := fmt.Sprintf("[c%d]", j)
		graph = append(graph, fmt.Sprintf("%s[%d:v]overlay=x=(W-w)/2:y=%d:enable='between(t,%s,%s)'%s",
			last, overlayBase+j, o.Y, effects.Seconds(o.Start), effects.Seconds(o.End), out))
		last = out
	}
	graph = append(graph, last+"format=yuv420p[vout]")

	// 4. Audio.
	if useAudio {
		chain := fmt.Sprintf("[%d:a]aresample=%d", audioIndex, p.SilenceSampleRate)
		if job.Binding.Silence > 0 {
			chain += ",apad=pad_dur=" + effects.Seconds(job.Binding.Silence)
		}
		graph = append(graph, chain+"[aout]")
	}

	args = append(args, "-filter_complex", strings.Join(graph, ";"), "-map", "[vout]")
	if useAudio {
		args = append(args, "-map", "[aout]")
	}
	args = append(args,
		"-t", effects.Seconds(job.Binding.Duration),
		"-r", strconv.Itoa(p.FPS),
		"-c:v", p.VideoCodec,
		"-preset", p.Preset,
		"-threads", strconv.Itoa(p.Threads),
		"-pix_fmt", "yuv420p",
	)
	switch {
	case !useAudio:
		args = append(args, "-an")
	case p.AudioCodec != "":
		args = append(args, "-c:a", p.AudioCodec)
	}
	return append(args, job.Output)
}

func (e *FFmpegEncoder) binary() string {
	if e.Binary == "" {
		return "ffmpeg"
	}
	return e.Binary
}

func (e *FFmpegEncoder) run(ctx context.Context, args []string) error {
	if e.Logger != nil {
		e.Logger.Debug("ffmpeg", "args", strings.Join(args, " "))
	}
	stderr := &tailBuffer{max: 4096}
	cmd := exec.CommandContext(ctx, e.binary(), args...)
	cmd.Stderr = stderr
	return ffmpegError(ctx, cmd.Run(), stderr)
}

// ffmpegError attaches the stderr tail to a failed run. A cancelled run
// reports the context error instead.
func ffmpegError(ctx context.Context, err error, stderr *tailBuffer) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("ffmpeg: %w: %s", err, strings.TrimSpace(stderr.String()))
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	max int
	buf []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	return string(t.buf)
}
