// Package timing plans slide durations against the narration length and
// decides how the audio track is fitted to the resulting timeline.
package timing

import (
	"errors"
	"fmt"
	"math"

	"github.com/ivlev/reelcast/internal/config"
)

// FitMode selects how audio and timeline lengths are reconciled.
type FitMode string

const (
	// TrimToAudio forces the output to the audio length.
	TrimToAudio FitMode = "trim_to_audio"
	// PadAudio appends silence when the slideshow outlasts the audio.
	PadAudio FitMode = "pad_audio"
)

var (
	ErrUnknownFitMode = errors.New("unknown audio fit mode")
	ErrUnusableAudio  = errors.New("audio duration is unusable")
)

// ParseFitMode accepts the two known mode names.
func ParseFitMode(s string) (FitMode, error) {
	switch m := FitMode(s); m {
	case TrimToAudio, PadAudio:
		return m, nil
	default:
		return "", fmt.Errorf("%w %q (expected %q or %q)", ErrUnknownFitMode, s, TrimToAudio, PadAudio)
	}
}

// Slide is one image on the timeline.
type Slide struct {
	Index    int
	Path     string
	Duration float64
}

// Plan is the uniform per-slide schedule for one render.
type Plan struct {
	Slides        []Slide
	PerSlide      float64
	Transition    float64
	Mode          FitMode
	AudioPath     string // empty when the render is silent
	AudioDuration float64
}

// SlideshowTotal is the sum of slide durations, before cross-fade overlap.
func (p Plan) SlideshowTotal() float64 {
	total := 0.0
	for _, s := range p.Slides {
		total += s.Duration
	}
	return total
}

// TimelineDuration is the length of the concatenated slides: every
// cross-fade overlaps two neighbours by Transition seconds.
func (p Plan) TimelineDuration() float64 {
	n := len(p.Slides)
	if n == 0 {
		return 0
	}
	return p.SlideshowTotal() - p.Transition*float64(n-1)
}

// Offsets returns the timeline start of every slide.
func (p Plan) Offsets() []float64 {
	offsets := make([]float64, len(p.Slides))
	at := 0.0
	for i, s := range p.Slides {
		offsets[i] = at
		at += s.Duration - p.Transition
	}
	return offsets
}

// Usable reports whether an audio duration can drive the schedule.
func Usable(duration, min float64) bool {
	return !math.IsNaN(duration) && !math.IsInf(duration, 0) && duration > min
}

// CheckAudio turns a probe result into a duration the planner can use.
// Strict profiles fail with ErrUnusableAudio; tolerant ones return 0 so the
// planner falls back to the default slide length.
func CheckAudio(duration float64, probeErr error, p config.Profile) (float64, error) {
	if probeErr == nil && Usable(duration, p.AudioUsableMin) {
		return duration, nil
	}
	if p.StrictAudio {
		if probeErr != nil {
			return 0, fmt.Errorf("%w: %w", ErrUnusableAudio, probeErr)
		}
		return 0, fmt.Errorf("%w: %v", ErrUnusableAudio, duration)
	}
	return 0, nil
}

// PerSlide computes the uniform slide length. The second result is false
// when the audio duration was unusable and the fallback length applied.
func PerSlide(audioDuration float64, n int, p config.Profile) (float64, bool) {
	floor := p.Transition + p.MinSlideMargin
	if n > 0 && Usable(audioDuration, p.AudioUsableMin) {
		// Epsilon keeps trimmed output from ending short of the audio
		// after the encoder rounds cross-fade offsets.
		return math.Max(audioDuration/float64(n)+p.Epsilon, floor), true
	}
	return math.Max(p.FallbackSlide, floor), false
}

// PlanSlides builds the schedule for paths. With unusable audio the mode
// switches to PadAudio and the audio source is dropped.
func PlanSlides(paths []string, audioPath string, audioDuration float64, p config.Profile) Plan {
	per, usable := PerSlide(audioDuration, len(paths), p)

	plan := Plan{
		PerSlide:      per,
		Transition:    p.Transition,
		Mode:          TrimToAudio,
		AudioPath:     audioPath,
		AudioDuration: audioDuration,
	}
	if p.Mode != "" {
		plan.Mode = FitMode(p.Mode)
	}
	if !usable {
		plan.Mode = PadAudio
		plan.AudioPath = ""
		plan.AudioDuration = 0
	}

	plan.Slides = make([]Slide, len(paths))
	for i, path := range paths {
		plan.Slides[i] = Slide{Index: i, Path: path, Duration: per}
	}
	return plan
}
