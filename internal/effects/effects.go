// Package effects builds the per-slide ffmpeg filter graph that animates the
// card layer over the background.
package effects

import (
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// SegmentParams describes one slide segment.
type SegmentParams struct {
	Index    int
	Width    int
	Height   int
	FPS      int
	Duration float64
	Fade     float64
}

// Effect combines the background and card streams of a slide into a single
// frame-sized video stream.
type Effect interface {
	Apply(background, card *ffmpeg.Stream, p SegmentParams) *ffmpeg.Stream
}

// CardFade fades the card in from black and out to black while the
// background stays still, then centres the card on the background.
type CardFade struct{}

func (CardFade) Apply(background, card *ffmpeg.Stream, p SegmentParams) *ffmpeg.Stream {
	if fade := FadeLength(p.Duration, p.Fade); fade > 0 {
		card = card.
			Filter("fade", ffmpeg.Args{}, ffmpeg.KwArgs{"t": "in", "st": 0, "d": Seconds(fade)}).
			Filter("fade", ffmpeg.Args{}, ffmpeg.KwArgs{"t": "out", "st": Seconds(p.Duration - fade), "d": Seconds(fade)})
	}
	return ffmpeg.Filter([]*ffmpeg.Stream{background, card}, "overlay", ffmpeg.Args{"(W-w)/2", "(H-h)/2"}).
		Filter("scale", ffmpeg.Args{strconv.Itoa(p.Width), strconv.Itoa(p.Height)}).
		Filter("format", ffmpeg.Args{"yuv420p"})
}

// Static overlays the card without any animation.
type Static struct{}

func (Static) Apply(background, card *ffmpeg.Stream, p SegmentParams) *ffmpeg.Stream {
	return ffmpeg.Filter([]*ffmpeg.Stream{background, card}, "overlay", ffmpeg.Args{"(W-w)/2", "(H-h)/2"}).
		Filter("scale", ffmpeg.Args{strconv.Itoa(p.Width), strconv.Itoa(p.Height)}).
		Filter("format", ffmpeg.Args{"yuv420p"})
}

// ForTransition picks the slide effect for a cross-fade length.
func ForTransition(transition float64) Effect {
	if transition <= 0 {
		return Static{}
	}
	return CardFade{}
}

// FadeLength is the fade applied at each end of a slide. Fade-in and
// fade-out keep their full length on short slides and overlap; only a slide
// shorter than the fade clips it.
func FadeLength(duration, fade float64) float64 {
	if fade <= 0 || duration <= 0 {
		return 0
	}
	return min(fade, duration)
}

// Seconds formats a time value the way ffmpeg options expect it.
func Seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
