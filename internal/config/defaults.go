package config

import (
	"fmt"
	"sort"
	"strings"
)

const (
	ProfileShorts = "shorts"
	ProfileHD     = "hd"
)

func defaultCaptions() Captions {
	return Captions{
		FontFile:      "fonts/Poppins-Medium.ttf",
		FontSize:      44,
		PadX:          36,
		PadY:          18,
		BoxOpacity:    0.55,
		StrokeWidth:   4,
		ShadowOffsetX: 3,
		ShadowOffsetY: 3,
		ShadowAlpha:   0.35,
		ShadowBlur:    2,
		BottomMargin:  160,
		WidthRatio:    0.90,
		ProbeText:     "gypqj\n ",
	}
}

// Shorts is the 720x1280 profile. It tolerates unreadable audio and caption
// failures, caps the image count and honours MAX_IMAGES / SKIP_CAPTIONS.
func Shorts() Profile {
	return Profile{
		Name:              ProfileShorts,
		Width:             720,
		Height:            1280,
		FPS:               20,
		Threads:           2,
		MaxImages:         10,
		Transition:        0.6,
		Epsilon:           0.10,
		MinSlideMargin:    0.2,
		FallbackSlide:     2.5,
		AudioUsableMin:    0.01,
		Mode:              "trim_to_audio",
		ContentScale:      0.86,
		BorderPx:          16,
		BorderColor:       "#F0F0F0",
		BackgroundColor:   "#FFFFFF",
		BackgroundFile:    "background.png",
		JPEGQuality:       85,
		PDFDPI:            150,
		VideoCodec:        "libx264",
		AudioCodec:        "aac",
		Preset:            "fast",
		SegmentCRF:        18,
		SilenceSampleRate: 44100,
		Normalize:         true,
		ReuseUnchanged:    false,
		StrictAudio:       false,
		StrictCaptions:    false,
		EnvOverrides:      true,
		Captions:          defaultCaptions(),
	}
}

// HD is the 1080x1920 profile. Every image is used, unreadable audio and
// caption failures abort the render, and unchanged images are not re-encoded.
func HD() Profile {
	p := Shorts()
	p.Name = ProfileHD
	p.Width = 1080
	p.Height = 1920
	p.FPS = 24
	p.Threads = 4
	p.MaxImages = 0
	p.AudioCodec = ""
	p.ReuseUnchanged = true
	p.StrictAudio = true
	p.StrictCaptions = true
	p.EnvOverrides = false
	return p
}

var builtin = map[string]func() Profile{
	ProfileShorts: Shorts,
	ProfileHD:     HD,
}

// Lookup returns a built-in profile by name. An empty name selects shorts.
func Lookup(name string) (Profile, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = ProfileShorts
	}
	fn, ok := builtin[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown profile %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return fn(), nil
}

// Names lists the built-in profile names in sorted order.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
