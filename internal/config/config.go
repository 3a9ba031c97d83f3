package config

import (
	"fmt"
	"image/color"
	"path/filepath"
	"strings"
)

// Captions holds the caption panel styling.
type Captions struct {
	FontFile      string  `yaml:"font_file" toml:"font_file"` // relative to the assets dir
	FontSize      float64 `yaml:"font_size" toml:"font_size"`
	PadX          int     `yaml:"pad_x" toml:"pad_x"`
	PadY          int     `yaml:"pad_y" toml:"pad_y"`
	BoxOpacity    float64 `yaml:"box_opacity" toml:"box_opacity"`
	StrokeWidth   int     `yaml:"stroke_width" toml:"stroke_width"`
	ShadowOffsetX int     `yaml:"shadow_offset_x" toml:"shadow_offset_x"`
	ShadowOffsetY int     `yaml:"shadow_offset_y" toml:"shadow_offset_y"`
	ShadowAlpha   float64 `yaml:"shadow_alpha" toml:"shadow_alpha"`
	ShadowBlur    int     `yaml:"shadow_blur" toml:"shadow_blur"`
	BottomMargin  int     `yaml:"bottom_margin" toml:"bottom_margin"`
	WidthRatio    float64 `yaml:"width_ratio" toml:"width_ratio"`
	ProbeText     string  `yaml:"probe_text" toml:"probe_text"`
}

// Profile is the render configuration. It is passed by value into every
// stage and is never mutated once a render has started.
type Profile struct {
	Name string `yaml:"name" toml:"name"`

	Width     int `yaml:"width" toml:"width"`
	Height    int `yaml:"height" toml:"height"`
	FPS       int `yaml:"fps" toml:"fps"`
	Threads   int `yaml:"threads" toml:"threads"`
	MaxImages int `yaml:"max_images" toml:"max_images"` // 0 disables the cap

	Transition     float64 `yaml:"transition" toml:"transition"`
	Epsilon        float64 `yaml:"epsilon" toml:"epsilon"`
	MinSlideMargin float64 `yaml:"min_slide_margin" toml:"min_slide_margin"`
	FallbackSlide  float64 `yaml:"fallback_slide" toml:"fallback_slide"`
	AudioUsableMin float64 `yaml:"audio_usable_min" toml:"audio_usable_min"`
	Mode           string  `yaml:"mode" toml:"mode"`

	ContentScale    float64 `yaml:"content_scale" toml:"content_scale"`
	BorderPx        int     `yaml:"border_px" toml:"border_px"`
	BorderColor     string  `yaml:"border_color" toml:"border_color"`
	BackgroundColor string  `yaml:"background_color" toml:"background_color"`
	BackgroundFile  string  `yaml:"background_file" toml:"background_file"` // relative to the assets dir
	JPEGQuality     int     `yaml:"jpeg_quality" toml:"jpeg_quality"`
	PDFDPI          int     `yaml:"pdf_dpi" toml:"pdf_dpi"`

	VideoCodec        string `yaml:"video_codec" toml:"video_codec"`
	AudioCodec        string `yaml:"audio_codec" toml:"audio_codec"` // empty leaves the choice to ffmpeg
	Preset            string `yaml:"preset" toml:"preset"`
	SegmentCRF        int    `yaml:"segment_crf" toml:"segment_crf"`
	SilenceSampleRate int    `yaml:"silence_sample_rate" toml:"silence_sample_rate"`

	Normalize      bool `yaml:"normalize" toml:"normalize"`
	ReuseUnchanged bool `yaml:"reuse_unchanged" toml:"reuse_unchanged"`
	StrictAudio    bool `yaml:"strict_audio" toml:"strict_audio"`
	StrictCaptions bool `yaml:"strict_captions" toml:"strict_captions"`
	EnvOverrides   bool `yaml:"env_overrides" toml:"env_overrides"`
	SkipCaptions   bool `yaml:"skip_captions" toml:"skip_captions"`

	Captions Captions `yaml:"captions" toml:"captions"`
}

// ContentBox returns the largest image size that fits inside the bordered card.
func (p Profile) ContentBox() (int, int) {
	w := int(float64(p.Width)*p.ContentScale) - 2*p.BorderPx
	h := int(float64(p.Height)*p.ContentScale) - 2*p.BorderPx
	return w, h
}

// BackgroundPath resolves the background image inside assetsDir, or "" when
// no assets dir is configured.
func (p Profile) BackgroundPath(assetsDir string) string {
	if assetsDir == "" || p.BackgroundFile == "" {
		return ""
	}
	return filepath.Join(assetsDir, p.BackgroundFile)
}

// FontPath resolves the caption font inside assetsDir.
func (p Profile) FontPath(assetsDir string) string {
	if assetsDir == "" || p.Captions.FontFile == "" {
		return ""
	}
	return filepath.Join(assetsDir, p.Captions.FontFile)
}

// ParseHexColor parses "#RRGGBB" or "RRGGBB".
func ParseHexColor(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q: expected #RRGGBB", s)
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
}
