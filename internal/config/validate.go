package config

import (
	"errors"
	"fmt"
)

// Validate reports every invalid field at once. The audio fit mode is not
// checked here; it is rejected where it is used.
func (p Profile) Validate() error {
	var errs []error
	if p.Width <= 0 || p.Height <= 0 {
		errs = append(errs, fmt.Errorf("resolution %dx%d must be positive", p.Width, p.Height))
	} else if p.Width%2 != 0 || p.Height%2 != 0 {
		errs = append(errs, fmt.Errorf("resolution %dx%d must be even for yuv420p", p.Width, p.Height))
	}
	if p.FPS <= 0 {
		errs = append(errs, fmt.Errorf("fps %d must be positive", p.FPS))
	}
	if p.Threads <= 0 {
		errs = append(errs, fmt.Errorf("threads %d must be positive", p.Threads))
	}
	if p.MaxImages < 0 {
		errs = append(errs, fmt.Errorf("max_images %d must not be negative", p.MaxImages))
	}
	if p.Transition < 0 {
		errs = append(errs, fmt.Errorf("transition %.3f must not be negative", p.Transition))
	}
	if p.FallbackSlide <= 0 {
		errs = append(errs, fmt.Errorf("fallback_slide %.3f must be positive", p.FallbackSlide))
	}
	if p.ContentScale <= 0 || p.ContentScale > 1 {
		errs = append(errs, fmt.Errorf("content_scale %.3f must be in (0, 1]", p.ContentScale))
	}
	if p.BorderPx < 0 {
		errs = append(errs, fmt.Errorf("border_px %d must not be negative", p.BorderPx))
	}
	if p.JPEGQuality < 1 || p.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("jpeg_quality %d must be in [1, 100]", p.JPEGQuality))
	}
	if p.VideoCodec == "" {
		errs = append(errs, errors.New("video_codec must be set"))
	}
	if p.SilenceSampleRate <= 0 {
		errs = append(errs, fmt.Errorf("silence_sample_rate %d must be positive", p.SilenceSampleRate))
	}
	if _, err := ParseHexColor(p.BorderColor); err != nil {
		errs = append(errs, fmt.Errorf("border_color: %w", err))
	}
	if _, err := ParseHexColor(p.BackgroundColor); err != nil {
		errs = append(errs, fmt.Errorf("background_color: %w", err))
	}
	c := p.Captions
	if c.FontSize <= 0 {
		errs = append(errs, fmt.Errorf("captions.font_size %.1f must be positive", c.FontSize))
	}
	if c.WidthRatio <= 0 || c.WidthRatio > 1 {
		errs = append(errs, fmt.Errorf("captions.width_ratio %.3f must be in (0, 1]", c.WidthRatio))
	}
	if c.BoxOpacity < 0 || c.BoxOpacity > 1 || c.ShadowAlpha < 0 || c.ShadowAlpha > 1 {
		errs = append(errs, errors.New("captions opacities must be in [0, 1]"))
	}
	return errors.Join(errs...)
}
