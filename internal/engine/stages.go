package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ivlev/reelcast/internal/captions"
	"github.com/ivlev/reelcast/internal/compose"
	"github.com/ivlev/reelcast/internal/config"
	"github.com/ivlev/reelcast/internal/timing"
	"github.com/ivlev/reelcast/internal/video"
	"golang.org/x/sync/errgroup"
)

// composeSlides rasterises every card and encodes one segment per slide.
func (p *Project) composeSlides(ctx context.Context, pl timing.Plan, scratch string) ([]string, error) {
	prof := p.Profile
	dir, err := mkdir(scratch, "slides")
	if err != nil {
		return nil, err
	}

	fill, _ := config.ParseHexColor(prof.BackgroundColor)
	border, _ := config.ParseHexColor(prof.BorderColor)

	bgPath := prof.BackgroundPath(p.Inputs.AssetsDir)
	bg, err := compose.Background(bgPath, prof.Width, prof.Height, fill)
	if err != nil {
		p.Logger.Warn("background unreadable, using solid colour", "path", bgPath, "error", err)
		bg, _ = compose.Background("", prof.Width, prof.Height, fill)
	}
	background := filepath.Join(dir, "background.png")
	if err := compose.WritePNG(background, bg); err != nil {
		return nil, err
	}

	layout := compose.NewLayout(prof)
	segments := make([]string, len(pl.Slides))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, p.Workers))
	for i, slide := range pl.Slides {
		g.Go(func() error {
			img, err := compose.LoadImage(slide.Path)
			if err != nil {
				return fmt.Errorf("slide %d: %w", i+1, err)
			}
			card := filepath.Join(dir, fmt.Sprintf("card_%03d.png", i))
			if err := compose.WritePNG(card, compose.Card(img, layout, border)); err != nil {
				return fmt.Errorf("slide %d: %w", i+1, err)
			}
			segment := filepath.Join(dir, fmt.Sprintf("segment_%03d.mp4", i))
			job := video.SlideJob{
				Index:      i,
				Background: background,
				Card:       card,
				Duration:   slide.Duration,
				Output:     segment,
			}
			if err := p.Encoder.EncodeSlide(gctx, job); err != nil {
				return err
			}
			segments[i] = segment
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return segments, nil
}

// captionOverlays renders the caption panels. Tolerant profiles log a
// failure and continue without captions; strict ones return it.
func (p *Project) captionOverlays(duration float64, scratch string, log *slog.Logger) ([]video.Overlay, error) {
	path := p.Inputs.CaptionsPath
	switch {
	case path == "":
		return nil, nil
	case p.Profile.SkipCaptions:
		log.Info("captions skipped by configuration", "path", path)
		return nil, nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		log.Debug("captions file not found, ignoring", "path", path)
		return nil, nil
	}

	overlays, err := p.renderCaptions(path, duration, scratch, log)
	if err != nil {
		if p.Profile.StrictCaptions {
			return nil, err
		}
		log.Warn("captions failed, continuing without them", "path", path, "error", err)
		p.Metrics.IncFallback("captions")
		return nil, nil
	}
	return overlays, nil
}

func (p *Project) renderCaptions(path string, duration float64, scratch string, log *slog.Logger) ([]video.Overlay, error) {
	cues, err := p.ParseCaptions(path)
	if err != nil {
		return nil, err
	}
	dir, err := mkdir(scratch, "captions")
	if err != nil {
		return nil, err
	}

	prof := p.Profile
	r, err := captions.NewRenderer(prof.FontPath(p.Inputs.AssetsDir), prof.Captions, prof.Width, prof.Height)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	if r.FontFallback {
		log.Warn("caption font not found, using built-in font", "font", prof.FontPath(p.Inputs.AssetsDir))
	}

	rendered, err := r.RenderAll(visibleCues(cues, duration), dir)
	if err != nil {
		return nil, err
	}
	overlays := make([]video.Overlay, len(rendered))
	for i, rc := range rendered {
		overlays[i] = video.Overlay{
			Path:  rc.Path,
			Y:     rc.Y,
			Start: rc.Start.Seconds(),
			End:   rc.End.Seconds(),
		}
	}
	return overlays, nil
}

// visibleCues drops cues starting after the output ends and clips the rest.
func visibleCues(cues []captions.Cue, duration float64) []captions.Cue {
	out := make([]captions.Cue, 0, len(cues))
	for _, c := range cues {
		if c.Start.Seconds() >= duration {
			continue
		}
		if c.End.Seconds() > duration {
			c.End = secondsToDuration(duration)
		}
		out = append(out, c)
	}
	return out
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
