// Package engine runs the render pipeline: collect, normalize, plan,
// compose, bind audio, overlay captions and encode.
package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/ivlev/reelcast/internal/captions"
	"github.com/ivlev/reelcast/internal/config"
	"github.com/ivlev/reelcast/internal/metrics"
	"github.com/ivlev/reelcast/internal/normalize"
	"github.com/ivlev/reelcast/internal/plan"
	"github.com/ivlev/reelcast/internal/source"
	"github.com/ivlev/reelcast/internal/system"
	"github.com/ivlev/reelcast/internal/timing"
	"github.com/ivlev/reelcast/internal/video"
)

// ErrOutputLocked is returned when another render holds the output lock.
var ErrOutputLocked = errors.New("output is locked by another render")

// Prober reads the duration of a media file in seconds.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Inputs are the files of one render.
type Inputs struct {
	ImagesDir    string
	AudioPath    string
	OutputPath   string
	CaptionsPath string
	AssetsDir    string
	PlanOut      string
	MetricsFile  string
}

// Result summarises a finished render.
type Result struct {
	RunID          string
	Slides         int
	PerSlide       float64
	Duration       float64
	Mode           timing.FitMode
	UsedAudio      bool
	Captions       int
	ImageFallbacks int
	Plan           plan.Document
}

type Project struct {
	Profile config.Profile
	Inputs  Inputs
	Encoder video.Encoder
	Prober  Prober
	// ParseCaptions loads caption cues; replaced in tests.
	ParseCaptions func(path string) ([]captions.Cue, error)
	Metrics       *metrics.Metrics
	Logger        *slog.Logger
	Workers       int
	// TempRoot is the parent of the scratch directory; empty uses the
	// system default.
	TempRoot string
}

func NewProject(p config.Profile, in Inputs, logger *slog.Logger) *Project {
	return &Project{
		Profile:       p,
		Inputs:        in,
		Encoder:       video.NewFFmpegEncoder(p, logger),
		Prober:        system.FFprobe{},
		ParseCaptions: captions.ParseFile,
		Metrics:       metrics.New(),
		Logger:        logger,
		Workers:       system.Workers(p.Threads),
	}
}

// Run renders the video. The scratch directory is removed on every path.
func (p *Project) Run(ctx context.Context) (res Result, err error) {
	res.RunID = uuid.NewString()
	log := p.Logger.With("run_id", res.RunID, "profile", p.Profile.Name)
	started := time.Now()

	defer func() {
		p.Metrics.SetSuccess(err == nil)
		p.Metrics.ObserveStage("total", started)
		if p.Inputs.MetricsFile == "" {
			return
		}
		if werr := p.Metrics.WriteTextfile(p.Inputs.MetricsFile); werr != nil {
			log.Warn("write metrics", "path", p.Inputs.MetricsFile, "error", werr)
		}
	}()

	if err := p.Profile.Validate(); err != nil {
		return res, fmt.Errorf("profile: %w", err)
	}

	// 1. Collect.
	stage := time.Now()
	src, err := source.Open(p.Inputs.ImagesDir, p.Profile.MaxImages)
	if err != nil {
		return res, fmt.Errorf("collect: %w", err)
	}
	defer src.Close()
	if err := checkAudioFile(p.Inputs.AudioPath); err != nil {
		return res, err
	}
	p.Metrics.ObserveStage("collect", stage)

	unlock, err := lockOutput(p.Inputs.OutputPath)
	if err != nil {
		return res, err
	}
	defer unlock()

	scratch, err := os.MkdirTemp(p.TempRoot, "reelcast-"+res.RunID+"-")
	if err != nil {
		return res, fmt.Errorf("scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)
	log.Debug("scratch dir", "path", scratch)

	pagesDir, err := mkdir(scratch, "pages")
	if err != nil {
		return res, err
	}
	paths, err := source.Materialize(src, p.Profile.PDFDPI, pagesDir)
	if err != nil {
		return res, fmt.Errorf("collect: %w", err)
	}
	log.Info("images collected", "count", len(paths), "source", p.Inputs.ImagesDir)
	logPageSizes(ctx, log, src)

	// 2. Normalize.
	stage = time.Now()
	paths, res.ImageFallbacks, err = p.normalize(ctx, paths, scratch)
	if err != nil {
		return res, fmt.Errorf("normalize: %w", err)
	}
	p.Metrics.ObserveStage("normalize", stage)

	// 3. Plan.
	pl, err := p.plan(ctx, paths, log)
	if err != nil {
		return res, err
	}
	log.Info("timing planned", "slides", len(pl.Slides), "per_slide", pl.PerSlide,
		"timeline", pl.TimelineDuration(), "mode", pl.Mode)

	// 4. Compose.
	stage = time.Now()
	segments, err := p.composeSlides(ctx, pl, scratch)
	if err != nil {
		return res, fmt.Errorf("compose: %w", err)
	}
	p.Metrics.ObserveStage("compose", stage)

	// 5-6. Sequence and bind audio.
	binding, err := timing.Bind(pl)
	if err != nil {
		return res, fmt.Errorf("audio: %w", err)
	}
	res.Plan = plan.FromTiming(pl, binding, p.Profile.Name)
	if p.Inputs.PlanOut != "" {
		if err := plan.Write(res.Plan, p.Inputs.PlanOut); err != nil {
			return res, fmt.Errorf("write plan: %w", err)
		}
	}

	// 7. Captions.
	stage = time.Now()
	overlays, err := p.captionOverlays(binding.Duration, scratch, log)
	if err != nil {
		return res, fmt.Errorf("captions: %w", err)
	}
	p.Metrics.ObserveStage("captions", stage)

	// 8. Encode.
	stage = time.Now()
	job := video.AssembleJob{
		Segments:   segments,
		Offsets:    pl.Offsets(),
		Transition: pl.Transition,
		Timeline:   pl.TimelineDuration(),
		Audio:      pl.AudioPath,
		Binding:    binding,
		Overlays:   overlays,
		Output:     p.Inputs.OutputPath,
	}
	if err := p.Encoder.Assemble(ctx, job); err != nil {
		return res, fmt.Errorf("encode: %w", err)
	}
	p.Metrics.ObserveStage("encode", stage)

	res.Slides = len(pl.Slides)
	res.PerSlide = pl.PerSlide
	res.Duration = binding.Duration
	res.Mode = binding.Mode
	res.UsedAudio = binding.UseAudio
	res.Captions = len(overlays)
	p.Metrics.SetSlides(res.Slides)
	p.Metrics.SetOutputDuration(res.Duration)

	log.Info("render finished", "output", p.Inputs.OutputPath, "duration", res.Duration,
		"slides", res.Slides, "captions", res.Captions, "elapsed", time.Since(started).Round(time.Millisecond))
	return res, nil
}

// Plan computes the schedule without rendering anything.
func (p *Project) Plan(ctx context.Context) (plan.Document, error) {
	if err := p.Profile.Validate(); err != nil {
		return plan.Document{}, fmt.Errorf("profile: %w", err)
	}
	src, err := source.Open(p.Inputs.ImagesDir, p.Profile.MaxImages)
	if err != nil {
		return plan.Document{}, fmt.Errorf("collect: %w", err)
	}
	defer src.Close()
	if err := checkAudioFile(p.Inputs.AudioPath); err != nil {
		return plan.Document{}, err
	}

	pl, err := p.plan(ctx, source.Labels(src), p.Logger)
	if err != nil {
		return plan.Document{}, err
	}
	binding, err := timing.Bind(pl)
	if err != nil {
		return plan.Document{}, fmt.Errorf("audio: %w", err)
	}
	return plan.FromTiming(pl, binding, p.Profile.Name), nil
}

func (p *Project) plan(ctx context.Context, paths []string, log *slog.Logger) (timing.Plan, error) {
	raw, probeErr := p.Prober.Duration(ctx, p.Inputs.AudioPath)
	duration, err := timing.CheckAudio(raw, probeErr, p.Profile)
	if err != nil {
		return timing.Plan{}, fmt.Errorf("audio %s: %w", p.Inputs.AudioPath, err)
	}
	if probeErr != nil || duration == 0 {
		log.Warn("audio unusable, rendering silent slideshow",
			"audio", p.Inputs.AudioPath, "duration", raw, "error", probeErr)
		p.Metrics.IncFallback("audio")
	}
	return timing.PlanSlides(paths, p.Inputs.AudioPath, duration, p.Profile), nil
}

func (p *Project) normalize(ctx context.Context, paths []string, scratch string) ([]string, int, error) {
	if !p.Profile.Normalize {
		return paths, 0, nil
	}
	dir, err := mkdir(scratch, "normalized")
	if err != nil {
		return nil, 0, err
	}
	maxW, maxH := p.Profile.ContentBox()
	n := normalize.New(normalize.Options{
		MaxWidth:       maxW,
		MaxHeight:      maxH,
		Quality:        p.Profile.JPEGQuality,
		ReuseUnchanged: p.Profile.ReuseUnchanged,
		Workers:        p.Workers,
	}, p.Logger)
	outcomes, err := n.Run(ctx, paths, dir)
	if err != nil {
		return nil, 0, err
	}
	fallbacks := normalize.Fallbacks(outcomes)
	for range fallbacks {
		p.Metrics.IncFallback("image")
	}
	return normalize.Paths(outcomes), fallbacks, nil
}

func logPageSizes(ctx context.Context, log *slog.Logger, src source.Source) {
	if !log.Enabled(ctx, slog.LevelDebug) {
		return
	}
	for i := range src.PageCount() {
		w, h, err := src.GetPageDimensions(i)
		if err != nil {
			log.Debug("page size unknown", "page", src.Label(i), "error", err)
			continue
		}
		log.Debug("page", "page", src.Label(i), "width", w, "height", h)
	}
}

func checkAudioFile(path string) error {
	if path == "" {
		return fmt.Errorf("audio: no path given: %w", fs.ErrNotExist)
	}
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("audio: %w", err)
	}
	if fi.IsDir() {
		return fmt.Errorf("audio %s is a directory: %w", path, fs.ErrNotExist)
	}
	return nil
}

// LockPath is the lock file guarding output. It lives in the system temp
// dir so the output directory is only created by a render that gets as far
// as encoding.
func LockPath(output string) string {
	if abs, err := filepath.Abs(output); err == nil {
		output = abs
	}
	sum := sha256.Sum256([]byte(output))
	return filepath.Join(os.TempDir(), "reelcast-"+hex.EncodeToString(sum[:8])+".lock")
}

// lockOutput takes an exclusive lock on output so two renders never write
// the same video. The lock file is left in place after unlocking.
func lockOutput(output string) (func(), error) {
	if output == "" {
		return nil, errors.New("output path is empty")
	}
	lockPath := LockPath(output)
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", lockPath, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", output, ErrOutputLocked)
	}
	return func() { lock.Unlock() }, nil
}

func mkdir(parent, name string) (string, error) {
	dir := filepath.Join(parent, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}
