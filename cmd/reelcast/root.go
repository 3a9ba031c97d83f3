package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ivlev/reelcast/internal/config"
	"github.com/ivlev/reelcast/internal/engine"
	"github.com/ivlev/reelcast/internal/logging"
	"github.com/spf13/cobra"
)

type globalOptions struct {
	profile     string
	profileFile string
	envFile     string
	logLevel    string
	logFormat   string
	workers     int
}

// inputFlags are shared by the render and plan commands.
type inputFlags struct {
	imagesDir    string
	audioPath    string
	outputPath   string
	captionsPath string
	assetsDir    string
	planOut      string
	metricsFile  string
}

func (f *inputFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.imagesDir, "images-dir", "", "Directory of slide images, or a PDF file")
	flags.StringVar(&f.audioPath, "audio-path", "", "Narration audio file")
	flags.StringVar(&f.captionsPath, "captions-path", "", "Optional SRT or WebVTT captions")
	flags.StringVar(&f.assetsDir, "assets-dir", "assets", "Directory holding background.png and fonts/")
	flags.StringVar(&f.planOut, "plan-out", "", "Write the timing plan as YAML to this path")
	_ = cmd.MarkFlagRequired("images-dir")
	_ = cmd.MarkFlagRequired("audio-path")
}

func (f *inputFlags) inputs() engine.Inputs {
	return engine.Inputs{
		ImagesDir:    strings.TrimSpace(f.imagesDir),
		AudioPath:    strings.TrimSpace(f.audioPath),
		OutputPath:   strings.TrimSpace(f.outputPath),
		CaptionsPath: strings.TrimSpace(f.captionsPath),
		AssetsDir:    strings.TrimSpace(f.assetsDir),
		PlanOut:      strings.TrimSpace(f.planOut),
		MetricsFile:  strings.TrimSpace(f.metricsFile),
	}
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:           "reelcast",
		Short:         "Render image slideshows with narration into vertical videos",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.profile, "profile", "p", config.ProfileShorts, "Built-in profile: "+strings.Join(config.Names(), ", "))
	flags.StringVar(&opts.profileFile, "profile-file", "", "YAML or TOML file overriding profile fields")
	flags.StringVar(&opts.envFile, "env-file", "", "Load environment variables from this file (default .env when present)")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flags.StringVar(&opts.logFormat, "log-format", "", "Log format: console or json (default depends on the terminal)")
	flags.IntVar(&opts.workers, "workers", 0, "Parallel slide workers (0 = CPU count, capped by the profile threads)")

	rootCmd.AddCommand(newRenderCommand(opts))
	rootCmd.AddCommand(newPlanCommand(opts))
	rootCmd.AddCommand(newShowCommand())
	rootCmd.AddCommand(newProfilesCommand())

	return rootCmd
}

// resolveProfile builds the effective profile: built-in defaults, then the
// profile file, then environment overrides.
func resolveProfile(opts *globalOptions, getenv func(string) string) (config.Profile, error) {
	if err := config.LoadEnvFile(opts.envFile); err != nil {
		return config.Profile{}, err
	}
	p, err := config.Lookup(opts.profile)
	if err != nil {
		return config.Profile{}, err
	}
	if opts.profileFile != "" {
		if p, err = config.LoadFile(opts.profileFile, p); err != nil {
			return config.Profile{}, err
		}
	}
	p = config.ApplyEnv(p, getenv)
	if err := p.Validate(); err != nil {
		return config.Profile{}, fmt.Errorf("profile %s: %w", p.Name, err)
	}
	return p, nil
}

func newLogger(cmd *cobra.Command, opts *globalOptions) (*slog.Logger, error) {
	return logging.New(logging.Options{
		Level:  opts.logLevel,
		Format: opts.logFormat,
		Output: cmd.ErrOrStderr(),
	})
}

func newProject(cmd *cobra.Command, opts *globalOptions, in engine.Inputs) (*engine.Project, *slog.Logger, error) {
	logger, err := newLogger(cmd, opts)
	if err != nil {
		return nil, nil, err
	}
	p, err := resolveProfile(opts, os.Getenv)
	if err != nil {
		return nil, nil, err
	}
	project := engine.NewProject(p, in, logger)
	if opts.workers > 0 {
		project.Workers = opts.workers
	}
	return project, logger, nil
}
