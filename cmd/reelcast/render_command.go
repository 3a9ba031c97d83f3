package main

import (
	"fmt"

	"github.com/ivlev/reelcast/internal/system"
	"github.com/spf13/cobra"
)

func newRenderCommand(opts *globalOptions) *cobra.Command {
	in := &inputFlags{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the slideshow video",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			project, logger, err := newProject(cmd, opts, in.inputs())
			if err != nil {
				return err
			}
			system.InitResourceLimits(logger)
			system.LogHost(logger)

			res, err := project.Run(cmd.Context())
			if err != nil {
				return err
			}
			audio := "silent"
			if res.UsedAudio {
				audio = "narrated"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d slides, %.2fs, %s (%s), %d captions\n",
				project.Inputs.OutputPath, res.Slides, res.Duration, audio, res.Mode, res.Captions)
			return nil
		},
	}
	in.register(cmd)
	cmd.Flags().StringVar(&in.outputPath, "output-path", "", "Output video path")
	cmd.Flags().StringVar(&in.metricsFile, "metrics-file", "", "Write Prometheus textfile metrics to this path")
	_ = cmd.MarkFlagRequired("output-path")
	return cmd
}
