package main

import (
	"fmt"

	"github.com/ivlev/reelcast/internal/plan"
	"github.com/spf13/cobra"
)

func newPlanCommand(opts *globalOptions) *cobra.Command {
	in := &inputFlags{}
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the slide timing without rendering",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			project, _, err := newProject(cmd, opts, in.inputs())
			if err != nil {
				return err
			}
			doc, err := project.Plan(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "profile %s, %d slides at %.2fs, timeline %.2fs\n",
				doc.Profile, len(doc.Slides), doc.PerSlide, doc.Timeline)
			fmt.Fprintln(out, doc.Table())
			if project.Inputs.PlanOut != "" {
				if err := plan.Write(doc, project.Inputs.PlanOut); err != nil {
					return fmt.Errorf("write plan: %w", err)
				}
				fmt.Fprintf(out, "plan written to %s\n", project.Inputs.PlanOut)
			}
			return nil
		},
	}
	in.register(cmd)
	return cmd
}

func newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <plan.yaml>",
		Short: "Print a plan written by --plan-out",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := plan.Read(args[0])
			if err != nil {
				return fmt.Errorf("read plan: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "plan v%s, profile %s, %d slides\n", doc.Version, doc.Profile, len(doc.Slides))
			fmt.Fprintln(out, doc.Table())
			return nil
		},
	}
}
