package main

import (
	"fmt"
	"strconv"

	"github.com/ivlev/reelcast/internal/config"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

func newProfilesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the built-in render profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), profilesTable())
			return nil
		},
	}
}

func profilesTable() string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Profile", "Resolution", "FPS", "Threads", "Max images", "Audio", "Captions", "Audio codec"})
	for _, name := range config.Names() {
		p, err := config.Lookup(name)
		if err != nil {
			continue
		}
		maxImages := "all"
		if p.MaxImages > 0 {
			maxImages = strconv.Itoa(p.MaxImages)
		}
		audioCodec := p.AudioCodec
		if audioCodec == "" {
			audioCodec = "default"
		}
		tw.AppendRow(table.Row{
			p.Name,
			fmt.Sprintf("%dx%d", p.Width, p.Height),
			p.FPS,
			p.Threads,
			maxImages,
			policy(p.StrictAudio),
			policy(p.StrictCaptions),
			audioCodec,
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	return tw.Render()
}

func policy(strict bool) string {
	if strict {
		return "strict"
	}
	return "tolerant"
}
