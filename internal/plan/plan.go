// Package plan exports a render schedule as a YAML document and a table.
package plan

import (
	"path/filepath"
	"strconv"

	"github.com/ivlev/reelcast/internal/timing"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const Version = "1.0"

// Document is the serialised form of a timing plan.
type Document struct {
	Version        string  `yaml:"version"`
	Profile        string  `yaml:"profile"`
	Mode           string  `yaml:"mode"`
	PerSlide       float64 `yaml:"per_slide"`
	Transition     float64 `yaml:"transition"`
	Audio          string  `yaml:"audio,omitempty"`
	AudioDuration  float64 `yaml:"audio_duration,omitempty"`
	Timeline       float64 `yaml:"timeline"`
	OutputDuration float64 `yaml:"output_duration"`
	Silence        float64 `yaml:"silence,omitempty"`
	Slides         []Slide `yaml:"slides"`
}

// Slide is one scheduled image.
type Slide struct {
	ID       int     `yaml:"id"`
	Input    string  `yaml:"input"`
	Start    float64 `yaml:"start"`
	Duration float64 `yaml:"duration"`
}

func FromTiming(p timing.Plan, b timing.AudioBinding, profile string) Document {
	doc := Document{
		Version:        Version,
		Profile:        profile,
		Mode:           string(p.Mode),
		PerSlide:       p.PerSlide,
		Transition:     p.Transition,
		Audio:          p.AudioPath,
		AudioDuration:  p.AudioDuration,
		Timeline:       p.TimelineDuration(),
		OutputDuration: b.Duration,
		Silence:        b.Silence,
		Slides:         make([]Slide, len(p.Slides)),
	}
	offsets := p.Offsets()
	for i, s := range p.Slides {
		doc.Slides[i] = Slide{ID: s.Index + 1, Input: s.Path, Start: offsets[i], Duration: s.Duration}
	}
	return doc
}

// Table renders the slide schedule for a terminal.
func (d Document) Table() string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Footer = text.FormatDefault
	tw.AppendHeader(table.Row{"#", "Image", "Start", "Duration"})
	for _, s := range d.Slides {
		tw.AppendRow(table.Row{s.ID, filepath.Base(s.Input), seconds(s.Start), seconds(s.Duration)})
	}
	tw.AppendFooter(table.Row{"", "output (" + d.Mode + ")", "", seconds(d.OutputDuration)})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	return tw.Render()
}

func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64) + "s"
}
