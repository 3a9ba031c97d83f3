// Package captions parses subtitle files and rasterises each cue into a
// translucent caption panel.
package captions

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/asticode/go-astisub"
	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Cue is one timed caption.
type Cue struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

type Parser interface {
	Parse(r io.Reader) ([]Cue, error)
}

type SRTParser struct{}

func (SRTParser) Parse(r io.Reader) ([]Cue, error) {
	subs, err := astisub.ReadFromSRT(r)
	if err != nil {
		return nil, fmt.Errorf("parse srt: %w", err)
	}
	return cues(subs), nil
}

type VTTParser struct{}

func (VTTParser) Parse(r io.Reader) ([]Cue, error) {
	subs, err := astisub.ReadFromWebVTT(r)
	if err != nil {
		return nil, fmt.Errorf("parse webvtt: %w", err)
	}
	return cues(subs), nil
}

// ParserFor picks a parser from the file extension.
func ParserFor(path string) (Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".srt":
		return SRTParser{}, nil
	case ".vtt":
		return VTTParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported caption format %q", filepath.Ext(path))
	}
}

// ParseFile reads a UTF-8 caption file. A leading byte order mark is
// stripped.
func ParseFile(path string) ([]Cue, error) {
	parser, err := ParserFor(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := xunicode.BOMOverride(xunicode.UTF8.NewDecoder())
	return parser.Parse(transform.NewReader(f, dec))
}

func cues(subs *astisub.Subtitles) []Cue {
	out := make([]Cue, 0, len(subs.Items))
	for _, item := range subs.Items {
		if item.EndAt <= item.StartAt {
			continue
		}
		lines := make([]string, 0, len(item.Lines))
		for _, line := range item.Lines {
			var parts []string
			for _, li := range line.Items {
				if t := strings.TrimSpace(li.Text); t != "" {
					parts = append(parts, t)
				}
			}
			lines = append(lines, strings.Join(parts, " "))
		}
		out = append(out, Cue{
			Start: item.StartAt,
			End:   item.EndAt,
			Text:  strings.Join(lines, "\n"),
		})
	}
	return out
}
