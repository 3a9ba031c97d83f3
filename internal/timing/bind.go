package timing

// AudioBinding describes how the audio track is attached to the timeline.
type AudioBinding struct {
	Mode     FitMode
	UseAudio bool
	// Silence is the zero-amplitude tail appended to the audio, in seconds.
	Silence float64
	// Duration is the final output length.
	Duration float64
}

// Bind decides the output length and audio padding for plan. The mode is
// validated here, where it is first used.
func Bind(plan Plan) (AudioBinding, error) {
	mode, err := ParseFitMode(string(plan.Mode))
	if err != nil {
		return AudioBinding{}, err
	}
	total := plan.SlideshowTotal()

	if plan.AudioPath == "" {
		b := AudioBinding{Mode: mode, Duration: total}
		if mode == PadAudio {
			b.Silence = total
		}
		return b, nil
	}

	b := AudioBinding{Mode: mode, UseAudio: true, Duration: plan.AudioDuration}
	if mode == PadAudio && total > plan.AudioDuration {
		b.Silence = total - plan.AudioDuration
		b.Duration = total
	}
	return b, nil
}
