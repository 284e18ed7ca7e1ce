package resampler

// Format describes 16-bit signed PCM.
type Format struct {
	// SampleRate is the sample rate in Hz (e.g., 44100, 48000).
	SampleRate int

	// Stereo is true for two interleaved channels, false for mono.
	Stereo bool
}

// Channels returns 1 or 2.
func (f Format) Channels() int {
	if f.Stereo {
		return 2
	}
	return 1
}
