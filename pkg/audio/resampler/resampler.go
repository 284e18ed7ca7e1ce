package resampler

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Convert returns samples converted from src to dst. Channels are converted
// first (downmix by averaging, upmix by duplication), then the rate. The
// input slice is not modified.
func Convert(samples []int16, src, dst Format) ([]int16, error) {
	if src.SampleRate <= 0 || dst.SampleRate <= 0 {
		return nil, fmt.Errorf("resampler: invalid rate %d -> %d", src.SampleRate, dst.SampleRate)
	}
	out := convertChannels(samples, src.Stereo, dst.Stereo)
	if src.SampleRate == dst.SampleRate || len(out) == 0 {
		if len(out) > 0 && &out[0] == &samples[0] {
			out = append([]int16(nil), out...)
		}
		return out, nil
	}

	r, err := resampling.New(&resampling.Config{
		InputRate:  float64(src.SampleRate),
		OutputRate: float64(dst.SampleRate),
		Channels:   dst.Channels(),
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("resampler: create: %w", err)
	}

	input := make([]float64, len(out))
	for i, s := range out {
		input[i] = float64(s) / 32768.0
	}
	output, err := r.Process(input)
	if err != nil {
		return nil, fmt.Errorf("resampler: process: %w", err)
	}
	tail, err := r.Flush()
	if err != nil {
		return nil, fmt.Errorf("resampler: flush: %w", err)
	}
	output = append(output, tail...)

	// Keep whole frames, at most the exact converted length.
	ch := dst.Channels()
	frames := (len(out)/ch*dst.SampleRate + src.SampleRate/2) / src.SampleRate
	output = output[:min(len(output)/ch, frames)*ch]

	res := make([]int16, len(output))
	for i, v := range output {
		res[i] = clamp(v)
	}
	return res, nil
}

func clamp(v float64) int16 {
	switch {
	case v >= 1.0:
		return 32767
	case v <= -1.0:
		return -32768
	}
	return int16(v * 32767.0)
}

func convertChannels(samples []int16, srcStereo, dstStereo bool) []int16 {
	switch {
	case srcStereo == dstStereo:
		return samples
	case srcStereo:
		return stereoToMono(samples)
	default:
		return monoToStereo(samples)
	}
}

// stereoToMono averages each L/R pair.
func stereoToMono(s []int16) []int16 {
	out := make([]int16, len(s)/2)
	for i := range out {
		out[i] = int16((int32(s[2*i]) + int32(s[2*i+1])) / 2)
	}
	return out
}

// monoToStereo duplicates each sample into both channels.
func monoToStereo(s []int16) []int16 {
	out := make([]int16, len(s)*2)
	for i, v := range s {
		out[2*i] = v
		out[2*i+1] = v
	}
	return out
}
