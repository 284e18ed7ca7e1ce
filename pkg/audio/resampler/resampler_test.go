package resampler

import (
	"math"
	"slices"
	"testing"
)

func sine(rate, n int, freq float64) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(8000 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
	return out
}

func TestConvertPassthrough(t *testing.T) {
	in := []int16{1, -2, 3, -4}
	out, err := Convert(in, Format{SampleRate: 16000}, Format{SampleRate: 16000})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(out, in) {
		t.Errorf("got %v", out)
	}
	out[0] = 100
	if in[0] != 1 {
		t.Error("passthrough must not alias the input")
	}
}

func TestConvertChannels(t *testing.T) {
	tests := []struct {
		name     string
		in       []int16
		src, dst Format
		want     []int16
	}{
		{"downmix", []int16{100, 200, -50, 50}, Format{8000, true}, Format{8000, false}, []int16{150, 0}},
		{"upmix", []int16{7, -7}, Format{8000, false}, Format{8000, true}, []int16{7, 7, -7, -7}},
		{"empty", nil, Format{8000, true}, Format{16000, false}, []int16{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Convert(tt.in, tt.src, tt.dst)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) || (len(got) > 0 && !slices.Equal(got, tt.want)) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConvertRate(t *testing.T) {
	tests := []struct {
		name     string
		src, dst Format
		n, want  int
	}{
		{"48k to 16k", Format{SampleRate: 48000}, Format{SampleRate: 16000}, 48000, 16000},
		{"16k to 48k", Format{SampleRate: 16000}, Format{SampleRate: 48000}, 16000, 48000},
		{"44.1k stereo to 16k mono", Format{44100, true}, Format{SampleRate: 16000}, 2 * 44100, 16000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Convert(sine(tt.src.SampleRate, tt.n, 440), tt.src, tt.dst)
			if err != nil {
				t.Fatal(err)
			}
			// The filter tail must be flushed; only rounding may be lost.
			if len(out) > tt.want || len(out) < tt.want-tt.want/200 {
				t.Errorf("got %d samples, want about %d", len(out), tt.want)
			}
		})
	}
}

func TestConvertInvalidRate(t *testing.T) {
	if _, err := Convert([]int16{1}, Format{}, Format{SampleRate: 16000}); err == nil {
		t.Error("expected error for zero rate")
	}
}

func TestClamp(t *testing.T) {
	if clamp(2) != 32767 || clamp(-2) != -32768 || clamp(0) != 0 {
		t.Error("clamp out of range")
	}
}
