// Package wavio reads and writes 16-bit PCM WAV files.
package wavio

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrInvalid is returned by Decode for data that is not a PCM WAV file.
var ErrInvalid = errors.New("wavio: not a valid wav file")

// Encode writes samples as a 16-bit PCM WAV. Multi-channel samples are
// interleaved.
func Encode(w io.WriteSeeker, samples []int16, rate, channels int) error {
	if channels < 1 {
		channels = 1
	}
	enc := wav.NewEncoder(w, rate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  rate,
		},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i, s := range samples {
		buf.Data[i] = int(s)
	}
	if err := enc.Write(buf); err != nil {
		enc.Close()
		return fmt.Errorf("wavio: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("wavio: encode: %w", err)
	}
	return nil
}

// Decode reads a whole WAV file and returns its samples converted to 16 bits,
// along with the sample rate and channel count.
func Decode(r io.ReadSeeker) (samples []int16, rate, channels int, err error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, 0, 0, ErrInvalid
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, 0, fmt.Errorf("wavio: decode: %w", err)
	}
	depth := int(dec.BitDepth)
	samples = make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = to16(v, depth)
	}
	return samples, int(dec.SampleRate), int(dec.NumChans), nil
}

func to16(v, depth int) int16 {
	switch {
	case depth == 8:
		// 8-bit WAV is unsigned.
		return int16((v - 128) << 8)
	case depth > 16:
		return int16(v >> (depth - 16))
	}
	return int16(v)
}
