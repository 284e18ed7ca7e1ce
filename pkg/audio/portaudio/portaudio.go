// Package portaudio provides Go bindings for the PortAudio library.
//
// It is used for the microphone and the speaker of the appliance. Streams
// are blocking (no callbacks) and always carry 16-bit signed samples.
//
// Requires portaudio installed via pkg-config (apt install portaudio19-dev).
package portaudio

/*
#cgo pkg-config: portaudio-2.0

#include <portaudio.h>
#include <stdlib.h>
#include <string.h>

// Wrapper functions using void* to avoid CGO type issues with PaStream
static PaError pa_open_stream(void **stream,
                              const PaStreamParameters *inputParams,
                              const PaStreamParameters *outputParams,
                              double sampleRate,
                              unsigned long framesPerBuffer,
                              PaStreamFlags streamFlags) {
    return Pa_OpenStream((PaStream**)stream, inputParams, outputParams, sampleRate,
                         framesPerBuffer, streamFlags, NULL, NULL);
}

static PaError pa_start_stream(void *stream) {
    return Pa_StartStream((PaStream*)stream);
}

static PaError pa_stop_stream(void *stream) {
    return Pa_StopStream((PaStream*)stream);
}

static PaError pa_close_stream(void *stream) {
    return Pa_CloseStream((PaStream*)stream);
}

static PaError pa_read_stream(void *stream, void *buffer, unsigned long frames) {
    return Pa_ReadStream((PaStream*)stream, buffer, frames);
}

static PaError pa_write_stream(void *stream, const void *buffer, unsigned long frames) {
    return Pa_WriteStream((PaStream*)stream, buffer, frames);
}
*/
import "C"

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"unsafe"
)

// DefaultDevice selects the host default input or output device.
const DefaultDevice = -1

var (
	initOnce sync.Once
	initErr  error
)

// ErrNoDevice is returned when the requested device does not exist or has
// no channels in the needed direction.
var ErrNoDevice = errors.New("portaudio: no such device")

// paError converts a PortAudio error code to a Go error.
func paError(code C.PaError) error {
	if code == C.paNoError {
		return nil
	}
	return errors.New(C.GoString(C.Pa_GetErrorText(code)))
}

// Initialize initializes the PortAudio library.
// It is safe to call multiple times.
func Initialize() error {
	initOnce.Do(func() {
		initErr = paError(C.Pa_Initialize())
	})
	return initErr
}

// Terminate terminates the PortAudio library.
func Terminate() error {
	return paError(C.Pa_Terminate())
}

// DeviceInfo contains information about an audio device.
type DeviceInfo struct {
	Index             int
	Name              string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
	IsDefaultInput    bool
	IsDefaultOutput   bool
}

// Devices returns a list of available audio devices.
func Devices() ([]DeviceInfo, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}

	count := int(C.Pa_GetDeviceCount())
	if count < 0 {
		return nil, paError(C.PaError(count))
	}

	defaultInput := int(C.Pa_GetDefaultInputDevice())
	defaultOutput := int(C.Pa_GetDefaultOutputDevice())

	devices := make([]DeviceInfo, 0, count)
	for i := 0; i < count; i++ {
		info := C.Pa_GetDeviceInfo(C.PaDeviceIndex(i))
		if info == nil {
			continue
		}
		devices = append(devices, DeviceInfo{
			Index:             i,
			Name:              C.GoString(info.name),
			MaxInputChannels:  int(info.maxInputChannels),
			MaxOutputChannels: int(info.maxOutputChannels),
			DefaultSampleRate: float64(info.defaultSampleRate),
			IsDefaultInput:    i == defaultInput,
			IsDefaultOutput:   i == defaultOutput,
		})
	}
	return devices, nil
}

// FprintDevices writes a listing of all devices to w.
func FprintDevices(w io.Writer) error {
	devices, err := Devices()
	if err != nil {
		return err
	}
	for _, d := range devices {
		marker := ""
		if d.IsDefaultInput {
			marker += " [DEFAULT INPUT]"
		}
		if d.IsDefaultOutput {
			marker += " [DEFAULT OUTPUT]"
		}
		fmt.Fprintf(w, "%d: %s%s\n", d.Index, d.Name, marker)
		fmt.Fprintf(w, "   Input channels: %d, Output channels: %d\n", d.MaxInputChannels, d.MaxOutputChannels)
		fmt.Fprintf(w, "   Default sample rate: %.0f Hz\n", d.DefaultSampleRate)
	}
	return nil
}

// stream is a blocking PortAudio stream in one direction.
type stream struct {
	mu       sync.Mutex
	handle   unsafe.Pointer
	buffer   unsafe.Pointer
	channels int
	frames   int
	closed   bool
}

func resolveDevice(device int, input bool) (C.PaDeviceIndex, *C.PaDeviceInfo, error) {
	idx := C.PaDeviceIndex(device)
	if device < 0 {
		if input {
			idx = C.Pa_GetDefaultInputDevice()
		} else {
			idx = C.Pa_GetDefaultOutputDevice()
		}
	}
	if idx == C.paNoDevice || int(idx) >= int(C.Pa_GetDeviceCount()) {
		return 0, nil, fmt.Errorf("%w: %d", ErrNoDevice, device)
	}
	info := C.Pa_GetDeviceInfo(idx)
	if info == nil {
		return 0, nil, fmt.Errorf("%w: %d", ErrNoDevice, device)
	}
	if (input && info.maxInputChannels <= 0) || (!input && info.maxOutputChannels <= 0) {
		return 0, nil, fmt.Errorf("%w: %d has no %s channels", ErrNoDevice, device, direction(input))
	}
	return idx, info, nil
}

func direction(input bool) string {
	if input {
		return "input"
	}
	return "output"
}

// openStream opens and starts a stream on device.
func openStream(input bool, device, channels int, sampleRate float64, frames int) (*stream, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}
	idx, info, err := resolveDevice(device, input)
	if err != nil {
		return nil, err
	}

	params := &C.PaStreamParameters{
		device:                    idx,
		channelCount:              C.int(channels),
		sampleFormat:              C.paInt16,
		hostApiSpecificStreamInfo: nil,
	}
	var inputParams, outputParams *C.PaStreamParameters
	if input {
		params.suggestedLatency = info.defaultLowInputLatency
		inputParams = params
	} else {
		params.suggestedLatency = info.defaultLowOutputLatency
		outputParams = params
	}

	var handle unsafe.Pointer
	err = paError(C.pa_open_stream(
		&handle,
		inputParams,
		outputParams,
		C.double(sampleRate),
		C.ulong(frames),
		C.paClipOff,
	))
	if err != nil {
		return nil, fmt.Errorf("portaudio: open %s device %d: %w", direction(input), device, err)
	}
	if err := paError(C.pa_start_stream(handle)); err != nil {
		C.pa_close_stream(handle)
		return nil, fmt.Errorf("portaudio: start: %w", err)
	}

	return &stream{
		handle:   handle,
		buffer:   C.malloc(C.size_t(frames * channels * 2)),
		channels: channels,
		frames:   frames,
	}, nil
}

func (s *stream) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	C.pa_stop_stream(s.handle)
	err := paError(C.pa_close_stream(s.handle))
	C.free(s.buffer)
	return err
}

// read reads one buffer of interleaved samples.
func (s *stream) read() ([]int16, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, io.EOF
	}
	if err := paError(C.pa_read_stream(s.handle, s.buffer, C.ulong(s.frames))); err != nil {
		return nil, err
	}

	n := s.frames * s.channels
	samples := make([]int16, n)
	C.memcpy(unsafe.Pointer(&samples[0]), s.buffer, C.size_t(n*2))
	return samples, nil
}

// write writes interleaved samples, at most one buffer at a time.
func (s *stream) write(samples []int16) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return io.ErrClosedPipe
	}
	max := s.frames * s.channels
	for len(samples) > 0 {
		n := min(len(samples), max)
		n -= n % s.channels
		if n == 0 {
			return nil
		}
		C.memcpy(s.buffer, unsafe.Pointer(&samples[0]), C.size_t(n*2))
		if err := paError(C.pa_write_stream(s.handle, s.buffer, C.ulong(n/s.channels))); err != nil {
			return err
		}
		samples = samples[n:]
	}
	return nil
}
