package portaudio

import (
	"time"
)

// Config selects a device and the sample layout of a stream.
type Config struct {
	// Device is a PortAudio device index, or DefaultDevice.
	Device int

	// SampleRate in Hz.
	SampleRate int

	// Channels is 1 (mono) or 2 (interleaved stereo).
	Channels int

	// BufferDuration is the duration of each read or write (default 20ms).
	BufferDuration time.Duration
}

func (c Config) frames() int {
	d := c.BufferDuration
	if d <= 0 {
		d = 20 * time.Millisecond
	}
	return int(time.Duration(c.SampleRate) * d / time.Second)
}

func (c Config) channels() int {
	if c.Channels == 2 {
		return 2
	}
	return 1
}

// InputStream captures audio from an input device.
type InputStream struct {
	cfg    Config
	stream *stream
}

// NewInputStream opens and starts an input stream.
func NewInputStream(cfg Config) (*InputStream, error) {
	s, err := openStream(true, cfg.Device, cfg.channels(), float64(cfg.SampleRate), cfg.frames())
	if err != nil {
		return nil, err
	}
	return &InputStream{cfg: cfg, stream: s}, nil
}

// Read blocks until one buffer of interleaved samples is available.
// It returns io.EOF after Close.
func (is *InputStream) Read() ([]int16, error) {
	return is.stream.read()
}

// Config returns the stream configuration.
func (is *InputStream) Config() Config {
	return is.cfg
}

// Close stops and closes the stream.
func (is *InputStream) Close() error {
	return is.stream.close()
}

// OutputStream plays audio to an output device.
type OutputStream struct {
	cfg    Config
	stream *stream
}

// NewOutputStream opens and starts an output stream.
func NewOutputStream(cfg Config) (*OutputStream, error) {
	s, err := openStream(false, cfg.Device, cfg.channels(), float64(cfg.SampleRate), cfg.frames())
	if err != nil {
		return nil, err
	}
	return &OutputStream{cfg: cfg, stream: s}, nil
}

// Write blocks until all samples have been queued to the device.
func (os *OutputStream) Write(samples []int16) error {
	return os.stream.write(samples)
}

// Config returns the stream configuration.
func (os *OutputStream) Config() Config {
	return os.cfg
}

// Close stops and closes the stream.
func (os *OutputStream) Close() error {
	return os.stream.close()
}
