// Package config holds the appliance configuration: one immutable value
// built at startup from defaults, a YAML file and a few environment
// variables, then handed to every component that needs it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"
)

// DefaultFile is the configuration file name inside the app directory.
const DefaultFile = "config.yaml"

// Config is the whole appliance configuration.
type Config struct {
	Hardware  HardwareConfig  `yaml:"hardware"`
	Display   DisplayConfig   `yaml:"display"`
	Audio     AudioConfig     `yaml:"audio"`
	AI        AIConfig        `yaml:"ai"`
	Voice     VoiceConfig     `yaml:"voice"`
	Storage   StorageConfig   `yaml:"storage"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Panel     PanelConfig     `yaml:"panel"`

	path string
}

// Pins are BCM GPIO numbers.
type Pins struct {
	CLK    int `yaml:"clk"`
	DT     int `yaml:"dt"`
	SW     int `yaml:"sw"`
	Record int `yaml:"record"`
}

// HardwareConfig configures the rotary encoder and buttons.
type HardwareConfig struct {
	// Enabled turns GPIO input on. With it off the panel is the only input.
	Enabled         bool     `yaml:"enabled"`
	Pins            Pins     `yaml:"pins"`
	Debounce        Duration `yaml:"debounce"`
	EncoderDebounce Duration `yaml:"encoder_debounce"`
}

// DisplayConfig configures the screen.
type DisplayConfig struct {
	// Driver is oled, console, both or none.
	Driver   string  `yaml:"driver"`
	Bus      string  `yaml:"i2c_bus"`
	Address  int     `yaml:"address"`
	Width    int     `yaml:"width"`
	Height   int     `yaml:"height"`
	FontPath string  `yaml:"font_path,omitempty"`
	FontSize float64 `yaml:"font_size"`
}

// AudioConfig configures the microphone and speaker.
type AudioConfig struct {
	// Device indexes as listed by `echomemo devices`; -1 is the default.
	InputDevice  int `yaml:"input_device"`
	OutputDevice int `yaml:"output_device"`

	// InputRate and InputChannels describe what the microphone delivers.
	InputRate     int `yaml:"input_rate"`
	InputChannels int `yaml:"input_channels"`

	// SampleRate of stored recordings.
	SampleRate int `yaml:"sample_rate"`

	Chunk           Duration `yaml:"chunk"`
	FinalizeTimeout Duration `yaml:"finalize_timeout"`
	SoundsDir       string   `yaml:"sounds_dir"`
	ArtifactDir     string   `yaml:"artifact_dir,omitempty"`
}

// AIConfig configures the language model backend.
type AIConfig struct {
	// Provider is gemini or openai.
	Provider        string   `yaml:"provider"`
	APIKey          string   `yaml:"api_key,omitempty"`
	BaseURL         string   `yaml:"base_url,omitempty"`
	Model           string   `yaml:"model,omitempty"`
	TranscribeModel string   `yaml:"transcribe_model,omitempty"`
	Timeout         Duration `yaml:"timeout"`
}

// VoiceConfig configures the voice-clone service.
type VoiceConfig struct {
	APIKey       string   `yaml:"api_key,omitempty"`
	SyncURL      string   `yaml:"sync_url"`
	UploadURL    string   `yaml:"upload_url,omitempty"`
	SystemVoice  string   `yaml:"system_voice,omitempty"`
	PersonaVoice string   `yaml:"persona_voice,omitempty"`
	Speed        float64  `yaml:"speed"`
	Pitch        float64  `yaml:"pitch"`
	Volume       float64  `yaml:"volume"`
	Timeout      Duration `yaml:"timeout"`
}

// StorageConfig configures the memory store.
type StorageConfig struct {
	// Driver is badger or memory.
	Driver string `yaml:"driver"`
	Dir    string `yaml:"dir"`
}

// ArchiveConfig configures where recordings are kept after processing.
type ArchiveConfig struct {
	// Driver is none, local or s3.
	Driver          string `yaml:"driver"`
	Dir             string `yaml:"dir,omitempty"`
	Bucket          string `yaml:"bucket,omitempty"`
	Prefix          string `yaml:"prefix,omitempty"`
	Region          string `yaml:"region,omitempty"`
	Endpoint        string `yaml:"endpoint,omitempty"`
	AccessKeyID     string `yaml:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty"`
	PathStyle       bool   `yaml:"path_style,omitempty"`
}

// SchedulerConfig configures the event loop.
type SchedulerConfig struct {
	Tick     Duration `yaml:"tick"`
	Capacity int      `yaml:"capacity"`

	// Pauses let the user read a screen before the next one.
	SplashPause Duration `yaml:"splash_pause"`
	StatusPause Duration `yaml:"status_pause"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`

	// File enables a rotating log file; relative paths are inside the
	// logs directory.
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// MetricsConfig configures the Prometheus endpoint; empty Listen disables it.
type MetricsConfig struct {
	Listen string `yaml:"listen,omitempty"`
}

// PanelConfig configures the websocket control panel; empty Listen
// disables it.
type PanelConfig struct {
	Listen string `yaml:"listen,omitempty"`
}

// Default returns the configuration used when no file exists. appDir is
// the application directory (~/.giztoy/echomemo).
func Default(appDir string) *Config {
	return &Config{
		Hardware: HardwareConfig{
			Enabled:         true,
			Pins:            Pins{CLK: 22, DT: 27, SW: 17, Record: 23},
			Debounce:        Duration(10 * time.Millisecond),
			EncoderDebounce: Duration(time.Millisecond),
		},
		Display: DisplayConfig{
			Driver:   "oled",
			Bus:      "1",
			Address:  0x3C,
			Width:    128,
			Height:   64,
			FontSize: 12,
		},
		Audio: AudioConfig{
			InputDevice:     -1,
			OutputDevice:    -1,
			InputRate:       16000,
			InputChannels:   1,
			SampleRate:      16000,
			Chunk:           Duration(20 * time.Millisecond),
			FinalizeTimeout: Duration(10 * time.Second),
			SoundsDir:       filepath.Join(appDir, "assets", "system"),
		},
		AI: AIConfig{
			Provider: "gemini",
			Timeout:  Duration(30 * time.Second),
		},
		Voice: VoiceConfig{
			SyncURL: "https://aivoiceclonefree.com/api/instant/clone-sync",
			Speed:   1,
			Pitch:   1,
			Volume:  1,
			Timeout: Duration(60 * time.Second),
		},
		Storage: StorageConfig{
			Driver: "badger",
			Dir:    filepath.Join(appDir, "data", "memories"),
		},
		Archive: ArchiveConfig{
			Driver: "none",
			Dir:    filepath.Join(appDir, "data", "recordings"),
		},
		Scheduler: SchedulerConfig{
			Tick:        Duration(50 * time.Millisecond),
			Capacity:    64,
			SplashPause: Duration(2 * time.Second),
			StatusPause: Duration(time.Second),
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load reads path over the defaults. A missing file is not an error; the
// defaults are returned. Environment overrides are applied last.
func Load(path, appDir string) (*Config, error) {
	cfg := Default(appDir)
	cfg.path = path

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("config: read: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.ApplyEnv(os.LookupEnv)
	return cfg, nil
}

// Path returns the file the configuration was loaded from.
func (c *Config) Path() string {
	return c.path
}

// Save writes the configuration to path, creating its directory.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("config: write: %w", err)
	}
	return nil
}

// Redacted returns a copy with secrets masked, for display.
func (c *Config) Redacted() *Config {
	cp := *c
	mask := func(s *string) {
		if *s != "" {
			*s = "********"
		}
	}
	mask(&cp.AI.APIKey)
	mask(&cp.Voice.APIKey)
	mask(&cp.Archive.SecretAccessKey)
	return &cp
}
