package config

import (
	"fmt"
	"slices"
)

// Missing returns the required credentials that are not set. The appliance
// must not start while any are missing.
func (c *Config) Missing() []string {
	var out []string
	if c.AI.APIKey == "" {
		switch c.AI.Provider {
		case "openai":
			out = append(out, "ai.api_key (OPENAI_API_KEY)")
		default:
			out = append(out, "ai.api_key (GEMINI_API_KEY)")
		}
	}
	if c.Voice.APIKey == "" {
		out = append(out, "voice.api_key (MIX_VOICE_API_KEY)")
	}
	return out
}

// Validate returns every missing or invalid setting.
func (c *Config) Validate() []string {
	out := c.Missing()
	bad := func(format string, args ...any) {
		out = append(out, fmt.Sprintf(format, args...))
	}

	p := c.Hardware.Pins
	pins := []int{p.CLK, p.DT, p.SW, p.Record}
	for _, n := range pins {
		if n < 0 {
			bad("hardware.pins: negative pin %d", n)
		}
	}
	sorted := slices.Clone(pins)
	slices.Sort(sorted)
	if len(slices.Compact(sorted)) != len(pins) {
		bad("hardware.pins: pins must be distinct, got %v", pins)
	}

	if !slices.Contains([]string{"oled", "console", "both", "none"}, c.Display.Driver) {
		bad("display.driver: unknown driver %q", c.Display.Driver)
	}
	if c.Audio.SampleRate <= 0 || c.Audio.InputRate <= 0 {
		bad("audio: sample rates must be positive")
	}
	if c.Audio.InputChannels != 1 && c.Audio.InputChannels != 2 {
		bad("audio.input_channels: must be 1 or 2, got %d", c.Audio.InputChannels)
	}
	if !slices.Contains([]string{"gemini", "openai"}, c.AI.Provider) {
		bad("ai.provider: unknown provider %q", c.AI.Provider)
	}
	if !slices.Contains([]string{"badger", "memory"}, c.Storage.Driver) {
		bad("storage.driver: unknown driver %q", c.Storage.Driver)
	}
	switch c.Archive.Driver {
	case "none", "local":
	case "s3":
		if c.Archive.Bucket == "" {
			bad("archive.bucket: required for s3")
		}
	default:
		bad("archive.driver: unknown driver %q", c.Archive.Driver)
	}
	if c.Scheduler.Tick <= 0 {
		bad("scheduler.tick: must be positive")
	}
	if c.Scheduler.Capacity <= 0 {
		bad("scheduler.capacity: must be positive")
	}
	return out
}
