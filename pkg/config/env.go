package config

import "strings"

// LookupFunc looks up an environment variable.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides credentials and paths from the environment. Keys
// follow the names used by earlier releases of the device software.
func (c *Config) ApplyEnv(lookup LookupFunc) {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	switch strings.ToLower(c.AI.Provider) {
	case "openai":
		set(&c.AI.APIKey, "OPENAI_API_KEY")
	default:
		set(&c.AI.APIKey, "GEMINI_API_KEY")
	}
	set(&c.Voice.APIKey, "MIX_VOICE_API_KEY")
	set(&c.Voice.SystemVoice, "SYSTEM_VOICE_ID")
	set(&c.Voice.PersonaVoice, "PERSONA_VOICE_ID")
	set(&c.Storage.Dir, "ECHOMEMO_DATA_DIR")
	set(&c.Audio.SoundsDir, "ECHOMEMO_SOUNDS_DIR")
	set(&c.Log.Level, "ECHOMEMO_LOG_LEVEL")
	set(&c.Archive.AccessKeyID, "AWS_ACCESS_KEY_ID")
	set(&c.Archive.SecretAccessKey, "AWS_SECRET_ACCESS_KEY")
}
