// Package resampler converts 16-bit PCM between sample rates and channel
// layouts. USB microphones on the appliance usually only offer 44.1 or
// 48 kHz while speech recognition wants 16 kHz mono, and synthesized speech
// arrives at whatever rate the voice service picked.
//
// Conversion is done on whole buffers with the pure-Go go-audio-resampling
// engine at high quality.
package resampler
