// Package audio groups the audio sub-packages of the appliance:
//
//   - portaudio: microphone and speaker streams
//   - resampler: sample rate and channel conversion
//   - wavio: WAV encoding and decoding
//   - capture: microphone recordings as artifacts
//
// Samples are 16-bit signed integers throughout.
package audio
