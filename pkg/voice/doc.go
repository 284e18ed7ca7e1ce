// Package voice synthesizes speech through a voice-clone HTTP service and
// plays audio on the speaker.
//
// The clone service renders text in the timbre of a reference recording.
// Reference recordings are uploaded once (see Client.Upload) and referred to
// by URL afterwards. Two voices are configured: the System voice for prompts
// and guidance, and the Persona voice (the owner's digital twin) for replies.
//
// Example:
//
//	client := voice.NewClient(apiKey)
//	url, err := client.CloneSync(ctx, &voice.CloneRequest{
//	    Text:     "Good morning",
//	    AudioURL: systemVoiceURL,
//	})
package voice
