package assistant

import (
	"strings"
	"unicode/utf8"

	"github.com/haivivi/echomemo/pkg/memstore"
)

const (
	// PersonaPrompt makes the model answer as the owner's digital twin.
	PersonaPrompt = `You are a digital twin of the user. Imitate the way the user speaks.
Answer based on the user's memories and past conversations, the way the user would.
Keep replies natural, warm and short, as if the user were talking.`

	// DailyPrompt makes the model ask one interview question.
	DailyPrompt = `You are a daily interview companion who asks meaningful questions.
A question must be short (no more than 50 words), open ended, thought provoking
and friendly, like a chat between friends. Output only the question.`

	transcribePrompt = `Transcribe this recording word for word. If someone is speaking, transcribe everything they say.
If there is no speech or only noise, answer exactly "` + noSpeechMarker + `".`

	noSpeechMarker = "NO_SPEECH"

	// maxContext caps how many memories are put in a prompt.
	maxContext = 5
)

// noSpeechMarkers are answers that mean the recording had no words.
var noSpeechMarkers = []string{noSpeechMarker, "無語音內容", "无语音内容"}

// cleanTranscript trims a model transcript and maps "no speech" answers and
// texts shorter than two characters to "".
func cleanTranscript(text string) string {
	text = strings.TrimSpace(text)
	for _, m := range noSpeechMarkers {
		if strings.Contains(text, m) {
			return ""
		}
	}
	if utf8.RuneCountInString(text) < 2 {
		return ""
	}
	return text
}

// cleanQuestion strips the quotes models like to put around a question.
func cleanQuestion(text string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(text), `"'“”`))
}

func renderEntries(b *strings.Builder, entries []memstore.Entry) {
	for i, e := range entries {
		if i == maxContext {
			break
		}
		b.WriteString("- [")
		b.WriteString(e.Time().Format("2006-01-02"))
		b.WriteString("] ")
		b.WriteString(e.Content)
		b.WriteByte('\n')
	}
}

// dailyRequest builds the question request.
func dailyRequest(recent []memstore.Entry) string {
	if len(recent) == 0 {
		return "Ask one friendly, open question that helps the user start today's journal."
	}
	var b strings.Builder
	b.WriteString("Based on the user's recent memories, ask one new, meaningful question.\n\nRecent memories:\n")
	renderEntries(&b, recent)
	b.WriteString("\nAsk a question that helps the user reflect further or share more.")
	return b.String()
}

// replyRequest builds the persona reply request.
func replyRequest(text string, related []memstore.Entry) string {
	var b strings.Builder
	if len(related) > 0 {
		b.WriteString("These are the user's past memories. Use them when answering:\n")
		renderEntries(&b, related)
		b.WriteByte('\n')
	}
	b.WriteString("The user says: ")
	b.WriteString(text)
	b.WriteString("\n\nReply in the user's own tone and style:")
	return b.String()
}
