package echomemo

import (
	"context"
	"fmt"
	"time"

	"github.com/haivivi/echomemo/pkg/artifact"
	"github.com/haivivi/echomemo/pkg/voice"
)

// Prefixes of stored chat turns.
const (
	UserPrefix = "User: "
	AIPrefix   = "AI: "
)

const replyPreview = 20

// enter runs the entry action of mode.
func (m *Machine) enter(ctx context.Context, mode Mode) {
	switch mode {
	case Daily:
		m.enterDaily(ctx)
	case Chat:
		m.show(m.display.ShowLines("Chat", "Hold to talk"))
	case Diary:
		m.enterDiary(ctx)
	case Reminder:
		m.show(m.display.ShowLines("Reminder", "Press to start"))
	default:
		panic(fmt.Sprintf("echomemo: enter %v", mode))
	}
}

// process handles a finished recording in mode. The caller releases art.
func (m *Machine) process(ctx context.Context, mode Mode, art *artifact.Artifact) {
	switch mode {
	case Daily:
		m.processDaily(ctx, art)
	case Chat:
		m.processChat(ctx, art)
	case Diary, Reminder:
		m.logger.Info("recording discarded", "mode", mode)
		m.show(m.display.ShowMode(mode.Label(), StatusNotSaved))
		m.pause(ctx, m.statusPause/2)
	default:
		panic(fmt.Sprintf("echomemo: process %v", mode))
	}
}

func (m *Machine) enterDaily(ctx context.Context) {
	m.show(m.display.ShowText(StatusThinking))
	m.playSound(ctx)

	recent, err := m.store.Recent(ctx, fallbackWindow, fallbackLimit)
	if err != nil {
		m.logger.Warn("recent memories", "error", err)
	}
	cctx, cancel := m.call(ctx)
	question, err := m.ai.GeneratePrompt(cctx, recent)
	cancel()
	if err != nil || question == "" {
		if err != nil {
			m.logger.Warn("generate prompt", "error", err)
		}
		m.fail("prompt")
		m.show(m.display.ShowText(StatusQuestionFailed))
		return
	}
	m.logger.Info("daily question", "question", question)
	m.show(m.display.ShowLines("Daily", question))
	m.speak(ctx, question, voice.ClassSystem)
}

func (m *Machine) processDaily(ctx context.Context, art *artifact.Artifact) {
	defer m.pause(ctx, m.statusPause)
	text, ok := m.transcribe(ctx, art)
	if !ok {
		return
	}
	id, err := m.store.Add(ctx, text, Daily.String())
	if err != nil {
		m.fail("store")
		m.logger.Error("save memory", "error", err)
		m.show(m.display.ShowText(StatusSaveFailed))
		return
	}
	m.logger.Info("memory saved", "id", id)
	m.show(m.display.ShowLines(StatusSaved, fmt.Sprintf("ID: %d", id)))
	m.playSound(ctx)
}

func (m *Machine) processChat(ctx context.Context, art *artifact.Artifact) {
	defer m.pause(ctx, m.statusPause/2)
	text, ok := m.transcribe(ctx, art)
	if !ok {
		return
	}
	if _, err := m.store.Add(ctx, UserPrefix+text, Chat.String()); err != nil {
		m.fail("store")
		m.logger.Error("save utterance", "error", err)
	}

	m.show(m.display.ShowText(StatusThinking))
	related := m.related(ctx, text)
	cctx, cancel := m.call(ctx)
	reply, err := m.ai.GenerateReply(cctx, text, related)
	cancel()
	if err != nil || reply == "" {
		if err != nil {
			m.logger.Warn("generate reply", "error", err)
		}
		m.fail("reply")
		m.show(m.display.ShowText(StatusNoResponse))
		return
	}
	if _, err := m.store.Add(ctx, AIPrefix+reply, Chat.String()); err != nil {
		m.fail("store")
		m.logger.Error("save reply", "error", err)
	}
	m.show(m.display.ShowLines("Reply", preview(reply)))
	m.speak(ctx, reply, voice.ClassPersona)
}

// transcribe returns the recognized text, or false after showing
// StatusNotRecognized.
func (m *Machine) transcribe(ctx context.Context, art *artifact.Artifact) (string, bool) {
	cctx, cancel := m.call(ctx)
	text, err := m.ai.Transcribe(cctx, art.Path)
	cancel()
	if err != nil {
		m.fail("transcribe")
		m.logger.Warn("transcribe", "artifact", art.String(), "error", err)
	}
	if err != nil || text == "" {
		m.show(m.display.ShowText(StatusNotRecognized))
		return "", false
	}
	m.logger.Info("transcribed", "text", text)
	return text, true
}

func (m *Machine) speak(ctx context.Context, text string, class voice.Class) {
	cctx, cancel := m.call(ctx)
	defer cancel()
	url, err := m.audio.SynthesizeAndPlay(cctx, text, class)
	if err != nil {
		m.fail("synthesize")
		m.logger.Warn("synthesize", "class", class, "error", err)
		return
	}
	m.logger.Debug("spoken", "class", class, "url", url)
}

func (m *Machine) playSound(ctx context.Context) {
	if err := m.audio.PlaySound(ctx, ThinkingSound); err != nil {
		m.fail("sound")
		m.logger.Warn("play sound", "name", ThinkingSound, "error", err)
	}
}

func preview(s string) string {
	r := []rune(s)
	if len(r) <= replyPreview {
		return s
	}
	return string(r[:replyPreview]) + "..."
}

func (m *Machine) enterDiary(ctx context.Context) {
	dates, err := m.store.Dates(ctx, diaryDateWindow)
	if err != nil {
		m.fail("store")
		m.logger.Warn("load diary dates", "error", err)
	}
	m.mu.Lock()
	m.diaryDates = dates
	m.diaryCursor = 0
	m.mu.Unlock()
	if len(dates) == 0 {
		m.show(m.display.ShowLines("Diary", "No entries"))
		return
	}
	m.showDiary(ctx, dates[0])
}

func (m *Machine) navigateDiary(ctx context.Context, d int) {
	m.mu.Lock()
	if len(m.diaryDates) == 0 {
		m.mu.Unlock()
		return
	}
	m.diaryCursor = wrap(m.diaryCursor, d, len(m.diaryDates))
	day := m.diaryDates[m.diaryCursor]
	m.mu.Unlock()
	m.showDiary(ctx, day)
}

func (m *Machine) showDiary(ctx context.Context, day time.Time) {
	entries, err := m.store.ByDate(ctx, day)
	if err != nil {
		m.fail("store")
		m.logger.Warn("diary entries", "day", day, "error", err)
	}
	m.show(m.display.ShowLines("Diary", day.Format(time.DateOnly), fmt.Sprintf("%d entries", len(entries))))
}
