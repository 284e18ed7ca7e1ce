package echomemo

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/haivivi/echomemo/pkg/memstore"
)

const (
	maxKeywords     = 5
	searchKeywords  = 3
	searchLimit     = 3
	fallbackWindow  = 7 * 24 * time.Hour
	fallbackLimit   = 5
	diaryDateWindow = 100
)

var stopWords = map[string]bool{
	// Chinese function words.
	"的": true, "了": true, "是": true, "在": true, "有": true, "和": true,
	"就": true, "不": true, "人": true, "都": true, "一": true, "一個": true,
	"上": true, "也": true, "很": true, "到": true, "說": true, "要": true,
	"去": true, "你": true, "會": true, "著": true, "沒有": true, "看": true,
	"好": true, "自己": true, "這": true,

	"the": true, "and": true, "is": true, "are": true, "was": true,
	"to": true, "of": true, "in": true, "on": true, "it": true, "that": true,
	"this": true, "with": true, "for": true, "you": true, "me": true,
	"my": true, "what": true, "do": true, "did": true, "have": true,
}

// Keywords splits text on whitespace and keeps up to five tokens that are
// longer than one rune and are not stop-words.
func Keywords(text string) []string {
	var out []string
	for _, w := range strings.Fields(text) {
		if utf8.RuneCountInString(w) <= 1 || stopWords[strings.ToLower(w)] {
			continue
		}
		out = append(out, w)
		if len(out) == maxKeywords {
			break
		}
	}
	return out
}

// related finds memories sharing a keyword with text, falling back to the
// most recent week when nothing matches.
func (m *Machine) related(ctx context.Context, text string) []memstore.Entry {
	var (
		out  []memstore.Entry
		seen = make(map[uint64]bool)
	)
	kws := Keywords(text)
	if len(kws) > searchKeywords {
		kws = kws[:searchKeywords]
	}
	for _, kw := range kws {
		entries, err := m.store.Search(ctx, kw, searchLimit)
		if err != nil {
			m.logger.Warn("search memories", "keyword", kw, "error", err)
			continue
		}
		for _, e := range entries {
			if seen[e.ID] {
				continue
			}
			seen[e.ID] = true
			out = append(out, e)
		}
	}
	if len(out) > 0 {
		return out
	}
	recent, err := m.store.Recent(ctx, fallbackWindow, fallbackLimit)
	if err != nil {
		m.logger.Warn("recent memories", "error", err)
	}
	return recent
}
