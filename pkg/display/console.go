package display

import (
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the console colors.
type Theme struct {
	Primary lipgloss.Color
	Dim     lipgloss.Color
}

// DefaultTheme mimics the white-on-black OLED.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title  lipgloss.Style
	Text   lipgloss.Style
	Border lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Padding(0, 1),
		Text:   lipgloss.NewStyle(),
		Border: lipgloss.NewStyle().Foreground(t.Dim),
	}
}

// Console prints every screen as a framed block, the size of the OLED in
// character cells.
type Console struct {
	Title  string
	Width  int
	Height int
	Styles Styles

	mu sync.Mutex
	w  io.Writer
}

var _ Display = (*Console)(nil)

// NewConsole writes frames to w.
func NewConsole(w io.Writer) *Console {
	return &Console{
		Title:  "EchoMemo",
		Width:  24,
		Height: 5,
		Styles: NewStyles(DefaultTheme),
		w:      w,
	}
}

// Render returns the frame for lines.
func (c *Console) Render(lines []string) string {
	bc := c.Styles.Border
	width := max(c.Width, 8)
	inner := width - 4

	out := make([]string, 0, c.Height+2)
	title := c.Styles.Title.Render(c.Title)
	out = append(out, bc.Render("╭─")+title+bc.Render(strings.Repeat("─", max(0, width-3-lipgloss.Width(title)))+"╮"))
	for i := 0; i < c.Height; i++ {
		text := ""
		if i < len(lines) {
			text = lines[i]
		}
		if lipgloss.Width(text) > inner {
			text = truncate(text, inner-1) + "…"
		}
		out = append(out, bc.Render("│")+" "+c.Styles.Text.Render(text)+
			strings.Repeat(" ", max(0, inner-lipgloss.Width(text)))+" "+bc.Render("│"))
	}
	out = append(out, bc.Render("╰"+strings.Repeat("─", width-2)+"╯"))
	return strings.Join(out, "\n")
}

func (c *Console) show(lines []string) error {
	frame := c.Render(lines)
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := io.WriteString(c.w, frame+"\n")
	return err
}

func (c *Console) ShowText(text string) error { return c.show([]string{text}) }
func (c *Console) ShowLines(lines ...string) error { return c.show(lines) }
func (c *Console) ShowMode(label, status string) error { return c.show(ModeLines(label, status)) }
func (c *Console) Clear() error { return c.show(nil) }
func (c *Console) Close() error { return nil }

// truncate cuts s to at most width cells, keeping multi-byte runes whole.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	cur := 0
	for i, r := range runes {
		w := lipgloss.Width(string(r))
		if cur+w > width {
			return string(runes[:i])
		}
		cur += w
	}
	return s
}
