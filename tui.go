package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"hark/config"
	"hark/engine"
	"hark/pipeline"
)

type slotStateMsg struct {
	slot  int
	state engine.State
}
type deniedMsg struct{ slot int }
type slotErrorMsg struct {
	slot int
	text string
}
type resultMsg struct {
	slot int
	res  pipeline.Result
}
type levelMsg float64
type playingMsg bool
type tickMsg time.Time

const noticeTTL = 3 * time.Second

type slotRow struct {
	slot    config.Slot
	state   engine.State
	started time.Time
	last    string
	failed  bool
}

type tuiModel struct {
	rows     []slotRow
	device   string
	level    float64
	peak     float64
	playing  bool
	notice   string
	noticeAt time.Time
	now      time.Time
	width    int
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	keyStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	recStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	busyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	idleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	textStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	speakStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	meterOnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func newTUIModel(slots []config.Slot, device string) tuiModel {
	rows := make([]slotRow, len(slots))
	for i, s := range slots {
		rows[i] = slotRow{slot: s}
	}
	return tuiModel{rows: rows, device: device, now: time.Now()}
}

func tuiTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

func (m tuiModel) row(slot int) *slotRow {
	for i := range m.rows {
		if m.rows[i].slot.ID == slot {
			return &m.rows[i]
		}
	}
	return nil
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}

	case tickMsg:
		m.now = time.Time(msg)
		return m, tuiTick()

	case slotStateMsg:
		if r := m.row(msg.slot); r != nil {
			r.state = msg.state
			if msg.state == engine.Recording {
				r.started = time.Now()
				m.level, m.peak = 0, 0
			}
		}

	case deniedMsg:
		m.notice = fmt.Sprintf("slot %d: another hotkey is active", msg.slot)
		m.noticeAt = time.Now()

	case slotErrorMsg:
		if r := m.row(msg.slot); r != nil {
			r.last = msg.text
			r.failed = true
		}

	case resultMsg:
		if r := m.row(msg.slot); r != nil {
			r.failed = false
			switch msg.res.Kind {
			case pipeline.ClipboardText:
				r.last = msg.res.Text + "  [copied]"
			case pipeline.SpokenResponse:
				r.last = "> " + msg.res.Transcript + "\n" + msg.res.Text
			}
		}

	case levelMsg:
		m.level = m.level*0.6 + float64(msg)*0.4
		m.peak = max(m.peak, float64(msg))

	case playingMsg:
		m.playing = bool(msg)
	}
	return m, nil
}

func (m tuiModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("hark "+version) + "\n")
	if m.device != "" {
		b.WriteString(dimStyle.Render("mic: "+m.device) + "\n")
	}
	b.WriteString("\n")

	wrapWidth := max(m.width-6, 20)
	for _, r := range m.rows {
		head := fmt.Sprintf("%s  %-6s -> %-9s ", keyStyle.Render(fmt.Sprintf("%-6s", r.slot.Key)), r.slot.Mode, r.slot.Sink)
		b.WriteString(head + m.renderState(r) + "\n")
		if r.last == "" {
			continue
		}
		style := textStyle
		if r.failed {
			style = errStyle
		}
		for _, para := range strings.Split(r.last, "\n") {
			for _, line := range wrapText(para, wrapWidth) {
				b.WriteString("    " + style.Render(line) + "\n")
			}
		}
	}

	b.WriteString("\n")
	if m.playing {
		b.WriteString(speakStyle.Render("♪ speaking (any hotkey stops playback)") + "\n")
	}
	if m.notice != "" && m.now.Sub(m.noticeAt) < noticeTTL {
		b.WriteString(errStyle.Render(m.notice) + "\n")
	}
	b.WriteString(helpStyle.Render("q to quit") + "\n")
	return b.String()
}

func (m tuiModel) renderState(r slotRow) string {
	switch r.state {
	case engine.Recording:
		secs := m.now.Sub(r.started).Seconds()
		if secs < 0 {
			secs = 0
		}
		s := recStyle.Render(fmt.Sprintf("● REC %.1fs ", secs)) + renderMeter(m.level, 12)
		if secs > 1 && m.peak < 0.02 {
			s += errStyle.Render("  no voice detected")
		}
		return s
	case engine.Processing:
		return busyStyle.Render("… processing")
	}
	return idleStyle.Render("○ idle")
}

// renderMeter draws level (0..1, boosted for speech) as a bar of width cells.
func renderMeter(level float64, width int) string {
	n := min(int(level*10*float64(width)), width)
	return meterOnStyle.Render(strings.Repeat("▮", n)) + dimStyle.Render(strings.Repeat("▯", width-n))
}

func wrapText(text string, width int) []string {
	if len(text) == 0 {
		return []string{""}
	}
	if width <= 0 {
		width = 1
	}

	var lines []string
	for len(text) > width {
		splitAt := width
		for i := width; i > 0; i-- {
			if text[i] == ' ' {
				splitAt = i
				break
			}
		}
		lines = append(lines, text[:splitAt])
		text = strings.TrimLeft(text[splitAt:], " ")
	}
	if len(text) > 0 {
		lines = append(lines, text)
	}
	return lines
}
