package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TUI message types
type RecordingStartMsg struct{}
type RecordingStopMsg struct{}
type RecordingTickMsg struct{ Seconds float64 }
type AudioLevelMsg struct{ Level float64 }
type TranscribingMsg struct{}
type SilenceWarningMsg struct{ On bool }
type TranscriptionMsg struct {
	Text     string
	NoSpeech bool
}
type StatusMsg struct{ Text string }
type ModeLineMsg struct{ Text string }
type DeviceLineMsg struct{ Text string }
type tickMsg time.Time

type tuiState int

const (
	tuiStateIdle tuiState = iota
	tuiStateRecording
	tuiStateTranscribing
)

const meterWidth = 30

var (
	styleRec     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	styleBusy    = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	styleIdle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	styleWarn    = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	styleText    = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	styleHelp    = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	styleMeterLo = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleMeterHi = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type tuiModel struct {
	state         tuiState
	frame         int
	duration      float64
	level         float64
	warning       bool
	lastText      string
	noSpeech      bool
	status        string
	msgCount      int
	modeLine      string
	deviceLine    string
	comboLine     string
	width, height int
}

func NewTUIProgram(combo string) *tea.Program {
	return tea.NewProgram(tuiModel{comboLine: combo})
}

func tuiTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}

	case tickMsg:
		m.frame++
		return m, tuiTick()

	case RecordingStartMsg:
		m.state = tuiStateRecording
		m.duration = 0
		m.level = 0
		m.warning = false
		m.status = ""

	case RecordingStopMsg:
		m.state = tuiStateIdle
		m.level = 0
		m.warning = false

	case TranscribingMsg:
		m.state = tuiStateTranscribing

	case RecordingTickMsg:
		m.duration = msg.Seconds

	case AudioLevelMsg:
		if m.state == tuiStateRecording {
			// smooth the meter so it doesn't flicker
			m.level = m.level*0.6 + msg.Level*0.4
		}

	case SilenceWarningMsg:
		m.warning = msg.On

	case TranscriptionMsg:
		m.state = tuiStateIdle
		m.msgCount++
		m.lastText = msg.Text
		m.noSpeech = msg.NoSpeech

	case StatusMsg:
		m.state = tuiStateIdle
		m.status = msg.Text

	case ModeLineMsg:
		m.modeLine = msg.Text

	case DeviceLineMsg:
		m.deviceLine = msg.Text
	}
	return m, nil
}

func (m tuiModel) View() string {
	var b strings.Builder

	switch m.state {
	case tuiStateRecording:
		b.WriteString(styleRec.Render(fmt.Sprintf("● REC %.1fs", m.duration)))
		b.WriteString("\n")
		b.WriteString(renderMeter(m.level))
		if m.warning {
			b.WriteString("\n")
			b.WriteString(styleWarn.Render("  no speech detected"))
		}
	case tuiStateTranscribing:
		b.WriteString(styleBusy.Render("… transcribing" + spinner(m.frame)))
	default:
		b.WriteString(styleIdle.Render("○ ready"))
	}
	b.WriteString("\n\n")

	if m.lastText != "" || m.noSpeech {
		title := styleDim.Render(fmt.Sprintf("#%d", m.msgCount))
		b.WriteString(title + " ")
		text := m.lastText
		style := styleText
		if m.noSpeech {
			text = "(no speech detected)"
			style = styleWarn
		}
		width := m.width - 6
		if width < 20 {
			width = 60
		}
		for i, line := range wrapText(text, width) {
			if i > 0 {
				b.WriteString("   ")
			}
			b.WriteString(style.Render(line))
			b.WriteString("\n")
		}
	}
	if m.status != "" {
		b.WriteString(styleWarn.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.modeLine != "" {
		b.WriteString(styleDim.Render(m.modeLine))
		b.WriteString("\n")
	}
	if m.deviceLine != "" {
		b.WriteString(styleIdle.Render(m.deviceLine))
		b.WriteString("\n")
	}
	b.WriteString(styleHelp.Render(m.comboLine + " to dictate, q to quit"))
	b.WriteString("\n")

	return b.String()
}

func renderMeter(level float64) string {
	filled := int(level * meterWidth)
	if filled > meterWidth {
		filled = meterWidth
	}
	var b strings.Builder
	for i := 0; i < meterWidth; i++ {
		switch {
		case i >= filled:
			b.WriteString(styleIdle.Render("░"))
		case i >= meterWidth*3/4:
			b.WriteString(styleMeterHi.Render("█"))
		default:
			b.WriteString(styleMeterLo.Render("█"))
		}
	}
	return b.String()
}

var spinnerFrames = []string{"   ", ".  ", ".. ", "..."}

func spinner(frame int) string {
	return spinnerFrames[(frame/3)%len(spinnerFrames)]
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

// tuiSink forwards orchestrator events into the Bubble Tea program.
// Sends are non-blocking from the caller's perspective; bubbletea
// queues them internally.
type tuiSink struct {
	p *tea.Program
}

func (s *tuiSink) RecordingStart()          { s.p.Send(RecordingStartMsg{}) }
func (s *tuiSink) RecordingStop()           { s.p.Send(RecordingStopMsg{}) }
func (s *tuiSink) RecordingTick(d float64)  { s.p.Send(RecordingTickMsg{Seconds: d}) }
func (s *tuiSink) AudioLevel(level float64) { s.p.Send(AudioLevelMsg{Level: level}) }
func (s *tuiSink) Transcribing()            { s.p.Send(TranscribingMsg{}) }
func (s *tuiSink) SilenceWarning(on bool)   { s.p.Send(SilenceWarningMsg{On: on}) }
func (s *tuiSink) Status(text string)       { s.p.Send(StatusMsg{Text: text}) }
func (s *tuiSink) Transcription(text string, noSpeech bool) {
	s.p.Send(TranscriptionMsg{Text: text, NoSpeech: noSpeech})
}
