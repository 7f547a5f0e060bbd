// Package tui provides the Bubble Tea typing interface.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/typespeed/internal/generator"
	"github.com/verte-zerg/typespeed/internal/logger"
	"github.com/verte-zerg/typespeed/internal/model"
	"github.com/verte-zerg/typespeed/internal/stats"
	"github.com/verte-zerg/typespeed/internal/tracker"
)

const (
	submitTimeout = 10 * time.Second
	missedShown   = 3
)

// Submitter persists completed results, locally or on a remote server.
type Submitter interface {
	Create(ctx context.Context, in model.NewTestResult) (*model.TestResult, error)
}

type submitStatus int

const (
	submitNone submitStatus = iota
	submitPending
	submitDone
	submitFailed
	submitSkipped
)

type tickMsg struct {
	generation int
}

type submittedMsg struct {
	generation int
	result     *model.TestResult
	err        error
}

type keyMap struct {
	Quit     key.Binding
	Retake   key.Binding
	Resubmit key.Binding
}

var keys = keyMap{
	Quit:     key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
	Retake:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "new test")),
	Resubmit: key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "retry save")),
}

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	cursorStyle      = currentWordStyle.Underline(true)
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	titleStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
)

// Model implements the Bubble Tea typing UI.
type Model struct {
	config    model.PracticeConfig
	session   *tracker.Session
	submitter Submitter
	gen       *generator.Generator
	words     []string
	log       *logger.Logger

	width  int
	height int
	bar    progress.Model

	// generation invalidates ticks and submissions of earlier tests.
	generation int
	ticking    bool

	pending   model.NewTestResult
	status    submitStatus
	saved     *model.TestResult
	submitErr error
}

// NewModel constructs a typing TUI model. A nil submitter keeps results unsaved.
func NewModel(cfg model.PracticeConfig, submitter Submitter, gen *generator.Generator, words []string, log *logger.Logger) (*Model, error) {
	if log == nil {
		log = logger.Nop()
	}
	m := &Model{
		config:    cfg,
		submitter: submitter,
		gen:       gen,
		words:     words,
		log:       log,
		bar:       progress.New(progress.WithSolidFill("#C89A3A"), progress.WithoutPercentage()),
	}
	session, err := tracker.New(m.nextText(), cfg.Duration, cfg.Difficulty)
	if err != nil {
		return nil, err
	}
	m.session = session
	return m, nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = maxInt(10, int(float64(m.width)*0.70))
		return m, nil
	case tickMsg:
		return m, m.handleTick(msg)
	case submittedMsg:
		m.handleSubmitted(msg)
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	var body string
	if m.session.State() == tracker.Completed {
		body = m.renderSummary()
	} else {
		body = m.renderText()
	}
	footer := m.renderFooter()
	if m.width == 0 || m.height == 0 {
		return body + "\n" + footer
	}
	if m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
	}
	bodyHeight := m.height - 2
	bodyView := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, body)
	barLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, m.bar.ViewAs(m.timeFraction()))
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return bodyView + "\n" + barLine + "\n" + footerLine
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Retake):
		m.retake()
		return m, nil
	case key.Matches(msg, keys.Resubmit):
		if m.status == submitFailed {
			return m, m.submit()
		}
		return m, nil
	}
	if m.session.State() == tracker.Completed {
		return m, nil
	}
	switch msg.Type {
	case tea.KeyBackspace, tea.KeyDelete:
		m.session.Backspace()
	case tea.KeySpace:
		m.session.Type(' ')
	case tea.KeyRunes:
		for _, r := range msg.Runes {
			m.session.Type(r)
		}
	default:
		return m, nil
	}
	return m, m.afterInput()
}

// afterInput starts the clock on the first keystroke and submits once the
// text is finished.
func (m *Model) afterInput() tea.Cmd {
	var cmds []tea.Cmd
	if m.session.State() != tracker.Idle && !m.ticking {
		m.ticking = true
		cmds = append(cmds, m.tick())
	}
	if m.session.State() == tracker.Completed {
		cmds = append(cmds, m.complete())
	}
	return tea.Batch(cmds...)
}

func (m *Model) handleTick(msg tickMsg) tea.Cmd {
	if msg.generation != m.generation || m.session.State() != tracker.Running {
		if msg.generation == m.generation {
			m.ticking = false
		}
		return nil
	}
	m.session.Tick()
	if m.session.State() == tracker.Completed {
		m.ticking = false
		return m.complete()
	}
	return m.tick()
}

func (m *Model) tick() tea.Cmd {
	generation := m.generation
	return tea.Tick(tracker.TickInterval, func(time.Time) tea.Msg {
		return tickMsg{generation: generation}
	})
}

func (m *Model) complete() tea.Cmd {
	if m.status != submitNone {
		return nil
	}
	result, ok := m.session.Result(m.config.Username)
	if !ok {
		m.status = submitSkipped
		return nil
	}
	m.pending = result
	m.log.Info("test completed",
		"difficulty", result.Difficulty,
		"wpm", result.WPM,
		"accuracy", result.Accuracy,
		"total_time", result.TotalTime,
	)
	if m.submitter == nil || m.config.Username == "" {
		m.status = submitSkipped
		return nil
	}
	return m.submit()
}

func (m *Model) submit() tea.Cmd {
	m.status = submitPending
	m.submitErr = nil
	generation := m.generation
	payload := m.pending
	submitter := m.submitter
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
		defer cancel()
		res, err := submitter.Create(ctx, payload)
		return submittedMsg{generation: generation, result: res, err: err}
	}
}

func (m *Model) handleSubmitted(msg submittedMsg) {
	if msg.generation != m.generation {
		return
	}
	if msg.err != nil {
		m.status = submitFailed
		m.submitErr = msg.err
		m.log.Warn("failed to save result", "error", msg.err)
		return
	}
	m.status = submitDone
	m.saved = msg.result
	if msg.result != nil {
		m.log.Debug("result saved", "id", msg.result.ID)
	}
}

func (m *Model) retake() {
	m.generation++
	m.ticking = false
	m.status = submitNone
	m.saved = nil
	m.submitErr = nil
	m.pending = model.NewTestResult{}
	m.session.Retake(m.nextText())
}

func (m *Model) nextText() string {
	count := m.config.Words
	if count <= 0 {
		count = generator.DefaultWordCount
	}
	return m.gen.Text(m.config.Difficulty, m.words, count)
}

func (m *Model) timeFraction() float64 {
	total := m.session.Duration().Seconds()
	if total <= 0 {
		return 0
	}
	return m.session.Elapsed().Seconds() / total
}

func (m *Model) renderText() string {
	styled := buildStyledRunes(m.session.Characters())
	if m.width == 0 {
		return renderStyledRunes(styled)
	}
	contentWidth := maxInt(1, int(float64(m.width)*0.70))
	wrapped := wrapStyledRunes(styled, contentWidth)
	return lipgloss.NewStyle().Width(contentWidth).Render(wrapped)
}

func (m *Model) renderSummary() string {
	st := m.session.Stats()
	lines := []string{
		titleStyle.Render("Test complete"),
		"",
		fmt.Sprintf("%d WPM  %d CPM  %d%% accuracy", st.WPM, st.CPM, st.Accuracy),
		fmt.Sprintf("%d of %d characters correct", st.CorrectChars, st.TotalChars),
	}
	if st.CorrectChars > 0 && m.session.Elapsed() < tracker.TickInterval {
		lines = append(lines, footerStyle.Render("Finished within the first second, so speed reads 0."))
	}
	if missed := stats.TopMissed(m.session.Mistakes(), missedShown); len(missed) > 0 {
		parts := make([]string, len(missed))
		for i, mc := range missed {
			parts[i] = fmt.Sprintf("%s ×%d", stats.CharLabel(mc.Char), mc.Count)
		}
		lines = append(lines, "Most missed: "+strings.Join(parts, ", "))
	}
	lines = append(lines, "", m.renderStatus())
	return strings.Join(lines, "\n")
}

func (m *Model) renderStatus() string {
	switch m.status {
	case submitPending:
		return footerStyle.Render("Saving result...")
	case submitDone:
		return footerStyle.Render("Result saved.")
	case submitFailed:
		return errorStyle.Render(fmt.Sprintf("Save failed: %v (%s)", m.submitErr, keys.Resubmit.Help().Key+" to retry"))
	case submitSkipped:
		if m.pending.TotalCharacters == 0 {
			return footerStyle.Render("Nothing typed, result not saved.")
		}
		return footerStyle.Render("Result not saved (no username configured).")
	default:
		return ""
	}
}

func (m *Model) renderFooter() string {
	st := m.session.Stats()
	segments := []string{
		fmt.Sprintf("Time %s", formatClock(st.TimeRemaining)),
		fmt.Sprintf("WPM %d", st.WPM),
		fmt.Sprintf("CPM %d", st.CPM),
		fmt.Sprintf("Acc %d%%", st.Accuracy),
		string(m.session.Difficulty()),
	}
	help := []string{keys.Retake.Help().Key + " " + keys.Retake.Help().Desc, keys.Quit.Help().Key + " " + keys.Quit.Help().Desc}
	return footerStyle.Render(strings.Join(segments, "  ") + "    " + strings.Join(help, "  "))
}

func formatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
