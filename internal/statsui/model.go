// Package statsui provides the Bubble Tea results browser.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/typespeed/internal/model"
	"github.com/verte-zerg/typespeed/internal/stats"
)

const (
	tabOverview = iota
	tabHistory
	tabLeaderboard
)

const (
	defaultLast        = 50
	defaultWindow      = 5
	leaderboardSize    = 25
	cardsBreakpoint    = 80
	narrowFallbackSize = 80
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Source provides the results shown by the browser.
type Source interface {
	stats.Querier
	Leaderboard(ctx context.Context, difficulty model.Difficulty, limit int) ([]model.TestResult, error)
}

// Config selects what the browser loads.
type Config struct {
	Username    string
	Difficulty  model.Difficulty
	Last        int
	CurveWindow int
}

// Model implements the Bubble Tea stats UI.
type Model struct {
	source Source
	cfg    Config

	report stats.Report
	board  []model.TestResult
	errMsg string

	tabs      []string
	activeTab int
	overview  viewport.Model
	history   table.Model
	ranking   table.Model

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string
}

// NewModel constructs a stats UI model and loads the first report.
func NewModel(source Source, cfg Config) *Model {
	if cfg.Last <= 0 {
		cfg.Last = defaultLast
	}
	if cfg.CurveWindow <= 0 {
		cfg.CurveWindow = defaultWindow
	}
	m := &Model{
		source:   source,
		cfg:      cfg,
		tabs:     []string{"Overview", "History", "Leaderboard"},
		overview: viewport.New(0, 0),
		history:  newTable(historyColumns()),
		ranking:  newTable(rankingColumns()),
	}
	m.initInputs()
	m.refresh()
	return m
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
		m.updateLayout()
		m.renderOverview()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || (!m.filterMode && msg.String() == "q") {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "=":
			m.cfg.CurveWindow = nextCurveWindow(m.cfg.CurveWindow)
			m.renderOverview()
			return m, nil
		case "-":
			m.cfg.CurveWindow = prevCurveWindow(m.cfg.CurveWindow)
			m.renderOverview()
			return m, nil
		case "r":
			m.refresh()
			return m, nil
		case "/":
			return m.startFilter()
		}
		var cmd tea.Cmd
		switch m.activeTab {
		case tabHistory:
			m.history, cmd = m.history.Update(msg)
		case tabLeaderboard:
			m.ranking, cmd = m.ranking.Update(msg)
		default:
			m.overview, cmd = m.overview.Update(msg)
		}
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("Difficulty (easy/medium/hard): "),
		newFilterInput("Last: "),
		newFilterInput("Curve window: "),
	}
	m.setInputsFromConfig()
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 16
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromConfig() {
	m.filterInputs[0].SetValue(string(m.cfg.Difficulty))
	m.filterInputs[1].SetValue(strconv.Itoa(m.cfg.Last))
	m.filterInputs[2].SetValue(strconv.Itoa(m.cfg.CurveWindow))
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := maxInt(1, lipgloss.Height(activeNavStyle.Render("X")))
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = maxInt(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.overview.Width = m.width
	m.overview.Height = bodyHeight
	for _, t := range []*table.Model{&m.history, &m.ranking} {
		t.SetWidth(m.width)
		t.SetHeight(maxInt(1, bodyHeight-1))
	}
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = maxInt(10, m.width-promptWidth-2)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := (m.activeTab + delta + count) % count
	m.activeTab = next
	m.history.Blur()
	m.ranking.Blur()
	switch m.activeTab {
	case tabHistory:
		m.history.Focus()
	case tabLeaderboard:
		m.ranking.Focus()
	}
}

// refresh reloads the report and the leaderboard from the source.
func (m *Model) refresh() {
	ctx := context.Background()
	filter := model.ResultFilter{Username: m.cfg.Username, Difficulty: m.cfg.Difficulty}
	report, err := stats.BuildReport(ctx, m.source, filter, m.cfg.Last)
	if err != nil {
		m.errMsg = err.Error()
		m.overview.SetContent("Failed to load stats.")
		return
	}
	board, err := m.source.Leaderboard(ctx, m.cfg.Difficulty, leaderboardSize)
	if err != nil {
		m.errMsg = err.Error()
		m.overview.SetContent("Failed to load leaderboard.")
		return
	}
	m.errMsg = ""
	m.report = report
	m.board = board
	m.history.SetRows(historyRows(report.Recent))
	m.ranking.SetRows(rankingRows(board, m.cfg.Username))
	m.renderOverview()
}

func (m *Model) renderOverview() {
	if m.errMsg != "" {
		return
	}
	width := m.width
	if width <= 0 {
		width = narrowFallbackSize
	}
	m.overview.SetContent(renderOverview(m.report, m.cfg.CurveWindow, width))
}

func renderOverview(report stats.Report, window, width int) string {
	if report.Stats == nil {
		return fmt.Sprintf("No results found for %s.", report.Username)
	}
	st := report.Stats
	cards := []string{
		metricCard("Tests", fmt.Sprintf("%d", st.TotalTests)),
		metricCard("Avg WPM", fmt.Sprintf("%.2f", st.AvgWPM)),
		metricCard("Best WPM", fmt.Sprintf("%.0f", st.BestWPM)),
		metricCard("Avg Acc", fmt.Sprintf("%.2f%%", st.AvgAccuracy)),
		metricCard("Trend", fmt.Sprintf("%+.2f WPM", st.Improvement.WPMChange)),
	}
	var summary string
	if width < cardsBreakpoint {
		summary = strings.Join(cards, "\n")
	} else {
		row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
		row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4])
		summary = lipgloss.JoinVertical(lipgloss.Left, row1, row2)
	}
	breakdown := headerStyle.Render(fmt.Sprintf("Easy %d  Medium %d  Hard %d",
		st.DifficultyBreakdown.Easy, st.DifficultyBreakdown.Medium, st.DifficultyBreakdown.Hard))

	var buf bytes.Buffer
	if err := stats.RenderCurve(&buf, report.Recent, window, width-len("WPM trend: ")); err != nil {
		return fmt.Sprintf("Failed to render curve: %v", err)
	}
	return strings.TrimRight(summary+"\n"+breakdown+"\n\n"+buf.String(), "\n")
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func newTable(columns []table.Column) table.Model {
	t := table.New(table.WithColumns(columns), table.WithHeight(1))
	t.SetStyles(tableStyles())
	return t
}

func historyColumns() []table.Column {
	return []table.Column{
		{Title: "Date", Width: 16},
		{Title: "Difficulty", Width: 10},
		{Title: "WPM", Width: 5},
		{Title: "CPM", Width: 5},
		{Title: "Accuracy", Width: 8},
		{Title: "Time", Width: 6},
	}
}

func rankingColumns() []table.Column {
	return []table.Column{
		{Title: "#", Width: 3},
		{Title: "User", Width: 20},
		{Title: "Difficulty", Width: 10},
		{Title: "WPM", Width: 5},
		{Title: "Accuracy", Width: 8},
		{Title: "Date", Width: 10},
	}
}

// historyRows lists results newest first; recent is oldest first.
func historyRows(recent []model.TestResult) []table.Row {
	rows := make([]table.Row, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		r := recent[i]
		rows = append(rows, table.Row{
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			string(r.Difficulty),
			fmt.Sprintf("%.0f", r.WPM),
			fmt.Sprintf("%.0f", r.CPM),
			fmt.Sprintf("%.0f%%", r.Accuracy),
			fmt.Sprintf("%ds", r.TotalTime),
		})
	}
	return rows
}

// rankingRows marks the rows of the browsing user with a star.
func rankingRows(board []model.TestResult, username string) []table.Row {
	rows := make([]table.Row, 0, len(board))
	for i, r := range board {
		user := r.Username
		if username != "" && r.Username == username {
			user = "* " + user
		}
		rows = append(rows, table.Row{
			strconv.Itoa(i + 1),
			user,
			string(r.Difficulty),
			fmt.Sprintf("%.0f", r.WPM),
			fmt.Sprintf("%.0f%%", r.Accuracy),
			r.CreatedAt.Local().Format("2006-01-02"),
		})
	}
	return rows
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	return padLines(m.renderTabs(), m.width) + "\n" + padLines(m.renderFilterSummary(), m.width)
}

func (m *Model) renderFilterSummary() string {
	difficulty := string(m.cfg.Difficulty)
	if difficulty == "" {
		difficulty = "all"
	}
	summary := fmt.Sprintf("User: %s  difficulty=%s  last=%d  window=%d",
		m.cfg.Username, difficulty, m.cfg.Last, m.cfg.CurveWindow)
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	help := headerStyle.Render("Nav: left/right  Scroll: up/down  Window: -/=  Filter: /  Reload: r  Quit: q")
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(m.errMsg)
	}
	return help
}

func (m *Model) renderBody() string {
	if m.filterMode {
		lines := []string{"Filter (enter to apply, esc to cancel)"}
		for _, input := range m.filterInputs {
			lines = append(lines, input.View())
		}
		if m.filterError != "" {
			lines = append(lines, errorStyle.Render(m.filterError))
		}
		return strings.Join(lines, "\n")
	}
	switch m.activeTab {
	case tabHistory:
		if len(m.report.Recent) == 0 {
			return "No results found."
		}
		return tableMutedStyle.Render(m.history.View())
	case tabLeaderboard:
		if len(m.board) == 0 {
			return "Leaderboard is empty."
		}
		return tableMutedStyle.Render(m.ranking.View())
	default:
		return m.overview.View()
	}
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromConfig()
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		cfg, err := m.parseFilter()
		if err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.cfg = cfg
		m.filterMode = false
		m.filterError = ""
		m.refresh()
		m.updateLayout()
		return m, nil
	case tea.KeyTab:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	idx = (idx + count) % count
	m.filterIndex = idx
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) parseFilter() (Config, error) {
	cfg := m.cfg
	cfg.Difficulty = ""
	if raw := strings.TrimSpace(m.filterInputs[0].Value()); raw != "" {
		d, err := model.ParseDifficulty(raw)
		if err != nil {
			return Config{}, err
		}
		cfg.Difficulty = d
	}
	last, err := strconv.Atoi(strings.TrimSpace(m.filterInputs[1].Value()))
	if err != nil || last < 1 || last > 1000 {
		return Config{}, fmt.Errorf("invalid last value (use 1-1000)")
	}
	cfg.Last = last
	window, err := strconv.Atoi(strings.TrimSpace(m.filterInputs[2].Value()))
	if err != nil || window < 1 {
		return Config{}, fmt.Errorf("invalid curve window (use integer >= 1)")
	}
	cfg.CurveWindow = window
	return cfg, nil
}

func nextCurveWindow(n int) int {
	if n < 5 {
		return 5
	}
	return ((n / 5) + 1) * 5
}

func prevCurveWindow(n int) int {
	if n <= 5 {
		return 1
	}
	if n%5 == 0 {
		return n - 5
	}
	return (n / 5) * 5
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
