// Package ui provides the Bubble Tea dashboard interface.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/verte-zerg/triviadash/internal/dashboard"
	"github.com/verte-zerg/triviadash/internal/logger"
	"github.com/verte-zerg/triviadash/internal/model"
	"github.com/verte-zerg/triviadash/internal/store"
)

const (
	tabCategories = iota
	tabDifficulty
	tabTable
)

const progressBuffer = 32

// SnapshotRecorder persists count snapshots.
type SnapshotRecorder interface {
	InsertSnapshot(ctx context.Context, snap model.Snapshot) (int64, error)
}

// Options configures the dashboard UI.
type Options struct {
	Loader   *dashboard.Loader
	Recorder SnapshotRecorder
	Logger   *logger.Logger
}

type loadProgressMsg struct {
	pct float64
	msg string
}

type loadDoneMsg struct {
	err error
}

type analyzeDoneMsg struct {
	err error
}

type snapshotSavedMsg struct {
	id   int64
	mode model.Mode
	err  error
}

// Model implements the Bubble Tea dashboard UI.
type Model struct {
	ctx      context.Context
	cancel   context.CancelFunc
	loader   *dashboard.Loader
	state    *dashboard.State
	recorder SnapshotRecorder
	log      *logger.Logger

	progressCh chan loadProgressMsg
	spinner    spinner.Model
	progress   progress.Model

	tabs       []string
	activeTab  int
	viewports  []viewport.Model
	countTable table.Model

	status string

	width  int
	height int
}

// NewModel constructs the dashboard UI. The load starts from Init.
func NewModel(ctx context.Context, opts Options) *Model {
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	ctx, cancel := context.WithCancel(ctx)
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle
	m := &Model{
		ctx:      ctx,
		cancel:   cancel,
		loader:   opts.Loader,
		state:    opts.Loader.State(),
		recorder: opts.Recorder,
		log:      log.WithComponent("ui"),
		spinner:  sp,
		progress: progress.New(progress.WithDefaultGradient()),
		tabs:     []string{"Categories", "Difficulty", "Table"},
	}
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.countTable = table.New(
		table.WithColumns(countTableColumns()),
		table.WithHeight(1),
	)
	m.countTable.SetStyles(countTableStyles())
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.startLoad()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.refreshContent()
		return m, nil
	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case loadProgressMsg:
		return m, waitForProgress(m.progressCh)
	case loadDoneMsg:
		if msg.err != nil {
			if errors.Is(msg.err, context.Canceled) {
				return m, nil
			}
			m.log.Warn("load failed", logger.Err(msg.err))
			return m, nil
		}
		m.updateLayout()
		m.refreshContent()
		return m, m.saveSnapshot(model.ModeDatabase)
	case analyzeDoneMsg:
		m.refreshContent()
		if msg.err != nil {
			return m, nil
		}
		return m, m.saveSnapshot(model.ModeSample)
	case snapshotSavedMsg:
		if msg.err != nil {
			m.log.Warn("snapshot not saved", logger.F("mode", msg.mode), logger.Err(msg.err))
			m.status = fmt.Sprintf("Snapshot failed: %v", msg.err)
			return m, nil
		}
		m.status = fmt.Sprintf("Saved %s snapshot #%d", msg.mode, msg.id)
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
		m.cancel()
		return m, tea.Quit
	}
	switch m.state.Phase() {
	case dashboard.PhaseError:
		if msg.String() == "r" {
			m.state.ClearError()
			return m, m.startLoad()
		}
		return m, nil
	case dashboard.PhaseReady:
	default:
		return m, nil
	}

	if m.activeTab == tabTable {
		m.countTable.Focus()
	} else {
		m.countTable.Blur()
	}

	switch msg.String() {
	case "left", "h":
		m.moveTab(-1)
		return m, tea.ClearScreen
	case "right", "l":
		m.moveTab(1)
		return m, tea.ClearScreen
	case "m":
		next := model.ModeSample
		if m.state.Mode() == model.ModeSample {
			next = model.ModeDatabase
		}
		m.state.SetMode(next)
		m.status = ""
		m.contentChanged()
		return m, nil
	case "]":
		m.state.CycleCategory(1)
		m.contentChanged()
		return m, nil
	case "[":
		m.state.CycleCategory(-1)
		m.contentChanged()
		return m, nil
	case "0", "esc":
		m.state.SelectCategory(nil)
		m.contentChanged()
		return m, nil
	case "=", "+":
		m.state.SetSampleSize(m.state.SampleSize() + dashboard.SampleSizeStep)
		m.updateLayout()
		return m, nil
	case "-":
		m.state.SetSampleSize(m.state.SampleSize() - dashboard.SampleSizeStep)
		m.updateLayout()
		return m, nil
	case "a":
		if m.state.Mode() != model.ModeSample || m.state.Analyzing() {
			return m, nil
		}
		return m, m.startAnalyze()
	case "s":
		return m, m.saveSnapshot(m.state.Mode())
	case "g", "home":
		if m.activeTab == tabTable {
			m.countTable.GotoTop()
		} else {
			m.viewports[m.activeTab].GotoTop()
		}
		return m, nil
	case "G", "end":
		if m.activeTab == tabTable {
			m.countTable.GotoBottom()
		} else {
			m.viewports[m.activeTab].GotoBottom()
		}
		return m, nil
	default:
		if m.activeTab == tabTable {
			var cmd tea.Cmd
			m.countTable, cmd = m.countTable.Update(msg)
			return m, cmd
		}
		vp := m.viewports[m.activeTab]
		var cmd tea.Cmd
		vp, cmd = vp.Update(msg)
		m.viewports[m.activeTab] = vp
		return m, cmd
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	switch m.state.Phase() {
	case dashboard.PhaseIdle, dashboard.PhaseLoading:
		return m.renderLoading()
	case dashboard.PhaseError:
		return m.renderError()
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) busy() bool {
	return m.state.Phase() == dashboard.PhaseLoading || m.state.Analyzing()
}

func (m *Model) startLoad() tea.Cmd {
	ch := make(chan loadProgressMsg, progressBuffer)
	m.progressCh = ch
	m.status = ""
	m.state.BeginLoad()
	loader := m.loader
	ctx := m.ctx
	run := func() tea.Msg {
		defer close(ch)
		err := loader.Load(ctx, func(pct float64, msg string) {
			select {
			case ch <- loadProgressMsg{pct: pct, msg: msg}:
			default:
				// The state already holds the latest value.
			}
		})
		return loadDoneMsg{err: err}
	}
	return tea.Batch(m.spinner.Tick, run, waitForProgress(ch))
}

func waitForProgress(ch <-chan loadProgressMsg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func (m *Model) startAnalyze() tea.Cmd {
	analyze, err := m.loader.StartAnalyze()
	if err != nil {
		return nil
	}
	m.status = ""
	ctx := m.ctx
	run := func() tea.Msg {
		return analyzeDoneMsg{err: analyze(ctx)}
	}
	return tea.Batch(m.spinner.Tick, run)
}

func (m *Model) saveSnapshot(mode model.Mode) tea.Cmd {
	if m.recorder == nil {
		return nil
	}
	var counts []model.CategoryQuestionCount
	if mode == model.ModeSample {
		counts = m.state.SampleCounts()
	} else {
		counts = m.state.DatabaseCounts()
	}
	if len(counts) == 0 {
		return nil
	}
	snap := store.NewSnapshot(mode, m.state.SampleSize(), m.state.Categories(), counts)
	recorder := m.recorder
	ctx := m.ctx
	return func() tea.Msg {
		id, err := recorder.InsertSnapshot(ctx, snap)
		return snapshotSavedMsg{id: id, mode: mode, err: err}
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	if count == 0 {
		return
	}
	m.activeTab = ((m.activeTab+delta)%count + count) % count
	if m.activeTab == tabTable {
		m.countTable.Focus()
	} else {
		m.countTable.Blur()
	}
}

func (m *Model) contentChanged() {
	m.updateLayout()
	m.refreshContent()
	for i := range m.viewports {
		m.viewports[i].GotoTop()
	}
	m.countTable.GotoTop()
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := max(1, lipgloss.Height(activeNavStyle.Render("X")))
	headerHeight = tabsHeight + 1 + lipgloss.Height(m.renderChipRow())
	if m.state.Mode() == model.ModeSample {
		headerHeight++
	}
	footerHeight = 1
	if m.footerNotice() != "" {
		footerHeight++
	}
	bodyHeight = max(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = bodyHeight
	}
	m.countTable.SetWidth(m.width)
	m.countTable.SetHeight(max(1, bodyHeight-1))
	m.progress.Width = max(10, min(m.width-8, 60))
}

func (m *Model) refreshContent() {
	if m.state.Phase() != dashboard.PhaseReady {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabCategories].SetContent(renderCategoriesTab(m.state, width))
	m.viewports[tabDifficulty].SetContent(renderDifficultyTab(m.state, width))
	m.countTable.SetColumns(countTableColumns())
	m.countTable.SetRows(countTableRows(m.state))
}

func (m *Model) renderLoading() string {
	pct, msg := m.state.Progress()
	if msg == "" {
		msg = "Loading..."
	}
	lines := []string{
		m.spinner.View() + " " + truncateLine(msg, max(1, m.width-4)),
		"",
		m.progress.ViewAs(pct / 100),
	}
	content := strings.Join(lines, "\n")
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m *Model) renderError() string {
	content := strings.Join([]string{
		errorStyle.Render("Error"),
		truncateLine(m.state.Error(), max(1, m.width-4)),
		"",
		headerStyle.Render("r: retry  q: quit"),
	}, "\n")
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
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
	lines := []string{
		padLines(m.renderTabs(), m.width),
		m.renderSummary(),
	}
	if m.state.Mode() == model.ModeSample {
		lines = append(lines, m.renderSampleControls())
	}
	lines = append(lines, m.renderChipRow())
	return strings.Join(lines, "\n")
}

func (m *Model) renderSummary() string {
	title := "Database Overview"
	if m.state.Mode() == model.ModeSample {
		title = "Sample Analysis"
	}
	showing := allCategoriesLabel
	if sel := m.state.Selected(); sel != nil {
		showing = categoryName(m.state.Categories(), *sel)
	}
	detail := fmt.Sprintf("  Showing: %s  %s questions", showing, humanize.Comma(int64(m.state.TotalQuestions())))
	avail := max(0, m.width-lipgloss.Width(title))
	return titleStyle.Render(title) + headerStyle.Render(truncateLine(detail, avail))
}

func (m *Model) renderSampleControls() string {
	size := m.state.SampleSize()
	action := fmt.Sprintf("a: Analyze %d Questions", size)
	if m.state.Analyzing() {
		action = m.spinner.View() + " Analyzing..."
	}
	line := fmt.Sprintf("Sample size: %d (-/=)  %s  Max %d questions per request (API limit)", size, action, dashboard.MaxSampleSize)
	return headerStyle.Render(truncateLine(line, m.width))
}

func (m *Model) renderChipRow() string {
	return renderChips(m.state.AvailableCategories(), m.state.Selected(), m.width)
}

func (m *Model) renderBody() string {
	if m.activeTab == tabTable {
		if len(m.countTable.Rows()) == 0 {
			return emptyMessage(m.state)
		}
		return tableMutedStyle.Render(m.countTable.View())
	}
	return m.viewports[m.activeTab].View()
}

func (m *Model) renderHelp() string {
	help := "Nav: left/right  Mode: m  Filter: [ ] 0  Snapshot: s  Quit: q"
	if m.state.Mode() == model.ModeSample {
		help = "Nav: left/right  Mode: m  Filter: [ ] 0  Size: -/=  Analyze: a  Snapshot: s  Quit: q"
	}
	return headerStyle.Render(truncateLine(help, m.width))
}

func (m *Model) footerNotice() string {
	if err := m.state.Error(); err != "" {
		return errorStyle.Render(truncateLine(err, m.width))
	}
	if m.status != "" {
		return statusStyle.Render(truncateLine(m.status, m.width))
	}
	return ""
}

func (m *Model) renderFooter() string {
	if notice := m.footerNotice(); notice != "" {
		return m.renderHelp() + "\n" + notice
	}
	return m.renderHelp()
}
