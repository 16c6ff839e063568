package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/triviadash/internal/dashboard"
	"github.com/verte-zerg/triviadash/internal/model"
	"github.com/verte-zerg/triviadash/internal/opentdb"
)

type fakeSource struct {
	categories    []model.Category
	counts        []model.CategoryQuestionCount
	categoriesErr error
	questions     []model.Question
}

func (f *fakeSource) FetchCategories(context.Context) ([]model.Category, error) {
	return f.categories, f.categoriesErr
}

func (f *fakeSource) FetchAllCategoryCounts(_ context.Context, categories []model.Category, onProgress opentdb.ProgressFunc) ([]model.CategoryQuestionCount, error) {
	for i := range categories {
		onProgress(i+1, len(categories))
	}
	return f.counts, nil
}

func (f *fakeSource) FetchQuestions(context.Context, int, int, model.Difficulty) ([]model.Question, error) {
	return f.questions, nil
}

type fakeRecorder struct {
	snapshots []model.Snapshot
}

func (r *fakeRecorder) InsertSnapshot(_ context.Context, snap model.Snapshot) (int64, error) {
	r.snapshots = append(r.snapshots, snap)
	return int64(len(r.snapshots)), nil
}

func newTestSource() *fakeSource {
	return &fakeSource{
		categories: []model.Category{{ID: 9, Name: "General Knowledge"}, {ID: 21, Name: "Sports"}},
		counts: []model.CategoryQuestionCount{
			{CategoryID: 9, Counts: model.DifficultyCounts{Total: 50, Easy: 20, Medium: 20, Hard: 10}},
			{CategoryID: 21, Counts: model.DifficultyCounts{Total: 1500, Easy: 500, Medium: 500, Hard: 500}},
		},
		questions: []model.Question{
			{Category: "Sports", Difficulty: model.DifficultyEasy},
			{Category: "Sports", Difficulty: model.DifficultyMedium},
		},
	}
}

func newTestModel(t *testing.T, source *fakeSource, recorder SnapshotRecorder) *Model {
	t.Helper()
	state := dashboard.NewState(model.ModeDatabase, 20)
	loader := dashboard.NewLoader(source, state, nil)
	m := NewModel(context.Background(), Options{Loader: loader, Recorder: recorder})
	t.Cleanup(m.cancel)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

// runLoad executes the load command chain synchronously and feeds the results back.
func runLoad(t *testing.T, m *Model, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	batch, ok := cmd().(tea.BatchMsg)
	if !ok {
		t.Fatalf("expected batch from load command")
	}
	// Order: spinner tick, load, progress reader.
	done := batch[1]()
	var msgs []tea.Msg
	wait := batch[2]
	for wait != nil {
		msg := wait()
		if msg == nil {
			break
		}
		msgs = append(msgs, msg)
		_, wait = m.Update(msg)
	}
	msgs = append(msgs, done)
	_, next := m.Update(done)
	if next != nil {
		if saved := next(); saved != nil {
			m.Update(saved)
		}
	}
	return msgs
}

func press(m *Model, key string) tea.Cmd {
	var msg tea.KeyMsg
	switch key {
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "right":
		msg = tea.KeyMsg{Type: tea.KeyRight}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	_, cmd := m.Update(msg)
	return cmd
}

func TestLoadFlowReachesReady(t *testing.T) {
	recorder := &fakeRecorder{}
	m := newTestModel(t, newTestSource(), recorder)

	cmd := m.Init()
	if m.state.Phase() != dashboard.PhaseLoading {
		t.Fatalf("expected loading phase, got %s", m.state.Phase())
	}
	if !strings.Contains(m.View(), "Loading categories") {
		t.Fatalf("expected loading view, got:\n%s", m.View())
	}

	msgs := runLoad(t, m, cmd)
	progressCount := 0
	for _, msg := range msgs {
		if _, ok := msg.(loadProgressMsg); ok {
			progressCount++
		}
	}
	if progressCount != 4 {
		t.Fatalf("expected 4 progress updates, got %d", progressCount)
	}
	if m.state.Phase() != dashboard.PhaseReady {
		t.Fatalf("expected ready phase, got %s", m.state.Phase())
	}
	if len(recorder.snapshots) != 1 || recorder.snapshots[0].Mode != model.ModeDatabase || recorder.snapshots[0].Total != 1550 {
		t.Fatalf("expected one database snapshot, got %+v", recorder.snapshots)
	}

	view := m.View()
	for _, want := range []string{"Database Overview", "All Categories", "1,550 questions", "Questions by Category", "Saved database snapshot #1"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in view:\n%s", want, view)
		}
	}
}

func TestLoadFailureShowsErrorAndRetries(t *testing.T) {
	source := newTestSource()
	source.categoriesErr = errors.New("connection refused")
	m := newTestModel(t, source, nil)

	runLoad(t, m, m.Init())
	if m.state.Phase() != dashboard.PhaseError {
		t.Fatalf("expected error phase, got %s", m.state.Phase())
	}
	view := m.View()
	if !strings.Contains(view, "connection refused") || !strings.Contains(view, "r: retry") {
		t.Fatalf("expected error view, got:\n%s", view)
	}

	source.categoriesErr = nil
	cmd := press(m, "r")
	if cmd == nil {
		t.Fatal("expected retry to start a load")
	}
	runLoad(t, m, cmd)
	if m.state.Phase() != dashboard.PhaseReady {
		t.Fatalf("expected ready after retry, got %s", m.state.Phase())
	}
}

func TestFilterKeys(t *testing.T) {
	m := newTestModel(t, newTestSource(), nil)
	runLoad(t, m, m.Init())

	press(m, "]")
	if sel := m.state.Selected(); sel == nil || *sel != 9 {
		t.Fatalf("expected first category selected, got %v", sel)
	}
	if !strings.Contains(m.View(), "Showing: General Knowledge") {
		t.Fatalf("expected filter summary in view:\n%s", m.View())
	}
	press(m, "esc")
	if m.state.Selected() != nil {
		t.Fatal("expected filter cleared")
	}
	press(m, "[")
	if sel := m.state.Selected(); sel == nil || *sel != 21 {
		t.Fatalf("expected last category selected, got %v", sel)
	}
	press(m, "0")
	if m.state.Selected() != nil {
		t.Fatal("expected filter cleared")
	}
}

func TestSampleModeAnalyze(t *testing.T) {
	recorder := &fakeRecorder{}
	m := newTestModel(t, newTestSource(), recorder)
	runLoad(t, m, m.Init())

	press(m, "]")
	press(m, "m")
	if m.state.Mode() != model.ModeSample || m.state.Selected() != nil {
		t.Fatalf("expected sample mode without filter, got %s %v", m.state.Mode(), m.state.Selected())
	}
	if !strings.Contains(m.View(), "a: Analyze 20 Questions") {
		t.Fatalf("expected analyze control:\n%s", m.View())
	}
	press(m, "=")
	press(m, "=")
	if m.state.SampleSize() != 30 {
		t.Fatalf("expected sample size 30, got %d", m.state.SampleSize())
	}

	cmd := press(m, "a")
	if cmd == nil || !m.state.Analyzing() {
		t.Fatal("expected analysis to start")
	}
	if press(m, "a") != nil {
		t.Fatal("expected second analyze to be ignored")
	}
	batch := cmd().(tea.BatchMsg)
	_, save := m.Update(batch[1]())
	if m.state.Analyzing() {
		t.Fatal("expected analysis to finish")
	}
	if save == nil {
		t.Fatal("expected sample snapshot command")
	}
	m.Update(save())

	if len(recorder.snapshots) != 2 || recorder.snapshots[1].Mode != model.ModeSample || recorder.snapshots[1].SampleSize != 30 {
		t.Fatalf("expected sample snapshot, got %+v", recorder.snapshots)
	}
	if got := m.state.AvailableCategories(); len(got) != 1 || got[0].ID != 21 {
		t.Fatalf("expected only sampled category available, got %+v", got)
	}
	if !strings.Contains(m.View(), "Sample Analysis") {
		t.Fatalf("expected sample title:\n%s", m.View())
	}
}

func TestTabsCycle(t *testing.T) {
	m := newTestModel(t, newTestSource(), nil)
	runLoad(t, m, m.Init())

	press(m, "right")
	if m.activeTab != tabDifficulty || !strings.Contains(m.View(), "Questions by Difficulty") {
		t.Fatalf("expected difficulty tab, got %d:\n%s", m.activeTab, m.View())
	}
	press(m, "right")
	if m.activeTab != tabTable || !strings.Contains(m.View(), "Sports") {
		t.Fatalf("expected table tab, got %d", m.activeTab)
	}
	press(m, "right")
	if m.activeTab != tabCategories {
		t.Fatalf("expected wrap to first tab, got %d", m.activeTab)
	}
}

func TestQuitCancelsContext(t *testing.T) {
	m := newTestModel(t, newTestSource(), nil)
	cmd := press(m, "q")
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected quit message")
	}
	if m.ctx.Err() == nil {
		t.Fatal("expected context to be cancelled")
	}
}
