// Package dashboard holds the view state of the trivia dashboard and the
// loader that drives it from the API.
package dashboard

import (
	"errors"
	"sync"

	"github.com/verte-zerg/triviadash/internal/model"
	"github.com/verte-zerg/triviadash/internal/stats"
)

// Sample size bounds and the step used by the UI.
const (
	MinSampleSize     = 10
	MaxSampleSize     = 50
	SampleSizeStep    = 5
	DefaultSampleSize = MaxSampleSize
)

var (
	// ErrNotReady is returned when an action needs loaded data.
	ErrNotReady = errors.New("dashboard is not ready")
	// ErrAnalyzing is returned when a sample analysis is already running.
	ErrAnalyzing = errors.New("sample analysis already in progress")
)

// Phase is the lifecycle stage of the dashboard.
type Phase int

// Dashboard phases.
const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseReady
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// State is the dashboard view state. All mutation goes through its methods,
// which are safe for concurrent use.
type State struct {
	mu sync.RWMutex

	categories     []model.Category
	databaseCounts []model.CategoryQuestionCount
	sampleCounts   []model.CategoryQuestionCount
	selected       *int

	phase       Phase
	progress    float64
	progressMsg string
	errMsg      string

	mode       model.Mode
	sampleSize int
	analyzing  bool
}

// NewState returns an idle state in the given mode.
func NewState(mode model.Mode, sampleSize int) *State {
	return &State{mode: mode, sampleSize: clampSampleSize(sampleSize)}
}

// Phase returns the current phase.
func (s *State) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// Progress returns the load percentage (0..100) and its message.
func (s *State) Progress() (float64, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progress, s.progressMsg
}

// Error returns the current error message, empty when there is none.
func (s *State) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

func (s *State) Mode() model.Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

func (s *State) SampleSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sampleSize
}

func (s *State) Analyzing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.analyzing
}

// Selected returns a copy of the selected category id, nil when unfiltered.
func (s *State) Selected() *int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyID(s.selected)
}

func (s *State) Categories() []model.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Category(nil), s.categories...)
}

func (s *State) DatabaseCounts() []model.CategoryQuestionCount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.CategoryQuestionCount(nil), s.databaseCounts...)
}

func (s *State) SampleCounts() []model.CategoryQuestionCount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.CategoryQuestionCount(nil), s.sampleCounts...)
}

// BeginLoad enters the loading phase and resets progress.
func (s *State) BeginLoad() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseLoading
	s.progress = 0
	s.progressMsg = "Loading categories..."
	s.errMsg = ""
}

// SetProgress updates the load percentage, clamped to 0..100.
func (s *State) SetProgress(pct float64, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseLoading {
		return
	}
	s.progress = min(max(pct, 0), 100)
	s.progressMsg = msg
}

// FinishLoad stores the loaded data and enters the ready phase.
func (s *State) FinishLoad(categories []model.Category, counts []model.CategoryQuestionCount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = append([]model.Category(nil), categories...)
	s.databaseCounts = append([]model.CategoryQuestionCount(nil), counts...)
	s.phase = PhaseReady
	s.progress = 100
	s.progressMsg = ""
	s.errMsg = ""
}

// FailLoad enters the error phase with the error's message.
func (s *State) FailLoad(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseError
	s.progressMsg = ""
	s.errMsg = errorMessage(err, "failed to load categories")
}

// BeginAnalyze marks a sample analysis as running. It fails unless the
// dashboard is ready and idle.
func (s *State) BeginAnalyze() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseReady {
		return ErrNotReady
	}
	if s.analyzing {
		return ErrAnalyzing
	}
	s.analyzing = true
	s.errMsg = ""
	return nil
}

// FinishAnalyze replaces the sample counts.
func (s *State) FinishAnalyze(counts []model.CategoryQuestionCount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sampleCounts = append([]model.CategoryQuestionCount(nil), counts...)
	s.analyzing = false
}

// FailAnalyze records the error and stays in the ready phase.
func (s *State) FailAnalyze(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyzing = false
	s.errMsg = errorMessage(err, "failed to analyze sample")
}

// SetMode switches the analysis mode and clears the category filter.
func (s *State) SetMode(mode model.Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
	s.selected = nil
}

// SelectCategory sets the category filter; nil shows all categories.
func (s *State) SelectCategory(id *int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = copyID(id)
}

// CycleCategory moves the filter through "all" and the available categories.
// A positive delta moves forward, a negative one backward.
func (s *State) CycleCategory(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	available := s.availableCategories()
	if len(available) == 0 || delta == 0 {
		s.selected = nil
		return
	}
	// Position 0 is "all", 1..n are the categories.
	n := len(available) + 1
	pos := 0
	if s.selected != nil {
		for i, c := range available {
			if c.ID == *s.selected {
				pos = i + 1
				break
			}
		}
	}
	pos = ((pos+delta)%n + n) % n
	if pos == 0 {
		s.selected = nil
		return
	}
	id := available[pos-1].ID
	s.selected = &id
}

// SetSampleSize sets the sample size, clamped to the API limits.
func (s *State) SetSampleSize(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sampleSize = clampSampleSize(n)
}

// ClearError drops the error message. From the error phase it returns to idle
// so a new load can start.
func (s *State) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = ""
	if s.phase == PhaseError {
		s.phase = PhaseIdle
	}
}

// ActiveCounts returns the counts of the current mode.
func (s *State) ActiveCounts() []model.CategoryQuestionCount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.CategoryQuestionCount(nil), s.activeCounts()...)
}

// FilteredCounts returns the active counts narrowed to the selected category.
// An id with no entry yields an empty list.
func (s *State) FilteredCounts() []model.CategoryQuestionCount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filteredCounts()
}

// AvailableCategories returns the categories that can be selected: all of them
// in database mode, only those present in the sample in sample mode.
func (s *State) AvailableCategories() []model.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.availableCategories()
}

// TotalQuestions sums the displayed counts.
func (s *State) TotalQuestions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return stats.TotalQuestions(s.filteredCounts())
}

// BarData returns the category chart for the displayed counts.
func (s *State) BarData() []stats.Bar {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return stats.BarData(s.categories, s.filteredCounts())
}

// DifficultyTotals sums the displayed counts per difficulty.
func (s *State) DifficultyTotals() model.DifficultyCounts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return stats.DifficultyTotals(s.filteredCounts())
}

// Report builds a chart-ready report of the displayed counts.
func (s *State) Report() stats.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return stats.BuildReport(s.mode, s.sampleSize, s.categories, s.filteredCounts(), s.selected)
}

func (s *State) activeCounts() []model.CategoryQuestionCount {
	if s.mode == model.ModeSample {
		return s.sampleCounts
	}
	return s.databaseCounts
}

func (s *State) filteredCounts() []model.CategoryQuestionCount {
	active := s.activeCounts()
	if s.selected == nil {
		return append([]model.CategoryQuestionCount{}, active...)
	}
	filtered := []model.CategoryQuestionCount{}
	for _, c := range active {
		if c.CategoryID == *s.selected {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

func (s *State) availableCategories() []model.Category {
	if s.mode == model.ModeDatabase {
		return append([]model.Category{}, s.categories...)
	}
	present := make(map[int]bool, len(s.sampleCounts))
	for _, c := range s.sampleCounts {
		present[c.CategoryID] = true
	}
	available := []model.Category{}
	for _, c := range s.categories {
		if present[c.ID] {
			available = append(available, c)
		}
	}
	return available
}

func clampSampleSize(n int) int {
	return min(max(n, MinSampleSize), MaxSampleSize)
}

func copyID(id *int) *int {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func errorMessage(err error, fallback string) string {
	if err == nil || err.Error() == "" {
		return fallback
	}
	return err.Error()
}
