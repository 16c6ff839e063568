package dashboard

import (
	"context"
	"fmt"

	"github.com/verte-zerg/triviadash/internal/logger"
	"github.com/verte-zerg/triviadash/internal/model"
	"github.com/verte-zerg/triviadash/internal/opentdb"
	"github.com/verte-zerg/triviadash/internal/stats"
)

// Share of the progress bar covered by the category list request.
const categoriesProgress = 30

// Source is the subset of the API client the loader needs.
type Source interface {
	FetchCategories(ctx context.Context) ([]model.Category, error)
	FetchAllCategoryCounts(ctx context.Context, categories []model.Category, onProgress opentdb.ProgressFunc) ([]model.CategoryQuestionCount, error)
	FetchQuestions(ctx context.Context, amount, category int, difficulty model.Difficulty) ([]model.Question, error)
}

// ProgressObserver is notified after each progress update of a load.
type ProgressObserver func(pct float64, msg string)

// Loader runs the asynchronous transitions of a State.
type Loader struct {
	source Source
	state  *State
	log    *logger.Logger
}

// NewLoader binds a source to a state.
func NewLoader(source Source, state *State, log *logger.Logger) *Loader {
	if log == nil {
		log = logger.Discard()
	}
	return &Loader{source: source, state: state, log: log.WithComponent("dashboard")}
}

// State returns the state driven by the loader.
func (l *Loader) State() *State {
	return l.state
}

// Load fetches categories and database counts. Categories cover the first 30%
// of progress and the per-category counts the remaining 70%.
func (l *Loader) Load(ctx context.Context, observe ProgressObserver) error {
	report := func(pct float64, msg string) {
		l.state.SetProgress(pct, msg)
		if observe != nil {
			observe(pct, msg)
		}
	}

	l.state.BeginLoad()
	report(0, "Loading categories...")

	categories, err := l.source.FetchCategories(ctx)
	if err != nil {
		l.log.Error("load categories failed", logger.Err(err))
		l.state.FailLoad(err)
		return err
	}
	l.log.Info("categories loaded", logger.F("count", len(categories)))
	report(categoriesProgress, fmt.Sprintf("Loading question counts for %d categories...", len(categories)))

	counts, err := l.source.FetchAllCategoryCounts(ctx, categories, func(completed, total int) {
		pct := float64(categoriesProgress)
		if total > 0 {
			pct += float64(100-categoriesProgress) * float64(completed) / float64(total)
		}
		report(pct, fmt.Sprintf("Loading question counts... (%d/%d)", completed, total))
	})
	if err != nil {
		l.log.Error("load counts failed", logger.Err(err))
		l.state.FailLoad(err)
		return err
	}
	l.log.Info("counts loaded", logger.F("categories", len(counts)))
	l.state.FinishLoad(categories, counts)
	return nil
}

// Analyze fetches a sample of the configured size and replaces the sample
// counts. A failure is kept as the state's error message and returned.
func (l *Loader) Analyze(ctx context.Context) error {
	run, err := l.StartAnalyze()
	if err != nil {
		return err
	}
	return run(ctx)
}

// StartAnalyze marks an analysis as running and returns the fetch that
// completes it. The returned function must be called exactly once.
func (l *Loader) StartAnalyze() (func(ctx context.Context) error, error) {
	if err := l.state.BeginAnalyze(); err != nil {
		return nil, err
	}
	amount := l.state.SampleSize()
	return func(ctx context.Context) error {
		questions, err := l.source.FetchQuestions(ctx, amount, 0, model.DifficultyAny)
		if err != nil {
			l.log.Warn("sample analysis failed", logger.F("amount", amount), logger.Err(err))
			l.state.FailAnalyze(err)
			return err
		}
		counts := stats.AggregateSample(questions, l.state.Categories())
		l.log.Info("sample analyzed", logger.F("questions", len(questions)), logger.F("categories", len(counts)))
		l.state.FinishAnalyze(counts)
		return nil
	}, nil
}
