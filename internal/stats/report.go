package stats

import (
	"time"

	"github.com/verte-zerg/triviadash/internal/model"
)

// Report is the chart-ready view of one set of counts.
type Report struct {
	GeneratedAt time.Time                     `json:"generated_at" yaml:"generated_at"`
	Mode        string                        `json:"mode" yaml:"mode"`
	SampleSize  int                           `json:"sample_size,omitempty" yaml:"sample_size,omitempty"`
	Filter      *model.Category               `json:"filter,omitempty" yaml:"filter,omitempty"`
	Categories  []model.Category              `json:"-" yaml:"-"`
	Counts      []model.CategoryQuestionCount `json:"counts" yaml:"counts"`
	Bars        []Bar                         `json:"bars" yaml:"bars"`
	Difficulty  []Slice                       `json:"difficulty" yaml:"difficulty"`
	Total       int                           `json:"total_questions" yaml:"total_questions"`
}

// BuildReport derives chart data from already filtered counts.
func BuildReport(mode model.Mode, sampleSize int, categories []model.Category, counts []model.CategoryQuestionCount, selected *int) Report {
	r := Report{
		GeneratedAt: time.Now().UTC(),
		Mode:        mode.String(),
		Categories:  categories,
		Counts:      counts,
		Bars:        BarData(categories, counts),
		Difficulty:  Slices(DifficultyTotals(counts)),
		Total:       TotalQuestions(counts),
	}
	if mode == model.ModeSample {
		r.SampleSize = sampleSize
	}
	if selected != nil {
		r.Filter = &model.Category{ID: *selected, Name: CategoryName(categories, *selected)}
	}
	return r
}
