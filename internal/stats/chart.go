package stats

import (
	"fmt"
	"sort"

	"github.com/verte-zerg/triviadash/internal/model"
)

// Bar is one entry of the questions-per-category chart.
type Bar struct {
	Name       string `json:"name" yaml:"name"`
	Questions  int    `json:"questions" yaml:"questions"`
	CategoryID int    `json:"category_id" yaml:"category_id"`
}

// Slice is one difficulty share of the distribution chart.
type Slice struct {
	Difficulty model.Difficulty `json:"difficulty" yaml:"difficulty"`
	Value      int              `json:"value" yaml:"value"`
	Percent    float64          `json:"percent" yaml:"percent"`
}

// CategoryName resolves a category id, falling back to "Category <id>".
func CategoryName(categories []model.Category, id int) string {
	for _, c := range categories {
		if c.ID == id {
			return c.Name
		}
	}
	return fmt.Sprintf("Category %d", id)
}

// BarData joins counts with category names, sorted by question count descending.
func BarData(categories []model.Category, counts []model.CategoryQuestionCount) []Bar {
	names := make(map[int]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	bars := make([]Bar, 0, len(counts))
	for _, c := range counts {
		name, ok := names[c.CategoryID]
		if !ok {
			name = fmt.Sprintf("Category %d", c.CategoryID)
		}
		bars = append(bars, Bar{Name: name, Questions: c.Counts.Total, CategoryID: c.CategoryID})
	}
	sort.SliceStable(bars, func(i, j int) bool {
		if bars[i].Questions == bars[j].Questions {
			return bars[i].Name < bars[j].Name
		}
		return bars[i].Questions > bars[j].Questions
	})
	return bars
}

// DifficultyTotals sums the difficulty buckets across counts. Total is the sum of
// the three buckets.
func DifficultyTotals(counts []model.CategoryQuestionCount) model.DifficultyCounts {
	var out model.DifficultyCounts
	for _, c := range counts {
		out.Easy += c.Counts.Easy
		out.Medium += c.Counts.Medium
		out.Hard += c.Counts.Hard
	}
	out.Total = out.Easy + out.Medium + out.Hard
	return out
}

// Slices converts difficulty totals into chart slices in easy, medium, hard order.
func Slices(totals model.DifficultyCounts) []Slice {
	values := []int{totals.Easy, totals.Medium, totals.Hard}
	sum := totals.Easy + totals.Medium + totals.Hard
	out := make([]Slice, 0, len(values))
	for i, d := range model.Difficulties {
		pct := 0.0
		if sum > 0 {
			pct = float64(values[i]) / float64(sum) * 100
		}
		out = append(out, Slice{Difficulty: d, Value: values[i], Percent: pct})
	}
	return out
}

// TotalQuestions sums the reported totals.
func TotalQuestions(counts []model.CategoryQuestionCount) int {
	total := 0
	for _, c := range counts {
		total += c.Counts.Total
	}
	return total
}

// PercentLabel formats a slice percentage the way the chart labels it.
func PercentLabel(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}
