// Package stats contains aggregation, chart data and text rendering.
package stats

import "github.com/verte-zerg/triviadash/internal/model"

// AggregateSample groups sampled questions by category and tallies difficulties.
// Category names are resolved to ids by exact match against categories; questions
// with an unknown category name or difficulty are dropped. Output order follows
// the first occurrence of each category in questions.
func AggregateSample(questions []model.Question, categories []model.Category) []model.CategoryQuestionCount {
	idByName := make(map[string]int, len(categories))
	for _, c := range categories {
		if _, ok := idByName[c.Name]; !ok {
			idByName[c.Name] = c.ID
		}
	}

	out := []model.CategoryQuestionCount{}
	index := map[int]int{}
	for _, q := range questions {
		id, ok := idByName[q.Category]
		if !ok || !q.Difficulty.Valid() {
			continue
		}
		pos, seen := index[id]
		if !seen {
			pos = len(out)
			index[id] = pos
			out = append(out, model.CategoryQuestionCount{CategoryID: id})
		}
		out[pos].Counts.Add(q.Difficulty)
	}
	return out
}
