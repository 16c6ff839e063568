package ui

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/triviadash/internal/model"
)

const (
	allCategoriesLabel = "All Categories"
	maxChipLines       = 3
)

type chip struct {
	label    string
	width    int
	selected bool
}

func buildChips(categories []model.Category, selected *int) []chip {
	chips := make([]chip, 0, len(categories)+1)
	chips = append(chips, newChip(allCategoriesLabel, selected == nil))
	for _, c := range categories {
		chips = append(chips, newChip(c.Name, selected != nil && *selected == c.ID))
	}
	return chips
}

func newChip(label string, selected bool) chip {
	// One cell of padding on each side.
	return chip{label: label, width: runewidth.StringWidth(label) + 2, selected: selected}
}

func (c chip) render(maxWidth int) string {
	label := c.label
	if maxWidth > 2 && c.width > maxWidth {
		label = runewidth.Truncate(label, maxWidth-2, "…")
	}
	if c.selected {
		return activeChipStyle.Render(label)
	}
	return chipStyle.Render(label)
}

// layoutChips assigns chips to lines no wider than width, one space apart.
func layoutChips(chips []chip, width int) [][]int {
	if len(chips) == 0 {
		return nil
	}
	if width <= 0 {
		line := make([]int, len(chips))
		for i := range chips {
			line[i] = i
		}
		return [][]int{line}
	}
	var lines [][]int
	line := []int{}
	lineWidth := 0
	for i, c := range chips {
		need := c.width
		if len(line) > 0 {
			need++
		}
		if lineWidth+need > width && len(line) > 0 {
			lines = append(lines, line)
			line = []int{}
			lineWidth = 0
			need = c.width
		}
		line = append(line, i)
		lineWidth += need
	}
	return append(lines, line)
}

// visibleChipLines picks at most limit consecutive lines, keeping the line
// with the selected chip in view.
func visibleChipLines(chips []chip, lines [][]int, limit int) (start, end int) {
	if limit <= 0 || len(lines) <= limit {
		return 0, len(lines)
	}
	selectedLine := 0
	for li, line := range lines {
		for _, idx := range line {
			if chips[idx].selected {
				selectedLine = li
			}
		}
	}
	start = selectedLine - limit/2
	start = max(0, min(start, len(lines)-limit))
	return start, start + limit
}

func renderChips(categories []model.Category, selected *int, width int) string {
	chips := buildChips(categories, selected)
	lines := layoutChips(chips, width)
	start, end := visibleChipLines(chips, lines, maxChipLines)
	out := make([]string, 0, end-start)
	for _, line := range lines[start:end] {
		parts := make([]string, 0, len(line))
		for _, idx := range line {
			parts = append(parts, chips[idx].render(width))
		}
		out = append(out, strings.Join(parts, " "))
	}
	return strings.Join(out, "\n")
}
