package ui

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/verte-zerg/triviadash/internal/dashboard"
	"github.com/verte-zerg/triviadash/internal/model"
	"github.com/verte-zerg/triviadash/internal/stats"
)

func emptyMessage(state *dashboard.State) string {
	switch {
	case state.Mode() == model.ModeSample && len(state.SampleCounts()) == 0:
		return fmt.Sprintf("No sample analyzed yet. Press a to analyze %d questions.", state.SampleSize())
	case state.Selected() != nil:
		return "No questions for the selected category."
	default:
		return "No question counts available."
	}
}

func categoryName(categories []model.Category, id int) string {
	return stats.CategoryName(categories, id)
}

func renderCategoriesTab(state *dashboard.State, width int) string {
	bars := state.BarData()
	if len(bars) == 0 {
		return emptyMessage(state)
	}
	var buf bytes.Buffer
	if err := stats.RenderBarChart(&buf, bars, width, true); err != nil {
		return fmt.Sprintf("Failed to render chart: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func renderDifficultyTab(state *dashboard.State, width int) string {
	totals := state.DifficultyTotals()
	if totals.Total == 0 {
		return emptyMessage(state)
	}
	cards := renderDifficultyCards(totals, width)
	var buf bytes.Buffer
	if err := stats.RenderDifficulty(&buf, totals, width, true); err != nil {
		return fmt.Sprintf("Failed to render difficulty: %v", err)
	}
	return strings.TrimRight(cards+"\n\n"+buf.String(), "\n")
}

func renderDifficultyCards(totals model.DifficultyCounts, width int) string {
	slices := stats.Slices(totals)
	cards := []string{metricCard("Total", humanize.Comma(int64(totals.Total)))}
	for _, s := range slices {
		label := strings.ToUpper(string(s.Difficulty[:1])) + string(s.Difficulty[1:])
		value := fmt.Sprintf("%s (%s)", humanize.Comma(int64(s.Value)), stats.PercentLabel(s.Percent))
		cards = append(cards, metricCard(label, value))
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	if lipgloss.Width(row) > width {
		return lipgloss.JoinVertical(lipgloss.Left, cards...)
	}
	return row
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func countTableColumns() []table.Column {
	return []table.Column{
		{Title: "ID", Width: 4},
		{Title: "Category", Width: 38},
		{Title: "Total", Width: 8},
		{Title: "Easy", Width: 7},
		{Title: "Medium", Width: 7},
		{Title: "Hard", Width: 7},
	}
}

func countTableRows(state *dashboard.State) []table.Row {
	categories := state.Categories()
	bars := state.BarData()
	counts := make(map[int]model.DifficultyCounts, len(bars))
	for _, c := range state.FilteredCounts() {
		counts[c.CategoryID] = c.Counts
	}
	rows := make([]table.Row, 0, len(bars))
	for _, b := range bars {
		c := counts[b.CategoryID]
		rows = append(rows, table.Row{
			strconv.Itoa(b.CategoryID),
			truncateLine(categoryName(categories, b.CategoryID), 38),
			humanize.Comma(int64(c.Total)),
			humanize.Comma(int64(c.Easy)),
			humanize.Comma(int64(c.Medium)),
			humanize.Comma(int64(c.Hard)),
		})
	}
	return rows
}
