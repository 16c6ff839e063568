package stats

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/verte-zerg/triviadash/internal/model"
)

const (
	colorReset = "\x1b[0m"
	barColor   = "\x1b[38;2;58;90;64m"
	barRune    = "█"
	emptyRune  = "░"
	minBarLen  = 10
	maxLabel   = 32
)

// Chart colors per difficulty, matching the dashboard theme.
var difficultyColors = map[model.Difficulty]string{
	model.DifficultyEasy:   "\x1b[38;2;140;179;105m",
	model.DifficultyMedium: "\x1b[38;2;255;217;125m",
	model.DifficultyHard:   "\x1b[38;2;255;155;133m",
}

var seriesPalette = []string{
	"\x1b[38;2;140;179;105m",
	"\x1b[38;2;255;217;125m",
	"\x1b[38;2;255;155;133m",
	"\x1b[36m",
}

// RenderSummary prints the headline numbers of a report.
func RenderSummary(w io.Writer, r Report) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Mode: %s", r.Mode)
	if r.SampleSize > 0 {
		fmt.Fprintf(&b, " (%d questions requested)", r.SampleSize)
	}
	b.WriteByte('\n')
	if r.Filter != nil {
		fmt.Fprintf(&b, "Showing: %s\n", r.Filter.Name)
	}
	noun := "categories"
	if len(r.Bars) == 1 {
		noun = "category"
	}
	fmt.Fprintf(&b, "%d %s with %s total questions\n\n", len(r.Bars), noun, humanize.Comma(int64(r.Total)))
	_, err := io.WriteString(w, b.String())
	return err
}

// RenderBarChart prints questions per category as horizontal bars, largest first.
func RenderBarChart(w io.Writer, bars []Bar, totalWidth int, forceColor bool) error {
	if len(bars) == 0 {
		_, err := fmt.Fprintln(w, "No categories to show.")
		return err
	}
	useColor := shouldUseColor(w, forceColor)
	if totalWidth <= 0 {
		totalWidth = terminalWidth()
	}

	labelWidth, valueWidth, maxVal := 0, 0, 0
	for _, bar := range bars {
		labelWidth = max(labelWidth, displayWidth(bar.Name))
		valueWidth = max(valueWidth, len(humanize.Comma(int64(bar.Questions))))
		maxVal = max(maxVal, bar.Questions)
	}
	labelWidth = min(labelWidth, maxLabel)
	barLen := max(totalWidth-labelWidth-valueWidth-4, minBarLen)

	var b strings.Builder
	b.WriteString("Questions by Category\n")
	for _, bar := range bars {
		filled := 0
		if maxVal > 0 {
			filled = bar.Questions * barLen / maxVal
		}
		if bar.Questions > 0 && filled == 0 {
			filled = 1
		}
		label := padCell(truncateLabel(bar.Name, labelWidth), labelWidth, false)
		value := padCell(humanize.Comma(int64(bar.Questions)), valueWidth, true)
		fill := strings.Repeat(barRune, filled)
		if useColor {
			fill = barColor + fill + colorReset
		}
		fmt.Fprintf(&b, "%s │%s%s %s\n", label, fill, strings.Repeat(" ", barLen-filled), value)
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}

// RenderDifficulty prints the difficulty distribution as a proportional stacked bar
// with a legend of counts and percentages.
func RenderDifficulty(w io.Writer, totals model.DifficultyCounts, totalWidth int, forceColor bool) error {
	useColor := shouldUseColor(w, forceColor)
	if totalWidth <= 0 {
		totalWidth = terminalWidth()
	}
	slices := Slices(totals)
	sum := totals.Easy + totals.Medium + totals.Hard

	var b strings.Builder
	b.WriteString("Questions by Difficulty\n")
	barLen := max(totalWidth-2, minBarLen)
	if sum == 0 {
		b.WriteString(strings.Repeat(emptyRune, barLen))
	} else {
		for _, seg := range segmentLengths(slices, barLen) {
			fill := strings.Repeat(barRune, seg.length)
			if useColor {
				fill = difficultyColors[seg.difficulty] + fill + colorReset
			}
			b.WriteString(fill)
		}
	}
	b.WriteByte('\n')

	headers := []string{"Difficulty", "Questions", "Share"}
	rows := make([][]string, 0, len(slices)+1)
	for _, s := range slices {
		rows = append(rows, []string{titleCase(string(s.Difficulty)), humanize.Comma(int64(s.Value)), PercentLabel(s.Percent)})
	}
	rows = append(rows, []string{"Total", humanize.Comma(int64(sum)), ""})
	for _, l := range formatTable(headers, rows, map[int]bool{1: true, 2: true}) {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}

type segment struct {
	difficulty model.Difficulty
	length     int
}

// segmentLengths splits width cells across slices using largest remainders so the
// segments always fill the bar exactly.
func segmentLengths(slices []Slice, width int) []segment {
	out := make([]segment, len(slices))
	used := 0
	rema := make([]float64, len(slices))
	for i, s := range slices {
		exact := s.Percent / 100 * float64(width)
		out[i] = segment{difficulty: s.Difficulty, length: int(exact)}
		rema[i] = exact - float64(out[i].length)
		used += out[i].length
	}
	for used < width {
		best := -1
		for i := range rema {
			if slices[i].Value == 0 {
				continue
			}
			if best < 0 || rema[i] > rema[best] {
				best = i
			}
		}
		if best < 0 {
			break
		}
		out[best].length++
		rema[best] = -1
		used++
	}
	return out
}

// RenderCategoryTable prints the per-category breakdown, largest first.
func RenderCategoryTable(w io.Writer, categories []model.Category, counts []model.CategoryQuestionCount) error {
	if len(counts) == 0 {
		_, err := fmt.Fprintln(w, "No counts found.")
		return err
	}
	byID := make(map[int]model.DifficultyCounts, len(counts))
	for _, c := range counts {
		byID[c.CategoryID] = c.Counts
	}
	headers := []string{"ID", "Category", "Total", "Easy", "Medium", "Hard"}
	rows := make([][]string, 0, len(counts))
	for _, bar := range BarData(categories, counts) {
		c := byID[bar.CategoryID]
		rows = append(rows, []string{
			strconv.Itoa(bar.CategoryID),
			bar.Name,
			humanize.Comma(int64(c.Total)),
			humanize.Comma(int64(c.Easy)),
			humanize.Comma(int64(c.Medium)),
			humanize.Comma(int64(c.Hard)),
		})
	}
	rightAlign := map[int]bool{0: true, 2: true, 3: true, 4: true, 5: true}
	for _, l := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderCategoryList prints "#id name" lines.
func RenderCategoryList(w io.Writer, categories []model.Category) error {
	if _, err := fmt.Fprintf(w, "Found %d categories\n", len(categories)); err != nil {
		return err
	}
	for _, c := range categories {
		if _, err := fmt.Fprintf(w, "#%-3d %s\n", c.ID, c.Name); err != nil {
			return err
		}
	}
	return nil
}

// RenderReport prints summary, bar chart, difficulty breakdown and table.
func RenderReport(w io.Writer, r Report, totalWidth int, forceColor bool) error {
	if err := RenderSummary(w, r); err != nil {
		return err
	}
	if err := RenderBarChart(w, r.Bars, totalWidth, forceColor); err != nil {
		return err
	}
	if err := RenderDifficulty(w, DifficultyTotals(r.Counts), totalWidth, forceColor); err != nil {
		return err
	}
	return RenderCategoryTable(w, r.Categories, r.Counts)
}

// RenderHistory prints the snapshot list and a plot of totals over time.
func RenderHistory(w io.Writer, snapshots []model.Snapshot, totalWidth int, forceColor bool) error {
	if len(snapshots) == 0 {
		_, err := fmt.Fprintln(w, "No snapshots found.")
		return err
	}
	headers := []string{"ID", "Taken", "Mode", "Sample", "Total"}
	rows := make([][]string, 0, len(snapshots))
	totals := make([]float64, 0, len(snapshots))
	for _, s := range snapshots {
		sample := ""
		if s.Mode == model.ModeSample {
			sample = strconv.Itoa(s.SampleSize)
		}
		rows = append(rows, []string{
			strconv.FormatInt(s.ID, 10),
			s.TakenAt.Local().Format("2006-01-02 15:04"),
			s.Mode.String(),
			sample,
			humanize.Comma(int64(s.Total)),
		})
		totals = append(totals, float64(s.Total))
	}
	for _, l := range formatTable(headers, rows, map[int]bool{0: true, 3: true, 4: true}) {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	if len(totals) < 2 {
		return nil
	}
	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth, len(humanize.Comma(int64(maxFloat(totals)))))
	}
	return PlotSeries(w, "Total Questions per Snapshot", []Series{{Name: "Total", Values: totals}}, width, defaultPlotHeight, forceColor)
}

func maxFloat(values []float64) float64 {
	out := values[0]
	for _, v := range values[1:] {
		out = max(out, v)
	}
	return out
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
