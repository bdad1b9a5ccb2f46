package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"myexpenses/internal/core"
)

// EmptyTableMessage and EmptyChartMessage are shown instead of an empty view.
const (
	EmptyTableMessage = "No expenses yet."
	EmptyChartMessage = "Nothing to summarize yet."
)

// DefaultBarWidth is the width of the longest chart bar in cells.
const DefaultBarWidth = 40

// RenderTable renders the list with its positional index, which is what
// `expensectl delete` expects.
func RenderTable(list []core.Expense) string {
	if len(list) == 0 {
		return SubtleStyle.Render(EmptyTableMessage)
	}

	rows := make([][]string, 0, len(list))
	for i, e := range list {
		rows = append(rows, []string{
			strconv.Itoa(i),
			e.Date,
			e.Time,
			core.FormatAmount(e.Amount, 1),
			e.Category,
			e.Description,
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(SubtleStyle).
		Headers("#", "Date", "Time", "Amount", "Category", "Description").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case col == 0 || col == 3:
				return AmountCellStyle
			default:
				return TableCellStyle
			}
		})
	return t.Render()
}

// RenderChart renders category totals as horizontal bars, longest bar first
// in the order categories were first seen.
func RenderChart(totals core.CategoryTotals, width int) string {
	if totals.Empty() {
		return SubtleStyle.Render(EmptyChartMessage)
	}
	if width <= 0 {
		width = DefaultBarWidth
	}

	labelWidth := 0
	maxValue := 0.0
	for i, l := range totals.Labels {
		labelWidth = max(labelWidth, lipgloss.Width(l))
		maxValue = math.Max(maxValue, totals.Values[i])
	}

	var b strings.Builder
	for i, label := range totals.Labels {
		v := totals.Values[i]
		bar := lipgloss.NewStyle().
			Foreground(lipgloss.Color(HueHex(core.CategoryHue(i)))).
			Render(strings.Repeat("█", BarLength(v, maxValue, width)))

		fmt.Fprintf(&b, "%s %s %s\n",
			lipgloss.NewStyle().Width(labelWidth).Render(label),
			bar,
			core.FormatAmount(v, 2))
	}
	fmt.Fprintf(&b, "%s %s", lipgloss.NewStyle().Width(labelWidth).Bold(true).Render("Total"),
		core.FormatAmount(totals.Total(), 2))
	return b.String()
}

// BarLength scales v against maxValue into [0, width]. Any positive value
// gets at least one cell so small categories stay visible.
func BarLength(v, maxValue float64, width int) int {
	if maxValue <= 0 || v <= 0 {
		return 0
	}
	n := int(math.Round(v / maxValue * float64(width)))
	return min(max(n, 1), width)
}

// HueHex converts a hue at 85% saturation and 60% lightness to #rrggbb, the
// terminal equivalent of the web chart's hsl() colours.
func HueHex(hue int) string {
	r, g, b := hslToRGB(float64(hue), 0.85, 0.60)
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func hslToRGB(h, s, l float64) (uint8, uint8, uint8) {
	c := (1 - math.Abs(2*l-1)) * s
	hp := math.Mod(h, 360) / 60
	x := c * (1 - math.Abs(math.Mod(hp, 2)-1))

	var r, g, b float64
	switch {
	case hp < 1:
		r, g, b = c, x, 0
	case hp < 2:
		r, g, b = x, c, 0
	case hp < 3:
		r, g, b = 0, c, x
	case hp < 4:
		r, g, b = 0, x, c
	case hp < 5:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	m := l - c/2
	to8 := func(v float64) uint8 { return uint8(math.Round((v + m) * 255)) }
	return to8(r), to8(g), to8(b)
}
