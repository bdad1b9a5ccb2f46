package http

import (
	"fmt"
	"html/template"

	"myexpenses/internal/core"
)

// TableRow is one rendered record. Index is its position in the list and is
// what the delete button posts back.
type TableRow struct {
	Index       int
	Date        string
	Time        string
	Amount      string
	Category    string
	Description string
}

// TableView is the render context of the table partial.
type TableView struct {
	Rows  []TableRow
	Empty bool
}

// NewTableView formats list for display, amounts with one decimal.
func NewTableView(list []core.Expense) TableView {
	rows := make([]TableRow, len(list))
	for i, e := range list {
		rows[i] = TableRow{
			Index:       i,
			Date:        e.Date,
			Time:        e.Time,
			Amount:      core.FormatAmount(e.Amount, 1),
			Category:    core.CategoryOr(e.Category),
			Description: e.Description,
		}
	}
	return TableView{Rows: rows, Empty: len(rows) == 0}
}

// ChartBar is one category bar.
type ChartBar struct {
	Label  string
	Value  float64
	Amount string
	Color  template.CSS
	// Width is the bar length in percent of the largest category.
	Width int
}

// ChartView is the render context of the chart partial. A fresh value is
// built for every request; nothing about a previous render is retained.
type ChartView struct {
	Bars  []ChartBar
	Total string
	Empty bool
}

// NewChartView lays out totals as horizontal bars.
func NewChartView(totals core.CategoryTotals) ChartView {
	view := ChartView{
		Bars:  make([]ChartBar, len(totals.Labels)),
		Total: core.FormatAmount(totals.Total(), 2),
		Empty: totals.Empty(),
	}

	var max float64
	for _, v := range totals.Values {
		if v > max {
			max = v
		}
	}

	for i, label := range totals.Labels {
		v := totals.Values[i]
		view.Bars[i] = ChartBar{
			Label:  label,
			Value:  v,
			Amount: core.FormatAmount(v, 2),
			Color:  ChartColor(i),
			Width:  barWidth(v, max),
		}
	}
	return view
}

// ChartColor is the fill of the i-th bar.
func ChartColor(i int) template.CSS {
	return template.CSS(fmt.Sprintf("hsl(%d, 85%%, 60%%)", core.CategoryHue(i)))
}

// barWidth rounds v/max to a percentage, keeping tiny positive values visible.
func barWidth(v, max float64) int {
	if max <= 0 || v <= 0 {
		return 0
	}
	width := int(v/max*100 + 0.5)
	if width < 2 {
		width = 2
	}
	if width > 100 {
		width = 100
	}
	return width
}
