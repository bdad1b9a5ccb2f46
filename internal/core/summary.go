package core

import "github.com/shopspring/decimal"

// CategoryTotals holds per-category sums as two parallel sequences, labels in
// first-seen order.
type CategoryTotals struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// Empty reports whether there is nothing to chart.
func (t CategoryTotals) Empty() bool {
	return len(t.Labels) == 0
}

// Total returns the sum of all category values.
func (t CategoryTotals) Total() float64 {
	sum := decimal.Zero
	for _, v := range t.Values {
		sum = sum.Add(decimal.NewFromFloat(v))
	}
	f, _ := sum.Float64()
	return f
}

// Summarize groups expenses by category and sums their amounts. Each value is
// rounded to 2 decimal places after summing.
func Summarize(expenses []Expense) CategoryTotals {
	sums := make(map[string]decimal.Decimal)
	var labels []string
	for _, e := range expenses {
		cat := CategoryOr(e.Category)
		if _, seen := sums[cat]; !seen {
			labels = append(labels, cat)
			sums[cat] = decimal.Zero
		}
		sums[cat] = sums[cat].Add(decimal.NewFromFloat(FiniteOrZero(e.Amount)))
	}

	totals := CategoryTotals{
		Labels: labels,
		Values: make([]float64, len(labels)),
	}
	if totals.Labels == nil {
		totals.Labels = []string{}
	}
	for i, l := range labels {
		totals.Values[i], _ = sums[l].Round(2).Float64()
	}
	return totals
}

// CategoryHue is the chart hue for the i-th category, spreading neighbours
// around the colour wheel.
func CategoryHue(i int) int {
	return (i * 47) % 360
}
