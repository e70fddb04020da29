package models

import "slices"

// Summary aggregates a set of expense amounts. Total is exact; Average and
// Median are in cents and may carry a fractional half.
type Summary struct {
	Total   int64   `json:"total"`
	Average float64 `json:"average"`
	Median  float64 `json:"median"`
}

// Summarize computes total, average and median over amounts. An empty slice
// yields the zero Summary. The input is not modified.
func Summarize(amounts []int64) Summary {
	if len(amounts) == 0 {
		return Summary{}
	}

	var total int64
	for _, a := range amounts {
		total += a
	}

	sorted := slices.Clone(amounts)
	slices.Sort(sorted)

	mid := len(sorted) / 2
	var median float64
	if len(sorted)%2 == 0 {
		median = (float64(sorted[mid-1]) + float64(sorted[mid])) / 2
	} else {
		median = float64(sorted[mid])
	}

	return Summary{
		Total:   total,
		Average: float64(total) / float64(len(amounts)),
		Median:  median,
	}
}

// CategoryCount is the number of expenses in one category group.
// A nil CategoryID is the uncategorized group.
type CategoryCount struct {
	CategoryID *string `json:"categoryId"`
	Count      int64   `json:"count"`
}

// CategoryTotal is the summed amount of one category group.
// A nil CategoryID is the uncategorized group.
type CategoryTotal struct {
	CategoryID  *string `json:"categoryId"`
	AmountCents int64   `json:"amountCents"`
}
