package handlers

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"spendly/internal/models"

	"golang.org/x/sync/errgroup"
)

// StatsViewModel is the data passed to the statistics view template.
type StatsViewModel struct {
	Year           int
	Month          int
	MonthName      string
	Total          int64
	Categories     []CategoryStat
	Expenses       []ExpenseItem
	PrevYear       int
	PrevMonth      int
	NextYear       int
	NextMonth      int
	IsCurrentMonth bool
}

// Statistics renders the per-category breakdown of one month.
func (h *Handlers) Statistics(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	now := time.Now()
	year := now.Year()
	month := int(now.Month())

	if y, err := strconv.Atoi(r.URL.Query().Get("year")); err == nil && y > 0 {
		year = y
	}
	if m, err := strconv.Atoi(r.URL.Query().Get("month")); err == nil && m >= 1 && m <= 12 {
		month = m
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
	end := start.AddDate(0, 1, 0)

	var (
		expenses   []models.Expense
		categories []models.Category
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		expenses, err = h.db.ListExpensesInRange(ctx, user.ID, start, end)
		return err
	})
	g.Go(func() (err error) {
		categories, err = h.db.ListCategories(ctx, user.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		h.fail(w, r, err)
		return
	}

	byID := indexCategories(categories)
	stats, total := breakdown(expenses, byID)

	prev := start.AddDate(0, -1, 0)
	h.render(w, r, "stats.html", StatsViewModel{
		Year:           year,
		Month:          month,
		MonthName:      time.Month(month).String(),
		Total:          total,
		Categories:     stats,
		Expenses:       expenseItems(expenses, byID),
		PrevYear:       prev.Year(),
		PrevMonth:      int(prev.Month()),
		NextYear:       end.Year(),
		NextMonth:      int(end.Month()),
		IsCurrentMonth: year == now.Year() && month == int(now.Month()),
	})
}

// breakdown groups expenses by category, largest total first, and returns the
// overall total.
func breakdown(expenses []models.Expense, byID map[string]*models.Category) ([]CategoryStat, int64) {
	groups := map[string]*CategoryStat{}
	var order []string
	var total int64

	for _, e := range expenses {
		key := ""
		if e.CategoryID != nil {
			key = *e.CategoryID
		}
		g, ok := groups[key]
		if !ok {
			g = &CategoryStat{Category: lookup(byID, e.CategoryID)}
			groups[key] = g
			order = append(order, key)
		}
		g.Count++
		g.AmountCents += e.AmountCents
		total += e.AmountCents
	}

	stats := make([]CategoryStat, 0, len(order))
	for _, key := range order {
		g := groups[key]
		if total > 0 {
			g.Percentage = float64(g.AmountCents) / float64(total) * 100
		}
		stats = append(stats, *g)
	}
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].AmountCents > stats[j].AmountCents })
	return stats, total
}
