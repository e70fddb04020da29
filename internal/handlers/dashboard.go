package handlers

import (
	"net/http"
	"time"

	"spendly/internal/models"

	"golang.org/x/sync/errgroup"
)

// bulkFormRows is how many blank rows the dashboard's bulk form offers.
const bulkFormRows = 3

// DashboardViewModel is the data passed to the dashboard template.
type DashboardViewModel struct {
	User         *models.User
	Expenses     []ExpenseItem
	Summary      models.Summary
	Categories   []models.Category
	MostFrequent []CategoryStat
	Biggest      []CategoryStat
	Now          time.Time
	BulkRows     []int
}

// Dashboard renders the expense list with its summary and category rankings.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	var (
		expenses   []models.Expense
		summary    models.Summary
		categories []models.Category
		frequent   []models.CategoryCount
		biggest    []models.CategoryTotal
	)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		expenses, err = h.db.ListExpenses(ctx, user.ID)
		return err
	})
	g.Go(func() (err error) {
		summary, err = h.db.Summary(ctx, user.ID)
		return err
	})
	g.Go(func() (err error) {
		categories, err = h.db.ListCategories(ctx, user.ID)
		return err
	})
	g.Go(func() (err error) {
		frequent, err = h.db.MostFrequentCategories(ctx, user.ID)
		return err
	})
	g.Go(func() (err error) {
		biggest, err = h.db.BiggestCategories(ctx, user.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		h.fail(w, r, err)
		return
	}

	byID := indexCategories(categories)
	vm := DashboardViewModel{
		User:       user,
		Expenses:   expenseItems(expenses, byID),
		Summary:    summary,
		Categories: categories,
		Now:        time.Now(),
		BulkRows:   make([]int, bulkFormRows),
	}
	for i := range vm.BulkRows {
		vm.BulkRows[i] = i
	}
	for _, c := range frequent {
		vm.MostFrequent = append(vm.MostFrequent, CategoryStat{Category: lookup(byID, c.CategoryID), Count: c.Count})
	}
	for _, c := range biggest {
		vm.Biggest = append(vm.Biggest, CategoryStat{Category: lookup(byID, c.CategoryID), AmountCents: c.AmountCents})
	}

	h.render(w, r, "dashboard.html", vm)
}
