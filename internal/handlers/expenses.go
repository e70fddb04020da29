package handlers

import (
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"spendly/internal/models"

	"go.uber.org/zap"
)

// returnPath picks where a form action sends the browser afterwards. Only
// local paths are honored. Browsers drop tabs and newlines from a Location
// and read backslashes as slashes, so any of those rejects the value.
func returnPath(r *http.Request, fallback string) string {
	p := r.PostFormValue("returnTo")
	if len(p) < 2 || p[0] != '/' || p[1] == '/' {
		return fallback
	}
	if strings.ContainsFunc(p, func(c rune) bool { return c == '\\' || unicode.IsControl(c) }) {
		return fallback
	}
	u, err := url.Parse(p)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return p
}

// CreateExpense handles the creation of a new expense.
func (h *Handlers) CreateExpense(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, invalid("Invalid form submission"))
		return
	}

	e, err := expenseInputFromForm(r).expense(user.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.db.CreateExpense(r.Context(), &e); err != nil {
		h.fail(w, r, err)
		return
	}
	h.logger(r).Debug("expense created", zap.String("expense_id", e.ID))
	done(w, r, returnPath(r, "/"))
}

// CreateExpenses handles the bulk form. Any invalid row rejects the whole batch.
func (h *Handlers) CreateExpenses(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, invalid("Invalid form submission"))
		return
	}

	expenses, err := expensesFromInputs(user.ID, bulkInputsFromForm(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.db.CreateExpenses(r.Context(), expenses); err != nil {
		h.fail(w, r, err)
		return
	}
	h.logger(r).Debug("expenses created", zap.Int("count", len(expenses)))
	done(w, r, returnPath(r, "/"))
}

// UpdateExpense replaces the fields of an expense owned by the caller.
// An empty categoryId clears the category.
func (h *Handlers) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, invalid("Invalid form submission"))
		return
	}

	e, err := expenseInputFromForm(r).expense(user.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	patch := models.ExpensePatch{
		Name:        &e.Name,
		AmountCents: &e.AmountCents,
		Date:        &e.Date,
		SetCategory: true,
		CategoryID:  e.CategoryID,
	}
	if err := h.db.UpdateExpense(r.Context(), r.PathValue("id"), user.ID, patch); err != nil {
		h.fail(w, r, err)
		return
	}
	done(w, r, returnPath(r, "/"))
}

// DeleteExpense removes an expense owned by the caller.
func (h *Handlers) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, invalid("Invalid form submission"))
		return
	}

	if err := h.db.DeleteExpense(r.Context(), r.PathValue("id"), user.ID); err != nil {
		h.fail(w, r, err)
		return
	}
	done(w, r, returnPath(r, "/"))
}
