package handlers

import (
	"errors"
	"net/http"

	"spendly/internal/models"
	"spendly/internal/storage"

	"golang.org/x/sync/errgroup"
)

// CategoriesViewModel is the data passed to the categories template.
type CategoriesViewModel struct {
	Categories []models.Category
}

// CategoryViewModel is the data passed to the category detail template.
type CategoryViewModel struct {
	Category   *models.Category
	Categories []models.Category
	Expenses   []ExpenseItem
	Summary    models.Summary
}

// ListCategories renders the caller's categories.
func (h *Handlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	categories, err := h.db.ListCategories(r.Context(), user.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, "categories.html", CategoriesViewModel{Categories: categories})
}

// CategoryDetail renders one category with its expenses and summary. Unknown
// or foreign categories send the browser back to the list.
func (h *Handlers) CategoryDetail(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")

	category, err := h.db.GetCategory(r.Context(), id, user.ID)
	if errors.Is(err, storage.ErrNotFound) {
		http.Redirect(w, r, "/categories", http.StatusFound)
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	vm := CategoryViewModel{Category: category}
	var expenses []models.Expense
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		expenses, err = h.db.ListExpensesByCategory(ctx, user.ID, id)
		return err
	})
	g.Go(func() (err error) {
		vm.Summary, err = h.db.CategorySummary(ctx, user.ID, id)
		return err
	})
	g.Go(func() (err error) {
		vm.Categories, err = h.db.ListCategories(ctx, user.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		h.fail(w, r, err)
		return
	}

	vm.Expenses = expenseItems(expenses, indexCategories(vm.Categories))
	h.render(w, r, "category.html", vm)
}

// CreateCategory handles the new category form.
func (h *Handlers) CreateCategory(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, invalid("Invalid form submission"))
		return
	}

	c, err := categoryInputFromForm(r).category(user.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.db.CreateCategory(r.Context(), &c); err != nil {
		h.fail(w, r, err)
		return
	}
	done(w, r, returnPath(r, "/categories"))
}

// UpdateCategory handles the category edit form.
func (h *Handlers) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, invalid("Invalid form submission"))
		return
	}

	patch, err := categoryInputFromForm(r).patch()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	id := r.PathValue("id")
	if err := h.db.UpdateCategory(r.Context(), id, user.ID, patch); err != nil {
		h.fail(w, r, err)
		return
	}
	done(w, r, returnPath(r, "/categories/"+id))
}

// DeleteCategory removes a category that no expense references.
func (h *Handlers) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, invalid("Invalid form submission"))
		return
	}

	if err := h.db.DeleteCategory(r.Context(), r.PathValue("id"), user.ID); err != nil {
		h.fail(w, r, err)
		return
	}
	done(w, r, returnPath(r, "/categories"))
}
