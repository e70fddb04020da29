package handlers

import (
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"
	"time"

	"spendly/internal/models"

	"go.uber.org/zap"
)

var templateFuncs = template.FuncMap{
	"money":      models.FormatCents,
	"moneyFloat": func(cents float64) string { return fmt.Sprintf("%.2f", cents/100) },
	"inputDate":  func(t time.Time) string { return t.In(time.Local).Format("2006-01-02T15:04") },
	"showDate":   func(t time.Time) string { return t.In(time.Local).Format("Jan 02, 15:04") },
	"percent":    func(p float64) string { return fmt.Sprintf("%.1f%%", p) },
	"deref": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, viewName string, data any) {
	tmpl, err := template.New("base.html").Funcs(templateFuncs).ParseFiles(
		filepath.Join(h.templateDir, "base.html"),
		filepath.Join(h.templateDir, viewName),
	)
	if err != nil {
		h.logger(r).Error("parse template", zap.String("view", viewName), zap.Error(err))
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	target := "base.html"
	if r.Header.Get("HX-Request") == "true" {
		target = "content"
	}
	if err := tmpl.ExecuteTemplate(w, target, data); err != nil {
		h.logger(r).Error("execute template", zap.String("view", viewName), zap.Error(err))
	}
}

// ExpenseItem is an expense prepared for display.
type ExpenseItem struct {
	models.Expense
	Category *models.Category
}

// CategoryStat is one row of a per-category aggregation.
type CategoryStat struct {
	Category    *models.Category
	Count       int64
	AmountCents int64
	Percentage  float64
}

// Label is the category name, or "Uncategorized" for the nil group.
func (s CategoryStat) Label() string {
	if s.Category == nil {
		return "Uncategorized"
	}
	return s.Category.Name
}

// Color is the category color, or the default color for the nil group.
func (s CategoryStat) Color() string {
	if s.Category == nil {
		return models.DefaultCategoryColor
	}
	return s.Category.Color
}

func indexCategories(categories []models.Category) map[string]*models.Category {
	byID := make(map[string]*models.Category, len(categories))
	for i := range categories {
		byID[categories[i].ID] = &categories[i]
	}
	return byID
}

func lookup(byID map[string]*models.Category, id *string) *models.Category {
	if id == nil {
		return nil
	}
	return byID[*id]
}

func expenseItems(expenses []models.Expense, byID map[string]*models.Category) []ExpenseItem {
	items := make([]ExpenseItem, 0, len(expenses))
	for _, e := range expenses {
		items = append(items, ExpenseItem{Expense: e, Category: lookup(byID, e.CategoryID)})
	}
	return items
}
