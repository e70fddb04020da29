package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"spendly/internal/models"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseDate accepts RFC 3339 timestamps, datetime-local input values and
// plain dates. Values without a zone are read in the server's local time.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, invalid("Invalid date")
}

// optional turns an empty form value into nil.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// expenseInput is one expense as submitted by a form or the API, before validation.
type expenseInput struct {
	Name       string
	Amount     string
	Date       string
	CategoryID string
}

func expenseInputFromForm(r *http.Request) expenseInput {
	return expenseInput{
		Name:       r.PostFormValue("name"),
		Amount:     r.PostFormValue("amount"),
		Date:       r.PostFormValue("date"),
		CategoryID: r.PostFormValue("categoryId"),
	}
}

// expense validates the input and converts it into an expense owned by userID.
func (in expenseInput) expense(userID string) (models.Expense, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || strings.TrimSpace(in.Amount) == "" || strings.TrimSpace(in.Date) == "" {
		return models.Expense{}, errMissingFields
	}

	cents, err := models.ParseAmount(in.Amount)
	if err != nil {
		return models.Expense{}, errInvalidAmount
	}

	date, err := parseDate(in.Date)
	if err != nil {
		return models.Expense{}, err
	}

	return models.Expense{
		UserID:      userID,
		Name:        name,
		AmountCents: cents,
		Date:        date,
		CategoryID:  optional(in.CategoryID),
	}, nil
}

var bulkField = regexp.MustCompile(`^expenses\[(\d+)\]\[(name|amount|date|categoryId)\]$`)

// bulkInputsFromForm collects expenses[i][field] values ordered by index.
// Rows left without a name and an amount are untouched form rows and are
// dropped; every other row is validated as submitted.
func bulkInputsFromForm(r *http.Request) []expenseInput {
	rows := map[int]*expenseInput{}
	for key, values := range r.PostForm {
		m := bulkField.FindStringSubmatch(key)
		if m == nil || len(values) == 0 {
			continue
		}
		i, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		row, ok := rows[i]
		if !ok {
			row = &expenseInput{}
			rows[i] = row
		}
		switch m[2] {
		case "name":
			row.Name = values[0]
		case "amount":
			row.Amount = values[0]
		case "date":
			row.Date = values[0]
		case "categoryId":
			row.CategoryID = values[0]
		}
	}

	indexes := make([]int, 0, len(rows))
	for i := range rows {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	inputs := make([]expenseInput, 0, len(indexes))
	for _, i := range indexes {
		row := rows[i]
		if strings.TrimSpace(row.Name) == "" && strings.TrimSpace(row.Amount) == "" {
			continue
		}
		inputs = append(inputs, *row)
	}
	return inputs
}

// expensesFromInputs validates every row. The first invalid row rejects the batch.
func expensesFromInputs(userID string, inputs []expenseInput) ([]models.Expense, error) {
	expenses := make([]models.Expense, 0, len(inputs))
	for i, in := range inputs {
		e, err := in.expense(userID)
		if err != nil {
			var ie *inputError
			if errors.As(err, &ie) {
				return nil, invalid("Expense %d: %s", i+1, ie.msg)
			}
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, nil
}

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// categoryInput is a category as submitted by a form or the API.
type categoryInput struct {
	Name        string `json:"name"`
	Color       string `json:"color"`
	TextColor   string `json:"textColor"`
	Description string `json:"description"`

	// hasDescription is set when the form carried a description field, even
	// an empty one.
	hasDescription bool
}

func categoryInputFromForm(r *http.Request) categoryInput {
	in := categoryInput{
		Name:        r.PostFormValue("name"),
		Color:       r.PostFormValue("color"),
		TextColor:   r.PostFormValue("textColor"),
		Description: r.PostFormValue("description"),
	}
	_, in.hasDescription = r.PostForm["description"]
	return in
}

func (in categoryInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("Name is required")
	}
	for _, c := range []string{in.Color, in.TextColor} {
		if c = strings.TrimSpace(c); c != "" && !hexColor.MatchString(c) {
			return invalid("Invalid color %q", c)
		}
	}
	return nil
}

// category validates the input for a new category owned by userID.
func (in categoryInput) category(userID string) (models.Category, error) {
	if err := in.validate(); err != nil {
		return models.Category{}, err
	}
	return models.Category{
		UserID:      userID,
		Name:        strings.TrimSpace(in.Name),
		Color:       strings.TrimSpace(in.Color),
		TextColor:   optional(in.TextColor),
		Description: optional(in.Description),
	}, nil
}

// patch validates the input as a category update. Name and color are always
// written. A submitted description is written even when empty, which clears
// it; an empty text color is left as it is.
func (in categoryInput) patch() (models.CategoryPatch, error) {
	if err := in.validate(); err != nil {
		return models.CategoryPatch{}, err
	}
	if strings.TrimSpace(in.Color) == "" {
		return models.CategoryPatch{}, errMissingFields
	}
	name := strings.TrimSpace(in.Name)
	color := strings.TrimSpace(in.Color)
	description := optional(in.Description)
	if description == nil && in.hasDescription {
		description = new(string)
	}
	return models.CategoryPatch{
		Name:        &name,
		Color:       &color,
		TextColor:   optional(in.TextColor),
		Description: description,
	}, nil
}
