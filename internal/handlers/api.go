package handlers

import (
	"bytes"
	"net/http"

	"spendly/internal/models"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const maxJSONBody = 1 << 20

type apiResponse struct {
	Success bool `json:"success"`
	Count   *int `json:"count,omitempty"`
}

type apiError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (h *Handlers) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger(r).Warn("encode response", zap.Error(err))
	}
}

func (h *Handlers) apiFail(w http.ResponseWriter, r *http.Request, err error) {
	status, code, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger(r).Error("api request failed", zap.Error(err))
	}
	h.writeJSON(w, r, status, apiError{Error: msg, Code: code})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		return invalid("Invalid JSON body")
	}
	return nil
}

// APIListCategories returns the caller's categories.
func (h *Handlers) APIListCategories(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	categories, err := h.db.ListCategories(r.Context(), user.ID)
	if err != nil {
		h.apiFail(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, categories)
}

// APICreateCategory creates a category from a JSON object.
func (h *Handlers) APICreateCategory(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	var in categoryInput
	if err := decodeBody(w, r, &in); err != nil {
		h.apiFail(w, r, err)
		return
	}
	c, err := in.category(user.ID)
	if err != nil {
		h.apiFail(w, r, err)
		return
	}
	if err := h.db.CreateCategory(r.Context(), &c); err != nil {
		h.apiFail(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, apiResponse{Success: true})
}

// APIDeleteCategory deletes a category that no expense references.
func (h *Handlers) APIDeleteCategory(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	if err := h.db.DeleteCategory(r.Context(), r.PathValue("id"), user.ID); err != nil {
		h.apiFail(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, apiResponse{Success: true})
}

// APIListExpenses returns the caller's expenses, newest first.
func (h *Handlers) APIListExpenses(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	expenses, err := h.db.ListExpenses(r.Context(), user.ID)
	if err != nil {
		h.apiFail(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, expenses)
}

type summaryResponse struct {
	Summary      models.Summary         `json:"summary"`
	MostFrequent []models.CategoryCount `json:"mostFrequentCategories"`
	Biggest      []models.CategoryTotal `json:"biggestCategories"`
}

// APISummary returns the caller's summary and category rankings.
func (h *Handlers) APISummary(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	var resp summaryResponse
	var err error
	if resp.Summary, err = h.db.Summary(r.Context(), user.ID); err != nil {
		h.apiFail(w, r, err)
		return
	}
	if resp.MostFrequent, err = h.db.MostFrequentCategories(r.Context(), user.ID); err != nil {
		h.apiFail(w, r, err)
		return
	}
	if resp.Biggest, err = h.db.BiggestCategories(r.Context(), user.ID); err != nil {
		h.apiFail(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}

// expenseRequest is the JSON shape of one expense. The amount is given either
// in cents or as a decimal in major units, as a number (1e3 included) or a string.
type expenseRequest struct {
	Name        string          `json:"name"`
	AmountCents *int64          `json:"amountCents"`
	Amount      json.RawMessage `json:"amount"`
	Date        string          `json:"date"`
	CategoryID  string          `json:"categoryId"`
}

func (req expenseRequest) input() (expenseInput, error) {
	in := expenseInput{Name: req.Name, Date: req.Date, CategoryID: req.CategoryID}
	switch {
	case req.AmountCents != nil:
		if !models.ValidCents(*req.AmountCents) {
			return in, errInvalidAmount
		}
		in.Amount = models.FormatCents(*req.AmountCents)
	case len(req.Amount) > 0 && !bytes.Equal(req.Amount, []byte("null")):
		if req.Amount[0] == '"' {
			if err := json.Unmarshal(req.Amount, &in.Amount); err != nil {
				return in, errInvalidAmount
			}
			break
		}
		amount, err := jsonNumber(req.Amount)
		if err != nil {
			return in, errInvalidAmount
		}
		in.Amount = amount
	}
	return in, nil
}

// maxAmountExponent bounds exponents in JSON numbers such as 1e3 before they
// are expanded into plain decimal text.
const maxAmountExponent = 20

// jsonNumber rewrites a JSON number, exponent notation included, as plain
// decimal text for models.ParseAmount.
func jsonNumber(raw []byte) (string, error) {
	d, err := decimal.NewFromString(string(raw))
	if err != nil {
		return "", err
	}
	if exp := d.Exponent(); exp > maxAmountExponent || exp < -maxAmountExponent {
		return "", models.ErrInvalidAmount
	}
	return d.String(), nil
}

// APICreateExpenses accepts a single expense object or an array of them.
// Arrays are all-or-nothing.
func (h *Handlers) APICreateExpenses(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	var raw json.RawMessage
	if err := decodeBody(w, r, &raw); err != nil {
		h.apiFail(w, r, err)
		return
	}

	var reqs []expenseRequest
	batch := bytes.HasPrefix(bytes.TrimSpace(raw), []byte("["))
	if batch {
		if err := json.Unmarshal(raw, &reqs); err != nil {
			h.apiFail(w, r, invalid("Invalid JSON body"))
			return
		}
	} else {
		var req expenseRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			h.apiFail(w, r, invalid("Invalid JSON body"))
			return
		}
		reqs = []expenseRequest{req}
	}

	inputs := make([]expenseInput, 0, len(reqs))
	for i, req := range reqs {
		in, err := req.input()
		if err != nil {
			if batch {
				err = invalid("Expense %d: %s", i+1, err.Error())
			}
			h.apiFail(w, r, err)
			return
		}
		inputs = append(inputs, in)
	}

	if !batch {
		e, err := inputs[0].expense(user.ID)
		if err != nil {
			h.apiFail(w, r, err)
			return
		}
		if err := h.db.CreateExpense(r.Context(), &e); err != nil {
			h.apiFail(w, r, err)
			return
		}
		h.writeJSON(w, r, http.StatusCreated, apiResponse{Success: true})
		return
	}

	expenses, err := expensesFromInputs(user.ID, inputs)
	if err != nil {
		h.apiFail(w, r, err)
		return
	}
	if err := h.db.CreateExpenses(r.Context(), expenses); err != nil {
		h.apiFail(w, r, err)
		return
	}
	count := len(expenses)
	h.writeJSON(w, r, http.StatusCreated, apiResponse{Success: true, Count: &count})
}
