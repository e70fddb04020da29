package storage

import (
	"sort"
	"testing"
	"time"

	"spendly/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// ExpenseTestSuite provides a test suite for expense operations
type ExpenseTestSuite struct {
	storeSuite
}

func (s *ExpenseTestSuite) TestCreateExpense() {
	e := &models.Expense{UserID: s.user.ID, Name: "Lunch", AmountCents: 1050, Date: time.Now()}
	require.NoError(s.T(), s.db.CreateExpense(s.ctx, e))
	assert.NotEmpty(s.T(), e.ID)

	got, err := s.db.GetExpense(s.ctx, e.ID, s.user.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Lunch", got.Name)
	assert.Equal(s.T(), int64(1050), got.AmountCents)
	assert.Nil(s.T(), got.CategoryID)
	assert.WithinDuration(s.T(), e.Date, got.Date, time.Millisecond)
}

func (s *ExpenseTestSuite) TestCreateExpenseDefaultsDate() {
	e := &models.Expense{UserID: s.user.ID, AmountCents: 100}
	require.NoError(s.T(), s.db.CreateExpense(s.ctx, e))

	got, err := s.db.GetExpense(s.ctx, e.ID, s.user.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "", got.Name)
	assert.WithinDuration(s.T(), time.Now(), got.Date, 5*time.Second)
}

func (s *ExpenseTestSuite) TestOutOfRangeAmountRejectedByStore() {
	for _, cents := range []int64{0, -5, models.MaxAmountCents + 1} {
		err := s.db.CreateExpense(s.ctx, &models.Expense{UserID: s.user.ID, AmountCents: cents})
		assert.ErrorIs(s.T(), err, models.ErrInvalidAmount, "cents=%d", cents)
	}

	e := s.newExpense(s.user.ID, 100, nil, time.Now())
	tooMuch := models.MaxAmountCents + 1
	err := s.db.UpdateExpense(s.ctx, e.ID, s.user.ID, models.ExpensePatch{AmountCents: &tooMuch})
	assert.ErrorIs(s.T(), err, models.ErrInvalidAmount)

	got, err := s.db.GetExpense(s.ctx, e.ID, s.user.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(100), got.AmountCents)
}

func (s *ExpenseTestSuite) TestCreateExpenseWithForeignCategory() {
	other := s.newUser("other")
	c := s.newCategory(other.ID, "Foreign")

	err := s.db.CreateExpense(s.ctx, &models.Expense{UserID: s.user.ID, AmountCents: 100, CategoryID: &c.ID})
	assert.ErrorIs(s.T(), err, ErrCategoryNotFound)

	list, err := s.db.ListExpenses(s.ctx, s.user.ID)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), list)
}

func (s *ExpenseTestSuite) TestCreateExpensesBatch() {
	c := s.newCategory(s.user.ID, "Food")
	batch := []models.Expense{
		{UserID: s.user.ID, Name: "a", AmountCents: 100},
		{UserID: s.user.ID, Name: "b", AmountCents: 200, CategoryID: &c.ID},
	}
	require.NoError(s.T(), s.db.CreateExpenses(s.ctx, batch))

	list, err := s.db.ListExpenses(s.ctx, s.user.ID)
	require.NoError(s.T(), err)
	assert.Len(s.T(), list, 2)
}

func (s *ExpenseTestSuite) TestCreateExpensesEmptyBatch() {
	assert.NoError(s.T(), s.db.CreateExpenses(s.ctx, nil))
}

func (s *ExpenseTestSuite) TestCreateExpensesIsAllOrNothing() {
	missing := "missing"
	batch := []models.Expense{
		{UserID: s.user.ID, Name: "ok", AmountCents: 100},
		{UserID: s.user.ID, Name: "bad", AmountCents: 200, CategoryID: &missing},
	}
	err := s.db.CreateExpenses(s.ctx, batch)
	assert.ErrorIs(s.T(), err, ErrCategoryNotFound)

	list, err := s.db.ListExpenses(s.ctx, s.user.ID)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), list)
}

func (s *ExpenseTestSuite) TestListExpensesOrderAndScope() {
	other := s.newUser("other")
	base := time.Now()
	s.newExpense(s.user.ID, 2000, nil, base.Add(time.Minute))
	s.newExpense(s.user.ID, 500, nil, base.Add(3*time.Minute))
	s.newExpense(s.user.ID, 1500, nil, base.Add(2*time.Minute))
	s.newExpense(other.ID, 9999, nil, base.Add(4*time.Minute))

	list, err := s.db.ListExpenses(s.ctx, s.user.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), list, 3)
	assert.Equal(s.T(), int64(500), list[0].AmountCents)
	assert.Equal(s.T(), int64(1500), list[1].AmountCents)
	assert.Equal(s.T(), int64(2000), list[2].AmountCents)
}

func (s *ExpenseTestSuite) TestListExpensesByCategory() {
	food := s.newCategory(s.user.ID, "Food")
	travel := s.newCategory(s.user.ID, "Travel")
	base := time.Now()
	older := s.newExpense(s.user.ID, 100, &food.ID, base)
	newer := s.newExpense(s.user.ID, 200, &food.ID, base.Add(time.Hour))
	s.newExpense(s.user.ID, 300, &travel.ID, base)
	s.newExpense(s.user.ID, 400, nil, base)

	list, err := s.db.ListExpensesByCategory(s.ctx, s.user.ID, food.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), list, 2)
	assert.Equal(s.T(), newer.ID, list[0].ID)
	assert.Equal(s.T(), older.ID, list[1].ID)

	other := s.newUser("other")
	list, err = s.db.ListExpensesByCategory(s.ctx, other.ID, food.ID)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), list)
}

func (s *ExpenseTestSuite) TestListExpensesInRange() {
	may := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	s.newExpense(s.user.ID, 100, nil, may.Add(-time.Second))
	first := s.newExpense(s.user.ID, 200, nil, may)
	last := s.newExpense(s.user.ID, 300, nil, may.AddDate(0, 1, 0).Add(-time.Second))
	s.newExpense(s.user.ID, 400, nil, may.AddDate(0, 1, 0))

	list, err := s.db.ListExpensesInRange(s.ctx, s.user.ID, may, may.AddDate(0, 1, 0))
	require.NoError(s.T(), err)
	require.Len(s.T(), list, 2)
	assert.Equal(s.T(), last.ID, list[0].ID)
	assert.Equal(s.T(), first.ID, list[1].ID)
}

func (s *ExpenseTestSuite) TestUpdateExpense() {
	c := s.newCategory(s.user.ID, "Food")
	e := s.newExpense(s.user.ID, 100, nil, time.Now())

	name := "Dinner"
	amount := int64(4200)
	date := time.Date(2024, 5, 1, 19, 30, 0, 0, time.UTC)
	err := s.db.UpdateExpense(s.ctx, e.ID, s.user.ID, models.ExpensePatch{
		Name: &name, AmountCents: &amount, Date: &date, SetCategory: true, CategoryID: &c.ID,
	})
	require.NoError(s.T(), err)

	got, err := s.db.GetExpense(s.ctx, e.ID, s.user.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Dinner", got.Name)
	assert.Equal(s.T(), int64(4200), got.AmountCents)
	assert.True(s.T(), date.Equal(got.Date))
	require.NotNil(s.T(), got.CategoryID)
	assert.Equal(s.T(), c.ID, *got.CategoryID)
}

func (s *ExpenseTestSuite) TestUpdateKeepsUnsetFields() {
	c := s.newCategory(s.user.ID, "Food")
	e := s.newExpense(s.user.ID, 100, &c.ID, time.Now())

	amount := int64(900)
	require.NoError(s.T(), s.db.UpdateExpense(s.ctx, e.ID, s.user.ID, models.ExpensePatch{AmountCents: &amount}))

	got, err := s.db.GetExpense(s.ctx, e.ID, s.user.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "expense", got.Name)
	require.NotNil(s.T(), got.CategoryID)
	assert.Equal(s.T(), c.ID, *got.CategoryID)
}

func (s *ExpenseTestSuite) TestUpdateExpenseForeignCategory() {
	other := s.newUser("other")
	foreign := s.newCategory(other.ID, "Foreign")
	e := s.newExpense(s.user.ID, 100, nil, time.Now())

	err := s.db.UpdateExpense(s.ctx, e.ID, s.user.ID, models.ExpensePatch{SetCategory: true, CategoryID: &foreign.ID})
	assert.ErrorIs(s.T(), err, ErrNotFound)

	got, err := s.db.GetExpense(s.ctx, e.ID, s.user.ID)
	require.NoError(s.T(), err)
	assert.Nil(s.T(), got.CategoryID)
}

func (s *ExpenseTestSuite) TestMutationsByNonOwner() {
	other := s.newUser("other")
	e := s.newExpense(s.user.ID, 100, nil, time.Now())

	amount := int64(1)
	err := s.db.UpdateExpense(s.ctx, e.ID, other.ID, models.ExpensePatch{AmountCents: &amount})
	assert.ErrorIs(s.T(), err, ErrNotFound)

	err = s.db.DeleteExpense(s.ctx, e.ID, other.ID)
	assert.ErrorIs(s.T(), err, ErrNotFound)

	got, err := s.db.GetExpense(s.ctx, e.ID, s.user.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(100), got.AmountCents)
}

func (s *ExpenseTestSuite) TestDeleteExpense() {
	e := s.newExpense(s.user.ID, 100, nil, time.Now())

	require.NoError(s.T(), s.db.DeleteExpense(s.ctx, e.ID, s.user.ID))

	_, err := s.db.GetExpense(s.ctx, e.ID, s.user.ID)
	assert.ErrorIs(s.T(), err, ErrNotFound)
	assert.ErrorIs(s.T(), s.db.DeleteExpense(s.ctx, e.ID, s.user.ID), ErrNotFound)
}

func TestExpenseSuite(t *testing.T) {
	suite.Run(t, new(ExpenseTestSuite))
}

// SummaryTestSuite checks the aggregation queries against manual computation.
type SummaryTestSuite struct {
	storeSuite
}

func (s *SummaryTestSuite) TestEmptySummary() {
	summary, err := s.db.Summary(s.ctx, s.user.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.Summary{}, summary)

	freq, err := s.db.MostFrequentCategories(s.ctx, s.user.ID)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), freq)
}

func (s *SummaryTestSuite) TestSummaryExamples() {
	for _, cents := range []int64{1000, 2000, 3000} {
		s.newExpense(s.user.ID, cents, nil, time.Now())
	}

	summary, err := s.db.Summary(s.ctx, s.user.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.Summary{Total: 6000, Average: 2000, Median: 2000}, summary)

	s.newExpense(s.user.ID, 4000, nil, time.Now())
	summary, err = s.db.Summary(s.ctx, s.user.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), float64(2500), summary.Median)
}

func (s *SummaryTestSuite) TestAggregationsStayExactAtTheAmountCap() {
	food := s.newCategory(s.user.ID, "Food")
	for i := 0; i < 3; i++ {
		s.newExpense(s.user.ID, models.MaxAmountCents, &food.ID, time.Now())
	}

	summary, err := s.db.Summary(s.ctx, s.user.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 3*models.MaxAmountCents, summary.Total)
	assert.Equal(s.T(), float64(models.MaxAmountCents), summary.Median)

	biggest, err := s.db.BiggestCategories(s.ctx, s.user.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), biggest, 1)
	assert.Equal(s.T(), 3*models.MaxAmountCents, biggest[0].AmountCents)
}

func (s *SummaryTestSuite) TestSummaryMatchesManualComputation() {
	faker := gofakeit.New(42)
	other := s.newUser("other")
	s.newExpense(other.ID, 123456, nil, time.Now())

	for round := 0; round < 5; round++ {
		n := faker.Number(1, 40)
		var amounts []int64
		for i := 0; i < n; i++ {
			cents := int64(faker.Number(1, 500000))
			amounts = append(amounts, cents)
			s.newExpense(s.user.ID, cents, nil, faker.Date())
		}

		summary, err := s.db.Summary(s.ctx, s.user.ID)
		require.NoError(s.T(), err)

		all, err := s.db.ListExpenses(s.ctx, s.user.ID)
		require.NoError(s.T(), err)
		stored := make([]int64, 0, len(all))
		var total int64
		for _, e := range all {
			stored = append(stored, e.AmountCents)
			total += e.AmountCents
		}
		sort.Slice(stored, func(i, j int) bool { return stored[i] < stored[j] })

		mid := len(stored) / 2
		median := float64(stored[mid])
		if len(stored)%2 == 0 {
			median = float64(stored[mid-1]+stored[mid]) / 2
		}

		assert.Equal(s.T(), total, summary.Total)
		assert.InDelta(s.T(), float64(total)/float64(len(stored)), summary.Average, 1e-9)
		assert.Equal(s.T(), median, summary.Median)
	}
}

func (s *SummaryTestSuite) TestGroupedAggregationsIncludeUncategorized() {
	food := s.newCategory(s.user.ID, "Food")
	travel := s.newCategory(s.user.ID, "Travel")
	now := time.Now()

	s.newExpense(s.user.ID, 100, &food.ID, now)
	s.newExpense(s.user.ID, 200, &food.ID, now)
	s.newExpense(s.user.ID, 300, &food.ID, now)
	s.newExpense(s.user.ID, 5000, &travel.ID, now)
	s.newExpense(s.user.ID, 700, nil, now)
	s.newExpense(s.user.ID, 800, nil, now)

	freq, err := s.db.MostFrequentCategories(s.ctx, s.user.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), freq, 3)
	assert.Equal(s.T(), food.ID, *freq[0].CategoryID)
	assert.Equal(s.T(), int64(3), freq[0].Count)
	assert.Nil(s.T(), freq[1].CategoryID)
	assert.Equal(s.T(), int64(2), freq[1].Count)
	assert.Equal(s.T(), travel.ID, *freq[2].CategoryID)
	assert.Equal(s.T(), int64(1), freq[2].Count)

	biggest, err := s.db.BiggestCategories(s.ctx, s.user.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), biggest, 3)
	assert.Equal(s.T(), travel.ID, *biggest[0].CategoryID)
	assert.Equal(s.T(), int64(5000), biggest[0].AmountCents)
	assert.Nil(s.T(), biggest[1].CategoryID)
	assert.Equal(s.T(), int64(1500), biggest[1].AmountCents)
	assert.Equal(s.T(), food.ID, *biggest[2].CategoryID)
	assert.Equal(s.T(), int64(600), biggest[2].AmountCents)
}

func (s *SummaryTestSuite) TestCategorySummary() {
	food := s.newCategory(s.user.ID, "Food")
	s.newExpense(s.user.ID, 1000, &food.ID, time.Now())
	s.newExpense(s.user.ID, 2000, &food.ID, time.Now())
	s.newExpense(s.user.ID, 9000, nil, time.Now())

	summary, err := s.db.CategorySummary(s.ctx, s.user.ID, food.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.Summary{Total: 3000, Average: 1500, Median: 1500}, summary)
}

func TestSummarySuite(t *testing.T) {
	suite.Run(t, new(SummaryTestSuite))
}
