package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"fintrack_backend/models"
)

// budgetConverter is the currency surface the budget service needs.
type budgetConverter interface {
	Convert(ctx context.Context, from, to string, amount decimal.Decimal) (*ConversionResult, error)
}

// BudgetInput is the payload for creating or updating a budget.
type BudgetInput struct {
	Name       string          `json:"name" binding:"required"`
	Amount     decimal.Decimal `json:"amount" binding:"required"`
	Currency   string          `json:"currency" binding:"required"`
	Categories []string        `json:"categories"`
	Period     string          `json:"period"`
	StartDate  *time.Time      `json:"start_date"`
	EndDate    *time.Time      `json:"end_date"`
}

// BudgetSummary aggregates a user's budgets in one base currency.
type BudgetSummary struct {
	Base    string              `json:"base"`
	Total   decimal.Decimal     `json:"total"`
	Budgets []BudgetSummaryItem `json:"budgets"`
}

// BudgetSummaryItem is one budget's contribution to a summary.
type BudgetSummaryItem struct {
	ID        uint            `json:"id"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Converted decimal.Decimal `json:"converted"`
	Period    string          `json:"period"`
	// Converted is zero when conversion failed and the budget is in a
	// different currency than the base.
	ConversionFailed bool `json:"conversion_failed,omitempty"`
}

// BudgetService owns budget CRUD and cross-currency aggregation.
type BudgetService struct {
	store    BudgetStore
	currency budgetConverter
}

// NewBudgetService creates the budget service.
func NewBudgetService(store BudgetStore, currency budgetConverter) *BudgetService {
	return &BudgetService{store: store, currency: currency}
}

func (s *BudgetService) validate(input *BudgetInput) error {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}
	currency, err := normalizeCurrency(input.Currency)
	if err != nil {
		return err
	}
	input.Currency = currency
	if input.Period == "" {
		input.Period = models.BudgetPeriodMonthly
	}
	if !models.IsValidBudgetPeriod(input.Period) {
		return fmt.Errorf("%w: unknown period %q", ErrInvalidInput, input.Period)
	}
	if input.StartDate != nil && input.EndDate != nil && !input.StartDate.Before(*input.EndDate) {
		return fmt.Errorf("%w: start date must precede end date", ErrInvalidDateRange)
	}
	return nil
}

// CreateBudget validates and persists a new budget for the user.
func (s *BudgetService) CreateBudget(ctx context.Context, userID uint, input BudgetInput) (*models.Budget, error) {
	if err := s.validate(&input); err != nil {
		return nil, err
	}
	budget := &models.Budget{
		UserID:     userID,
		Name:       input.Name,
		Amount:     input.Amount,
		Currency:   input.Currency,
		Categories: input.Categories,
		Period:     input.Period,
		StartDate:  input.StartDate,
		EndDate:    input.EndDate,
	}
	if err := s.store.Create(ctx, budget); err != nil {
		return nil, fmt.Errorf("failed to create budget: %w", err)
	}
	return budget, nil
}

// ListBudgets returns the user's budgets, newest first.
func (s *BudgetService) ListBudgets(ctx context.Context, userID uint) ([]models.Budget, error) {
	return s.store.ByUser(ctx, userID)
}

// GetBudget returns one budget owned by the user.
func (s *BudgetService) GetBudget(ctx context.Context, id, userID uint) (*models.Budget, error) {
	return s.store.ByID(ctx, id, userID)
}

// UpdateBudget replaces a budget's fields.
func (s *BudgetService) UpdateBudget(ctx context.Context, id, userID uint, input BudgetInput) (*models.Budget, error) {
	if err := s.validate(&input); err != nil {
		return nil, err
	}
	budget, err := s.store.ByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	budget.Name = input.Name
	budget.Amount = input.Amount
	budget.Currency = input.Currency
	budget.Categories = input.Categories
	budget.Period = input.Period
	budget.StartDate = input.StartDate
	budget.EndDate = input.EndDate
	if err := s.store.Save(ctx, budget); err != nil {
		return nil, fmt.Errorf("failed to update budget: %w", err)
	}
	return budget, nil
}

// DeleteBudget removes a budget owned by the user.
func (s *BudgetService) DeleteBudget(ctx context.Context, id, userID uint) error {
	budget, err := s.store.ByID(ctx, id, userID)
	if err != nil {
		return err
	}
	return s.store.Delete(ctx, budget)
}

// ConvertBudget expresses one budget's amount in another currency.
func (s *BudgetService) ConvertBudget(ctx context.Context, id, userID uint, to string) (*ConversionResult, error) {
	budget, err := s.store.ByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	return s.currency.Convert(ctx, budget.Currency, to, budget.Amount)
}

// Summary converts every budget to the base currency and totals them.
// Conversion failures are isolated per budget: a same-currency budget
// contributes its amount, a foreign-currency one contributes zero and is
// flagged.
func (s *BudgetService) Summary(ctx context.Context, userID uint, base string) (*BudgetSummary, error) {
	base, err := normalizeCurrency(base)
	if err != nil {
		return nil, err
	}
	budgets, err := s.store.ByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load budgets: %w", err)
	}

	summary := &BudgetSummary{Base: base, Total: decimal.Zero, Budgets: make([]BudgetSummaryItem, 0, len(budgets))}
	for _, b := range budgets {
		item := BudgetSummaryItem{
			ID:       b.ID,
			Name:     b.Name,
			Amount:   b.Amount,
			Currency: b.Currency,
			Period:   b.Period,
		}
		result, cerr := s.currency.Convert(ctx, b.Currency, base, b.Amount)
		switch {
		case cerr == nil:
			item.Converted = result.ConvertedAmount
		case b.Currency == base:
			item.Converted = b.Amount
		default:
			log.Printf("Failed to convert budget %d (%s to %s): %v", b.ID, b.Currency, base, cerr)
			item.Converted = decimal.Zero
			item.ConversionFailed = true
		}
		summary.Total = summary.Total.Add(item.Converted)
		summary.Budgets = append(summary.Budgets, item)
	}
	summary.Total = summary.Total.Round(2)
	return summary, nil
}
