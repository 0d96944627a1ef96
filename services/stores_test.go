package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"fintrack_backend/models"
	"fintrack_backend/services/providers"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.MigrateUserModels(db))
	require.NoError(t, models.MigrateAlertModels(db))
	require.NoError(t, models.MigrateMarketModels(db))
	require.NoError(t, models.MigrateBudgetModels(db))
	return db
}

func TestRateStoreLatestRates(t *testing.T) {
	db := openTestDB(t)
	store := NewRateStore(db)
	ctx := context.Background()

	old := map[string]decimal.Decimal{
		"EUR": decimal.NewFromFloat(0.90),
		"GBP": decimal.NewFromFloat(0.78),
	}
	require.NoError(t, store.SaveRates(ctx, "USD", old, "fixer"))

	// Newer batch overwrites EUR but not GBP.
	time.Sleep(5 * time.Millisecond)
	fresh := map[string]decimal.Decimal{
		"EUR": decimal.NewFromFloat(0.92),
	}
	require.NoError(t, store.SaveRates(ctx, "USD", fresh, "exchangerate-api"))

	rates, err := store.LatestRates(ctx, "USD", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.True(t, rates["EUR"].Equal(decimal.NewFromFloat(0.92)))
	assert.True(t, rates["GBP"].Equal(decimal.NewFromFloat(0.78)))
}

func TestRateStoreLatestRatesWindow(t *testing.T) {
	db := openTestDB(t)
	store := NewRateStore(db)
	ctx := context.Background()

	require.NoError(t, store.SaveRates(ctx, "USD", map[string]decimal.Decimal{
		"EUR": decimal.NewFromFloat(0.90),
	}, "fixer"))

	// A window entirely in the future excludes everything.
	rates, err := store.LatestRates(ctx, "USD", time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, rates)
}

func TestRateStoreRecentTargets(t *testing.T) {
	db := openTestDB(t)
	store := NewRateStore(db)
	ctx := context.Background()

	require.NoError(t, store.SaveRates(ctx, "USD", map[string]decimal.Decimal{
		"EUR": decimal.NewFromFloat(0.90),
		"JPY": decimal.NewFromFloat(147.2),
	}, "fixer"))
	require.NoError(t, store.SaveRates(ctx, "EUR", map[string]decimal.Decimal{
		"JPY": decimal.NewFromFloat(163.5),
	}, "fixer"))

	targets, err := store.RecentTargets(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{"EUR", "JPY"}, targets)
}

func TestRateStoreDeleteOlderThan(t *testing.T) {
	db := openTestDB(t)
	store := NewRateStore(db)
	ctx := context.Background()

	stale := models.RateRecord{
		BaseCurrency:   "USD",
		TargetCurrency: "EUR",
		Rate:           decimal.NewFromFloat(0.89),
		Timestamp:      time.Now().Add(-40 * 24 * time.Hour),
		Source:         "fixer",
	}
	require.NoError(t, db.Create(&stale).Error)
	require.NoError(t, store.SaveRates(ctx, "USD", map[string]decimal.Decimal{
		"EUR": decimal.NewFromFloat(0.92),
	}, "fixer"))

	removed, err := store.DeleteOlderThan(ctx, time.Now().Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	var count int64
	db.Model(&models.RateRecord{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestStockPriceStoreLatestWithin(t *testing.T) {
	db := openTestDB(t)
	store := NewStockPriceStore(db)
	ctx := context.Background()

	quote := &providers.StockQuote{
		Symbol: "AAPL",
		Price:  decimal.NewFromFloat(153.00),
		Open:   decimal.NewFromFloat(151.20),
		High:   decimal.NewFromFloat(153.80),
		Low:    decimal.NewFromFloat(150.90),
		Volume: 51234567,
		Source: "alphavantage",
	}
	require.NoError(t, store.SaveQuote(ctx, quote))

	record, err := store.LatestWithin(ctx, "AAPL", time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.True(t, record.Price.Equal(decimal.NewFromFloat(153.00)))
	assert.Equal(t, int64(51234567), record.Volume)

	// Unknown symbol is a miss, not an error.
	record, err = store.LatestWithin(ctx, "MSFT", time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestStockPriceStoreHistoryLimit(t *testing.T) {
	db := openTestDB(t)
	store := NewStockPriceStore(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		record := models.StockPriceRecord{
			Symbol:    "AAPL",
			Price:     decimal.NewFromInt(int64(150 + i)),
			Timestamp: time.Now().Add(time.Duration(-i) * time.Hour),
			Source:    "alphavantage",
		}
		require.NoError(t, db.Create(&record).Error)
	}

	records, err := store.History(ctx, "AAPL", 3)
	require.NoError(t, err)
	require.Len(t, records, 3)
	// Newest first.
	assert.True(t, records[0].Timestamp.After(records[2].Timestamp))
}

func TestAlertStoreMarkTriggered(t *testing.T) {
	db := openTestDB(t)
	store := NewAlertStore(db)
	ctx := context.Background()

	user := models.User{Email: "a@b.com", PasswordHash: "x", Name: "A"}
	require.NoError(t, db.Create(&user).Error)

	alert := &models.Alert{
		UserID:            user.ID,
		Type:              models.AlertTypeStock,
		Target:            "AAPL",
		Condition:         models.AlertConditionAbove,
		Value:             decimal.NewFromInt(150),
		NotificationEmail: "a@b.com",
		IsActive:          true,
	}
	require.NoError(t, store.Create(ctx, alert))

	at := time.Now()
	require.NoError(t, store.MarkTriggered(ctx, alert.ID, at, decimal.NewFromFloat(153.00)))

	got, err := store.ByID(ctx, alert.ID, user.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	require.NotNil(t, got.TriggeredAt)
	assert.True(t, got.TriggeredValue.Valid)
	assert.True(t, got.TriggeredValue.Decimal.Equal(decimal.NewFromFloat(153.00)))

	active, err := store.Active(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	triggered, err := store.Triggered(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, triggered, 1)
}

func TestAlertStoreOwnerScoping(t *testing.T) {
	db := openTestDB(t)
	store := NewAlertStore(db)
	ctx := context.Background()

	owner := models.User{Email: "owner@b.com", PasswordHash: "x", Name: "O"}
	other := models.User{Email: "other@b.com", PasswordHash: "x", Name: "X"}
	require.NoError(t, db.Create(&owner).Error)
	require.NoError(t, db.Create(&other).Error)

	alert := &models.Alert{
		UserID:            owner.ID,
		Type:              models.AlertTypeCurrency,
		Target:            "EUR",
		Condition:         models.AlertConditionBelow,
		Value:             decimal.NewFromFloat(1.05),
		NotificationEmail: "owner@b.com",
		IsActive:          true,
	}
	require.NoError(t, store.Create(ctx, alert))

	_, err := store.ByID(ctx, alert.ID, other.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := store.ByID(ctx, alert.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, "EUR", got.Target)
}

func TestBudgetStoreCRUD(t *testing.T) {
	db := openTestDB(t)
	store := NewBudgetStore(db)
	ctx := context.Background()

	user := models.User{Email: "b@b.com", PasswordHash: "x", Name: "B"}
	require.NoError(t, db.Create(&user).Error)

	budget := &models.Budget{
		UserID:     user.ID,
		Name:       "Groceries",
		Amount:     decimal.NewFromInt(500),
		Currency:   "USD",
		Categories: []string{"food", "household"},
		Period:     models.BudgetPeriodMonthly,
	}
	require.NoError(t, store.Create(ctx, budget))

	got, err := store.ByID(ctx, budget.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"food", "household"}, got.Categories)

	got.Amount = decimal.NewFromInt(600)
	require.NoError(t, store.Save(ctx, got))

	list, err := store.ByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Amount.Equal(decimal.NewFromInt(600)))

	require.NoError(t, store.Delete(ctx, got))
	_, err = store.ByID(ctx, budget.ID, user.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserStoreByEmail(t *testing.T) {
	db := openTestDB(t)
	store := NewUserStore(db)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, &models.User{
		Email:        "c@b.com",
		PasswordHash: "hash",
		Name:         "C",
	}))

	user, err := store.ByEmail(ctx, "c@b.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "C", user.Name)

	missing, err := store.ByEmail(ctx, "nobody@b.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
