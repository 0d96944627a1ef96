package services

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fintrack_backend/models"
	"fintrack_backend/services/providers"
)

// RateStore persists and queries historical exchange rates. Append record,
// query by window descending, delete older than cutoff; an empty result is
// never an error.
type RateStore interface {
	SaveRates(ctx context.Context, base string, rates map[string]decimal.Decimal, source string) error
	LatestRates(ctx context.Context, base string, since time.Time) (map[string]decimal.Decimal, error)
	History(ctx context.Context, base, target string, since time.Time) ([]models.RateRecord, error)
	RecentTargets(ctx context.Context, since time.Time) ([]string, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// StockPriceStore persists and queries historical stock quotes.
type StockPriceStore interface {
	SaveQuote(ctx context.Context, quote *providers.StockQuote) error
	LatestWithin(ctx context.Context, symbol string, since time.Time) (*models.StockPriceRecord, error)
	History(ctx context.Context, symbol string, limit int) ([]models.StockPriceRecord, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// AlertStore persists alerts. MarkTriggered is the only mutation the
// evaluator performs: one update carrying deactivation, trigger time and
// observed value together.
type AlertStore interface {
	Create(ctx context.Context, alert *models.Alert) error
	ByID(ctx context.Context, id, userID uint) (*models.Alert, error)
	ByUser(ctx context.Context, userID uint) ([]models.Alert, error)
	Triggered(ctx context.Context, userID uint) ([]models.Alert, error)
	Active(ctx context.Context) ([]models.Alert, error)
	Save(ctx context.Context, alert *models.Alert) error
	Delete(ctx context.Context, alert *models.Alert) error
	MarkTriggered(ctx context.Context, id uint, at time.Time, value decimal.Decimal) error
}

// BudgetStore persists budgets.
type BudgetStore interface {
	Create(ctx context.Context, budget *models.Budget) error
	ByID(ctx context.Context, id, userID uint) (*models.Budget, error)
	ByUser(ctx context.Context, userID uint) ([]models.Budget, error)
	Save(ctx context.Context, budget *models.Budget) error
	Delete(ctx context.Context, budget *models.Budget) error
}

// UserStore persists user accounts.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	ByEmail(ctx context.Context, email string) (*models.User, error)
	ByID(ctx context.Context, id uint) (*models.User, error)
}

// --- gorm implementations ---

type gormRateStore struct {
	db *gorm.DB
}

// NewRateStore creates the gorm-backed rate store.
func NewRateStore(db *gorm.DB) RateStore {
	return &gormRateStore{db: db}
}

func (s *gormRateStore) SaveRates(ctx context.Context, base string, rates map[string]decimal.Decimal, source string) error {
	now := time.Now()
	records := make([]models.RateRecord, 0, len(rates))
	for target, rate := range rates {
		records = append(records, models.RateRecord{
			BaseCurrency:   base,
			TargetCurrency: target,
			Rate:           rate,
			Timestamp:      now,
			Source:         source,
		})
	}
	if len(records) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(&records).Error
}

// LatestRates assembles a rate map from the most recent record per target
// currency newer than since.
func (s *gormRateStore) LatestRates(ctx context.Context, base string, since time.Time) (map[string]decimal.Decimal, error) {
	var records []models.RateRecord
	err := s.db.WithContext(ctx).
		Where("base_currency = ? AND timestamp > ?", base, since).
		Order("timestamp DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	rates := make(map[string]decimal.Decimal)
	for _, r := range records {
		// Records come newest first; keep the first hit per target.
		if _, seen := rates[r.TargetCurrency]; !seen {
			rates[r.TargetCurrency] = r.Rate
		}
	}
	return rates, nil
}

func (s *gormRateStore) History(ctx context.Context, base, target string, since time.Time) ([]models.RateRecord, error) {
	var records []models.RateRecord
	err := s.db.WithContext(ctx).
		Where("base_currency = ? AND target_currency = ? AND timestamp >= ?", base, target, since).
		Order("timestamp DESC").
		Find(&records).Error
	return records, err
}

func (s *gormRateStore) RecentTargets(ctx context.Context, since time.Time) ([]string, error) {
	var targets []string
	err := s.db.WithContext(ctx).
		Model(&models.RateRecord{}).
		Where("timestamp > ?", since).
		Distinct("target_currency").
		Order("target_currency").
		Pluck("target_currency", &targets).Error
	return targets, err
}

func (s *gormRateStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("timestamp < ?", cutoff).
		Delete(&models.RateRecord{})
	return result.RowsAffected, result.Error
}

type gormStockPriceStore struct {
	db *gorm.DB
}

// NewStockPriceStore creates the gorm-backed stock price store.
func NewStockPriceStore(db *gorm.DB) StockPriceStore {
	return &gormStockPriceStore{db: db}
}

func (s *gormStockPriceStore) SaveQuote(ctx context.Context, quote *providers.StockQuote) error {
	record := models.StockPriceRecord{
		Symbol:           quote.Symbol,
		Price:            quote.Price,
		Open:             quote.Open,
		High:             quote.High,
		Low:              quote.Low,
		Volume:           quote.Volume,
		Change:           quote.Change,
		ChangePercent:    quote.ChangePercent,
		Timestamp:        time.Now(),
		Source:           quote.Source,
		LatestTradingDay: quote.LatestTradingDay,
		PreviousClose:    quote.PreviousClose,
	}
	return s.db.WithContext(ctx).Create(&record).Error
}

func (s *gormStockPriceStore) LatestWithin(ctx context.Context, symbol string, since time.Time) (*models.StockPriceRecord, error) {
	var record models.StockPriceRecord
	err := s.db.WithContext(ctx).
		Where("symbol = ? AND timestamp > ?", symbol, since).
		Order("timestamp DESC").
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *gormStockPriceStore) History(ctx context.Context, symbol string, limit int) ([]models.StockPriceRecord, error) {
	var records []models.StockPriceRecord
	err := s.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("timestamp DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

func (s *gormStockPriceStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("timestamp < ?", cutoff).
		Delete(&models.StockPriceRecord{})
	return result.RowsAffected, result.Error
}

type gormAlertStore struct {
	db *gorm.DB
}

// NewAlertStore creates the gorm-backed alert store.
func NewAlertStore(db *gorm.DB) AlertStore {
	return &gormAlertStore{db: db}
}

func (s *gormAlertStore) Create(ctx context.Context, alert *models.Alert) error {
	return s.db.WithContext(ctx).Create(alert).Error
}

func (s *gormAlertStore) ByID(ctx context.Context, id, userID uint) (*models.Alert, error) {
	var alert models.Alert
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&alert).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

func (s *gormAlertStore) ByUser(ctx context.Context, userID uint) ([]models.Alert, error) {
	var alerts []models.Alert
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&alerts).Error
	return alerts, err
}

func (s *gormAlertStore) Triggered(ctx context.Context, userID uint) ([]models.Alert, error) {
	var alerts []models.Alert
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ? AND triggered_at IS NOT NULL", userID, false).
		Order("triggered_at DESC").
		Find(&alerts).Error
	return alerts, err
}

func (s *gormAlertStore) Active(ctx context.Context) ([]models.Alert, error) {
	var alerts []models.Alert
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Find(&alerts).Error
	return alerts, err
}

func (s *gormAlertStore) Save(ctx context.Context, alert *models.Alert) error {
	return s.db.WithContext(ctx).Save(alert).Error
}

func (s *gormAlertStore) Delete(ctx context.Context, alert *models.Alert) error {
	return s.db.WithContext(ctx).Delete(alert).Error
}

// MarkTriggered deactivates the alert and records the trigger in one update,
// so a crash cannot leave a half-triggered row.
func (s *gormAlertStore) MarkTriggered(ctx context.Context, id uint, at time.Time, value decimal.Decimal) error {
	return s.db.WithContext(ctx).
		Model(&models.Alert{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":       false,
			"triggered_at":    at,
			"triggered_value": value,
		}).Error
}

type gormBudgetStore struct {
	db *gorm.DB
}

// NewBudgetStore creates the gorm-backed budget store.
func NewBudgetStore(db *gorm.DB) BudgetStore {
	return &gormBudgetStore{db: db}
}

func (s *gormBudgetStore) Create(ctx context.Context, budget *models.Budget) error {
	return s.db.WithContext(ctx).Create(budget).Error
}

func (s *gormBudgetStore) ByID(ctx context.Context, id, userID uint) (*models.Budget, error) {
	var budget models.Budget
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&budget).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &budget, nil
}

func (s *gormBudgetStore) ByUser(ctx context.Context, userID uint) ([]models.Budget, error) {
	var budgets []models.Budget
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&budgets).Error
	return budgets, err
}

func (s *gormBudgetStore) Save(ctx context.Context, budget *models.Budget) error {
	return s.db.WithContext(ctx).Save(budget).Error
}

func (s *gormBudgetStore) Delete(ctx context.Context, budget *models.Budget) error {
	return s.db.WithContext(ctx).Delete(budget).Error
}

type gormUserStore struct {
	db *gorm.DB
}

// NewUserStore creates the gorm-backed user store.
func NewUserStore(db *gorm.DB) UserStore {
	return &gormUserStore{db: db}
}

func (s *gormUserStore) Create(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *gormUserStore) ByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *gormUserStore) ByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
