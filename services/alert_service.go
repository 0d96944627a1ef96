package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"fintrack_backend/models"
	"fintrack_backend/services/notifier"
)

// stockQuoter is the stock service surface the evaluator needs.
type stockQuoter interface {
	GetQuote(ctx context.Context, symbol string) (*QuoteResult, error)
}

// rateFetcher is the currency service surface the evaluator needs.
type rateFetcher interface {
	GetLatestRates(ctx context.Context, base string) (*RatesResult, error)
}

// CreateAlertInput is the payload for creating an alert.
type CreateAlertInput struct {
	Type              string          `json:"type" binding:"required"`
	Target            string          `json:"target" binding:"required"`
	Condition         string          `json:"condition" binding:"required"`
	Value             decimal.Decimal `json:"value" binding:"required"`
	NotificationEmail string          `json:"notification_email" binding:"required,email"`
}

// AlertService owns alert CRUD and the periodic evaluation sweep.
type AlertService struct {
	store    AlertStore
	stocks   stockQuoter
	rates    rateFetcher
	sender   notifier.Sender
	delivery *NotificationLog

	mu       sync.Mutex
	checking bool
}

// NewAlertService creates the alert service. delivery may be a disabled log.
func NewAlertService(store AlertStore, stocks stockQuoter, rates rateFetcher, sender notifier.Sender, delivery *NotificationLog) *AlertService {
	return &AlertService{
		store:    store,
		stocks:   stocks,
		rates:    rates,
		sender:   sender,
		delivery: delivery,
	}
}

// CreateAlert validates and persists a new alert for the user. The target
// is normalized to uppercase.
func (s *AlertService) CreateAlert(ctx context.Context, userID uint, input CreateAlertInput) (*models.Alert, error) {
	if !models.IsValidAlertType(input.Type) {
		return nil, fmt.Errorf("%w: unknown alert type %q", ErrInvalidInput, input.Type)
	}
	if !models.IsValidAlertCondition(input.Condition) {
		return nil, fmt.Errorf("%w: unknown alert condition %q", ErrInvalidInput, input.Condition)
	}
	if input.Value.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: threshold must be positive", ErrInvalidInput)
	}
	target := strings.ToUpper(strings.TrimSpace(input.Target))
	if target == "" {
		return nil, fmt.Errorf("%w: empty target", ErrInvalidInput)
	}
	if input.Type == models.AlertTypeCurrency {
		normalized, err := normalizeCurrency(target)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a currency code", ErrInvalidInput, target)
		}
		target = normalized
	}

	alert := &models.Alert{
		UserID:            userID,
		Type:              input.Type,
		Target:            target,
		Condition:         input.Condition,
		Value:             input.Value,
		NotificationEmail: input.NotificationEmail,
		IsActive:          true,
	}
	if err := s.store.Create(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to create alert: %w", err)
	}
	return alert, nil
}

// ListAlerts returns the user's alerts, newest first.
func (s *AlertService) ListAlerts(ctx context.Context, userID uint) ([]models.Alert, error) {
	return s.store.ByUser(ctx, userID)
}

// GetAlert returns one alert owned by the user.
func (s *AlertService) GetAlert(ctx context.Context, id, userID uint) (*models.Alert, error) {
	return s.store.ByID(ctx, id, userID)
}

// TriggeredAlerts returns the user's already-fired alerts, newest first.
func (s *AlertService) TriggeredAlerts(ctx context.Context, userID uint) ([]models.Alert, error) {
	return s.store.Triggered(ctx, userID)
}

// DeleteAlert removes an alert owned by the user.
func (s *AlertService) DeleteAlert(ctx context.Context, id, userID uint) error {
	alert, err := s.store.ByID(ctx, id, userID)
	if err != nil {
		return err
	}
	return s.store.Delete(ctx, alert)
}

// ToggleAlert flips isActive. Re-arming a triggered alert is an explicit
// owner action; the evaluator itself never reactivates anything.
func (s *AlertService) ToggleAlert(ctx context.Context, id, userID uint) (*models.Alert, error) {
	alert, err := s.store.ByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	alert.IsActive = !alert.IsActive
	if err := s.store.Save(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to update alert: %w", err)
	}
	return alert, nil
}

// CheckAlerts evaluates every active alert once. A second invocation while
// one is running returns immediately. Each alert is evaluated independently:
// resolution failures, unknown types and notification failures are logged
// and never stop the sweep.
func (s *AlertService) CheckAlerts(ctx context.Context) {
	s.mu.Lock()
	if s.checking {
		s.mu.Unlock()
		log.Println("Alert check already in progress, skipping")
		return
	}
	s.checking = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.checking = false
		s.mu.Unlock()
	}()

	alerts, err := s.store.Active(ctx)
	if err != nil {
		log.Printf("Failed to load active alerts: %v", err)
		return
	}
	if len(alerts) == 0 {
		return
	}

	log.Printf("Checking %d active alerts", len(alerts))
	triggered := 0
	for i := range alerts {
		if s.evaluate(ctx, &alerts[i]) {
			triggered++
		}
	}
	if triggered > 0 {
		log.Printf("Alert check completed, %d alerts triggered", triggered)
	}
}

// evaluate resolves the current value for one alert and fires it when the
// condition holds. Returns true when the alert triggered.
func (s *AlertService) evaluate(ctx context.Context, alert *models.Alert) bool {
	current, err := s.currentValue(ctx, alert)
	if err != nil {
		log.Printf("Skipping alert %d (%s %s): %v", alert.ID, alert.Type, alert.Target, err)
		return false
	}

	// Equality never fires; the threshold must be strictly crossed.
	fire := false
	switch alert.Condition {
	case models.AlertConditionAbove:
		fire = current.GreaterThan(alert.Value)
	case models.AlertConditionBelow:
		fire = current.LessThan(alert.Value)
	default:
		log.Printf("Skipping alert %d: unknown condition %q", alert.ID, alert.Condition)
		return false
	}
	if !fire {
		return false
	}

	s.fire(ctx, alert, current)
	return true
}

// currentValue resolves the live value an alert watches.
func (s *AlertService) currentValue(ctx context.Context, alert *models.Alert) (decimal.Decimal, error) {
	switch alert.Type {
	case models.AlertTypeStock:
		quote, err := s.stocks.GetQuote(ctx, alert.Target)
		if err != nil {
			return decimal.Zero, err
		}
		return quote.Price, nil
	case models.AlertTypeCurrency:
		result, err := s.rates.GetLatestRates(ctx, alert.Target)
		if err != nil {
			return decimal.Zero, err
		}
		rate, ok := result.Rates["USD"]
		if !ok {
			return decimal.Zero, fmt.Errorf("%w: no %s/USD rate", ErrDataUnavailable, alert.Target)
		}
		return rate, nil
	default:
		return decimal.Zero, fmt.Errorf("unknown alert type %q", alert.Type)
	}
}

// fire notifies the owner and deactivates the alert. Notification failure is
// logged and recorded; the alert is deactivated regardless, so it cannot
// fire again.
func (s *AlertService) fire(ctx context.Context, alert *models.Alert, current decimal.Decimal) {
	now := time.Now()
	subject, body := notifier.RenderTrigger(alert.Target, alert.Condition, alert.Value, current, now)

	sendErr := s.sender.Send(ctx, alert.NotificationEmail, subject, body)
	if sendErr != nil {
		log.Printf("Failed to notify %s for alert %d: %v", alert.NotificationEmail, alert.ID, sendErr)
	} else {
		log.Printf("Alert %d triggered: %s %s %s at %s", alert.ID, alert.Target, alert.Condition, alert.Value, current)
	}
	s.delivery.Record(ctx, alert.ID, alert.UserID, alert.NotificationEmail, subject, alert.Target, current, sendErr)

	if err := s.store.MarkTriggered(ctx, alert.ID, now, current); err != nil {
		log.Printf("Failed to deactivate alert %d: %v", alert.ID, err)
	}
}
