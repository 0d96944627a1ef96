package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack_backend/models"
)

type fakeAlertStore struct {
	mu     sync.Mutex
	alerts map[uint]*models.Alert
	nextID uint

	activeCalls int
	activeGate  chan struct{}
}

func newFakeAlertStore() *fakeAlertStore {
	return &fakeAlertStore{alerts: make(map[uint]*models.Alert), nextID: 1}
}

func (f *fakeAlertStore) Create(_ context.Context, alert *models.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	alert.ID = f.nextID
	f.nextID++
	cp := *alert
	f.alerts[alert.ID] = &cp
	return nil
}

func (f *fakeAlertStore) ByID(_ context.Context, id, userID uint) (*models.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	alert, ok := f.alerts[id]
	if !ok || alert.UserID != userID {
		return nil, ErrNotFound
	}
	cp := *alert
	return &cp, nil
}

func (f *fakeAlertStore) ByUser(_ context.Context, userID uint) ([]models.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Alert
	for _, a := range f.alerts {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAlertStore) Triggered(_ context.Context, userID uint) ([]models.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Alert
	for _, a := range f.alerts {
		if a.UserID == userID && !a.IsActive && a.TriggeredAt != nil {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAlertStore) Active(_ context.Context) ([]models.Alert, error) {
	f.mu.Lock()
	f.activeCalls++
	gate := f.activeGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Alert
	for _, a := range f.alerts {
		if a.IsActive {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAlertStore) Save(_ context.Context, alert *models.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *alert
	f.alerts[alert.ID] = &cp
	return nil
}

func (f *fakeAlertStore) Delete(_ context.Context, alert *models.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.alerts, alert.ID)
	return nil
}

func (f *fakeAlertStore) MarkTriggered(_ context.Context, id uint, at time.Time, value decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	alert, ok := f.alerts[id]
	if !ok {
		return ErrNotFound
	}
	alert.IsActive = false
	alert.TriggeredAt = &at
	alert.TriggeredValue = decimal.NewNullDecimal(value)
	return nil
}

func (f *fakeAlertStore) get(id uint) *models.Alert {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *f.alerts[id]
	return &cp
}

type fakeStockQuoter struct {
	prices map[string]decimal.Decimal
	err    error
}

func (f *fakeStockQuoter) GetQuote(_ context.Context, symbol string) (*QuoteResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	price, ok := f.prices[symbol]
	if !ok {
		return nil, ErrDataUnavailable
	}
	result := &QuoteResult{}
	result.Symbol = symbol
	result.Price = price
	return result, nil
}

type fakeRateFetcher struct {
	rates map[string]map[string]decimal.Decimal
	err   error
}

func (f *fakeRateFetcher) GetLatestRates(_ context.Context, base string) (*RatesResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	table, ok := f.rates[base]
	if !ok {
		return nil, ErrDataUnavailable
	}
	return &RatesResult{Base: base, Rates: table}, nil
}

type fakeSender struct {
	mu    sync.Mutex
	sends []string
	err   error
}

func (f *fakeSender) Send(_ context.Context, to, subject, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, to+": "+subject)
	return f.err
}

func (f *fakeSender) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sends...)
}

func mustCreateAlert(t *testing.T, svc *AlertService, userID uint, input CreateAlertInput) *models.Alert {
	t.Helper()
	alert, err := svc.CreateAlert(context.Background(), userID, input)
	require.NoError(t, err)
	return alert
}

func stockAboveInput(value float64) CreateAlertInput {
	return CreateAlertInput{
		Type:              models.AlertTypeStock,
		Target:            "aapl",
		Condition:         models.AlertConditionAbove,
		Value:             decimal.NewFromFloat(value),
		NotificationEmail: "user@example.com",
	}
}

func TestCreateAlertNormalizesTarget(t *testing.T) {
	store := newFakeAlertStore()
	svc := NewAlertService(store, &fakeStockQuoter{}, &fakeRateFetcher{}, &fakeSender{}, nil)

	alert := mustCreateAlert(t, svc, 1, stockAboveInput(150))
	assert.Equal(t, "AAPL", alert.Target)
	assert.True(t, alert.IsActive)
}

func TestCreateAlertValidation(t *testing.T) {
	store := newFakeAlertStore()
	svc := NewAlertService(store, &fakeStockQuoter{}, &fakeRateFetcher{}, &fakeSender{}, nil)
	ctx := context.Background()

	cases := []CreateAlertInput{
		{Type: "CRYPTO", Target: "BTC", Condition: "ABOVE", Value: decimal.NewFromInt(1), NotificationEmail: "u@e.com"},
		{Type: "STOCK", Target: "AAPL", Condition: "EQUALS", Value: decimal.NewFromInt(1), NotificationEmail: "u@e.com"},
		{Type: "STOCK", Target: "AAPL", Condition: "ABOVE", Value: decimal.Zero, NotificationEmail: "u@e.com"},
		{Type: "STOCK", Target: "  ", Condition: "ABOVE", Value: decimal.NewFromInt(1), NotificationEmail: "u@e.com"},
		{Type: "CURRENCY", Target: "EURO", Condition: "ABOVE", Value: decimal.NewFromInt(1), NotificationEmail: "u@e.com"},
	}
	for _, input := range cases {
		_, err := svc.CreateAlert(ctx, 1, input)
		assert.ErrorIs(t, err, ErrInvalidInput, "%+v", input)
	}
}

func TestCheckAlertsTriggersStockAbove(t *testing.T) {
	store := newFakeAlertStore()
	stocks := &fakeStockQuoter{prices: map[string]decimal.Decimal{"AAPL": decimal.NewFromFloat(153.00)}}
	sender := &fakeSender{}
	svc := NewAlertService(store, stocks, &fakeRateFetcher{}, sender, nil)

	alert := mustCreateAlert(t, svc, 1, stockAboveInput(150))
	svc.CheckAlerts(context.Background())

	got := store.get(alert.ID)
	assert.False(t, got.IsActive)
	require.NotNil(t, got.TriggeredAt)
	assert.True(t, got.TriggeredValue.Decimal.Equal(decimal.NewFromFloat(153.00)))

	sends := sender.sent()
	require.Len(t, sends, 1)
	assert.Contains(t, sends[0], "user@example.com")
	assert.Contains(t, sends[0], "AAPL is above 150")
}

func TestCheckAlertsEqualityNeverFires(t *testing.T) {
	store := newFakeAlertStore()
	stocks := &fakeStockQuoter{prices: map[string]decimal.Decimal{"AAPL": decimal.NewFromInt(150)}}
	sender := &fakeSender{}
	svc := NewAlertService(store, stocks, &fakeRateFetcher{}, sender, nil)

	alert := mustCreateAlert(t, svc, 1, stockAboveInput(150))
	svc.CheckAlerts(context.Background())

	got := store.get(alert.ID)
	assert.True(t, got.IsActive)
	assert.Nil(t, got.TriggeredAt)
	assert.Empty(t, sender.sent())
}

func TestCheckAlertsCurrencyBelow(t *testing.T) {
	store := newFakeAlertStore()
	rates := &fakeRateFetcher{rates: map[string]map[string]decimal.Decimal{
		"EUR": {"USD": decimal.NewFromFloat(1.02)},
	}}
	sender := &fakeSender{}
	svc := NewAlertService(store, &fakeStockQuoter{}, rates, sender, nil)

	alert := mustCreateAlert(t, svc, 1, CreateAlertInput{
		Type:              models.AlertTypeCurrency,
		Target:            "eur",
		Condition:         models.AlertConditionBelow,
		Value:             decimal.NewFromFloat(1.05),
		NotificationEmail: "user@example.com",
	})
	svc.CheckAlerts(context.Background())

	got := store.get(alert.ID)
	assert.False(t, got.IsActive)
	assert.True(t, got.TriggeredValue.Decimal.Equal(decimal.NewFromFloat(1.02)))
}

func TestCheckAlertsNotificationFailureStillDeactivates(t *testing.T) {
	store := newFakeAlertStore()
	stocks := &fakeStockQuoter{prices: map[string]decimal.Decimal{"AAPL": decimal.NewFromFloat(153.00)}}
	sender := &fakeSender{err: fmt.Errorf("smtp down")}
	svc := NewAlertService(store, stocks, &fakeRateFetcher{}, sender, nil)

	alert := mustCreateAlert(t, svc, 1, stockAboveInput(150))
	svc.CheckAlerts(context.Background())

	got := store.get(alert.ID)
	assert.False(t, got.IsActive)
	require.NotNil(t, got.TriggeredAt)
}

func TestCheckAlertsResolutionFailureSkips(t *testing.T) {
	store := newFakeAlertStore()
	stocks := &fakeStockQuoter{err: ErrDataUnavailable}
	sender := &fakeSender{}
	svc := NewAlertService(store, stocks, &fakeRateFetcher{}, sender, nil)

	alert := mustCreateAlert(t, svc, 1, stockAboveInput(150))
	svc.CheckAlerts(context.Background())

	got := store.get(alert.ID)
	assert.True(t, got.IsActive)
	assert.Empty(t, sender.sent())
}

func TestCheckAlertsSingleFlight(t *testing.T) {
	store := newFakeAlertStore()
	gate := make(chan struct{})
	store.activeGate = gate
	svc := NewAlertService(store, &fakeStockQuoter{}, &fakeRateFetcher{}, &fakeSender{}, nil)

	done := make(chan struct{})
	go func() {
		svc.CheckAlerts(context.Background())
		close(done)
	}()

	// Wait for the first sweep to be inside the store call, then a second
	// invocation must bounce off the running guard.
	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return store.activeCalls == 1
	}, time.Second, time.Millisecond)

	svc.CheckAlerts(context.Background())
	store.mu.Lock()
	assert.Equal(t, 1, store.activeCalls)
	store.mu.Unlock()

	close(gate)
	<-done
}

func TestToggleAlert(t *testing.T) {
	store := newFakeAlertStore()
	svc := NewAlertService(store, &fakeStockQuoter{}, &fakeRateFetcher{}, &fakeSender{}, nil)

	alert := mustCreateAlert(t, svc, 1, stockAboveInput(150))

	toggled, err := svc.ToggleAlert(context.Background(), alert.ID, 1)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	toggled, err = svc.ToggleAlert(context.Background(), alert.ID, 1)
	require.NoError(t, err)
	assert.True(t, toggled.IsActive)
}

func TestAlertOwnerScoping(t *testing.T) {
	store := newFakeAlertStore()
	svc := NewAlertService(store, &fakeStockQuoter{}, &fakeRateFetcher{}, &fakeSender{}, nil)

	alert := mustCreateAlert(t, svc, 1, stockAboveInput(150))

	_, err := svc.GetAlert(context.Background(), alert.ID, 2)
	assert.ErrorIs(t, err, ErrNotFound)

	err = svc.DeleteAlert(context.Background(), alert.ID, 2)
	assert.ErrorIs(t, err, ErrNotFound)
}
