package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"fintrack_backend/services"
)

// Scheduler manages scheduled jobs
type Scheduler struct {
	cron     *gocron.Scheduler
	alerts   *services.AlertService
	currency *services.CurrencyService
	stocks   *services.StockService
}

// NewScheduler creates a new scheduler instance
func NewScheduler(alerts *services.AlertService, currency *services.CurrencyService, stocks *services.StockService) *Scheduler {
	return &Scheduler{
		cron:     gocron.NewScheduler(time.UTC),
		alerts:   alerts,
		currency: currency,
		stocks:   stocks,
	}
}

// Start starts all scheduled jobs
func (s *Scheduler) Start() {
	log.Println("Starting scheduler...")

	// Evaluate alerts every 5 minutes. SingletonMode plus the service's own
	// running guard keep a slow sweep from overlapping the next tick.
	s.cron.Every(5).Minutes().SingletonMode().Do(func() {
		s.alerts.CheckAlerts(context.Background())
	})

	// Keep the standing rate bases warm every hour.
	s.cron.Every(1).Hour().SingletonMode().Do(func() {
		s.currency.RefreshRates(context.Background())
	})

	// Delete rate and price records past retention daily at 02:00.
	s.cron.Every(1).Day().At("02:00").Do(func() {
		s.cleanupOldData()
	})

	s.cron.StartAsync()
	log.Println("Scheduler started successfully")
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("Scheduler stopped")
}

// cleanupOldData removes expired market data. Rate and price cleanup are
// independent; one failing does not stop the other.
func (s *Scheduler) cleanupOldData() {
	log.Println("Starting data cleanup...")
	ctx := context.Background()

	if err := s.currency.CleanupOldRates(ctx); err != nil {
		log.Printf("Rate cleanup failed: %v", err)
	}
	if err := s.stocks.CleanupOldPrices(ctx); err != nil {
		log.Printf("Price cleanup failed: %v", err)
	}

	log.Println("Data cleanup completed")
}
