package scheduler

// Package scheduler provides scheduled job management for the fintrack
// backend. It handles:
// - Periodic alert evaluation
// - Hourly exchange rate refreshes for the standing bases
// - Daily cleanup of rate and price records past retention
//
// The main scheduler is implemented in jobs.go
