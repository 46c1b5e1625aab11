package models

import (
	"testing"
	"time"
)

func TestSuccessRate(t *testing.T) {
	tests := []struct {
		name       string
		successful int
		total      int
		want       float64
	}{
		{"no attempts yet", 0, 0, 0},
		{"all successful", 10, 10, 1.0},
		{"partial", 8, 10, 0.8},
		{"all failed", 0, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := CachedFeed{SuccessfulAttempts: tt.successful, TotalAttempts: tt.total}
			if got := f.SuccessRate(); got != tt.want {
				t.Errorf("SuccessRate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsHealthy(t *testing.T) {
	tests := []struct {
		name       string
		successful int
		total      int
		failures   int
		want       bool
	}{
		// The rate comparison is strict: exactly 0.8 does not pass.
		{"rate exactly at floor", 8, 10, 2, false},
		{"rate above floor", 9, 10, 2, true},
		{"failure count at cap", 9, 10, 3, false},
		{"failure count above cap", 10, 10, 5, false},
		{"untested feed", 0, 0, 0, false},
		{"perfect record", 100, 100, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := CachedFeed{
				SuccessfulAttempts: tt.successful,
				TotalAttempts:      tt.total,
				FailureCount:       tt.failures,
			}
			if got := f.IsHealthy(); got != tt.want {
				t.Errorf("IsHealthy() = %v, want %v (rate %v, failures %d)",
					got, tt.want, f.SuccessRate(), tt.failures)
			}
		})
	}
}

func TestUpdateDue(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	halfHourAgo := now.Add(-30 * time.Minute)
	twoHoursAgo := now.Add(-2 * time.Hour)

	tests := []struct {
		name        string
		lastAttempt *time.Time
		minInterval time.Duration
		active      bool
		want        bool
	}{
		{"never attempted", nil, 0, true, true},
		{"inactive feed never due", nil, 0, false, false},
		{"recent attempt within default interval", &halfHourAgo, 0, true, false},
		{"old attempt past default interval", &twoHoursAgo, 0, true, true},
		{"server minimum respected", &twoHoursAgo, 4 * time.Hour, true, false},
		{"server minimum elapsed", &twoHoursAgo, time.Hour, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := CachedFeed{
				IsActive:          tt.active,
				LastFetchAttempt:  tt.lastAttempt,
				MinUpdateInterval: tt.minInterval,
			}
			if got := f.UpdateDue(now); got != tt.want {
				t.Errorf("UpdateDue() = %v, want %v", got, tt.want)
			}
		})
	}
}
