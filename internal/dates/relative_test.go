package dates

import (
	"testing"
	"time"
)

func TestFormatRelative(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		offset time.Duration
		want   string
	}{
		{0, "now"},
		{30 * time.Second, "in 30 seconds"},
		{-5 * time.Minute, "5 minutes ago"},
		{3 * time.Hour, "in 3 hours"},
		{25 * time.Hour, "tomorrow"},
		{24 * time.Hour, "in 24 hours"},
		{-25 * time.Hour, "yesterday"},
		{3 * 24 * time.Hour, "in 3 days"},
		{8 * 24 * time.Hour, "next week"},
		{-21 * 24 * time.Hour, "3 weeks ago"},
		{400 * 24 * time.Hour, "next year"},
	}
	for _, tt := range tests {
		if got := FormatRelative(now.Add(tt.offset), now); got != tt.want {
			t.Errorf("FormatRelative(%v) = %q, want %q", tt.offset, got, tt.want)
		}
	}
}
