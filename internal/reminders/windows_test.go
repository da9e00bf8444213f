package reminders

import (
	"testing"
	"time"
)

func TestWindows_Bounds(t *testing.T) {
	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	w24, w2 := Windows(now)

	tests := []struct {
		name   string
		window Window
		offset time.Duration
		want   bool
	}{
		{"exactly 24h is in", w24, 24 * time.Hour, true},
		{"23h lower bound is in", w24, 23 * time.Hour, true},
		{"25h upper bound is in", w24, 25 * time.Hour, true},
		{"25h01m is out", w24, 25*time.Hour + time.Minute, false},
		{"22h59m is out", w24, 22*time.Hour + 59*time.Minute, false},
		{"exactly 2h is in", w2, 2 * time.Hour, true},
		{"90m lower bound is in", w2, 90 * time.Minute, true},
		{"150m upper bound is in", w2, 150 * time.Minute, true},
		{"151m is out", w2, 151 * time.Minute, false},
		{"89m is out", w2, 89 * time.Minute, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.window.Contains(now.Add(tc.offset)); got != tc.want {
				t.Fatalf("Contains(now+%s) = %v, want %v", tc.offset, got, tc.want)
			}
		})
	}
}

func TestWindow_DatesSpansMidnight(t *testing.T) {
	loc := time.UTC
	// 23:30 on the 29th; the 24h window reaches into the 31st
	now := time.Date(2026, 8, 29, 23, 30, 0, 0, loc)
	w24, _ := Windows(now)
	dates := w24.Dates(loc)
	if len(dates) != 2 || dates[0] != "2026-08-30" || dates[1] != "2026-08-31" {
		t.Fatalf("unexpected dates %v", dates)
	}
}

func TestUnionDates(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, 8, 29, 10, 0, 0, 0, loc)
	w24, w2 := Windows(now)
	dates := unionDates(loc, w24, w2)
	// 2h window is on the 29th, 24h window on the 30th
	if len(dates) != 2 {
		t.Fatalf("expected 2 dates, got %v", dates)
	}
	seen := map[string]bool{}
	for _, d := range dates {
		if seen[d] {
			t.Fatalf("duplicate date %s in %v", d, dates)
		}
		seen[d] = true
	}
	if !seen["2026-08-29"] || !seen["2026-08-30"] {
		t.Fatalf("unexpected dates %v", dates)
	}
}
