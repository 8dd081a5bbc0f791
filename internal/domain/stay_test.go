package domain_test

import (
	"testing"
	"time"

	"kemdeholo/internal/domain"
)

func TestArrivalInPast(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, 3, 10, 15, 30, 0, 0, loc)

	cases := []struct {
		day  string
		want bool
	}{
		{"2026-03-09", true},
		{"2026-03-10", false}, // today is allowed even late in the day
		{"2026-03-11", false},
	}
	for _, c := range cases {
		d, err := domain.ParseDay(c.day, loc)
		if err != nil {
			t.Fatalf("parse %s: %v", c.day, err)
		}
		if got := domain.ArrivalInPast(d, now, loc); got != c.want {
			t.Fatalf("ArrivalInPast(%s) = %v, want %v", c.day, got, c.want)
		}
	}
}

func TestToday_UsesSiteLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	// 23:30 UTC is already the next day two hours east.
	now := time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC)
	if got := domain.Today(now, loc).Format(domain.DayLayout); got != "2026-03-11" {
		t.Fatalf("today = %s", got)
	}
}

func TestClampDeparture(t *testing.T) {
	cases := []struct{ a, d, want string }{
		{"2026-05-10", "2026-05-08", "2026-05-10"},
		{"2026-05-10", "2026-05-12", "2026-05-12"},
		{"2026-05-10", "", "2026-05-10"},
		{"", "2026-05-08", "2026-05-08"},
	}
	for _, c := range cases {
		if got := domain.ClampDeparture(c.a, c.d); got != c.want {
			t.Fatalf("ClampDeparture(%q,%q) = %q, want %q", c.a, c.d, got, c.want)
		}
	}
}

func TestSignalMarker(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	s := domain.NewSignal(domain.EventSubscribers, at)
	if s.Marker() != "subscribers_1700000000123" {
		t.Fatalf("marker = %s", s.Marker())
	}
}
