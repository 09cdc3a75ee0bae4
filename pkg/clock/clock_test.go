package clock

import (
	"testing"
	"time"
)

func TestSystemNow(t *testing.T) {
	var s System
	before := time.Now()
	now := s.Now()
	after := time.Now()

	if now.Before(before) || now.After(after) {
		t.Fatalf("System.Now() %v not between %v and %v", now, before, after)
	}
}

func TestManualAdvance(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewManual(start)

	if !m.Now().Equal(start) {
		t.Fatalf("expected %v, got %v", start, m.Now())
	}

	m.Advance(180 * time.Millisecond)
	if got := m.Now(); !got.Equal(start.Add(180 * time.Millisecond)) {
		t.Fatalf("expected advanced clock, got %v", got)
	}
}

func TestSinceMillisBoundary(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewManual(start)

	last := m.Now()
	m.Advance(180 * time.Millisecond)
	if got := SinceMillis(m, last); got != 180 {
		t.Fatalf("expected 180ms, got %dms", got)
	}

	m.Advance(1 * time.Millisecond)
	if got := SinceMillis(m, last); got != 181 {
		t.Fatalf("expected 181ms, got %dms", got)
	}
}
