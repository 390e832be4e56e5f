package window

import (
	"testing"
	"time"

	apperrors "github.com/blues/raise/internal/errors"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name             string
		opening, closing time.Time
		reason           string
	}{
		{"opening equals now", now, now.Add(time.Hour), ReasonInPast},
		{"opening in past", now.Add(-time.Minute), now.Add(time.Hour), ReasonInPast},
		{"closing before opening", now.Add(2 * time.Hour), now.Add(time.Hour), ReasonInverted},
		{"closing equals opening", now.Add(time.Hour), now.Add(time.Hour), ReasonInverted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opening, tt.closing, now)
			if !apperrors.IsCode(err, apperrors.CodeInvalidWindowConfig) {
				t.Fatalf("error = %v, want %s", err, apperrors.CodeInvalidWindowConfig)
			}
			if err.Error() != tt.reason {
				t.Fatalf("reason = %q, want %q", err.Error(), tt.reason)
			}
		})
	}
}

func TestOpenAndClosed(t *testing.T) {
	opening := now.Add(24 * time.Hour)
	closing := opening.Add(10 * 24 * time.Hour)
	w, err := New(opening, closing, now)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tests := []struct {
		name         string
		at           time.Time
		open, closed bool
	}{
		{"before opening", opening.Add(-time.Second), false, false},
		{"at opening", opening, true, false},
		{"inside", opening.Add(time.Hour), true, false},
		{"at closing", closing, false, true},
		{"after closing", closing.Add(time.Hour), false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.IsOpen(tt.at); got != tt.open {
				t.Fatalf("IsOpen = %v, want %v", got, tt.open)
			}
			if got := w.HasClosed(tt.at); got != tt.closed {
				t.Fatalf("HasClosed = %v, want %v", got, tt.closed)
			}
			if err := w.RequireOpen(tt.at); (err == nil) != tt.open {
				t.Fatalf("RequireOpen error = %v", err)
			}
			if err := w.RequireClosed(tt.at); (err == nil) != tt.closed {
				t.Fatalf("RequireClosed error = %v", err)
			}
		})
	}
}

func TestFromBoundsSkipsPastCheck(t *testing.T) {
	if _, err := FromBounds(now.Add(-time.Hour), now); err != nil {
		t.Fatalf("FromBounds: %v", err)
	}
	if _, err := FromBounds(now, now); !apperrors.IsCode(err, apperrors.CodeInvalidWindowConfig) {
		t.Fatalf("FromBounds inverted error = %v", err)
	}
}
