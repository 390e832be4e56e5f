// Package window 募资时间窗口
package window

import (
	"time"

	apperrors "github.com/blues/raise/internal/errors"
)

const (
	ReasonInPast   = "opening time is before current time"
	ReasonInverted = "opening time is not before closing time"
)

// Window 开放/关闭时间对，创建后不可变
type Window struct {
	opening time.Time
	closing time.Time
}

// New 校验并创建时间窗口
func New(opening, closing, now time.Time) (Window, error) {
	if !opening.After(now) {
		return Window{}, apperrors.WithMetadata(apperrors.CodeInvalidWindowConfig, ReasonInPast,
			map[string]string{"reason": "WindowInPast"})
	}
	return bounds(opening, closing)
}

// FromBounds 恢复已持久化的窗口，不校验当前时间
func FromBounds(opening, closing time.Time) (Window, error) {
	return bounds(opening, closing)
}

func bounds(opening, closing time.Time) (Window, error) {
	if !opening.Before(closing) {
		return Window{}, apperrors.WithMetadata(apperrors.CodeInvalidWindowConfig, ReasonInverted,
			map[string]string{"reason": "WindowInverted"})
	}
	return Window{opening: opening, closing: closing}, nil
}

func (w Window) Opening() time.Time { return w.opening }
func (w Window) Closing() time.Time { return w.closing }

// IsOpen now ∈ [opening, closing)
func (w Window) IsOpen(now time.Time) bool {
	return !now.Before(w.opening) && now.Before(w.closing)
}

// HasClosed now ≥ closing
func (w Window) HasClosed(now time.Time) bool {
	return !now.Before(w.closing)
}

// RequireOpen 窗口未开放时返回 WindowViolation
func (w Window) RequireOpen(now time.Time) error {
	if !w.IsOpen(now) {
		return apperrors.New(apperrors.CodeWindowViolation, "not open")
	}
	return nil
}

// RequireClosed 窗口未关闭时返回 WindowViolation
func (w Window) RequireClosed(now time.Time) error {
	if !w.HasClosed(now) {
		return apperrors.New(apperrors.CodeWindowViolation, "not closed")
	}
	return nil
}
