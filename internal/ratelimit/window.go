// Package ratelimit implements the two time-window checks applied to forum
// activity: a counting window (N events since now-window) and a last-event
// window (time since the most recent event). Both operate on timestamps the
// caller loads from storage; the package itself holds no state.
package ratelimit

import (
	"fmt"
	"math"
	"time"

	"github.com/citylink/citylink/internal/platform/httpx"
)

// CheckCounting denies when count events already happened inside the window.
// The denial carries no countdown because only the event count is known.
func CheckCounting(count, limit int, window time.Duration) error {
	if count < limit {
		return nil
	}
	return &httpx.RateLimitedError{
		Message: fmt.Sprintf("limit reached: at most %d allowed per %s", limit, windowLabel(window)),
	}
}

// CheckLastEvent denies when the most recent event is younger than the
// window. lastAt.IsZero() means no prior event and always passes. The denial
// reports the remaining wait rounded up to whole seconds.
func CheckLastEvent(now, lastAt time.Time, window time.Duration) error {
	if lastAt.IsZero() {
		return nil
	}
	elapsed := now.Sub(lastAt)
	if elapsed >= window {
		return nil
	}
	remaining := int64(math.Ceil((window - elapsed).Seconds()))
	return &httpx.RateLimitedError{
		RetrySeconds: remaining,
		Message:      fmt.Sprintf("please wait %d more seconds before trying again", remaining),
	}
}

func windowLabel(window time.Duration) string {
	if window%(24*time.Hour) == 0 {
		days := int(window / (24 * time.Hour))
		if days == 1 {
			return "24 hours"
		}
		return fmt.Sprintf("%d days", days)
	}
	return window.String()
}
