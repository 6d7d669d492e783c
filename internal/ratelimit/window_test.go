package ratelimit

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/citylink/citylink/internal/platform/httpx"
)

func TestCheckCountingUnderLimit(t *testing.T) {
	require.NoError(t, CheckCounting(0, 1, 24*time.Hour))
}

func TestCheckCountingAtLimit(t *testing.T) {
	err := CheckCounting(1, 1, 24*time.Hour)
	var limited *httpx.RateLimitedError
	require.True(t, errors.As(err, &limited))
	require.Contains(t, limited.Error(), "24 hours")
}

func TestCheckLastEventNoPriorEvent(t *testing.T) {
	require.NoError(t, CheckLastEvent(time.Now(), time.Time{}, 5*time.Minute))
}

func TestCheckLastEventInsideWindow(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	last := now.Add(-(4*time.Minute + 59*time.Second))
	err := CheckLastEvent(now, last, 5*time.Minute)
	var limited *httpx.RateLimitedError
	require.True(t, errors.As(err, &limited))
	require.EqualValues(t, 1, limited.RetrySeconds)
}

func TestCheckLastEventOutsideWindow(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	last := now.Add(-(5*time.Minute + time.Second))
	require.NoError(t, CheckLastEvent(now, last, 5*time.Minute))
}

func TestCheckLastEventExactBoundaryAllowed(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	last := now.Add(-5 * time.Minute)
	require.NoError(t, CheckLastEvent(now, last, 5*time.Minute))
}

func TestCheckLastEventRoundsUp(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	last := now.Add(-(2*time.Minute + 30*time.Second + 200*time.Millisecond))
	err := CheckLastEvent(now, last, 5*time.Minute)
	var limited *httpx.RateLimitedError
	require.True(t, errors.As(err, &limited))
	require.EqualValues(t, 150, limited.RetrySeconds)
}
