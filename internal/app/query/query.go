// Package query holds the pure helpers shared by the resource façades:
// pagination, predicate filtering, timestamp ordering and the price
// history time windows. All functions operate on a snapshot slice and
// never touch a store.
package query

import (
	"sort"
	"strconv"
	"time"
)

const (
	// DefaultLimit is applied when the limit parameter is absent,
	// non-numeric or negative.
	DefaultLimit = 10
	// DefaultWindow is applied for absent or unrecognized timeRange
	// values.
	DefaultWindow = 30 * 24 * time.Hour
)

// ParseLimitOffset coerces the raw pagination parameters. Anything that is
// not a non-negative integer falls back to the default (limit 10,
// offset 0).
func ParseLimitOffset(rawLimit, rawOffset string) (limit, offset int) {
	limit = DefaultLimit
	if n, err := strconv.Atoi(rawLimit); err == nil && n >= 0 {
		limit = n
	}
	offset = 0
	if n, err := strconv.Atoi(rawOffset); err == nil && n >= 0 {
		offset = n
	}
	return limit, offset
}

// Paginate returns items[offset : offset+limit], clamped to the slice
// bounds. An offset past the end yields an empty page, never an error.
func Paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// Filter returns the items satisfying keep, preserving order. The result
// is always a fresh slice.
func Filter[T any](items []T, keep func(T) bool) []T {
	result := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			result = append(result, item)
		}
	}
	return result
}

// SortByTimestampDesc orders items newest first by the millisecond
// timestamp extracted by ts. Sorting happens on a copy; the input slice
// is left untouched.
func SortByTimestampDesc[T any](items []T, ts func(T) int64) []T {
	sorted := make([]T, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return ts(sorted[i]) > ts(sorted[j])
	})
	return sorted
}

// Window translates a timeRange parameter into a lookback duration.
// Recognized values are 24h, 7d and 30d; everything else falls back to
// 30 days.
func Window(timeRange string) time.Duration {
	switch timeRange {
	case "24h":
		return 24 * time.Hour
	case "7d":
		return 7 * 24 * time.Hour
	case "30d":
		return 30 * 24 * time.Hour
	default:
		return DefaultWindow
	}
}

// WithinWindow reports whether the millisecond timestamp falls inside
// now-minus-window.
func WithinWindow(timestampMS int64, now time.Time, window time.Duration) bool {
	cutoff := now.UnixMilli() - window.Milliseconds()
	return timestampMS >= cutoff
}
