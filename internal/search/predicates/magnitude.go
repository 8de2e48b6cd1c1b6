package predicates

import (
	"math"
	"strconv"
	"strings"

	apperrors "roster-search/internal/common/errors"
)

// ErrUnparseableMagnitude matches every error returned by ParseMagnitude.
var ErrUnparseableMagnitude = apperrors.Sentinel(apperrors.ErrCodeUnparseableMagnitude)

// Bucket is a named half-open range [Low, High). High of +Inf marks the top
// bucket.
type Bucket struct {
	Name string
	Low  float64
	High float64
}

func (b Bucket) Contains(v float64) bool {
	return v >= b.Low && v < b.High
}

// FollowerBuckets are the follower-count ranges offered by the search
// surfaces, in display order.
var FollowerBuckets = []Bucket{
	{Name: "0 - 1K", Low: 0, High: 1_000},
	{Name: "1K - 10K", Low: 1_000, High: 10_000},
	{Name: "10K - 100K", Low: 10_000, High: 100_000},
	{Name: "100K - 1M", Low: 100_000, High: 1_000_000},
	{Name: "1M+", Low: 1_000_000, High: math.Inf(1)},
}

// LookupBucket finds a follower bucket by name.
func LookupBucket(name string) (Bucket, bool) {
	for _, b := range FollowerBuckets {
		if b.Name == name {
			return b, true
		}
	}
	return Bucket{}, false
}

// ParseMagnitude parses human-formatted counts such as "850", "12.5K",
// "1,200" or "2.1M". The suffix is case-insensitive.
func ParseMagnitude(s string) (float64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if cleaned == "" {
		return 0, apperrors.NewUnparseableMagnitudeError(s)
	}

	multiplier := 1.0
	switch cleaned[len(cleaned)-1] {
	case 'k', 'K':
		multiplier = 1_000
		cleaned = cleaned[:len(cleaned)-1]
	case 'm', 'M':
		multiplier = 1_000_000
		cleaned = cleaned[:len(cleaned)-1]
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(cleaned), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, apperrors.NewUnparseableMagnitudeError(s)
	}
	return v * multiplier, nil
}

// MatchBucket reports whether magnitude falls in the named bucket. An empty
// bucket matches everything; an unknown bucket or an unparseable magnitude
// never matches.
func MatchBucket(magnitude, bucket string) bool {
	if bucket == "" {
		return true
	}
	b, ok := LookupBucket(bucket)
	if !ok {
		return false
	}
	v, err := ParseMagnitude(magnitude)
	if err != nil {
		return false
	}
	return b.Contains(v)
}
