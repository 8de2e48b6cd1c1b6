package predicates

import (
	"math"
	"strconv"
	"strings"

	"roster-search/internal/models"
)

// MaxScore is the upper bound of the quality score.
const MaxScore = 100.0

// ParseScoreOperand parses the typed operand of a score comparator.
func ParseScoreOperand(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ScoreActive reports whether the comparator filters at all: both operator
// and a numeric operand must be present.
func ScoreActive(op models.ScoreOperator, operand string) bool {
	if op == "" {
		return false
	}
	_, ok := ParseScoreOperand(operand)
	return ok
}

// CompareScore evaluates score against operand. Unknown operators never
// match.
func CompareScore(score float64, op models.ScoreOperator, operand float64) bool {
	switch op {
	case models.ScoreEquals:
		return score == operand
	case models.ScoreLessOrEqual:
		return score <= operand
	case models.ScoreGreaterOrEqual:
		return score >= operand
	}
	return false
}

// MatchScore applies the comparator to an optional score. Inactive
// comparators match; a record without a score never matches an active one.
func MatchScore(score *float64, op models.ScoreOperator, operand string) bool {
	if !ScoreActive(op, operand) {
		return true
	}
	if score == nil {
		return false
	}
	v, _ := ParseScoreOperand(operand)
	return CompareScore(*score, op, v)
}
