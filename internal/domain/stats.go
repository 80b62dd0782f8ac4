package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// TaskStats summarises a user's tasks.
type TaskStats struct {
	Total          int64          `json:"total"`
	Completed      int64          `json:"completed"`
	Pending        int64          `json:"pending"`
	CompletionRate CompletionRate `json:"completionRate"`
}

// NewTaskStats builds the summary for the given counts and computes the
// completion rate.
func NewTaskStats(total, completed, pending int64) TaskStats {
	return TaskStats{
		Total:          total,
		Completed:      completed,
		Pending:        pending,
		CompletionRate: NewCompletionRate(completed, total),
	}
}

// CompletionRate is the share of completed tasks as a percentage.
// It encodes as a two-decimal string ("75.00") or as the number 0 when there
// are no tasks at all.
type CompletionRate struct {
	value decimal.Decimal
	empty bool
}

// NewCompletionRate computes completed/total*100 rounded to two decimals.
// A zero total yields an empty rate instead of dividing by zero.
func NewCompletionRate(completed, total int64) CompletionRate {
	if total <= 0 {
		return CompletionRate{empty: true}
	}
	rate := decimal.NewFromInt(completed).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(total), 2)
	return CompletionRate{value: rate}
}

// String returns the rate with exactly two decimals.
func (r CompletionRate) String() string {
	if r.empty {
		return "0"
	}
	return r.value.StringFixed(2)
}

// MarshalJSON implements json.Marshaler.
func (r CompletionRate) MarshalJSON() ([]byte, error) {
	if r.empty {
		return []byte("0"), nil
	}
	return json.Marshal(r.value.StringFixed(2))
}
