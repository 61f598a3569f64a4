package budget

import (
	"errors"
	"fmt"
	"time"
)

// Category is a token budget category.
type Category string

const (
	// CategoryPrompt budgets tokens sent as the prompt.
	CategoryPrompt Category = "prompt"

	// CategoryCompletion budgets tokens generated in replies.
	CategoryCompletion Category = "completion"

	// CategoryContext budgets tokens spent on assembled context memory.
	CategoryContext Category = "context"

	// CategoryTotal budgets all tokens regardless of purpose.
	CategoryTotal Category = "total"
)

// Categories lists every budget category in a stable order.
var Categories = []Category{CategoryPrompt, CategoryCompletion, CategoryContext, CategoryTotal}

// Valid reports whether c is one of the defined categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryPrompt, CategoryCompletion, CategoryContext, CategoryTotal:
		return true
	}
	return false
}

// UsageRecord is a single accepted allocation. Records are append-only
// per category.
type UsageRecord struct {
	// Count is the number of tokens allocated.
	Count int

	// Category is the budget category charged.
	Category Category

	// Timestamp is when the allocation was accepted.
	Timestamp time.Time

	// Metadata carries caller-defined annotations.
	Metadata map[string]any
}

// Stats is an aggregate diagnostic view across categories.
type Stats struct {
	// TotalAllocated is the sum of accepted allocations in every category.
	TotalAllocated int

	// Used maps each category to its consumed tokens.
	Used map[Category]int

	// Available maps each category to its remaining tokens.
	Available map[Category]int

	// Quota maps each category to its configured ceiling.
	Quota map[Category]int
}

// ErrTokenLimitExceeded is the base error wrapped by TokenLimitError.
var ErrTokenLimitExceeded = errors.New("token limit exceeded")

// TokenLimitError reports an allocation that exceeded a category quota.
// Used by callers that prefer raising over the boolean Allocate result.
type TokenLimitError struct {
	// Category is the category that rejected the allocation.
	Category Category

	// Requested is the token count that was asked for.
	Requested int

	// Available is the headroom that remained.
	Available int
}

// Error implements the error interface.
func (e *TokenLimitError) Error() string {
	return fmt.Sprintf("token limit exceeded for %s: requested=%d, available=%d",
		e.Category, e.Requested, e.Available)
}

// Unwrap returns ErrTokenLimitExceeded for errors.Is matching.
func (e *TokenLimitError) Unwrap() error {
	return ErrTokenLimitExceeded
}
