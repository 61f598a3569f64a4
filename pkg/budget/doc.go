// Package budget implements the hierarchical token budget for a session.
//
// Tokens are tracked in four independent categories: Prompt, Completion,
// Context, and Total. Each category has its own integer quota; exceeding
// one category never borrows headroom from another, and Total is enforced
// as its own ledger rather than as the sum of the others.
//
// Default quotas derive from a single maxTokens figure:
//
//	Prompt     = maxTokens / 2
//	Completion = maxTokens / 2
//	Context    = maxTokens / 4
//	Total      = maxTokens
//
// # Allocation
//
// Allocate is all-or-nothing: a rejected allocation performs no mutation,
// so there is never partial usage to roll back.
//
//	manager := budget.NewManager(8192, nil)
//
//	if !manager.Allocate(budget.CategoryPrompt, 1024, nil) {
//	    // quota exhausted; caller decides whether to trim or fail
//	}
//
// CanAllocate answers the same question without committing, for callers
// that want a pre-check before assembling a prompt.
package budget
