package budget

import (
	"errors"
	"sync"
	"testing"
	"time"

	"dialog-hq/meridian/pkg/clock"
)

// ============================================================================
// Quota Derivation Tests
// ============================================================================

func TestManager_DefaultQuotas(t *testing.T) {
	m := NewManager(8192, nil)

	cases := []struct {
		category Category
		quota    int
	}{
		{CategoryPrompt, 4096},
		{CategoryCompletion, 4096},
		{CategoryContext, 2048},
		{CategoryTotal, 8192},
	}
	for _, tc := range cases {
		if got := m.Quota(tc.category); got != tc.quota {
			t.Errorf("Quota(%s): expected %d, got %d", tc.category, tc.quota, got)
		}
	}
}

func TestManager_QuotaOverrides(t *testing.T) {
	m := NewManager(8192, map[Category]int{CategoryContext: 1000})

	if got := m.Quota(CategoryContext); got != 1000 {
		t.Errorf("Expected override quota 1000, got %d", got)
	}
	if got := m.Quota(CategoryPrompt); got != 4096 {
		t.Errorf("Expected derived prompt quota 4096, got %d", got)
	}
}

// ============================================================================
// Allocation Tests
// ============================================================================

func TestManager_Allocate_Sequence(t *testing.T) {
	// Quota 100: 60 accepted, 50 rejected (usage unchanged), 40 accepted.
	m := NewManager(200, map[Category]int{CategoryPrompt: 100})

	if !m.Allocate(CategoryPrompt, 60, nil) {
		t.Fatal("Expected Allocate(60) to succeed")
	}
	if m.Allocate(CategoryPrompt, 50, nil) {
		t.Fatal("Expected Allocate(50) to fail at 60/100")
	}
	if used := m.Used(CategoryPrompt); used != 60 {
		t.Errorf("Expected usage unchanged at 60 after rejection, got %d", used)
	}
	if !m.Allocate(CategoryPrompt, 40, nil) {
		t.Fatal("Expected Allocate(40) to succeed")
	}
	if used := m.Used(CategoryPrompt); used != 100 {
		t.Errorf("Expected usage 100, got %d", used)
	}
	if available := m.Available(CategoryPrompt); available != 0 {
		t.Errorf("Expected 0 available, got %d", available)
	}
}

func TestManager_Allocate_CategoriesIndependent(t *testing.T) {
	m := NewManager(100, nil)

	// Prompt quota is 50; Total quota is 100. Exhausting Prompt leaves
	// Total headroom untouched and vice versa.
	if !m.Allocate(CategoryPrompt, 50, nil) {
		t.Fatal("Expected prompt allocation to succeed")
	}
	if m.Allocate(CategoryPrompt, 1, nil) {
		t.Error("Expected prompt to be exhausted")
	}
	if !m.CanAllocate(CategoryTotal, 100) {
		t.Error("Expected total category to be unaffected by prompt usage")
	}
}

func TestManager_CanAllocate_NoMutation(t *testing.T) {
	m := NewManager(100, nil)

	m.CanAllocate(CategoryPrompt, 10)
	if used := m.Used(CategoryPrompt); used != 0 {
		t.Errorf("CanAllocate mutated usage: %d", used)
	}
}

func TestManager_AllocateOrError(t *testing.T) {
	m := NewManager(200, map[Category]int{CategoryPrompt: 100})
	m.Allocate(CategoryPrompt, 90, nil)

	err := m.AllocateOrError(CategoryPrompt, 20, nil)
	if err == nil {
		t.Fatal("Expected error for over-quota allocation")
	}

	var limitErr *TokenLimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("Expected TokenLimitError, got %T", err)
	}
	if limitErr.Requested != 20 || limitErr.Available != 10 {
		t.Errorf("Unexpected error fields: requested=%d available=%d",
			limitErr.Requested, limitErr.Available)
	}
	if !errors.Is(err, ErrTokenLimitExceeded) {
		t.Error("Expected errors.Is(err, ErrTokenLimitExceeded) to hold")
	}
}

func TestManager_AllocateOrError_ConcurrentShortfall(t *testing.T) {
	// A rejection's reported Available is the headroom at the moment the
	// allocation failed, so it is always smaller than the request even
	// while other goroutines reset usage.
	m := NewManager(1000, map[Category]int{CategoryPrompt: 100})
	m.Allocate(CategoryPrompt, 80, nil)

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.ResetUsage(CategoryPrompt)
			m.Allocate(CategoryPrompt, 80, nil)
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			err := m.AllocateOrError(CategoryPrompt, 60, nil)
			if err == nil {
				return
			}
			var limitErr *TokenLimitError
			if !errors.As(err, &limitErr) {
				t.Errorf("Expected TokenLimitError, got %T", err)
				return
			}
			if limitErr.Available >= limitErr.Requested {
				t.Errorf("Rejection reports available=%d >= requested=%d",
					limitErr.Available, limitErr.Requested)
			}
		}()
	}
	wg.Wait()
}

func TestManager_Allocate_Concurrent(t *testing.T) {
	// Interleaved allocations never push accepted usage past the quota.
	m := NewManager(1000, map[Category]int{CategoryCompletion: 500})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Allocate(CategoryCompletion, 10, nil)
		}()
	}
	wg.Wait()

	if used := m.Used(CategoryCompletion); used > 500 {
		t.Errorf("Accepted usage %d exceeds quota 500", used)
	}
}

// ============================================================================
// Quota Update Tests
// ============================================================================

func TestManager_UpdateQuota(t *testing.T) {
	m := NewManager(1000, nil)
	m.Allocate(CategoryPrompt, 100, nil)

	if !m.UpdateQuota(CategoryPrompt, 200) {
		t.Error("Expected quota update above usage to succeed")
	}
	if m.UpdateQuota(CategoryPrompt, 50) {
		t.Error("Expected quota update below usage to be rejected")
	}
	if m.UpdateQuota(CategoryPrompt, 2000) {
		t.Error("Expected quota update above global max to be rejected")
	}
	if m.UpdateQuota(CategoryPrompt, -1) {
		t.Error("Expected negative quota to be rejected")
	}
	if got := m.Quota(CategoryPrompt); got != 200 {
		t.Errorf("Expected quota 200 after rejected updates, got %d", got)
	}
}

// ============================================================================
// Reset and History Tests
// ============================================================================

func TestManager_ResetUsage(t *testing.T) {
	m := NewManager(1000, nil)
	m.Allocate(CategoryPrompt, 100, nil)
	m.Allocate(CategoryCompletion, 100, nil)

	m.ResetUsage(CategoryPrompt)
	if used := m.Used(CategoryPrompt); used != 0 {
		t.Errorf("Expected prompt usage 0 after reset, got %d", used)
	}
	if used := m.Used(CategoryCompletion); used != 100 {
		t.Errorf("Expected completion usage untouched, got %d", used)
	}

	m.ResetAllUsage()
	if used := m.Used(CategoryCompletion); used != 0 {
		t.Errorf("Expected completion usage 0 after full reset, got %d", used)
	}
}

func TestManager_History(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewFake(start)
	m := NewManagerWithClock(1000, nil, clk)

	m.Allocate(CategoryPrompt, 10, map[string]any{"turn": 1})
	clk.Advance(time.Minute)
	m.Allocate(CategoryPrompt, 20, map[string]any{"turn": 2})
	clk.Advance(time.Minute)
	m.Allocate(CategoryPrompt, 30, map[string]any{"turn": 3})

	all := m.History(CategoryPrompt, time.Time{}, time.Time{})
	if len(all) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(all))
	}

	windowed := m.History(CategoryPrompt, start.Add(30*time.Second), start.Add(90*time.Second))
	if len(windowed) != 1 || windowed[0].Count != 20 {
		t.Errorf("Expected only the middle record in window, got %v", windowed)
	}
}

func TestManager_Stats(t *testing.T) {
	m := NewManager(1000, nil)
	m.Allocate(CategoryPrompt, 100, nil)
	m.Allocate(CategoryContext, 50, nil)

	stats := m.Stats()
	if stats.TotalAllocated != 150 {
		t.Errorf("Expected total 150, got %d", stats.TotalAllocated)
	}
	if stats.Used[CategoryPrompt] != 100 {
		t.Errorf("Expected prompt usage 100, got %d", stats.Used[CategoryPrompt])
	}
	if stats.Available[CategoryContext] != 200 {
		t.Errorf("Expected context available 200, got %d", stats.Available[CategoryContext])
	}
}
