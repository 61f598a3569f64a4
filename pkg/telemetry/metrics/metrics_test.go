package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// testMetrics is shared across tests because promauto registers with
// the default registry, and registering the same collectors twice
// panics.
var testMetrics = New()

func TestMetrics_SessionLifecycle(t *testing.T) {
	before := testutil.ToFloat64(testMetrics.sessionsTotal)
	active := testutil.ToFloat64(testMetrics.sessionsActive)

	testMetrics.RecordSessionCreated()
	testMetrics.RecordSessionCreated()

	if got := testutil.ToFloat64(testMetrics.sessionsTotal); got != before+2 {
		t.Errorf("sessions_created_total = %v, want %v", got, before+2)
	}
	if got := testutil.ToFloat64(testMetrics.sessionsActive); got != active+2 {
		t.Errorf("sessions_active = %v, want %v", got, active+2)
	}

	testMetrics.RecordSessionTorndown("s-1")
	if got := testutil.ToFloat64(testMetrics.sessionsActive); got != active+1 {
		t.Errorf("sessions_active after teardown = %v, want %v", got, active+1)
	}
}

func TestMetrics_TokenAllocations(t *testing.T) {
	counter := testMetrics.tokenAllocations.WithLabelValues("prompt", "accepted")
	before := testutil.ToFloat64(counter)

	testMetrics.RecordTokenAllocation("prompt", true)
	testMetrics.RecordTokenAllocation("prompt", false)

	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Errorf("accepted allocations = %v, want %v", got, before+1)
	}

	testMetrics.UpdateTokensUsed("s-1", "prompt", 120)
	gauge := testMetrics.tokensUsed.WithLabelValues("s-1", "prompt")
	if got := testutil.ToFloat64(gauge); got != 120 {
		t.Errorf("tokens_used = %v, want 120", got)
	}
}

func TestMetrics_ContextAndFlow(t *testing.T) {
	testMetrics.UpdateContextOccupancy("s-2", 42)
	gauge := testMetrics.contextItems.WithLabelValues("s-2")
	if got := testutil.ToFloat64(gauge); got != 42 {
		t.Errorf("context_items = %v, want 42", got)
	}

	counter := testMetrics.flowViolations.WithLabelValues("max_turns")
	before := testutil.ToFloat64(counter)
	testMetrics.RecordFlowViolation("max_turns")
	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Errorf("flow_violations = %v, want %v", got, before+1)
	}
}

func TestMetrics_NilReceiverIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordSessionCreated()
	m.RecordSessionTorndown("s-1")
	m.UpdateContextOccupancy("s-1", 1)
	m.RecordContextEviction("expired", 1)
	m.RecordTokenAllocation("prompt", true)
	m.UpdateTokensUsed("s-1", "prompt", 1)
	m.RecordFlowViolation("max_turns")
	m.RecordSweepDuration(0.1)
}

func TestHandler_ServesMetrics(t *testing.T) {
	testMetrics.RecordSessionCreated()

	server := httptest.NewServer(Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(body), "meridian_sessions_created_total") {
		t.Error("exposition missing meridian_sessions_created_total")
	}
}
