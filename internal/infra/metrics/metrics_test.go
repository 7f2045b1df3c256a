//go:build !integration

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersNormalizeLabels(t *testing.T) {
	IncCompletionFailure(" Timeout ")
	IncCompletionFailure("timeout")
	if got := testutil.ToFloat64(completionFailures.WithLabelValues("timeout")); got != 2 {
		t.Fatalf("completion_failures_total{kind=timeout} = %v, want 2", got)
	}

	IncTurn("Living Room", true)
	IncTurn("living room", false)
	if got := testutil.ToFloat64(conversationTurns.WithLabelValues("living room", "ok")); got != 1 {
		t.Fatalf("ok turns = %v, want 1", got)
	}
	if got := testutil.ToFloat64(conversationTurns.WithLabelValues("living room", "failed")); got != 1 {
		t.Fatalf("failed turns = %v, want 1", got)
	}
}

func TestMustRegisterIsIdempotent(t *testing.T) {
	MustRegister()
	MustRegister()
}

func TestHistoryPrunedAndBuildInfo(t *testing.T) {
	AddHistoryPruned("Kitchen", 3)
	if got := testutil.ToFloat64(historyPruned.WithLabelValues("kitchen")); got != 3 {
		t.Fatalf("history_pruned_users_total{entry=kitchen} = %v, want 3", got)
	}

	SetBuildInfo("1.2.3", "abc")
	if n := testutil.CollectAndCount(buildInfo); n != 1 {
		t.Fatalf("build info series = %d, want 1", n)
	}
}
