package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/danmuck/cribbage/internal/testutil/testlog"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)

	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("cribbaged", "GET", "/health", 200, 12*time.Millisecond)
	ObserveAckWait(3 * time.Millisecond)
	RecordFrame("out", "wait_name")
	RecordWireFailure("read")
}

func TestTableCountersMove(t *testing.T) {
	testlog.Start(t)

	before := testutil.ToFloat64(tableRejections.WithLabelValues("sequencing"))
	RecordRejection("sequencing")
	RecordRejection("sequencing")
	if got := testutil.ToFloat64(tableRejections.WithLabelValues("sequencing")); got != before+2 {
		t.Fatalf("unexpected rejections: got=%v want=%v", got, before+2)
	}

	RecordMessage("out", "wait_name")
	if got := testutil.ToFloat64(tableMessages.WithLabelValues("out", "wait_name")); got < 1 {
		t.Fatalf("unexpected messages: got=%v", got)
	}

	SetSessionStates(map[string]int{"waiting_name": 2})
	SetSessionStates(map[string]int{"watching": 1})
	if n := testutil.CollectAndCount(tableSessions); n != 1 {
		t.Fatalf("stale session gauge series: got=%d want=1", n)
	}
}
