package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRunSuccess(t *testing.T) {
	before := testutil.ToFloat64(RunsTotal.WithLabelValues("success", ""))
	RecordRunSuccess(20*time.Millisecond, 7, 1234.5, time.Unix(1700000000, 0))

	if got := testutil.ToFloat64(RunsTotal.WithLabelValues("success", "")); got != before+1 {
		t.Fatalf("expected runs counter to increase, got %v", got)
	}
	if testutil.ToFloat64(RecordsLoaded) != 7 || testutil.ToFloat64(TotalAmount) != 1234.5 {
		t.Fatalf("gauges not updated")
	}
	if testutil.ToFloat64(LastSuccess) != 1700000000 {
		t.Fatalf("unexpected last success %v", testutil.ToFloat64(LastSuccess))
	}
}

func TestRecordRunFailureAndPublish(t *testing.T) {
	before := testutil.ToFloat64(RunsTotal.WithLabelValues("error", "transport"))
	RecordRunFailure(time.Millisecond, "transport")
	if testutil.ToFloat64(RunsTotal.WithLabelValues("error", "transport")) != before+1 {
		t.Fatalf("failure not counted")
	}

	RecordPublish("kafka", errors.New("down"))
	if testutil.ToFloat64(EventsPublished.WithLabelValues("kafka", "error")) < 1 {
		t.Fatalf("publish error not counted")
	}
}

func TestHandlerExposesNamespace(t *testing.T) {
	RecordHTTP(http.MethodGet, 200)
	RecordCache(true)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "paydash_http_requests_total") {
		t.Fatalf("metrics output missing paydash series")
	}
}
