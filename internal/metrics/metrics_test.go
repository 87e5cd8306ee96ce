package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCacheCounters(t *testing.T) {
	before := testutil.ToFloat64(cacheRequestsTotal.WithLabelValues("metrics-test", "hit"))
	ObserveCacheHit("metrics-test")
	ObserveCacheMiss("metrics-test")
	ObserveCacheLoadError("metrics-test")

	if got := testutil.ToFloat64(cacheRequestsTotal.WithLabelValues("metrics-test", "hit")); got != before+1 {
		t.Errorf("expected hit counter %f, got %f", before+1, got)
	}
	if got := testutil.ToFloat64(cacheLoadErrorsTotal.WithLabelValues("metrics-test")); got < 1 {
		t.Errorf("expected load error counter to be observed, got %f", got)
	}
}

func TestSetStatusCountsKeepsEveryLabel(t *testing.T) {
	SetStatusCounts(map[string]int{"Started": 2, "Complete": 1, OtherStatus: 0})
	if got := testutil.ToFloat64(projectStatus.WithLabelValues("Started")); got != 2 {
		t.Fatalf("expected Started gauge 2, got %f", got)
	}
	SetStatusCounts(map[string]int{"Started": 0, "Complete": 4, OtherStatus: 3})
	if got := testutil.ToFloat64(projectStatus.WithLabelValues("Started")); got != 0 {
		t.Errorf("expected Started gauge 0, got %f", got)
	}
	if got := testutil.ToFloat64(projectStatus.WithLabelValues(OtherStatus)); got != 3 {
		t.Errorf("expected other gauge 3, got %f", got)
	}
	if got := testutil.CollectAndCount(projectStatus); got != 3 {
		t.Errorf("expected 3 status series, got %d", got)
	}
}

func TestOutcomeLabels(t *testing.T) {
	before := testutil.ToFloat64(exportsTotal.WithLabelValues("error"))
	ObserveExport(errors.New("boom"))
	if got := testutil.ToFloat64(exportsTotal.WithLabelValues("error")); got != before+1 {
		t.Errorf("expected error export counter %f, got %f", before+1, got)
	}
	ObserveProjectCreated(nil)
	if got := testutil.ToFloat64(projectsCreatedTotal.WithLabelValues("success")); got < 1 {
		t.Errorf("expected success create counter, got %f", got)
	}
	failedBefore := testutil.ToFloat64(projectsCreatedTotal.WithLabelValues("error"))
	ObserveProjectCreated(errors.New("invalid project input"))
	if got := testutil.ToFloat64(projectsCreatedTotal.WithLabelValues("error")); got != failedBefore+1 {
		t.Errorf("expected error create counter %f, got %f", failedBefore+1, got)
	}
}
