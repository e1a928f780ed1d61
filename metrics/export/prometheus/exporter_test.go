package prometheus

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	contactAuth "github.com/MrEthical07/contactAuth"
	"github.com/MrEthical07/contactAuth/metrics/export/internaldefs"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeSource struct {
	snapshot contactAuth.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() contactAuth.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                         { return f.dropped }

func TestCollectEmptyWhenMetricsDisabled(t *testing.T) {
	c := NewCollectorFromSource(fakeSource{
		snapshot: contactAuth.MetricsSnapshot{
			Counters:   map[contactAuth.MetricID]uint64{},
			Histograms: map[contactAuth.MetricID][]uint64{},
		},
	})

	if n := testutil.CollectAndCount(c); n != 0 {
		t.Fatalf("expected no metrics for disabled source, got %d", n)
	}
}

func TestCollectCountsEverySeries(t *testing.T) {
	c := NewCollectorFromSource(fakeSource{
		snapshot: contactAuth.MetricsSnapshot{
			Counters: map[contactAuth.MetricID]uint64{contactAuth.MetricLoginSuccess: 1},
			Histograms: map[contactAuth.MetricID][]uint64{
				contactAuth.MetricLoginLatency:   {1},
				contactAuth.MetricResolveLatency: {1},
			},
		},
	})

	want := len(internaldefs.CounterDefs) + len(internaldefs.HistogramDefs) + 1
	if n := testutil.CollectAndCount(c); n != want {
		t.Fatalf("collected %d metrics, want %d", n, want)
	}
}

func TestHandlerServesCountersAndHistograms(t *testing.T) {
	h := Handler(fakeSource{
		snapshot: contactAuth.MetricsSnapshot{
			Counters: map[contactAuth.MetricID]uint64{
				contactAuth.MetricLoginSuccess: 7,
				contactAuth.MetricCacheHit:     3,
			},
			Histograms: map[contactAuth.MetricID][]uint64{
				contactAuth.MetricResolveLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	out := string(body)

	for _, want := range []string{
		"contactauth_login_success_total 7",
		"contactauth_cache_hit_total 3",
		`contactauth_resolve_latency_seconds_bucket{le="0.005"} 1`,
		`contactauth_resolve_latency_seconds_bucket{le="+Inf"} 36`,
		"contactauth_resolve_latency_seconds_count 36",
		"contactauth_audit_dropped_total 2",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "contactauth_login_latency_seconds_bucket") {
		t.Fatalf("unexpected login histogram without samples:\n%s", out)
	}
}
