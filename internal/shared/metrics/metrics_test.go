package metrics

import (
	"strings"
	"testing"
)

func TestRenderIncludesCounters(t *testing.T) {
	IncUploadAccepted()
	IncPaymentVerified()
	AddDocumentsSwept(2)
	ObserveAnalysisDurationMs(300)

	out := Render()
	for _, want := range []string{
		"# TYPE uploads_accepted_total counter",
		"# TYPE payments_verified_total counter",
		"# TYPE documents_swept_total counter",
		"analysis_duration_ms_bucket{le=\"500\"}",
		"analysis_duration_ms_bucket{le=\"+Inf\"}",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestHistogramIsCumulative(t *testing.T) {
	h := newHistogram([]float64{10, 100})
	h.Observe(5)
	h.Observe(50)
	h.Observe(500)

	snap := h.Snapshot()
	if snap.count != 3 || snap.sum != 555 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.counts[0] != 1 || snap.counts[1] != 1 {
		t.Fatalf("unexpected bucket counts: %v", snap.counts)
	}
}
