package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestEnabled(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"":         false,
		"off":      false,
		" OFF ":    false,
		"disabled": false,
		":9090":    true,
	}
	for addr, want := range tests {
		if got := Enabled(addr); got != want {
			t.Fatalf("Enabled(%q) = %v, want %v", addr, got, want)
		}
	}
}

func TestHandlerServesRegisteredMetrics(t *testing.T) {
	ListFetchesTotal.WithLabelValues("pipelines", "ok").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "ngconsole_list_fetches_total") {
		t.Fatalf("metrics output missing list fetch counter")
	}
}

func TestStartServerDisabled(t *testing.T) {
	t.Parallel()

	srv, errCh := StartServer(context.Background(), "off")
	if srv != nil || errCh != nil {
		t.Fatalf("StartServer(off) = %v, %v, want nil values", srv, errCh)
	}
}
