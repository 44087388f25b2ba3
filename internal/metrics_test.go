package internal

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

func scrape(t *testing.T, router http.Handler) string {
	t.Helper()
	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 from /metrics, got %d", w.Code)
	}
	return w.Body.String()
}

func TestMetricsEndpoint(t *testing.T) {
	metrics := NewMetrics()
	router := chi.NewRouter()
	router.Use(metrics.Middleware())

	router.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})
	router.Get("/metrics", metrics.Handler().ServeHTTP)

	testReq := httptest.NewRequest("GET", "/ping", nil)
	testW := httptest.NewRecorder()
	router.ServeHTTP(testW, testReq)

	if testW.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", testW.Code)
	}
	if testW.Body.String() != "pong" {
		t.Errorf("Expected body 'pong', got '%s'", testW.Body.String())
	}

	body := scrape(t, router)

	expectedMetrics := []string{"http_requests_total", "http_request_duration_seconds", "go_goroutines"}
	for _, metric := range expectedMetrics {
		if !strings.Contains(body, metric) {
			t.Errorf("Expected metric '%s' not found in response", metric)
		}
	}
	if !strings.Contains(body, `path="/ping"`) {
		t.Error("Expected metrics to contain path label for /ping endpoint")
	}
}

func TestMetricsWildcardRouteHidesIdentifiers(t *testing.T) {
	metrics := NewMetrics()
	router := chi.NewRouter()
	router.Use(metrics.Middleware())

	router.Get("/assets/*", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	router.Get("/metrics", metrics.Handler().ServeHTTP)

	req := httptest.NewRequest("GET", "/assets/Cu_Alloy-A_50_Acme_2020-01-01_1_0_New_2020-02-01", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	body := scrape(t, router)
	if !strings.Contains(body, `path="/assets/*"`) {
		t.Error("Expected metrics to contain the route pattern")
	}
	if strings.Contains(body, "Alloy-A") {
		t.Error("Asset identifier leaked into metric labels")
	}
	if !strings.Contains(body, `status="Not Found"`) {
		t.Error("Expected status label from the handler's WriteHeader")
	}
}

func TestMetricsRegisterer(t *testing.T) {
	metrics := NewMetrics()
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "asset_test_total",
		Help: "Test counter",
	})
	metrics.Registerer().MustRegister(counter)
	counter.Inc()

	router := chi.NewRouter()
	router.Get("/metrics", metrics.Handler().ServeHTTP)

	if body := scrape(t, router); !strings.Contains(body, "asset_test_total 1") {
		t.Error("Expected collector registered through Registerer to be served")
	}
}

func TestStatusRecorder(t *testing.T) {
	w := httptest.NewRecorder()
	rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}

	rec.WriteHeader(http.StatusCreated)
	rec.WriteHeader(http.StatusInternalServerError)

	if rec.code != http.StatusCreated {
		t.Errorf("Expected first status to stick, got %d", rec.code)
	}

	rec2 := &statusRecorder{ResponseWriter: httptest.NewRecorder(), code: http.StatusOK}
	rec2.Write([]byte("body"))
	rec2.WriteHeader(http.StatusTeapot)
	if rec2.code != http.StatusOK {
		t.Errorf("Expected implicit 200 after Write, got %d", rec2.code)
	}
}
