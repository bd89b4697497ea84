package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestMiddlewareAndEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(Middleware())
	Register(router, "/metrics")
	router.GET("/probe", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	probe := httptest.NewRequest(http.MethodGet, "/probe", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, probe)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200 from probe, got %d", recorder.Code)
	}

	ObserveConversion("text/markdown", "text/html")

	scrape := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, scrape)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200 from metrics endpoint, got %d", recorder.Code)
	}

	body := recorder.Body.String()
	if !strings.Contains(body, "fragstore_http_requests_total") {
		t.Fatalf("expected request counter in scrape output")
	}
	if !strings.Contains(body, "fragstore_conversions_total") {
		t.Fatalf("expected conversion counter in scrape output")
	}
}
