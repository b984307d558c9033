package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/danmuck/cribbage/internal/testutil/testlog"
)

func TestRequestMetricsCollapseUnknownRoutes(t *testing.T) {
	testlog.Start(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger(zerolog.Nop()))
	r.Use(RequestMetricsMiddleware("mw-test"))
	r.GET("/table", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/table", "/nope", "/also-nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := testutil.ToFloat64(httpRequests.WithLabelValues("mw-test", "GET", "/table", "200")); got != 1 {
		t.Fatalf("table requests got=%v want=1", got)
	}
	if got := testutil.ToFloat64(httpRequests.WithLabelValues("mw-test", "GET", unmatched, "404")); got != 2 {
		t.Fatalf("unmatched requests got=%v want=2", got)
	}
}
