package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestTruncate(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello!", 5, "hello…"},
		{"hello", 0, "hello"},
		{"hello", -1, "hello"},
	}
	for _, c := range cases {
		if got := truncate(c.in, c.max); got != c.want {
			t.Errorf("truncate(%q, %d) = %q; want %q", c.in, c.max, got, c.want)
		}
	}
}

func TestRedactingLogger_PassesRequestThrough(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), RedactingLogger(RedactOptions{MaskHeaders: []string{"X-API-Key"}}))
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "done") })

	req := httptest.NewRequest(http.MethodGet, "/ok?email=someone@example.com", nil)
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set("X-API-Key", "k-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK || w.Body.String() != "done" {
		t.Fatalf("request altered by logger: %d %q", w.Code, w.Body.String())
	}
}

func TestRedactingLogger_ErrorStatusStillWritten(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), RedactingLogger(RedactOptions{}))
	r.GET("/bad", func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"code": "bad_request"})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bad", nil))
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "bad_request") {
		t.Fatalf("response unexpected: %d %q", w.Code, w.Body.String())
	}
}
