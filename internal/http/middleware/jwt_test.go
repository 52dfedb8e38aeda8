package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"clicker_empire/internal/service"

	"github.com/gin-gonic/gin"
)

func TestJWT(t *testing.T) {
	service.InitJWT("middleware-secret")
	token, err := service.GenerateJWT(9)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	r := gin.New()
	r.GET("/me", JWT(), func(c *gin.Context) {
		id, _ := c.Get("user_id")
		c.JSON(http.StatusOK, gin.H{"id": id})
	})

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + token, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("status = %d; want %d", w.Code, tc.want)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) {
		id, _ := c.Get("request_id")
		c.String(http.StatusOK, id.(string))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	generated := w.Header().Get(RequestIDHeader)
	if generated == "" || w.Body.String() != generated {
		t.Fatalf("request id not generated: header=%q body=%q", generated, w.Body.String())
	}

	const given = "6f1c2a52-7f0e-4a43-9a3e-3c1d0b2c9f10"
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, given)
	r.ServeHTTP(w, req)
	if w.Header().Get(RequestIDHeader) != given {
		t.Fatalf("incoming request id not kept: %q", w.Header().Get(RequestIDHeader))
	}
}
