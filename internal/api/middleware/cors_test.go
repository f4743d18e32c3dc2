package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func corsRouter(config CORSConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS(config))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func corsRequest(r *gin.Engine, method, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/ping", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		config     CORSConfig
		origin     string
		wantOrigin string
		wantCreds  string
		wantStatus int
	}{
		{
			name:       "allow all",
			config:     CORSConfig{AllowAllOrigins: true},
			origin:     "https://dashboard.example.com",
			wantOrigin: "*",
			wantStatus: http.StatusOK,
		},
		{
			name:       "listed origin echoed",
			config:     CORSConfig{AllowedOrigins: []string{"https://dashboard.example.com"}},
			origin:     "https://dashboard.example.com",
			wantOrigin: "https://dashboard.example.com",
			wantCreds:  "true",
			wantStatus: http.StatusOK,
		},
		{
			name:       "unlisted origin gets no headers",
			config:     CORSConfig{AllowedOrigins: []string{"https://dashboard.example.com"}},
			origin:     "https://evil.example.com",
			wantOrigin: "",
			wantStatus: http.StatusOK,
		},
		{
			name:       "empty list allows any origin",
			config:     CORSConfig{},
			origin:     "https://anywhere.example.com",
			wantOrigin: "https://anywhere.example.com",
			wantCreds:  "true",
			wantStatus: http.StatusOK,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := corsRequest(corsRouter(tc.config), http.MethodGet, tc.origin)
			if w.Code != tc.wantStatus {
				t.Errorf("status: got %d, want %d", w.Code, tc.wantStatus)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tc.wantOrigin {
				t.Errorf("allow-origin: got %q, want %q", got, tc.wantOrigin)
			}
			if got := w.Header().Get("Access-Control-Allow-Credentials"); got != tc.wantCreds {
				t.Errorf("allow-credentials: got %q, want %q", got, tc.wantCreds)
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	r := corsRouter(CORSConfig{AllowedOrigins: []string{"https://dashboard.example.com"}})

	w := corsRequest(r, http.MethodOptions, "https://dashboard.example.com")
	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status: got %d, want %d", w.Code, http.StatusNoContent)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST, OPTIONS" {
		t.Errorf("allow-methods: %q", got)
	}

	// A preflight from an unknown origin is answered without CORS headers.
	w = corsRequest(r, http.MethodOptions, "https://evil.example.com")
	if w.Code != http.StatusNoContent {
		t.Errorf("denied preflight status: got %d, want %d", w.Code, http.StatusNoContent)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("denied preflight allow-origin: %q", got)
	}
}
